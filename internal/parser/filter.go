package parser

import (
	"regexp"
	"time"
)

// FilterCommand is the structured form of an ad-hoc filter command. All
// fields are independently optional; the zero value means an unfiltered
// query.
type FilterCommand struct {
	UserMention string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      string
}

// CommandParser extracts query intent from free-form filter commands.
type CommandParser interface {
	Parse(text string) FilterCommand
}

// RegexCommandParser is the default CommandParser. Unrecognized tokens are
// ignored, never errors.
type RegexCommandParser struct{}

func NewCommandParser() CommandParser {
	return RegexCommandParser{}
}

var (
	userPattern   = regexp.MustCompile(`@(\w+)`)
	datePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	statusPattern = regexp.MustCompile(`\b(In Progress|Completed)\b`)
)

// Parse extracts an optional @user mention, up to two ISO calendar dates
// (first found is the start, second the end) and an optional status phrase
// from the command text, in any order.
func (RegexCommandParser) Parse(text string) FilterCommand {
	var cmd FilterCommand

	if m := userPattern.FindStringSubmatch(text); m != nil {
		cmd.UserMention = m[1]
	}

	for _, raw := range datePattern.FindAllString(text, -1) {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			continue
		}
		if cmd.StartDate == nil {
			d := date
			cmd.StartDate = &d
			continue
		}
		if cmd.EndDate == nil {
			d := date
			cmd.EndDate = &d
			break
		}
	}

	if m := statusPattern.FindStringSubmatch(text); m != nil {
		cmd.Status = m[1]
	}

	return cmd
}
