package parser

import (
	"regexp"
	"strings"

	"github.com/harukimoto/devkpi/internal/models"
)

// MessageParser extracts structured fields from free-form build messages.
// The default implementation is regex based; it sits behind an interface so
// a stricter tokenizer could be substituted without touching the lifecycle
// or orchestration logic.
type MessageParser interface {
	ExtractTaskName(message string) (string, bool)
	ExtractDefectIDs(message string) []string
	ClassifyRole(username, message string) models.UserRole
}

// RegexMessageParser is the default MessageParser. It is pure and never
// fails; an absent task name is a normal outcome, not an error.
type RegexMessageParser struct{}

func NewMessageParser() MessageParser {
	return RegexMessageParser{}
}

var (
	defectPattern = regexp.MustCompile(`\b[Dd][-\s]?\d+\b`)
	digitsPattern = regexp.MustCompile(`\d+`)
)

// ExtractTaskName scans the message line by line for a build trigger line
// and returns the task name from the following line, up to the first " - "
// separator. Only the first trigger occurrence is considered.
func (RegexMessageParser) ExtractTaskName(message string) (string, bool) {
	lines := strings.Split(message, "\n")

	for i, line := range lines {
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "dev build", "dev build:", "development build", "development build:":
			if i+1 >= len(lines) {
				return "", false
			}
			name := strings.TrimSpace(strings.SplitN(lines[i+1], " - ", 2)[0])
			return name, name != ""
		}
	}

	return "", false
}

// ExtractDefectIDs scans the whole message for defect ID tokens ("D123",
// "d-123", "D 123") and normalizes them to the canonical "D<number>" form,
// de-duplicated in first-seen order.
func (RegexMessageParser) ExtractDefectIDs(message string) []string {
	matches := defectPattern.FindAllString(message, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := "D" + digitsPattern.FindString(m)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}

// ClassifyRole classifies the author as QA when either the message carries
// the literal "(QA)" marker or the display name contains "QA". DEV is the
// default for everyone else.
func (RegexMessageParser) ClassifyRole(username, message string) models.UserRole {
	if strings.Contains(message, "(QA)") || strings.Contains(username, "QA") {
		return models.UserRoleQA
	}
	return models.UserRoleDev
}
