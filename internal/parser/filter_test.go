package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestParseFilterCommand(t *testing.T) {
	p := NewCommandParser()

	t.Run("all fields in any order", func(t *testing.T) {
		cmd := p.Parse("Completed 2023-01-01 @alice 2023-01-31")
		assert.Equal(t, "alice", cmd.UserMention)
		require.NotNil(t, cmd.StartDate)
		require.NotNil(t, cmd.EndDate)
		assert.Equal(t, date(t, "2023-01-01"), *cmd.StartDate)
		assert.Equal(t, date(t, "2023-01-31"), *cmd.EndDate)
		assert.Equal(t, "Completed", cmd.Status)
	})

	t.Run("single date becomes start only", func(t *testing.T) {
		cmd := p.Parse("2024-06-15")
		require.NotNil(t, cmd.StartDate)
		assert.Equal(t, date(t, "2024-06-15"), *cmd.StartDate)
		assert.Nil(t, cmd.EndDate)
	})

	t.Run("user mention only", func(t *testing.T) {
		cmd := p.Parse("@bob")
		assert.Equal(t, "bob", cmd.UserMention)
		assert.Nil(t, cmd.StartDate)
		assert.Empty(t, cmd.Status)
	})

	t.Run("in progress status phrase", func(t *testing.T) {
		cmd := p.Parse("show In Progress tasks")
		assert.Equal(t, "In Progress", cmd.Status)
	})

	t.Run("empty command is unfiltered", func(t *testing.T) {
		cmd := p.Parse("")
		assert.Equal(t, FilterCommand{}, cmd)
	})

	t.Run("unrecognized tokens ignored", func(t *testing.T) {
		cmd := p.Parse("please gimme everything urgently")
		assert.Equal(t, FilterCommand{}, cmd)
	})

	t.Run("invalid calendar date skipped", func(t *testing.T) {
		cmd := p.Parse("2023-13-40 2023-02-01")
		require.NotNil(t, cmd.StartDate)
		assert.Equal(t, date(t, "2023-02-01"), *cmd.StartDate)
		assert.Nil(t, cmd.EndDate)
	})
}
