// Package chat abstracts the chat-platform collaborator. Services and
// handlers depend on the Client interface; the Slack-backed implementation
// lives in slack.go and tests substitute fakes.
package chat

import "context"

// Message is a delivered channel message, identified by the platform's
// message ID (a timestamp on Slack).
type Message struct {
	ID   string
	Text string
}

// User is a directory entry of the chat platform.
type User struct {
	ID          string
	Name        string
	DisplayName string
	RealName    string
}

// Client owns every outbound chat primitive the bot uses.
type Client interface {
	// PostMessage posts a text message to a channel or direct channel.
	PostMessage(ctx context.Context, channelID, text string) error

	// UploadFile uploads a local file to a channel with a title and caption.
	UploadFile(ctx context.Context, channelID, path, filename, title, comment string) error

	// DeleteMessage deletes a single message from a channel.
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// ListRecentMessages lists up to limit recent messages in a channel.
	ListRecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error)

	// OpenDirectChannel opens (or reuses) a direct channel with a user and
	// returns its channel ID.
	OpenDirectChannel(ctx context.Context, userID string) (string, error)

	// GetUserInfo fetches a single directory entry by user ID.
	GetUserInfo(ctx context.Context, userID string) (*User, error)

	// ListUsers lists the full user directory.
	ListUsers(ctx context.Context) ([]User, error)
}
