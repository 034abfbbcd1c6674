package chat

import (
	"context"
	"fmt"
	"os"

	"github.com/slack-go/slack"
)

// SlackClient implements Client over the Slack Web API.
type SlackClient struct {
	api *slack.Client
}

func NewSlackClient(botToken string) *SlackClient {
	return &SlackClient{api: slack.New(botToken)}
}

func (c *SlackClient) PostMessage(ctx context.Context, channelID, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	return nil
}

func (c *SlackClient) UploadFile(ctx context.Context, channelID, path, filename, title, comment string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat upload file: %w", err)
	}

	_, err = c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:        channelID,
		File:           path,
		FileSize:       int(info.Size()),
		Filename:       filename,
		Title:          title,
		InitialComment: comment,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (c *SlackClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	_, _, err := c.api.DeleteMessageContext(ctx, channelID, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (c *SlackClient) ListRecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, Message{ID: m.Timestamp, Text: m.Text})
	}
	return messages, nil
}

func (c *SlackClient) OpenDirectChannel(ctx context.Context, userID string) (string, error) {
	channel, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{userID},
		ReturnIM: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to open direct channel: %w", err)
	}
	return channel.ID, nil
}

func (c *SlackClient) GetUserInfo(ctx context.Context, userID string) (*User, error) {
	info, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	return &User{
		ID:          info.ID,
		Name:        info.Name,
		DisplayName: info.Profile.DisplayName,
		RealName:    info.Profile.RealName,
	}, nil
}

func (c *SlackClient) ListUsers(ctx context.Context) ([]User, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	entries := make([]User, 0, len(users))
	for _, u := range users {
		entries = append(entries, User{
			ID:          u.ID,
			Name:        u.Name,
			DisplayName: u.Profile.DisplayName,
			RealName:    u.Profile.RealName,
		})
	}
	return entries, nil
}
