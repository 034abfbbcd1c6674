package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/harukimoto/devkpi/internal/chat"
)

type postedMessage struct {
	Channel string
	Text    string
}

type uploadedFile struct {
	Channel string
	Path    string
	Comment string
}

// fakeChatClient is an in-memory chat.Client recording outbound calls.
type fakeChatClient struct {
	mu       sync.Mutex
	posts    []postedMessage
	uploads  []uploadedFile
	deleted  []string
	users    []chat.User
	messages []chat.Message
}

func (f *fakeChatClient) PostMessage(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, postedMessage{Channel: channelID, Text: text})
	return nil
}

func (f *fakeChatClient) UploadFile(_ context.Context, channelID, path, _, _, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploadedFile{Channel: channelID, Path: path, Comment: comment})
	return nil
}

func (f *fakeChatClient) DeleteMessage(_ context.Context, _, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeChatClient) ListRecentMessages(_ context.Context, _ string, limit int) ([]chat.Message, error) {
	if len(f.messages) > limit {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

func (f *fakeChatClient) OpenDirectChannel(_ context.Context, userID string) (string, error) {
	return fmt.Sprintf("DM-%s", userID), nil
}

func (f *fakeChatClient) GetUserInfo(_ context.Context, userID string) (*chat.User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			user := u
			return &user, nil
		}
	}
	return &chat.User{ID: userID, Name: userID}, nil
}

func (f *fakeChatClient) ListUsers(_ context.Context) ([]chat.User, error) {
	return f.users, nil
}

func (f *fakeChatClient) postedTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	texts := make([]string, 0, len(f.posts))
	for _, p := range f.posts {
		texts = append(texts, p.Text)
	}
	return texts
}

func (f *fakeChatClient) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeChatClient) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeChatClient) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}
