package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/harukimoto/devkpi/internal/chat"
	apperrors "github.com/harukimoto/devkpi/internal/errors"
	"github.com/harukimoto/devkpi/internal/parser"
	"github.com/harukimoto/devkpi/internal/services"
)

const completionPhrase = "validation completed working fine"

// welcomeCacheLimit bounds the process-lifetime "welcome already shown"
// set. Entries are never evicted; past the limit new identities simply see
// the welcome message again on the next open.
const welcomeCacheLimit = 10000

// EventsHandler routes inbound chat events to the parsing, lifecycle and
// report components.
type EventsHandler struct {
	tasks      *services.TaskService
	reports    *services.ReportService
	chatClient chat.Client
	msgParser  parser.MessageParser
	logger     *zap.Logger

	welcomeMu sync.Mutex
	welcomed  map[string]struct{}
}

func NewEventsHandler(
	tasks *services.TaskService,
	reports *services.ReportService,
	chatClient chat.Client,
	msgParser parser.MessageParser,
	logger *zap.Logger,
) *EventsHandler {
	return &EventsHandler{
		tasks:      tasks,
		reports:    reports,
		chatClient: chatClient,
		msgParser:  msgParser,
		logger:     logger,
		welcomed:   make(map[string]struct{}),
	}
}

// HandleEvents is the Slack Events API endpoint. Message events are
// acknowledged immediately and processed concurrently; pipelines for
// different tasks never block each other.
func (h *EventsHandler) HandleEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	event, err := slackevents.ParseEvent(body, slackevents.OptionNoVerifyToken())
	if err != nil {
		h.logger.Warn("failed to parse event", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.String(http.StatusOK, challenge.Challenge)
	case slackevents.CallbackEvent:
		switch inner := event.InnerEvent.Data.(type) {
		case *slackevents.MessageEvent:
			go h.handleMessage(context.Background(), inner)
		case *slackevents.AppHomeOpenedEvent:
			go h.handleAppHomeOpened(context.Background(), inner)
		}
		c.Status(http.StatusOK)
	default:
		c.Status(http.StatusOK)
	}
}

// handleMessage implements the build-update flow: parse, record, acknowledge
// and, on the completion phrase, trigger the report pipeline.
func (h *EventsHandler) handleMessage(ctx context.Context, event *slackevents.MessageEvent) {
	if event.Text == "" || event.Channel == "" || event.SubType == "bot_message" {
		return
	}

	lower := strings.ToLower(event.Text)
	if !strings.Contains(lower, "dev build") && !strings.Contains(lower, "development build") {
		return
	}

	h.logger.Info("build message received",
		zap.String("user", event.User),
		zap.String("channel", event.Channel),
	)

	userInfo, err := h.chatClient.GetUserInfo(ctx, event.User)
	if err != nil {
		h.replyGenericFailure(ctx, event.Channel, event.User, err)
		return
	}
	username := userInfo.RealName
	if username == "" {
		username = userInfo.Name
	}

	taskName, ok := h.msgParser.ExtractTaskName(event.Text)
	if !ok {
		h.reply(ctx, event.Channel,
			fmt.Sprintf("Sorry <@%s>, I couldn't find a valid task name in your message.", event.User))
		return
	}

	task, newDefects, err := h.tasks.RecordUpdate(services.RecordUpdateInput{
		TaskName:   taskName,
		AuthorID:   event.User,
		AuthorName: username,
		Role:       h.msgParser.ClassifyRole(username, event.Text),
		Content:    event.Text,
		DefectIDs:  h.msgParser.ExtractDefectIDs(event.Text),
		Timestamp:  time.Now(),
	})
	if err != nil {
		h.replyGenericFailure(ctx, event.Channel, event.User, err)
		return
	}

	ack := fmt.Sprintf("Task %q has been updated by <@%s>.", task.Name, event.User)
	if len(newDefects) > 0 {
		ack += fmt.Sprintf(" Defects added: %s", strings.Join(newDefects, ", "))
	}
	h.reply(ctx, event.Channel, ack)

	if strings.Contains(lower, completionPhrase) {
		h.handleValidationCompleted(ctx, event.Channel, event.User, taskName)
	}
}

// handleValidationCompleted implements the completion flow: complete the
// task, render and persist the basic report synchronously, then start the
// analytics pipeline in its own goroutine.
func (h *EventsHandler) handleValidationCompleted(ctx context.Context, channel, userID, taskName string) {
	task, updates, defects, err := h.tasks.CompleteTask(taskName)
	if err != nil {
		if apperrors.IsUserFacing(err) {
			h.reply(ctx, channel,
				fmt.Sprintf("Sorry <@%s>, task %q was not found in the database.", userID, taskName))
			return
		}
		h.replyGenericFailure(ctx, channel, userID, err)
		return
	}

	if _, err := h.reports.GenerateBasicReport(task, updates, defects); err != nil {
		h.replyGenericFailure(ctx, channel, userID, err)
		return
	}
	h.reply(ctx, channel,
		fmt.Sprintf("Task %q marked as Completed. Sending the full report to <@%s>.", task.Name, task.CreatedBy))

	// Stage 2 only starts after the basic report reference is persisted.
	go func() {
		if err := h.reports.RunAnalyticsPipeline(context.Background(), task, updates, defects); err != nil {
			h.logger.Error("analytics pipeline failed",
				zap.String("task", task.Name),
				zap.Error(err),
			)
		}
	}()
}

// handleAppHomeOpened sends the one-time welcome message listing filter
// command examples.
func (h *EventsHandler) handleAppHomeOpened(ctx context.Context, event *slackevents.AppHomeOpenedEvent) {
	h.welcomeMu.Lock()
	_, seen := h.welcomed[event.User]
	if !seen && len(h.welcomed) < welcomeCacheLimit {
		h.welcomed[event.User] = struct{}{}
	}
	h.welcomeMu.Unlock()
	if seen {
		return
	}

	dmChannel, err := h.chatClient.OpenDirectChannel(ctx, event.User)
	if err != nil {
		h.logger.Warn("failed to open welcome channel", zap.Error(err))
		return
	}

	h.reply(ctx, dmChannel, "Welcome to the Dev KPI bot! Here are some useful filter commands:\n"+
		"• `/filters @alice` - Filter by user only\n"+
		"• `/filters 2023-01-01 2023-01-31` - Filter by date range only\n"+
		"• `/filters Completed` - Filter by status only\n"+
		"• `/filters clear` - Delete recent messages in this channel")
}

func (h *EventsHandler) reply(ctx context.Context, channel, text string) {
	if err := h.chatClient.PostMessage(ctx, channel, text); err != nil {
		h.logger.Warn("failed to post reply", zap.Error(err))
	}
}

func (h *EventsHandler) replyGenericFailure(ctx context.Context, channel, userID string, cause error) {
	h.logger.Error("failed to process message", zap.Error(cause))
	h.reply(ctx, channel,
		fmt.Sprintf("Sorry <@%s>, there was an error processing your message.", userID))
}
