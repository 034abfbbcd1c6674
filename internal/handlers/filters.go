package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/harukimoto/devkpi/internal/chat"
	apperrors "github.com/harukimoto/devkpi/internal/errors"
	"github.com/harukimoto/devkpi/internal/models"
	"github.com/harukimoto/devkpi/internal/parser"
	"github.com/harukimoto/devkpi/internal/services"
)

// clearMessageLimit is how many recent messages the clear command removes.
const clearMessageLimit = 15

// FiltersHandler serves the filter slash command: ad-hoc task queries and
// the channel clear command.
type FiltersHandler struct {
	tasks        *services.TaskService
	reports      *services.ReportService
	chatClient   chat.Client
	cmdParser    parser.CommandParser
	logger       *zap.Logger
	cleanupDelay time.Duration
}

func NewFiltersHandler(
	tasks *services.TaskService,
	reports *services.ReportService,
	chatClient chat.Client,
	cmdParser parser.CommandParser,
	logger *zap.Logger,
	cleanupDelay time.Duration,
) *FiltersHandler {
	return &FiltersHandler{
		tasks:        tasks,
		reports:      reports,
		chatClient:   chatClient,
		cmdParser:    cmdParser,
		logger:       logger,
		cleanupDelay: cleanupDelay,
	}
}

// HandleFilters is the slash-command endpoint. "clear" is a distinct,
// higher-priority command; everything else is parsed into a task filter.
func (h *FiltersHandler) HandleFilters(c *gin.Context) {
	cmd, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(cmd.Text)
	if text == "clear" {
		c.JSON(http.StatusOK, gin.H{"text": h.deleteMessages(c.Request.Context(), cmd.ChannelID)})
		return
	}

	go h.runFilteredReport(context.Background(), cmd.ChannelID, text)
	c.Status(http.StatusOK)
}

// runFilteredReport parses the command, queries tasks and delivers the
// filtered report as a file attachment.
func (h *FiltersHandler) runFilteredReport(ctx context.Context, channelID, text string) {
	h.reply(ctx, channelID, "Fetching Filtered Report....")

	parsed := h.cmdParser.Parse(text)

	query := services.QueryTasksInput{
		CreatedFrom: parsed.StartDate,
		CreatedTo:   parsed.EndDate,
	}
	if parsed.UserMention != "" {
		identity, err := h.tasks.ResolveAuthorIdentity(ctx, parsed.UserMention)
		if err != nil {
			if apperrors.IsUserFacing(err) {
				h.reply(ctx, channelID,
					fmt.Sprintf("Couldn't find user %q. Please check the username and try again.", parsed.UserMention))
			} else {
				h.logger.Error("failed to resolve user", zap.Error(err))
				h.reply(ctx, channelID, "Sorry, there was an error processing your filter command.")
			}
			return
		}
		query.CreatedBy = &identity
	}
	if parsed.Status != "" {
		status := models.TaskStatus(parsed.Status)
		query.Status = &status
	}

	tasks, err := h.tasks.QueryTasks(query)
	if err != nil {
		h.logger.Error("failed to query tasks", zap.Error(err))
		h.reply(ctx, channelID, "Sorry, there was an error processing your filter command.")
		return
	}
	if len(tasks) == 0 {
		h.reply(ctx, channelID, "No tasks found matching your criteria.")
		return
	}

	path, err := h.reports.GenerateFilteredReport(tasks)
	if err != nil {
		h.logger.Error("failed to generate filtered report", zap.Error(err))
		h.reply(ctx, channelID, "Sorry, there was an error processing your filter command.")
		return
	}

	err = h.chatClient.UploadFile(ctx, channelID, path,
		"filtered_tasks_report.pdf",
		"Filtered Tasks Report",
		fmt.Sprintf("Here is your filtered tasks report. Found %d tasks matching your criteria.", len(tasks)),
	)
	if err != nil {
		h.logger.Error("failed to upload filtered report", zap.Error(err))
		h.reply(ctx, channelID, "Sorry, there was an error processing your filter command.")
		return
	}

	// Best-effort local cleanup once the upload has been delivered.
	time.AfterFunc(h.cleanupDelay, func() {
		if err := os.Remove(path); err != nil {
			h.logger.Warn("failed to remove filtered report", zap.String("path", path), zap.Error(err))
		}
	})
}

// deleteMessages removes recent messages from the invoking channel and
// returns the user-facing result text.
func (h *FiltersHandler) deleteMessages(ctx context.Context, channelID string) string {
	messages, err := h.chatClient.ListRecentMessages(ctx, channelID, clearMessageLimit)
	if err != nil {
		h.logger.Error("failed to list messages for clear", zap.Error(err))
		return "❌ Failed to delete messages."
	}

	deleted := 0
	for _, message := range messages {
		if message.ID == "" {
			continue
		}
		if err := h.chatClient.DeleteMessage(ctx, channelID, message.ID); err != nil {
			h.logger.Warn("failed to delete message", zap.String("message", message.ID), zap.Error(err))
			continue
		}
		deleted++
	}

	return fmt.Sprintf("✅ Deleted %d messages from <#%s>", deleted, channelID)
}

func (h *FiltersHandler) reply(ctx context.Context, channel, text string) {
	if err := h.chatClient.PostMessage(ctx, channel, text); err != nil {
		h.logger.Warn("failed to post reply", zap.Error(err))
	}
}
