package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harukimoto/devkpi/internal/chat"
	"github.com/harukimoto/devkpi/internal/models"
	"github.com/harukimoto/devkpi/internal/render"
	"github.com/harukimoto/devkpi/internal/repository"
)

// ReportService sequences report generation at task completion. Stage 1
// (basic report) is synchronous and must succeed; stage 2 (analytics,
// chart, enriched report, DM delivery) is best-effort and additive — its
// failures never roll back stage 1.
type ReportService struct {
	repo             repository.TaskRepository
	chatClient       chat.Client
	analyzer         Analyzer
	charts           render.ChartRenderer
	documents        render.DocumentRenderer
	logger           *zap.Logger
	reportDir        string
	analyticsTimeout time.Duration
}

// NewReportService creates a new ReportService
func NewReportService(
	repo repository.TaskRepository,
	chatClient chat.Client,
	analyzer Analyzer,
	charts render.ChartRenderer,
	documents render.DocumentRenderer,
	logger *zap.Logger,
	reportDir string,
	analyticsTimeout time.Duration,
) *ReportService {
	return &ReportService{
		repo:             repo,
		chatClient:       chatClient,
		analyzer:         analyzer,
		charts:           charts,
		documents:        documents,
		logger:           logger,
		reportDir:        reportDir,
		analyticsTimeout: analyticsTimeout,
	}
}

// GenerateBasicReport renders the basic report document, writes it under
// the report directory and persists its location on the task.
func (s *ReportService) GenerateBasicReport(task *models.Task, updates []models.Update, defects []models.Defect) (string, error) {
	doc, err := s.documents.TaskReport(task, updates, defects)
	if err != nil {
		return "", fmt.Errorf("failed to render basic report: %w", err)
	}

	path, err := s.writeReport(reportFilename(task.Name)+".pdf", doc)
	if err != nil {
		return "", err
	}

	task.ReportPath = path
	if err := s.repo.Update(task); err != nil {
		return "", fmt.Errorf("failed to persist report path: %w", err)
	}

	s.logger.Info("basic report generated",
		zap.String("task", task.Name),
		zap.String("path", path),
	)
	return path, nil
}

// RunAnalyticsPipeline executes stage 2 for one completed task: format the
// AI payload, fetch analytics (falling back to the deterministic payload on
// any enrichment failure), render the chart and enriched report, persist the
// report location and deliver the document privately to the task creator.
//
// Callers run it in its own goroutine per completion; steps inside never
// interleave.
func (s *ReportService) RunAnalyticsPipeline(ctx context.Context, task *models.Task, updates []models.Update, defects []models.Defect) error {
	dmChannel, err := s.chatClient.OpenDirectChannel(ctx, task.CreatedBy)
	if err != nil {
		s.logger.Error("failed to open direct channel",
			zap.String("task", task.Name),
			zap.Error(err),
		)
		return err
	}

	if err := s.chatClient.PostMessage(ctx, dmChannel,
		fmt.Sprintf("Generating analytics for task %q... This may take a moment.", task.Name)); err != nil {
		s.logger.Warn("failed to post analytics progress message", zap.Error(err))
	}

	payload := FormatTaskForAnalytics(task, updates, defects)
	data := s.fetchAnalytics(ctx, payload)

	chartPNG, err := s.charts.RenderChart(data)
	if err != nil {
		return s.reportFailure(ctx, dmChannel, task, fmt.Errorf("failed to render chart: %w", err))
	}

	doc, err := s.documents.AnalyticsReport(task, updates, defects, data, chartPNG)
	if err != nil {
		return s.reportFailure(ctx, dmChannel, task, fmt.Errorf("failed to render analytics report: %w", err))
	}

	path, err := s.writeReport(reportFilename(task.Name)+"_with_analytics.pdf", doc)
	if err != nil {
		return s.reportFailure(ctx, dmChannel, task, err)
	}

	task.AnalyticsReportPath = path
	if err := s.repo.Update(task); err != nil {
		return s.reportFailure(ctx, dmChannel, task, fmt.Errorf("failed to persist analytics report path: %w", err))
	}

	err = s.chatClient.UploadFile(ctx, dmChannel, path,
		reportFilename(task.Name)+"_with_analytics.pdf",
		fmt.Sprintf("Task Report with Analytics - %s", task.Name),
		fmt.Sprintf("Here is your task report with analytics for: *%s*", task.Name),
	)
	if err != nil {
		return s.reportFailure(ctx, dmChannel, task, fmt.Errorf("failed to deliver analytics report: %w", err))
	}

	s.logger.Info("analytics report delivered",
		zap.String("task", task.Name),
		zap.String("path", path),
	)
	return nil
}

// fetchAnalytics invokes the enrichment collaborator under the configured
// timeout. Enrichment unavailability is recovered locally; the pipeline
// continues with the fallback payload and the user never sees an error.
func (s *ReportService) fetchAnalytics(ctx context.Context, payload TaskAnalytics) models.AnalyticsData {
	if s.analyzer == nil {
		return FallbackAnalytics(payload)
	}

	actx, cancel := context.WithTimeout(ctx, s.analyticsTimeout)
	defer cancel()

	data, err := s.analyzer.AnalyzeTask(actx, payload)
	if err != nil {
		s.logger.Warn("enrichment unavailable, using fallback analytics",
			zap.String("task", payload.TaskName),
			zap.Error(err),
		)
		return FallbackAnalytics(payload)
	}
	return data
}

// GenerateFilteredReport renders the filtered-tasks report for a query
// result and writes it under the report directory.
func (s *ReportService) GenerateFilteredReport(tasks []models.Task) (string, error) {
	entries := make([]render.FilteredTask, 0, len(tasks))
	for _, task := range tasks {
		updates, err := s.repo.ListUpdates(task.ID)
		if err != nil {
			return "", fmt.Errorf("failed to list updates: %w", err)
		}
		defects, err := s.repo.ListDefects(task.ID)
		if err != nil {
			return "", fmt.Errorf("failed to list defects: %w", err)
		}
		entries = append(entries, render.FilteredTask{Task: task, Updates: updates, Defects: defects})
	}

	doc, err := s.documents.FilteredReport(entries)
	if err != nil {
		return "", fmt.Errorf("failed to render filtered report: %w", err)
	}

	return s.writeReport(fmt.Sprintf("filtered_tasks_%d.pdf", time.Now().UnixNano()), doc)
}

func (s *ReportService) writeReport(filename string, doc []byte) (string, error) {
	if err := os.MkdirAll(s.reportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(s.reportDir, filename)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (s *ReportService) reportFailure(ctx context.Context, dmChannel string, task *models.Task, err error) error {
	s.logger.Error("analytics pipeline failed",
		zap.String("task", task.Name),
		zap.Error(err),
	)
	if postErr := s.chatClient.PostMessage(ctx, dmChannel,
		fmt.Sprintf("Sorry, there was an error generating the analytics report for %q.", task.Name)); postErr != nil {
		s.logger.Warn("failed to post failure notice", zap.Error(postErr))
	}
	return err
}

var filenameReplacer = strings.NewReplacer(" ", "_", "/", "-", "\\", "-")

func reportFilename(taskName string) string {
	return filenameReplacer.Replace(taskName)
}
