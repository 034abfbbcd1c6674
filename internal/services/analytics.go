package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/harukimoto/devkpi/internal/models"
)

// UpdateSummary is the per-update slice of the AI request payload.
type UpdateSummary struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DefectSummary is the per-defect slice of the AI request payload.
type DefectSummary struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// TaskAnalytics is the structured task payload embedded into the enrichment
// prompt and fed to the fallback generator.
type TaskAnalytics struct {
	TaskName      string            `json:"task_name"`
	Status        models.TaskStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	Updates       []UpdateSummary   `json:"updates"`
	Defects       []DefectSummary   `json:"defects"`
	CycleTimeDays *int              `json:"cycle_time_days,omitempty"`
}

// FormatTaskForAnalytics flattens a task and its related rows into the AI
// request payload.
func FormatTaskForAnalytics(task *models.Task, updates []models.Update, defects []models.Defect) TaskAnalytics {
	payload := TaskAnalytics{
		TaskName:    task.Name,
		Status:      task.Status,
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
		Updates:     make([]UpdateSummary, 0, len(updates)),
		Defects:     make([]DefectSummary, 0, len(defects)),
	}

	if days, ok := task.CycleTimeDays(); ok {
		payload.CycleTimeDays = &days
	}

	for _, update := range updates {
		payload.Updates = append(payload.Updates, UpdateSummary{
			Username:  update.Username,
			Role:      string(update.Role),
			Content:   update.Content,
			Timestamp: update.Timestamp,
		})
	}
	for _, defect := range defects {
		payload.Defects = append(payload.Defects, DefectSummary{
			ID:         defect.DefectID,
			Status:     string(defect.Status),
			ResolvedAt: defect.ResolvedAt,
		})
	}

	return payload
}

// Analyzer is the AI enrichment collaborator: task payload in, chart-ready
// analytics out. Responses are untrusted; callers must substitute
// FallbackAnalytics on any error.
type Analyzer interface {
	AnalyzeTask(ctx context.Context, payload TaskAnalytics) (models.AnalyticsData, error)
}

// OpenAIAnalyzer implements Analyzer over the OpenAI chat completion API.
type OpenAIAnalyzer struct {
	client *openai.Client
}

func NewOpenAIAnalyzer(apiKey string) *OpenAIAnalyzer {
	return &OpenAIAnalyzer{client: openai.NewClient(apiKey)}
}

// AnalyzeTask asks the model to analyze cycle time, defect patterns and
// efficiency, and decodes the JSON payload embedded in its free-text reply.
func (a *OpenAIAnalyzer) AnalyzeTask(ctx context.Context, payload TaskAnalytics) (models.AnalyticsData, error) {
	taskJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return models.AnalyticsData{}, fmt.Errorf("failed to encode task payload: %w", err)
	}

	prompt := fmt.Sprintf(`Based on the following task data, analyze the development process and generate analytics.
Focus on cycle time, defect patterns, and development efficiency.
Please provide:
1. A summary of insights (max 3 bullet points)
2. Data for a chart showing key metrics
3. Return the response as a JSON object with these properties:
   - labels: Array of strings for chart labels
   - values: Array of numbers for chart values
   - summary: String with bullet points of insights

Task Data:
%s`, taskJSON)

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return models.AnalyticsData{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.AnalyticsData{}, fmt.Errorf("no response from OpenAI")
	}

	return decodeAnalytics(resp.Choices[0].Message.Content)
}

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareJSONPattern   = regexp.MustCompile(`(?s)\{.*\}`)
)

// decodeAnalytics locates a JSON object inside a free-text model reply,
// fenced block first, bare object second, and validates its shape.
func decodeAnalytics(text string) (models.AnalyticsData, error) {
	raw := ""
	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if m := bareJSONPattern.FindString(text); m != "" {
		raw = m
	}
	if raw == "" {
		return models.AnalyticsData{}, fmt.Errorf("no JSON object in response")
	}

	var data models.AnalyticsData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return models.AnalyticsData{}, fmt.Errorf("failed to parse analytics JSON: %w", err)
	}
	if len(data.Labels) == 0 || len(data.Labels) != len(data.Values) {
		return models.AnalyticsData{}, fmt.Errorf("analytics payload has %d labels and %d values", len(data.Labels), len(data.Values))
	}

	return data, nil
}

// FallbackAnalytics builds the deterministic payload used whenever the
// enrichment collaborator fails or returns something undecodable.
func FallbackAnalytics(payload TaskAnalytics) models.AnalyticsData {
	cycleTime := 0.0
	if payload.CycleTimeDays != nil {
		cycleTime = float64(*payload.CycleTimeDays)
	}

	return models.AnalyticsData{
		Labels: []string{"Updates", "Defects", "Cycle Time (days)"},
		Values: []float64{
			float64(len(payload.Updates)),
			float64(len(payload.Defects)),
			cycleTime,
		},
		Summary: "• Analysis based on available task data\n• Unable to parse detailed insights\n• Basic metrics shown in chart",
	}
}
