package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harukimoto/devkpi/internal/chat"
	"github.com/harukimoto/devkpi/internal/database"
	"github.com/harukimoto/devkpi/internal/models"
	"github.com/harukimoto/devkpi/internal/parser"
	"github.com/harukimoto/devkpi/internal/render"
	"github.com/harukimoto/devkpi/internal/repository"
	"github.com/harukimoto/devkpi/internal/services"
)

type stubAnalyzer struct {
	data models.AnalyticsData
	err  error
}

func (s stubAnalyzer) AnalyzeTask(_ context.Context, _ services.TaskAnalytics) (models.AnalyticsData, error) {
	return s.data, s.err
}

// EventsHandlerTestSuite defines the test suite for EventsHandler
type EventsHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	chatCli *fakeChatClient
	handler *EventsHandler
}

// SetupTest runs before each test
func (suite *EventsHandlerTestSuite) SetupTest() {
	var err error

	gin.SetMode(gin.TestMode)

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	err = suite.db.AutoMigrate(
		&models.Task{},
		&models.Update{},
		&models.Defect{},
	)
	suite.Require().NoError(err)

	// Set the test DB as the default database
	database.SetDB(suite.db)

	repo := repository.NewTaskRepository(database.GetDB())
	suite.chatCli = &fakeChatClient{
		users: []chat.User{
			{ID: "U-ALICE", Name: "alice", RealName: "Alice Dev"},
			{ID: "U-BOB", Name: "bob", RealName: "Bob QA"},
		},
	}

	tasks := services.NewTaskService(repo, suite.chatCli)
	reports := services.NewReportService(
		repo,
		suite.chatCli,
		stubAnalyzer{err: assert.AnError},
		render.NewChartRenderer(),
		render.NewDocumentRenderer(),
		zap.NewNop(),
		suite.T().TempDir(),
		time.Second,
	)

	suite.handler = NewEventsHandler(tasks, reports, suite.chatCli, parser.NewMessageParser(), zap.NewNop())
}

// TearDownTest runs after each test
func (suite *EventsHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *EventsHandlerTestSuite) router() *gin.Engine {
	r := gin.New()
	r.POST("/slack/events", suite.handler.HandleEvents)
	return r
}

func (suite *EventsHandlerTestSuite) TestURLVerification() {
	body := `{"type":"url_verification","token":"t","challenge":"abc123"}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	suite.router().ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "abc123", w.Body.String())
}

func (suite *EventsHandlerTestSuite) TestHandleEvents_MalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	suite.router().ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *EventsHandlerTestSuite) TestHandleMessage_RecordsUpdateAndDefects() {
	suite.handler.handleMessage(context.Background(), &slackevents.MessageEvent{
		User:    "U-ALICE",
		Channel: "C1",
		Text:    "dev build\nCheckout Flow - fixed payment bug\nDefects: D45, d-45, D 99",
	})

	var task models.Task
	suite.Require().NoError(suite.db.Where("name = ?", "Checkout Flow").First(&task).Error)
	assert.Equal(suite.T(), "U-ALICE", task.CreatedBy)

	var defectCount int64
	suite.db.Model(&models.Defect{}).Where("task_id = ?", task.ID).Count(&defectCount)
	assert.Equal(suite.T(), int64(2), defectCount)

	texts := suite.chatCli.postedTexts()
	suite.Require().Len(texts, 1)
	assert.Contains(suite.T(), texts[0], `Task "Checkout Flow" has been updated by <@U-ALICE>.`)
	assert.Contains(suite.T(), texts[0], "Defects added: D45, D99")
}

func (suite *EventsHandlerTestSuite) TestHandleMessage_IgnoresUnrelatedText() {
	suite.handler.handleMessage(context.Background(), &slackevents.MessageEvent{
		User:    "U-ALICE",
		Channel: "C1",
		Text:    "lunch anyone?",
	})

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
	assert.Equal(suite.T(), 0, suite.chatCli.postCount())
}

func (suite *EventsHandlerTestSuite) TestHandleMessage_IgnoresBotMessages() {
	suite.handler.handleMessage(context.Background(), &slackevents.MessageEvent{
		User:    "U-ALICE",
		Channel: "C1",
		SubType: "bot_message",
		Text:    "dev build\nCheckout Flow - fixed payment bug",
	})

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

// TestHandleMessage_Clarification verifies the trigger without a usable
// following line asks the author to rephrase instead of recording anything.
func (suite *EventsHandlerTestSuite) TestHandleMessage_Clarification() {
	suite.handler.handleMessage(context.Background(), &slackevents.MessageEvent{
		User:    "U-ALICE",
		Channel: "C1",
		Text:    "dev build",
	})

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)

	texts := suite.chatCli.postedTexts()
	suite.Require().Len(texts, 1)
	assert.Contains(suite.T(), texts[0], "couldn't find a valid task name")
}

// TestHandleMessage_CompletionFlow runs the full two-stage completion: the
// build update records the task, the completion phrase marks it Completed,
// the channel is acknowledged and the analytics report eventually reaches
// the creator's direct channel.
func (suite *EventsHandlerTestSuite) TestHandleMessage_CompletionFlow() {
	suite.handler.handleMessage(context.Background(), &slackevents.MessageEvent{
		User:    "U-ALICE",
		Channel: "C1",
		Text:    "dev build\nCheckout Flow - initial build\nDefects: D45",
	})
	suite.handler.handleMessage(context.Background(), &slackevents.MessageEvent{
		User:    "U-BOB",
		Channel: "C1",
		Text:    "dev build\nCheckout Flow - validation completed working fine",
	})

	var task models.Task
	suite.Require().NoError(suite.db.Where("name = ?", "Checkout Flow").First(&task).Error)
	assert.Equal(suite.T(), models.TaskStatusCompleted, task.Status)
	assert.NotEmpty(suite.T(), task.ReportPath)

	var sawCompletionAck bool
	for _, text := range suite.chatCli.postedTexts() {
		if strings.Contains(text, "marked as Completed") {
			sawCompletionAck = true
		}
	}
	assert.True(suite.T(), sawCompletionAck)

	// Stage 2 runs in its own goroutine; the report lands in the creator's DM.
	assert.Eventually(suite.T(), func() bool {
		return suite.chatCli.uploadCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	suite.Require().Eventually(func() bool {
		var persisted models.Task
		if err := suite.db.First(&persisted, task.ID).Error; err != nil {
			return false
		}
		return persisted.AnalyticsReportPath != ""
	}, 5*time.Second, 10*time.Millisecond)
}

func (suite *EventsHandlerTestSuite) TestHandleValidationCompleted_UnknownTask() {
	suite.handler.handleValidationCompleted(context.Background(), "C1", "U-BOB", "Ghost Task")

	texts := suite.chatCli.postedTexts()
	suite.Require().Len(texts, 1)
	assert.Contains(suite.T(), texts[0], `task "Ghost Task" was not found in the database.`)
	assert.Equal(suite.T(), 0, suite.chatCli.uploadCount())
}

func (suite *EventsHandlerTestSuite) TestAppHomeOpened_WelcomesOnce() {
	event := &slackevents.AppHomeOpenedEvent{User: "U-ALICE"}

	suite.handler.handleAppHomeOpened(context.Background(), event)
	suite.handler.handleAppHomeOpened(context.Background(), event)

	suite.Require().Equal(1, suite.chatCli.postCount())
	assert.Equal(suite.T(), "DM-U-ALICE", suite.chatCli.posts[0].Channel)
	assert.Contains(suite.T(), suite.chatCli.posts[0].Text, "/filters")
}

func TestEventsHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(EventsHandlerTestSuite))
}
