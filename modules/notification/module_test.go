package notification

import (
	"context"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"github.com/shred787/mindaid/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Notification{}))
	return db
}

// manualTicker fires only when the test sends on ch.
type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { close(t.stopped) }

func listAll(t *testing.T, m *NotificationModule, userID string) []Notification {
	t.Helper()
	list, err := m.repo.List(context.Background(), userID, nil)
	require.NoError(t, err)
	return list
}

func TestCheckInScheduler_FiresOnTickAndStops(t *testing.T) {
	ticker := newManualTicker()
	var requested time.Duration
	factory := func(d time.Duration) Ticker {
		requested = d
		return ticker
	}

	m := NewModule(Config{
		DB:              setupTestDB(t),
		CheckInUserID:   "u1",
		CheckInInterval: 30 * time.Minute,
		TickerFactory:   factory,
	}, &mockLogger{})
	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, 30*time.Minute, requested)

	ticker.ch <- time.Now()
	ticker.ch <- time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Stop(ctx))

	select {
	case <-ticker.stopped:
	default:
		t.Fatal("ticker was not stopped")
	}

	list := listAll(t, m, "u1")
	require.Len(t, list, 2)
	assert.Equal(t, TypeCheckIn, list[0].Type)
	assert.Equal(t, "Hourly Check-in", list[0].Title)
}

func TestCheckInScheduler_StopWithoutStart(t *testing.T) {
	s := NewCheckInScheduler(0, nil, func(context.Context, time.Time) {}, &mockLogger{})
	assert.Equal(t, DefaultCheckInInterval, s.interval)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestNotificationModule_EventHandlers(t *testing.T) {
	ctx := context.Background()
	m := NewModule(Config{DB: setupTestDB(t)}, &mockLogger{})

	require.NoError(t, m.handleTaskCreated(ctx, events.TaskCreatedEvent{TaskID: "t1", UserID: "u1", Title: "Migrate", Priority: 4}, nil))
	require.NoError(t, m.handleTaskCreated(ctx, events.TaskCreatedEvent{TaskID: "t2", UserID: "u1", Title: "Monitor", Priority: 2, SourceTaskID: "t1"}, nil))
	require.NoError(t, m.handleEvidenceRejected(ctx, events.EvidenceRejectedEvent{TaskID: "t1", UserID: "u1", Title: "Migrate", Reason: "DescriptionTooShort", Guidance: "Describe what you did."}, nil))
	require.NoError(t, m.handleTaskCompleted(ctx, events.TaskCompletedEvent{TaskID: "t1", UserID: "u1", Title: "Migrate", AttachmentCount: 2}, nil))
	require.NoError(t, m.handleFollowUpsCreated(ctx, events.FollowUpsCreatedEvent{SourceTaskID: "t1", UserID: "u1", TaskIDs: []string{"t2"}, Titles: []string{"Monitor"}, Insights: []string{"Smooth rollout"}}, nil))
	require.NoError(t, m.handleTaskDeleted(ctx, events.TaskDeletedEvent{TaskID: "t3", UserID: "u2", Title: "Old"}, nil))

	list := listAll(t, m, "u1")
	require.Len(t, list, 5)
	assert.Equal(t, TypeTaskCreated, list[0].Type, "priority 4 sorts first")

	byType := make(map[Type]Notification)
	for _, n := range list {
		byType[n.Type] = n
	}
	assert.Contains(t, byType[TypeEvidenceRejected].Message, "Describe what you did.")
	assert.Contains(t, byType[TypeTaskCompleted].Message, "2 attachment(s)")
	assert.Contains(t, byType[TypeFollowUpsCreated].Message, "Monitor")
	assert.Contains(t, byType[TypeFollowUpsCreated].Message, "Smooth rollout")
	assert.Equal(t, "1 follow-up task(s) created", byType[TypeFollowUpsCreated].Title)

	assert.Len(t, listAll(t, m, "u2"), 1)
}

func TestNotificationModule_ListAndAcknowledge(t *testing.T) {
	ctx := context.Background()
	m := NewModule(Config{DB: setupTestDB(t)}, &mockLogger{})
	require.NoError(t, m.handleTaskDeleted(ctx, events.TaskDeletedEvent{TaskID: "t1", UserID: "u1", Title: "A"}, nil))
	require.NoError(t, m.handleTaskDeleted(ctx, events.TaskDeletedEvent{TaskID: "t2", UserID: "u1", Title: "B"}, nil))

	all, err := m.listNotifications(ctx, ListNotificationsRequest{UserID: "u1"}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, all.Total)

	ack, err := m.acknowledge(ctx, AcknowledgeRequest{NotificationID: all.Notifications[0].ID}, nil)
	require.NoError(t, err)
	assert.True(t, ack.Acknowledged)

	again, err := m.acknowledge(ctx, AcknowledgeRequest{NotificationID: all.Notifications[0].ID}, nil)
	require.NoError(t, err)
	assert.True(t, again.Acknowledged, "acknowledging twice is harmless")

	yes, no := true, false
	acked, err := m.listNotifications(ctx, ListNotificationsRequest{UserID: "u1", Acknowledged: &yes}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, acked.Total)

	pending, err := m.listNotifications(ctx, ListNotificationsRequest{UserID: "u1", Acknowledged: &no}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pending.Total)

	missing, err := m.acknowledge(ctx, AcknowledgeRequest{NotificationID: "nope"}, nil)
	require.NoError(t, err)
	assert.Equal(t, codeNotFound, missing.Error)
}

func TestNotificationModule_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	first := NewModule(Config{DB: db}, &mockLogger{})
	require.NoError(t, first.handleTaskCompleted(ctx, events.TaskCompletedEvent{TaskID: "t1", UserID: "u1", Title: "Ship"}, nil))

	second := NewModule(Config{DB: db}, &mockLogger{})
	list := listAll(t, second, "u1")
	require.Len(t, list, 1)
	assert.Equal(t, TypeTaskCompleted, list[0].Type)
}

func TestNotificationModule_CheckInPrunesAcknowledged(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	m := NewModule(Config{
		DB:            setupTestDB(t),
		Retention:     24 * time.Hour,
		CheckInUserID: "u1",
		Now:           func() time.Time { return now },
	}, &mockLogger{})

	old := now.Add(-48 * time.Hour)
	require.NoError(t, m.repo.Create(ctx, &Notification{ID: "old-acked", UserID: "u1", Type: TypeTaskDeleted, Title: "x", Message: "x", Priority: 1, Acknowledged: true, CreatedAt: old}))
	require.NoError(t, m.repo.Create(ctx, &Notification{ID: "old-open", UserID: "u1", Type: TypeTaskDeleted, Title: "x", Message: "x", Priority: 1, CreatedAt: old}))
	require.NoError(t, m.repo.Create(ctx, &Notification{ID: "new-acked", UserID: "u1", Type: TypeTaskDeleted, Title: "x", Message: "x", Priority: 1, Acknowledged: true, CreatedAt: now.Add(-time.Hour)}))

	m.checkIn(ctx, now)

	ids := make(map[string]bool)
	for _, n := range listAll(t, m, "u1") {
		ids[n.ID] = true
	}
	assert.False(t, ids["old-acked"])
	assert.True(t, ids["old-open"], "unacknowledged notifications are never pruned")
	assert.True(t, ids["new-acked"])
	assert.Len(t, ids, 3, "two kept plus the new check-in")
}

func TestRepository_OrdersByPriorityThenRecency(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &Notification{ID: "old-low", UserID: "u1", Type: TypeCheckIn, Title: "a", Message: "a", Priority: 1, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &Notification{ID: "new-low", UserID: "u1", Type: TypeCheckIn, Title: "b", Message: "b", Priority: 1, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &Notification{ID: "high", UserID: "u1", Type: TypeCheckIn, Title: "c", Message: "c", Priority: 5, CreatedAt: base}))

	list, err := repo.List(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"high", "new-low", "old-low"}, []string{list[0].ID, list[1].ID, list[2].ID})

	assert.ErrorIs(t, repo.Acknowledge(ctx, "missing"), ErrNotFound)
}
