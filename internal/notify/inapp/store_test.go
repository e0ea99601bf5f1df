// internal/notify/inapp/store_test.go
package inapp

import (
	"context"
	"testing"
	"time"

	"github.com/getreference/notification-engine/internal/common/errors"
	"github.com/getreference/notification-engine/internal/common/logger"
	"github.com/getreference/notification-engine/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestStore(t *testing.T, cache *redis.Client) (*Store, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := NewStore(db, cache, 60*time.Second, logger.NewTestLogger(t))
	return store, mock, func() { db.Close() }
}

func newMiniredisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

// ==========================
// Insert Tests
// ==========================

func TestInsert_WritesUnreadRow(t *testing.T) {
	store, mock, cleanup := newTestStore(t, nil)
	defer cleanup()

	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO in_app_notifications`).
		WithArgs("n-001", "stud-001", "request_accepted", "Request Accepted",
			"Dr. Lee accepted your letter request for job.", sqlmock.AnyArg(), created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Insert(context.Background(), models.InAppNotification{
		ID:          "n-001",
		RecipientID: "stud-001",
		Kind:        models.KindRequestAccepted,
		Title:       "Request Accepted",
		Message:     "Dr. Lee accepted your letter request for job.",
		Data:        map[string]string{"requestId": "req-42"},
		CreatedAt:   created,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_InvalidatesUnreadCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cache, redisMock := redismock.NewClientMock()
	store := NewStore(db, cache, 60*time.Second, logger.NewTestLogger(t))

	mock.ExpectExec(`INSERT INTO in_app_notifications`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	redisMock.ExpectDel("unread:stud-001").SetVal(1)

	err = store.Insert(context.Background(), models.InAppNotification{
		ID:          "n-002",
		RecipientID: "stud-001",
		Kind:        models.KindRequestAccepted,
		CreatedAt:   time.Now().UTC(),
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// ==========================
// List Tests
// ==========================

func TestList_NewestFirstWithDefaults(t *testing.T) {
	store, mock, cleanup := newTestStore(t, nil)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "recipient_id", "kind", "title", "message", "data", "is_read", "created_at"}).
		AddRow("n-002", "stud-001", "request_completed", "Letter Ready", "Your letter is ready.", []byte(`{"requestId":"req-42"}`), false, now).
		AddRow("n-001", "stud-001", "request_accepted", "Request Accepted", "Dr. Lee accepted.", nil, true, now.Add(-time.Hour))

	// Zero limit falls back to the default page size of 20.
	mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs("stud-001", 20, 0).
		WillReturnRows(rows)

	list, err := store.List(context.Background(), "stud-001", 0, -5)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n-002", list[0].ID)
	assert.Equal(t, models.KindRequestCompleted, list[0].Kind)
	assert.False(t, list[0].Read)
	assert.Equal(t, "req-42", list[0].Data["requestId"])
	assert.True(t, list[1].Read)
	assert.Nil(t, list[1].Data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Read-State Tests
// ==========================

func TestMarkRead_UpdatesOwnedRow(t *testing.T) {
	store, mock, cleanup := newTestStore(t, nil)
	defer cleanup()

	mock.ExpectExec(`UPDATE in_app_notifications SET is_read = true WHERE id = \$1 AND recipient_id = \$2`).
		WithArgs("n-001", "stud-001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.MarkRead(context.Background(), "n-001", "stud-001")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRead_UnknownIDReturnsNotFound(t *testing.T) {
	store, mock, cleanup := newTestStore(t, nil)
	defer cleanup()

	mock.ExpectExec(`UPDATE in_app_notifications SET is_read = true`).
		WithArgs("n-missing", "stud-001").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkRead(context.Background(), "n-missing", "stud-001")

	require.Error(t, err)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeNotificationNotFound, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAllRead_SecondCallIsNoOp(t *testing.T) {
	store, mock, cleanup := newTestStore(t, nil)
	defer cleanup()

	mock.ExpectExec(`UPDATE in_app_notifications SET is_read = true WHERE recipient_id = \$1 AND is_read = false`).
		WithArgs("stud-001").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE in_app_notifications SET is_read = true WHERE recipient_id = \$1 AND is_read = false`).
		WithArgs("stud-001").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.MarkAllRead(context.Background(), "stud-001"))
	require.NoError(t, store.MarkAllRead(context.Background(), "stud-001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Unread Count Tests
// ==========================

func TestUnreadCount_ServesFromCache(t *testing.T) {
	cache, mr := newMiniredisClient(t)
	store, mock, cleanup := newTestStore(t, cache)
	defer cleanup()

	require.NoError(t, mr.Set("unread:stud-001", "7"))

	count, err := store.UnreadCount(context.Background(), "stud-001")

	require.NoError(t, err)
	assert.Equal(t, 7, count)
	// No database expectation was set, so a query would have failed the test.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCount_CacheMissFallsBackToDatabaseAndRepopulates(t *testing.T) {
	cache, mr := newMiniredisClient(t)
	store, mock, cleanup := newTestStore(t, cache)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM in_app_notifications`).
		WithArgs("stud-001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := store.UnreadCount(context.Background(), "stud-001")

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())

	cached, getErr := mr.Get("unread:stud-001")
	require.NoError(t, getErr)
	assert.Equal(t, "3", cached)
	assert.Greater(t, mr.TTL("unread:stud-001"), time.Duration(0))
}

func TestUnreadCount_NilCacheUsesDatabase(t *testing.T) {
	store, mock, cleanup := newTestStore(t, nil)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM in_app_notifications`).
		WithArgs("stud-001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err := store.UnreadCount(context.Background(), "stud-001")

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRead_InvalidatesUnreadCache(t *testing.T) {
	cache, mr := newMiniredisClient(t)
	store, mock, cleanup := newTestStore(t, cache)
	defer cleanup()

	require.NoError(t, mr.Set("unread:stud-001", "4"))

	mock.ExpectExec(`UPDATE in_app_notifications SET is_read = true`).
		WithArgs("n-001", "stud-001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.MarkRead(context.Background(), "n-001", "stud-001"))

	assert.False(t, mr.Exists("unread:stud-001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
