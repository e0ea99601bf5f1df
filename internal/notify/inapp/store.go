// internal/notify/inapp/store.go
package inapp

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/getreference/notification-engine/internal/common/errors"
	"github.com/getreference/notification-engine/internal/common/logger"
	"github.com/getreference/notification-engine/internal/common/metrics"
	"github.com/getreference/notification-engine/internal/models"

	"github.com/redis/go-redis/v9"
)

// Store persists in-app notifications and their read state. A single row goes
// unread -> read; rows are never deleted. The unread count is cached in Redis
// with a short TTL and invalidated on every write, so a stale value lives at
// most one TTL.
type Store struct {
	db     *sql.DB
	cache  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(db *sql.DB, cache *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "inapp-store"}),
	}
}

func unreadKey(recipientID string) string {
	return "unread:" + recipientID
}

// Insert writes one notification row, unread.
func (s *Store) Insert(ctx context.Context, n models.InAppNotification) error {
	payload, err := json.Marshal(n.Data)
	if err != nil {
		return errors.NewNotificationPersistFailedError(err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO in_app_notifications (id, recipient_id, kind, title, message, data, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, false, $7)`,
		n.ID, n.RecipientID, string(n.Kind), n.Title, n.Message, payload, n.CreatedAt,
	)
	if err != nil {
		return errors.NewNotificationPersistFailedError(err)
	}

	s.invalidateUnread(ctx, n.RecipientID)
	return nil
}

// List returns the recipient's notifications newest-first.
func (s *Store) List(ctx context.Context, recipientID string, limit, offset int) ([]models.InAppNotification, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipient_id, kind, title, message, data, is_read, created_at
		 FROM in_app_notifications
		 WHERE recipient_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		recipientID, limit, offset,
	)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list", err)
	}
	defer rows.Close()

	var out []models.InAppNotification
	for rows.Next() {
		var n models.InAppNotification
		var kind string
		var payload []byte
		if err := rows.Scan(&n.ID, &n.RecipientID, &kind, &n.Title, &n.Message, &payload, &n.Read, &n.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list", err)
		}
		n.Kind = models.Kind(kind)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Data); err != nil {
				s.logger.Warn("malformed notification payload", map[string]interface{}{
					"id":    n.ID,
					"error": err.Error(),
				})
			}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list", err)
	}
	return out, nil
}

// MarkRead flags one notification read. Marking an already-read notification
// again is a no-op; an id the recipient does not own is not found.
func (s *Store) MarkRead(ctx context.Context, id, recipientID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE in_app_notifications SET is_read = true WHERE id = $1 AND recipient_id = $2`,
		id, recipientID,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("mark_read", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("mark_read", err)
	}
	if affected == 0 {
		return errors.NewNotificationNotFoundError(id)
	}

	s.invalidateUnread(ctx, recipientID)
	return nil
}

// MarkAllRead flags every currently-unread notification for the recipient.
// Rows inserted concurrently may stay unread; a user convenience action, not a
// transactional one.
func (s *Store) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE in_app_notifications SET is_read = true WHERE recipient_id = $1 AND is_read = false`,
		recipientID,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("mark_all_read", err)
	}

	s.invalidateUnread(ctx, recipientID)
	return nil
}

// UnreadCount returns the recipient's unread total, serving from cache when
// fresh.
func (s *Store) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, unreadKey(recipientID)).Result(); err == nil {
			if count, convErr := strconv.Atoi(val); convErr == nil {
				metrics.InAppUnreadReads.WithLabelValues("cache").Inc()
				return count, nil
			}
		}
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM in_app_notifications WHERE recipient_id = $1 AND is_read = false`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("unread_count", err)
	}
	metrics.InAppUnreadReads.WithLabelValues("database").Inc()

	if s.cache != nil {
		s.cache.Set(ctx, unreadKey(recipientID), count, s.ttl)
	}
	return count, nil
}

func (s *Store) invalidateUnread(ctx context.Context, recipientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadKey(recipientID)).Err(); err != nil {
		s.logger.Warn("unread cache invalidation failed", map[string]interface{}{
			"recipientId": recipientID,
			"error":       err.Error(),
		})
	}
}
