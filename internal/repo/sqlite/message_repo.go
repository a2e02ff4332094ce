package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ivankudzin/commitdating/internal/domain/model"
)

type MessageRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db, now: time.Now}
}

func (r *MessageRepo) Create(ctx context.Context, matchID, senderID int64, text string) (model.Message, error) {
	if matchID <= 0 || senderID <= 0 {
		return model.Message{}, fmt.Errorf("invalid message payload")
	}

	createdAt := r.now().UTC()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO messages (match_id, sender_id, text, created_at, is_read) VALUES (?, ?, ?, ?, 0)
`, matchID, senderID, text, createdAt)
	if err != nil {
		return model.Message{}, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, fmt.Errorf("read message id: %w", err)
	}

	return model.Message{
		ID:        id,
		MatchID:   matchID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: createdAt,
	}, nil
}

func (r *MessageRepo) CountUnreadForUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM messages m
JOIN matches x ON x.id = m.match_id
WHERE (x.user_a_id = ? OR x.user_b_id = ?)
  AND m.sender_id <> ?
  AND m.is_read = 0
`, userID, userID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// ListAndMarkRead returns the conversation in send order and flips to read every
// unread message in it that was not sent by viewerID. Only rows present in the
// snapshot are flipped.
func (r *MessageRepo) ListAndMarkRead(ctx context.Context, matchID, viewerID int64) ([]model.Message, error) {
	var messages []model.Message
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
SELECT id, match_id, sender_id, text, created_at, is_read
FROM messages
WHERE match_id = ?
ORDER BY id
`, matchID)
		if err != nil {
			return fmt.Errorf("query conversation: %w", err)
		}

		messages = make([]model.Message, 0)
		toFlip := make([]int64, 0)
		for rows.Next() {
			var m model.Message
			if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Text, &m.CreatedAt, &m.Read); err != nil {
				_ = rows.Close()
				return fmt.Errorf("scan message: %w", err)
			}
			if !m.Read && m.SenderID != viewerID {
				toFlip = append(toFlip, m.ID)
				m.Read = true
			}
			messages = append(messages, m)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return fmt.Errorf("iterate conversation: %w", err)
		}
		_ = rows.Close()

		if len(toFlip) == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE messages SET is_read = 1 WHERE id IN (`+placeholders(len(toFlip))+`)`,
			int64Args(toFlip)...,
		); err != nil {
			return fmt.Errorf("mark messages read: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
