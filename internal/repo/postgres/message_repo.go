package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/commitdating/internal/domain/model"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, matchID, senderID int64, text string) (model.Message, error) {
	if matchID <= 0 || senderID <= 0 {
		return model.Message{}, fmt.Errorf("invalid message payload")
	}
	if r.pool == nil {
		return model.Message{}, fmt.Errorf("postgres pool is nil")
	}

	msg := model.Message{MatchID: matchID, SenderID: senderID, Text: text}
	err := r.pool.QueryRow(ctx, `
INSERT INTO messages (match_id, sender_id, text, is_read)
VALUES ($1, $2, $3, FALSE)
RETURNING id, created_at
`, matchID, senderID, text).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return model.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (r *MessageRepo) CountUnreadForUser(ctx context.Context, userID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM messages m
JOIN matches x ON x.id = m.match_id
WHERE (x.user_a_id = $1 OR x.user_b_id = $1)
  AND m.sender_id <> $1
  AND NOT m.is_read
`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// ListAndMarkRead locks the conversation rows, returns them in send order and
// flips exactly the unread messages from the other participant that it returned.
func (r *MessageRepo) ListAndMarkRead(ctx context.Context, matchID, viewerID int64) ([]model.Message, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	var messages []model.Message
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(txCtx, `
SELECT id, match_id, sender_id, text, created_at, is_read
FROM messages
WHERE match_id = $1
ORDER BY id
FOR UPDATE
`, matchID)
		if err != nil {
			return fmt.Errorf("query conversation: %w", err)
		}

		messages = make([]model.Message, 0)
		toFlip := make([]int64, 0)
		for rows.Next() {
			var m model.Message
			if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Text, &m.CreatedAt, &m.Read); err != nil {
				rows.Close()
				return fmt.Errorf("scan message: %w", err)
			}
			if !m.Read && m.SenderID != viewerID {
				toFlip = append(toFlip, m.ID)
				m.Read = true
			}
			messages = append(messages, m)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate conversation: %w", err)
		}

		if len(toFlip) == 0 {
			return nil
		}
		if _, err := tx.Exec(txCtx, `UPDATE messages SET is_read = TRUE WHERE id = ANY($1)`, toFlip); err != nil {
			return fmt.Errorf("mark messages read: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
