package store

import (
	"context"
	"time"

	"github.com/kodbank/apiserver/internal/db"
	"github.com/kodbank/apiserver/types"
)

// ChatRepository handles persistence for chat messages. Messages are
// append-only.
type ChatRepository struct {
	db *db.DB
}

func NewChatRepository(conn *db.DB) *ChatRepository {
	return &ChatRepository{db: conn}
}

func (r *ChatRepository) Create(ctx context.Context, message types.ChatMessage) (types.ChatMessage, error) {
	message.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO chat_messages (user_id, message, role, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		r.db.Dialect.Rebind(query),
		message.UserID,
		message.Message,
		string(message.Role),
		message.CreatedAt,
	).Scan(&message.ID); err != nil {
		return types.ChatMessage{}, err
	}
	return message, nil
}

// ListOldest returns the first limit messages of the conversation in the
// order they were written.
func (r *ChatRepository) ListOldest(ctx context.Context, userID, limit int) ([]types.ChatMessage, error) {
	if limit < 1 {
		limit = 50
	}
	const query = `
		SELECT id, user_id, message, role, created_at
		FROM chat_messages
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(query), userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.ChatMessage, 0, limit)
	for rows.Next() {
		var m types.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Message, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
