package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"chat-search/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	ListByChatID(ctx context.Context, chatID string) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, chat_id, role, parts, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	parts := message.Parts
	if len(parts) == 0 {
		parts = json.RawMessage("[]")
	}

	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.ChatID,
		message.Role,
		string(parts),
		message.CreatedAt,
	)
	return err
}

func (r *PgMessageRepository) ListByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	const query = `
		SELECT id, chat_id, role, parts, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var parts []byte

		err = rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.Role,
			&parts,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		msg.Parts = json.RawMessage(parts)
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
