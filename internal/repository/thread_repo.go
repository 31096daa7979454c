package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat-search/internal/domain"
)

// ThreadRow es un chat con los datos crudos de sus mensajes. Las partes del
// último mensaje se devuelven sin decodificar; el servicio decide el resumen.
type ThreadRow struct {
	domain.Thread
	MessageCount  int
	LastParts     []byte
	LastMessageAt *time.Time
	Relevance     int
}

// ThreadRepository define las lecturas de chats. Las consultas de búsqueda
// reciben el texto ya normalizado (recortado y en minúsculas).
type ThreadRepository interface {
	Create(ctx context.Context, thread domain.Thread) error
	List(ctx context.Context, userID string, limit, offset int) ([]ThreadRow, error)
	Count(ctx context.Context, userID string) (int, error)
	GetByID(ctx context.Context, id string) (ThreadRow, error)
	Search(ctx context.Context, query string, limit, offset int) ([]ThreadRow, error)
	CountSearch(ctx context.Context, query string) (int, error)
}

// PgThreadRepository implementa ThreadRepository usando pgxpool.
type PgThreadRepository struct {
	pool *pgxpool.Pool
}

func NewPgThreadRepository(pool *pgxpool.Pool) *PgThreadRepository {
	return &PgThreadRepository{pool: pool}
}

func (r *PgThreadRepository) Create(ctx context.Context, thread domain.Thread) error {
	const query = `
		INSERT INTO chats (id, title, user_id, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	visibility := thread.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}
	_, err := r.pool.Exec(ctx, query,
		thread.ID,
		thread.Title,
		thread.UserID,
		string(visibility),
		thread.CreatedAt,
	)
	return err
}

// threadProjection agrega a cada chat el conteo de mensajes y el último mensaje.
const threadProjection = `
	SELECT c.id, c.title, c.created_at, c.visibility, c.user_id,
	       coalesce(cnt.n, 0), last.parts, last.created_at
	FROM chats c
	LEFT JOIN LATERAL (
		SELECT count(*) AS n FROM messages m WHERE m.chat_id = c.id
	) cnt ON true
	LEFT JOIN LATERAL (
		SELECT m.parts, m.created_at
		FROM messages m
		WHERE m.chat_id = c.id
		ORDER BY m.created_at DESC
		LIMIT 1
	) last ON true
`

func (r *PgThreadRepository) List(ctx context.Context, userID string, limit, offset int) ([]ThreadRow, error) {
	const query = threadProjection + `
		WHERE ($1::text = '' OR c.user_id = $1::text)
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ThreadRow
	for rows.Next() {
		row, err := scanThreadRow(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PgThreadRepository) Count(ctx context.Context, userID string) (int, error) {
	const query = `
		SELECT count(*)
		FROM chats c
		WHERE ($1::text = '' OR c.user_id = $1::text)
	`
	var n int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&n)
	return n, err
}

func (r *PgThreadRepository) GetByID(ctx context.Context, id string) (ThreadRow, error) {
	const query = threadProjection + `
		WHERE c.id = $1
	`
	row, err := scanThreadRow(r.pool.QueryRow(ctx, query, id), false)
	if errors.Is(err, pgx.ErrNoRows) {
		return ThreadRow{}, err
	}
	return row, err
}

// messageMatch es verdadero si el texto de algún mensaje del chat contiene $1.
const messageMatch = `
	EXISTS (
		SELECT 1 FROM messages mm
		WHERE mm.chat_id = c.id
		  AND strpos(lower(coalesce(chat_message_text(mm.parts), '')), $1) > 0
	)
`

func (r *PgThreadRepository) Search(ctx context.Context, query string, limit, offset int) ([]ThreadRow, error) {
	const sql = `
		SELECT s.id, s.title, s.created_at, s.visibility, s.user_id,
		       coalesce(cnt.n, 0), last.parts, last.created_at,
		       chat_relevance_score(s.title, $1, s.message_match) AS relevance
		FROM (
			SELECT c.id, c.title, c.created_at, c.visibility, c.user_id,
			       ` + messageMatch + ` AS message_match
			FROM chats c
		) s
		LEFT JOIN LATERAL (
			SELECT count(*) AS n FROM messages m WHERE m.chat_id = s.id
		) cnt ON true
		LEFT JOIN LATERAL (
			SELECT m.parts, m.created_at
			FROM messages m
			WHERE m.chat_id = s.id
			ORDER BY m.created_at DESC
			LIMIT 1
		) last ON true
		WHERE strpos(lower(s.title), $1) > 0 OR s.message_match
		ORDER BY relevance DESC, s.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, sql, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ThreadRow
	for rows.Next() {
		row, err := scanThreadRow(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PgThreadRepository) CountSearch(ctx context.Context, query string) (int, error) {
	const sql = `
		SELECT count(*)
		FROM chats c
		WHERE strpos(lower(c.title), $1) > 0 OR ` + messageMatch

	var n int
	err := r.pool.QueryRow(ctx, sql, query).Scan(&n)
	return n, err
}

// RefreshSearchIndex recalcula la vista materializada chat_search_index.
func (r *PgThreadRepository) RefreshSearchIndex(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "SELECT refresh_chat_search_index()")
	return err
}

func scanThreadRow(row pgx.Row, withRelevance bool) (ThreadRow, error) {
	var (
		out        ThreadRow
		visibility string
	)
	dest := []any{
		&out.ID,
		&out.Title,
		&out.CreatedAt,
		&visibility,
		&out.UserID,
		&out.MessageCount,
		&out.LastParts,
		&out.LastMessageAt,
	}
	if withRelevance {
		dest = append(dest, &out.Relevance)
	}
	if err := row.Scan(dest...); err != nil {
		return ThreadRow{}, err
	}
	out.Visibility = domain.Visibility(visibility)
	return out, nil
}
