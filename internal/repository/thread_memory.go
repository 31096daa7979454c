package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"chat-search/internal/domain"
	"chat-search/internal/search"
)

// MemoryThreadRepository guarda chats y mensajes en memoria. Implementa
// ThreadRepository con la misma semántica que la versión Postgres; lo usan
// los tests y el script search_check.
type MemoryThreadRepository struct {
	mu       sync.RWMutex
	threads  map[string]domain.Thread
	messages map[string][]domain.Message
}

func NewMemoryThreadRepository() *MemoryThreadRepository {
	return &MemoryThreadRepository{
		threads:  make(map[string]domain.Thread),
		messages: make(map[string][]domain.Message),
	}
}

func (r *MemoryThreadRepository) Create(_ context.Context, thread domain.Thread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.threads[thread.ID]; exists {
		return fmt.Errorf("thread %s already exists", thread.ID)
	}
	if thread.Visibility == "" {
		thread.Visibility = domain.VisibilityPrivate
	}
	r.threads[thread.ID] = thread
	return nil
}

// AddMessage es el equivalente en memoria de MessageRepository.Create.
func (r *MemoryThreadRepository) AddMessage(_ context.Context, message domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threads[message.ChatID]; !ok {
		return fmt.Errorf("thread %s not found", message.ChatID)
	}
	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)
	return nil
}

func (r *MemoryThreadRepository) ListByChatID(_ context.Context, chatID string) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := append([]domain.Message(nil), r.messages[chatID]...)
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (r *MemoryThreadRepository) List(_ context.Context, userID string, limit, offset int) ([]ThreadRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []ThreadRow
	for _, t := range r.threads {
		if userID != "" && t.UserID != userID {
			continue
		}
		rows = append(rows, r.project(t))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return page(rows, limit, offset), nil
}

func (r *MemoryThreadRepository) Count(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, t := range r.threads {
		if userID == "" || t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryThreadRepository) GetByID(_ context.Context, id string) (ThreadRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.threads[id]
	if !ok {
		return ThreadRow{}, pgx.ErrNoRows
	}
	return r.project(t), nil
}

func (r *MemoryThreadRepository) Search(_ context.Context, query string, limit, offset int) ([]ThreadRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return page(r.matches(query), limit, offset), nil
}

func (r *MemoryThreadRepository) CountSearch(_ context.Context, query string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches(query)), nil
}

func (r *MemoryThreadRepository) matches(query string) []ThreadRow {
	var results []domain.SearchResult
	rowsByID := make(map[string]ThreadRow)
	for _, t := range r.threads {
		titleMatch := search.Contains(t.Title, query)
		msgMatch := r.messageMatch(t.ID, query)
		if !titleMatch && !msgMatch {
			continue
		}
		row := r.project(t)
		row.Relevance = search.Relevance(t.Title, query, msgMatch)
		rowsByID[t.ID] = row
		results = append(results, domain.SearchResult{Thread: t, Relevance: row.Relevance})
	}
	search.Sort(results)

	out := make([]ThreadRow, 0, len(results))
	for _, res := range results {
		out = append(out, rowsByID[res.ID])
	}
	return out
}

func (r *MemoryThreadRepository) messageMatch(chatID, query string) bool {
	for _, m := range r.messages[chatID] {
		text, err := domain.ExtractText(m.Parts)
		if err != nil {
			continue
		}
		if search.Contains(text, query) {
			return true
		}
	}
	return false
}

func (r *MemoryThreadRepository) project(t domain.Thread) ThreadRow {
	row := ThreadRow{Thread: t}
	msgs := r.messages[t.ID]
	row.MessageCount = len(msgs)
	for i := range msgs {
		m := msgs[i]
		if row.LastMessageAt == nil || m.CreatedAt.After(*row.LastMessageAt) {
			at := m.CreatedAt
			row.LastMessageAt = &at
			row.LastParts = m.Parts
		}
	}
	return row
}

func page(rows []ThreadRow, limit, offset int) []ThreadRow {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// Messages expone los mensajes del repositorio en memoria como MessageRepository.
func (r *MemoryThreadRepository) Messages() MessageRepository {
	return memoryMessageView{repo: r}
}

type memoryMessageView struct {
	repo *MemoryThreadRepository
}

func (v memoryMessageView) Create(ctx context.Context, message domain.Message) error {
	return v.repo.AddMessage(ctx, message)
}

func (v memoryMessageView) ListByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	return v.repo.ListByChatID(ctx, chatID)
}
