package repository

import (
	"context"
	"time"

	"chat-search/internal/domain"
	"chat-search/internal/metrics"
)

// InstrumentedThreadRepository mide la latencia de cada consulta del
// repositorio envuelto.
type InstrumentedThreadRepository struct {
	next    ThreadRepository
	metrics *metrics.Metrics
}

func NewInstrumentedThreadRepository(next ThreadRepository, m *metrics.Metrics) *InstrumentedThreadRepository {
	return &InstrumentedThreadRepository{next: next, metrics: m}
}

func (r *InstrumentedThreadRepository) Create(ctx context.Context, thread domain.Thread) error {
	defer r.metrics.ObserveDBQuery("create_chat", time.Now())
	return r.next.Create(ctx, thread)
}

func (r *InstrumentedThreadRepository) List(ctx context.Context, userID string, limit, offset int) ([]ThreadRow, error) {
	defer r.metrics.ObserveDBQuery("list_chats", time.Now())
	return r.next.List(ctx, userID, limit, offset)
}

func (r *InstrumentedThreadRepository) Count(ctx context.Context, userID string) (int, error) {
	defer r.metrics.ObserveDBQuery("count_chats", time.Now())
	return r.next.Count(ctx, userID)
}

func (r *InstrumentedThreadRepository) GetByID(ctx context.Context, id string) (ThreadRow, error) {
	defer r.metrics.ObserveDBQuery("get_chat", time.Now())
	return r.next.GetByID(ctx, id)
}

func (r *InstrumentedThreadRepository) Search(ctx context.Context, query string, limit, offset int) ([]ThreadRow, error) {
	defer r.metrics.ObserveDBQuery("search_chats", time.Now())
	return r.next.Search(ctx, query, limit, offset)
}

func (r *InstrumentedThreadRepository) CountSearch(ctx context.Context, query string) (int, error) {
	defer r.metrics.ObserveDBQuery("count_search", time.Now())
	return r.next.CountSearch(ctx, query)
}
