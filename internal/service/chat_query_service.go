package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chat-search/internal/domain"
	"chat-search/internal/repository"
	"chat-search/internal/search"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page son los parámetros de paginación ya validados.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage valida limit/offset tal como llegan en la query string. Vacío
// usa los valores por defecto; limit por encima del máximo se recorta.
func ParsePage(rawLimit, rawOffset string) (Page, error) {
	p := Page{Limit: DefaultPageLimit}
	if s := strings.TrimSpace(rawLimit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return Page{}, ErrInvalidLimit
		}
		p.Limit = min(n, MaxPageLimit)
	}
	if s := strings.TrimSpace(rawOffset); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Page{}, ErrInvalidOffset
		}
		p.Offset = n
	}
	return p, nil
}

// ThreadPage es una página de resultados. Total es el número real de filas
// que cumplen el filtro, no el largo de la página.
type ThreadPage struct {
	Chats  []domain.SearchResult `json:"chats"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type SearchPage struct {
	ThreadPage
	Query string `json:"query"`
}

// ChatQueryService resuelve listados, detalle y búsqueda de chats. Solo lectura.
type ChatQueryService struct {
	logger  *zap.Logger
	threads repository.ThreadRepository
}

func NewChatQueryService(logger *zap.Logger, threads repository.ThreadRepository) *ChatQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatQueryService{logger: logger, threads: threads}
}

// List devuelve los chats ordenados por fecha de creación descendente.
// userID vacío significa sin filtro de dueño.
func (s *ChatQueryService) List(ctx context.Context, userID string, page Page) (ThreadPage, error) {
	userID = strings.TrimSpace(userID)
	rows, err := s.threads.List(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return ThreadPage{}, fmt.Errorf("list chats: %w", err)
	}
	total, err := s.threads.Count(ctx, userID)
	if err != nil {
		return ThreadPage{}, fmt.Errorf("count chats: %w", err)
	}
	return ThreadPage{
		Chats:  s.project(rows),
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, nil
}

func (s *ChatQueryService) Get(ctx context.Context, id string) (domain.SearchResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.SearchResult{}, ErrThreadNotFound
	}
	row, err := s.threads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SearchResult{}, ErrThreadNotFound
		}
		return domain.SearchResult{}, fmt.Errorf("get chat: %w", err)
	}
	return s.toResult(row), nil
}

// Search normaliza la consulta y devuelve los chats ordenados por relevancia.
func (s *ChatQueryService) Search(ctx context.Context, rawQuery string, page Page) (SearchPage, error) {
	query, err := search.NormalizeQuery(rawQuery)
	if err != nil {
		return SearchPage{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	rows, err := s.threads.Search(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search chats: %w", err)
	}
	total, err := s.threads.CountSearch(ctx, query)
	if err != nil {
		return SearchPage{}, fmt.Errorf("count search: %w", err)
	}

	results := s.project(rows)
	search.Sort(results)
	return SearchPage{
		ThreadPage: ThreadPage{
			Chats:  results,
			Total:  total,
			Limit:  page.Limit,
			Offset: page.Offset,
		},
		Query: strings.TrimSpace(rawQuery),
	}, nil
}

func (s *ChatQueryService) project(rows []repository.ThreadRow) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toResult(row))
	}
	return out
}

func (s *ChatQueryService) toResult(row repository.ThreadRow) domain.SearchResult {
	summary := domain.NoMessagesPlaceholder
	if row.LastParts != nil {
		text, err := domain.ExtractText(row.LastParts)
		switch {
		case err != nil:
			s.logger.Debug("last message parts not decodable",
				zap.String("chat_id", row.ID),
				zap.Error(err),
			)
		case text != "":
			summary = text
		}
	}
	return domain.SearchResult{
		Thread:        row.Thread,
		MessageCount:  row.MessageCount,
		LastMessage:   summary,
		LastMessageAt: row.LastMessageAt,
		Relevance:     row.Relevance,
	}
}
