package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat-search/internal/domain"
	"chat-search/internal/repository"
)

// MessageService valida y persiste mensajes de un chat existente.
type MessageService struct {
	repo repository.MessageRepository
}

var (
	ErrMessageServiceNotConfigured = errors.New("message service not configured")
	ErrMessageInvalidInput         = fmt.Errorf("%w: invalid message", ErrValidation)
)

var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
	"tool":      true,
}

func NewMessageService(repo repository.MessageRepository) *MessageService {
	return &MessageService{repo: repo}
}

// Save normaliza el mensaje, rechaza roles desconocidos o partes mal formadas
// y completa ID y fecha si faltan.
func (s *MessageService) Save(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if s == nil || s.repo == nil {
		return domain.Message{}, ErrMessageServiceNotConfigured
	}

	msg.ChatID = strings.TrimSpace(msg.ChatID)
	msg.Role = strings.ToLower(strings.TrimSpace(msg.Role))
	if msg.ChatID == "" || !validRoles[msg.Role] {
		return domain.Message{}, ErrMessageInvalidInput
	}
	if err := domain.ValidateParts(msg.Parts); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", ErrMessageInvalidInput, err)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

func (s *MessageService) ListByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrMessageServiceNotConfigured
	}
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return []domain.Message{}, nil
	}
	return s.repo.ListByChatID(ctx, chatID)
}
