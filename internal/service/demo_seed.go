package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"chat-search/internal/domain"
	"chat-search/internal/repository"
)

// DemoUser es el dueño de los chats de demostración.
var DemoUser = domain.User{ID: "demo-user", Email: "demo@chat-search.local"}

// DemoThread es un chat de demostración con sus mensajes de texto en orden.
type DemoThread struct {
	Thread   domain.Thread
	Messages []string
}

// DemoDataset alimenta el seed de desarrollo y el chequeo de búsqueda.
var DemoDataset = []DemoThread{
	{
		Thread: domain.Thread{ID: "demo-1", Title: "JavaScript Code for Implementing Binary Search Algorithm"},
		Messages: []string{
			"Can you write a binary search in JavaScript?",
			"Sure, here is an iterative version that works on sorted arrays.",
		},
	},
	{
		Thread:   domain.Thread{ID: "demo-2", Title: "Weekend trip ideas", Visibility: domain.VisibilityPublic},
		Messages: []string{"Where should I go hiking near the coast?"},
	},
	{
		Thread:   domain.Thread{ID: "demo-3", Title: "Python sorting helpers"},
		Messages: []string{"Compare binary search and linear search in Python."},
	},
	{
		Thread: domain.Thread{ID: "demo-4", Title: "Recipe for sourdough"},
	},
}

// SeedResult cuenta lo insertado y lo que ya existía.
type SeedResult struct {
	Threads  int
	Messages int
	Skipped  int
}

// SeedDemo inserta DemoDataset. Es idempotente: los chats que ya existen se
// saltan junto con sus mensajes. Los chats se crean una hora aparte desde base.
func SeedDemo(
	ctx context.Context,
	users repository.UserRepository,
	threads repository.ThreadRepository,
	messages *MessageService,
	base time.Time,
) (SeedResult, error) {
	var res SeedResult

	if users != nil {
		if _, err := users.GetByID(ctx, DemoUser.ID); errors.Is(err, pgx.ErrNoRows) {
			u := DemoUser
			u.CreatedAt = base
			if err := users.Create(ctx, u); err != nil {
				return res, fmt.Errorf("create demo user: %w", err)
			}
		} else if err != nil {
			return res, fmt.Errorf("lookup demo user: %w", err)
		}
	}

	for i, dt := range DemoDataset {
		th := dt.Thread
		th.UserID = DemoUser.ID
		if th.Visibility == "" {
			th.Visibility = domain.VisibilityPrivate
		}
		th.CreatedAt = base.Add(time.Duration(i) * time.Hour)

		if _, err := threads.GetByID(ctx, th.ID); err == nil {
			res.Skipped++
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return res, fmt.Errorf("lookup chat %s: %w", th.ID, err)
		}
		if err := threads.Create(ctx, th); err != nil {
			return res, fmt.Errorf("create chat %s: %w", th.ID, err)
		}
		res.Threads++

		for j, text := range dt.Messages {
			role := "user"
			if j%2 == 1 {
				role = "assistant"
			}
			_, err := messages.Save(ctx, domain.Message{
				ID:        fmt.Sprintf("%s-m%d", th.ID, j+1),
				ChatID:    th.ID,
				Role:      role,
				Parts:     domain.TextParts(text),
				CreatedAt: th.CreatedAt.Add(time.Duration(j+1) * time.Minute),
			})
			if err != nil {
				return res, err
			}
			res.Messages++
		}
	}
	return res, nil
}
