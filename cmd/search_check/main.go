package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"chat-search/internal/repository"
	"chat-search/internal/service"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

var seedBase = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

var scenarios = []Scenario{
	{Name: "título y mensaje", Query: "binary search", ExpectedIDs: []string{"demo-1", "demo-3"}, ExpectedTop: 5},
	{Name: "mayúsculas", Query: "JAVASCRIPT", ExpectedIDs: []string{"demo-1"}, ExpectedTop: 5},
	{Name: "solo mensaje", Query: "hiking", ExpectedIDs: []string{"demo-2"}, ExpectedTop: 3},
	{Name: "chat sin mensajes", Query: "sourdough", ExpectedIDs: []string{"demo-4"}, ExpectedTop: 3},
	{Name: "sin resultados", Query: "quantum", ExpectedIDs: []string{}},
	{Name: "comodines literales", Query: "%%", ExpectedIDs: []string{}},
	{Name: "consulta corta", Query: "a", ExpectError: true},
}

func main() {
	ctx := context.Background()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	repo, err := seed(ctx)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	chats := service.NewChatQueryService(logger, repo)
	page := service.Page{Limit: service.DefaultPageLimit}

	failed := 0
	for _, sc := range scenarios {
		fmt.Printf("%s[%s]%s q=%q\n", colorCyan, sc.Name, colorReset, sc.Query)

		out, err := chats.Search(ctx, sc.Query, page)
		for _, r := range out.Chats {
			fmt.Printf("  %s\n", formatResult(r))
		}

		v := evaluate(sc, out.Chats, err)
		if v.Passed {
			fmt.Printf("  %sOK%s total=%d\n\n", colorGreen, colorReset, out.Total)
			continue
		}
		failed++
		for _, reason := range v.Reasons {
			fmt.Printf("  %sFALLA%s %s\n", colorRed, colorReset, reason)
		}
		fmt.Println()
	}

	fmt.Println("==== Resumen ====")
	fmt.Printf("Escenarios: %d | Fallidos: %d\n", len(scenarios), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func seed(ctx context.Context) (*repository.MemoryThreadRepository, error) {
	repo := repository.NewMemoryThreadRepository()
	if _, err := service.SeedDemo(ctx, nil, repo, service.NewMessageService(repo.Messages()), seedBase); err != nil {
		return nil, err
	}
	return repo, nil
}
