package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

type cliConfig struct {
	BaseURL        string `env:"CHAT_SEARCH_URL" envDefault:"http://localhost:8080"`
	ModelID        string `env:"LLM_MODEL"`
	MaxSuggestions int    `env:"SUGGEST_MAX" envDefault:"5"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(err)
	}

	s := newSession(newAPIClient(cfg.BaseURL, cfg.ModelID, cfg.MaxSuggestions), os.Stdout)

	fmt.Println("===== chat-search autosuggest =====")
	fmt.Println("Escribe para recibir sugerencias. Línea vacía: sugerencias iniciales.")
	fmt.Println("/search <texto> busca chats, /cancel cancela, /quit sale.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var last <-chan struct{}
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				// Fin de la entrada: esperamos la última request antes de salir.
				if last != nil {
					<-last
				}
				return
			}
			done, quit := s.handle(ctx, line)
			if quit {
				return
			}
			last = done
		}
	}
}
