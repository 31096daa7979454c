package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"chat-search/internal/coordinator"
	"chat-search/internal/service"
)

// session procesa las líneas de la terminal. Cada propósito tiene su propio
// coordinador: una línea nueva cancela la request anterior del mismo tipo y su
// respuesta tardía se descarta.
type session struct {
	api      *apiClient
	out      io.Writer
	mu       sync.Mutex
	suggests *coordinator.Coordinator[service.SuggestionResult]
	searches *coordinator.Coordinator[service.SearchPage]
}

func newSession(api *apiClient, out io.Writer) *session {
	return &session{
		api:      api,
		out:      out,
		suggests: coordinator.New[service.SuggestionResult](),
		searches: coordinator.New[service.SearchPage](),
	}
}

// handle despacha una línea y devuelve un canal que se cierra al terminar.
// quit es true para /quit.
func (s *session) handle(ctx context.Context, line string) (done <-chan struct{}, quit bool) {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case line == "/quit":
		s.suggests.Cancel()
		s.searches.Cancel()
		return closed(), true
	case line == "/cancel":
		s.suggests.Cancel()
		s.searches.Cancel()
		s.printf("(cancelado)\n")
		return closed(), false
	case strings.HasPrefix(line, "/search "):
		query := strings.TrimPrefix(line, "/search ")
		return s.searches.Go(ctx,
			func(ctx context.Context) (service.SearchPage, error) { return s.api.Search(ctx, query) },
			s.printSearch,
			s.printError,
		), false
	case strings.TrimSpace(line) == "":
		return s.suggests.Go(ctx, s.api.Starter, s.printSuggestions, s.printError), false
	default:
		return s.suggests.Go(ctx,
			func(ctx context.Context) (service.SuggestionResult, error) { return s.api.Suggest(ctx, line) },
			s.printSuggestions,
			s.printError,
		), false
	}
}

func (s *session) printSuggestions(res service.SuggestionResult) {
	if len(res.Suggestions) == 0 {
		s.printf("  (sin sugerencias)\n")
		return
	}
	for _, sg := range res.Suggestions {
		s.printf("  %s%-40s%s %.2f %s\n", colorGreen, sg.Text, colorReset, sg.Confidence, sg.Category)
	}
}

func (s *session) printSearch(page service.SearchPage) {
	s.printf("  %d resultados para %q\n", page.Total, page.Query)
	for _, c := range page.Chats {
		s.printf("  %s[%d]%s %s: %s\n", colorCyan, c.Relevance, colorReset, c.Title, c.LastMessage)
	}
}

func (s *session) printError(err error) {
	s.printf("  error: %v\n", err)
}

func (s *session) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
