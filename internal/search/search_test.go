package search

import (
	"errors"
	"testing"
	"time"

	"chat-search/internal/domain"
)

func TestNormalizeQuery(t *testing.T) {
	q, err := NormalizeQuery("  JavaScript ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != "javascript" {
		t.Fatalf("expected case-folded query, got %q", q)
	}

	if q, err := NormalizeQuery("tell"); err != nil || q != "tell" {
		t.Fatalf("expected 4-char query to be accepted, got %q %v", q, err)
	}
	if _, err := NormalizeQuery("go"); err != nil {
		t.Fatalf("expected 2-char query to be accepted, got %v", err)
	}

	for _, raw := range []string{"", " ", "a", "  b  ", "é"} {
		if _, err := NormalizeQuery(raw); !errors.Is(err, ErrQueryTooShort) {
			t.Fatalf("query %q: expected ErrQueryTooShort, got %v", raw, err)
		}
	}
}

func TestRelevance(t *testing.T) {
	cases := []struct {
		name         string
		title        string
		query        string
		messageMatch bool
		want         int
	}{
		{"title contains", "JavaScript Code for Implementing Binary Search Algorithm", "javascript", false, 3},
		{"title contains mid word", "Learn binary search", "search", false, 3},
		{"title and message", "Binary Search", "search", true, 5},
		{"message only", "Cooking ideas", "pasta", true, 3},
		{"no match baseline", "Cooking ideas", "pasta", false, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Relevance(tc.title, tc.query, tc.messageMatch); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestRelevanceRange(t *testing.T) {
	titles := []string{"", "go", "Go tips", "nothing here"}
	for _, title := range titles {
		for _, mm := range []bool{true, false} {
			got := Relevance(title, "go", mm)
			if got < 1 || got > 5 {
				t.Fatalf("relevance out of range for %q/%v: %d", title, mm, got)
			}
		}
	}
}

func TestSort(t *testing.T) {
	now := time.Now().UTC()
	results := []domain.SearchResult{
		{Thread: domain.Thread{ID: "old-3", CreatedAt: now.Add(-2 * time.Hour)}, Relevance: 3},
		{Thread: domain.Thread{ID: "new-3", CreatedAt: now}, Relevance: 3},
		{Thread: domain.Thread{ID: "top", CreatedAt: now.Add(-5 * time.Hour)}, Relevance: 5},
		{Thread: domain.Thread{ID: "low", CreatedAt: now.Add(time.Hour)}, Relevance: 1},
	}
	Sort(results)

	want := []string{"top", "new-3", "old-3", "low"}
	for i, id := range want {
		if results[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, results[i].ID)
		}
	}
}

func TestContains(t *testing.T) {
	if !Contains("Hello World", "world") {
		t.Fatalf("expected case-insensitive match")
	}
	if Contains("Hello", "50%") {
		t.Fatalf("did not expect a match")
	}
}
