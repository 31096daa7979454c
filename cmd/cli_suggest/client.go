package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chat-search/internal/service"
)

// apiClient habla con la API HTTP de chat-search.
type apiClient struct {
	baseURL string
	modelID string
	max     int
	http    *http.Client
}

func newAPIClient(baseURL, modelID string, max int) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		modelID: modelID,
		max:     max,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) Suggest(ctx context.Context, text string) (service.SuggestionResult, error) {
	body, err := json.Marshal(map[string]any{
		"text":           text,
		"modelId":        c.modelID,
		"maxSuggestions": c.max,
	})
	if err != nil {
		return service.SuggestionResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/autosuggest", bytes.NewReader(body))
	if err != nil {
		return service.SuggestionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out service.SuggestionResult
	return out, c.do(req, &out)
}

func (c *apiClient) Starter(ctx context.Context) (service.SuggestionResult, error) {
	q := url.Values{}
	q.Set("modelId", c.modelID)
	q.Set("maxSuggestions", strconv.Itoa(c.max))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/autosuggest/starter?"+q.Encode(), nil)
	if err != nil {
		return service.SuggestionResult{}, err
	}
	var out service.SuggestionResult
	return out, c.do(req, &out)
}

func (c *apiClient) Search(ctx context.Context, query string) (service.SearchPage, error) {
	q := url.Values{}
	q.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/search?"+q.Encode(), nil)
	if err != nil {
		return service.SearchPage{}, err
	}
	var out service.SearchPage
	return out, c.do(req, &out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("api %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("api status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
