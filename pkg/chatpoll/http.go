package chatpoll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// envelope mirrors the API response wrapping a conversation.
type envelope[T any] struct {
	Data struct {
		Messages []T `json:"messages"`
	} `json:"data"`
	Error string `json:"error"`
}

// HTTPFetch returns a Fetch that GETs url with the bearer token and decodes
// the conversation's messages. client nil means http.DefaultClient.
func HTTPFetch[T any](client *http.Client, url, token string) func(ctx context.Context) ([]T, error) {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) ([]T, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var body envelope[T]
		if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode conversation (status %d): %w", resp.StatusCode, err)
		}
		if resp.StatusCode != http.StatusOK {
			msg := strings.TrimSpace(body.Error)
			if msg == "" {
				msg = http.StatusText(resp.StatusCode)
			}
			return nil, fmt.Errorf("fetch conversation: %d %s", resp.StatusCode, msg)
		}
		return body.Data.Messages, nil
	}
}
