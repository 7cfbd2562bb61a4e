package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"
)

const defaultTimeout = 30 * time.Second

// bakeryClient is the JSON transport shared by the bakery backend clients.
type bakeryClient struct {
	service string
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func newBakeryClient(service, baseURL string, hc *http.Client, log *logger.Logger) bakeryClient {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return bakeryClient{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		log:     log,
	}
}

// do sends body as JSON and decodes a 2xx response into out. Any other
// status becomes a *domain.RemoteError carrying the server's message.
func (c bakeryClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("%s %s %s", c.service, method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.RemoteError{Service: c.service, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.RemoteError{Service: c.service, Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.RemoteError{
			Service: c.service,
			Status:  resp.StatusCode,
			Message: remoteMessage(raw, resp.Status),
		}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// remoteMessage extracts the "message" field of an error body, falling back
// to the status line.
func remoteMessage(raw []byte, status string) string {
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if e, ok := body.Error.(map[string]any); ok {
			if msg, ok := e["message"].(string); ok && msg != "" {
				return msg
			}
		}
		if msg, ok := body.Error.(string); ok && msg != "" {
			return msg
		}
	}
	return status
}

// idResponse is the body of every create endpoint.
type idResponse struct {
	ID int64 `json:"id"`
}
