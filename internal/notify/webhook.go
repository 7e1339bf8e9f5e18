// Package notify delivers reminder messages to the user.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Message struct {
	Event   string `json:"event"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type WebhookSender struct {
	URL  string
	HTTP *http.Client
}

func (s WebhookSender) Notify(ctx context.Context, msg Message) error {
	url := strings.TrimSpace(s.URL)
	if url == "" {
		return errors.New("webhook url is empty")
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	client := s.HTTP
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpError{StatusCode: resp.StatusCode}
	}
	return nil
}

type httpError struct {
	StatusCode int
}

func (e *httpError) Error() string {
	return "webhook http status " + http.StatusText(e.StatusCode)
}

// LogNotifier writes messages to the log; used when no webhook is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(ctx context.Context, msg Message) error {
	if n.Logger != nil {
		n.Logger.Info("reminder", zap.String("event", msg.Event), zap.String("title", msg.Title), zap.String("message", msg.Message))
	}
	return nil
}
