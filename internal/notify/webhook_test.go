package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookSender_PostsJSON(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := WebhookSender{URL: srv.URL}.Notify(context.Background(), Message{Event: "reminder", Title: "Run4Recht", Message: "Weiter so!"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got.Event != "reminder" || got.Message != "Weiter so!" {
		t.Fatalf("got=%+v", got)
	}
}

func TestWebhookSender_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	if err := (WebhookSender{URL: srv.URL}).Notify(context.Background(), Message{}); err == nil {
		t.Fatalf("expected error for 502")
	}
	if err := (WebhookSender{}).Notify(context.Background(), Message{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
