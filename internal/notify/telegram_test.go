package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"persona-survey-bot/internal/domain"
)

func TestTelegramNotifyPostsSendMessage(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("unmarshal request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegramWithBase("test-token", srv.URL)
	err := tg.Notify(context.Background(), 42, "привет", []domain.Button{
		{Text: "Открыть", URL: "https://t.me/bot"},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotBody["chat_id"] != float64(42) || gotBody["text"] != "привет" {
		t.Fatalf("unexpected payload: %v", gotBody)
	}
	if _, ok := gotBody["reply_markup"]; !ok {
		t.Fatalf("expected an inline keyboard in the payload")
	}
}

func TestTelegramNotifySurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tg := NewTelegramWithBase("test-token", srv.URL)
	if err := tg.Notify(context.Background(), 42, "привет", nil); err == nil {
		t.Fatalf("expected an error on a non-200 response")
	}
}
