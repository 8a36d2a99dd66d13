package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/me/patrol/internal/logging"
	"github.com/me/patrol/pkg/model"
)

func envelopeHandler(status int, data any, apiErr *model.APIError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := model.Response{RequestID: "req_test", Data: data, Error: apiErr}
		if apiErr != nil {
			resp.Status = "error"
		} else {
			resp.Status = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(http.StatusOK, map[string]any{"status": "healthy"}, nil))
	defer srv.Close()

	c := NewClient(srv.URL, logging.Discard())
	resp, err := c.Get("/api/v1/health")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}

	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data["status"] != "healthy" {
		t.Errorf("data = %v, want status healthy", data)
	}
}

func TestClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(http.StatusNotFound, nil,
		model.NewNotFoundError("assignment", "42")))
	defer srv.Close()

	c := NewClient(srv.URL, logging.Discard())
	resp, err := c.Post("/api/v1/assignments/42/start", nil)
	if err == nil {
		t.Fatal("expected error from error envelope")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrNotFound)
	}
	if resp == nil || resp.Status != "error" {
		t.Error("envelope not returned alongside the error")
	}
}

func TestClientPostBody(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		envelopeHandler(http.StatusOK, map[string]any{"re_quested": true}, nil)(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logging.Discard())
	if _, err := c.Post("/api/v1/assignments/re-quest", map[string]any{"assignment_ids": []uint64{1, 2}}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	ids, ok := received["assignment_ids"].([]any)
	if !ok || len(ids) != 2 {
		t.Errorf("request body = %v, want assignment_ids with 2 entries", received)
	}
}

func TestClientBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logging.Discard())
	if _, err := c.Get("/"); err == nil {
		t.Fatal("expected parse error for non-JSON response")
	}
}

func TestDefaultServerEnv(t *testing.T) {
	t.Setenv("PATROL_SERVER", "http://example.test:7000")
	if got := defaultServer(); got != "http://example.test:7000" {
		t.Errorf("defaultServer = %q, want env override", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(0); got != "on-complete" {
		t.Errorf("formatTime(0) = %q", got)
	}
	if got := formatTime(21600); got != "06:00:00" {
		t.Errorf("formatTime(21600) = %q, want 06:00:00", got)
	}
	if got := formatTime(86399); got != "23:59:59" {
		t.Errorf("formatTime(86399) = %q, want 23:59:59", got)
	}
}
