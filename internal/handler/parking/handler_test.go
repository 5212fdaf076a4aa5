package parking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	modelchat "github.com/AudreyYZY/ADHD-Timebox/internal/model/chat"
	chatservice "github.com/AudreyYZY/ADHD-Timebox/internal/service/chat"
	"github.com/AudreyYZY/ADHD-Timebox/internal/service/events"
)

type staticResolver struct {
	userID string
	fail   bool
}

func (s staticResolver) Resolve(_ *http.Request) (string, error) {
	if s.fail {
		return "", http.ErrNoCookie
	}
	return s.userID, nil
}

func setupRouter(resolver staticResolver) (*chi.Mux, *chatservice.Service, *events.Bus) {
	chatSvc := chatservice.NewService()
	bus := events.NewBus()
	handler := New(chatSvc, bus, resolver)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc, bus
}

func park(t *testing.T, r http.Handler, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/parking", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestParkThoughtSavesToParkingChannel(t *testing.T) {
	r, chatSvc, bus := setupRouter(staticResolver{userID: "alice"})

	eventCh, cancel := bus.Subscribe()
	defer cancel()

	resp := park(t, r, map[string]string{"message": "buy milk", "thought_type": "todo"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "FINISHED" || body["agent"] != "parking" {
		t.Fatalf("unexpected response %v", body)
	}

	session, err := chatSvc.SessionForUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("SessionForUser err: %v", err)
	}
	parked, err := chatSvc.Transcript(context.Background(), session.ID, modelchat.ChannelParking)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(parked) != 1 || parked[0].Content != "buy milk" {
		t.Fatalf("expected parked thought in transcript, got %v", parked)
	}

	select {
	case evt := <-eventCh:
		if evt.Name != events.EventThoughtParked {
			t.Fatalf("unexpected event %s", evt.Name)
		}
		if evt.Data["thought_type"] != "todo" {
			t.Fatalf("unexpected event data %v", evt.Data)
		}
	default:
		t.Fatal("expected thought_parked event on the bus")
	}
}

func TestParkThoughtTypeFallbacks(t *testing.T) {
	r, _, bus := setupRouter(staticResolver{userID: "alice"})
	eventCh, cancel := bus.Subscribe()
	defer cancel()

	// Unknown type degrades to memo.
	park(t, r, map[string]string{"message": "weird", "thought_type": "banana"})
	if evt := <-eventCh; evt.Data["thought_type"] != "memo" {
		t.Fatalf("expected memo fallback, got %v", evt.Data["thought_type"])
	}

	// Absent type defaults to search.
	park(t, r, map[string]string{"message": "look this up"})
	if evt := <-eventCh; evt.Data["thought_type"] != "search" {
		t.Fatalf("expected search default, got %v", evt.Data["thought_type"])
	}
}

func TestParkThoughtValidation(t *testing.T) {
	r, _, _ := setupRouter(staticResolver{userID: "alice"})

	resp := park(t, r, map[string]string{"message": "   "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/parking", bytes.NewReader([]byte("{bad")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestParkThoughtRequiresIdentity(t *testing.T) {
	r, _, _ := setupRouter(staticResolver{fail: true})

	resp := park(t, r, map[string]string{"message": "hello"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
