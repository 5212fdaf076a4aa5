package chat

import (
	"context"
	"testing"

	modelchat "github.com/AudreyYZY/ADHD-Timebox/internal/model/chat"
)

func TestSessionForUserIsStable(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	first, err := svc.SessionForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("SessionForUser err: %v", err)
	}
	second, err := svc.SessionForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("SessionForUser err: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected stable session, got %s then %s", first.ID, second.ID)
	}

	other, err := svc.SessionForUser(ctx, "bob")
	if err != nil {
		t.Fatalf("SessionForUser err: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("expected distinct sessions per user")
	}
}

func TestSessionForUserRequiresUser(t *testing.T) {
	svc := NewService()
	if _, err := svc.SessionForUser(context.Background(), ""); err != ErrUserRequired {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
}

func TestSaveMessageAssignsIDAndDefaultsChannel(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	session, _ := svc.SessionForUser(ctx, "alice")
	stored, err := svc.SaveMessage(ctx, modelchat.Message{
		SessionID: session.ID,
		Role:      modelchat.RoleUser,
		Content:   "plan my day",
	})
	if err != nil {
		t.Fatalf("SaveMessage err: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("expected assigned id")
	}
	if stored.Channel != modelchat.ChannelPlanning {
		t.Fatalf("expected planning default, got %s", stored.Channel)
	}
	if stored.CreatedAt.IsZero() {
		t.Fatal("expected assigned timestamp")
	}
}

func TestSaveMessageValidation(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	session, _ := svc.SessionForUser(ctx, "alice")

	if _, err := svc.SaveMessage(ctx, modelchat.Message{Content: "x"}); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.SaveMessage(ctx, modelchat.Message{SessionID: "ghost", Content: "x"}); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound for unknown session, got %v", err)
	}
	if _, err := svc.SaveMessage(ctx, modelchat.Message{SessionID: session.ID}); err != ErrEmptyMessage {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestTranscriptChannelFilter(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	session, _ := svc.SessionForUser(ctx, "alice")

	seed := []modelchat.Message{
		{SessionID: session.ID, Role: modelchat.RoleUser, Content: "plan", Channel: modelchat.ChannelPlanning},
		{SessionID: session.ID, Role: modelchat.RoleUser, Content: "buy milk", Channel: modelchat.ChannelParking},
		{SessionID: session.ID, Role: modelchat.RoleAssistant, Content: "parked", Channel: modelchat.ChannelParking},
	}
	for _, m := range seed {
		if _, err := svc.SaveMessage(ctx, m); err != nil {
			t.Fatalf("SaveMessage err: %v", err)
		}
	}

	all, err := svc.Transcript(ctx, session.ID, "")
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(all))
	}

	parked, err := svc.Transcript(ctx, session.ID, modelchat.ChannelParking)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(parked) != 2 {
		t.Fatalf("expected 2 parked messages, got %d", len(parked))
	}
	for _, m := range parked {
		if m.Channel != modelchat.ChannelParking {
			t.Fatalf("unexpected channel %s", m.Channel)
		}
	}

	if _, err := svc.Transcript(ctx, "ghost", ""); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
