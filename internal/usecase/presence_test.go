package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/totegamma/guardiansos/internal/domain"
)

func TestPresenceLifecycle(t *testing.T) {
	store := newMockPresenceStore()
	uc := NewPresenceUsecase(&mockAuth{}, store)
	ctx := context.Background()

	userID, err := uc.Online(ctx, "valid:alice")
	if err != nil || userID != "alice" {
		t.Fatalf("online failed: %s %v", userID, err)
	}

	battery := 55
	signal := "LTE"
	if _, err := uc.ReportStats(ctx, "valid:alice", domain.Telemetry{Battery: &battery, Signal: &signal}); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	wifi := "Disconnected"
	if _, err := uc.ReportStats(ctx, "valid:alice", domain.Telemetry{Wifi: &wifi}); err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	p, err := uc.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !p.IsOnline || p.Battery == nil || *p.Battery != 55 || p.NetworkSignal != "LTE" || p.WifiState != "Disconnected" {
		t.Fatalf("partial reports must merge: %+v", p)
	}

	uc.Offline(ctx, "alice")
	p, _ = uc.Get(ctx, "alice")
	if p.IsOnline {
		t.Fatalf("disconnect must mark the user offline")
	}
	if p.Battery == nil || *p.Battery != 55 {
		t.Fatalf("telemetry survives going offline")
	}
}

func TestPresenceRejectsBadToken(t *testing.T) {
	store := newMockPresenceStore()
	uc := NewPresenceUsecase(&mockAuth{}, store)

	if _, err := uc.Online(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := uc.ReportStats(context.Background(), "nope", domain.Telemetry{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("no entry may be created")
	}
	uc.Offline(context.Background(), "")
	if len(store.entries) != 0 {
		t.Fatalf("anonymous disconnect must be ignored")
	}
}
