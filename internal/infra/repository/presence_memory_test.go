package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/totegamma/guardiansos/internal/domain"
)

func TestMemoryPresenceMergesTelemetry(t *testing.T) {
	s := NewMemoryPresenceStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	battery := 80
	signal := "5G"
	_ = s.SetOnline(ctx, "alice", true)
	_ = s.UpdateTelemetry(ctx, "alice", domain.Telemetry{Battery: &battery})
	_ = s.UpdateTelemetry(ctx, "alice", domain.Telemetry{Signal: &signal})

	p, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !p.IsOnline || p.Battery == nil || *p.Battery != 80 || p.NetworkSignal != "5G" {
		t.Fatalf("unexpected presence %+v", p)
	}
	if p.UpdatedAt.IsZero() {
		t.Fatalf("updatedAt must be set")
	}

	_ = s.SetOnline(ctx, "alice", false)
	p, _ = s.Get(ctx, "alice")
	if p.IsOnline || *p.Battery != 80 {
		t.Fatalf("offline must keep telemetry: %+v", p)
	}
}

func TestMemoryPresenceConcurrentUsers(t *testing.T) {
	s := NewMemoryPresenceStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%10)
			battery := i
			_ = s.SetOnline(ctx, user, true)
			_ = s.UpdateTelemetry(ctx, user, domain.Telemetry{Battery: &battery})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		p, err := s.Get(ctx, fmt.Sprintf("user-%d", i))
		if err != nil || !p.IsOnline || p.Battery == nil {
			t.Fatalf("user-%d: unexpected presence %+v %v", i, p, err)
		}
	}
}
