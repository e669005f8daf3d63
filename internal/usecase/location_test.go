package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
)

func TestRelayWithoutIncident(t *testing.T) {
	users := newMockUserRepo()
	incidents := &mockIncidentRepo{}
	store := newMockPresenceStore()
	signal := &mockSignal{}
	uc := NewLocationUsecase(&mockAuth{}, users, incidents, NewPresenceUsecase(&mockAuth{}, store), signal)

	userID, appended, err := uc.Relay(context.Background(), "valid:alice", guardiansos.Location{Lat: 1, Lng: 2})
	if err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if userID != "alice" || appended {
		t.Fatalf("unexpected result %s %v", userID, appended)
	}
	if users.locations["alice"].Lat != 1 {
		t.Fatalf("last location must be overwritten")
	}
	if p, _ := store.Get(context.Background(), "alice"); !p.IsOnline {
		t.Fatalf("a location sample marks the user online")
	}
	if len(signal.types()) != 0 {
		t.Fatalf("nothing to publish without an incident")
	}
}

func TestRelayAppendsToActiveIncident(t *testing.T) {
	users := newMockUserRepo()
	incidents := &mockIncidentRepo{}
	signal := &mockSignal{}
	uc := NewLocationUsecase(&mockAuth{}, users, incidents, nil, signal)
	ctx := context.Background()

	_, _, _ = incidents.OpenOrGet(ctx, domain.OpenIncident{
		Owner: "alice", Level: domain.LevelSOS, StartLocation: &guardiansos.Location{Lat: 0, Lng: 0},
	})

	for i := 1; i <= 3; i++ {
		_, appended, err := uc.Relay(ctx, "valid:alice", guardiansos.Location{Lat: float64(i), Lng: float64(i)})
		if err != nil || !appended {
			t.Fatalf("sample %d not appended: %v", i, err)
		}
	}

	inc, _ := incidents.GetActive(ctx, "alice")
	if len(inc.LocationHistory) != 4 {
		t.Fatalf("expected 4 points, got %d", len(inc.LocationHistory))
	}
	for i, p := range inc.LocationHistory {
		if p.Lat != float64(i) {
			t.Fatalf("history out of order: %+v", inc.LocationHistory)
		}
	}
	if users.locations["alice"].Lat != 3 {
		t.Fatalf("last write must win")
	}
	if got := signal.types(); len(got) != 3 || got[0] != guardiansos.EventLocation {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestRelayAfterCancelAppendsNothing(t *testing.T) {
	incidents := &mockIncidentRepo{}
	uc := NewLocationUsecase(&mockAuth{}, newMockUserRepo(), incidents, nil, nil)
	ctx := context.Background()

	inc, _, _ := incidents.OpenOrGet(ctx, domain.OpenIncident{Owner: "alice", Level: domain.LevelSOS})
	_, _ = incidents.CloseActive(ctx, "alice", inc.StartTime)

	_, appended, err := uc.Relay(ctx, "valid:alice", guardiansos.Location{Lat: 5, Lng: 5})
	if err != nil || appended {
		t.Fatalf("closed incidents must not grow: %v %v", appended, err)
	}
}

func TestRelayRejectsBadToken(t *testing.T) {
	users := newMockUserRepo()
	uc := NewLocationUsecase(&mockAuth{}, users, &mockIncidentRepo{}, nil, nil)

	_, _, err := uc.Relay(context.Background(), "forged", guardiansos.Location{Lat: 1, Lng: 1})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if len(users.locations) != 0 {
		t.Fatalf("unauthenticated samples must not be stored")
	}
}
