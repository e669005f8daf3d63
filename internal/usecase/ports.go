package usecase

import (
	"context"
	"io"
	"time"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
)

// Authenticator resolves a bearer credential to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Sink is the exclusively owned backing store of one capture.
type Sink interface {
	io.Writer
	Close() error
	Name() string
}

// SinkAllocator creates uniquely named sinks.
type SinkAllocator interface {
	Allocate(kind domain.MediaKind, batchID, deviceID string) (Sink, error)
}

// EvidenceRepository defines storage operations for evidence records.
type EvidenceRepository interface {
	Create(ctx context.Context, evidence domain.Evidence) (domain.Evidence, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.Evidence, error)
}

// IncidentRepository defines storage operations for incidents.
type IncidentRepository interface {
	// OpenOrGet atomically returns the owner's active incident, creating it
	// when none exists. created reports whether a new incident was opened.
	OpenOrGet(ctx context.Context, input domain.OpenIncident) (incident domain.Incident, created bool, err error)
	Escalate(ctx context.Context, id string, level domain.AlertLevel) (domain.Incident, error)
	// CloseActive closes the most recent active incident; nil when none was active.
	CloseActive(ctx context.Context, owner string, at time.Time) (*domain.Incident, error)
	// AppendLocationIfActive appends point to the active incident as one step; nil when none is active.
	AppendLocationIfActive(ctx context.Context, owner string, point domain.LocationPoint) (*domain.Incident, error)
	GetActive(ctx context.Context, owner string) (domain.Incident, error)
}

// UserRepository covers the user fields owned by this service.
type UserRepository interface {
	SetStatus(ctx context.Context, userID string, status domain.Status) error
	SetLastLocation(ctx context.Context, userID string, location guardiansos.Location) error
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
}

// RecipientDirectory reads guardians and emergency contacts.
type RecipientDirectory interface {
	Recipients(ctx context.Context, owner string) (domain.RecipientSet, error)
	IsGuardian(ctx context.Context, guardian, owner string) (bool, error)
}

// PresenceStore keeps the ephemeral per-user presence entry.
type PresenceStore interface {
	SetOnline(ctx context.Context, userID string, online bool) error
	UpdateTelemetry(ctx context.Context, userID string, telemetry domain.Telemetry) error
	Get(ctx context.Context, userID string) (domain.Presence, error)
}

type SMSGateway interface {
	SendSMS(ctx context.Context, to string, msg domain.Message) error
}

type EmailGateway interface {
	SendEmail(ctx context.Context, to string, msg domain.Message) error
}

// SignalPublisher broadcasts incident events to realtime watchers.
type SignalPublisher interface {
	Publish(ctx context.Context, channel string, event guardiansos.Event) error
}
