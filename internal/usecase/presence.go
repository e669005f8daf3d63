package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/guardiansos/internal/domain"
)

// PresenceUsecase maintains the per-user online flag and device telemetry.
// One connection per user is assumed: a disconnect marks the user offline.
type PresenceUsecase struct {
	auth  Authenticator
	store PresenceStore
}

func NewPresenceUsecase(auth Authenticator, store PresenceStore) *PresenceUsecase {
	return &PresenceUsecase{
		auth:  auth,
		store: store,
	}
}

// Online authenticates token and marks its user online.
func (uc *PresenceUsecase) Online(ctx context.Context, token string) (string, error) {
	ctx, span := tracer.Start(ctx, "Presence.Usecase.Online")
	defer span.End()

	userID, err := uc.auth.Authenticate(ctx, token)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("UserId", userID))

	if err := uc.store.SetOnline(ctx, userID, true); err != nil {
		span.RecordError(err)
		return userID, &domain.PersistenceError{Op: "set online", Err: err}
	}
	return userID, nil
}

// ReportStats merges a partial telemetry report. Absent fields keep their
// previous value. A report also counts as a sign of life.
func (uc *PresenceUsecase) ReportStats(ctx context.Context, token string, telemetry domain.Telemetry) (string, error) {
	ctx, span := tracer.Start(ctx, "Presence.Usecase.ReportStats")
	defer span.End()

	userID, err := uc.auth.Authenticate(ctx, token)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("UserId", userID))

	if err := uc.store.UpdateTelemetry(ctx, userID, telemetry); err != nil {
		span.RecordError(err)
		return userID, &domain.PersistenceError{Op: "update telemetry", Err: err}
	}
	uc.Seen(ctx, userID)
	return userID, nil
}

// Seen marks an already authenticated user online. Failures are logged only.
func (uc *PresenceUsecase) Seen(ctx context.Context, userID string) {
	if err := uc.store.SetOnline(ctx, userID, true); err != nil {
		slog.WarnContext(
			ctx, "failed to mark user online",
			slog.String("user", userID),
			slog.String("error", err.Error()),
			slog.String("module", "presence"),
		)
	}
}

// Offline is called when the user's connection goes away.
func (uc *PresenceUsecase) Offline(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if err := uc.store.SetOnline(ctx, userID, false); err != nil {
		slog.WarnContext(
			ctx, "failed to mark user offline",
			slog.String("user", userID),
			slog.String("error", err.Error()),
			slog.String("module", "presence"),
		)
	}
}

func (uc *PresenceUsecase) Get(ctx context.Context, userID string) (domain.Presence, error) {
	return uc.store.Get(ctx, userID)
}
