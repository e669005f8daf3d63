package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
)

type LocationUsecase struct {
	auth      Authenticator
	users     UserRepository
	incidents IncidentRepository
	presence  *PresenceUsecase
	signal    SignalPublisher
	now       func() time.Time
}

func NewLocationUsecase(
	auth Authenticator,
	users UserRepository,
	incidents IncidentRepository,
	presence *PresenceUsecase,
	signal SignalPublisher,
) *LocationUsecase {
	return &LocationUsecase{
		auth:      auth,
		users:     users,
		incidents: incidents,
		presence:  presence,
		signal:    signal,
		now:       time.Now,
	}
}

// Relay stores the sample as the user's last known location and, when an
// incident is active, appends it to the incident history. appended reports
// whether a history point was written.
func (uc *LocationUsecase) Relay(ctx context.Context, token string, location guardiansos.Location) (userID string, appended bool, err error) {
	ctx, span := tracer.Start(ctx, "Location.Usecase.Relay")
	defer span.End()

	userID, err = uc.auth.Authenticate(ctx, token)
	if err != nil {
		span.RecordError(err)
		return "", false, err
	}
	span.SetAttributes(attribute.String("UserId", userID))

	if err := uc.users.SetLastLocation(ctx, userID, location); err != nil {
		span.RecordError(err)
		return userID, false, &domain.PersistenceError{Op: "set last location", Err: err}
	}

	if uc.presence != nil {
		uc.presence.Seen(ctx, userID)
	}

	now := uc.now()
	incident, err := uc.incidents.AppendLocationIfActive(ctx, userID, domain.LocationPoint{
		Lat:       location.Lat,
		Lng:       location.Lng,
		Timestamp: now,
	})
	if err != nil {
		span.RecordError(err)
		return userID, false, &domain.PersistenceError{Op: "append location", Err: err}
	}
	if incident == nil {
		return userID, false, nil
	}

	if uc.signal != nil {
		loc := location
		err := uc.signal.Publish(ctx, guardiansos.SignalChannel(userID), guardiansos.Event{
			Type:      guardiansos.EventLocation,
			Owner:     userID,
			Incident:  incident.ID,
			Level:     string(incident.Level),
			Location:  &loc,
			Timestamp: now,
		})
		if err != nil {
			slog.WarnContext(
				ctx, "failed to publish location",
				slog.String("error", err.Error()),
				slog.String("module", "location"),
			)
		}
	}

	return userID, true, nil
}
