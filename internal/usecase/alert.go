package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
)

type TriggerInput struct {
	Level    domain.AlertLevel
	Location *guardiansos.Location
	Battery  *int
	Network  string
}

type AlertUsecase struct {
	incidents    IncidentRepository
	users        UserRepository
	directory    RecipientDirectory
	dispatcher   *Dispatcher
	signal       SignalPublisher
	dashboardURL string
	now          func() time.Time
}

// NewAlertUsecase wires the alert flow. signal may be nil when no realtime
// broker is configured.
func NewAlertUsecase(
	incidents IncidentRepository,
	users UserRepository,
	directory RecipientDirectory,
	dispatcher *Dispatcher,
	signal SignalPublisher,
	dashboardURL string,
) *AlertUsecase {
	return &AlertUsecase{
		incidents:    incidents,
		users:        users,
		directory:    directory,
		dispatcher:   dispatcher,
		signal:       signal,
		dashboardURL: dashboardURL,
		now:          time.Now,
	}
}

// Trigger opens an incident for userID, or reuses the active one, and
// notifies every guardian and emergency contact. A higher level escalates
// the active incident; a lower one never downgrades it.
func (uc *AlertUsecase) Trigger(ctx context.Context, userID string, input TriggerInput) (domain.Incident, error) {
	ctx, span := tracer.Start(ctx, "Alert.Usecase.Trigger")
	defer span.End()
	span.SetAttributes(attribute.String("UserId", userID), attribute.String("Level", string(input.Level)))

	if userID == "" {
		return domain.Incident{}, domain.ErrUnauthenticated
	}
	if input.Level == "" {
		input.Level = domain.LevelSOS
	}

	now := uc.now()
	incident, created, err := uc.incidents.OpenOrGet(ctx, domain.OpenIncident{
		Owner:         userID,
		Level:         input.Level,
		StartLocation: input.Location,
		StartTime:     now,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Incident{}, &domain.PersistenceError{Op: "open incident", Err: err}
	}

	if effective := incident.Level.Max(input.Level); effective != incident.Level {
		incident, err = uc.incidents.Escalate(ctx, incident.ID, effective)
		if err != nil {
			span.RecordError(err)
			return domain.Incident{}, &domain.PersistenceError{Op: "escalate incident", Err: err}
		}
	}

	if err := uc.users.SetStatus(ctx, userID, incident.Level.Status()); err != nil {
		span.RecordError(err)
		return domain.Incident{}, &domain.PersistenceError{Op: "set status", Err: err}
	}
	if input.Location != nil {
		if err := uc.users.SetLastLocation(ctx, userID, *input.Location); err != nil {
			slog.WarnContext(
				ctx, "failed to store last location",
				slog.String("error", err.Error()),
				slog.String("module", "alert"),
			)
		}
	}

	eventType := guardiansos.EventIncidentUpdated
	if created {
		eventType = guardiansos.EventIncidentOpened
	}
	uc.publish(ctx, guardiansos.Event{
		Type:      eventType,
		Owner:     userID,
		Incident:  incident.ID,
		Level:     string(incident.Level),
		Location:  input.Location,
		Timestamp: now,
	})

	alert := Alert{
		IncidentID: incident.ID,
		OwnerID:    userID,
		OwnerName:  uc.ownerName(ctx, userID),
		Location:   input.Location,
		Battery:    input.Battery,
		Network:    input.Network,
		Time:       now,
	}
	uc.notify(ctx, NewAlertMessage(incident.Level, alert, uc.dashboardURL), userID)

	return incident, nil
}

// Cancel closes the active incident, if any, and marks the user safe.
// Calling it with nothing active still succeeds.
func (uc *AlertUsecase) Cancel(ctx context.Context, userID string) (*domain.Incident, error) {
	ctx, span := tracer.Start(ctx, "Alert.Usecase.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("UserId", userID))

	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	now := uc.now()
	closed, err := uc.incidents.CloseActive(ctx, userID, now)
	if err != nil {
		span.RecordError(err)
		return nil, &domain.PersistenceError{Op: "close incident", Err: err}
	}

	if err := uc.users.SetStatus(ctx, userID, domain.StatusSafe); err != nil {
		span.RecordError(err)
		return nil, &domain.PersistenceError{Op: "set status", Err: err}
	}

	if closed == nil {
		return nil, nil
	}

	uc.publish(ctx, guardiansos.Event{
		Type:      guardiansos.EventIncidentClosed,
		Owner:     userID,
		Incident:  closed.ID,
		Level:     string(domain.StatusSafe),
		Timestamp: now,
	})

	uc.notify(ctx, SafeNotice{Alert: Alert{
		IncidentID: closed.ID,
		OwnerID:    userID,
		OwnerName:  uc.ownerName(ctx, userID),
		Time:       now,
	}}, userID)

	return closed, nil
}

func (uc *AlertUsecase) Active(ctx context.Context, userID string) (domain.Incident, error) {
	ctx, span := tracer.Start(ctx, "Alert.Usecase.Active")
	defer span.End()

	incident, err := uc.incidents.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Incident{}, err
		}
		span.RecordError(err)
		return domain.Incident{}, errors.Wrap(err, "get active incident")
	}
	return incident, nil
}

func (uc *AlertUsecase) ownerName(ctx context.Context, userID string) string {
	profile, err := uc.users.GetProfile(ctx, userID)
	if err != nil {
		slog.DebugContext(
			ctx, "profile lookup failed",
			slog.String("user", userID),
			slog.String("error", err.Error()),
			slog.String("module", "alert"),
		)
		return ""
	}
	return profile.Name
}

func (uc *AlertUsecase) notify(ctx context.Context, msg AlertMessage, userID string) {
	recipients, err := uc.directory.Recipients(ctx, userID)
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to load recipients",
			slog.String("user", userID),
			slog.String("error", err.Error()),
			slog.String("module", "alert"),
		)
		return
	}
	if recipients.Len() == 0 {
		slog.InfoContext(
			ctx, "no recipients to notify",
			slog.String("user", userID),
			slog.String("module", "alert"),
		)
		return
	}
	uc.dispatcher.Dispatch(ctx, msg, recipients)
}

func (uc *AlertUsecase) publish(ctx context.Context, event guardiansos.Event) {
	if uc.signal == nil {
		return
	}
	if err := uc.signal.Publish(ctx, guardiansos.SignalChannel(event.Owner), event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish incident event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
			slog.String("module", "alert"),
		)
	}
}
