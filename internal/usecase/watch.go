package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// WatchUsecase authorizes guardians subscribing to live incident events.
type WatchUsecase struct {
	auth      Authenticator
	directory RecipientDirectory
}

func NewWatchUsecase(auth Authenticator, directory RecipientDirectory) *WatchUsecase {
	return &WatchUsecase{
		auth:      auth,
		directory: directory,
	}
}

// Authorize resolves token to a guardian and keeps only the owners that
// guardian has an active relationship with.
func (uc *WatchUsecase) Authorize(ctx context.Context, token string, owners []string) (string, []string, error) {
	ctx, span := tracer.Start(ctx, "Watch.Usecase.Authorize")
	defer span.End()

	guardianID, err := uc.auth.Authenticate(ctx, token)
	if err != nil {
		span.RecordError(err)
		return "", nil, err
	}

	allowed := make([]string, 0, len(owners))
	for _, owner := range owners {
		if owner == guardianID {
			allowed = append(allowed, owner)
			continue
		}
		ok, err := uc.directory.IsGuardian(ctx, guardianID, owner)
		if err != nil {
			span.RecordError(err)
			return guardianID, nil, errors.Wrap(err, "guardian lookup failed")
		}
		if !ok {
			slog.DebugContext(
				ctx, "watch denied",
				slog.String("guardian", guardianID),
				slog.String("owner", owner),
				slog.String("module", "watch"),
			)
			continue
		}
		allowed = append(allowed, owner)
	}
	return guardianID, allowed, nil
}
