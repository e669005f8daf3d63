package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/internal/infra/database/models"
)

const profileCacheTTL = 300 // seconds

type UserRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

// NewUserRepository returns a repository caching profiles in mc. mc may be nil.
func NewUserRepository(db *gorm.DB, mc *memcache.Client) *UserRepository {
	return &UserRepository{db: db, mc: mc}
}

func (r *UserRepository) SetStatus(ctx context.Context, userID string, status domain.Status) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "m_date"}),
	}).Create(&models.User{
		ID:     userID,
		Status: string(status),
	}).Error
}

func (r *UserRepository) SetLastLocation(ctx context.Context, userID string, location guardiansos.Location) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_lat", "last_lng", "last_address", "m_date"}),
	}).Create(&models.User{
		ID:          userID,
		Status:      string(domain.StatusSafe),
		LastLat:     &location.Lat,
		LastLng:     &location.Lng,
		LastAddress: location.Address,
	}).Error
}

func profileCacheKey(userID string) string {
	return "profile:" + userID
}

func (r *UserRepository) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	if r.mc != nil {
		item, err := r.mc.Get(profileCacheKey(userID))
		if err == nil {
			var profile domain.Profile
			if err := json.Unmarshal(item.Value, &profile); err == nil {
				return profile, nil
			}
		} else if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.DebugContext(
				ctx, "profile cache unavailable",
				slog.String("error", err.Error()),
				slog.String("module", "repository"),
			)
		}
	}

	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Profile{}, domain.NotFoundError{Resource: "user"}
		}
		return domain.Profile{}, err
	}

	profile := domain.Profile{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}

	if r.mc != nil {
		if value, err := json.Marshal(profile); err == nil {
			_ = r.mc.Set(&memcache.Item{
				Key:        profileCacheKey(userID),
				Value:      value,
				Expiration: profileCacheTTL,
			})
		}
	}

	return profile, nil
}
