package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/internal/infra/database/models"
)

type IncidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func orderedLocations(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// lockActive selects the owner's most recent active incident FOR UPDATE.
func lockActive(tx *gorm.DB, owner string) (*models.Incident, error) {
	var incident models.Incident
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner = ? AND is_active", owner).
		Order("start_time DESC").
		Take(&incident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &incident, nil
}

// OpenOrGet relies on the incidents_owner_active partial index: of two
// concurrent inserts for the same owner one becomes a no-op and re-reads.
func (r *IncidentRepository) OpenOrGet(ctx context.Context, input domain.OpenIncident) (domain.Incident, bool, error) {
	var result models.Incident
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockActive(tx, input.Owner)
		if err != nil {
			return err
		}
		if existing != nil {
			result = *existing
			return nil
		}

		row := models.Incident{
			ID:        uuid.NewString(),
			Owner:     input.Owner,
			Level:     string(input.Level),
			IsActive:  true,
			StartTime: input.StartTime,
		}
		if loc := input.StartLocation; loc != nil {
			row.StartLat = &loc.Lat
			row.StartLng = &loc.Lng
			row.StartAddress = loc.Address
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			existing, err := lockActive(tx, input.Owner)
			if err != nil {
				return err
			}
			if existing == nil {
				return errors.New("active incident vanished during open")
			}
			result = *existing
			return nil
		}

		if input.StartLocation != nil {
			point := models.IncidentLocation{
				IncidentID: row.ID,
				Lat:        input.StartLocation.Lat,
				Lng:        input.StartLocation.Lng,
				Timestamp:  input.StartTime,
			}
			if err := tx.Create(&point).Error; err != nil {
				return err
			}
			row.Locations = []models.IncidentLocation{point}
		}
		result = row
		created = true
		return nil
	})
	if err != nil {
		return domain.Incident{}, false, err
	}

	if !created {
		err = r.db.WithContext(ctx).
			Where("incident_id = ?", result.ID).
			Order("id ASC").
			Find(&result.Locations).Error
		if err != nil {
			return domain.Incident{}, false, err
		}
	}

	return toDomainIncident(result), created, nil
}

func (r *IncidentRepository) Escalate(ctx context.Context, id string, level domain.AlertLevel) (domain.Incident, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Incident{}).
		Where("id = ? AND is_active", id).
		Update("level", string(level))
	if res.Error != nil {
		return domain.Incident{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Incident{}, domain.NotFoundError{Resource: "incident"}
	}
	return r.get(ctx, id)
}

func (r *IncidentRepository) CloseActive(ctx context.Context, owner string, at time.Time) (*domain.Incident, error) {
	var closed *models.Incident

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active, err := lockActive(tx, owner)
		if err != nil || active == nil {
			return err
		}
		err = tx.Model(active).Updates(map[string]any{
			"is_active": false,
			"end_time":  at,
		}).Error
		if err != nil {
			return err
		}
		active.IsActive = false
		active.EndTime = &at
		closed = active
		return nil
	})
	if err != nil {
		return nil, err
	}
	if closed == nil {
		return nil, nil
	}

	incident, err := r.get(ctx, closed.ID)
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// AppendLocationIfActive holds the incident row lock while inserting so a
// concurrent close cannot slip between lookup and append. The returned
// incident carries no history.
func (r *IncidentRepository) AppendLocationIfActive(ctx context.Context, owner string, point domain.LocationPoint) (*domain.Incident, error) {
	var target *models.Incident

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active, err := lockActive(tx, owner)
		if err != nil || active == nil {
			return err
		}
		err = tx.Create(&models.IncidentLocation{
			IncidentID: active.ID,
			Lat:        point.Lat,
			Lng:        point.Lng,
			Timestamp:  point.Timestamp,
		}).Error
		if err != nil {
			return err
		}
		target = active
		return nil
	})
	if err != nil || target == nil {
		return nil, err
	}

	incident := toDomainIncident(*target)
	return &incident, nil
}

func (r *IncidentRepository) GetActive(ctx context.Context, owner string) (domain.Incident, error) {
	var incident models.Incident
	err := r.db.WithContext(ctx).
		Preload("Locations", orderedLocations).
		Where("owner = ? AND is_active", owner).
		Order("start_time DESC").
		Take(&incident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Incident{}, domain.NotFoundError{Resource: "active incident"}
		}
		return domain.Incident{}, err
	}
	return toDomainIncident(incident), nil
}

func (r *IncidentRepository) get(ctx context.Context, id string) (domain.Incident, error) {
	var incident models.Incident
	err := r.db.WithContext(ctx).
		Preload("Locations", orderedLocations).
		Where("id = ?", id).
		Take(&incident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Incident{}, domain.NotFoundError{Resource: "incident"}
		}
		return domain.Incident{}, err
	}
	return toDomainIncident(incident), nil
}

func toDomainIncident(m models.Incident) domain.Incident {
	incident := domain.Incident{
		ID:              m.ID,
		Owner:           m.Owner,
		Level:           domain.AlertLevel(m.Level),
		LocationHistory: make([]domain.LocationPoint, 0, len(m.Locations)),
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		IsActive:        m.IsActive,
	}
	if m.StartLat != nil && m.StartLng != nil {
		incident.StartLocation = &guardiansos.Location{
			Lat:     *m.StartLat,
			Lng:     *m.StartLng,
			Address: m.StartAddress,
		}
	}
	for _, l := range m.Locations {
		incident.LocationHistory = append(incident.LocationHistory, domain.LocationPoint{
			Lat:       l.Lat,
			Lng:       l.Lng,
			Timestamp: l.Timestamp,
		})
	}
	return incident
}
