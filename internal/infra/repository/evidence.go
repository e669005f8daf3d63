package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/internal/infra/database/models"
)

type EvidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

func (r *EvidenceRepository) Create(ctx context.Context, evidence domain.Evidence) (domain.Evidence, error) {
	row := models.Evidence{
		ID:         evidence.ID,
		Owner:      evidence.Owner,
		MediaKind:  string(evidence.MediaKind),
		FilePath:   evidence.StoragePath,
		FileName:   evidence.FileName,
		DeviceID:   evidence.DeviceID,
		BatchID:    evidence.BatchID,
		CapturedAt: evidence.CapturedAt,
	}
	if loc := evidence.Location; loc != nil {
		row.Lat = &loc.Lat
		row.Lng = &loc.Lng
		row.Address = loc.Address
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Evidence{}, err
	}
	return toDomainEvidence(row), nil
}

// ListByOwner returns the owner's evidence, newest first.
func (r *EvidenceRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Evidence, error) {
	var rows []models.Evidence
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("captured_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]domain.Evidence, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainEvidence(row))
	}
	return result, nil
}

func toDomainEvidence(m models.Evidence) domain.Evidence {
	evidence := domain.Evidence{
		ID:          m.ID,
		Owner:       m.Owner,
		MediaKind:   domain.MediaKind(m.MediaKind),
		StoragePath: m.FilePath,
		FileName:    m.FileName,
		CapturedAt:  m.CapturedAt,
		DeviceID:    m.DeviceID,
		BatchID:     m.BatchID,
	}
	if m.Lat != nil && m.Lng != nil {
		evidence.Location = &guardiansos.Location{Lat: *m.Lat, Lng: *m.Lng, Address: m.Address}
	}
	return evidence
}
