package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/internal/infra/database/models"
)

const connectionActive = "active"

// RecipientRepository reads guardians and emergency contacts. Results are
// never cached: every trigger sees the current relationships.
type RecipientRepository struct {
	db *gorm.DB
}

func NewRecipientRepository(db *gorm.DB) *RecipientRepository {
	return &RecipientRepository{db: db}
}

func (r *RecipientRepository) Recipients(ctx context.Context, owner string) (domain.RecipientSet, error) {
	var guardians []models.User
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.*").
		Joins("JOIN connections ON connections.guardian_id = users.id").
		Where("connections.user_id = ? AND connections.status = ?", owner, connectionActive).
		Order("connections.started_at ASC").
		Find(&guardians).Error
	if err != nil {
		return domain.RecipientSet{}, err
	}

	var contacts []models.EmergencyContact
	err = r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("is_primary DESC, id ASC").
		Find(&contacts).Error
	if err != nil {
		return domain.RecipientSet{}, err
	}

	set := domain.RecipientSet{
		Guardians: make([]domain.Guardian, 0, len(guardians)),
		Contacts:  make([]domain.EmergencyContact, 0, len(contacts)),
	}
	for _, g := range guardians {
		set.Guardians = append(set.Guardians, domain.Guardian{
			UserID: g.ID,
			Name:   g.Name,
			Phone:  g.Phone,
			Email:  g.Email,
		})
	}
	for _, c := range contacts {
		set.Contacts = append(set.Contacts, domain.EmergencyContact{
			Name:  c.Name,
			Phone: c.Phone,
			Email: c.Email,
		})
	}
	return set, nil
}

func (r *RecipientRepository) IsGuardian(ctx context.Context, guardian, owner string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("guardian_id = ? AND user_id = ? AND status = ?", guardian, owner, connectionActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
