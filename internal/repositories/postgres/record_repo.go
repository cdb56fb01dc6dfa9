package postgres

import (
	"context"
	"errors"

	"github.com/legalclear/legalclear/internal/models"
	"github.com/legalclear/legalclear/internal/utils"
	"gorm.io/gorm"
)

type SavedRecordRepo interface {
	Insert(ctx context.Context, rec *models.SavedRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.SavedRecord, error)
	GetBySerial(ctx context.Context, userID string, serial int64) (*models.SavedRecord, error)
	Delete(ctx context.Context, userID string, serial int64) error
}

type savedRecordRepo struct {
	db *gorm.DB
}

func NewSavedRecordRepo(db *gorm.DB) SavedRecordRepo {
	return &savedRecordRepo{db: db}
}

func (r *savedRecordRepo) Insert(ctx context.Context, rec *models.SavedRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *savedRecordRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.SavedRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.SavedRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *savedRecordRepo) GetBySerial(ctx context.Context, userID string, serial int64) (*models.SavedRecord, error) {
	var row models.SavedRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND serial = ?", userID, serial).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *savedRecordRepo) Delete(ctx context.Context, userID string, serial int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND serial = ?", userID, serial).
		Delete(&models.SavedRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
