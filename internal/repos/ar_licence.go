package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/types"
)

type ARLicenceRepo interface {
	GetByRef(ctx context.Context, tx *gorm.DB, licenceRef string) (*types.ARLicence, error)
	Create(ctx context.Context, tx *gorm.DB, record *types.ARLicence) (*types.ARLicence, error)
	UpdateData(ctx context.Context, tx *gorm.DB, id uuid.UUID, data datatypes.JSON, expectedVersion int) error
}

type arLicenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewARLicenceRepo(db *gorm.DB, baseLog *logger.Logger) ARLicenceRepo {
	repoLog := baseLog.With("repo", "ARLicenceRepo")
	return &arLicenceRepo{db: db, log: repoLog}
}

func (r *arLicenceRepo) GetByRef(ctx context.Context, tx *gorm.DB, licenceRef string) (*types.ARLicence, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ARLicence
	err := transaction.WithContext(ctx).
		Where("licence_ref = ?", licenceRef).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ar licence %s: %w", licenceRef, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *arLicenceRepo) Create(ctx context.Context, tx *gorm.DB, record *types.ARLicence) (*types.ARLicence, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateData writes the action log back with an optimistic version check.
// A lost race reports ErrVersionConflict instead of silently overwriting
// the other writer's log.
func (r *arLicenceRepo) UpdateData(ctx context.Context, tx *gorm.DB, id uuid.UUID, data datatypes.JSON, expectedVersion int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.ARLicence{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"licence_data_value": data,
			"version":            expectedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("ar licence %s at version %d: %w", id, expectedVersion, pkgerrors.ErrVersionConflict)
	}
	return nil
}
