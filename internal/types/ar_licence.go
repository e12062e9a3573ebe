package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ARLicence is the persisted per-licence abstraction-reform record. The
// action log lives inside LicenceDataValue as JSON; Version backs the
// optimistic-concurrency check on writes.
type ARLicence struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LicenceRef       string         `gorm:"column:licence_ref;not null;uniqueIndex" json:"licence_ref"`
	RegimeID         int            `gorm:"column:licence_regime_id;not null;default:1" json:"licence_regime_id"`
	TypeID           int            `gorm:"column:licence_type_id;not null;default:10" json:"licence_type_id"`
	LicenceDataValue datatypes.JSON `gorm:"column:licence_data_value" json:"licence_data_value"`
	Metadata         datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	Version          int            `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ARLicence) TableName() string { return "ar_licence" }

// BeforeCreate fills the id when the database default is unavailable.
func (a *ARLicence) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
