package orm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is the default base for persisted records.
type Model struct {
	ID        uint           `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty"`
}

// ModelUUID is the UUID-keyed variant; ids are assigned on create when the
// caller left them blank.
type ModelUUID struct {
	ID        uuid.UUID      `gorm:"type:uuid;" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty"`
}

func (base *ModelUUID) BeforeCreate(tx *gorm.DB) error {
	if base.ID == uuid.Nil {
		id, err := uuid.NewUUID()
		if err != nil {
			return err
		}
		base.ID = id
	}
	return nil
}
