package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// swagger:model
type UUIDBase struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id" yaml:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt" yaml:"-"`
}

func (b *UUIDBase) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}

func GenerateUUID() string {
	return uuid.New().String()
}

var contentNamespace = uuid.MustParse("6f1c4a52-8d1e-4c57-9a0b-3e2f5d7c9b41")

// StableID derives a deterministic id from a natural key so repeated imports of
// the same item land on the same row.
func StableID(kind string, parts ...string) string {
	key := kind
	for _, p := range parts {
		key += "\x1f" + p
	}
	return uuid.NewSHA1(contentNamespace, []byte(key)).String()
}
