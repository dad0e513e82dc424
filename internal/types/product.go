package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultCategory = "General"

type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;index;column:name" json:"name"`
	Category  string    `gorm:"column:category" json:"category"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Product) TableName() string {
	return "product"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	return nil
}
