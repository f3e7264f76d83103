package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Medicine source values
const (
	MedicineSourceSeed      = "seed"
	MedicineSourceGenerated = "generated"
)

// Medicine is a catalog entry. Name is the normalized lookup key (lowercase,
// trimmed, spaces not hyphens); DisplayName keeps the original casing.
type Medicine struct {
	ID          uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"size:255;not null;uniqueIndex" json:"-"`
	DisplayName string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Advice      string         `gorm:"type:text" json:"advice"`
	Warning     string         `gorm:"type:text" json:"warning"`
	PubMedLink  string         `gorm:"size:255" json:"pubmed_link"`
	Source      string         `gorm:"size:20;not null;default:'seed'" json:"source"`
}

type Favorite struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserEmail    string    `gorm:"size:255;not null;index:idx_favorite_user_medicine,unique" json:"user_email"`
	MedicineName string    `gorm:"size:255;not null;index:idx_favorite_user_medicine,unique" json:"medicine_name"`
	CreatedAt    time.Time `json:"added_at"`
}

func (Favorite) TableName() string {
	return "user_favorites"
}

type Review struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserEmail    string    `gorm:"size:255;not null;index" json:"user_email"`
	MedicineName string    `gorm:"size:255;not null;index" json:"medicine_name"`
	Rating       int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	ReviewText   string    `gorm:"type:text" json:"review_text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "user_reviews"
}

// AllModels lists every persisted entity for migrations.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Medicine{},
		&SavedMedication{},
		&ScheduledDose{},
		&SearchHistory{},
		&Favorite{},
		&Review{},
	}
}
