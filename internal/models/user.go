package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	FullName     string         `gorm:"size:100;not null" json:"fullname"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`

	// Health profile, free text as entered on the profile page
	Age               string `gorm:"size:10" json:"age"`
	Weight            string `gorm:"size:20" json:"weight"`
	Height            string `gorm:"size:20" json:"height"`
	Gender            string `gorm:"size:20" json:"gender"`
	Allergies         string `gorm:"type:text" json:"allergies"`
	Medications       string `gorm:"type:text" json:"medications"`
	MedicalConditions string `gorm:"type:text" json:"medical_conditions"`
	Smoker            string `gorm:"size:10" json:"smoker"`
	Alcohol           string `gorm:"size:10" json:"alcohol"`

	AvatarURL string `gorm:"size:255" json:"avatar_url"`

	// Pushover recipient key for dose reminders, empty when the user has
	// not opted in.
	PushoverKey string `gorm:"size:50" json:"-"`
}

// SavedMedication is an entry on a user's personal medication list. The name
// is free text and does not have to match a catalog medicine.
type SavedMedication struct {
	ID             uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserEmail      string    `gorm:"size:255;not null;index" json:"user_email"`
	MedicationName string    `gorm:"size:255;not null" json:"medication_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScheduledDose is a medication reminder, swept by the reminder service once
// its scheduled time has passed.
type ScheduledDose struct {
	ID             uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserEmail      string    `gorm:"size:255;not null;index" json:"user_email"`
	MedicationName string    `gorm:"size:255;not null" json:"medication"`
	ScheduledTime  time.Time `gorm:"not null;index" json:"schedule_time"`
	Notified       bool      `gorm:"not null;default:false" json:"notified"`
	CreatedAt      time.Time `json:"created_at"`
}

// SearchHistory records one row per (user, medicine) pair; repeat searches
// bump the counter and the timestamp.
type SearchHistory struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserEmail    string    `gorm:"size:255;not null;index:idx_search_user_medicine,unique" json:"user_email"`
	MedicineName string    `gorm:"size:255;not null;index:idx_search_user_medicine,unique" json:"medicine_name"`
	SearchCount  int       `gorm:"not null;default:1" json:"search_count"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
}
