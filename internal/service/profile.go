package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medinfo/backend/internal/models"
)

var ErrAlreadySaved = errors.New("already saved")

// HealthProfile is the editable slice of a user record.
type HealthProfile struct {
	FullName          string `json:"name"`
	Age               string `json:"age"`
	Weight            string `json:"weight"`
	Height            string `json:"height"`
	Gender            string `json:"gender"`
	Allergies         string `json:"allergies"`
	Medications       string `json:"medications"`
	MedicalConditions string `json:"medical_conditions"`
	Smoker            string `json:"smoker"`
	Alcohol           string `json:"alcohol"`
}

// ProfileService handles the health profile, saved medications, favorites
// and search history for a user.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetUser loads a user by email.
func (s *ProfileService) GetUser(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile writes the health profile fields of the user.
func (s *ProfileService) UpdateProfile(email string, profile *HealthProfile) error {
	updates := map[string]interface{}{
		"full_name":          profile.FullName,
		"age":                profile.Age,
		"weight":             profile.Weight,
		"height":             profile.Height,
		"gender":             profile.Gender,
		"allergies":          profile.Allergies,
		"medications":        profile.Medications,
		"medical_conditions": profile.MedicalConditions,
		"smoker":             profile.Smoker,
		"alcohol":            profile.Alcohol,
	}
	result := s.db.Model(&models.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetAvatarURL stores the user's uploaded profile picture URL.
func (s *ProfileService) SetAvatarURL(email, url string) error {
	return s.db.Model(&models.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Update("avatar_url", url).Error
}

// AddSavedMedication appends to the user's personal medication list. The
// name is free text; duplicates are rejected.
func (s *ProfileService) AddSavedMedication(email, medicationName string) error {
	email = NormalizeEmail(email)
	name := NormalizeName(medicationName)

	var count int64
	if err := s.db.Model(&models.SavedMedication{}).
		Where("user_email = ? AND medication_name = ?", email, name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadySaved
	}

	return s.db.Create(&models.SavedMedication{
		ID:             uuid.New(),
		UserEmail:      email,
		MedicationName: name,
	}).Error
}

// ListSavedMedications returns the user's medication list, newest first.
func (s *ProfileService) ListSavedMedications(email string) ([]models.SavedMedication, error) {
	var saved []models.SavedMedication
	err := s.db.Where("user_email = ?", NormalizeEmail(email)).
		Order("created_at DESC").
		Find(&saved).Error
	return saved, err
}

// AddFavorite marks a medicine as a favorite; adding twice is a no-op.
func (s *ProfileService) AddFavorite(email, medicineName string) error {
	email = NormalizeEmail(email)
	name := NormalizeName(medicineName)

	var count int64
	if err := s.db.Model(&models.Favorite{}).
		Where("user_email = ? AND medicine_name = ?", email, name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return s.db.Create(&models.Favorite{
		ID:           uuid.New(),
		UserEmail:    email,
		MedicineName: name,
	}).Error
}

// RemoveFavorite deletes a favorite; removing a non-favorite is a no-op.
func (s *ProfileService) RemoveFavorite(email, medicineName string) error {
	return s.db.
		Where("user_email = ? AND medicine_name = ?", NormalizeEmail(email), NormalizeName(medicineName)).
		Delete(&models.Favorite{}).Error
}

// ListFavorites returns the user's favorites, newest first.
func (s *ProfileService) ListFavorites(email string) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := s.db.Where("user_email = ?", NormalizeEmail(email)).
		Order("created_at DESC").
		Find(&favorites).Error
	return favorites, err
}

// IsFavorite reports whether the medicine is on the user's favorites.
func (s *ProfileService) IsFavorite(email, medicineName string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Favorite{}).
		Where("user_email = ? AND medicine_name = ?", NormalizeEmail(email), NormalizeName(medicineName)).
		Count(&count).Error
	return count > 0, err
}

// RecordSearch upserts a search-history row: first search inserts, repeats
// bump the counter and timestamp.
func (s *ProfileService) RecordSearch(email, medicineName string) error {
	email = NormalizeEmail(email)
	name := NormalizeName(medicineName)

	var entry models.SearchHistory
	err := s.db.Where("user_email = ? AND medicine_name = ?", email, name).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&models.SearchHistory{
			ID:           uuid.New(),
			UserEmail:    email,
			MedicineName: name,
			SearchCount:  1,
			Timestamp:    time.Now().UTC(),
		}).Error
	}
	if err != nil {
		return err
	}

	return s.db.Model(&entry).Updates(map[string]interface{}{
		"search_count": gorm.Expr("search_count + 1"),
		"timestamp":    time.Now().UTC(),
	}).Error
}

// SearchHistory returns the user's most recent searches.
func (s *ProfileService) SearchHistory(email string, limit int) ([]models.SearchHistory, error) {
	if limit <= 0 {
		limit = 10
	}
	var history []models.SearchHistory
	err := s.db.Where("user_email = ?", NormalizeEmail(email)).
		Order("timestamp DESC").
		Limit(limit).
		Find(&history).Error
	return history, err
}
