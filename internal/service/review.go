package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medinfo/backend/internal/models"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	// ErrNotReviewOwner is returned when a user tries to edit or delete
	// someone else's review.
	ErrNotReviewOwner = errors.New("not the review owner")
)

// RatingSummary is the aggregate rating for one medicine.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// ReviewService handles medicine reviews and ratings.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

func validRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}
	return nil
}

// Add creates a review for a medicine.
func (s *ReviewService) Add(email, medicineName string, rating int, text string) (*models.Review, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}

	review := models.Review{
		ID:           uuid.New(),
		UserEmail:    NormalizeEmail(email),
		MedicineName: NormalizeName(medicineName),
		Rating:       rating,
		ReviewText:   text,
	}
	if err := s.db.Create(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Update edits a review. Only the author may edit.
func (s *ReviewService) Update(email string, reviewID uuid.UUID, rating int, text string) (*models.Review, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}

	var review models.Review
	if err := s.db.First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.UserEmail != NormalizeEmail(email) {
		return nil, ErrNotReviewOwner
	}

	review.Rating = rating
	review.ReviewText = text
	if err := s.db.Save(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Delete removes a review. Only the author may delete.
func (s *ReviewService) Delete(email string, reviewID uuid.UUID) error {
	var review models.Review
	if err := s.db.First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if review.UserEmail != NormalizeEmail(email) {
		return ErrNotReviewOwner
	}
	return s.db.Delete(&review).Error
}

// ForMedicine returns all reviews for a medicine, newest first.
func (s *ReviewService) ForMedicine(medicineName string) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Where("medicine_name = ?", NormalizeName(medicineName)).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// ByUser returns all reviews written by a user, newest first.
func (s *ReviewService) ByUser(email string) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Where("user_email = ?", NormalizeEmail(email)).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// Summary computes the average rating and review count for a medicine. A
// medicine without reviews has an average of zero.
func (s *ReviewService) Summary(medicineName string) (*RatingSummary, error) {
	var summary RatingSummary
	err := s.db.Model(&models.Review{}).
		Where("medicine_name = ?", NormalizeName(medicineName)).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
