package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medinfo/backend/internal/middleware"
	"github.com/medinfo/backend/internal/service"
)

// ProfileHandler serves the health profile, saved medications, favorites and
// search history.
type ProfileHandler struct {
	profiles *service.ProfileService
	images   *service.ImageService
}

func NewProfileHandler(profiles *service.ProfileService, images *service.ImageService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, images: images}
}

// Show handles GET /profile_page.
func (h *ProfileHandler) Show(c *gin.Context) {
	email := middleware.UserEmail(c)

	user, err := h.profiles.GetUser(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	saved, err := h.profiles.ListSavedMedications(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load medications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"medications": saved,
	})
}

// Update handles POST /profile_page.
func (h *ProfileHandler) Update(c *gin.Context) {
	var profile service.HealthProfile
	if err := c.ShouldBind(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.profiles.UpdateProfile(middleware.UserEmail(c), &profile); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// UploadPicture handles POST /api/profile/picture.
func (h *ProfileHandler) UploadPicture(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	file, err := c.FormFile("picture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}

	url, err := h.images.UploadProfilePicture(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.SetAvatarURL(middleware.UserEmail(c), url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile picture"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}

// AddMedicine handles POST /api/profile/add-medicine.
func (h *ProfileHandler) AddMedicine(c *gin.Context) {
	var req struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.ShouldBind(&req); err != nil || service.NormalizeName(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Medication name is required"})
		return
	}

	err := h.profiles.AddSavedMedication(middleware.UserEmail(c), req.Name)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySaved) {
			c.JSON(http.StatusConflict, gin.H{"error": "Medication is already on your list"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save medication"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Medication added"})
}

// AddFavorite handles POST /favorites/add.
func (h *ProfileHandler) AddFavorite(c *gin.Context) {
	var req struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.ShouldBind(&req); err != nil || service.NormalizeName(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Medicine name is required"})
		return
	}

	if err := h.profiles.AddFavorite(middleware.UserEmail(c), req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favorite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to favorites"})
}

// RemoveFavorite handles POST /favorites/remove.
func (h *ProfileHandler) RemoveFavorite(c *gin.Context) {
	var req struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.ShouldBind(&req); err != nil || service.NormalizeName(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Medicine name is required"})
		return
	}

	if err := h.profiles.RemoveFavorite(middleware.UserEmail(c), req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites"})
}

// ListFavorites handles GET /api/favorites.
func (h *ProfileHandler) ListFavorites(c *gin.Context) {
	favorites, err := h.profiles.ListFavorites(middleware.UserEmail(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load favorites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}

// SearchHistory handles GET /api/search-history. Guests get an empty list
// rather than an error.
func (h *ProfileHandler) SearchHistory(c *gin.Context) {
	email := middleware.UserEmail(c)
	if email == "" {
		c.JSON(http.StatusOK, gin.H{"history": []struct{}{}})
		return
	}

	history, err := h.profiles.SearchHistory(email, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load search history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
