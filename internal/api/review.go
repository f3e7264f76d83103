package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medinfo/backend/internal/middleware"
	"github.com/medinfo/backend/internal/service"
)

// ReviewHandler serves medicine reviews.
type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type reviewRequest struct {
	MedicineName string `json:"medicine_name" form:"medicine_name"`
	Rating       int    `json:"rating" form:"rating"`
	ReviewText   string `json:"review_text" form:"review_text"`
}

// Add handles POST /review/add.
func (h *ReviewHandler) Add(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBind(&req); err != nil || service.NormalizeName(req.MedicineName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Medicine name is required"})
		return
	}

	review, err := h.reviews.Add(middleware.UserEmail(c), req.MedicineName, req.Rating, req.ReviewText)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// Update handles POST /review/update/:id. Only the author may edit.
func (h *ReviewHandler) Update(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	var req reviewRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	review, err := h.reviews.Update(middleware.UserEmail(c), reviewID, req.Rating, req.ReviewText)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		case errors.Is(err, service.ErrNotReviewOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own reviews"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

// Delete handles POST /review/delete/:id. Only the author may delete.
func (h *ReviewHandler) Delete(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	if err := h.reviews.Delete(middleware.UserEmail(c), reviewID); err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		case errors.Is(err, service.ErrNotReviewOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own reviews"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete review"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

// ForMedicine handles GET /api/reviews/:name: the reviews plus the rating
// summary.
func (h *ReviewHandler) ForMedicine(c *gin.Context) {
	name := c.Param("name")

	reviews, err := h.reviews.ForMedicine(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reviews"})
		return
	}
	summary, err := h.reviews.Summary(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rating"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"rating":  summary,
	})
}
