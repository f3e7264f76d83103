package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medinfo/backend/internal/middleware"
	"github.com/medinfo/backend/internal/service"
)

// MedicineHandler serves catalog lookups and search.
type MedicineHandler struct {
	medicines *service.MedicineService
	profiles  *service.ProfileService
	reviews   *service.ReviewService
}

func NewMedicineHandler(medicines *service.MedicineService, profiles *service.ProfileService, reviews *service.ReviewService) *MedicineHandler {
	return &MedicineHandler{medicines: medicines, profiles: profiles, reviews: reviews}
}

// Lookup handles GET /medicine/:name. A catalog hit returns the record; a
// miss returns the generation state (pending dispatches at most one
// background job per name). Authenticated lookups also record search history.
func (h *MedicineHandler) Lookup(c *gin.Context) {
	name := c.Param("name")

	result, err := h.medicines.Lookup(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if email := middleware.UserEmail(c); email != "" {
		if err := h.profiles.RecordSearch(email, name); err != nil {
			// History is a side effect; the lookup still succeeds.
			log.Printf("[medicine] failed to record search for %s: %v", email, err)
		}
	}

	switch result.State {
	case service.LookupFound:
		summary, err := h.reviews.Summary(name)
		if err != nil {
			log.Printf("[medicine] failed to load rating summary for %q: %v", name, err)
			summary = &service.RatingSummary{}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "found",
			"medicine": result.Medicine,
			"rating":   summary,
		})
	case service.LookupPending:
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "pending",
			"name":    service.NormalizeName(name),
			"message": "We're generating information about this medicine. Check back in a moment.",
		})
	case service.LookupFailed:
		c.JSON(http.StatusOK, gin.H{
			"status":  "failed",
			"name":    service.NormalizeName(name),
			"message": "We couldn't generate information about this medicine.",
		})
	}
}

// Get handles GET /api/medicine/:name: read-only, 404 on a miss, never
// dispatches generation.
func (h *MedicineHandler) Get(c *gin.Context) {
	medicine, err := h.medicines.Get(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load medicine"})
		return
	}
	if medicine == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Medicine not found"})
		return
	}
	c.JSON(http.StatusOK, medicine)
}

// Search handles POST /search: normalize the query and redirect to the
// medicine page, which performs the actual lookup.
func (h *MedicineHandler) Search(c *gin.Context) {
	var req struct {
		Query string `json:"query" form:"query"`
	}
	if err := c.ShouldBind(&req); err != nil || service.NormalizeName(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a medicine name"})
		return
	}

	c.Redirect(http.StatusSeeOther, "/medicine/"+service.Slug(req.Query))
}
