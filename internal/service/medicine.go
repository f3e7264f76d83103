package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medinfo/backend/internal/models"
)

// JobStatus is the generation state for one normalized medicine name.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// LookupState tells the caller what to render.
type LookupState int

const (
	// LookupFound means the catalog has the record.
	LookupFound LookupState = iota
	// LookupPending means generation is in flight; retry after a short delay.
	LookupPending
	// LookupFailed means the last generation attempt failed; the record will
	// not appear without intervention.
	LookupFailed
)

// LookupResult is the outcome of a catalog lookup.
type LookupResult struct {
	State    LookupState
	Medicine *models.Medicine
}

// GenerateFunc produces structured content for an unknown medicine.
type GenerateFunc func(ctx context.Context, name string) (*MedicineInfo, error)

// MedicineService answers catalog lookups and owns the generation job
// tracker. The tracker is process memory only: a restart drops it, unknown
// names simply regenerate on their next lookup.
type MedicineService struct {
	db       *gorm.DB
	generate GenerateFunc
	timeout  time.Duration

	mu   sync.Mutex
	jobs map[string]JobStatus
}

// NewMedicineService creates a MedicineService. generate may be nil, in which
// case cache misses report failure immediately (no generation backend).
func NewMedicineService(db *gorm.DB, generate GenerateFunc, timeout time.Duration) *MedicineService {
	return &MedicineService{
		db:       db,
		generate: generate,
		timeout:  timeout,
		jobs:     make(map[string]JobStatus),
	}
}

// NormalizeName maps free text to the catalog key: lowercase, trimmed,
// hyphens become spaces.
func NormalizeName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

// Slug maps a normalized name back to its URL form (spaces become hyphens).
func Slug(name string) string {
	return strings.ReplaceAll(NormalizeName(name), " ", "-")
}

// titleCase capitalizes the first letter of each word for display names.
func titleCase(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Get returns the catalog record for a normalized name without touching the
// job tracker. Used by the read-only API.
func (s *MedicineService) Get(rawName string) (*models.Medicine, error) {
	name := NormalizeName(rawName)
	var medicine models.Medicine
	if err := s.db.Where("name = ?", name).First(&medicine).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &medicine, nil
}

// Lookup resolves a medicine by name. On a catalog hit it returns the record.
// On a miss it consults the job tracker: the first lookup for an unknown name
// atomically moves it to pending and dispatches exactly one background
// generation task; later lookups while pending return the interim state
// without dispatching again. A failed job stays failed until restart.
func (s *MedicineService) Lookup(rawName string) (*LookupResult, error) {
	name := NormalizeName(rawName)
	if name == "" {
		return nil, errors.New("medicine name is required")
	}

	medicine, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if medicine != nil {
		return &LookupResult{State: LookupFound, Medicine: medicine}, nil
	}

	return s.resolveMiss(name)
}

// resolveMiss handles a lookup whose store read came back empty. name must
// already be normalized.
func (s *MedicineService) resolveMiss(name string) (*LookupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.jobs[name] {
	case JobPending:
		return &LookupResult{State: LookupPending}, nil
	case JobFailed:
		return &LookupResult{State: LookupFailed}, nil
	case JobCompleted:
		// The caller's store read may have raced the job's write: re-check
		// before concluding the record is gone.
		medicine, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		if medicine != nil {
			return &LookupResult{State: LookupFound, Medicine: medicine}, nil
		}
		// Completed but genuinely absent: the record vanished (e.g. an
		// administrative delete). Treat as absent and regenerate.
	}

	s.jobs[name] = JobPending
	go s.runGenerationJob(name)

	return &LookupResult{State: LookupPending}, nil
}

// Status reports the tracker state for a normalized name; ok is false when
// the tracker has no entry.
func (s *MedicineService) Status(rawName string) (JobStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.jobs[NormalizeName(rawName)]
	return status, ok
}

func (s *MedicineService) setStatus(name string, status JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = status
}

// runGenerationJob is the background task behind a cache miss. It owns its
// own deadline and never propagates errors beyond the tracker.
func (s *MedicineService) runGenerationJob(name string) {
	if s.generate == nil {
		log.Printf("[medicine] no generation backend configured, marking %q failed", name)
		s.setStatus(name, JobFailed)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	info, err := s.generate(ctx, name)
	if err != nil {
		log.Printf("[medicine] generation failed for %q: %v", name, err)
		s.setStatus(name, JobFailed)
		return
	}
	if err := info.Validate(); err != nil {
		log.Printf("[medicine] rejecting generated content for %q: %v", name, err)
		s.setStatus(name, JobFailed)
		return
	}

	if err := s.storeGenerated(name, info); err != nil {
		log.Printf("[medicine] failed to store generated record for %q: %v", name, err)
		s.setStatus(name, JobFailed)
		return
	}

	s.setStatus(name, JobCompleted)
	log.Printf("[medicine] generated catalog entry for %q", name)
}

// storeGenerated persists the generated record. First writer wins: if a
// record already exists for the name (e.g. an administrative insert raced
// the job), the generated content is discarded.
func (s *MedicineService) storeGenerated(name string, info *MedicineInfo) error {
	displayName := strings.TrimSpace(info.Name)
	if displayName == "" {
		displayName = titleCase(name)
	}

	medicine := models.Medicine{
		ID:          uuid.New(),
		Name:        name,
		DisplayName: displayName,
		Description: info.Description,
		Advice:      info.Advice,
		Warning:     info.Warning,
		PubMedLink:  info.PubMedLink,
		Source:      models.MedicineSourceGenerated,
	}

	return s.db.Where(models.Medicine{Name: name}).
		Attrs(medicine).
		FirstOrCreate(&models.Medicine{}).Error
}

// Insert adds a medicine directly (seeding, administrative use). The name is
// normalized before writing; inserting an existing name is an error.
func (s *MedicineService) Insert(medicine *models.Medicine) error {
	medicine.Name = NormalizeName(medicine.Name)
	if medicine.ID == uuid.Nil {
		medicine.ID = uuid.New()
	}
	if medicine.DisplayName == "" {
		medicine.DisplayName = titleCase(medicine.Name)
	}
	return s.db.Create(medicine).Error
}
