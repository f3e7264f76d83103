package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinfo/backend/internal/models"
	"github.com/medinfo/backend/internal/service"
	"github.com/medinfo/backend/internal/testhelpers"
)

func validInfo(name string) *service.MedicineInfo {
	return &service.MedicineInfo{
		Name:        name,
		Description: "A test medicine.",
		Advice:      "• Take with water",
		Warning:     "• Do not exceed the dose",
		PubMedLink:  "https://pubmed.ncbi.nlm.nih.gov/?term=" + name,
	}
}

// waitForStatus polls the tracker until the name reaches the wanted status.
func waitForStatus(t *testing.T, svc *service.MedicineService, name string, want service.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if status, ok := svc.Status(name); ok && status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	status, ok := svc.Status(name)
	t.Fatalf("timed out waiting for %q to reach %q (have %q, tracked=%v)", name, want, status, ok)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "aspirin", service.NormalizeName("  Aspirin  "))
	assert.Equal(t, "co codamol", service.NormalizeName("Co-Codamol"))
	assert.Equal(t, "vitamin d", service.NormalizeName("Vitamin   D"))
	assert.Equal(t, "", service.NormalizeName("   "))

	// Normalization is idempotent.
	for _, raw := range []string{"Aspirin", "co-codamol", "  VITAMIN d "} {
		once := service.NormalizeName(raw)
		assert.Equal(t, once, service.NormalizeName(once))
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "co-codamol", service.Slug("Co Codamol"))
	assert.Equal(t, "aspirin", service.Slug("  Aspirin "))
}

func TestLookupHitSkipsTracker(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMedicineService(db, func(ctx context.Context, name string) (*service.MedicineInfo, error) {
		t.Fatal("generate must not be called on a catalog hit")
		return nil, nil
	}, time.Second)

	require.NoError(t, svc.Insert(&models.Medicine{
		Name:        "Aspirin",
		Description: "Seeded.",
		Source:      models.MedicineSourceSeed,
	}))

	result, err := svc.Lookup("  ASPIRIN ")
	require.NoError(t, err)
	assert.Equal(t, service.LookupFound, result.State)
	require.NotNil(t, result.Medicine)
	assert.Equal(t, "aspirin", result.Medicine.Name)

	_, tracked := svc.Status("aspirin")
	assert.False(t, tracked)
}

func TestLookupMissDispatchesExactlyOneJob(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)

	var calls int32
	release := make(chan struct{})
	svc := service.NewMedicineService(db, func(ctx context.Context, name string) (*service.MedicineInfo, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return validInfo(name), nil
	}, 5*time.Second)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Lookup("quinapril")
			assert.NoError(t, err)
			assert.Equal(t, service.LookupPending, result.State)
		}()
	}
	wg.Wait()

	close(release)
	waitForStatus(t, svc, "quinapril", service.JobCompleted)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	result, err := svc.Lookup("quinapril")
	require.NoError(t, err)
	assert.Equal(t, service.LookupFound, result.State)
	assert.Equal(t, models.MedicineSourceGenerated, result.Medicine.Source)
}

func TestLookupFailureSticksUntilRestart(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)

	var calls int32
	svc := service.NewMedicineService(db, func(ctx context.Context, name string) (*service.MedicineInfo, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("model unavailable")
	}, time.Second)

	result, err := svc.Lookup("obscuritol")
	require.NoError(t, err)
	assert.Equal(t, service.LookupPending, result.State)

	waitForStatus(t, svc, "obscuritol", service.JobFailed)

	// Later lookups report the failure without redispatching.
	for i := 0; i < 3; i++ {
		result, err = svc.Lookup("obscuritol")
		require.NoError(t, err)
		assert.Equal(t, service.LookupFailed, result.State)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// A fresh service (as after a restart) tries again.
	svc2 := service.NewMedicineService(db, func(ctx context.Context, name string) (*service.MedicineInfo, error) {
		return validInfo(name), nil
	}, time.Second)
	result, err = svc2.Lookup("obscuritol")
	require.NoError(t, err)
	assert.Equal(t, service.LookupPending, result.State)
	waitForStatus(t, svc2, "obscuritol", service.JobCompleted)
}

func TestLookupRejectsIncompleteGeneratedContent(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)

	svc := service.NewMedicineService(db, func(ctx context.Context, name string) (*service.MedicineInfo, error) {
		info := validInfo(name)
		info.Warning = "" // missing required field
		return info, nil
	}, time.Second)

	result, err := svc.Lookup("placebozil")
	require.NoError(t, err)
	assert.Equal(t, service.LookupPending, result.State)

	waitForStatus(t, svc, "placebozil", service.JobFailed)

	medicine, err := svc.Get("placebozil")
	require.NoError(t, err)
	assert.Nil(t, medicine)
}

func TestLookupWithoutBackendFails(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMedicineService(db, nil, time.Second)

	result, err := svc.Lookup("anything")
	require.NoError(t, err)
	assert.Equal(t, service.LookupPending, result.State)

	waitForStatus(t, svc, "anything", service.JobFailed)
}

func TestLookupEmptyNameRejected(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMedicineService(db, nil, time.Second)

	_, err := svc.Lookup("   ")
	assert.Error(t, err)
}

func TestStoreGeneratedFirstWriterWins(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)

	release := make(chan struct{})
	svc := service.NewMedicineService(db, func(ctx context.Context, name string) (*service.MedicineInfo, error) {
		<-release
		info := validInfo(name)
		info.Description = "Generated description."
		return info, nil
	}, 5*time.Second)

	result, err := svc.Lookup("racemol")
	require.NoError(t, err)
	assert.Equal(t, service.LookupPending, result.State)

	// An administrative insert lands while the job is in flight.
	require.NoError(t, svc.Insert(&models.Medicine{
		Name:        "racemol",
		Description: "Curated description.",
		Source:      models.MedicineSourceSeed,
	}))

	close(release)
	waitForStatus(t, svc, "racemol", service.JobCompleted)

	medicine, err := svc.Get("racemol")
	require.NoError(t, err)
	require.NotNil(t, medicine)
	assert.Equal(t, "Curated description.", medicine.Description)
	assert.Equal(t, models.MedicineSourceSeed, medicine.Source)
}

func TestInsertDuplicateFails(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMedicineService(db, nil, time.Second)

	require.NoError(t, svc.Insert(&models.Medicine{Name: "Aspirin", Description: "First."}))
	err := svc.Insert(&models.Medicine{Name: "aspirin", Description: "Second."})
	assert.Error(t, err)
}

func TestGetNotFoundReturnsNil(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMedicineService(db, nil, time.Second)

	medicine, err := svc.Get("unknown")
	require.NoError(t, err)
	assert.Nil(t, medicine)
}
