package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinfo/backend/internal/models"
	"github.com/medinfo/backend/internal/testhelpers"
)

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Aspirin", titleCase("aspirin"))
	assert.Equal(t, "Co Codamol", titleCase("co codamol"))

	// Multibyte first runes must be uppercased as runes, not bytes.
	assert.Equal(t, "Échinacée", titleCase("échinacée"))
	assert.True(t, utf8.ValidString(titleCase("échinacée")))
	assert.Equal(t, "Árnica Montana", titleCase("árnica montana"))
}

func TestResolveMissRechecksStoreWhenCompleted(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)

	var calls int32
	svc := NewMedicineService(db, func(ctx context.Context, name string) (*MedicineInfo, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("generation backend should not be reached")
	}, time.Second)

	// The record exists and the job finished, but the caller's store read
	// happened before the job's write landed.
	require.NoError(t, svc.Insert(&models.Medicine{
		Name:        "quinapril",
		Description: "A blood pressure medicine.",
	}))
	svc.setStatus("quinapril", JobCompleted)

	result, err := svc.resolveMiss("quinapril")
	require.NoError(t, err)
	assert.Equal(t, LookupFound, result.State)
	require.NotNil(t, result.Medicine)
	assert.Equal(t, "quinapril", result.Medicine.Name)

	// No redispatch, and the tracker entry is untouched.
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	status, ok := svc.Status("quinapril")
	assert.True(t, ok)
	assert.Equal(t, JobCompleted, status)
}

func TestResolveMissCompletedButAbsentRedispatches(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)

	var calls int32
	svc := NewMedicineService(db, func(ctx context.Context, name string) (*MedicineInfo, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("unavailable")
	}, time.Second)

	// Completed in the tracker but the record is genuinely gone (e.g. an
	// administrative delete): regenerate.
	svc.setStatus("ghostol", JobCompleted)

	result, err := svc.resolveMiss("ghostol")
	require.NoError(t, err)
	assert.Equal(t, LookupPending, result.State)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if status, ok := svc.Status("ghostol"); ok && status == JobFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
