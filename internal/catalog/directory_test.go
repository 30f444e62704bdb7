package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 8, 14, 10, 0, 0, 0, time.UTC)

func seededDirectory() *MemoryDirectory {
	return NewMemoryDirectory(Seed(fixedNow))
}

func TestMemoryDirectoryLookups(t *testing.T) {
	ctx := context.Background()
	dir := seededDirectory()

	p, err := dir.GetPatient(ctx, "pat1")
	require.NoError(t, err)
	assert.Equal(t, "Carlos Ruiz", p.Name)

	prof, err := dir.GetProfessional(ctx, "prof2")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Juan Torres", prof.Name)
	assert.True(t, prof.Offers("spec4"))
	assert.False(t, prof.Offers("spec1"))

	s, err := dir.GetSpecialty(ctx, "spec3")
	require.NoError(t, err)
	assert.Equal(t, "Neurología", s.Name)
}

func TestMemoryDirectoryNotFound(t *testing.T) {
	ctx := context.Background()
	dir := seededDirectory()

	_, err := dir.GetPatient(ctx, "nobody")
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = dir.GetProfessional(ctx, "nobody")
	assert.ErrorIs(t, err, ErrProfessionalNotFound)

	_, err = dir.GetSpecialty(ctx, "nothing")
	assert.ErrorIs(t, err, ErrSpecialtyNotFound)
}

func TestMemoryDirectoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	dir := seededDirectory()

	prof, err := dir.GetProfessional(ctx, "prof1")
	require.NoError(t, err)
	prof.Availability[0].Slots[0] = "23:59"
	prof.SpecialtyIDs[0] = "spec9"

	again, err := dir.GetProfessional(ctx, "prof1")
	require.NoError(t, err)
	assert.Equal(t, "09:00", again.Availability[0].Slots[0])
	assert.Equal(t, []string{"spec1"}, again.SpecialtyIDs)
}

func TestPutReplacesExisting(t *testing.T) {
	ctx := context.Background()
	dir := seededDirectory()

	dir.PutSpecialty(Specialty{ID: "spec5", Name: "Dermatology"})
	all, err := dir.ListSpecialties(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "Dermatology", all[4].Name)
}

func TestListSpecialtiesFor(t *testing.T) {
	ctx := context.Background()
	dir := seededDirectory()

	t.Run("no professional returns the whole catalog", func(t *testing.T) {
		specs, err := ListSpecialtiesFor(ctx, dir, "")
		require.NoError(t, err)
		assert.Len(t, specs, 5)
	})

	t.Run("filters by professional in catalog order", func(t *testing.T) {
		specs, err := ListSpecialtiesFor(ctx, dir, "prof2")
		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "spec2", specs[0].ID)
		assert.Equal(t, "spec4", specs[1].ID)
	})

	t.Run("unknown professional", func(t *testing.T) {
		_, err := ListSpecialtiesFor(ctx, dir, "prof99")
		assert.ErrorIs(t, err, ErrProfessionalNotFound)
	})
}

func TestSeedAvailabilityIsRelativeToNow(t *testing.T) {
	data := Seed(fixedNow)
	var ana Professional
	for _, p := range data.Professionals {
		if p.Name == "Dra. Ana Pérez" {
			ana = p
		}
	}
	require.NotEmpty(t, ana.ID)

	tomorrow := Day(fixedNow).AddDate(0, 0, 1)
	var found bool
	for _, d := range ana.Availability {
		if SameDay(d.Date, tomorrow) {
			found = true
			assert.Equal(t, []string{"09:00", "09:30"}, d.Slots)
		}
	}
	assert.True(t, found, "expected availability tomorrow")
}

func TestDayHelpers(t *testing.T) {
	a := time.Date(2024, 8, 15, 23, 30, 0, 0, time.UTC)
	b := time.Date(2024, 8, 15, 0, 0, 0, 0, time.FixedZone("x", 3600))

	assert.True(t, SameDay(a, b))
	assert.Equal(t, DayKey(a), DayKey(b))
	assert.Less(t, DayKey(a), DayKey(a.AddDate(0, 0, 1)))
	assert.Equal(t, time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), Day(a))

	d, err := ParseDate("2024-08-15", time.UTC)
	require.NoError(t, err)
	assert.True(t, SameDay(a, d))
}
