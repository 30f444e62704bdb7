package appointment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(clock)

	created, err := repo.Create(ctx, Appointment{PatientID: "pat1", ProfessionalID: "prof1", Status: StatusPendingApproval})
	require.NoError(t, err)
	assert.Equal(t, now, created.CreatedAt)

	_, err = repo.UpdateStatus(ctx, created.ID, StatusScheduled, StatusCompleted)
	assert.ErrorIs(t, err, ErrAppointmentNotFound, "stale from status must not apply")

	updated, err := repo.UpdateStatus(ctx, created.ID, StatusPendingApproval, StatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, updated.Status)

	_, err = repo.UpdateDateTime(ctx, uuid.New(), now)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestMemoryRepositoryListRange(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(clock)
	require.NoError(t, Load(ctx, repo, Seed(now)))

	got, err := repo.List(ctx, Query{From: now, To: now.AddDate(0, 0, 3)})
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	// insertion order; the +3 day appointment falls on the exclusive bound
	assert.Equal(t, []uuid.UUID{seedID(1), seedID(4)}, ids)

	got, err = repo.List(ctx, Query{ProfessionalID: "prof2", Status: StatusCancelled})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pat5", got[0].PatientID)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(clock)
	created, err := repo.Create(ctx, Appointment{PatientID: "pat1", Status: StatusScheduled})
	require.NoError(t, err)

	created.Status = StatusCancelled
	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, stored.Status)
}

func TestSeedIDsAreStable(t *testing.T) {
	a := Seed(now)
	b := Seed(now.AddDate(0, 1, 0))
	require.Len(t, a, 8)
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
	}
}

func TestSeedLinksOnlyOnVirtualAppointments(t *testing.T) {
	for _, a := range Seed(now) {
		if a.Type == TypeVirtual {
			assert.NotEmpty(t, a.VideoCallLink, "appointment %s", a.ID)
			continue
		}
		assert.Empty(t, a.VideoCallLink, "appointment %s", a.ID)
		assert.NotEmpty(t, a.Location, "appointment %s", a.ID)
	}
}
