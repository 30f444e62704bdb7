package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/medischedule/internal/catalog"
)

var now = time.Date(2024, 8, 14, 10, 0, 0, 0, time.UTC)

func newResolver(profs ...catalog.Professional) *Resolver {
	dir := catalog.NewMemoryDirectory(catalog.Data{Professionals: profs})
	return NewResolver(dir, func() time.Time { return now }, nil)
}

func day(offset int, slots ...string) catalog.AvailabilityDay {
	return catalog.AvailabilityDay{Date: catalog.Day(now).AddDate(0, 0, offset), Slots: slots}
}

func TestSlotsFor(t *testing.T) {
	ctx := context.Background()
	r := newResolver(catalog.Professional{
		ID:           "prof1",
		Name:         "Dra. Ana Pérez",
		Availability: []catalog.AvailabilityDay{day(1, "09:30", "09:00")},
	})

	tomorrow := catalog.Day(now).AddDate(0, 0, 1)

	assert.Equal(t, []string{"09:00", "09:30"}, r.SlotsFor(ctx, "prof1", tomorrow.Add(15*time.Hour)))
	assert.Empty(t, r.SlotsFor(ctx, "prof1", tomorrow.AddDate(0, 0, 1)))
	assert.NotNil(t, r.SlotsFor(ctx, "", tomorrow))
	assert.Empty(t, r.SlotsFor(ctx, "", tomorrow))
	assert.Empty(t, r.SlotsFor(ctx, "missing", tomorrow))
}

func TestIsDateBookable(t *testing.T) {
	ctx := context.Background()
	r := newResolver(catalog.Professional{
		ID: "prof1",
		Availability: []catalog.AvailabilityDay{
			day(-3, "09:00"),
			day(-1, "09:00", "10:00"),
			day(0, "17:00"),
			day(1, "09:00"),
			day(2),
		},
	})
	today := catalog.Day(now)

	tests := []struct {
		name   string
		profID string
		offset int
		want   bool
	}{
		{"past day with slots", "prof1", -1, false},
		{"older past day", "prof1", -3, false},
		{"today with slots", "prof1", 0, true},
		{"tomorrow", "prof1", 1, true},
		{"day with empty slots", "prof1", 2, false},
		{"day without entry", "prof1", 5, false},
		{"no professional", "", 1, false},
		{"unknown professional", "prof9", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsDateBookable(ctx, tt.profID, today.AddDate(0, 0, tt.offset)))
		})
	}
}

func TestPastDatesNeverBookable(t *testing.T) {
	ctx := context.Background()
	var days []catalog.AvailabilityDay
	for i := -30; i < 0; i++ {
		days = append(days, day(i, "08:00", "09:00"))
	}
	r := newResolver(catalog.Professional{ID: "prof1", Availability: days})

	for i := -30; i < 0; i++ {
		assert.False(t, r.IsDateBookable(ctx, "prof1", catalog.Day(now).AddDate(0, 0, i)), "offset %d", i)
	}
}

func TestFindNearestAvailableDate(t *testing.T) {
	ctx := context.Background()
	r := newResolver(
		catalog.Professional{
			ID: "prof1",
			Availability: []catalog.AvailabilityDay{
				day(6, "09:00"),
				day(-2, "09:00"),
				day(1),
				day(3, "11:00"),
			},
		},
		catalog.Professional{ID: "empty"},
		catalog.Professional{ID: "past", Availability: []catalog.AvailabilityDay{day(-1, "09:00")}},
	)

	got, ok := r.FindNearestAvailableDate(ctx, "prof1", time.Time{})
	require.True(t, ok)
	assert.Equal(t, catalog.Day(now).AddDate(0, 0, 3), got)

	got, ok = r.FindNearestAvailableDate(ctx, "prof1", catalog.Day(now).AddDate(0, 0, 4))
	require.True(t, ok)
	assert.Equal(t, catalog.Day(now).AddDate(0, 0, 6), got)

	_, ok = r.FindNearestAvailableDate(ctx, "prof1", catalog.Day(now).AddDate(0, 0, 7))
	assert.False(t, ok)

	_, ok = r.FindNearestAvailableDate(ctx, "empty", time.Time{})
	assert.False(t, ok)

	_, ok = r.FindNearestAvailableDate(ctx, "past", time.Time{})
	assert.False(t, ok)

	_, ok = r.FindNearestAvailableDate(ctx, "", time.Time{})
	assert.False(t, ok)
}

func TestNearestDateHasSlotsAndNothingEarlier(t *testing.T) {
	ctx := context.Background()
	dir := catalog.NewMemoryDirectory(catalog.Seed(now))
	r := NewResolver(dir, func() time.Time { return now }, nil)

	profs, err := dir.ListProfessionals(ctx)
	require.NoError(t, err)

	for _, p := range profs {
		got, ok := r.FindNearestAvailableDate(ctx, p.ID, time.Time{})
		if !ok {
			for _, d := range p.Availability {
				if catalog.DayKey(d.Date) >= catalog.DayKey(now) {
					assert.Empty(t, d.Slots, "%s has a future slot but none was found", p.ID)
				}
			}
			continue
		}
		assert.NotEmpty(t, r.SlotsFor(ctx, p.ID, got), p.ID)
		for d := catalog.Day(now); catalog.DayKey(d) < catalog.DayKey(got); d = d.AddDate(0, 0, 1) {
			assert.Empty(t, r.SlotsFor(ctx, p.ID, d), "%s has an earlier open day %s", p.ID, d)
		}
	}
}

func TestMonth(t *testing.T) {
	ctx := context.Background()
	r := newResolver(catalog.Professional{
		ID:           "prof1",
		Availability: []catalog.AvailabilityDay{day(-1, "09:00"), day(1, "10:00")},
	})

	days := r.Month(ctx, "prof1", 2024, time.August)
	require.Len(t, days, 31)

	assert.False(t, days[12].Bookable, "13th is in the past")
	assert.Equal(t, []string{"09:00"}, days[12].Slots)
	assert.True(t, days[14].Bookable, "15th has a slot")
	assert.False(t, days[15].Bookable)
}

func TestHasSlot(t *testing.T) {
	ctx := context.Background()
	r := newResolver(catalog.Professional{ID: "prof1", Availability: []catalog.AvailabilityDay{day(1, "09:00")}})
	tomorrow := catalog.Day(now).AddDate(0, 0, 1)

	assert.True(t, r.HasSlot(ctx, "prof1", tomorrow, "09:00"))
	assert.False(t, r.HasSlot(ctx, "prof1", tomorrow, "09:30"))
}
