package employment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emp(id, shopID string, norm float64, visible bool) Employment {
	return Employment{
		ID:            id,
		ShopID:        shopID,
		NormWorkHours: norm,
		IsVisible:     visible,
		HiredAt:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestResolve_ExactIDWins(t *testing.T) {
	emps := []Employment{emp("e1", "s1", 100, true), emp("e2", "s2", 50, true)}
	id := "e2"
	got := Resolve(emps, &id, "s1", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, got)
	assert.Equal(t, "e2", got.ID)
}

func TestResolve_ExactIDMissing(t *testing.T) {
	emps := []Employment{emp("e1", "s1", 100, true)}
	id := "nope"
	assert.Nil(t, Resolve(emps, &id, "", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
}

func TestResolve_PriorityOrder(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	// Visible beats hidden regardless of shop or rate.
	got := Resolve([]Employment{
		emp("hidden", "s1", 100, false),
		emp("visible", "s2", 50, true),
	}, nil, "s1", date)
	require.NotNil(t, got)
	assert.Equal(t, "visible", got.ID)

	// Same visibility: the requested shop wins.
	got = Resolve([]Employment{
		emp("other", "s2", 100, true),
		emp("same", "s1", 50, true),
	}, nil, "s1", date)
	require.NotNil(t, got)
	assert.Equal(t, "same", got.ID)

	// Same visibility and shop: the higher rate wins.
	got = Resolve([]Employment{
		emp("low", "s1", 50, true),
		emp("high", "s1", 100, true),
	}, nil, "s1", date)
	require.NotNil(t, got)
	assert.Equal(t, "high", got.ID)

	// Full tie: lowest id, deterministically.
	got = Resolve([]Employment{
		emp("b", "s1", 100, true),
		emp("a", "s1", 100, true),
	}, nil, "s1", date)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)
}

func TestResolve_FiltersInactive(t *testing.T) {
	fired := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	old := emp("old", "s1", 100, true)
	old.FiredAt = &fired

	future := emp("future", "s1", 100, true)
	future.HiredAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	got := Resolve([]Employment{old, future}, nil, "s1",
		time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))
	assert.Nil(t, got)
}

func TestActiveOn(t *testing.T) {
	fired := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	e := emp("e1", "s1", 100, true)
	e.HiredAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	e.FiredAt = &fired

	assert.False(t, e.ActiveOn(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)))
	assert.True(t, e.ActiveOn(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, e.ActiveOn(time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, e.ActiveOn(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
}
