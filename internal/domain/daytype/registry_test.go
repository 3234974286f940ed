package daytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()

	w, ok := r.Get(Workday)
	require.True(t, ok)
	assert.True(t, w.IsTimeRanged)
	assert.True(t, w.UseWorkTypes)
	assert.False(t, w.IsDayoff)

	v, ok := r.Get(Vacation)
	require.True(t, ok)
	assert.True(t, v.IsDayoff)
	assert.True(t, v.IsReducingNormHours)

	bt, ok := r.Get(BusinessTrip)
	require.True(t, ok)
	assert.True(t, bt.IsDayoff)
	assert.True(t, bt.IsWorkHours)

	a, ok := r.Get(Absence)
	require.True(t, ok)
	assert.True(t, a.IsDayoff)
	assert.False(t, a.IsReducingNormHours)

	_, ok = r.Get("XX")
	assert.False(t, ok)
}

func TestRegistry_RegisterCustomType(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(DayType{
		Code: "SD", Name: "San day", IsDayoff: true, IsReducingNormHours: true,
	}))
	dt, ok := r.Get("SD")
	require.True(t, ok)
	assert.True(t, dt.IsReducingNormHours)
	assert.Contains(t, r.Codes(), "SD")
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(DayType{}), "code is required")
	assert.Error(t, r.Register(DayType{
		Code: "X1", UseWorkTypes: true, IsReducingNormHours: true,
	}), "work types cannot coexist with norm reduction")
	assert.Error(t, r.Register(DayType{
		Code: "X2", IsWorkHours: true,
	}), "is_work_hours needs a dayoff type")
}

func TestAllowsAdditional(t *testing.T) {
	dt := DayType{Code: Workday, AllowedAdditionalTypes: []string{BusinessTrip}}
	assert.True(t, dt.AllowsAdditional(BusinessTrip))
	assert.False(t, dt.AllowsAdditional(Vacation))
	assert.False(t, DayType{Code: Workday}.AllowsAdditional(BusinessTrip))
}
