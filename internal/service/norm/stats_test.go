package norm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatName(t *testing.T) {
	cases := []struct {
		name   string
		metric Metric
		sel    PeriodSelector
	}{
		{"work_hours_curr_month", MetricWorkHours, PeriodCurrMonth},
		{"norm_hours_curr_month", MetricNormHours, PeriodCurrMonth},
		{"overtime_acc_period", MetricOvertime, PeriodAccPeriod},
		{"overtime_prev_months", MetricOvertime, PeriodPrevMonths},
		{"sawh_hours_acc_period", MetricSawhHours, PeriodAccPeriod},
	}
	for _, c := range cases {
		m, sel, err := ParseStatName(c.name)
		require.NoError(t, err, c.name)
		assert.Equal(t, c.metric, m, c.name)
		assert.Equal(t, c.sel, sel, c.name)
	}
}

func TestParseStatName_Rejects(t *testing.T) {
	for _, name := range []string{
		"",
		"work_hours",
		"bogus_curr_month",
		"work_hours_next_month",
		"curr_month",
	} {
		_, _, err := ParseStatName(name)
		assert.Error(t, err, name)
	}
}
