package workerday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftlab/wfm-backend-go/internal/pkg/validator"
)

func strPtr(s string) *string { return &s }

func TestUpsertRequestValidate_ParsesDates(t *testing.T) {
	req := UpsertRequest{
		EmployeeID: strPtr("emp-1"),
		Dt:         "2024-05-10",
		Type:       "W",
		WorkStart:  strPtr("2024-05-10T09:00:00"),
		WorkEnd:    strPtr("2024-05-10T18:00:00"),
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), req.Date)
	require.NotNil(t, req.StartTime)
	require.NotNil(t, req.EndTime)
	assert.Equal(t, 9, req.StartTime.Hour())
	assert.Equal(t, 18, req.EndTime.Hour())
}

func TestUpsertRequestValidate_Required(t *testing.T) {
	req := UpsertRequest{}
	err := req.Validate()
	require.Error(t, err)

	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	fields := verrs.ToMap()
	assert.Contains(t, fields, "dt")
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "employee_id")
}

func TestUpsertRequestValidate_VacancyNeedsNoEmployee(t *testing.T) {
	req := UpsertRequest{Dt: "2024-05-10", Type: "W", IsVacancy: true}
	assert.NoError(t, req.Validate())
}

func TestUpsertRequestValidate_OutsourceNeedsPartners(t *testing.T) {
	req := UpsertRequest{Dt: "2024-05-10", Type: "W", IsVacancy: true, IsOutsource: true}
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outsources")

	req.Outsources = []string{"net-2"}
	assert.NoError(t, req.Validate())
}

func TestUpsertRequestValidate_IDMustBeUUID(t *testing.T) {
	req := UpsertRequest{
		ID:         strPtr("not-a-uuid"),
		EmployeeID: strPtr("emp-1"),
		Dt:         "2024-05-10",
		Type:       "W",
	}
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id must be a UUID")

	req.ID = strPtr("0b0d5b1e-9a3f-4c76-8f3a-2d1f5c9e7a10")
	assert.NoError(t, req.Validate())
}

func TestConfirmVacancyRequestValidate(t *testing.T) {
	req := ConfirmVacancyRequest{VacancyID: "0b0d5b1e-9a3f-4c76-8f3a-2d1f5c9e7a10", EmployeeID: "e1"}
	assert.NoError(t, req.Validate())

	bad := ConfirmVacancyRequest{VacancyID: "vac-1", EmployeeID: "e1"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vacancy_id must be a UUID")

	assert.Error(t, (&ConfirmVacancyRequest{}).Validate())
}

func TestUpsertRequestValidate_BadDatetime(t *testing.T) {
	req := UpsertRequest{
		EmployeeID: strPtr("emp-1"),
		Dt:         "2024-05-10",
		Type:       "W",
		WorkStart:  strPtr("10:00"),
	}
	assert.Error(t, req.Validate())
}

func TestApproveRequestValidate(t *testing.T) {
	req := ApproveRequest{ShopID: "s1", DtFrom: "2024-05-01", DtTo: "2024-05-31", WdTypes: []string{"W"}}
	require.NoError(t, req.Validate())
	assert.Equal(t, time.May, req.From.Month())

	bad := ApproveRequest{ShopID: "s1", DtFrom: "2024-05-31", DtTo: "2024-05-01", WdTypes: []string{"W"}}
	assert.Error(t, bad.Validate())

	empty := ApproveRequest{DtFrom: "2024-05-01", DtTo: "2024-05-31"}
	err := empty.Validate()
	require.Error(t, err)
	verrs := err.(validator.ValidationErrors)
	assert.Contains(t, verrs.ToMap(), "shop_id")
	assert.Contains(t, verrs.ToMap(), "wd_types")
}

func TestExchangeRequestValidate_SelfExchange(t *testing.T) {
	req := ExchangeRequest{EmployeeID1: "e1", EmployeeID2: "e1", Dates: []string{"2024-05-10"}}
	assert.Error(t, req.Validate())
}

func TestCopyApprovedRequestValidate_Mode(t *testing.T) {
	for _, mode := range []string{CopyModePP, CopyModePF, CopyModeFF} {
		req := CopyApprovedRequest{EmployeeIDs: []string{"e1"}, Dates: []string{"2024-05-10"}, Mode: mode}
		assert.NoError(t, req.Validate(), mode)
	}
	req := CopyApprovedRequest{EmployeeIDs: []string{"e1"}, Dates: []string{"2024-05-10"}, Mode: "XX"}
	assert.Error(t, req.Validate())
}

func TestCopyRangeRequestValidate_TargetBeforeSource(t *testing.T) {
	req := CopyRangeRequest{
		EmployeeIDs: []string{"e1"},
		SrcDtFrom:   "2024-05-10", SrcDtTo: "2024-05-16",
		DstDtFrom: "2024-05-03", DstDtTo: "2024-05-09",
	}
	assert.Error(t, req.Validate())

	ok := CopyRangeRequest{
		EmployeeIDs: []string{"e1"},
		SrcDtFrom:   "2024-05-10", SrcDtTo: "2024-05-16",
		DstDtFrom: "2024-05-17", DstDtTo: "2024-05-23",
	}
	assert.NoError(t, ok.Validate())
}

func TestChangeRangeRequestValidate(t *testing.T) {
	req := ChangeRangeRequest{Ranges: []ChangeRange{
		{Worker: "w-1", Type: "V", DtFrom: "2024-05-01", DtTo: "2024-05-20"},
	}}
	require.NoError(t, req.Validate())
	assert.Equal(t, 1, req.Ranges[0].From.Day())

	assert.Error(t, (&ChangeRangeRequest{}).Validate())
}

func TestBatchUpdateRequestValidate(t *testing.T) {
	empty := BatchUpdateRequest{}
	assert.Error(t, empty.Validate())

	deleteOnly := BatchUpdateRequest{Options: UpsertOptions{
		DeleteScopeFilters: map[string]string{"employee_id": "e1"},
	}}
	assert.NoError(t, deleteOnly.Validate())
}

func TestActorIsZero(t *testing.T) {
	assert.True(t, Actor{}.IsZero())
	assert.False(t, Actor{UserID: "u1"}.IsZero())
	assert.False(t, Actor{GroupID: "g1"}.IsZero())
}
