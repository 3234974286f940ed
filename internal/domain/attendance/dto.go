package attendance

import (
	"time"

	"github.com/shiftlab/wfm-backend-go/internal/pkg/validator"
)

// IngestRequest is the attendance ingest payload. Either ids or business
// codes identify the shop and user; dttm is ISO-8601 local.
type IngestRequest struct {
	ShopID   *string `json:"shop_id,omitempty"`
	ShopCode *string `json:"shop_code,omitempty"`
	UserID   *string `json:"user_id,omitempty"`
	UserCode *string `json:"user_code,omitempty"`
	Dttm     string  `json:"dttm"`
	Type     string  `json:"type"`

	Instant time.Time `json:"-"`
}

func (r *IngestRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ShopID == nil && r.ShopCode == nil {
		errs = append(errs, validator.ValidationError{Field: "shop_id", Message: "shop_id or shop_code is required"})
	}
	if r.UserID == nil && r.UserCode == nil {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id or user_code is required"})
	}
	if t, ok := validator.IsValidDateTime(r.Dttm); ok {
		r.Instant = t
	} else {
		errs = append(errs, validator.ValidationError{Field: "dttm", Message: "dttm must be ISO-8601 local"})
	}
	switch TickType(r.Type) {
	case TickComing, TickLeaving, TickUnspecified:
	default:
		errs = append(errs, validator.ValidationError{Field: "type", Message: "type must be C, L or U"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IngestResult reports the fact worker day a record landed in.
type IngestResult struct {
	RecordID    string  `json:"record_id"`
	WorkerDayID *string `json:"worker_day_id,omitempty"`
	Dropped     bool    `json:"dropped,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}
