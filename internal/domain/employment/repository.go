package employment

import (
	"context"
	"time"
)

// Repository defines data access for employments and the read-only shop
// and position catalogs.
type Repository interface {
	GetByID(ctx context.Context, id string) (Employment, error)
	GetByCode(ctx context.Context, networkID, code string) (Employment, error)

	// ListByEmployee returns all employments of one employee.
	ListByEmployee(ctx context.Context, employeeID string) ([]Employment, error)

	// ListByUser returns employments whose user matches, for tick
	// resolution (the attendance vendor reports users, not employees).
	ListByUser(ctx context.Context, userID string) ([]Employment, error)

	// ListActiveInRange returns employments overlapping [from, to] for the
	// given employees.
	ListActiveInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]Employment, error)

	// ListEmployeeIDs returns the distinct employees of a network with an
	// employment active on asOf, for network-wide background jobs.
	ListEmployeeIDs(ctx context.Context, networkID string, asOf time.Time) ([]string, error)
}

// ShopRepository gives access to the shop catalog.
type ShopRepository interface {
	GetShop(ctx context.Context, id string) (Shop, error)
	GetShopByCode(ctx context.Context, networkID, code string) (Shop, error)
	ListShops(ctx context.Context, networkID string) ([]Shop, error)
	GetPosition(ctx context.Context, id string) (Position, error)
}
