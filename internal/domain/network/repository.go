package network

import "context"

// Repository defines data access for networks and their SAWH catalog.
type Repository interface {
	GetByID(ctx context.Context, id string) (Network, error)
	GetByCode(ctx context.Context, code string) (Network, error)

	// List returns all networks, for tenant-wide background jobs.
	List(ctx context.Context) ([]Network, error)

	ListSawhSettings(ctx context.Context, networkID string) ([]SawhSettings, error)
	ListSawhMappings(ctx context.Context, networkID string) ([]SawhMapping, error)
}
