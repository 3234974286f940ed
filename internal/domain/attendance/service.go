package attendance

import "context"

// Service is the attendance reconciler: it pairs raw ticks to fact worker
// days. The network comes from the authenticated vendor, not the payload.
type Service interface {
	// Ingest processes one raw mark and returns the fact worker day it
	// resolved into, or a structured rejection.
	Ingest(ctx context.Context, networkID string, req IngestRequest) (IngestResult, error)
}
