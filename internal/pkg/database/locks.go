package database

import (
	"context"
	"fmt"
	"hash/fnv"
)

// Advisory lock namespaces. The 64-bit lock key is (namespace << 48) xor
// fnv64a(key), keeping distinct subsystems from colliding.
const (
	LockNSReconcile uint64 = 1 // (employee, logical date) reconciliation
	LockNSTimesheet uint64 = 2 // (employee, month) recompute
	LockNSBatchDiff uint64 = 3 // (entity, scope hash) batch diff
)

// LockKey derives the advisory lock key for a namespace and string key.
func LockKey(ns uint64, key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(ns<<48 ^ h.Sum64())
}

// AdvisoryXactLock takes a transaction-scoped advisory lock; it is released
// at commit or rollback. q must be a transaction.
func AdvisoryXactLock(ctx context.Context, q Querier, ns uint64, key string) error {
	if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", LockKey(ns, key)); err != nil {
		return fmt.Errorf("advisory lock %d/%s: %w", ns, key, err)
	}
	return nil
}

// TryAdvisoryXactLock is the non-blocking variant; ok=false means another
// holder owns the key, letting concurrent recomputes coalesce.
func TryAdvisoryXactLock(ctx context.Context, q Querier, ns uint64, key string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, "SELECT pg_try_advisory_xact_lock($1)", LockKey(ns, key)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("try advisory lock %d/%s: %w", ns, key, err)
	}
	return ok, nil
}
