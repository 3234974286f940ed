package postgresql

import (
	"context"
	"fmt"

	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

type permissionRepository struct {
	db *database.DB
}

func NewPermissionRepository(db *database.DB) workerday.PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) ListForGroup(ctx context.Context, groupID string) ([]workerday.Permission, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT id, group_id, action, is_fact, type, days_in_past, days_in_future
		FROM worker_day_permissions
		WHERE group_id = $1
		ORDER BY type, action
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worker day permissions: %w", err)
	}
	defer rows.Close()

	var out []workerday.Permission
	for rows.Next() {
		var p workerday.Permission
		if err := rows.Scan(&p.ID, &p.GroupID, &p.Action, &p.IsFact, &p.Type, &p.DaysInPast, &p.DaysInFuture); err != nil {
			return nil, fmt.Errorf("failed to scan worker day permission: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
