package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

type networkRepository struct {
	db *database.DB
}

func NewNetworkRepository(db *database.DB) network.Repository {
	return &networkRepository{db: db}
}

// scanNetwork decodes settings_values at load time so callers always see a
// typed Settings and never re-parse JSON per request.
func scanNetwork(row pgx.Row) (network.Network, error) {
	var net network.Network
	var raw []byte
	if err := row.Scan(&net.ID, &net.Name, &net.Code, &raw, &net.CreatedAt, &net.UpdatedAt); err != nil {
		return network.Network{}, err
	}
	settings, err := network.DecodeSettings(raw)
	if err != nil {
		return network.Network{}, err
	}
	net.Settings = settings
	return net, nil
}

func (r *networkRepository) GetByID(ctx context.Context, id string) (network.Network, error) {
	q := GetQuerier(ctx, r.db)
	net, err := scanNetwork(q.QueryRow(ctx, `
		SELECT id, name, code, settings_values, created_at, updated_at
		FROM networks WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return network.Network{}, network.ErrNetworkNotFound
		}
		return network.Network{}, fmt.Errorf("failed to get network: %w", err)
	}
	return net, nil
}

func (r *networkRepository) List(ctx context.Context) ([]network.Network, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT id, name, code, settings_values, created_at, updated_at
		FROM networks ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	defer rows.Close()

	var nets []network.Network
	for rows.Next() {
		net, err := scanNetwork(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan network: %w", err)
		}
		nets = append(nets, net)
	}
	return nets, rows.Err()
}

func (r *networkRepository) GetByCode(ctx context.Context, code string) (network.Network, error) {
	q := GetQuerier(ctx, r.db)
	net, err := scanNetwork(q.QueryRow(ctx, `
		SELECT id, name, code, settings_values, created_at, updated_at
		FROM networks WHERE code = $1
	`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return network.Network{}, network.ErrNetworkNotFound
		}
		return network.Network{}, fmt.Errorf("failed to get network by code: %w", err)
	}
	return net, nil
}

func (r *networkRepository) ListSawhSettings(ctx context.Context, networkID string) ([]network.SawhSettings, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT id, network_id, name, type, work_hours_by_months, created_at, updated_at
		FROM sawh_settings
		WHERE network_id = $1
		ORDER BY name
	`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sawh settings: %w", err)
	}
	defer rows.Close()

	var out []network.SawhSettings
	for rows.Next() {
		var s network.SawhSettings
		var raw []byte
		if err := rows.Scan(&s.ID, &s.NetworkID, &s.Name, &s.Type, &raw, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sawh settings: %w", err)
		}
		if s.WorkHoursByMonth, err = network.DecodeWorkHoursByMonths(raw); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *networkRepository) ListSawhMappings(ctx context.Context, networkID string) ([]network.SawhMapping, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT m.id, m.sawh_settings_id, m.shop_id, m.position_id, m.priority
		FROM sawh_settings_mappings m
		JOIN sawh_settings s ON s.id = m.sawh_settings_id
		WHERE s.network_id = $1
		ORDER BY m.priority, m.id
	`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sawh mappings: %w", err)
	}
	defer rows.Close()

	var out []network.SawhMapping
	for rows.Next() {
		var m network.SawhMapping
		if err := rows.Scan(&m.ID, &m.SawhSettingsID, &m.ShopID, &m.PositionID, &m.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan sawh mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
