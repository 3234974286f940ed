package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

type shopRepository struct {
	db *database.DB
}

func NewShopRepository(db *database.DB) employment.ShopRepository {
	return &shopRepository{db: db}
}

const shopColumns = `
	id, network_id, code, name, region_id, is_round_the_clock, created_at, updated_at`

func scanShop(row pgx.Row) (employment.Shop, error) {
	var s employment.Shop
	err := row.Scan(
		&s.ID, &s.NetworkID, &s.Code, &s.Name, &s.RegionID, &s.IsRoundTheClock,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *shopRepository) GetShop(ctx context.Context, id string) (employment.Shop, error) {
	q := GetQuerier(ctx, r.db)
	s, err := scanShop(q.QueryRow(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employment.Shop{}, employment.ErrShopNotFound
		}
		return employment.Shop{}, fmt.Errorf("failed to get shop: %w", err)
	}
	return s, nil
}

func (r *shopRepository) GetShopByCode(ctx context.Context, networkID, code string) (employment.Shop, error) {
	q := GetQuerier(ctx, r.db)
	s, err := scanShop(q.QueryRow(ctx,
		`SELECT `+shopColumns+` FROM shops WHERE network_id = $1 AND code = $2`,
		networkID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employment.Shop{}, employment.ErrShopNotFound
		}
		return employment.Shop{}, fmt.Errorf("failed to get shop by code: %w", err)
	}
	return s, nil
}

func (r *shopRepository) ListShops(ctx context.Context, networkID string) ([]employment.Shop, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx,
		`SELECT `+shopColumns+` FROM shops WHERE network_id = $1 ORDER BY name`,
		networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	defer rows.Close()

	var shops []employment.Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop: %w", err)
		}
		shops = append(shops, s)
	}
	return shops, rows.Err()
}

func (r *shopRepository) GetPosition(ctx context.Context, id string) (employment.Position, error) {
	q := GetQuerier(ctx, r.db)
	var p employment.Position
	err := q.QueryRow(ctx, `
		SELECT id, network_id, name, hours_in_a_week, default_work_type_name
		FROM positions
		WHERE id = $1
	`, id).Scan(&p.ID, &p.NetworkID, &p.Name, &p.HoursInAWeek, &p.DefaultWorkTypeName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employment.Position{}, employment.ErrPositionNotFound
		}
		return employment.Position{}, fmt.Errorf("failed to get position: %w", err)
	}
	return p, nil
}
