package postgresql

import (
	"context"

	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

// GetQuerier returns the ambient transaction when one is carried by the
// context, and the pool otherwise. Repositories always query through it so
// they transparently join service-level transactions.
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := database.TxFromContext(ctx); ok {
		return tx
	}
	return db
}
