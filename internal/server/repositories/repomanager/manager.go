package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophplaces/internal/dbx"
	"github.com/dmitrijs2005/gophplaces/internal/server/repositories/places"
	"github.com/dmitrijs2005/gophplaces/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// constructors serve both plain connections and transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Places(db dbx.DBTX) places.Repository
}
