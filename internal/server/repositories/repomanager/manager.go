package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/annotrack/internal/dbx"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/projects"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/requests"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so the same
// service code runs against a plain *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Requests(db dbx.DBTX) requests.Repository
	Projects(db dbx.DBTX) projects.Repository
}
