package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tenantgov/internal/dbx"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/devices"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/events"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/loginaudit"
	"github.com/dmitrijs2005/tenantgov/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Users(db dbx.DBTX) users.Repository
	Devices(db dbx.DBTX) devices.Repository
	Events(db dbx.DBTX) events.Repository
	LoginAudit(db dbx.DBTX) loginaudit.Repository
}
