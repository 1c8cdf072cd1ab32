// Package repomanager vends repository implementations bound to a DBTX and
// owns schema migrations. Services hold a manager plus a *sql.DB and bind
// repositories either to the DB directly or to a transaction inside
// dbx.WithTx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/dbx"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/accounts"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/paymentmethods"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/refreshtokens"
)

type RepositoryManager interface {
	Accounts(db dbx.DBTX) accounts.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	PaymentMethods(db dbx.DBTX) paymentmethods.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
