package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/classdocs/internal/dbx"
	"github.com/dmitrijs2005/classdocs/internal/server/repositories/blobrefs"
	"github.com/dmitrijs2005/classdocs/internal/server/repositories/classrooms"
	"github.com/dmitrijs2005/classdocs/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Classrooms(db dbx.DBTX) classrooms.Repository
	BlobRefs(db dbx.DBTX) blobrefs.Repository
}
