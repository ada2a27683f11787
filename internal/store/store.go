// Package store persists companies, ICPs, prospects, and qualification
// results. Two backends are provided: Postgres via pgxpool for server
// deployments and SQLite for local single-binary use.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sells-group/icp-engine/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store defines the persistence interface for the ICP pipeline. Lookup
// methods return (nil, nil) when no row matches.
type Store interface {
	// Companies
	CreateCompany(ctx context.Context, userID, domain string, info model.CompanyInfo) (*model.Company, error)
	GetCompanyByDomain(ctx context.Context, userID, domain string) (*model.Company, error)

	// ICPs (personas are stored and loaded with their ICP)
	CreateICP(ctx context.Context, companyID, userID string, data model.ICPData) (*model.ICP, error)
	GetICP(ctx context.Context, icpID string) (*model.ICP, error)
	GetICPByCompany(ctx context.Context, companyID string) (*model.ICP, error)

	// Prospects and qualifications
	CreateProspect(ctx context.Context, icpID, userID, domain string, info model.CompanyInfo) (*model.Prospect, error)
	CreateQualification(ctx context.Context, prospectID, icpID, userID string, result model.QualificationResult) (*model.Qualification, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
