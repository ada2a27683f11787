package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/icp-engine/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_company_by_domain": `SELECT id, user_id, domain, name, description, industry, created_at FROM companies WHERE user_id = $1 AND domain = $2`,
	"get_icp":               `SELECT id, company_id, user_id, title, description, company_size_min, company_size_max, revenue_range_min, revenue_range_max, industries, geographic_regions, funding_stages, created_at FROM icps WHERE id = $1`,
	"get_icp_by_company":    `SELECT id, company_id, user_id, title, description, company_size_min, company_size_max, revenue_range_min, revenue_range_max, industries, geographic_regions, funding_stages, created_at FROM icps WHERE company_id = $1 ORDER BY created_at DESC LIMIT 1`,
	"get_personas":          `SELECT title, role, department, seniority_level, pain_points, goals FROM buyer_personas WHERE icp_id = $1 ORDER BY created_at`,
	"insert_prospect":       `INSERT INTO prospects (id, icp_id, user_id, domain, name, description, industry, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"insert_qualification":  `INSERT INTO qualifications (id, prospect_id, icp_id, user_id, score, fit_level, reasoning, strengths, weaknesses, recommendation, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id     TEXT NOT NULL,
	domain      TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, domain)
);

CREATE TABLE IF NOT EXISTS icps (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id        TEXT NOT NULL REFERENCES companies(id),
	user_id           TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	company_size_min  INTEGER NOT NULL,
	company_size_max  INTEGER NOT NULL,
	revenue_range_min BIGINT NOT NULL,
	revenue_range_max BIGINT NOT NULL,
	industries         JSONB NOT NULL DEFAULT '[]',
	geographic_regions JSONB NOT NULL DEFAULT '[]',
	funding_stages     JSONB NOT NULL DEFAULT '[]',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS buyer_personas (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	icp_id          TEXT NOT NULL REFERENCES icps(id) ON DELETE CASCADE,
	title           TEXT NOT NULL,
	role            TEXT NOT NULL DEFAULT '',
	department      TEXT NOT NULL DEFAULT '',
	seniority_level TEXT NOT NULL DEFAULT '',
	pain_points     JSONB NOT NULL DEFAULT '[]',
	goals           JSONB NOT NULL DEFAULT '[]',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prospects (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	icp_id      TEXT NOT NULL REFERENCES icps(id),
	user_id     TEXT NOT NULL,
	domain      TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS qualifications (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	prospect_id    TEXT NOT NULL REFERENCES prospects(id),
	icp_id         TEXT NOT NULL REFERENCES icps(id),
	user_id        TEXT NOT NULL,
	score          INTEGER NOT NULL,
	fit_level      TEXT NOT NULL,
	reasoning      TEXT NOT NULL DEFAULT '',
	strengths      JSONB NOT NULL DEFAULT '[]',
	weaknesses     JSONB NOT NULL DEFAULT '[]',
	recommendation TEXT NOT NULL DEFAULT '',
	metadata       JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_user_domain ON companies(user_id, domain);
CREATE INDEX IF NOT EXISTS idx_icps_company_id ON icps(company_id);
CREATE INDEX IF NOT EXISTS idx_buyer_personas_icp_id ON buyer_personas(icp_id);
CREATE INDEX IF NOT EXISTS idx_prospects_icp_id ON prospects(icp_id);
CREATE INDEX IF NOT EXISTS idx_qualifications_icp_id ON qualifications(icp_id);
CREATE INDEX IF NOT EXISTS idx_qualifications_prospect_id ON qualifications(prospect_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateCompany(ctx context.Context, userID, domain string, info model.CompanyInfo) (*model.Company, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, user_id, domain, name, description, industry, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, userID, domain, info.Name, info.Description, info.Industry, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert company %s", domain)
	}

	return &model.Company{
		ID:          id,
		UserID:      userID,
		Domain:      domain,
		Name:        info.Name,
		Description: info.Description,
		Industry:    info.Industry,
		CreatedAt:   now,
	}, nil
}

func (s *PostgresStore) GetCompanyByDomain(ctx context.Context, userID, domain string) (*model.Company, error) {
	var c model.Company
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, domain, name, description, industry, created_at FROM companies WHERE user_id = $1 AND domain = $2`,
		userID, domain,
	).Scan(&c.ID, &c.UserID, &c.Domain, &c.Name, &c.Description, &c.Industry, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", domain)
	}
	return &c, nil
}

func (s *PostgresStore) CreateICP(ctx context.Context, companyID, userID string, data model.ICPData) (*model.ICP, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	industriesJSON, err := json.Marshal(data.Industries)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal industries")
	}
	regionsJSON, err := json.Marshal(data.GeographicRegions)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal regions")
	}
	stagesJSON, err := json.Marshal(data.FundingStages)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal funding stages")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO icps (id, company_id, user_id, title, description, company_size_min, company_size_max, revenue_range_min, revenue_range_max, industries, geographic_regions, funding_stages, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, companyID, userID, data.Title, data.Description,
		data.CompanySizeMin, data.CompanySizeMax, data.RevenueMin, data.RevenueMax,
		industriesJSON, regionsJSON, stagesJSON, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert icp")
	}

	for _, p := range data.Personas {
		painJSON, err := json.Marshal(p.PainPoints)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal pain points")
		}
		goalsJSON, err := json.Marshal(p.Goals)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal goals")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO buyer_personas (id, icp_id, title, role, department, seniority_level, pain_points, goals, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New().String(), id, p.Title, p.Role, p.Department, p.SeniorityLevel, painJSON, goalsJSON, now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: insert persona %s", p.Title)
		}
	}

	return &model.ICP{
		ID:                id,
		CompanyID:         companyID,
		UserID:            userID,
		Title:             data.Title,
		Description:       data.Description,
		CompanySizeMin:    data.CompanySizeMin,
		CompanySizeMax:    data.CompanySizeMax,
		RevenueMin:        data.RevenueMin,
		RevenueMax:        data.RevenueMax,
		Industries:        data.Industries,
		GeographicRegions: data.GeographicRegions,
		FundingStages:     data.FundingStages,
		Personas:          data.Personas,
		CreatedAt:         now,
	}, nil
}

func (s *PostgresStore) GetICP(ctx context.Context, icpID string) (*model.ICP, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, company_id, user_id, title, description, company_size_min, company_size_max, revenue_range_min, revenue_range_max, industries, geographic_regions, funding_stages, created_at
		 FROM icps WHERE id = $1`,
		icpID,
	)
	return s.scanICP(ctx, row)
}

func (s *PostgresStore) GetICPByCompany(ctx context.Context, companyID string) (*model.ICP, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, company_id, user_id, title, description, company_size_min, company_size_max, revenue_range_min, revenue_range_max, industries, geographic_regions, funding_stages, created_at
		 FROM icps WHERE company_id = $1 ORDER BY created_at DESC LIMIT 1`,
		companyID,
	)
	return s.scanICP(ctx, row)
}

func (s *PostgresStore) scanICP(ctx context.Context, row pgx.Row) (*model.ICP, error) {
	var icp model.ICP
	var industriesJSON, regionsJSON, stagesJSON []byte

	err := row.Scan(&icp.ID, &icp.CompanyID, &icp.UserID, &icp.Title, &icp.Description,
		&icp.CompanySizeMin, &icp.CompanySizeMax, &icp.RevenueMin, &icp.RevenueMax,
		&industriesJSON, &regionsJSON, &stagesJSON, &icp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get icp")
	}

	if err := json.Unmarshal(industriesJSON, &icp.Industries); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal industries")
	}
	if err := json.Unmarshal(regionsJSON, &icp.GeographicRegions); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal regions")
	}
	if err := json.Unmarshal(stagesJSON, &icp.FundingStages); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal funding stages")
	}

	personas, err := s.getPersonas(ctx, icp.ID)
	if err != nil {
		return nil, err
	}
	icp.Personas = personas
	return &icp, nil
}

func (s *PostgresStore) getPersonas(ctx context.Context, icpID string) ([]model.Persona, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title, role, department, seniority_level, pain_points, goals FROM buyer_personas WHERE icp_id = $1 ORDER BY created_at`,
		icpID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get personas")
	}
	defer rows.Close()

	personas := []model.Persona{}
	for rows.Next() {
		var p model.Persona
		var painJSON, goalsJSON []byte
		if err := rows.Scan(&p.Title, &p.Role, &p.Department, &p.SeniorityLevel, &painJSON, &goalsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan persona")
		}
		if err := json.Unmarshal(painJSON, &p.PainPoints); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal pain points")
		}
		if err := json.Unmarshal(goalsJSON, &p.Goals); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal goals")
		}
		personas = append(personas, p)
	}
	return personas, eris.Wrap(rows.Err(), "postgres: personas iterate")
}

func (s *PostgresStore) CreateProspect(ctx context.Context, icpID, userID, domain string, info model.CompanyInfo) (*model.Prospect, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO prospects (id, icp_id, user_id, domain, name, description, industry, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, icpID, userID, domain, info.Name, info.Description, info.Industry, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert prospect %s", domain)
	}

	return &model.Prospect{
		ID:          id,
		ICPID:       icpID,
		UserID:      userID,
		Domain:      domain,
		Name:        info.Name,
		Description: info.Description,
		Industry:    info.Industry,
		CreatedAt:   now,
	}, nil
}

func (s *PostgresStore) CreateQualification(ctx context.Context, prospectID, icpID, userID string, result model.QualificationResult) (*model.Qualification, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	strengthsJSON, err := json.Marshal(result.Strengths)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal strengths")
	}
	weaknessesJSON, err := json.Marshal(result.Weaknesses)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal weaknesses")
	}
	var metadataJSON []byte
	if result.Metadata != nil {
		metadataJSON, err = json.Marshal(result.Metadata)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal metadata")
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO qualifications (id, prospect_id, icp_id, user_id, score, fit_level, reasoning, strengths, weaknesses, recommendation, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, prospectID, icpID, userID, result.Score, string(result.FitLevel),
		result.Reasoning, strengthsJSON, weaknessesJSON, result.Recommendation, metadataJSON, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert qualification for prospect %s", prospectID)
	}

	return &model.Qualification{
		ID:             id,
		ProspectID:     prospectID,
		ICPID:          icpID,
		UserID:         userID,
		Score:          result.Score,
		FitLevel:       result.FitLevel,
		Reasoning:      result.Reasoning,
		Strengths:      result.Strengths,
		Weaknesses:     result.Weaknesses,
		Recommendation: result.Recommendation,
		Metadata:       result.Metadata,
		CreatedAt:      now,
	}, nil
}
