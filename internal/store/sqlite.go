package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/icp-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	domain      TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (user_id, domain)
);

CREATE TABLE IF NOT EXISTS icps (
	id                TEXT PRIMARY KEY,
	company_id        TEXT NOT NULL REFERENCES companies(id),
	user_id           TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	company_size_min  INTEGER NOT NULL,
	company_size_max  INTEGER NOT NULL,
	revenue_range_min INTEGER NOT NULL,
	revenue_range_max INTEGER NOT NULL,
	industries         TEXT NOT NULL DEFAULT '[]',
	geographic_regions TEXT NOT NULL DEFAULT '[]',
	funding_stages     TEXT NOT NULL DEFAULT '[]',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS buyer_personas (
	id              TEXT PRIMARY KEY,
	icp_id          TEXT NOT NULL REFERENCES icps(id) ON DELETE CASCADE,
	title           TEXT NOT NULL,
	role            TEXT NOT NULL DEFAULT '',
	department      TEXT NOT NULL DEFAULT '',
	seniority_level TEXT NOT NULL DEFAULT '',
	pain_points     TEXT NOT NULL DEFAULT '[]',
	goals           TEXT NOT NULL DEFAULT '[]',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prospects (
	id          TEXT PRIMARY KEY,
	icp_id      TEXT NOT NULL REFERENCES icps(id),
	user_id     TEXT NOT NULL,
	domain      TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS qualifications (
	id             TEXT PRIMARY KEY,
	prospect_id    TEXT NOT NULL REFERENCES prospects(id),
	icp_id         TEXT NOT NULL REFERENCES icps(id),
	user_id        TEXT NOT NULL,
	score          INTEGER NOT NULL,
	fit_level      TEXT NOT NULL,
	reasoning      TEXT NOT NULL DEFAULT '',
	strengths      TEXT NOT NULL DEFAULT '[]',
	weaknesses     TEXT NOT NULL DEFAULT '[]',
	recommendation TEXT NOT NULL DEFAULT '',
	metadata       TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_user_domain ON companies(user_id, domain);
CREATE INDEX IF NOT EXISTS idx_icps_company_id ON icps(company_id);
CREATE INDEX IF NOT EXISTS idx_buyer_personas_icp_id ON buyer_personas(icp_id);
CREATE INDEX IF NOT EXISTS idx_prospects_icp_id ON prospects(icp_id);
CREATE INDEX IF NOT EXISTS idx_qualifications_icp_id ON qualifications(icp_id);
CREATE INDEX IF NOT EXISTS idx_qualifications_prospect_id ON qualifications(prospect_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, userID, domain string, info model.CompanyInfo) (*model.Company, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, user_id, domain, name, description, industry, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, domain, info.Name, info.Description, info.Industry, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert company %s", domain)
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

func (s *SQLiteStore) GetCompanyByDomain(ctx context.Context, userID, domain string) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, domain, name, description, industry, created_at FROM companies WHERE user_id = ? AND domain = ?`,
		userID, domain,
	).Scan(&c.ID, &c.UserID, &c.Domain, &c.Name, &c.Description, &c.Industry, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get company %s", domain)
	}
	return &c, nil
}

func (s *SQLiteStore) CreateICP(ctx context.Context, companyID, userID string, data model.ICPData) (*model.ICP, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	industriesJSON, err := json.Marshal(data.Industries)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal industries")
	}
	regionsJSON, err := json.Marshal(data.GeographicRegions)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal regions")
	}
	stagesJSON, err := json.Marshal(data.FundingStages)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal funding stages")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO icps (id, company_id, user_id, title, description, company_size_min, company_size_max, revenue_range_min, revenue_range_max, industries, geographic_regions, funding_stages, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, companyID, userID, data.Title, data.Description,
		data.CompanySizeMin, data.CompanySizeMax, data.RevenueMin, data.RevenueMax,
		string(industriesJSON), string(regionsJSON), string(stagesJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert icp")
	}

	for _, p := range data.Personas {
		painJSON, err := json.Marshal(p.PainPoints)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal pain points")
		}
		goalsJSON, err := json.Marshal(p.Goals)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal goals")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO buyer_personas (id, icp_id, title, role, department, seniority_level, pain_points, goals, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), id, p.Title, p.Role, p.Department, p.SeniorityLevel,
			string(painJSON), string(goalsJSON), now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert persona %s", p.Title)
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

func (s *SQLiteStore) GetICP(ctx context.Context, icpID string) (*model.ICP, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, user_id, title, description, company_size_min, company_size_max, revenue_range_min, revenue_range_max, industries, geographic_regions, funding_stages, created_at
		 FROM icps WHERE id = ?`,
		icpID,
	)
	return s.scanICP(ctx, row)
}

func (s *SQLiteStore) GetICPByCompany(ctx context.Context, companyID string) (*model.ICP, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, user_id, title, description, company_size_min, company_size_max, revenue_range_min, revenue_range_max, industries, geographic_regions, funding_stages, created_at
		 FROM icps WHERE company_id = ? ORDER BY created_at DESC LIMIT 1`,
		companyID,
	)
	return s.scanICP(ctx, row)
}

func (s *SQLiteStore) scanICP(ctx context.Context, row *sql.Row) (*model.ICP, error) {
	var icp model.ICP
	var industriesJSON, regionsJSON, stagesJSON string

	err := row.Scan(&icp.ID, &icp.CompanyID, &icp.UserID, &icp.Title, &icp.Description,
		&icp.CompanySizeMin, &icp.CompanySizeMax, &icp.RevenueMin, &icp.RevenueMax,
		&industriesJSON, &regionsJSON, &stagesJSON, &icp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get icp")
	}

	if err := json.Unmarshal([]byte(industriesJSON), &icp.Industries); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal industries")
	}
	if err := json.Unmarshal([]byte(regionsJSON), &icp.GeographicRegions); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal regions")
	}
	if err := json.Unmarshal([]byte(stagesJSON), &icp.FundingStages); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal funding stages")
	}

	personas, err := s.getPersonas(ctx, icp.ID)
	if err != nil {
		return nil, err
	}
	icp.Personas = personas
	return &icp, nil
}

func (s *SQLiteStore) getPersonas(ctx context.Context, icpID string) ([]model.Persona, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, role, department, seniority_level, pain_points, goals FROM buyer_personas WHERE icp_id = ? ORDER BY created_at`,
		icpID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get personas")
	}
	defer rows.Close()

	personas := []model.Persona{}
	for rows.Next() {
		var p model.Persona
		var painJSON, goalsJSON string
		if err := rows.Scan(&p.Title, &p.Role, &p.Department, &p.SeniorityLevel, &painJSON, &goalsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan persona")
		}
		if err := json.Unmarshal([]byte(painJSON), &p.PainPoints); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal pain points")
		}
		if err := json.Unmarshal([]byte(goalsJSON), &p.Goals); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal goals")
		}
		personas = append(personas, p)
	}
	return personas, eris.Wrap(rows.Err(), "sqlite: personas iterate")
}

func (s *SQLiteStore) CreateProspect(ctx context.Context, icpID, userID, domain string, info model.CompanyInfo) (*model.Prospect, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prospects (id, icp_id, user_id, domain, name, description, industry, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, icpID, userID, domain, info.Name, info.Description, info.Industry, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert prospect %s", domain)
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

func (s *SQLiteStore) CreateQualification(ctx context.Context, prospectID, icpID, userID string, result model.QualificationResult) (*model.Qualification, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	strengthsJSON, err := json.Marshal(result.Strengths)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal strengths")
	}
	weaknessesJSON, err := json.Marshal(result.Weaknesses)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal weaknesses")
	}
	var metadataJSON any
	if result.Metadata != nil {
		b, err := json.Marshal(result.Metadata)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal metadata")
		}
		metadataJSON = string(b)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO qualifications (id, prospect_id, icp_id, user_id, score, fit_level, reasoning, strengths, weaknesses, recommendation, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, prospectID, icpID, userID, result.Score, string(result.FitLevel),
		result.Reasoning, string(strengthsJSON), string(weaknessesJSON), result.Recommendation, metadataJSON, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert qualification for prospect %s", prospectID)
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
