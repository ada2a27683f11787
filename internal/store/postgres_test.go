package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/icp-engine/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

// anyArgs returns n pgxmock.AnyArg matchers, one per SQL placeholder.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPostgresStore_GetCompanyByDomain_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, user_id, domain, name, description, industry, created_at FROM companies`).
		WithArgs("user-1", "unknown.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "domain", "name", "description", "industry", "created_at"}))

	company, err := s.GetCompanyByDomain(context.Background(), "user-1", "unknown.com")
	require.NoError(t, err)
	assert.Nil(t, company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO companies`).
		WithArgs(pgxmock.AnyArg(), "user-1", "acme.com", "Acme Corp", "Makes anvils.", "Manufacturing", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	company, err := s.CreateCompany(context.Background(), "user-1", "acme.com", model.CompanyInfo{
		Name:        "Acme Corp",
		Description: "Makes anvils.",
		Industry:    "Manufacturing",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, company.ID)
	assert.Equal(t, "acme.com", company.Domain)
	assert.Equal(t, "user-1", company.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateICP_WithPersonas(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO icps`).
		WithArgs(anyArgs(13)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO buyer_personas`).
		WithArgs(anyArgs(9)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO buyer_personas`).
		WithArgs(anyArgs(9)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	data := model.ICPData{
		Title:             "Mid-Market SaaS",
		Description:       "Growing SaaS shops",
		CompanySizeMin:    50,
		CompanySizeMax:    5000,
		RevenueMin:        5_000_000,
		RevenueMax:        100_000_000,
		Industries:        []string{"SaaS"},
		GeographicRegions: []string{"North America"},
		FundingStages:     []string{"Series A"},
		Personas: []model.Persona{
			{Title: "Buyer", Role: "VP Sales", Department: "Sales"},
			{Title: "Champion", Role: "RevOps Lead", Department: "Operations"},
		},
	}

	icp, err := s.CreateICP(context.Background(), "company-1", "user-1", data)
	require.NoError(t, err)
	assert.NotEmpty(t, icp.ID)
	assert.Equal(t, "company-1", icp.CompanyID)
	assert.Len(t, icp.Personas, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetICP(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM icps WHERE id`).
		WithArgs("icp-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "company_id", "user_id", "title", "description",
			"company_size_min", "company_size_max", "revenue_range_min", "revenue_range_max",
			"industries", "geographic_regions", "funding_stages", "created_at",
		}).AddRow(
			"icp-1", "company-1", "user-1", "Mid-Market SaaS", "desc",
			50, 5000, int64(5_000_000), int64(100_000_000),
			[]byte(`["SaaS"]`), []byte(`["North America"]`), []byte(`["Series A"]`), now,
		))
	mock.ExpectQuery(`SELECT title, role, department, seniority_level, pain_points, goals FROM buyer_personas`).
		WithArgs("icp-1").
		WillReturnRows(pgxmock.NewRows([]string{"title", "role", "department", "seniority_level", "pain_points", "goals"}).
			AddRow("Buyer", "VP Sales", "Sales", "VP", []byte(`["manual work"]`), []byte(`["growth"]`)))

	icp, err := s.GetICP(context.Background(), "icp-1")
	require.NoError(t, err)
	require.NotNil(t, icp)
	assert.Equal(t, "Mid-Market SaaS", icp.Title)
	assert.Equal(t, []string{"SaaS"}, icp.Industries)
	require.Len(t, icp.Personas, 1)
	assert.Equal(t, []string{"manual work"}, icp.Personas[0].PainPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetICP_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM icps WHERE id`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	icp, err := s.GetICP(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, icp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateQualification(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO qualifications`).
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	result := model.QualificationResult{
		Score:          85,
		FitLevel:       model.FitGood,
		Reasoning:      "Solid overlap.",
		Strengths:      []string{"industry match"},
		Weaknesses:     []string{"small team"},
		Recommendation: "Schedule discovery call",
		Metadata:       map[string]any{"industryMatch": true},
	}

	qual, err := s.CreateQualification(context.Background(), "prospect-1", "icp-1", "user-1", result)
	require.NoError(t, err)
	assert.Equal(t, 85, qual.Score)
	assert.Equal(t, model.FitGood, qual.FitLevel)
	assert.Equal(t, "prospect-1", qual.ProspectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS companies`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
