package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/icp-engine/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "icp_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_CompanyRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := s.CreateCompany(ctx, "user-1", "acme.com", model.CompanyInfo{
		Name:        "Acme Corp",
		Description: "Makes anvils.",
		Industry:    "Manufacturing",
	})
	require.NoError(t, err)

	got, err := s.GetCompanyByDomain(ctx, "user-1", "acme.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Acme Corp", got.Name)

	// Scoped per user.
	other, err := s.GetCompanyByDomain(ctx, "user-2", "acme.com")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSQLiteStore_ICPRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	company, err := s.CreateCompany(ctx, "user-1", "acme.com", model.CompanyInfo{Name: "Acme"})
	require.NoError(t, err)

	data := model.ICPData{
		Title:             "Mid-Market SaaS",
		Description:       "Growing SaaS shops",
		CompanySizeMin:    50,
		CompanySizeMax:    5000,
		RevenueMin:        5_000_000,
		RevenueMax:        100_000_000,
		Industries:        []string{"SaaS", "Technology"},
		GeographicRegions: []string{"North America"},
		FundingStages:     []string{"Series A", "Series B"},
		Personas: []model.Persona{{
			Title:          "Buyer",
			Role:           "VP Sales",
			Department:     "Sales",
			SeniorityLevel: "VP",
			PainPoints:     []string{"manual work"},
			Goals:          []string{"growth"},
		}},
	}

	created, err := s.CreateICP(ctx, company.ID, "user-1", data)
	require.NoError(t, err)

	got, err := s.GetICP(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Mid-Market SaaS", got.Title)
	assert.Equal(t, []string{"SaaS", "Technology"}, got.Industries)
	assert.Equal(t, int64(100_000_000), got.RevenueMax)
	require.Len(t, got.Personas, 1)
	assert.Equal(t, []string{"manual work"}, got.Personas[0].PainPoints)

	byCompany, err := s.GetICPByCompany(ctx, company.ID)
	require.NoError(t, err)
	require.NotNil(t, byCompany)
	assert.Equal(t, created.ID, byCompany.ID)
}

func TestSQLiteStore_GetICP_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	got, err := s.GetICP(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_QualificationRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	company, err := s.CreateCompany(ctx, "user-1", "acme.com", model.CompanyInfo{Name: "Acme"})
	require.NoError(t, err)
	icp, err := s.CreateICP(ctx, company.ID, "user-1", model.ICPData{
		Title: "T", CompanySizeMin: 1, CompanySizeMax: 2, RevenueMin: 1, RevenueMax: 2,
		Industries: []string{}, GeographicRegions: []string{}, FundingStages: []string{},
	})
	require.NoError(t, err)

	prospect, err := s.CreateProspect(ctx, icp.ID, "user-1", "globex.com", model.CompanyInfo{
		Name:     "Globex",
		Industry: "Energy",
	})
	require.NoError(t, err)
	assert.Equal(t, icp.ID, prospect.ICPID)

	qual, err := s.CreateQualification(ctx, prospect.ID, icp.ID, "user-1", model.QualificationResult{
		Score:          85,
		FitLevel:       model.FitGood,
		Reasoning:      "Solid overlap.",
		Strengths:      []string{"industry match"},
		Weaknesses:     []string{},
		Recommendation: "Schedule discovery call",
	})
	require.NoError(t, err)
	assert.Equal(t, 85, qual.Score)
	assert.Equal(t, model.FitGood, qual.FitLevel)
	assert.NotEmpty(t, qual.ID)
}

func TestSQLiteStore_Ping(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
