package icp

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/icp-engine/internal/model"
)

type scriptedCompleter struct {
	response string
	err      error
	lastUser string
}

func (s *scriptedCompleter) Complete(_ context.Context, _, userPrompt string, _ bool) (string, error) {
	s.lastUser = userPrompt
	return s.response, s.err
}

func TestGenerate_FullResponse(t *testing.T) {
	c := &scriptedCompleter{response: `{
		"title": "Mid-Market SaaS Companies",
		"description": "Growing B2B SaaS businesses.",
		"companySizeMin": 100,
		"companySizeMax": 2000,
		"revenueMin": 10000000,
		"revenueMax": 50000000,
		"industries": ["SaaS"],
		"geographicRegions": ["Europe"],
		"fundingStages": ["Series B"],
		"personas": [{"title": "Champion", "role": "Head of RevOps", "department": "Operations", "seniorityLevel": "Director", "painPoints": ["data silos"], "goals": ["alignment"]}]
	}`}
	g := NewGenerator(c)

	got, err := g.Generate(context.Background(), model.CompanyInfo{Name: "Acme", Industry: "SaaS"})
	require.NoError(t, err)
	assert.Equal(t, "Mid-Market SaaS Companies", got.Title)
	assert.Equal(t, 100, got.CompanySizeMin)
	assert.Equal(t, int64(50_000_000), got.RevenueMax)
	require.Len(t, got.Personas, 1)
	assert.Equal(t, "Head of RevOps", got.Personas[0].Role)
}

func TestGenerate_BackfillsDefaults(t *testing.T) {
	c := &scriptedCompleter{response: `{}`}
	g := NewGenerator(c)

	got, err := g.Generate(context.Background(), model.CompanyInfo{Name: "Acme", Industry: "Logistics"})
	require.NoError(t, err)

	assert.Equal(t, "Ideal Customer Profile", got.Title)
	assert.Equal(t, "Generated ICP", got.Description)
	assert.Equal(t, DefaultCompanySizeMin, got.CompanySizeMin)
	assert.Equal(t, DefaultCompanySizeMax, got.CompanySizeMax)
	assert.Equal(t, int64(DefaultRevenueMin), got.RevenueMin)
	assert.Equal(t, int64(DefaultRevenueMax), got.RevenueMax)
	assert.Equal(t, []string{"Logistics"}, got.Industries)
	assert.Equal(t, []string{"North America"}, got.GeographicRegions)
	assert.Equal(t, []string{"Series A", "Series B", "Series C"}, got.FundingStages)
	assert.Equal(t, []model.Persona{}, got.Personas)
}

func TestGenerate_PromptIncludesContext(t *testing.T) {
	c := &scriptedCompleter{response: `{}`}
	g := NewGenerator(c)

	_, err := g.Generate(context.Background(), model.CompanyInfo{
		Name:              "Acme",
		Description:       "Ships anvils",
		Industry:          "Manufacturing",
		AdditionalContext: "Focused on heavy industry",
	})
	require.NoError(t, err)
	assert.Contains(t, c.lastUser, "Acme")
	assert.Contains(t, c.lastUser, "Ships anvils")
	assert.Contains(t, c.lastUser, "Context: Focused on heavy industry")
}

func TestGenerate_CompletionFailure(t *testing.T) {
	c := &scriptedCompleter{err: eris.New("timeout")}
	g := NewGenerator(c)

	_, err := g.Generate(context.Background(), model.CompanyInfo{Name: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to generate ICP")
}

func TestGenerate_UnparseableResponse(t *testing.T) {
	c := &scriptedCompleter{response: "I cannot produce JSON today."}
	g := NewGenerator(c)

	_, err := g.Generate(context.Background(), model.CompanyInfo{Name: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to generate ICP")
}
