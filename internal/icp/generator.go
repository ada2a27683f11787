// Package icp generates Ideal Customer Profiles from scraped company
// summaries.
package icp

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/icp-engine/internal/llm"
	"github.com/sells-group/icp-engine/internal/model"
)

// Static defaults backfill any top-level field the model omits.
const (
	DefaultCompanySizeMin = 50
	DefaultCompanySizeMax = 5000
	DefaultRevenueMin     = 5_000_000
	DefaultRevenueMax     = 100_000_000
)

var (
	defaultRegions       = []string{"North America"}
	defaultFundingStages = []string{"Series A", "Series B", "Series C"}
)

const generateSystemPrompt = `You are an expert sales and marketing strategist who specializes in creating Ideal Customer Profiles (ICPs).
Your task is to analyze a company and generate a detailed ICP that describes their best potential customers.

Consider:
- Who would benefit most from this company's products/services
- What challenges do those customers face
- What are their goals and priorities
- Company characteristics (size, industry, revenue)
- Geographic and demographic factors`

const generateUserPrompt = `Based on this company information, generate a comprehensive Ideal Customer Profile:

Company: %s
Description: %s
Industry: %s
%s
Generate a detailed ICP with the following JSON structure:
{
  "title": "A short title for this ICP (e.g., 'Mid-Market SaaS Companies')",
  "description": "2-3 sentence overview of the ideal customer",
  "companySizeMin": minimum employee count (number),
  "companySizeMax": maximum employee count (number),
  "revenueMin": minimum annual revenue in USD (number),
  "revenueMax": maximum annual revenue in USD (number),
  "industries": ["array", "of", "target", "industries"],
  "geographicRegions": ["array", "of", "regions"],
  "fundingStages": ["array", "of", "funding stages like Seed, Series A, etc."],
  "personas": [
    {
      "title": "Persona name/title",
      "role": "Job title",
      "department": "Department",
      "seniorityLevel": "Seniority level (e.g., Director, VP, C-Level)",
      "painPoints": ["array", "of", "pain", "points"],
      "goals": ["array", "of", "goals"]
    }
  ]
}

Include 3-5 buyer personas that represent different decision-makers and influencers.
Be specific and actionable.`

// Generator creates ICPs via the completion client.
type Generator struct {
	llm llm.Completer
}

// NewGenerator creates a Generator.
func NewGenerator(completer llm.Completer) *Generator {
	return &Generator{llm: completer}
}

// Generate builds an ICP for the given company. Missing top-level fields
// in the model output are backfilled from the static defaults; industries
// default to the input company's industry. Fails without retry when the
// completion call fails or returns unparseable content.
func (g *Generator) Generate(ctx context.Context, company model.CompanyInfo) (model.ICPData, error) {
	contextLine := ""
	if company.AdditionalContext != "" {
		contextLine = "Context: " + company.AdditionalContext + "\n"
	}
	prompt := fmt.Sprintf(generateUserPrompt,
		company.Name,
		company.Description,
		company.Industry,
		contextLine,
	)

	resp, err := g.llm.Complete(ctx, generateSystemPrompt, prompt, true)
	if err != nil {
		zap.L().Error("error generating ICP",
			zap.String("company_name", company.Name),
			zap.Error(err),
		)
		return model.ICPData{}, eris.Wrap(err, "Failed to generate ICP")
	}

	var data model.ICPData
	if err := llm.DecodeJSON(resp, &data); err != nil {
		zap.L().Error("error parsing ICP response",
			zap.String("company_name", company.Name),
			zap.Error(err),
		)
		return model.ICPData{}, eris.Wrap(err, "Failed to generate ICP")
	}

	if data.Title == "" {
		data.Title = "Ideal Customer Profile"
	}
	if data.Description == "" {
		data.Description = "Generated ICP"
	}
	if data.CompanySizeMin == 0 {
		data.CompanySizeMin = DefaultCompanySizeMin
	}
	if data.CompanySizeMax == 0 {
		data.CompanySizeMax = DefaultCompanySizeMax
	}
	if data.RevenueMin == 0 {
		data.RevenueMin = DefaultRevenueMin
	}
	if data.RevenueMax == 0 {
		data.RevenueMax = DefaultRevenueMax
	}
	if len(data.Industries) == 0 {
		data.Industries = []string{company.Industry}
	}
	if len(data.GeographicRegions) == 0 {
		data.GeographicRegions = append([]string(nil), defaultRegions...)
	}
	if len(data.FundingStages) == 0 {
		data.FundingStages = append([]string(nil), defaultFundingStages...)
	}
	if data.Personas == nil {
		data.Personas = []model.Persona{}
	}

	return data, nil
}
