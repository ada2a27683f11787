// Package qualify scores prospect companies against an ICP.
package qualify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/icp-engine/internal/llm"
	"github.com/sells-group/icp-engine/internal/model"
)

// Score thresholds. Fit level is always recomputed from the clamped score
// with these cutoffs; the model's own label is discarded, including on
// exact boundary scores.
const (
	ScoreMin           = 0
	ScoreMax           = 100
	ThresholdExcellent = 90
	ThresholdGood      = 70
	ThresholdModerate  = 50
)

const qualifySystemPrompt = `You are an expert sales qualification analyst. Your job is to evaluate whether a prospect company is a good fit for a given Ideal Customer Profile (ICP).

Analyze the prospect against the ICP criteria and provide:
1. A qualification score (0-100)
2. Fit level (excellent, good, moderate, or poor)
3. Detailed reasoning
4. Specific strengths (why they're a good fit)
5. Specific weaknesses (why they might not be a perfect fit)
6. A recommendation for next steps

Be honest and analytical. Consider all factors including industry, company characteristics, and how well their needs align with what the ICP represents.`

const qualifyUserPrompt = `Evaluate this prospect against the ICP:

PROSPECT:
Name: %s
Description: %s
Industry: %s
%s
ICP CRITERIA:
Title: %s
Description: %s
Target Industries: %s
Company Size: %d - %d employees
Revenue Range: $%.1fM - $%.1fM
Geographic Regions: %s
Funding Stages: %s

BUYER PERSONAS:
%s

Provide a detailed qualification analysis in JSON format:
{
  "score": 0-100 (integer),
  "fitLevel": "excellent" | "good" | "moderate" | "poor",
  "reasoning": "Detailed 3-4 sentence explanation of the score",
  "strengths": ["array", "of", "specific", "strengths"],
  "weaknesses": ["array", "of", "specific", "weaknesses"],
  "recommendation": "Specific recommendation for next steps (e.g., 'High priority - schedule discovery call' or 'Not a fit - deprioritize')",
  "metadata": {
    "industryMatch": true/false,
    "sizeEstimate": "estimated company size if known",
    "keyInsights": ["additional", "insights"]
  }
}

Scoring guide:
- %d-%d: Excellent fit - matches all key criteria
- %d-%d: Good fit - matches most criteria with minor gaps
- %d-%d: Moderate fit - some criteria match but significant gaps exist
- %d-%d: Poor fit - major misalignment with ICP`

// Qualifier scores prospects via the completion client.
type Qualifier struct {
	llm llm.Completer
}

// NewQualifier creates a Qualifier.
func NewQualifier(completer llm.Completer) *Qualifier {
	return &Qualifier{llm: completer}
}

// rawResult tolerates loosely typed model output; score can come back as
// a number, a string, or not at all.
type rawResult struct {
	Score          any            `json:"score"`
	FitLevel       string         `json:"fitLevel"`
	Reasoning      string         `json:"reasoning"`
	Strengths      []string       `json:"strengths"`
	Weaknesses     []string       `json:"weaknesses"`
	Recommendation string         `json:"recommendation"`
	Metadata       map[string]any `json:"metadata"`
}

// Qualify scores a prospect against an ICP. The returned score always lies
// in [0,100] and the fit level is a pure function of that clamped score.
// Fails without retry when the completion call fails or the response is
// unparseable.
func (q *Qualifier) Qualify(ctx context.Context, prospect model.CompanyInfo, icp model.ICP) (model.QualificationResult, error) {
	resp, err := q.llm.Complete(ctx, qualifySystemPrompt, buildPrompt(prospect, icp), true)
	if err != nil {
		zap.L().Error("error qualifying prospect",
			zap.String("prospect_name", prospect.Name),
			zap.Error(err),
		)
		return model.QualificationResult{}, eris.Wrap(err, "Failed to qualify prospect")
	}

	var raw rawResult
	if err := llm.DecodeJSON(resp, &raw); err != nil {
		zap.L().Error("error parsing qualification response",
			zap.String("prospect_name", prospect.Name),
			zap.Error(err),
		)
		return model.QualificationResult{}, eris.Wrap(err, "Failed to qualify prospect")
	}

	score := ClampScore(toInt(raw.Score))

	result := model.QualificationResult{
		Score:          score,
		FitLevel:       FitLevelForScore(score),
		Reasoning:      raw.Reasoning,
		Strengths:      raw.Strengths,
		Weaknesses:     raw.Weaknesses,
		Recommendation: raw.Recommendation,
		Metadata:       raw.Metadata,
	}
	if result.Reasoning == "" {
		result.Reasoning = "No reasoning provided"
	}
	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.Weaknesses == nil {
		result.Weaknesses = []string{}
	}
	if result.Recommendation == "" {
		result.Recommendation = "Review manually"
	}

	return result, nil
}

// ClampScore bounds a raw score to [ScoreMin, ScoreMax].
func ClampScore(score int) int {
	if score < ScoreMin {
		return ScoreMin
	}
	if score > ScoreMax {
		return ScoreMax
	}
	return score
}

// FitLevelForScore maps a clamped score to its fit bucket.
func FitLevelForScore(score int) model.FitLevel {
	switch {
	case score >= ThresholdExcellent:
		return model.FitExcellent
	case score >= ThresholdGood:
		return model.FitGood
	case score >= ThresholdModerate:
		return model.FitModerate
	default:
		return model.FitPoor
	}
}

// toInt coerces loosely typed score values; anything non-numeric is 0.
func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%f", &f); err == nil {
			return int(f)
		}
	}
	return 0
}

// buildPrompt embeds the prospect summary and the full ICP criteria.
func buildPrompt(prospect model.CompanyInfo, icp model.ICP) string {
	contextLine := ""
	if prospect.AdditionalContext != "" {
		contextLine = "Context: " + prospect.AdditionalContext + "\n"
	}

	var personas strings.Builder
	for _, p := range icp.Personas {
		fmt.Fprintf(&personas, "- %s (%s in %s)\n", p.Title, p.Role, p.Department)
		fmt.Fprintf(&personas, "  Pain Points: %s\n", strings.Join(p.PainPoints, ", "))
		fmt.Fprintf(&personas, "  Goals: %s\n", strings.Join(p.Goals, ", "))
	}

	return fmt.Sprintf(qualifyUserPrompt,
		prospect.Name,
		prospect.Description,
		prospect.Industry,
		contextLine,
		icp.Title,
		icp.Description,
		strings.Join(icp.Industries, ", "),
		icp.CompanySizeMin, icp.CompanySizeMax,
		float64(icp.RevenueMin)/1_000_000, float64(icp.RevenueMax)/1_000_000,
		strings.Join(icp.GeographicRegions, ", "),
		strings.Join(icp.FundingStages, ", "),
		personas.String(),
		ThresholdExcellent, ScoreMax,
		ThresholdGood, ThresholdExcellent-1,
		ThresholdModerate, ThresholdGood-1,
		ScoreMin, ThresholdModerate-1,
	)
}
