package model

import "time"

// FitLevel is a coarse qualification bucket derived from a 0-100 score.
type FitLevel string

const (
	FitExcellent FitLevel = "excellent"
	FitGood      FitLevel = "good"
	FitModerate  FitLevel = "moderate"
	FitPoor      FitLevel = "poor"
)

// CompanyInfo is the scraper's structured summary of a company website.
// Immutable once returned; cached per domain.
type CompanyInfo struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Industry          string `json:"industry"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// Persona is a buyer role within a target company.
type Persona struct {
	Title          string   `json:"title"`
	Role           string   `json:"role"`
	Department     string   `json:"department"`
	SeniorityLevel string   `json:"seniorityLevel"`
	PainPoints     []string `json:"painPoints"`
	Goals          []string `json:"goals"`
}

// ICPData is a generated Ideal Customer Profile.
type ICPData struct {
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	CompanySizeMin    int       `json:"companySizeMin"`
	CompanySizeMax    int       `json:"companySizeMax"`
	RevenueMin        int64     `json:"revenueMin"`
	RevenueMax        int64     `json:"revenueMax"`
	Industries        []string  `json:"industries"`
	GeographicRegions []string  `json:"geographicRegions"`
	FundingStages     []string  `json:"fundingStages"`
	Personas          []Persona `json:"personas"`
}

// QualificationResult scores one prospect against one ICP. Never mutated
// after creation.
type QualificationResult struct {
	Score          int            `json:"score"`
	FitLevel       FitLevel       `json:"fitLevel"`
	Reasoning      string         `json:"reasoning"`
	Strengths      []string       `json:"strengths"`
	Weaknesses     []string       `json:"weaknesses"`
	Recommendation string         `json:"recommendation"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Company is a persisted company row. Identity is assigned by the store.
type Company struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Domain      string    `json:"domain"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Industry    string    `json:"industry"`
	CreatedAt   time.Time `json:"created_at"`
}

// ICP is a persisted ICP row with its personas.
type ICP struct {
	ID                string    `json:"id"`
	CompanyID         string    `json:"company_id"`
	UserID            string    `json:"user_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	CompanySizeMin    int       `json:"company_size_min"`
	CompanySizeMax    int       `json:"company_size_max"`
	RevenueMin        int64     `json:"revenue_range_min"`
	RevenueMax        int64     `json:"revenue_range_max"`
	Industries        []string  `json:"industries"`
	GeographicRegions []string  `json:"geographic_regions"`
	FundingStages     []string  `json:"funding_stages"`
	Personas          []Persona `json:"buyer_personas"`
	CreatedAt         time.Time `json:"created_at"`
}

// Prospect is a persisted prospect row.
type Prospect struct {
	ID          string    `json:"id"`
	ICPID       string    `json:"icp_id"`
	UserID      string    `json:"user_id"`
	Domain      string    `json:"domain"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Industry    string    `json:"industry"`
	CreatedAt   time.Time `json:"created_at"`
}

// Qualification is a persisted qualification row.
type Qualification struct {
	ID             string         `json:"id"`
	ProspectID     string         `json:"prospect_id"`
	ICPID          string         `json:"icp_id"`
	UserID         string         `json:"user_id"`
	Score          int            `json:"score"`
	FitLevel       FitLevel       `json:"fit_level"`
	Reasoning      string         `json:"reasoning"`
	Strengths      []string       `json:"strengths"`
	Weaknesses     []string       `json:"weaknesses"`
	Recommendation string         `json:"recommendation"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
