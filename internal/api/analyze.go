package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/icp-engine/internal/apperr"
	"github.com/sells-group/icp-engine/internal/model"
	"github.com/sells-group/icp-engine/internal/validate"
)

type analyzeRequest struct {
	Domain string `json:"domain"`
}

type analyzeResponse struct {
	Success    bool           `json:"success"`
	ICPID      string         `json:"icpId"`
	Company    *model.Company `json:"company"`
	ICP        *model.ICP     `json:"icp"`
	IsExisting bool           `json:"isExisting,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// handleAnalyze scrapes a company domain, generates an ICP, and persists
// both. A company that already has an ICP short-circuits with the existing
// records.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(ctx)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("Invalid request body", nil))
		return
	}
	domain, err := validate.Domain(req.Domain)
	if err != nil {
		s.writeError(w, err)
		return
	}

	zap.L().Info("analyzing company",
		zap.String("domain", domain),
		zap.String("user_id", uid),
	)

	company, err := s.store.GetCompanyByDomain(ctx, uid, domain)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if company != nil {
		existing, err := s.store.GetICPByCompany(ctx, company.ID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if existing != nil {
			writeJSON(w, http.StatusOK, analyzeResponse{
				Success:    true,
				ICPID:      existing.ID,
				Company:    company,
				ICP:        existing,
				IsExisting: true,
				Message:    fmt.Sprintf("ICP %q already exists for this company.", existing.Title),
			})
			return
		}
	}

	info := s.scraper.AnalyzeDomain(ctx, domain)

	if company == nil {
		company, err = s.store.CreateCompany(ctx, uid, domain, info)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}

	data, err := s.generator.Generate(ctx, info)
	if err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.store.CreateICP(ctx, company.ID, uid, data)
	if err != nil {
		s.writeError(w, err)
		return
	}

	zap.L().Info("ICP generated",
		zap.String("domain", domain),
		zap.String("icp_id", created.ID),
		zap.Int("personas", len(created.Personas)),
	)

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success: true,
		ICPID:   created.ID,
		Company: company,
		ICP:     created,
	})
}
