package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/icp-engine/internal/apperr"
	"github.com/sells-group/icp-engine/internal/model"
	"github.com/sells-group/icp-engine/internal/validate"
)

type qualifyRequest struct {
	ICPID   string   `json:"icpId"`
	Domains []string `json:"domains"`
}

type qualifyResult struct {
	Domain        string               `json:"domain"`
	Success       bool                 `json:"success"`
	Prospect      *model.Prospect      `json:"prospect,omitempty"`
	Qualification *model.Qualification `json:"qualification,omitempty"`
	Error         string               `json:"error,omitempty"`
}

type qualifySummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type qualifyResponse struct {
	Success bool            `json:"success"`
	Results []qualifyResult `json:"results"`
	Summary qualifySummary  `json:"summary"`
}

// handleQualify scores a batch of prospect domains against an ICP. Domains
// are processed concurrently and every domain settles independently: one
// failure becomes an error slot in the results, never an aborted batch.
func (s *Server) handleQualify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(ctx)

	var req qualifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Validation("Invalid request body", nil))
		return
	}
	if err := validate.ICPID(req.ICPID); err != nil {
		s.writeError(w, err)
		return
	}
	domains, err := validate.Domains(req.Domains)
	if err != nil {
		s.writeError(w, err)
		return
	}

	icp, err := s.store.GetICP(ctx, req.ICPID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if icp == nil {
		s.writeError(w, apperr.NotFound("ICP"))
		return
	}

	zap.L().Info("qualifying prospects",
		zap.String("icp_id", icp.ID),
		zap.String("user_id", uid),
		zap.Int("domains", len(domains)),
	)

	results := make([]qualifyResult, len(domains))
	var g errgroup.Group
	for i, domain := range domains {
		i, domain := i, domain
		g.Go(func() error {
			results[i] = s.qualifyOne(ctx, uid, domain, *icp)
			return nil
		})
	}
	_ = g.Wait()

	summary := qualifySummary{Total: len(results)}
	for _, res := range results {
		if res.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	zap.L().Info("qualification batch complete",
		zap.String("icp_id", icp.ID),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
	)

	writeJSON(w, http.StatusOK, qualifyResponse{
		Success: true,
		Results: results,
		Summary: summary,
	})
}

// qualifyOne runs the scrape/qualify/persist pipeline for one domain and
// settles to either a success or an error slot.
func (s *Server) qualifyOne(ctx context.Context, uid, domain string, icp model.ICP) qualifyResult {
	info := s.scraper.AnalyzeDomain(ctx, domain)

	result, err := s.qualifier.Qualify(ctx, info, icp)
	if err != nil {
		return qualifyResult{Domain: domain, Error: apperr.ClientMessage(err, s.production)}
	}

	prospect, err := s.store.CreateProspect(ctx, icp.ID, uid, domain, info)
	if err != nil {
		return qualifyResult{Domain: domain, Error: apperr.ClientMessage(err, s.production)}
	}

	qual, err := s.store.CreateQualification(ctx, prospect.ID, icp.ID, uid, result)
	if err != nil {
		return qualifyResult{Domain: domain, Error: apperr.ClientMessage(err, s.production)}
	}

	return qualifyResult{
		Domain:        domain,
		Success:       true,
		Prospect:      prospect,
		Qualification: qual,
	}
}
