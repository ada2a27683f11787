package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/icp-engine/internal/apperr"
	"github.com/sells-group/icp-engine/internal/model"
	"github.com/sells-group/icp-engine/internal/validate"
)

type cliQualifyResult struct {
	Domain        string                     `json:"domain"`
	Qualification *model.QualificationResult `json:"qualification,omitempty"`
	Error         string                     `json:"error,omitempty"`
}

var qualifyCmd = &cobra.Command{
	Use:   "qualify <icp-id> <domains...>",
	Short: "Score prospect domains against an ICP",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		icpID := args[0]
		if err := validate.ICPID(icpID); err != nil {
			return err
		}
		domains, err := validate.Domains(args[1:])
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		target, err := env.Store.GetICP(ctx, icpID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperr.NotFound("ICP")
		}

		results := make([]cliQualifyResult, len(domains))
		var g errgroup.Group
		for i, domain := range domains {
			i, domain := i, domain
			g.Go(func() error {
				results[i] = qualifyDomain(ctx, env, *target, domain)
				return nil
			})
		}
		_ = g.Wait()

		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal results")
		}
		fmt.Println(string(out))
		return nil
	},
}

func qualifyDomain(ctx context.Context, env *pipelineEnv, target model.ICP, domain string) cliQualifyResult {
	info := env.Scraper.AnalyzeDomain(ctx, domain)
	result, err := env.Qualifier.Qualify(ctx, info, target)
	if err != nil {
		zap.L().Warn("qualification failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return cliQualifyResult{Domain: domain, Error: apperr.ClientMessage(err, cfg.Server.Production)}
	}

	prospect, err := env.Store.CreateProspect(ctx, target.ID, cliUserID, domain, info)
	if err != nil {
		return cliQualifyResult{Domain: domain, Error: apperr.ClientMessage(err, cfg.Server.Production)}
	}
	if _, err := env.Store.CreateQualification(ctx, prospect.ID, target.ID, cliUserID, result); err != nil {
		return cliQualifyResult{Domain: domain, Error: apperr.ClientMessage(err, cfg.Server.Production)}
	}

	return cliQualifyResult{Domain: domain, Qualification: &result}
}

func init() {
	rootCmd.AddCommand(qualifyCmd)
}
