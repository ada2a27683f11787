package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/icp-engine/internal/validate"
)

// cliUserID is the owner attached to rows created from the command line,
// where there is no bearer token to resolve.
const cliUserID = "cli"

var analyzeCmd = &cobra.Command{
	Use:   "analyze <domain>",
	Short: "Scrape a company website and generate its ICP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		domain, err := validate.Domain(args[0])
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		info := env.Scraper.AnalyzeDomain(ctx, domain)
		zap.L().Info("company analyzed",
			zap.String("domain", domain),
			zap.String("name", info.Name),
		)

		data, err := env.Generator.Generate(ctx, info)
		if err != nil {
			return err
		}

		company, err := env.Store.GetCompanyByDomain(ctx, cliUserID, domain)
		if err != nil {
			return err
		}
		if company == nil {
			company, err = env.Store.CreateCompany(ctx, cliUserID, domain, info)
			if err != nil {
				return err
			}
		}
		created, err := env.Store.CreateICP(ctx, company.ID, cliUserID, data)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(created, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal icp")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
