package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nvoss/chatgpt-offboard/internal/api"
	"github.com/nvoss/chatgpt-offboard/internal/config"
	"github.com/nvoss/chatgpt-offboard/internal/export"
)

func exportCmd() *cobra.Command {
	var output string
	var limit int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all conversations to Markdown files",
		Long: `Exports every reachable conversation, one Markdown document each:

  exports/                          regular conversations
  exports/gpts/<gpt-name>/          conversations with a custom GPT
  exports/projects/<project-name>/  conversations inside a Project folder

Already-exported files are skipped, so re-running only fetches what is new.
The access token comes from OFFBOARD_TOKEN or the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if output != "" {
				cfg.OutputDir = output
			}

			client, err := newClient(cfg, log)
			if err != nil {
				return err
			}

			log.Info().Msg("reading conversation list")
			convs, err := client.ListAll(cmd.Context(), cfg.ProjectIDs)
			if err != nil {
				return fmt.Errorf("list conversations: %w", err)
			}
			if len(convs) == 0 {
				fmt.Println("No conversations found.")
				return nil
			}
			log.Info().Int("count", len(convs)).Msg("conversations found")

			if limit > 0 && len(convs) > limit {
				convs = convs[:limit]
			}

			ctrl := export.NewController(cfg.OutputDir, client, export.Options{
				DryRun: dryRun,
				Logger: log,
			})

			report, err := ctrl.Sync(cmd.Context(), convs)
			// the report still tells the user how far we got, even when
			// the run aborted partway
			fmt.Print(renderReport(report, cfg.OutputDir, dryRun))
			if err != nil {
				return fmt.Errorf("run aborted: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Export directory (default from config, ./exports)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max conversations to export (0 = all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve targets and report without fetching or writing")

	return cmd
}

func newClient(cfg *config.Config, log zerolog.Logger) (*api.Client, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("no access token: set OFFBOARD_TOKEN or access_token in config")
	}
	fetcher := &api.HTTPFetcher{
		BaseURL: cfg.BaseURL,
		Token:   cfg.AccessToken,
	}
	return api.NewClient(fetcher, api.ClientOptions{
		WorkspaceID:       cfg.WorkspaceID,
		PageLimit:         cfg.PageLimit,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRetries:        cfg.MaxRetries,
		Logger:            log,
	}), nil
}
