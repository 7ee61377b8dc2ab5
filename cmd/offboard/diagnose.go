package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nvoss/chatgpt-offboard/internal/api"
	"github.com/nvoss/chatgpt-offboard/internal/config"
)

func diagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Probe the conversation endpoints read-only and report counts",
		Long: `Queries the same endpoints the exporter uses, without writing any files.
Use this to check what an export run would see: listing counts, archived
conversations, and whether each Project folder's endpoint responds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			client, err := newClient(cfg, log)
			if err != nil {
				return err
			}

			fmt.Println("=== Account ===")
			if cfg.WorkspaceID != "" {
				fmt.Printf("  Workspace: %s\n", cfg.WorkspaceID)
			} else {
				fmt.Println("  Workspace: (not set; personal account)")
			}

			fmt.Println("\n=== Conversations ===")
			active, err := client.ListConversations(ctx, false)
			if err != nil {
				return fmt.Errorf("list conversations: %w", err)
			}
			archived, err := client.ListConversations(ctx, true)
			if err != nil {
				fmt.Printf("  archived listing failed: %v\n", err)
			}

			regular, gpt, project := 0, 0, 0
			projectIDs := map[string]struct{}{}
			for _, c := range append(active, archived...) {
				switch {
				case api.IsProject(c.GizmoID):
					project++
					projectIDs[c.GizmoID] = struct{}{}
				case c.GizmoID != "":
					gpt++
				default:
					regular++
				}
			}
			fmt.Printf("  Active:         %d\n", len(active))
			fmt.Printf("  Archived:       %d\n", len(archived))
			fmt.Printf("  Regular:        %d\n", regular)
			fmt.Printf("  GPT-tagged:     %d\n", gpt)
			fmt.Printf("  Project-tagged: %d\n", project)

			for _, id := range cfg.ProjectIDs {
				projectIDs[id] = struct{}{}
			}

			if len(projectIDs) == 0 {
				fmt.Println("\n=== Projects ===\n  none found")
				return nil
			}

			ids := make([]string, 0, len(projectIDs))
			for id := range projectIDs {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			fmt.Printf("\n=== Projects (%d) ===\n", len(projectIDs))
			for _, id := range ids {
				name := client.GizmoName(ctx, id)
				convos, err := client.ListProjectConversations(ctx, id)
				if err != nil {
					fmt.Printf("  %s (%s): ERROR %v\n", name, id, err)
					continue
				}
				fmt.Printf("  %s (%s): %d conversation(s)\n", name, id, len(convos))
				if len(convos) > 0 {
					fmt.Printf("    first title: %s\n", convos[0].Title)
				}
			}

			return nil
		},
	}
}
