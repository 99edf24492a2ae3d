package main

import (
	"fmt"

	"github.com/oldfield/dashboard/config"
	"github.com/oldfield/dashboard/internal/database"
	"github.com/oldfield/dashboard/internal/services"
	"github.com/oldfield/dashboard/internal/util"
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Print the latest manifest per domain with its freshness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("%w: %v", errConfig, err)
			}
			staleness, err := config.LoadThresholds(cfg.StalenessConfig)
			if err != nil {
				return fmt.Errorf("%w: %v", errConfig, err)
			}

			st, err := database.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()

			thresholds := services.DefaultThresholds().Merge(staleness.ByDomain, staleness.Default)
			rows, err := services.NewHealthService(st, thresholds).LatestByDomain(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), util.RenderHealthTable(rows, util.DisplayLocation(cfg.DisplayTZ)))
			return nil
		},
	}
}
