package main

import (
	"fmt"
	"io"

	"github.com/oldfield/dashboard/config"
	"github.com/oldfield/dashboard/internal/database"
	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/services"
	"github.com/spf13/cobra"
)

type ingestOptions struct {
	file      string
	account   string
	sourceRef string
}

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load data from source files",
	}
	cmd.AddCommand(newIngestFinanceCmd())
	return cmd
}

func newIngestFinanceCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Replace the imported position snapshot from a workbook",
		Long: `Reads the workbook named by --file or FINANCE_XLSX_PATH, replaces the
account's imported positions, upserts watchlist securities and records a
FINANCE manifest. Flags override the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("%w: %v", errConfig, err)
			}
			in := config.LoadFinanceIngest().WithOverrides(opts.file, opts.account, opts.sourceRef)

			st, err := database.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := services.NewFinanceIngestService(st).Run(cmd.Context(), services.IngestRequest{
				Path:        in.Path,
				AccountName: in.AccountName,
				SourceRef:   in.SourceRef,
			})
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Workbook path (default FINANCE_XLSX_PATH)")
	cmd.Flags().StringVar(&opts.account, "account", "", "Account name (default FINANCE_ACCOUNT_NAME or "+config.DefaultFinanceAccount+")")
	cmd.Flags().StringVar(&opts.sourceRef, "source-ref", "", "Source reference (default FINANCE_SOURCE_REF or the file name)")
	return cmd
}

func printReport(w io.Writer, r *models.IngestReport) {
	fmt.Fprintf(w, "Account:   %s (id %d)\n", r.AccountName, r.AccountID)
	fmt.Fprintf(w, "Source:    %s\n", r.SourceRef)
	if r.WatchlistSheet != nil {
		fmt.Fprintf(w, "Sheets:    positions=%q watchlist=%q\n", r.PositionsSheet, *r.WatchlistSheet)
	} else {
		fmt.Fprintf(w, "Sheets:    positions=%q\n", r.PositionsSheet)
	}
	fmt.Fprintf(w, "Replaced:  %d previous positions\n", r.PositionsRemoved)
	fmt.Fprintf(w, "Status:    %s\n", r.Status)
	fmt.Fprintln(w, r.Message)

	if r.Skipped == 0 {
		return
	}
	n := min(r.Skipped, services.LoggedSkipReasons)
	fmt.Fprintf(w, "Skipped rows (%d). First %d:\n", r.Skipped, n)
	for _, s := range r.SkipReasons[:n] {
		fmt.Fprintf(w, " - %s\n", s.Message)
	}
}
