package cli

import (
	"fmt"

	"form_filler/domain/entities"
	"form_filler/infrastructure/config"
	"form_filler/infrastructure/storage"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newReportCmd shows a saved run report, the latest one unless an id is given.
func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report [run-id]",
		Short: "Print a saved run report as JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			store, err := storage.NewRunStore(cfg.ReportDir)
			if err != nil {
				return err
			}

			var report *entities.Report
			if len(args) == 1 {
				report, err = store.LoadReport(args[0])
			} else {
				report, err = store.LatestReport()
			}
			if err != nil {
				return err
			}
			if report == nil {
				return fmt.Errorf("no run reports found")
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
