package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/export"
	"github.com/sadopc/tomato/internal/store"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the session history to CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			if out == "" {
				out = fmt.Sprintf("tomato-export-%s.%s", time.Now().Format(store.DateLayout), format)
			}

			st, _, err := opts.openStore(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.LoadSessions()
			if err != nil {
				return err
			}
			if format == "csv" {
				err = export.ToCSV(records, out)
			} else {
				err = export.ToJSON(records, out)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d sessions to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default tomato-export-<date>.<format>)")
	return cmd
}
