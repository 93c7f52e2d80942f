package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/session"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show time spent per task over recent days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			st, logger, err := opts.openStore(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.LoadSessions()
			if err != nil {
				logger.Warn("load sessions", "err", err)
			}

			lines := session.Summarize(records, time.Now(), days)
			out := cmd.OutOrStdout()
			if len(lines) == 0 {
				fmt.Fprintln(out, session.NoHistoryMessage)
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Task", "Minutes", "Total")
			for _, l := range lines {
				t.Row(l.Task, strconv.Itoa(l.Minutes), l.Duration)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", session.HistoryDays, "number of days before today to include")
	return cmd
}
