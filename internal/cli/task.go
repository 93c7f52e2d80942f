package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/session"
)

func newTaskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the task list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("task name cannot be empty")
			}
			st, logger, err := opts.openStore(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer st.Close()

			m := session.New(session.Config{Storage: st, Logger: logger})
			added, err := m.AddTask(name)
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "task %q already exists\n", name)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added task %q\n", name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, err := opts.openStore(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer st.Close()

			tasks, err := st.LoadTasks()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "no tasks")
				return nil
			}
			for i, t := range tasks {
				fmt.Fprintf(out, "%2d. %s\n", i+1, t)
			}
			return nil
		},
	})

	return cmd
}
