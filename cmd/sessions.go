package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/convert-progress/internal/storage/memory"
	"github.com/JakeFAU/convert-progress/internal/store"
)

type sessionsOptions struct {
	session string
	limit   int
	offset  int
}

func newSessionsCmd() *cobra.Command {
	opts := &sessionsOptions{}
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List watched sessions from the audit trail",
		Long: `Lists tracker runs recorded by watch. Runs only outlive the watch process
when db.dsn points at Postgres; without it the trail is kept in memory and a
separate sessions invocation sees nothing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if _, inMemory := a.Sessions.(*memory.SessionStore); inMemory {
				cmd.PrintErrln("note: db.dsn is not set; the audit trail only covers this process")
			}
			runs, err := a.Sessions.ListSessions(cmd.Context(), opts.session, opts.limit, opts.offset)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			return writeSessions(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().StringVar(&opts.session, "session", "", "only runs for this session id")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum rows")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "rows to skip")
	return cmd
}

var statusColors = map[store.RunStatus]*color.Color{
	store.RunRunning:  color.New(color.FgCyan),
	store.RunComplete: color.New(color.FgGreen),
	store.RunFailed:   color.New(color.FgRed),
	store.RunDisposed: color.New(color.FgYellow),
}

func writeSessions(out io.Writer, runs []store.SessionRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "no sessions recorded")
		return err
	}
	table := tablewriter.NewWriter(out)
	table.Header("Tracker", "Session", "Status", "Overall", "Snapshots", "Started", "Duration", "Error")
	for _, run := range runs {
		status := string(run.Status)
		if c, ok := statusColors[run.Status]; ok {
			status = c.Sprint(status)
		}
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		errMsg := ""
		if run.ErrorMessage != nil {
			errMsg = *run.ErrorMessage
		}
		row := []string{
			run.TrackerID.String(),
			run.SessionID,
			status,
			fmt.Sprintf("%d%%", run.LastOverall),
			fmt.Sprintf("%d", run.Snapshots),
			run.StartedAt.Local().Format(time.DateTime),
			duration,
			errMsg,
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("append session row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	return nil
}
