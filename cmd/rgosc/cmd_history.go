package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/rgosc/pkg/audit"
	"github.com/newtron-network/rgosc/pkg/cli"
)

var (
	historyRun      string
	historyHost     string
	historyFile     string
	historyUser     string
	historyLast     string
	historyLimit    int
	historyFailures bool
	historyWarned   bool
	historyJSON     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show compile history",
	Long:  `Show the compile history, newest first.

Examples:
  rgosc history --host edge1
  rgosc history --last 24h --warned
  rgosc history --failures
  rgosc history --run 1760000000000000000-1 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Run:          historyRun,
			Hostname:     historyHost,
			File:         historyFile,
			User:         historyUser,
			FailureOnly:  historyFailures,
			WithWarnings: historyWarned,
			NewestFirst:  true,
			Limit:        historyLimit,
		}
		if historyLast != "" {
			d, err := time.ParseDuration(historyLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", historyLast)
			}
			filter.StartTime = time.Now().Add(-d)
		}

		l := app.openHistory()
		if l == nil {
			return fmt.Errorf("compile history unavailable at %s", app.settings.GetAuditLog())
		}
		defer l.Close()
		events, err := l.Query(filter)
		if err != nil {
			return fmt.Errorf("querying history: %w", err)
		}
		return app.writeHistory(events, historyJSON)
	},
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyRun, "run", "", "Filter by run ID (one rgosc invocation)")
	f.StringVar(&historyHost, "host", "", "Filter by hostname")
	f.StringVar(&historyFile, "file", "", "Filter by file or fetched host")
	f.StringVar(&historyUser, "user", "", "Filter by user")
	f.StringVar(&historyLast, "last", "", "Show events from last duration (e.g., 24h)")
	f.IntVar(&historyLimit, "limit", 50, "Maximum events to show")
	f.BoolVar(&historyFailures, "failures", false, "Show only failed compilations")
	f.BoolVar(&historyWarned, "warned", false, "Show only compilations with red flags or unimplemented notes")
	f.BoolVar(&historyJSON, "json", false, "JSON output")
}

func (a *App) writeHistory(events []*audit.Event, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(a.out).Encode(events)
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No compile history found")
		return nil
	}
	t := cli.NewTable(a.out, "timestamp", "user", "command", "file", "hostname", "status", "warnings", "duration")
	for _, e := range events {
		status := cli.Status(e.Success)
		if e.Published {
			status += " (published)"
		}
		t.Row(
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.User,
			string(e.Command),
			e.File,
			e.Hostname,
			status,
			cli.Summary(e.Warnings),
			e.Duration.Round(time.Millisecond).String(),
		)
	}
	t.Flush()
	return nil
}
