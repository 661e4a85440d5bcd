package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/newtron-network/rgosc/pkg/audit"
	"github.com/newtron-network/rgosc/pkg/canonical"
	"github.com/newtron-network/rgosc/pkg/cli"
	"github.com/newtron-network/rgosc/pkg/compiler"
	"github.com/newtron-network/rgosc/pkg/store"
	"github.com/newtron-network/rgosc/pkg/util"
	"github.com/newtron-network/rgosc/pkg/warnings"
)

// compileOptions are the flags shared by compile and fetch.
type compileOptions struct {
	format     string
	workers    int
	metricsOut string
	publish    bool
	redisAddr  string
	redisDB    int
	strict     bool
	pedantic   bool
	noWarnings bool
	noHistory  bool
}

var compileOpts compileOptions

var compileCmd = &cobra.Command{
	Use:   "compile <file>...",
	Short: "Compile RGOS configuration files",
	Long:  `Compile one or more RGOS configuration files into the canonical model.

The canonical configuration is written to stdout; warnings go to stderr as a
table per file. Files are compiled concurrently; a file that fails does not
stop the others.

Exit status is 2 when any file failed and 3 when --strict is set and any file
raised a parse, red-flag or unimplemented warning.

Examples:
  rgosc compile edge1.cfg
  rgosc compile -o json --workers 8 configs/*.cfg
  rgosc compile --publish --redis 127.0.0.1:6379 edge1.cfg
  rgosc compile --metrics-out /var/lib/node_exporter/rgosc.prom configs/*.cfg`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		units := make([]compiler.Unit, 0, len(args))
		for _, path := range args {
			u, err := compiler.ReadUnit(path)
			if err != nil {
				return err
			}
			units = append(units, u)
		}
		return app.run(cmd.Context(), units, audit.CommandCompile, compileOpts)
	},
}

func addCompileFlags(cmd *cobra.Command, o *compileOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.format, "output", "o", "", "Output format: yaml or json (default from settings)")
	f.IntVar(&o.workers, "workers", 0, "Concurrent compilations (default from settings)")
	f.StringVar(&o.metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile")
	f.BoolVar(&o.publish, "publish", false, "Publish compiled configurations to Redis")
	f.StringVar(&o.redisAddr, "redis", "", "Redis address (default from settings)")
	f.IntVar(&o.redisDB, "redis-db", -1, "Redis database (default from settings)")
	f.BoolVar(&o.strict, "strict", false, "Exit non-zero when any warning is raised")
	f.BoolVar(&o.pedantic, "pedantic", false, "Include pedantic warnings")
	f.BoolVar(&o.noWarnings, "no-warnings", false, "Do not print warning tables")
	f.BoolVar(&o.noHistory, "no-history", false, "Do not record compile history")
}

func init() {
	addCompileFlags(compileCmd, &compileOpts)
}

// run compiles units and handles output, publishing, metrics and history.
func (a *App) run(ctx context.Context, units []compiler.Unit, command audit.Command, o compileOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format := o.format
	if format == "" {
		format = a.settings.GetFormat()
	}
	if format != "yaml" && format != "json" {
		return fmt.Errorf("output format %q (want yaml or json): %w", format, util.ErrUnsupported)
	}
	workers := o.workers
	if workers <= 0 {
		workers = a.settings.GetWorkers()
	}

	reg := prometheus.NewRegistry()
	metrics := compiler.NewMetrics(reg)
	results := compiler.CompileAll(ctx, units, compiler.Options{Workers: workers, Metrics: metrics})

	var pub *store.Publisher
	if o.publish {
		addr := o.redisAddr
		if addr == "" {
			addr = a.settings.GetRedisAddr()
		}
		db := o.redisDB
		if db < 0 {
			db = a.settings.RedisDB
		}
		pub = store.NewPublisher(addr, db)
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			return err
		}
	}

	var events []*audit.Event
	if !o.noHistory {
		if history := a.openHistory(); history != nil {
			defer history.Close()
			defer func() { a.record(history, events) }()
		}
	}

	warned := 0
	for i, res := range results {
		event := audit.NewEvent(currentUser(), command, res.Unit.Name).
			WithDuration(res.Duration).
			WithWarnings(res.Warnings)

		if res.Err != nil {
			fmt.Fprintf(a.errOut, "%s: %s: %v\n", res.Unit.Name, cli.Status(false), res.Err)
			events = append(events, event.WithError(res.Err))
			continue
		}
		event.WithHostname(res.Hostname()).WithSuccess()

		if err := a.writeConfig(res.Config, format, i); err != nil {
			return err
		}
		if res.Warnings.Len() > 0 {
			warned++
		}
		if !o.noWarnings {
			a.writeWarnings(res, o.pedantic)
		}

		if pub != nil {
			n, err := pub.Publish(ctx, res.Config)
			if err != nil {
				events = append(events, event.WithError(err))
				return err
			}
			event.WithPublished(true)
			fmt.Fprintf(a.errOut, "%s: published %d rows for %s\n", res.Unit.Name, n, res.Config.Hostname)
		}
		events = append(events, event)
	}

	if o.metricsOut != "" {
		if err := metrics.WriteTextfile(o.metricsOut); err != nil {
			return err
		}
	}

	if failed := compiler.Failed(results); failed > 0 {
		return &exitError{code: 2, msg: fmt.Sprintf("%d of %d units failed", failed, len(results))}
	}
	if o.strict && warned > 0 {
		return &exitError{code: 3, msg: fmt.Sprintf("%d of %d units raised warnings", warned, len(results))}
	}
	return nil
}

func (a *App) writeConfig(c *canonical.Configuration, format string, index int) error {
	data, err := canonical.Marshal(c, format)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", c.Hostname, err)
	}
	if format == "yaml" && index > 0 {
		fmt.Fprintln(a.out, "---")
	}
	_, err = a.out.Write(data)
	if err == nil && !strings.HasSuffix(string(data), "\n") {
		_, err = fmt.Fprintln(a.out)
	}
	return err
}

func (a *App) writeWarnings(res *compiler.Result, pedantic bool) {
	counts := res.Warnings.Counts()
	if !pedantic {
		delete(counts, warnings.KindPedantic)
	}
	fmt.Fprintf(a.errOut, "%s (%s): %s\n", res.Unit.Name, res.Hostname(), cli.Summary(counts))
	cli.WriteWarnings(a.errOut, res.Warnings, pedantic)
}

// record writes the events of one invocation as a single history run.
func (a *App) record(l *audit.FileLogger, events []*audit.Event) {
	if err := l.LogRun(events); err != nil {
		fmt.Fprintf(a.errOut, "warning: recording history: %v\n", err)
	}
}
