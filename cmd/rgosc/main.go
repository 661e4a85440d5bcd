// rgosc - RGOS configuration compiler
//
// Parses RGOS running configurations, reports what it could not understand,
// and emits a vendor-neutral model of interfaces, VRFs, static routes, BGP,
// OSPF and routing policy.
//
// Examples:
//
//	rgosc compile edge1.cfg                     # canonical YAML on stdout
//	rgosc compile -o json configs/*.cfg         # JSON, one document per file
//	rgosc compile --publish --strict edge1.cfg  # write to Redis, fail on warnings
//	rgosc fetch 10.0.0.1                        # pull over SSH, then compile
//	rgosc refs edge1.cfg                        # undefined and unused structures
//	rgosc history --failures                    # compile history
package main

import (
	"fmt"
	"io"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/newtron-network/rgosc/pkg/audit"
	"github.com/newtron-network/rgosc/pkg/settings"
	"github.com/newtron-network/rgosc/pkg/util"
	"github.com/newtron-network/rgosc/pkg/version"
)

// App holds state shared by the commands.
type App struct {
	settings     *settings.Settings
	settingsPath string
	verbose      bool
	jsonLogs     bool
	out          io.Writer
	errOut       io.Writer
}

var app = &App{out: os.Stdout, errOut: os.Stderr}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:               "rgosc",
	Short:             "RGOS configuration compiler",
	Version:           version.Info(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if app.jsonLogs {
			util.SetJSONFormat()
		}

		path := app.settingsPath
		if path == "" {
			path = settings.DefaultSettingsPath()
		}
		s, err := settings.LoadFrom(path)
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			s = &settings.Settings{}
		}
		app.settings = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&app.jsonLogs, "log-json", false, "Log in JSON")
	rootCmd.PersistentFlags().StringVar(&app.settingsPath, "settings", "", "Settings file (default ~/.rgosc/settings.json)")

	rootCmd.AddCommand(compileCmd, fetchCmd, refsCmd, historyCmd, settingsCmd, versionCmd)
}

// openHistory opens the audit log named by the settings. A failure disables
// history without failing the command.
func (a *App) openHistory() *audit.FileLogger {
	l, err := audit.NewFileLogger(a.settings.GetAuditLog(), audit.RotationConfig{
		MaxSize:    10 * 1024 * 1024,
		MaxBackups: 5,
	})
	if err != nil {
		util.Warnf("Could not initialize compile history: %v", err)
		return nil
	}
	return l
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

// exitError carries a process exit code out of RunE.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func exitCode(err error) int {
	if ee, ok := err.(*exitError); ok {
		return ee.code
	}
	return 1
}
