package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/newtron-network/rgosc/pkg/audit"
	"github.com/newtron-network/rgosc/pkg/compiler"
	"github.com/newtron-network/rgosc/pkg/fetch"
)

var (
	fetchOpts    compileOptions
	fetchUser    string
	fetchTimeout time.Duration
	fetchSaveTo  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <host>...",
	Short: "Fetch running configurations over SSH and compile them",
	Long:  `Fetch the running configuration of one or more RGOS devices over SSH
with password authentication, then compile it.

The password is read from the terminal, or from RGOSC_SSH_PASSWORD when set.

Examples:
  rgosc fetch 10.0.0.1
  rgosc fetch -u ops --save-dir ./configs edge1 edge2:2222`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := fetchUser
		if user == "" {
			user = app.settings.GetSSHUser()
		}
		password, err := readPassword(user)
		if err != nil {
			return err
		}
		f := &fetch.SSHFetcher{User: user, Password: password, Timeout: fetchTimeout}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		units := make([]compiler.Unit, 0, len(args))
		for _, host := range args {
			hctx, cancel := context.WithTimeout(ctx, fetchTimeout+30*time.Second)
			text, err := f.Fetch(hctx, host)
			cancel()
			if err != nil {
				return err
			}
			if fetchSaveTo != "" {
				if err := saveFetched(fetchSaveTo, host, text); err != nil {
					return err
				}
			}
			units = append(units, compiler.Unit{Name: host, Text: text})
		}
		return app.run(ctx, units, audit.CommandFetch, fetchOpts)
	},
}

func init() {
	addCompileFlags(fetchCmd, &fetchOpts)
	fetchCmd.Flags().StringVarP(&fetchUser, "user", "u", "", "SSH user (default from settings)")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 30*time.Second, "SSH connect timeout")
	fetchCmd.Flags().StringVar(&fetchSaveTo, "save-dir", "", "Also save fetched configurations to this directory")
}

func readPassword(user string) (string, error) {
	if p := os.Getenv("RGOSC_SSH_PASSWORD"); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for password prompt; set RGOSC_SSH_PASSWORD")
	}
	fmt.Fprintf(app.errOut, "Password for %s: ", user)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(app.errOut)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

func saveFetched(dir, host, text string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := fmt.Sprintf("%s/%s.cfg", dir, sanitizeHost(host))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("saving %s: %w", host, err)
	}
	return nil
}

func sanitizeHost(host string) string {
	out := []byte(host)
	for i, c := range out {
		switch c {
		case ':', '/', '[', ']':
			out[i] = '_'
		}
	}
	return string(out)
}
