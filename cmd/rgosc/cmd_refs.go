package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/rgosc/pkg/cli"
	"github.com/newtron-network/rgosc/pkg/compiler"
	"github.com/newtron-network/rgosc/pkg/refs"
)

var refsJSON bool

var refsCmd = &cobra.Command{
	Use:   "refs <file>",
	Short: "Report undefined and unused structures",
	Long:  `Compile a file and report references to structures that are never
defined (route-maps, prefix-lists, peer-groups, tracks...) and definitions
nothing references.

Examples:
  rgosc refs edge1.cfg
  rgosc refs --json edge1.cfg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := compiler.ReadUnit(args[0])
		if err != nil {
			return err
		}
		res := compiler.Compile(context.Background(), u)
		if res.Err != nil {
			return res.Err
		}
		return app.writeRefs(res.Refs, refsJSON)
	},
}

func init() {
	refsCmd.Flags().BoolVar(&refsJSON, "json", false, "JSON output")
}

type refsReport struct {
	Undefined []refs.Reference  `json:"undefined"`
	Forward   []refs.Reference  `json:"forward"`
	Unused    []refs.Definition `json:"unused"`
}

func (a *App) writeRefs(tr *refs.Tracker, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(refsReport{
			Undefined: tr.Undefined(),
			Forward:   tr.ForwardReferences(),
			Unused:    tr.Unused(),
		})
	}

	fmt.Fprintln(a.out, cli.Bold("Undefined references"))
	if cli.WriteUndefined(a.out, tr) == 0 {
		fmt.Fprintln(a.out, "  none")
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, cli.Bold("Unused definitions"))
	if cli.WriteUnused(a.out, tr) == 0 {
		fmt.Fprintln(a.out, "  none")
	}
	return nil
}
