package main

import (
	"fmt"

	"github.com/neurodesk/hublc/pkg/hubl"
	"github.com/spf13/cobra"
)

var filtersCmd = cobra.Command{
	Use:   "filters",
	Short: "List the available template filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := hubl.DefaultFilters()
		for _, name := range reg.Names() {
			f, _ := reg.Lookup(name)
			switch {
			case f.Stub:
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tstub\n", name)
			case f.Deferred != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tdeferred\n", name)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		}
		return nil
	},
}
