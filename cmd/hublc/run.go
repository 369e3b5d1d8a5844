package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/neurodesk/hublc/pkg/hubl"
	"github.com/neurodesk/hublc/pkg/session"
	"github.com/neurodesk/hublc/pkg/starlark"
	"github.com/spf13/cobra"
)

// errScriptFailed is returned after a script error has been reported.
var errScriptFailed = errors.New("script failed")

var runVars bool

var runCmd = cobra.Command{
	Use:   "run [SCRIPT|-]",
	Short: "Run a Starlark script and print its output",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		src, err := readScript(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		rt := starlark.New()
		ready := rt.Initialize(ctx)
		if !rt.Ready() {
			fmt.Fprintln(cmd.ErrOrStderr(), "Loading runtime...")
			select {
			case <-ready:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var store *session.Store
		var scope *hubl.Scope
		if runVars {
			if store, err = openSession(); err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			renderer, err := newRenderer(store)
			if err != nil {
				return err
			}
			scope = renderer.Scope
			rt.LoadScope(scope)
		}

		output, runErr := rt.Run(ctx, src)
		fmt.Fprint(out, output)
		if runErr != nil {
			fmt.Fprintf(out, "Error:\n%s\n", starlark.Backtrace(runErr))
			return errScriptFailed
		}
		if store != nil {
			rt.ExportScope(scope)
			if err := store.Save(scope); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
		}
		return nil
	},
}

func readScript(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading script: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(b), nil
}
