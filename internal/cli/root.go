// Package cli wires the dvcs subcommands onto a cobra root command.
package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/trailmark/dvcs/internal/repo"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dvcs",
		Short: "A version control system for large datasets",
		Long: `dvcs tracks large, mixed binary-and-tabular datasets with the same
content-addressed, Merkle-tree storage model a source code VCS applies to
text, plus a staging area, stash, and three-way merge.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newInitCmd(),
		newAddCmd(),
		newResetCmd(),
		newStashCmd(),
	)

	return cmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			_, err = repo.Init(absPath)
			return err
		},
	}
}

// relArg resolves a CLI path argument (relative to the caller's working
// directory) to a path relative to the repository root.
func relArg(r *repo.Repository, path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return r.RelPath(absPath)
}
