package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trailmark/dvcs/internal/repo"
	"github.com/trailmark/dvcs/internal/stash"
	"github.com/trailmark/dvcs/internal/ui/styles"
	"github.com/trailmark/dvcs/internal/util"
)

func newStashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Stash the changes in a dirty working directory away",
	}

	saveCmd := &cobra.Command{
		Use:   "save [message]",
		Short: "Save the current working-tree state to a new stash and reset to HEAD",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStashSave,
	}

	applyCmd := &cobra.Command{
		Use:   "apply [stash]",
		Short: "Apply a stash's changes onto the working tree without removing it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStashApply,
	}

	popCmd := &cobra.Command{
		Use:   "pop [stash]",
		Short: "Apply a stash's changes and remove it if the apply was clean",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStashPop,
	}

	dropCmd := &cobra.Command{
		Use:   "drop [stash]",
		Short: "Remove a stash without applying it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStashDrop,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all stashes",
		Args:  cobra.NoArgs,
		RunE:  runStashClear,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stashes",
		Args:  cobra.NoArgs,
		RunE:  runStashList,
	}

	cmd.AddCommand(saveCmd, applyCmd, popCmd, dropCmd, clearCmd, listCmd)
	// A bare "stash" (no subcommand) behaves like "stash save" with no message.
	cmd.RunE = runStashSave
	cmd.Args = cobra.MaximumNArgs(1)

	return cmd
}

func stashArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ""
}

func runStashSave(cmd *cobra.Command, args []string) error {
	r, err := repo.Open()
	if err != nil {
		return err
	}

	message := stashArg(args)
	commit, ok, err := stash.Save(r, message)
	if err != nil {
		if errors.Is(err, util.ErrMustBeOnBranchToStash) {
			return errors.New("cannot stash: HEAD does not point at a commit yet")
		}
		return err
	}
	if !ok {
		fmt.Println("No local changes to save")
		return nil
	}

	fmt.Printf("Saved working directory state %s\n", styles.FormatHash(commit.ID, true))
	return nil
}

func runStashApply(cmd *cobra.Command, args []string) error {
	r, err := repo.Open()
	if err != nil {
		return err
	}

	hasConflicts, err := stash.Apply(r, stashArg(args))
	if err != nil && !errors.Is(err, util.ErrMergeConflict) {
		return err
	}
	if hasConflicts {
		fmt.Println(styles.Warningf("Applied with conflicts; resolve them and commit"))
		return nil
	}
	fmt.Println(styles.Successf("Applied stash cleanly"))
	return nil
}

func runStashPop(cmd *cobra.Command, args []string) error {
	r, err := repo.Open()
	if err != nil {
		return err
	}

	hasConflicts, err := stash.Pop(r, stashArg(args))
	if err != nil && !errors.Is(err, util.ErrMergeConflict) {
		return err
	}
	if hasConflicts {
		fmt.Println(styles.Warningf("Applied with conflicts; resolve them and commit. Stash was kept"))
		return nil
	}
	fmt.Println(styles.Successf("Applied stash cleanly and dropped it"))
	return nil
}

func runStashDrop(cmd *cobra.Command, args []string) error {
	r, err := repo.Open()
	if err != nil {
		return err
	}
	if err := stash.Drop(r, stashArg(args)); err != nil {
		return err
	}
	fmt.Println("Dropped stash")
	return nil
}

func runStashClear(cmd *cobra.Command, args []string) error {
	r, err := repo.Open()
	if err != nil {
		return err
	}
	if err := stash.Clear(r); err != nil {
		return err
	}
	fmt.Println("Cleared all stashes")
	return nil
}

func runStashList(cmd *cobra.Command, args []string) error {
	r, err := repo.Open()
	if err != nil {
		return err
	}
	entries, err := stash.List(r)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No stashes found")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s: %s\n", styles.Cyanf("%s", e.Name), e.Commit.MessageFirstLine())
	}
	return nil
}
