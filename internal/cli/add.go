package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/trailmark/dvcs/internal/add"
	"github.com/trailmark/dvcs/internal/repo"
	"github.com/trailmark/dvcs/internal/ui"
	"github.com/trailmark/dvcs/internal/ui/styles"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Add file contents to the staging area",
		Long: `Add file contents to the staging area.

This command updates the staged entries using the current content found
in the working tree, to prepare the content staged for the next commit.
A path that no longer exists is staged as a removal. Patterns containing
*, ?, or [ are expanded as globs against both the working tree and the
head commit.

Use "dvcs add ." to add all changes in the current directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAdd,
	}

	cmd.Flags().BoolP("trust-mtime", "m", false, "Trust file modification time instead of rehashing unchanged-looking files")
	cmd.Flags().BoolP("verbose", "v", false, "Be verbose")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	trustMtime, _ := cmd.Flags().GetBool("trust-mtime")

	r, err := repo.Open()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	progressTotal := 0
	for _, path := range args {
		progressTotal += countCandidateFiles(r.AbsPath(path))
	}

	progressCh := make(chan add.AddProgress, 64)
	bar := ui.NewProgress("add", progressTotal)
	done := make(chan struct{})
	processed := 0
	go func() {
		defer close(done)
		for p := range progressCh {
			processed++
			bar.Update(processed)
			if verbose {
				fmt.Printf("add '%s' (%s)\n", p.Path, p.Status)
			}
		}
	}()

	total := &add.CumulativeStats{}
	for _, path := range args {
		stats, err := add.Add(ctx, r, path, add.Options{TrustMtime: trustMtime, Progress: progressCh})
		if err != nil {
			close(progressCh)
			<-done
			return fmt.Errorf("%s: %w", path, err)
		}
		if stats != nil {
			total.AddedFiles += stats.AddedFiles
			total.ModifiedFiles += stats.ModifiedFiles
			total.UnchangedFiles += stats.UnchangedFiles
			total.TotalBytes += stats.TotalBytes
		}
	}
	close(progressCh)
	<-done
	bar.Done()

	fmt.Println(styles.Cyanf("%d added, %d modified, %d unchanged", total.AddedFiles, total.ModifiedFiles, total.UnchangedFiles))
	return nil
}

// countCandidateFiles estimates how many files an add of path will touch,
// purely to size the progress bar up front; add itself walks the tree
// again to do the real work.
func countCandidateFiles(absPath string) int {
	if matches, err := filepath.Glob(absPath); err == nil && len(matches) > 0 {
		return len(matches)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 1
	}
	if !info.IsDir() {
		return 1
	}
	n := 0
	_ = filepath.WalkDir(absPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".dvcs" {
				return filepath.SkipDir
			}
			return nil
		}
		n++
		return nil
	})
	return n
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [path]...",
		Short: "Unstage files from the staging area",
		Long: `Remove entries from the staging area.

This does not modify the working directory, only the staging area.
Without arguments, unstages everything.`,
		RunE: runReset,
	}
}

func runReset(cmd *cobra.Command, args []string) error {
	r, err := repo.Open()
	if err != nil {
		return err
	}

	stagedHandle, err := r.OpenStagedRW()
	if err != nil {
		return err
	}
	defer stagedHandle.Close()

	if len(args) == 0 {
		if err := stagedHandle.DB.Clear(); err != nil {
			return err
		}
		fmt.Println("Unstaged all files")
		return nil
	}

	for _, path := range args {
		relPath, err := relArg(r, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if _, ok, err := stagedHandle.DB.Get(relPath); err != nil {
			return err
		} else if !ok {
			fmt.Printf("%s: %s\n", path, styles.Warningf("not staged"))
			continue
		}

		if err := stagedHandle.DB.Delete(relPath); err != nil {
			return err
		}
		fmt.Printf("Unstaged '%s'\n", relPath)
	}

	return nil
}
