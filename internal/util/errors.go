package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the error kinds spec.md §7 enumerates.
var (
	ErrNotARepository        = errors.New("not a dvcs repository (or any parent up to mount point)")
	ErrAlreadyInitialized    = errors.New("dvcs repository already exists")
	ErrNothingStaged         = errors.New("nothing staged")
	ErrFileNotFound          = errors.New("file not found")
	ErrPathNotInRepo         = errors.New("path is outside repository")
	ErrHashMismatch          = errors.New("stored blob failed to verify")
	ErrMustBeOnBranchToStash = errors.New("must be on a branch to stash")
	ErrNoStashesFound        = errors.New("no stashes found")
	ErrStashIDNotFound       = errors.New("stash id not found")
	ErrCorruptStashCommit    = errors.New("stash commit has no parent")
	ErrMergeConflict         = errors.New("merge conflict detected")
	ErrFileNotInHead         = errors.New("file not in head")
)

// RepoError is a structured, operator-facing error with context and
// suggestions, following the teacher's PgitError shape.
type RepoError struct {
	Title       string
	Message     string
	Context     string
	Causes      []string
	Suggestions []string
	Err         error
}

func (e *RepoError) Error() string {
	return e.Title
}

func (e *RepoError) Unwrap() error {
	return e.Err
}

// Format returns a nicely formatted, multi-line error message.
func (e *RepoError) Format() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Title))

	if e.Message != "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Message))
	}
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf("\n  %s\n", e.Context))
	}
	if len(e.Causes) > 0 {
		sb.WriteString("\n  Possible causes:\n")
		for _, cause := range e.Causes {
			sb.WriteString(fmt.Sprintf("    • %s\n", cause))
		}
	}
	if len(e.Suggestions) > 0 {
		sb.WriteString("\n  Try:\n")
		for _, sug := range e.Suggestions {
			sb.WriteString(fmt.Sprintf("    $ %s\n", sug))
		}
	}
	return sb.String()
}

func NewError(title string) *RepoError {
	return &RepoError{Title: title}
}

func (e *RepoError) WithMessage(msg string) *RepoError {
	e.Message = msg
	return e
}

func (e *RepoError) WithContext(ctx string) *RepoError {
	e.Context = ctx
	return e
}

func (e *RepoError) WithCause(cause string) *RepoError {
	e.Causes = append(e.Causes, cause)
	return e
}

func (e *RepoError) WithCauses(causes ...string) *RepoError {
	e.Causes = append(e.Causes, causes...)
	return e
}

func (e *RepoError) WithSuggestion(sug string) *RepoError {
	e.Suggestions = append(e.Suggestions, sug)
	return e
}

func (e *RepoError) WithSuggestions(sugs ...string) *RepoError {
	e.Suggestions = append(e.Suggestions, sugs...)
	return e
}

func (e *RepoError) Wrap(err error) *RepoError {
	e.Err = err
	return e
}

// NotARepoError returns a structured error for "not a repository".
func NotARepoError() *RepoError {
	return NewError("Not a dvcs repository").
		WithMessage("No .dvcs directory found in current directory or any parent").
		WithSuggestions(
			"dvcs init              # Initialize a new repository",
			"cd /path/to/repo       # Change to an existing repository",
		)
}

// StashIDNotFoundError returns a structured error for an unresolved stash id.
func StashIDNotFoundError(id string) *RepoError {
	return NewError(fmt.Sprintf("Stash '%s' not found", id)).
		WithCauses(
			"The stash index is out of range",
			"The stash was already popped or dropped",
		).
		WithSuggestions("dvcs stash list       # View the stash stack").
		Wrap(ErrStashIDNotFound)
}

// MissingConfigError indicates missing configuration values needed to author
// a commit or stash.
type MissingConfigError struct {
	Fields []string
}

func (e *MissingConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("missing configuration: ")
	sb.WriteString(strings.Join(e.Fields, ", "))
	sb.WriteString("\n\nPlease set in .dvcs/config.toml:\n")
	for _, field := range e.Fields {
		sb.WriteString(fmt.Sprintf("  %s = \"Your Value\"\n", field))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
