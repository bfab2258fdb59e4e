// Package diff reads the change a learner submits for review and turns it
// into anchors that reviewer threads can point at.
package diff

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// File is one changed file of a submission.
type File struct {
	OldName      string
	NewName      string
	IsNew        bool
	IsDeleted    bool
	IsRenamed    bool
	IsBinary     bool
	Fragments    []*gitdiff.TextFragment
	AddedLines   int
	DeletedLines int
}

// Path is the path a reviewer would comment on: the new name unless the
// file was deleted.
func (f *File) Path() string {
	if f.IsDeleted || f.NewName == "" {
		return f.OldName
	}
	return f.NewName
}

// Name is the display name, showing both sides of a rename.
func (f *File) Name() string {
	if f.IsRenamed {
		return fmt.Sprintf("%s -> %s", f.OldName, f.NewName)
	}
	return f.Path()
}

// Submission is a parsed unified diff.
type Submission struct {
	Files []*File
	Raw   string
}

// Stats returns the file count and the added and deleted line totals.
func (s *Submission) Stats() (files, added, deleted int) {
	files = len(s.Files)
	for _, f := range s.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// Empty reports whether the submission changes nothing reviewable.
func (s *Submission) Empty() bool {
	for _, f := range s.Files {
		if !f.IsBinary && len(f.Fragments) > 0 {
			return false
		}
	}
	return true
}

// Parse reads a unified diff.
func Parse(raw string) (*Submission, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	sub := &Submission{Raw: raw}
	for _, f := range parsed {
		df := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
			Fragments: f.TextFragments,
		}
		for _, frag := range f.TextFragments {
			df.AddedLines += int(frag.LinesAdded)
			df.DeletedLines += int(frag.LinesDeleted)
		}
		sub.Files = append(sub.Files, df)
	}
	return sub, nil
}

// FromGit returns the diff of rev (a commit or a range such as
// "main...HEAD") in repoDir.
func FromGit(ctx context.Context, repoDir, rev string, contextLines int) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", fmt.Sprintf("-U%d", contextLines), rev)
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("git diff %s: %s", rev, strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("git diff %s: %w", rev, err)
	}
	return string(out), nil
}
