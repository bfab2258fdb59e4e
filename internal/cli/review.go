package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprite-ai/adaptsim/internal/diff"
	"github.com/sprite-ai/adaptsim/internal/model"
	"github.com/sprite-ai/adaptsim/internal/session"
	"github.com/sprite-ai/adaptsim/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review [commit-range]",
	Short: "Open a simulated pull-request review",
	Long: `Submit a change for a simulated pull-request review. Reviewers comment
on the hunks of the diff according to the learner's role and level; the
review is then worked through interactively: respond to threads, record
test runs, request re-review, approve and merge.

By default the working tree is diffed against HEAD.

Examples:
  adaptsim review                          # working tree vs HEAD
  adaptsim review HEAD~1..HEAD --level mid # last commit
  git diff main | adaptsim review -        # pipe any diff
  adaptsim review --diff change.patch --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringP("role", "r", string(model.DefaultRole), "learner role")
	reviewCmd.Flags().StringP("level", "l", string(model.DefaultLevel), "learner level")
	reviewCmd.Flags().Uint64("seed", 0, "seed for drafted reviewer comments (0 uses the configured seed)")
	reviewCmd.Flags().String("diff", "", "read the submission from a patch file")
	reviewCmd.Flags().IntP("context", "C", 3, "lines of context around changes")
	reviewCmd.Flags().Bool("stat", false, "print diff stats and exit (non-interactive)")
	reviewCmd.Flags().Bool("json", false, "print the opened session as JSON and exit (non-interactive)")
	reviewCmd.Flags().String("style", "dracula", "syntax highlighting style")
}

func runReview(cmd *cobra.Command, args []string) error {
	raw, err := readSubmission(cmd, args)
	if err != nil {
		return err
	}

	stat, _ := cmd.Flags().GetBool("stat")
	if stat {
		sub, err := diff.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing diff: %w", err)
		}
		return printStat(cmd.OutOrStdout(), sub)
	}

	adapters, err := loadAdapters()
	if err != nil {
		return err
	}
	sessions := newSessions(adapters)

	role, _ := cmd.Flags().GetString("role")
	level, _ := cmd.Flags().GetString("level")
	req := session.StartRequest{Role: role, Level: level, Diff: raw}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		req.Seed = &seed
	}

	sess, err := sessions.Start(req)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return writeValue(cmd.OutOrStdout(), "json", sess)
	}

	style, _ := cmd.Flags().GetString("style")
	final, err := tui.Run(sessions.Store(), sessions.Lifecycle(), sess, diff.NewHighlighter(style))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), tui.Summary(final))
	return nil
}

// readSubmission returns the diff named by the flags and arguments. Outside
// a git repository with nothing given, the review opens without a diff.
func readSubmission(cmd *cobra.Command, args []string) (string, error) {
	if path, _ := cmd.Flags().GetString("diff"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading diff: %w", err)
		}
		return string(data), nil
	}

	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	repoDir, err := gitRepoRoot(ctx)
	if err != nil {
		if len(args) == 1 {
			return "", fmt.Errorf("not in a git repository (or git not installed): %w", err)
		}
		logger.Warn("not in a git repository; reviewing without a diff", zap.Error(err))
		return "", nil
	}

	rev := "HEAD"
	if len(args) == 1 {
		rev = args[0]
	}
	contextLines, _ := cmd.Flags().GetInt("context")
	return diff.FromGit(ctx, repoDir, rev, contextLines)
}

func printStat(w io.Writer, sub *diff.Submission) error {
	files, added, deleted := sub.Stats()
	fmt.Fprintf(w, "%d file(s) changed, %d insertions(+), %d deletions(-)\n\n", files, added, deleted)
	for _, f := range sub.Files {
		status := "M"
		if f.IsNew {
			status = "A"
		} else if f.IsDeleted {
			status = "D"
		} else if f.IsRenamed {
			status = "R"
		}
		fmt.Fprintf(w, "  %s %-50s +%-4d -%d\n", status, f.Name(), f.AddedLines, f.DeletedLines)
	}
	return nil
}

func gitRepoRoot(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
