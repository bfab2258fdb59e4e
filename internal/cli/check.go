package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/adaptsim/internal/audit"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit every role, level and tier combination",
	Long: `Compose every domain for every role, level and tier combination and
run the audit passes over the results. Useful in CI after editing the
registries with --registry-dir.

Passes: ` + strings.Join(audit.PassNames(), ", ") + `

Exit codes:
  0  clean, or informational findings only
  1  warnings found
  2  errors found`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
	checkCmd.Flags().StringSlice("skip", nil, "audit passes to skip")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	skip, _ := cmd.Flags().GetStringSlice("skip")

	svc, err := loadAdapters()
	if err != nil {
		return err
	}
	results, err := audit.Run(svc, skip)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = outputJSON(out, results)
	case "markdown":
		err = outputMarkdown(out, results)
	case "text":
		err = outputText(out, results)
	default:
		return fmt.Errorf("unknown format %q (want text, json or markdown)", format)
	}
	if err != nil {
		return err
	}

	if code := results.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

func sortedDomains(byDomain map[string][]audit.Finding) []string {
	domains := make([]string, 0, len(byDomain))
	for d := range byDomain {
		domains = append(domains, d)
	}
	slices.Sort(domains)
	return domains
}

func outputText(w io.Writer, results *audit.Results) error {
	fmt.Fprintf(w, "Checked %d combination(s): %s\n\n", results.Checked, results.Summary())

	if len(results.Findings) == 0 {
		return nil
	}

	bold := color.New(color.Bold).SprintFunc()
	byDomain := results.ByDomain()
	for _, domain := range sortedDomains(byDomain) {
		fmt.Fprintf(w, "  %s\n", bold(domain))
		for _, f := range byDomain[domain] {
			loc := f.Combo
			if f.Path != "" {
				loc += " " + f.Path
			}
			fmt.Fprintf(w, "    %s [%s] %s: %s\n", severityIcon(f.Severity), f.Pass, strings.TrimSpace(loc), f.Message)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func severityIcon(s audit.Severity) string {
	switch s {
	case audit.SeverityError:
		return color.New(color.FgRed, color.Bold).Sprint("! ")
	case audit.SeverityWarning:
		return color.New(color.FgYellow).Sprint("* ")
	default:
		return color.New(color.FgHiBlack).Sprint("- ")
	}
}

func outputJSON(w io.Writer, results *audit.Results) error {
	type jsonOutput struct {
		Summary  string          `json:"summary"`
		Max      string          `json:"max"`
		Checked  int             `json:"checked"`
		Total    int             `json:"total"`
		Findings []audit.Finding `json:"findings"`
	}

	out := jsonOutput{
		Summary:  results.Summary(),
		Max:      results.Max().String(),
		Checked:  results.Checked,
		Total:    len(results.Findings),
		Findings: results.Findings,
	}
	if out.Findings == nil {
		out.Findings = []audit.Finding{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func outputMarkdown(w io.Writer, results *audit.Results) error {
	fmt.Fprintf(w, "## Adapter Audit\n\n")
	fmt.Fprintf(w, "**%d** combination(s) checked | **Findings:** %d | **Max:** %s\n\n",
		results.Checked, len(results.Findings), results.Max())

	if len(results.Findings) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	fmt.Fprintln(w, "| Severity | Pass | Domain | Combination | Path | Message |")
	fmt.Fprintln(w, "|----------|------|--------|-------------|------|---------|")
	for _, f := range results.Findings {
		fmt.Fprintf(w, "| %s | %s | %s | %s | `%s` | %s |\n",
			f.Severity, f.Pass, f.Domain, f.Combo, f.Path, strings.ReplaceAll(f.Message, "|", `\|`))
	}
	return nil
}
