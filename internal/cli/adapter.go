package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/model"
)

var adapterCmd = &cobra.Command{
	Use:   "adapter <domain>",
	Short: "Compose the adapter of a domain for a role and level",
	Long:  `Compose one domain's adapter for a role, level and (planning only) tier,
and print it as JSON or YAML. Unknown roles, levels and tiers fall back to
developer, intern and observer; substitutions are reported on stderr.

Examples:
  adaptsim adapter execution --role qa --level senior
  adaptsim adapter planning -r pm -l mid --tier co_facilitator -f yaml
  adaptsim adapter list`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: adapter.Domains(),
	RunE:      runAdapter,
}

var adapterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List domains, roles, levels and tiers",
	Args:  cobra.NoArgs,
	RunE:  runAdapterList,
}

func init() {
	adapterCmd.Flags().StringP("role", "r", string(model.DefaultRole), "learner role")
	adapterCmd.Flags().StringP("level", "l", string(model.DefaultLevel), "learner level")
	adapterCmd.Flags().String("tier", "", "planning tier")
	adapterCmd.Flags().StringP("format", "f", "json", "output format: json, yaml")
	adapterCmd.AddCommand(adapterListCmd)
}

func runAdapter(cmd *cobra.Command, args []string) error {
	domain := args[0]
	if !slices.Contains(adapter.Domains(), domain) {
		return fmt.Errorf("unknown domain %q (want one of %s)", domain, strings.Join(adapter.Domains(), ", "))
	}

	role, _ := cmd.Flags().GetString("role")
	level, _ := cmd.Flags().GetString("level")
	tier, _ := cmd.Flags().GetString("tier")
	format, _ := cmd.Flags().GetString("format")
	if domain != adapter.DomainPlanning {
		tier = ""
	}

	svc, err := loadAdapters()
	if err != nil {
		return err
	}
	a, err := svc.Adapter(domain, role, level, tier)
	if err != nil {
		return err
	}

	_, subs := adapter.Resolve(role, level, tier)
	yellow := color.New(color.FgYellow).SprintFunc()
	for _, s := range subs {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", yellow("fallback:"), s)
	}

	return writeValue(cmd.OutOrStdout(), format, a)
}

func writeValue(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func runAdapterList(cmd *cobra.Command, args []string) error {
	svc, err := loadAdapters()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintln(out, cyan("Domains"))
	for _, name := range adapter.Domains() {
		d, ok := svc.Catalog().Domain(name)
		if !ok {
			continue
		}
		note := ""
		if d.HasTiers() {
			note = gray(" (tiers)")
		}
		fmt.Fprintf(out, "  %s%s\n", name, note)
	}

	list := func(title string, items []string) {
		fmt.Fprintf(out, "\n%s\n  %s\n", cyan(title), strings.Join(items, ", "))
	}
	list("Roles", stringsOf(model.AllRoles()))
	list("Levels", stringsOf(model.AllLevels()))
	list("Tiers", stringsOf(model.AllTiers()))
	return nil
}

func stringsOf[T ~string](xs []T) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = string(x)
	}
	return out
}
