package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const patch = `diff --git a/dates.go b/dates.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/dates.go
@@ -0,0 +1,3 @@
+package dates
+
+func Format() string { return "" }
`

// resetFlags puts every flag back to its default; the command tree is
// shared between tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfgFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"adapter", "review", "check", "serve", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "adaptsim dev (commit none, built unknown)\n", out)
}

func TestAdapterJSON(t *testing.T) {
	out, err := run(t, "adapter", "execution", "--role", "qa", "--level", "senior")
	require.NoError(t, err)

	var got struct {
		Metadata struct {
			Role  string `json:"role"`
			Level string `json:"level"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "qa", got.Metadata.Role)
	assert.Equal(t, "senior", got.Metadata.Level)
}

func TestAdapterYAMLFallback(t *testing.T) {
	out, err := run(t, "adapter", "planning", "-r", "astronaut", "-f", "yaml", "--tier", "co_facilitator")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	meta, ok := got["metadata"].(map[string]any)
	require.True(t, ok, "metadata missing from %s", out)
	assert.Equal(t, "developer", meta["role"])
	assert.Equal(t, "intern", meta["level"])
	assert.Equal(t, "co_facilitator", meta["tier"])
}

func TestAdapterErrors(t *testing.T) {
	_, err := run(t, "adapter", "karaoke")
	assert.ErrorContains(t, err, "unknown domain")

	_, err = run(t, "adapter", "retro", "-f", "toml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestAdapterList(t *testing.T) {
	out, err := run(t, "adapter", "list")
	require.NoError(t, err)
	for _, want := range []string{"Domains", "planning", "emerging_leader", "developer"} {
		assert.Contains(t, out, want)
	}
}

func TestCheckJSON(t *testing.T) {
	out, err := run(t, "check", "--format", "json", "--skip", "determinism")
	if err != nil {
		assert.Less(t, ExitCode(err), 2, "embedded registries should not audit with errors: %v", err)
	}

	var got struct {
		Checked int    `json:"checked"`
		Max     string `json:"max"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Positive(t, got.Checked)
	assert.NotEqual(t, "error", got.Max)
}

func TestCheckFailsOnBrokenRegistry(t *testing.T) {
	dir := t.TempDir()
	override := map[string]any{
		"levels": map[string]any{
			"senior": map[string]any{
				"prReview": map[string]any{
					"showExampleResponses": map[string]any{"sometimes": true},
				},
			},
		},
	}
	raw, err := yaml.Marshal(override)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "execution.yaml"), raw, 0o644))

	_, err = run(t, "check", "--registry-dir", dir, "--skip", "distributions,ranges,fallback,determinism")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}

func TestCheckUnknownFormat(t *testing.T) {
	_, err := run(t, "check", "--format", "html")
	assert.ErrorContains(t, err, "unknown format")
}

func TestReviewJSON(t *testing.T) {
	out, err := run(t, "review", "--diff", writePatch(t), "--json", "--seed", "5", "--level", "mid")
	require.NoError(t, err)

	var got struct {
		Version int    `json:"version"`
		Level   string `json:"level"`
		Anchors []struct {
			File string `json:"file"`
		} `json:"anchors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "mid", got.Level)
	require.Len(t, got.Anchors, 1)
	assert.Equal(t, "dates.go", got.Anchors[0].File)
}

func TestReviewStat(t *testing.T) {
	out, err := run(t, "review", "--diff", writePatch(t), "--stat")
	require.NoError(t, err)
	assert.Contains(t, out, "1 file(s) changed, 3 insertions(+), 0 deletions(-)")
	assert.Contains(t, out, "A dates.go")
}

func TestReviewDisabledRole(t *testing.T) {
	_, err := run(t, "review", "--json", "--role", "pm", "--diff", writePatch(t))
	assert.ErrorContains(t, err, "review_disabled")
}

func TestConfigErrorsSurface(t *testing.T) {
	_, err := run(t, "version", "--log-level", "chatty")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(&ExitError{Code: 2}))
	assert.Equal(t, 1, ExitCode(assert.AnError))
}

func writePatch(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "change.patch")
	require.NoError(t, os.WriteFile(path, []byte(patch), 0o644))
	return path
}
