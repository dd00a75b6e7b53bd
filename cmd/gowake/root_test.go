package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fgeck/gowake/internal/mac"
	"github.com/fgeck/gowake/internal/services/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every flag in the command tree back to its default so
// values set by one execution do not reach the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs the command tree against a registry in a temp dir and
// returns what was written to stdout.
func execute(t *testing.T, regPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--quiet", "--registry", regPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func tempRegistry(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "machines.yaml")
}

func TestList_Empty(t *testing.T) {
	out, err := execute(t, tempRegistry(t), "list")

	require.NoError(t, err)
	assert.Equal(t, "No machines found in registry\n", out)
}

func TestAddThenList(t *testing.T) {
	path := tempRegistry(t)

	_, err := execute(t, path, "add", "office", "01-23-45-67-89-ab")
	require.NoError(t, err)
	_, err = execute(t, path, "add", "nas", "b0:6e:bf:30:70:3a")
	require.NoError(t, err)

	out, err := execute(t, path, "ls")
	require.NoError(t, err)
	assert.Equal(t, "office  01:23:45:67:89:AB\nnas     B0:6E:BF:30:70:3A\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `office: "01:23:45:67:89:ab"`)
}

func TestAdd_InvalidMAC(t *testing.T) {
	path := tempRegistry(t)

	tests := []struct {
		name  string
		input string
	}{
		{"too few groups", "01:23:45:67:89"},
		{"too many groups", "01:23:45:67:89:ab:cd"},
		{"not hex", "01:23:45:67:89:zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, path, "add", "office", tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, mac.ErrInvalidFormat)
			assert.NotErrorIs(t, err, mac.ErrInvalidLength)
			assert.NoFileExists(t, path)
		})
	}
}

func TestAdd_Duplicate(t *testing.T) {
	path := tempRegistry(t)

	_, err := execute(t, path, "add", "office", "01:23:45:67:89:ab")
	require.NoError(t, err)
	_, err = execute(t, path, "add", "office", "01:23:45:67:89:ac")

	assert.ErrorIs(t, err, registry.ErrDuplicateName)
}

func TestAdd_WrongArgCount(t *testing.T) {
	_, err := execute(t, tempRegistry(t), "add", "office")

	assert.Error(t, err)
}

func TestEdit(t *testing.T) {
	path := tempRegistry(t)

	_, err := execute(t, path, "add", "office", "01:23:45:67:89:ab")
	require.NoError(t, err)
	_, err = execute(t, path, "edit", "office", "01.23.45.67.89.ac")
	require.NoError(t, err)

	out, err := execute(t, path, "list")
	require.NoError(t, err)
	assert.Equal(t, "office  01:23:45:67:89:AC\n", out)
}

func TestEdit_NotFound(t *testing.T) {
	_, err := execute(t, tempRegistry(t), "edit", "office", "01:23:45:67:89:ab")

	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRemove_PartiallyMissing(t *testing.T) {
	path := tempRegistry(t)

	_, err := execute(t, path, "add", "office", "01:23:45:67:89:ab")
	require.NoError(t, err)
	_, err = execute(t, path, "add", "nas", "b0:6e:bf:30:70:3a")
	require.NoError(t, err)

	_, err = execute(t, path, "rm", "office", "garage")
	require.Error(t, err)
	var nf *registry.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"garage"}, nf.Names)

	out, err := execute(t, path, "list")
	require.NoError(t, err)
	assert.Equal(t, "nas  B0:6E:BF:30:70:3A\n", out)
}

func TestWake_FlagsDoNotCarryOver(t *testing.T) {
	path := tempRegistry(t)

	_, err := execute(t, path, "-n", "-b", "127.0.0.1:9", "not-a-mac")
	assert.ErrorIs(t, err, mac.ErrInvalidFormat)
	assert.True(t, nameAsMAC)

	// Without -n the argument is a name again and the broadcast default is back.
	_, err = execute(t, path, "not-a-mac")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	assert.False(t, nameAsMAC)
	assert.Equal(t, "255.255.255.255:9", broadcastAddr)
	assert.False(t, rootCmd.Flags().Lookup("bcast-addr").Changed)
}

func TestWake_UnknownName(t *testing.T) {
	_, err := execute(t, tempRegistry(t), "office")

	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestList_CorruptRegistry(t *testing.T) {
	path := tempRegistry(t)
	require.NoError(t, os.WriteFile(path, []byte("machines: [not, a, mapping]\n"), 0o600))

	_, err := execute(t, path, "list")

	assert.ErrorIs(t, err, registry.ErrConfigCorrupt)
}
