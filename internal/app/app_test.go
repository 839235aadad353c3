package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gridmake/internal/build"
	"github.com/specialistvlad/gridmake/internal/dag"
	"github.com/specialistvlad/gridmake/internal/hcl"
)

const copyChain = `
engine {
  default = ["a"]
}

target "b" {
  sources = ["c"]
  exec {
    command = "cp %src %dst"
  }
}

target "a" {
  sources = ["b"]
  exec {
    command = "cp %src %dst"
  }
}
`

type recordingLauncher struct {
	code int
	path string
	args []string
}

func (l *recordingLauncher) Launch(_ context.Context, path string, args []string) (int, error) {
	l.path = path
	l.args = args
	return l.code, nil
}

// project writes the build file and the named plain files into a fresh root.
func project(t *testing.T, buildFile string, files ...string) string {
	t.Helper()
	top := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(top, hcl.FileName), []byte(buildFile), 0o644))
	past := time.Now().Add(-time.Hour)
	for _, f := range files {
		path := filepath.Join(top, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(f), 0o644))
		require.NoError(t, os.Chtimes(path, past, past))
	}
	return top
}

func TestRun_BuildsChainThenNothing(t *testing.T) {
	top := project(t, copyChain, "c")

	testApp, console, _ := SetupAppTest(t, &Config{Dir: top, Targets: []string{"a"}})
	require.NoError(t, testApp.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(top, "a"))
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))
	assert.Equal(t,
		"cp "+filepath.Join(top, "c")+" "+filepath.Join(top, "b")+"\n"+
			"cp "+filepath.Join(top, "b")+" "+filepath.Join(top, "a")+"\n",
		console.String())

	again, console2, _ := SetupAppTest(t, &Config{Dir: top, Targets: []string{"a"}})
	require.NoError(t, again.Run(context.Background()))
	assert.Empty(t, console2.String())
}

func TestRun_FindsRootFromSubdirectory(t *testing.T) {
	top := project(t, copyChain, "c", "sub/dir/keep")

	testApp, _, _ := SetupAppTest(t, &Config{Dir: filepath.Join(top, "sub", "dir")})
	require.NoError(t, testApp.Run(context.Background()))

	assert.FileExists(t, filepath.Join(top, "a"), "the engine default is built when no target is named")
}

func TestRun_UsageErrors(t *testing.T) {
	noDefault := `
target "x" {
  sources = ["y"]
  touch {}
}
`
	testCases := []struct {
		name    string
		build   string
		noRoot  bool
		targets []string
		want    string
	}{
		{name: "no build file", noRoot: true, want: "build.hcl not found"},
		{name: "unknown targets", build: copyChain, targets: []string{"a", "nope", "zip"}, want: "nope"},
		{name: "no targets and no default", build: noDefault, want: "no targets specified"},
		{name: "invalid build file", build: `target "x" {`, want: "failed to parse HCL file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if !tc.noRoot {
				dir = project(t, tc.build, "c", "y")
			}

			testApp, console, _ := SetupAppTest(t, &Config{Dir: dir, Targets: tc.targets})
			err := testApp.Run(context.Background())

			var usage *UsageError
			require.ErrorAs(t, err, &usage)
			assert.ErrorContains(t, err, tc.want)
			assert.Empty(t, console.String(), "nothing is built before validation passes")
			assert.NoFileExists(t, filepath.Join(dir, "a"))
		})
	}
}

func TestRun_UnknownTargetsAreAllReported(t *testing.T) {
	top := project(t, copyChain, "c")

	testApp, _, _ := SetupAppTest(t, &Config{Dir: top, Targets: []string{"nope", "a", "zip"}})
	err := testApp.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrNotFound)
	assert.ErrorContains(t, err, "nope")
	assert.ErrorContains(t, err, "zip")
}

func TestRun_UnknownTargetSuggestsClosestName(t *testing.T) {
	// --- Arrange ---
	top := project(t, copyChain, "c")
	testApp, _, _ := SetupAppTest(t, &Config{Dir: top, Targets: []string{"bb"}})

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	assert.ErrorIs(t, err, dag.ErrNotFound)
	assert.ErrorContains(t, err, `did you mean "b"?`)
}

func TestSuggestTarget(t *testing.T) {
	known := []string{"classes/Main.class", "lib/tool.jar", "test/main.log"}

	assert.Equal(t, "lib/tool.jar", suggestTarget("lib/tool.jr", known))
	assert.Equal(t, "test/main.log", suggestTarget("test/main.lg", known))
	assert.Empty(t, suggestTarget("docs", known))
	assert.Empty(t, suggestTarget("x", nil))
}

func TestRun_DryRunLeavesTreeAlone(t *testing.T) {
	top := project(t, copyChain, "c")

	testApp, console, _ := SetupAppTest(t, &Config{Dir: top, DryRun: true, Verbose: true})
	require.NoError(t, testApp.Run(context.Background()))

	assert.NoFileExists(t, filepath.Join(top, "a"))
	assert.NoFileExists(t, filepath.Join(top, "b"))
	assert.Contains(t, console.String(), "Building in "+top)
	assert.Contains(t, console.String(), "a <= {b}")
}

func TestRun_BuildFailureIsNotAUsageError(t *testing.T) {
	top := project(t, `
target "a" {
  sources = ["c"]
  exec {
    command = "false"
  }
}
`, "c")

	testApp, _, _ := SetupAppTest(t, &Config{Dir: top, Targets: []string{"a"}})
	err := testApp.Run(context.Background())

	var stepErr *build.StepFailedError
	require.ErrorAs(t, err, &stepErr)
	var usage *UsageError
	assert.False(t, errors.As(err, &usage))
}

func TestRun_Bootstrap(t *testing.T) {
	selfBuild := `
engine {
  self = "bin/tool"
}

target "bin/tool" {
  sources = ["tool.src"]
  touch {}
}

target "out" {
  sources = ["in"]
  touch {}
}
`

	t.Run("stale tool is rebuilt and relaunched", func(t *testing.T) {
		top := project(t, selfBuild, "tool.src", "in")
		launcher := &recordingLauncher{code: 4}
		args := []string{"-k", "out"}

		testApp, _, _ := SetupAppTest(t, &Config{Dir: top, Args: args, Targets: []string{"out"}}, WithLauncher(launcher))
		err := testApp.Run(context.Background())

		var child *ChildExitError
		require.ErrorAs(t, err, &child)
		assert.Equal(t, 4, child.Code)
		assert.Equal(t, filepath.Join(top, "bin", "tool"), launcher.path)
		assert.Equal(t, args, launcher.args)
		assert.FileExists(t, filepath.Join(top, "bin", "tool"))
		assert.NoFileExists(t, filepath.Join(top, "out"), "the parent does not build")
	})

	t.Run("child builds in process", func(t *testing.T) {
		top := project(t, selfBuild, "tool.src", "in")
		launcher := &recordingLauncher{}

		testApp, _, _ := SetupAppTest(t, &Config{Dir: top, Targets: []string{"out"}}, WithLauncher(launcher), AsChild(true))
		require.NoError(t, testApp.Run(context.Background()))

		assert.Empty(t, launcher.path)
		assert.FileExists(t, filepath.Join(top, "out"))
	})

	t.Run("up to date tool builds in process", func(t *testing.T) {
		top := project(t, selfBuild, "tool.src", "in", "bin/tool")
		now := time.Now()
		require.NoError(t, os.Chtimes(filepath.Join(top, "bin", "tool"), now, now))
		launcher := &recordingLauncher{}

		testApp, _, _ := SetupAppTest(t, &Config{Dir: top, Targets: []string{"out"}}, WithLauncher(launcher))
		require.NoError(t, testApp.Run(context.Background()))

		assert.Empty(t, launcher.path)
		assert.FileExists(t, filepath.Join(top, "out"))
	})
}

func TestLeafSources(t *testing.T) {
	reg := dag.NewRegistry()
	c, err := reg.Source("c")
	require.NoError(t, err)
	d, err := reg.Source("d")
	require.NoError(t, err)
	b, err := reg.Register("b", []*dag.Node{c, d}, ' ', nil)
	require.NoError(t, err)
	a, err := reg.Register("a", []*dag.Node{b, c}, ' ', nil)
	require.NoError(t, err)

	got := leafSources("/top", []*dag.Node{a, b})

	assert.Equal(t, []string{filepath.Join("/top", "c"), filepath.Join("/top", "d")}, got)
}

func TestNewConfig_RejectsCleanWatch(t *testing.T) {
	_, err := NewConfig(Config{Clean: true, Watch: true})
	assert.Error(t, err)
}
