package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/creator/macro"
	"github.com/ardnew/creator/pkg"
)

type testCLI struct {
	Workspace Workspace `embed:""`

	Build   Build   `cmd:"" default:"withargs"`
	Ninja   Ninja   `cmd:""`
	Run     Run     `cmd:""`
	Eval    Eval    `cmd:""`
	Vars    Vars    `cmd:""`
	Targets Targets `cmd:""`
	Init    Init    `cmd:""`
	Version Version `cmd:""`
}

const mainUnit = `
Name = "world"

target "stamp" {
  build {
    outputs = "stamp.txt"
    command = "touch $\"@"
  }
}

task "hello" {
  shell {
    command = "echo hi from $self"
  }
}
`

func project(t *testing.T, src string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main"+pkg.UnitExt), []byte(src), 0o644))

	return dir
}

func execute(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()

	var (
		cli testCLI
		out bytes.Buffer
	)

	ctx := t.Context()

	parser, err := kong.New(&cli,
		kong.Writers(&out, &out),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		kong.Vars{ConfigIdentifier: config},
	)
	require.NoError(t, err)

	ktx, err := parser.Parse(append([]string{"--no-profile"}, args...))
	require.NoError(t, err)

	ctx = WithContext(ctx, ktx)

	err = ktx.Run(ctx, &cli.Workspace)

	return out.String(), err
}

func TestEval(t *testing.T) {
	dir := project(t, mainUnit)

	out, err := execute(t, "", "-C", dir, "eval", "hello $Name $1", "x")
	require.NoError(t, err)
	assert.Equal(t, "hello world x\n", out)
}

func TestEval_Defines(t *testing.T) {
	dir := project(t, mainUnit)

	out, err := execute(t, "", "-C", dir, "-D", "Lit=$Name", "-M", "Mac=$Name", "eval", "$Lit/$Mac")
	require.NoError(t, err)
	assert.Equal(t, "$Name/world\n", out)

	_, err = execute(t, "", "-C", dir, "-D", "novalue", "eval", "x")
	require.ErrorIs(t, err, ErrDefineSyntax)
}

func TestEval_Strict(t *testing.T) {
	dir := project(t, mainUnit)

	_, err := execute(t, "", "-C", dir, "--strict", "eval", "$Nope")
	require.ErrorIs(t, err, macro.ErrUndefined)

	out, err := execute(t, "", "-C", dir, "eval", "[$Nope]")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestEval_Platform(t *testing.T) {
	dir := project(t, mainUnit)

	out, err := execute(t, "", "-C", dir, "--platform", "gcc", "--quote", "posix",
		"eval", "-L", "$CC $(objout main.o)")
	require.NoError(t, err)
	assert.Equal(t, "gcc -o 'main.o'\n", out)
}

func TestBuild(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	dir := project(t, mainUnit)

	out, err := execute(t, "", "-C", dir, "build")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "stamp.txt"))
	assert.Contains(t, out, "* main:stamp")
	assert.Contains(t, out, "finished")

	out, err = execute(t, "", "-C", dir, "build", "-S", "stamp")
	require.NoError(t, err)
	assert.NotContains(t, out, "* main:stamp")
}

func TestBuild_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	dir := project(t, `
target "bad" {
  build {
    outputs = "never"
    command = "exit 2"
  }
}
`)

	out, err := execute(t, "", "-C", dir)
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, out, "* main:bad")
	assert.Contains(t, out, "failed")
}

func TestBuild_UnknownTarget(t *testing.T) {
	dir := project(t, mainUnit)

	_, err := execute(t, "", "-C", dir, "build", "stmp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "stamp"`)
}

func TestNinja(t *testing.T) {
	dir := project(t, mainUnit)

	_, err := execute(t, "", "-C", dir, "ninja", "-N")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "build.ninja"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "rule main_stamp_0000")
	assert.Contains(t, string(data), "build main_stamp: phony")

	_, err = execute(t, "", "-C", dir, "ninja", "-N", "-o", "other.ninja")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "other.ninja"))
}

func TestNinja_NotFound(t *testing.T) {
	dir := project(t, mainUnit)
	t.Setenv("PATH", t.TempDir())

	_, err := execute(t, "", "-C", dir, "ninja")
	require.ErrorIs(t, err, ErrNinjaNotFound)
	assert.FileExists(t, filepath.Join(dir, "build.ninja"))
}

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	dir := project(t, mainUnit)

	out, err := execute(t, "", "-C", dir, "run", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "hi from main\n")

	_, err = execute(t, "", "-C", dir, "run", "missing")
	require.Error(t, err)
}

func TestVars(t *testing.T) {
	dir := project(t, mainUnit)

	out, err := execute(t, "", "-C", dir, "vars", "-f", "json", "--expand")
	require.NoError(t, err)

	var list []variable
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Contains(t, list, variable{Name: "Name", Source: "world", Value: "world"})
	assert.Contains(t, list, variable{Name: "self", Source: "main", Value: "main"})

	out, err = execute(t, "", "-C", dir, "vars", "--global")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Platform")
	assert.NotContains(t, out, "name: Name")
}

func TestTargets(t *testing.T) {
	dir := project(t, mainUnit)

	out, err := execute(t, "", "-C", dir, "targets")
	require.NoError(t, err)
	assert.Regexp(t, `main:stamp\s+target\s+setup`, out)
	assert.Regexp(t, `main:hello\s+task`, out)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, pkg.Name+" "+pkg.Version()+"\n", out)
}

func TestInit(t *testing.T) {
	config := filepath.Join(t.TempDir(), "config")

	_, err := execute(t, config, "--strict", "--quote", "posix", "init")
	require.NoError(t, err)

	data, err := os.ReadFile(config + ConfigExt)
	require.NoError(t, err)
	assert.Contains(t, string(data), "strict: true")
	assert.Contains(t, string(data), "quote: posix")
	assert.NotContains(t, string(data), "help")

	_, err = execute(t, config, "init")
	require.ErrorIs(t, err, ErrWriteConfig)
	require.ErrorIs(t, err, ErrFileExists)

	_, err = execute(t, config, "init", "--force")
	require.NoError(t, err)
}
