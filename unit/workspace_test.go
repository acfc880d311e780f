package unit

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/creator/macro"
	"github.com/ardnew/creator/pkg"
	"github.com/ardnew/creator/platform"
)

func writeUnits(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}

	return dir
}

func newWorkspace(t *testing.T, dir string, opts ...Option) (*Workspace, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	base := []Option{
		WithSearchPath(dir),
		WithHost(platform.Host{Platform: "Linux", Standard: "Posix", Architecture: "x64"}),
		WithQuoteStyle(macro.QuotePosix),
		WithEnviron(nil),
		WithOutput(&out, &out),
	}

	w, err := New(t.Context(), append(base, opts...)...)
	require.NoError(t, err)

	return w, &out
}

func mustEval(t *testing.T, u *Unit, text string) string {
	t.Helper()

	out, err := u.Eval(text)
	require.NoError(t, err)

	return out
}

func TestWorkspace_LoadVariables(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"main.crunit": `
CC = "cc"

macros {
  CFlags = "-Wall"
  Cmd    = "$CC $CFlags"
}

define "CFlags" {
  value  = "-O2"
  append = true
}

define "CC" {
  value   = "gcc"
  default = true
}

define "Literal" {
  value = "$CC"
  raw   = true
}

define "Debug" {
  value = "1"
  when  = "Platform == 'Linux' && defined('CC')"
}

define "Release" {
  value = "1"
  when  = "Platform == 'Windows'"
}
`,
	})

	w, _ := newWorkspace(t, dir)

	u, err := w.Load(t.Context(), "main")
	require.NoError(t, err)

	assert.Equal(t, "main", mustEval(t, u, "$self"))
	assert.Equal(t, dir, mustEval(t, u, "$ProjectPath"))
	assert.Equal(t, "cc -Wall -O2", mustEval(t, u, "$Cmd"))
	assert.Equal(t, "$CC", mustEval(t, u, "$Literal"))
	assert.Equal(t, "1", mustEval(t, u, "$Debug"))
	assert.False(t, u.Store().Defined("Release"))
	assert.Equal(t, "Linux x64", mustEval(t, u, "$Platform $Architecture"))

	again, err := w.Load(t.Context(), "main")
	require.NoError(t, err)
	assert.Same(t, u, again)
}

func TestWorkspace_HCLContext(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"main.crunit": `
Where = "${unit.dir}"
Name  = upper("${unit.id}")
Brace = "$${Where}"
`,
	})

	w, _ := newWorkspace(t, dir)

	u, err := w.Load(t.Context(), "main")
	require.NoError(t, err)

	assert.Equal(t, dir, mustEval(t, u, "$Where"))
	assert.Equal(t, "MAIN", mustEval(t, u, "$Name"))
	assert.Equal(t, dir, mustEval(t, u, "$Brace"))
}

func TestWorkspace_Namespaces(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"main.crunit": `
load "lib" {
  alias = "l"
}

Local = "main"
Both  = "$l:Name $lib:Name $Local"
`,
		"libs/lib.crunit": `
Name  = "lib-$Local"
Local = "lib"
`,
	})

	w, _ := newWorkspace(t, dir)

	u, err := w.Load(t.Context(), "main")
	require.NoError(t, err)

	assert.Equal(t, "lib-lib lib-lib main", mustEval(t, u, "$Both"))

	ids := make([]string, 0)
	for _, u := range w.Units() {
		ids = append(ids, u.ID())
	}

	assert.Equal(t, []string{"lib", "main"}, ids)
}

func TestWorkspace_Extends(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"main.crunit": `
extends "base" {}

define "CFlags" {
  value  = "-g"
  append = true
}
`,
		"base.crunit": `
CFlags = "-Wall"
`,
	})

	w, _ := newWorkspace(t, dir)

	u, err := w.Load(t.Context(), "main")
	require.NoError(t, err)

	assert.Equal(t, "-Wall -g", mustEval(t, u, "$CFlags"))

	base, ok := w.Unit("base")
	require.True(t, ok)
	assert.Equal(t, "-Wall", mustEval(t, base, "$CFlags"))
}

func TestWorkspace_LoadCycle(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"a.crunit": `load "b" {}`,
		"b.crunit": `load "a" {}`,
	})

	w, _ := newWorkspace(t, dir)

	_, err := w.Load(t.Context(), "a")
	require.ErrorIs(t, err, ErrLoadCycle)
	assert.Equal(t, pkg.KindCycle, pkg.KindOf(err))
	assert.Contains(t, err.Error(), "a → b → a")

	_, ok := w.Unit("a")
	assert.False(t, ok)
}

func TestWorkspace_UnitNotFound(t *testing.T) {
	w, _ := newWorkspace(t, t.TempDir())

	_, err := w.Load(t.Context(), "missing")
	require.ErrorIs(t, err, ErrUnitNotFound)

	_, err = w.Load(t.Context(), "bad name")
	require.ErrorIs(t, err, ErrIdentifier)
}

func TestWorkspace_Platform(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"main.crunit": `
platform {}

Compile = "$CC $(objout main.o)"
`,
	})

	w, _ := newWorkspace(t, dir)

	u, err := w.Load(t.Context(), "main")
	require.NoError(t, err)

	assert.Equal(t, platform.StateLoaded, w.Platform().State())
	assert.Equal(t, "gcc -o 'main.o'", mustEval(t, u, "$Compile"))
}

func TestWorkspace_PlatformOverride(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"main.crunit": `
platform {
  table = "gcc"
}
`,
	})

	w, _ := newWorkspace(t, dir,
		WithHost(platform.Host{Platform: "BeOS", Architecture: "x86"}))

	_, err := w.Load(t.Context(), "main")
	require.NoError(t, err)
	assert.Equal(t, "gcc", w.Platform().Table())
}

func TestWorkspace_Messages(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"main.crunit": `
info "hello $Platform" {}

warn "never shown" {
  when = "Platform == 'Windows'"
}

warn "careful" {}
`,
	})

	w, out := newWorkspace(t, dir)

	_, err := w.Load(t.Context(), "main")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "creator: [main] hello Linux")
	assert.Contains(t, out.String(), "creator: [main] careful")
	assert.NotContains(t, out.String(), "never shown")
}

func TestWorkspace_ScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
		text string
	}{
		{"syntax", `define "x" {`, ErrScript, ""},
		{"unknown block", `targt "x" {}`, ErrScript, `did you mean "target"`},
		{"labels", `define {}`, ErrScript, "requires 1 label"},
		{"value and shell", "define \"x\" {\n value = \"a\"\n shell = \"b\"\n}", ErrScript, "exactly one"},
		{"condition", "define \"x\" {\n value = \"a\"\n when = \"Platform +\"\n}", ErrCondition, ""},
		{"macro syntax", `X = "$(quote a"`, macro.ErrSyntax, ""},
		{"duplicate", "task \"t\" {}\ntask \"t\" {}", ErrDuplicate, ""},
		{"task argument", "task \"t\" {\n bogus = 1\n}", ErrScript, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeUnits(t, map[string]string{"main.crunit": tt.src})
			w, _ := newWorkspace(t, dir)

			_, err := w.Load(t.Context(), "main")
			require.ErrorIs(t, err, tt.want)

			if tt.text != "" {
				assert.Contains(t, err.Error(), tt.text)
			}
		})
	}
}

func TestWorkspace_Profile(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"profile.crunit": `Global = "yes"`,
		"main.crunit":    `Seen = "$Global"`,
	})

	w, _ := newWorkspace(t, dir, WithProfile(filepath.Join(dir, "profile.crunit")))

	v, err := w.Store().Get("Global")
	require.NoError(t, err)
	assert.Equal(t, "yes", v)

	u, err := w.Load(t.Context(), "main")
	require.NoError(t, err)
	assert.Equal(t, "yes", mustEval(t, u, "$Seen"))

	_, err = New(t.Context(), WithSearchPath(dir), WithProfile(filepath.Join(dir, "absent")))
	require.NoError(t, err)
}

func TestWorkspace_Strict(t *testing.T) {
	dir := writeUnits(t, map[string]string{"main.crunit": `X = "$Undefined"`})

	w, _ := newWorkspace(t, dir, WithStrict(true))

	u, err := w.Load(t.Context(), "main")
	require.NoError(t, err)

	_, err = u.Eval("$X")
	require.ErrorIs(t, err, macro.ErrUndefined)
}

func TestWorkspace_DefineShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	dir := writeUnits(t, map[string]string{
		"main.crunit": `
Word = "abc"

define "Rev" {
  shell = "echo $Word"
}
`,
	})

	w, _ := newWorkspace(t, dir)

	u, err := w.Load(t.Context(), "main")
	require.NoError(t, err)
	assert.Equal(t, "abc", mustEval(t, u, "$Rev"))
}

func TestMainUnit(t *testing.T) {
	dir := writeUnits(t, map[string]string{"app.crunit": ""})

	id, err := Main(dir)
	require.NoError(t, err)
	assert.Equal(t, "app", id)

	_, err = Main(t.TempDir())
	require.ErrorIs(t, err, ErrNoMainUnit)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.crunit"), nil, 0o644))

	_, err = Main(dir)
	require.ErrorIs(t, err, ErrNoMainUnit)
}

func TestFind(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"top.crunit":        "",
		"nested/sub.crunit": "",
	})

	path, err := Find("top", []string{dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "top.crunit"), path)

	path, err = Find("sub", []string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "sub.crunit"), path)

	_, err = Find("absent", []string{dir})
	require.ErrorIs(t, err, ErrUnitNotFound)
}

func TestSearchPath(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	env := t.TempDir()

	t.Setenv(pkg.PathEnv, env+string(os.PathListSeparator)+filepath.Join(env, "missing"))

	path := SearchPath(first, second)
	assert.Equal(t, []string{".", first, second, env}, path)

	t.Setenv(pkg.PathEnv, "")
	assert.Equal(t, []string{"."}, SearchPath())
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("lib-1.0_x"))
	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("a:b"))
	assert.False(t, ValidIdentifier("a b"))
}
