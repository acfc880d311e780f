package ninja

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/creator/macro"
	"github.com/ardnew/creator/platform"
	"github.com/ardnew/creator/unit"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "a$ b$:c$$d", EscapePath("a b:c$d"))
	assert.Equal(t, "echo $$HOME", Escape("echo $HOME"))
}

func TestCommandLine(t *testing.T) {
	tests := []struct{ in, want string }{
		{"gcc -c a.c", "gcc -c a.c"},
		{"mkdir -p out\n  gcc -c a.c\n", "mkdir -p out && gcc -c a.c"},
		{"one\r\n\n\ttwo\n", "one && two"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CommandLine(tt.in))
	}
}

func TestWriter_Multiline(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	w.Rule("r", "mkdir -p out\ntouch out/$$x", "")
	require.NoError(t, w.Err())
	assert.Equal(t, "rule r\n  command = mkdir -p out && touch out/$$$$x\n", buf.String())

	w.Variable("desc", "a\nb", 0)
	require.ErrorIs(t, w.Err(), ErrMultiline)
	assert.NotContains(t, buf.String(), "desc")
}

func TestIdent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"main:objects_0000", "main_objects_0000"},
		{"lib-1.0:a b", "lib_1_0_a_b"},
		{"plain_name", "plain_name"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Ident(tt.in))
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	w.Comment("one\ntwo")
	w.Rule("cc", "gcc -c $in", "CC $out")
	w.Build([]string{"a b.o"}, "cc", []string{"a.c"}, []string{"a.h"})
	w.Newline()
	require.NoError(t, w.Err())

	assert.Equal(t, strings.Join([]string{
		"# one",
		"# two",
		"rule cc",
		"  command = gcc -c $$in",
		"  description = CC $$out",
		"build a$ b.o: cc a.c | a.h",
		"",
		"",
	}, "\n"), buf.String())
}

type failWriter struct{ n int }

func (f *failWriter) Write(p []byte) (int, error) {
	f.n++

	return 0, errors.New("disk full")
}

func TestWriter_StickyError(t *testing.T) {
	f := &failWriter{}
	w := NewWriter(f)
	w.Comment("x")
	w.Newline()
	w.Rule("r", "c", "")

	require.EqualError(t, w.Err(), "disk full")
	assert.Equal(t, 1, f.n)
}

func setup(t *testing.T, files map[string]string) (*unit.Workspace, string) {
	t.Helper()

	dir := t.TempDir()

	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}

	ws, err := unit.New(t.Context(),
		unit.WithSearchPath(dir),
		unit.WithHost(platform.Host{Platform: "Linux", Standard: "Posix", Architecture: "x64"}),
		unit.WithQuoteStyle(macro.QuotePosix),
		unit.WithEnviron(nil),
		unit.WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
	)
	require.NoError(t, err)

	_, err = ws.Load(t.Context(), "main")
	require.NoError(t, err)
	require.NoError(t, ws.Setup(t.Context()))

	return ws, dir
}

const mainUnit = `
load "lib" {}

Sources = "a.c;b.c"

target "objects" {
  requires = ["lib:headers"]
  build {
    inputs  = "$Sources"
    outputs = "$(suffix $Sources,o)"
    command = "cc -c $< -o $@"
    each    = true
  }
}

target "windows" {
  when = "Platform == 'Windows'"
  build {
    outputs = "x.exe"
    command = "link"
  }
}
`

const libUnit = `
target "headers" {
  build {
    outputs = "gen.h"
    command = "gen > $@"
  }
}
`

func TestExport(t *testing.T) {
	ws, dir := setup(t, map[string]string{"main.crunit": mainUnit, "lib.crunit": libUnit})

	var buf bytes.Buffer
	require.NoError(t, Export(ws, &buf))

	out := buf.String()
	p := func(name string) string { return EscapePath(filepath.Join(dir, name)) }

	assert.Contains(t, out, "ninja_required_version = "+RequiredVersion)
	assert.Contains(t, out, "# Unit: lib")
	assert.Contains(t, out, "# Unit: main")
	assert.Contains(t, out, "rule lib_headers_0000\n")
	assert.Contains(t, out, "rule main_objects_0000\n")
	assert.Contains(t, out, "rule main_objects_0001\n")
	assert.Contains(t, out, "build "+p("a.o")+": main_objects_0000 "+p("a.c")+" "+p("gen.h")+"\n")
	assert.Contains(t, out, "build "+p("b.o")+": main_objects_0001 "+p("b.c")+" "+p("gen.h")+"\n")
	assert.Contains(t, out, "build main_objects: phony "+p("a.o")+" "+p("b.o")+"\n")
	assert.Contains(t, out, "build lib_headers: phony "+p("gen.h")+"\n")
	assert.NotContains(t, out, "main_windows")

	assert.Less(t, strings.Index(out, "# Unit: lib"), strings.Index(out, "# Unit: main"))
}

func TestExport_MultilineCommand(t *testing.T) {
	ws, dir := setup(t, map[string]string{
		"main.crunit": `
target "gen" {
  build {
    outputs = "out/gen.h"
    command = <<EOT
mkdir -p out
touch $@
EOT
  }
}
`,
	})

	var buf bytes.Buffer
	require.NoError(t, Export(ws, &buf))

	gen := Escape(filepath.Join(dir, "out", "gen.h"))
	assert.Contains(t, buf.String(), "  command = mkdir -p out && touch "+gen+"\n")
}

func TestExport_FailedTarget(t *testing.T) {
	ws, dir := setup(t, map[string]string{
		"main.crunit": `
target "bad" {
  build {
    outputs = "never"
    command = "exit 1"
  }
}
`,
	})

	u, ok := ws.Unit("main")
	require.True(t, ok)

	bad, err := ws.Target(u, "bad")
	require.NoError(t, err)

	if err := bad.Run(t.Context()); err == nil {
		t.Skip("shell did not fail")
	}

	path := filepath.Join(dir, "build.ninja")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	err = WriteFile(ws, path)
	require.ErrorIs(t, err, ErrStatus)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	var buf bytes.Buffer
	require.ErrorIs(t, Export(ws, &buf), ErrStatus)
	assert.Zero(t, buf.Len())
}

func TestWriteFile(t *testing.T) {
	ws, dir := setup(t, map[string]string{"main.crunit": mainUnit, "lib.crunit": libUnit})

	path := filepath.Join(dir, "build.ninja")
	require.NoError(t, WriteFile(ws, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "build main_objects: phony")

	matches, err := filepath.Glob(filepath.Join(dir, "build.ninja.*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
