package unit

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/creator/pkg"
)

func loadMain(t *testing.T, files map[string]string, opts ...Option) (*Workspace, *Unit, string) {
	t.Helper()

	dir := writeUnits(t, files)
	w, _ := newWorkspace(t, dir, opts...)

	u, err := w.Load(t.Context(), "main")
	require.NoError(t, err)

	return w, u, dir
}

func TestTarget_SetupEach(t *testing.T) {
	w, u, dir := loadMain(t, map[string]string{
		"main.crunit": `
Sources = "src/a.c;src/b.c"

target "objects" {
  build {
    inputs  = "$Sources"
    outputs = "$(suffix $Sources,o)"
    command = "cc -c $\"< -o $\"@"
    each    = true
  }
}
`,
	})

	require.NoError(t, w.Setup(t.Context()))

	tg, err := w.Target(u, "objects")
	require.NoError(t, err)
	assert.Equal(t, StatusSetup, tg.Status())
	assert.Equal(t, "main:objects", tg.Identifier())

	a, b := filepath.Join(dir, "src", "a"), filepath.Join(dir, "src", "b")

	require.Len(t, tg.Commands(), 2)
	assert.Equal(t, Command{
		Inputs:  []string{a + ".c"},
		Outputs: []string{a + ".o"},
		Command: "cc -c '" + a + ".c' -o '" + a + ".o'",
	}, tg.Commands()[0])
	assert.Equal(t, []string{b + ".o"}, tg.Commands()[1].Outputs)
}

func TestTarget_SetupJoined(t *testing.T) {
	w, u, dir := loadMain(t, map[string]string{
		"main.crunit": `
target "lib" {
  build {
    inputs    = "a.o;b.o"
    outputs   = "libx.a"
    auxiliary = "x.h"
    command   = "ar rcs $@ $(split $<)"
  }
}
`,
	})

	tg, err := w.Target(u, "main:lib")
	require.NoError(t, err)
	require.NoError(t, tg.Setup(t.Context()))

	require.Len(t, tg.Commands(), 1)
	c := tg.Commands()[0]
	assert.Equal(t, []string{filepath.Join(dir, "x.h")}, c.Auxiliary)
	assert.Equal(t,
		"ar rcs "+filepath.Join(dir, "libx.a")+" "+filepath.Join(dir, "a.o")+" "+filepath.Join(dir, "b.o"),
		c.Command)
}

func TestTarget_Requires(t *testing.T) {
	w, u, _ := loadMain(t, map[string]string{
		"main.crunit": `
load "lib" {
  alias = "l"
}

target "app" {
  requires = ["l:static"]
  build {
    outputs = "app"
    command = "link"
  }
}
`,
		"lib.crunit": `
target "static" {
  build {
    outputs = "lib.a"
    command = "archive"
  }
}
`,
	})

	app, err := w.Target(u, "app")
	require.NoError(t, err)
	require.NoError(t, app.Setup(t.Context()))

	require.Len(t, app.Dependencies(), 1)
	assert.Equal(t, "lib:static", app.Dependencies()[0].Identifier())
	assert.Equal(t, StatusSetup, app.Dependencies()[0].Status())

	var ids []string
	for _, tg := range w.Targets() {
		ids = append(ids, tg.Identifier())
	}

	assert.Equal(t, []string{"lib:static", "main:app"}, ids)
}

func TestTarget_RequiresCycle(t *testing.T) {
	w, _, _ := loadMain(t, map[string]string{
		"main.crunit": `
target "a" {
  requires = ["b"]
  build {
    outputs = "a"
    command = "x"
  }
}

target "b" {
  requires = ["a"]
  build {
    outputs = "b"
    command = "x"
  }
}
`,
	})

	err := w.Setup(t.Context())
	require.ErrorIs(t, err, ErrRequiresCycle)
	assert.Equal(t, pkg.KindCycle, pkg.KindOf(err))

	var perr *pkg.Error
	require.True(t, errors.As(err, &perr))

	chain, ok := perr.Attr("chain")
	require.True(t, ok)
	assert.Equal(t, "main:a → main:b → main:a", chain.String())
}

func TestTarget_Skipped(t *testing.T) {
	w, u, _ := loadMain(t, map[string]string{
		"main.crunit": `
target "win" {
  when = "Platform == 'Windows'"
  build {
    outputs = "x.exe"
    command = "link"
  }
}
`,
	})

	require.NoError(t, w.Setup(t.Context()))

	tg, err := w.Target(u, "win")
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, tg.Status())
	assert.Empty(t, tg.Commands())
}

func TestTarget_SetupErrors(t *testing.T) {
	tests := []struct {
		name  string
		build string
		want  error
	}{
		{"file count", "inputs = \"a;b\"\n outputs = \"c\"\n command = \"x\"\n each = true", ErrFileCount},
		{"no outputs", "inputs = \"a\"\n outputs = \"\"\n command = \"x\"", ErrNoOutputs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, u, _ := loadMain(t, map[string]string{
				"main.crunit": "target \"t\" {\n build {\n " + tt.build + "\n }\n}\n",
			})

			tg, err := w.Target(u, "t")
			require.NoError(t, err)

			require.ErrorIs(t, tg.Setup(t.Context()), tt.want)
			assert.Equal(t, StatusFailed, tg.Status())
		})
	}
}

func TestWorkspace_TargetNotFound(t *testing.T) {
	w, u, _ := loadMain(t, map[string]string{
		"main.crunit": `
target "objects" {
  build {
    outputs = "x"
    command = "x"
  }
}
`,
	})

	_, err := w.Target(u, "objets")
	require.ErrorIs(t, err, ErrTargetNotFound)
	assert.Contains(t, err.Error(), `did you mean "objects"`)

	_, err = w.Target(u, "nope:objects")
	require.ErrorIs(t, err, ErrUnitNotFound)

	_, err = w.Task(u, "objects")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTask_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	w, u, dir := loadMain(t, map[string]string{
		"main.crunit": `
target "stamp" {
  build {
    outputs = "stamp.txt"
    command = "touch $\"@"
  }
}

task "run" {
  requires = ["stamp"]
  exec {
    args = ["touch", "$ProjectPath/exec.txt"]
  }
  shell {
    command = "echo $self > shell.txt"
  }
}
`,
	})

	task, err := w.Task(u, "run")
	require.NoError(t, err)
	require.NoError(t, task.Run(t.Context()))

	assert.FileExists(t, filepath.Join(dir, "stamp.txt"))
	assert.FileExists(t, filepath.Join(dir, "exec.txt"))

	data, err := os.ReadFile(filepath.Join(dir, "shell.txt"))
	require.NoError(t, err)
	assert.Equal(t, "main\n", string(data))

	stamp, err := w.Target(u, "stamp")
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, stamp.Status())
}

func TestWorkspace_BuildFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	w, u, dir := loadMain(t, map[string]string{
		"main.crunit": `
target "bad" {
  build {
    outputs = "never"
    command = "exit 3"
  }
}

target "good" {
  requires = ["bad"]
  build {
    outputs = "good.txt"
    command = "touch $\"@"
  }
}
`,
	})

	require.NoError(t, w.Setup(t.Context()))

	good, err := w.Target(u, "good")
	require.NoError(t, err)

	err = w.Build(t.Context(), good)
	require.ErrorIs(t, err, ErrCommand)

	bad, err := w.Target(u, "bad")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, bad.Status())
	assert.Equal(t, StatusSetup, good.Status())
	assert.NoFileExists(t, filepath.Join(dir, "good.txt"))
}
