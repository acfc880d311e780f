package platform

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/creator/log"
	"github.com/ardnew/creator/macro"
	"github.com/ardnew/creator/pkg"
)

func newStore(t *testing.T, platform string) *macro.Store {
	t.Helper()

	s := macro.NewStore(macro.WithQuoteStyle(macro.QuotePosix))
	require.NoError(t, s.DefineText(VarPlatform, platform))

	return s
}

func fakeProber(vars map[string]string, err error) Prober {
	return ProberFunc(func(context.Context, *Probe) (map[string]string, error) {
		return vars, err
	})
}

func snapshot(s *macro.Store) map[string]string {
	out := make(map[string]string)

	for _, name := range s.Names() {
		out[name], _ = s.Source(name)
	}

	return out
}

func TestLoader_AllPlatforms(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)

	for _, id := range Supported {
		t.Run(id, func(t *testing.T) {
			s := newStore(t, id)
			l := NewLoader(WithProber(fakeProber(nil, ErrProbe)))

			require.NoError(t, l.Load(t.Context(), s))
			assert.Equal(t, StateLoaded, l.State())

			tables, err := reg.Resolve(id)
			require.NoError(t, err)

			for _, table := range tables {
				for _, key := range table.Keys() {
					src, ok := s.Source(key)
					assert.True(t, ok, "%s: %s undefined", table.Name, key)
					assert.NotEmpty(t, src, "%s: %s empty", table.Name, key)
				}
			}
		})
	}
}

func TestLoader_CompilerTables(t *testing.T) {
	tests := []struct {
		platform string
		table    string
		want     string
	}{
		{"Linux", "linux", "-o '/proj/build/main'"},
		{"Darwin", "darwin", "-o '/proj/build/main'"},
		{"Mac", "darwin", "-o '/proj/build/main'"},
		{"Windows", "windows", "/Fo'/proj/build/main'"},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			s := newStore(t, tt.platform)
			l := NewLoader(WithProber(fakeProber(nil, ErrProbe)))

			require.NoError(t, l.Load(t.Context(), s))
			assert.Equal(t, tt.table, l.Table())

			got, err := s.Get("objout", "/proj/build/main")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoader_Idempotent(t *testing.T) {
	once := newStore(t, "Linux")
	require.NoError(t, NewLoader().Load(t.Context(), once))

	twice := newStore(t, "Linux")
	l := NewLoader()
	require.NoError(t, l.Load(t.Context(), twice))
	require.NoError(t, l.Load(t.Context(), twice))

	assert.Equal(t, snapshot(once), snapshot(twice))
	assert.Equal(t, StateLoaded, l.State())
}

func TestLoader_Unsupported(t *testing.T) {
	s := newStore(t, "BeOS")
	before := snapshot(s)
	l := NewLoader()

	err := l.Load(t.Context(), s)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.True(t, pkg.IsFatal(err))
	assert.Equal(t, StateError, l.State())
	assert.Equal(t, before, snapshot(s), "nothing may be defined")

	require.NoError(t, s.DefineText(VarPlatform, "Linux"))
	require.ErrorIs(t, l.Load(t.Context(), s), ErrUnsupported, "error state is terminal")
}

func TestLoader_Override(t *testing.T) {
	s := newStore(t, "Linux")
	require.NoError(t, s.DefineText(VarOverride, "msvc"))

	l := NewLoader(WithProber(fakeProber(nil, ErrProbe)))
	require.NoError(t, l.Load(t.Context(), s))
	assert.Equal(t, "msvc", l.Table())

	got, err := s.Eval("$CC")
	require.NoError(t, err)
	assert.Equal(t, "cl /nologo", got)

	bad := newStore(t, "Linux")
	require.NoError(t, bad.DefineText(VarOverride, "tcc"))
	require.ErrorIs(t, NewLoader().Load(t.Context(), bad), ErrUnsupported)
}

func TestLoader_Conflict(t *testing.T) {
	s := newStore(t, "Linux")
	l := NewLoader()
	require.NoError(t, l.Load(t.Context(), s))

	require.NoError(t, s.DefineText(VarOverride, "windows"))

	err := l.Load(t.Context(), s)
	require.ErrorIs(t, err, ErrTableConflict)
	assert.Equal(t, "linux", l.Table())
	assert.Equal(t, StateLoaded, l.State())
}

func TestLoader_LoadedIsTerminal(t *testing.T) {
	s := newStore(t, "Linux")
	l := NewLoader()
	require.NoError(t, l.Load(t.Context(), s))

	require.NoError(t, s.DefineText(VarOverride, "BeOS"))
	require.ErrorIs(t, l.Load(t.Context(), s), ErrUnsupported)
	assert.Equal(t, StateLoaded, l.State())
	assert.Equal(t, "linux", l.Table())

	s.Undefine(VarOverride)
	require.NoError(t, l.Load(t.Context(), s))

	got, err := s.Get("objout", "/proj/build/main")
	require.NoError(t, err)
	assert.Equal(t, "-o '/proj/build/main'", got)
}

func TestLoader_PartialTable(t *testing.T) {
	bad, err := ParseTable([]byte("name: Linux\nmacros:\n  CC: tcc\n  \"1\": positional\n"))
	require.NoError(t, err)

	s := newStore(t, "Linux")
	before := snapshot(s)
	l := NewLoader(WithRegistry(Registry{"linux": bad}))

	require.ErrorIs(t, l.Load(t.Context(), s), ErrTable)
	assert.Equal(t, StateError, l.State())
	assert.Equal(t, before, snapshot(s))
	assert.False(t, s.Defined("CC"))
}

func TestLoader_Probe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newStore(t, "Windows")
		l := NewLoader(WithProber(fakeProber(map[string]string{
			"MSVCVersion": "19.29.30133",
			"MSVCArch":    "x64",
		}, nil)))

		require.NoError(t, l.Load(t.Context(), s))

		got, err := s.Eval("$MSVCVersion/$MSVCArch")
		require.NoError(t, err)
		assert.Equal(t, "19.29.30133/x64", got)
	})

	t.Run("failure is a warning", func(t *testing.T) {
		var buf bytes.Buffer

		s := newStore(t, "Windows")
		l := NewLoader(
			WithProber(fakeProber(nil, ErrProbe.Wrap(errors.New("not found")))),
			WithLogger(log.Make(&buf, log.WithPretty(false))),
		)

		require.NoError(t, l.Load(t.Context(), s))
		assert.Equal(t, StateLoaded, l.State())
		assert.False(t, s.Defined("MSVCVersion"))
		assert.Contains(t, buf.String(), "compiler probe failed")
	})

	t.Run("not run for gcc", func(t *testing.T) {
		called := false
		l := NewLoader(WithProber(ProberFunc(func(context.Context, *Probe) (map[string]string, error) {
			called = true

			return nil, nil
		})))

		require.NoError(t, l.Load(t.Context(), newStore(t, "Linux")))
		assert.False(t, called)
	})
}

func TestLoader_CustomRegistry(t *testing.T) {
	base, err := ParseTable([]byte("name: base\nmacros:\n  CC: tcc\n"))
	require.NoError(t, err)

	linux, err := ParseTable([]byte("name: Linux\ninclude: [base]\nmacros:\n  CFlags: -Wall $CC\n"))
	require.NoError(t, err)

	l := NewLoader(WithRegistry(Registry{"base": base, "linux": linux}))
	s := newStore(t, "Linux")
	require.NoError(t, l.Load(t.Context(), s))

	got, err := s.Eval("$CFlags")
	require.NoError(t, err)
	assert.Equal(t, "-Wall tcc", got)

	s = newStore(t, "Windows")
	require.ErrorIs(t, NewLoader(WithRegistry(Registry{"linux": linux})).Load(t.Context(), s), ErrUnknownTable)
}
