package unit

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/ardnew/creator/platform"
)

// Block types of a unit script.
const (
	blockLoad     = "load"
	blockExtends  = "extends"
	blockPlatform = "platform"
	blockMacros   = "macros"
	blockDefine   = "define"
	blockInfo     = "info"
	blockWarn     = "warn"
	blockTarget   = "target"
	blockTask     = "task"
	blockBuild    = "build"
	blockExec     = "exec"
	blockShell    = "shell"
)

var blockLabels = map[string]int{
	blockLoad:     1,
	blockExtends:  1,
	blockPlatform: 0,
	blockMacros:   0,
	blockDefine:   1,
	blockInfo:     1,
	blockWarn:     1,
	blockTarget:   1,
	blockTask:     1,
}

type loadBlock struct {
	Alias string `hcl:"alias,optional"`
}

type platformBlock struct {
	Table string `hcl:"table,optional"`
}

type defineBlock struct {
	Value   *string `hcl:"value,optional"`
	Shell   *string `hcl:"shell,optional"`
	Default bool    `hcl:"default,optional"`
	Append  bool    `hcl:"append,optional"`
	Raw     bool    `hcl:"raw,optional"`
	When    string  `hcl:"when,optional"`
}

type messageBlock struct {
	When string `hcl:"when,optional"`
}

type targetBlock struct {
	Requires []string     `hcl:"requires,optional"`
	When     string       `hcl:"when,optional"`
	Builds   []buildBlock `hcl:"build,block"`
}

type buildBlock struct {
	Inputs    string `hcl:"inputs,optional"`
	Outputs   string `hcl:"outputs"`
	Command   string `hcl:"command"`
	Auxiliary string `hcl:"auxiliary,optional"`
	Each      bool   `hcl:"each,optional"`
}

type taskBlock struct {
	Requires []string `hcl:"requires,optional"`
	When     string   `hcl:"when,optional"`
	Steps    hcl.Body `hcl:",remain"`
}

type execBlock struct {
	Args []string `hcl:"args"`
	Dir  string   `hcl:"dir,optional"`
}

type shellBlock struct {
	Command string `hcl:"command"`
	Dir     string `hcl:"dir,optional"`
}

// script is a parsed unit script.
type script struct {
	path string
	body *hclsyntax.Body
}

// statement is a top-level attribute or block of a script.
type statement struct {
	attr  *hclsyntax.Attribute
	block *hclsyntax.Block
}

func (s statement) start() int {
	if s.attr != nil {
		return s.attr.SrcRange.Start.Byte
	}

	return s.block.TypeRange.Start.Byte
}

func parseScript(path string, src []byte) (*script, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, ErrScript.Wrap(diags).With(slog.String("path", path))
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, ErrScript.With(slog.String("path", path))
	}

	return &script{path: path, body: body}, nil
}

// statements returns the attributes and blocks of s in source order.
func (s *script) statements() []statement {
	list := make([]statement, 0, len(s.body.Attributes)+len(s.body.Blocks))

	for _, a := range s.body.Attributes {
		list = append(list, statement{attr: a})
	}

	for _, b := range s.body.Blocks {
		list = append(list, statement{block: b})
	}

	slices.SortFunc(list, func(a, b statement) int { return cmp.Compare(a.start(), b.start()) })

	return list
}

// exec runs the statements of s in the scope of u. Loads are resolved
// depth-first as they are encountered.
func (s *script) exec(ctx context.Context, u *Unit) error {
	x := &executor{path: s.path, unit: u, eval: u.evalContext()}

	for _, st := range s.statements() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if st.attr != nil {
			err = x.macro(st.attr)
		} else {
			err = x.block(ctx, st.block)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

type executor struct {
	path string
	unit *Unit
	eval *hcl.EvalContext
}

// evalContext returns the HCL evaluation context of unit scripts.
func (u *Unit) evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)

	if lookup := u.ws.cfg.environ; lookup != nil {
		for _, kv := range os.Environ() {
			key, _, _ := strings.Cut(kv, "=")
			if v, ok := lookup(key); ok && key != "" {
				env[key] = cty.StringVal(v)
			}
		}
	}

	envVal := cty.MapValEmpty(cty.String)
	if len(env) > 0 {
		envVal = cty.MapVal(env)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"unit": cty.ObjectVal(map[string]cty.Value{
				"id":   cty.StringVal(u.id),
				"path": cty.StringVal(u.path),
				"dir":  cty.StringVal(u.dir),
			}),
			"env": envVal,
		},
		Functions: map[string]function.Function{
			"upper":     stdlib.UpperFunc,
			"lower":     stdlib.LowerFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"format":    stdlib.FormatFunc,
			"join":      stdlib.JoinFunc,
			"concat":    stdlib.ConcatFunc,
		},
	}
}

func (x *executor) fail(rng hcl.Range, err error) error {
	return ErrScript.Wrap(err).With(
		slog.String("unit", x.unit.id),
		slog.String("path", x.path),
		slog.Int("line", rng.Start.Line),
	)
}

func (x *executor) diag(diags hcl.Diagnostics) error {
	if !diags.HasErrors() {
		return nil
	}

	return ErrScript.Wrap(diags).With(
		slog.String("unit", x.unit.id),
		slog.String("path", x.path),
	)
}

// macro defines a variable from a top-level attribute.
func (x *executor) macro(a *hclsyntax.Attribute) error {
	var value string
	if err := x.diag(gohcl.DecodeExpression(a.Expr, x.eval, &value)); err != nil {
		return err
	}

	return x.unit.store.Define(a.Name, value)
}

func (x *executor) block(ctx context.Context, b *hclsyntax.Block) error {
	want, ok := blockLabels[b.Type]
	if !ok {
		err := fmt.Errorf("unsupported block type %q", b.Type)
		if s := suggest(b.Type, slices.Sorted(maps.Keys(blockLabels))); s != "" {
			err = fmt.Errorf("unsupported block type %q (did you mean %q?)", b.Type, s)
		}

		return x.fail(b.TypeRange, err)
	}

	if len(b.Labels) != want {
		return x.fail(b.TypeRange,
			fmt.Errorf("block %q requires %d label(s), got %d", b.Type, want, len(b.Labels)))
	}

	switch b.Type {
	case blockLoad:
		return x.load(ctx, b)
	case blockExtends:
		return x.extends(ctx, b)
	case blockPlatform:
		return x.platform(ctx, b)
	case blockMacros:
		return x.macros(b)
	case blockDefine:
		return x.define(ctx, b)
	case blockInfo, blockWarn:
		return x.message(b)
	case blockTarget:
		return x.target(b)
	case blockTask:
		return x.task(b)
	}

	return nil
}

func (x *executor) load(ctx context.Context, b *hclsyntax.Block) error {
	var spec loadBlock
	if err := x.diag(gohcl.DecodeBody(b.Body, x.eval, &spec)); err != nil {
		return err
	}

	id := b.Labels[0]

	if _, err := x.unit.ws.Load(ctx, id); err != nil {
		return err
	}

	if spec.Alias != "" {
		return x.unit.Alias(spec.Alias, id)
	}

	return nil
}

func (x *executor) extends(ctx context.Context, b *hclsyntax.Block) error {
	if err := x.diag(gohcl.DecodeBody(b.Body, x.eval, &struct{}{})); err != nil {
		return err
	}

	dep, err := x.unit.ws.Load(ctx, b.Labels[0])
	if err != nil {
		return err
	}

	x.unit.store.Inherit(dep.store)

	return x.unit.defineLocals()
}

func (x *executor) platform(ctx context.Context, b *hclsyntax.Block) error {
	var spec platformBlock
	if err := x.diag(gohcl.DecodeBody(b.Body, x.eval, &spec)); err != nil {
		return err
	}

	ws := x.unit.ws

	if spec.Table != "" {
		if err := ws.store.DefineText(platform.VarOverride, spec.Table); err != nil {
			return err
		}
	}

	return ws.LoadPlatform(ctx)
}

func (x *executor) macros(b *hclsyntax.Block) error {
	if len(b.Body.Blocks) > 0 {
		return x.fail(b.Body.Blocks[0].TypeRange, errors.New("macros block cannot contain blocks"))
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(b.Body.Attributes))
	for _, a := range b.Body.Attributes {
		attrs = append(attrs, a)
	}

	slices.SortFunc(attrs, func(a, b *hclsyntax.Attribute) int {
		return cmp.Compare(a.SrcRange.Start.Byte, b.SrcRange.Start.Byte)
	})

	for _, a := range attrs {
		if err := x.macro(a); err != nil {
			return err
		}
	}

	return nil
}

func (x *executor) define(ctx context.Context, b *hclsyntax.Block) error {
	var spec defineBlock
	if err := x.diag(gohcl.DecodeBody(b.Body, x.eval, &spec)); err != nil {
		return err
	}

	u := x.unit
	name := b.Labels[0]

	switch {
	case (spec.Value == nil) == (spec.Shell == nil):
		return x.fail(b.TypeRange, fmt.Errorf("define %q requires exactly one of value or shell", name))
	case spec.Default && spec.Append:
		return x.fail(b.TypeRange, fmt.Errorf("define %q cannot set both default and append", name))
	case spec.Raw && spec.Append:
		return x.fail(b.TypeRange, fmt.Errorf("define %q cannot set both raw and append", name))
	}

	ok, err := u.cond(spec.When)
	if err != nil || !ok {
		return err
	}

	if spec.Default && u.store.Defined(name) {
		return nil
	}

	if spec.Shell != nil {
		line, err := u.Eval(*spec.Shell)
		if err != nil {
			return err
		}

		out, err := u.ws.shellGet(ctx, u.dir, line)
		if err != nil {
			return err
		}

		return u.store.DefineText(name, out)
	}

	switch {
	case spec.Raw:
		return u.store.DefineText(name, *spec.Value)
	case spec.Append:
		return u.store.Append(name, *spec.Value)
	default:
		return u.store.Define(name, *spec.Value)
	}
}

func (x *executor) message(b *hclsyntax.Block) error {
	var spec messageBlock
	if err := x.diag(gohcl.DecodeBody(b.Body, x.eval, &spec)); err != nil {
		return err
	}

	u := x.unit

	ok, err := u.cond(spec.When)
	if err != nil || !ok {
		return err
	}

	text, err := u.Eval(b.Labels[0])
	if err != nil {
		return err
	}

	if b.Type == blockWarn {
		u.ws.cfg.logger.Warn(text, slog.String("unit", u.id))
		u.ws.message(u, styleWarn, text)

		return nil
	}

	u.ws.message(u, styleInfo, text)

	return nil
}

func (x *executor) target(b *hclsyntax.Block) error {
	var spec targetBlock
	if err := x.diag(gohcl.DecodeBody(b.Body, x.eval, &spec)); err != nil {
		return err
	}

	t := &Target{
		unit:     x.unit,
		name:     b.Labels[0],
		requires: spec.Requires,
		when:     spec.When,
	}

	for _, bb := range spec.Builds {
		t.builds = append(t.builds, Build(bb))
	}

	return x.unit.addTarget(t)
}

func (x *executor) task(b *hclsyntax.Block) error {
	var spec taskBlock
	if err := x.diag(gohcl.DecodeBody(b.Body, x.eval, &spec)); err != nil {
		return err
	}

	t := &Task{
		unit:     x.unit,
		name:     b.Labels[0],
		requires: spec.Requires,
		when:     spec.When,
	}

	for _, a := range b.Body.Attributes {
		if a.Name != "requires" && a.Name != "when" {
			return x.fail(a.SrcRange, fmt.Errorf("unsupported argument %q in task", a.Name))
		}
	}

	for _, sb := range b.Body.Blocks {
		if len(sb.Labels) != 0 {
			return x.fail(sb.TypeRange, fmt.Errorf("block %q takes no labels", sb.Type))
		}

		switch sb.Type {
		case blockExec:
			var e execBlock
			if err := x.diag(gohcl.DecodeBody(sb.Body, x.eval, &e)); err != nil {
				return err
			}

			if len(e.Args) == 0 {
				return x.fail(sb.TypeRange, errors.New("exec requires at least one argument"))
			}

			t.steps = append(t.steps, step{args: e.Args, dir: e.Dir})

		case blockShell:
			var s shellBlock
			if err := x.diag(gohcl.DecodeBody(sb.Body, x.eval, &s)); err != nil {
				return err
			}

			t.steps = append(t.steps, step{shell: s.Command, dir: s.Dir})

		default:
			return x.fail(sb.TypeRange, fmt.Errorf("unsupported block type %q in task", sb.Type))
		}
	}

	return x.unit.addTask(t)
}
