package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/creator/cli/cmd"
	"github.com/ardnew/creator/pkg"
)

// CLI is the top-level command-line interface for creator.
type CLI struct {
	Log       logConfig     `embed:"" group:"log"   prefix:"log-"`
	Pprof     pprofConfig   `embed:"" group:"pprof" prefix:"pprof-"`
	Workspace cmd.Workspace `embed:"" group:"workspace"`

	Build   cmd.Build   `cmd:"" default:"withargs" help:"Set up and build targets"`
	Ninja   cmd.Ninja   `cmd:""                    help:"Export a ninja build file and run ninja"`
	Run     cmd.Run     `cmd:""                    help:"Run a task"`
	Eval    cmd.Eval    `cmd:""                    help:"Expand a macro expression"`
	Vars    cmd.Vars    `cmd:""                    help:"Print variable definitions"`
	Targets cmd.Targets `cmd:""                    help:"List targets and tasks"`
	Init    cmd.Init    `cmd:""                    help:"Initialize configuration file"`
	Version cmd.Version `cmd:""                    help:"Print version"`
}

// Run executes the creator CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	return run(ctx, args, kong.Exit(exit))
}

func run(ctx context.Context, args []string, opts ...kong.Option) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	// Parse command line
	parser, err := kong.New(&cli, append([]kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), workspaceGroup()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolveYAML, configFilePath+cmd.ConfigExt),
		vars,
	}, opts...)...)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	defer cli.Pprof.start(ctx)()

	// Execute the selected command
	return ktx.Run(ctx, &cli.Workspace)
}

func workspaceGroup() kong.Group {
	var group kong.Group

	group.Key = "workspace"
	group.Title = "Workspace options"

	return group
}
