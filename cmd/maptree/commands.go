package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	Color bool `cli:"name=color desc='color group keys'"`

	Main *cli.Command
}

// PrintConfig is shared by the subcommands, which differ only in what they
// print for the parsed document.
type PrintConfig struct {
	*MainConfig

	name  string
	print printFunc
	Cmd   *cli.Command
}

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "maptree").
		WithSynopsis("maptree [opts] command [file|-]").
		WithDescription("maptree shows how JSON documents are flattened and grouped for storage.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return maptreeMain(cfg, cc, args)
		}).
		WithSubs(
			printCommand(cfg, "paths", "print every leaf path", printPaths, "p"),
			printCommand(cfg, "tree-paths", "print object and scalar array paths", printTreePaths, "tp"),
			printCommand(cfg, "map", "print leaf paths with their stored values", printMap, "m"),
			printCommand(cfg, "groups", "print groups with their fields or list items", printGroups, "g"))
}

func printCommand(mainCfg *MainConfig, name, desc string, fn printFunc, aliases ...string) *cli.Command {
	cfg := &PrintConfig{MainConfig: mainCfg, name: name, print: fn}
	return cli.NewCommandAt(&cfg.Cmd, name).
		WithAliases(aliases...).
		WithSynopsis(name + " [file|-]").
		WithDescription(desc).
		WithRun(func(cc *cli.Context, args []string) error {
			return runPrint(cfg, cc, args)
		})
}

func maptreeMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func runPrint(cfg *PrintConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Cmd.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: %s takes at most one file", cli.ErrUsage, cfg.name)
	}
	arg := "-"
	if len(args) == 1 {
		arg = args[0]
	}

	var r io.Reader = cc.In
	if arg != "-" {
		f, err := os.Open(arg)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", arg, err)
	}
	if err := printDocument(cc.Out, data, cfg.print, cfg.keyColor(cc.Out)); err != nil {
		return fmt.Errorf("%s: %w", arg, err)
	}
	return nil
}

// keyColor returns the function used to paint group keys. Color is on
// when -color is set or when w is a terminal.
func (cfg *MainConfig) keyColor(w io.Writer) colorFunc {
	if cfg.Color {
		c := color.New(color.FgCyan)
		c.EnableColor()
		return func(s string) string { return c.Sprint(s) }
	}
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return plain
	}
	return func(s string) string { return color.CyanString("%s", s) }
}
