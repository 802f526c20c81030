package main

import (
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"stockflow/internal/cli"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range cli.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	ctx, stop := cli.SignalContext(cli.SetupLogger("cli", "warn"))
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
