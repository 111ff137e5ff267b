package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type StartCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewStartCommand returns the start command.
func NewStartCommand(rootCmd *RootCommand, app *kingpin.Application) *StartCommand {
	c := &StartCommand{rootCmd: rootCmd}
	c.Cmd = app.Command("start", "Start the tasks of the live batch.")

	return c
}

func (c StartCommand) Name() string { return c.Cmd.FullCommand() }

func (c StartCommand) Run(ctx context.Context) error {
	cli, err := c.rootCmd.newClient()
	if err != nil {
		return err
	}

	msg, err := cli.Start(ctx)
	if err != nil {
		return fmt.Errorf("could not start batch: %w", err)
	}

	p := c.rootCmd.newPrinter(formatTable)
	if err := p.PrintMessage(msg); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
