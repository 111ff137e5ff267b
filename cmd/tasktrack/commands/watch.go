package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/tasktrack/internal/client"
	"github.com/slok/tasktrack/internal/model"
)

type WatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format    string
	untilDone bool
}

// NewWatchCommand returns the watch command.
func NewWatchCommand(rootCmd *RootCommand, app *kingpin.Application) *WatchCommand {
	c := &WatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("watch", "Stream the status of the live batch.")
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)
	c.Cmd.Flag("until-done", "Stop watching when all the tasks have finished.").BoolVar(&c.untilDone)

	return c
}

func (c WatchCommand) Name() string { return c.Cmd.FullCommand() }

func (c WatchCommand) Run(ctx context.Context) error {
	cli, err := c.rootCmd.newClient()
	if err != nil {
		return err
	}

	p := c.rootCmd.newPrinter(c.format)
	err = cli.Watch(ctx, func(status model.BatchStatus) error {
		if c.format == formatTable {
			// Clear the terminal and redraw.
			fmt.Fprint(c.rootCmd.Stdout, "\033[H\033[2J")
		}

		if err := p.PrintStatus(status); err != nil {
			return fmt.Errorf("could not print status: %w", err)
		}

		if c.untilDone && status.Done() {
			return client.ErrStopWatch
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("could not watch batch: %w", err)
	}

	return nil
}
