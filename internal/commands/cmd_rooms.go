package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/printer"
)

type RoomsCmd struct {
	flags *Flags

	// Command-specific flags
	clear bool
}

// NewRoomsCmd creates a new rooms command
func NewRoomsCmd(flags *Flags) *RoomsCmd {
	return &RoomsCmd{flags: flags}
}

// Register adds the rooms command to the application
func (cmd *RoomsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "rooms",
		Usage:     "List recently joined rooms",
		UsageText: "hongyeon rooms [options]",
		Description: `Lists rooms joined from this machine, most recent first.

Room names are recorded as of the last join; they are not refreshed
from the backend. Use --clear to forget all entries.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "clear",
				Aliases:     []string{"c"},
				Usage:       "forget all recent rooms",
				Destination: &cmd.clear,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RoomsCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.clear {
		if err := cmd.flags.Recent.Clear(ctx); err != nil {
			return fmt.Errorf("clear recent rooms: %w", err)
		}
		p.Successf("Recent rooms cleared")
		return nil
	}

	rooms, err := cmd.flags.Recent.List(ctx)
	if err != nil {
		return fmt.Errorf("list recent rooms: %w", err)
	}

	if len(rooms) == 0 {
		p.Infof("No recent rooms. Join one with 'hongyeon join <room-id>'")
		return nil
	}

	out := c.Root().Writer
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROOM\tNAME\tLAST JOINED")

	for _, r := range rooms {
		name := r.Name
		if name == "" {
			name = "-"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", r.RoomID, name, r.LastJoined.Local().Format("2006-01-02 15:04"))
	}

	return w.Flush()
}
