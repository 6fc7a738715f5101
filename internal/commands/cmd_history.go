package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/chat"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/validate"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/printer"
)

type HistoryCmd struct {
	flags *Flags
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "Print a room's transcript and roster",
		UsageText: "hongyeon history <room-id>",
		Description: `Fetches the room history once and prints the roster and messages
without opening a live session. Colors are disabled when stdout is not
a terminal, so the output can be piped.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	roomID, err := validate.RoomID(c.Args().First())
	if err != nil {
		return fmt.Errorf("usage: hongyeon history <room-id>: %w", err)
	}

	history, err := cmd.flags.API.RoomHistory(ctx, roomID)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	out := c.Root().Writer
	p := printer.NewPlain(out)
	if term.IsTerminal(int(os.Stdout.Fd())) {
		p = printer.New(out)
	}

	p.Section(fmt.Sprintf("%s (room %d)", history.Name, roomID))

	names := make([]string, 0, len(history.ChatMembers))
	for _, m := range history.ChatMembers {
		names = append(names, m.Nickname)
	}
	p.Infof("members: %s", strings.Join(names, ", "))
	p.Printf("")

	if len(history.ChatMessages) == 0 {
		p.Infof("no messages")
		return nil
	}

	// Run entries through the reconciler so timestamps and ownership
	// come out exactly as the live session renders them.
	rec := chat.NewReconciler(roomID, history.CurrentChatMemberID)
	rec.LoadHistory(history.ChatMessages)

	for _, msg := range rec.Messages() {
		ts := "     "
		if !msg.CreatedAt.IsZero() {
			ts = msg.CreatedAt.Format("01-02 15:04")
		}

		name := msg.Nickname
		if msg.Own {
			name = p.Colorize(printer.ColorBlue, name+" (you)")
		} else {
			name = p.Bold(name)
		}

		p.Printf("%s  %s  %s", p.Colorize(printer.ColorGray, ts), name, msg.Body)
	}

	return nil
}
