package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/chat"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/recent"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/validate"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/stomp"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/styles"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/tui"
)

type JoinCmd struct {
	flags *Flags
}

// NewJoinCmd creates a new join command
func NewJoinCmd(flags *Flags) *JoinCmd {
	return &JoinCmd{flags: flags}
}

// Register adds the join command to the application
func (cmd *JoinCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "join",
		Usage:     "Join a chat room",
		UsageText: "hongyeon join [room-id]",
		Description: `Opens an interactive session in the given chat room.

History is loaded first, then the session subscribes to the room's live
topic. The connection reconnects automatically until you leave with esc
or ctrl+c. Without an argument, the room id is prompted for.`,
		Action: cmd.run,
	})

	return app
}

// Run executes the join flow. Exported for use as the default command.
func (cmd *JoinCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *JoinCmd) run(ctx context.Context, c *cli.Command) error {
	roomID, err := cmd.resolveRoomID(c.Args().First())
	if err != nil {
		return err
	}

	transport := stomp.New(stomp.Options{
		URL:            cmd.flags.Config.WebSocketURL(),
		ReconnectDelay: cmd.flags.Config.Transport.ReconnectDelay,
		Logger:         log.With().Str("component", "stomp").Logger(),
	})

	ctrl := chat.NewController(
		roomID,
		cmd.flags.API,
		transport,
		log.With().Str("component", "session").Int("room_id", roomID).Logger(),
	)
	// Teardown runs no matter which state the session ends in.
	defer func() {
		_ = ctrl.Close()
	}()

	p := tea.NewProgram(tui.New(ctrl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	// Record the join once the session ends; the identity carries the
	// room name only if history loaded.
	if cmd.flags.Recent != nil {
		entry := recent.Room{
			RoomID:     roomID,
			Name:       ctrl.Identity().RoomName,
			LastJoined: time.Now(),
		}
		if err := cmd.flags.Recent.Save(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("failed to record recent room")
		}
	}

	return nil
}

// resolveRoomID parses the argument or prompts for one.
func (cmd *JoinCmd) resolveRoomID(arg string) (int, error) {
	value := strings.TrimSpace(arg)

	if value == "" {
		fmt.Println(styles.BannerStyle.Render(styles.Banner))

		input := huh.NewInput().
			Title("Room ID").
			Description("The chat room to join").
			Validate(func(s string) error {
				_, err := validate.RoomID(s)
				return err
			}).
			Value(&value)

		if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
			return 0, fmt.Errorf("prompt room id: %w", err)
		}
	}

	return validate.RoomID(value)
}
