package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/api"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/commands"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/config"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/printer"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/store/jsonfile"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/pkg/utils"
)

// maxRecentRooms caps the recent-rooms file.
const maxRecentRooms = 50

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	if err := setupLogger("info", "", nil); err != nil {
		panic(err)
	}

	var (
		p     = printer.New(os.Stderr)
		ctx   = printer.NewContext(context.Background(), p)
		flags = &commands.Flags{}
	)

	var deferredLogs *utils.DeferredWriter

	app := &cli.Command{
		Name:      "hongyeon",
		Usage:     "Chat client for the Hongik mentoring platform",
		UsageText: "hongyeon [global options] command [command options]",
		Description: `Terminal client for mentoring chat rooms.

'hongyeon join <room-id>' opens an interactive session: room history is
loaded first, then live messages stream in over the platform's message
bus with automatic reconnection.

Run 'hongyeon' with no arguments to be prompted for a room.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("HONGYEON_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (optional)",
				Sources:     cli.EnvVars("HONGYEON_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("HONGYEON_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("HONGYEON_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "server",
				Usage:       "backend base URL (overrides config)",
				Sources:     cli.EnvVars("HONGYEON_SERVER"),
				Destination: &flags.ServerURL,
			},
			&cli.StringFlag{
				Name:        "session",
				Usage:       "session cookie value for the backend",
				Sources:     cli.EnvVars("HONGYEON_SESSION"),
				Destination: &flags.Session,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// A .env next to the binary is a convenience for local use;
			// missing is fine.
			_ = godotenv.Load()

			// Detect TUI mode: no subcommand or an explicit join
			args := c.Args().Slice()
			isTUI := len(args) == 0 || args[0] == "join"

			// In TUI mode, buffer logs to display after exit
			var deferred io.Writer
			if isTUI {
				deferredLogs = &utils.DeferredWriter{}
				deferred = deferredLogs
			}

			if err := setupLogger(flags.LogLevel, flags.LogFile, deferred); err != nil {
				return ctx, err
			}

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.ServerURL != "" {
				cfg.Server.BaseURL = flags.ServerURL
			}
			flags.Config = cfg

			flags.API = api.NewClient(
				cfg.Server.BaseURL,
				cfg.Session.CookieName,
				flags.Session,
				log.With().Str("component", "api").Logger(),
			)

			flags.Recent = jsonfile.NewRecentStore(
				filepath.Join(flags.DataDir, "recent.json"),
				maxRecentRooms,
			)
			return ctx, nil
		},
	}

	joinCmd := commands.NewJoinCmd(flags)

	app = joinCmd.Register(app)
	app = commands.NewHistoryCmd(flags).Register(app)
	app = commands.NewRoomsCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Joining is the default action when no subcommand is provided;
	// the room id is prompted for.
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'hongyeon --help' for usage", c.Args().First())
		}
		return joinCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Println()
		printer.Ctx(ctx).FatalError(err)
		exitCode = 1
	}

	// Flush deferred logs to console after TUI exits
	if deferredLogs != nil {
		if err := deferredLogs.Flush(zerolog.ConsoleWriter{Out: os.Stderr}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
		}
	}

	os.Exit(exitCode)
}

func setupLogger(level string, logFile string, deferred io.Writer) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}

	if logFile != "" {
		// Create log directory if it doesn't exist
		logDir := filepath.Dir(logFile)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		// Open log file
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		if deferred != nil {
			// TUI mode with explicit log file - write to both file and deferred buffer
			output = io.MultiWriter(file, deferred)
		} else {
			// Write to both console and file
			output = io.MultiWriter(
				zerolog.ConsoleWriter{Out: os.Stderr},
				file,
			)
		}
	} else if deferred != nil {
		// TUI mode without log file - buffer for display after exit
		output = deferred
	}

	log.Logger = log.Output(output).Level(parsedLevel)

	return nil
}
