package commands

import (
	"os"
	"path/filepath"

	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/api"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/config"
	"github.com/Hongik-Mentoring-Team/hongyeon-chat/internal/core/recent"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	ServerURL  string
	Session    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// API is the backend REST client, built in the Before hook
	API *api.Client

	// Recent tracks recently joined rooms
	Recent recent.Store
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "hongyeon", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "hongyeon")
}
