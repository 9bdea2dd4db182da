// Package config loads runtime settings from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings holds everything the process reads from its environment.
// BOT_TOKEN is only required for the Telegram transport; the MCP
// transport runs without it.
type Settings struct {
	BotToken      string        `env:"BOT_TOKEN"`
	DBPath        string        `env:"DB_PATH" envDefault:"stagebot.db"`
	DataDir       string        `env:"DATA_DIR" envDefault:"data"`
	AdminChatID   int64         `env:"ADMIN_CHAT_ID"`
	SheetsEnabled bool          `env:"SHEETS_ENABLED"`
	SheetsCreds   string        `env:"SHEETS_CREDS" envDefault:"service_account.json"`
	SpreadsheetID string        `env:"SHEETS_SPREADSHEET_ID"`
	OfferDelay    time.Duration `env:"OFFER_DELAY" envDefault:"5m"`
}

// Load parses the environment into Settings.
func Load() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}
