// Stagebot: organizational-maturity assessment bot.
//
// Administers a fixed 12-question assessment over Telegram (or MCP),
// classifies each completed run into one of 8 lifecycle stages, and
// records the answers plus a short contact form.
//
// Usage:
//
//	stagebot serve    # Run the Telegram bot (long polling)
//	stagebot mcp      # Expose the assessment as MCP tools (stdio)
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/apexsystem/stagebot/internal/config"
	"github.com/apexsystem/stagebot/internal/conversation"
	"github.com/apexsystem/stagebot/internal/refdata"
	"github.com/apexsystem/stagebot/internal/server"
	"github.com/apexsystem/stagebot/internal/sheets"
	"github.com/apexsystem/stagebot/internal/store"
	"github.com/apexsystem/stagebot/internal/telegram"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runTelegram(); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := runMCP(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("stagebot v%s\n", server.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// bootstrap builds the shared engine: reference data, stores, optional
// mirror. The returned cleanup closes the durable store and is always
// safe to call.
func bootstrap(cfg config.Settings) (*conversation.Engine, func(), error) {
	bank, err := refdata.Load(cfg.DataDir)
	if err != nil {
		return nil, noop, fmt.Errorf("loading reference data: %w", err)
	}

	durable, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, noop, fmt.Errorf("opening durable store: %w", err)
	}
	cleanup := func() {
		if err := durable.Close(); err != nil {
			log.Printf("closing durable store: %v", err)
		}
	}

	// The mirror is strictly optional: a failure to initialize it is
	// logged and the bot runs without it.
	var mirror sheets.Mirror
	if cfg.SheetsEnabled {
		m, err := sheets.New(context.Background(), cfg.SheetsCreds, cfg.SpreadsheetID)
		if err != nil {
			log.Printf("sheets mirror init failed, continuing without it: %v", err)
		} else {
			mirror = m
			log.Printf("sheets mirror initialized")
		}
	}

	engine := conversation.New(bank, store.NewSessionStore(), durable, mirror)
	return engine, cleanup, nil
}

func runTelegram() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}

	engine, cleanup, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	bot, err := telegram.New(cfg.BotToken, engine, cfg.AdminChatID, cfg.OfferDelay)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("stagebot v%s serving Telegram", server.Version)
	return bot.Run(ctx)
}

func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	engine, cleanup, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return mcpserver.ServeStdio(server.New(engine))
}

func noop() {}

func printUsage() {
	fmt.Println(`stagebot - organizational-maturity assessment bot

Usage:
  stagebot serve     Run the Telegram bot (long polling)
  stagebot mcp       Expose the assessment as MCP tools on stdio
  stagebot version   Print version

Environment:
  BOT_TOKEN              Telegram bot token (required for serve)
  DB_PATH                SQLite database path (default: stagebot.db)
  DATA_DIR               Reference data directory (default: data)
  ADMIN_CHAT_ID          Chat id for respondent summaries (optional)
  SHEETS_ENABLED         Mirror results to Google Sheets when true
  SHEETS_CREDS           Service-account credentials file
  SHEETS_SPREADSHEET_ID  Target spreadsheet id
  OFFER_DELAY            Delay before the follow-up offer (default: 5m)`)
}
