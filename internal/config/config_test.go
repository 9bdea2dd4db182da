package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOT_TOKEN", "DB_PATH", "DATA_DIR", "ADMIN_CHAT_ID",
		"SHEETS_ENABLED", "SHEETS_CREDS", "SHEETS_SPREADSHEET_ID", "OFFER_DELAY",
	} {
		// t.Setenv registers the restore; Unsetenv leaves the variable
		// genuinely absent so envDefault kicks in.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.DBPath != "stagebot.db" {
		t.Errorf("DBPath = %q, want stagebot.db", s.DBPath)
	}
	if s.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", s.DataDir)
	}
	if s.SheetsCreds != "service_account.json" {
		t.Errorf("SheetsCreds = %q, want service_account.json", s.SheetsCreds)
	}
	if s.OfferDelay != 5*time.Minute {
		t.Errorf("OfferDelay = %v, want 5m", s.OfferDelay)
	}
	if s.BotToken != "" || s.AdminChatID != 0 || s.SheetsEnabled || s.SpreadsheetID != "" {
		t.Errorf("optional settings not empty: %+v", s)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DB_PATH", "/var/lib/bot.db")
	t.Setenv("ADMIN_CHAT_ID", "-100123")
	t.Setenv("SHEETS_ENABLED", "true")
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-id")
	t.Setenv("OFFER_DELAY", "90s")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.BotToken != "123:abc" {
		t.Errorf("BotToken = %q", s.BotToken)
	}
	if s.DBPath != "/var/lib/bot.db" {
		t.Errorf("DBPath = %q", s.DBPath)
	}
	if s.AdminChatID != -100123 {
		t.Errorf("AdminChatID = %d", s.AdminChatID)
	}
	if !s.SheetsEnabled || s.SpreadsheetID != "sheet-id" {
		t.Errorf("sheets settings = %+v", s)
	}
	if s.OfferDelay != 90*time.Second {
		t.Errorf("OfferDelay = %v, want 90s", s.OfferDelay)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("OFFER_DELAY", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded with invalid OFFER_DELAY, want error")
	}
}
