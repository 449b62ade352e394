package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("unexpected addr %s", cfg.Addr())
	}
	if cfg.Sheet.URL != defaultSheetURL {
		t.Errorf("expected default sheet url, got %s", cfg.Sheet.URL)
	}
	if cfg.Sheet.ResolvedFormat() != FormatCSV {
		t.Errorf("expected csv format for default sheet, got %s", cfg.Sheet.ResolvedFormat())
	}
	if cfg.Sheet.FetchTimeout != 0 {
		t.Errorf("expected no fetch timeout by default, got %s", cfg.Sheet.FetchTimeout)
	}
	if cfg.Site.Placeholder != defaultPlaceholder {
		t.Errorf("unexpected placeholder %s", cfg.Site.Placeholder)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("unexpected write timeout %s", cfg.Server.WriteTimeout)
	}
	if cfg.Dev {
		t.Errorf("dev mode should be off by default")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"PORT":                  "9000",
		"RENTALS_PORT":          "9090",
		"RENTALS_SHEET_URL":     "gs://listings/export.xlsx",
		"RENTALS_FETCH_TIMEOUT": "4s",
		"RENTALS_GCS_ANONYMOUS": "yes",
		"RENTALS_DEV":           "1",
		"RENTALS_CONTENT_DIR":   "/srv/content",
		"LOG_LEVEL":             "debug",
	}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("RENTALS_PORT should win over PORT, got %s", cfg.Server.Port)
	}
	if cfg.Sheet.ResolvedFormat() != FormatXLSX {
		t.Errorf("expected xlsx sniffed from path, got %s", cfg.Sheet.ResolvedFormat())
	}
	if cfg.Sheet.FetchTimeout != 4*time.Second {
		t.Errorf("unexpected fetch timeout %s", cfg.Sheet.FetchTimeout)
	}
	if !cfg.Sheet.Anonymous || !cfg.Dev {
		t.Errorf("expected anonymous and dev flags to be set")
	}
	if cfg.Site.ContentDir != "/srv/content" {
		t.Errorf("unexpected content dir %s", cfg.Site.ContentDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level %s", cfg.LogLevel)
	}
}

func TestResolvedFormatFromQuery(t *testing.T) {
	s := SheetConfig{URL: "https://docs.google.com/spreadsheets/d/e/x/pub?output=xlsx", Format: FormatAuto}
	if got := s.ResolvedFormat(); got != FormatXLSX {
		t.Fatalf("expected xlsx, got %s", got)
	}
	s.Format = FormatCSV
	if got := s.ResolvedFormat(); got != FormatCSV {
		t.Fatalf("explicit format should win, got %s", got)
	}
}

func TestLoadReportsInvalidFields(t *testing.T) {
	env := map[string]string{
		"RENTALS_SHEET_URL":           "ftp://example.com/sheet.csv",
		"RENTALS_SHEET_FORMAT":        "ods",
		"RENTALS_SERVER_READ_TIMEOUT": "soon",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := vErr.Fields()
	want := map[string]bool{"RENTALS_SERVER_READ_TIMEOUT": false, "Sheet.URL": false, "Sheet.Format": false}
	for _, f := range fields {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("expected %s in invalid fields %v", f, fields)
		}
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nexport RENTALS_SHEET_URL=\"https://example.com/listings.csv\"\nRENTALS_PLACEHOLDER_IMAGE='/assets/images/none.png'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{"RENTALS_PLACEHOLDER_IMAGE": "/override.png"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sheet.URL != "https://example.com/listings.csv" {
		t.Errorf("expected sheet url from .env, got %s", cfg.Sheet.URL)
	}
	if cfg.Site.Placeholder != "/override.png" {
		t.Errorf("env map should override .env, got %s", cfg.Site.Placeholder)
	}
}

func TestLoadProjectIDFallsBackToGoogleCloudProject(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{"GOOGLE_CLOUD_PROJECT": "nestguard"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProjectID != "nestguard" {
		t.Errorf("expected project from GOOGLE_CLOUD_PROJECT, got %q", cfg.ProjectID)
	}

	cfg, err = Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"GOOGLE_CLOUD_PROJECT": "nestguard",
		"RENTALS_GCP_PROJECT":  "rentals-prod",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProjectID != "rentals-prod" {
		t.Errorf("expected RENTALS_GCP_PROJECT to win, got %q", cfg.ProjectID)
	}
}
