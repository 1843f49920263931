package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ,", nil},
		{"1, 2 ,3", []string{"1", "2", "3"}},
		{"UCabc", []string{"UCabc"}},
		{"a,,b,", []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := ParseList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"BILIBILI_ROOMS", "YT_CHANNELS", "YT_API_KEY", "PLACEHOLDER_KEYWORDS",
		"PLACEHOLDER_CUTOFF_YEAR", "UPSTREAM_TIMEOUT", "PORT", "HOST", "IMG_ALLOWED_HOSTS",
		"SCHEMA_VERSION", "YT_MAX_RESULTS", "SNAPSHOT_TTL",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Port != "8788" || cfg.Host != "127.0.0.1" {
		t.Fatalf("addr = %s", cfg.Addr())
	}
	if cfg.UpstreamTimeout != 5*time.Second {
		t.Fatalf("UpstreamTimeout = %v", cfg.UpstreamTimeout)
	}
	if cfg.PlaceholderCutoffYear != 2024 {
		t.Fatalf("PlaceholderCutoffYear = %d", cfg.PlaceholderCutoffYear)
	}
	if want := []string{"free chat", "聊天室", "chatroom", "chat"}; !reflect.DeepEqual(cfg.PlaceholderKeywords, want) {
		t.Fatalf("PlaceholderKeywords = %v", cfg.PlaceholderKeywords)
	}
	if len(cfg.ImageHosts) != 12 {
		t.Fatalf("ImageHosts = %v", cfg.ImageHosts)
	}
	if cfg.SchemaVersion != DefaultSchemaVersion {
		t.Fatalf("SchemaVersion = %q", cfg.SchemaVersion)
	}
	if len(cfg.BilibiliRooms) != 0 || len(cfg.YTChannels) != 0 || cfg.YTAPIKey != "" {
		t.Fatalf("expected empty targets: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BILIBILI_ROOMS", "21452505, 7")
	t.Setenv("YT_CHANNELS", "UC1,UC2")
	t.Setenv("YT_API_KEY", " key ")
	t.Setenv("PLACEHOLDER_KEYWORDS", "free chat, lounge")
	t.Setenv("PLACEHOLDER_CUTOFF_YEAR", "2025")
	t.Setenv("UPSTREAM_TIMEOUT", "1500ms")
	t.Setenv("PORT", "9000")

	cfg := Load()

	if want := []string{"21452505", "7"}; !reflect.DeepEqual(cfg.BilibiliRooms, want) {
		t.Fatalf("BilibiliRooms = %v", cfg.BilibiliRooms)
	}
	if cfg.YTAPIKey != "key" {
		t.Fatalf("YTAPIKey = %q", cfg.YTAPIKey)
	}
	if want := []string{"free chat", "lounge"}; !reflect.DeepEqual(cfg.PlaceholderKeywords, want) {
		t.Fatalf("PlaceholderKeywords = %v", cfg.PlaceholderKeywords)
	}
	if cfg.PlaceholderCutoffYear != 2025 || cfg.UpstreamTimeout != 1500*time.Millisecond {
		t.Fatalf("cutoff=%d timeout=%v", cfg.PlaceholderCutoffYear, cfg.UpstreamTimeout)
	}
	tg := cfg.Targets()
	if len(tg.Rooms) != 2 || len(tg.Channels) != 2 {
		t.Fatalf("Targets = %+v", tg)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("PLACEHOLDER_CUTOFF_YEAR", "soon")
	t.Setenv("UPSTREAM_TIMEOUT", "5")

	cfg := Load()

	if cfg.PlaceholderCutoffYear != 2024 || cfg.UpstreamTimeout != 5*time.Second {
		t.Fatalf("fallbacks not applied: %d %v", cfg.PlaceholderCutoffYear, cfg.UpstreamTimeout)
	}
	if len(cfg.Warnings) != 2 {
		t.Fatalf("Warnings = %v, want 2", cfg.Warnings)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "http")
	if err := Load().Validate(); err == nil {
		t.Fatal("expected invalid PORT error")
	}
}
