package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want *Config
	}{
		{
			name: "defaults applied",
			env:  map[string]string{"SECRET_KEY": "fixed"},
			want: &Config{
				ListenAddr:   ":8000",
				DatabasePath: "./data/podfilter.db",
				LogLevel:     "info",
				SecretKey:    "fixed",
				BaseURL:      "http://localhost:8000",
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"LISTEN_ADDR":   ":9090",
				"DATABASE_PATH": "/tmp/podfilter.db",
				"LOG_LEVEL":     "debug",
				"SECRET_KEY":    "s3cret",
				"BASE_URL":      "https://pods.example.com",
			},
			want: &Config{
				ListenAddr:   ":9090",
				DatabasePath: "/tmp/podfilter.db",
				LogLevel:     "debug",
				SecretKey:    "s3cret",
				BaseURL:      "https://pods.example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear relevant env vars
			for _, key := range []string{"LISTEN_ADDR", "DATABASE_PATH", "LOG_LEVEL", "SECRET_KEY", "BASE_URL"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadGeneratesSecret(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "DATABASE_PATH", "LOG_LEVEL", "SECRET_KEY", "BASE_URL"} {
		t.Setenv(key, "")
	}

	first, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.SecretKey == "" {
		t.Fatal("expected generated secret, got empty string")
	}

	second, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(Config{}, "SecretKey")); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if first.SecretKey == second.SecretKey {
		t.Error("expected a fresh secret per load")
	}
}
