package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("PACKAGES")
	os.Unsetenv("PYPISTATS_BASE_URL")
	os.Unsetenv("OUTPUT_FILE")
	os.Unsetenv("STORAGE_TYPE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://pypistats.org/api/packages", cfg.BaseURL)
	assert.Equal(t, "docs/data/stats.json", cfg.OutputFile)
	assert.Equal(t, "sqlite", cfg.StorageType)
	assert.Equal(t, DefaultPackages, cfg.Packages)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PackagesFromEnv(t *testing.T) {
	os.Setenv("PACKAGES", "alpha, beta ,,gamma")
	defer os.Unsetenv("PACKAGES")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.Packages)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{
			name:  "empty falls back to defaults",
			value: "",
			want:  DefaultPackages,
		},
		{
			name:  "whitespace only falls back to defaults",
			value: " , ,",
			want:  DefaultPackages,
		},
		{
			name:  "trims entries",
			value: "a, b,c ",
			want:  []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.value))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.BaseURL = "" },
			wantErr: "PYPISTATS_BASE_URL",
		},
		{
			name:    "no packages",
			mutate:  func(c *Config) { c.Packages = nil },
			wantErr: "PACKAGES",
		},
		{
			name:    "missing output file",
			mutate:  func(c *Config) { c.OutputFile = "" },
			wantErr: "OUTPUT_FILE",
		},
		{
			name:    "bad storage type",
			mutate:  func(c *Config) { c.StorageType = "redis" },
			wantErr: "STORAGE_TYPE",
		},
		{
			name:    "postgres without URL",
			mutate:  func(c *Config) { c.StorageType = "postgres"; c.PostgresURL = "" },
			wantErr: "POSTGRES_URL",
		},
		{
			name:   "storage disabled",
			mutate: func(c *Config) { c.StorageType = "none" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				BaseURL:     "https://pypistats.org/api/packages",
				Packages:    []string{"ospac"},
				OutputFile:  "stats.json",
				StorageType: "sqlite",
				SQLitePath:  "./history.db",
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
