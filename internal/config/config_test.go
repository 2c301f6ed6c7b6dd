package config_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semclass/internal/config"
	"semclass/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultCategory, cfg.Classify.Category)
	assert.Equal(t, 48, cfg.Classify.Threshold)
	assert.Equal(t, 10, cfg.Classify.MaxTopics)
	assert.Equal(t, 1, cfg.Classify.Workers)
	assert.Equal(t, []string{"file", "text"}, cfg.Classify.Strategies)
	assert.Equal(t, domain.FormatText, cfg.Output.Format)
	assert.Equal(t, domain.TabularWide, cfg.Output.TabularMode)
	assert.Equal(t, "./downloads", cfg.Source.Directory)
	assert.Equal(t, "noop", cfg.Notify.Provider)
	assert.Empty(t, cfg.Output.MetricsFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("SEMAPHORE_API_KEY", "legacy-key")
	t.Setenv("DOWNLOAD_SCRIPT", "/opt/scripts/download.py")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-key", cfg.Service.APIKey)
	assert.Equal(t, "/opt/scripts/download.py", cfg.Assets.DownloadScript)
}

func TestLoad_PrefixedEnv(t *testing.T) {
	t.Setenv("SEMCLASS_CLASSIFY_MAX_TOPICS", "3")
	t.Setenv("SEMCLASS_SOURCE_EXCLUDE_EXTENSIONS", "mp4, avi,mov")
	t.Setenv("SEMCLASS_OUTPUT_FORMAT", "CSV")
	t.Setenv("SEMCLASS_OUTPUT_METRICS_FILE", "/var/lib/node_exporter/semclass.prom")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Classify.MaxTopics)
	assert.Equal(t, []string{"mp4", "avi", "mov"}, cfg.Source.ExcludeExtensions)
	assert.Equal(t, domain.FormatCSV, cfg.Output.Format)
	assert.Equal(t, "/var/lib/node_exporter/semclass.prom", cfg.Output.MetricsFile)
}

func TestLoadWithFlags_FlagOverridesEnv(t *testing.T) {
	t.Setenv("SEMCLASS_CLASSIFY_THRESHOLD", "30")
	t.Setenv("SEMCLASS_CLASSIFY_MAX_TOPICS", "7")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("threshold", 48, "")
	fs.Int("max-topics", 10, "")
	fs.StringSlice("include-extensions", nil, "")
	require.NoError(t, fs.Parse([]string{"--threshold", "60", "--include-extensions", "pdf,txt"}))

	cfg, err := config.LoadWithFlags(fs)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Classify.Threshold)
	assert.Equal(t, 7, cfg.Classify.MaxTopics)
	assert.Equal(t, []string{"pdf", "txt"}, cfg.Source.IncludeExtensions)
}

func TestServiceConfig_URLs(t *testing.T) {
	svc := config.ServiceConfig{
		BaseURL:         "https://example.org/",
		TokenPath:       "/token/",
		ClassifyPath:    "/cls/prod/cs/",
		AlternativePath: "classification/",
	}

	assert.Equal(t, "https://example.org/token/", svc.TokenURL())
	assert.Equal(t, "https://example.org/cls/prod/cs/", svc.ClassificationURL())

	svc.UseAlternative = true
	assert.Equal(t, "https://example.org/classification/", svc.ClassificationURL())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Classify: config.ClassifyConfig{Category: "C", Threshold: 48, MaxTopics: 10, Workers: 1, Strategies: []string{"file"}},
			Output:   config.OutputConfig{Format: domain.FormatJSON, TabularMode: domain.TabularWide},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"threshold too low", func(c *config.Config) { c.Classify.Threshold = 0 }},
		{"threshold too high", func(c *config.Config) { c.Classify.Threshold = 100 }},
		{"negative max topics", func(c *config.Config) { c.Classify.MaxTopics = -1 }},
		{"no workers", func(c *config.Config) { c.Classify.Workers = 0 }},
		{"empty category", func(c *config.Config) { c.Classify.Category = "" }},
		{"no strategies", func(c *config.Config) { c.Classify.Strategies = nil }},
		{"unknown format", func(c *config.Config) { c.Output.Format = "yaml" }},
		{"unknown tabular mode", func(c *config.Config) { c.Output.TabularMode = "tall" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_UnknownFormatIsSentinel(t *testing.T) {
	cfg := &config.Config{
		Classify: config.ClassifyConfig{Category: "C", Threshold: 48, Workers: 1, Strategies: []string{"text"}},
		Output:   config.OutputConfig{Format: "pdf", TabularMode: domain.TabularWide},
	}
	assert.ErrorIs(t, cfg.Validate(), domain.ErrUnsupportedFormat)
}
