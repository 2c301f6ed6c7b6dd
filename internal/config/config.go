package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"semclass/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Service  ServiceConfig
	Classify ClassifyConfig
	Output   OutputConfig
	Source   SourceConfig
	Assets   AssetsConfig
	S3       S3Config
	Notify   NotifyConfig
	Server   ServerConfig
	CORS     CORSConfig
}

// ServiceConfig holds classification service connection settings.
type ServiceConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	APIKey          string `mapstructure:"api_key"`
	TokenPath       string `mapstructure:"token_path"`
	ClassifyPath    string `mapstructure:"classify_path"`
	AlternativePath string `mapstructure:"alternative_path"`
	UseAlternative  bool   `mapstructure:"use_alternative"`
	Language        string `mapstructure:"language"`
	TimeoutSecs     int    `mapstructure:"timeout_secs"`
}

// TokenURL returns the authentication endpoint.
func (s *ServiceConfig) TokenURL() string {
	return joinURL(s.BaseURL, s.TokenPath)
}

// ClassificationURL returns the endpoint documents are submitted to.
func (s *ServiceConfig) ClassificationURL() string {
	if s.UseAlternative {
		return joinURL(s.BaseURL, s.AlternativePath)
	}
	return joinURL(s.BaseURL, s.ClassifyPath)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// ClassifyConfig holds batch classification settings.
type ClassifyConfig struct {
	Category        string   `mapstructure:"category"`
	Threshold       int      `mapstructure:"threshold"`
	MaxTopics       int      `mapstructure:"max_topics"`
	Workers         int      `mapstructure:"workers"`
	ItemTimeoutSecs int      `mapstructure:"item_timeout_secs"`
	Strategies      []string `mapstructure:"strategies"`
}

// ItemTimeout returns the per-item deadline, or 0 for none.
func (c *ClassifyConfig) ItemTimeout() time.Duration {
	return time.Duration(c.ItemTimeoutSecs) * time.Second
}

// OutputConfig holds rendering settings.
type OutputConfig struct {
	Format           domain.OutputFormat `mapstructure:"format"`
	Destination      string              `mapstructure:"destination"`
	IncludeScores    bool                `mapstructure:"include_scores"`
	TabularMode      domain.TabularMode  `mapstructure:"tabular_mode"`
	IdentifierHeader string              `mapstructure:"identifier_header"`
	TopicHeader      string              `mapstructure:"topic_header"`
	BOM              bool                `mapstructure:"bom"`
	RawJSON          bool                `mapstructure:"raw_json"`
	RawDestination   string              `mapstructure:"raw_destination"`
	MetricsFile      string              `mapstructure:"metrics_file"`
}

// SourceConfig holds input discovery settings.
type SourceConfig struct {
	Directory         string   `mapstructure:"directory"`
	Recursive         bool     `mapstructure:"recursive"`
	IncludeExtensions []string `mapstructure:"include_extensions"`
	ExcludeExtensions []string `mapstructure:"exclude_extensions"`
}

// AssetsConfig holds settings for the external asset download step.
type AssetsConfig struct {
	DownloadScript string `mapstructure:"download_script"`
	Interpreter    string `mapstructure:"interpreter"`
	FolderRef      string `mapstructure:"folder_ref"`
	KeepFiles      bool   `mapstructure:"keep_files"`
}

// S3Config holds AWS S3 settings for s3:// output destinations.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// NotifyConfig holds batch-complete notification settings.
type NotifyConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	ToAddresses []string `mapstructure:"to_addresses"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// flagBindings maps command-line flag names to config keys.
var flagBindings = map[string]string{
	"api-key":               "service.api_key",
	"language":              "service.language",
	"alternative":           "service.use_alternative",
	"category":              "classify.category",
	"threshold":             "classify.threshold",
	"max-topics":            "classify.max_topics",
	"workers":               "classify.workers",
	"strategies":            "classify.strategies",
	"format":                "output.format",
	"output":                "output.destination",
	"include-scoring":       "output.include_scores",
	"tabular-mode":          "output.tabular_mode",
	"raw-json":              "output.raw_json",
	"raw-output":            "output.raw_destination",
	"metrics-file":          "output.metrics_file",
	"recursive":             "source.recursive",
	"include-extensions":    "source.include_extensions",
	"exclude-extensions":    "source.exclude_extensions",
	"preservica-folder-ref": "assets.folder_ref",
	"keep-files":            "assets.keep_files",
}

// Load reads configuration from a .env file and environment variables with the
// SEMCLASS_ prefix.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags is Load with command-line flags layered on top. Only flags that were
// set explicitly override the environment.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	// .env does not override variables already present in the environment
	if _, err := os.Stat(".env"); err == nil {
		if err := gotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("SEMCLASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Service defaults
	v.SetDefault("service.base_url", "https://icaew.data.progress.cloud")
	v.SetDefault("service.api_key", "")
	v.SetDefault("service.token_path", "/token/")
	v.SetDefault("service.classify_path", "/cls/prod/cs/")
	v.SetDefault("service.alternative_path", "/classification/")
	v.SetDefault("service.use_alternative", false)
	v.SetDefault("service.language", "")
	v.SetDefault("service.timeout_secs", 120)

	// Classify defaults
	v.SetDefault("classify.category", domain.DefaultCategory)
	v.SetDefault("classify.threshold", 48)
	v.SetDefault("classify.max_topics", 10)
	v.SetDefault("classify.workers", 1)
	v.SetDefault("classify.item_timeout_secs", 300)
	v.SetDefault("classify.strategies", "file,text")

	// Output defaults
	v.SetDefault("output.format", string(domain.FormatText))
	v.SetDefault("output.destination", "-")
	v.SetDefault("output.include_scores", false)
	v.SetDefault("output.tabular_mode", string(domain.TabularWide))
	v.SetDefault("output.identifier_header", "identifier")
	v.SetDefault("output.topic_header", "topic")
	v.SetDefault("output.bom", false)
	v.SetDefault("output.raw_json", false)
	v.SetDefault("output.raw_destination", "-")
	v.SetDefault("output.metrics_file", "")

	// Source defaults
	v.SetDefault("source.directory", "./downloads")
	v.SetDefault("source.recursive", false)
	v.SetDefault("source.include_extensions", "")
	v.SetDefault("source.exclude_extensions", "")

	// Assets defaults
	v.SetDefault("assets.download_script", "")
	v.SetDefault("assets.interpreter", "python3")
	v.SetDefault("assets.folder_ref", "")
	v.SetDefault("assets.keep_files", false)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "eu-west-2")
	v.SetDefault("notify.from_address", "")
	v.SetDefault("notify.from_name", "semclass")
	v.SetDefault("notify.to_addresses", "")

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.environment", "development")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys. The unprefixed names are
	// what earlier tooling used and are still accepted.
	envBindings := map[string][]string{
		"service.base_url":           {"SEMCLASS_SERVICE_BASE_URL"},
		"service.api_key":            {"SEMCLASS_SERVICE_API_KEY", "SEMAPHORE_API_KEY"},
		"service.token_path":         {"SEMCLASS_SERVICE_TOKEN_PATH"},
		"service.classify_path":      {"SEMCLASS_SERVICE_CLASSIFY_PATH"},
		"service.alternative_path":   {"SEMCLASS_SERVICE_ALTERNATIVE_PATH"},
		"service.use_alternative":    {"SEMCLASS_SERVICE_USE_ALTERNATIVE"},
		"service.language":           {"SEMCLASS_SERVICE_LANGUAGE"},
		"service.timeout_secs":       {"SEMCLASS_SERVICE_TIMEOUT_SECS"},
		"classify.category":          {"SEMCLASS_CLASSIFY_CATEGORY"},
		"classify.threshold":         {"SEMCLASS_CLASSIFY_THRESHOLD"},
		"classify.max_topics":        {"SEMCLASS_CLASSIFY_MAX_TOPICS"},
		"classify.workers":           {"SEMCLASS_CLASSIFY_WORKERS"},
		"classify.item_timeout_secs": {"SEMCLASS_CLASSIFY_ITEM_TIMEOUT_SECS"},
		"classify.strategies":        {"SEMCLASS_CLASSIFY_STRATEGIES"},
		"output.format":              {"SEMCLASS_OUTPUT_FORMAT"},
		"output.destination":         {"SEMCLASS_OUTPUT_DESTINATION"},
		"output.include_scores":      {"SEMCLASS_OUTPUT_INCLUDE_SCORES"},
		"output.tabular_mode":        {"SEMCLASS_OUTPUT_TABULAR_MODE"},
		"output.identifier_header":   {"SEMCLASS_OUTPUT_IDENTIFIER_HEADER"},
		"output.topic_header":        {"SEMCLASS_OUTPUT_TOPIC_HEADER"},
		"output.bom":                 {"SEMCLASS_OUTPUT_BOM"},
		"output.raw_json":            {"SEMCLASS_OUTPUT_RAW_JSON"},
		"output.raw_destination":     {"SEMCLASS_OUTPUT_RAW_DESTINATION"},
		"output.metrics_file":        {"SEMCLASS_OUTPUT_METRICS_FILE"},
		"source.directory":           {"SEMCLASS_SOURCE_DIRECTORY"},
		"source.recursive":           {"SEMCLASS_SOURCE_RECURSIVE"},
		"source.include_extensions":  {"SEMCLASS_SOURCE_INCLUDE_EXTENSIONS"},
		"source.exclude_extensions":  {"SEMCLASS_SOURCE_EXCLUDE_EXTENSIONS"},
		"assets.download_script":     {"SEMCLASS_ASSETS_DOWNLOAD_SCRIPT", "DOWNLOAD_SCRIPT"},
		"assets.interpreter":         {"SEMCLASS_ASSETS_INTERPRETER"},
		"assets.folder_ref":          {"SEMCLASS_ASSETS_FOLDER_REF"},
		"assets.keep_files":          {"SEMCLASS_ASSETS_KEEP_FILES"},
		"s3.region":                  {"SEMCLASS_S3_REGION"},
		"s3.endpoint":                {"SEMCLASS_S3_ENDPOINT"},
		"s3.access_key":              {"SEMCLASS_S3_ACCESS_KEY"},
		"s3.secret_key":              {"SEMCLASS_S3_SECRET_KEY"},
		"notify.provider":            {"SEMCLASS_NOTIFY_PROVIDER"},
		"notify.region":              {"SEMCLASS_NOTIFY_REGION"},
		"notify.from_address":        {"SEMCLASS_NOTIFY_FROM_ADDRESS"},
		"notify.from_name":           {"SEMCLASS_NOTIFY_FROM_NAME"},
		"notify.to_addresses":        {"SEMCLASS_NOTIFY_TO_ADDRESSES"},
		"server.port":                {"SEMCLASS_SERVER_PORT"},
		"server.read_timeout":        {"SEMCLASS_SERVER_READ_TIMEOUT"},
		"server.write_timeout":       {"SEMCLASS_SERVER_WRITE_TIMEOUT"},
		"server.environment":         {"SEMCLASS_SERVER_ENVIRONMENT"},
		"cors.allowed_origins":       {"SEMCLASS_CORS_ALLOWED_ORIGINS"},
	}
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	if fs != nil {
		for flag, key := range flagBindings {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", flag, err)
				}
			}
		}
	}

	cfg := &Config{}

	cfg.Service = ServiceConfig{
		BaseURL:         v.GetString("service.base_url"),
		APIKey:          v.GetString("service.api_key"),
		TokenPath:       v.GetString("service.token_path"),
		ClassifyPath:    v.GetString("service.classify_path"),
		AlternativePath: v.GetString("service.alternative_path"),
		UseAlternative:  v.GetBool("service.use_alternative"),
		Language:        v.GetString("service.language"),
		TimeoutSecs:     v.GetInt("service.timeout_secs"),
	}
	cfg.Classify = ClassifyConfig{
		Category:        v.GetString("classify.category"),
		Threshold:       v.GetInt("classify.threshold"),
		MaxTopics:       v.GetInt("classify.max_topics"),
		Workers:         v.GetInt("classify.workers"),
		ItemTimeoutSecs: v.GetInt("classify.item_timeout_secs"),
		Strategies:      splitList(v.GetStringSlice("classify.strategies")),
	}
	cfg.Output = OutputConfig{
		Format:           domain.OutputFormat(strings.ToLower(v.GetString("output.format"))),
		Destination:      v.GetString("output.destination"),
		IncludeScores:    v.GetBool("output.include_scores"),
		TabularMode:      domain.TabularMode(strings.ToLower(v.GetString("output.tabular_mode"))),
		IdentifierHeader: v.GetString("output.identifier_header"),
		TopicHeader:      v.GetString("output.topic_header"),
		BOM:              v.GetBool("output.bom"),
		RawJSON:          v.GetBool("output.raw_json"),
		RawDestination:   v.GetString("output.raw_destination"),
		MetricsFile:      v.GetString("output.metrics_file"),
	}
	cfg.Source = SourceConfig{
		Directory:         v.GetString("source.directory"),
		Recursive:         v.GetBool("source.recursive"),
		IncludeExtensions: splitList(v.GetStringSlice("source.include_extensions")),
		ExcludeExtensions: splitList(v.GetStringSlice("source.exclude_extensions")),
	}
	cfg.Assets = AssetsConfig{
		DownloadScript: v.GetString("assets.download_script"),
		Interpreter:    v.GetString("assets.interpreter"),
		FolderRef:      v.GetString("assets.folder_ref"),
		KeepFiles:      v.GetBool("assets.keep_files"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Notify = NotifyConfig{
		Provider:    v.GetString("notify.provider"),
		Region:      v.GetString("notify.region"),
		FromAddress: v.GetString("notify.from_address"),
		FromName:    v.GetString("notify.from_name"),
		ToAddresses: splitList(v.GetStringSlice("notify.to_addresses")),
	}
	cfg.Server = ServerConfig{
		Port:         v.GetString("server.port"),
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	// Railway/Heroku/Render set a PORT env var. Use it if SEMCLASS_SERVER_PORT is not explicitly set.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SEMCLASS_SERVER_PORT") == "" {
		cfg.Server.Port = ":" + port
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins")),
	}

	return cfg, nil
}

// splitList flattens comma-separated entries, trimming blanks. Values may arrive as one
// comma-joined string (env, defaults) or as separate entries (flags).
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks values that would otherwise fail late, mid-batch.
func (c *Config) Validate() error {
	if c.Classify.Threshold < 1 || c.Classify.Threshold > 99 {
		return fmt.Errorf("classify.threshold must be between 1 and 99, got %d", c.Classify.Threshold)
	}
	if c.Classify.MaxTopics < 0 {
		return fmt.Errorf("classify.max_topics must not be negative, got %d", c.Classify.MaxTopics)
	}
	if c.Classify.Workers < 1 {
		return fmt.Errorf("classify.workers must be at least 1, got %d", c.Classify.Workers)
	}
	if c.Classify.Category == "" {
		return fmt.Errorf("classify.category must not be empty")
	}
	if len(c.Classify.Strategies) == 0 {
		return fmt.Errorf("classify.strategies must name at least one strategy")
	}
	if !domain.ValidOutputFormats[c.Output.Format] {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, c.Output.Format)
	}
	if c.Output.TabularMode != domain.TabularWide && c.Output.TabularMode != domain.TabularLong {
		return fmt.Errorf("output.tabular_mode must be %q or %q, got %q",
			domain.TabularWide, domain.TabularLong, c.Output.TabularMode)
	}
	return nil
}
