package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	defaultFeedURL  = "https://aws.amazon.com/about-aws/whats-new/recent/feed/"

	configPathEnv       = "NEWSBOT_CONFIG"
	slackWebhookEnv     = "SLACK_WEBHOOK"
	awsRegionEnv        = "AWS_REGION"
	dynamoTableEnv      = "DYNAMODB_TABLE"
	bedrockModelEnv     = "BEDROCK_MODEL_ID"
	maxRetriesEnv       = "MAX_RETRIES"
	retryDelayBaseEnv   = "RETRY_DELAY_BASE"
	maxSlackLengthEnv   = "MAX_SLACK_LENGTH"
	contentMaxLengthEnv = "CONTENT_MAX_LENGTH"
	requestTimeoutEnv   = "REQUEST_TIMEOUT"
	processingDelayEnv  = "PROCESSING_DELAY"
	initialDelayEnv     = "INITIAL_DELAY"
	feedURLEnv          = "FEED_URL"
	userAgentEnv        = "USER_AGENT"
	summaryLanguageEnv  = "SUMMARY_LANGUAGE"
	storeBackendEnv     = "STORE_BACKEND"
	databaseDSNEnv      = "DATABASE_DSN"
	logLevelEnv         = "LOG_LEVEL"
	logFormatEnv        = "LOG_FORMAT"
	cronScheduleEnv     = "CRON_SCHEDULE"
	timezoneEnv         = "TZ_NAME"
	httpAddrEnv         = "HTTP_ADDR"
)

// Store backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendSQL      = "sql"
)

// Config holds every setting of a relay process.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Feed      FeedConfig      `yaml:"feed"`
	AWS       AWSConfig       `yaml:"aws"`
	Store     StoreConfig     `yaml:"store"`
	Bedrock   BedrockConfig   `yaml:"bedrock"`
	Summary   SummaryConfig   `yaml:"summary"`
	Slack     SlackConfig     `yaml:"slack"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FeedConfig points at the announcement feed.
type FeedConfig struct {
	URL       string `yaml:"url"`
	UserAgent string `yaml:"userAgent"`
}

// AWSConfig is shared by the DynamoDB and Bedrock clients.
type AWSConfig struct {
	Region string `yaml:"region"`
}

// StoreConfig selects the dedup store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Table   string `yaml:"table"`
	DSN     string `yaml:"dsn"`
}

// BedrockConfig addresses the hosted model.
type BedrockConfig struct {
	ModelID     string  `yaml:"modelId"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float64 `yaml:"temperature"`
}

// SummaryConfig tunes prompt language, retries and input size.
type SummaryConfig struct {
	Language         string `yaml:"language"`
	MaxRetries       int    `yaml:"maxRetries"`
	RetryDelayBase   int    `yaml:"retryDelayBase"`
	ContentMaxLength int    `yaml:"contentMaxLength"`
}

// SlackConfig is the notification webhook.
type SlackConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
	MaxLength  int    `yaml:"maxLength"`
}

// PipelineConfig holds timeouts and pacing, all in seconds.
type PipelineConfig struct {
	RequestTimeout  int `yaml:"requestTimeout"`
	ProcessingDelay int `yaml:"processingDelay"`
	InitialDelay    int `yaml:"initialDelay"`
}

// RequestTimeoutDuration bounds every outbound HTTP call.
func (p PipelineConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(p.RequestTimeout) * time.Second
}

// ProcessingDelayDuration is the pause after each summarized item.
func (p PipelineConfig) ProcessingDelayDuration() time.Duration {
	return time.Duration(p.ProcessingDelay) * time.Second
}

// InitialDelayDuration is the one-time pause before the first model call.
func (p PipelineConfig) InitialDelayDuration() time.Duration {
	return time.Duration(p.InitialDelay) * time.Second
}

// SchedulerConfig defines when the cron mode should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// HTTPConfig is the listen address of the http mode.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Load applies defaults, the optional YAML file and environment overrides,
// then validates the required settings. An empty path falls back to
// NEWSBOT_CONFIG.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)

		var explicit explicitKeys
		if err := yaml.Unmarshal(raw, &explicit); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if explicit.Bedrock.Temperature != nil {
			cfg.Bedrock.Temperature = *explicit.Bedrock.Temperature
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Slack.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("%s is required", slackWebhookEnv))
	}
	if c.AWS.Region == "" {
		errs = append(errs, fmt.Errorf("%s is required", awsRegionEnv))
	}
	if c.Store.Table == "" {
		errs = append(errs, fmt.Errorf("%s is required", dynamoTableEnv))
	}
	if c.Bedrock.ModelID == "" {
		errs = append(errs, fmt.Errorf("%s is required", bedrockModelEnv))
	}
	switch c.Store.Backend {
	case BackendDynamoDB:
	case BackendSQL:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("%s is required for the sql store", databaseDSNEnv))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Summary.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", maxRetriesEnv))
	}
	if c.Summary.RetryDelayBase < 2 {
		errs = append(errs, fmt.Errorf("%s must be at least 2", retryDelayBaseEnv))
	}
	if c.Bedrock.Temperature < 0 || c.Bedrock.Temperature > 1 {
		errs = append(errs, fmt.Errorf("bedrock temperature must be within [0, 1], got %v", c.Bedrock.Temperature))
	}
	if c.Slack.MaxLength < 100 {
		errs = append(errs, fmt.Errorf("%s must be at least 100", maxSlackLengthEnv))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	envString(slackWebhookEnv, &c.Slack.WebhookURL)
	envString(awsRegionEnv, &c.AWS.Region)
	envString(dynamoTableEnv, &c.Store.Table)
	envString(bedrockModelEnv, &c.Bedrock.ModelID)
	envString(feedURLEnv, &c.Feed.URL)
	envString(userAgentEnv, &c.Feed.UserAgent)
	envString(summaryLanguageEnv, &c.Summary.Language)
	envString(storeBackendEnv, &c.Store.Backend)
	envString(databaseDSNEnv, &c.Store.DSN)
	envString(logLevelEnv, &c.Logging.Level)
	envString(logFormatEnv, &c.Logging.Format)
	envString(cronScheduleEnv, &c.Scheduler.CronExpression)
	envString(timezoneEnv, &c.Scheduler.Timezone)
	envString(httpAddrEnv, &c.HTTP.Addr)

	envInt(maxRetriesEnv, &c.Summary.MaxRetries)
	envInt(retryDelayBaseEnv, &c.Summary.RetryDelayBase)
	envInt(contentMaxLengthEnv, &c.Summary.ContentMaxLength)
	envInt(maxSlackLengthEnv, &c.Slack.MaxLength)
	envInt(requestTimeoutEnv, &c.Pipeline.RequestTimeout)
	envInt(processingDelayEnv, &c.Pipeline.ProcessingDelay)
	envInt(initialDelayEnv, &c.Pipeline.InitialDelay)

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("config: invalid integer %s=%q, keeping %d", key, v, *dst)
		return
	}
	*dst = n
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

// explicitKeys holds file settings whose zero value is meaningful, so
// presence rather than non-zero decides the override.
type explicitKeys struct {
	Bedrock struct {
		Temperature *float64 `yaml:"temperature"`
	} `yaml:"bedrock"`
}

func mergeConfig(base, override Config) Config {
	mergeString(&base.Logging.Level, override.Logging.Level)
	mergeString(&base.Logging.Format, override.Logging.Format)

	mergeString(&base.Feed.URL, override.Feed.URL)
	mergeString(&base.Feed.UserAgent, override.Feed.UserAgent)

	mergeString(&base.AWS.Region, override.AWS.Region)

	mergeString(&base.Store.Backend, override.Store.Backend)
	mergeString(&base.Store.Table, override.Store.Table)
	mergeString(&base.Store.DSN, override.Store.DSN)

	mergeString(&base.Bedrock.ModelID, override.Bedrock.ModelID)
	mergeInt(&base.Bedrock.MaxTokens, override.Bedrock.MaxTokens)

	mergeString(&base.Summary.Language, override.Summary.Language)
	mergeInt(&base.Summary.MaxRetries, override.Summary.MaxRetries)
	mergeInt(&base.Summary.RetryDelayBase, override.Summary.RetryDelayBase)
	mergeInt(&base.Summary.ContentMaxLength, override.Summary.ContentMaxLength)

	mergeString(&base.Slack.WebhookURL, override.Slack.WebhookURL)
	mergeInt(&base.Slack.MaxLength, override.Slack.MaxLength)

	mergeInt(&base.Pipeline.RequestTimeout, override.Pipeline.RequestTimeout)
	mergeInt(&base.Pipeline.ProcessingDelay, override.Pipeline.ProcessingDelay)
	mergeInt(&base.Pipeline.InitialDelay, override.Pipeline.InitialDelay)

	mergeString(&base.Scheduler.CronExpression, override.Scheduler.CronExpression)
	mergeString(&base.Scheduler.Timezone, override.Scheduler.Timezone)

	mergeString(&base.HTTP.Addr, override.HTTP.Addr)

	return base
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Feed:    FeedConfig{URL: defaultFeedURL, UserAgent: "AWSNewsBot/1.0"},
		Store:   StoreConfig{Backend: BackendDynamoDB},
		Bedrock: BedrockConfig{MaxTokens: 4000, Temperature: 0.3},
		Summary: SummaryConfig{
			Language:         "Korean",
			MaxRetries:       3,
			RetryDelayBase:   2,
			ContentMaxLength: 3000,
		},
		Slack: SlackConfig{MaxLength: 3900},
		Pipeline: PipelineConfig{
			RequestTimeout:  10,
			ProcessingDelay: 12,
			InitialDelay:    3,
		},
		Scheduler: SchedulerConfig{CronExpression: "*/30 * * * *", Timezone: defaultTimezone, location: tz},
		HTTP:      HTTPConfig{Addr: ":8080"},
	}
}
