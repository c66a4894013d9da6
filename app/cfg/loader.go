package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./jobcast.db" description:"Path to the SQLite database file"`

	// HTTP configuration
	Port    string `long:"port" env:"PORT" default:"8001" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" default:"http://localhost:8001" description:"Public base URL used in verification and unsubscribe links"`

	// Subscription configuration
	AllowlistFile  string `long:"allowlist-file" env:"ALLOWLIST_FILE" default:"./allowlist.yml" description:"YAML file with allowed email domains (defaults apply when absent)"`
	TokenSecret    string `long:"token-secret" env:"JWT_SECRET" required:"true" description:"HMAC secret for capability tokens (required)"`
	TokenTTLHours  int    `long:"token-ttl-hours" env:"TOKEN_EXPIRY_HOURS" default:"24" description:"Verification token lifetime in hours"`
	SendGridAPIKey string `long:"sendgrid-api-key" env:"SENDGRID_API_KEY" description:"SendGrid API key (emails are logged but not sent when empty)"`
	FromEmail      string `long:"from-email" env:"FROM_EMAIL" default:"alerts@jobcast.local" description:"Sender address for outgoing mail"`
	FromName       string `long:"from-name" env:"FROM_NAME" default:"Jobcast" description:"Sender display name for outgoing mail"`

	// Pipeline configuration
	ChannelID        string `long:"channel-id" env:"CHANNEL_ID" required:"true" description:"YouTube channel ID to watch for job videos (required)"`
	MaxVideos        int    `long:"max-videos" env:"MAX_VIDEOS" default:"10" description:"Maximum videos ingested per pipeline cycle"`
	PipelineSchedule string `long:"pipeline-schedule" env:"PIPELINE_SCHEDULE" default:"@every 6h" description:"Cron spec for the job-alert pipeline"`
	CronSecret       string `long:"cron-secret" env:"CRON_SECRET" description:"Shared secret for the external pipeline trigger endpoint (endpoint disabled when empty)"`
	RequestTimeout   int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"60" description:"Timeout in seconds for outbound video/extractor/notifier calls"`

	// Extractor configuration
	GeminiAPIKey string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key for job extraction"`
	GeminiModel  string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-2.0-flash" description:"Gemini model used for job extraction"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Jobcast/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:           raw.DBPath,
		Port:             raw.Port,
		BaseUrl:          raw.BaseUrl,
		AllowlistFile:    raw.AllowlistFile,
		TokenSecret:      raw.TokenSecret,
		TokenTTLHours:    raw.TokenTTLHours,
		SendGridAPIKey:   raw.SendGridAPIKey,
		FromEmail:        raw.FromEmail,
		FromName:         raw.FromName,
		ChannelID:        raw.ChannelID,
		MaxVideos:        raw.MaxVideos,
		PipelineSchedule: raw.PipelineSchedule,
		CronSecret:       raw.CronSecret,
		RequestTimeout:   raw.RequestTimeout,
		GeminiAPIKey:     raw.GeminiAPIKey,
		GeminiModel:      raw.GeminiModel,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
