// Package config loads chorebot settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort          = "8080"
	defaultDBPath        = "chorebot.db"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultIconEmoji     = ":broom:"
	defaultUsername      = "Chores Bot"
	defaultKeyword       = "OOO"
	defaultReminderDelay = 4 * time.Hour
	defaultCycleHour     = 9
	defaultCredit        = 1
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Slack    SlackConfig
	Calendar CalendarConfig
	Rotation RotationConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Path string
}

type LogConfig struct {
	Level  string
	Format string
}

// SlackConfig holds bot credentials. Without a token messages are only
// logged.
type SlackConfig struct {
	Token         string
	SigningSecret string
	Channel       string
	IconEmoji     string
	Username      string
}

// Enabled reports whether messages go to Slack.
func (s SlackConfig) Enabled() bool {
	return s.Token != ""
}

// CalendarConfig selects the Google calendar holding out-of-office events.
// Without a calendar id only locally recorded absences are used.
type CalendarConfig struct {
	ID              string
	CredentialsFile string
	Keyword         string
}

type RotationConfig struct {
	ReminderDelay    time.Duration
	CycleHour        int
	Location         *time.Location
	CompletionCredit int
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	var invalid []string

	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}
	getInt := func(key string, def int) int {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return n
	}
	getDuration := func(key string, def time.Duration) time.Duration {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return d
	}

	cfg := Config{
		Server:   ServerConfig{Port: get("CHOREBOT_PORT", defaultPort)},
		Database: DatabaseConfig{Path: get("CHOREBOT_DB_PATH", defaultDBPath)},
		Log: LogConfig{
			Level:  get("CHOREBOT_LOG_LEVEL", defaultLogLevel),
			Format: get("CHOREBOT_LOG_FORMAT", defaultLogFormat),
		},
		Slack: SlackConfig{
			Token:         get("CHOREBOT_SLACK_TOKEN", ""),
			SigningSecret: get("CHOREBOT_SLACK_SIGNING_SECRET", ""),
			Channel:       get("CHOREBOT_SLACK_CHANNEL", ""),
			IconEmoji:     get("CHOREBOT_SLACK_ICON_EMOJI", defaultIconEmoji),
			Username:      get("CHOREBOT_SLACK_USERNAME", defaultUsername),
		},
		Calendar: CalendarConfig{
			ID:              get("CHOREBOT_CALENDAR_ID", ""),
			CredentialsFile: get("CHOREBOT_CALENDAR_CREDENTIALS", ""),
			Keyword:         get("CHOREBOT_CALENDAR_KEYWORD", defaultKeyword),
		},
		Rotation: RotationConfig{
			ReminderDelay:    getDuration("CHOREBOT_REMINDER_DELAY", defaultReminderDelay),
			CycleHour:        getInt("CHOREBOT_CYCLE_HOUR", defaultCycleHour),
			CompletionCredit: getInt("CHOREBOT_COMPLETION_CREDIT", defaultCredit),
			Location:         time.Local,
		},
	}

	if tz := get("CHOREBOT_TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "CHOREBOT_TIMEZONE")
		} else {
			cfg.Rotation.Location = loc
		}
	}

	if p, err := strconv.Atoi(cfg.Server.Port); err != nil || p <= 0 || p > 65535 {
		invalid = append(invalid, "CHOREBOT_PORT")
	}
	if h := cfg.Rotation.CycleHour; h < 0 || h > 23 {
		invalid = append(invalid, "CHOREBOT_CYCLE_HOUR")
	}
	if cfg.Rotation.ReminderDelay <= 0 {
		invalid = append(invalid, "CHOREBOT_REMINDER_DELAY")
	}
	if cfg.Rotation.CompletionCredit < 0 {
		invalid = append(invalid, "CHOREBOT_COMPLETION_CREDIT")
	}
	if cfg.Slack.Enabled() && cfg.Slack.SigningSecret == "" {
		invalid = append(invalid, "CHOREBOT_SLACK_SIGNING_SECRET")
	}

	if len(invalid) > 0 {
		return cfg, &ValidationError{fields: invalid}
	}
	return cfg, nil
}
