package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "Europe/Moscow"
	configPathEnv    = "WORUMTOP_CONFIG"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	dialectEnv       = "WORUMTOP_DIALECT"
	logLevelEnv      = "WORUMTOP_LOG_LEVEL"
	cronEnv          = "WORUMTOP_CRON"
)

// Config holds high-level settings required across the application.
type Config struct {
	Forum     ForumConfig     `yaml:"forum"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ForumConfig is the fixed site contract: origin, listing path and selectors.
type ForumConfig struct {
	Origin      string         `yaml:"origin"`
	ForumPath   string         `yaml:"forumPath"`
	ImageScheme string         `yaml:"imageScheme"`
	UserAgent   string         `yaml:"userAgent"`
	Selectors   SelectorConfig `yaml:"selectors"`
}

// SelectorConfig maps each extracted field to a CSS query. Adapting to a site
// redesign means editing these values, not the parser.
type SelectorConfig struct {
	Item                string `yaml:"item"`
	Title               string `yaml:"title"`
	Link                string `yaml:"link"`
	Image               string `yaml:"image"`
	Excerpt             string `yaml:"excerpt"`
	RubricSection       string `yaml:"rubricSection"`
	RubricSectionTitle  string `yaml:"rubricSectionTitle"`
	RubricSectionIDAttr string `yaml:"rubricSectionIdAttr"`
	RubricLink          string `yaml:"rubricLink"`
	RubricMember        string `yaml:"rubricMember"`
	RubricMemberTitle   string `yaml:"rubricMemberTitle"`
	RubricMemberLink    string `yaml:"rubricMemberLink"`
}

// TelegramConfig wires the bot credential and delivery settings.
type TelegramConfig struct {
	BotToken          string  `yaml:"botToken"`
	Dialect           string  `yaml:"dialect"`
	SendAttempts      uint    `yaml:"sendAttempts"`
	MessagesPerSecond float64 `yaml:"messagesPerSecond"`
	PollTimeout       int     `yaml:"pollTimeout"`
}

// SchedulerConfig defines when the daily push runs.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// LoggingConfig selects the slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ListingURL returns the listing endpoint for a sort value (1d, 7d, 30d, all).
func (f ForumConfig) ListingURL(sort string) string {
	return f.RootURL() + "?sort=" + sort
}

// RootURL returns the forum root page that carries the rubric index.
func (f ForumConfig) RootURL() string {
	return strings.TrimSuffix(f.Origin, "/") + f.ForumPath
}

// Validate reports settings required to run the bot.
func (c Config) Validate() error {
	var errs []error
	if c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("telegram bot token is required (set "+telegramTokenEnv+")"))
	}
	if c.Forum.Origin == "" {
		errs = append(errs, errors.New("forum origin is required"))
	}
	if c.Scheduler.CronExpression == "" {
		errs = append(errs, errors.New("scheduler cron expression is required"))
	}
	return errors.Join(errs...)
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit path; an empty path skips the file.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(dialectEnv); v != "" {
		c.Telegram.Dialect = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(cronEnv); v != "" {
		c.Scheduler.CronExpression = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Forum.Origin != "" {
		base.Forum.Origin = override.Forum.Origin
	}
	if override.Forum.ForumPath != "" {
		base.Forum.ForumPath = override.Forum.ForumPath
	}
	if override.Forum.ImageScheme != "" {
		base.Forum.ImageScheme = override.Forum.ImageScheme
	}
	if override.Forum.UserAgent != "" {
		base.Forum.UserAgent = override.Forum.UserAgent
	}
	base.Forum.Selectors = mergeSelectors(base.Forum.Selectors, override.Forum.Selectors)

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.Dialect != "" {
		base.Telegram.Dialect = override.Telegram.Dialect
	}
	if override.Telegram.SendAttempts != 0 {
		base.Telegram.SendAttempts = override.Telegram.SendAttempts
	}
	if override.Telegram.MessagesPerSecond > 0 {
		base.Telegram.MessagesPerSecond = override.Telegram.MessagesPerSecond
	}
	if override.Telegram.PollTimeout > 0 {
		base.Telegram.PollTimeout = override.Telegram.PollTimeout
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func mergeSelectors(base, override SelectorConfig) SelectorConfig {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.Item, override.Item)
	pick(&base.Title, override.Title)
	pick(&base.Link, override.Link)
	pick(&base.Image, override.Image)
	pick(&base.Excerpt, override.Excerpt)
	pick(&base.RubricSection, override.RubricSection)
	pick(&base.RubricSectionTitle, override.RubricSectionTitle)
	pick(&base.RubricSectionIDAttr, override.RubricSectionIDAttr)
	pick(&base.RubricLink, override.RubricLink)
	pick(&base.RubricMember, override.RubricMember)
	pick(&base.RubricMemberTitle, override.RubricMemberTitle)
	pick(&base.RubricMemberLink, override.RubricMemberLink)
	return base
}

// DefaultSelectors mirrors the forum markup the bot was written against.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Item:                ".list-item",
		Title:               ".list-item__title",
		Link:                ".list-item__link",
		Image:               ".card_topic-start .imagesList_itemImg",
		Excerpt:             ".card_topic-start .card__comment",
		RubricSection:       ".rubrics__section",
		RubricSectionTitle:  ".rubrics__title",
		RubricSectionIDAttr: "data-section",
		RubricLink:          ".rubrics__link",
		RubricMember:        ".list-item",
		RubricMemberTitle:   ".list-item__title",
		RubricMemberLink:    ".list-item__link",
	}
}

func defaultConfig() Config {
	return Config{
		Forum: ForumConfig{
			Origin:      "https://woman.ru",
			ForumPath:   "/forum/",
			ImageScheme: "https:",
			Selectors:   DefaultSelectors(),
		},
		Telegram: TelegramConfig{
			Dialect:           "html",
			SendAttempts:      3,
			MessagesPerSecond: 25,
			PollTimeout:       60,
		},
		Scheduler: SchedulerConfig{CronExpression: "0 10 * * *", Timezone: defaultTimezone},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}
