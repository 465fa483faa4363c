package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teemow/ohq-bluejeans/internal/backend"
	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/logging"
)

// Environment keys.
const (
	KeyClientID        = "BLUEJEANS_CLIENT_ID"
	KeyClientSecret    = "BLUEJEANS_CLIENT_SECRET"
	KeyAPIURL          = "BLUEJEANS_API_URL"
	KeyDocsURL         = "BLUEJEANS_DOCS_URL"
	KeyTelephoneNum    = "BLUEJEANS_TELE_NUM"
	KeyIntlURL         = "BLUEJEANS_INTL_URL"
	KeyTimezone        = "BLUEJEANS_TIMEZONE"
	KeyTokenExpiryMode = "BLUEJEANS_TOKEN_EXPIRY_MODE"
	KeyHTTPTimeout     = "BLUEJEANS_HTTP_TIMEOUT"
	KeyMeetingBaseURL  = "BLUEJEANS_MEETING_URL"
	KeyPortalHost      = "BLUEJEANS_PORTAL_HOST"
	KeyEnabledBackends = "ENABLED_BACKENDS"
	KeyStoreType       = "STORE_TYPE"
	KeyRedisAddr       = "REDIS_ADDR"
	KeyRedisPassword   = "REDIS_PASSWORD"
	KeyRedisDB         = "REDIS_DB"
	KeyRedisKeyPrefix  = "REDIS_KEY_PREFIX"
	KeyLockTTL         = "LOCK_TTL"
	KeyLogLevel        = "LOG_LEVEL"
	KeyLogFormat       = "LOG_FORMAT"
)

// Store types.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

const (
	DefaultRedisAddr      = "127.0.0.1:6379"
	DefaultRedisKeyPrefix = "ohq:bluejeans:"
	DefaultLockTTL        = 30 * time.Second
)

// BlueJeans holds the provider account and backend settings.
type BlueJeans struct {
	ClientID         string
	ClientSecret     string
	APIURL           string
	DocsURL          string
	TelephoneNum     string
	IntlTelephoneURL string
	Timezone         string
	TokenExpiryMode  string
	HTTPTimeout      time.Duration
	MeetingBaseURL   string
	PortalHost       string
}

// Store selects where metadata records and locks live.
type Store struct {
	Type          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	LockTTL       time.Duration
}

// Log configures the process logger.
type Log struct {
	Level  string
	Format string
}

// Config is the full service configuration.
type Config struct {
	BlueJeans       BlueJeans
	EnabledBackends []string
	Store           Store
	Log             Log
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// EnvFile is loaded into the environment first (default: .env). A missing
	// file is not an error.
	EnvFile string

	// ConfigFile is an optional viper-readable file (yaml, json, toml) whose
	// keys are the lower-case environment key names.
	ConfigFile string
}

// Load reads configuration from the environment, an optional .env file and an
// optional config file. Environment variables win over the config file.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, bluejeans.DefaultBaseURL)
	v.SetDefault(KeyTimezone, bluejeans.DefaultTimezone)
	v.SetDefault(KeyTokenExpiryMode, string(bluejeans.ExpiryModeLegacy))
	v.SetDefault(KeyHTTPTimeout, bluejeans.DefaultHTTPTimeout)
	v.SetDefault(KeyMeetingBaseURL, backend.DefaultMeetingBaseURL)
	v.SetDefault(KeyPortalHost, backend.DefaultPortalHost)
	v.SetDefault(KeyDocsURL, "")
	v.SetDefault(KeyTelephoneNum, "")
	v.SetDefault(KeyIntlURL, "")
	v.SetDefault(KeyClientID, "")
	v.SetDefault(KeyClientSecret, "")
	v.SetDefault(KeyEnabledBackends, "")
	v.SetDefault(KeyStoreType, StoreMemory)
	v.SetDefault(KeyRedisAddr, DefaultRedisAddr)
	v.SetDefault(KeyRedisPassword, "")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyRedisKeyPrefix, DefaultRedisKeyPrefix)
	v.SetDefault(KeyLockTTL, DefaultLockTTL)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logging.FormatText)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		BlueJeans: BlueJeans{
			ClientID:         v.GetString(KeyClientID),
			ClientSecret:     v.GetString(KeyClientSecret),
			APIURL:           strings.TrimRight(v.GetString(KeyAPIURL), "/"),
			DocsURL:          v.GetString(KeyDocsURL),
			TelephoneNum:     v.GetString(KeyTelephoneNum),
			IntlTelephoneURL: v.GetString(KeyIntlURL),
			Timezone:         v.GetString(KeyTimezone),
			TokenExpiryMode:  strings.ToLower(v.GetString(KeyTokenExpiryMode)),
			HTTPTimeout:      v.GetDuration(KeyHTTPTimeout),
			MeetingBaseURL:   v.GetString(KeyMeetingBaseURL),
			PortalHost:       v.GetString(KeyPortalHost),
		},
		EnabledBackends: enabledBackends(v),
		Store: Store{
			Type:          strings.ToLower(v.GetString(KeyStoreType)),
			RedisAddr:     v.GetString(KeyRedisAddr),
			RedisPassword: v.GetString(KeyRedisPassword),
			RedisDB:       v.GetInt(KeyRedisDB),
			KeyPrefix:     v.GetString(KeyRedisKeyPrefix),
			LockTTL:       v.GetDuration(KeyLockTTL),
		},
		Log: Log{
			Level:  v.GetString(KeyLogLevel),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
		},
	}
}

// enabledBackends accepts a comma separated string (environment) or a list
// (config file).
func enabledBackends(v *viper.Viper) []string {
	raw := v.Get(KeyEnabledBackends)
	if list, ok := raw.([]any); ok {
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, ParseCommaSeparatedList(fmt.Sprint(item))...)
		}
		return out
	}
	return ParseCommaSeparatedList(v.GetString(KeyEnabledBackends))
}

// BackendEnabled reports whether name appears in the enabled backends list.
func (c *Config) BackendEnabled(name string) bool {
	return slices.ContainsFunc(c.EnabledBackends, func(b string) bool {
		return strings.EqualFold(b, name)
	})
}

// ExpiryMode returns the parsed token expiry mode.
func (c *Config) ExpiryMode() (bluejeans.ExpiryMode, error) {
	return bluejeans.ParseExpiryMode(c.BlueJeans.TokenExpiryMode)
}

// Backend returns the backend adapter configuration.
func (c *Config) Backend() backend.Config {
	return backend.Config{
		Enabled:          c.BackendEnabled(backend.Name),
		DocsURL:          c.BlueJeans.DocsURL,
		TelephoneNum:     c.BlueJeans.TelephoneNum,
		IntlTelephoneURL: c.BlueJeans.IntlTelephoneURL,
		Timezone:         c.BlueJeans.Timezone,
		MeetingBaseURL:   c.BlueJeans.MeetingBaseURL,
		PortalHost:       c.BlueJeans.PortalHost,
	}
}

// Validate checks the configuration for values that cannot work.
// Credentials are only required when requireCredentials is set, so that
// offline commands (backend info, version) run without them.
func (c *Config) Validate(requireCredentials bool) error {
	var errs []error

	if requireCredentials {
		if c.BlueJeans.ClientID == "" {
			errs = append(errs, fmt.Errorf("%s is required", KeyClientID))
		}
		if c.BlueJeans.ClientSecret == "" {
			errs = append(errs, fmt.Errorf("%s is required", KeyClientSecret))
		}
	}
	if _, err := c.ExpiryMode(); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyTokenExpiryMode, err))
	}
	if c.BlueJeans.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyHTTPTimeout))
	}
	if _, err := time.LoadLocation(c.BlueJeans.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("%s: unknown timezone %q", KeyTimezone, c.BlueJeans.Timezone))
	}

	switch c.Store.Type {
	case StoreMemory:
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", KeyRedisAddr, KeyStoreType, StoreRedis))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", KeyStoreType, StoreMemory, StoreRedis, c.Store.Type))
	}
	if c.Store.LockTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyLockTTL))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyLogLevel, err))
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("%s must be %q or %q", KeyLogFormat, logging.FormatText, logging.FormatJSON))
	}

	return errors.Join(errs...)
}

// ParseCommaSeparatedList splits s on commas, trimming whitespace and
// dropping empty entries. It returns nil when nothing remains.
func ParseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
