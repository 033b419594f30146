package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"gitlab.com/timkado/api/wa-automations/internal/validator"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel" validate:"oneof=debug info warn error dpanic panic fatal"`
	Log         struct {
		File string `mapstructure:"file"` // Optional rotated log file, stdout only when empty
	} `mapstructure:"log"`
	Server struct {
		Port int `mapstructure:"port" validate:"gt=0,lte=65535"`
	} `mapstructure:"server"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Evolution  EvolutionConfig  `mapstructure:"evolution"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Automation AutomationConfig `mapstructure:"automation"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Metrics    struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// EvolutionConfig holds the messaging provider endpoint.
// An empty APIURL is not a load error; runs fail with a configuration error instead.
type EvolutionConfig struct {
	APIURL  string        `mapstructure:"apiURL"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// NATSConfig configures the optional outcome event publisher
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	Stream        string `mapstructure:"stream"`
	SubjectPrefix string `mapstructure:"subjectPrefix"`
	MaxAgeDays    int    `mapstructure:"maxAgeDays" validate:"gte=0"`
}

// AutomationConfig holds the engine-wide knobs shared by every tenant.
type AutomationConfig struct {
	BusinessUTCOffsetHours int    `mapstructure:"businessUTCOffsetHours" validate:"gte=-12,lte=14"`
	ReminderWindowMinutes  int    `mapstructure:"reminderWindowMinutes" validate:"gte=0"`
	SendWindowMinutes      int    `mapstructure:"sendWindowMinutes" validate:"gte=0"`
	RescueCooldownDays     int    `mapstructure:"rescueCooldownDays" validate:"gt=0"`
	DefaultReminderMinutes int    `mapstructure:"defaultReminderMinutes" validate:"gt=0"`
	DefaultRescueDays      int    `mapstructure:"defaultRescueDays" validate:"gt=0"`
	DefaultSendHour        int    `mapstructure:"defaultSendHour" validate:"gte=0,lte=23"`
	DefaultSendMinute      int    `mapstructure:"defaultSendMinute" validate:"gte=0,lte=59"`
	DefaultCountryCode     string `mapstructure:"defaultCountryCode" validate:"required,numeric"`
	TenantConcurrency      int    `mapstructure:"tenantConcurrency" validate:"gt=0"`
}

// SchedulerConfig configures the in-process cron trigger
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RemindersCron string `mapstructure:"remindersCron"`
	MarketingCron string `mapstructure:"marketingCron"`
}

// CacheConfig configures the lookup cache for units and catalog names
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl" validate:"gte=0"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval" validate:"gte=0"`
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	// A .env file is optional; real environment variables always win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("metrics.enabled", true)

	v.SetDefault("evolution.timeout", 30*time.Second)

	v.SetDefault("nats.stream", "automation_outcomes")
	v.SetDefault("nats.subjectPrefix", "v1.automations")
	v.SetDefault("nats.maxAgeDays", 7)

	// Automation defaults
	v.SetDefault("automation.businessUTCOffsetHours", -3)
	v.SetDefault("automation.reminderWindowMinutes", 3)
	v.SetDefault("automation.sendWindowMinutes", 3)
	v.SetDefault("automation.rescueCooldownDays", 30)
	v.SetDefault("automation.defaultReminderMinutes", 30)
	v.SetDefault("automation.defaultRescueDays", 30)
	v.SetDefault("automation.defaultSendHour", 10)
	v.SetDefault("automation.defaultSendMinute", 0)
	v.SetDefault("automation.defaultCountryCode", "55")
	v.SetDefault("automation.tenantConcurrency", 4)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.remindersCron", "*/5 * * * *")
	v.SetDefault("scheduler.marketingCron", "* * * * *")

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.cleanupInterval", 10*time.Minute)

	// Config file settings
	v.SetConfigName("default")
	v.SetConfigType("yaml")

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.wa-automations")
	v.AddConfigPath("/etc/wa-automations")

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		v.Set("nats.url", url)
	}
	if url := os.Getenv("EVOLUTION_API_URL"); url != "" {
		v.Set("evolution.apiURL", url)
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks value ranges on the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.Validate(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(parts, tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}
