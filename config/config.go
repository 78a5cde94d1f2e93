package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Remote plan API.
	PlanAPIBaseURL    string `mapstructure:"PLAN_API_BASE_URL"`
	PlanAPITimeoutSec int    `mapstructure:"PLAN_API_TIMEOUT_SEC"`

	// Redis configuration (plan cache, delta channel, reminder queue).
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`
	DeltaChannel  string `mapstructure:"DELTA_CHANNEL"`

	// Refresh and polling policy.
	RetryMaxAttempts   int `mapstructure:"RETRY_MAX_ATTEMPTS"`
	RetryBaseDelayMS   int `mapstructure:"RETRY_BASE_DELAY_MS"`
	PollIntervalSec    int `mapstructure:"POLL_INTERVAL_SEC"`
	CacheSnapshotTTLHr int `mapstructure:"CACHE_SNAPSHOT_TTL_HR"`

	// Medication reminders.
	RemindersEnabled        bool `mapstructure:"REMINDERS_ENABLED"`
	ReminderLookaheadMin    int  `mapstructure:"REMINDER_LOOKAHEAD_MIN"`
	ReminderMaxScheduled    int  `mapstructure:"REMINDER_MAX_SCHEDULED"`
	ReminderOverdueDelayMin int  `mapstructure:"REMINDER_OVERDUE_DELAY_MIN"`

	// Firebase push delivery.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	HouseholdDeviceToken    string `mapstructure:"HOUSEHOLD_DEVICE_TOKEN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PLAN_API_BASE_URL", "http://localhost:9000")
	viper.SetDefault("PLAN_API_TIMEOUT_SEC", 15)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DELTA_CHANNEL", "carelink:plan:deltas")
	viper.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("RETRY_BASE_DELAY_MS", 1000)
	viper.SetDefault("POLL_INTERVAL_SEC", 90)
	viper.SetDefault("CACHE_SNAPSHOT_TTL_HR", 72)
	viper.SetDefault("REMINDERS_ENABLED", true)
	viper.SetDefault("REMINDER_LOOKAHEAD_MIN", 360)
	viper.SetDefault("REMINDER_MAX_SCHEDULED", 6)
	viper.SetDefault("REMINDER_OVERDUE_DELAY_MIN", 2)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "serviceAccountKey.json")
	viper.SetDefault("HOUSEHOLD_DEVICE_TOKEN", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// RetryBaseDelay returns the backoff base as a duration.
func RetryBaseDelay() time.Duration {
	return time.Duration(AppConfig.RetryBaseDelayMS) * time.Millisecond
}

// PollInterval returns the polling fallback interval as a duration.
func PollInterval() time.Duration {
	return time.Duration(AppConfig.PollIntervalSec) * time.Second
}

// ReminderLookahead returns the reminder look-ahead window as a duration.
func ReminderLookahead() time.Duration {
	return time.Duration(AppConfig.ReminderLookaheadMin) * time.Minute
}

// ReminderOverdueDelay returns the fixed push-forward delay for overdue doses.
func ReminderOverdueDelay() time.Duration {
	return time.Duration(AppConfig.ReminderOverdueDelayMin) * time.Minute
}
