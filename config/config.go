package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Generative model.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`
	AICacheTTL   int    `mapstructure:"AI_CACHE_TTL_MINUTES"`

	// Provider endpoints.
	ProviderPrimaryURL     string `mapstructure:"PROVIDER_PRIMARY_URL"`
	ProviderScraperURL     string `mapstructure:"PROVIDER_SCRAPER_URL"`
	ProviderTimeoutSeconds int    `mapstructure:"PROVIDER_TIMEOUT_SECONDS"`

	// Pipeline tuning.
	CollectorDedupInFlight bool   `mapstructure:"COLLECTOR_DEDUP_INFLIGHT"`
	ArchetypesFile         string `mapstructure:"ARCHETYPES_FILE"`
	PlanRandomSeed         int64  `mapstructure:"PLAN_RANDOM_SEED"`
	DetailTopVariants      int    `mapstructure:"DETAIL_TOP_VARIANTS"`

	// Maintenance schedule.
	CacheSweepCron      string   `mapstructure:"CACHE_SWEEP_CRON"`
	DataRefreshCron     string   `mapstructure:"DATA_REFRESH_CRON"`
	PopularDestinations []string `mapstructure:"POPULAR_DESTINATIONS"`
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
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "waypoint")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("AI_CACHE_TTL_MINUTES", 360)
	viper.SetDefault("PROVIDER_PRIMARY_URL", "")
	viper.SetDefault("PROVIDER_SCRAPER_URL", "")
	viper.SetDefault("PROVIDER_TIMEOUT_SECONDS", 30)
	viper.SetDefault("COLLECTOR_DEDUP_INFLIGHT", true)
	viper.SetDefault("ARCHETYPES_FILE", "")
	viper.SetDefault("PLAN_RANDOM_SEED", 0)
	viper.SetDefault("DETAIL_TOP_VARIANTS", 1)
	viper.SetDefault("CACHE_SWEEP_CRON", "@every 1h")
	viper.SetDefault("DATA_REFRESH_CRON", "@every 24h")
	viper.SetDefault("POPULAR_DESTINATIONS", []string{"Beijing", "Shanghai", "Guangzhou", "Shenzhen", "Hangzhou", "Chengdu", "Xi'an", "Nanjing", "Wuhan", "Chongqing"})

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
