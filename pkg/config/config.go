package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Source    SourceConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Compute   ComputeConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
	RateLimit    int
}

// StorageConfig selects the portrait store backend. Driver is "sqlite3" for
// local development or "mysql" for production.
type StorageConfig struct {
	Driver string
	DSN    string
}

// SourceConfig points at the read-only autodialer MySQL database. An empty
// DSN disables sync entirely.
type SourceConfig struct {
	DSN string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type LLMConfig struct {
	Enabled       bool
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float32
	MaxTokens     int
	TimeoutSec    int
	MaxConcurrent int
}

type ComputeConfig struct {
	BatchSize int
}

type SchedulerConfig struct {
	Enabled      bool
	SyncCron     string
	AnalyzeCron  string
	WeeklyCron   string
	MonthlyCron  string
	QuarterCron  string
	AnalyzeLimit int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/callportrait")

	viper.SetEnvPrefix("PORTRAIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Storage.Driver != "sqlite3" && config.Storage.Driver != "mysql" {
		return nil, fmt.Errorf("unsupported storage driver: %s", config.Storage.Driver)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)
	viper.SetDefault("server.rateLimit", 120)

	viper.SetDefault("storage.driver", "sqlite3")
	viper.SetDefault("storage.dsn", "./data/portrait.db")

	viper.SetDefault("source.dsn", "")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 300)

	viper.SetDefault("llm.enabled", false)
	viper.SetDefault("llm.model", "qwen-plus")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.maxTokens", 512)
	viper.SetDefault("llm.timeoutSec", 30)
	viper.SetDefault("llm.maxConcurrent", 5)

	viper.SetDefault("compute.batchSize", 100)

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.syncCron", "0 2 * * *")
	viper.SetDefault("scheduler.analyzeCron", "30 2 * * *")
	viper.SetDefault("scheduler.weeklyCron", "0 6 * * 1")
	viper.SetDefault("scheduler.monthlyCron", "0 6 1 * *")
	viper.SetDefault("scheduler.quarterCron", "0 7 1 1,4,7,10 *")
	viper.SetDefault("scheduler.analyzeLimit", 200)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
