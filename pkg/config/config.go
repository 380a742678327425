package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	MOPS     MOPSConfig     `mapstructure:"mops"`
	Taxonomy TaxonomyConfig `mapstructure:"taxonomy"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	// MaxOpenConns 对应 §5 "Database (C9): connection pool (default 10)"
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

// RedisConfig 可选的 L1 读加速镜像配置；Host 为空时完全禁用，C9 的关系型
// 存储始终是唯一的 system of record（见 SPEC_FULL §3）。
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	TTL      int    `mapstructure:"ttl_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MOPSConfig 上游 MOPS 站点配置 (§6 External Interfaces)
type MOPSConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	UserAgent       string        `mapstructure:"user_agent"`
	Referer         string        `mapstructure:"referer"`
	MinRequestGap   time.Duration `mapstructure:"min_request_gap"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxDocumentSize int64         `mapstructure:"max_document_size"`
}

// TaxonomyConfig 本地分类标准缓存配置 (§4.6, §6)
type TaxonomyConfig struct {
	CacheDir string `mapstructure:"cache_dir"`
}

// CrawlerConfig 爬虫配置
type CrawlerConfig struct {
	UserAgent        string                 `mapstructure:"user_agent"`
	Delay            time.Duration          `mapstructure:"delay"`
	Parallelism      int                    `mapstructure:"parallelism"`
	RowSkipThreshold float64                `mapstructure:"row_skip_threshold"`
	ScheduledRefresh ScheduledRefreshConfig `mapstructure:"scheduled_refresh"`
}

// ScheduledRefreshConfig is the optional, off-by-default cron-driven
// forced-refresh runner described in SPEC_FULL §2 — a caller that
// explicitly sets force_refresh=true on a schedule, not an implicit
// background refresh loop.
type ScheduledRefreshConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	CronSpec   string   `mapstructure:"cron_spec"`
	Watchlist  []string `mapstructure:"watchlist"`
}

// Load 加载配置
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// 设置环境变量前缀
	viper.SetEnvPrefix("DCS")
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到，使用默认值
			fmt.Println("Config file not found, using default values")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// 从环境变量覆盖敏感配置
	if dbPassword := os.Getenv("DCS_DATABASE_PASSWORD"); dbPassword != "" {
		config.Database.Password = dbPassword
	}
	if redisPassword := os.Getenv("DCS_REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults() {
	// 服务器默认配置
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// 数据库默认配置
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.user", "root")
	viper.SetDefault("database.dbname", "mops_cache")
	viper.SetDefault("database.charset", "utf8mb4")
	viper.SetDefault("database.max_open_conns", 10)

	// Redis默认配置（可选的 L1 镜像，不配置 host 则不启用）
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.ttl_seconds", 300)

	// 日志默认配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")

	// MOPS默认配置
	viper.SetDefault("mops.base_url", "https://mops.twse.com.tw")
	viper.SetDefault("mops.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	viper.SetDefault("mops.referer", "https://mops.twse.com.tw")
	viper.SetDefault("mops.min_request_gap", "1s")
	viper.SetDefault("mops.timeout", "30s")
	viper.SetDefault("mops.max_document_size", 50*1024*1024)

	// 分类标准缓存默认配置
	viper.SetDefault("taxonomy.cache_dir", "./data/taxonomy")

	// 爬虫默认配置
	viper.SetDefault("crawler.user_agent", "Mozilla/5.0 (compatible; MOPSCollector/1.0)")
	viper.SetDefault("crawler.delay", "1s")
	viper.SetDefault("crawler.parallelism", 2)
	viper.SetDefault("crawler.row_skip_threshold", 0.25)
	viper.SetDefault("crawler.scheduled_refresh.enabled", false)
}
