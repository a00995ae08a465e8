package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Kafka         KafkaConfig        `mapstructure:"kafka"`
	JWT           JWTConfig          `mapstructure:"jwt"`
	Pagination    PaginationConfig   `mapstructure:"pagination"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Trending      TrendingConfig     `mapstructure:"trending"`
	Log           LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogQueries   bool   `mapstructure:"log_queries"`
}

// RedisConfig. With Enabled false the API keeps unread counts in an
// in-process LRU of LocalCacheSize entries and trending falls back to popular.
type RedisConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	PoolSize       int    `mapstructure:"pool_size"`
	MinIdleConns   int    `mapstructure:"min_idle_conns"`
	LocalCacheSize int    `mapstructure:"local_cache_size"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topics        Topics   `mapstructure:"topics"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

type Topics struct {
	Events string `mapstructure:"events"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_time"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// PaginationConfig bounds every list endpoint.
type PaginationConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

type NotificationConfig struct {
	ExcerptLength  int           `mapstructure:"excerpt_length"`
	UnreadCacheTTL time.Duration `mapstructure:"unread_cache_ttl"`
	MaxMentions    int           `mapstructure:"max_mentions"`
}

type TrendingConfig struct {
	Key           string  `mapstructure:"key"`
	LikeWeight    float64 `mapstructure:"like_weight"`
	CommentWeight float64 `mapstructure:"comment_weight"`
	WindowDays    int     `mapstructure:"window_days"`

	// RebuildInterval is how often the worker recomputes the set from SQL.
	// Zero disables the periodic rebuild.
	RebuildInterval time.Duration `mapstructure:"rebuild_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "scentboard")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "scentboard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.log_queries", false)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 50)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.local_cache_size", 10000)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topics.events", "scentboard-events")
	v.SetDefault("kafka.consumer_group", "scentboard-worker")

	// keys without a default are invisible to AutomaticEnv during Unmarshal
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire_time", 24*time.Hour)
	v.SetDefault("jwt.refresh_ttl", 30*24*time.Hour)

	v.SetDefault("pagination.default_page_size", 20)
	v.SetDefault("pagination.max_page_size", 100)

	v.SetDefault("notifications.excerpt_length", 120)
	v.SetDefault("notifications.unread_cache_ttl", 5*time.Minute)
	v.SetDefault("notifications.max_mentions", 10)

	v.SetDefault("trending.key", "trending:posts")
	v.SetDefault("trending.like_weight", 1.0)
	v.SetDefault("trending.comment_weight", 2.0)
	v.SetDefault("trending.window_days", 7)
	v.SetDefault("trending.rebuild_interval", time.Hour)

	v.SetDefault("log.level", "info")
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environments inject variables directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	return Load(configPath)
}

// Load reads the YAML file at path, tolerating its absence, and applies
// environment overrides such as DATABASE_HOST or JWT_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("jwt.secret must be set")
	}

	return &config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
