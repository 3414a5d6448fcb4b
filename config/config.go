package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment 运行环境
type Environment string

const (
	EnvDevelop Environment = "development"
	EnvTest    Environment = "test"
	EnvProduct Environment = "production"
)

type Config struct {
	Environment Environment `mapstructure:"environment" validate:"oneof=development test production"`

	Server struct {
		Host         string `mapstructure:"host"`
		Port         string `mapstructure:"port" validate:"required,numeric"`
		ReadTimeout  int    `mapstructure:"read_timeout" validate:"gte=0"`
		WriteTimeout int    `mapstructure:"write_timeout" validate:"gte=0"`
		IdleTimeout  int    `mapstructure:"idle_timeout" validate:"gte=0"`
		MaxBodyBytes int64  `mapstructure:"max_body_bytes" validate:"gt=0"`
		MaxInFlight  int    `mapstructure:"max_in_flight" validate:"gte=0"`
	} `mapstructure:"server"`

	Database struct {
		Type            string        `mapstructure:"type" validate:"oneof=postgres mysql sqlite"` // postgres, mysql or sqlite
		DSN             string        `mapstructure:"dsn"`
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		User            string        `mapstructure:"user"`
		Password        string        `mapstructure:"password"`
		Name            string        `mapstructure:"name"`
		SSLMode         string        `mapstructure:"ssl_mode"`
		MaxPoolSize     int           `mapstructure:"max_pool_size" validate:"gte=1"`
		MaxIdle         int           `mapstructure:"max_idle" validate:"gte=0"`
		AcquireTimeout  time.Duration `mapstructure:"acquire_timeout" validate:"gt=0"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
		AutoMigrate     bool          `mapstructure:"auto_migrate"`
	} `mapstructure:"database"`

	Logging struct {
		Level      string `mapstructure:"level"`
		Format     string `mapstructure:"format" validate:"oneof=json console"`
		OutputPath string `mapstructure:"output_path" validate:"required"`
	} `mapstructure:"logging"`

	Security struct {
		EnableHTTPS bool   `mapstructure:"enable_https"`
		CertFile    string `mapstructure:"cert_file" validate:"required_if=EnableHTTPS true"`
		KeyFile     string `mapstructure:"key_file" validate:"required_if=EnableHTTPS true"`
	} `mapstructure:"security"`

	Events struct {
		Enabled   bool   `mapstructure:"enabled"`
		RedisAddr string `mapstructure:"redis_addr" validate:"required_if=Enabled true"`
		Password  string `mapstructure:"password"`
		DB        int    `mapstructure:"db" validate:"gte=0"`
		Channel   string `mapstructure:"channel" validate:"required_if=Enabled true"`
	} `mapstructure:"events"`
}

const envPrefix = "DOCSTORE"

// LoadConfig 加载配置，path 为空时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容原服务的 DATABASE_URL
	if err := v.BindEnv("database.dsn", envPrefix+"_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	// 连接等待必须在写超时之前结束，否则 503 无法送达客户端
	if c.Server.WriteTimeout > 0 {
		writeTimeout := time.Duration(c.Server.WriteTimeout) * time.Second
		if c.Database.AcquireTimeout >= writeTimeout {
			return fmt.Errorf("invalid config: database.acquire_timeout (%s) must be shorter than server.write_timeout (%s)",
				c.Database.AcquireTimeout, writeTimeout)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", string(EnvDevelop))

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.max_in_flight", 0)

	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_pool_size", 10)
	v.SetDefault("database.max_idle", 0)
	v.SetDefault("database.acquire_timeout", "5s")
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "stdout")

	v.SetDefault("security.enable_https", false)
	v.SetDefault("security.cert_file", "")
	v.SetDefault("security.key_file", "")

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.redis_addr", "")
	v.SetDefault("events.password", "")
	v.SetDefault("events.db", 0)
	v.SetDefault("events.channel", "docstore.documents")
}
