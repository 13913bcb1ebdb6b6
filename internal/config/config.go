package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DB      DBConfig
	Server  ServerConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Cache   CacheConfig
	Admin   AdminConfig
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DBConfig selects the SQL driver. Driver is "postgres" or "sqlite".
type DBConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	BodyLimit       int
	AllowOrigins    string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL time.Duration
	Issuer         string
}

type LoggerConfig struct {
	Level string
	Env   string
	// File enables a rotating JSON log file next to stdout output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// StorageConfig points at the object store holding uploaded chapter videos.
type StorageConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PresignTTL time.Duration
}

type CacheConfig struct {
	VideoCompletionTTL time.Duration
}

// AdminConfig is the bootstrap administrator created at startup when Email is set.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := &Config{
		DB: DBConfig{
			Driver:          v.GetString("db.driver"),
			DSN:             v.GetString("db.dsn"),
			Host:            v.GetString("db.host"),
			Port:            v.GetInt("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			DBName:          v.GetString("db.name"),
			SSLMode:         v.GetString("db.sslmode"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			BodyLimit:       v.GetInt("server.body_limit"),
			AllowOrigins:    v.GetString("server.allow_origins"),
			RateLimitMax:    v.GetInt("server.rate_limit.max"),
			RateLimitWindow: v.GetDuration("server.rate_limit.window"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey:      v.GetString("jwt.secret_key"),
			AccessTokenTTL: v.GetDuration("jwt.access_token_ttl"),
			Issuer:         v.GetString("jwt.issuer"),
		},
		Logger: LoggerConfig{
			Level:      v.GetString("logger.level"),
			Env:        v.GetString("logger.env"),
			File:       v.GetString("logger.file"),
			MaxSizeMB:  v.GetInt("logger.max_size_mb"),
			MaxBackups: v.GetInt("logger.max_backups"),
			MaxAgeDays: v.GetInt("logger.max_age_days"),
		},
		Storage: StorageConfig{
			Endpoint:   v.GetString("storage.endpoint"),
			AccessKey:  v.GetString("storage.access_key"),
			SecretKey:  v.GetString("storage.secret_key"),
			Bucket:     v.GetString("storage.bucket"),
			UseSSL:     v.GetBool("storage.use_ssl"),
			PresignTTL: v.GetDuration("storage.presign_ttl"),
		},
		Cache: CacheConfig{
			VideoCompletionTTL: v.GetDuration("cache.video_completion_ttl"),
		},
		Admin: AdminConfig{
			Name:     v.GetString("admin.name"),
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},
	}

	// Short env names used by the deployment manifests.
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		cfg.DB.DBName = dbname
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		cfg.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.SecretKey = secret
	}
	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		cfg.Admin.Email = email
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		cfg.Admin.Password = password
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20*time.Second)
	v.SetDefault("server.write_timeout", 20*time.Second)
	v.SetDefault("server.idle_timeout", 20*time.Second)
	v.SetDefault("server.body_limit", 10*1024*1024)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("server.rate_limit.max", 120)
	v.SetDefault("server.rate_limit.window", time.Minute)

	v.SetDefault("jwt.access_token_ttl", 24*time.Hour)
	v.SetDefault("jwt.issuer", "induction-portal")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.max_size_mb", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 30)

	v.SetDefault("storage.presign_ttl", time.Hour)
	v.SetDefault("cache.video_completion_ttl", 24*time.Hour)
	v.SetDefault("admin.name", "Administrator")
}

// GetDSN returns the explicit DSN or builds one for the configured driver.
func (c *Config) GetDSN() string {
	if c.DB.DSN != "" {
		return c.DB.DSN
	}
	if c.DB.Driver == "sqlite" {
		return fmt.Sprintf("file:%s.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", c.DB.DBName)
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}
