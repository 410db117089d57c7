package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"prod"`
	HTTPServer `yaml:"http_server"`
	Backend    Backend `yaml:"backend"`
	Session    Session `yaml:"session"`
	Redis      Redis   `yaml:"redis"`

	DBUser     string `yaml:"db_user" env:"DB_USER"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName     string `yaml:"db_name" env:"DB_NAME"`
	ParseTime  bool   `yaml:"parse_time" env-default:"true"`

	// Доступ к /metrics
	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`

	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:","`
	MessageTTL     time.Duration `yaml:"message_ttl" env-default:"5s"`
	FrontendDir    string        `yaml:"frontend_dir" env:"FRONTEND_DIR" env-default:"./frontend-dist"`
	LoginRate      LoginRate     `yaml:"login_rate"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"15s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Backend struct {
	BaseURL string        `yaml:"base_url" env:"BACKEND_URL" env-required:"true"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type Session struct {
	Store      string        `yaml:"store" env:"SESSION_STORE" env-default:"memory"`
	TTL        time.Duration `yaml:"ttl" env-default:"24h"`
	CookieName string        `yaml:"cookie_name" env-default:"nh_admin_session"`
	Secure     bool          `yaml:"secure" env:"SESSION_SECURE"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

// LoginRate — ограничение попыток входа с одного IP.
type LoginRate struct {
	Interval time.Duration `yaml:"interval" env-default:"12s"`
	Burst    int           `yaml:"burst" env-default:"5"`
}

// DSN собирает строку подключения к MySQL для хранилища сессий.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=%v",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.ParseTime,
	)
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch cfg.Session.Store {
	case "memory", "redis", "mysql":
	default:
		return nil, fmt.Errorf("%s: unknown session store %q", op, cfg.Session.Store)
	}
	if cfg.Session.Store == "mysql" && (cfg.DBUser == "" || cfg.DBName == "") {
		return nil, fmt.Errorf("%s: db_user and db_name are required for mysql session store", op)
	}

	return &cfg, nil
}
