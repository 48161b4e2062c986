package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StoreDriverPostgres = "postgres"
	StoreDriverPebble   = "pebble"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App         App         `mapstructure:",squash"`
	Server      Server      `mapstructure:",squash"`
	Database    Database    `mapstructure:",squash"`
	Store       Store       `mapstructure:",squash"`
	Pagination  Pagination  `mapstructure:",squash"`
	Security    Security    `mapstructure:",squash"`
	Events      Events      `mapstructure:",squash"`
	Metrics     Metrics     `mapstructure:",squash"`
	Maintenance Maintenance `mapstructure:",squash"`
}

type App struct {
	LogLevel    string `mapstructure:"log_level"`
	Environment string `mapstructure:"app_env"`
}

// IsDevelopment indica se a aplicação roda em modo de desenvolvimento
func (a App) IsDevelopment() bool {
	return a.Environment == "" || a.Environment == EnvDevelopment || a.Environment == "dev"
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN         string `mapstructure:"-"`
	Driver      string `mapstructure:"database_driver"`
	Password    string `mapstructure:"database_password"`
	URL         string `mapstructure:"database_url"`
	User        string `mapstructure:"database_user"`
	AutoMigrate bool   `mapstructure:"database_auto_migrate"`
}

type Store struct {
	Driver    string `mapstructure:"store_driver"`
	PebbleDir string `mapstructure:"store_pebble_dir"`
}

type Pagination struct {
	DefaultLimit int `mapstructure:"pagination_default_limit"`
	MaxLimit     int `mapstructure:"pagination_max_limit"`
}

// Security concentra a política de acesso decidida na inicialização.
// Cada verificação tem sua própria flag de habilitação.
type Security struct {
	APIKeyEnabled      bool          `mapstructure:"security_api_key_enabled"`
	APIKey             string        `mapstructure:"api_key"`
	IPAllowlistEnabled bool          `mapstructure:"security_ip_allowlist_enabled"`
	AllowedIPs         []string      `mapstructure:"allowed_ips"`
	DomainCheckEnabled bool          `mapstructure:"security_domain_check_enabled"`
	AllowedDomains     []string      `mapstructure:"allowed_domains"`
	RateLimitEnabled   bool          `mapstructure:"security_rate_limit_enabled"`
	RateLimitMax       int           `mapstructure:"rate_limit_max"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	TrustProxy         bool          `mapstructure:"trust_proxy"`
	AllowedOrigins     []string      `mapstructure:"cors_allowed_origins"`
	Development        bool          `mapstructure:"-"`
}

type Events struct {
	Enabled bool     `mapstructure:"events_enabled"`
	Brokers []string `mapstructure:"events_kafka_brokers"`
	Topic   string   `mapstructure:"events_kafka_topic"`
}

type Metrics struct {
	Enabled bool `mapstructure:"metrics_enabled"`
}

type Maintenance struct {
	RateLimitSweepCron string `mapstructure:"rate_limit_sweep_cron"`
	RateLimitSweepOn   bool   `mapstructure:"rate_limit_sweep_enabled"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 5000)

	viper.SetDefault("APP_ENV", EnvDevelopment)
	viper.SetDefault("LOG_LEVEL", "debug")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/sales?sslmode=disable")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")
	viper.SetDefault("DATABASE_AUTO_MIGRATE", true)

	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("STORE_PEBBLE_DIR", "./data/sales")

	viper.SetDefault("PAGINATION_DEFAULT_LIMIT", 10)
	viper.SetDefault("PAGINATION_MAX_LIMIT", 100)

	// As verificações de acesso ficam desligadas por padrão, como no deploy atual
	viper.SetDefault("SECURITY_API_KEY_ENABLED", false)
	viper.SetDefault("API_KEY", "")
	viper.SetDefault("SECURITY_IP_ALLOWLIST_ENABLED", false)
	viper.SetDefault("ALLOWED_IPS", []string{})
	viper.SetDefault("SECURITY_DOMAIN_CHECK_ENABLED", false)
	viper.SetDefault("ALLOWED_DOMAINS", []string{})
	viper.SetDefault("SECURITY_RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_MAX", 100)      // 100 requisições por IP
	viper.SetDefault("RATE_LIMIT_WINDOW", "15m") // janela de 15 minutos
	viper.SetDefault("TRUST_PROXY", false)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("EVENTS_ENABLED", false)
	viper.SetDefault("EVENTS_KAFKA_BROKERS", []string{"localhost:9092"})
	viper.SetDefault("EVENTS_KAFKA_TOPIC", "sales.events")

	viper.SetDefault("METRICS_ENABLED", true)

	viper.SetDefault("RATE_LIMIT_SWEEP_CRON", "*/5 * * * *") // A cada 5 minutos
	viper.SetDefault("RATE_LIMIT_SWEEP_ENABLED", true)
}

func NewConfig() (*Config, error) {
	loadEnvFile()

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	config.Security.Development = config.App.IsDevelopment()

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverPebble, StoreDriverMemory:
	default:
		return fmt.Errorf("config: STORE_DRIVER inválido: %q", c.Store.Driver)
	}

	if c.Pagination.DefaultLimit < 1 || c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		return fmt.Errorf("config: limites de paginação inválidos (default=%d, max=%d)",
			c.Pagination.DefaultLimit, c.Pagination.MaxLimit)
	}

	if c.Security.APIKeyEnabled && c.Security.APIKey == "" {
		return fmt.Errorf("config: SECURITY_API_KEY_ENABLED exige API_KEY")
	}

	if c.Security.RateLimitEnabled && (c.Security.RateLimitMax < 1 || c.Security.RateLimitWindow <= 0) {
		return fmt.Errorf("config: rate limit inválido (max=%d, window=%s)",
			c.Security.RateLimitMax, c.Security.RateLimitWindow)
	}

	return nil
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),               // Diretório atual
		filepath.Join(filepath.Dir(cwd), ".env"), // Diretório pai
		filepath.Join(cwd, "../../.env"),         // Dois diretórios acima
	}

	for _, location := range locations {
		logrus.Debug("Tentando carregar .env de:", location)
		err := godotenv.Load(location)
		if err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
