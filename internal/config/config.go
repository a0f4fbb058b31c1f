package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type OrderConfig struct {
	Env           string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer    `yaml:"http_server"`
	GRPCServer    `yaml:"grpc_server"`
	OrderDB       `yaml:"order_db"`
	LogConfig     `yaml:"log_config"`
	KafkaService  `yaml:"kafka-service"`
	Store         `yaml:"store"`
	Notifications `yaml:"notifications"`
	Lifecycle     `yaml:"lifecycle"`
	Admission     `yaml:"admission"`
}

type HTTPServer struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	BodyLimit       string        `yaml:"body_limit" env-default:"1M"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type OrderDB struct {
	Dsn            string `yaml:"dsn" env:"ORDER_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"ORDER_DB_MIGRATIONS"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"json"`
	LogOutput string `yaml:"log_output" env-default:"stdout"`
}

type KafkaService struct {
	Enabled           bool   `yaml:"enabled" env:"KAFKA_ENABLED"`
	Host              string `yaml:"host" env:"KAFKA_HOST"`
	Port              string `yaml:"port" env:"KAFKA_PORT"`
	Username          string `yaml:"username" env:"KAFKA_USERNAME"`
	Password          string `yaml:"password" env:"KAFKA_PASSWORD"`
	Mechanism         string `yaml:"mechanism" env:"KAFKA_MECHANISM"`
	TLSEnabled        bool   `yaml:"tls_enabled" env:"KAFKA_TLS_ENABLED"`
	OrderTopic        string `yaml:"order_topic" env-default:"order-events"`
	NotificationTopic string `yaml:"notification_topic" env-default:"customer-notifications"`
}

func (k KafkaService) Brokers() []string {
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

type PaymentAccount struct {
	Bank          string `yaml:"bank"`
	Holder        string `yaml:"holder"`
	AccountNumber string `yaml:"account_number"`
	Clabe         string `yaml:"clabe"`
}

type Store struct {
	Name            string           `yaml:"name" env:"STORE_NAME" env-default:"Tienda"`
	TaxRate         float64          `yaml:"tax_rate" env-default:"0.16"`
	CountryCode     string           `yaml:"country_code" env-default:"52"`
	PaymentAccounts []PaymentAccount `yaml:"payment_accounts"`
}

type Notifications struct {
	MaxAttempts     int           `yaml:"max_attempts" env-default:"3"`
	BatchSize       int           `yaml:"batch_size" env-default:"50"`
	RetryBackoff    time.Duration `yaml:"retry_backoff" env-default:"5m"`
	AttemptTimeout  time.Duration `yaml:"attempt_timeout" env-default:"15s"`
	ClaimTTL        time.Duration `yaml:"claim_ttl" env-default:"10m"`
	SentRetention   time.Duration `yaml:"sent_retention" env-default:"168h"`
	FailedRetention time.Duration `yaml:"failed_retention" env-default:"720h"`
	WorkerInterval  time.Duration `yaml:"worker_interval" env-default:"30s"`
	PurgeInterval   time.Duration `yaml:"purge_interval" env-default:"6h"`
}

type Lifecycle struct {
	ReceivedGrace        time.Duration `yaml:"received_grace" env-default:"24h"`
	ShippedGrace         time.Duration `yaml:"shipped_grace" env-default:"168h"`
	ReminderAfter        time.Duration `yaml:"reminder_after" env-default:"48h"`
	AutoFinalizeInterval time.Duration `yaml:"auto_finalize_interval" env-default:"10m"`
	ReminderInterval     time.Duration `yaml:"reminder_interval" env-default:"1h"`
	ScanLimit            int           `yaml:"scan_limit" env-default:"200"`
}

type RateLimit struct {
	Window time.Duration `yaml:"window"`
	Max    int           `yaml:"max"`
}

type Admission struct {
	Enabled       bool                 `yaml:"enabled" env:"ADMISSION_ENABLED" env-default:"true"`
	MaxClients    int                  `yaml:"max_clients" env-default:"10000"`
	BlockDuration time.Duration        `yaml:"block_duration" env-default:"1h"`
	Defaults      map[string]RateLimit `yaml:"defaults"`
	Routes        map[string]RateLimit `yaml:"routes"`
}

// Load reads the YAML file at path, applying env overrides and defaults.
func Load(path string) (*OrderConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg OrderConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg.Admission.applyDefaults()
	return &cfg, nil
}

func MustLoad() *OrderConfig {

	// Processing env config variable and file
	configPath := os.Getenv("ORDER_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("ORDER_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	return cfg
}

// DefaultMethodLimits apply to any route without an explicit override.
func DefaultMethodLimits() map[string]RateLimit {
	return map[string]RateLimit{
		"GET":    {Window: time.Minute, Max: 100},
		"POST":   {Window: time.Minute, Max: 20},
		"PUT":    {Window: time.Minute, Max: 30},
		"PATCH":  {Window: time.Minute, Max: 30},
		"DELETE": {Window: time.Minute, Max: 10},
	}
}

// DefaultRouteLimits are the tighter limits for sensitive routes, keyed by
// "METHOD path" with the router's path pattern.
func DefaultRouteLimits() map[string]RateLimit {
	return map[string]RateLimit{
		"POST /api/orders":                    {Window: time.Minute, Max: 30},
		"POST /api/orders/:id/payment-proof":  {Window: time.Minute, Max: 10},
		"POST /api/orders/:id/payment-review": {Window: time.Minute, Max: 10},
	}
}

func (a *Admission) applyDefaults() {
	if a.Defaults == nil {
		a.Defaults = DefaultMethodLimits()
	}
	if a.Routes == nil {
		a.Routes = DefaultRouteLimits()
	}
}
