// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек приложения.
type Config struct {
	Env                     string        `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RabbitMQConnection      string        `yaml:"rabbitmq_connection" env:"RABBITMQ_CONNECTION"`
	RabbitMQMaxRetries      int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay      time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
	DashboardTimezone       string        `yaml:"dashboard_timezone" env:"DASHBOARD_TIMEZONE" env-default:"Asia/Jakarta"`
	AdminPinHash            string        `yaml:"admin_pin_hash" env:"ADMIN_PIN_HASH"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	GoogleOAuth             `yaml:"google_oauth"`
	Backblaze               `yaml:"backblaze"`
	Xendit                  `yaml:"xendit"`
	Cardano                 `yaml:"cardano"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// GoogleOAuth структура с параметрами OAuth-клиента Google.
type GoogleOAuth struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" env:"GOOGLE_REDIRECT_URL"`
}

// Backblaze структура с параметрами объектного хранилища Backblaze B2.
type Backblaze struct {
	KeyID          string        `yaml:"key_id" env:"B2_KEY_ID"`
	ApplicationKey string        `yaml:"application_key" env:"B2_APPLICATION_KEY"`
	BucketID       string        `yaml:"bucket_id" env:"B2_BUCKET_ID"`
	BucketName     string        `yaml:"bucket_name" env:"B2_BUCKET_NAME"`
	MaxRetries     int           `yaml:"max_retries" env-default:"3"`
	TimeoutB2      time.Duration `yaml:"timeoutb2" env-default:"30s"`
}

// Xendit структура с параметрами платежного шлюза Xendit.
type Xendit struct {
	APIKey        string `yaml:"api_key" env:"XENDIT_API_KEY"`
	CallbackToken string `yaml:"callback_token" env:"XENDIT_CALLBACK_TOKEN"`
	SuccessURL    string `yaml:"success_url"`
	FailureURL    string `yaml:"failure_url"`
}

// Cardano структура с параметрами минтинга NFT через Blockfrost.
type Cardano struct {
	BlockfrostURL string        `yaml:"blockfrost_url" env:"BLOCKFROST_URL" env-default:"https://cardano-preprod.blockfrost.io/api/v0"`
	ProjectID     string        `yaml:"project_id" env:"BLOCKFROST_PROJECT_ID"`
	PolicyID      string        `yaml:"policy_id" env:"CARDANO_POLICY_ID"`
	WalletAddress string        `yaml:"wallet_address" env:"CARDANO_WALLET_ADDRESS"`
	TimeoutChain  time.Duration `yaml:"timeoutchain" env-default:"30s"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
