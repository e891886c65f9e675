package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server Server
	DB     DB
	Redis  Redis
	Chain  Chain
	IPFS   IPFS
	Auth   Auth
	App    App
}

type Server struct {
	Port        string
	CORSOrigins []string
}

type DB struct {
	DSN      string
	MaxConns int
	MinConns int
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Chain struct {
	RPCURL          string
	ContractAddress string
	ChainID         int
	// Operator key signs sponsored (relayed) pointer updates.
	OperatorKeyHex string
	// Wallet bridge signs user-paid fallback transactions.
	WalletBridgeURL string
	// Recipient of budget deposits.
	RecipientWallet string
}

type IPFS struct {
	APIURL     string
	GatewayURL string
	Timeout    time.Duration
}

type Auth struct {
	Domain       string
	URI          string
	Statement    string
	NonceTTL     time.Duration
	SessionTTL   time.Duration
	CookieSecure bool
}

type App struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: Server{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS"),
		},
		DB: DB{
			DSN:      getEnv("DB_DSN", ""),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Chain: Chain{
			RPCURL:          getEnv("CHAIN_RPC_URL", ""),
			ContractAddress: getEnv("PROFILE_CONTRACT_ADDRESS", ""),
			ChainID:         getEnvAsInt("CHAIN_ID", 1),
			OperatorKeyHex:  getEnv("OPERATOR_PRIVATE_KEY", ""),
			WalletBridgeURL: getEnv("WALLET_BRIDGE_URL", ""),
			RecipientWallet: getEnv("RECIPIENT_WALLET_ADDRESS", ""),
		},
		IPFS: IPFS{
			APIURL:     getEnv("IPFS_API_URL", "http://127.0.0.1:5001"),
			GatewayURL: getEnv("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud"),
			Timeout:    time.Duration(getEnvAsInt("IPFS_HTTP_TIMEOUT_SEC", 30)) * time.Second,
		},
		Auth: Auth{
			Domain:       getEnv("AUTH_DOMAIN", "localhost:8080"),
			URI:          getEnv("AUTH_URI", "http://localhost:8080"),
			Statement:    getEnv("AUTH_STATEMENT", "Sign in to Dev Dashboard"),
			NonceTTL:     time.Duration(getEnvAsInt("AUTH_NONCE_TTL_SEC", 300)) * time.Second,
			SessionTTL:   time.Duration(getEnvAsInt("AUTH_SESSION_TTL_SEC", 86400)) * time.Second,
			CookieSecure: getEnv("AUTH_COOKIE_SECURE", "false") == "true",
		},
		App: App{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.Chain.RPCURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL is required")
	}

	if c.Chain.ContractAddress == "" {
		return fmt.Errorf("PROFILE_CONTRACT_ADDRESS is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}
