package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Owner        uuid.UUID
	Admin        uuid.UUID
	PayoutWallet uuid.UUID
	Postgres     PostgresConfig
	Redis        RedisConfig
}

// PostgresConfig configures the durable journal. Enabled is false when
// POSTGRES_USER is unset; the ledger then runs on an in-memory journal.
type PostgresConfig struct {
	Enabled  bool
	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig configures change notifications. An empty Addr disables them.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	ownerStr := os.Getenv("LEDGER_OWNER")
	if ownerStr == "" {
		return nil, fmt.Errorf("%s: missing LEDGER_OWNER", op)
	}

	owner, err := uuid.Parse(ownerStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid LEDGER_OWNER: %w", op, err)
	}

	walletStr := os.Getenv("LEDGER_PAYOUT_WALLET")
	if walletStr == "" {
		return nil, fmt.Errorf("%s: missing LEDGER_PAYOUT_WALLET", op)
	}

	wallet, err := uuid.Parse(walletStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid LEDGER_PAYOUT_WALLET: %w", op, err)
	}

	// The designated admin defaults to the contract owner.
	admin := owner
	if adminStr := os.Getenv("LEDGER_ADMIN"); adminStr != "" {
		admin, err = uuid.Parse(adminStr)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid LEDGER_ADMIN: %w", op, err)
		}
	}

	postgresCfg := PostgresConfig{}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		postgresCfg.Enabled = true
		postgresCfg.User = user
		postgresCfg.Password = os.Getenv("POSTGRES_PASSWORD")

		postgresCfg.Name = os.Getenv("POSTGRES_DB")
		if postgresCfg.Name == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
		}

		postgresCfg.Host = os.Getenv("POSTGRES_HOST")
		if postgresCfg.Host == "" {
			postgresCfg.Host = "localhost"
		}

		postgresCfg.Port = os.Getenv("POSTGRES_PORT")
		if postgresCfg.Port == "" {
			postgresCfg.Port = "5432"
		}

		postgresCfg.SSLMode = os.Getenv("POSTGRES_SSLMODE")
		if postgresCfg.SSLMode == "" {
			postgresCfg.SSLMode = "disable"
		}
	}

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		redisCfg.DB, err = strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid REDIS_DB: %w", op, err)
		}
	}

	return &Config{
		Owner:        owner,
		Admin:        admin,
		PayoutWallet: wallet,
		Postgres:     postgresCfg,
		Redis:        redisCfg,
	}, nil
}
