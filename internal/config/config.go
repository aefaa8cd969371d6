package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kirinyoku/tixmint/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Sale     SaleConfig
}

type ServerConfig struct {
	Host string
	Port int
	// MintRateLimit is the number of mints allowed per client IP per minute.
	MintRateLimit int
}

type StoreConfig struct {
	Driver string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type SaleConfig struct {
	Params  domain.SaleParams
	Genesis map[domain.Address]uint64
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mintRate, err := intEnv("MINT_RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host:          strEnv("SERVER_HOST", "localhost"),
		Port:          serverPort,
		MintRateLimit: mintRate,
	}

	driver := strEnv("STORE_DRIVER", DriverPostgres)
	if driver != DriverPostgres && driver != DriverMemory {
		return nil, fmt.Errorf("%s: invalid STORE_DRIVER %q", op, driver)
	}

	var postgresCfg PostgresConfig
	if driver == DriverPostgres {
		postgresCfg, err = loadPostgres()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	redisEnabled, err := boolEnv("REDIS_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Enabled:  redisEnabled,
		Addr:     strEnv("REDIS_ADDR", "localhost:6380"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	kafkaEnabled, err := boolEnv("KAFKA_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	kafkaCfg := KafkaConfig{
		Enabled: kafkaEnabled,
		Brokers: splitList(strEnv("KAFKA_BROKERS", "localhost:9092")),
		Topic:   os.Getenv("KAFKA_TOPIC"),
	}

	if kafkaCfg.Enabled && len(kafkaCfg.Brokers) == 0 {
		return nil, fmt.Errorf("%s: missing KAFKA_BROKERS", op)
	}

	saleCfg, err := loadSale()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		Store:    StoreConfig{Driver: driver},
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Kafka:    kafkaCfg,
		Sale:     saleCfg,
	}, nil
}

func loadPostgres() (PostgresConfig, error) {
	port, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
	}

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
	}

	name := os.Getenv("POSTGRES_DB")
	if name == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
	}

	return PostgresConfig{
		User:     user,
		Password: password,
		Name:     name,
		Host:     strEnv("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  strEnv("POSTGRES_SSLMODE", "disable"),
	}, nil
}

func loadSale() (SaleConfig, error) {
	var (
		p   domain.SaleParams
		err error
	)

	if p.BasePrice, err = uintEnv("SALE_BASE_PRICE", 97); err != nil {
		return SaleConfig{}, err
	}

	if p.Fee, err = uintEnv("SALE_FEE", 3); err != nil {
		return SaleConfig{}, err
	}

	if p.TicketCap, err = uintEnv("SALE_TICKET_CAP", 100); err != nil {
		return SaleConfig{}, err
	}

	if p.SlotSize, err = uintEnv("SALE_SLOT_SIZE", 100000); err != nil {
		return SaleConfig{}, err
	}

	if p.SlotCount, err = uintEnv("SALE_SLOT_COUNT", 0); err != nil {
		return SaleConfig{}, err
	}

	p.Issuer = domain.Address(os.Getenv("SALE_ISSUER"))
	if p.Issuer == "" {
		return SaleConfig{}, fmt.Errorf("missing SALE_ISSUER")
	}

	p.FeeBeneficiary = domain.Address(os.Getenv("SALE_FEE_BENEFICIARY"))
	if p.FeeBeneficiary == "" {
		return SaleConfig{}, fmt.Errorf("missing SALE_FEE_BENEFICIARY")
	}

	genesis, err := ParseGenesis(os.Getenv("SALE_GENESIS_BALANCES"))
	if err != nil {
		return SaleConfig{}, err
	}

	return SaleConfig{Params: p, Genesis: genesis}, nil
}

// ParseGenesis reads "addr=amount,addr=amount". Repeated addresses are summed.
func ParseGenesis(s string) (map[domain.Address]uint64, error) {
	out := make(map[domain.Address]uint64)

	for _, pair := range splitList(s) {
		addr, amt, ok := strings.Cut(pair, "=")
		addr = strings.TrimSpace(addr)
		if !ok || addr == "" {
			return nil, fmt.Errorf("invalid SALE_GENESIS_BALANCES entry %q", pair)
		}

		v, err := strconv.ParseUint(strings.TrimSpace(amt), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SALE_GENESIS_BALANCES amount for %s: %w", addr, err)
		}

		cur := out[domain.Address(addr)]
		if cur+v < cur {
			return nil, fmt.Errorf("SALE_GENESIS_BALANCES overflows for %s", addr)
		}
		out[domain.Address(addr)] = cur + v
	}

	return out, nil
}

func strEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func uintEnv(key string, def uint64) (uint64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
