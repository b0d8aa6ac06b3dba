package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	Debug    bool

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// InMemory switches the document store to the in-process backend with an
	// optional JSON snapshot file. Useful for local runs without Postgres.
	InMemory     bool
	SnapshotPath string

	KafkaBrokers []string
	EventsTopic  string
	RepairTopic  string
	AuditTopic   string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int

	// FailClosed makes availability checks reject bookings when the order or
	// payment store cannot be read. The default keeps the historical
	// fail-open behavior.
	FailClosed bool

	AdminUsername string
	AdminPassword string
}

// Load reads .env (falling back to .example.env) from the working directory
// or its parents, then builds the config from the environment.
func Load() Config {
	loadEnv()

	return Config{
		HTTPPort: getString("HTTP_PORT", "9000"),
		Debug:    getBool("DEBUG", true),

		DBHost:     getString("DB_HOST", "localhost"),
		DBPort:     getInt("DB_PORT", 5432),
		DBUser:     getString("POSTGRES_USER", "postgres"),
		DBPassword: getString("POSTGRES_PASSWORD", "postgres"),
		DBName:     getString("POSTGRES_DB", "laundroyale"),

		InMemory:     getBool("STORE_IN_MEMORY", false),
		SnapshotPath: getString("STORE_SNAPSHOT_PATH", ""),

		KafkaBrokers: getList("KAFKA_BROKERS"),
		EventsTopic:  getString("KAFKA_EVENTS_TOPIC", "laundroyale.events"),
		RepairTopic:  getString("KAFKA_REPAIR_TOPIC", "laundroyale.settlement.repair"),
		AuditTopic:   getString("KAFKA_AUDIT_TOPIC", "laundroyale.audit_logs"),

		OutboxPollInterval: getDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getInt("OUTBOX_BATCH_SIZE", 20),
		OutboxMaxAttempts:  getInt("OUTBOX_MAX_ATTEMPTS", 5),

		FailClosed: getBool("AVAILABILITY_FAIL_CLOSED", false),

		AdminUsername: getString("ADMIN_USERNAME", "admin"),
		AdminPassword: getString("ADMIN_PASSWORD", ""),
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func loadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Error getting working directory: %v", err)
		return
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf("Loaded environment variables from %s", envPath)
			return
		}
	}

	for _, envPath := range possiblePaths {
		examplePath := filepath.Join(filepath.Dir(envPath), ".example.env")
		if err := godotenv.Load(examplePath); err == nil {
			log.Printf("Loaded environment variables from %s", examplePath)
			return
		}
	}

	log.Println("No .env file found, using environment defaults")
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: invalid integer for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: invalid boolean for %s: %q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: invalid duration for %s: %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
