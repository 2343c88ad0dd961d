package cfg

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("POSTGRES_USER", "catalog")
	t.Setenv("POSTGRES_PASSWORD", "catalog")
	t.Setenv("POSTGRES_DB", "catalog")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_TOPIC", "product-events")
	t.Setenv("BASIC_AUTH_USER", "admin")
	t.Setenv("BASIC_AUTH_PASSWORD", "secret")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	setRequiredEnv(t)

	config, err := Load(nopLogger{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if config.Http.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", config.Http.Port)
	}
	if config.Db.Host != "localhost" || config.Db.SSLMode != "disable" {
		t.Fatalf("unexpected db defaults: %+v", config.Db)
	}
	if config.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %s", config.Redis.Addr)
	}
	if config.Redis.CacheTTL != 10*time.Minute {
		t.Fatalf("expected default cache ttl 10m, got %s", config.Redis.CacheTTL)
	}
	if len(config.Kafka.Brokers) != 1 || config.Kafka.Brokers[0] != "localhost:9092" {
		t.Fatalf("unexpected brokers: %v", config.Kafka.Brokers)
	}
}

func TestLoad_PasswordHashedAtLoad(t *testing.T) {
	setRequiredEnv(t)

	config, err := Load(nopLogger{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if config.Auth.User != "admin" {
		t.Fatalf("unexpected auth user: %s", config.Auth.User)
	}
	if err := bcrypt.CompareHashAndPassword(config.Auth.PasswordHash, []byte("secret")); err != nil {
		t.Fatalf("stored hash must match the password: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(config.Auth.PasswordHash, []byte("wrong")); err == nil {
		t.Fatalf("stored hash must reject a wrong password")
	}
}

func TestLoad_PrecomputedHashPreferred(t *testing.T) {
	setRequiredEnv(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("other"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	t.Setenv("BASIC_AUTH_PASSWORD_HASH", string(hash))

	config, err := Load(nopLogger{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := bcrypt.CompareHashAndPassword(config.Auth.PasswordHash, []byte("other")); err != nil {
		t.Fatalf("expected precomputed hash to be used: %v", err)
	}
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	required := []string{
		"POSTGRES_USER",
		"POSTGRES_PASSWORD",
		"POSTGRES_DB",
		"KAFKA_BROKERS",
		"KAFKA_TOPIC",
		"BASIC_AUTH_USER",
	}

	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")

			if _, err := Load(nopLogger{}); err == nil {
				t.Fatalf("expected error when %s is missing", missing)
			}
		})
	}
}

func TestLoad_AuthRequiresPasswordOrHash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BASIC_AUTH_PASSWORD", "")

	if _, err := Load(nopLogger{}); err == nil {
		t.Fatalf("expected error without password and hash")
	}
}

func TestLoad_OverridesRespected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	config, err := Load(nopLogger{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if config.Http.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", config.Http.Port)
	}
	if config.Redis.CacheTTL != 30*time.Second {
		t.Fatalf("expected cache ttl 30s, got %s", config.Redis.CacheTTL)
	}
	if len(config.Kafka.Brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", config.Kafka.Brokers)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_TTL", "not-a-duration")

	if _, err := Load(nopLogger{}); err == nil {
		t.Fatalf("expected error for invalid CACHE_TTL")
	}
}
