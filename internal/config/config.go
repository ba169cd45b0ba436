// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Logging   LoggingConfig
	Admission domain.AdmissionRules
}

type ServerConfig struct {
	Port       string
	ShieldPort string
	TrustProxy bool
}

type StorageConfig struct {
	Type string
	// MaxKeys caps the in-memory counters. Once reached the least recently used
	// counter is evicted and its window restarts.
	MaxKeys int
	Redis   RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	trustProxy, err := strconv.ParseBool(getEnv("TRUST_PROXY", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TRUST_PROXY: %w", err)
	}
	server := ServerConfig{
		Port:       getEnv("SERVER_PORT", "3000"),
		ShieldPort: getEnv("SHIELD_PORT", "3002"),
		TrustProxy: trustProxy,
	}

	storageType := strings.ToLower(getEnv("STORAGE_TYPE", "memory"))

	maxKeys, err := strconv.Atoi(getEnv("STORAGE_MAX_KEYS", "100000"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid STORAGE_MAX_KEYS: %w", err)
	}
	if maxKeys <= 0 {
		return Config{}, fmt.Errorf("STORAGE_MAX_KEYS must be positive")
	}

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return Config{}, err
	}

	admission, err := buildAdmissionRules()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server: server,
		Storage: StorageConfig{
			Type:    storageType,
			MaxKeys: maxKeys,
			Redis:   redisConfig,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Admission: admission,
	}, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

// buildAdmissionRules starts from the defaults, applies the optional rules file
// and then the individual environment overrides.
func buildAdmissionRules() (domain.AdmissionRules, error) {
	rules := domain.DefaultAdmissionRules()

	if path := strings.TrimSpace(os.Getenv("ADMISSION_RULES_FILE")); path != "" {
		if err := loadRulesFile(path, &rules); err != nil {
			return domain.AdmissionRules{}, err
		}
	}

	if raw := strings.TrimSpace(os.Getenv("DDOS_THRESHOLD")); raw != "" {
		threshold, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.AdmissionRules{}, fmt.Errorf("invalid DDOS_THRESHOLD: %w", err)
		}
		rules.DDoSThreshold = threshold
	}

	rules.RedirectURL = getEnv("REDIRECT_URL", rules.RedirectURL)

	if raw, ok := os.LookupEnv("WHITELIST"); ok {
		rules.Whitelist = splitList(raw)
	}

	if err := validateRules(rules); err != nil {
		return domain.AdmissionRules{}, err
	}
	return rules, nil
}

func loadRulesFile(path string, rules *domain.AdmissionRules) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read admission rules file: %w", err)
	}
	if err := yaml.Unmarshal(raw, rules); err != nil {
		return fmt.Errorf("parse admission rules file %s: %w", path, err)
	}
	return nil
}

func validateRules(r domain.AdmissionRules) error {
	switch {
	case r.GlobalLimit.Requests <= 0 || r.GlobalLimit.Window <= 0:
		return fmt.Errorf("global_limit must have positive values")
	case r.APILimit.Requests <= 0 || r.APILimit.Window <= 0:
		return fmt.Errorf("api_limit must have positive values")
	case r.SlowDown.Window <= 0:
		return fmt.Errorf("slow_down.window must be positive")
	case r.DetectionInterval <= 0 || r.SampleInterval <= 0:
		return fmt.Errorf("detection_interval and sample_interval must be positive")
	case r.HistorySize <= 0:
		return fmt.Errorf("history_size must be positive")
	case strings.TrimSpace(r.RedirectURL) == "":
		return fmt.Errorf("redirect_url is required")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
