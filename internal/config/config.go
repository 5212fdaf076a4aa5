package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个网关的配置项。
type Config struct {
	Server   ServerConfig
	Agent    AgentConfig
	App      AppConfig
	Identity IdentityConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	agent, err := loadAgentConfig()
	if err != nil {
		return nil, err
	}

	id, err := loadIdentityConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Agent: agent, App: loadAppConfig(), Identity: id}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8787"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8787" 或 "127.0.0.1:8787"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AgentConfig describes the upstream agent backend.
type AgentConfig struct {
	BaseURL string
	Timeout time.Duration
}

// agentURLVars are checked in order; the first non-empty value wins.
var agentURLVars = []string{
	"AGENT_BACKEND_URL",
	"BACKEND_URL",
	"TIMEBOX_BACKEND_URL",
}

func loadAgentConfig() (AgentConfig, error) {
	raw := ""
	for _, key := range agentURLVars {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		raw = "http://localhost:8000"
	}

	timeoutSeconds := 60
	if override, err := parseOptionalIntEnv("AGENT_TIMEOUT_SECONDS"); err != nil {
		return AgentConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AgentConfig{}, fmt.Errorf("AGENT_TIMEOUT_SECONDS must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return AgentConfig{
		BaseURL: NormalizeAgentURL(raw),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// NormalizeAgentURL strips a trailing slash and a trailing /api suffix
// so the known route path can be appended without doubling it.
func NormalizeAgentURL(raw string) string {
	url := strings.TrimRight(strings.TrimSpace(raw), "/")
	url = strings.TrimSuffix(url, "/api")
	return strings.TrimRight(url, "/")
}

// AppConfig carries runtime-mode switches.
type AppConfig struct {
	Env string
}

func loadAppConfig() AppConfig {
	return AppConfig{
		Env: getEnvOrDefault("APP_ENV", "development"),
	}
}

// Production reports whether the dev-only identity fallback must stay
// disabled.
func (a AppConfig) Production() bool {
	return strings.EqualFold(a.Env, "production")
}

// IdentityConfig controls request-identity resolution.
type IdentityConfig struct {
	// SessionTokens seeds the production resolver: "token=user" pairs,
	// comma separated. The login flow that would grant these at runtime
	// lives outside this gateway.
	SessionTokens map[string]string
	// DevHeader is the trusted header in non-production mode.
	DevHeader string
}

func loadIdentityConfig() (IdentityConfig, error) {
	tokens := make(map[string]string)
	raw := strings.TrimSpace(os.Getenv("AUTH_SESSION_TOKENS"))
	if raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			token, user, ok := strings.Cut(pair, "=")
			if !ok || strings.TrimSpace(token) == "" || strings.TrimSpace(user) == "" {
				return IdentityConfig{}, fmt.Errorf("invalid AUTH_SESSION_TOKENS pair %q", pair)
			}
			tokens[strings.TrimSpace(token)] = strings.TrimSpace(user)
		}
	}

	return IdentityConfig{
		SessionTokens: tokens,
		DevHeader:     getEnvOrDefault("AUTH_DEV_HEADER", "X-User-Id"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
