package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/keyfold/config"
	ConfigFileName    = "keyfold.yml"
)

// Defaults.
const (
	DefaultListenAddr        = ":8080"
	DefaultSessionTokenTTL   = 86400 // seconds
	DefaultMaxReferenceDepth = 8
	DefaultLogLevel          = "info"
)

// Config holds all server settings.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// DatabaseURL is the postgres connection string.
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// TokenSalt is mixed into token hashes. Changing it invalidates every
	// issued token.
	TokenSalt string `yaml:"token_salt" json:"token_salt"`

	// DataKey is a base64-encoded AES key for encrypting secret values at
	// rest. Empty means values are stored as-is.
	DataKey string `yaml:"data_key" json:"data_key"`

	// SessionTokenTTL is the session token lifetime in seconds, capped at
	// 24 hours by the token engine.
	SessionTokenTTL int `yaml:"session_token_ttl" json:"session_token_ttl"`

	// MaxReferenceDepth bounds ${...} reference hops.
	MaxReferenceDepth int `yaml:"max_reference_depth" json:"max_reference_depth"`

	// AuditEnabled switches the request audit trail on.
	AuditEnabled bool `yaml:"audit_enabled" json:"audit_enabled"`

	// LogLevel is the logrus level name.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// TrustedProxies is a list of CIDR ranges whose X-Forwarded-For is
	// believed.
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute is one configuration value with its provenance.
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// newDefault returns a config with default values.
func newDefault() *Config {
	return &Config{
		ListenAddr:        DefaultListenAddr,
		SessionTokenTTL:   DefaultSessionTokenTTL,
		MaxReferenceDepth: DefaultMaxReferenceDepth,
		AuditEnabled:      true,
		LogLevel:          DefaultLogLevel,
		TrustedProxies:    []string{},
		sources:           make(map[string]string),
	}
}

func attributeNames() []string {
	return []string{
		"listen_addr", "database_url", "token_salt", "data_key", "session_token_ttl",
		"max_reference_depth", "audit_enabled", "log_level", "trusted_proxies",
	}
}

// Load reads configuration from file and environment variables. Environment
// variables take precedence over file values, file values over defaults.
func Load() (*Config, error) {
	config := newDefault()
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("KEYFOLD_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()
	return config, nil
}

func (c *Config) applyFileConfig(file *Config) {
	if file.ListenAddr != "" {
		c.ListenAddr = file.ListenAddr
		c.sources["listen_addr"] = "file"
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
		c.sources["database_url"] = "file"
	}
	if file.TokenSalt != "" {
		c.TokenSalt = file.TokenSalt
		c.sources["token_salt"] = "file"
	}
	if file.DataKey != "" {
		c.DataKey = file.DataKey
		c.sources["data_key"] = "file"
	}
	if file.SessionTokenTTL != 0 {
		c.SessionTokenTTL = file.SessionTokenTTL
		c.sources["session_token_ttl"] = "file"
	}
	if file.MaxReferenceDepth != 0 {
		c.MaxReferenceDepth = file.MaxReferenceDepth
		c.sources["max_reference_depth"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("KEYFOLD_LISTEN_ADDR"); val != "" {
		c.ListenAddr = val
		c.sources["listen_addr"] = "environment"
	}
	if val := os.Getenv("KEYFOLD_DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	} else if val := os.Getenv("DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	}
	if val := os.Getenv("KEYFOLD_TOKEN_SALT"); val != "" {
		c.TokenSalt = val
		c.sources["token_salt"] = "environment"
	}
	if val := os.Getenv("KEYFOLD_DATA_KEY"); val != "" {
		c.DataKey = val
		c.sources["data_key"] = "environment"
	}
	if val := os.Getenv("KEYFOLD_SESSION_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SessionTokenTTL = i
			c.sources["session_token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("KEYFOLD_MAX_REFERENCE_DEPTH"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.MaxReferenceDepth = i
			c.sources["max_reference_depth"] = "environment"
		}
	}
	if val := os.Getenv("KEYFOLD_AUDIT_ENABLED"); val != "" {
		c.AuditEnabled = val == "true" || val == "1"
		c.sources["audit_enabled"] = "environment"
	}
	if val := os.Getenv("KEYFOLD_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
	if val := os.Getenv("KEYFOLD_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file.
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns where a configuration attribute's value came from.
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// SessionTTL returns the session token TTL as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTokenTTL) * time.Second
}

// IsTrustedProxy checks if an IP belongs to a trusted proxy range.
func (c *Config) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}
	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate checks the configuration for values that can't work.
func (c *Config) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}
	if c.MaxReferenceDepth < 1 {
		return fmt.Errorf("max_reference_depth must be >= 1, got %d", c.MaxReferenceDepth)
	}
	if c.SessionTokenTTL < 1 {
		return fmt.Errorf("session_token_ttl must be >= 1, got %d", c.SessionTokenTTL)
	}
	if c.DataKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.DataKey)
		if err != nil {
			return fmt.Errorf("data_key must be base64: %w", err)
		}
		switch len(key) {
		case 16, 24, 32:
		default:
			return fmt.Errorf("data_key must decode to 16, 24 or 32 bytes, got %d", len(key))
		}
	}
	return nil
}

// DataKeyBytes returns the decoded at-rest encryption key, or nil when no
// key is configured.
func (c *Config) DataKeyBytes() []byte {
	if c.DataKey == "" {
		return nil
	}
	key, err := base64.StdEncoding.DecodeString(c.DataKey)
	if err != nil {
		return nil
	}
	return key
}

// Attributes returns all configuration attributes with values and sources.
// The token salt and data key values are redacted.
func (c *Config) Attributes() []Attribute {
	salt := ""
	if c.TokenSalt != "" {
		salt = "(set)"
	}
	dataKey := ""
	if c.DataKey != "" {
		dataKey = "(set)"
	}
	return []Attribute{
		{Name: "listen_addr", Value: c.ListenAddr, Source: c.Source("listen_addr")},
		{Name: "database_url", Value: redactURL(c.DatabaseURL), Source: c.Source("database_url")},
		{Name: "token_salt", Value: salt, Source: c.Source("token_salt")},
		{Name: "data_key", Value: dataKey, Source: c.Source("data_key")},
		{Name: "session_token_ttl", Value: strconv.Itoa(c.SessionTokenTTL), Source: c.Source("session_token_ttl")},
		{Name: "max_reference_depth", Value: strconv.Itoa(c.MaxReferenceDepth), Source: c.Source("max_reference_depth")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.AuditEnabled), Source: c.Source("audit_enabled")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
	}
}

// FormatText returns a text table of the configuration.
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", "----", "-----", "------"))
	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration.
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// redactURL strips the password from a connection URL for display.
func redactURL(url string) string {
	if url == "" {
		return ""
	}
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return url
	}
	colon := strings.Index(url[scheme+3:], ":")
	if colon == -1 || scheme+3+colon > at {
		return url
	}
	return url[:scheme+3+colon] + ":***" + url[at:]
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
