package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

const (
	envBind   = "DAVGATE_BIND"
	envAPIURL = "DAVGATE_API_URL"
	envIdPURL = "DAVGATE_IDP_URL"
)

type SessionConfig struct { //时间单位均为秒
	RefreshInterval    int64 `json:"refresh_interval"`
	RefreshAhead       int64 `json:"refresh_ahead"`
	RefreshConcurrency int   `json:"refresh_concurrency"`
	MaxIdle            int64 `json:"max_idle"`
	MaxSessions        int   `json:"max_sessions"`
	AuthFailTTL        int64 `json:"auth_fail_ttl"`
}

type Config struct {
	Bind          string           `json:"bind"`
	LogInfo       logger.LogConfig `json:"log_info"`
	APIURL        string           `json:"api_url"`
	IdPURL        string           `json:"idp_url"`
	Prefix        string           `json:"prefix"`
	StagingDir    string           `json:"staging_dir"`
	EnableMetrics bool             `json:"enable_metrics"`
	Session       SessionConfig    `json:"session"`
}

func defaultConfig() *Config {
	return &Config{
		Bind: ":8082",
		LogInfo: logger.LogConfig{
			Level:     "info",
			FileCount: 5,
			FileSize:  100 * 1024 * 1024,
			KeepDays:  7,
			Console:   true,
		},
		EnableMetrics: true,
		Session: SessionConfig{
			RefreshInterval:    5,
			RefreshAhead:       60,
			RefreshConcurrency: 8,
			MaxSessions:        10000,
			AuthFailTTL:        10,
		},
	}
}

func Parse(f string) (*Config, error) {
	raw, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("read file:%w", err)
	}
	c := defaultConfig()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode json failed, err:%w", err)
	}
	applyEnv(c)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func applyEnv(c *Config) {
	c.Bind = envOr(envBind, c.Bind)
	c.APIURL = envOr(envAPIURL, c.APIURL)
	c.IdPURL = envOr(envIdPURL, c.IdPURL)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && len(v) > 0 {
		return v
	}
	return fallback
}

func (c *Config) validate() error {
	if len(c.APIURL) == 0 {
		return fmt.Errorf("no api_url found")
	}
	if len(c.IdPURL) == 0 {
		return fmt.Errorf("no idp_url found")
	}
	if c.Session.RefreshInterval <= 0 {
		return fmt.Errorf("invalid refresh_interval:%d", c.Session.RefreshInterval)
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("invalid max_sessions:%d", c.Session.MaxSessions)
	}
	return nil
}
