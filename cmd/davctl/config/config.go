package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	IdPURL   string `json:"idp_url"`
	APIURL   string `json:"api_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Thread   int    `json:"thread"`
	LogLevel string `json:"log_level"`
}

func Parse(f string) (*Config, error) {
	raw, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("read file:%w", err)
	}
	c := &Config{
		Thread:   4,
		LogLevel: "info",
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("unmarshal file:%w", err)
	}
	if len(c.IdPURL) == 0 || len(c.APIURL) == 0 {
		return nil, fmt.Errorf("idp_url and api_url are required")
	}
	if c.Thread <= 0 {
		c.Thread = 1
	}
	return c, nil
}
