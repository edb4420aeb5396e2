package database

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rickgao/albion-omni/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
// A non-empty cfg.URL is returned unchanged.
func BuildConnString(cfg config.DBConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		escapeUserinfo(cfg.User),
		escapeUserinfo(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// escapeUserinfo percent-encodes s for the userinfo part of a URL.
// QueryEscape turns spaces into '+', which userinfo would keep literally.
func escapeUserinfo(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
