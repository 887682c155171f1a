package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/fashioncraft/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_RequiresSecret(t *testing.T) {
	_, err := config.Load(config.Sources{Environ: []string{}})
	assert.ErrorIs(t, err, config.ErrMissingSecret)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.Sources{Environ: []string{"JWT_SECRET=s3cret"}})
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "Información de su taller", cfg.InvoiceLabel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "app.yaml", `
app_port: 9000
store_driver: postgres
log_level: info
cors_allowed_origins:
  - https://a.example
  - https://b.example
jwt_secret: from-yaml
`)
	envPath := writeFile(t, dir, ".env", "APP_PORT=9100\nJWT_SECRET=\"from-dotenv\"\n")

	cfg, err := config.Load(config.Sources{
		ConfigFile: yamlPath,
		EnvFile:    envPath,
		Environ:    []string{"JWT_SECRET=from-env", "UNRELATED=x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.AppPort, ".env overrides yaml")
	assert.Equal(t, "from-env", cfg.JWTSecret, "process env overrides .env")
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Contains(t, cfg.DatabaseDSN, "dbname=fashioncraft")
}

func TestLoad_MissingFilesAreSkipped(t *testing.T) {
	cfg, err := config.Load(config.Sources{
		ConfigFile: "does/not/exist.yaml",
		EnvFile:    "does/not/exist.env",
		Environ:    []string{"JWT_SECRET=x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "x", cfg.JWTSecret)
}

func TestLoad_RateLimitSettings(t *testing.T) {
	cfg, err := config.Load(config.Sources{Environ: []string{
		"JWT_SECRET=x",
		"TRUSTED_PROXIES=10.0.0.1, 172.16.0.0/12",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxies)

	// A disabled limiter needs no window.
	_, err = config.Load(config.Sources{Environ: []string{"JWT_SECRET=x", "RATE_LIMIT_MAX=0", "RATE_LIMIT_WINDOW=0s"}})
	assert.NoError(t, err)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string][]string{
		"driver":   {"JWT_SECRET=x", "STORE_DRIVER=oracle"},
		"duration": {"JWT_SECRET=x", "TOKEN_TTL=soon"},
		"integer":  {"JWT_SECRET=x", "HASH_WORKERS=many"},
		"disk":     {"JWT_SECRET=x", "STORAGE_DISK=ftp"},
		"window":   {"JWT_SECRET=x", "RATE_LIMIT_MAX=5", "RATE_LIMIT_WINDOW=0s"},
		"negative": {"JWT_SECRET=x", "RATE_LIMIT_MAX=5", "RATE_LIMIT_WINDOW=-1m"},
		"proxy":    {"JWT_SECRET=x", "TRUSTED_PROXIES=10.0.0.1,gateway"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(config.Sources{Environ: env})
			assert.Error(t, err)
		})
	}
}
