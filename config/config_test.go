package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
server:
  port: 9090
  public_url: https://ops.example.com
database:
  host: db
  name: recruit
  user: recruit
tokens:
  secret: file-secret-file-secret-file-secret-0000
  validity: 72h
jwt:
  secret: file-jwt
email:
  provider: ses
  from: ops@example.com
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, testConfig))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://ops.example.com", cfg.Server.PublicURL)
	assert.Equal(t, 72*time.Hour, cfg.Tokens.Validity)
	assert.Equal(t, "ses", cfg.Email.Provider)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 50, cfg.Outbox.BatchSize)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadConfig_SecretsOverlay(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, testConfig))
	t.Setenv("RECRUIT_TOKEN_SECRET", "env-secret-env-secret-env-secret-env-0000")
	t.Setenv("RECRUIT_JWT_SECRET", "env-jwt")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-secret-env-secret-env-secret-env-0000", cfg.Tokens.Secret)
	assert.Equal(t, "env-jwt", cfg.JWT.Secret)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		JWT:    JWTConfig{Secret: "x"},
		Tokens: TokenConfig{Secret: "short", Validity: time.Hour},
		Email:  EmailConfig{Provider: "smtp"},
	}
	assert.Error(t, cfg.Validate())

	cfg.Tokens.Secret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())

	cfg.Email.Provider = "pigeon"
	assert.Error(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dsn := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Name: "n", SSLMode: "disable"}.DSN()
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", dsn)
}
