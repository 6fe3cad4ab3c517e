package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseFile_JSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempFile(t, "cfg.json", `{
		"endpoint_addr_grpc": "www.example:9000",
		"database_dsn": "pg",
		"password": {"encoding": "argon2id", "required_unique": 2, "max_age": "720h",
			"failed_login_attempt_interval": 60000000000},
		"geocoder": {"url": "http://geo", "min_interval": "2s"},
		"s3_bucket": "reports",
		"smtp_defaults": {"smtp.host": "mail.example"}
	}`)
	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)

	assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
	assert.Equal(t, "pg", cfg.DatabaseDSN)
	assert.Equal(t, "argon2id", cfg.Password.Encoding)
	assert.Equal(t, 2, cfg.Password.RequiredUnique)
	assert.Equal(t, 720*time.Hour, cfg.Password.MaxAge)
	assert.Equal(t, time.Minute, cfg.Password.FailedLoginAttemptInterval)
	assert.Equal(t, 180*time.Second, cfg.Password.FailedLoginSuspendInterval, "absent keys keep defaults")
	assert.Equal(t, "http://geo", cfg.Geocoder.URL)
	assert.Equal(t, 2*time.Second, cfg.Geocoder.MinInterval)
	assert.Equal(t, "reports", cfg.S3Bucket)
	assert.Equal(t, map[string]string{"smtp.host": "mail.example"}, cfg.SMTPDefaults)
	assert.Equal(t, ":9102", cfg.MetricsAddr)
}

func Test_parseFile_YAML(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempFile(t, "cfg.yaml", `
metrics_addr: ":7000"
backfill_pool_size: 3
password:
  encoding: md5
  failed_login_suspend_interval: 5m
sms_defaults:
  sms.gateway: httpURL
`)
	os.Args = []string{"testbin", "-c", path}

	cfg := &Config{}
	parseFile(cfg)

	assert.Equal(t, ":7000", cfg.MetricsAddr)
	assert.Equal(t, 3, cfg.BackfillPoolSize)
	assert.Equal(t, "md5", cfg.Password.Encoding)
	assert.Equal(t, 5*time.Minute, cfg.Password.FailedLoginSuspendInterval)
	assert.Equal(t, map[string]string{"sms.gateway": "httpURL"}, cfg.SMSDefaults)
}

func Test_parseFile_ExplicitZeroOverrides(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempFile(t, "zero.yaml", `
last_passwords_max_length: 0
admin_token_secret: s3cr3t
push_gateway_url: http://push:9091
password:
  required_unique: 0
  failed_login_max_attempts: 0
`)
	os.Args = []string{"testbin", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NotZero(t, cfg.Password.RequiredUnique)
	require.NotZero(t, cfg.Password.FailedLoginMaxAttempts)
	parseFile(cfg)

	assert.Zero(t, cfg.Password.RequiredUnique, "history check disabled")
	assert.Zero(t, cfg.Password.FailedLoginMaxAttempts, "lockout disabled")
	assert.Zero(t, cfg.LastPasswordsMaxLength, "history budget unbounded")
	assert.Equal(t, 8, cfg.Password.MinLength, "absent keys keep defaults")
	assert.Equal(t, "s3cr3t", cfg.AdminTokenSecret)
	assert.Equal(t, "http://push:9091", cfg.PushGatewayURL)
}

func Test_parseFile_NoFileNoChanges(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Setenv("TENANTGOV_CONFIG", "")

	cfg := &Config{EndpointAddrGRPC: "defaults:1234", S3Bucket: "b"}
	parseFile(cfg)

	assert.Equal(t, &Config{EndpointAddrGRPC: "defaults:1234", S3Bucket: "b"}, cfg)
}

func Test_parseFile_EnvFallback(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Setenv("TENANTGOV_CONFIG", writeTempFile(t, "env.json", `{"database_dsn": "from-env"}`))

	cfg := &Config{}
	parseFile(cfg)

	assert.Equal(t, "from-env", cfg.DatabaseDSN)
}

func Test_parseFile_Errors(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}
		assert.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("bad json", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", writeTempFile(t, "bad.json", `{"backfill_pool_size": "x"}`)}
		assert.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("bad duration", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", writeTempFile(t, "bad.yml", "geocoder:\n  timeout: soon\n")}
		assert.Panics(t, func() { parseFile(&Config{}) })
	})
}
