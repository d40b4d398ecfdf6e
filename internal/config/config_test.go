package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// Полный корректный YAML с заданными значениями (не зависящими от дефолтов).
const sampleYAML = `
env: "prod"
app:
  name: "userapi"
  version: 3
http:
  host: "127.0.0.1"
  port: "8088"
ops:
  host: "127.0.0.1"
  port: "9099"
auth:
  jwt_secret: "super-secret"
  access_token_ttl: "10m"
  refresh_token_ttl: "240h"
  issuer: "issuerX"
mongo:
  url: "mongodb://localhost:27017/users"
redis:
  url: "redis://localhost:6379/0"
  profile_ttl: "5m"
s3:
  endpoint: "localhost:9000"
  bucket: "avatars-test"
  presign_ttl: "2m"
timeouts:
  service: "3s"
`

// Минимально валидный YAML (только обязательные поля).
const minimalYAML = `
app:
  name: "userapi"
auth:
  jwt_secret: "min-secret"
mongo:
  url: "mongodb://localhost/min"
redis:
  url: "redis://localhost:6379/1"
`

// Некорректный YAML — для проверки ошибок парсинга.
const brokenYAML = `
auth:
  jwt_secret: [unclosed
`

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "userapi", cfg.App.Name)
	require.Equal(t, 3, cfg.App.Version)
	require.Equal(t, "127.0.0.1:8088", cfg.HTTP.Addr())
	require.Equal(t, "127.0.0.1:9099", cfg.Ops.Addr())

	require.Equal(t, "super-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 10*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 240*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, "issuerX", cfg.Auth.Issuer)

	require.Equal(t, "mongodb://localhost:27017/users", cfg.Mongo.URL)
	require.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	require.Equal(t, 5*time.Minute, cfg.Redis.ProfileTTL)
	require.Equal(t, "avatars-test", cfg.S3.Bucket)
	require.Equal(t, 2*time.Minute, cfg.S3.PresignTTL)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Service)
}

func TestLoad_WithExplicitPath_FileDoesNotExist(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "config file does not exist")
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "from_env_path.yaml", minimalYAML)

	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "min-secret", cfg.Auth.JWTSecret)
	require.Equal(t, "mongodb://localhost/min", cfg.Mongo.URL)
	// Дефолты применяются для незаданных полей.
	require.Equal(t, 3*time.Hour, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, 15*time.Minute, cfg.Redis.ProfileTTL)
	require.Equal(t, 1, cfg.App.Version)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)

	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "super-secret", cfg.Auth.JWTSecret)
}

func TestLoad_EnvOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("JWT_SECRET", "env-wins")
	t.Setenv("APP_NAME", "env-app")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "env-wins", cfg.Auth.JWTSecret)
	require.Equal(t, "env-app", cfg.App.Name)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
