// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `DASHGATE_`, where `__` maps to “.”
     (e.g., `DASHGATE_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into strongly-typed structs, filled
with defaults, secret references are resolved, the result is validated,
enriched with the runtime root path, and cached in an `atomic.Pointer` for
lock-free reads.  Components receive the values they need by injection;
`Get()` exists for cmd/web and diagnostics only.

Instrumentation
---------------
  • DEBUG spans – root discovery, YAML read.
  • ERROR spans – YAML parse, env overlay, unmarshal, secrets, validation.
  • INFO  span  – final “config loaded” with key highlights (never secrets).
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/dashgate/internal/vault"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "DASHGATE_"

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into its value.
// *vault.Client satisfies it.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// RootDir resolves DASHGATE_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to the executable heuristic for production layout.
func RootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads configuration from RootDir().
func Load(ctx context.Context, secrets SecretResolver) (*Config, error) {
	return LoadFrom(ctx, RootDir(), secrets)
}

// LoadFrom reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.  secrets may be nil when no value is a Vault reference.
func LoadFrom(ctx context.Context, root string, secrets SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: DASHGATE_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)

	if err := resolveSecrets(ctx, &cfg, secrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"sql_host", cfg.SQLServer.Host,
		"dashboards", cfg.Dashboards.Backend,
		"unknown_items", cfg.Rewrite.Unknown,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets swaps every `vault:` value for its secret.
func resolveSecrets(ctx context.Context, cfg *Config, secrets SecretResolver) error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"sql_server.password", &cfg.SQLServer.Password},
		{"dashboards.dsn", &cfg.Dashboards.DSN},
	}
	for _, f := range fields {
		if !vault.IsRef(*f.ptr) {
			continue
		}
		if secrets == nil {
			return fmt.Errorf("%s is a vault reference but no secret resolver is configured", f.name)
		}
		v, err := secrets.Resolve(ctx, *f.ptr)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.ptr = v
	}
	return nil
}

// NeedsSecrets reports whether any secret field in the merged tree is a
// Vault reference, so cmd/web only dials Vault when it has to.
func NeedsSecrets(root string) bool {
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))
	k := koanf.New(".")
	_ = k.Load(file.Provider(filepath.Join(root, "conf", "global.yaml")), yaml.Parser())
	_ = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
	}), nil)
	return vault.IsRef(k.String("sql_server.password")) || vault.IsRef(k.String("dashboards.dsn"))
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }
