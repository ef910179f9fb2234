package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/0xOmarA/radix-oracle-contracts/api"
	oracletypes "github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

const (
	configDirName   = "config"
	configFileName  = "oracled.toml"
	genesisFileName = "genesis.json"
	keysDirName     = "keys"

	envPrefix = "ORACLED"
)

// Config keys, also the TOML layout of oracled.toml.
const (
	keyAPIAddress      = "api.address"
	keyAPIJWTSecret    = "api.jwt-secret"
	keyAPICORSOrigins  = "api.cors-origins"
	keyAPIMaxBodyBytes = "api.max-body-bytes"
	keyAPIRateLimitRPS = "api.rate-limit-rps"
	keyAPITrustProxy   = "api.trust-proxy-headers"
	keyDBBackend       = "db.backend"
	keyLogLevel        = "log.level"
	keyOraclePublicKey = "oracle.public-key"
)

// Config is the daemon configuration.
type Config struct {
	API struct {
		Address           string
		JWTSecret         string
		CORSOrigins       []string
		MaxBodyBytes      int64
		RateLimitRPS      int
		TrustProxyHeaders bool
	}
	DB struct {
		Backend string
	}
	Log struct {
		Level string
	}
	Oracle struct {
		PublicKey string
	}
}

// DefaultConfig returns the configuration written by init.
func DefaultConfig() Config {
	apiCfg := api.DefaultConfig()

	var cfg Config
	cfg.API.Address = apiCfg.Address
	cfg.API.CORSOrigins = apiCfg.CORSOrigins
	cfg.API.MaxBodyBytes = apiCfg.MaxBodyBytes
	cfg.API.RateLimitRPS = apiCfg.RateLimitRPS
	cfg.DB.Backend = string(dbm.GoLevelDBBackend)
	cfg.Log.Level = zerolog.InfoLevel.String()
	return cfg
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	switch dbm.BackendType(c.DB.Backend) {
	case dbm.GoLevelDBBackend, dbm.MemDBBackend:
	default:
		return fmt.Errorf("unsupported db backend %q (expected %s or %s)", c.DB.Backend, dbm.GoLevelDBBackend, dbm.MemDBBackend)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if c.Oracle.PublicKey != "" {
		if _, err := oracletypes.ParsePublicKey(c.Oracle.PublicKey); err != nil {
			return fmt.Errorf("invalid oracle public key: %w", err)
		}
	}
	return c.APIConfig().Validate()
}

// APIConfig returns the API server settings.
func (c Config) APIConfig() *api.Config {
	cfg := api.DefaultConfig()
	cfg.Address = c.API.Address
	cfg.JWTSecret = []byte(c.API.JWTSecret)
	cfg.CORSOrigins = c.API.CORSOrigins
	cfg.MaxBodyBytes = c.API.MaxBodyBytes
	cfg.RateLimitRPS = c.API.RateLimitRPS
	cfg.TrustProxyHeaders = c.API.TrustProxyHeaders
	return cfg
}

func configPath(home string) string {
	return filepath.Join(home, configDirName, configFileName)
}

func genesisPath(home string) string {
	return filepath.Join(home, configDirName, genesisFileName)
}

func keysDir(home string) string {
	return filepath.Join(home, keysDirName)
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault(keyAPIAddress, def.API.Address)
	v.SetDefault(keyAPIJWTSecret, def.API.JWTSecret)
	v.SetDefault(keyAPICORSOrigins, def.API.CORSOrigins)
	v.SetDefault(keyAPIMaxBodyBytes, def.API.MaxBodyBytes)
	v.SetDefault(keyAPIRateLimitRPS, def.API.RateLimitRPS)
	v.SetDefault(keyAPITrustProxy, def.API.TrustProxyHeaders)
	v.SetDefault(keyDBBackend, def.DB.Backend)
	v.SetDefault(keyLogLevel, def.Log.Level)
	v.SetDefault(keyOraclePublicKey, def.Oracle.PublicKey)
}

// newViper returns a viper instance reading <home>/config/oracled.toml with
// ORACLED_* environment overrides, e.g. ORACLED_API_JWT_SECRET.
func newViper(home string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath(home))
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the configuration of home. A missing config file yields
// the defaults.
func LoadConfig(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	var err error
	cfg.API.Address = cast.ToString(v.Get(keyAPIAddress))
	cfg.API.JWTSecret = cast.ToString(v.Get(keyAPIJWTSecret))
	cfg.API.CORSOrigins = toStringSlice(v.Get(keyAPICORSOrigins))
	if cfg.API.MaxBodyBytes, err = cast.ToInt64E(v.Get(keyAPIMaxBodyBytes)); err != nil {
		return Config{}, fmt.Errorf("%s: %w", keyAPIMaxBodyBytes, err)
	}
	if cfg.API.RateLimitRPS, err = cast.ToIntE(v.Get(keyAPIRateLimitRPS)); err != nil {
		return Config{}, fmt.Errorf("%s: %w", keyAPIRateLimitRPS, err)
	}
	if cfg.API.TrustProxyHeaders, err = cast.ToBoolE(v.Get(keyAPITrustProxy)); err != nil {
		return Config{}, fmt.Errorf("%s: %w", keyAPITrustProxy, err)
	}
	cfg.DB.Backend = cast.ToString(v.Get(keyDBBackend))
	cfg.Log.Level = cast.ToString(v.Get(keyLogLevel))
	cfg.Oracle.PublicKey = cast.ToString(v.Get(keyOraclePublicKey))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// toStringSlice accepts both TOML arrays and comma separated env values.
func toStringSlice(value interface{}) []string {
	if s, ok := value.(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return cast.ToStringSlice(value)
}

const configTemplate = `# oracled configuration

[api]
# Address the HTTP API listens on.
address = "{{ .API.Address }}"

# HMAC secret for admin bearer tokens. Leave empty to disable the admin
# endpoints; override with ORACLED_API_JWT_SECRET.
jwt-secret = "{{ .API.JWTSecret }}"

cors-origins = [{{ range $i, $o := .API.CORSOrigins }}{{ if $i }}, {{ end }}"{{ $o }}"{{ end }}]
max-body-bytes = {{ .API.MaxBodyBytes }}
rate-limit-rps = {{ .API.RateLimitRPS }}
trust-proxy-headers = {{ .API.TrustProxyHeaders }}

[db]
# goleveldb or memdb
backend = "{{ .DB.Backend }}"

[log]
level = "{{ .Log.Level }}"

[oracle]
# Authorized signer key (hex, compressed G1) used by verify and init.
public-key = "{{ .Oracle.PublicKey }}"
`

var configTmpl = template.Must(template.New("oracled").Parse(configTemplate))

// WriteConfigFile renders cfg to path.
func WriteConfigFile(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := configTmpl.Execute(&buf, cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
