package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/credgate/internal/security/secretbox"
)

// EnvPrefix antecede a todas las variables de entorno que pisan el YAML.
const EnvPrefix = "CREDGATE_"

// SecretboxKeyEnv guarda la clave maestra para los valores "enc:...".
const SecretboxKeyEnv = EnvPrefix + "SECRETBOX_KEY"

type RateRule struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
		// BaseURL es la URL pública de la API (links de verificación).
		BaseURL string `yaml:"base_url"`
		// FrontendURL recibe el link de reset (?token=...).
		FrontendURL string `yaml:"frontend_url"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		// TrustProxy habilita X-Forwarded-For para la IP del cliente.
		TrustProxy  bool     `yaml:"trust_proxy"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver      string `yaml:"driver"`
		DSN         string `yaml:"dsn"`
		// AutoMigrate aplica migrations/postgres al arrancar.
		AutoMigrate bool   `yaml:"auto_migrate"`
		Postgres    struct {
			MaxOpenConns    int           `yaml:"max_open_conns"`
			MinConns        int           `yaml:"min_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	JWT struct {
		Issuer        string        `yaml:"issuer"`
		Audience      string        `yaml:"audience"`
		AccessSecret  string        `yaml:"access_secret"`
		RefreshSecret string        `yaml:"refresh_secret"`
		AccessTTL     time.Duration `yaml:"access_ttl"`
		RefreshTTL    time.Duration `yaml:"refresh_ttl"`
		Leeway        time.Duration `yaml:"leeway"`
	} `yaml:"jwt"`

	Auth struct {
		VerifyTTL time.Duration `yaml:"verify_ttl"`
		ResetTTL  time.Duration `yaml:"reset_ttl"`
		Cookie    struct {
			Name   string `yaml:"name"`
			Domain string `yaml:"domain"`
			Path   string `yaml:"path"`
		} `yaml:"cookie"`
		Password struct {
			MinLength     int    `yaml:"min_length"`
			RequireUpper  bool   `yaml:"require_upper"`
			RequireDigit  bool   `yaml:"require_digit"`
			RequireSymbol bool   `yaml:"require_symbol"`
			BlacklistPath string `yaml:"blacklist_path"`
			Argon2        struct {
				MemoryKiB   uint32 `yaml:"memory_kib"`
				Iterations  uint32 `yaml:"iterations"`
				Parallelism uint8  `yaml:"parallelism"`
				KeyLen      uint32 `yaml:"key_len"`
			} `yaml:"argon2"`
		} `yaml:"password"`
	} `yaml:"auth"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// memory | redis
		Backend string `yaml:"backend"`
		MaxKeys int    `yaml:"max_keys"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		// Auth protege register/login/resend/forgot/reset.
		Auth RateRule `yaml:"auth"`
		// General aplica a todas las rutas.
		General RateRule `yaml:"general"`
	} `yaml:"rate"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		From     string `yaml:"from"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		// auto | starttls | ssl | none
		TLSMode            string `yaml:"tls_mode"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Email struct {
		// TemplatesDir pisa los templates embebidos si no está vacío.
		TemplatesDir string        `yaml:"templates_dir"`
		SendTimeout  time.Duration `yaml:"send_timeout"`
		Workers      int           `yaml:"workers"`
	} `yaml:"email"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default devuelve la configuración con todos los defaults aplicados.
func Default() *Config {
	var c Config
	c.applyDefaults()
	c.Rate.Enabled = true
	return &c
}

// Load lee el YAML (si path no está vacío), aplica defaults, pisa con
// variables de entorno y valida.
func Load(path string) (*Config, error) {
	c := &Config{}
	c.Rate.Enabled = true
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyDefaults()
	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := c.revealSecrets(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.BaseURL == "" {
		c.App.BaseURL = "http://localhost:8080"
	}
	if c.App.FrontendURL == "" {
		c.App.FrontendURL = "http://localhost:3000"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxOpenConns == 0 {
		c.Storage.Postgres.MaxOpenConns = 10
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "credgate"
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = "credgate-clients"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 7 * 24 * time.Hour
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.Auth.VerifyTTL == 0 {
		c.Auth.VerifyTTL = 24 * time.Hour
	}
	if c.Auth.ResetTTL == 0 {
		c.Auth.ResetTTL = 10 * time.Minute
	}
	if c.Auth.Cookie.Name == "" {
		c.Auth.Cookie.Name = "refresh_token"
	}
	if c.Auth.Cookie.Path == "" {
		c.Auth.Cookie.Path = "/"
	}
	if c.Auth.Password.MinLength == 0 {
		c.Auth.Password.MinLength = 8
	}
	a := &c.Auth.Password.Argon2
	if a.MemoryKiB == 0 {
		a.MemoryKiB = 64 * 1024
	}
	if a.Iterations == 0 {
		a.Iterations = 3
	}
	if a.Parallelism == 0 {
		a.Parallelism = 1
	}
	if a.KeyLen == 0 {
		a.KeyLen = 32
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.MaxKeys == 0 {
		c.Rate.MaxKeys = 100_000
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "credgate:rl:"
	}
	if c.Rate.Auth.Limit == 0 {
		c.Rate.Auth.Limit = 5
	}
	if c.Rate.Auth.Window == 0 {
		c.Rate.Auth.Window = 15 * time.Minute
	}
	if c.Rate.General.Limit == 0 {
		c.Rate.General.Limit = 100
	}
	if c.Rate.General.Window == 0 {
		c.Rate.General.Window = 15 * time.Minute
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}
	if c.Email.SendTimeout == 0 {
		c.Email.SendTimeout = 10 * time.Second
	}
	if c.Email.Workers == 0 {
		c.Email.Workers = 4
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// IsProd reporta si corremos en producción (cookies Secure, logs JSON).
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(EnvPrefix + key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool, error) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	return i, true, nil
}

func getEnvBool(key string) (bool, bool, error) {
	s, ok := getEnvStr(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, false, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	return b, true, nil
}

func getEnvDur(key string) (time.Duration, bool, error) {
	s, ok := getEnvStr(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, false, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	return d, true, nil
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides pisa el YAML con variables CREDGATE_*.
func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"APP_ENV":             &c.App.Env,
		"APP_BASE_URL":        &c.App.BaseURL,
		"APP_FRONTEND_URL":    &c.App.FrontendURL,
		"SERVER_ADDR":         &c.Server.Addr,
		"STORAGE_DRIVER":      &c.Storage.Driver,
		"STORAGE_DSN":         &c.Storage.DSN,
		"JWT_ISSUER":          &c.JWT.Issuer,
		"JWT_AUDIENCE":        &c.JWT.Audience,
		"JWT_ACCESS_SECRET":   &c.JWT.AccessSecret,
		"JWT_REFRESH_SECRET":  &c.JWT.RefreshSecret,
		"AUTH_COOKIE_DOMAIN":  &c.Auth.Cookie.Domain,
		"AUTH_BLACKLIST_PATH": &c.Auth.Password.BlacklistPath,
		"RATE_BACKEND":        &c.Rate.Backend,
		"RATE_REDIS_ADDR":     &c.Rate.Redis.Addr,
		"RATE_REDIS_PASSWORD": &c.Rate.Redis.Password,
		"RATE_REDIS_PREFIX":   &c.Rate.Redis.Prefix,
		"SMTP_HOST":           &c.SMTP.Host,
		"SMTP_FROM":           &c.SMTP.From,
		"SMTP_USERNAME":       &c.SMTP.Username,
		"SMTP_PASSWORD":       &c.SMTP.Password,
		"SMTP_TLS_MODE":       &c.SMTP.TLSMode,
		"EMAIL_TEMPLATES_DIR": &c.Email.TemplatesDir,
		"LOG_LEVEL":           &c.Log.Level,
	}
	for k, dst := range strs {
		if v, ok := getEnvStr(k); ok {
			*dst = v
		}
	}
	c.App.Env = strings.ToLower(c.App.Env)

	ints := map[string]*int{
		"RATE_REDIS_DB":      &c.Rate.Redis.DB,
		"RATE_MAX_KEYS":      &c.Rate.MaxKeys,
		"RATE_AUTH_LIMIT":    &c.Rate.Auth.Limit,
		"RATE_GENERAL_LIMIT": &c.Rate.General.Limit,
		"SMTP_PORT":          &c.SMTP.Port,
		"AUTH_PASSWORD_MIN":  &c.Auth.Password.MinLength,
		"EMAIL_WORKERS":      &c.Email.Workers,
		"STORAGE_MAX_CONNS":  &c.Storage.Postgres.MaxOpenConns,
	}
	for k, dst := range ints {
		v, ok, err := getEnvInt(k)
		if err != nil {
			return err
		}
		if ok {
			*dst = v
		}
	}

	durs := map[string]*time.Duration{
		"JWT_ACCESS_TTL":          &c.JWT.AccessTTL,
		"JWT_REFRESH_TTL":         &c.JWT.RefreshTTL,
		"AUTH_VERIFY_TTL":         &c.Auth.VerifyTTL,
		"AUTH_RESET_TTL":          &c.Auth.ResetTTL,
		"RATE_AUTH_WINDOW":        &c.Rate.Auth.Window,
		"RATE_GENERAL_WINDOW":     &c.Rate.General.Window,
		"EMAIL_SEND_TIMEOUT":      &c.Email.SendTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": &c.Server.ShutdownTimeout,
	}
	for k, dst := range durs {
		v, ok, err := getEnvDur(k)
		if err != nil {
			return err
		}
		if ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"RATE_ENABLED":         &c.Rate.Enabled,
		"SERVER_TRUST_PROXY":   &c.Server.TrustProxy,
		"STORAGE_AUTO_MIGRATE": &c.Storage.AutoMigrate,
	}
	for k, dst := range bools {
		v, ok, err := getEnvBool(k)
		if err != nil {
			return err
		}
		if ok {
			*dst = v
		}
	}

	if v, ok := getEnvCSV("SERVER_CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = v
	}
	return nil
}

// revealSecrets descifra los campos sensibles escritos como "enc:...".
func (c *Config) revealSecrets() error {
	var box *secretbox.Box
	if k, ok := getEnvStr("SECRETBOX_KEY"); ok {
		b, err := secretbox.New(k)
		if err != nil {
			return fmt.Errorf("config: %s: %w", SecretboxKeyEnv, err)
		}
		box = b
	}
	fields := map[string]*string{
		"storage.dsn":         &c.Storage.DSN,
		"jwt.access_secret":   &c.JWT.AccessSecret,
		"jwt.refresh_secret":  &c.JWT.RefreshSecret,
		"rate.redis.password": &c.Rate.Redis.Password,
		"smtp.password":       &c.SMTP.Password,
	}
	for name, v := range fields {
		if err := secretbox.Reveal(box, v); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// Validate rechaza configuraciones con las que el servicio no debe arrancar.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported (memory|postgres)", c.Storage.Driver))
	}

	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, errors.New("jwt.access_secret must be at least 32 bytes"))
	}
	if len(c.JWT.RefreshSecret) < 32 {
		errs = append(errs, errors.New("jwt.refresh_secret must be at least 32 bytes"))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("jwt.access_secret and jwt.refresh_secret must differ"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt ttls must be positive"))
	}
	if c.Auth.VerifyTTL <= 0 || c.Auth.ResetTTL <= 0 {
		errs = append(errs, errors.New("auth token ttls must be positive"))
	}
	if c.Auth.Password.MinLength < 8 {
		errs = append(errs, errors.New("auth.password.min_length must be at least 8"))
	}

	switch c.Rate.Backend {
	case "memory":
	case "redis":
		if c.Rate.Redis.Addr == "" {
			errs = append(errs, errors.New("rate.redis.addr is required for backend redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("rate.backend %q not supported (memory|redis)", c.Rate.Backend))
	}
	for name, r := range map[string]RateRule{"auth": c.Rate.Auth, "general": c.Rate.General} {
		if r.Limit <= 0 || r.Window <= 0 {
			errs = append(errs, fmt.Errorf("rate.%s limit and window must be positive", name))
		}
	}

	switch c.SMTP.TLSMode {
	case "auto", "starttls", "ssl", "none":
	default:
		errs = append(errs, fmt.Errorf("smtp.tls_mode %q not supported", c.SMTP.TLSMode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
