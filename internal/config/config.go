package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvProduction = "production"

const (
	MailProviderSMTP   = "smtp"
	MailProviderBrevo  = "brevo"
	MailProviderOutbox = "outbox"
)

type AppCfg struct {
	Env          string        `yaml:"env"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	PublicURL    string        `yaml:"public_url"`
}

type JWTCfg struct {
	Secret    string        `yaml:"secret"`
	ExpiresIn time.Duration `yaml:"expires_in"`
}

type MongoCfg struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type UserCfg struct {
	Collection string `yaml:"collection"`
}

type SecurityCfg struct {
	OtpTTL                time.Duration `yaml:"otp_ttl"`
	PasswordHashCost      int           `yaml:"password_hash_cost"`
	TeacherPasswordPrefix string        `yaml:"teacher_password_prefix"`
}

type SMTPCfg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Secure   bool   `yaml:"secure"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type BrevoCfg struct {
	APIKey string `yaml:"api_key"`
}

type BreakerCfg struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

type MailCfg struct {
	Provider string        `yaml:"provider"`
	From     string        `yaml:"from"`
	FromName string        `yaml:"from_name"`
	Timeout  time.Duration `yaml:"timeout"`
	SMTP     SMTPCfg       `yaml:"smtp"`
	Brevo    BrevoCfg      `yaml:"brevo"`
	Breaker  BreakerCfg    `yaml:"breaker"`
}

type KafkaCfg struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Config struct {
	App      AppCfg      `yaml:"app"`
	JWT      JWTCfg      `yaml:"jwt"`
	Mongo    MongoCfg    `yaml:"mongo"`
	User     UserCfg     `yaml:"user"`
	Security SecurityCfg `yaml:"security"`
	Mail     MailCfg     `yaml:"mail"`
	Kafka    KafkaCfg    `yaml:"kafka"`

	// ExposeDebugSecrets gates the otp and previewUrl response fields.
	ExposeDebugSecrets bool `yaml:"-"`
}

func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Env = "development"
	cfg.App.Port = 8081
	cfg.App.ReadTimeout = 15 * time.Second
	cfg.App.WriteTimeout = 15 * time.Second
	cfg.App.IdleTimeout = 60 * time.Second
	cfg.JWT.ExpiresIn = 30 * 24 * time.Hour
	cfg.Mongo.Database = "edu_auth"
	cfg.Mongo.Timeout = 10 * time.Second
	cfg.User.Collection = "users"
	cfg.Security.OtpTTL = 15 * time.Minute
	cfg.Security.PasswordHashCost = 10
	cfg.Security.TeacherPasswordPrefix = "PDPU"
	cfg.Mail.Provider = MailProviderOutbox
	cfg.Mail.From = "no-reply@example.com"
	cfg.Mail.FromName = "Edu Platform"
	cfg.Mail.Timeout = 10 * time.Second
	cfg.Mail.SMTP.Port = 587
	cfg.Mail.Breaker.MaxFailures = 5
	cfg.Mail.Breaker.OpenTimeout = 30 * time.Second
	cfg.Kafka.Topic = "auth.account-events"
	return cfg
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. A missing file is fine; everything can come from env.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	override := func(env string, apply func(string)) {
		if v := os.Getenv(env); v != "" {
			apply(v)
		}
	}
	atoi := func(env string, dst *int) {
		override(env, func(v string) {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", env, err))
				return
			}
			*dst = n
		})
	}
	duration := func(env string, dst *time.Duration) {
		override(env, func(v string) {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", env, err))
				return
			}
			*dst = d
		})
	}

	override("APP_ENV", func(v string) { cfg.App.Env = v })
	atoi("APP_PORT", &cfg.App.Port)
	override("APP_PUBLIC_URL", func(v string) { cfg.App.PublicURL = v })
	override("JWT_SECRET", func(v string) { cfg.JWT.Secret = v })
	duration("JWT_EXPIRE", &cfg.JWT.ExpiresIn)
	override("MONGO_URI", func(v string) { cfg.Mongo.URI = v })
	override("MONGO_DB", func(v string) { cfg.Mongo.Database = v })
	duration("OTP_TTL", &cfg.Security.OtpTTL)
	atoi("PASSWORD_HASH_COST", &cfg.Security.PasswordHashCost)
	override("TEACHER_PASSWORD_PREFIX", func(v string) { cfg.Security.TeacherPasswordPrefix = v })
	override("MAIL_PROVIDER", func(v string) { cfg.Mail.Provider = strings.ToLower(v) })
	override("MAIL_FROM", func(v string) { cfg.Mail.From = v })
	override("SMTP_HOST", func(v string) { cfg.Mail.SMTP.Host = v })
	atoi("SMTP_PORT", &cfg.Mail.SMTP.Port)
	override("SMTP_SECURE", func(v string) { cfg.Mail.SMTP.Secure = v == "true" })
	override("SMTP_USER", func(v string) { cfg.Mail.SMTP.Username = v })
	override("SMTP_PASS", func(v string) { cfg.Mail.SMTP.Password = v })
	override("BREVO_API_KEY", func(v string) { cfg.Mail.Brevo.APIKey = v })
	override("KAFKA_BROKERS", func(v string) { cfg.Kafka.Brokers = splitList(v) })
	override("KAFKA_TOPIC", func(v string) { cfg.Kafka.Topic = v })

	return errors.Join(errs...)
}

func (c *Config) finalize() error {
	if c.App.PublicURL == "" {
		c.App.PublicURL = fmt.Sprintf("http://localhost:%d", c.App.Port)
	}
	c.App.PublicURL = strings.TrimRight(c.App.PublicURL, "/")
	c.ExposeDebugSecrets = !c.IsProduction()

	if c.Mail.Provider == MailProviderSMTP &&
		(c.Mail.SMTP.Host == "" || c.Mail.SMTP.Username == "" || c.Mail.SMTP.Password == "") {
		c.Mail.Provider = MailProviderOutbox
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required (set in .env or config.yaml)")
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("jwt.expires_in must be positive")
	}
	if c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.Security.OtpTTL <= 0 {
		return errors.New("security.otp_ttl must be positive")
	}

	switch c.Mail.Provider {
	case MailProviderSMTP, MailProviderOutbox:
	case MailProviderBrevo:
		if c.Mail.Brevo.APIKey == "" {
			return errors.New("mail provider brevo requires BREVO_API_KEY")
		}
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}
	if c.IsProduction() && c.Mail.Provider == MailProviderOutbox {
		return errors.New("outbox mail provider is not allowed in production")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when brokers are set")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
