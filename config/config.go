package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Name         string        `mapstructure:"name"`
	Env          string        `mapstructure:"env"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	GuestCartTTL time.Duration `mapstructure:"guest_cart_ttl"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type SecurityConfig struct {
	BcryptCost int           `mapstructure:"bcrypt_cost"`
	OTPTTL     time.Duration `mapstructure:"otp_ttl"`
}

type EmailConfig struct {
	Provider       string `mapstructure:"provider"` // postmark, sendgrid or log
	PostmarkToken  string `mapstructure:"postmark_token"`
	SendgridAPIKey string `mapstructure:"sendgrid_api_key"`
	Sender         string `mapstructure:"sender"`
	SenderName     string `mapstructure:"sender_name"`
}

type GoogleConfig struct {
	ClientID string `mapstructure:"client_id"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Email    EmailConfig    `mapstructure:"email"`
	Google   GoogleConfig   `mapstructure:"google"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Storefront")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8000)
	v.SetDefault("app.read_timeout", 15*time.Second)
	v.SetDefault("app.write_timeout", 15*time.Second)
	v.SetDefault("app.cookie_secure", false)
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "ecommerce")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.guest_cart_ttl", 7*24*time.Hour)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 7*24*time.Hour)
	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("security.otp_ttl", 10*time.Minute)
	v.SetDefault("email.provider", "log")
	v.SetDefault("email.postmark_token", "")
	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.sender", "")
	v.SetDefault("email.sender_name", "Storefront")
	v.SetDefault("google.client_id", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "storefront.events")
}

// Load reads config.yaml from dir (if present) and overlays environment
// variables such as APP_PORT, MONGO_URI or JWT_SECRET.
func Load(dir string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required")
	}
	switch c.Email.Provider {
	case "log":
	case "postmark":
		if c.Email.PostmarkToken == "" {
			return errors.New("EMAIL_POSTMARK_TOKEN is required for the postmark provider")
		}
	case "sendgrid":
		if c.Email.SendgridAPIKey == "" {
			return errors.New("EMAIL_SENDGRID_API_KEY is required for the sendgrid provider")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}
	return nil
}
