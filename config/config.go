package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config 全局配置（启动时加载一次，之后只读）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Trace    TraceConfig    `mapstructure:"trace"`
	VnPay    VnPayConfig    `mapstructure:"vnpay"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release / test
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres / sqlite
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type JWTConfig struct {
	Issuer     string `mapstructure:"issuer"`
	Audience   string `mapstructure:"audience"`
	Key        string `mapstructure:"key"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TraceConfig struct {
	Endpoint string `mapstructure:"endpoint"` // OTLP/HTTP，留空则不上报
}

// VnPayConfig 网关侧不可变配置（注入到支付服务，不做全局可变状态）
type VnPayConfig struct {
	TmnCode            string `mapstructure:"tmn_code"`
	HashSecret         string `mapstructure:"hash_secret"`
	PaymentURL         string `mapstructure:"payment_url"`
	ReturnURL          string `mapstructure:"return_url"`
	FrontendSuccessURL string `mapstructure:"frontend_success_url"`
	FrontendFailURL    string `mapstructure:"frontend_fail_url"`
	Locale             string `mapstructure:"locale"`
	CurrCode           string `mapstructure:"curr_code"`
	Version            string `mapstructure:"version"`
	Command            string `mapstructure:"command"`
	TimeZone           string `mapstructure:"time_zone"`
}

// Load 读取 config.yaml 并允许环境变量覆盖（如 SALESAPI_VNPAY_HASH_SECRET）
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SALESAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "sales.db")
	v.SetDefault("redis.ttl_seconds", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "sales-api")
	v.SetDefault("jwt.audience", "sales-client")
	v.SetDefault("jwt.ttl_minutes", 120)
	v.SetDefault("vnpay.locale", "vn")
	v.SetDefault("vnpay.curr_code", "VND")
	v.SetDefault("vnpay.version", "2.1.0")
	v.SetDefault("vnpay.command", "pay")
	v.SetDefault("vnpay.time_zone", "Asia/Ho_Chi_Minh")

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件时允许纯环境变量启动
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
