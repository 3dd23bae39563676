// 包 config：集中读取环境变量，启动时构建一次，避免各模块散落 os.Getenv
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config：服务运行参数
type Config struct {
	Addr    string
	APIBase string

	// Datastore 为 "postgres" 或 "memory"
	Datastore string

	PGHost         string
	PGPort         string
	PGUser         string
	PGPassword     string
	PGDB           string
	PGSSLMode      string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisEnabled bool
	RedisHost    string
	RedisPort    string
	RedisPass    string
	RedisDB      int

	AdminToken string
	APIBaseURL string

	MailgunAPIBaseURL    string
	MailgunAPIKey        string
	MailgunFromAddress   string
	MailgunReplyTo       string
	MailgunHMACKey       string
	MailgunConfirmSecret string

	GeoIPDBPath string

	RateLimitEnabled bool
	RateLimitQPS     int

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string
}

// LoadDotEnv：加载 .env 与 data/env/.env，文件缺失时静默跳过
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// FromEnv：读取环境变量并填充默认值
func FromEnv() *Config {
	c := &Config{
		Addr:                 getenv("ADDR", ":8080"),
		APIBase:              strings.TrimSuffix(getenv("API_BASE", "/api/0.1"), "/"),
		Datastore:            strings.ToLower(getenv("DATASTORE", "postgres")),
		PGHost:               getenv("PG_HOST", "localhost"),
		PGPort:               getenv("PG_PORT", "5432"),
		PGUser:               getenv("PG_USER", "postgres"),
		PGPassword:           os.Getenv("PG_PASSWORD"),
		PGDB:                 getenv("PG_DB", "demsausage"),
		PGSSLMode:            getenv("PG_SSLMODE", "disable"),
		PGMaxOpenConns:       getint("PG_MAX_OPEN_CONNS", 50),
		PGMaxIdleConns:       getint("PG_MAX_IDLE_CONNS", 25),
		RedisEnabled:         os.Getenv("REDIS_ENABLED") == "true",
		RedisHost:            getenv("REDIS_HOST", "127.0.0.1"),
		RedisPort:            getenv("REDIS_PORT", "6379"),
		RedisPass:            os.Getenv("REDIS_PASS"),
		AdminToken:           os.Getenv("ADMIN_TOKEN"),
		APIBaseURL:           strings.TrimSuffix(os.Getenv("API_BASE_URL"), "/"),
		MailgunAPIBaseURL:    strings.TrimSuffix(os.Getenv("MAILGUN_API_BASE_URL"), "/"),
		MailgunAPIKey:        os.Getenv("MAILGUN_API_KEY"),
		MailgunFromAddress:   os.Getenv("MAILGUN_FROM_ADDRESS"),
		MailgunReplyTo:       os.Getenv("MAILGUN_REPLY_TO_ADDRESS"),
		MailgunHMACKey:       os.Getenv("MAILGUN_HMAC_KEY"),
		MailgunConfirmSecret: os.Getenv("MAILGUN_CONFIRM_SECRET"),
		GeoIPDBPath:          os.Getenv("GEOIP_DB_PATH"),
		RateLimitEnabled:     os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:         getint("RATE_LIMIT_QPS", 200),
		TLSEnable:            os.Getenv("TLS_ENABLE") == "true",
		TLSCertPath:          getenv("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:           getenv("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
	}
	// REDIS_DB 解析失败时回退到 0
	if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil && n >= 0 {
		c.RedisDB = n
	}
	return c
}

// PostgresDSN：拼接 lib/pq 可识别的连接串
func (c *Config) PostgresDSN() string {
	dsn := "postgres://" + c.PGUser
	if c.PGPassword != "" {
		dsn += ":" + c.PGPassword
	}
	dsn += "@" + c.PGHost + ":" + c.PGPort + "/" + c.PGDB + "?sslmode=" + c.PGSSLMode
	return dsn
}

// RedisAddr：host:port
func (c *Config) RedisAddr() string { return c.RedisHost + ":" + c.RedisPort }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
