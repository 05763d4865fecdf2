package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string        `env:"SERVER_PORT,default=8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT,default=10s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT,default=10s"`
	CORSOrigin   string        `env:"CORS_ORIGIN,default=*"`

	// StoreBackend is "mongo" or "memory".
	StoreBackend string `env:"STORE_BACKEND,default=mongo"`
	MongoURI     string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDBName  string `env:"MONGO_DB_NAME,default=easypm"`

	// CassandraHosts is a comma separated host list; notifications stay in memory when empty.
	CassandraHosts    string `env:"CASSANDRA_HOSTS"`
	CassandraKeyspace string `env:"CASSANDRA_KEYSPACE,default=easypm"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=24h"`

	LogFile  string `env:"LOG_FILE,default=logs/easypm.log"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM,default=no-reply@easypm.local"`

	FrontendURL           string `env:"FRONTEND_URL,default=http://localhost:4200"`
	PasswordBlacklistFile string `env:"PASSWORD_BLACKLIST_FILE"`

	AdminName     string `env:"ADMIN_NAME,default=Administrator"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads envFile into the process environment when it exists and decodes the
// environment into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	switch c.StoreBackend {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (c *Config) CassandraHostList() []string {
	var hosts []string
	for _, h := range strings.Split(c.CassandraHosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.ServerPort, ":")
}
