package aot

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aot/internal/gen"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type AppConfig struct {
	GeneratedPackage     string
	OutputDirectory      string
	Runtime              string
	Classpath            []string
	SealEnvironment      bool
	PrecheckRequirements bool
	ReplaceLogbackXml    bool
	PreloadEnvironment   bool
	ScanReactiveTypes    bool
	TypesToCheck         []string
	ServiceTypes         []string
	ResourceFilter       []string
	Environments         []string
	LogbackFile          string
	RuntimeModuleDir     string
	NatsURL              string
	RedisConfig          struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
}

var listSeparator = regexp.MustCompile(`[:,]\s*`)

// LoadConfig reads the properties file envfile. Variables already present in
// the environment take precedence over the file.
func LoadConfig(envfile string) (AppConfig, error) {
	values, err := godotenv.Read(envfile)
	if err != nil {
		return AppConfig{}, fmt.Errorf("error loading %s file: %w", envfile, err)
	}
	e := properties(values)

	var cfg AppConfig
	if cfg.GeneratedPackage, err = e.mandatory("AOT_GENERATED_PACKAGE"); err != nil {
		return AppConfig{}, err
	}
	if cfg.OutputDirectory, err = e.mandatory("AOT_OUTPUT_DIRECTORY"); err != nil {
		return AppConfig{}, err
	}
	cfg.Runtime = e.get("AOT_RUNTIME", string(gen.JIT))
	cfg.Classpath = e.list("AOT_CLASSPATH")
	cfg.SealEnvironment = e.getBool("AOT_SEALED_ENVIRONMENT", true)
	cfg.PrecheckRequirements = e.getBool("AOT_PRECHECK_REQUIREMENTS", true)
	cfg.ReplaceLogbackXml = e.getBool("AOT_REPLACE_LOGBACK", true)
	cfg.PreloadEnvironment = e.getBool("AOT_PRELOAD_ENVIRONMENT", true)
	cfg.ScanReactiveTypes = e.getBool("AOT_SCAN_REACTIVE_TYPES", true)
	cfg.TypesToCheck = e.list("AOT_TYPES_TO_CHECK")
	cfg.ServiceTypes = e.list("AOT_SERVICE_TYPES")
	cfg.ResourceFilter = e.list("AOT_RESOURCE_FILTER")
	cfg.Environments = e.list("AOT_ENVIRONMENTS")
	cfg.LogbackFile = e.get("AOT_LOGBACK_FILE", gen.DefaultLogbackFile)
	cfg.RuntimeModuleDir = e.get("AOT_RUNTIME_MODULE_DIR", "")
	cfg.NatsURL = e.get("NATS_URL", "")
	cfg.RedisConfig.Host = e.get("REDIS_HOST", "")
	cfg.RedisConfig.Port = e.get("REDIS_PORT", "6379")
	cfg.RedisConfig.Password = e.get("REDIS_PASSWORD", "")
	cfg.RedisConfig.DB = e.getInt("REDIS_DB", 0)
	return cfg, nil
}

// Options converts the configuration into runner options
func (c AppConfig) Options() gen.Options {
	return gen.Options{
		GeneratedPackage:     c.GeneratedPackage,
		OutputDirectory:      c.OutputDirectory,
		Runtime:              gen.Runtime(c.Runtime),
		Classpath:            c.Classpath,
		SealEnvironment:      c.SealEnvironment,
		PreloadEnvironment:   c.PreloadEnvironment,
		ScanReactiveTypes:    c.ScanReactiveTypes,
		ReplaceLogbackXml:    c.ReplaceLogbackXml,
		PrecheckRequirements: c.PrecheckRequirements,
		TypesToCheck:         c.TypesToCheck,
		ServiceTypes:         c.ServiceTypes,
		ResourceFilter:       c.ResourceFilter,
		Environments:         c.Environments,
		LogbackFile:          c.LogbackFile,
		RuntimeModuleDir:     c.RuntimeModuleDir,
	}
}

type properties map[string]string

func (p properties) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return strings.TrimSpace(p[key])
}

func (p properties) mandatory(key string) (string, error) {
	v := p.lookup(key)
	if v == "" {
		return "", fmt.Errorf("Parameter '%s' should not be null or empty", key)
	}
	return v, nil
}

func (p properties) get(key, defaultValue string) string {
	if v := p.lookup(key); v != "" {
		return v
	}
	return defaultValue
}

func (p properties) getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(p.lookup(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func (p properties) getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(p.lookup(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func (p properties) list(key string) []string {
	var out []string
	for _, item := range listSeparator.Split(p.lookup(key), -1) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func InitLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("  %s  ", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}

	return zerolog.New(output).With().Timestamp().Caller().Logger()
}

// ConnectRedis opens the verification cache connection and pings it
func ConnectRedis(ctx context.Context, cfg AppConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisConfig.Host, cfg.RedisConfig.Port),
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
