package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() {
	config := defaultConfig
	_loaded = &config

	configFile := os.Getenv("USERSVC_CONFIG_FILE")
	if configFile == "" {
		configFile = "usersvc.yaml"
	}

	log.Printf("Attempting to load config file: %s", configFile)

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Successfully loaded config from file: %s", configFile)
	}

	// Environment variables win over the file
	ApplyEnvOverrides()

	log.Printf("Final config - use_dynamo: %t, http port: %d",
		_loaded.Common.Storage.UseDynamo,
		_loaded.Common.Http.Port)
}

func LoadDefault() {
	config := defaultConfig
	_loaded = &config
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := defaultConfig

	// Merge YAML values over defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = &cfg
	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: storageConfig{
			UseDynamo: false,
		},
		Postgres: postgresConfig{
			User:               "postgres",
			Password:           "postgres",
			Host:               "localhost",
			Port:               5432,
			Database:           "users",
			MaxOpenConnections: 10,
		},
		Dynamo: dynamoConfig{
			Region: "us-east-1",
			Table:  "users",
		},
		Orders: ordersConfig{
			BaseURL:        "http://localhost:8081",
			TimeoutSeconds: 3,
		},
	},
}

type Common struct {
	Log      logConfig      `yaml:"log"`
	Http     httpConfig     `yaml:"http"`
	Storage  storageConfig  `yaml:"storage"`
	Postgres postgresConfig `yaml:"postgres"`
	Dynamo   dynamoConfig   `yaml:"dynamo"`
	Orders   ordersConfig   `yaml:"orders"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type httpConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (c httpConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type storageConfig struct {
	UseDynamo bool `yaml:"use_dynamo"` // false selects PostgreSQL
}

type postgresConfig struct {
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Database           string `yaml:"database"`
	MaxOpenConnections int    `yaml:"max_open_connections"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

type dynamoConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"` // optional, e.g. DynamoDB Local
	Table           string `yaml:"table"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type ordersConfig struct {
	BaseURL        string `yaml:"base_url"` // empty disables the lookup
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c ordersConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Storage() storageConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Storage
}

func Postgres() postgresConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Postgres
}

func Dynamo() dynamoConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Dynamo
}

func Orders() ordersConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Orders
}

func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

func ApplyEnvOverrides() {
	if _loaded == nil {
		return
	}

	if level := os.Getenv("USERSVC_LOG_LEVEL"); level != "" {
		_loaded.Common.Log.Level = level
	}
	if format := os.Getenv("USERSVC_LOG_FORMAT"); format != "" {
		_loaded.Common.Log.Format = format
	}

	if httpHost := os.Getenv("USERSVC_HTTP_HOST"); httpHost != "" {
		_loaded.Common.Http.Host = httpHost
	}
	if httpPort := os.Getenv("USERSVC_HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			_loaded.Common.Http.Port = port
		}
	}

	if useDynamo := os.Getenv("USERSVC_USE_DYNAMO"); useDynamo != "" {
		if enabled, err := strconv.ParseBool(useDynamo); err == nil {
			_loaded.Common.Storage.UseDynamo = enabled
		}
	}

	if dbHost := os.Getenv("USERSVC_DB_HOST"); dbHost != "" {
		_loaded.Common.Postgres.Host = dbHost
	}
	if dbPort := os.Getenv("USERSVC_DB_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			_loaded.Common.Postgres.Port = port
		}
	}
	if dbUser := os.Getenv("USERSVC_DB_USER"); dbUser != "" {
		_loaded.Common.Postgres.User = dbUser
	}
	if dbPassword := os.Getenv("USERSVC_DB_PASSWORD"); dbPassword != "" {
		_loaded.Common.Postgres.Password = dbPassword
	}
	if dbName := os.Getenv("USERSVC_DB_NAME"); dbName != "" {
		_loaded.Common.Postgres.Database = dbName
	}

	if region := os.Getenv("USERSVC_DYNAMO_REGION"); region != "" {
		_loaded.Common.Dynamo.Region = region
	}
	if endpoint := os.Getenv("USERSVC_DYNAMO_ENDPOINT"); endpoint != "" {
		_loaded.Common.Dynamo.Endpoint = endpoint
	}
	if table := os.Getenv("USERSVC_DYNAMO_TABLE"); table != "" {
		_loaded.Common.Dynamo.Table = table
	}
	if accessKey := os.Getenv("USERSVC_DYNAMO_ACCESS_KEY_ID"); accessKey != "" {
		_loaded.Common.Dynamo.AccessKeyID = accessKey
	}
	if secretKey := os.Getenv("USERSVC_DYNAMO_SECRET_ACCESS_KEY"); secretKey != "" {
		_loaded.Common.Dynamo.SecretAccessKey = secretKey
	}

	if ordersURL, ok := os.LookupEnv("USERSVC_ORDERS_URL"); ok {
		_loaded.Common.Orders.BaseURL = ordersURL
	}
	if timeout := os.Getenv("USERSVC_ORDERS_TIMEOUT"); timeout != "" {
		if seconds, err := strconv.Atoi(timeout); err == nil {
			_loaded.Common.Orders.TimeoutSeconds = seconds
		}
	}
}
