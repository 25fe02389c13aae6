package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"Aerostat/internal/calc/lift"
	"Aerostat/internal/calc/pipeline"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr         string
	DatabaseURL  string // empty means in-memory storage
	TokenKey     string
	Env          string
	TLSCert      string
	TLSKey       string
	RateLimit    float64
	RateBurst    int
	HistoryLimit int

	Engine Engine
}

// Engine is the YAML-configurable part.
type Engine struct {
	pipeline.Settings `yaml:",inline"`
	Gas               string `yaml:"gas"`
}

func DefaultEngine() Engine {
	return Engine{Settings: pipeline.DefaultSettings(), Gas: lift.Helium.Name}
}

func (e Engine) Validate() error {
	if err := e.Settings.Validate(); err != nil {
		return err
	}
	_, err := lift.GasByName(e.Gas)
	return err
}

// Load reads .env (if any), the environment and the optional engine file
// named by ENGINE_CONFIG.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Addr:         getenv("ADDR", ":8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		TokenKey:     os.Getenv("TOKEN_KEY"),
		Env:          getenv("APP_ENV", "development"),
		TLSCert:      os.Getenv("TLS_CERT"),
		TLSKey:       os.Getenv("TLS_KEY"),
		RateLimit:    1,
		RateBurst:    3,
		HistoryLimit: 50,
	}
	if cfg.TokenKey == "" {
		return Config{}, fmt.Errorf("TOKEN_KEY environment variable is not set")
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return Config{}, fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}

	var err error
	if cfg.RateLimit, err = getfloat("RATE_LIMIT", cfg.RateLimit); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = getint("RATE_BURST", cfg.RateBurst); err != nil {
		return Config{}, err
	}
	if cfg.HistoryLimit, err = getint("HISTORY_LIMIT", cfg.HistoryLimit); err != nil {
		return Config{}, err
	}

	cfg.Engine, err = LoadEngine(os.Getenv("ENGINE_CONFIG"))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEngine overlays the YAML file at path on the defaults. An empty path
// yields the defaults.
func LoadEngine(path string) (Engine, error) {
	e := DefaultEngine()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Engine{}, fmt.Errorf("read engine config: %w", err)
		}
		if err := yaml.Unmarshal(data, &e); err != nil {
			return Engine{}, fmt.Errorf("parse engine config %s: %w", path, err)
		}
	}
	if err := e.Validate(); err != nil {
		return Engine{}, fmt.Errorf("engine config: %w", err)
	}
	return e, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func getfloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s must be a positive number", key)
	}
	return f, nil
}
