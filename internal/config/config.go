package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string         `json:"env" env:"ENV" env-default:"local"`
	StoragePath string         `json:"storage_path" env:"STORAGE_PATH" env-default:"storage/artemis.db"`
	GRPC        GRPCConfig     `json:"grpc"`
	HTTP        HTTPConfig     `json:"http"`
	Metrics     MetricsConfig  `json:"metrics"`
	Redis       RedisConfig    `json:"redis"`
	Kafka       KafkaConfig    `json:"kafka"`
	Token       TokenConfig    `json:"token"`
	Hasher      HasherConfig   `json:"hasher"`
	Policies    []PolicyConfig `json:"policies"`
}

type GRPCConfig struct {
	Port    int           `json:"port" env-default:"44044"`
	Timeout time.Duration `json:"timeout" env-default:"10"`
}

type HTTPConfig struct {
	Port    int           `json:"port" env-default:"8080"`
	Timeout time.Duration `json:"timeout" env-default:"10"`
}

type MetricsConfig struct {
	Port int `json:"port" env-default:"9090"`
}

type RedisConfig struct {
	Addr     string `json:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env-default:"0"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" env-default:"false"`
	Brokers []string `json:"brokers"`
}

// TokenConfig fixes the request header contract and the cache key scheme.
// The prefixes must stay bit-exact across services sharing the cache.
type TokenConfig struct {
	HeaderKey      string `json:"header_key" env-default:"Token"`
	Scheme         string `json:"scheme" env-default:"Artemis"`
	CachePrefix    string `json:"cache_prefix" env-default:"artemis:token"`
	UserMapPrefix  string `json:"user_map_prefix" env-default:"artemis:umap"`
	ExpireSeconds  int64  `json:"expire_seconds" env-default:"86400"`
	EnableMultiEnd bool   `json:"enable_multi_end" env-default:"false"`
}

type HasherConfig struct {
	Iterations int `json:"iterations" env-default:"100000"`
}

// PolicyConfig registers one extension policy at startup. Exactly one of
// Roles or Claims must be set; the policy binds a single requirement.
type PolicyConfig struct {
	Name   string        `json:"name"`
	Roles  []string      `json:"roles"`
	Claims []ClaimConfig `json:"claims"`
}

type ClaimConfig struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadByPath(path)
}

func MustLoadByPath(path string) *Config {
	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	cfg.GRPC.Timeout = time.Second * cfg.GRPC.Timeout
	cfg.HTTP.Timeout = time.Second * cfg.HTTP.Timeout

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.json"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
