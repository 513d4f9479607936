package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	WSOrigins  []string // origin patterns allowed on the websocket accept
}

// Load reads configuration from the environment, with an optional .env file
// for local development. Missing values fall back to defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{ListenAddr: ":8080"}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("WS_ORIGINS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.WSOrigins = append(cfg.WSOrigins, p)
			}
		}
	}
	return cfg
}
