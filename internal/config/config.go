package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Config struct {
	Listen  string  `yaml:"listen"`
	Admin   Admin   `yaml:"admin"`
	Logger  Logger  `yaml:"logger"`
	Storage Storage `yaml:"storage"`
	Auth    Auth    `yaml:"auth"`
	CORS    CORS    `yaml:"cors"`
}

type Logger struct {
	Level string `yaml:"level"`
}

type Storage struct {
	Database string `yaml:"database"`
}

type Auth struct {
	JWT       JWT       `yaml:"jwt"`
	Bootstrap Bootstrap `yaml:"bootstrap"`
}

type JWT struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

// Bootstrap seeds an initial API user on first start so game servers can log
// in before any other user exists.
type Bootstrap struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Admin struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
