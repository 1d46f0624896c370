package config

type DatabaseConfig struct {
	File string `yaml:"file"`
}
