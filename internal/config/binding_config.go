package config

import "time"

type BindingConfig struct {
	TTLHours  uint32 `yaml:"ttl-hours"`
	CacheSize int    `yaml:"cache-size"`
}

func (b *BindingConfig) TTL() time.Duration {
	if b.TTLHours == 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.TTLHours) * time.Hour
}

func (b *BindingConfig) Size() int {
	if b.CacheSize == 0 {
		return 8
	}
	return b.CacheSize
}
