package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port         string         `mapstructure:"port"`
	PostgreSQL   DatabaseConfig `mapstructure:"pg"`
	Redis        RedisConfig    `mapstructure:"redis"`
	Kafka        KafkaConfig    `mapstructure:"kafka"`
	Conversation ConvoConfig    `mapstructure:"conversation"`
}

// ConvoConfig tunables of the realtime conversation core
type ConvoConfig struct {
	// TypingTTL expiry window of a typing signal without refresh
	TypingTTL time.Duration `mapstructure:"typing_ttl"`
	// IdleTimeout a connection with no frames or pongs beyond this window is dropped
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// OutboxSize bounded per-connection outbound buffer
	OutboxSize int `mapstructure:"outbox_size"`
	// MaxContentLength upper bound of message content in runes
	MaxContentLength int `mapstructure:"max_content_length"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	RedisDB int    `mapstructure:"redis_db"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryCount    int      `mapstructure:"retry_count"`
	RetryInterval int      `mapstructure:"retry_interval"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}
