package store

import (
	"fmt"

	"github.com/rahul/finmate/pkg/config"
)

// Open builds the checkpointer selected by the memory config section.
func Open(cfg config.MemoryConfig) (Checkpointer, error) {
	switch cfg.Type {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "finmate.db"
		}
		return NewHistoryStore(path)
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("memory.redis_addr is required for the redis store")
		}
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown memory type %q", cfg.Type)
	}
}
