package config

import (
	"time"

	"skilltracker/utils"
)

type DatabaseConfig struct {
	URI              string        `validate:"required"`
	DatabaseName     string        `validate:"required"`
	UsersCollection  string        `validate:"required"`
	NotesCollection  string        `validate:"required"`
	MaxPoolSize      uint64        `validate:"gtefield=MinPoolSize"`
	MinPoolSize      uint64        `validate:"gte=0"`
	MaxConnIdleTime  time.Duration `validate:"gte=0"`
	OperationTimeout time.Duration `validate:"gt=0"`
	RetryWrites      bool
}

func LoadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URI:              utils.GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:     utils.GetEnvAsString("MONGO_DB", "skilltracker"),
		UsersCollection:  utils.GetEnvAsString("USERS_COLLECTION", "users"),
		NotesCollection:  utils.GetEnvAsString("NOTES_COLLECTION", "notes"),
		MaxPoolSize:      utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", 100),
		MinPoolSize:      utils.GetEnvAsUint64("MONGO_MIN_POOL_SIZE", 10),
		MaxConnIdleTime:  time.Duration(utils.GetEnvAsInt("MONGO_MAX_CONN_IDLE_TIME", 60)) * time.Second,
		OperationTimeout: utils.GetEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),
		RetryWrites:      utils.GetEnvAsBool("MONGO_RETRY_WRITES", true),
	}
}
