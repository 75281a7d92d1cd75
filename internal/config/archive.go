package config

import (
	"github.com/spf13/pflag"
)

// ArchiveConfig holds configuration for the archive command.
type ArchiveConfig struct {
	In        string
	PGDSN     string
	BatchSize int
	StateFile string
	StateName string
	LogLevel  string
}

// LoadArchive merges config file, environment variables, and flags into
// ArchiveConfig.
func LoadArchive(cfgFile string, flags *pflag.FlagSet) (ArchiveConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ArchiveConfig{}, err
	}

	v.SetDefault("batch-size", 1000)
	v.SetDefault("state-name", "archive")
	v.SetDefault("log-level", "info")

	cfg := ArchiveConfig{
		In:        v.GetString("in"),
		PGDSN:     v.GetString("pg-dsn"),
		BatchSize: v.GetInt("batch-size"),
		StateFile: v.GetString("state-file"),
		StateName: v.GetString("state-name"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}
