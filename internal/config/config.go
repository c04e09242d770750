// Package config loads the fuzzer's own runtime tunables from
// config/fuzzer/fuzzer.ini (falling back to the built-in constants when
// absent) and reads the required basic-auth credentials from the
// environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/odfuzz/odfuzz/internal/constants"
)

// Config is the fully resolved runtime configuration for one fuzzing run.
type Config struct {
	Service      string
	Restrictions string
	Async        bool

	Username string
	Password string

	CertPath string

	PoolSize            int
	SeedPopulation      int
	DeathChance         float64
	ScoreEps            float64
	IterationsThreshold int
	SelectionThreshold  int
	FilterPartsNum      int

	RequestTimeout time.Duration
	RetryTimeout   time.Duration
}

// ErrMissingCredentials is returned when SAP_USERNAME/SAP_PASSWORD are
// unset — a fatal configuration error per spec.md §6/§7.
var ErrMissingCredentials = fmt.Errorf("config: %s and %s must both be set", constants.EnvUsername, constants.EnvPassword)

// Load resolves a Config for service, optionally overlaying
// config/fuzzer/fuzzer.ini when present, and reading credentials from the
// environment.
func Load(service string, restrictions string, async bool) (*Config, error) {
	cfg := defaults(service, restrictions, async)

	v := viper.New()
	v.SetConfigFile(constants.DefaultConfigPath)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err == nil {
		applyOverrides(cfg, v)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: reading %s: %w", constants.DefaultConfigPath, err)
	}

	cfg.Username = os.Getenv(constants.EnvUsername)
	cfg.Password = os.Getenv(constants.EnvPassword)
	if cfg.Username == "" || cfg.Password == "" {
		return nil, ErrMissingCredentials
	}

	return cfg, nil
}

func defaults(service, restrictions string, async bool) *Config {
	return &Config{
		Service:             service,
		Restrictions:        restrictions,
		Async:               async,
		CertPath:            constants.DefaultCertPath,
		PoolSize:            constants.PoolSize,
		SeedPopulation:      constants.SeedPopulation,
		DeathChance:         constants.DeathChance,
		ScoreEps:            constants.ScoreEps,
		IterationsThreshold: constants.IterationsThreshold,
		SelectionThreshold:  constants.SelectionThreshold,
		FilterPartsNum:      constants.FilterPartsNum,
		RequestTimeout:      constants.RequestTimeout,
		RetryTimeout:        constants.RetryTimeout,
	}
}

// applyOverrides reads the [fuzzer] section of fuzzer.ini, leaving any key
// it doesn't find at its built-in default.
func applyOverrides(cfg *Config, v *viper.Viper) {
	if v.IsSet("fuzzer.pool_size") {
		cfg.PoolSize = v.GetInt("fuzzer.pool_size")
	}
	if v.IsSet("fuzzer.seed_population") {
		cfg.SeedPopulation = v.GetInt("fuzzer.seed_population")
	}
	if v.IsSet("fuzzer.death_chance") {
		cfg.DeathChance = v.GetFloat64("fuzzer.death_chance")
	}
	if v.IsSet("fuzzer.score_eps") {
		cfg.ScoreEps = v.GetFloat64("fuzzer.score_eps")
	}
	if v.IsSet("fuzzer.iterations_threshold") {
		cfg.IterationsThreshold = v.GetInt("fuzzer.iterations_threshold")
	}
	if v.IsSet("fuzzer.selection_threshold") {
		cfg.SelectionThreshold = v.GetInt("fuzzer.selection_threshold")
	}
	if v.IsSet("fuzzer.filter_parts_num") {
		cfg.FilterPartsNum = v.GetInt("fuzzer.filter_parts_num")
	}
	if v.IsSet("fuzzer.request_timeout_seconds") {
		cfg.RequestTimeout = time.Duration(v.GetInt64("fuzzer.request_timeout_seconds")) * time.Second
	}
	if v.IsSet("fuzzer.retry_timeout_seconds") {
		cfg.RetryTimeout = time.Duration(v.GetInt64("fuzzer.retry_timeout_seconds")) * time.Second
	}
	if v.IsSet("security.cert_path") {
		cfg.CertPath = v.GetString("security.cert_path")
	}
}
