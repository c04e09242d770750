// Package constants holds the tunable numbers that govern the fuzzer's
// evolutionary loop, dispatch discipline, and fitness scoring. They are
// gathered in one leaf package so every layer of the engine reads the same
// values instead of re-declaring magic numbers.
package constants

import "time"

const (
	// RetryTimeout bounds how long the driver will keep retrying a single
	// query dispatch before giving up and discarding it.
	RetryTimeout = 100 * time.Second

	// RequestTimeout is the default per-request deadline. InfinityTimeout
	// disables it.
	RequestTimeout  = 600 * time.Second
	InfinityTimeout = -1 * time.Second

	// StringThreshold is the numerator used by the length component of the
	// fitness function.
	StringThreshold = 200

	// DeathChance is the probability that a child query which scored worse
	// than every one of its parents is marked killable.
	DeathChance = 0.10

	// ScoreEps is the stagnation-detection delta on the population average.
	ScoreEps = 200

	// IterationsThreshold is how many steady-state iterations pass before
	// the selector re-checks the population average for stagnation.
	IterationsThreshold = 30

	// SelectionThreshold caps how many times the selector rerolls the
	// queryable while looking for a crossable pair.
	SelectionThreshold = 10

	// FilterPartsNum is the minimum number of filter parts a query needs to
	// be eligible as a crossover parent.
	FilterPartsNum = 2

	// SeedPopulation scales the number of seed queries generated per
	// property on each entity set.
	SeedPopulation = 10

	// PoolSize is the concurrent worker pool size used in async mode.
	PoolSize = 8

	// Function-family mix probabilities, passed through verbatim to the
	// Builder/Generator collaborator that synthesizes operand values.
	StringFuncProb   = 0.70
	MathFuncProb     = 0.15
	DateFuncProb     = 0.15
	SingleEntityProb = 0.05
	KeyMutationProb  = 0.05
)

// EnvUsername and EnvPassword name the environment variables carrying
// basic-auth credentials for the target OData service.
const (
	EnvUsername = "SAP_USERNAME"
	EnvPassword = "SAP_PASSWORD"
)

// Default filesystem locations for the optional TLS trust anchor and the
// fuzzer's own configuration file.
const (
	DefaultCertPath   = "config/security/ca_sap_root_base64.crt"
	DefaultConfigPath = "config/fuzzer/fuzzer.ini"
)
