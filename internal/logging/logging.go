// Package logging constructs the zap logger that the fuzz command uses and
// hands to the evolution driver.
package logging

import "go.uber.org/zap"

// New builds a production-profile zap logger, or a development one (human
// readable, more verbose) when debug is true.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
