package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the options of every command.
type NamedFlagSetOptions interface {
	// Flags returns the command flags grouped by section.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields derived from other fields.
	Complete() error

	// Validate checks the options and returns an aggregate of every problem.
	Validate() error
}
