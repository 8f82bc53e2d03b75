package topic

// MQTT wildcard levels.
const (
	// Wildcard matches exactly one topic level.
	Wildcard = "+"

	// MultiWildcard matches the remaining levels. It must be the last level of a filter.
	MultiWildcard = "#"

	separator = "/"
)
