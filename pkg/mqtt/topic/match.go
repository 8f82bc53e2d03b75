package topic

import "strings"

// Match reports whether topic matches filter, honouring the '+' and '#'
// wildcards. Shared subscription prefixes ($share/<group>/) are ignored.
func Match(filter, topic string) bool {
	filter = stripShare(filter)
	if filter == topic {
		return true
	}
	if !strings.ContainsAny(filter, Wildcard+MultiWildcard) {
		return false
	}

	filterParts := strings.Split(filter, separator)
	topicParts := strings.Split(topic, separator)

	for i, part := range filterParts {
		if part == MultiWildcard {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != Wildcard && part != topicParts[i] {
			return false
		}
	}

	return len(filterParts) == len(topicParts)
}

func stripShare(filter string) string {
	if strings.HasPrefix(filter, "$share/") {
		parts := strings.SplitN(filter, separator, 3)
		if len(parts) == 3 {
			return parts[2]
		}
	}
	return filter
}
