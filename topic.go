package eventadmin

import "strings"

// isValidTopic validates the topic grammar from §6: segments matching
// [A-Za-z0-9_]+ joined by '/'. Used for event topics themselves (never
// wildcarded) as opposed to topic masks (handler registrations), which may
// end in a wildcard segment.
func isValidTopic(topic string) bool {
	if topic == "" {
		return false
	}
	for _, seg := range strings.Split(topic, "/") {
		if !isValidSegment(seg) {
			return false
		}
	}
	return true
}

// isValidMask validates a handler topic mask: the bare wildcard "*", or a
// topic whose final segment may be "*" instead of a literal segment.
func isValidMask(mask string) bool {
	if mask == "*" {
		return true
	}
	segs := strings.Split(mask, "/")
	for i, seg := range segs {
		if i == len(segs)-1 && seg == "*" {
			continue
		}
		if !isValidSegment(seg) {
			return false
		}
	}
	return true
}

func isValidSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for _, r := range seg {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// candidateMasks builds the disjunction of literal masks a topic could
// satisfy, per §4.4 step 1: the topic itself, every wildcarded prefix from
// most to least specific (including the topic's own "topic/*", since a
// mask ending in "/*" matches its own prefix with nothing following — §8
// property 5), and the bare "*".
//
//	"a/b/c" -> ["a/b/c", "a/b/c/*", "a/b/*", "a/*", "*"]
func candidateMasks(topic string) []string {
	segs := strings.Split(topic, "/")
	masks := make([]string, 0, len(segs)+2)
	masks = append(masks, topic)
	for i := len(segs); i > 0; i-- {
		masks = append(masks, strings.Join(segs[:i], "/")+"/*")
	}
	masks = append(masks, "*")
	return masks
}

// maskMatches reports whether topic mask matches event topic, per §8
// property 5: a literal mask matches only that exact topic; a mask ending
// in "/*" matches any topic sharing that prefix (including the prefix
// itself with nothing following, e.g. "a/b/*" matches "a/b"); "*" matches
// everything.
func maskMatches(mask, topic string) bool {
	if mask == "*" {
		return true
	}
	if strings.HasSuffix(mask, "/*") {
		prefix := strings.TrimSuffix(mask, "/*")
		return topic == prefix || strings.HasPrefix(topic, prefix+"/")
	}
	return mask == topic
}
