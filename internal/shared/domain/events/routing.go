package events

import "strings"

// ReturnKeyPrefix is the first routing-key word of every return event.
const ReturnKeyPrefix = "return"

// ReturnRoutingKey derives the routing key for a return event kind,
// e.g. "created" -> "return.created".
func ReturnRoutingKey(kind string) string {
	return ReturnKeyPrefix + "." + kind
}

// MatchTopic reports whether routingKey matches an AMQP topic binding pattern.
// Words are dot-separated; "*" matches exactly one word and "#" matches zero or more.
func MatchTopic(pattern, routingKey string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(routingKey, "."))
}

func matchWords(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "#":
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchWords(pattern[1:], key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pattern[0] {
				return false
			}
		}
		pattern = pattern[1:]
		key = key[1:]
	}
	return len(key) == 0
}
