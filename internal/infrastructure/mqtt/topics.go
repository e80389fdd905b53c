package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

// Topic prefixes. Every topic gray-logic-io uses lives under graylogic/.
//
// Join topics use the scheme graylogic/joins/{bridge}/{type}/{join}, where
// type is digital, analog or serial. Values published by gray-logic-io are
// retained; a control surface writes to the same topic with a /set suffix.
const (
	// TopicPrefixJoins is the base for all bridge join topics.
	TopicPrefixJoins = "graylogic/joins"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"

	// topicSetSuffix marks inbound writes.
	topicSetSuffix = "set"
)

// Topics provides builders for gray-logic-io MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.Join("eisc-1", "digital", 12)
//	// Returns: "graylogic/joins/eisc-1/digital/12"
type Topics struct{}

// =============================================================================
// Join Topics
// =============================================================================

// Join returns the retained state topic for one join.
//
// Example: graylogic/joins/eisc-1/analog/3
func (Topics) Join(bridge, signal string, join uint32) string {
	return fmt.Sprintf("%s/%s/%s/%d", TopicPrefixJoins, bridge, signal, join)
}

// JoinSet returns the topic a control surface writes a join on.
//
// Example: graylogic/joins/eisc-1/digital/12/set
func (t Topics) JoinSet(bridge, signal string, join uint32) string {
	return t.Join(bridge, signal, join) + "/" + topicSetSuffix
}

// BridgeStatus returns the retained presence topic of a bridge.
//
// Example: graylogic/joins/eisc-1/status
func (Topics) BridgeStatus(bridge string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixJoins, bridge)
}

// AllJoinSets returns a pattern matching every inbound write on a bridge.
//
// Pattern: graylogic/joins/eisc-1/+/+/set
func (Topics) AllJoinSets(bridge string) string {
	return fmt.Sprintf("%s/%s/+/+/%s", TopicPrefixJoins, bridge, topicSetSuffix)
}

// ParseJoinSet splits an inbound write topic into bridge, signal type and
// join number. ok is false for any other topic.
func (Topics) ParseJoinSet(topic string) (bridge, signal string, join uint32, ok bool) {
	rest, found := strings.CutPrefix(topic, TopicPrefixJoins+"/")
	if !found {
		return "", "", 0, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 4 || parts[3] != topicSetSuffix || parts[0] == "" {
		return "", "", 0, false
	}
	n, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil || n == 0 {
		return "", "", 0, false
	}
	return parts[0], parts[1], uint32(n), true
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTopics returns a pattern matching all gray-logic-io topics.
//
// Pattern: graylogic/#
func (Topics) AllTopics() string {
	return "graylogic/#"
}
