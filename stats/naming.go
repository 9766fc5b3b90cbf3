package stats

import "strconv"

// counterTagNames maps CounterKind to the tag name used in published
// output, ordinal-indexed to match the CounterKind const block.
var counterTagNames = [...]string{
	CounterDropped:    "dropped",
	CounterProcessed:  "processed",
	CounterStored:     "stored",
	CounterSuppressed: "suppressed",
	CounterStamp:      "stamp",
}

// TagName returns the canonical tag name for a counter kind, e.g.
// "processed" for CounterProcessed.
func TagName(kind CounterKind) string {
	if kind < 0 || int(kind) >= len(counterTagNames) {
		return ""
	}
	return counterTagNames[kind]
}

// sourceNames maps the enumerated (direction-stripped) component kind to
// its canonical name, ordinal-indexed to match the ComponentKind const
// block. This is a closed list — see the GLOSSARY.
var sourceNames = [...]string{
	ComponentNone:       "none",
	ComponentFile:       "file",
	ComponentPipe:       "pipe",
	ComponentTCP:        "tcp",
	ComponentUDP:        "udp",
	ComponentTCP6:       "tcp6",
	ComponentUDP6:       "udp6",
	ComponentUnixStream: "unix-stream",
	ComponentUnixDgram:  "unix-dgram",
	ComponentSyslog:     "syslog",
	ComponentNetwork:    "network",
	ComponentInternal:   "internal",
	ComponentLogstore:   "logstore",
	ComponentProgram:    "program",
	ComponentSQL:        "sql",
	ComponentSunStreams: "sun-streams",
	ComponentUserTTY:    "usertty",
	ComponentGroup:      "group",
	ComponentCenter:     "center",
	ComponentHost:       "host",
	ComponentGlobal:     "global",
	ComponentMongoDB:    "mongodb",
	ComponentClass:      "class",
	ComponentRuleID:     "rule_id",
	ComponentTag:        "tag",
	ComponentSeverity:   "severity",
	ComponentFacility:   "facility",
	ComponentSender:     "sender",
	ComponentSMTP:       "smtp",
	ComponentAMQP:       "amqp",
	ComponentSTOMP:      "stomp",
	ComponentRedis:      "redis",
	ComponentSNMP:       "snmp",
}

// SourceName returns the canonical name of kind's enumerated source,
// ignoring any direction flags.
func SourceName(kind ComponentKind) string {
	idx := kind.Source()
	if int(idx) < 0 || int(idx) >= len(sourceNames) {
		return ""
	}
	return sourceNames[idx]
}

// DirectionPrefix returns "src." for a source kind, "dst." for a
// destination kind, or "" for neither. If a kind somehow carries both
// flags — a producer bug, not a legal state — source wins, picked
// deterministically rather than left unspecified.
func DirectionPrefix(kind ComponentKind) string {
	switch {
	case kind&IsSource != 0:
		return "src."
	case kind&IsDestination != 0:
		return "dst."
	default:
		return ""
	}
}

// DirectionAndSourceName returns the string used as the left-hand side of
// a formatted counter value: "source"/"destination" for the group
// meta-kind (its direction carries the whole meaning), or the direction
// prefix concatenated with the source name for everything else.
func DirectionAndSourceName(kind ComponentKind) string {
	if kind.Source() == ComponentGroup {
		switch {
		case kind&IsSource != 0:
			return "source"
		case kind&IsDestination != 0:
			return "destination"
		default:
			return "group"
		}
	}
	return DirectionPrefix(kind) + SourceName(kind)
}

// FormatValue renders a counter's published value in the canonical form:
// "<dir-and-source>(<id>[,<instance>])=<value>". The comma is written only
// when both id and instance are non-empty; a non-empty instance is written
// even when id is empty, e.g. "sender(10.0.0.1)=2".
func FormatValue(key Key, value int64) string {
	var b []byte
	b = append(b, DirectionAndSourceName(key.Source)...)
	b = append(b, '(')
	b = append(b, key.ID...)
	if key.ID != "" && key.Instance != "" {
		b = append(b, ',')
	}
	b = append(b, key.Instance...)
	b = append(b, ')', '=')
	b = strconv.AppendUint(b, uint64(value), 10)
	return string(b)
}
