package stats

import "testing"

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		key      Key
		value    int64
		expected string
	}{
		{
			name:     "destination file with id and instance",
			key:      Key{Source: ComponentFile | IsDestination, ID: "dst-access", Instance: "/var/log/a"},
			value:    3,
			expected: "dst.file(dst-access,/var/log/a)=3",
		},
		{
			name:     "empty id and instance",
			key:      Key{Source: ComponentGlobal, ID: "", Instance: ""},
			value:    1,
			expected: "global()=1",
		},
		{
			name:     "id without instance",
			key:      Key{Source: ComponentTCP | IsSource, ID: "listener", Instance: ""},
			value:    7,
			expected: "src.tcp(listener)=7",
		},
		{
			name:     "instance without id",
			key:      Key{Source: ComponentSender, ID: "", Instance: "10.0.0.1"},
			value:    2,
			expected: "sender(10.0.0.1)=2",
		},
		{
			name:     "group source",
			key:      Key{Source: ComponentGroup | IsSource, ID: "s_local", Instance: ""},
			value:    4,
			expected: "source(s_local)=4",
		},
		{
			name:     "group destination",
			key:      Key{Source: ComponentGroup | IsDestination, ID: "d_local", Instance: ""},
			value:    5,
			expected: "destination(d_local)=5",
		},
		{
			name:     "no direction flag",
			key:      Key{Source: ComponentInternal, ID: "core", Instance: ""},
			value:    9,
			expected: "internal(core)=9",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatValue(tc.key, tc.value)
			if got != tc.expected {
				t.Errorf("got %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestTagNames(t *testing.T) {
	tests := []struct {
		kind     CounterKind
		expected string
	}{
		{CounterDropped, "dropped"},
		{CounterProcessed, "processed"},
		{CounterStored, "stored"},
		{CounterSuppressed, "suppressed"},
		{CounterStamp, "stamp"},
	}

	for _, tc := range tests {
		if got := TagName(tc.kind); got != tc.expected {
			t.Errorf("TagName(%d) = %q, want %q", tc.kind, got, tc.expected)
		}
	}
}

func TestSourceNameClosedList(t *testing.T) {
	if got := SourceName(ComponentSNMP); got != "snmp" {
		t.Errorf("got %q, want %q", got, "snmp")
	}
	if got := SourceName(ComponentUnixDgram | IsDestination); got != "unix-dgram" {
		t.Errorf("direction flags must not affect SourceName: got %q, want %q", got, "unix-dgram")
	}
}
