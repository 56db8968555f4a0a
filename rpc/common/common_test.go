package common

import (
	"strings"
	"testing"
)

func args(parts ...string) [][]byte {
	out := make([][]byte, len(parts))
	for i, p := range parts {
		out[i] = []byte(p)
	}
	return out
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		args []string
		want CommandType
	}{
		{[]string{"get", "k"}, CmdGet},
		{[]string{"set", "k", "v"}, CmdSet},
		{[]string{"del", "k"}, CmdDel},
		{[]string{"keys"}, CmdKeys},
		{[]string{"expire", "k", "100"}, CmdExpire},
		// arity mismatches
		{[]string{"get"}, CmdUnknown},
		{[]string{"get", "k", "v"}, CmdUnknown},
		{[]string{"set", "k"}, CmdUnknown},
		{[]string{"keys", "x"}, CmdUnknown},
		// names are case-sensitive
		{[]string{"GET", "k"}, CmdUnknown},
		{[]string{"unknown"}, CmdUnknown},
		{[]string{"foo", "bar"}, CmdUnknown},
		{nil, CmdUnknown},
	}
	for _, c := range cases {
		t.Run(strings.Join(c.args, "_"), func(t *testing.T) {
			if got := ParseCommand(args(c.args...)); got != c.want {
				t.Errorf("ParseCommand(%q) = %s, want %s", c.args, got, c.want)
			}
		})
	}
}

func TestCommandTable(t *testing.T) {
	for _, cmd := range Commands() {
		if cmd.Arity() < 1 {
			t.Errorf("command %s has invalid arity %d", cmd, cmd.Arity())
		}
		// every command must be reachable through ParseCommand
		parts := make([]string, cmd.Arity())
		parts[0] = cmd.Name()
		if got := ParseCommand(args(parts...)); got != cmd {
			t.Errorf("command %s not resolvable, got %s", cmd, got)
		}
	}
	if CommandType(200).Name() != "unknown" {
		t.Error("out of range commands should be unknown")
	}
}

func TestServerConfig(t *testing.T) {
	c := DefaultServerConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !strings.Contains(c.String(), "0.0.0.0:1234") {
		t.Error("summary should contain the endpoint")
	}

	c.LogLevel = "loud"
	if err := c.Validate(); err == nil {
		t.Error("invalid log level should fail validation")
	}

	c = DefaultServerConfig()
	c.Metrics = MetricsVM
	if err := c.Validate(); err == nil {
		t.Error("metrics without endpoint should fail validation")
	}

	c.MetricsEndpoint = ":9100"
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestInitLoggers(t *testing.T) {
	if err := InitLoggers("debug"); err != nil {
		t.Fatal(err)
	}
	if err := InitLoggers("nope"); err == nil {
		t.Error("expected error for invalid level")
	}
}
