package server

import (
	"testing"
	"time"

	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/ValentinKolb/eKV/lib/db/engines/pmap"
	"github.com/ValentinKolb/eKV/lib/db/util"
	"github.com/ValentinKolb/eKV/lib/store/lstore"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/protocol"
)

// newTestServer returns a server with a store but without transport
func newTestServer(t *testing.T, maxResponseSize int) (*RPCServer, *util.ManualClock, func(args ...string) protocol.Value) {
	t.Helper()
	clock := util.NewManualClock(1000)
	s := NewRPCServer(common.DefaultServerConfig(), nil, nil)
	s.store = lstore.NewLocalStore(func() db.KVDB { return pmap.NewPMapDB(nil) }, &lstore.Options{Clock: clock})
	t.Cleanup(func() { _ = s.store.Close() })

	w := protocol.NewResponseWriter(maxResponseSize)
	call := func(args ...string) protocol.Value {
		t.Helper()
		raw := make([][]byte, len(args))
		for i, a := range args {
			raw[i] = []byte(a)
		}
		w.Begin(nil)
		s.Handle(raw, w)
		out, _ := w.Finish()
		v, err := protocol.DecodeValue(out[protocol.HeaderSize:])
		if err != nil {
			t.Fatalf("decode response to %q: %v", args, err)
		}
		return v
	}
	return s, clock, call
}

func expectStr(t *testing.T, v protocol.Value, want string) {
	t.Helper()
	if v.Tag != protocol.TagStr || string(v.Str) != want {
		t.Errorf("expected str %q, got %s", want, v)
	}
}

func expectTag(t *testing.T, v protocol.Value, tag protocol.Tag) {
	t.Helper()
	if v.Tag != tag {
		t.Errorf("expected %s, got %s", tag, v)
	}
}

func expectErr(t *testing.T, v protocol.Value, code uint32) {
	t.Helper()
	if v.Tag != protocol.TagErr || v.ErrCode != code {
		t.Errorf("expected error code %d, got %s", code, v)
	}
}

func TestCommands(t *testing.T) {
	t.Run("SetGetDel", func(t *testing.T) {
		_, _, call := newTestServer(t, common.DefaultMaxResponseSize)

		expectTag(t, call("get", "a"), protocol.TagNil)
		expectTag(t, call("set", "a", "1"), protocol.TagNil)
		expectStr(t, call("get", "a"), "1")
		expectTag(t, call("set", "a", "2"), protocol.TagNil)
		expectStr(t, call("get", "a"), "2")

		if v := call("del", "a"); v.Tag != protocol.TagInt || v.Int != 1 {
			t.Errorf("expected (int) 1, got %s", v)
		}
		if v := call("del", "a"); v.Tag != protocol.TagInt || v.Int != 0 {
			t.Errorf("expected (int) 0, got %s", v)
		}
		expectTag(t, call("get", "a"), protocol.TagNil)
	})

	t.Run("EmptyValue", func(t *testing.T) {
		_, _, call := newTestServer(t, common.DefaultMaxResponseSize)
		call("set", "", "")
		expectStr(t, call("get", ""), "")
	})

	t.Run("Keys", func(t *testing.T) {
		_, _, call := newTestServer(t, common.DefaultMaxResponseSize)

		if v := call("keys"); v.Tag != protocol.TagArr || len(v.Arr) != 0 {
			t.Errorf("expected empty array, got %s", v)
		}
		for _, k := range []string{"x", "y", "z"} {
			call("set", k, "v")
		}
		call("del", "y")

		v := call("keys")
		if v.Tag != protocol.TagArr || len(v.Arr) != 2 {
			t.Fatalf("expected two keys, got %s", v)
		}
		seen := map[string]bool{}
		for _, e := range v.Arr {
			seen[string(e.Str)] = true
		}
		if !seen["x"] || !seen["z"] {
			t.Errorf("unexpected keys %v", seen)
		}
	})

	t.Run("KeysTooBig", func(t *testing.T) {
		_, _, call := newTestServer(t, 64)
		for i := 0; i < 100; i++ {
			call("set", string(rune('a'+i%26))+string(rune('a'+i/26)), "v")
		}
		expectErr(t, call("keys"), protocol.ErrCodeTooBig)
		// the connection state is not affected
		expectStr(t, call("get", "aa"), "v")
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		_, _, call := newTestServer(t, common.DefaultMaxResponseSize)

		expectErr(t, call("foo"), protocol.ErrCodeUnknownCommand)
		expectErr(t, call(), protocol.ErrCodeUnknownCommand)
		expectErr(t, call("GET", "a"), protocol.ErrCodeUnknownCommand)
		expectErr(t, call("get"), protocol.ErrCodeUnknownCommand)
		expectErr(t, call("set", "a"), protocol.ErrCodeUnknownCommand)
		expectErr(t, call("keys", "extra"), protocol.ErrCodeUnknownCommand)
	})
}

func TestExpire(t *testing.T) {
	t.Run("MissingKey", func(t *testing.T) {
		_, _, call := newTestServer(t, common.DefaultMaxResponseSize)
		expectTag(t, call("expire", "nope", "100"), protocol.TagNil)
	})

	t.Run("BadArgument", func(t *testing.T) {
		_, _, call := newTestServer(t, common.DefaultMaxResponseSize)
		call("set", "k", "v")
		for _, ttl := range []string{"abc", "", "1.5", "10ms", "99999999999999999999"} {
			expectErr(t, call("expire", "k", ttl), protocol.ErrCodeBadArgument)
		}
	})

	t.Run("ExpiresInSweep", func(t *testing.T) {
		s, clock, call := newTestServer(t, common.DefaultMaxResponseSize)
		call("set", "k", "v")
		call("set", "stay", "v")

		expectStr(t, call("expire", "k", "50"), "v")
		if d, ok := s.NextDeadline(); !ok || d != 1050 {
			t.Fatalf("expected deadline 1050, got %d, %v", d, ok)
		}

		clock.Advance(49 * time.Millisecond)
		s.ProcessTimers()
		expectStr(t, call("get", "k"), "v")

		clock.Advance(1 * time.Millisecond)
		s.ProcessTimers()
		expectTag(t, call("get", "k"), protocol.TagNil)
		expectStr(t, call("get", "stay"), "v")
		if _, ok := s.NextDeadline(); ok {
			t.Errorf("expected no deadline after the key expired")
		}
	})

	t.Run("OverdueKeyVisibleUntilSweep", func(t *testing.T) {
		s, clock, call := newTestServer(t, common.DefaultMaxResponseSize)
		call("set", "k", "v")
		call("expire", "k", "10")

		clock.Advance(100 * time.Millisecond)
		expectStr(t, call("get", "k"), "v")
		s.ProcessTimers()
		expectTag(t, call("get", "k"), protocol.TagNil)
	})

	t.Run("NegativeClears", func(t *testing.T) {
		s, clock, call := newTestServer(t, common.DefaultMaxResponseSize)
		call("set", "k", "v")
		call("expire", "k", "10")
		expectStr(t, call("expire", "k", "-1"), "v")

		if _, ok := s.NextDeadline(); ok {
			t.Errorf("expected no deadline after clearing the ttl")
		}
		clock.Advance(100 * time.Millisecond)
		s.ProcessTimers()
		expectStr(t, call("get", "k"), "v")
	})

	t.Run("Reschedule", func(t *testing.T) {
		s, clock, call := newTestServer(t, common.DefaultMaxResponseSize)
		call("set", "k", "v")
		call("expire", "k", "10")
		call("expire", "k", "500")

		clock.Advance(100 * time.Millisecond)
		s.ProcessTimers()
		expectStr(t, call("get", "k"), "v")
		if d, _ := s.NextDeadline(); d != 1500 {
			t.Errorf("expected deadline 1500, got %d", d)
		}
	})

	t.Run("SetKeepsTTL", func(t *testing.T) {
		s, clock, call := newTestServer(t, common.DefaultMaxResponseSize)
		call("set", "k", "v")
		call("expire", "k", "10")
		call("set", "k", "new")

		clock.Advance(10 * time.Millisecond)
		s.ProcessTimers()
		expectTag(t, call("get", "k"), protocol.TagNil)
	})

	t.Run("DelRemovesTTL", func(t *testing.T) {
		s, _, call := newTestServer(t, common.DefaultMaxResponseSize)
		call("set", "k", "v")
		call("expire", "k", "10")
		call("del", "k")

		if _, ok := s.NextDeadline(); ok {
			t.Errorf("expected no deadline after delete")
		}
	})
}
