package server_test

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/eKV/lib/store"
	"github.com/ValentinKolb/eKV/rpc/client"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/metrics"
	"github.com/ValentinKolb/eKV/rpc/protocol"
	"github.com/ValentinKolb/eKV/rpc/server"
	"github.com/ValentinKolb/eKV/rpc/transport"
	"github.com/ValentinKolb/eKV/rpc/transport/tcp"
	"github.com/ValentinKolb/eKV/rpc/transport/unix"
	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------
// Test Helpers
// -----------------------------------------------------------

// closeRecorder forwards connection close reasons to a channel
type closeRecorder struct {
	metrics.NoopMetrics
	closed chan transport.CloseReason
}

func (r *closeRecorder) ConnClosed(reason transport.CloseReason) {
	select {
	case r.closed <- reason:
	default:
	}
}

func startServer(t *testing.T, config common.ServerConfig, st transport.IRPCServerTransport, m metrics.IMetrics) *server.RPCServer {
	t.Helper()
	s := server.NewRPCServer(config, st, m)
	if err := s.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
		if err := <-errCh; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return s
}

func tcpConfig() common.ServerConfig {
	config := common.DefaultServerConfig()
	config.Endpoint = "127.0.0.1:0"
	config.LogLevel = "error"
	return config
}

func connect(t *testing.T, ct transport.IRPCClientTransport, endpoint string) store.IStore {
	t.Helper()
	s, err := client.NewRPCStore(common.ClientConfig{
		Endpoints:              []string{endpoint},
		TimeoutSecond:          5,
		ConnectionsPerEndpoint: 2,
	}, ct)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = ct.Close() })
	return s
}

func expectCode(t *testing.T, err error, code store.RetCode) {
	t.Helper()
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Code != code {
		t.Errorf("expected store error %s, got %v", code, err)
	}
}

// -----------------------------------------------------------
// Tests
// -----------------------------------------------------------

func TestEndToEnd(t *testing.T) {
	srv := startServer(t, tcpConfig(), tcp.NewTCPServerTransport(), nil)
	kv := connect(t, tcp.NewTCPClientTransport(), srv.Addr())

	if err := kv.Set("a", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := kv.Set("b", []byte("2")); err != nil {
		t.Fatal(err)
	}

	if val, ok, err := kv.Get("a"); err != nil || !ok || string(val) != "1" {
		t.Errorf("get a = %q, %v, %v", val, ok, err)
	}
	if _, ok, err := kv.Get("missing"); err != nil || ok {
		t.Errorf("get missing = %v, %v", ok, err)
	}

	keys, err := kv.Keys()
	if err != nil || len(keys) != 2 {
		t.Fatalf("keys = %v, %v", keys, err)
	}

	if deleted, err := kv.Delete("b"); err != nil || !deleted {
		t.Errorf("del b = %v, %v", deleted, err)
	}
	if deleted, err := kv.Delete("b"); err != nil || deleted {
		t.Errorf("second del b = %v, %v", deleted, err)
	}

	if val, ok, err := kv.Expire("a", 50); err != nil || !ok || string(val) != "1" {
		t.Fatalf("expire a = %q, %v, %v", val, ok, err)
	}
	if _, ok, err := kv.Expire("missing", 50); err != nil || ok {
		t.Errorf("expire missing = %v, %v", ok, err)
	}

	// the loop wakes up for the expiry without any client traffic
	time.Sleep(150 * time.Millisecond)

	if _, ok, err := kv.Get("a"); err != nil || ok {
		t.Errorf("expected a to be expired, got %v, %v", ok, err)
	}
	if keys, err := kv.Keys(); err != nil || len(keys) != 0 {
		t.Errorf("expected no keys, got %v, %v", keys, err)
	}
}

func TestProtocolErrors(t *testing.T) {
	srv := startServer(t, tcpConfig(), tcp.NewTCPServerTransport(), nil)

	ct := tcp.NewTCPClientTransport()
	kv := connect(t, ct, srv.Addr())
	if err := kv.Set("k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	send := func(args ...string) protocol.Value {
		t.Helper()
		raw := make([][]byte, len(args))
		for i, a := range args {
			raw[i] = []byte(a)
		}
		v, err := ct.Send(raw...)
		if err != nil {
			t.Fatalf("send %q: %v", args, err)
		}
		return v
	}

	if v := send("foo"); v.Tag != protocol.TagErr || v.ErrCode != protocol.ErrCodeUnknownCommand {
		t.Errorf("expected unknown command, got %s", v)
	}
	if v := send("expire", "k", "soon"); v.Tag != protocol.TagErr || v.ErrCode != protocol.ErrCodeBadArgument {
		t.Errorf("expected bad argument, got %s", v)
	}
	if v := send("get", "k"); v.Tag != protocol.TagStr || string(v.Str) != "v" {
		t.Errorf("connection unusable after errors, got %s", v)
	}
}

func TestResponseTooBig(t *testing.T) {
	config := tcpConfig()
	config.MaxResponseSize = 64
	srv := startServer(t, config, tcp.NewTCPServerTransport(), nil)
	kv := connect(t, tcp.NewTCPClientTransport(), srv.Addr())

	if err := kv.Set("big", []byte(strings.Repeat("x", 100))); err != nil {
		t.Fatal(err)
	}
	_, _, err := kv.Get("big")
	expectCode(t, err, store.RetCResponseTooBig)

	if err := kv.Set("small", []byte("ok")); err != nil {
		t.Fatal(err)
	}
	if val, ok, err := kv.Get("small"); err != nil || !ok || string(val) != "ok" {
		t.Errorf("get small = %q, %v, %v", val, ok, err)
	}
}

func TestOversizedRequestClosesConnection(t *testing.T) {
	closed := &closeRecorder{closed: make(chan transport.CloseReason, 1)}
	srv := startServer(t, tcpConfig(), tcp.NewTCPServerTransport(), closed)

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// header declaring one byte more than allowed
	if _, err := conn.Write([]byte{0x01, 0x04, 0, 0}); err != nil {
		t.Fatal(err)
	}

	select {
	case reason := <-closed.closed:
		if reason != transport.CloseProtocolError {
			t.Errorf("expected protocol error, got %s", reason)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not closed")
	}
}

func TestIdleTimeout(t *testing.T) {
	config := tcpConfig()
	config.IdleTimeoutMs = 50
	closed := &closeRecorder{closed: make(chan transport.CloseReason, 1)}
	srv := startServer(t, config, tcp.NewTCPServerTransport(), closed)

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	select {
	case reason := <-closed.closed:
		if reason != transport.CloseIdle {
			t.Errorf("expected idle close, got %s", reason)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("idle connection was not closed")
	}
}

func TestUnixSocket(t *testing.T) {
	config := common.DefaultServerConfig()
	config.Endpoint = filepath.Join(t.TempDir(), "ekv.sock")
	srv := startServer(t, config, unix.NewUnixServerTransport(), nil)
	kv := connect(t, unix.NewUnixClientTransport(), srv.Addr())

	if err := kv.Set("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if val, ok, err := kv.Get("k"); err != nil || !ok || string(val) != "v" {
		t.Errorf("get k = %q, %v, %v", val, ok, err)
	}
}

func TestConcurrentClients(t *testing.T) {
	srv := startServer(t, tcpConfig(), tcp.NewTCPServerTransport(), nil)

	const (
		clients = 8
		perCli  = 100
	)

	var g errgroup.Group
	for c := 0; c < clients; c++ {
		c := c
		kv := connect(t, tcp.NewTCPClientTransport(), srv.Addr())
		g.Go(func() error {
			for i := 0; i < perCli; i++ {
				key := fmt.Sprintf("c%d-k%d", c, i)
				if err := kv.Set(key, []byte(key)); err != nil {
					return err
				}
				val, ok, err := kv.Get(key)
				if err != nil {
					return err
				}
				if !ok || string(val) != key {
					return fmt.Errorf("get %s = %q, %v", key, val, ok)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	kv := connect(t, tcp.NewTCPClientTransport(), srv.Addr())
	keys, err := kv.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != clients*perCli {
		t.Errorf("expected %d keys, got %d", clients*perCli, len(keys))
	}
}
