package tcp_test

import (
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/eKV/lib/db/util"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/protocol"
	"github.com/ValentinKolb/eKV/rpc/transport"
	"github.com/ValentinKolb/eKV/rpc/transport/tcp"
	"golang.org/x/sync/errgroup"
)

// lenHandler answers every request with the number of arguments
type lenHandler struct {
	clock *util.MonotonicClock
}

func (h *lenHandler) Handle(args [][]byte, w *protocol.ResponseWriter) { w.Int(int64(len(args))) }
func (h *lenHandler) Now() uint64                                     { return h.clock.NowMillis() }
func (h *lenHandler) NextDeadline() (uint64, bool)                    { return 0, false }
func (h *lenHandler) ProcessTimers()                                  {}

func startServer(t *testing.T, idleTimeoutMs uint64) transport.IRPCServerTransport {
	t.Helper()
	config := common.DefaultServerConfig()
	config.Endpoint = "127.0.0.1:0"
	config.IdleTimeoutMs = idleTimeoutMs

	server := tcp.NewTCPServerTransport()
	server.RegisterHandler(&lenHandler{clock: util.NewMonotonicClock()})
	if err := server.Listen(config); err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve() }()
	t.Cleanup(func() {
		_ = server.Close()
		if err := <-errCh; err != nil {
			t.Errorf("serve returned %v", err)
		}
	})
	return server
}

func TestTCPTransport(t *testing.T) {
	server := startServer(t, 5000)

	client := tcp.NewTCPClientTransport()
	if err := client.Connect(common.ClientConfig{
		Endpoints:              []string{server.Addr()},
		TimeoutSecond:          5,
		ConnectionsPerEndpoint: 2,
	}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				v, err := client.Send([]byte("a"), []byte("b"), []byte("c"))
				if err != nil {
					return err
				}
				if v.Tag != protocol.TagInt || v.Int != 3 {
					t.Errorf("unexpected response %s", v)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestTCPIdleTimeout(t *testing.T) {
	server := startServer(t, 50)

	conn, err := net.Dial("tcp", server.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 1)
	if n, err := conn.Read(buf); err == nil || n != 0 {
		t.Fatalf("expected the server to close the idle connection, got %d, %v", n, err)
	}
}

func TestTCPConnectFailure(t *testing.T) {
	client := tcp.NewTCPClientTransport()
	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("expected error without endpoints")
	}
	if err := client.Connect(common.ClientConfig{Endpoints: []string{"127.0.0.1:1"}}); err == nil {
		t.Errorf("expected error for unreachable endpoint")
	}
}

func TestTCPConcurrentClose(t *testing.T) {
	for i := 0; i < 20; i++ {
		config := common.DefaultServerConfig()
		config.Endpoint = "127.0.0.1:0"

		server := tcp.NewTCPServerTransport()
		server.RegisterHandler(&lenHandler{clock: util.NewMonotonicClock()})
		if err := server.Listen(config); err != nil {
			t.Fatalf("listen: %v", err)
		}
		errCh := make(chan error, 1)
		go func() { errCh <- server.Serve() }()

		var g errgroup.Group
		for j := 0; j < 4; j++ {
			g.Go(server.Close)
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("close: %v", err)
		}
		select {
		case err := <-errCh:
			if err != nil {
				t.Fatalf("serve returned %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("serve did not return after close")
		}
		if err := server.Close(); err != nil {
			t.Errorf("repeated close: %v", err)
		}
	}
}
