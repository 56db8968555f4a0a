package unix_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/eKV/lib/db/util"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/protocol"
	"github.com/ValentinKolb/eKV/rpc/transport/unix"
)

type echoHandler struct {
	clock util.Clock
}

func (h *echoHandler) Handle(args [][]byte, w *protocol.ResponseWriter) {
	w.Arr(uint32(len(args)))
	for _, arg := range args {
		w.Str(arg)
	}
}
func (h *echoHandler) Now() uint64                  { return h.clock.NowMillis() }
func (h *echoHandler) NextDeadline() (uint64, bool) { return 0, false }
func (h *echoHandler) ProcessTimers()               {}

func TestUnixTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ekv.sock")
	// stale socket files are replaced
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	config := common.DefaultServerConfig()
	config.Endpoint = path

	server := unix.NewUnixServerTransport()
	server.RegisterHandler(&echoHandler{clock: util.NewMonotonicClock()})
	if err := server.Listen(config); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if server.Addr() != path {
		t.Errorf("expected address %s, got %s", path, server.Addr())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve() }()

	client := unix.NewUnixClientTransport()
	if err := client.Connect(common.ClientConfig{Endpoints: []string{path}, TimeoutSecond: 5}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	v, err := client.Send([]byte("hello"), []byte{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Tag != protocol.TagArr || len(v.Arr) != 2 || string(v.Arr[0].Str) != "hello" || len(v.Arr[1].Str) != 0 {
		t.Errorf("unexpected response %s", v)
	}

	_ = client.Close()
	if err := server.Close(); err != nil {
		t.Fatal(err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("serve returned %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket file was not removed: %v", err)
	}
}
