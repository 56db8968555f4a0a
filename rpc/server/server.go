package server

import (
	"fmt"

	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/ValentinKolb/eKV/lib/db/engines/pmap"
	"github.com/ValentinKolb/eKV/lib/db/util"
	"github.com/ValentinKolb/eKV/lib/store"
	"github.com/ValentinKolb/eKV/lib/store/lstore"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/metrics"
	"github.com/ValentinKolb/eKV/rpc/protocol"
	"github.com/ValentinKolb/eKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// RPCServer connects a transport to a local store.
// It is the handler of the transport's event loop, so every store
// access happens on the goroutine running Serve.
type RPCServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	metrics   metrics.IMetrics
	adapter   IRPCServerAdapter
	clock     util.Clock
	store     store.ILocalStore
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and metrics sink (nil for none) as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		nil,
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	m metrics.IMetrics,
) *RPCServer {
	if m == nil {
		m = metrics.NoopMetrics{}
	}
	return &RPCServer{
		config:    config,
		transport: transport,
		metrics:   m,
		adapter:   NewIStoreServerAdapter(),
	}
}

// WithClock replaces the time source of the store, must be called before Listen
func (s *RPCServer) WithClock(clock util.Clock) *RPCServer {
	s.clock = clock
	return s
}

// Listen creates the store and the listening socket
func (s *RPCServer) Listen() error {
	if s.store != nil {
		return fmt.Errorf("server already listening")
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	dbOptions := &pmap.DBOptions{
		InitialBuckets: s.config.InitialBuckets,
		MaxLoadFactor:  s.config.MaxLoadFactor,
		RehashWork:     s.config.RehashWork,
	}
	s.store = lstore.NewLocalStore(func() db.KVDB { return pmap.NewPMapDB(dbOptions) }, &lstore.Options{
		Clock:             s.clock,
		MaxExpirePerSweep: s.config.MaxExpirePerSweep,
	})

	s.transport.RegisterHandler(s)
	if err := s.transport.Listen(s.config); err != nil {
		_ = s.store.Close()
		s.store = nil
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())
	return nil
}

// Serve runs the event loop until Close is called. It calls Listen first
// if that has not happened yet.
func (s *RPCServer) Serve() error {
	if s.store == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	return s.transport.Serve()
}

// Addr returns the address the server listens on
func (s *RPCServer) Addr() string {
	return s.transport.Addr()
}

// Close stops the event loop and releases the store
func (s *RPCServer) Close() error {
	if err := s.transport.Close(); err != nil {
		return err
	}
	if s.store == nil {
		return nil
	}
	if info, err := s.store.GetDBInfo(); err == nil {
		Logger.Infof("closing store with %d keys (%d bytes)", info.Keys, info.SizeBytes)
	}
	return s.store.Close()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerHandler)
// --------------------------------------------------------------------------

func (s *RPCServer) Handle(args [][]byte, w *protocol.ResponseWriter) {
	cmd := common.ParseCommand(args)
	s.metrics.Command(cmd)
	s.adapter.Handle(cmd, args, s.store, w)
}

func (s *RPCServer) Now() uint64 {
	return s.store.Now()
}

func (s *RPCServer) NextDeadline() (uint64, bool) {
	return s.store.NextExpiry()
}

func (s *RPCServer) ProcessTimers() {
	if n := s.store.ExpireDue(); n > 0 {
		Logger.Debugf("expired %d keys", n)
		s.metrics.Expired(n)
	}
	s.metrics.KeySpace(s.store.Len())
}

func (s *RPCServer) ConnOpened() {
	s.metrics.ConnOpened()
}

func (s *RPCServer) ConnClosed(reason transport.CloseReason) {
	s.metrics.ConnClosed(reason)
}

var (
	_ transport.IServerHandler = (*RPCServer)(nil)
	_ transport.IConnObserver  = (*RPCServer)(nil)
)
