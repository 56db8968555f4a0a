// Package client implements the RPC client of the key-value store. It provides
// an implementation of the store.IStore interface that forwards every operation
// to a server through a client transport.
//
// Error responses of the server are returned as *store.Error carrying the
// server's error code (store.RetCUnknownCommand, store.RetCResponseTooBig,
// store.RetCBadArgument). Transport failures are returned as plain errors.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Endpoints:     []string{"localhost:1234"},
//	  TimeoutSecond: 5,
//	  RetryCount:    3,
//	}
//
//	t := tcp.NewTCPClientTransport()
//	defer t.Close()
//
//	s, err := client.NewRPCStore(config, t)
//	if err != nil {
//	  log.Fatal(err)
//	}
//
//	_ = s.Set("mykey", []byte("myvalue"))
//	value, exists, _ := s.Get("mykey")
//	_, _, _ = s.Expire("mykey", 1000)
package client
