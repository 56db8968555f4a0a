package client

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/eKV/lib/store"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/protocol"
	"github.com/ValentinKolb/eKV/rpc/transport"
)

var (
	expectValue = []protocol.Tag{protocol.TagStr, protocol.TagNil}
	expectNil   = []protocol.Tag{protocol.TagNil}
	expectInt   = []protocol.Tag{protocol.TagInt}
	expectArr   = []protocol.Tag{protocol.TagArr}
)

// NewRPCStore creates a new RPC store
// The function connects the transport with config and returns a store.IStore
// forwarding every operation to the server
func NewRPCStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
) (store.IStore, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}
	return &rpcStore{transport: transport}, nil
}

type rpcStore struct {
	transport transport.IRPCClientTransport
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (s *rpcStore) Set(key string, value []byte) error {
	_, err := invokeRPCRequest(s.transport, expectNil, []byte(common.CmdSet.Name()), []byte(key), value)
	return err
}

func (s *rpcStore) Get(key string) ([]byte, bool, error) {
	v, err := invokeRPCRequest(s.transport, expectValue, []byte(common.CmdGet.Name()), []byte(key))
	if err != nil {
		return nil, false, err
	}
	val, ok := valueOrNil(v)
	return val, ok, nil
}

func (s *rpcStore) Delete(key string) (bool, error) {
	v, err := invokeRPCRequest(s.transport, expectInt, []byte(common.CmdDel.Name()), []byte(key))
	if err != nil {
		return false, err
	}
	return v.Int == 1, nil
}

func (s *rpcStore) Keys() ([]string, error) {
	v, err := invokeRPCRequest(s.transport, expectArr, []byte(common.CmdKeys.Name()))
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(v.Arr))
	for i, elem := range v.Arr {
		if elem.Tag != protocol.TagStr {
			return nil, fmt.Errorf("unexpected %s element in keys response", elem.Tag)
		}
		keys[i] = string(elem.Str)
	}
	return keys, nil
}

func (s *rpcStore) Expire(key string, ttlMs int64) ([]byte, bool, error) {
	v, err := invokeRPCRequest(s.transport, expectValue,
		[]byte(common.CmdExpire.Name()), []byte(key), []byte(strconv.FormatInt(ttlMs, 10)))
	if err != nil {
		return nil, false, err
	}
	val, ok := valueOrNil(v)
	return val, ok, nil
}
