package client

import (
	"fmt"

	"github.com/ValentinKolb/eKV/lib/store"
	"github.com/ValentinKolb/eKV/rpc/protocol"
	"github.com/ValentinKolb/eKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// invokeRPCRequest sends one request and converts error values to *store.Error.
// The response must have one of the expected tags.
func invokeRPCRequest(t transport.IRPCClientTransport, expect []protocol.Tag, args ...[]byte) (protocol.Value, error) {
	v, err := t.Send(args...)
	if err != nil {
		return protocol.Value{}, err
	}

	if v.Tag == protocol.TagErr {
		return protocol.Value{}, store.NewError(store.RetCode(v.ErrCode), v.ErrMsg)
	}

	for _, tag := range expect {
		if v.Tag == tag {
			return v, nil
		}
	}
	Logger.Warningf("unexpected %s response to %s", v.Tag, args[0])
	return protocol.Value{}, fmt.Errorf("unexpected %s response to %s", v.Tag, args[0])
}

// valueOrNil maps a str response to (value, true) and nil to (nil, false)
func valueOrNil(v protocol.Value) ([]byte, bool) {
	if v.Tag == protocol.TagNil {
		return nil, false
	}
	return v.Str, true
}
