package server

import (
	"errors"
	"strconv"

	"github.com/ValentinKolb/eKV/lib/store"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/protocol"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(cmd common.CommandType, args [][]byte, s store.ILocalStore, w *protocol.ResponseWriter) {
	switch cmd {
	case common.CmdGet:
		val, ok, err := s.Get(string(args[1]))
		writeValue(w, val, ok, err)

	case common.CmdSet:
		if err := s.Set(string(args[1]), args[2]); err != nil {
			writeError(w, err)
			return
		}
		w.Nil()

	case common.CmdDel:
		deleted, err := s.Delete(string(args[1]))
		if err != nil {
			writeError(w, err)
			return
		}
		if deleted {
			w.Int(1)
		} else {
			w.Int(0)
		}

	case common.CmdKeys:
		w.Arr(uint32(s.Len()))
		err := s.ForEachKey(func(key string) bool {
			w.StrString(key)
			// the response is replaced by an error anyway
			return !w.Overflowed()
		})
		if err != nil {
			writeError(w, err)
		}

	case common.CmdExpire:
		ttl, err := strconv.ParseInt(string(args[2]), 10, 64)
		if err != nil {
			w.Err(protocol.ErrCodeBadArgument, "expect int64")
			return
		}
		val, ok, err := s.Expire(string(args[1]), ttl)
		writeValue(w, val, ok, err)

	default:
		w.Err(protocol.ErrCodeUnknownCommand, "unknown command")
	}
}

func writeValue(w *protocol.ResponseWriter, val []byte, ok bool, err error) {
	switch {
	case err != nil:
		writeError(w, err)
	case !ok:
		w.Nil()
	default:
		w.Str(val)
	}
}

// writeError writes err as error value. Store errors keep their return code.
func writeError(w *protocol.ResponseWriter, err error) {
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		w.Err(uint32(storeErr.Code), storeErr.Msg)
		return
	}
	w.Err(uint32(store.RetCInternalError), err.Error())
}
