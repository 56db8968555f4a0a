package protocol

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Value is a decoded response value
type Value struct {
	Tag     Tag
	Str     []byte  // TagStr
	Int     int64   // TagInt
	ErrCode uint32  // TagErr
	ErrMsg  string  // TagErr
	Arr     []Value // TagArr
}

// DecodeValue decodes a complete response payload. Trailing bytes are an error.
func DecodeValue(payload []byte) (Value, error) {
	v, rest, err := decodeValue(payload, 0)
	if err != nil {
		return Value{}, err
	}
	if len(rest) != 0 {
		return Value{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}
	return v, nil
}

// maxDepth bounds nesting of arrays in untrusted input
const maxDepth = 64

func decodeValue(data []byte, depth int) (Value, []byte, error) {
	if len(data) < 1 {
		return Value{}, nil, fmt.Errorf("%w: missing tag", ErrMalformed)
	}
	if depth > maxDepth {
		return Value{}, nil, fmt.Errorf("%w: nesting too deep", ErrMalformed)
	}
	v := Value{Tag: Tag(data[0])}
	data = data[1:]

	readU32 := func() (uint32, bool) {
		if len(data) < 4 {
			return 0, false
		}
		n := binary.LittleEndian.Uint32(data)
		data = data[4:]
		return n, true
	}
	readBytes := func(n uint32) ([]byte, bool) {
		if uint64(n) > uint64(len(data)) {
			return nil, false
		}
		b := data[:n:n]
		data = data[n:]
		return b, true
	}

	switch v.Tag {
	case TagNil:
	case TagErr:
		code, ok1 := readU32()
		n, ok2 := readU32()
		msg, ok3 := readBytes(n)
		if !ok1 || !ok2 || !ok3 {
			return Value{}, nil, fmt.Errorf("%w: truncated error", ErrMalformed)
		}
		v.ErrCode, v.ErrMsg = code, string(msg)
	case TagStr:
		n, ok1 := readU32()
		s, ok2 := readBytes(n)
		if !ok1 || !ok2 {
			return Value{}, nil, fmt.Errorf("%w: truncated string", ErrMalformed)
		}
		v.Str = s
	case TagInt:
		if len(data) < 8 {
			return Value{}, nil, fmt.Errorf("%w: truncated integer", ErrMalformed)
		}
		v.Int = int64(binary.LittleEndian.Uint64(data))
		data = data[8:]
	case TagArr:
		n, ok := readU32()
		// every element needs at least its tag
		if !ok || uint64(n) > uint64(len(data)) {
			return Value{}, nil, fmt.Errorf("%w: truncated array", ErrMalformed)
		}
		v.Arr = make([]Value, 0, n)
		for i := uint32(0); i < n; i++ {
			elem, rest, err := decodeValue(data, depth+1)
			if err != nil {
				return Value{}, nil, err
			}
			v.Arr = append(v.Arr, elem)
			data = rest
		}
	default:
		return Value{}, nil, fmt.Errorf("%w: unknown tag %d", ErrMalformed, v.Tag)
	}
	return v, data, nil
}

// String renders v the way the command line client prints it
func (v Value) String() string {
	switch v.Tag {
	case TagNil:
		return "(nil)"
	case TagErr:
		return fmt.Sprintf("(err) code=%d %s", v.ErrCode, v.ErrMsg)
	case TagStr:
		return strconv.Quote(string(v.Str))
	case TagInt:
		return fmt.Sprintf("(int) %d", v.Int)
	case TagArr:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("(arr) len=%d", len(v.Arr)))
		for i, elem := range v.Arr {
			sb.WriteString(fmt.Sprintf("\n%d) %s", i+1, elem.String()))
		}
		return sb.String()
	default:
		return "(unknown)"
	}
}
