package protocol

import (
	"encoding/binary"
	"fmt"
)

// ParseRequest splits a request payload into its arguments:
//
//	[u32 count] ([u32 len][len bytes]) * count
//
// The payload must be consumed exactly. The returned arguments alias payload.
func ParseRequest(payload []byte) ([][]byte, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: missing argument count", ErrMalformed)
	}
	count := binary.LittleEndian.Uint32(payload)
	data := payload[4:]

	// every argument needs at least its length prefix
	if uint64(count)*4 > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d arguments do not fit into %d bytes", ErrMalformed, count, len(data))
	}

	args := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: missing length of argument %d", ErrMalformed, i)
		}
		n := binary.LittleEndian.Uint32(data)
		data = data[4:]
		if uint64(n) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: argument %d declares %d bytes, %d left", ErrMalformed, i, n, len(data))
		}
		args = append(args, data[:n:n])
		data = data[n:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data))
	}
	return args, nil
}

// AppendRequestPayload appends the request payload for args to dst.
func AppendRequestPayload(dst []byte, args ...[]byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(args)))
	for _, arg := range args {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(arg)))
		dst = append(dst, arg...)
	}
	return dst
}

// AppendRequest appends a complete request frame (header and payload) for args to dst.
func AppendRequest(dst []byte, args ...[]byte) []byte {
	start := len(dst)
	dst = append(dst, 0, 0, 0, 0)
	dst = AppendRequestPayload(dst, args...)
	binary.LittleEndian.PutUint32(dst[start:], uint32(len(dst)-start-HeaderSize))
	return dst
}
