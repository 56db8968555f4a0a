package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of the length prefix of every frame
const HeaderSize = 4

var (
	// ErrMalformed is returned for payloads that do not match their declared lengths
	ErrMalformed = errors.New("malformed payload")
	// ErrFrameTooLarge is returned for frames declaring more than the allowed size
	ErrFrameTooLarge = errors.New("frame too large")
)

// PeekFrame inspects buf for a complete frame.
// It returns the payload length and whether header and payload are fully buffered.
// A declared length above maxSize is reported as ErrFrameTooLarge as soon as the
// header is available, without waiting for the payload.
func PeekFrame(buf []byte, maxSize int) (payloadLen int, complete bool, err error) {
	if len(buf) < HeaderSize {
		return 0, false, nil
	}
	n := binary.LittleEndian.Uint32(buf)
	if uint64(n) > uint64(maxSize) {
		return 0, false, fmt.Errorf("%w: declared %d bytes, max %d", ErrFrameTooLarge, n, maxSize)
	}
	payloadLen = int(n)
	return payloadLen, len(buf) >= HeaderSize+payloadLen, nil
}

// ReadFrame reads one complete frame from r and returns its payload.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(header[:])
	if uint64(n) > uint64(maxSize) {
		return nil, fmt.Errorf("%w: declared %d bytes, max %d", ErrFrameTooLarge, n, maxSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
