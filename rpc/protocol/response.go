package protocol

import (
	"encoding/binary"
)

// Tag is the first byte of every serialized value
type Tag uint8

const (
	TagNil Tag = 0
	TagErr Tag = 1
	TagStr Tag = 2
	TagInt Tag = 3
	TagArr Tag = 5
)

func (t Tag) String() string {
	switch t {
	case TagNil:
		return "nil"
	case TagErr:
		return "err"
	case TagStr:
		return "str"
	case TagInt:
		return "int"
	case TagArr:
		return "arr"
	default:
		return "unknown"
	}
}

// Error codes carried by TagErr values
const (
	ErrCodeUnknownCommand uint32 = 1
	ErrCodeTooBig         uint32 = 2
	ErrCodeBadArgument    uint32 = 3
)

const tooBigMsg = "response is too big"

// ResponseWriter appends one response frame at a time to an output buffer.
//
//	w.Begin(out)
//	w.Arr(2)
//	w.Str(a)
//	w.Str(b)
//	out = w.Finish()
//
// Begin reserves the length header, the value methods append tagged values
// and Finish patches the header. A payload larger than the configured maximum
// is replaced by a single TagErr value with ErrCodeTooBig.
type ResponseWriter struct {
	buf     []byte
	start   int
	maxSize int
}

func NewResponseWriter(maxSize int) *ResponseWriter {
	return &ResponseWriter{maxSize: maxSize}
}

// Begin starts a new frame at the end of buf.
func (w *ResponseWriter) Begin(buf []byte) {
	w.start = len(buf)
	w.buf = append(buf, 0, 0, 0, 0)
}

// Size returns the payload size written since Begin.
func (w *ResponseWriter) Size() int {
	return len(w.buf) - w.start - HeaderSize
}

// Overflowed reports whether the payload already exceeds the maximum size.
// Producers of large responses may stop early, the result is the same error.
func (w *ResponseWriter) Overflowed() bool {
	return w.Size() > w.maxSize
}

func (w *ResponseWriter) Nil() {
	w.buf = append(w.buf, byte(TagNil))
}

func (w *ResponseWriter) Err(code uint32, msg string) {
	w.buf = append(w.buf, byte(TagErr))
	w.buf = binary.LittleEndian.AppendUint32(w.buf, code)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(len(msg)))
	w.buf = append(w.buf, msg...)
}

func (w *ResponseWriter) Str(s []byte) {
	w.buf = append(w.buf, byte(TagStr))
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// StrString is Str for string data
func (w *ResponseWriter) StrString(s string) {
	w.buf = append(w.buf, byte(TagStr))
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *ResponseWriter) Int(v int64) {
	w.buf = append(w.buf, byte(TagInt))
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

// Arr starts an array of n elements. The caller appends the n elements afterwards.
func (w *ResponseWriter) Arr(n uint32) {
	w.buf = append(w.buf, byte(TagArr))
	w.buf = binary.LittleEndian.AppendUint32(w.buf, n)
}

// Finish completes the frame and returns the output buffer.
// It reports whether the payload was replaced by a too-big error.
func (w *ResponseWriter) Finish() (buf []byte, tooBig bool) {
	if w.Overflowed() {
		w.buf = w.buf[:w.start+HeaderSize]
		w.Err(ErrCodeTooBig, tooBigMsg)
		tooBig = true
	}
	binary.LittleEndian.PutUint32(w.buf[w.start:], uint32(w.Size()))
	buf = w.buf
	w.buf = nil
	return buf, tooBig
}
