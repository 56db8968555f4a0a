// Package protocol implements the wire format of the server.
//
// Every message is a frame: a 4 byte little-endian length followed by the payload.
//
// A request payload is a list of byte strings:
//
//	[u32 count] ([u32 len][bytes]) * count
//
// A response payload is a single tagged value, arrays nest further values:
//
//	0 nil
//	1 error   [u32 code][u32 len][msg]
//	2 string  [u32 len][bytes]
//	3 integer [i64]
//	5 array   [u32 count] value * count
//
// The server side uses PeekFrame, ParseRequest and ResponseWriter and never
// allocates per value. The client side uses AppendRequest, ReadFrame and DecodeValue.
package protocol
