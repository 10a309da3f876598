package protocol

import "fmt"

// Frame layout constants.
const (
	// FrameLength is the fixed size of every command frame.
	FrameLength = 20

	// MaxPayloadLength is the largest sub-payload that fits in a frame:
	// 20 bytes minus frame type, opcode, and checksum.
	MaxPayloadLength = 17

	// frameType marks every outgoing command frame.
	frameType byte = 0x33
)

// Opcodes understood by the devices.
const (
	// OpcodePower switches the device on or off. Payload: [0x01] or [0x00].
	OpcodePower byte = 0x01

	// OpcodeBrightness sets brightness. Payload: [0-100].
	OpcodeBrightness byte = 0x04

	// OpcodeColor carries colour, colour temperature, scene, music and
	// video sub-payloads, distinguished by their selector byte.
	OpcodeColor byte = 0x05
)

// Frame is a single fixed-length command unit written to a device's control
// characteristic. Layout:
//
//	byte 0      frame type (0x33)
//	byte 1      opcode
//	bytes 2-18  sub-payload, zero padded
//	byte 19     checksum: XOR of bytes 0-18
type Frame [FrameLength]byte

// NewFrame assembles a frame from an opcode and sub-payload.
//
// The payload is padded with zero bytes to byte 18 and the trailing checksum
// byte is computed over the preceding 19 bytes.
//
// Parameters:
//   - opcode: Device opcode (OpcodePower, OpcodeBrightness, OpcodeColor)
//   - payload: Sub-payload, at most MaxPayloadLength bytes
//
// Returns:
//   - Frame: Assembled frame
//   - error: ErrPayloadTooLong if the payload exceeds MaxPayloadLength
func NewFrame(opcode byte, payload []byte) (Frame, error) {
	var f Frame
	if len(payload) > MaxPayloadLength {
		return f, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLong, len(payload), MaxPayloadLength)
	}

	f[0] = frameType
	f[1] = opcode
	copy(f[2:], payload)
	f[FrameLength-1] = xorChecksum(f[:FrameLength-1])

	return f, nil
}

// xorChecksum XORs all bytes together.
func xorChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// Opcode returns the frame's opcode byte.
func (f Frame) Opcode() byte {
	return f[1]
}

// Checksum returns the frame's trailing checksum byte.
func (f Frame) Checksum() byte {
	return f[FrameLength-1]
}

// Verify reports whether the checksum byte matches the frame contents.
func (f Frame) Verify() bool {
	return xorChecksum(f[:FrameLength-1]) == f[FrameLength-1]
}

// Bytes returns the frame as a freshly allocated slice for transmission.
func (f Frame) Bytes() []byte {
	out := make([]byte, FrameLength)
	copy(out, f[:])
	return out
}

// String returns a compact hex representation for logging.
func (f Frame) String() string {
	return fmt.Sprintf("Frame{op:%#02x, data:%X}", f.Opcode(), f[:])
}
