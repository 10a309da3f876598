// Package protocol encodes semantic lighting commands into the devices'
// binary frame format.
//
// This package manages:
//   - Decoding JSON control payloads into Command values
//   - Resolving effect selectors (scene, music, video, colour)
//   - Colour temperature (mired → Kelvin → RGB) approximation
//   - Frame assembly: fixed 20-byte, XOR-checksummed units
//
// # Frame format
//
// Every command is one or more 20-byte frames:
//
//	[0x33, opcode, payload..., padding..., checksum]
//
// The checksum is the XOR of the first 19 bytes. Sub-payloads longer than
// 17 bytes cannot be framed and fail with ErrPayloadTooLong.
//
// # Purity
//
// Encoding performs no I/O and touches no shared state; the Encoder is safe
// for concurrent use. Degraded inputs (unknown kind, scene, or music mode)
// yield warnings and zero frames for the affected field while the remaining
// fields of the same command are still encoded.
package protocol
