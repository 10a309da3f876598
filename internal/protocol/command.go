package protocol

import (
	"encoding/json"
	"fmt"
)

// CommandKind identifies the encoding of an inbound control payload.
// It is the final segment of the command topic.
type CommandKind string

// CommandKindJSON is the only kind currently understood: a JSON document
// matching Command.
const CommandKindJSON CommandKind = "json"

// Sub-payload selector bytes for OpcodeColor frames.
const (
	selectorScene byte = 0x04
	selectorMusic byte = 0x13
	selectorColor byte = 0x15
	selectorVideo byte = 0x00
)

// musicModes maps music effect names to their control byte.
var musicModes = map[string]byte{
	"rhytm":     0x03,
	"energetic": 0x05,
	"spectrum":  0x04,
	"rolling":   0x06,
}

// defaultSensitivity is used when a music or video effect does not carry one.
const defaultSensitivity = 100

// RGB is an explicit colour in the command payload.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Command is the semantic command decoded from a "json" control payload.
// Every field is optional; brightness and state are encoded independently of
// the colour/effect resolution.
//
// Brightness and colour temperature values are passed through to the device
// unvalidated, matching the devices' tolerance for out-of-range values.
type Command struct {
	// Color is an explicit RGB colour.
	Color *RGB `json:"color,omitempty"`

	// ColorTemp is a colour temperature in mireds.
	ColorTemp *float64 `json:"color_temp,omitempty"`

	// Brightness is 0-100.
	Brightness *int `json:"brightness,omitempty"`

	// State is "ON" or "OFF"; anything other than "ON" switches off.
	State *string `json:"state,omitempty"`

	// Effect selects a scene, music mode, or video mode, and carries the
	// optional segment mask for colour commands.
	Effect *Effect `json:"effect,omitempty"`
}

// Effect is the decoded effect selector. Exactly one of Scene, Music, or
// Video is normally set; Mask may accompany a plain colour command.
type Effect struct {
	// Scene is a named preset pattern, resolved via the model's scene table.
	Scene string `json:"scene,omitempty"`

	// Music is a music-reactive mode name (see musicModes).
	Music string `json:"music,omitempty"`

	// Video is a video-reactive mode: "all" or "part".
	Video string `json:"video,omitempty"`

	// Mode qualifies Music ("calm"/"energetic") and Video ("game"/"movie").
	Mode string `json:"mode,omitempty"`

	// SoundEffect enables audio reaction in video mode.
	SoundEffect bool `json:"sound_effect,omitempty"`

	// Sensitivity is 0-100. The wire key spelling is the vendor's.
	Sensitivity *int `json:"sensivity,omitempty"`

	// TVBrightness holds exactly four per-edge brightness values for video
	// mode; any other length falls back to the default.
	TVBrightness []int `json:"tv_brightness,omitempty"`

	// Mask is a per-segment bit-string for colour commands: characters
	// 1, x, X, + and # enable a segment, everything else disables it.
	Mask string `json:"mask,omitempty"`
}

// UnmarshalJSON accepts the effect field in its three observed shapes: a JSON
// object, a string containing a JSON-encoded object, or a string containing a
// scene name (possibly itself JSON-encoded).
func (e *Effect) UnmarshalJSON(data []byte) error {
	type effectAlias Effect

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		// Nested encoding: the string contents may themselves be JSON.
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			*e = Effect{Scene: inner}
			return nil
		}
		var obj effectAlias
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			// Not JSON at all: treat the raw text as a scene name.
			*e = Effect{Scene: s}
			return nil
		}
		*e = Effect(obj)
		return nil
	}

	var obj effectAlias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = Effect(obj)
	return nil
}

// Logger defines the logging interface used by the Encoder.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Encoder translates semantic commands into device command frames.
//
// Encoding is pure: an Encoder holds no device state and is safe for
// concurrent use. Unknown command kinds, scene names, and music modes produce
// no frames and a warning rather than an error; other fields of the same
// command are still encoded.
type Encoder struct {
	logger Logger
}

// NewEncoder creates an Encoder with a no-op logger.
func NewEncoder() *Encoder {
	return &Encoder{logger: noopLogger{}}
}

// SetLogger sets the logger for encode-time warnings.
func (e *Encoder) SetLogger(logger Logger) {
	e.logger = logger
}

// Encode decodes a raw control payload and encodes it into an ordered frame
// sequence for the given device model.
//
// Parameters:
//   - kind: Command kind from the topic; only CommandKindJSON is supported
//   - payload: Raw message payload
//   - model: Device model (selects the scene table)
//
// Returns:
//   - []Frame: Zero or more frames, in transmission order
//   - error: ErrMalformedCommand if the payload is not a valid command
//     document; ErrPayloadTooLong if an assembled sub-payload overflows
func (e *Encoder) Encode(kind CommandKind, payload []byte, model string) ([]Frame, error) {
	if kind != CommandKindJSON {
		e.logger.Warn("unsupported command kind", "kind", string(kind))
		return nil, nil
	}

	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
	}

	return e.EncodeCommand(cmd, model)
}

// EncodeCommand encodes an already-decoded command.
//
// Resolution order for the OpcodeColor frame: scene, then music, then video,
// then plain colour / colour temperature — first match wins. Brightness and
// state frames are appended independently, in that order.
func (e *Encoder) EncodeCommand(cmd Command, model string) ([]Frame, error) {
	var frames []Frame

	appendFrame := func(opcode byte, payload []byte) error {
		f, err := NewFrame(opcode, payload)
		if err != nil {
			return err
		}
		frames = append(frames, f)
		return nil
	}

	switch {
	case cmd.Effect != nil && cmd.Effect.Scene != "":
		code, ok := SceneCode(model, cmd.Effect.Scene)
		if !ok {
			e.logger.Warn("unknown scene", "scene", cmd.Effect.Scene, "model", model)
			break
		}
		e.logger.Debug("applying scene", "scene", cmd.Effect.Scene, "code", code)
		if err := appendFrame(OpcodeColor, []byte{selectorScene, byte(code), byte(code >> 8)}); err != nil {
			return nil, err
		}

	case cmd.Effect != nil && cmd.Effect.Music != "":
		payload, ok := e.musicPayload(cmd)
		if !ok {
			break
		}
		if err := appendFrame(OpcodeColor, payload); err != nil {
			return nil, err
		}

	case cmd.Effect != nil && cmd.Effect.Video != "":
		if err := appendFrame(OpcodeColor, videoPayload(cmd)); err != nil {
			return nil, err
		}

	case cmd.Color != nil || cmd.ColorTemp != nil:
		payload, ok := colorPayload(cmd)
		if !ok {
			e.logger.Warn("colour command without usable colour or temperature")
			break
		}
		if err := appendFrame(OpcodeColor, payload); err != nil {
			return nil, err
		}
	}

	if cmd.Brightness != nil {
		if err := appendFrame(OpcodeBrightness, []byte{byte(*cmd.Brightness)}); err != nil {
			return nil, err
		}
	}

	if cmd.State != nil {
		var on byte
		if *cmd.State == "ON" {
			on = 1
		}
		if err := appendFrame(OpcodePower, []byte{on}); err != nil {
			return nil, err
		}
	}

	return frames, nil
}

// musicPayload builds the music-mode sub-payload:
// [0x13, mode, sensitivity, calmFlag] plus an optional [0x01, r, g, b] when
// the command carries an explicit colour.
func (e *Encoder) musicPayload(cmd Command) ([]byte, bool) {
	eff := cmd.Effect

	mode, ok := musicModes[eff.Music]
	if !ok {
		e.logger.Warn("unknown music mode", "music", eff.Music)
		return nil, false
	}

	var calm byte
	if eff.Mode == "" || eff.Mode == "calm" {
		calm = 1
	}

	payload := []byte{selectorMusic, mode, sensitivity(eff), calm}
	if cmd.Color != nil {
		payload = append(payload, 0x01, cmd.Color.R, cmd.Color.G, cmd.Color.B)
	}
	return payload, true
}

// videoPayload builds the video-mode sub-payload:
// [0x00, isAll, isGame, 0x00, isSound, sensitivity, 0x00] + 4 brightness bytes.
func videoPayload(cmd Command) []byte {
	eff := cmd.Effect

	payload := []byte{
		selectorVideo,
		boolByte(eff.Video == "all"),
		boolByte(eff.Mode == "game"),
		0x00,
		boolByte(eff.SoundEffect),
		sensitivity(eff),
		0x00,
	}

	bri := eff.TVBrightness
	if len(bri) != 4 {
		bri = []int{defaultSensitivity, defaultSensitivity, defaultSensitivity, defaultSensitivity}
	}
	for _, v := range bri {
		payload = append(payload, byte(v))
	}
	return payload
}

// colorPayload builds the colour sub-payload. Colour temperature takes
// precedence over explicit RGB. The Kelvin value is emitted little-endian and
// unclamped; only the derived RGB approximation is clamped.
func colorPayload(cmd Command) ([]byte, bool) {
	payload := []byte{selectorColor, 0x01}

	switch {
	case cmd.ColorTemp != nil && *cmd.ColorTemp != 0:
		kelvin := MiredToKelvin(*cmd.ColorTemp)
		r, g, b := KelvinToRGB(float64(kelvin))
		payload = append(payload, 0x00, 0x00, 0x00,
			byte(kelvin&0xff), byte((kelvin>>8)&0xff), r, g, b)
	case cmd.Color != nil:
		payload = append(payload, cmd.Color.R, cmd.Color.G, cmd.Color.B,
			0x00, 0x00, 0x00, 0x00, 0x00)
	default:
		return nil, false
	}

	return append(payload, maskBytes(cmd.Effect)...), true
}

// maskBytes folds the effect mask bit-string into three little-endian bytes.
// The accumulator starts at zero; characters fold in most-significant first.
// Without a mask, all segments are illuminated.
func maskBytes(eff *Effect) []byte {
	if eff == nil || eff.Mask == "" {
		return []byte{0xff, 0xff, 0xff}
	}

	var val uint32
	for _, ch := range eff.Mask {
		var bit uint32
		switch ch {
		case '1', 'x', 'X', '+', '#':
			bit = 1
		}
		val = val<<1 | bit
	}
	return []byte{byte(val), byte(val >> 8), byte(val >> 16)}
}

// sensitivity returns the effect's sensitivity or the default.
func sensitivity(eff *Effect) byte {
	if eff.Sensitivity != nil {
		return byte(*eff.Sensitivity)
	}
	return defaultSensitivity
}

// boolByte converts a bool to its wire flag byte.
func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
