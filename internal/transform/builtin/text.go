// Package builtin provides the transforms shipped with smap itself: a
// reversible text obfuscator used by the round-trip test harness, and an
// explicit no-op passthrough.
package builtin

import "fmt"

// TextOptions controls the text transform's obfuscation strength.
type TextOptions struct {
	// Rotation is the byte-rotation amount (0-255) XORed with a running
	// counter. The same value must be supplied to reverse the transform.
	Rotation byte `json:"rotation"`
}

// textTransform is a reversible byte-obfuscation transform: each output byte
// is the input byte XORed with (Rotation + its index mod 256). It exists so
// the compiler has a default, cheap, fully-reversible transform to exercise
// the TRANSFORMED flag and target-extension renaming without needing a real
// asset codec -- the reader-side test harness reverses it with the same
// Rotation to recover the original bytes.
type textTransform struct{}

// NewText constructs the "text" transform, registered for source extension
// "txt" and appending the target extension "utxt".
func NewText() *textTransform {
	return &textTransform{}
}

func (t *textTransform) TypeName() string     { return "text" }
func (t *textTransform) SourceExts() []string { return []string{"txt"} }
func (t *textTransform) TargetExt() string    { return "utxt" }

func (t *textTransform) DefaultOptions() any {
	return TextOptions{Rotation: 0x5a}
}

func (t *textTransform) DeserializeOptions(raw map[string]any) (any, error) {
	if len(raw) == 0 {
		return t.DefaultOptions(), nil
	}

	opts := t.DefaultOptions().(TextOptions)
	if v, ok := raw["rotation"]; ok {
		n, ok := toInt(v)
		if !ok || n < 0 || n > 255 {
			return nil, fmt.Errorf("text transform: rotation must be an integer 0-255, got %v", v)
		}
		opts.Rotation = byte(n)
	}
	return opts, nil
}

func (t *textTransform) Run(data []byte, sourceExt string, opts any) ([]byte, error) {
	to, ok := opts.(TextOptions)
	if !ok {
		return nil, fmt.Errorf("text transform: unexpected options type %T", opts)
	}
	return xorRotate(data, to.Rotation), nil
}

// Reverse undoes Run: XOR-rotate is its own inverse given the same rotation
// and the same byte offsets, since XOR is self-inverse. Exposed for the
// reader-side round-trip test harness described in spec testable property 2.
func Reverse(data []byte, rotation byte) []byte {
	return xorRotate(data, rotation)
}

func xorRotate(data []byte, rotation byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ (rotation + byte(i))
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
