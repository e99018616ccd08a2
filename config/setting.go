package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/camerakit/errors"
)

// Mode describes how a parameter field resolves at runtime.
type Mode int

const (
	// ModeUnset marks a field that has not been resolved. Load never
	// returns parameters containing unset fields.
	ModeUnset Mode = iota
	// ModeLiteral carries an explicit value from the configuration source.
	ModeLiteral
	// ModeAuto lets the device pick the value at runtime.
	ModeAuto
	// ModeDefault applies the backend's factory default.
	ModeDefault
)

// Tokens recognized in configuration documents. Matching is
// case-insensitive on load; Save always writes the canonical form.
const (
	tokenAuto    = "AUTO"
	tokenDefault = "DEFAULT"
)

// Setting is one camera parameter field: a literal value, the AUTO
// sentinel, or the DEFAULT sentinel. It resolves once at Init and is
// never re-parsed from text afterwards.
type Setting struct {
	mode  Mode
	value string
}

// Literal returns a setting carrying an explicit value.
func Literal(value string) Setting {
	return Setting{mode: ModeLiteral, value: value}
}

// LiteralInt returns a setting carrying an explicit integer value.
func LiteralInt(value int) Setting {
	return Literal(strconv.Itoa(value))
}

// LiteralFloat returns a setting carrying an explicit float value.
func LiteralFloat(value float64) Setting {
	return Literal(strconv.FormatFloat(value, 'g', -1, 64))
}

// Auto returns the AUTO sentinel setting.
func Auto() Setting {
	return Setting{mode: ModeAuto}
}

// Default returns the DEFAULT sentinel setting.
func Default() Setting {
	return Setting{mode: ModeDefault}
}

// Mode returns how this setting resolves.
func (s Setting) Mode() Mode { return s.mode }

// IsLiteral reports whether the setting carries an explicit value.
func (s Setting) IsLiteral() bool { return s.mode == ModeLiteral }

// IsAuto reports whether the device picks the value at runtime.
func (s Setting) IsAuto() bool { return s.mode == ModeAuto }

// IsDefault reports whether the factory default applies.
func (s Setting) IsDefault() bool { return s.mode == ModeDefault }

// IsSet reports whether the setting has been resolved at all.
func (s Setting) IsSet() bool { return s.mode != ModeUnset }

// Value returns the literal value and whether one is present.
func (s Setting) Value() (string, bool) {
	return s.value, s.mode == ModeLiteral
}

// Int parses the literal value as an integer.
func (s Setting) Int() (int, error) {
	if s.mode != ModeLiteral {
		return 0, fmt.Errorf("setting %s has no literal value", s)
	}
	v, err := strconv.Atoi(strings.TrimSpace(s.value))
	if err != nil {
		return 0, fmt.Errorf("setting %q is not an integer: %w", s.value, err)
	}
	return v, nil
}

// IntOr returns the literal integer value, or def when the setting is
// AUTO, DEFAULT, or not an integer.
func (s Setting) IntOr(def int) int {
	v, err := s.Int()
	if err != nil {
		return def
	}
	return v
}

// Float parses the literal value as a float.
func (s Setting) Float() (float64, error) {
	if s.mode != ModeLiteral {
		return 0, fmt.Errorf("setting %s has no literal value", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.value), 64)
	if err != nil {
		return 0, fmt.Errorf("setting %q is not a number: %w", s.value, err)
	}
	return v, nil
}

// FloatOr returns the literal float value, or def when the setting is
// AUTO, DEFAULT, or not numeric.
func (s Setting) FloatOr(def float64) float64 {
	v, err := s.Float()
	if err != nil {
		return def
	}
	return v
}

// String returns the document representation: the literal text, "AUTO",
// "DEFAULT", or "<unset>".
func (s Setting) String() string {
	switch s.mode {
	case ModeLiteral:
		return s.value
	case ModeAuto:
		return tokenAuto
	case ModeDefault:
		return tokenDefault
	default:
		return "<unset>"
	}
}

// MarshalJSON writes the setting in document form.
func (s Setting) MarshalJSON() ([]byte, error) {
	if s.mode == ModeUnset {
		return nil, errors.WrapConfig(
			fmt.Errorf("cannot serialize unset setting"),
			"Setting", "MarshalJSON", "serialization")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON reads a setting from document form. Numbers are accepted
// as well as strings so hand-written documents stay forgiving.
func (s *Setting) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.WrapConfig(err, "Setting", "UnmarshalJSON", "token parsing")
	}

	switch v := raw.(type) {
	case string:
		*s = ParseSetting(v)
		return nil
	case float64:
		*s = Literal(strconv.FormatFloat(v, 'g', -1, 64))
		return nil
	default:
		return errors.WrapConfig(
			fmt.Errorf("unsupported setting token %v", raw),
			"Setting", "UnmarshalJSON", "token parsing")
	}
}

// ParseSetting resolves a document token into a Setting.
func ParseSetting(token string) Setting {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case tokenAuto:
		return Auto()
	case tokenDefault:
		return Default()
	default:
		return Literal(strings.TrimSpace(token))
	}
}
