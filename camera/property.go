package camera

// PropertyKind identifies a runtime-tunable camera property.
type PropertyKind int

const (
	// PropBrightness is the target image brightness.
	PropBrightness PropertyKind = iota
	// PropShutter is the shutter speed.
	PropShutter
	// PropExposureTime is the sensor exposure time.
	PropExposureTime
	// PropGain is the analog signal gain.
	PropGain
	// PropGamma is the gamma correction factor.
	PropGamma
	// PropHue is the color hue shift.
	PropHue
	// PropSaturation is the color saturation.
	PropSaturation
	// PropWhiteBalanceU is the U (blue) white-balance component.
	PropWhiteBalanceU
	// PropWhiteBalanceV is the V (red) white-balance component.
	PropWhiteBalanceV
	// PropFrameRate is the target acquisition rate in frames per second.
	PropFrameRate
)

// String returns the property identifier used in logs and dumps.
func (pk PropertyKind) String() string {
	switch pk {
	case PropBrightness:
		return "brightness"
	case PropShutter:
		return "shutter"
	case PropExposureTime:
		return "exposure_time"
	case PropGain:
		return "gain"
	case PropGamma:
		return "gamma"
	case PropHue:
		return "hue"
	case PropSaturation:
		return "saturation"
	case PropWhiteBalanceU:
		return "white_balance_u"
	case PropWhiteBalanceV:
		return "white_balance_v"
	case PropFrameRate:
		return "frame_rate"
	default:
		return "unknown"
	}
}

// Property is one runtime-settable or readable attribute: a numeric
// value plus an optional AUTO flag. With Auto set the device controls
// the value itself and Value is advisory.
type Property struct {
	Kind  PropertyKind
	Value float64
	Auto  bool
}

// Range describes a driver's support for one property kind.
type Range struct {
	Min float64
	Max float64

	// SupportsAuto reports whether the device can control this property
	// itself.
	SupportsAuto bool

	// Clamps reports that the device's documented behavior for
	// out-of-range values is clamping to the nearest bound. Without it,
	// out-of-range values are rejected outright.
	Clamps bool

	// Default is the factory default applied by SetPropertyDefaults.
	Default float64

	// DefaultAuto reports whether the factory default is AUTO mode.
	DefaultAuto bool
}

// Contains reports whether a value lies inside the range.
func (r Range) Contains(value float64) bool {
	return value >= r.Min && value <= r.Max
}

// Clamp returns the value limited to the range bounds.
func (r Range) Clamp(value float64) float64 {
	if value < r.Min {
		return r.Min
	}
	if value > r.Max {
		return r.Max
	}
	return value
}
