package camera

// Kind identifies a camera backend. Selection is an explicit caller
// decision made at construction time; no hardware probing happens here.
type Kind string

const (
	// KindVirtual is the file-replay virtual camera.
	KindVirtual Kind = "virtual"
	// KindSimulated is the synthetic frame generator used for tests and
	// bring-up without hardware.
	KindSimulated Kind = "simulated"
	// KindIC is an Imaging Source industrial FireWire camera.
	KindIC Kind = "ic"
	// KindAxis is an Axis IP camera reached over HTTP.
	KindAxis Kind = "axis"
	// KindPike is an AVT Pike FireWire camera.
	KindPike Kind = "pike"
	// KindVideoCapture is a generic OS video-capture device.
	KindVideoCapture Kind = "videocapture"
	// KindUEye is an IDS uEye USB camera.
	KindUEye Kind = "ueye"
)

// String returns the backend identifier.
func (k Kind) String() string { return string(k) }
