// Package config resolves camera parameters from a shared configuration
// document. One document carries the configuration of every physical
// camera on the system, selected by index; each field resolves to a
// literal value, the AUTO sentinel, or the DEFAULT sentinel.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/c360/camerakit/errors"
)

// Well-known literal values for the Role field.
const (
	RoleMaster = "master"
	RoleSlave  = "slave"
)

// Well-known literal values for the Interface field.
const (
	InterfaceUSB      = "usb"
	InterfaceEthernet = "ethernet"
	InterfaceFireWire = "firewire"
)

// CameraParameters is the resolved configuration for one camera instance.
// After a successful Load every field is resolved: literal, AUTO, or
// DEFAULT, never unset. Fields absent from the document resolve to
// DEFAULT.
type CameraParameters struct {
	Role          Setting `json:"role"`
	VideoFormat   Setting `json:"video_format"`
	VideoMode     Setting `json:"video_mode"`
	ColorMode     Setting `json:"color_mode"`
	IsoSpeed      Setting `json:"iso_speed"`
	FrameRate     Setting `json:"frame_rate"`
	Shutter       Setting `json:"shutter"`
	WhiteBalanceU Setting `json:"white_balance_u"`
	WhiteBalanceV Setting `json:"white_balance_v"`
	Hue           Setting `json:"hue"`
	Saturation    Setting `json:"saturation"`
	Gamma         Setting `json:"gamma"`
	ExposureTime  Setting `json:"exposure_time"`
	Gain          Setting `json:"gain"`
	Brightness    Setting `json:"brightness"`
	ImageWidth    Setting `json:"image_width"`
	ImageHeight   Setting `json:"image_height"`
	Interface     Setting `json:"interface"`
	Address       Setting `json:"address"`
	BufferSize    Setting `json:"buffer_size"`
}

// Document is the configuration source: one entry per physical camera
// index.
type Document struct {
	Cameras []CameraParameters `json:"cameras"`
}

// fields returns pointers to every parameter field, paired with its
// document key, in document order.
func (p *CameraParameters) fields() []struct {
	name    string
	setting *Setting
} {
	return []struct {
		name    string
		setting *Setting
	}{
		{"role", &p.Role},
		{"video_format", &p.VideoFormat},
		{"video_mode", &p.VideoMode},
		{"color_mode", &p.ColorMode},
		{"iso_speed", &p.IsoSpeed},
		{"frame_rate", &p.FrameRate},
		{"shutter", &p.Shutter},
		{"white_balance_u", &p.WhiteBalanceU},
		{"white_balance_v", &p.WhiteBalanceV},
		{"hue", &p.Hue},
		{"saturation", &p.Saturation},
		{"gamma", &p.Gamma},
		{"exposure_time", &p.ExposureTime},
		{"gain", &p.Gain},
		{"brightness", &p.Brightness},
		{"image_width", &p.ImageWidth},
		{"image_height", &p.ImageHeight},
		{"interface", &p.Interface},
		{"address", &p.Address},
		{"buffer_size", &p.BufferSize},
	}
}

// resolve fills every unset field with the DEFAULT sentinel so that the
// invariant "resolved after Init" holds regardless of document coverage.
func (p *CameraParameters) resolve() {
	for _, f := range p.fields() {
		if !f.setting.IsSet() {
			*f.setting = Default()
		}
	}
}

// Validate checks semantic constraints the JSON schema cannot express.
func (p *CameraParameters) Validate() error {
	if role, ok := p.Role.Value(); ok {
		switch strings.ToLower(role) {
		case RoleMaster, RoleSlave:
		default:
			return errors.WrapConfig(
				fmt.Errorf("unknown camera role %q", role),
				"CameraParameters", "Validate", "role validation")
		}
	}

	if iface, ok := p.Interface.Value(); ok {
		switch strings.ToLower(iface) {
		case InterfaceUSB, InterfaceEthernet, InterfaceFireWire:
		default:
			return errors.WrapConfig(
				fmt.Errorf("unknown camera interface %q", iface),
				"CameraParameters", "Validate", "interface validation")
		}
	}

	for _, f := range []struct {
		name    string
		setting Setting
	}{
		{"image_width", p.ImageWidth},
		{"image_height", p.ImageHeight},
		{"buffer_size", p.BufferSize},
	} {
		if !f.setting.IsLiteral() {
			continue
		}
		v, err := f.setting.Int()
		if err != nil {
			return errors.WrapConfig(err, "CameraParameters", "Validate", f.name+" parsing")
		}
		if v <= 0 {
			return errors.WrapConfig(
				fmt.Errorf("%s must be positive, got %d", f.name, v),
				"CameraParameters", "Validate", f.name+" validation")
		}
	}

	if p.FrameRate.IsLiteral() {
		v, err := p.FrameRate.Float()
		if err != nil {
			return errors.WrapConfig(err, "CameraParameters", "Validate", "frame_rate parsing")
		}
		if v <= 0 {
			return errors.WrapConfig(
				fmt.Errorf("frame_rate must be positive, got %g", v),
				"CameraParameters", "Validate", "frame_rate validation")
		}
	}

	return nil
}

// Clone returns a deep copy of the parameters.
func (p *CameraParameters) Clone() *CameraParameters {
	if p == nil {
		return &CameraParameters{}
	}
	copied := *p
	return &copied
}

// Equal reports whether two parameter sets resolve identically field for
// field.
func (p *CameraParameters) Equal(other *CameraParameters) bool {
	if p == nil || other == nil {
		return p == other
	}
	a, b := p.fields(), other.fields()
	for i := range a {
		if *a[i].setting != *b[i].setting {
			return false
		}
	}
	return true
}

// Load reads a configuration document from disk and resolves the
// parameters for the camera at the given index.
func Load(path string, index int) (*CameraParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfig(err, "config", "Load", "document read")
	}
	return Parse(data, index)
}

// Parse resolves the parameters for the camera at the given index from a
// raw configuration document.
func Parse(data []byte, index int) (*CameraParameters, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Camera(index)
}

// ParseDocument validates and decodes a full configuration document.
func ParseDocument(data []byte) (*Document, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapConfig(err, "config", "ParseDocument", "document decoding")
	}

	for i := range doc.Cameras {
		doc.Cameras[i].resolve()
		if err := doc.Cameras[i].Validate(); err != nil {
			return nil, errors.Wrap(err, "config", "ParseDocument",
				fmt.Sprintf("camera %d validation", i))
		}
	}

	return &doc, nil
}

// Camera returns the resolved parameters for one camera index.
func (d *Document) Camera(index int) (*CameraParameters, error) {
	if index < 0 || index >= len(d.Cameras) {
		return nil, errors.WrapIndex(
			fmt.Errorf("%w: index %d, document has %d cameras",
				errors.ErrNoSuchCamera, index, len(d.Cameras)),
			"config", "Camera", "index lookup")
	}
	params := d.Cameras[index].Clone()
	return params, nil
}

// Save writes a single-camera document to disk in the configuration
// schema, enabling round-trip reload via Load(path, 0).
func Save(path string, params *CameraParameters) error {
	doc := &Document{Cameras: []CameraParameters{*params.Clone()}}
	return doc.Save(path)
}

// Save writes the document to disk.
func (d *Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return errors.WrapIO(err, "config", "Save", "document encoding")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapIO(err, "config", "Save", "document write")
	}
	return nil
}
