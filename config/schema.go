package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/camerakit/errors"
)

// documentSchema constrains the configuration document shape before
// decoding: a cameras array whose entries hold string or numeric setting
// tokens under known keys. Token semantics (AUTO/DEFAULT/literal) are
// resolved after decoding, not here.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["cameras"],
  "properties": {
    "cameras": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "role":            {"$ref": "#/definitions/setting"},
          "video_format":    {"$ref": "#/definitions/setting"},
          "video_mode":      {"$ref": "#/definitions/setting"},
          "color_mode":      {"$ref": "#/definitions/setting"},
          "iso_speed":       {"$ref": "#/definitions/setting"},
          "frame_rate":      {"$ref": "#/definitions/setting"},
          "shutter":         {"$ref": "#/definitions/setting"},
          "white_balance_u": {"$ref": "#/definitions/setting"},
          "white_balance_v": {"$ref": "#/definitions/setting"},
          "hue":             {"$ref": "#/definitions/setting"},
          "saturation":      {"$ref": "#/definitions/setting"},
          "gamma":           {"$ref": "#/definitions/setting"},
          "exposure_time":   {"$ref": "#/definitions/setting"},
          "gain":            {"$ref": "#/definitions/setting"},
          "brightness":      {"$ref": "#/definitions/setting"},
          "image_width":     {"$ref": "#/definitions/setting"},
          "image_height":    {"$ref": "#/definitions/setting"},
          "interface":       {"$ref": "#/definitions/setting"},
          "address":         {"$ref": "#/definitions/setting"},
          "buffer_size":     {"$ref": "#/definitions/setting"}
        }
      }
    }
  },
  "definitions": {
    "setting": {
      "oneOf": [
        {"type": "string"},
        {"type": "number"}
      ]
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// validateSchema checks a raw document against the configuration schema.
func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.WrapConfig(err, "config", "validateSchema", "schema evaluation")
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return errors.WrapConfig(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
			"config", "validateSchema", "document validation")
	}

	return nil
}
