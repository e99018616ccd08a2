package camera

import (
	"fmt"
	"io"
	"sort"
)

// PrintInformation writes a human-readable dump of the instance to w:
// identity, lifecycle state, resolved parameters and, while open, the
// supported properties with their ranges and live values. Intended for
// diagnostics and the CLI's -info flag.
func (c *Camera) PrintInformation(w io.Writer) error {
	c.mu.Lock()
	state := c.state
	params := c.params
	if params != nil {
		params = params.Clone()
	}
	c.mu.Unlock()

	if _, err := fmt.Fprintf(w, "camera:  %s\n", c.name); err != nil {
		return err
	}
	fmt.Fprintf(w, "id:      %s\n", c.id)
	fmt.Fprintf(w, "kind:    %s\n", c.driver.Kind())
	fmt.Fprintf(w, "state:   %s\n", state)

	if params != nil {
		fmt.Fprintln(w, "parameters:")
		fmt.Fprintf(w, "  role:           %s\n", params.Role.String())
		fmt.Fprintf(w, "  interface:      %s\n", params.Interface.String())
		fmt.Fprintf(w, "  address:        %s\n", params.Address.String())
		fmt.Fprintf(w, "  video_format:   %s\n", params.VideoFormat.String())
		fmt.Fprintf(w, "  video_mode:     %s\n", params.VideoMode.String())
		fmt.Fprintf(w, "  color_mode:     %s\n", params.ColorMode.String())
		fmt.Fprintf(w, "  image_width:    %s\n", params.ImageWidth.String())
		fmt.Fprintf(w, "  image_height:   %s\n", params.ImageHeight.String())
		fmt.Fprintf(w, "  frame_rate:     %s\n", params.FrameRate.String())
		fmt.Fprintf(w, "  buffer_size:    %s\n", params.BufferSize.String())
	}

	if state != StateOpen {
		return nil
	}

	ranges := c.driver.Properties()
	kinds := make([]PropertyKind, 0, len(ranges))
	for kind := range ranges {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	fmt.Fprintln(w, "properties:")
	for _, kind := range kinds {
		rng := ranges[kind]
		line := fmt.Sprintf("  %-16s range [%g, %g] default %g", kind, rng.Min, rng.Max, rng.Default)
		if rng.SupportsAuto {
			line += " auto"
		}
		if p, err := c.driver.GetProperty(kind); err == nil {
			if p.Auto {
				line += " current AUTO"
			} else {
				line += fmt.Sprintf(" current %g", p.Value)
			}
		}
		fmt.Fprintln(w, line)
	}

	if n := c.GetNumberOfImages(); n != UnboundedImages {
		fmt.Fprintf(w, "images:  %d\n", n)
	}

	health := c.Health()
	fmt.Fprintf(w, "frames:  delivered %d, dropped %d, faults %d\n",
		health.FramesDelivered, health.DroppedFrames, health.DeviceFaults)
	return nil
}
