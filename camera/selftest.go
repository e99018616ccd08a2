package camera

import (
	"context"
	"fmt"
	"time"
)

// StepResult is the outcome of one self-test step.
type StepResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration"`
	Detail   string        `json:"detail,omitempty"`
	Err      error         `json:"-"`
}

type selfTestStep struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// RunSelfTest resolves parameters from the configuration file at path
// and drives the camera through its whole lifecycle: init, parameter
// validation, open, property read-back, frame acquisition and close,
// one reported step each. The second return value is true when every
// step passed.
func RunSelfTest(ctx context.Context, cam *Camera, path string, index int) ([]StepResult, bool) {
	init := selfTestStep{name: "init", run: func(context.Context) (string, error) {
		if err := cam.Init(path, index); err != nil {
			return "", err
		}
		return fmt.Sprintf("resolved camera %d from %s", index, path), nil
	}}
	return runSelfTestSteps(ctx, append([]selfTestStep{init}, cam.selfTestSteps()...))
}

// SelfTest drives an initialized camera through open, parameter
// validation, property read-back, frame acquisition and close. Steps
// keep running after a failure so one report covers the whole device;
// steps needing an open device report the reason when open failed, and
// close always runs. The second return value is true when every step
// passed.
func (c *Camera) SelfTest(ctx context.Context) ([]StepResult, bool) {
	return runSelfTestSteps(ctx, c.selfTestSteps())
}

func (c *Camera) selfTestSteps() []selfTestStep {
	return []selfTestStep{
		{name: "parameters", run: c.testParameters},
		{name: "open", run: c.testOpen},
		{name: "properties", run: c.testProperties},
		{name: "acquisition", run: c.testAcquisition},
		{name: "close", run: c.testClose},
	}
}

func runSelfTestSteps(ctx context.Context, steps []selfTestStep) ([]StepResult, bool) {
	results := make([]StepResult, 0, len(steps))
	allPassed := true

	for _, step := range steps {
		start := time.Now()
		detail, err := step.run(ctx)
		result := StepResult{
			Name:     step.name,
			Passed:   err == nil,
			Duration: time.Since(start),
			Detail:   detail,
			Err:      err,
		}
		if err != nil {
			result.Detail = err.Error()
			allPassed = false
		}
		results = append(results, result)
	}

	return results, allPassed
}

func (c *Camera) testParameters(context.Context) (string, error) {
	params := c.Parameters()
	if params == nil {
		return "", fmt.Errorf("parameters not resolved, Init has not run")
	}
	if err := params.Validate(); err != nil {
		return "", err
	}
	return "resolved and valid", nil
}

func (c *Camera) testOpen(ctx context.Context) (string, error) {
	if err := c.Open(ctx); err != nil {
		return "", err
	}
	return "device open, acquisition running", nil
}

func (c *Camera) testAcquisition(ctx context.Context) (string, error) {
	if !c.IsOpen() {
		return "", fmt.Errorf("skipped, device not open")
	}

	frame, err := c.GetFrame(ctx, true)
	if err != nil {
		return "", err
	}
	if len(frame.Data) == 0 {
		return "", fmt.Errorf("acquired frame %d has no pixel data", frame.Seq)
	}
	return fmt.Sprintf("frame %d, %dx%d %s, %d bytes",
		frame.Seq, frame.Width, frame.Height, frame.Encoding, len(frame.Data)), nil
}

func (c *Camera) testProperties(context.Context) (string, error) {
	if !c.IsOpen() {
		return "", fmt.Errorf("skipped, device not open")
	}

	ranges := c.driver.Properties()
	for kind, rng := range ranges {
		p, err := c.GetProperty(kind)
		if err != nil {
			return "", fmt.Errorf("read back of %s: %w", kind, err)
		}
		if !p.Auto && !rng.Contains(p.Value) {
			return "", fmt.Errorf("%s reads %g outside its own range [%g, %g]",
				kind, p.Value, rng.Min, rng.Max)
		}
	}
	return fmt.Sprintf("%d properties read back in range", len(ranges)), nil
}

func (c *Camera) testClose(context.Context) (string, error) {
	wasOpen := c.IsOpen()
	if err := c.Close(); err != nil {
		return "", err
	}
	if !wasOpen {
		return "nothing to close", nil
	}
	return "device released", nil
}
