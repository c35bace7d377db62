//go:build linux

package pump

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOOutput drives the pump relay through the Linux GPIO character device.
type GPIOOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewGPIOOutput requests the given pin as an output, initially low, so the
// pump stays off across process restarts.
func NewGPIOOutput(chipName string, pin int) (*GPIOOutput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pump pin %d: %w", pin, err)
	}

	return &GPIOOutput{chip: chip, line: line}, nil
}

// On drives the pin high.
func (o *GPIOOutput) On() error {
	if err := o.line.SetValue(1); err != nil {
		return fmt.Errorf("set pump pin high: %w", err)
	}
	return nil
}

// Off drives the pin low.
func (o *GPIOOutput) Off() error {
	if err := o.line.SetValue(0); err != nil {
		return fmt.Errorf("set pump pin low: %w", err)
	}
	return nil
}

// Close drives the pin low and releases GPIO resources.
func (o *GPIOOutput) Close() error {
	var errs []error

	if o.line != nil {
		if err := o.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("set pump pin low: %w", err))
		}
		if err := o.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pump pin: %w", err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
