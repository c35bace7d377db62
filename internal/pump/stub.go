//go:build !linux

package pump

import "errors"

// GPIOOutput is not available on non-Linux platforms.
type GPIOOutput struct{}

// NewGPIOOutput returns an error on non-Linux platforms.
func NewGPIOOutput(chipName string, pin int) (*GPIOOutput, error) {
	return nil, errors.New("pump: gpio not supported on this platform (requires Linux)")
}

// On is not implemented on non-Linux platforms.
func (o *GPIOOutput) On() error {
	return errors.New("pump: gpio not supported")
}

// Off is not implemented on non-Linux platforms.
func (o *GPIOOutput) Off() error {
	return errors.New("pump: gpio not supported")
}

// Close is not implemented on non-Linux platforms.
func (o *GPIOOutput) Close() error {
	return nil
}
