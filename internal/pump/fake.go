package pump

import "sync"

// FakeOutput is a test double that records the on/off sequence.
type FakeOutput struct {
	mu sync.Mutex

	// Ops records every call in order: "on", "off".
	Ops []string

	// Closed tracks if Close was called.
	Closed bool

	// OnError, if set, will be returned by On().
	OnError error

	// OffError, if set, will be returned by Off().
	OffError error
}

// On records the call.
func (f *FakeOutput) On() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OnError != nil {
		return f.OnError
	}
	f.Ops = append(f.Ops, "on")
	return nil
}

// Off records the call.
func (f *FakeOutput) Off() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OffError != nil {
		return f.OffError
	}
	f.Ops = append(f.Ops, "off")
	return nil
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Sequence returns a copy of the recorded operations.
func (f *FakeOutput) Sequence() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Ops...)
}
