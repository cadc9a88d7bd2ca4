package queue

const (
	// DefaultMaxBodyBytes is the default largest accepted payload.
	DefaultMaxBodyBytes = 1024 * 1024
	// DefaultMaxQueueDepth is the default number of messages a single channel
	// may hold.
	DefaultMaxQueueDepth = 256

	// MaxBodyBytesCeiling is the hard upper bound applied by Clamp.
	MaxBodyBytesCeiling = 64 * 1024 * 1024
	// MaxQueueDepthCeiling is the hard upper bound applied by Clamp.
	MaxQueueDepthCeiling = 65536
)

// Limits are the admission limits enforced on Push. Both bounds are
// inclusive.
type Limits struct {
	MaxBodyBytes  int
	MaxQueueDepth int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxBodyBytes:  DefaultMaxBodyBytes,
		MaxQueueDepth: DefaultMaxQueueDepth,
	}
}

// Clamp returns a copy of l with non-positive values replaced by the defaults
// and values above the hard ceilings lowered to the ceiling.
func (l Limits) Clamp() Limits {
	l.MaxBodyBytes = clamp(l.MaxBodyBytes, DefaultMaxBodyBytes, MaxBodyBytesCeiling)
	l.MaxQueueDepth = clamp(l.MaxQueueDepth, DefaultMaxQueueDepth, MaxQueueDepthCeiling)
	return l
}

func clamp(v, def, ceiling int) int {
	if v <= 0 {
		return def
	}
	if v > ceiling {
		return ceiling
	}
	return v
}

// admit checks the payload-only limits. It does not touch queue state.
func (l Limits) admit(payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyBody
	}
	if len(payload) > l.MaxBodyBytes {
		return ErrTooLarge
	}
	return nil
}
