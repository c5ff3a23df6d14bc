package dedupe

type options struct {
	capacity int
}

// Option configures a Tracker.
type Option func(*options)

// WithCapacity presizes the tracker for n distinct keys.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}
