package merge

// Option configures a merge.
type Option func(*merger)

// WithDuplicatePolicy sets how repeated event_uuid keys are resolved.
// Empty keeps the default, PolicyFirst.
func WithDuplicatePolicy(p Policy) Option {
	return func(m *merger) {
		if p != "" {
			m.policy = p
		}
	}
}
