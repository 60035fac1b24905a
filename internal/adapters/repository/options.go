// Package repository defines the ranking store interface and errors.
package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithInitialCapacity sizes the internal index for an expected roster size.
func WithInitialCapacity(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.initialCapacity = n
		}
	}
}
