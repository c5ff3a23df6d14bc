package repository

import "os"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithFileMode sets the permission bits of written match files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithIndent sets the per-level indent of written files. Empty writes
// compact JSON.
func WithIndent(indent string) Option {
	return func(s *FileStore) {
		s.indent = indent
	}
}

// WithLockName sets the lock file name inside the directory.
func WithLockName(name string) Option {
	return func(s *FileStore) {
		if name != "" {
			s.lockName = name
		}
	}
}
