//go:build !linux

package notify

// New reports ErrNotSupported outside Linux.
func New() (Notifier, error) {
	return nil, ErrNotSupported
}
