package analytics

// defaultMaxSize caps the active log at 5 MB before rotation.
const defaultMaxSize = 5 * 1024 * 1024

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithMaxSize overrides the rotation threshold in bytes.
func WithMaxSize(size int64) Option {
	return func(r *Recorder) {
		if size > 0 {
			r.maxSize = size
		}
	}
}
