package providers

import "time"

const (
	// startupTimeout bounds work done while wiring services, such as
	// rebuilding an empty search index.
	startupTimeout = 2 * time.Minute
)
