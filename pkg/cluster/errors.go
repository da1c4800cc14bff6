package cluster

import "errors"

var (
	// ErrProviderFailure wraps any error returned by a StatusProvider.
	// Provider failures are never retried and never read as zero workers.
	ErrProviderFailure = errors.New("cluster status provider failure")

	// ErrInvalidStatus is returned by providers that receive a status they cannot decode.
	ErrInvalidStatus = errors.New("invalid cluster status")

	// ErrInvalidPollInterval is returned when a live cluster is polled with a non-positive interval.
	ErrInvalidPollInterval = errors.New("poll interval must be greater than 0 for a live cluster")

	// ErrNilProvider is returned when the detector has no provider.
	ErrNilProvider = errors.New("cluster status provider is required")
)
