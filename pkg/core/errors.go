package core

import "errors"

// ErrInvalidPartitionCount is returned when a partition key is built with a
// partition count that is not positive.
var ErrInvalidPartitionCount = errors.New("partition count must be greater than 0")
