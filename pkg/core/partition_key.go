package core

import (
	"fmt"
	"math"
)

// PartitionKey is a grouping value whose range is exactly the number of
// reducers, so each reducer receives one group and one group only.
//
// The zero value is a placeholder (value 0, no reference) and must not be used
// for routing. Keys compare equal for routing purposes when their values are
// equal; the reference is kept for diagnostics only.
//
// It is up to the job builder to run exactly PartitionCount reduce tasks. With
// more reduce tasks than reducers, two groups can still reach the same reducer
// as two different tasks.
type PartitionKey struct {
	ref   string
	count int
	value int
}

// NewPartitionKey computes the key for reference using the FNV-1a hash.
func NewPartitionKey(reference string, partitionCount int) (PartitionKey, error) {
	return NewPartitionKeyWithHash(FNV32a, reference, partitionCount)
}

// NewPartitionKeyWithHash computes the key for reference using hash.
//
// The hash is read as a signed 32-bit integer and the sign bit is cleared
// before the modulo, which keeps the value in [0, partitionCount) for every
// reference.
func NewPartitionKeyWithHash(hash HashFunc, reference string, partitionCount int) (PartitionKey, error) {
	if partitionCount <= 0 {
		return PartitionKey{}, fmt.Errorf("%w: got %d", ErrInvalidPartitionCount, partitionCount)
	}
	if hash == nil {
		hash = FNV32a
	}

	h := int32(hash(reference)) & math.MaxInt32
	return PartitionKey{
		ref:   reference,
		count: partitionCount,
		value: int(h) % partitionCount,
	}, nil
}

func (k PartitionKey) Reference() string {
	return k.ref
}

func (k PartitionKey) Value() int {
	return k.value
}

// PartitionCount is 0 for the placeholder key.
func (k PartitionKey) PartitionCount() int {
	return k.count
}

func (k PartitionKey) IsPlaceholder() bool {
	return k.count == 0
}

func (k PartitionKey) Equal(other PartitionKey) bool {
	return k.value == other.value
}

func (k PartitionKey) String() string {
	if k.IsPlaceholder() {
		return "PartitionKey(placeholder)"
	}
	return fmt.Sprintf("PartitionKey(%q -> %d/%d)", k.ref, k.value, k.count)
}
