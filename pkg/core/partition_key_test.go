package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash_FNV32a(t *testing.T) {
	// Reference values of 32-bit FNV-1a.
	require.Equal(t, uint32(0x811c9dc5), Hash(""))
	require.Equal(t, uint32(0xe40c292c), Hash("a"))
}

func TestNewPartitionKey_KnownValues(t *testing.T) {
	tests := []struct {
		ref   string
		count int
		want  int
	}{
		{ref: "a", count: 7, want: 3},
		{ref: "a", count: 16, want: 12},
		{ref: "example.com", count: 7, want: 2},
		{ref: "www.example.com", count: 16, want: 11},
		{ref: "bixolabs.com", count: 16, want: 14},
		{ref: "shard-1", count: 7, want: 0},
		{ref: "anything", count: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.ref, tt.count), func(t *testing.T) {
			key, err := NewPartitionKey(tt.ref, tt.count)
			require.NoError(t, err)
			require.Equal(t, tt.want, key.Value())
			require.Equal(t, tt.ref, key.Reference())
			require.Equal(t, tt.count, key.PartitionCount())
			require.False(t, key.IsPlaceholder())
		})
	}
}

func TestNewPartitionKey_Deterministic(t *testing.T) {
	first, err := NewPartitionKey("crawl.example.org", 13)
	require.NoError(t, err)

	for range 100 {
		again, err := NewPartitionKey("crawl.example.org", 13)
		require.NoError(t, err)
		require.Equal(t, first.Value(), again.Value())
	}
}

func TestNewPartitionKey_Range(t *testing.T) {
	for _, hash := range []HashFunc{FNV32a, XXH3} {
		for n := 1; n <= 64; n++ {
			seen := make(map[int]bool)
			for i := range 2000 {
				key, err := NewPartitionKeyWithHash(hash, fmt.Sprintf("host-%d.example.com", i), n)
				require.NoError(t, err)
				require.GreaterOrEqual(t, key.Value(), 0)
				require.Less(t, key.Value(), n)
				seen[key.Value()] = true
			}
			// 2000 references spread over at most 64 slots should reach every slot.
			require.Len(t, seen, n, "partition count %d", n)
		}
	}
}

func TestNewPartitionKey_NegativeHash(t *testing.T) {
	// "www.example.com" hashes to 0x88469fcb, which is negative as an int32.
	require.Less(t, int32(Hash("www.example.com")), int32(0))

	for n := 1; n <= 100; n++ {
		key, err := NewPartitionKey("www.example.com", n)
		require.NoError(t, err)
		require.GreaterOrEqual(t, key.Value(), 0)
		require.Less(t, key.Value(), n)
	}
}

func TestNewPartitionKey_HashMinInt32(t *testing.T) {
	minHash := HashFunc(func(string) uint32 { return 0x80000000 })

	key, err := NewPartitionKeyWithHash(minHash, "edge", 5)
	require.NoError(t, err)
	require.Equal(t, 0, key.Value())
}

func TestNewPartitionKey_InvalidCount(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := NewPartitionKey("ref", n)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrInvalidPartitionCount))
	}
}

func TestNewPartitionKeyWithHash_NilHashFallsBackToFNV(t *testing.T) {
	withNil, err := NewPartitionKeyWithHash(nil, "a", 16)
	require.NoError(t, err)
	require.Equal(t, 12, withNil.Value())
}

func TestPartitionKey_Placeholder(t *testing.T) {
	var key PartitionKey

	require.True(t, key.IsPlaceholder())
	require.Equal(t, 0, key.Value())
	require.Equal(t, "", key.Reference())
	require.Equal(t, "PartitionKey(placeholder)", key.String())
}

func TestPartitionKey_EqualIgnoresReference(t *testing.T) {
	a, err := NewPartitionKey("a", 7)
	require.NoError(t, err)
	b, err := NewPartitionKey("polygenelubricants", 7)
	require.NoError(t, err)
	c, err := NewPartitionKey("b", 7)
	require.NoError(t, err)

	// Both land on slot 3: a collision is the partitioning working.
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestPartitionKey_String(t *testing.T) {
	key, err := NewPartitionKey("a", 7)
	require.NoError(t, err)
	require.Equal(t, `PartitionKey("a" -> 3/7)`, key.String())
}

func TestParseHash(t *testing.T) {
	for _, name := range []string{"", "fnv", "FNV32a"} {
		hash, err := ParseHash(name)
		require.NoError(t, err)
		require.Equal(t, Hash("word"), hash("word"))
	}

	hash, err := ParseHash("xxh3")
	require.NoError(t, err)
	require.Equal(t, XXH3("word"), hash("word"))

	_, err = ParseHash("md5")
	require.Error(t, err)
}
