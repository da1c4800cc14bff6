package core

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/zeebo/xxh3"
)

// HashFunc maps a reference string to a 32-bit hash.
type HashFunc func(string) uint32

func Hash(value string) uint32 {
	hash := fnv.New32a()
	hash.Write([]byte(value))
	return hash.Sum32()
}

// FNV32a is the default partition hash.
var FNV32a HashFunc = Hash

// XXH3 uses the low 32 bits of the 64-bit XXH3 digest.
var XXH3 HashFunc = func(value string) uint32 {
	return uint32(xxh3.HashString(value))
}

// ParseHash resolves "fnv" (or "") and "xxh3".
func ParseHash(name string) (HashFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fnv", "fnv32a":
		return FNV32a, nil
	case "xxh3":
		return XXH3, nil
	default:
		return nil, fmt.Errorf("unknown partition hash: %q", name)
	}
}
