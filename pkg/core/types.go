package core

// MapFunc turns one input record into intermediate key/value pairs. The key
// identifies the record's origin, e.g. "file:line".
type MapFunc func(key, value string) []KeyValue

// ReduceFunc folds all values of one intermediate key into a single output record.
type ReduceFunc func(key string, values []string) KeyValue

type KeyValue struct {
	Key   string
	Value string
}
