package tap

// SafeRemove deletes the sink's data and ignores any failure. It is meant for
// staging and temporary outputs only.
func SafeRemove(sink Sink) {
	if sink == nil {
		return
	}
	defer func() { _ = recover() }()
	_ = sink.Delete()
}
