package helpers

// Ptr returns a pointer to a copy of val, for optional request and query fields.
func Ptr[T any](val T) *T {
	return &val
}

// ValueOr dereferences val, or returns fallback when the field was not sent.
func ValueOr[T any](val *T, fallback T) T {
	if val != nil {
		return *val
	}
	return fallback
}
