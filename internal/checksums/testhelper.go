package checksums

// NewForTest builds a Registry directly from an already-resolved hash->kind
// map, bypassing Load's file/HTTP resolution. Used only by other packages'
// tests that need a Registry without a checksums.json fixture on disk.
func NewForTest(byHash map[string]string) *Registry {
	if byHash == nil {
		byHash = map[string]string{}
	}
	return &Registry{byHash: byHash}
}
