package util

// SetAvailableMemoryForTest replaces the memory lookup and returns a restore func
func SetAvailableMemoryForTest(fn func() (uint64, error)) func() {
	prev := availableMemory
	availableMemory = fn
	return func() { availableMemory = prev }
}
