// Package util decides where streamed uploads are buffered before transfer.
package util

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// MaxBufferShare is the share of available RAM one buffered upload may take.
const MaxBufferShare = 0.5

// availableMemory is replaced in tests
var availableMemory = func() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("get memory info: %w", err)
	}
	return v.Available, nil
}

// Placement says where a stream read from stdin is kept until it is hashed and sent
type Placement int

const (
	InMemory Placement = iota
	OnDisk
)

func (p Placement) String() string {
	if p == OnDisk {
		return "disk"
	}
	return "memory"
}

// PlaceBuffer picks the placement for size bytes that are already known to be
// under the configured buffer limit. Without memory information the data stays
// in memory, since the limit bounds it anyway.
func PlaceBuffer(size int64) Placement {
	available, err := availableMemory()
	if err != nil || available == 0 {
		return InMemory
	}
	if float64(size) > float64(available)*MaxBufferShare {
		return OnDisk
	}
	return InMemory
}
