package reorder

import (
	"encoding/binary"
	"fmt"
	"os"
)

// ReadFile reads a persisted reordering map in the binary layout from
// spec §6: little-endian, packed, no padding —
//
//	offset 0 : u32   nodecount
//	offset 4 : i32[nodecount]  entries (sentinel 0 = unmapped, else physical+1)
//
// The source's read path is a stub (fstat only); this is the full read
// the spec requires.
func ReadFile(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reorder: failed to read %s: %w", path, err)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("reorder: %s is too short for a nodecount header", path)
	}

	n := binary.LittleEndian.Uint32(data[0:4])
	want := 4 + int(n)*4
	if len(data) < want {
		return nil, fmt.Errorf("reorder: %s has nodecount %d but only %d bytes", path, n, len(data))
	}

	out := make([]int, n)
	for i := 0; i < int(n); i++ {
		off := 4 + i*4
		v := int32(binary.LittleEndian.Uint32(data[off : off+4]))
		out[i] = int(v)
	}
	return out, nil
}

// WriteFile persists mapping in the same binary layout ReadFile expects.
func WriteFile(path string, mapping []int) error {
	buf := make([]byte, 4+len(mapping)*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(mapping)))
	for i, v := range mapping {
		off := 4 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(int32(v)))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("reorder: failed to write %s: %w", path, err)
	}
	return nil
}
