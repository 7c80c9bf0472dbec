// Package hash computes the streaming content digest used to verify
// tier-to-tier copies.
package hash

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// blockSize is the read granularity for streaming digests.
const blockSize = 4096

// File returns the XXH64 (seed 0) digest of the file at path, read in
// 4 KiB blocks. The digest is an equality witness between the source and
// destination of a just-performed copy; it is never persisted.
func File(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	buf := make([]byte, blockSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading %s for hashing: %w", path, err)
		}
	}
	return h.Sum64(), nil
}
