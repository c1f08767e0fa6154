package compare

import (
	"context"
	"encoding/hex"
	"io"

	"github.com/sdejongh/backupverify/pkg/storage"
	"github.com/zeebo/blake3"
)

// computeHash computes the BLAKE3 digest of a file using streaming reads
func (c *ContentComparer) computeHash(ctx context.Context, backend storage.Backend, path string) (string, error) {
	file, err := backend.Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var reader io.Reader = file
	if c.readerWrapper != nil {
		reader = c.readerWrapper(reader)
	}

	hasher := blake3.New()

	bufPtr := c.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer c.bufferPool.Put(bufPtr)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
			c.count(int64(n))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
