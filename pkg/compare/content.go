package compare

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/sdejongh/backupverify/pkg/storage"
)

// SampleSize is the width of one random sampling window
const SampleSize = 32

// Options configures the content tiers
type Options struct {
	// Samples is the number of random windows to compare (0 disables sampling)
	Samples int
	// HashAll enables the full-content BLAKE3 tier
	HashAll bool
	// BufferSize is the read buffer used while hashing
	BufferSize int
}

// ContentComparer compares two regular files through escalating tiers:
// size, random sampling, then a full BLAKE3 hash.
type ContentComparer struct {
	samples       int
	hashAll       bool
	bufferSize    int
	bufferPool    *sync.Pool
	readerWrapper ReaderWrapper
	bytesRead     func(n int64)
	offset        func(max int64) int64
}

// NewContentComparer creates a comparer with the given tiers enabled
func NewContentComparer(opts Options) *ContentComparer {
	bufferSize := opts.BufferSize
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &ContentComparer{
		samples:    opts.Samples,
		hashAll:    opts.HashAll,
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
		offset: func(max int64) int64 {
			if max <= 0 {
				return 0
			}
			return rand.Int64N(max + 1)
		},
	}
}

// SetReaderWrapper sets a function to wrap hashing readers (e.g., for rate limiting)
func (c *ContentComparer) SetReaderWrapper(wrapper ReaderWrapper) {
	c.readerWrapper = wrapper
}

// SetByteCounter sets a callback receiving the number of content bytes read
func (c *ContentComparer) SetByteCounter(fn func(n int64)) {
	c.bytesRead = fn
}

// Compare runs the tiers on the file at path in both trees.
// The only error returned is a context error; read failures void the pair instead.
func (c *ContentComparer) Compare(ctx context.Context, orig, backup storage.Backend, path string, origSize, backupSize int64) (*Comparison, error) {
	cmp := &Comparison{
		OrigPath:   orig.FullPath(path),
		BackupPath: backup.FullPath(path),
		Result:     Same,
	}

	if origSize != backupSize {
		cmp.Result = Different
		cmp.Reason = models.ReasonSize
		return cmp, nil
	}

	if c.samples > 0 && origSize > 0 {
		if err := c.compareSamples(ctx, orig, backup, path, origSize, cmp); err != nil {
			return nil, err
		}
		if cmp.Result != Same {
			return cmp, nil
		}
	}

	if c.hashAll {
		if err := c.compareHashes(ctx, orig, backup, path, cmp); err != nil {
			return nil, err
		}
	}

	return cmp, nil
}

// compareSamples reads identical windows from both files until one differs
func (c *ContentComparer) compareSamples(ctx context.Context, orig, backup storage.Backend, path string, size int64, cmp *Comparison) error {
	readLen := int64(SampleSize)
	if size < readLen {
		readLen = size
	}

	origFile, origErr := orig.Open(ctx, path)
	backupFile, backupErr := backup.Open(ctx, path)
	if origFile != nil {
		defer origFile.Close()
	}
	if backupFile != nil {
		defer backupFile.Close()
	}
	if err := firstContextError(ctx, origErr, backupErr); err != nil {
		return err
	}
	if c.recordSampleErrors(cmp, origErr, backupErr) {
		return nil
	}

	origBuf := make([]byte, readLen)
	backupBuf := make([]byte, readLen)

	for i := 0; i < c.samples; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		offset := c.offset(size - readLen)
		origErr = readSample(origFile, origBuf, offset)
		backupErr = readSample(backupFile, backupBuf, offset)
		if c.recordSampleErrors(cmp, origErr, backupErr) {
			return nil
		}
		c.count(2 * readLen)

		if !bytes.Equal(origBuf, backupBuf) {
			cmp.Result = Different
			cmp.Reason = models.ReasonSample
			return nil
		}
	}
	return nil
}

func (c *ContentComparer) recordSampleErrors(cmp *Comparison, origErr, backupErr error) bool {
	if origErr != nil {
		cmp.Errors = append(cmp.Errors, models.Errorf(cmp.OrigPath, "Cannot read sample from [%s]: %s", cmp.OrigPath, storage.Describe(origErr)))
	}
	if backupErr != nil {
		cmp.Errors = append(cmp.Errors, models.Errorf(cmp.BackupPath, "Cannot read sample from [%s]: %s", cmp.BackupPath, storage.Describe(backupErr)))
	}
	if len(cmp.Errors) > 0 {
		cmp.Result = Void
		return true
	}
	return false
}

// compareHashes hashes both files concurrently and compares the digests
func (c *ContentComparer) compareHashes(ctx context.Context, orig, backup storage.Backend, path string, cmp *Comparison) error {
	var origSum, backupSum string
	var origErr, backupErr error
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		origSum, origErr = c.computeHash(ctx, orig, path)
	}()
	go func() {
		defer wg.Done()
		backupSum, backupErr = c.computeHash(ctx, backup, path)
	}()
	wg.Wait()

	if err := firstContextError(ctx, origErr, backupErr); err != nil {
		return err
	}

	if origErr != nil {
		cmp.Errors = append(cmp.Errors, models.Errorf(cmp.OrigPath, "Cannot hash [%s]: %s", cmp.OrigPath, storage.Describe(origErr)))
	}
	if backupErr != nil {
		cmp.Errors = append(cmp.Errors, models.Errorf(cmp.BackupPath, "Cannot hash [%s]: %s", cmp.BackupPath, storage.Describe(backupErr)))
	}
	if len(cmp.Errors) > 0 {
		cmp.Result = Void
		return nil
	}

	cmp.OrigDigest = origSum
	cmp.BackupDigest = backupSum
	if origSum != backupSum {
		cmp.Result = Different
		cmp.Reason = models.ReasonHash
	}
	return nil
}

func (c *ContentComparer) count(n int64) {
	if c.bytesRead != nil {
		c.bytesRead(n)
	}
}

// readSample fills buf from offset; a short read is an error
func readSample(f storage.File, buf []byte, offset int64) error {
	n, err := f.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// firstContextError returns the context error when cancellation caused a failure
func firstContextError(ctx context.Context, errs ...error) error {
	if ctx.Err() == nil {
		return nil
	}
	for _, err := range errs {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ctx.Err()
		}
	}
	return nil
}
