package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read buffer used when streaming uploads to disk.
const ChunkSize = 1 << 20

// WriteStream copies src to dst in ChunkSize reads so memory stays bounded
// regardless of file size. On error the partial file is left in place for the
// caller to remove.
func WriteStream(ctx context.Context, src io.Reader, dst string) (int64, error) {
	// #nosec G304: dst is built by Storage.Resolve
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dst, err)
	}

	buf := make([]byte, ChunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return written, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			w, writeErr := f.Write(buf[:n])
			written += int64(w)
			if writeErr != nil {
				_ = f.Close()
				return written, fmt.Errorf("write %s: %w", dst, writeErr)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			_ = f.Close()
			return written, fmt.Errorf("read upload: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", dst, err)
	}
	return written, nil
}

// RemoveFiles deletes paths, ignoring ones that are already gone.
func RemoveFiles(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
