package sockperf

import (
	"fmt"
	"io"
	"os"
)

// DefaultTailWindow bounds how much of a log file is re-read per change event.
// sockperf output is append-only and the summary lines land at the end, so a
// fixed window keeps per-event cost constant regardless of accumulated size.
const DefaultTailWindow int64 = 4096

// ReadTail returns the last max bytes of the file at path, or the whole file
// if it is smaller. Errors (file vanished mid-event, permission denied) are
// transient; the caller skips the processing pass and waits for the next event.
func ReadTail(path string, max int64) (string, error) {
	if max <= 0 {
		max = DefaultTailWindow
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.Size() > max {
		if _, err := f.Seek(-max, io.SeekEnd); err != nil {
			return "", fmt.Errorf("failed to seek in %s: %w", path, err)
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return string(data), nil
}
