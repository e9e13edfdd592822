// internal/jsonlutil/jsonlutil.go
package jsonlutil

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// Buffered writers are pooled across JSONL streams; the encoder is rebuilt
// per stream since it is bound to its writer.
var bwPool = sync.Pool{
	New: func() any {
		return bufio.NewWriterSize(io.Discard, 64<<10)
	},
}

// Start runs a JSONL encoder goroutine for values of type T and returns the
// input channel and a channel that yields exactly one result after the input
// is closed.
//   - encode converts one value to its wire type and encodes it
//   - isBroken recognizes a closed downstream; such errors end the stream
//     quietly
func Start[T any](out io.Writer, bufSize int, encode func(*json.Encoder, T) error, isBroken func(error) bool) (chan<- T, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan T, bufSize)
	done := make(chan error, 1)

	go func() {
		bw := bwPool.Get().(*bufio.Writer)
		bw.Reset(out)
		defer func() {
			bw.Reset(io.Discard)
			bwPool.Put(bw)
		}()

		enc := json.NewEncoder(bw)
		var failed error
		for v := range in {
			if failed != nil {
				continue // drain so the producer never blocks
			}
			if err := encode(enc, v); err != nil {
				failed = err
			}
		}
		if failed == nil {
			failed = bw.Flush()
		}
		if failed != nil && isBroken != nil && isBroken(failed) {
			failed = nil
		}
		done <- failed
	}()

	return in, done
}
