package main

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxChunkSize caps how many paths a worker claims at once.
const maxChunkSize = 100

// TokenizeFunc produces exactly one record for a path.
type TokenizeFunc func(path string) TokenRecord

// Distributor fans paths out over a fixed pool of workers.
type Distributor struct {
	workers   int
	chunkSize int
	logger    *zap.Logger
}

// NewDistributor creates a pool of the given size; workers <= 0 means runtime.NumCPU().
func NewDistributor(workers int, logger *zap.Logger) *Distributor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Distributor{workers: workers, logger: logger}
}

// WithChunkSize fixes the number of paths claimed per step. Zero picks a size from the input.
func (d *Distributor) WithChunkSize(n int) *Distributor {
	d.chunkSize = n
	return d
}

// ResultStream delivers records in completion order.
type ResultStream struct {
	records chan TokenRecord
	err     error
}

// Records is closed once every worker has returned.
func (s *ResultStream) Records() <-chan TokenRecord { return s.records }

// Err reports why the pool stopped early. Only valid after Records is closed.
func (s *ResultStream) Err() error { return s.err }

// Distribute starts the pool and returns immediately. Every path yields exactly
// one record unless ctx is cancelled or a worker fails, in which case the
// remaining work is abandoned and Err reports the cause.
func (d *Distributor) Distribute(ctx context.Context, paths []string, fn TokenizeFunc) *ResultStream {
	workers := min(d.workers, len(paths))
	chunk := d.chunkSize
	if chunk <= 0 {
		chunk = chunkSize(len(paths), workers)
	}

	stream := &ResultStream{records: make(chan TokenRecord, max(workers, 1)*chunk)}
	g, gctx := errgroup.WithContext(ctx)
	var cursor atomic.Int64

	d.logger.Debug("starting worker pool",
		zap.Int("workers", workers), zap.Int("chunk_size", chunk), zap.Int("files", len(paths)))

	for w := 0; w < workers; w++ {
		id := w
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("worker %d panicked: %v", id, r)
				}
			}()
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				start := int(cursor.Add(int64(chunk))) - chunk
				if start >= len(paths) {
					return nil
				}
				end := min(start+chunk, len(paths))
				for _, path := range paths[start:end] {
					if err := gctx.Err(); err != nil {
						return err
					}
					rec := fn(path)
					select {
					case stream.records <- rec:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			}
		})
	}

	go func() {
		stream.err = g.Wait()
		close(stream.records)
	}()
	return stream
}

// chunkSize aims for several chunks per worker so the pool stays balanced.
func chunkSize(files, workers int) int {
	if workers <= 0 {
		return 1
	}
	return max(1, min(maxChunkSize, files/(workers*4)))
}
