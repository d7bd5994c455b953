package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func collect(t testing.TB, s *ResultStream) []TokenRecord {
	t.Helper()
	var out []TokenRecord
	for rec := range s.Records() {
		out = append(out, rec)
	}
	return out
}

func makePaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("/f/%05d.txt", i)
	}
	return paths
}

func TestDistributor_ExactlyOncePerPath(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 500).Draw(rt, "files")
		workers := rapid.IntRange(1, 16).Draw(rt, "workers")
		chunk := rapid.IntRange(0, 150).Draw(rt, "chunk")
		paths := makePaths(n)

		stream := NewDistributor(workers, nil).WithChunkSize(chunk).
			Distribute(context.Background(), paths, func(p string) TokenRecord {
				return TokenRecord{Path: p, Tokens: 1}
			})

		seen := make(map[string]int)
		total := 0
		for rec := range stream.Records() {
			seen[rec.Path]++
			total++
		}
		if err := stream.Err(); err != nil {
			rt.Fatalf("unexpected pool error: %v", err)
		}
		if total != n {
			rt.Fatalf("got %d records for %d paths", total, n)
		}
		for _, p := range paths {
			if seen[p] != 1 {
				rt.Fatalf("path %s delivered %d times", p, seen[p])
			}
		}
	})
}

func TestDistributor_RunsInParallel(t *testing.T) {
	const workers = 4
	var inFlight, peak atomic.Int32
	release := make(chan struct{})

	fn := func(p string) TokenRecord {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		if cur == workers {
			close(release)
		}
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		inFlight.Add(-1)
		return TokenRecord{Path: p}
	}

	stream := NewDistributor(workers, nil).WithChunkSize(1).Distribute(context.Background(), makePaths(workers), fn)
	records := collect(t, stream)
	require.NoError(t, stream.Err())
	assert.Len(t, records, workers)
	assert.Equal(t, int32(workers), peak.Load())
}

func TestDistributor_NoPaths(t *testing.T) {
	stream := NewDistributor(4, nil).Distribute(context.Background(), nil, func(string) TokenRecord {
		t.Fatal("tokenize called without paths")
		return TokenRecord{}
	})
	assert.Empty(t, collect(t, stream))
	assert.NoError(t, stream.Err())
}

func TestDistributor_CancelStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	paths := makePaths(1000)
	stream := NewDistributor(2, nil).WithChunkSize(1).Distribute(ctx, paths, func(p string) TokenRecord {
		if calls.Add(1) == 10 {
			cancel()
		}
		return TokenRecord{Path: p}
	})

	records := collect(t, stream)
	assert.ErrorIs(t, stream.Err(), context.Canceled)
	assert.Less(t, len(records), len(paths))
	assert.Less(t, int(calls.Load()), len(paths))
}

func TestDistributor_WorkerPanicIsPoolError(t *testing.T) {
	stream := NewDistributor(3, nil).Distribute(context.Background(), makePaths(50), func(p string) TokenRecord {
		if p == "/f/00007.txt" {
			panic("unexpected")
		}
		return TokenRecord{Path: p}
	})

	collect(t, stream)
	require.Error(t, stream.Err())
	assert.Contains(t, stream.Err().Error(), "panicked")
}

func TestChunkSize(t *testing.T) {
	assert.Equal(t, 1, chunkSize(0, 4))
	assert.Equal(t, 1, chunkSize(10, 4))
	assert.Equal(t, 25, chunkSize(800, 8))
	assert.Equal(t, maxChunkSize, chunkSize(1_000_000, 2))
	assert.Equal(t, 1, chunkSize(100, 0))
}
