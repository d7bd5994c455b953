package main

import (
	"context"
	"sort"
)

// progressEvery is the number of records between progress callbacks.
const progressEvery = 1000

// Aggregator is the single consumer of a ResultStream and the only owner of the run totals.
type Aggregator struct {
	breakdown  bool
	onProgress func(Progress)

	totals RunTotals
	stats  map[string]*ExtensionStats
}

// NewAggregator creates an aggregator. onProgress may be nil.
func NewAggregator(breakdown bool, onProgress func(Progress)) *Aggregator {
	return &Aggregator{
		breakdown:  breakdown,
		onProgress: onProgress,
		stats:      make(map[string]*ExtensionStats),
	}
}

// Consume drains the stream. In breakdown mode failed records are dropped
// entirely; otherwise they count as a file with zero tokens. Cancellation
// returns at once without waiting for the workers.
func (a *Aggregator) Consume(ctx context.Context, stream *ResultStream, total int) (Report, error) {
	processed := 0
	records := stream.Records()
	for records != nil {
		select {
		case <-ctx.Done():
			return Report{}, ctx.Err()
		case rec, ok := <-records:
			if !ok {
				records = nil
				continue
			}
			processed++
			a.observe(rec)
			if a.onProgress != nil && processed%progressEvery == 0 {
				a.onProgress(Progress{Processed: processed, Total: total, Tokens: a.totals.Tokens})
			}
		}
	}

	if err := stream.Err(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report := Report{Breakdown: a.breakdown, Totals: a.totals}
	if a.breakdown {
		report.Rows = a.sortedStats()
	}
	return report, nil
}

func (a *Aggregator) observe(rec TokenRecord) {
	if rec.Failed && a.breakdown {
		return
	}
	a.totals.Files++
	a.totals.Tokens += int64(rec.Tokens)

	if !a.breakdown || rec.Label == "" {
		return
	}
	s, ok := a.stats[rec.Label]
	if !ok {
		s = &ExtensionStats{Label: rec.Label}
		a.stats[rec.Label] = s
	}
	s.Files++
	s.Tokens += int64(rec.Tokens)
}

// sortedStats orders labels by token sum, largest first; equal sums sort by label.
func (a *Aggregator) sortedStats() []ExtensionStats {
	rows := make([]ExtensionStats, 0, len(a.stats))
	for _, s := range a.stats {
		rows = append(rows, *s)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Tokens != rows[j].Tokens {
			return rows[i].Tokens > rows[j].Tokens
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}
