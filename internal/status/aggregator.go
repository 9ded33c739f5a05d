// Package status derives categories and status tallies from spreadsheet rows.
package status

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dtorcivia/flowdash/internal/config"
	"github.com/dtorcivia/flowdash/internal/util"
	"github.com/dtorcivia/flowdash/internal/webhook"
)

// Bucket names in StatusCounts.
const (
	BucketReadyPrompt = "ready_prompt"
	BucketReadyImage  = "ready_image"
	BucketReadyPost   = "ready_post"
	BucketDone        = "done"
)

// Buckets lists every bucket in pipeline order.
var Buckets = []string{BucketReadyPrompt, BucketReadyImage, BucketReadyPost, BucketDone}

// Counts maps each bucket to its tally. All buckets are always present.
type Counts map[string]int

// NewCounts returns all-zero counts.
func NewCounts() Counts {
	c := make(Counts, len(Buckets))
	for _, b := range Buckets {
		c[b] = 0
	}
	return c
}

// ValuesReader reads row-major cell values of an A1 range.
type ValuesReader interface {
	ReadRange(ctx context.Context, a1Range string) ([][]any, error)
}

// Snapshot is the last refreshed view of the spreadsheet.
// Each half carries its own refresh time; a zero time means never refreshed.
type Snapshot struct {
	Categories   []string
	CategoriesAt time.Time
	Counts       Counts
	CountsAt     time.Time
}

// RefreshedAt returns the older of the two refresh times, or zero when either
// half has never been refreshed.
func (s Snapshot) RefreshedAt() time.Time {
	if s.CategoriesAt.IsZero() || s.CountsAt.IsZero() {
		return time.Time{}
	}
	if s.CategoriesAt.Before(s.CountsAt) {
		return s.CategoriesAt
	}
	return s.CountsAt
}

// Stale reports whether either half is missing or older than maxAge at now.
func (s Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	at := s.RefreshedAt()
	return at.IsZero() || now.Sub(at) > maxAge
}

// Aggregator fetches categories and status counts and keeps the latest snapshot.
type Aggregator struct {
	config *config.SheetsConfig
	reader ValuesReader

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewAggregator creates an aggregator. A nil reader behaves as an unconfigured source.
func NewAggregator(cfg *config.SheetsConfig, reader ValuesReader) *Aggregator {
	return &Aggregator{
		config:   cfg,
		reader:   reader,
		snapshot: Snapshot{Categories: []string{}, Counts: NewCounts()},
	}
}

// Configured reports whether a spreadsheet source is available.
func (a *Aggregator) Configured() bool {
	return a.reader != nil && a.config.Configured()
}

// RefreshCategories re-reads the category column. Failures yield an empty list.
func (a *Aggregator) RefreshCategories(ctx context.Context) []string {
	if !a.Configured() {
		return []string{}
	}
	rows, err := a.fetch(ctx, a.config.CategoryRange)
	if err != nil {
		util.Warn("Failed to refresh categories", "range", a.config.CategoryRange, "error", err)
		return []string{}
	}
	categories := Categories(rows)

	a.mu.Lock()
	a.snapshot.Categories = categories
	a.snapshot.CategoriesAt = time.Now()
	a.mu.Unlock()

	return categories
}

// RefreshStatusCounts re-reads the status column. Failures yield zeroed counts.
func (a *Aggregator) RefreshStatusCounts(ctx context.Context) Counts {
	if !a.Configured() {
		return NewCounts()
	}
	rows, err := a.fetch(ctx, a.config.StatusRange)
	if err != nil {
		util.Warn("Failed to refresh status counts", "range", a.config.StatusRange, "error", err)
		return NewCounts()
	}
	counts := Tally(rows)

	a.mu.Lock()
	a.snapshot.Counts = counts
	a.snapshot.CountsAt = time.Now()
	a.mu.Unlock()

	return counts.clone()
}

// Refresh re-reads both columns concurrently and returns the new snapshot.
func (a *Aggregator) Refresh(ctx context.Context) Snapshot {
	var g errgroup.Group
	g.Go(func() error {
		a.RefreshCategories(ctx)
		return nil
	})
	g.Go(func() error {
		a.RefreshStatusCounts(ctx)
		return nil
	})
	_ = g.Wait()
	return a.Snapshot()
}

// Snapshot returns a copy of the last refreshed data.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{
		Categories:   append([]string{}, a.snapshot.Categories...),
		CategoriesAt: a.snapshot.CategoriesAt,
		Counts:       a.snapshot.Counts.clone(),
		CountsAt:     a.snapshot.CountsAt,
	}
}

// RefreshHook returns a post-dispatch hook that refreshes after successful dispatches.
func (a *Aggregator) RefreshHook() webhook.Hook {
	return func(ctx context.Context, op webhook.Operation, result webhook.Result) {
		if !result.OK || !a.Configured() {
			return
		}
		util.Debug("Refreshing status after dispatch", "operation", string(op))
		a.Refresh(ctx)
	}
}

func (a *Aggregator) fetch(ctx context.Context, a1Range string) ([][]any, error) {
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}
	rows, err := a.reader.ReadRange(ctx, a1Range)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a1Range, err)
	}
	return rows, nil
}

// Categories returns the sorted unique non-empty first-column values, skipping the header row.
func Categories(rows [][]any) []string {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, cell := range firstColumn(rows) {
		v := strings.TrimSpace(cell)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		categories = append(categories, v)
	}
	sort.Strings(categories)
	return categories
}

// Tally counts first-column labels into buckets, skipping the header row.
// Labels are matched trimmed and case-insensitively; unknown labels are ignored.
func Tally(rows [][]any) Counts {
	counts := NewCounts()
	for _, cell := range firstColumn(rows) {
		label := strings.ToLower(strings.TrimSpace(cell))
		if _, ok := counts[label]; ok {
			counts[label]++
		}
	}
	return counts
}

func firstColumn(rows [][]any) []string {
	if len(rows) <= 1 {
		return nil
	}
	cells := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 || row[0] == nil {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, fmt.Sprint(row[0]))
	}
	return cells
}

func (c Counts) clone() Counts {
	out := make(Counts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
