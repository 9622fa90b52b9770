package auditlog

import (
	"context"
	"iter"
	"log/slog"
	"pkgdb/pkgdb/schema"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Filter narrows a log query. Zero fields do not filter.
type Filter struct {
	Kinds    []schema.LogKind
	TargetId *uuid.UUID
	UserId   *int64
	Since    *time.Time
	Until    *time.Time
}

type ListOption interface {
	ApplyToList(*ListOptions)
}

type ListOptions struct {
	PageSize int
	After    *Position
}

func (o *ListOptions) ApplyOptions(opts []ListOption) *ListOptions {
	for _, opt := range opts {
		opt.ApplyToList(o)
	}
	return o
}

type pageSize int

func (p pageSize) ApplyToList(opts *ListOptions) {
	opts.PageSize = int(p)
}

// PageSize sets the number of entries returned by each call to Next.
func PageSize(n int) ListOption {
	return pageSize(n)
}

// Position identifies an entry in the total order of the trail.
type Position struct {
	ChangeTime time.Time `json:"change_time"`
	LogId      int64     `json:"log_id"`
}

func (p Position) ApplyToList(opts *ListOptions) {
	opts.After = &p
}

// StartAfter resumes a query after the given position.
func StartAfter(p Position) ListOption {
	return p
}

func (o *ListOptions) limit() int {
	switch {
	case o.PageSize <= 0:
		return DefaultPageSize
	case o.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return o.PageSize
}

// Cursor walks the trail ordered by (change_time, id). Each page is a fresh
// keyset query, so no connection or transaction is held between pages.
type Cursor struct {
	db     *gorm.DB
	filter Filter
	opts   ListOptions
	last   *Position
	done   bool
}

func Query(db *gorm.DB, filter Filter, opts ...ListOption) *Cursor {
	c := &Cursor{db: db, filter: filter}
	c.opts.ApplyOptions(opts)
	c.last = c.opts.After
	return c
}

// Position returns the position of the last entry returned, or nil before the
// first page.
func (c *Cursor) Position() *Position {
	return c.last
}

func (c *Cursor) filtered(db *gorm.DB) *gorm.DB {
	f := c.filter
	if len(f.Kinds) > 0 {
		db = db.Where("kind IN ?", f.Kinds)
	}
	if f.UserId != nil {
		db = db.Where("user_id = ?", *f.UserId)
	}
	if f.Since != nil {
		db = db.Where("change_time >= ?", f.Since.UTC())
	}
	if f.Until != nil {
		db = db.Where("change_time < ?", f.Until.UTC())
	}
	if f.TargetId != nil {
		kinds := f.Kinds
		if len(kinds) == 0 {
			kinds = schema.LogKinds()
		}
		selects := make([]string, 0, len(kinds))
		args := make([]interface{}, 0, len(kinds))
		for _, kind := range kinds {
			st, ok := subtypes[kind]
			if !ok {
				continue
			}
			selects = append(selects, "SELECT log_id FROM "+st.table+" WHERE "+st.targetColumn+" = ?")
			args = append(args, *f.TargetId)
		}
		db = db.Where("id IN ("+strings.Join(selects, " UNION ALL ")+")", args...)
	}
	return db
}

// Next returns the next page of entries. An empty page means the cursor is
// exhausted.
func (c *Cursor) Next(ctx context.Context) ([]Entry, error) {
	if c.done {
		return nil, nil
	}

	for _, kind := range c.filter.Kinds {
		if err := schema.CheckValidLogKind(kind); err != nil {
			return nil, err
		}
	}

	limit := c.opts.limit()
	db := c.filtered(c.db.WithContext(ctx).Model(&schema.Log{}))
	if c.last != nil {
		db = db.Where("change_time > ? OR (change_time = ? AND id > ?)", c.last.ChangeTime, c.last.ChangeTime, c.last.LogId)
	}

	var logs []schema.Log
	if result := db.Order("change_time ASC, id ASC").Limit(limit).Find(&logs); result.Error != nil {
		slog.Error("sql error querying log", "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}

	if len(logs) < limit {
		c.done = true
	}
	if len(logs) == 0 {
		return nil, nil
	}

	entries, err := attachTargets(c.db.WithContext(ctx), logs)
	if err != nil {
		return nil, err
	}

	tail := logs[len(logs)-1]
	c.last = &Position{ChangeTime: tail.ChangeTime, LogId: tail.Id}

	return entries, nil
}

// All iterates every remaining entry, fetching pages as needed. Iteration
// stops after the first error.
func (c *Cursor) All(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			page, err := c.Next(ctx)
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if len(page) == 0 {
				return
			}
			for _, entry := range page {
				if !yield(entry, nil) {
					return
				}
			}
		}
	}
}

// Collect drains the cursor into a slice.
func (c *Cursor) Collect(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	for entry, err := range c.All(ctx) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
