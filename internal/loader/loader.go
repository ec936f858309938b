// Package loader drives the catalog rebuild: it recreates the destination
// schema, computes the dependency order, and then, entity by entity, streams
// fetched rows through the normalizer into one transaction per entity.
//
// Ordering is a correctness requirement: an entity is inserted only after
// every entity its foreign keys reference has committed. Fetches, by
// contrast, carry no ordering constraint, so the loader may start the next
// downloads while the current entity is still inserting (bounded by the
// fetch concurrency option). Inserts themselves are strictly sequential.
package loader

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/fidoriel/rebrickable-sqlite-orm/internal/catalog"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/metrics"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/normalize"
	"github.com/fidoriel/rebrickable-sqlite-orm/internal/storage"
)

// Fetcher retrieves a source locator as a decompressed byte stream.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Options tune a Loader. Zero values get defaults from New.
type Options struct {
	// BaseURL overrides the download CDN root; empty means the public CDN.
	BaseURL string

	// Progress enables per-batch progress lines. The per-entity summary line
	// is always logged.
	Progress bool

	// FetchConcurrency bounds how many entity downloads may be in flight at
	// once. 1 disables prefetching entirely.
	FetchConcurrency int

	// BatchSize is the number of rows per insert call within the entity's
	// transaction.
	BatchSize int

	// Entities overrides the registry; nil means catalog.All().
	Entities []catalog.Entity
}

// Loader rebuilds the catalog in a destination store.
type Loader struct {
	fetcher  Fetcher
	entities []catalog.Entity
	opts     Options
}

// New constructs a Loader. fetcher must not be nil.
func New(fetcher Fetcher, opts Options) *Loader {
	if opts.FetchConcurrency < 1 {
		opts.FetchConcurrency = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	ents := opts.Entities
	if ents == nil {
		ents = catalog.All()
	}
	return &Loader{fetcher: fetcher, entities: ents, opts: opts}
}

// fetched is a prefetched entity body (or the error that replaced it).
type fetched struct {
	body io.ReadCloser
	err  error
}

// Run performs one full rebuild. It verifies the registry and computes the
// load order before touching the network or the store, recreates the schema,
// and then loads each entity inside its own transaction. The first failure
// aborts the run; entities committed before it remain in place, and a re-run
// rebuilds everything from scratch.
func (l *Loader) Run(ctx context.Context, store storage.Store) error {
	if err := catalog.Check(l.entities); err != nil {
		return err
	}
	order, err := catalog.Order(l.entities)
	if err != nil {
		return err
	}
	ordered := make([]catalog.Entity, len(order))
	for i, name := range order {
		e, _ := lookup(l.entities, name)
		ordered[i] = e
	}

	if err := store.CreateSchema(ctx, ordered); err != nil {
		return &storage.Error{Op: "create schema", Err: err}
	}
	log.Printf("loader: schema created tables=%d order=%v", len(ordered), order)

	// Prefetch pipeline: a slot per entity, filled in order by up to
	// FetchConcurrency workers. A slot's download begins only once fewer
	// than FetchConcurrency earlier entities are still unconsumed.
	fetchCtx, cancelFetch := context.WithCancel(ctx)
	defer cancelFetch()

	slots := make([]chan fetched, len(ordered))
	for i := range slots {
		slots[i] = make(chan fetched, 1)
	}
	sem := make(chan struct{}, l.opts.FetchConcurrency)
	go func() {
		for i, e := range ordered {
			select {
			case sem <- struct{}{}:
			case <-fetchCtx.Done():
				return
			}
			go func(i int, e catalog.Entity) {
				body, err := l.fetcher.Fetch(fetchCtx, e.URL(l.opts.BaseURL))
				slots[i] <- fetched{body: body, err: err}
			}(i, e)
		}
	}()
	// On any exit path, release bodies that were fetched but never consumed.
	defer func() {
		cancelFetch()
		for _, slot := range slots {
			select {
			case f := <-slot:
				if f.body != nil {
					_ = f.body.Close()
				}
			default:
			}
		}
	}()

	start := time.Now()
	for i, e := range ordered {
		var f fetched
		select {
		case f = <-slots[i]:
		case <-ctx.Done():
			return ctx.Err()
		}

		entStart := time.Now()
		var rows int64
		err := f.err
		if err == nil {
			rows, err = l.loadEntity(ctx, store, e, f.body)
		}
		<-sem
		metrics.RecordEntity(e.Name, rows, err, time.Since(entStart))
		if err != nil {
			return fmt.Errorf("load %s: %w", e.Name, err)
		}
	}

	log.Printf("loader: rebuild complete entities=%d elapsed=%s",
		len(ordered), time.Since(start).Truncate(time.Millisecond))
	return nil
}

// loadEntity streams one entity's rows into a single transaction and commits
// it. On any error the transaction is rolled back, so the destination never
// holds a partial entity.
func (l *Loader) loadEntity(ctx context.Context, store storage.Store, e catalog.Entity, body io.ReadCloser) (int64, error) {
	defer body.Close()

	tx, err := store.Begin(ctx)
	if err != nil {
		return 0, &storage.Error{Op: "begin", Entity: e.Name, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()

	rowsCh := make(chan []any, 256)
	streamErr := make(chan error, 1)
	go func() {
		defer close(rowsCh)
		streamErr <- normalize.Stream(streamCtx, body, e, rowsCh)
	}()

	var (
		total     int64
		dg        = newDigest()
		batch     = make([][]any, 0, l.opts.BatchSize)
		entStart  = time.Now()
		lastFlush = entStart
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := tx.Insert(ctx, e, batch); err != nil {
			return &storage.Error{Op: "insert", Entity: e.Name, Err: err}
		}
		total += int64(len(batch))
		if l.opts.Progress {
			now := time.Now()
			since := now.Sub(lastFlush)
			rps := float64(0)
			if since > 0 {
				rps = float64(len(batch)) / since.Seconds()
			}
			log.Printf("loader: entity=%s inserted=%d total=%d rps=%.0f", e.Name, len(batch), total, rps)
			lastFlush = now
		}
		batch = batch[:0]
		return nil
	}

	for row := range rowsCh {
		dg.add(row)
		batch = append(batch, row)
		if len(batch) >= l.opts.BatchSize {
			if err := flush(); err != nil {
				cancelStream()
				for range rowsCh {
					// drain so the producer can exit
				}
				return total, err
			}
		}
	}
	if err := <-streamErr; err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}

	if err := tx.Commit(ctx); err != nil {
		return total, &storage.Error{Op: "commit", Entity: e.Name, Err: err}
	}
	committed = true

	log.Printf("loader: entity=%s committed rows=%d digest=%016x elapsed=%s",
		e.Name, total, dg.sum(), time.Since(entStart).Truncate(time.Millisecond))
	return total, nil
}

func lookup(entities []catalog.Entity, name string) (catalog.Entity, bool) {
	for _, e := range entities {
		if e.Name == name {
			return e, true
		}
	}
	return catalog.Entity{}, false
}
