package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/pkg/logger"
	"github.com/yigit/edupay/internal/store"
	"golang.org/x/sync/errgroup"
)

// Refresher rebuilds the snapshot from the data store. It is the only writer
// of the state store.
type Refresher struct {
	gateway store.Gateway
	state   *Store
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewRefresher creates a refresher. timeout bounds each collection fetch.
func NewRefresher(gateway store.Gateway, state *Store, timeout time.Duration) *Refresher {
	return &Refresher{
		gateway: gateway,
		state:   state,
		timeout: timeout,
		log:     logger.Component("refresh"),
		now:     time.Now,
	}
}

// Refresh fetches every collection concurrently and replaces the snapshot.
//
// A failed collection keeps its previous contents while the others are
// replaced; the returned error then wraps apperrors.ErrStoreUnavailable and
// names every failed collection. Starting a refresh cancels any refresh still
// in flight, and the older one returns apperrors.ErrRefreshSuperseded without
// touching the snapshot.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	rows := make([][]store.Record, len(store.Tables))
	errs := make([]error, len(store.Tables))

	var g errgroup.Group
	for i, table := range store.Tables {
		i, table := i, table
		g.Go(func() error {
			fetchCtx := ctx
			if r.timeout > 0 {
				var fetchCancel context.CancelFunc
				fetchCtx, fetchCancel = context.WithTimeout(ctx, r.timeout)
				defer fetchCancel()
			}
			rows[i], errs[i] = r.gateway.SelectAll(fetchCtx, table)
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		r.log.Debug().Uint64("generation", gen).Msg("Refresh superseded")
		return apperrors.ErrRefreshSuperseded
	}
	r.cancel = nil
	snap, failed := r.build(r.state.Current(), rows, errs)
	r.state.replace(snap)
	r.mu.Unlock()

	r.state.notify(snap)

	if len(failed) == 0 {
		r.log.Debug().
			Int("courses", len(snap.Courses)).
			Int("students", len(snap.Students)).
			Int("payments", len(snap.Payments)).
			Msg("Snapshot refreshed")
		return nil
	}

	names := make([]string, 0, len(failed))
	causes := make([]error, 0, len(failed))
	for i, err := range errs {
		if err == nil {
			continue
		}
		table := store.Tables[i]
		r.log.Warn().Err(err).Str("table", string(table)).Msg("Collection fetch failed, keeping previous data")
		names = append(names, string(table))
		causes = append(causes, fmt.Errorf("%s: %w", table, err))
	}
	r.log.Error().Strs("tables", names).Msg("Refresh completed with failures")
	return fmt.Errorf("%w: refresh failed for %s: %w",
		apperrors.ErrStoreUnavailable, strings.Join(names, ", "), errors.Join(causes...))
}

func (r *Refresher) build(prev *Snapshot, rows [][]store.Record, errs []error) (*Snapshot, []store.Table) {
	next := *prev
	next.LoadedAt = r.now()

	var failed []store.Table
	for i, table := range store.Tables {
		if errs[i] != nil {
			failed = append(failed, table)
			continue
		}
		recs := rows[i]
		switch table {
		case store.TableSettings:
			if len(recs) > 0 {
				next.Settings = normalize.Settings(recs[0])
			} else {
				next.Settings = emptySnapshot().Settings
			}
		case store.TableCourses:
			next.Courses = collect(recs, normalize.Course)
		case store.TableFeeHeads:
			next.FeeHeads = collect(recs, normalize.FeeHead)
		case store.TableStudents:
			next.Students = collect(recs, normalize.Student)
		case store.TablePayments:
			next.Payments = collect(recs, normalize.Payment)
		case store.TableAccountants:
			next.Accountants = collect(recs, normalize.Accountant)
		case store.TableNotifications:
			next.Notifications = collect(recs, normalize.Notification)
		case store.TablePendingChanges:
			next.PendingChanges = collect(recs, normalize.PendingChange)
		}
	}

	next.Courses = joinHeads(next.Courses, next.FeeHeads)
	return &next, failed
}

func collect[T any](recs []store.Record, read func(store.Record) T) []T {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		out = append(out, read(rec))
	}
	return out
}

// joinHeads returns copies of courses with their heads attached by course id.
func joinHeads(courses []models.Course, heads []models.FeeHead) []models.Course {
	byCourse := make(map[string][]models.FeeHead, len(courses))
	for _, h := range heads {
		byCourse[h.CourseID] = append(byCourse[h.CourseID], h)
	}
	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		c.Heads = byCourse[c.ID]
		if c.Heads == nil {
			c.Heads = []models.FeeHead{}
		}
		out = append(out, c)
	}
	return out
}
