package state

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/store"
	"github.com/yigit/edupay/internal/store/memstore"
)

func seeded(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	ms := memstore.New()

	_, err := ms.Insert(ctx, store.TableSettings, store.Record{
		"institution_name":   "Digital Communique Academy",
		"available_sessions": []string{"2024-25"},
	})
	require.NoError(t, err)
	_, err = ms.Insert(ctx, store.TableCourses, store.Record{
		"id": "c1", "courseName": "B.Tech Computer Science", "frequency": "Semester", "total_amount": decimal.NewFromInt(75000),
	})
	require.NoError(t, err)
	for _, h := range []store.Record{
		{"course_id": "c1", "name": "Tuition Fee", "amount": decimal.NewFromInt(60000), "type": "Base"},
		{"course_id": "c1", "name": "Library & Lab", "amount": decimal.NewFromInt(10000), "type": "Base"},
		{"course_id": "c1", "name": "Admission Fee", "amount": decimal.NewFromInt(5000), "type": "One-Time"},
	} {
		_, err = ms.Insert(ctx, store.TableFeeHeads, h)
		require.NoError(t, err)
	}
	_, err = ms.Insert(ctx, store.TableStudents, store.Record{"id": "s1", "name": "Aarav Sharma", "courseId": "c1"})
	require.NoError(t, err)
	_, err = ms.Insert(ctx, store.TablePayments, store.Record{
		"id": "p1", "student_id": "s1", "amount": "45000", "transaction_id": "TXN123",
	})
	require.NoError(t, err)
	return ms
}

func TestRefreshJoinsHeadsIntoCourses(t *testing.T) {
	ms := seeded(t)
	st := NewStore()
	r := NewRefresher(ms, st, time.Second)

	require.NoError(t, r.Refresh(context.Background()))

	snap := st.Current()
	assert.Equal(t, "Digital Communique Academy", snap.Settings.InstitutionName)
	require.Len(t, snap.Courses, 1)
	assert.Len(t, snap.Courses[0].Heads, 3)
	assert.Equal(t, "Tuition Fee", snap.Courses[0].Heads[0].Name)
	assert.Equal(t, "c1", snap.Students[0].CourseID)
	assert.Equal(t, "B.Tech Computer Science", snap.CourseName("c1"))
	assert.Equal(t, "Unassigned", snap.CourseName("gone"))
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestRefreshIsIdempotent(t *testing.T) {
	ms := seeded(t)
	st := NewStore()
	r := NewRefresher(ms, st, time.Second)

	require.NoError(t, r.Refresh(context.Background()))
	first := *st.Current()
	require.NoError(t, r.Refresh(context.Background()))
	second := *st.Current()

	first.LoadedAt, second.LoadedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
}

func TestRefreshKeepsPreviousCollectionOnFailure(t *testing.T) {
	ctx := context.Background()
	ms := seeded(t)
	st := NewStore()
	r := NewRefresher(ms, st, time.Second)
	require.NoError(t, r.Refresh(ctx))

	_, err := ms.Insert(ctx, store.TableStudents, store.Record{"id": "s2", "name": "Ishani Gupta"})
	require.NoError(t, err)
	_, err = ms.Insert(ctx, store.TablePayments, store.Record{"id": "p2", "student_id": "s2", "amount": "150000"})
	require.NoError(t, err)
	ms.FailTable(store.TablePayments, errors.New("connection reset"))

	err = r.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "payments")

	snap := st.Current()
	assert.Len(t, snap.Students, 2, "healthy collections are replaced")
	assert.Len(t, snap.Payments, 1, "failed collection keeps previous data")

	ms.FailTable(store.TablePayments, nil)
	require.NoError(t, r.Refresh(ctx))
	assert.Len(t, st.Current().Payments, 2)
}

func TestRefreshNotifiesListeners(t *testing.T) {
	ms := seeded(t)
	st := NewStore()
	var calls atomic.Int32
	st.Subscribe(func(s *Snapshot) {
		calls.Add(1)
		assert.Len(t, s.Payments, 1)
	})

	require.NoError(t, NewRefresher(ms, st, time.Second).Refresh(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

// blockingGateway stalls payments selects until released or cancelled.
type blockingGateway struct {
	store.Gateway
	block   atomic.Bool
	started chan struct{}
}

func (g *blockingGateway) SelectAll(ctx context.Context, table store.Table) ([]store.Record, error) {
	if table == store.TablePayments && g.block.CompareAndSwap(true, false) {
		close(g.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return g.Gateway.SelectAll(ctx, table)
}

func TestNewerRefreshSupersedesOlder(t *testing.T) {
	ms := seeded(t)
	gw := &blockingGateway{Gateway: ms, started: make(chan struct{})}
	gw.block.Store(true)
	st := NewStore()
	r := NewRefresher(gw, st, 5*time.Second)

	older := make(chan error, 1)
	go func() { older <- r.Refresh(context.Background()) }()
	<-gw.started

	require.NoError(t, r.Refresh(context.Background()))
	newer := st.Current()

	select {
	case err := <-older:
		assert.ErrorIs(t, err, apperrors.ErrRefreshSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("older refresh did not finish")
	}
	assert.Same(t, newer, st.Current(), "superseded refresh must not overwrite")
	assert.Len(t, newer.Payments, 1)
}
