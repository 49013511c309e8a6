// Package state holds the application-state snapshot and the routine that
// rebuilds it from the data store.
package state

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yigit/edupay/internal/app/models"
)

// Snapshot is a full, immutable copy of every collection. Callers must not
// modify the slices of a snapshot they did not build.
type Snapshot struct {
	Settings       models.Settings
	Courses        []models.Course
	FeeHeads       []models.FeeHead
	Students       []models.Student
	Payments       []models.Payment
	Accountants    []models.Accountant
	Notifications  []models.Notification
	PendingChanges []models.PendingChange
	LoadedAt       time.Time
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Settings: models.Settings{
			Branches:  []string{},
			Semesters: []string{},
			Sessions:  []string{},
		},
		Courses:        []models.Course{},
		FeeHeads:       []models.FeeHead{},
		Students:       []models.Student{},
		Payments:       []models.Payment{},
		Accountants:    []models.Accountant{},
		Notifications:  []models.Notification{},
		PendingChanges: []models.PendingChange{},
	}
}

// Counts returns the number of rows per collection.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		"courses":        len(s.Courses),
		"feeHeads":       len(s.FeeHeads),
		"students":       len(s.Students),
		"payments":       len(s.Payments),
		"accountants":    len(s.Accountants),
		"notifications":  len(s.Notifications),
		"pendingChanges": len(s.PendingChanges),
	}
}

// Unread counts unread notifications.
func (s *Snapshot) Unread() int {
	n := 0
	for _, note := range s.Notifications {
		if !note.Read {
			n++
		}
	}
	return n
}

// Pending counts changes awaiting approval.
func (s *Snapshot) Pending() int {
	n := 0
	for _, pc := range s.PendingChanges {
		if pc.Status == models.StatusPending {
			n++
		}
	}
	return n
}

// Course returns the course with id.
func (s *Snapshot) Course(id string) (models.Course, bool) {
	for _, c := range s.Courses {
		if c.ID == id {
			return c, true
		}
	}
	return models.Course{}, false
}

// CourseName returns the course name, or "Unassigned" for a dangling reference.
func (s *Snapshot) CourseName(id string) string {
	if c, ok := s.Course(id); ok {
		return c.Name
	}
	return models.UnassignedCourse
}

// Student returns the student with id.
func (s *Snapshot) Student(id string) (models.Student, bool) {
	for _, st := range s.Students {
		if st.ID == id {
			return st, true
		}
	}
	return models.Student{}, false
}

// StudentName returns the student's name, or "" when unknown.
func (s *Snapshot) StudentName(id string) string {
	st, _ := s.Student(id)
	return st.Name
}

// Payment returns the payment with id.
func (s *Snapshot) Payment(id string) (models.Payment, bool) {
	for _, p := range s.Payments {
		if p.ID == id {
			return p, true
		}
	}
	return models.Payment{}, false
}

// PendingChange returns the pending change with id.
func (s *Snapshot) PendingChange(id string) (models.PendingChange, bool) {
	for _, pc := range s.PendingChanges {
		if pc.ID == id {
			return pc, true
		}
	}
	return models.PendingChange{}, false
}

// Accountant returns the accountant with id.
func (s *Snapshot) Accountant(id string) (models.Accountant, bool) {
	for _, a := range s.Accountants {
		if a.ID == id {
			return a, true
		}
	}
	return models.Accountant{}, false
}

// AccountantByLogin returns the accountant whose login id equals userID exactly.
func (s *Snapshot) AccountantByLogin(userID string) (models.Accountant, bool) {
	for _, a := range s.Accountants {
		if a.UserID == userID {
			return a, true
		}
	}
	return models.Accountant{}, false
}

// PaymentByTransaction returns another payment whose transaction id equals
// txnID after trimming and lowercasing. exceptID is skipped.
func (s *Snapshot) PaymentByTransaction(txnID, exceptID string) (models.Payment, bool) {
	key := NormalizeTransactionID(txnID)
	if key == "" {
		return models.Payment{}, false
	}
	for _, p := range s.Payments {
		if p.ID == exceptID {
			continue
		}
		if NormalizeTransactionID(p.TransactionID) == key {
			return p, true
		}
	}
	return models.Payment{}, false
}

// NormalizeTransactionID is the comparison key of a transaction id.
func NormalizeTransactionID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Listener is called with every snapshot the refresher applies.
type Listener func(*Snapshot)

// Store owns the current snapshot. Readers never observe a partial update.
type Store struct {
	current   atomic.Pointer[Snapshot]
	mu        sync.RWMutex
	listeners []Listener
}

// NewStore creates a store holding an empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(emptySnapshot())
	return s
}

// Current returns the latest applied snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Subscribe registers l for every subsequently applied snapshot.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) replace(snap *Snapshot) {
	s.current.Store(snap)
}

func (s *Store) notify(snap *Snapshot) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range listeners {
		l(snap)
	}
}
