package session

import (
	"context"
	"sync"

	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
)

// Memory is an in-process Store. Saves counts writes so callers can assert
// that a flow did or did not touch the session.
type Memory struct {
	mu     sync.Mutex
	rec    *Record
	Saves  int
	Clears int
}

// NewMemory returns an empty store.
func NewMemory() *Memory { return &Memory{} }

// NewMemoryWith returns a store holding s.
func NewMemoryWith(s model.Session) *Memory {
	r, _ := Encode(s)
	return &Memory{rec: &r}
}

// Put stores a raw record, bypassing encoding.
func (m *Memory) Put(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &r
}

// Raw returns the stored record, if any.
func (m *Memory) Raw() (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return Record{}, false
	}
	return *m.rec, true
}

func (m *Memory) Load(_ context.Context) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return model.Session{}, errs.ErrNoSession
	}
	return Decode(*m.rec)
}

func (m *Memory) Save(_ context.Context, s model.Session) error {
	r, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &r
	m.Saves++
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	m.Clears++
	return nil
}
