package repositories

import (
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// sequenceBandwidth is the number of ids leased per write of the counter key.
// Ids left in a lease when the process stops without Release are skipped.
const sequenceBandwidth = 100

// sequence hands out the ids of one record kind from a leased Badger sequence.
// Allocation never takes part in the insert transaction, so concurrent inserts
// do not conflict on the counter key. Ids start at 1 and may have gaps.
type sequence struct {
	db   *badger.DB
	key  []byte
	mu   sync.Mutex
	seq  *badger.Sequence
	done bool
}

func newSequence(db *badger.DB, kind string) *sequence {
	return &sequence{db: db, key: []byte("seq:" + kind)}
}

func (s *sequence) next() (int64, error) {
	seq, err := s.acquire()
	if err != nil {
		return 0, err
	}
	var n uint64
	for i := 0; i < maxConflictRetries; i++ {
		n, err = seq.Next()
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		backoff(i)
	}
	if err != nil {
		return 0, err
	}
	return int64(n) + 1, nil
}

func (s *sequence) acquire() (*badger.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, badger.ErrDBClosed
	}
	if s.seq != nil {
		return s.seq, nil
	}
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		s.seq, err = s.db.GetSequence(s.key, sequenceBandwidth)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		backoff(i)
	}
	if err != nil {
		s.seq = nil
		return nil, err
	}
	return s.seq, nil
}

// release gives the unused part of the lease back, so the next start continues without a gap.
func (s *sequence) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	if s.seq == nil {
		return nil
	}
	err := s.seq.Release()
	s.seq = nil
	return err
}
