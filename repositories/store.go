package repositories

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key layout. Ids are zero padded to 19 digits so lexicographical order is numeric order.
//
//	seq:{kind}          leased by sequence
//	comment:{id}
//	notification:{user}:{id}
//	message:{chat}:{sender}:{id}
//	user:{id}
//	chat:{id}
//	participant:{chat}:{user}
const (
	commentKind      = "comment"
	notificationKind = "notification"
	messageKind      = "message"
	userKind         = "user"
	chatKind         = "chat"
	participantKind  = "participant"

	maxConflictRetries = 10
	conflictBackoff    = 2 * time.Millisecond
)

func key(kind string, ids ...int64) []byte {
	var b strings.Builder
	b.WriteString(kind)
	for _, id := range ids {
		fmt.Fprintf(&b, ":%019d", id)
	}
	return []byte(b.String())
}

// prefix is key with a trailing separator, used for scans.
func prefix(kind string, ids ...int64) []byte {
	return append(key(kind, ids...), ':')
}

// lastID parses the trailing id segment of a key.
func lastID(k []byte) (int64, error) {
	s := string(k)
	i := strings.LastIndexByte(s, ':')
	return strconv.ParseInt(s[i+1:], 10, 64)
}

// update runs fn in a read-write transaction, retrying when another writer
// committed a conflicting change first.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		backoff(i)
	}
	return err
}

// backoff sleeps a little longer on each attempt, with jitter so that
// writers which conflicted together do not retry together.
func backoff(attempt int) {
	base := time.Duration(attempt+1) * conflictBackoff
	time.Sleep(base + rand.N(base))
}

func exists(db *badger.DB, k []byte) (bool, error) {
	err := db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

func readRecord(txn *badger.Txn, k []byte) (record, error) {
	item, err := txn.Get(k)
	if err != nil {
		return nil, err
	}
	var r record
	err = item.Value(func(val []byte) error {
		r, err = unmarshalRecord(val)
		return err
	})
	return r, err
}

// scanRecords decodes every value under p.
func scanRecords(db *badger.DB, p []byte) ([]record, error) {
	var records []record
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				r, err := unmarshalRecord(val)
				if err != nil {
					return err
				}
				records = append(records, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}

// scanKeys returns every key under p without loading values.
func scanKeys(db *badger.DB, p []byte) ([][]byte, error) {
	var keys [][]byte
	err := db.View(func(txn *badger.Txn) error {
		keys = keysIn(txn, p)
		return nil
	})
	return keys, err
}

// keysIn lists the keys under p as seen by txn, read-write transactions included.
func keysIn(txn *badger.Txn, p []byte) [][]byte {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	options.Prefix = p
	it := txn.NewIterator(options)
	defer it.Close()
	var keys [][]byte
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}
