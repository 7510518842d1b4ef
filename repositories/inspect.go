package repositories

import (
	"encoding/binary"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"
)

// Entry is a raw view of one stored key, used by the inspection tool.
type Entry struct {
	Key    string
	Fields map[string]any
}

// Dump walks every key under p. Sequence counters are rendered as {"next": n}
// and participant links, which carry no value, as an empty field set.
func Dump(db *badger.DB, p string) ([]Entry, error) {
	var entries []Entry
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		pb := []byte(p)
		for it.Seek(pb); it.ValidForPrefix(pb); it.Next() {
			item := it.Item()
			k := string(item.KeyCopy(nil))
			err := item.Value(func(val []byte) error {
				fields, err := decodeEntry(k, val)
				if err != nil {
					return err
				}
				entries = append(entries, Entry{Key: k, Fields: fields})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return entries, err
}

func decodeEntry(k string, val []byte) (map[string]any, error) {
	switch {
	case strings.HasPrefix(k, "seq:") && len(val) == 8:
		return map[string]any{"next": int64(binary.BigEndian.Uint64(val)) + 1}, nil
	case len(val) == 0:
		return map[string]any{}, nil
	}
	r, err := unmarshalRecord(val)
	if err != nil {
		return nil, err
	}
	return lo.MapValues(r, func(v *structpb.Value, _ string) any {
		return v.AsInterface()
	}), nil
}
