package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// BadgerLog stores a run's log durably in BadgerDB. A day's entries are
// written first, split over as many transactions as badger needs, and the
// day counter is written last in its own transaction. Reads never go past
// the counter, so a day interrupted mid-write stays invisible and is
// cleared before the day is written again.
//
// Keys:
//
//	run/<id>/days                          -> last committed day
//	run/<id>/day/<day>/<profile>/<section> -> JSON Entry
type BadgerLog struct {
	db    *badger.DB
	runID string

	mu   sync.Mutex
	days int
	// dirty means entries past the counter may exist.
	dirty bool
}

// OpenBadgerLog attaches to the log of runID in db, recovering the number of
// committed days if the run already exists.
func OpenBadgerLog(db *badger.DB, runID string) (*BadgerLog, error) {
	l := &BadgerLog{db: db, runID: runID, dirty: true}
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(l.daysKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n, err := strconv.Atoi(string(val))
			if err != nil {
				return fmt.Errorf("corrupt day counter: %w", err)
			}
			l.days = n
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("open progress log %s: %w", runID, err)
	}
	return l, nil
}

func (l *BadgerLog) RunID() string { return l.runID }

func (l *BadgerLog) daysKey() []byte {
	return []byte("run/" + l.runID + "/days")
}

func (l *BadgerLog) dayPrefix(day int) []byte {
	return []byte(fmt.Sprintf("run/%s/day/%08d/", l.runID, day))
}

func (l *BadgerLog) allDaysPrefix() []byte {
	return []byte("run/" + l.runID + "/day/")
}

func (l *BadgerLog) entryKey(e Entry) []byte {
	return []byte(fmt.Sprintf("run/%s/day/%08d/%06d/%06d", l.runID, e.Day, e.Profile, e.Section))
}

func (l *BadgerLog) Commit(b *Batch) error {
	entries := b.Entries()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := checkCommit(l.days, b); err != nil {
		return err
	}

	day := b.Day()
	if l.dirty {
		if err := l.clearDay(day); err != nil {
			return fmt.Errorf("commit day %d: %w", day, err)
		}
	}
	l.dirty = true

	if err := l.writeEntries(entries); err != nil {
		return fmt.Errorf("commit day %d: %w", day, err)
	}
	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(l.daysKey(), []byte(strconv.Itoa(day)))
	})
	if err != nil {
		return fmt.Errorf("commit day %d: %w", day, err)
	}

	l.days = day
	l.dirty = false
	return nil
}

// writeEntries writes through a WriteBatch, which starts a new transaction
// whenever the current one is full.
func (l *BadgerLog) writeEntries(entries []Entry) error {
	wb := l.db.NewWriteBatch()
	defer wb.Cancel()

	for _, e := range entries {
		val, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := wb.Set(l.entryKey(e), val); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// clearDay deletes whatever a failed commit left behind for day.
func (l *BadgerLog) clearDay(day int) error {
	var keys [][]byte
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = l.dayPrefix(day)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return err
	}

	wb := l.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (l *BadgerLog) Days() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.days
}

func (l *BadgerLog) Day(day int) ([]Entry, error) {
	days := l.Days()
	if day < 1 || day > days {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDay, day)
	}
	return l.scan(l.dayPrefix(day), days)
}

func (l *BadgerLog) Entries() ([]Entry, error) {
	return l.scan(l.allDaysPrefix(), l.Days())
}

// scan reads the entries under prefix that belong to committed days.
func (l *BadgerLog) scan(prefix []byte, lastDay int) ([]Entry, error) {
	var out []Entry
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return err
			}
			// keys sort by zero-padded day
			if e.Day > lastDay {
				break
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read progress log %s: %w", l.runID, err)
	}
	return out, nil
}
