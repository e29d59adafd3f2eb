//go:generate go run go.uber.org/mock/mockgen -source=journal_repository.go -destination=../../mocks/mock_journal_repository.go -package=mocks
package storage

import (
	"fmt"
	"log/slog"
	"syncbridge/domain"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const journalPrefix = "line:"

type IJournalRepository interface {
	Store(entry domain.Entry) error
	List(cursor *string, limit int) ([]domain.Entry, *string, error)
}

// JournalRepository archives every broadcast line. It is never read back into
// the in-memory history, a restarted server still starts with an empty log.
type JournalRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewJournalRepository(db *badger.DB, log *slog.Logger) *JournalRepository {
	return &JournalRepository{db: db, log: log}
}

// Store persists an entry under "line:{at_unixnano}:{seq}:{uuid}".
// Both numbers are padded to 19 digits so keys sort chronologically across restarts,
// the sequence number breaks ties inside one run.
func (r *JournalRepository) Store(entry domain.Entry) error {
	value, err := fromEntry(entry)
	if err != nil {
		return err
	}
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(journalKey(entry)), bytes)
	})
}

// List walks the journal from the oldest entry, starting after cursor when set.
// limit <= 0 returns everything. The returned cursor is the last key read.
func (r *JournalRepository) List(cursor *string, limit int) ([]domain.Entry, *string, error) {
	var entries []domain.Entry
	var lastKey *string

	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(journalPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = []byte(*cursor)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d entries reached", limit))
				break
			}
			item := it.Item()
			key := string(item.KeyCopy(nil))
			err := item.Value(func(value []byte) error {
				entry, err := decode(value)
				if err != nil {
					return fmt.Errorf("journal key %s: %w", key, err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
			lastKey = &key
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return entries, lastKey, nil
}

func journalKey(entry domain.Entry) string {
	return fmt.Sprintf("%s%019d:%019d:%s", journalPrefix, entry.At.UnixNano(), entry.Seq, entry.ID)
}

func fromEntry(entry domain.Entry) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":   entry.ID.String(),
		"seq":  float64(entry.Seq),
		"kind": string(entry.Kind),
		"line": entry.Line,
		"at":   entry.At.UTC().Format(time.RFC3339Nano),
	})
}

func decode(value []byte) (domain.Entry, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return domain.Entry{}, err
	}
	fields := s.GetFields()

	id, err := uuid.Parse(fields["id"].GetStringValue())
	if err != nil {
		return domain.Entry{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, fields["at"].GetStringValue())
	if err != nil {
		return domain.Entry{}, err
	}
	return domain.Entry{
		ID:   id,
		Seq:  uint64(fields["seq"].GetNumberValue()),
		Kind: domain.Kind(fields["kind"].GetStringValue()),
		Line: fields["line"].GetStringValue(),
		At:   at,
	}, nil
}
