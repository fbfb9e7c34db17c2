package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"fences-bot/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

// Key layout, shared with the inspector tool.
const (
	SettingsKey = "fences:settings"
	BoardPrefix = "fences:board:"
)

type IDirectoryRepository interface {
	GetSettings() (domain.Directory, bool, error)
	SetExpiration(at *time.Time) error
	AddMember(member domain.Member) error
	RemoveMember(username string) error
	SetAdminFlag(username string, isAdmin bool) error
	SetDeliveryAddress(username string, address int64) error
	GetBoard(username string) (domain.Board, bool, error)
	AppendEntry(username string, entry domain.Entry) error
	Seed(admin *domain.Member, expiration *time.Time) error
}

// DirectoryRepository persists the settings singleton and one board
// document per member in BadgerDB, CBOR-encoded. Every mutation runs in
// a single transaction, so the member/board pair is created and deleted
// atomically.
type DirectoryRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewDirectoryRepository(db *badger.DB, log *slog.Logger) *DirectoryRepository {
	return &DirectoryRepository{db: db, log: log}
}

func boardKey(username string) []byte {
	return []byte(BoardPrefix + username)
}

// Seed initializes the store on first start: creates the settings
// singleton (with the configured initial expiration) and the initial
// admin member. Idempotent; a populated store is left untouched.
func (r *DirectoryRepository) Seed(admin *domain.Member, expiration *time.Time) error {
	_, found, err := r.GetSettings()
	if err != nil {
		return err
	}
	if !found {
		r.log.Info("Seeding settings document")
		if err := r.putSettings(domain.Directory{ExpirationAt: expiration}); err != nil {
			return err
		}
	}
	if admin == nil {
		return nil
	}
	dir, _, err := r.GetSettings()
	if err != nil {
		return err
	}
	if _, ok := dir.FindByUsername(admin.Username); ok {
		return nil
	}
	r.log.Info("Seeding initial admin", "username", admin.Username)
	return r.AddMember(*admin)
}

func (r *DirectoryRepository) GetSettings() (domain.Directory, bool, error) {
	var dir domain.Directory
	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(SettingsKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &dir)
		})
	})
	if err != nil {
		return domain.Directory{}, false, fmt.Errorf("get settings: %w", err)
	}
	return dir, found, nil
}

func (r *DirectoryRepository) putSettings(dir domain.Directory) error {
	data, err := cbor.Marshal(dir)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(SettingsKey), data)
	})
}

// updateSettings applies fn to the current directory and writes it back
// within one transaction.
func (r *DirectoryRepository) updateSettings(txn *badger.Txn, fn func(*domain.Directory)) error {
	var dir domain.Directory
	item, err := txn.Get([]byte(SettingsKey))
	switch err {
	case nil:
		if err := item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &dir)
		}); err != nil {
			return err
		}
	case badger.ErrKeyNotFound:
		// Start from an empty directory.
	default:
		return err
	}

	fn(&dir)

	data, err := cbor.Marshal(dir)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return txn.Set([]byte(SettingsKey), data)
}

func (r *DirectoryRepository) SetExpiration(at *time.Time) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return r.updateSettings(txn, func(dir *domain.Directory) {
			dir.ExpirationAt = at
		})
	})
}

// AddMember appends the member to the settings document and creates
// their empty board in the same transaction. Membership is a set:
// a username already present is left as is.
func (r *DirectoryRepository) AddMember(member domain.Member) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := r.updateSettings(txn, func(dir *domain.Directory) {
			if _, ok := dir.FindByUsername(member.Username); ok {
				return
			}
			dir.Members = append(dir.Members, member)
		}); err != nil {
			return err
		}

		key := boardKey(member.Username)
		if _, err := txn.Get(key); err == nil {
			return nil
		}
		data, err := cbor.Marshal(domain.Board{Username: member.Username})
		if err != nil {
			return fmt.Errorf("marshal board: %w", err)
		}
		return txn.Set(key, data)
	})
}

// RemoveMember deletes the member and their board atomically.
// Deleting an absent member is a no-op.
func (r *DirectoryRepository) RemoveMember(username string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := r.updateSettings(txn, func(dir *domain.Directory) {
			kept := dir.Members[:0]
			for _, m := range dir.Members {
				if m.Username != username {
					kept = append(kept, m)
				}
			}
			dir.Members = kept
		}); err != nil {
			return err
		}
		return txn.Delete(boardKey(username))
	})
}

func (r *DirectoryRepository) SetAdminFlag(username string, isAdmin bool) error {
	return r.mutateMember(username, func(m *domain.Member) {
		m.IsAdmin = isAdmin
	})
}

func (r *DirectoryRepository) SetDeliveryAddress(username string, address int64) error {
	return r.mutateMember(username, func(m *domain.Member) {
		m.DeliveryAddress = address
	})
}

func (r *DirectoryRepository) mutateMember(username string, fn func(*domain.Member)) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return r.updateSettings(txn, func(dir *domain.Directory) {
			for i := range dir.Members {
				if dir.Members[i].Username == username {
					fn(&dir.Members[i])
					return
				}
			}
		})
	})
}

func (r *DirectoryRepository) GetBoard(username string) (domain.Board, bool, error) {
	var board domain.Board
	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(boardKey(username))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &board)
		})
	})
	if err != nil {
		return domain.Board{}, false, fmt.Errorf("get board %q: %w", username, err)
	}
	return board, found, nil
}

// AppendEntry inserts the entry into the recipient's board unless a
// content-equal entry is already present (set-insert semantic: two
// identical sends collapse into one).
func (r *DirectoryRepository) AppendEntry(username string, entry domain.Entry) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var board domain.Board
		item, err := txn.Get(boardKey(username))
		switch err {
		case nil:
			if err := item.Value(func(val []byte) error {
				return cbor.Unmarshal(val, &board)
			}); err != nil {
				return err
			}
		case badger.ErrKeyNotFound:
			board.Username = username
		default:
			return err
		}

		for _, existing := range board.Entries {
			if existing.ContentEqual(entry) {
				r.log.Debug("Skipping duplicate board entry", "username", username, "alias", entry.SenderAlias)
				return nil
			}
		}
		board.Entries = append(board.Entries, entry)

		data, err := cbor.Marshal(board)
		if err != nil {
			return fmt.Errorf("marshal board: %w", err)
		}
		return txn.Set(boardKey(username), data)
	})
}
