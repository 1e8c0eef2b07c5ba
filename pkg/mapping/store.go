package mapping

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/akahusync/akahusync/pkg/errors"
	"github.com/akahusync/akahusync/pkg/logging"
)

// Default permissions for the mapping document and its directory.
const (
	filePermissions = 0o644
	dirPermissions  = 0o755
)

// Store owns the on-disk mapping document. All reads and writes of the
// document go through it.
type Store struct {
	path string
}

// NewStore creates a store for the document at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted document. A missing file is bootstrap mode and
// returns an empty document; a present but unreadable or malformed file is
// an error, since proceeding would risk losing confirmed mappings.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Info().Str("path", s.path).Msg("No mapping document found, bootstrapping")
			return NewDocument(), nil
		}
		return nil, errors.NewStoreError("load", s.path, err)
	}

	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.NewStoreError("load", s.path, errors.WrapParse("json", s.path, err))
	}

	// Older documents may omit maps entirely.
	if doc.AkahuAccounts == nil || doc.ActualAccounts == nil || doc.YNABAccounts == nil || doc.Mapping == nil {
		fixed := NewDocument()
		if doc.AkahuAccounts != nil {
			fixed.AkahuAccounts = doc.AkahuAccounts
		}
		if doc.ActualAccounts != nil {
			fixed.ActualAccounts = doc.ActualAccounts
		}
		if doc.YNABAccounts != nil {
			fixed.YNABAccounts = doc.YNABAccounts
		}
		if doc.Mapping != nil {
			fixed.Mapping = doc.Mapping
		}
		doc = fixed
	}

	if err := doc.Validate(); err != nil {
		return nil, errors.NewStoreError("load", s.path, err)
	}

	return doc, nil
}

// Save atomically overwrites the persisted document. Run-local sequence
// fields are stripped first, and the write goes through a temp file + rename
// so the document is never left mid-write even across a process shutdown.
func (s *Store) Save(doc *Document) error {
	if err := doc.Validate(); err != nil {
		return errors.NewStoreError("save", s.path, err)
	}

	doc.stripSeq()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.NewStoreError("save", s.path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return errors.NewStoreError("save", s.path, errors.WrapIO("create", dir, err))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.NewStoreError("save", s.path, errors.WrapIO("create", dir, err))
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.NewStoreError("save", s.path, errors.WrapIO("write", tmpPath, err))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.NewStoreError("save", s.path, errors.WrapIO("write", tmpPath, err))
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStoreError("save", s.path, errors.WrapIO("close", tmpPath, err))
	}
	if err := os.Chmod(tmpPath, filePermissions); err != nil {
		return errors.NewStoreError("save", s.path, errors.WrapIO("write", tmpPath, err))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return errors.NewStoreError("save", s.path, errors.WrapIO("rename", s.path, err))
	}

	logging.Debug().
		Str("path", s.path).
		Int("accounts", len(doc.AkahuAccounts)).
		Int("entries", len(doc.Mapping)).
		Msg("Mapping document saved")

	return nil
}
