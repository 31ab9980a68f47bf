// Package fs manages knowledge bases as directories on the local file system.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/sqlite"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// File names inside the root and knowledge base directories.
const (
	ManifestFile = "kb.yaml"
	DatabaseFile = "kb.db"
	lockFile     = ".lock"
	stagingDir   = ".staging"
	tmpSuffix    = ".tmp"
)

// lockRetryDelay is how often a blocked process retries the root lock.
const lockRetryDelay = 50 * time.Millisecond

// Ensure Registry implements dockb.KnowledgeBaseRegistry at compile time.
var _ dockb.KnowledgeBaseRegistry = (*Registry)(nil)

// Registry stores each knowledge base in its own directory under a root:
// a YAML manifest next to a SQLite database. Creation and deletion hold a
// file lock on the root so concurrent processes see a consistent set.
type Registry struct {
	root      string
	tokenizer dockb.Tokenizer
	lock      *flock.Flock

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	handles map[string]*handle
}

// handle is an open knowledge base.
type handle struct {
	db      *sqlite.DB
	storage *dockb.Storage
}

// NewRegistry returns a registry rooted at root. Text is tokenized for the
// lexical index with tokenizer.
func NewRegistry(root string, tokenizer dockb.Tokenizer) *Registry {
	return &Registry{
		root:      root,
		tokenizer: tokenizer,
		lock:      flock.New(filepath.Join(root, lockFile)),
		Now:       time.Now,
		handles:   make(map[string]*handle),
	}
}

// Root returns the root directory.
func (r *Registry) Root() string { return r.root }

// Open creates the root directory if needed.
func (r *Registry) Open() error {
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return fmt.Errorf("create root directory: %w", err)
	}
	return nil
}

// Close closes every open knowledge base.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, h := range r.handles {
		errs = append(errs, h.db.Close())
		delete(r.handles, name)
	}
	return errors.Join(errs...)
}

// CreateKnowledgeBase creates the directory of a new knowledge base.
// The directory is populated under the hidden staging directory and renamed
// into place, so a crash never leaves a half-created knowledge base behind.
func (r *Registry) CreateKnowledgeBase(ctx context.Context, kb *dockb.KnowledgeBase) (*dockb.Storage, error) {
	if err := kb.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lockRoot(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	dir := r.dir(kb.Name)
	if _, err := os.Stat(dir); err == nil {
		return nil, dockb.Errorf(dockb.ECONFLICT, "knowledge base %q already exists", kb.Name)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	now := r.Now().UTC().Truncate(time.Second)
	kb.ID = uuid.NewString()
	kb.CreatedAt = now
	kb.UpdatedAt = now

	tmp := filepath.Join(r.root, stagingDir, kb.Name)
	if err := os.RemoveAll(tmp); err != nil {
		return nil, err
	}
	if err := r.populate(tmp, kb); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, dir); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, fmt.Errorf("commit knowledge base: %w", err)
	}

	h, err := r.openHandle(kb)
	if err != nil {
		return nil, err
	}
	return h.storage, nil
}

// populate writes the manifest and an empty database into dir.
func (r *Registry) populate(dir string, kb *dockb.KnowledgeBase) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeManifest(dir, kb); err != nil {
		return err
	}
	db := sqlite.NewDB(filepath.Join(dir, DatabaseFile))
	if err := db.Open(); err != nil {
		return err
	}
	return db.Close()
}

// OpenKnowledgeBase returns the storage of an existing knowledge base.
// Handles are cached until the knowledge base is deleted or the registry closed.
func (r *Registry) OpenKnowledgeBase(ctx context.Context, name string) (*dockb.Storage, error) {
	if err := dockb.ValidateKnowledgeBaseName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[name]; ok {
		return h.storage, nil
	}

	kb, err := readManifest(r.dir(name))
	if err != nil {
		return nil, err
	}
	h, err := r.openHandle(kb)
	if err != nil {
		return nil, err
	}
	return h.storage, nil
}

func (r *Registry) openHandle(kb *dockb.KnowledgeBase) (*handle, error) {
	db := sqlite.NewDB(filepath.Join(r.dir(kb.Name), DatabaseFile))
	db.Now = r.Now
	if err := db.Open(); err != nil {
		return nil, err
	}

	h := &handle{
		db: db,
		storage: &dockb.Storage{
			KnowledgeBase: kb,
			Documents:     sqlite.NewDocumentService(db, r.tokenizer),
			Lexical:       sqlite.NewLexicalIndex(db, r.tokenizer),
			Vectors:       sqlite.NewVectorService(db),
		},
	}
	r.handles[kb.Name] = h
	return h, nil
}

// FindKnowledgeBases returns every knowledge base with a readable manifest,
// sorted by name.
func (r *Registry) FindKnowledgeBases(ctx context.Context) ([]*dockb.KnowledgeBase, error) {
	entries, err := os.ReadDir(r.root)
	if os.IsNotExist(err) {
		return []*dockb.KnowledgeBase{}, nil
	} else if err != nil {
		return nil, err
	}

	kbs := make([]*dockb.KnowledgeBase, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		kb, err := readManifest(filepath.Join(r.root, name))
		if err != nil {
			continue
		}
		kbs = append(kbs, kb)
	}

	sort.Slice(kbs, func(i, j int) bool { return kbs[i].Name < kbs[j].Name })
	return kbs, nil
}

// UpdateKnowledgeBase rewrites the manifest of a knowledge base.
func (r *Registry) UpdateKnowledgeBase(ctx context.Context, name string, upd dockb.KnowledgeBaseUpdate) (*dockb.KnowledgeBase, error) {
	if err := dockb.ValidateKnowledgeBaseName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lockRoot(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	dir := r.dir(name)
	kb, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	if v := upd.Description; v != nil {
		kb.Config.Description = *v
	}
	if v := upd.SourceURL; v != nil {
		kb.Config.SourceURL = *v
	}
	if v := upd.EmbeddingsEnabled; v != nil {
		kb.Config.EmbeddingsEnabled = *v
	}
	if v := upd.SimilarityThreshold; v != nil {
		kb.Config.SimilarityThreshold = *v
	}
	if v := upd.ScopePrefix; v != nil {
		kb.Config.ScopePrefix = *v
	}
	if err := kb.Validate(); err != nil {
		return nil, err
	}
	kb.UpdatedAt = r.Now().UTC().Truncate(time.Second)

	if err := writeManifest(dir, kb); err != nil {
		return nil, err
	}
	// Storage already handed out stays immutable.
	if h, ok := r.handles[name]; ok {
		storage := *h.storage
		storage.KnowledgeBase = kb
		h.storage = &storage
	}
	return kb, nil
}

// DeleteKnowledgeBase closes and removes the directory of a knowledge base.
func (r *Registry) DeleteKnowledgeBase(ctx context.Context, name string) error {
	if err := dockb.ValidateKnowledgeBaseName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lockRoot(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	dir := r.dir(name)
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); os.IsNotExist(err) {
		return dockb.Errorf(dockb.ENOTFOUND, "knowledge base %q not found", name)
	} else if err != nil {
		return err
	}

	if h, ok := r.handles[name]; ok {
		delete(r.handles, name)
		if err := h.db.Close(); err != nil {
			return fmt.Errorf("close knowledge base: %w", err)
		}
	}
	return os.RemoveAll(dir)
}

func (r *Registry) dir(name string) string {
	return filepath.Join(r.root, name)
}

// lockRoot takes the cross-process lock on the root directory.
func (r *Registry) lockRoot(ctx context.Context) (func(), error) {
	if err := r.Open(); err != nil {
		return nil, err
	}
	ok, err := r.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", r.root, err)
	}
	if !ok {
		return nil, dockb.Errorf(dockb.ECONFLICT, "knowledge base root %s is locked", r.root)
	}
	return func() { _ = r.lock.Unlock() }, nil
}

func readManifest(dir string) (*dockb.KnowledgeBase, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if os.IsNotExist(err) {
		return nil, dockb.Errorf(dockb.ENOTFOUND, "knowledge base %q not found", filepath.Base(dir))
	} else if err != nil {
		return nil, err
	}

	var kb dockb.KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	return &kb, nil
}

// writeManifest replaces the manifest in dir atomically.
func writeManifest(dir string, kb *dockb.KnowledgeBase) error {
	data, err := yaml.Marshal(kb)
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, ManifestFile+tmpSuffix)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, ManifestFile))
}
