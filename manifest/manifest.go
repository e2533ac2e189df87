// Package manifest keeps the persisted build ledger: content hashes and
// timestamps for diagram sources and emitted artifacts. The ledger is
// advisory. It exists to skip redundant emission, so a missing or corrupt
// manifest file always loads as empty and never fails a build.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	machinegen "github.com/goliatone/go-machinegen"
)

// Version stamped into every manifest this build writes.
const Version = "1.0.0"

// Entry records one tracked file. MTime is epoch milliseconds.
type Entry struct {
	Hash  string `json:"hash"`
	MTime int64  `json:"mtime"`
	Size  int64  `json:"size"`
}

// Manifest is the on-disk shape of the ledger.
type Manifest struct {
	Version        string           `json:"version"`
	LastUpdate     int64            `json:"lastUpdate"`
	SourceFiles    map[string]Entry `json:"sourceFiles"`
	GeneratedFiles map[string]Entry `json:"generatedFiles"`
}

// Changes categorizes sources against the previous build.
type Changes struct {
	HasChanges bool
	New        []string
	Modified   []string
	Deleted    []string
}

// Manager loads, queries, and persists one manifest file.
type Manager struct {
	path     string
	manifest Manifest
}

// New returns a manager bound to path with an empty ledger. The disk is not
// touched until Commit.
func New(path string) *Manager {
	return &Manager{
		path: path,
		manifest: Manifest{
			Version:        Version,
			SourceFiles:    map[string]Entry{},
			GeneratedFiles: map[string]Entry{},
		},
	}
}

// Load reads the manifest at path. Absence and parse failures both yield the
// empty ledger.
func Load(path string) *Manager {
	mgr := New(path)
	raw, err := os.ReadFile(path)
	if err != nil {
		return mgr
	}
	var parsed Manifest
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return mgr
	}
	if parsed.Version == "" {
		parsed.Version = Version
	}
	if parsed.SourceFiles == nil {
		parsed.SourceFiles = map[string]Entry{}
	}
	if parsed.GeneratedFiles == nil {
		parsed.GeneratedFiles = map[string]Entry{}
	}
	mgr.manifest = parsed
	return mgr
}

// Path returns the file the manager persists to.
func (mgr *Manager) Path() string { return mgr.path }

// Manifest returns a copy of the in-memory ledger.
func (mgr *Manager) Manifest() Manifest {
	out := mgr.manifest
	out.SourceFiles = make(map[string]Entry, len(mgr.manifest.SourceFiles))
	for k, v := range mgr.manifest.SourceFiles {
		out.SourceFiles[k] = v
	}
	out.GeneratedFiles = make(map[string]Entry, len(mgr.manifest.GeneratedFiles))
	for k, v := range mgr.manifest.GeneratedFiles {
		out.GeneratedFiles[k] = v
	}
	return out
}

// DetectChanges compares paths against the tracked sources. A path with no
// record is new; a changed hash or mtime is modified; a record whose path is
// absent from paths, or unreadable now, is deleted.
func (mgr *Manager) DetectChanges(paths []string) Changes {
	var ch Changes
	current := map[string]bool{}
	for _, p := range paths {
		e, err := fileEntry(p)
		if err != nil {
			continue
		}
		current[p] = true
		prev, ok := mgr.manifest.SourceFiles[p]
		switch {
		case !ok:
			ch.New = append(ch.New, p)
		case prev.Hash != e.Hash || prev.MTime != e.MTime:
			ch.Modified = append(ch.Modified, p)
		}
	}
	for p := range mgr.manifest.SourceFiles {
		if !current[p] {
			ch.Deleted = append(ch.Deleted, p)
		}
	}
	sort.Strings(ch.Deleted)
	ch.HasChanges = len(ch.New)+len(ch.Modified)+len(ch.Deleted) > 0
	return ch
}

// IsUpToDate reports whether a rebuild can be skipped: every source must
// predate the last build and every tracked artifact must still be on disk.
// Anything unverifiable counts as stale.
func (mgr *Manager) IsUpToDate(paths []string) bool {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return false
		}
		if info.ModTime().UnixMilli() > mgr.manifest.LastUpdate {
			return false
		}
	}
	for p := range mgr.manifest.GeneratedFiles {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// Commit replaces the source section with exactly sources, merges generated
// entries over previous runs, stamps the build time, and persists atomically
// via a temp file and rename.
func (mgr *Manager) Commit(sources, generated []string) error {
	srcEntries := make(map[string]Entry, len(sources))
	for _, p := range sources {
		if e, err := fileEntry(p); err == nil {
			srcEntries[p] = e
		}
	}
	mgr.manifest.SourceFiles = srcEntries
	for _, p := range generated {
		if e, err := fileEntry(p); err == nil {
			mgr.manifest.GeneratedFiles[p] = e
		}
	}
	mgr.manifest.Version = Version
	mgr.manifest.LastUpdate = time.Now().UnixMilli()
	return mgr.persist()
}

func (mgr *Manager) persist() error {
	raw, err := json.MarshalIndent(mgr.manifest, "", "  ")
	if err != nil {
		return machinegen.ManifestPersistError(mgr.path, err)
	}
	dir := filepath.Dir(mgr.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return machinegen.ManifestPersistError(mgr.path, err)
	}
	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return machinegen.ManifestPersistError(mgr.path, err)
	}
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return machinegen.ManifestPersistError(mgr.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return machinegen.ManifestPersistError(mgr.path, err)
	}
	if err := os.Rename(tmp.Name(), mgr.path); err != nil {
		os.Remove(tmp.Name())
		return machinegen.ManifestPersistError(mgr.path, err)
	}
	return nil
}

func fileEntry(path string) (Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	sum := sha256.Sum256(raw)
	return Entry{
		Hash:  hex.EncodeToString(sum[:]),
		MTime: info.ModTime().UnixMilli(),
		Size:  int64(len(raw)),
	}, nil
}
