package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/denizumutdereli/nukebridge/pkg/core"
	"github.com/denizumutdereli/nukebridge/pkg/scene"
)

// FileExt is the on-disk extension for encoded graph snapshots.
const FileExt = ".nkb"

const autosaveName = "autosave" + FileExt

// Store handles file-based persistence of graph snapshots. Scripts live under
// the data path, reusable templates under the toolset path (optionally grouped
// into category subdirectories). All writes go through an atomic
// write-to-temp-then-rename so a crash never leaves a half-written file behind.
type Store struct {
	dataPath    string
	toolsetPath string
	codec       *Codec

	writeMu sync.Mutex

	// Stats
	statsMu     sync.Mutex
	totalWrites uint64
	totalReads  uint64
}

// NewStore creates a persistence store rooted at the given paths.
func NewStore(dataPath, toolsetPath string, compress bool) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataPath, "scripts"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data path: %w", err)
	}
	if err := os.MkdirAll(toolsetPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create toolset path: %w", err)
	}

	return &Store{
		dataPath:    dataPath,
		toolsetPath: toolsetPath,
		codec:       NewCodec(compress),
	}, nil
}

// validName rejects names that would escape the store's directories.
func validName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid name: %s", name)
	}
	return nil
}

func (s *Store) scriptPath(name string) string {
	return filepath.Join(s.dataPath, "scripts", name+FileExt)
}

func (s *Store) templatePath(category, name string) string {
	if category == "" {
		return filepath.Join(s.toolsetPath, name+FileExt)
	}
	return filepath.Join(s.toolsetPath, category, name+FileExt)
}

// TemplatePath reports where a template with the given category and name is
// stored on disk.
func (s *Store) TemplatePath(category, name string) string {
	return s.templatePath(category, name)
}

// SaveScript persists a snapshot under its script name.
func (s *Store) SaveScript(snap *scene.Snapshot) error {
	if err := validName(snap.Name); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistenceFailed, err)
	}

	data, err := s.codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", core.ErrPersistenceFailed, err)
	}

	if err := s.writeAtomically(s.scriptPath(snap.Name), data, 0644); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistenceFailed, err)
	}

	s.statsMu.Lock()
	s.totalWrites++
	s.statsMu.Unlock()
	return nil
}

// LoadScript retrieves a named script snapshot from disk.
func (s *Store) LoadScript(name string) (*scene.Snapshot, error) {
	if err := validName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrLoadFailed, err)
	}

	data, err := os.ReadFile(s.scriptPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrScriptNotFound, name)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrLoadFailed, err)
	}

	snap, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", core.ErrLoadFailed, name, err)
	}

	s.statsMu.Lock()
	s.totalReads++
	s.statsMu.Unlock()
	return snap, nil
}

// ListScripts returns all persisted script names, sorted.
func (s *Store) ListScripts() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataPath, "scripts"))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != FileExt {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), FileExt))
	}
	sort.Strings(names)
	return names, nil
}

// SaveTemplate persists a snapshot as a reusable template, optionally under a
// category subdirectory of the toolset path.
func (s *Store) SaveTemplate(snap *scene.Snapshot, category string) error {
	if err := validName(snap.Name); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistenceFailed, err)
	}
	if category != "" {
		if err := validName(category); err != nil {
			return fmt.Errorf("%w: %v", core.ErrPersistenceFailed, err)
		}
		if err := os.MkdirAll(filepath.Join(s.toolsetPath, category), 0755); err != nil {
			return fmt.Errorf("%w: %v", core.ErrPersistenceFailed, err)
		}
	}

	data, err := s.codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", core.ErrPersistenceFailed, err)
	}

	if err := s.writeAtomically(s.templatePath(category, snap.Name), data, 0644); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistenceFailed, err)
	}

	s.statsMu.Lock()
	s.totalWrites++
	s.statsMu.Unlock()
	return nil
}

// LoadTemplate retrieves a template by name, searching the toolset root and
// every category subdirectory.
func (s *Store) LoadTemplate(name string) (*scene.Snapshot, error) {
	if err := validName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrLoadFailed, err)
	}

	path, err := s.findTemplate(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrLoadFailed, err)
	}

	snap, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", core.ErrLoadFailed, name, err)
	}

	s.statsMu.Lock()
	s.totalReads++
	s.statsMu.Unlock()
	return snap, nil
}

func (s *Store) findTemplate(name string) (string, error) {
	direct := s.templatePath("", name)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	entries, err := os.ReadDir(s.toolsetPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrLoadFailed, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := s.templatePath(entry.Name(), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", core.ErrTemplateNotFound, name)
}

// ListTemplates returns all template names, category-qualified as
// "category/name" for templates inside a category directory. Sorted.
func (s *Store) ListTemplates() ([]string, error) {
	entries, err := os.ReadDir(s.toolsetPath)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			subEntries, err := os.ReadDir(filepath.Join(s.toolsetPath, entry.Name()))
			if err != nil {
				continue
			}
			for _, sub := range subEntries {
				if sub.IsDir() || filepath.Ext(sub.Name()) != FileExt {
					continue
				}
				names = append(names, entry.Name()+"/"+strings.TrimSuffix(sub.Name(), FileExt))
			}
			continue
		}
		if filepath.Ext(entry.Name()) != FileExt {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), FileExt))
	}
	sort.Strings(names)
	return names, nil
}

// Autosave writes the crash-recovery snapshot. A fixed filename means the
// latest autosave always wins.
func (s *Store) Autosave(snap *scene.Snapshot) error {
	data, err := s.codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", core.ErrPersistenceFailed, err)
	}

	if err := s.writeAtomically(filepath.Join(s.dataPath, autosaveName), data, 0644); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistenceFailed, err)
	}

	s.statsMu.Lock()
	s.totalWrites++
	s.statsMu.Unlock()
	return nil
}

// LoadAutosave retrieves the last autosave snapshot, if one exists.
func (s *Store) LoadAutosave() (*scene.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dataPath, autosaveName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: autosave", core.ErrScriptNotFound)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrLoadFailed, err)
	}

	snap, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode autosave: %v", core.ErrLoadFailed, err)
	}
	return snap, nil
}

func (s *Store) writeAtomically(path string, data []byte, perm os.FileMode) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return s.syncDir(filepath.Dir(path))
}

func (s *Store) syncDir(path string) error {
	if runtime.GOOS == "windows" {
		// Windows does not support fsync on directories in this mode.
		return nil
	}

	d, err := os.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Stats returns persistence statistics
func (s *Store) Stats() map[string]any {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	return map[string]any{
		"total_writes": s.totalWrites,
		"total_reads":  s.totalReads,
		"data_path":    s.dataPath,
		"toolset_path": s.toolsetPath,
	}
}
