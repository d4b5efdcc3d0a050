package filebank

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	backupPrefix    = "accounts_backup_"
	backupExt       = ".json"
	backupTimestamp = "20060102T150405.000000000"
)

// FileStore keeps the ledger as a single JSON snapshot file and rotates
// timestamped copies of the previous snapshot into a backup directory.
type FileStore struct {
	path      string
	backupDir string
	retention int
	mu        sync.RWMutex
	log       *zerolog.Logger
	now       func() time.Time
}

var (
	_ Repository = (*FileStore)(nil)
)

// NewFileStore prepares the data and backup directories and seeds an empty
// snapshot when none exists yet.
func NewFileStore(cfg StoreConfig, log *zerolog.Logger) (*FileStore, error) {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	retention := cfg.BackupRetention
	if retention < 1 {
		retention = 10
	}
	fstore := &FileStore{
		path:      filepath.Join(cfg.Dir, cfg.File),
		backupDir: filepath.Join(cfg.Dir, cfg.BackupDir),
		retention: retention,
		log:       log,
		now:       time.Now,
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, ErrStoreIO{Op: "init", Path: cfg.Dir, Err: err}
	}
	if err := os.MkdirAll(fstore.backupDir, 0o755); err != nil {
		return nil, ErrStoreIO{Op: "init", Path: fstore.backupDir, Err: err}
	}
	_, err := os.Stat(fstore.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err = fstore.writeSnapshot([]byte("[]\n")); err != nil {
			return nil, err
		}
		return fstore, nil
	}
	if err != nil {
		return nil, ErrStoreIO{Op: "init", Path: fstore.path, Err: err}
	}
	return fstore, nil
}

func (fstore *FileStore) Path() string      { return fstore.path }
func (fstore *FileStore) BackupDir() string { return fstore.backupDir }

// SetClock overrides the clock used to name backups.
func (fstore *FileStore) SetClock(now func() time.Time) {
	fstore.mu.Lock()
	defer fstore.mu.Unlock()
	fstore.now = now
}

func (fstore *FileStore) LoadAll() ([]*Account, error) {
	fstore.mu.RLock()
	defer fstore.mu.RUnlock()

	bits, err := os.ReadFile(fstore.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*Account{}, nil
		}
		return nil, ErrStoreIO{Op: "load", Path: fstore.path, Err: err}
	}
	if len(bytes.TrimSpace(bits)) == 0 {
		return []*Account{}, nil
	}

	var accts []*Account
	if err = json.Unmarshal(bits, &accts); err != nil {
		return nil, ErrStoreCorrupt{Path: fstore.path, Err: err}
	}
	if accts == nil {
		accts = []*Account{}
	}
	for i, a := range accts {
		if a == nil {
			return nil, ErrStoreCorrupt{Path: fstore.path, Err: fmt.Errorf("null account at index %d", i)}
		}
	}
	return accts, nil
}

func (fstore *FileStore) SaveAll(accts []*Account) error {
	if accts == nil {
		accts = []*Account{}
	}
	bits, err := json.MarshalIndent(accts, "", "  ")
	if err != nil {
		return ErrStoreIO{Op: "encode", Path: fstore.path, Err: err}
	}
	bits = append(bits, '\n')

	fstore.mu.Lock()
	defer fstore.mu.Unlock()

	if err = fstore.backup(); err != nil {
		fstore.log.Warn().Err(err).Str("path", fstore.path).Msg("snapshot backup failed, saving anyway")
	}
	if err = fstore.writeSnapshot(bits); err != nil {
		return err
	}
	if err = fstore.prune(); err != nil {
		fstore.log.Warn().Err(err).Str("dir", fstore.backupDir).Msg("backup pruning failed")
	}
	return nil
}

// writeSnapshot replaces the primary file through a temp file and rename so a
// failed write never leaves a torn snapshot behind.
func (fstore *FileStore) writeSnapshot(bits []byte) error {
	dir := filepath.Dir(fstore.path)
	tmp, err := os.CreateTemp(dir, ".accounts-*.tmp")
	if err != nil {
		return ErrStoreIO{Op: "save", Path: fstore.path, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return ErrStoreIO{Op: "save", Path: fstore.path, Err: err}
	}

	if err = tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if _, err = tmp.Write(bits); err != nil {
		return fail(err)
	}
	if err = tmp.Sync(); err != nil {
		return fail(err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ErrStoreIO{Op: "save", Path: fstore.path, Err: err}
	}
	if err = os.Rename(tmpName, fstore.path); err != nil {
		os.Remove(tmpName)
		return ErrStoreIO{Op: "save", Path: fstore.path, Err: err}
	}
	return nil
}

// backup copies the current snapshot into the backup directory. A missing
// snapshot is not an error.
func (fstore *FileStore) backup() error {
	src, err := os.Open(fstore.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer src.Close()

	name := fstore.backupName()
	dst, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(name)
		return err
	}
	return dst.Close()
}

// backupName returns an unused, chronologically sortable backup path. Backups
// sharing a timestamp get a "_NNNNNN" suffix one past the highest already in
// use; '_' sorts after '.', so suffixed names follow the unsuffixed one.
func (fstore *FileStore) backupName() string {
	base := backupPrefix + fstore.now().UTC().Format(backupTimestamp)
	entries, _ := os.ReadDir(fstore.backupDir)
	last := -1
	for _, e := range entries {
		rest, ok := strings.CutPrefix(e.Name(), base)
		if !ok {
			continue
		}
		rest, ok = strings.CutSuffix(rest, backupExt)
		if !ok {
			continue
		}
		n := 0
		if rest != "" {
			digits, ok := strings.CutPrefix(rest, "_")
			if !ok {
				continue
			}
			var err error
			if n, err = strconv.Atoi(digits); err != nil {
				continue
			}
		}
		if n > last {
			last = n
		}
	}
	if last < 0 {
		return filepath.Join(fstore.backupDir, base+backupExt)
	}
	return filepath.Join(fstore.backupDir, fmt.Sprintf("%s_%06d%s", base, last+1, backupExt))
}

type backupFile struct {
	name    string
	modTime time.Time
}

// Backups lists backup files oldest first.
func (fstore *FileStore) Backups() ([]string, error) {
	fstore.mu.RLock()
	defer fstore.mu.RUnlock()
	files, err := fstore.listBackups()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Join(fstore.backupDir, f.name)
	}
	return names, nil
}

func (fstore *FileStore) listBackups() ([]backupFile, error) {
	entries, err := os.ReadDir(fstore.backupDir)
	if err != nil {
		return nil, err
	}
	files := make([]backupFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed underneath us
			continue
		}
		files = append(files, backupFile{name: e.Name(), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].name < files[j].name
	})
	return files, nil
}

func (fstore *FileStore) prune() error {
	files, err := fstore.listBackups()
	if err != nil {
		return err
	}
	var errs []error
	for i := 0; i < len(files)-fstore.retention; i++ {
		if err = os.Remove(filepath.Join(fstore.backupDir, files[i].name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
