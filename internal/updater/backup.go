package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	backupFile = "lightnode.backup"
	backupMeta = "backup.json"
)

type backup struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	ExecPath  string    `json:"exec_path"`
}

// backups keeps a single copy of a replaced binary in dir.
type backups struct {
	mu   sync.Mutex
	dir  string
	last *backup
}

func openBackups(dir string) (*backups, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	b := &backups{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, backupMeta))
	if err != nil {
		return b, nil
	}
	var meta backup
	if json.Unmarshal(data, &meta) != nil {
		return b, nil
	}
	if _, err := os.Stat(filepath.Join(dir, backupFile)); err == nil {
		b.last = &meta
	}
	return b, nil
}

func (b *backups) save(exe, version string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := copyFile(exe, filepath.Join(b.dir, backupFile)); err != nil {
		return fmt.Errorf("back up %s: %w", exe, err)
	}
	meta := backup{Version: version, CreatedAt: time.Now(), ExecPath: exe}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(b.dir, backupMeta), data, 0o644); err != nil {
		return fmt.Errorf("write backup metadata: %w", err)
	}
	b.last = &meta
	return nil
}

func (b *backups) restore() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.last == nil {
		return ErrNoBackup
	}
	if err := copyFile(filepath.Join(b.dir, backupFile), b.last.ExecPath); err != nil {
		return fmt.Errorf("restore %s: %w", b.last.ExecPath, err)
	}
	return nil
}

func (b *backups) latest() (backup, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return backup{}, false
	}
	return *b.last, true
}

// copyFile writes src to a temporary file next to dst and renames it over
// dst, so a running binary is never truncated in place.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o755); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
