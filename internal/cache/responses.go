package cache

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "io/fs"
    "os"
    "path/filepath"
    "strings"
    "time"
)

// ResponseCache stores model extraction responses keyed by a digest of the
// model name and prompt. Entries are plain files named <key>.json.
type ResponseCache struct {
    Dir string
    // StrictPerms, when true, enforces 0700 on the directory and 0600 on files.
    StrictPerms bool
}

func (c *ResponseCache) ensureDir() error {
    if c == nil || c.Dir == "" {
        return errors.New("cache dir not configured")
    }
    perm := os.FileMode(0o755)
    if c.StrictPerms {
        perm = 0o700
    }
    if err := os.MkdirAll(c.Dir, perm); err != nil {
        return err
    }
    if c.StrictPerms {
        if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
            _ = os.Chmod(c.Dir, 0o700)
        }
    }
    return nil
}

// KeyFrom builds a cache key from model and prompt.
func KeyFrom(model string, prompt string) string {
    h := sha256.Sum256([]byte(model + "\n\n" + prompt))
    return hex.EncodeToString(h[:])
}

func (c *ResponseCache) pathFor(key string) string {
    return filepath.Join(c.Dir, key+".json")
}

// Get returns cached bytes if present. A missing entry is not an error.
// Reads leave the modification time alone, so PurgeByAge expires entries by
// write time: a cached answer is tied to the date in its prompt and a hit
// does not make it any more current.
func (c *ResponseCache) Get(_ context.Context, key string) ([]byte, bool, error) {
    if err := c.ensureDir(); err != nil {
        return nil, false, err
    }
    b, err := os.ReadFile(c.pathFor(key))
    if err != nil {
        return nil, false, nil
    }
    return b, true, nil
}

// Save writes bytes to the cache.
func (c *ResponseCache) Save(_ context.Context, key string, data []byte) error {
    if err := c.ensureDir(); err != nil {
        return err
    }
    mode := os.FileMode(0o644)
    if c.StrictPerms {
        mode = 0o600
    }
    return os.WriteFile(c.pathFor(key), data, mode)
}

// ClearDir removes the directory and all contents, then recreates it empty.
func ClearDir(dir string) error {
    if strings.TrimSpace(dir) == "" {
        return errors.New("empty dir")
    }
    if err := os.RemoveAll(dir); err != nil {
        return err
    }
    return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes entries whose modification time is older than maxAge.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
    if maxAge <= 0 {
        return 0, nil
    }
    now := time.Now()
    removed := 0
    err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
        if err != nil {
            if errors.Is(err, fs.ErrNotExist) {
                return nil
            }
            return err
        }
        if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
            return nil
        }
        info, err := d.Info()
        if err != nil {
            return nil
        }
        if now.Sub(info.ModTime()) <= maxAge {
            return nil
        }
        if os.Remove(path) == nil {
            removed++
        }
        return nil
    })
    return removed, err
}
