package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AuditEntry is one line of the audit log.
type AuditEntry struct {
	Time       string `json:"time"`
	Action     string `json:"action"`
	Name       string `json:"name"`
	NewName    string `json:"newName,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// AuditLog appends condition changes to daily JSONL files under
// <data_dir>/audit. The database stays the source of truth; audit writes are
// best-effort and failures are only logged. A nil *AuditLog discards
// entries.
type AuditLog struct {
	dir     string
	logger  *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
	mutexes map[string]*sync.Mutex
}

// NewAuditLog creates the audit directory under dataDir.
func NewAuditLog(dataDir string, logger *zap.Logger) (*AuditLog, error) {
	dir := filepath.Join(dataDir, "audit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	return &AuditLog{
		dir:     dir,
		logger:  logger,
		now:     time.Now,
		mutexes: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the directory holding the audit files.
func (a *AuditLog) Dir() string { return a.dir }

// fileMutex returns the mutex guarding filename, creating it on first use.
// The map grows by one entry per day.
func (a *AuditLog) fileMutex(filename string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.mutexes[filename]; !ok {
		a.mutexes[filename] = &sync.Mutex{}
	}
	return a.mutexes[filename]
}

// Record appends e to the file for the current UTC day.
func (a *AuditLog) Record(e AuditEntry) {
	if a == nil {
		return
	}
	now := a.now().UTC()
	if e.Time == "" {
		e.Time = now.Format(time.RFC3339Nano)
	}
	filename := filepath.Join(a.dir, now.Format("2006-01-02.jsonl"))

	mu := a.fileMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		a.logger.Warn("audit write failed", zap.String("file", filename), zap.Error(err))
		return
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(e); err != nil {
		a.logger.Warn("audit write failed", zap.String("file", filename), zap.Error(err))
	}
}
