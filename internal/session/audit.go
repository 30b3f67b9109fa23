package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// AuditLog appends question/answer exchanges to a plain-text file shared by
// every session. A file lock serializes writers across processes.
type AuditLog struct {
	path string
	lock *flock.Flock
}

// NewAuditLog creates an audit log writer for path.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the audit log file path.
func (a *AuditLog) Path() string {
	return a.path
}

// Append records one exchange. The entry is written whole while holding the
// lock so concurrent sessions never interleave lines.
func (a *AuditLog) Append(sessionID, question, answer string) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("audit log: ensure dir: %w", err)
	}
	if err := a.lock.Lock(); err != nil {
		return fmt.Errorf("audit log: acquire lock: %w", err)
	}
	defer a.lock.Unlock()

	file, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit log: open: %w", err)
	}
	defer file.Close()

	var entry strings.Builder
	fmt.Fprintf(&entry, "[%s] session %s\n", time.Now().UTC().Format(time.RFC3339), sessionID)
	fmt.Fprintf(&entry, "Q: %s\n", strings.TrimSpace(question))
	fmt.Fprintf(&entry, "A: %s\n", strings.TrimSpace(answer))
	entry.WriteString("----\n")

	if _, err := file.WriteString(entry.String()); err != nil {
		return fmt.Errorf("audit log: write: %w", err)
	}
	return nil
}
