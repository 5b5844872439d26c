package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrLocked is returned when another live process holds the workspace lock.
var ErrLocked = errors.New("workspace locked by another process")

func lockPath(root string) string {
	return filepath.Join(root, ".snipstage", "lock")
}

// AcquireLock records the current PID in <root>/.snipstage/lock so two
// processes do not rewrite the same files at once. A lock left by a dead
// process is taken over.
func AcquireLock(root string) error {
	path := lockPath(root)
	if pid := lockOwner(path); pid != 0 && pid != os.Getpid() && processAlive(pid) {
		return fmt.Errorf("%w (pid %d)", ErrLocked, pid)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// ReleaseLock removes the lock file. A missing lock is not an error.
func ReleaseLock(root string) error {
	err := os.Remove(lockPath(root))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func lockOwner(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 checks existence without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}
