package main

import (
	"os"
	"path/filepath"
	"time"
)

const defaultDryRunPause = time.Second

// StartDelete removes the target directory of each given project on a
// single background goroutine, advancing a fresh Progress handle per item.
// In dry-run mode nothing is touched; each item instead takes pause so the
// progress flow can be exercised end to end.
func StartDelete(items []ProjectAnalysis, dryRun bool, pause time.Duration, notify NotifySender) *NotifyRwLock[Progress] {
	progress := NewNotifyRwLock(notify, Progress{Total: len(items)})
	go func() {
		for _, item := range items {
			if dryRun {
				time.Sleep(pause)
			} else {
				removeTarget(item.ProjectPath)
			}
			progress.Write(func(p *Progress) { p.Scanned++ })
		}
	}()
	return progress
}

// removeTarget deletes the build directory under projectPath. Errors are
// dropped: an unremovable or already vanished subtree still counts as
// processed, like unreadable directories during the scan.
func removeTarget(projectPath string) {
	_ = os.RemoveAll(filepath.Join(projectPath, targetDirName))
}
