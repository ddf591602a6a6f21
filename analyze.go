package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// ProjectAnalysis describes one discovered cargo project and the weight of
// its target directory. Immutable after creation except for
// SelectedForCleanup, which belongs to the UI's selection bookkeeping.
type ProjectAnalysis struct {
	ID                 uuid.UUID
	ProjectPath        string
	ProjectName        string // empty when the manifest names no package
	Size               uint64
	LastModified       time.Time
	SelectedForCleanup bool
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// AnalyzeProject inspects a directory known to contain a Cargo.toml. An
// unreadable or malformed manifest fails the whole analysis; a missing
// target directory is simply an empty project (size 0, epoch mtime).
func AnalyzeProject(dir string) (ProjectAnalysis, error) {
	size, lastModified := scanTarget(filepath.Join(dir, targetDirName))

	raw, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return ProjectAnalysis{}, fmt.Errorf("read manifest in %s: %w", dir, err)
	}
	var manifest cargoManifest
	if err := toml.Unmarshal(raw, &manifest); err != nil {
		return ProjectAnalysis{}, fmt.Errorf("parse manifest in %s: %w", dir, err)
	}

	return ProjectAnalysis{
		ID:           uuid.New(),
		ProjectPath:  dir,
		ProjectName:  manifest.Package.Name,
		Size:         size,
		LastModified: lastModified,
	}, nil
}

// scanTarget folds byte sizes and modification times over the subtree at
// path. Filesystem errors make the affected subtree contribute nothing.
func scanTarget(path string) (uint64, time.Time) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, time.Unix(0, 0)
	}
	if !info.IsDir() {
		return uint64(info.Size()), info.ModTime()
	}

	size, lastModified := uint64(0), time.Unix(0, 0)
	entries, err := os.ReadDir(path)
	if err != nil {
		return size, lastModified
	}
	for _, entry := range entries {
		childSize, childModified := scanTarget(filepath.Join(path, entry.Name()))
		size += childSize
		if childModified.After(lastModified) {
			lastModified = childModified
		}
	}
	return size, lastModified
}
