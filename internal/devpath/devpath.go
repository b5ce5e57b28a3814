// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package devpath is the filesystem publisher contract of spec.md §6.3: it
// turns a live, visible layer into a stable per-LV path under /dev/<vg>/,
// the same boundary internal/pkg/block/block.go draws around raw os/syscall
// device inspection rather than shelling out for it.
package devpath

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Publisher is the fs_add_lv/fs_del_lv interface of spec.md §6.3.
//
//go:generate mockgen -copyright_file ../../hack/mockgen_copyright.txt -destination=mock_publisher.go -mock_names=Publisher=MockPublisher -package=devpath -source=devpath.go Publisher
type Publisher interface {
	// AddLV is called once a VISIBLE layer becomes live. dmName is the
	// device-mapper node backing the LV, e.g. "vg0-lvol0".
	AddLV(ctx context.Context, vg, lv, dmName string) error
	// DelLV is called before a VISIBLE layer's node is removed.
	DelLV(ctx context.Context, vg, lv string) error
}

var _ Publisher = &symlinkPublisher{}

// symlinkPublisher implements Publisher by maintaining
// <devDir>/<vg>/<lv> as a symlink to <dmDir>/<dmName>.
type symlinkPublisher struct {
	devDir string
	dmDir  string
}

// New returns a Publisher rooted at devDir (conventionally "/dev"), pointing
// symlinks at nodes under dmDir (conventionally "/dev/mapper"). Both are
// constructor arguments rather than package constants so tests can target a
// tmpdir instead of the real device tree.
func New(devDir, dmDir string) Publisher {
	return &symlinkPublisher{devDir: devDir, dmDir: dmDir}
}

// AddLV creates <devDir>/<vg>/<lv> -> <dmDir>/<dmName>, replacing any
// existing link with the same name (re-activation of an already-visible LV
// must not fail).
func (p *symlinkPublisher) AddLV(_ context.Context, vg, lv, dmName string) error {
	dir := filepath.Join(p.devDir, vg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("devpath: creating %s: %w", dir, err)
	}

	link := filepath.Join(dir, lv)
	target := filepath.Join(p.dmDir, dmName)

	if existing, err := os.Readlink(link); err == nil {
		if existing == target {
			return nil
		}
		if err := os.Remove(link); err != nil {
			return fmt.Errorf("devpath: replacing stale link %s: %w", link, err)
		}
	}

	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("devpath: linking %s -> %s: %w", link, target, err)
	}
	return nil
}

// DelLV removes <devDir>/<vg>/<lv> if present. Absence is not an error: a
// layer going from VISIBLE to absent may already have had its link pruned
// by an earlier, interrupted deactivation.
func (p *symlinkPublisher) DelLV(_ context.Context, vg, lv string) error {
	link := filepath.Join(p.devDir, vg, lv)
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("devpath: removing %s: %w", link, err)
	}
	return nil
}

// IsSymlink reports whether path exists and is a symlink, following the
// same raw-stat idiom block.go's IsBlockDevice uses for S_IFBLK, here
// checking S_IFLNK instead.
func IsSymlink(path string) (bool, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("devpath: stat %s: %w", path, err)
	}
	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("devpath: no raw stat data for %s", path)
	}
	return stat.Mode&syscall.S_IFMT == syscall.S_IFLNK, nil
}
