// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package devpath_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dm-activate/internal/devpath"
)

func TestSymlinkPublisherAddLV(t *testing.T) {
	t.Parallel()

	devDir := t.TempDir()
	dmDir := t.TempDir()
	p := devpath.New(devDir, dmDir)

	if err := p.AddLV(context.Background(), "vg0", "lvol0", "vg0-lvol0"); err != nil {
		t.Fatalf("AddLV() error = %v", err)
	}

	link := filepath.Join(devDir, "vg0", "lvol0")
	isLink, err := devpath.IsSymlink(link)
	if err != nil {
		t.Fatalf("IsSymlink() error = %v", err)
	}
	if !isLink {
		t.Fatalf("%s is not a symlink", link)
	}
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if want := filepath.Join(dmDir, "vg0-lvol0"); target != want {
		t.Errorf("Readlink() = %q, want %q", target, want)
	}
}

func TestSymlinkPublisherAddLVIdempotent(t *testing.T) {
	t.Parallel()

	devDir := t.TempDir()
	dmDir := t.TempDir()
	p := devpath.New(devDir, dmDir)

	if err := p.AddLV(context.Background(), "vg0", "lvol0", "vg0-lvol0"); err != nil {
		t.Fatalf("AddLV() error = %v", err)
	}
	if err := p.AddLV(context.Background(), "vg0", "lvol0", "vg0-lvol0"); err != nil {
		t.Fatalf("AddLV() second call error = %v", err)
	}
}

func TestSymlinkPublisherDelLV(t *testing.T) {
	t.Parallel()

	devDir := t.TempDir()
	dmDir := t.TempDir()
	p := devpath.New(devDir, dmDir)

	if err := p.AddLV(context.Background(), "vg0", "lvol0", "vg0-lvol0"); err != nil {
		t.Fatalf("AddLV() error = %v", err)
	}
	if err := p.DelLV(context.Background(), "vg0", "lvol0"); err != nil {
		t.Fatalf("DelLV() error = %v", err)
	}
	if _, err := os.Lstat(filepath.Join(devDir, "vg0", "lvol0")); !os.IsNotExist(err) {
		t.Errorf("link still present after DelLV(), Lstat err = %v", err)
	}
}

func TestSymlinkPublisherDelLVMissingIsNotError(t *testing.T) {
	t.Parallel()

	p := devpath.New(t.TempDir(), t.TempDir())
	if err := p.DelLV(context.Background(), "vg0", "lvol0"); err != nil {
		t.Fatalf("DelLV() on missing link error = %v, want nil", err)
	}
}
