// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package dmtask

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	utilexec "k8s.io/utils/exec"
)

// dmsetupCommand is the command used to drive the device-mapper control
// device. This package shells out to it the same way
// internal/pkg/block/block.go shells out to lsblk/blkid: one subprocess per
// operation, output parsed into the package's own types. The ioctl
// transport dmsetup itself uses stays out of scope (spec.md §1).
const dmsetupCommand = "dmsetup"

// dmSetup is the real Kernel implementation.
type dmSetup struct {
	exec utilexec.Interface
}

var _ Kernel = &dmSetup{}
var _ Scanner = &dmSetup{}

// New returns a Kernel backed by the system's dmsetup binary.
func New() Kernel {
	return &dmSetup{exec: utilexec.New()}
}

// NewScanner returns a Scanner backed by the system's dmsetup binary.
func NewScanner() Scanner {
	return &dmSetup{exec: utilexec.New()}
}

// NeedsResumeAfterCreate is true for the dmsetup backend, so the executor
// follows every Create with an explicit Resume (spec.md §4.5.1). Resume
// checks Info first and does nothing if the node is already live.
func (d *dmSetup) NeedsResumeAfterCreate() bool { return true }

func (d *dmSetup) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := d.exec.CommandContext(ctx, dmsetupCommand, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("command failed: %w, output: %s", err, string(out))
	}
	return out, nil
}

// Create loads name with table via `dmsetup create <name> --table <table>`,
// passing uuid through --uuid when non-empty.
func (d *dmSetup) Create(ctx context.Context, name, uuid string, table Table) error {
	if len(table) == 0 {
		return opError("create", name, errors.New("empty table"))
	}
	args := []string{"create", name, "--table", formatTable(table)}
	if uuid != "" {
		args = append(args, "--uuid", uuid)
	}
	if _, err := d.run(ctx, args...); err != nil {
		return opError("create", name, err)
	}
	return nil
}

// Reload replaces name's inactive table via `dmsetup reload`.
func (d *dmSetup) Reload(ctx context.Context, name string, table Table) error {
	if len(table) == 0 {
		return opError("reload", name, errors.New("empty table"))
	}
	if _, err := d.run(ctx, "reload", name, "--table", formatTable(table)); err != nil {
		return opError("reload", name, err)
	}
	return nil
}

// Suspend is idempotent relative to the node's current suspend state.
func (d *dmSetup) Suspend(ctx context.Context, name string) error {
	info, err := d.Info(ctx, name)
	if err != nil {
		return opError("suspend", name, err)
	}
	if info.Suspended {
		return nil
	}
	if _, err := d.run(ctx, "suspend", name); err != nil {
		return opError("suspend", name, err)
	}
	return nil
}

// Resume is idempotent relative to the node's current suspend state.
func (d *dmSetup) Resume(ctx context.Context, name string) error {
	info, err := d.Info(ctx, name)
	if err != nil {
		return opError("resume", name, err)
	}
	if !info.Suspended {
		return nil
	}
	if _, err := d.run(ctx, "resume", name); err != nil {
		return opError("resume", name, err)
	}
	return nil
}

// Remove removes name. dmsetup exits non-zero if the node is open or
// referenced, which callers surface as CodeKernelOpFailed.
func (d *dmSetup) Remove(ctx context.Context, name string) error {
	if _, err := d.run(ctx, "remove", name); err != nil {
		return opError("remove", name, err)
	}
	return nil
}

// Info queries `dmsetup info -c --noheadings -o suspended,open,major,minor`
// for a single node.
func (d *dmSetup) Info(ctx context.Context, name string) (Info, error) {
	out, err := d.run(ctx, "info", "-c", "--noheadings", "-o", "suspended,open,major,minor", name)
	if err != nil {
		if isNoSuchDevice(err) {
			return Info{}, errNotFoundWrap(name)
		}
		return Info{}, opError("info", name, err)
	}
	return parseInfoLine(out)
}

// List enumerates every device-mapper node via `dmsetup ls --target`-free
// listing, the blocking directory scan of spec.md §4.4.2 step 1.
func (d *dmSetup) List(ctx context.Context) ([]string, error) {
	out, err := d.run(ctx, "ls", "--noheadings", "-c", "-o", "name")
	if err != nil {
		return nil, fmt.Errorf("dmtask: list: %w", err)
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" || trimmed == "No devices found" {
		return nil, nil
	}
	var names []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	return names, nil
}

// formatTable renders a Table as the "start length type params" lines
// dmsetup's --table flag expects, one target per line.
func formatTable(table Table) string {
	var b strings.Builder
	for i, t := range table {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d %d %s %s", t.Start, t.Length, t.Type, t.Params)
	}
	return b.String()
}

// parseInfoLine parses a single columnar dmsetup info -c output line.
func parseInfoLine(out []byte) (Info, error) {
	line := strings.TrimSpace(string(bytes.SplitN(out, []byte("\n"), 2)[0]))
	fields := strings.Split(line, ":")
	if len(fields) < 4 {
		return Info{}, fmt.Errorf("dmtask: unexpected info output %q", line)
	}
	open, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Info{}, fmt.Errorf("dmtask: parsing open count from %q: %w", line, err)
	}
	major, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return Info{}, fmt.Errorf("dmtask: parsing major from %q: %w", line, err)
	}
	minor, err := strconv.ParseUint(strings.TrimSpace(fields[3]), 10, 32)
	if err != nil {
		return Info{}, fmt.Errorf("dmtask: parsing minor from %q: %w", line, err)
	}
	return Info{
		Exists:    true,
		Suspended: strings.TrimSpace(fields[0]) == "Suspended",
		OpenCount: open,
		Major:     uint32(major),
		Minor:     uint32(minor),
	}, nil
}

// isNoSuchDevice reports whether err represents dmsetup's "No such device
// or address" exit condition, following the same ExitError exit-status
// inspection internal/pkg/block/block.go uses for blkid's exit code 2.
func isNoSuchDevice(err error) bool {
	var exitErr utilexec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus() == 1
	}
	return strings.Contains(err.Error(), "No such device")
}

func errNotFoundWrap(name string) error {
	return fmt.Errorf("dmtask: info %s: %w", name, ErrNotFound)
}
