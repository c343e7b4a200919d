// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// DirChecker verifies that a directory exists and accepts writes.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a checker for a writable directory.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(_ context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.path}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "not a directory", Message: c.path}
	}

	probe, err := os.CreateTemp(c.path, ".health-*")
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: "not writable: " + err.Error(), Message: c.path}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(filepath.Clean(name))

	return CheckResult{Status: StatusHealthy, Message: "writable"}
}

// FuncChecker adapts a probe function. A failing probe reports failStatus,
// so optional dependencies can degrade instead of failing readiness.
type FuncChecker struct {
	name       string
	probe      func(context.Context) error
	failStatus Status
	timeout    time.Duration
}

// NewFuncChecker creates a checker around probe with a 2s budget.
func NewFuncChecker(name string, probe func(context.Context) error, failStatus Status) *FuncChecker {
	return &FuncChecker{name: name, probe: probe, failStatus: failStatus, timeout: 2 * time.Second}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.probe(ctx); err != nil {
		return CheckResult{Status: c.failStatus, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}
