// Package installer applies a downloaded release archive: it stages
// the contents, picks the embedded launcher, spawns it detached, and
// hands the process over.
//
// Applying an update is privileged and irreversible. The orchestrator
// only calls Apply on an explicit operator trigger or when the
// unattended-apply flag was opted into.
package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/paths"
	"go.uber.org/zap"
)

// shutdownDelay gives the final status broadcast time to flush
// before the host process exits.
const shutdownDelay = 1500 * time.Millisecond

// TerminateFunc ends the host process after a successful hand-off.
type TerminateFunc func()

// Installer stages and launches release archives.
type Installer struct {
	layout      paths.Layout
	log         *logging.Logger
	productName string
	terminate   TerminateFunc
}

// New creates an installer. terminate defaults to os.Exit(0).
func New(layout paths.Layout, log *logging.Logger, productName string, terminate TerminateFunc) *Installer {
	if terminate == nil {
		terminate = func() { os.Exit(0) }
	}
	return &Installer{
		layout:      layout,
		log:         log,
		productName: productName,
		terminate:   terminate,
	}
}

// Apply extracts the archive for tag, launches the embedded installer
// detached, and schedules host termination. It returns the launcher
// path that was spawned.
func (i *Installer) Apply(ctx context.Context, tag, archivePath string) (string, error) {
	if _, err := os.Stat(archivePath); err != nil {
		return "", fmt.Errorf("update archive missing: %w", err)
	}

	staging := i.layout.StagingDir(tag)
	// Wipe leftovers from a previous attempt at this tag.
	if err := os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("reset staging directory: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}

	if err := extract(ctx, archivePath, staging); err != nil {
		return "", fmt.Errorf("extract update archive: %w", err)
	}

	launcher, err := pickLauncher(staging, i.productName)
	if err != nil {
		return "", err
	}

	if err := i.spawnDetached(launcher); err != nil {
		return "", fmt.Errorf("launch installer: %w", err)
	}

	i.log.Info("update launcher started, host will exit",
		zap.String("tag", tag), zap.String("launcher", launcher))
	time.AfterFunc(shutdownDelay, i.terminate)
	return launcher, nil
}

// spawnDetached starts the launcher with no tie to this process.
// Script launchers go through the platform command shell.
func (i *Installer) spawnDetached(launcher string) error {
	var cmd *exec.Cmd
	if isScript(launcher) {
		if runtime.GOOS == "windows" {
			cmd = exec.Command("cmd", "/C", launcher)
		} else {
			cmd = exec.Command("/bin/sh", launcher)
		}
	} else {
		cmd = exec.Command(launcher)
	}
	cmd.Dir = filepath.Dir(launcher)

	if err := cmd.Start(); err != nil {
		return err
	}
	// Deliberately not waited on: the launcher outlives this process.
	return cmd.Process.Release()
}

func isScript(path string) bool {
	switch ext(path) {
	case ".cmd", ".bat":
		return true
	}
	return false
}
