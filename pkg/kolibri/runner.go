package kolibri

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// HomeEnv is the environment variable Kolibri reads its private data
// directory from.
const HomeEnv = "KOLIBRI_HOME"

// InstallHint is printed when the Kolibri flatpak cannot be found.
const InstallHint = "flatpak install flathub org.learningequality.Kolibri"

// ErrNotInstalled indicates the Kolibri application the runner
// targets is not present on this system.
var ErrNotInstalled = errors.New("kolibri application is not installed")

// Runner executes Kolibri management commands.
type Runner interface {
	Run(ctx context.Context, args ...string) error
}

// FlatpakRunner drives the Kolibri CLI inside its flatpak. Every
// invocation points KOLIBRI_HOME at a private staging directory so
// imports never touch a user's real Kolibri data.
type FlatpakRunner struct {
	common

	// Ref is the flatpak the commands run in, read back from the
	// generated build manifest's runtime field.
	Ref string

	// Home is the private KOLIBRI_HOME staging directory.
	Home string
}

// Check verifies the flatpak is installed and reachable. Callers are
// expected to surface InstallHint when this fails.
func (r *FlatpakRunner) Check(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "flatpak", "info", r.Ref)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Run(); err != nil {
		r.L().Debug("flatpak info failed", "ref", r.Ref, "error", err)
		return errors.Wrapf(ErrNotInstalled, "querying %s", r.Ref)
	}

	return nil
}

func (r *FlatpakRunner) Run(ctx context.Context, args ...string) error {
	full := []string{
		"run",
		"--command=kolibri",
		"--filesystem=host",
		"--env=" + HomeEnv + "=" + r.Home,
		r.Ref,
	}
	full = append(full, args...)

	r.L().Debug("kolibri", "args", args, "home", r.Home)

	cmd := exec.CommandContext(ctx, "flatpak", full...)
	cmd.Env = append(os.Environ(), HomeEnv+"="+r.Home)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return errors.Wrapf(err, "kolibri %s", strings.Join(args, " "))
	}

	return nil
}
