// Package devshell drives the riff-doc developer shell session: one image
// build from the current directory followed by one interactive container.
package devshell

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"riffdoc/internal/hostuser"
	"riffdoc/pkg/runtime"
)

const (
	// ImageTag is the fixed tag used for both the build and the run step.
	ImageTag = "riff-doc"

	// MountTarget is the fixed path where the current directory is mounted
	// inside the container.
	MountTarget = "/workspace"

	// ShellCommand is the interactive entry command of the container.
	ShellCommand = "/bin/bash"

	// UIDEnvVar carries the invoking user's numeric id into the container.
	UIDEnvVar = "UID"

	// buildNetworkMode runs the image build in the host's network namespace.
	buildNetworkMode = "host"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// sessionOptions is the validated shape of a shell session before it is
// handed to the container runtime.
type sessionOptions struct {
	Image       string `validate:"required"`
	Name        string `validate:"required"`
	Shell       string `validate:"required,startswith=/"`
	MountSource string `validate:"required,dir"`
	MountTarget string `validate:"required,startswith=/"`
	UID         int    `validate:"gte=0"`
}

// DevShell orchestrates the build and run steps against a container runtime.
type DevShell struct {
	containerRuntime runtime.ContainerRuntime
}

// New creates a DevShell backed by the given container runtime.
func New(containerRuntime runtime.ContainerRuntime) *DevShell {
	return &DevShell{
		containerRuntime: containerRuntime,
	}
}

// Build builds the riff-doc image from the current directory.
func (d *DevShell) Build() error {
	ctx := context.Background()

	contextDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine current directory: %w", err)
	}

	slog.Info("Building developer image", "tag", ImageTag, "context", contextDir)

	if err := d.containerRuntime.BuildImage(ctx, runtime.BuildOptions{
		ContextDir:  contextDir,
		Dockerfile:  "Dockerfile",
		Tag:         ImageTag,
		NetworkMode: buildNetworkMode,
	}); err != nil {
		return fmt.Errorf("image build failed: %w", err)
	}

	return nil
}

// Open starts the interactive shell session and blocks until it ends,
// returning the shell's exit status.
func (d *DevShell) Open() (int, error) {
	ctx := context.Background()

	mountSource, err := os.Getwd()
	if err != nil {
		return -1, fmt.Errorf("failed to determine current directory: %w", err)
	}

	uid, err := hostuser.ResolveUID()
	if err != nil {
		return -1, fmt.Errorf("failed to resolve invoking user id: %w", err)
	}

	opts := sessionOptions{
		Image:       ImageTag,
		Name:        containerName(),
		Shell:       ShellCommand,
		MountSource: mountSource,
		MountTarget: MountTarget,
		UID:         uid,
	}
	if err := validate.Struct(&opts); err != nil {
		return -1, formatValidationError(err)
	}

	slog.Info("Opening developer shell", "image", opts.Image, "name", opts.Name, "uid", opts.UID, "mount", opts.MountSource)

	status, err := d.containerRuntime.StartShell(ctx, runtime.ShellOptions{
		Image:      opts.Image,
		Name:       opts.Name,
		Command:    []string{opts.Shell},
		Env:        map[string]string{UIDEnvVar: strconv.Itoa(opts.UID)},
		Mounts:     map[string]string{opts.MountSource: opts.MountTarget},
		WorkingDir: opts.MountTarget,
		AutoRemove: true,
	})
	if err != nil {
		return status, fmt.Errorf("shell session failed: %w", err)
	}

	slog.Info("Developer shell ended", "name", opts.Name, "status", status)
	return status, nil
}

// containerName returns a per-invocation container name so that stale
// containers from interrupted sessions never collide with a new one.
func containerName() string {
	return fmt.Sprintf("%s-%s", ImageTag, uuid.New().String()[:8])
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			return fmt.Errorf("invalid session option '%s' (%s)", e.Field(), e.Tag())
		}
	}
	return fmt.Errorf("session validation failed: %w", err)
}
