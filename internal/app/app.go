// Package app is the facade over the riffdoc workflow: build the riff-doc
// image from the current directory, then open an interactive shell in it.
package app

import (
	"log/slog"

	"riffdoc/internal/devshell"
	rifferrors "riffdoc/internal/errors"
	dockerruntime "riffdoc/internal/runtime"
	"riffdoc/internal/ui"
	"riffdoc/pkg/runtime"
)

// newContainerRuntime is swapped out by tests.
var newContainerRuntime = func() (runtime.ContainerRuntime, error) {
	return dockerruntime.NewDockerRuntime()
}

// Run executes the complete workflow: build step, then run step. It returns
// the interactive shell's exit status so the caller can propagate it.
func Run() (int, error) {
	slog.Info("Starting riffdoc workflow")
	console := ui.NewConsole()

	shell, err := newDevShell()
	if err != nil {
		return 1, err
	}

	console.PrintStage("Building " + devshell.ImageTag + " image")
	if err := buildStage(shell); err != nil {
		return 1, err
	}
	console.PrintSuccess("Image built: " + devshell.ImageTag)

	console.PrintStage("Opening developer shell")
	status, err := shellStage(shell)
	if err != nil {
		return status, err
	}

	slog.Info("riffdoc workflow completed", "status", status)
	return status, nil
}

// Build executes only the build step.
func Build() error {
	shell, err := newDevShell()
	if err != nil {
		return err
	}
	return buildStage(shell)
}

// Shell executes only the run step, against an already-built image.
func Shell() (int, error) {
	shell, err := newDevShell()
	if err != nil {
		return 1, err
	}
	return shellStage(shell)
}

// ValidatePrerequisites checks that the container engine is reachable.
func ValidatePrerequisites() error {
	if _, err := newContainerRuntime(); err != nil {
		return runtimeError(err)
	}
	return nil
}

func newDevShell() (*devshell.DevShell, error) {
	containerRuntime, err := newContainerRuntime()
	if err != nil {
		return nil, runtimeError(err)
	}
	return devshell.New(containerRuntime), nil
}

func buildStage(shell *devshell.DevShell) error {
	if err := shell.Build(); err != nil {
		return rifferrors.NewBuildError(
			"Failed to build the "+devshell.ImageTag+" image",
			err.Error(),
			"Check the Dockerfile in the current directory and the engine's build output above",
			err,
		)
	}
	return nil
}

func shellStage(shell *devshell.DevShell) (int, error) {
	status, err := shell.Open()
	if err != nil {
		if status < 0 {
			status = 1
		}
		return status, rifferrors.NewShellError(
			"Failed to run the developer shell",
			err.Error(),
			"Ensure the "+devshell.ImageTag+" image exists (run the build step first)",
			err,
		)
	}
	return status, nil
}

func runtimeError(err error) error {
	return rifferrors.NewRuntimeError(
		"Failed to connect to the container engine",
		err.Error(),
		"Ensure the Docker daemon is running and DOCKER_HOST points at it",
		err,
	)
}
