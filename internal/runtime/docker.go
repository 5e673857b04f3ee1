package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"golang.org/x/term"

	"riffdoc/pkg/runtime"
)

// DockerRuntime implements the ContainerRuntime interface using Docker client.
type DockerRuntime struct {
	client *client.Client
}

// NewDockerRuntime creates a new DockerRuntime instance using client.FromEnv.
func NewDockerRuntime() (*DockerRuntime, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Check if Docker daemon is accessible
	ctx := context.Background()
	_, err = dockerClient.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &DockerRuntime{
		client: dockerClient,
	}, nil
}

// BuildImage builds an image from a local build context directory.
func (d *DockerRuntime) BuildImage(ctx context.Context, opts runtime.BuildOptions) error {
	slog.Info("Building image", "tag", opts.Tag, "context", opts.ContextDir)

	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	dockerfilePath := filepath.Join(opts.ContextDir, dockerfile)
	if _, err := os.Stat(dockerfilePath); err != nil {
		return fmt.Errorf("dockerfile not found at %s: %w", dockerfilePath, err)
	}

	buildContext, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{
		ExcludePatterns: buildContextExcludes(opts.ContextDir),
	})
	if err != nil {
		return fmt.Errorf("failed to create build context: %w", err)
	}
	defer buildContext.Close()

	resp, err := d.client.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Dockerfile:  dockerfile,
		Tags:        []string{opts.Tag},
		NetworkMode: opts.NetworkMode,
		Remove:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to build image %s: %w", opts.Tag, err)
	}
	defer resp.Body.Close()

	// Relay the engine's own build output; a JSONError in the stream means a
	// build step failed after the request itself succeeded.
	fd := os.Stderr.Fd()
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, os.Stderr, fd, term.IsTerminal(int(fd)), nil); err != nil {
		var jsonErr *jsonmessage.JSONError
		if errors.As(err, &jsonErr) {
			return fmt.Errorf("image build failed: %s", jsonErr.Message)
		}
		return fmt.Errorf("failed to stream build output: %w", err)
	}

	slog.Info("Successfully built image", "tag", opts.Tag)
	return nil
}

// StartShell runs an interactive container attached to the caller's terminal
// and blocks until the container exits.
func (d *DockerRuntime) StartShell(ctx context.Context, opts runtime.ShellOptions) (int, error) {
	slog.Info("Starting interactive container", "image", opts.Image, "name", opts.Name)

	var mounts []mount.Mount
	for hostPath, containerPath := range opts.Mounts {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: hostPath,
			Target: containerPath,
		})
	}

	var envVars []string
	for key, value := range opts.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", key, value))
	}

	containerConfig := &container.Config{
		Image:        opts.Image,
		Cmd:          opts.Command,
		Env:          envVars,
		WorkingDir:   opts.WorkingDir,
		Tty:          true,
		OpenStdin:    true,
		StdinOnce:    true,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	}

	hostConfig := &container.HostConfig{
		Mounts:     mounts,
		AutoRemove: opts.AutoRemove,
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, opts.Name)
	if err != nil {
		return -1, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := resp.ID

	// With AutoRemove the daemon deletes the container as soon as it exits,
	// so the wait has to be registered before the container starts.
	waitCond := container.WaitConditionNextExit
	if opts.AutoRemove {
		waitCond = container.WaitConditionRemoved
	}
	statusCh, waitErrCh := d.client.ContainerWait(ctx, containerID, waitCond)

	attach, err := d.client.ContainerAttach(ctx, containerID, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		d.removeContainer(ctx, containerID)
		return -1, fmt.Errorf("failed to attach to container: %w", err)
	}
	defer attach.Close()

	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		d.removeContainer(ctx, containerID)
		return -1, fmt.Errorf("failed to start container: %w", err)
	}

	restoreTerminal, err := d.proxyTerminal(ctx, containerID, attach)
	if err != nil {
		return -1, err
	}
	defer restoreTerminal()

	// The container session owns the terminal from here on; block until the
	// engine reports the exit status.
	select {
	case err := <-waitErrCh:
		return -1, fmt.Errorf("failed to wait for container: %w", err)
	case status := <-statusCh:
		if status.Error != nil {
			return int(status.StatusCode), fmt.Errorf("container wait failed: %s", status.Error.Message)
		}
		return int(status.StatusCode), nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// proxyTerminal wires the caller's terminal to the attached container stream.
// The returned function restores the terminal to its previous state.
func (d *DockerRuntime) proxyTerminal(ctx context.Context, containerID string, attach types.HijackedResponse) (func(), error) {
	fd := int(os.Stdin.Fd())
	var state *term.State
	if term.IsTerminal(fd) {
		var err error
		state, err = term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("failed to set terminal to raw mode: %w", err)
		}
		d.resizeContainer(ctx, containerID, fd)
		go d.monitorResize(ctx, containerID, fd)
	}

	go func() {
		_, _ = io.Copy(attach.Conn, os.Stdin)
		_ = attach.CloseWrite()
	}()
	go func() {
		// The container runs with a TTY, so the stream is raw and needs no
		// stdcopy demultiplexing.
		_, _ = io.Copy(os.Stdout, attach.Reader)
	}()

	return func() {
		if state != nil {
			_ = term.Restore(fd, state)
		}
	}, nil
}

// resizeContainer matches the container's TTY size to the caller's terminal.
func (d *DockerRuntime) resizeContainer(ctx context.Context, containerID string, fd int) {
	width, height, err := term.GetSize(fd)
	if err != nil {
		return
	}
	if err := d.client.ContainerResize(ctx, containerID, container.ResizeOptions{
		Height: uint(height),
		Width:  uint(width),
	}); err != nil {
		slog.Debug("Failed to resize container TTY", "containerID", containerID, "error", err)
	}
}

// monitorResize propagates host terminal size changes to the container.
func (d *DockerRuntime) monitorResize(ctx context.Context, containerID string, fd int) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			d.resizeContainer(ctx, containerID, fd)
		}
	}
}

func (d *DockerRuntime) removeContainer(ctx context.Context, containerID string) {
	if err := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		slog.Error("Failed to remove container", "containerID", containerID, "error", err)
	}
}

// buildContextExcludes returns patterns to leave out of the build context.
// Entries from a .dockerignore file in the context directory are appended.
func buildContextExcludes(contextDir string) []string {
	patterns := []string{".git"}

	data, err := os.ReadFile(filepath.Join(contextDir, ".dockerignore"))
	if err != nil {
		return patterns
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns
}
