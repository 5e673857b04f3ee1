// Located in pkg/runtime/runtime.go
package runtime

import "context"

// BuildOptions defines the parameters for building a container image.
type BuildOptions struct {
	ContextDir  string
	Dockerfile  string
	Tag         string
	NetworkMode string
}

// ShellOptions defines the parameters for an interactive container session.
type ShellOptions struct {
	Image      string
	Name       string
	Command    []string
	Env        map[string]string
	Mounts     map[string]string
	WorkingDir string
	AutoRemove bool
}

// ContainerRuntime defines the contract for container engine operations.
type ContainerRuntime interface {
	BuildImage(ctx context.Context, opts BuildOptions) error
	// StartShell runs an interactive container and blocks until it exits,
	// returning the container's exit status.
	StartShell(ctx context.Context, opts ShellOptions) (int, error)
}
