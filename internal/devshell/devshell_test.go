package devshell

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	runtimePkg "riffdoc/pkg/runtime"
)

// MockContainerRuntime is a mock implementation of the ContainerRuntime interface
type MockContainerRuntime struct {
	*mock.Mock
}

func NewMockContainerRuntime() *MockContainerRuntime {
	return &MockContainerRuntime{Mock: &mock.Mock{}}
}

func (m *MockContainerRuntime) BuildImage(ctx context.Context, opts runtimePkg.BuildOptions) error {
	args := m.Called(ctx, opts)
	return args.Error(0)
}

func (m *MockContainerRuntime) StartShell(ctx context.Context, opts runtimePkg.ShellOptions) (int, error) {
	args := m.Called(ctx, opts)
	return args.Int(0), args.Error(1)
}

func TestDevShell_Build(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	tests := []struct {
		name          string
		setupMock     func(*MockContainerRuntime)
		expectError   bool
		errorContains string
	}{
		{
			name: "Successful build uses fixed tag and host networking",
			setupMock: func(m *MockContainerRuntime) {
				m.On("BuildImage", mock.Anything, mock.MatchedBy(func(opts runtimePkg.BuildOptions) bool {
					return opts.Tag == "riff-doc" &&
						opts.NetworkMode == "host" &&
						opts.Dockerfile == "Dockerfile" &&
						opts.ContextDir == cwd
				})).Return(nil)
			},
			expectError: false,
		},
		{
			name: "Build failure is surfaced",
			setupMock: func(m *MockContainerRuntime) {
				m.On("BuildImage", mock.Anything, mock.Anything).Return(errors.New("missing base image"))
			},
			expectError:   true,
			errorContains: "image build failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRuntime := NewMockContainerRuntime()
			tt.setupMock(mockRuntime)

			shell := New(mockRuntime)
			err := shell.Build()

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing '%s', got: %s", tt.errorContains, err)
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %s", err)
			}

			mockRuntime.AssertExpectations(t)
		})
	}
}

func TestDevShell_Open_SessionShape(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	mockRuntime := NewMockContainerRuntime()
	mockRuntime.On("StartShell", mock.Anything, mock.MatchedBy(func(opts runtimePkg.ShellOptions) bool {
		uidValue, hasUID := opts.Env[UIDEnvVar]
		if !hasUID {
			return false
		}
		if _, err := strconv.Atoi(uidValue); err != nil {
			return false
		}

		return opts.Image == ImageTag &&
			strings.HasPrefix(opts.Name, ImageTag+"-") &&
			len(opts.Command) == 1 && opts.Command[0] == ShellCommand &&
			opts.Mounts[cwd] == MountTarget &&
			opts.WorkingDir == MountTarget &&
			opts.AutoRemove
	})).Return(0, nil)

	shell := New(mockRuntime)
	status, err := shell.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if status != 0 {
		t.Errorf("Expected exit status 0, got %d", status)
	}

	mockRuntime.AssertExpectations(t)
}

func TestDevShell_Open_PropagatesExitStatus(t *testing.T) {
	mockRuntime := NewMockContainerRuntime()
	mockRuntime.On("StartShell", mock.Anything, mock.Anything).Return(7, nil)

	shell := New(mockRuntime)
	status, err := shell.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if status != 7 {
		t.Errorf("Expected exit status 7, got %d", status)
	}
}

func TestDevShell_Open_RunFailure(t *testing.T) {
	mockRuntime := NewMockContainerRuntime()
	mockRuntime.On("StartShell", mock.Anything, mock.Anything).Return(-1, errors.New("no such image: riff-doc"))

	shell := New(mockRuntime)
	status, err := shell.Open()
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "shell session failed") {
		t.Errorf("Expected wrapped shell error, got: %s", err)
	}
	if status != -1 {
		t.Errorf("Expected status -1 on run failure, got %d", status)
	}
}

func TestContainerName_UniquePerInvocation(t *testing.T) {
	first := containerName()
	second := containerName()

	if !strings.HasPrefix(first, ImageTag+"-") {
		t.Errorf("Expected container name with prefix '%s-', got: %s", ImageTag, first)
	}
	if first == second {
		t.Errorf("Expected unique container names, got '%s' twice", first)
	}
}

func TestSessionOptions_Validation(t *testing.T) {
	tests := []struct {
		name          string
		opts          sessionOptions
		expectError   bool
		errorContains string
	}{
		{
			name: "Valid options",
			opts: sessionOptions{
				Image:       ImageTag,
				Name:        "riff-doc-abc123",
				Shell:       ShellCommand,
				MountSource: os.TempDir(),
				MountTarget: MountTarget,
				UID:         1000,
			},
			expectError: false,
		},
		{
			name: "Relative mount target rejected",
			opts: sessionOptions{
				Image:       ImageTag,
				Name:        "riff-doc-abc123",
				Shell:       ShellCommand,
				MountSource: os.TempDir(),
				MountTarget: "workspace",
				UID:         1000,
			},
			expectError:   true,
			errorContains: "MountTarget",
		},
		{
			name: "Missing mount source rejected",
			opts: sessionOptions{
				Image:       ImageTag,
				Name:        "riff-doc-abc123",
				Shell:       ShellCommand,
				MountSource: "/nonexistent/riffdoc/path",
				MountTarget: MountTarget,
				UID:         1000,
			},
			expectError:   true,
			errorContains: "MountSource",
		},
		{
			name: "Negative uid rejected",
			opts: sessionOptions{
				Image:       ImageTag,
				Name:        "riff-doc-abc123",
				Shell:       ShellCommand,
				MountSource: os.TempDir(),
				MountTarget: MountTarget,
				UID:         -1,
			},
			expectError:   true,
			errorContains: "UID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(&tt.opts)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected validation error but got none")
				}
				formatted := formatValidationError(err)
				if tt.errorContains != "" && !strings.Contains(formatted.Error(), tt.errorContains) {
					t.Errorf("Expected error containing '%s', got: %s", tt.errorContains, formatted)
				}
			} else if err != nil {
				t.Errorf("Unexpected validation error: %s", err)
			}
		})
	}
}
