package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"riffdoc/internal/app"
	"riffdoc/internal/errors"
)

// version is set at build time via ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "riffdoc",
	Short:   "riffdoc - containerized developer shell for the riff docs",
	Version: version,
	Long: `riffdoc builds the riff-doc container image from the current directory
and opens an interactive shell inside it, with the current directory mounted
at /workspace and the invoking user's numeric id exported as UID.

The shell's exit status becomes riffdoc's exit status.`,
	Run: func(cmd *cobra.Command, args []string) {
		status, err := app.Run()
		if err != nil {
			errors.HandleError(err)
			if status <= 0 {
				status = 1
			}
			os.Exit(status)
		}
		os.Exit(status)
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the riff-doc image from the current directory",
	Long: `Build creates the riff-doc container image using the current directory
as the build context, with the host's network namespace enabled for the build.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := app.Build(); err != nil {
			errors.HandleError(err)
			os.Exit(1)
		}
		fmt.Println("Successfully built image: riff-doc")
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive shell in the riff-doc image",
	Long: `Shell starts an interactive container from the riff-doc image without
rebuilding it first. The container is removed when the shell exits and the
shell's exit status is propagated.`,
	Run: func(cmd *cobra.Command, args []string) {
		status, err := app.Shell()
		if err != nil {
			errors.HandleError(err)
			if status <= 0 {
				status = 1
			}
			os.Exit(status)
		}
		os.Exit(status)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(shellCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
