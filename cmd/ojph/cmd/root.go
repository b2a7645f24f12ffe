// Package cmd holds the cobra command tree of the ojph CLI.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aous72/OpenJPH-sub001/codec"
	_ "github.com/aous72/OpenJPH-sub001/dicom" // registers the HTJ2K codecs
	"github.com/aous72/OpenJPH-sub001/logging"
)

// NewRoot builds the CLI command tree.
func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ojph",
		Short: "HTJ2K (JPEG 2000 Part 15) compressor and expander",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}
			out := os.Stderr
			if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
				slog.SetDefault(logging.Logger(logging.Rotating(logFile), true, level))
				return
			}
			slog.SetDefault(logging.Logger(out, false, level))
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewCompressCmd(ctx),
		NewExpandCmd(ctx),
		NewCodecsCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "Rotated log file; stderr when empty")
	return cmd
}

// NewVersionCmd reports the build revision.
func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
}

// NewCodecsCmd lists the registered codecs.
func NewCodecsCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "codecs",
		Short: "list registered codecs",
		Run: func(cmd *cobra.Command, args []string) {
			for _, c := range codec.List() {
				fmt.Printf("%-24s %s\n", c.Name(), c.UID())
			}
		},
	}
}
