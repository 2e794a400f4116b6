package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ka2n/zplgraphic/logging"
	"github.com/spf13/cobra"
)

const envPrefix = "ZPLGRAPHIC_"

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "zplgraphic",
		Short:        "convert images into ZPL download graphics",
		Long:         "Converts PNG, JPEG, GIF, BMP, TIFF and WebP images into compressed ZPL ~DG graphics and sends them to label printers.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")
			logFile, _ := cmd.Flags().GetString("log-file")

			var level slog.Level
			levelErr := level.UnmarshalText([]byte(strings.ToUpper(logLevel)))
			if levelErr != nil {
				level = slog.LevelInfo
			}

			var w io.Writer = os.Stderr
			if logFile != "" {
				w = logging.FileWriter(logFile, 10, 3)
			}
			slog.SetDefault(logging.Logger(w, logFormat == "json", level))

			if levelErr != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", levelErr)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewConvertCmd(ctx),
		NewPrintCmd(ctx),
		NewStatusCmd(ctx),
		NewPreviewCmd(ctx),
		NewServeCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", envOr("LOG_LEVEL", "INFO"), "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-format", envOr("LOG_FORMAT", "text"), "Log format (text|json)")
	pf.String("log-file", envOr("LOG_FILE", ""), "Write logs to a rotated file instead of stderr")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}

// envOr reads ZPLGRAPHIC_<key>, falling back to def.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return def
}
