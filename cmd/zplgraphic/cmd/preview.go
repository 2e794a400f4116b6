package cmd

import (
	"context"
	"fmt"
	"image/png"

	"github.com/ka2n/zplgraphic"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewPreviewCmd renders the graphic stored by a ZPL file as PNG
func NewPreviewCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [zpl]",
		Short: "render the ~DG graphic of a ZPL file as PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(inputPath(cmd, args))
			if err != nil {
				return err
			}
			g, err := zplgraphic.ParseGraphic(string(raw))
			if err != nil {
				return err
			}

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				rows, err := g.Rows()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, row := range rows {
					for _, c := range row {
						fmt.Fprintf(out, "%08b", c)
					}
					fmt.Fprintln(out)
				}
				return nil
			}

			img, err := g.Image()
			if err != nil {
				return err
			}
			outPath, _ := cmd.Flags().GetString("output")
			w, closeOut, err := openOutput(cmd, outPath)
			if err != nil {
				return err
			}
			defer closeOut()
			return errors.Wrap(png.Encode(w, img), "encode png")
		},
	}
	cmd.Flags().StringP("input", "i", "", "ZPL path, - for stdin")
	cmd.Flags().StringP("output", "o", "-", "PNG output path, - for stdout")
	cmd.Flags().Bool("debug", false, "print the rows as bits instead of writing PNG")
	return cmd
}
