package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ka2n/zplgraphic"
	"github.com/ka2n/zplgraphic/conn"
	_ "github.com/ka2n/zplgraphic/conn/usb"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewPrintCmd converts an image and sends it to a printer
func NewPrintCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print [image]",
		Short: "convert an image and send it to a printer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := converterFromFlags(cmd)
			if err != nil {
				return err
			}
			data, err := readInput(inputPath(cmd, args))
			if err != nil {
				return errors.Wrap(err, "load image")
			}

			p, err := openPrinter(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if check, _ := cmd.Flags().GetBool("check-status"); check {
				st, err := p.HostStatus()
				if err != nil {
					return err
				}
				slog.InfoContext(ctx, "printer status", slog.String("status", st.String()))
				if !st.Ready() {
					return fmt.Errorf("printer not ready: %s", st)
				}
			}

			id, err := p.PrintImage(ctx, conv, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	addInputFlags(cmd.Flags())
	addPrinterFlags(cmd.Flags())
	cmd.Flags().Bool("check-status", false, "query ~HS and refuse to print when the printer reports a problem")
	return cmd
}

// NewStatusCmd queries the printer host status
func NewStatusCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "query the printer host status",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPrinter(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			st, err := p.HostStatus()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, st)
			fmt.Fprintf(out, "Label length: %d dots\n", st.LabelLength)
			fmt.Fprintf(out, "Labels remaining: %d\n", st.LabelsRemaining)
			fmt.Fprintf(out, "Graphics stored: %d\n", st.GraphicsStored)
			return nil
		},
	}
	addPrinterFlags(cmd.Flags())
	return cmd
}

func addPrinterFlags(fs *pflag.FlagSet) {
	fs.StringP("driver", "d", envOr("DRIVER", "tcp"), fmt.Sprintf("connection driver %v", conn.Drivers()))
	fs.StringP("address", "a", envOr("ADDRESS", ""), "printer address: host[:port], /dev/tty[@baud] or usb product id 0x0000")
}

func openPrinter(cmd *cobra.Command) (*zplgraphic.Printer, error) {
	driver, _ := cmd.Flags().GetString("driver")
	address, _ := cmd.Flags().GetString("address")
	if address == "" && driver != "usb" {
		return nil, fmt.Errorf("printer address required for driver %q", driver)
	}
	rw, err := conn.Open(driver, address)
	if err != nil {
		return nil, errors.Wrap(err, address)
	}
	return zplgraphic.NewPrinter(rw), nil
}
