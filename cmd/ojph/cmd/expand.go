package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aous72/OpenJPH-sub001/imageio"
	"github.com/aous72/OpenJPH-sub001/jph"
)

// NewExpandCmd builds the expand subcommand.
func NewExpandCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "expand an HTJ2K codestream to a PPM/PGM/YUV image",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("input")
			out, _ := cmd.Flags().GetString("output")
			if in == "" || out == "" {
				return fmt.Errorf("both -i and -o are required")
			}

			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			dec := jph.NewDecoder()
			dec.Resilient, _ = cmd.Flags().GetBool("resilient")
			dec.SkipResolutions, _ = cmd.Flags().GetInt("skip_res")
			img, err := dec.Decode(data)
			if err != nil {
				return err
			}

			if strings.HasSuffix(out, ".yuv") {
				err = imageio.WriteYUV420(out, img)
			} else {
				err = imageio.WritePNM(out, img)
			}
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "expanded",
				"input", in, "output", out,
				"components", len(img.Comps),
				"width", img.Comps[0].Width, "height", img.Comps[0].Height)
			return nil
		},
	}
	pf := cmd.Flags()
	pf.StringP("input", "i", "", "input codestream (.j2c, .jph)")
	pf.StringP("output", "o", "", "output image (.ppm, .pgm, .yuv)")
	pf.Bool("resilient", false, "decode through truncation and corruption")
	pf.Int("skip_res", 0, "number of fine resolutions to skip")
	return cmd
}
