package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aous72/OpenJPH-sub001/codestream"
	"github.com/aous72/OpenJPH-sub001/imageio"
	"github.com/aous72/OpenJPH-sub001/jph"
)

// NewCompressCmd builds the compress subcommand.
func NewCompressCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress",
		Short: "compress a PPM/PGM/YUV image to an HTJ2K codestream",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("input")
			out, _ := cmd.Flags().GetString("output")
			if in == "" || out == "" {
				return fmt.Errorf("both -i and -o are required")
			}

			img, downsampling, err := readInput(cmd, in)
			if err != nil {
				return err
			}

			reversible, _ := cmd.Flags().GetBool("reversible")
			qstep, _ := cmd.Flags().GetFloat32("qstep")
			levels, _ := cmd.Flags().GetInt("num_decomps")
			tileW, tileH, err := sizePair(cmd, "tile_size")
			if err != nil {
				return err
			}
			blockW, blockH, err := sizePair(cmd, "block_size")
			if err != nil {
				return err
			}
			offX, offY, err := sizePair(cmd, "image_offset")
			if err != nil {
				return err
			}

			c0 := img.Comps[0]
			p := jph.DefaultEncodeParams(c0.Width, c0.Height, len(img.Comps), c0.BitDepth, c0.Signed)
			p.Reversible = reversible
			p.QStep = qstep
			p.NumLevels = levels
			p.TileWidth, p.TileHeight = tileW, tileH
			p.ImageOffsetX, p.ImageOffsetY = offX, offY
			if blockW > 0 {
				p.CodeBlockWidth = blockW
			}
			if blockH > 0 {
				p.CodeBlockHeight = blockH
			}
			p.Downsampling = downsampling
			if downsampling != nil {
				// 4:2:0 input is already decorrelated and sub-sampled.
				p.ColorTransform = false
			}

			data, err := jph.NewEncoder(p).Encode(img)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			slog.InfoContext(ctx, "compressed",
				"input", in, "output", out, "bytes", len(data),
				"reversible", reversible)
			return nil
		},
	}
	pf := cmd.Flags()
	pf.StringP("input", "i", "", "input image (.ppm, .pgm, .yuv)")
	pf.StringP("output", "o", "", "output codestream (.j2c, .jph)")
	pf.Float32("qstep", 0, "irreversible base quantization step")
	pf.Bool("reversible", true, "use the reversible 5/3 transform")
	pf.String("tile_size", "", "tile size {w,h}")
	pf.String("block_size", "", "code-block size {w,h}")
	pf.Int("num_decomps", 5, "number of decomposition levels")
	pf.String("image_offset", "", "image origin {x,y}")
	pf.String("frame_size", "", "frame size {w,h}, required for .yuv input")
	return cmd
}

// readInput loads the input image per its extension.
func readInput(cmd *cobra.Command, path string) (*jph.Image, []codestream.ComponentSize, error) {
	if strings.HasSuffix(path, ".yuv") {
		w, h, err := sizePair(cmd, "frame_size")
		if err != nil {
			return nil, nil, err
		}
		if w == 0 || h == 0 {
			return nil, nil, fmt.Errorf("-frame_size {w,h} is required for .yuv input")
		}
		img, err := imageio.ReadYUV420(path, w, h)
		if err != nil {
			return nil, nil, err
		}
		ds := imageio.YUV420Downsampling()
		sizes := make([]codestream.ComponentSize, 3)
		for i := range sizes {
			sizes[i] = codestream.ComponentSize{XRsiz: ds[i][0], YRsiz: ds[i][1]}
		}
		return img, sizes, nil
	}
	img, err := imageio.ReadPNM(path)
	return img, nil, err
}

// sizePair parses a "{w,h}" flag value.
func sizePair(cmd *cobra.Command, name string) (int, int, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return 0, 0, nil
	}
	v = strings.TrimPrefix(strings.TrimSuffix(v, "}"), "{")
	var a, b int
	if _, err := fmt.Sscanf(v, "%d,%d", &a, &b); err != nil {
		return 0, 0, fmt.Errorf("flag -%s wants {w,h}: %w", name, err)
	}
	return a, b, nil
}
