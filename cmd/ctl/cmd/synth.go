package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"

	"github.com/jpfielding/ljpeg.go/pkg/compress/jpegli"
	"github.com/spf13/cobra"
)

// NewSynthCmd writes a synthetic lossless JPEG, handy as a parser fixture
func NewSynthCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic lossless JPEG",
		Long:  "Encodes a CT-like radial gradient as a single component JPEG Lossless stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")
			precision, _ := cmd.Flags().GetInt("precision")
			predictor, _ := cmd.Flags().GetInt("predictor")
			out, _ := cmd.Flags().GetString("out")

			if width <= 0 || height <= 0 {
				return fmt.Errorf("invalid dimensions %dx%d", width, height)
			}
			var buf bytes.Buffer
			opts := &jpegli.Encoder{Predictor: predictor, Precision: precision}
			if err := jpegli.Encode(&buf, synthImage(width, height, precision), opts); err != nil {
				return err
			}
			slog.InfoContext(ctx, "synthesized", slog.Int("bytes", buf.Len()), slog.String("out", out))
			if out == "" || out == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			return os.WriteFile(out, buf.Bytes(), 0644)
		},
	}
	pf := cmd.PersistentFlags()
	pf.Int("width", 64, "image width")
	pf.Int("height", 64, "image height")
	pf.Int("precision", 16, "bits per sample (2-16)")
	pf.Int("predictor", 1, "lossless predictor (1-7)")
	pf.StringP("out", "o", "", "output path, stdout when empty")
	return cmd
}

// synthImage simulates a CT slice with varying intensity
func synthImage(width, height, precision int) image.Image {
	maxVal := 1<<precision - 1
	if precision <= 8 {
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dist := (x-width/2)*(x-width/2) + (y-height/2)*(y-height/2)
				img.SetGray(x, y, color.Gray{Y: uint8(maxVal - dist%(maxVal+1))})
			}
		}
		return img
	}
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dist := (x-width/2)*(x-width/2) + (y-height/2)*(y-height/2)
			img.SetGray16(x, y, color.Gray16{Y: uint16(maxVal - dist%(maxVal+1))})
		}
	}
	return img
}
