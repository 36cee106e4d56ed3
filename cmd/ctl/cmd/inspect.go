package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpfielding/ljpeg.go/pkg/compress/jpegli"
	"github.com/jpfielding/ljpeg.go/pkg/logging"
	"github.com/jpfielding/ljpeg.go/pkg/util"
	"github.com/spf13/cobra"
)

// inspection is what inspect and markers report for one input
type inspection struct {
	ID  string `json:"id"`
	MD5 string `json:"md5"`
	*jpegli.Result
}

// NewInspectCmd parses a lossless JPEG and prints its frame
func NewInspectCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [uri]",
		Short: "Parse a lossless JPEG and print its frame",
		Long:  "Parses SOI/SOF3 and every DHT and SOS segment through EOI, printing the frame header, Huffman tables, scans and diagnostics.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ins, err := runParse(ctx, cmd, args)
			if err != nil {
				return err
			}
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				return printText(cmd.OutOrStdout(), ins)
			default:
				return printJSON(cmd.OutOrStdout(), ins)
			}
		},
	}
	addParseFlags(cmd)
	cmd.PersistentFlags().StringP("format", "f", "json", "output format (text|json)")
	return cmd
}

// NewMarkersCmd lists the segments of a lossless JPEG
func NewMarkersCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markers [uri]",
		Short: "List the marker segments of a lossless JPEG",
		Long:  "Lists every marker segment and entropy-coded span with its byte offset and length.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ins, err := runParse(ctx, cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range ins.Segments {
				fmt.Fprintf(out, "%-6s offset=0x%08X length=%d", s.Marker, s.Offset, s.Length)
				if s.Restarts > 0 {
					fmt.Fprintf(out, " restarts=%d", s.Restarts)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	addParseFlags(cmd)
	return cmd
}

func addParseFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringP("uri", "u", "", "file path, - for stdin, or http(s) URI")
	pf.Bool("strict", false, "treat malformed Huffman tables as fatal")
	pf.Bool("skip-segments", false, "skip the payload of unrecognized marker segments")
	pf.Bool("embedded", false, "search the input for an embedded SOI+SOF3 stream (e.g. DICOM pixel data)")
	pf.BoolP("verbose", "v", false, "dump http request/response headers")
}

func runParse(ctx context.Context, cmd *cobra.Command, args []string) (*inspection, error) {
	uri, _ := cmd.Flags().GetString("uri")
	if uri == "" && len(args) > 0 {
		uri = args[0]
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	strict, _ := cmd.Flags().GetBool("strict")
	skip, _ := cmd.Flags().GetBool("skip-segments")
	embedded, _ := cmd.Flags().GetBool("embedded")

	buf, err := readInput(ctx, uri, verbose)
	if err != nil {
		return nil, err
	}
	if embedded {
		off := jpegli.Locate(buf)
		if off < 0 {
			return nil, fmt.Errorf("no lossless JPEG stream found in %s", uri)
		}
		buf = buf[off:]
	}

	id := util.ContentUUID(buf)
	ctx = logging.AppendCtx(ctx, slog.Group("parse",
		slog.String("id", id),
		slog.String("uri", uri),
		slog.Int("bytes", len(buf)),
	))
	p := &jpegli.Parser{Reporter: jpegli.SlogReporter{}, Strict: strict, SkipSegments: skip}
	res, err := p.Parse(ctx, buf)
	if err != nil {
		slog.ErrorContext(ctx, "parse failed", slog.Any("error", err))
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return &inspection{ID: id, MD5: util.Md5ThenHex(buf), Result: res}, nil
}

func printText(w io.Writer, ins *inspection) error {
	fmt.Fprintf(w, "ID: %s\n", ins.ID)
	fmt.Fprintf(w, "MD5: %s\n", ins.MD5)
	fmt.Fprint(w, ins.Frame)
	if len(ins.Diagnostics) > 0 {
		fmt.Fprintln(w, "Diagnostics:")
		for _, d := range ins.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	return nil
}

func printJSON(w io.Writer, ins *inspection) error {
	j, err := json.Marshal(ins)
	if err != nil {
		return err
	}
	_, err = w.Write(append(j, '\n'))
	return err
}
