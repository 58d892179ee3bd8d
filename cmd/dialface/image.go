package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	// Additional artwork input formats
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/dyuri/dialface/internal/binary"
	"github.com/dyuri/dialface/internal/text"
	"github.com/dyuri/dialface/pkg/dialface"
)

// encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <input.png|input.xpm>",
	Short: "Encode artwork into the run-length image format",
	Long: `Encode a PNG, BMP, TIFF or XPM image into a run-length image resource.

With --format auto the smallest pixel format that keeps every color is
chosen. Palette formats with fewer entries than the image has colors
are quantized.`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

var encodeFormat = formatValue{auto: true}

func init() {
	encodeCmd.Flags().StringP("output", "o", "", "Output file (required)")
	encodeCmd.MarkFlagRequired("output")
	encodeCmd.Flags().Var(&encodeFormat, "format", "Pixel format: auto, 1bit, 1bitpal, 2bit, 4bit, 8bit")
	encodeCmd.Flags().Int("chunk", 0, "Run-length chunk size: 1, 2, 4, 8 (default: smallest)")
	encodeCmd.Flags().String("unscreen", "auto", "Checkerboard pre-pass for 1-bit images: auto, on, off")
}

func runEncode(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	chunk, _ := cmd.Flags().GetInt("chunk")
	unscreen, _ := cmd.Flags().GetString("unscreen")

	opts := dialface.EncodeOptions{ChunkSize: chunk}
	switch unscreen {
	case "auto":
		opts.Unscreen = binary.UnscreenAuto
	case "on":
		opts.Unscreen = binary.UnscreenOn
	case "off":
		opts.Unscreen = binary.UnscreenOff
	default:
		return fmt.Errorf("unknown unscreen mode: %s", unscreen)
	}

	data, err := encodeFile(args[0], encodeFormat, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}

	h, err := dialface.ReadHeader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Encoded %s to %s\n", args[0], outputPath)
	fmt.Fprintf(os.Stderr, "  %dx%d %s, chunk %d, unscreen %v, %d bytes\n",
		h.Width, h.Height, h.Format, h.ChunkSize, h.Unscreen, len(data))
	return nil
}

// readArt loads an image from any supported artwork format
func readArt(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xpm") {
		bmp, err := text.ReadXPM(f)
		if err != nil {
			return nil, fmt.Errorf("parse XPM: %w", err)
		}
		return dialface.ToImage(bmp), nil
	}

	img, kind, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	logrus.WithFields(logrus.Fields{"file": path, "type": kind}).Debug("read artwork")
	return img, nil
}

// encodeFile reads artwork and returns the encoded resource
func encodeFile(path string, fv formatValue, opts dialface.EncodeOptions) ([]byte, error) {
	img, err := readArt(path)
	if err != nil {
		return nil, err
	}

	format := fv.format
	if fv.auto {
		format = dialface.AutoFormat(img)
	}
	bmp, err := dialface.FromImage(img, format)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dialface.EncodeImage(&buf, bmp, opts); err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <input.rle>",
	Short: "Decode a run-length image to PNG or XPM",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

func init() {
	decodeCmd.Flags().StringP("output", "o", "", "Output file, .png or .xpm (required)")
	decodeCmd.MarkFlagRequired("output")
	decodeCmd.Flags().Int("scale", 1, "Scale PNG output by an integer factor")
}

func runDecode(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	scale, _ := cmd.Flags().GetInt("scale")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}
	bmp, err := dialface.DecodeImage(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".xpm":
		return text.WriteXPM(out, bmp, xpmName(outputPath))
	case ".png":
		return png.Encode(out, scaled(dialface.ToImage(bmp), scale))
	default:
		return fmt.Errorf("unknown output type: %s", outputPath)
	}
}

// xpmName derives a C identifier from a file name
func xpmName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := []byte(base)
	for i, c := range name {
		ok := c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
		if !ok {
			name[i] = '_'
		}
	}
	if len(name) == 0 || name[0] >= '0' && name[0] <= '9' {
		return "_" + string(name)
	}
	return string(name)
}

// scaled enlarges img by k with nearest-neighbour sampling
func scaled(img image.Image, k int) image.Image {
	if k <= 1 {
		return img
	}
	// Flatten to RGBA first so the scaler takes its RGBA to RGBA path.
	b := img.Bounds()
	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*k, b.Dy()*k))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input.rle>",
	Short: "Display encoded image information",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().String("format", "text", "Output format: text, json")
}

type imageInfo struct {
	File          string   `json:"file"`
	Size          int      `json:"size"`
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	Format        string   `json:"format"`
	ChunkSize     int      `json:"chunkSize"`
	Unscreen      bool     `json:"unscreen"`
	ValueOffset   int      `json:"valueOffset"`
	PaletteOffset int      `json:"paletteOffset,omitempty"`
	Palette       []string `json:"palette,omitempty"`
	Stride        int      `json:"stride"`
	Ratio         float64  `json:"ratio"`
	Error         string   `json:"error,omitempty"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}
	h, err := dialface.ReadHeader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	info := imageInfo{
		File:          args[0],
		Size:          len(data),
		Width:         h.Width,
		Height:        h.Height,
		Format:        h.Format.String(),
		ChunkSize:     h.ChunkSize,
		Unscreen:      h.Unscreen,
		ValueOffset:   h.ValueOffset,
		PaletteOffset: h.PaletteOffset,
		Stride:        h.Format.Stride(h.Width),
	}
	if raw := h.Height * info.Stride; raw > 0 {
		info.Ratio = float64(len(data)) / float64(raw)
	}

	// A full decode catches stream corruption the header cannot show
	bmp, err := dialface.DecodeImage(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		info.Error = err.Error()
	} else {
		for _, c := range bmp.Palette {
			info.Palette = append(info.Palette, c.String())
		}
	}

	switch format {
	case "text":
		fmt.Printf("Image: %s\n", info.File)
		fmt.Printf("  Size:      %dx%d\n", info.Width, info.Height)
		fmt.Printf("  Format:    %s\n", info.Format)
		fmt.Printf("  Chunk:     %d bits\n", info.ChunkSize)
		fmt.Printf("  Unscreen:  %v\n", info.Unscreen)
		fmt.Printf("  Values at: %d\n", info.ValueOffset)
		if info.PaletteOffset != 0 {
			fmt.Printf("  Palette:   %s (at %d)\n", strings.Join(info.Palette, " "), info.PaletteOffset)
		}
		fmt.Printf("  Encoded:   %d bytes (%.1f%% of %d)\n", info.Size, info.Ratio*100, info.Height*info.Stride)
		if info.Error != "" {
			fmt.Printf("  Error:     %s\n", info.Error)
		}
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(info); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if info.Error != "" {
		return fmt.Errorf("decode failed")
	}
	return nil
}
