package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dyuri/dialface/internal/resource"
	"github.com/dyuri/dialface/pkg/dialface"
)

// pack command
var packCmd = &cobra.Command{
	Use:   "pack <files...>",
	Short: "Bundle resources into a resource pack",
	Long: `Bundle resources into a resource pack. Resource ids start at 1 and
follow the order of the arguments.

Encoded .rle files are stored as they are; PNG, BMP, TIFF and XPM
artwork is encoded first with the smallest format that fits. Any other
file is stored as raw bytes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringP("output", "o", "", "Output file (required)")
	packCmd.MarkFlagRequired("output")
	packCmd.Flags().Bool("zstd", false, "Compress the pack with zstd (adds .zst)")
}

func runPack(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	compress, _ := cmd.Flags().GetBool("zstd")
	if compress && !strings.HasSuffix(outputPath, ".zst") {
		outputPath += ".zst"
	}
	compress = compress || strings.HasSuffix(outputPath, ".zst")

	var b resource.Builder
	for _, path := range args {
		data, err := packEntry(path)
		if err != nil {
			return err
		}
		id := b.Add(data)
		fmt.Printf("%4d  %s (%d bytes)\n", id, path, len(data))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	n, err := b.Save(out, compress)
	if err != nil {
		return fmt.Errorf("write pack: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d resources to %s (%d bytes)\n", b.Len(), outputPath, n)
	return nil
}

func packEntry(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".bmp", ".tif", ".tiff", ".xpm":
		return encodeFile(path, formatValue{auto: true}, dialface.EncodeOptions{})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".rle") {
		if _, err := dialface.DecodeImage(bytes.NewReader(data), int64(len(data))); err != nil {
			logrus.WithError(err).WithField("file", path).Warn("packing an undecodable image")
		}
	}
	return data, nil
}

// list command
var listCmd = &cobra.Command{
	Use:   "list <pack>",
	Short: "List the resources in a resource pack",
	Long: `List the resources in a resource pack with their sizes. Encoded
images show their dimensions and format; other resources show their
leading bytes.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	p, err := resource.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer p.Close()

	out := cmd.OutOrStdout()
	for id := 1; id <= p.Len(); id++ {
		size, err := p.Size(id)
		if err != nil {
			return err
		}
		if h, err := p.Header(id); err == nil {
			fmt.Fprintf(out, "%4d  %6d  %dx%d %s chunk %d\n", id, size, h.Width, h.Height, h.Format, h.ChunkSize)
			continue
		}
		head, err := p.ReadRange(id, 0, 8)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%4d  %6d  raw % x\n", id, size, head)
	}
	return nil
}
