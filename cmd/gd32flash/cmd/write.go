package cmd

import (
	"fmt"
	"os"

	"github.com/marcinbor85/gohex"
	"github.com/spf13/cobra"

	"github.com/ardnew/gd32vf103/flash"
)

var (
	flashSizeKB int
	noRun       bool
)

var writeCmd = &cobra.Command{
	Use:   "write <image.hex>",
	Short: "Program an Intel HEX image into main flash",
	Long: `Parses an Intel HEX image, validates every segment against the
device's flash geometry, erases the chip, and programs the segments
through the bootloader. Unless --no-run is given, execution jumps to
the image afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

func init() {
	rootCmd.AddCommand(writeCmd)

	writeCmd.Flags().IntVar(&flashSizeKB, "flash-size", 128,
		"main flash size in KiB (16, 32, 64, or 128)")
	writeCmd.Flags().BoolVar(&noRun, "no-run", false,
		"do not start the programmed image")
}

func flashSize() (flash.Size, error) {
	switch flashSizeKB {
	case 16:
		return flash.Size16K, nil
	case 32:
		return flash.Size32K, nil
	case 64:
		return flash.Size64K, nil
	case 128:
		return flash.Size128K, nil
	}
	return 0, fmt.Errorf("unsupported flash size %d KiB", flashSizeKB)
}

func runWrite(cmd *cobra.Command, args []string) error {
	size, err := flashSize()
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	memory := gohex.NewMemory()
	if err := memory.ParseIntelHex(file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	segments := memory.GetDataSegments()
	if len(segments) == 0 {
		return fmt.Errorf("%s contains no data", args[0])
	}

	flashEnd := uint32(flash.FlashStart) + uint32(size.Bytes())
	var total int
	for _, segment := range segments {
		if segment.Address < uint32(flash.FlashStart) ||
			segment.Address+uint32(len(segment.Data)) > flashEnd {
			return fmt.Errorf("segment at %#08x (%d bytes) outside flash",
				segment.Address, len(segment.Data))
		}
		total += len(segment.Data)
	}

	port, client, err := openSession()
	if err != nil {
		return err
	}
	defer port.Close()

	fmt.Printf("Erasing chip...\n")
	if err := client.EraseAll(); err != nil {
		return err
	}

	for _, segment := range segments {
		fmt.Printf("Writing %d bytes at %#08x...\n", len(segment.Data), segment.Address)
		if err := client.WriteImage(segment.Address, segment.Data); err != nil {
			return err
		}
	}
	fmt.Printf("Programmed %d bytes.\n", total)

	if noRun {
		return nil
	}
	fmt.Printf("Starting image at %#08x.\n", uint32(flash.FlashStart))
	return client.Go(uint32(flash.FlashStart))
}
