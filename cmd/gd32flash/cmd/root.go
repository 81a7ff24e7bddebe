package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/ardnew/gd32vf103/isp"
	"github.com/ardnew/gd32vf103/pkg"
)

var (
	// Global flags
	portName string
	baudRate int
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "gd32flash",
	Short: "GD32VF103 serial bootloader flasher",
	Long: `Programs GD32VF103 devices through the factory serial bootloader.

Hold BOOT0 high while resetting the board to enter the bootloader, then:

  gd32flash id --port /dev/ttyUSB0                # query the product ID
  gd32flash erase --port /dev/ttyUSB0             # full chip erase
  gd32flash write firmware.hex --port /dev/ttyUSB0`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			pkg.SetLogLevel(slog.LevelDebug)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "",
		"serial port of the bootloader (required)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200,
		"serial baud rate")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.MarkPersistentFlagRequired("port")
}

// openSession opens the serial port with the bootloader's required
// framing (8 data bits, even parity, one stop bit) and synchronizes.
func openSession() (serial.Port, *isp.Client, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", portName, err)
	}

	client := isp.NewClient(port)
	if err := client.Sync(); err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("bootloader handshake failed: %w", err)
	}
	return port, client, nil
}
