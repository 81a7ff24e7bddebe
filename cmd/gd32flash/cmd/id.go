package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Query the bootloader version and device product ID",
	Args:  cobra.NoArgs,
	RunE:  runID,
}

func init() {
	rootCmd.AddCommand(idCmd)
}

func runID(cmd *cobra.Command, args []string) error {
	port, client, err := openSession()
	if err != nil {
		return err
	}
	defer port.Close()

	version, commands, err := client.Get()
	if err != nil {
		return err
	}
	id, err := client.GetID()
	if err != nil {
		return err
	}

	fmt.Printf("Bootloader version: %d.%d\n", version>>4, version&0xF)
	fmt.Printf("Product ID:         %#04x\n", id)
	fmt.Printf("Commands:          ")
	for _, c := range commands {
		fmt.Printf(" %#02x", c)
	}
	fmt.Println()
	return nil
}
