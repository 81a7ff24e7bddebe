package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the entire main flash",
	Args:  cobra.NoArgs,
	RunE:  runErase,
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}

func runErase(cmd *cobra.Command, args []string) error {
	port, client, err := openSession()
	if err != nil {
		return err
	}
	defer port.Close()

	if err := client.EraseAll(); err != nil {
		return err
	}
	fmt.Println("Chip erased.")
	return nil
}
