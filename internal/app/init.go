package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/respawn/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter .respawn.yaml",
	Long: `Write a commented starter config to .respawn.yaml in the working
directory. Refuses to overwrite an existing file.

Every key in the file has a matching run flag; flags win when both are
given.`,
	Example: `  respawn init`,
	Args:    cobra.NoArgs,
	RunE:    runInit,
}

func init() {
	RootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteStarter(".respawn.yaml"); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Println("✓ Wrote .respawn.yaml")
	fmt.Println()
	fmt.Println("Edit it to taste, then start watching:")
	fmt.Println("  respawn run -- <command>")
	return nil
}
