package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agentry/internal/api"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show agentry version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("agentry version " + api.Version)
		},
	}
}
