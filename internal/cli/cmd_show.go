package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newShowCmd creates the show command.
func newShowCmd() *cobra.Command {
	var metadataOnly bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print one agent definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := startRegistry(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			name := args[0]
			if metadataOnly {
				meta, err := rt.service.GetMetadata(ctx, name)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(os.Stdout).Encode(meta)
				}
				fmt.Printf("Name:         %s\n", meta.Name)
				fmt.Printf("Description:  %s\n", meta.Description)
				if meta.Version != "" {
					fmt.Printf("Version:      %s\n", meta.Version)
				}
				if len(meta.Capabilities) > 0 {
					fmt.Printf("Capabilities: %s\n", strings.Join(meta.Capabilities, ", "))
				}
				fmt.Printf("URI:          %s\n", meta.URI())
				return nil
			}

			resp, err := rt.service.ReadDefinition(ctx, "agent://"+name)
			if err != nil {
				return err
			}
			// ReadDefinition already serializes to JSON; print as-is.
			fmt.Println(resp.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&metadataOnly, "metadata", false, "print index metadata instead of the full definition")
	return cmd
}
