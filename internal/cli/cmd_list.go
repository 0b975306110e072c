package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/agentry/internal/index"
)

// newListCmd creates the list command.
func newListCmd() *cobra.Command {
	var (
		capability string
		contains   string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed agent definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := startRegistry(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			records, err := rt.service.Query(ctx, index.QueryParams{
				Capability: capability,
				Contains:   contains,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(records)
			}

			if len(records) == 0 {
				fmt.Println("No definitions found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			if isatty.IsTerminal(os.Stdout.Fd()) {
				fmt.Fprintln(w, "NAME\tVERSION\tCAPABILITIES\tDESCRIPTION")
			}
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					rec.Name, rec.Version,
					strings.Join(rec.Capabilities, ","),
					truncate(rec.Description, 60))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&capability, "capability", "", "filter by capability")
	cmd.Flags().StringVar(&contains, "contains", "", "filter by name/description substring")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (0 = default)")
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
