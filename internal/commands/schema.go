package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ss7kit/engine"
	"github.com/randalmurphal/ss7kit/job"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of job files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(job.Schema())
		},
	})

	RootCmd.AddCommand(&cobra.Command{
		Use:   "ids",
		Short: "List result slots and calculation stages with their aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RESULT\tALIAS")
			for _, r := range engine.ResultSlots() {
				fmt.Fprintf(tw, "%s\t%s\n", r, r.Alias())
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "STAGE\tALIAS")
			for _, s := range engine.Stages() {
				fmt.Fprintf(tw, "%s\t%s\n", s, s.Alias())
			}
			return tw.Flush()
		},
	})
}
