package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachequiz/cache/trace"
	"github.com/sarchlab/cachequiz/datarecording"
)

var historyCmd = &cobra.Command{
	Use:   "history <db.sqlite3>",
	Short: "Print the accesses recorded by generate --record or serve --record.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		reader.MapTable(trace.AccessTable, trace.AccessEntry{})

		params := datarecording.QueryParams{OrderBy: "ScenarioID, Seq"}
		if id, _ := cmd.Flags().GetString("scenario"); id != "" {
			params.Where = "ScenarioID = ?"
			params.Args = []any{id}
		}

		params.Limit, _ = cmd.Flags().GetInt("limit")

		rows, total, err := reader.Query(
			cmd.Context(), trace.AccessTable, params)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCENARIO\tSEQ\tADDRESS\tSET\tWAY\tOUTCOME\tDATA")

		for _, row := range rows {
			e := row.(*trace.AccessEntry)

			outcome := "miss"
			if e.Hit {
				outcome = "hit"
			} else if e.Writeback {
				outcome = "miss+writeback"
			}

			data := "-"
			if e.Data >= 0 {
				data = fmt.Sprint(e.Data)
			}

			fmt.Fprintf(w, "%s\t%d\t0x%x\t%d\t%d\t%s\t%s\n",
				e.ScenarioID, e.Seq, e.Address, e.SetIndex, e.WayID,
				outcome, data)
		}

		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d accesses\n", len(rows), total)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("scenario", "", "Only show this scenario")
	historyCmd.Flags().Int("limit", 0, "Show at most this many accesses")
}
