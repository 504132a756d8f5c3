package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"material_lending/lending"

	"github.com/spf13/cobra"
)

var (
	reportJSON     bool
	statsFrom      string
	statsTo        string
	statsCats      string
	statsProfessor string
)

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List reserved items past their due date",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := open(false)
		if err != nil {
			return err
		}
		defer d.close()

		items, err := d.svc.Overdue(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to build overdue report: %w", err)
		}
		if reportJSON {
			return printJSON(items)
		}
		if len(items) == 0 {
			fmt.Println("No overdue items.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REQUEST\tSTUDENT\tEMAIL\tMATERIAL\tQTY\tDUE\tDAYS LATE")
		for _, it := range items {
			fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%d\t%s\t%d\n",
				it.RequestID, it.Student, it.Email, it.Material, it.Quantity,
				it.DueDate.Format("02/01/2006"), it.DaysOverdue)
		}
		return tw.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the professor dashboard as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		var f lending.DashboardFilter
		var err error
		if f.From, err = lending.ParseDay(statsFrom, false); err != nil {
			return err
		}
		if f.To, err = lending.ParseDay(statsTo, true); err != nil {
			return err
		}
		for _, v := range strings.Split(statsCats, ",") {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q: %w", v, err)
			}
			f.CategoryIDs = append(f.CategoryIDs, uint(n))
		}

		d, err := open(false)
		if err != nil {
			return err
		}
		defer d.close()

		prof, err := d.professor(cmd.Context(), statsProfessor)
		if err != nil {
			return err
		}
		dash, err := d.svc.Dashboard(cmd.Context(), prof, f)
		if err != nil {
			return fmt.Errorf("failed to build dashboard: %w", err)
		}
		return printJSON(dash)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	overdueCmd.Flags().BoolVar(&reportJSON, "json", false, "print JSON instead of a table")

	statsCmd.Flags().StringVar(&statsFrom, "from", "", "first requested day (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "last requested day (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&statsCats, "categories", "", "comma separated category ids")
	statsCmd.Flags().StringVar(&statsProfessor, "professor", "", "professor email (default BOOTSTRAP_PROFESSOR_EMAIL)")

	rootCmd.AddCommand(overdueCmd, statsCmd)
}
