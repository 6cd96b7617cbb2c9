package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/worklog/internal/client"
	"github.com/mmynk/worklog/internal/models"
)

// recordFlags binds the editable record fields to flags. Only flags the
// user set are applied.
type recordFlags struct {
	date, name, company, location string
	start, end                    string
	day, night, late              float64
	extra                         int64
	memo                          string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.date, "date", "", "work date (YYYY-MM-DD)")
	fs.StringVar(&f.name, "name", "", "worker name")
	fs.StringVar(&f.company, "company", "", "company")
	fs.StringVar(&f.location, "location", "", "work site")
	fs.StringVar(&f.start, "start", "", "start time (HH:MM)")
	fs.StringVar(&f.end, "end", "", "end time (HH:MM), may be past midnight")
	fs.Float64Var(&f.day, "day-hours", 0, "day hours")
	fs.Float64Var(&f.night, "night-hours", 0, "night hours")
	fs.Float64Var(&f.late, "late-hours", 0, "late night hours")
	fs.Int64Var(&f.extra, "extra", 0, "extra amount")
	fs.StringVar(&f.memo, "memo", "", "memo")
}

// apply overwrites the fields of in whose flags were set.
func (f *recordFlags) apply(cmd *cobra.Command, in *models.RecordInput) error {
	changed := cmd.Flags().Changed
	if changed("date") {
		d, err := models.ParseDate(f.date)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		in.Date = d
	}
	if changed("name") {
		in.Name = f.name
	}
	if changed("company") {
		in.Company = f.company
	}
	if changed("location") {
		in.Location = f.location
	}
	if changed("start") {
		in.StartTime = f.start
	}
	if changed("end") {
		in.EndTime = f.end
	}
	if changed("day-hours") {
		in.DayHours = &f.day
	}
	if changed("night-hours") {
		in.NightHours = &f.night
	}
	if changed("late-hours") {
		in.LateNightHours = &f.late
	}
	if changed("extra") {
		in.ExtraAmount = &f.extra
	}
	if changed("memo") {
		in.Memo = &f.memo
	}
	return nil
}

func newAddCmd(a *app) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a work record",
		Example: `  worklog add --date 2024-03-05 --name Kim --company Acme --location Seoul \
    --start 22:00 --end 06:00 --day-hours 0 --night-hours 6 --late-hours 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in models.RecordInput
			if err := flags.apply(cmd, &in); err != nil {
				return err
			}
			record, err := a.client.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s %s)\n", record.ID, record.Date, record.Name)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a work record",
		Long: `Change fields of a work record. Fields without a flag keep their
current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			records, err := a.client.ListRecords(ctx)
			if err != nil {
				return err
			}
			var in *models.RecordInput
			for _, r := range records {
				if r.ID == id {
					current := models.InputFrom(r)
					in = &current
					break
				}
			}
			if in == nil {
				return fmt.Errorf("%w: %s", client.ErrNotFound, id)
			}

			if err := flags.apply(cmd, in); err != nil {
				return err
			}
			record, err := a.client.Update(ctx, id, *in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s %s)\n", record.ID, record.Date, record.Name)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a work record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				answer, err := a.prompt(cmd, fmt.Sprintf("Delete record %s? [y/N]: ", id))
				if err != nil {
					return err
				}
				if ans := strings.ToLower(answer); ans != "y" && ans != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}
			if err := a.client.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}
