package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/worklog/internal/calculator"
	"github.com/mmynk/worklog/internal/export"
	"github.com/mmynk/worklog/internal/filter"
	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/tui"
	"github.com/mmynk/worklog/internal/worklist"
)

// filterFlags override the configured filter.
type filterFlags struct {
	year, month             int
	name, company, location string
	all                     bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.year, "year", 0, "show January 1 through --month of this year")
	fs.IntVar(&f.month, "month", 0, "last month of the --year window (default December)")
	fs.StringVar(&f.name, "name", "", "name contains")
	fs.StringVar(&f.company, "company", "", "company contains")
	fs.StringVar(&f.location, "location", "", "location contains")
	fs.BoolVar(&f.all, "all", false, "ignore the configured filter")
}

// spec starts from base and applies the flags the user set.
func (f *filterFlags) spec(cmd *cobra.Command, base filter.Spec) (filter.Spec, error) {
	if f.all {
		base = filter.Spec{}
	}
	changed := cmd.Flags().Changed
	if changed("year") {
		base.Year = f.year
	}
	if changed("month") {
		base.EndMonth = time.Month(f.month)
	}
	if changed("name") {
		base.Name = f.name
	}
	if changed("company") {
		base.Company = f.company
	}
	if changed("location") {
		base.Location = f.location
	}
	if err := base.Validate(); err != nil {
		return filter.Spec{}, err
	}
	return base, nil
}

// liveSpec is spec for the live table. Without a configured or requested
// date window it opens on the current year through the current month;
// --all shows everything.
func (f *filterFlags) liveSpec(cmd *cobra.Command, base filter.Spec, now time.Time) (filter.Spec, error) {
	spec, err := f.spec(cmd, base)
	if err != nil {
		return filter.Spec{}, err
	}
	switch {
	case f.all || spec.Year != 0:
		return spec, nil
	case cmd.Flags().Changed("month"):
		spec.Year = now.Year()
		return spec, nil
	}
	return spec.YearToDate(now), nil
}

// loadView fetches the list once and filters it. Load failures are
// printed as notices.
func (a *app) loadView(cmd *cobra.Command, spec filter.Spec) (worklist.View, error) {
	ctrl := worklist.New(a.client,
		worklist.WithLogger(a.logger),
		worklist.WithNotifier(a.notifier(cmd)),
	)
	defer ctrl.Close()

	if err := ctrl.Load(cmd.Context()); err != nil {
		return worklist.View{}, ErrReported
	}
	return ctrl.View(spec), nil
}

func (a *app) exportFunc() tui.ExportFunc {
	opts := a.cfg.Export.Options()
	dir := a.cfg.Export.Dir
	return func(records []models.WorkRecord) (string, error) {
		return export.WriteFile(dir, records, opts)
	}
}

func printOptions(cmd *cobra.Command, opts filter.Options) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Names:     %s\n", strings.Join(opts.Names, ", "))
	fmt.Fprintf(w, "Companies: %s\n", strings.Join(opts.Companies, ", "))
	fmt.Fprintf(w, "Months:    %s\n", strings.Join(opts.Months, ", "))
}

func newListCmd(a *app) *cobra.Command {
	var (
		flags   filterFlags
		options bool
		by      string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show work records and their totals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := flags.spec(cmd, a.cfg.Filter)
			if err != nil {
				return err
			}
			view, err := a.loadView(cmd, spec)
			if err != nil {
				return err
			}
			if options {
				printOptions(cmd, view.Options)
				return nil
			}
			if by != "" {
				key, err := calculator.ParseGroupKey(by)
				if err != nil {
					return err
				}
				title := strings.ToUpper(string(key[:1])) + string(key[1:])
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderGroups(title, calculator.GroupTotals(view.Records, key)))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.Render(view.Records, view.Totals))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&options, "options", false, "list the names, companies and months to filter by")
	cmd.Flags().StringVar(&by, "by", "", "show totals per name, company, location or month")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		flags filterFlags
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered records to an Excel workbook",
		Long: `Write the filtered records to <label>_<YYYY-MM-DD>.xlsx in the export
directory. The label, sheet name and directory come from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := flags.spec(cmd, a.cfg.Filter)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dir") {
				a.cfg.Export.Dir = dir
			}
			view, err := a.loadView(cmd, spec)
			if err != nil {
				return err
			}
			path, err := a.exportFunc()(view.Records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(view.Records), path)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&dir, "dir", "", "export directory, overrides the config file")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a live table that follows changes on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := flags.liveSpec(cmd, a.cfg.Filter, time.Now())
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), a.client, tui.Options{
				Filter: spec,
				Export: a.exportFunc(),
				Logger: a.logger,
			})
		},
	}
	flags.register(cmd)
	return cmd
}
