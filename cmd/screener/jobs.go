package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fadilmartias/scandid/internal/config"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the roles of the job catalogue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := config.LoadJobCatalog(settings.App.JobsFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROLE\tTITLE\tCOMPANY\tLOCATION")
		for _, j := range catalog.List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", j.Role, j.Title, j.Company, j.Location)
		}
		return w.Flush()
	},
}
