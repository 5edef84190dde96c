package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldline/dispatch/config"
	"github.com/fieldline/dispatch/infra/api"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Job related commands",
}

var jobsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List jobs from the backend",
	RunE:  runJobsLs,
}

func init() {
	jobsCmd.AddCommand(jobsLsCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client, err := api.NewClient(cfg.API)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	jobs, err := client.ListJobs(ctx)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		marker := " "
		if j.MapEligible() {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %-12s %s\n", marker, j.ID, j.Status, j.Title)
	}
	return nil
}
