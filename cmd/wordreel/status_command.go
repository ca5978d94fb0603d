package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"wordreel/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		watch   bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			id := args[0]

			if watch {
				view, err := watchJob(cmd, client, id)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(cmd, view)
				}
				printJobOutcome(cmd, view)
				return nil
			}

			view, err := client.status(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, view)
			}
			printJobView(cmd, view)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the job reaches a terminal state")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")
	return cmd
}

// watchJob polls status once a second until the job settles. On a terminal
// the progress line is rewritten in place; otherwise each change gets its
// own line so logs stay readable.
func watchJob(cmd *cobra.Command, client *client, id string) (api.JobView, error) {
	interactive := isTerminal()
	lastLine := ""
	for {
		view, err := client.status(cmd.Context(), id)
		if err != nil {
			return api.JobView{}, err
		}

		line := fmt.Sprintf("%s: %s %d%% (%d/%d units)",
			view.JobID, view.Status, view.Percent, view.CurrentUnit, view.TotalUnits)
		if interactive {
			fmt.Fprintf(cmd.OutOrStdout(), "\r\033[K%s", line)
		} else if line != lastLine {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		lastLine = line

		if terminalStatus(view.Status) {
			if interactive {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return view, nil
		}

		select {
		case <-cmd.Context().Done():
			return api.JobView{}, cmd.Context().Err()
		case <-time.After(time.Second):
		}
	}
}

func terminalStatus(status string) bool {
	switch status {
	case "completed", "failed", "cancelled":
		return true
	default:
		return false
	}
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printJobView(cmd *cobra.Command, view api.JobView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:       %s\n", view.JobID)
	fmt.Fprintf(out, "status:   %s\n", view.Status)
	fmt.Fprintf(out, "progress: %d%% (%d/%d units)\n", view.Percent, view.CurrentUnit, view.TotalUnits)
	if view.Message != "" {
		fmt.Fprintf(out, "message:  %s\n", view.Message)
	}
	fmt.Fprintf(out, "words:    %d\n", view.WordCount)
	fmt.Fprintf(out, "created:  %s\n", view.CreatedAt.Local().Format(time.RFC3339))
	if view.ErrorCode != "" {
		fmt.Fprintf(out, "error:    [%s] %s\n", view.ErrorCode, view.ErrorMessage)
	}
}

func printJobOutcome(cmd *cobra.Command, view api.JobView) {
	out := cmd.OutOrStdout()
	switch view.Status {
	case "completed":
		fmt.Fprintf(out, "job %s completed, download with: wordreel download %s\n", view.JobID, view.JobID)
	case "failed":
		fmt.Fprintf(out, "job %s failed: [%s] %s\n", view.JobID, view.ErrorCode, view.ErrorMessage)
	case "cancelled":
		fmt.Fprintf(out, "job %s cancelled\n", view.JobID)
	}
}
