package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wordreel/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		flags    settingsFlags
		filePath string
		textArg  string
		watch    bool
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit text or a document for video generation",
		Long: `Submit text for video generation.

Text comes from --text, --file, or stdin, in that order of precedence.
Plain text and markdown files are supported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			settings := flags.settings()
			if err := settings.Validate(); err != nil {
				return err
			}

			var accepted api.GenerateResponse
			switch {
			case textArg != "" && filePath != "":
				return errors.New("--text and --file are mutually exclusive")
			case filePath != "":
				accepted, err = client.upload(cmd.Context(), filePath, settings)
			case textArg != "":
				accepted, err = client.generate(cmd.Context(), textArg, settings)
			default:
				stdin, readErr := io.ReadAll(cmd.InOrStdin())
				if readErr != nil {
					return fmt.Errorf("read stdin: %w", readErr)
				}
				if strings.TrimSpace(string(stdin)) == "" {
					return errors.New("no input: pass --text, --file, or pipe text on stdin")
				}
				accepted, err = client.generate(cmd.Context(), string(stdin), settings)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, accepted)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s accepted (%d words)\n", accepted.JobID, accepted.WordCount)

			if watch {
				view, err := watchJob(cmd, client, accepted.JobID)
				if err != nil {
					return err
				}
				printJobOutcome(cmd, view)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&textArg, "text", "", "Text to convert")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Document to convert (.txt or .md)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow progress until the job finishes")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")
	return cmd
}
