package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"translatex/internal/backend"
	"translatex/internal/texfile"
	"translatex/internal/translator"
)

func newChunksCmd(a *app) *cobra.Command {
	var (
		encoding       string
		maxRequestSize int
		showLeaves     bool
	)

	cmd := &cobra.Command{
		Use:   "chunks <input.tex>",
		Short: "Show the chunks a file would be translated in",
		Long: `Parse a LaTeX file and print the requests that translate would send,
with their markers, without calling any backend. With --leaves every
character run is listed with the classifier's decision.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("encoding") {
				cfg.InputEncoding = encoding
			}
			if cmd.Flags().Changed("max-request-size") {
				cfg.MaxRequestSize = maxRequestSize
			}

			hint, err := texfile.ParseEncoding(cfg.InputEncoding)
			if err != nil {
				return err
			}
			source, _, err := texfile.Read(args[0], hint)
			if err != nil {
				return err
			}

			opts := translator.OptionsFromConfig(cfg, backend.Echo{})
			opts.Audit = showLeaves
			plan, err := translator.NewEngine(opts).Prepare(source)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, c := range plan.Chunks {
				fmt.Fprintf(out, "--- chunk %d: %d leaves, %d chars ---\n", i+1, c.Leaves(), c.EstimatedSize())
				fmt.Fprintln(out, c.Serialize().Text)
			}

			if showLeaves {
				fmt.Fprintln(out, "--- leaves ---")
				for _, l := range plan.Build.Leaves {
					mark := " "
					if l.Sent {
						mark = "+"
					}
					fmt.Fprintf(out, "%s %-9s %s %q\n", mark, l.Decision, l.Path, l.Text)
				}
			}

			s := plan.Build.Stats
			fmt.Fprintf(out, "Chunks: %d  Leaves translated: %d  excluded: %d  classification gaps: %d\n",
				len(plan.Chunks), s.TranslatedLeaves, s.ExcludedLeaves, s.Gaps)
			printIssues(out, plan.Issues)
			return nil
		},
	}

	cmd.Flags().StringVar(&encoding, "encoding", "", "Input encoding (default auto-detect)")
	cmd.Flags().IntVar(&maxRequestSize, "max-request-size", 0, "Per-request character budget")
	cmd.Flags().BoolVar(&showLeaves, "leaves", false, "List every leaf with its classification")

	return cmd
}
