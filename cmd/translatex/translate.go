package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"translatex/internal/logger"
	"translatex/internal/texfile"
	"translatex/internal/translator"
	"translatex/internal/types"
)

type translateFlags struct {
	output         string
	encoding       string
	maxRequestSize int
	skipFailed     bool
	noPostprocess  bool
	jsonReport     bool
	quiet          bool
}

func newTranslateCmd(a *app) *cobra.Command {
	var f translateFlags

	cmd := &cobra.Command{
		Use:   "translate <input.tex>",
		Short: "Translate a LaTeX file",
		Long: `Translate a LaTeX file and write the result next to it.

The output keeps the input's encoding when the translation fits in it and
is written as UTF-8 otherwise. An existing output file is backed up before
it is overwritten.`,
		Example: `  translatex translate paper.tex
  translatex translate paper.tex -d de -o paper.de.tex
  translatex translate paper.tex --backend echo --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTranslate(cmd, args[0], &f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default <input>_<dest-lang>.tex)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "Input encoding (default auto-detect)")
	cmd.Flags().IntVar(&f.maxRequestSize, "max-request-size", 0, "Per-request character budget")
	cmd.Flags().BoolVar(&f.skipFailed, "skip-failed", false, "Keep going when a chunk cannot be translated")
	cmd.Flags().BoolVar(&f.noPostprocess, "no-postprocess", false, "Disable language-specific typography fixes")
	cmd.Flags().BoolVar(&f.jsonReport, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Do not show progress")

	return cmd
}

func (a *app) runTranslate(cmd *cobra.Command, input string, f *translateFlags) error {
	cfg := a.cfg
	flags := cmd.Flags()
	if flags.Changed("encoding") {
		cfg.InputEncoding = f.encoding
	}
	if flags.Changed("max-request-size") {
		cfg.MaxRequestSize = f.maxRequestSize
	}
	if flags.Changed("skip-failed") {
		cfg.SkipFailedChunks = f.skipFailed
	}
	if f.noPostprocess {
		cfg.Postprocess = false
	}

	hint, err := texfile.ParseEncoding(cfg.InputEncoding)
	if err != nil {
		return err
	}
	source, enc, err := texfile.Read(input, hint)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, closeBackend, err := a.newBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend()

	opts := translator.OptionsFromConfig(cfg, b)
	if !f.quiet {
		stderr := cmd.ErrOrStderr()
		opts.Progress = func(current, total int, message string) {
			fmt.Fprintf(stderr, "[%d/%d] %s\n", current, total, message)
		}
	}

	res, err := translator.NewEngine(opts).TranslateDocument(ctx, source)
	if err != nil {
		return err
	}

	output := f.output
	if output == "" {
		output = defaultOutput(input, cfg.DestLang)
	}
	enc = texfile.OutputEncoding(res.TranslatedContent, enc)
	backup, err := texfile.Write(output, res.TranslatedContent, enc)
	if err != nil {
		return err
	}
	logger.Info("translation written",
		logger.String("input", input),
		logger.String("output", output),
		logger.String("encoding", string(enc)),
		logger.Int("requests", res.Report.Requests),
		logger.Int("bisections", res.Report.Bisections))

	out := cmd.OutOrStdout()
	if f.jsonReport {
		je := json.NewEncoder(out)
		je.SetIndent("", "  ")
		return je.Encode(res.Report)
	}
	fmt.Fprintf(out, "Translated %s -> %s\n", input, output)
	if backup != "" {
		fmt.Fprintf(out, "Previous output saved to %s\n", backup)
	}
	printReport(out, res.Report)
	return nil
}

// defaultOutput turns dir/paper.tex into dir/paper_ru.tex.
func defaultOutput(input, dst string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if ext == "" {
		ext = ".tex"
	}
	return base + "_" + strings.ToLower(dst) + ext
}

func printReport(w io.Writer, r types.Report) {
	fmt.Fprintf(w, "Chunks: %d  Requests: %d  Bisections: %d  Characters sent: %d\n",
		r.Chunks, r.Requests, r.Bisections, r.CharsSent)
	fmt.Fprintf(w, "Leaves translated: %d  untranslated: %d\n", r.TranslatedLeaves, r.UntranslatedLeaves)
	if r.FailedChunks > 0 {
		fmt.Fprintf(w, "Failed chunks: %d\n", r.FailedChunks)
	}
	printIssues(w, r.Warnings)
}

func printIssues(w io.Writer, issues []types.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "Warnings (%d):\n", len(issues))
	for _, is := range issues {
		if is.Location != "" {
			fmt.Fprintf(w, "  [%s] %s (%s)\n", is.Code, is.Message, is.Location)
		} else {
			fmt.Fprintf(w, "  [%s] %s\n", is.Code, is.Message)
		}
	}
}
