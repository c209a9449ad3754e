package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translatex/internal/types"
)

const paper = `\documentclass{article}
\usepackage{amsmath}
\begin{document}
\section{Introduction}
Some text - with a dash and $x^2$ math.
\end{document}
`

// run executes the root command with an empty config file in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{"TRANSLATEX_BACKEND", "TRANSLATEX_REDIS_ADDR", "TRANSLATEX_LOG_LEVEL"} {
		t.Setenv(env, "")
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml"), "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestTranslateCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "paper.tex")
	output := filepath.Join(dir, "out.tex")
	writeFile(t, input, []byte(paper))

	stdout, err := run(t, dir, "translate", input, "-o", output, "--backend", "echo", "--no-postprocess", "-q")
	require.NoError(t, err)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	want := strings.Replace(paper, `\usepackage{amsmath}`,
		"\\usepackage[russian]{babel} % added language package\n\\usepackage{amsmath}", 1)
	assert.Equal(t, want, string(got))
	assert.Contains(t, stdout, "Translated "+input+" -> "+output)
	assert.Contains(t, stdout, "Requests: 1")
}

func TestTranslateCommand_DefaultOutputAndPostprocess(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "paper.tex")
	writeFile(t, input, []byte(paper))

	_, err := run(t, dir, "translate", input, "--backend", "echo", "-q")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "paper_ru.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "Some text~--- with a dash")
	assert.Contains(t, string(got), "$x^2$")
}

func TestTranslateCommand_JSONReport(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "paper.tex")
	writeFile(t, input, []byte(paper))

	stdout, err := run(t, dir, "translate", input, "--backend", "echo", "--json", "-q",
		"-o", filepath.Join(dir, "out.tex"))
	require.NoError(t, err)

	var report types.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.Requests)
	assert.Equal(t, 3, report.TranslatedLeaves)
	assert.Zero(t, report.UntranslatedLeaves)
}

func TestTranslateCommand_ConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), []byte("backend: echo\ndest_lang: de\npostprocess: false\n"))
	input := filepath.Join(dir, "paper.tex")
	writeFile(t, input, []byte(paper))

	_, err := run(t, dir, "translate", input, "-q")
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "paper_de.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(got), `\usepackage[ngerman]{babel}`)

	_, err = run(t, dir, "translate", input, "-q", "-d", "fr")
	require.NoError(t, err)
	got, err = os.ReadFile(filepath.Join(dir, "paper_fr.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(got), `\usepackage[french]{babel}`)
}

func TestTranslateCommand_KeepsEncoding(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "latin.tex")
	output := filepath.Join(dir, "out.tex")
	src := []byte("Caf\xe9 au lait.\n")
	writeFile(t, input, src)

	_, err := run(t, dir, "translate", input, "-o", output, "--backend", "echo", "--no-postprocess", "-q")
	require.NoError(t, err)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestTranslateCommand_BacksUpExistingOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "paper.tex")
	output := filepath.Join(dir, "out.tex")
	writeFile(t, input, []byte(paper))
	writeFile(t, output, []byte("old"))

	stdout, err := run(t, dir, "translate", input, "-o", output, "--backend", "echo", "-q")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Previous output saved to "+output+".backup_")
}

func TestTranslateCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "paper.tex")
	writeFile(t, input, []byte(paper))

	tests := []struct {
		name string
		args []string
		want types.ErrorCode
	}{
		{"missing file", []string{"translate", filepath.Join(dir, "nope.tex"), "--backend", "echo"}, types.ErrFile},
		{"unknown backend", []string{"translate", input, "--backend", "babelfish"}, types.ErrConfig},
		{"same languages", []string{"translate", input, "--backend", "echo", "-d", "en"}, types.ErrInvalidInput},
		{"bad encoding", []string{"translate", input, "--backend", "echo", "--encoding", "ebcdic"}, types.ErrConfig},
		{"budget too small", []string{"translate", input, "--backend", "echo", "--max-request-size", "5"}, types.ErrConfig},
		{"missing rules file", []string{"translate", input, "--backend", "echo", "--rules", filepath.Join(dir, "rules.yaml")}, types.ErrFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, dir, tt.args...)
			require.Error(t, err)
			assert.True(t, types.IsCode(err, tt.want), "error = %v, want code %s", err, tt.want)
		})
	}
}

func TestTranslateCommand_RequiresInput(t *testing.T) {
	_, err := run(t, t.TempDir(), "translate")
	assert.Error(t, err)
}

func TestChunksCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "paper.tex")
	writeFile(t, input, []byte(paper))

	stdout, err := run(t, dir, "chunks", input, "--leaves")
	require.NoError(t, err)

	assert.Contains(t, stdout, "--- chunk 1: 3 leaves")
	assert.Contains(t, stdout, "{CH4NK_SEP")
	assert.Contains(t, stdout, "--- leaves ---")
	assert.Contains(t, stdout, `"Introduction"`)
	assert.Contains(t, stdout, "Leaves translated: 3")
}

func TestVersionCommand(t *testing.T) {
	stdout, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "translatex dev (commit none, built unknown)\n", stdout)
}

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		input, dst, want string
	}{
		{"paper.tex", "ru", "paper_ru.tex"},
		{"dir/main.tex", "de", "dir/main_de.tex"},
		{"notes", "FR", "notes_fr.tex"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultOutput(tt.input, tt.dst))
	}
}
