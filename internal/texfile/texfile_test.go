package texfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"translatex/internal/types"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Encoding
	}{
		{"ascii", []byte(`\section{Intro}`), UTF8},
		{"utf-8", []byte("Привет"), UTF8},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "x"...), UTF8BOM},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'x', 0}, UTF16LE},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0, 'x'}, UTF16BE},
		{"invalid utf-8", []byte{'c', 'a', 'f', 0xE9}, Latin1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.data); got != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		enc  Encoding
		text string
	}{
		{UTF8, "Привет, $x$ world"},
		{UTF8BOM, "Привет, world"},
		{UTF16LE, "Привет, 世界"},
		{UTF16BE, "Привет, 世界"},
		{GBK, "你好，世界"},
		{Latin1, "Café déjà vu"},
		{CP1251, "Привет, мир"},
		{KOI8R, "Привет, мир"},
	}
	for _, tt := range tests {
		t.Run(string(tt.enc), func(t *testing.T) {
			data, err := Encode(tt.text, tt.enc)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, enc, err := Decode(data, tt.enc)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.text || enc != tt.enc {
				t.Errorf("Decode(Encode()) = %q (%s), want %q (%s)", got, enc, tt.text, tt.enc)
			}
		})
	}
}

func TestDecode_Autodetect(t *testing.T) {
	data, err := Encode("Ärger", UTF16LE)
	if err != nil {
		t.Fatal(err)
	}
	got, enc, err := Decode(data, "")
	if err != nil || got != "Ärger" || enc != UTF16LE {
		t.Errorf("Decode() = %q, %s, %v", got, enc, err)
	}

	got, enc, err = Decode([]byte{'c', 'a', 'f', 0xE9}, "")
	if err != nil || got != "café" || enc != Latin1 {
		t.Errorf("Decode() latin1 = %q, %s, %v", got, enc, err)
	}
}

func TestEncode_Unrepresentable(t *testing.T) {
	_, err := Encode("Привет", Latin1)
	if !types.IsCode(err, types.ErrInvalidInput) {
		t.Errorf("Encode() error = %v, want code %s", err, types.ErrInvalidInput)
	}
}

func TestOutputEncoding(t *testing.T) {
	tests := []struct {
		name string
		text string
		enc  Encoding
		want Encoding
	}{
		{"latin text stays latin1", "Café au lait", Latin1, Latin1},
		{"cyrillic in latin1 falls back", "Кафе с молоком", Latin1, UTF8},
		{"cyrillic in cp1251 stays", "Кафе", CP1251, CP1251},
		{"chinese in koi8-r falls back", "咖啡", KOI8R, UTF8},
		{"utf-16 always fits", "咖啡", UTF16LE, UTF16LE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputEncoding(tt.text, tt.enc); got != tt.want {
				t.Errorf("OutputEncoding() = %s, want %s", got, tt.want)
			}
		})
	}
}

// A Latin1 source translated into Russian is written as UTF-8.
func TestLatin1SourceTranslatedToCyrillic(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "paper.tex")
	output := filepath.Join(dir, "paper_ru.tex")
	if err := os.WriteFile(input, []byte("Caf\xe9 au lait.\n"), 0644); err != nil {
		t.Fatal(err)
	}

	source, enc, err := Read(input, "")
	if err != nil || enc != Latin1 || source != "Café au lait.\n" {
		t.Fatalf("Read() = %q, %s, %v", source, enc, err)
	}

	translated := "Кофе с молоком.\n"
	out := OutputEncoding(translated, enc)
	if _, err := Write(output, translated, out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(got) != translated {
		t.Errorf("output = %q, want %q", got, translated)
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"", "", false},
		{"auto", "", false},
		{"utf8", UTF8, false},
		{"cp1251", CP1251, false},
		{"windows_1251", CP1251, false},
		{"latin1", Latin1, false},
		{"koi8-r", KOI8R, false},
		{"gb2312", GBK, false},
		{"ebcdic", "", true},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseEncoding(%q) = %q, %v", tt.in, got, err)
		}
		if tt.wantErr && !types.IsCode(err, types.ErrConfig) {
			t.Errorf("ParseEncoding(%q) error code = %s, want %s", tt.in, types.CodeOf(err), types.ErrConfig)
		}
	}
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.tex")

	backup, err := Write(path, "Привет", CP1251)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if backup != "" {
		t.Errorf("Write() to a new file made backup %q", backup)
	}

	text, enc, err := Read(path, CP1251)
	if err != nil || text != "Привет" || enc != CP1251 {
		t.Fatalf("Read() = %q, %s, %v", text, enc, err)
	}

	backup, err = Write(path, "Hello", UTF8)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.HasPrefix(backup, path+".backup_") {
		t.Fatalf("backup = %q, want a timestamped copy", backup)
	}
	old, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if got, _, _ := Decode(old, CP1251); got != "Привет" {
		t.Errorf("backup holds %q, want the previous content", got)
	}

	text, enc, err = Read(path, "")
	if err != nil || text != "Hello" || enc != UTF8 {
		t.Errorf("Read() = %q, %s, %v", text, enc, err)
	}
}

func TestRead_Missing(t *testing.T) {
	_, _, err := Read(filepath.Join(t.TempDir(), "missing.tex"), "")
	if !types.IsCode(err, types.ErrFile) {
		t.Errorf("Read() error = %v, want code %s", err, types.ErrFile)
	}
}
