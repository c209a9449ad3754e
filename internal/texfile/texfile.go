// Package texfile reads and writes LaTeX sources in the encodings found in
// the wild: UTF-8 with or without BOM, UTF-16 and legacy code pages.
package texfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"translatex/internal/logger"
	"translatex/internal/types"
)

// Encoding names a text encoding.
type Encoding string

const (
	UTF8    Encoding = "UTF-8"
	UTF8BOM Encoding = "UTF-8-BOM"
	UTF16LE Encoding = "UTF-16LE"
	UTF16BE Encoding = "UTF-16BE"
	GBK     Encoding = "GBK"
	Latin1  Encoding = "ISO-8859-1"
	CP1251  Encoding = "WINDOWS-1251"
	KOI8R   Encoding = "KOI8-R"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseEncoding accepts the usual spellings of the supported encodings.
// The empty string means automatic detection and returns "".
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(name, "_", "-")) {
	case "", "AUTO":
		return "", nil
	case "UTF-8", "UTF8":
		return UTF8, nil
	case "UTF-8-BOM", "UTF8-BOM":
		return UTF8BOM, nil
	case "UTF-16LE", "UTF16LE":
		return UTF16LE, nil
	case "UTF-16BE", "UTF16BE":
		return UTF16BE, nil
	case "GBK", "GB2312", "CP936":
		return GBK, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return Latin1, nil
	case "WINDOWS-1251", "CP1251":
		return CP1251, nil
	case "KOI8-R", "KOI8R":
		return KOI8R, nil
	default:
		return "", types.NewAppErrorWithDetails(types.ErrConfig, "unsupported input encoding", name, nil)
	}
}

// Detect guesses the encoding of data from its byte order mark or UTF-8
// validity. Anything else is reported as Latin1, which decodes every byte.
func Detect(data []byte) Encoding {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return UTF8BOM
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return UTF16LE
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return UTF16BE
	case utf8.Valid(data):
		return UTF8
	default:
		return Latin1
	}
}

func codec(enc Encoding) encoding.Encoding {
	switch enc {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case GBK:
		return simplifiedchinese.GBK
	case Latin1:
		return charmap.ISO8859_1
	case CP1251:
		return charmap.Windows1251
	case KOI8R:
		return charmap.KOI8R
	default:
		return nil
	}
}

// Decode converts data to a string. An empty hint means Detect.
func Decode(data []byte, hint Encoding) (string, Encoding, error) {
	enc := hint
	if enc == "" {
		enc = Detect(data)
		if enc == Latin1 {
			logger.Warn("input is not valid UTF-8, decoding as ISO-8859-1; set input_encoding to override")
		}
	}

	switch enc {
	case UTF8:
		return string(data), enc, nil
	case UTF8BOM:
		return string(bytes.TrimPrefix(data, utf8BOM)), enc, nil
	}

	c := codec(enc)
	if c == nil {
		return "", enc, types.NewAppErrorWithDetails(types.ErrInvalidInput, "unsupported encoding", string(enc), nil)
	}
	decoded, err := c.NewDecoder().Bytes(data)
	if err != nil {
		return "", enc, types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"failed to decode input", string(enc), err)
	}
	return string(decoded), enc, nil
}

// Encode converts text to enc.
func Encode(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case UTF8, "":
		return []byte(text), nil
	case UTF8BOM:
		return append(append([]byte{}, utf8BOM...), text...), nil
	}

	c := codec(enc)
	if c == nil {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, "unsupported encoding", string(enc), nil)
	}
	encoded, err := c.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"text cannot be represented in the target encoding", string(enc), err)
	}
	return encoded, nil
}

// OutputEncoding returns enc when text can be written in it. Otherwise it
// logs a warning and returns UTF8, so a translation into a script the input
// encoding lacks is still written.
func OutputEncoding(text string, enc Encoding) Encoding {
	if _, err := Encode(text, enc); err == nil {
		return enc
	}
	logger.Warn("translation cannot be written in the input encoding, writing UTF-8 instead",
		logger.String("inputEncoding", string(enc)))
	return UTF8
}

// Read loads path and decodes it. An empty hint means Detect.
func Read(path string, hint Encoding) (string, Encoding, error) {
	logger.Debug("reading tex file", logger.String("path", path))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", types.NewAppError(types.ErrFile, "failed to read file", err)
	}
	text, enc, err := Decode(data, hint)
	if err != nil {
		return "", enc, err
	}
	logger.Debug("decoded tex file", logger.String("path", path), logger.String("encoding", string(enc)),
		logger.Int("bytes", len(data)))
	return text, enc, nil
}

// Write encodes text and writes it to path. An existing file is first
// copied to a timestamped backup next to it, whose path is returned.
func Write(path, text string, enc Encoding) (backup string, err error) {
	data, err := Encode(text, enc)
	if err != nil {
		return "", err
	}

	if _, statErr := os.Stat(path); statErr == nil {
		backup = path + ".backup_" + time.Now().Format("20060102_150405")
		if err := copyFile(path, backup); err != nil {
			return "", types.NewAppError(types.ErrFile, "failed to create backup", err)
		}
		logger.Info("backup created", logger.String("backupPath", backup))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return backup, types.NewAppError(types.ErrFile, "failed to write file", err)
	}
	return backup, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
