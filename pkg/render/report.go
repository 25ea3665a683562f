package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/tsfold/pkg/fold"
	"github.com/Sumatoshi-tech/tsfold/pkg/series"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// ErrUnknownFormat is returned for unsupported format names.
var ErrUnknownFormat = errors.New("render: unknown format")

// Folder types used by OutputDir.
const (
	folderSingle = "single"
	folderMulti  = "multi"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatHTML}
}

// ParseFormat resolves a format name; the empty name is FormatText.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatText, nil
	}

	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}

	return "." + string(f)
}

// Report is the machine-readable form of a run.
type Report struct {
	fold.Result `yaml:",inline"`

	Stats Stats `json:"stats" yaml:"stats"`
}

// NewReport wraps res with its Stats.
func NewReport(res *fold.Result) Report {
	return Report{Result: *res, Stats: Summarize(res)}
}

// Options groups the per-format settings of Write.
type Options struct {
	Plot    PlotOptions
	Summary SummaryOptions
}

// Write renders res in format f.
func Write(w io.Writer, f Format, ser series.Series, res *fold.Result, o Options) error {
	if res == nil {
		return ErrNoFolds
	}

	switch f {
	case FormatText:
		return WriteSummary(w, res, o.Summary)
	case FormatJSON:
		return WriteJSON(w, NewReport(res))
	case FormatYAML:
		return WriteYAML(w, NewReport(res))
	case FormatHTML:
		return WritePage(w, ser, res, o.Plot)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(rep)
	if err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}

	return nil
}

// WriteYAML writes rep as YAML.
func WriteYAML(w io.Writer, rep Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(rep)
	if err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}

	return enc.Close()
}

var pathUnsafe = strings.NewReplacer("/", "-", "\\", "-", ":", "", " ", "_")

// OutputDir returns <base>/ts/<single|multi>/<dataset>/<from>-<to>.
func OutputDir(base string, multi bool, dataset, from, to string) string {
	kind := folderSingle
	if multi {
		kind = folderMulti
	}

	return filepath.Join(base, "ts", kind, pathUnsafe.Replace(dataset),
		pathUnsafe.Replace(from)+"-"+pathUnsafe.Replace(to))
}
