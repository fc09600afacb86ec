package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/export"
	"github.com/piwi3910/softpdn/internal/model"
	"github.com/piwi3910/softpdn/internal/project"
)

// exporter writes a result to a file named <design><suffix>.
type exporter struct {
	suffix string
	write  func(path string, res model.Result) error
}

var exporters = map[string]exporter{
	"json":   {suffix: ".json", write: project.SaveSnapshot},
	"pdf":    {suffix: ".pdf", write: export.ExportPDF},
	"labels": {suffix: "-labels.pdf", write: export.ExportBodyLabels},
	"dxf":    {suffix: ".dxf", write: export.ExportDXF},
	"xlsx":   {suffix: ".xlsx", write: export.ExportXLSX},
}

// writeOutputs exports res into dir in every requested format and returns
// the written paths in request order.
func writeOutputs(res model.Result, dir string, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.CodeExportFailed, err, "cannot create output directory %s", dir)
	}

	base := baseName(res.Design)
	var written []string
	for _, format := range formats {
		exp, ok := exporters[format]
		if !ok {
			return written, errors.New(errors.CodeInvalidConfig, "unknown output format %q", format)
		}
		path := filepath.Join(dir, base+exp.suffix)
		if err := exp.write(path, res); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// baseName turns a design name into a file name stem.
func baseName(design string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(design))
	if name == "" {
		return "result"
	}
	return name
}
