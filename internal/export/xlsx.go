package export

import (
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/model"
)

// Workbook sheet names.
const (
	SheetSummary    = "Summary"
	SheetLayers     = "Layers"
	SheetBodies     = "Bodies"
	SheetVias       = "Vias"
	SheetViolations = "Violations"
)

// ExportXLSX writes a workbook with a summary sheet and one sheet each for
// layer statistics, bodies, via counts and clearance violations.
func ExportXLSX(path string, res model.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot create workbook")
	}
	for _, name := range []string{SheetLayers, SheetBodies, SheetVias, SheetViolations} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrap(errors.CodeExportFailed, err, "cannot create sheet %s", name)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot create header style")
	}

	w := sheetWriter{f: f, header: header}
	w.rows(SheetSummary, []any{"Field", "Value"}, [][]any{
		{"Run", res.RunID},
		{"Design", res.Design},
		{"Width", res.Width},
		{"Height", res.Height},
		{"Metal layers", len(res.Layers)},
		{"Iterations", res.Settings.IterationMax},
		{"Policy", string(res.Settings.Policy)},
		{"Total area", res.Stats.TotalArea()},
		{"Clearance", res.Settings.Clearance},
		{"Violations", len(res.Violations)},
	})

	var rows [][]any
	for _, l := range res.Stats.Layers {
		rows = append(rows, []any{l.Layer, l.Bodies, l.TotalArea, l.MinPressure, l.MaxPressure, l.MeanPressure, fragmentsText(l.Fragments)})
	}
	w.rows(SheetLayers, []any{"Layer", "Bodies", "Area", "Min pressure", "Max pressure", "Mean pressure", "Fragments"}, rows)

	rows = rows[:0]
	for _, layer := range res.Layers {
		for i := range layer.Bodies {
			b := &layer.Bodies[i]
			rows = append(rows, []any{b.Layer, b.Index, b.ID, b.Signal.String(), b.ExpectedCurrent, b.InitialArea, b.Area(), b.Pressure, len(b.Contour), len(b.HardVias)})
		}
	}
	w.rows(SheetBodies, []any{"Layer", "Index", "ID", "Net", "Current", "Initial area", "Area", "Pressure", "Points", "Hard vias"}, rows)

	viaHeader := []any{"Via layer", "Vias"}
	for _, st := range model.ViaStatuses() {
		viaHeader = append(viaHeader, st.String())
	}
	viaHeader = append(viaHeader, "Avg via distance")
	rows = rows[:0]
	for _, vl := range res.Stats.ViaLayers {
		row := []any{vl.Layer, vl.Vias}
		for _, st := range model.ViaStatuses() {
			row = append(row, vl.Status[st])
		}
		rows = append(rows, append(row, vl.AvgViaDistance))
	}
	w.rows(SheetVias, viaHeader, rows)

	rows = rows[:0]
	for _, v := range res.Violations {
		rows = append(rows, []any{v.Layer, v.A.Index, v.SignalA.String(), v.B.Index, v.SignalB.String(), v.Distance})
	}
	w.rows(SheetViolations, []any{"Layer", "Body A", "Net A", "Body B", "Net B", "Distance"}, rows)

	if w.err != nil {
		return errors.Wrap(errors.CodeExportFailed, w.err, "cannot fill workbook")
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot write %s", path)
	}
	return nil
}

// sheetWriter writes header and data rows, keeping the first error.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) rows(sheet string, header []any, rows [][]any) {
	if w.err != nil {
		return
	}
	if w.err = w.f.SetSheetRow(sheet, "A1", &header); w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		w.err = err
		return
	}
	if w.err = w.f.SetCellStyle(sheet, "A1", last, w.header); w.err != nil {
		return
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			w.err = err
			return
		}
		if w.err = w.f.SetSheetRow(sheet, cell, &row); w.err != nil {
			return
		}
	}
	lastCol, _, _ := excelize.SplitCellName(last)
	w.err = w.f.SetColWidth(sheet, "A", lastCol, 14)
}
