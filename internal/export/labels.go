package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/model"
)

// RunTag is the data encoded into the QR code of a report summary page.
// It identifies the run a printed report belongs to.
type RunTag struct {
	RunID      string  `json:"run"`
	Design     string  `json:"design"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Iterations int     `json:"iterations"`
	TotalArea  float64 `json:"total_area"`
	Violations int     `json:"violations"`
}

// NewRunTag summarises res for the report QR code.
func NewRunTag(res model.Result) RunTag {
	return RunTag{
		RunID:      res.RunID,
		Design:     res.Design,
		Width:      res.Width,
		Height:     res.Height,
		Iterations: res.Settings.IterationMax,
		TotalArea:  res.Stats.TotalArea(),
		Violations: len(res.Violations),
	}
}

// BodyLabel holds the data encoded into each body label's QR code.
type BodyLabel struct {
	RunID     string  `json:"run"`
	Layer     int     `json:"layer"`
	Index     int     `json:"index"`
	Signal    string  `json:"signal"`
	Area      float64 `json:"area"`
	Pressure  float64 `json:"pressure"`
	Current   float64 `json:"current"`
	HardVias  int     `json:"hard_vias"`
	CentroidX float64 `json:"cx"`
	CentroidY float64 `json:"cy"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
const (
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
)

// ExportBodyLabels generates a PDF of QR-coded labels, one per soft body,
// laid out on a 3 x 10 US Letter label sheet.
func ExportBodyLabels(path string, res model.Result) error {
	labels := CollectBodyLabels(res)
	if len(labels) == 0 {
		return errors.New(errors.CodeExportFailed, "no bodies to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderBodyLabel(pdf, x, y, label); err != nil {
			return errors.Wrap(errors.CodeExportFailed, err, "failed to render label for body %d/%d", label.Layer, label.Index)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot write %s", path)
	}
	return nil
}

// CollectBodyLabels extracts one label per body in layer order.
func CollectBodyLabels(res model.Result) []BodyLabel {
	var labels []BodyLabel
	for _, layer := range res.Layers {
		for i := range layer.Bodies {
			b := &layer.Bodies[i]
			c := b.Shape().Centroid()
			labels = append(labels, BodyLabel{
				RunID:     res.RunID,
				Layer:     b.Layer,
				Index:     b.Index,
				Signal:    b.Signal.String(),
				Area:      b.Area(),
				Pressure:  b.Pressure,
				Current:   b.ExpectedCurrent,
				HardVias:  len(b.HardVias),
				CentroidX: c.X,
				CentroidY: c.Y,
			})
		}
	}
	return labels
}

// registerQR encodes v as JSON into a QR PNG registered under name.
func registerQR(pdf *fpdf.Fpdf, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal QR payload: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	return nil
}

// renderRunTag places the run tag QR code with its caption at (x, y).
func renderRunTag(pdf *fpdf.Fpdf, x, y float64, tag RunTag) error {
	name := "runtag_" + tag.RunID
	if err := registerQR(pdf, name, tag); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot render run tag")
	}
	pdf.ImageOptions(name, x, y, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(x, y+qrSize+1)
	pdf.CellFormat(qrSize, 3, "run tag", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// renderBodyLabel draws a single label at the given position.
func renderBodyLabel(pdf *fpdf.Fpdf, x, y float64, info BodyLabel) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	name := fmt.Sprintf("qr_%s_%d_%d", info.RunID, info.Layer, info.Index)
	if err := registerQR(pdf, name, info); err != nil {
		return err
	}
	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(name, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	col := netColor(model.SignalData)
	if sig, err := model.ParseSignal(info.Signal); err == nil {
		col = netColor(sig)
	}
	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.Rect(textX, y+labelPadding+0.5, 3, 3, "F")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX+4, y+labelPadding)
	pdf.CellFormat(textW-4, 4.5, fmt.Sprintf("%s  M%d #%d", info.Signal, info.Layer, info.Index), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("Area %.2f  P %.3f", info.Area, info.Pressure), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("@ (%.1f, %.1f)  vias %d", info.CentroidX, info.CentroidY, info.HardVias), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}
