// Package export writes finished simulation results to report and
// interchange formats.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
)

// rgb is an RGB color used for nets and via states.
type rgb struct {
	R, G, B int
}

// netColors assigns a color per power net, in net order.
var netColors = []rgb{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
	{R: 96, G: 125, B: 139}, // slate
	{R: 233, G: 30, B: 99},  // pink
}

var viaColors = map[model.ViaStatus]rgb{
	model.ViaUnknown:      {R: 160, G: 160, B: 160},
	model.ViaEmpty:        {R: 255, G: 255, B: 255},
	model.ViaTopOccupied:  {R: 120, G: 120, B: 220},
	model.ViaDownOccupied: {R: 220, G: 120, B: 120},
	model.ViaBroken:       {R: 0, G: 0, B: 0},
	model.ViaUnstable:     {R: 255, G: 0, B: 0},
	model.ViaStable:       {R: 0, G: 160, B: 0},
}

// netColor returns the plot color of a power net.
func netColor(sig model.Signal) rgb {
	for i, p := range model.PowerSignals() {
		if p == sig {
			return netColors[i%len(netColors)]
		}
	}
	return rgb{R: 128, G: 128, B: 128}
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	viaRadius    = 0.6
)

// ExportPDF writes a report with one plot page per metal layer followed by
// a summary page carrying the run tag.
func ExportPDF(path string, res model.Result) error {
	if len(res.Layers) == 0 {
		return errors.New(errors.CodeExportFailed, "no layers to export")
	}
	if res.Width <= 0 || res.Height <= 0 {
		return errors.New(errors.CodeExportFailed, "result has an empty canvas")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i := range res.Layers {
		pdf.AddPage()
		renderLayerPage(pdf, res, i)
	}

	pdf.AddPage()
	if err := renderSummaryPage(pdf, res); err != nil {
		return err
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot write %s", path)
	}
	return nil
}

// plotFrame maps canvas coordinates onto the page. The canvas y axis points
// up, the page y axis down.
type plotFrame struct {
	scale, offsetX, offsetY, canvasH float64
}

func newPlotFrame(width, height int) plotFrame {
	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight
	scale := math.Min(drawWidth/float64(width), drawHeight/float64(height))
	canvasW := float64(width) * scale
	return plotFrame{
		scale:   scale,
		offsetX: marginLeft + (drawWidth-canvasW)/2,
		offsetY: drawAreaTop,
		canvasH: float64(height) * scale,
	}
}

func (f plotFrame) point(p geometry.Point) fpdf.PointType {
	return fpdf.PointType{X: f.offsetX + p.X*f.scale, Y: f.offsetY + f.canvasH - p.Y*f.scale}
}

func (f plotFrame) polygon(pts []geometry.Point) []fpdf.PointType {
	out := make([]fpdf.PointType, len(pts))
	for i, p := range pts {
		out[i] = f.point(p)
	}
	return out
}

// renderLayerPage plots the bodies of one metal layer and the vias that
// touch it.
func renderLayerPage(pdf *fpdf.Fpdf, res model.Result, li int) {
	layer := res.Layers[li]
	stats := layerStats(res, li)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Metal layer %d: %s (%d x %d)", layer.Index, res.Design, res.Width, res.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	line := fmt.Sprintf("Bodies: %d | Area: %.2f | Pressure: %.3f .. %.3f (mean %.3f)",
		stats.Bodies, stats.TotalArea, stats.MinPressure, stats.MaxPressure, stats.MeanPressure)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, line, "", 0, "L", false, 0, "")

	frame := newPlotFrame(res.Width, res.Height)
	canvasW := float64(res.Width) * frame.scale

	pdf.SetFillColor(245, 245, 245)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(frame.offsetX, frame.offsetY, canvasW, frame.canvasH, "FD")

	pdf.SetLineWidth(0.2)
	for _, b := range layer.Bodies {
		if len(b.Contour) < 3 {
			continue
		}
		col := netColor(b.Signal)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.Polygon(frame.polygon(b.Contour), "FD")

		pdf.SetFillColor(245, 245, 245)
		for _, h := range b.Holes {
			pdf.Polygon(frame.polygon(h.Open()), "FD")
		}
	}

	// Vias above and below this layer.
	for _, vl := range res.ViaLayers {
		if vl.Index != li && vl.Index+1 != li {
			continue
		}
		for i := range vl.Vias {
			v := &vl.Vias[i]
			if v.Status == model.ViaEmpty || (v.Status == model.ViaUnknown && !v.IsPreplaced) {
				continue
			}
			col := viaColors[v.Status]
			p := frame.point(v.Location())
			pdf.SetFillColor(col.R, col.G, col.B)
			pdf.SetDrawColor(0, 0, 0)
			pdf.SetLineWidth(0.1)
			pdf.Circle(p.X, p.Y, viaRadius, "FD")
		}
	}

	drawViolations(pdf, res, li, frame)
	drawNetLegend(pdf, layer, frame.offsetY+frame.canvasH+5)
}

// drawViolations marks the midpoint between the two bodies of each
// clearance violation on the layer.
func drawViolations(pdf *fpdf.Fpdf, res model.Result, li int, frame plotFrame) {
	pdf.SetDrawColor(220, 0, 0)
	pdf.SetLineWidth(0.4)
	for _, v := range res.Violations {
		if v.Layer != li {
			continue
		}
		a, b := res.Body(v.A), res.Body(v.B)
		if a == nil || b == nil {
			continue
		}
		mid := a.BBox().Center().Lerp(b.BBox().Center(), 0.5)
		p := frame.point(mid)
		pdf.Line(p.X-1.5, p.Y-1.5, p.X+1.5, p.Y+1.5)
		pdf.Line(p.X-1.5, p.Y+1.5, p.X+1.5, p.Y-1.5)
	}
}

// drawNetLegend renders a swatch per net present on the layer.
func drawNetLegend(pdf *fpdf.Fpdf, layer model.MetalLayer, startY float64) {
	areas := make(map[model.Signal]float64)
	var order []model.Signal
	for i := range layer.Bodies {
		b := &layer.Bodies[i]
		if _, ok := areas[b.Signal]; !ok {
			order = append(order, b.Signal)
		}
		areas[b.Signal] += b.Area()
	}
	if len(order) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(20, 4, "Nets:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 22
	maxX := pageWidth - marginRight
	for _, sig := range order {
		col := netColor(sig)
		label := fmt.Sprintf("%s (%.1f)", sig, areas[sig])
		labelW := pdf.GetStringWidth(label) + 6
		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")
		xPos += labelW + 2
	}
}

// renderSummaryPage draws the per-layer tables, the settings and the run
// tag QR code.
func renderSummaryPage(pdf *fpdf.Fpdf, res model.Result) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Simulation Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	items := []struct {
		label string
		value string
	}{
		{"Design", res.Design},
		{"Run", res.RunID},
		{"Iterations", fmt.Sprintf("%d", res.Settings.IterationMax)},
		{"Total Area", fmt.Sprintf("%.2f", res.Stats.TotalArea())},
		{"Clearance Violations", fmt.Sprintf("%d", len(res.Violations))},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(100, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	tag := NewRunTag(res)
	if err := renderRunTag(pdf, pageWidth-marginRight-qrSize, marginTop+16, tag); err != nil {
		return err
	}

	y += 4
	headers := []string{"Layer", "Bodies", "Area", "Min P", "Max P", "Mean P", "Fragments"}
	widths := []float64{20, 20, 35, 30, 30, 30, 100}
	rows := make([][]string, 0, len(res.Stats.Layers))
	for _, l := range res.Stats.Layers {
		rows = append(rows, []string{
			fmt.Sprintf("%d", l.Layer),
			fmt.Sprintf("%d", l.Bodies),
			fmt.Sprintf("%.2f", l.TotalArea),
			fmt.Sprintf("%.3f", l.MinPressure),
			fmt.Sprintf("%.3f", l.MaxPressure),
			fmt.Sprintf("%.3f", l.MeanPressure),
			fragmentsText(l.Fragments),
		})
	}
	y = drawTable(pdf, "Metal Layers", headers, widths, rows, y)

	y += 6
	headers = []string{"Via Layer", "Vias"}
	widths = []float64{22, 18}
	for _, st := range model.ViaStatuses() {
		headers = append(headers, st.String())
		widths = append(widths, 28)
	}
	headers = append(headers, "Avg Dist")
	widths = append(widths, 22)
	rows = rows[:0]
	for _, vl := range res.Stats.ViaLayers {
		row := []string{fmt.Sprintf("%d", vl.Layer), fmt.Sprintf("%d", vl.Vias)}
		for _, st := range model.ViaStatuses() {
			row = append(row, fmt.Sprintf("%d", vl.Status[st]))
		}
		row = append(row, fmt.Sprintf("%.2f", vl.AvgViaDistance))
		rows = append(rows, row)
	}
	drawTable(pdf, "Via Layers", headers, widths, rows, y)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by softpdn - PDN pressure simulator", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// drawTable renders a titled table with alternating row shading and
// returns the y position below it.
func drawTable(pdf *fpdf.Fpdf, title string, headers []string, widths []float64, rows [][]string, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, h := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", true, 0, "")
		xPos += widths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 8)
	for i, row := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(widths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += widths[j]
		}
		y += 6
	}
	return y
}

// layerStats returns the statistics entry of metal layer li, or zero
// values when the result carries none.
func layerStats(res model.Result, li int) model.LayerStats {
	for _, s := range res.Stats.Layers {
		if s.Layer == li {
			return s
		}
	}
	return model.LayerStats{Layer: li}
}

// fragmentsText formats per-net fragment counts in net order.
func fragmentsText(frags map[model.Signal]int) string {
	text := ""
	for _, sig := range model.PowerSignals() {
		n, ok := frags[sig]
		if !ok {
			continue
		}
		if text != "" {
			text += " "
		}
		text += fmt.Sprintf("%s:%d", sig, n)
	}
	if text == "" {
		return "-"
	}
	return text
}
