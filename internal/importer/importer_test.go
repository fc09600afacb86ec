package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yofu/dxf"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func samplePoints(coords ...float64) []geometry.Point {
	pts := make([]geometry.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		pts = append(pts, geometry.Pt(coords[i], coords[i+1]))
	}
	return pts
}

// ─── Currents ──────────────────────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	assert.Equal(t, ',', DetectCSVDelimiter([]byte("Signal,Current\nP1,3\nP2,1.5\n")))
	assert.Equal(t, ';', DetectCSVDelimiter([]byte("Signal;Current\nP1;3\nP2;1.5\n")))
	assert.Equal(t, '\t', DetectCSVDelimiter([]byte("Signal\tCurrent\nP1\t3\n")))
	assert.Equal(t, '|', DetectCSVDelimiter([]byte("Signal|Current\nP1|3\n")))
}

func TestDetectColumns(t *testing.T) {
	m, ok := DetectColumns([]string{"Comment", "Current (A)", "Net"})
	assert.True(t, ok)
	assert.Equal(t, ColumnMapping{Signal: 2, Current: 1}, m)

	m, ok = DetectColumns([]string{"P1", "3.0"})
	assert.False(t, ok)
	assert.Equal(t, ColumnMapping{Signal: 0, Current: 1}, m)
}

func TestImportCurrentsFromReader(t *testing.T) {
	data := "Signal,Current\nP1,3.0\nPWR_2,1.5\n\nGND,2\nP3,abc\nP4,-1\n# comment\n"
	res := ImportCurrentsFromReader(strings.NewReader(data), ',')

	assert.Equal(t, map[model.Signal]float64{
		model.SignalPower1: 3.0,
		model.SignalPower2: 1.5,
	}, res.Currents)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "not a power net")
	assert.Contains(t, res.Errors[1], "Invalid current")
	assert.Contains(t, res.Errors[2], "must not be negative")
	assert.False(t, res.OK())
}

func TestImportCurrentsFromReader_Positional(t *testing.T) {
	res := ImportCurrentsFromReader(strings.NewReader("P1,2\nP1,4\n"), ',')
	assert.True(t, res.OK())
	assert.Equal(t, 4.0, res.Currents[model.SignalPower1])
	assert.Len(t, res.Warnings, 1, "duplicate row warns")
}

func TestImportCurrentsFromReader_MissingColumn(t *testing.T) {
	res := ImportCurrentsFromReader(strings.NewReader("Signal,Comment\nP1,x\n"), ',')
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Current")
}

func TestImportCurrentsCSV_Semicolon(t *testing.T) {
	path := writeFile(t, t.TempDir(), "currents.csv", "net;amps\nP1;2.5\nP2;0.5\n")
	res := ImportCurrents(path)
	require.True(t, res.OK(), res.Errors)
	assert.Equal(t, 2.5, res.Currents[model.SignalPower1])
	assert.Equal(t, 0.5, res.Currents[model.SignalPower2])
	assert.Contains(t, res.Warnings[0], "semicolon")
}

func TestImportCurrentsCSV_Errors(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, ImportCurrentsCSV(filepath.Join(dir, "missing.csv")).OK())
	assert.False(t, ImportCurrentsCSV(writeFile(t, dir, "empty.csv", "  \n")).OK())
}

func TestImportCurrentsExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "currents.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Signal", "Current"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"P1", 3.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"POWER_10", 0.25}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	res := ImportCurrents(path)
	require.True(t, res.OK(), res.Errors)
	assert.Equal(t, 3.5, res.Currents[model.SignalPower1])
	assert.Equal(t, 0.25, res.Currents[model.SignalPower10])
}

// ─── Preplace ──────────────────────────────────────────────

const samplePreplace = `# generated
header lines before the block are ignored
BEGIN_PREPLACE
SIGNAL: P1
Cord(1, 1)
Cord(0, 3) to Cord(2, 3)   # row
SIGNAL: OBSTACLE
Cord(1, 1)
Cord(4, 4) to Cord(4, 2)
END_PREPLACE
`

func TestReadPreplace(t *testing.T) {
	pp, err := ReadPreplace(strings.NewReader(samplePreplace), 5, 5)
	require.NoError(t, err)

	assert.Len(t, pp, 7)
	assert.Equal(t, model.SignalPower1, pp[model.Cell{X: 1, Y: 1}], "first claim wins")
	for x := 0; x <= 2; x++ {
		assert.Equal(t, model.SignalPower1, pp[model.Cell{X: x, Y: 3}])
	}
	for y := 2; y <= 4; y++ {
		assert.Equal(t, model.SignalObstacle, pp[model.Cell{X: 4, Y: y}])
	}
}

func TestReadPreplace_Errors(t *testing.T) {
	cases := map[string]string{
		"diagonal":     "BEGIN_PREPLACE\nSIGNAL: P1\nCord(0, 0) to Cord(2, 2)\nEND_PREPLACE\n",
		"out of range": "BEGIN_PREPLACE\nSIGNAL: P1\nCord(5, 0)\nEND_PREPLACE\n",
		"negative":     "BEGIN_PREPLACE\nSIGNAL: P1\nCord(0, -1)\nEND_PREPLACE\n",
		"non integer":  "BEGIN_PREPLACE\nSIGNAL: P1\nCord(1.5, 0)\nEND_PREPLACE\n",
		"bad signal":   "BEGIN_PREPLACE\nSIGNAL: VDDQ\nCord(1, 0)\nEND_PREPLACE\n",
		"no signal":    "BEGIN_PREPLACE\nCord(1, 0)\nEND_PREPLACE\n",
		"garbage":      "BEGIN_PREPLACE\nSIGNAL: P1\nRect(1, 0)\nEND_PREPLACE\n",
		"unterminated": "BEGIN_PREPLACE\nSIGNAL: P1\nCord(1, 0)\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadPreplace(strings.NewReader(input), 5, 5)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeImportFailed))
		})
	}
}

func TestReadPreplace_NoBlock(t *testing.T) {
	pp, err := ReadPreplace(strings.NewReader("# nothing here\n"), 5, 5)
	require.NoError(t, err)
	assert.Empty(t, pp)
}

// ─── DXF pads ──────────────────────────────────────────────

func TestImportPadsDXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pads.dxf")
	d := dxf.NewDrawing()
	_, err := d.AddLayer("P1", dxf.DefaultColor, dxf.DefaultLineType, true)
	require.NoError(t, err)
	_, err = d.LwPolyline(true, []float64{2, 2, 0}, []float64{4, 2, 0}, []float64{4, 5, 0}, []float64{2, 5, 0})
	require.NoError(t, err)
	_, err = d.AddLayer("GND", dxf.DefaultColor, dxf.DefaultLineType, true)
	require.NoError(t, err)
	_, err = d.Circle(10, 10, 0, 1)
	require.NoError(t, err)
	_, err = d.AddLayer("notes", dxf.DefaultColor, dxf.DefaultLineType, true)
	require.NoError(t, err)
	_, err = d.LwPolyline(true, []float64{0, 0, 0}, []float64{1, 0, 0}, []float64{1, 1, 0})
	require.NoError(t, err)
	require.NoError(t, d.SaveAs(path))

	res := ImportPadsDXF(path)
	require.True(t, res.OK(), res.Errors)
	require.Len(t, res.Pads, 2)

	p1 := res.Pads[0]
	assert.Equal(t, model.SignalPower1, p1.Signal)
	assert.InDelta(t, 2, p1.X, 1e-9)
	assert.InDelta(t, 2, p1.Y, 1e-9)
	assert.InDelta(t, 2, p1.Width, 1e-9)
	assert.InDelta(t, 3, p1.Height, 1e-9)

	gnd := res.Pads[1]
	assert.Equal(t, model.SignalGround, gnd.Signal)
	assert.InDelta(t, 2, gnd.Width, 1e-9)
	assert.Len(t, res.Warnings, 1)
}

func TestImportPadsDXF_MissingFile(t *testing.T) {
	res := ImportPadsDXF(filepath.Join(t.TempDir(), "none.dxf"))
	assert.False(t, res.OK())
}

func TestChainSegments(t *testing.T) {
	segs := pointsToSegments(samplePoints(0, 0, 2, 0, 2, 2, 0, 2, 0, 0))
	segs = append(segs, segment{start: samplePoints(5, 5)[0], end: samplePoints(6, 5)[0]})
	out := chainSegments(segs, chainTolerance)
	require.Len(t, out, 1, "open chains are dropped")
	assert.Len(t, out[0], 4)
}

// ─── Design document ───────────────────────────────────────

const sampleDesign = `
name: demo
width: 10
height: 8
metal_layers: 3
currents:
  P1: 2.0
connectors:
  - name: ubump
    layer: 0
    pads:
      - {signal: P1, x: 1, y: 1, width: 2, height: 2}
      - {signal: P2, x: 6, y: 1, width: 2, height: 2}
  - name: c4
    layer: 2
    pads:
      - {name: ball, signal: PWR_1, x: 1, y: 5, width: 2, height: 2}
preplace:
  metal:
    - {layer: 1, file: m1.txt}
  vias:
    - {layer: 0, file: v0.txt}
`

func TestLoadDesign(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m1.txt", "BEGIN_PREPLACE\nSIGNAL: OBSTACLE\nCord(4, 0) to Cord(4, 7)\nEND_PREPLACE\n")
	writeFile(t, dir, "v0.txt", "BEGIN_PREPLACE\nSIGNAL: P2\nCord(10, 8)\nEND_PREPLACE\n")
	path := writeFile(t, dir, "design.yaml", sampleDesign)

	load, err := LoadDesign(path)
	require.NoError(t, err)
	d := load.Design

	assert.Equal(t, "demo", d.Name)
	assert.Equal(t, 10, d.Width)
	assert.Equal(t, 3, d.MetalLayers)
	assert.Equal(t, 0, d.TopLayer())
	assert.Equal(t, 2, d.BottomLayer())
	require.Len(t, d.Connectors, 2)
	assert.Equal(t, model.SignalPower2, d.Connectors[0].Pads[1].Signal)
	assert.Equal(t, "ball", d.Connectors[1].Pads[0].Name)
	assert.Len(t, d.Metal[1], 8)
	assert.Equal(t, model.SignalPower2, d.Vias[0][model.Cell{X: 10, Y: 8}], "via pins include the far corner")
	assert.Equal(t, 2.0, d.Currents[model.SignalPower1])
	assert.Equal(t, []string{"no current requirement for POWER_2"}, load.Warnings)
}

func TestLoadDesign_CurrentsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "currents.csv", "Signal,Current\nP1,1\nP2,4\n")
	doc := strings.Replace(sampleDesign, "preplace:\n  metal:\n    - {layer: 1, file: m1.txt}\n  vias:\n    - {layer: 0, file: v0.txt}\n", "", 1)
	doc = strings.Replace(doc, "currents:\n  P1: 2.0\n", "currents_file: currents.csv\ncurrents:\n  P1: 2.0\n", 1)
	path := writeFile(t, dir, "design.yaml", doc)

	load, err := LoadDesign(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, load.Design.Currents[model.SignalPower1], "inline value wins")
	assert.Equal(t, 4.0, load.Design.Currents[model.SignalPower2])
	assert.Empty(t, load.Warnings[1:])
}

func TestParseDesign_SchemaErrors(t *testing.T) {
	_, err := ParseDesign([]byte("name: x\nheight: 3\nmetal_layers: 1\nconnectors: []\n"), ".")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeInvalidDesign))
	assert.Contains(t, err.Error(), "width")

	_, err = ParseDesign([]byte("name: x\nwidth: 3\nheight: 3\nmetal_layers: 1\nbogus: 1\nconnectors:\n  - {name: a, layer: 0}\n"), ".")
	assert.True(t, errors.Is(err, errors.CodeInvalidDesign))

	_, err = ParseDesign([]byte("name: [unclosed"), ".")
	assert.Error(t, err)
}

func TestParseDesign_SemanticErrors(t *testing.T) {
	bad := strings.Replace(sampleDesign, "signal: P2", "signal: VDD", 1)
	_, err := ParseDesign([]byte(bad), t.TempDir())
	assert.True(t, errors.Is(err, errors.CodeInvalidDesign))

	outside := strings.Replace(sampleDesign, "layer: 2\n", "layer: 5\n", 1)
	_, err = ParseDesign([]byte(outside), t.TempDir())
	assert.Error(t, err)
}

func TestLoadDesign_NotFound(t *testing.T) {
	_, err := LoadDesign(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
