package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/geometry"
	"github.com/piwi3910/softpdn/internal/model"
)

// DXF layer names. Bodies go to M<layer>_<net>, occupied vias to
// V<via layer>_<status>.
func bodyLayerName(layer int, sig model.Signal) string {
	return fmt.Sprintf("M%d_%s", layer, sig)
}

func viaLayerName(layer int, st model.ViaStatus) string {
	return fmt.Sprintf("V%d_%s", layer, st)
}

// ExportDXF writes every body contour as a closed polyline and every
// classified via as a circle. Holes are written as additional closed
// polylines on the body's layer.
func ExportDXF(path string, res model.Result) error {
	if len(res.Layers) == 0 {
		return errors.New(errors.CodeExportFailed, "no layers to export")
	}

	d := dxf.NewDrawing()
	layers := make(map[string]bool)
	use := func(name string, cl color.ColorNumber) error {
		if layers[name] {
			return d.ChangeLayer(name)
		}
		layers[name] = true
		_, err := d.AddLayer(name, cl, dxf.DefaultLineType, true)
		return err
	}

	for _, layer := range res.Layers {
		for i := range layer.Bodies {
			b := &layer.Bodies[i]
			if len(b.Contour) < 3 {
				continue
			}
			if err := use(bodyLayerName(layer.Index, b.Signal), netACI(b.Signal)); err != nil {
				return errors.Wrap(errors.CodeExportFailed, err, "cannot add DXF layer")
			}
			if err := writeRing(d, b.Contour); err != nil {
				return errors.Wrap(errors.CodeExportFailed, err, "cannot write body %d on layer %d", b.Index, layer.Index)
			}
			for _, h := range b.Holes {
				if err := writeRing(d, h.Open()); err != nil {
					return errors.Wrap(errors.CodeExportFailed, err, "cannot write hole of body %d on layer %d", b.Index, layer.Index)
				}
			}
		}
	}

	for _, vl := range res.ViaLayers {
		for i := range vl.Vias {
			v := &vl.Vias[i]
			if v.Status == model.ViaEmpty || v.Status == model.ViaUnknown {
				continue
			}
			if err := use(viaLayerName(vl.Index, v.Status), color.ColorNumber(int(v.Status)+1)); err != nil {
				return errors.Wrap(errors.CodeExportFailed, err, "cannot add DXF layer")
			}
			loc := v.Location()
			if _, err := d.Circle(loc.X, loc.Y, 0, viaDXFRadius); err != nil {
				return errors.Wrap(errors.CodeExportFailed, err, "cannot write via %d", v.Index())
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return errors.Wrap(errors.CodeExportFailed, err, "cannot write %s", path)
	}
	return nil
}

const viaDXFRadius = 0.2

// netACI maps a power net onto an AutoCAD color index 1..9.
func netACI(sig model.Signal) color.ColorNumber {
	for i, p := range model.PowerSignals() {
		if p == sig {
			return color.ColorNumber(i%9 + 1)
		}
	}
	return color.ColorNumber(8)
}

func writeRing(d *drawing.Drawing, pts []geometry.Point) error {
	vertices := make([][]float64, len(pts))
	for i, p := range pts {
		vertices[i] = []float64{p.X, p.Y, 0}
	}
	_, err := d.LwPolyline(true, vertices...)
	return err
}
