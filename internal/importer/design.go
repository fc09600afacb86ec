package importer

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/model"
)

//go:embed design.schema.json
var designSchema []byte

// designDoc mirrors the YAML design document. Paths are relative to the
// document's directory.
type designDoc struct {
	Name         string             `yaml:"name"`
	Width        int                `yaml:"width"`
	Height       int                `yaml:"height"`
	MetalLayers  int                `yaml:"metal_layers"`
	Currents     map[string]float64 `yaml:"currents"`
	CurrentsFile string             `yaml:"currents_file"`
	Connectors   []connectorDoc     `yaml:"connectors"`
	Preplace     struct {
		Metal []preplaceDoc `yaml:"metal"`
		Vias  []preplaceDoc `yaml:"vias"`
	} `yaml:"preplace"`
}

type connectorDoc struct {
	Name    string   `yaml:"name"`
	Layer   int      `yaml:"layer"`
	PadsDXF string   `yaml:"pads_dxf"`
	Pads    []padDoc `yaml:"pads"`
}

type padDoc struct {
	Name   string  `yaml:"name"`
	Signal string  `yaml:"signal"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type preplaceDoc struct {
	Layer int    `yaml:"layer"`
	File  string `yaml:"file"`
}

// DesignLoad is a loaded design plus the warnings collected from the
// tabular and DXF inputs it references.
type DesignLoad struct {
	Design   *model.Design
	Warnings []string
}

// LoadDesign reads a YAML design document, validates it against the
// embedded JSON schema and resolves the current table, DXF pads and
// preplace files it references.
func LoadDesign(path string) (DesignLoad, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DesignLoad{}, errors.Wrap(errors.CodeNotFound, err, "design %s not found", path)
		}
		return DesignLoad{}, errors.Wrap(errors.CodeImportFailed, err, "cannot read design %s", path)
	}
	return ParseDesign(data, filepath.Dir(path))
}

// ParseDesign decodes a YAML design document. dir resolves relative file
// references.
func ParseDesign(data []byte, dir string) (DesignLoad, error) {
	if err := ValidateDesign(data); err != nil {
		return DesignLoad{}, err
	}

	var doc designDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return DesignLoad{}, errors.Wrap(errors.CodeInvalidDesign, err, "cannot decode design")
	}

	d := model.NewDesign(doc.Name, doc.Width, doc.Height, doc.MetalLayers)
	var load DesignLoad
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	if doc.CurrentsFile != "" {
		res := ImportCurrents(resolve(doc.CurrentsFile))
		if !res.OK() {
			return DesignLoad{}, errors.New(errors.CodeImportFailed, "currents file %s: %s", doc.CurrentsFile, strings.Join(res.Errors, "; "))
		}
		load.Warnings = append(load.Warnings, prefixed(doc.CurrentsFile, res.Warnings)...)
		for sig, cur := range res.Currents {
			d.Currents[sig] = cur
		}
	}
	// inline currents override the table
	for name, cur := range doc.Currents {
		sig, err := model.ParseSignal(name)
		if err != nil {
			return DesignLoad{}, errors.Wrap(errors.CodeInvalidDesign, err, "currents")
		}
		d.Currents[sig] = cur
	}

	for _, c := range doc.Connectors {
		conn := model.Connector{Name: c.Name, Layer: c.Layer}
		for i, p := range c.Pads {
			sig, err := model.ParseSignal(p.Signal)
			if err != nil {
				return DesignLoad{}, errors.Wrap(errors.CodeInvalidDesign, err, "connector %s pad %d", c.Name, i)
			}
			conn.Pads = append(conn.Pads, model.Pad{
				Name: p.Name, Signal: sig,
				X: p.X, Y: p.Y, Width: p.Width, Height: p.Height,
			})
		}
		if c.PadsDXF != "" {
			res := ImportPadsDXF(resolve(c.PadsDXF))
			if !res.OK() {
				return DesignLoad{}, errors.New(errors.CodeImportFailed, "pads file %s: %s", c.PadsDXF, strings.Join(res.Errors, "; "))
			}
			load.Warnings = append(load.Warnings, prefixed(c.PadsDXF, res.Warnings)...)
			conn.Pads = append(conn.Pads, res.Pads...)
		}
		d.Connectors = append(d.Connectors, conn)
	}

	for _, p := range doc.Preplace.Metal {
		pp, err := ReadPreplaceFile(resolve(p.File), doc.Width, doc.Height)
		if err != nil {
			return DesignLoad{}, err
		}
		for c, sig := range pp {
			d.SetMetal(p.Layer, c, sig)
		}
	}
	for _, p := range doc.Preplace.Vias {
		// via pins sit on the corners of the metal grid
		pp, err := ReadPreplaceFile(resolve(p.File), doc.Width+1, doc.Height+1)
		if err != nil {
			return DesignLoad{}, err
		}
		for c, sig := range pp {
			d.SetVia(p.Layer, c, sig)
		}
	}

	if err := d.Validate(); err != nil {
		return DesignLoad{}, err
	}
	missingCurrents(d, &load)
	load.Design = d
	return load, nil
}

// ValidateDesign checks a YAML design document against the embedded schema.
func ValidateDesign(data []byte) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(errors.CodeInvalidDesign, err, "invalid YAML")
	}
	if raw == nil {
		return errors.New(errors.CodeInvalidDesign, "design document is empty")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(designSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "schema validation")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return errors.New(errors.CodeInvalidDesign, "design does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// missingCurrents warns about power nets that have pads or preplaced cells
// but no current requirement; their bodies carry zero pressure.
func missingCurrents(d *model.Design, load *DesignLoad) {
	seen := make(map[model.Signal]bool)
	for _, c := range d.Connectors {
		for _, p := range c.Pads {
			seen[p.Signal] = true
		}
	}
	for _, pp := range d.Metal {
		for _, sig := range pp {
			seen[sig] = true
		}
	}
	for _, pp := range d.Vias {
		for _, sig := range pp {
			seen[sig] = true
		}
	}
	var missing []model.Signal
	for sig := range seen {
		if _, ok := d.Currents[sig]; sig.IsPower() && !ok {
			missing = append(missing, sig)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	for _, sig := range missing {
		load.Warnings = append(load.Warnings, fmt.Sprintf("no current requirement for %s", sig))
	}
}

func prefixed(file string, msgs []string) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = file + ": " + m
	}
	return out
}
