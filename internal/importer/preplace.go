package importer

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/softpdn/internal/errors"
	"github.com/piwi3910/softpdn/internal/model"
)

var (
	singleCord = regexp.MustCompile(`^\s*Cord\(\s*([^\s,]+)\s*,\s*([^\s\)]+)\s*\)\s*$`)
	rangeCord  = regexp.MustCompile(`^\s*Cord\(\s*([^\s,]+)\s*,\s*([^\s\)]+)\s*\)\s*to\s*Cord\(\s*([^\s,]+)\s*,\s*([^\s\)]+)\s*\)\s*$`)
)

const signalPrefix = "SIGNAL:"

// ReadPreplaceFile parses a preplace file for a grid of width × height
// cells. See ReadPreplace.
func ReadPreplaceFile(path string, width, height int) (model.Preplace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeImportFailed, err, "cannot open preplace file %s", path)
	}
	defer f.Close()
	return ReadPreplace(f, width, height)
}

// ReadPreplace parses the preplace block format:
//
//	# comment
//	BEGIN_PREPLACE
//	SIGNAL: P1
//	Cord(3, 4)
//	Cord(0, 2) to Cord(0, 9)
//	SIGNAL: OBSTACLE
//	Cord(5, 5)
//	END_PREPLACE
//
// Lines before BEGIN_PREPLACE are ignored. A range must be horizontal or
// vertical and includes both ends. Coordinates must lie in [0, width) ×
// [0, height). A cell claimed twice keeps its first signal.
func ReadPreplace(r io.Reader, width, height int) (model.Preplace, error) {
	pp := make(model.Preplace)
	scanner := bufio.NewScanner(r)

	inBlock := false
	haveSignal := false
	var current model.Signal
	lineNum := 0

	claim := func(x, y int) {
		c := model.Cell{X: x, Y: y}
		if _, taken := pp[c]; !taken {
			pp[c] = current
		}
	}
	inRange := func(line string, xs ...int) error {
		for i := 0; i+1 < len(xs); i += 2 {
			if xs[i] < 0 || xs[i] >= width {
				return errors.New(errors.CodeImportFailed, "line %d: x must be within [0, %d]: %s", lineNum, width-1, line)
			}
			if xs[i+1] < 0 || xs[i+1] >= height {
				return errors.New(errors.CodeImportFailed, "line %d: y must be within [0, %d]: %s", lineNum, height-1, line)
			}
		}
		return nil
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "BEGIN_PREPLACE" {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		if line == "END_PREPLACE" {
			return pp, nil
		}

		if i := strings.Index(line, signalPrefix); i >= 0 {
			name := strings.TrimSpace(line[i+len(signalPrefix):])
			sig, err := model.ParseSignal(name)
			if err != nil || sig == model.SignalUnknown {
				return nil, errors.New(errors.CodeImportFailed, "line %d: unknown preplace signal %q", lineNum, name)
			}
			current, haveSignal = sig, true
			continue
		}
		if !haveSignal {
			return nil, errors.New(errors.CodeImportFailed, "line %d: coordinate before any SIGNAL line: %s", lineNum, line)
		}

		if m := singleCord.FindStringSubmatch(line); m != nil {
			xs, err := integers(lineNum, line, m[1:]...)
			if err != nil {
				return nil, err
			}
			if err := inRange(line, xs...); err != nil {
				return nil, err
			}
			claim(xs[0], xs[1])
			continue
		}

		if m := rangeCord.FindStringSubmatch(line); m != nil {
			xs, err := integers(lineNum, line, m[1:]...)
			if err != nil {
				return nil, err
			}
			if err := inRange(line, xs...); err != nil {
				return nil, err
			}
			x1, y1, x2, y2 := xs[0], xs[1], xs[2], xs[3]
			switch {
			case x1 == x2:
				for y := min(y1, y2); y <= max(y1, y2); y++ {
					claim(x1, y)
				}
			case y1 == y2:
				for x := min(x1, x2); x <= max(x1, x2); x++ {
					claim(x, y1)
				}
			default:
				return nil, errors.New(errors.CodeImportFailed, "line %d: only horizontal or vertical ranges are accepted: %s", lineNum, line)
			}
			continue
		}

		return nil, errors.New(errors.CodeImportFailed, "line %d: unrecognised preplace line: %s", lineNum, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.CodeImportFailed, err, "reading preplace data")
	}
	if inBlock {
		return nil, errors.New(errors.CodeImportFailed, "missing END_PREPLACE")
	}
	return pp, nil
}

func integers(lineNum int, line string, fields ...string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.New(errors.CodeImportFailed, "line %d: coordinates must be integers: %s", lineNum, line)
		}
		out[i] = v
	}
	return out, nil
}
