// SPDX-License-Identifier: MIT
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is a recorded painting session:
//
//	columns: 256
//	magnitude: 50
//	radius: 4
//	gate: 0.01
//	strokes:
//	  - brush: radius
//	    points: [[0.10, 0.20], [0.12, 0.20]]
//	  - brush: solid
//	    magnitude: 80
//	    scroll: -10
//	    points: [[0.5, 0.5]]
//
// Stroke fields left at zero fall back to the script-level values.
type Script struct {
	Columns   int      `yaml:"columns"`
	Magnitude float64  `yaml:"magnitude"`
	Radius    int      `yaml:"radius"`
	Gate      float64  `yaml:"gate"`
	Strokes   []Stroke `yaml:"strokes"`
}

// Stroke is one brush dragged through a list of normalized points.
type Stroke struct {
	Brush     string       `yaml:"brush"`
	Magnitude float64      `yaml:"magnitude"`
	Radius    int          `yaml:"radius"`
	Scroll    float64      `yaml:"scroll"`
	Points    [][2]float64 `yaml:"points"`
}

// ParseScript decodes a YAML script. Unknown keys are rejected.
func ParseScript(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, st := range s.Strokes {
		if _, err := s.brush(st); err != nil {
			return nil, fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	return &s, nil
}

// LoadScript reads and parses the script at path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return ParseScript(data)
}

func (s *Script) brush(st Stroke) (Brush, error) {
	m := st.Magnitude
	if m == 0 {
		m = s.Magnitude
	}
	r := st.Radius
	if r == 0 {
		r = s.Radius
	}

	var b Brush
	switch st.Brush {
	case "solid":
		b = SolidBrush{Magnitude: m}
	case "radius", "":
		b = RadiusBrush{Magnitude: m, Radius: r}
	default:
		return nil, fmt.Errorf("unknown brush %q", st.Brush)
	}
	if st.Scroll != 0 {
		b = b.Scroll(st.Scroll)
	}
	return b, nil
}

// Run paints every stroke of s onto c and applies the gate when one is set.
// Points outside the canvas are skipped.
func (c *Canvas) Run(s *Script) error {
	for i, st := range s.Strokes {
		b, err := s.brush(st)
		if err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
		skipped := 0
		for _, p := range st.Points {
			if !c.Paint(b, p[0], p[1]) {
				skipped++
			}
		}
		if skipped > 0 {
			logger.Warnf("stroke %d: %d of %d points outside the canvas", i, skipped, len(st.Points))
		}
	}
	if s.Gate > 0 {
		c.Gate(s.Gate)
	}
	return nil
}
