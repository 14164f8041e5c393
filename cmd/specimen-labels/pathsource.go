package main

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/specimen-labels/internal/anchor"
)

func addPathFlags(cmd *cobra.Command) {
	cmd.Flags().String("svg", "", "SVG path data, e.g. \"M 120 80 L 340 80 L 340 240\"")
	cmd.Flags().String("svg-file", "", "SVG document (every <path> is used) or a file holding path data")
	cmd.Flags().String("anchors", "", "anchor points as \"x,y x,y ...\"")
}

// pathFromFlags returns the path given by --svg, --svg-file or --anchors,
// or nil when none was given.
func pathFromFlags(cmd *cobra.Command) (*anchor.Path, error) {
	svg, _ := cmd.Flags().GetString("svg")
	svgFile, _ := cmd.Flags().GetString("svg-file")
	anchors, _ := cmd.Flags().GetString("anchors")

	switch {
	case svg != "":
		p, err := anchor.ParseSVGPath(svg)
		if err != nil {
			return nil, usageErrorf("%v", err)
		}
		return p, nil
	case svgFile != "":
		data, err := os.ReadFile(svgFile)
		if err != nil {
			return nil, err
		}
		p, err := anchor.ParseSVGPath(pathData(data))
		if err != nil {
			return nil, usageErrorf("%s: %v", svgFile, err)
		}
		return p, nil
	case anchors != "":
		return parseAnchors(anchors)
	}
	return nil, nil
}

// pathData extracts the d attributes of every <path> element of an SVG
// document. Input that is not XML is returned as is.
func pathData(data []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var parts []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return strings.TrimSpace(string(data))
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "path" {
			continue
		}
		for _, a := range el.Attr {
			if a.Name.Local == "d" {
				parts = append(parts, a.Value)
			}
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(string(data))
	}
	return strings.Join(parts, " ")
}

// parseAnchors reads "x,y x,y" pairs into a single stroke whose control
// points coincide with its anchors.
func parseAnchors(s string) (*anchor.Path, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ';' || r == '\t' || r == '\n' })
	points := make([]float64, 0, len(fields)*6)
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, usageErrorf("anchor %q is not x,y", f)
		}
		x, errX := strconv.ParseFloat(xs, 64)
		y, errY := strconv.ParseFloat(ys, 64)
		if errX != nil || errY != nil {
			return nil, usageErrorf("anchor %q is not x,y", f)
		}
		points = append(points, x, y, x, y, x, y)
	}
	return &anchor.Path{Strokes: []anchor.Stroke{{Points: points}}}, nil
}
