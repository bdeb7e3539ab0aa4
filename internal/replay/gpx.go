// Package replay feeds a recorded GPX track through the recording engine.
package replay

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"
)

// GPX is the subset of a GPX 1.1 document the replay needs.
type GPX struct {
	XMLName xml.Name `xml:"gpx"`
	Creator string   `xml:"creator,attr"`
	Tracks  []Track  `xml:"trk"`
}

// Track is a GPX track.
type Track struct {
	Name     string    `xml:"name"`
	Segments []Segment `xml:"trkseg"`
}

// Segment is a continuous run of points; recording was paused between
// segments.
type Segment struct {
	Points []Point `xml:"trkpt"`
}

// Point is a GPX track point.
type Point struct {
	Lat        float64    `xml:"lat,attr"`
	Lon        float64    `xml:"lon,attr"`
	Elevation  *float64   `xml:"ele"`
	Time       time.Time  `xml:"time"`
	Extensions Extensions `xml:"extensions"`
}

// Extensions holds the Garmin TrackPointExtension, matched by local name so
// any gpxtpx namespace version decodes.
type Extensions struct {
	TrackPoint *TrackPointExtension `xml:"TrackPointExtension"`
}

// TrackPointExtension carries heart rate (bpm) and cadence (rpm).
type TrackPointExtension struct {
	HeartRate *float64 `xml:"hr"`
	Cadence   *float64 `xml:"cad"`
}

// Parse reads a GPX document.
func Parse(r io.Reader) (*GPX, error) {
	var doc GPX
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}
	return &doc, nil
}

// ParseFile reads the GPX document at path.
func ParseFile(path string) (*GPX, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gpx: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Start returns the time of the first timestamped point.
func (g *GPX) Start() (time.Time, bool) {
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				if !p.Time.IsZero() {
					return p.Time, true
				}
			}
		}
	}
	return time.Time{}, false
}
