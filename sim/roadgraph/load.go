package roadgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is the on-disk graph format produced by the acquisition layer.
type Document struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// NodeRecord is a node as serialized. Missing lat/lon mark the node as NoCoord.
type NodeRecord struct {
	ID  NodeID   `json:"id"`
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// EdgeRecord is an edge as serialized. A missing weight defaults to 1.0.
type EdgeRecord struct {
	From     NodeID             `json:"from"`
	To       NodeID             `json:"to"`
	Weight   *float64           `json:"weight,omitempty"`
	Highway  HighwayTag         `json:"highway,omitempty"`
	Length   float64            `json:"length,omitempty"`
	Geometry [][2]float64       `json:"geometry,omitempty"` // [lat, lon] pairs
	Attrs    map[string]float64 `json:"attrs,omitempty"`
}

// HighwayTag accepts either a string or a list of strings; OSM merges ways with
// different classes into lists, and the first entry is the one that counts.
type HighwayTag string

func (h *HighwayTag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*h = ""
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("highway list: %w", err)
		}
		if len(list) == 0 {
			*h = ""
			return nil
		}
		*h = HighwayTag(list[0])
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("highway: %w", err)
	}
	*h = HighwayTag(s)
	return nil
}

// LoadJSON decodes a Document from r and builds a Graph.
func LoadJSON(r io.Reader) (*Graph, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph document: %w", err)
	}
	return FromDocument(doc)
}

// LoadFile reads a JSON graph document from path.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()
	g, err := LoadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// FromDocument builds a Graph from an already-decoded document.
func FromDocument(doc Document) (*Graph, error) {
	g := New()
	for _, nr := range doc.Nodes {
		n := Node{ID: nr.ID}
		if nr.Lat != nil && nr.Lon != nil {
			n.Lat, n.Lon = *nr.Lat, *nr.Lon
		} else {
			n.NoCoord = true
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, er := range doc.Edges {
		e := Edge{
			From:      er.From,
			To:        er.To,
			Weight:    1.0,
			RoadClass: string(er.Highway),
			Length:    er.Length,
			Attrs:     er.Attrs,
		}
		if er.Weight != nil {
			e.Weight = *er.Weight
		}
		if len(er.Geometry) > 0 {
			e.Geometry = make([]LatLon, len(er.Geometry))
			for i, p := range er.Geometry {
				e.Geometry[i] = LatLon{Lat: p[0], Lon: p[1]}
			}
		}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}
