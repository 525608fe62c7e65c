// Package pointcloud reads scene and model point clouds from JSON dump
// files, grounded on the teacher's mesh.ParseMapFile/ParseMapJSON
// (mesh/parser.go): read-file, json.Unmarshal, fmt.Errorf on failure.
package pointcloud

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kwv/objrecransac/geom"
)

// record is the on-disk shape of one point: position plus surface
// normal, both required since every §4 operation needs normals.
type record struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	NX float64 `json:"nx"`
	NY float64 `json:"ny"`
	NZ float64 `json:"nz"`
}

// Load reads a JSON array of {x,y,z,nx,ny,nz} records from path.
func Load(path string) ([]geom.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading point cloud file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a JSON point cloud dump from data.
func Parse(data []byte) ([]geom.Point, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing point cloud JSON: %w", err)
	}

	points := make([]geom.Point, len(records))
	for i, r := range records {
		points[i] = geom.Point{
			Position: geom.Vec3{X: r.X, Y: r.Y, Z: r.Z},
			Normal:   geom.Vec3{X: r.NX, Y: r.NY, Z: r.NZ},
		}
	}
	return points, nil
}

// Save writes points to path as a JSON array of {x,y,z,nx,ny,nz}
// records, the inverse of Load.
func Save(path string, points []geom.Point) error {
	records := make([]record, len(points))
	for i, p := range points {
		records[i] = record{
			X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z,
			NX: p.Normal.X, NY: p.Normal.Y, NZ: p.Normal.Z,
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling point cloud JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing point cloud file %s: %w", path, err)
	}
	return nil
}
