// formationconv writes a sphere formation's marker points to YAML.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/flockgo/flockd/internal/formation"
	"gopkg.in/yaml.v3"
)

type pointEntry struct {
	Meridian int        `yaml:"meridian"`
	Swatch   string     `yaml:"swatch"`
	Color    string     `yaml:"color"`
	Position [3]float64 `yaml:"position,flow"`
}

type formationFile struct {
	PointCount int          `yaml:"point_count"`
	Radius     float64      `yaml:"radius"`
	Meridians  int          `yaml:"meridians"`
	Points     []pointEntry `yaml:"points"`
}

func main() {
	if len(os.Args) < 5 {
		fmt.Fprintln(os.Stderr, "Usage: formationconv <points> <radius> <meridians> <output.yaml>")
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2], os.Args[3], os.Args[4]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(pointsArg, radiusArg, meridiansArg, outPath string) error {
	points, err := strconv.Atoi(pointsArg)
	if err != nil {
		return fmt.Errorf("points: %w", err)
	}
	radius, err := strconv.ParseFloat(radiusArg, 64)
	if err != nil {
		return fmt.Errorf("radius: %w", err)
	}
	meridians, err := strconv.Atoi(meridiansArg)
	if err != nil {
		return fmt.Errorf("meridians: %w", err)
	}

	set, err := formation.SphereFormation(points, radius, meridians)
	if err != nil {
		return err
	}
	raw, err := encode(set)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("# Sphere formation, auto-generated (%d points)\n", set.Len())
	if err := os.WriteFile(outPath, append([]byte(header), raw...), 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %d formation points to %s\n", set.Len(), outPath)
	return nil
}

func encode(set formation.Set) ([]byte, error) {
	doc := formationFile{
		PointCount: set.PointCount,
		Radius:     set.Radius,
		Meridians:  set.Meridians,
		Points:     make([]pointEntry, 0, set.Len()),
	}
	for _, p := range set.Points {
		doc.Points = append(doc.Points, pointEntry{
			Meridian: p.Meridian,
			Swatch:   p.Swatch.Name,
			Color:    p.Swatch.Color.Hex(),
			Position: p.Position,
		})
	}
	return yaml.Marshal(doc)
}
