package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/climacomp/schema"
	"gopkg.in/yaml.v3"
)

// SeriesSpec points at one raw series file.
type SeriesSpec struct {
	File      string `yaml:"file" validate:"required"`
	Frequency string `yaml:"frequency" validate:"required,oneof=daily monthly"`
	Kind      string `yaml:"kind"`
}

// StationSpec describes one station of the manifest.
type StationSpec struct {
	Code  string     `yaml:"code" validate:"required"`
	Name  string     `yaml:"name"`
	State int        `yaml:"state" validate:"required,min=1,max=4"`
	D     SeriesSpec `yaml:"d" validate:"required"`
	I     SeriesSpec `yaml:"i" validate:"required"`
}

// Manifest lists the stations of a run.
type Manifest struct {
	Stations []StationSpec `yaml:"stations" validate:"required,min=1,dive"`
}

// LoadManifest reads and validates a station manifest. Relative series paths are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := validateStruct(&m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(m.Stations))
	base := filepath.Dir(path)
	for i := range m.Stations {
		st := &m.Stations[i]
		if _, dup := seen[st.Code]; dup {
			return nil, fmt.Errorf("%s: station %s listed more than once", path, st.Code)
		}
		seen[st.Code] = struct{}{}
		st.D.File = resolve(base, st.D.File)
		st.I.File = resolve(base, st.I.File)
	}
	return &m, nil
}

func resolve(base, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// LoadStation reads both series of a station.
func LoadStation(spec StationSpec, nullTokens []string) (schema.Station, error) {
	d, err := loadSeries(spec.D, "D", nullTokens)
	if err != nil {
		return schema.Station{}, fmt.Errorf("station %s: %w", spec.Code, err)
	}
	i, err := loadSeries(spec.I, "I", nullTokens)
	if err != nil {
		return schema.Station{}, fmt.Errorf("station %s: %w", spec.Code, err)
	}
	return schema.Station{
		Code:  spec.Code,
		Name:  spec.Name,
		State: schema.DataState(spec.State),
		D:     d,
		I:     i,
	}, nil
}

func loadSeries(spec SeriesSpec, name string, nullTokens []string) (schema.Series, error) {
	freq := schema.Frequency(spec.Frequency)
	points, err := ReadSeriesFile(spec.File, freq, nullTokens)
	if err != nil {
		return schema.Series{}, fmt.Errorf("%s series: %w", name, err)
	}
	if len(points) == 0 {
		return schema.Series{}, fmt.Errorf("%s series: %s has no data", name, spec.File)
	}
	return schema.Series{
		Name:      name,
		Kind:      schema.SeriesKind(spec.Kind),
		Frequency: freq,
		Points:    points,
	}, nil
}
