package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/climacomp/schema"
	"gopkg.in/yaml.v3"
)

// CellDoc is one contingency cell, as a percentage.
type CellDoc struct {
	Percent     float64 `yaml:"percent" validate:"gte=0,lte=100"`
	Significant bool    `yaml:"significant"`
}

// TableDoc holds one row of three cells (below, normal, above) per outcome.
type TableDoc struct {
	Decrease []CellDoc `yaml:"decrease" validate:"len=3,dive"`
	Normal   []CellDoc `yaml:"normal" validate:"len=3,dive"`
	Exceed   []CellDoc `yaml:"exceed" validate:"len=3,dive"`
}

// FrequencyDoc holds the current index tercile frequencies.
type FrequencyDoc struct {
	Below  float64 `yaml:"below" validate:"gte=0,lte=1"`
	Normal float64 `yaml:"normal" validate:"gte=0,lte=1"`
	Above  float64 `yaml:"above" validate:"gte=0,lte=1"`
}

// LagDoc is the input of one lag.
type LagDoc struct {
	Lag       *int         `yaml:"lag" validate:"required,min=0,max=2"`
	Table     TableDoc     `yaml:"table"`
	Frequency FrequencyDoc `yaml:"frequency"`
}

// TargetDoc is the forecast target. It is checked against the interval mode later.
type TargetDoc struct {
	Month int `yaml:"month"`
	Day   int `yaml:"day"`
}

// ForecastDoc is one forecast input document.
type ForecastDoc struct {
	Station string    `yaml:"station" validate:"required"`
	Target  TargetDoc `yaml:"target"`
	Lags    []LagDoc  `yaml:"lags" validate:"required,min=1,dive"`
}

// LoadForecastFile reads every forecast document of a YAML file.
func LoadForecastFile(path string) ([]schema.ForecastInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	inputs, err := ReadForecastDocs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inputs, nil
}

// forecastKey identifies one stored forecast row.
type forecastKey struct {
	station string
	target  schema.ForecastTarget
	lag     schema.Lag
}

// ReadForecastDocs decodes a stream of YAML documents separated by "---".
// A station, target and lag combination may appear only once in the stream.
func ReadForecastDocs(r io.Reader) ([]schema.ForecastInput, error) {
	var inputs []schema.ForecastInput
	seen := make(map[forecastKey]int)
	dec := yaml.NewDecoder(r)
	for n := 1; ; n++ {
		var doc ForecastDoc
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", n, err)
		}
		input, err := doc.ToInput()
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", n, err)
		}
		for _, l := range input.Lags {
			key := forecastKey{station: input.Station, target: input.Target, lag: l.Lag}
			if first, ok := seen[key]; ok {
				return nil, fmt.Errorf("document %d: station %s target %d/%d %s already given in document %d",
					n, input.Station, input.Target.Month, input.Target.Day, l.Lag, first)
			}
			seen[key] = n
		}
		inputs = append(inputs, input)
	}
	if len(inputs) == 0 {
		return nil, errors.New("no forecast documents found")
	}
	return inputs, nil
}

// ToInput validates the document and converts it to a forecast input.
func (d *ForecastDoc) ToInput() (schema.ForecastInput, error) {
	if err := validateStruct(d); err != nil {
		return schema.ForecastInput{}, err
	}
	input := schema.ForecastInput{
		Station: d.Station,
		Target:  schema.ForecastTarget{Month: d.Target.Month, Day: d.Target.Day},
		Lags:    make([]schema.LagInput, 0, len(d.Lags)),
	}
	for _, l := range d.Lags {
		input.Lags = append(input.Lags, schema.LagInput{
			Lag:   schema.Lag(*l.Lag),
			Table: l.Table.toTable(),
			Frequency: schema.IndexFrequency{
				Below:  l.Frequency.Below,
				Normal: l.Frequency.Normal,
				Above:  l.Frequency.Above,
			},
		})
	}
	return input, nil
}

func (t TableDoc) toTable() schema.ContingencyTable {
	var table schema.ContingencyTable
	rows := map[schema.Outcome][]CellDoc{
		schema.Decrease:      t.Decrease,
		schema.NormalOutcome: t.Normal,
		schema.Exceed:        t.Exceed,
	}
	for o, row := range rows {
		for i, c := range row {
			table[o][i] = schema.ContingencyCell{Percent: c.Percent, Significant: c.Significant}
		}
	}
	return table
}
