// Package report renders quality-control results: JSON documents for
// machine consumption, a PDF summary for operators, and compression
// manifests that record what a lossy pass did to a file.
package report

import (
	"encoding/json"
	"os"
	"time"

	"github.com/valschmidt/kmall/internal/integrity"
)

func SaveAcceptanceJSON(rep integrity.AcceptanceReport, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadAcceptanceJSON(path string) (integrity.AcceptanceReport, error) {
	var rep integrity.AcceptanceReport
	b, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	err = json.Unmarshal(b, &rep)
	return rep, err
}

// Manifest records one compression or decompression pass: the hashes tie
// the output to its exact input, the level documents what was dropped.
type Manifest struct {
	Ts           time.Time `json:"ts"`
	Operation    string    `json:"operation"` // compress|decompress
	InputPath    string    `json:"inputPath"`
	InputSha256  string    `json:"inputSha256"`
	InputBytes   int64     `json:"inputBytes"`
	OutputPath   string    `json:"outputPath"`
	OutputSha256 string    `json:"outputSha256"`
	OutputBytes  int64     `json:"outputBytes"`
	Level        int       `json:"level,omitempty"`
	ScaleVersion int       `json:"scaleVersion"`
}

// Ratio is output size over input size.
func (m Manifest) Ratio() float64 {
	if m.InputBytes <= 0 {
		return 0
	}
	return float64(m.OutputBytes) / float64(m.InputBytes)
}

func SaveManifest(m Manifest, out string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}
