package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"ledger-recon/core/reconcile"

	"github.com/goccy/go-yaml"
)

// Document is the structured form written by the json and yaml sinks.
type Document struct {
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Summary     []Line            `json:"summary" yaml:"summary"`
	Report      *reconcile.Report `json:"report" yaml:"report"`
}

func writeCSV(w io.Writer, r *reconcile.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"Source"}, discrepancyHeader...)); err != nil {
		return err
	}
	for _, part := range []struct {
		direction string
		ds        []reconcile.Discrepancy
	}{
		{DirectionForward, r.Forward},
		{DirectionBackward, r.Backward},
	} {
		for _, d := range part.ds {
			if err := cw.Write(append([]string{part.direction}, discrepancyRow(d)...)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeYAML(w io.Writer, doc Document) error {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
