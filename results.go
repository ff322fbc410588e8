package forecaster

import (
	"fmt"
	"io"

	"github.com/aouyang1/go-salesforecaster/forecast"
	"github.com/aouyang1/go-salesforecaster/forecast/util"
	"github.com/aouyang1/go-salesforecaster/ingest"
	"github.com/aouyang1/go-salesforecaster/timedataset"
)

// Results holds the forecast points and their total along with the cleaned history, the one
// step ahead fitted values and the model that produced them
type Results struct {
	Points []forecast.Point `json:"points"`
	Total  float64          `json:"total"`

	History *timedataset.TimeDataset `json:"history"`
	Fitted  []float64                `json:"fitted"`
	Model   forecast.Model           `json:"model"`
	Report  ingest.Report            `json:"report"`
}

// Forecast returns the point estimates in order
func (r *Results) Forecast() []float64 {
	out := make([]float64, 0, len(r.Points))
	for _, p := range r.Points {
		out = append(out, p.Forecast)
	}
	return out
}

// TablePrint writes the model summary, the data cleaning counts and the forecast table
func (r *Results) TablePrint(w io.Writer, prefix, indent string) error {
	if err := r.Model.TablePrint(w, prefix, indent); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sData:\n", prefix, util.IndentExpand(indent, 0)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sRows: %d    Kept: %d    Dropped: %d\n",
		prefix, util.IndentExpand(indent, 1),
		r.Report.Rows, r.Report.Kept, r.Report.Dropped(),
	); err != nil {
		return err
	}
	return forecast.PointsTablePrint(w, prefix, indent, r.Points)
}
