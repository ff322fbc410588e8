package forecast

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-salesforecaster/forecast/util"
	"github.com/aouyang1/go-salesforecaster/models"
	"github.com/aouyang1/go-salesforecaster/timedataset"
)

// Model represents a serializeable summary of a fitted forecast storing the smoothing model,
// the observation cadence and the fit scores
type Model struct {
	TrainEndTime time.Time           `json:"train_end_time"`
	Cadence      timedataset.Cadence `json:"cadence"`
	Smoothing    *models.HoltWinters `json:"smoothing"`
	Scores       *Scores             `json:"scores"`
}

func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sModel:\n", prefix, util.IndentExpand(indent, 0)); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s%sTraining End Time: %s\n", prefix, util.IndentExpand(indent, 1), m.TrainEndTime); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sCadence: %s\n", prefix, util.IndentExpand(indent, 1), m.Cadence); err != nil {
		return err
	}

	if m.Smoothing != nil {
		hw := m.Smoothing
		if _, err := fmt.Fprintf(w, "%s%sSeasonal Period: %d    Fallback: %t\n",
			prefix, util.IndentExpand(indent, 1), hw.Period, hw.Fallback); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sAlpha: %.3f    Beta: %.3f    Gamma: %.3f\n",
			prefix, util.IndentExpand(indent, 1), hw.Alpha, hw.Beta, hw.Gamma); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sLevel: %.3f    Trend: %.3f\n",
			prefix, util.IndentExpand(indent, 1), hw.Level, hw.Trend); err != nil {
			return err
		}
	}

	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, util.IndentExpand(indent, 0)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sMAPE: %.3f    MSE: %.3f    R2: %.3f\n",
			prefix, util.IndentExpand(indent, 1),
			m.Scores.MAPE,
			m.Scores.MSE,
			m.Scores.R2,
		); err != nil {
			return err
		}
	}

	if m.Smoothing == nil {
		return nil
	}
	return seasonalTablePrint(w, prefix, indent, m.Smoothing.Seasonal)
}

func seasonalTablePrint(wr io.Writer, prefix, indent string, seasonal []float64) error {
	if _, err := fmt.Fprintf(wr, "%s%sSeasonal Offsets:\n", prefix, util.IndentExpand(indent, 0)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(wr, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sStep\tOffset\t\n", prefix, util.IndentExpand(indent, 1)); err != nil {
		return err
	}
	for i, s := range seasonal {
		if _, err := fmt.Fprintf(tbl, "%s%s%d\t%.3f\t\n", prefix, util.IndentExpand(indent, 1), i+1, s); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

// PointsTablePrint writes the forecast points followed by their total
func PointsTablePrint(wr io.Writer, prefix, indent string, points []Point) error {
	if _, err := fmt.Fprintf(wr, "%s%sForecast:\n", prefix, util.IndentExpand(indent, 0)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(wr, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sTime\tForecast\tLower\tUpper\t\n", prefix, util.IndentExpand(indent, 1)); err != nil {
		return err
	}
	for _, p := range points {
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%.2f\t%.2f\t%.2f\t\n",
			prefix, util.IndentExpand(indent, 1),
			p.T.Format(time.DateOnly), p.Forecast, p.Lower, p.Upper); err != nil {
			return err
		}
	}
	if err := tbl.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(wr, "%s%sTotal: %.2f\n", prefix, util.IndentExpand(indent, 0), Aggregate(points))
	return err
}
