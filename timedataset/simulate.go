package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateT returns n points spaced by interval ending one interval before the minute
// truncated output of nowFunc.
func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n) * interval).UTC()
	for i := 0; i < n; i++ {
		t = append(t, ct.Add(interval*time.Duration(i)))
	}
	return t
}

// GenerateMonthlyT returns n month starts beginning at the month of start
func GenerateMonthlyT(n int, start time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		t = append(t, first.AddDate(0, i, 0))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) Scale(c float64) Series {
	floats.Scale(c, s)
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateTrendY generates a straight line bias + slope*i
func GenerateTrendY(n int, bias, slope float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, bias+slope*float64(i))
	}
	return Series(y)
}

// GenerateSeasonalY generates a sine wave that repeats every period observations
func GenerateSeasonalY(n int, amp float64, period int, offset float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*(float64(i)+offset)/float64(period))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise generates gaussian noise from a seeded source so simulated series are
// reproducible.
func GenerateNoise(n int, scale float64, seed uint64) Series {
	r := rand.New(rand.NewPCG(seed, seed))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, r.NormFloat64()*scale)
	}
	return Series(y)
}
