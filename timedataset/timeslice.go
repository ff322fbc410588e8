package timedataset

import (
	"errors"
	"time"
)

var ErrCannotInferFreq = errors.New("cannot infer frequency from time slice")

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// EstimateFreq returns the most common spacing between consecutive points. Ties are
// broken by choosing the smaller spacing.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		frequencies[delta] += 1
	}

	var maxCnt int
	var maxDelta time.Duration
	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	if maxDelta <= 0 {
		return 0, ErrCannotInferFreq
	}
	return maxDelta, nil
}

// EstimateCadence infers the calendar aware spacing of the time slice. When consecutive points
// are whole months apart at the same clock time the cadence is expressed in months so forecasts
// land on the same calendar position. A minority of points on a different day of month is
// tolerated and pins the cadence to the most common day. Otherwise the most common fixed
// duration is used.
func (t TimeSlice) EstimateCadence() (Cadence, error) {
	if len(t) < 2 {
		return Cadence{}, ErrCannotInferFreq
	}

	if months, monthEnd, offDay, ok := t.monthlySpacing(); ok {
		c := Cadence{Months: months, MonthEnd: monthEnd}
		if offDay > 0 && !monthEnd {
			c.Day = t.modalDay()
		}
		return c, nil
	}

	freq, err := t.EstimateFreq()
	if err != nil {
		return Cadence{}, err
	}
	return Cadence{Freq: freq}, nil
}

func (t TimeSlice) monthlySpacing() (int, bool, int, bool) {
	counts := make(map[int]int)
	allMonthEnd := isMonthEnd(t[0])
	var offDay int
	for i := 1; i < len(t); i++ {
		prev, curr := t[i-1], t[i]
		if !sameClock(prev, curr) {
			return 0, false, 0, false
		}
		prevEnd, currEnd := isMonthEnd(prev), isMonthEnd(curr)
		allMonthEnd = allMonthEnd && currEnd
		if prev.Day() != curr.Day() && !(prevEnd && currEnd) {
			offDay += 1
		}
		diff := monthIndex(curr) - monthIndex(prev)
		if diff <= 0 {
			return 0, false, 0, false
		}
		counts[diff] += 1
	}
	if 2*offDay >= len(t)-1 {
		return 0, false, 0, false
	}

	var maxCnt, months int
	for diff, cnt := range counts {
		if cnt > maxCnt || (cnt == maxCnt && diff < months) {
			maxCnt = cnt
			months = diff
		}
	}
	return months, allMonthEnd, offDay, true
}

// modalDay is the most common day of month, preferring the earlier day on ties
func (t TimeSlice) modalDay() int {
	var counts [32]int
	for _, ts := range t {
		counts[ts.Day()] += 1
	}
	day := 1
	for d := 2; d < len(counts); d++ {
		if counts[d] > counts[day] {
			day = d
		}
	}
	return day
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func sameClock(a, b time.Time) bool {
	ah, am, as := a.Clock()
	bh, bm, bs := b.Clock()
	return ah == bh && am == bm && as == bs && a.Nanosecond() == b.Nanosecond()
}

func isMonthEnd(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}
