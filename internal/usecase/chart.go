package usecase

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"adsreporter/internal/domain"
)

// GenerateChart seeds a window of size hourly buckets ending at now, with
// spend scattered between 10% and 30% of base.
func GenerateChart(now time.Time, base float64, size int, rng *rand.Rand) domain.ChartWindow {
	window := make(domain.ChartWindow, 0, size)
	for i := size - 1; i >= 0; i-- {
		at := now.Add(-time.Duration(i) * time.Hour)
		window = append(window, domain.ChartDataPoint{
			Time:     hourLabel(at.Hour()),
			Spend:    math.Floor(rng.Float64()*(base*0.2)) + base*0.1,
			Messages: rng.IntN(15) + 5,
			Leads:    rng.IntN(5),
		})
	}
	return window
}

// NextChartPoint builds the bucket following last, jittered up to 50%
// above a twentieth of the current spend.
func NextChartPoint(last domain.ChartDataPoint, spend float64, rng *rand.Rand) domain.ChartDataPoint {
	base := spend / 20
	return domain.ChartDataPoint{
		Time:     hourLabel((parseHour(last.Time) + 1) % 24),
		Spend:    math.Abs(base + rng.Float64()*base*0.5),
		Messages: rng.IntN(5),
		Leads:    rng.IntN(2),
	}
}

func hourLabel(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}

func parseHour(label string) int {
	h, _, _ := strings.Cut(label, ":")
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0
	}
	return hour
}
