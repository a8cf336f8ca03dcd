package attendance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/attendo/internal/model"
)

func TestPercentageZeroTotal(t *testing.T) {
	for _, present := range []float64{0, 1, 7.5} {
		assert.Equal(t, 0.0, Percentage(present, 0))
	}
}

func TestPercentageBounds(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for present := 0; present <= total; present++ {
			pct := Percentage(float64(present), float64(total))
			require.GreaterOrEqual(t, pct, 0.0, "present=%d total=%d", present, total)
			require.LessOrEqual(t, pct, 100.0, "present=%d total=%d", present, total)
		}
	}
}

func TestClassesNeededZeroWhenCompliant(t *testing.T) {
	for _, required := range []float64{50, 60, 75, 80, 100} {
		for total := 1; total <= 30; total++ {
			for present := 0; present <= total; present++ {
				p, tot := float64(present), float64(total)
				if Percentage(p, tot) >= required {
					require.Equal(t, 0, ClassesNeeded(p, tot, required), "present=%d total=%d required=%v", present, total, required)
				}
			}
		}
	}
}

func TestClassesNeededIsMinimal(t *testing.T) {
	for _, required := range []float64{35, 50, 66, 75, 90} {
		r := required / 100
		for total := 1; total <= 25; total++ {
			for present := 0; present <= total; present++ {
				p, tot := float64(present), float64(total)
				x := float64(ClassesNeeded(p, tot, required))
				require.GreaterOrEqual(t, (p+x)/(tot+x), r-1e-12, "present=%d total=%d required=%v", present, total, required)
				if x > 0 {
					require.Less(t, (p+x-1)/(tot+x-1), r, "present=%d total=%d required=%v", present, total, required)
				}
			}
		}
	}
}

func TestBunksLeftIsMaximal(t *testing.T) {
	for _, required := range []float64{35, 50, 75, 90, 100} {
		r := required / 100
		for total := 1; total <= 25; total++ {
			for present := 0; present <= total; present++ {
				p, tot := float64(present), float64(total)
				x := float64(BunksLeft(p, tot, required))
				if x > 0 {
					require.GreaterOrEqual(t, p/(tot+x), r-1e-12, "present=%d total=%d required=%v", present, total, required)
				}
				require.Less(t, p/(tot+x+1), r, "present=%d total=%d required=%v", present, total, required)
			}
		}
	}
}

func TestClassesNeededFloatNoise(t *testing.T) {
	// 0.35*20 is not exactly 7 in binary.
	assert.Equal(t, 0, ClassesNeeded(7, 20, 35))
	assert.Equal(t, 0, BunksLeft(7, 20, 35))
}

func TestSaturatingBoundaries(t *testing.T) {
	assert.True(t, IsUnbounded(ClassesNeeded(4, 5, 100)))
	assert.Equal(t, 0, ClassesNeeded(5, 5, 100))
	assert.True(t, IsUnbounded(ClassesNeeded(0, 0, 100)))
	assert.Equal(t, 0, ClassesNeeded(0, 0, 75))
	assert.True(t, IsUnbounded(BunksLeft(4, 5, 0)))
	assert.True(t, IsUnboundedSpan(ClassesToDays(Unbounded, 5)))
	assert.True(t, IsUnboundedSpan(ClassesToWeeks(Unbounded, 5, 6)))
	assert.False(t, math.IsInf(ClassesToWeeks(Unbounded, 5, 6), 0))
}

func TestNonFiniteInputsDoNotPropagate(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 0.0, Percentage(nan, 5))
	assert.Equal(t, 0, ClassesNeeded(nan, 5, 75))
	assert.Equal(t, 0, BunksLeft(4, math.Inf(1), 75))
}

func TestUnitConversions(t *testing.T) {
	assert.Equal(t, 0.0, ClassesToDays(10, 0))
	assert.Equal(t, 0.0, ClassesToWeeks(10, 5, 0))
	assert.Equal(t, 2.0, ClassesToDays(10, 5))
	assert.Equal(t, 0.33, ClassesToWeeks(10, 5, 6))
	assert.Equal(t, 0.67, ClassesToDays(2, 3))
}

func TestDaysWeeksRoundTrip(t *testing.T) {
	for c := 0; c <= 200; c += 7 {
		for _, cpd := range []int{1, 3, 5, 8} {
			for _, dpw := range []int{1, 5, 6, 7} {
				weeks := ClassesToWeeks(c, cpd, dpw)
				days := ClassesToDays(c, cpd)
				assert.InDelta(t, weeks, days/float64(dpw), 0.01, "c=%d cpd=%d dpw=%d", c, cpd, dpw)
			}
		}
	}
}

func TestClassesFor(t *testing.T) {
	s := model.DefaultSettings()
	assert.Equal(t, 3, ClassesFor(2.5, model.UnitClasses, s))
	assert.Equal(t, 8, ClassesFor(1.5, model.UnitDays, s))
	assert.Equal(t, 60, ClassesFor(2, model.UnitWeeks, s))
	assert.Equal(t, 0, ClassesFor(0.4, model.UnitClasses, s))
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{80, 80},
		{1.005, 1.01},
		{2.675, 2.68},
		{66.66666666666667, 66.67},
		{98.46153846153847, 98.46},
		{0.995, 1},
		{-2.345, -2.35},
		{0.1, 0.1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Round2(tc.in), "Round2(%v)", tc.in)
	}
}

func TestZoneFor(t *testing.T) {
	assert.Equal(t, model.ZoneSafe, ZoneFor(75, 75))
	assert.Equal(t, model.ZoneWarning, ZoneFor(72.5, 75))
	assert.Equal(t, model.ZoneWarning, ZoneFor(70, 75))
	assert.Equal(t, model.ZoneDanger, ZoneFor(69.99, 75))
}
