package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGregorianToJalaliAnchors(t *testing.T) {
	cases := []struct {
		gy, gm, gd int
		jy, jm, jd int
	}{
		{2025, 3, 21, 1404, 1, 1},
		{2024, 3, 20, 1403, 1, 1},
		{2025, 9, 1, 1404, 6, 10},
		{2026, 9, 1, 1405, 6, 10},
		{2024, 3, 19, 1402, 12, 29},
	}
	for _, c := range cases {
		jy, jm, jd := GregorianToJalali(c.gy, c.gm, c.gd)
		assert.Equal(t, [3]int{c.jy, c.jm, c.jd}, [3]int{jy, jm, jd},
			"gregorian %d-%d-%d", c.gy, c.gm, c.gd)
	}
}

func TestJalaliToGregorianAnchors(t *testing.T) {
	gy, gm, gd := JalaliToGregorian(1404, 1, 1)
	assert.Equal(t, [3]int{2025, 3, 21}, [3]int{gy, gm, gd})

	gy, gm, gd = JalaliToGregorian(1404, 6, 10)
	assert.Equal(t, [3]int{2025, 9, 1}, [3]int{gy, gm, gd})
}

func TestJalaliRoundTrip(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 1100; day += 13 {
		g := start.AddDate(0, 0, day)
		jy, jm, jd := GregorianToJalali(g.Year(), int(g.Month()), g.Day())
		gy, gm, gd := JalaliToGregorian(jy, jm, jd)
		assert.Equal(t, [3]int{g.Year(), int(g.Month()), g.Day()}, [3]int{gy, gm, gd})
	}
}

func TestJalaliStringConversions(t *testing.T) {
	date, err := JalaliStringToGregorian("1404/06/10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), date)

	assert.Equal(t, "1404/06/10", GregorianToJalaliString(date))
	assert.Equal(t, "", GregorianToJalaliString(time.Time{}))
}

func TestJalaliStringToGregorianRejectsBadInput(t *testing.T) {
	for _, s := range []string{"", "not-a-date", "1404/13/01", "1404/06/40"} {
		_, err := JalaliStringToGregorian(s)
		assert.Error(t, err, "input %q", s)
	}
}
