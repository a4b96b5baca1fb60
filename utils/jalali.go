package utils

import (
	"errors"
	"fmt"
	"time"
)

// Jalali (solar hijri) <-> Gregorian conversion. Ported from the jalaali
// arithmetic calendar algorithm; valid for jalali years 1178..3177.
//
// Invoices store both date representations: the Gregorian one drives every
// calculation, the jalali string is display-grade and derived from it here,
// so the two can never drift apart.

var jalaliBreaks = []int{
	-61, 9, 38, 199, 426, 686, 756, 818, 1111, 1181, 1210,
	1635, 2060, 2097, 2192, 2262, 2324, 2394, 2456, 3178,
}

// GregorianToJalaliString formats t's date as "YYYY/MM/DD" in the jalali
// calendar. Zero time yields "".
func GregorianToJalaliString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	jy, jm, jd := GregorianToJalali(t.Year(), int(t.Month()), t.Day())
	return fmt.Sprintf("%04d/%02d/%02d", jy, jm, jd)
}

// JalaliStringToGregorian parses a "YYYY/MM/DD" jalali date string and
// returns the equivalent Gregorian date at midnight UTC.
func JalaliStringToGregorian(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty jalali date string")
	}
	var jy, jm, jd int
	if _, err := fmt.Sscanf(s, "%d/%d/%d", &jy, &jm, &jd); err != nil {
		return time.Time{}, fmt.Errorf("invalid jalali date %q: %w", s, err)
	}
	if jm < 1 || jm > 12 || jd < 1 || jd > 31 {
		return time.Time{}, fmt.Errorf("invalid jalali date %q", s)
	}
	gy, gm, gd := JalaliToGregorian(jy, jm, jd)
	return time.Date(gy, time.Month(gm), gd, 0, 0, 0, 0, time.UTC), nil
}

func GregorianToJalali(gy, gm, gd int) (int, int, int) {
	return d2j(g2d(gy, gm, gd))
}

func JalaliToGregorian(jy, jm, jd int) (int, int, int) {
	return d2g(j2d(jy, jm, jd))
}

// jalCal determines leap status, the matching Gregorian year and the march
// day on which the given jalali year starts.
func jalCal(jy int) (leap, gy, march int) {
	bl := len(jalaliBreaks)
	gy = jy + 621
	leapJ := -14
	jp := jalaliBreaks[0]
	jump := 0

	for i := 1; i < bl; i++ {
		jm := jalaliBreaks[i]
		jump = jm - jp
		if jy < jm {
			break
		}
		leapJ += jump/33*8 + jump%33/4
		jp = jm
	}
	n := jy - jp

	leapJ += n/33*8 + (n%33+3)/4
	if jump%33 == 4 && jump-n == 4 {
		leapJ++
	}

	leapG := gy/4 - (gy/100+1)*3/4 - 150
	march = 20 + leapJ - leapG

	if jump-n < 6 {
		n = n - jump + (jump+4)/33*33
	}
	leap = ((n+1)%33 - 1) % 4
	if leap == -1 {
		leap = 4
	}
	return leap, gy, march
}

func j2d(jy, jm, jd int) int {
	_, gy, march := jalCal(jy)
	return g2d(gy, 3, march) + (jm-1)*31 - jm/7*(jm-7) + jd - 1
}

func d2j(jdn int) (int, int, int) {
	gy, _, _ := d2g(jdn)
	jy := gy - 621
	leap, _, march := jalCal(jy)
	jdn1f := g2d(gy, 3, march)

	k := jdn - jdn1f
	if k >= 0 {
		if k <= 185 {
			return jy, 1 + k/31, k%31 + 1
		}
		k -= 186
		return jy, 7 + k/30, k%30 + 1
	}
	jy--
	k += 179
	if leap == 1 {
		k++
	}
	return jy, 7 + k/30, k%30 + 1
}

func g2d(gy, gm, gd int) int {
	d := (gy+(gm-8)/6+100100)*1461/4 + (153*((gm+9)%12)+2)/5 + gd - 34840408
	d = d - (gy+100100+(gm-8)/6)/100*3/4 + 752
	return d
}

func d2g(jdn int) (int, int, int) {
	j := 4*jdn + 139361631
	j = j + (4*jdn+183187720)/146097*3/4*4 - 3908
	i := j%1461/4*5 + 308
	gd := i%153/5 + 1
	gm := i/153%12 + 1
	gy := j/1461 - 100100 + (8-gm)/6
	return gy, gm, gd
}
