/*------------------------------------------------------------------------------
* time_test.go : time and string function tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/04 1.1  leap second and week rollover tests
*-----------------------------------------------------------------------------*/
package gnssrtk_test

import (
	"math"
	"testing"
	"time"

	"gnssrtk"

	"github.com/stretchr/testify/assert"
)

func epochOf(t gnssrtk.Gtime) [6]float64 {
	var ep [6]float64
	gnssrtk.Time2Epoch(t, ep[:])
	return ep
}

/* Str2Time() */
func Test_Str2Time(t *testing.T) {
	var tm gnssrtk.Gtime
	assert := assert.New(t)

	assert.Less(gnssrtk.Str2Time("", &tm), 0)
	assert.Less(gnssrtk.Str2Time("2004 1 1", &tm), 0)
	assert.Less(gnssrtk.Str2Time("2004 1 1 0 1 x", &tm), 0)

	assert.Equal(0, gnssrtk.Str2Time("2004 1 1 0 1 2.345", &tm))
	ep := epochOf(tm)
	assert.Equal([]float64{2004, 1, 1, 0, 1}, ep[:5])
	assert.InDelta(2.345, ep[5], 1e-12)

	assert.Equal(0, gnssrtk.Str2Time("2004/01/01 00:01:02.345", &tm))
	assert.InDelta(2.345, epochOf(tm)[5], 1e-12)

	assert.Equal(0, gnssrtk.Str2Time("  00 2 3 23 59 59.999", &tm))
	ep = epochOf(tm)
	assert.Equal([]float64{2000, 2, 3, 23, 59}, ep[:5])
	assert.InDelta(59.999, ep[5], 1e-12)

	assert.Equal(0, gnssrtk.Str2Time("80 10 30 6 58 9", &tm))
	assert.Equal([6]float64{1980, 10, 30, 6, 58, 9}, epochOf(tm))

	assert.Equal(0, gnssrtk.Str2Time("37 12 31 1 2 3", &tm))
	assert.Equal([6]float64{2037, 12, 31, 1, 2, 3}, epochOf(tm))
}

/* Epoch2Time(),Time2Epoch() */
func Test_Epoch2Time(t *testing.T) {
	mday := []int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	assert := assert.New(t)

	cases := [][6]float64{
		{1980, 1, 6, 0, 0, 0.0},
		{2004, 2, 28, 2, 0, 59.999999},
		{2004, 2, 29, 2, 0, 30.0},
		{2004, 12, 31, 23, 59, 59.999999},
		{2037, 10, 1, 0, 0, 0.0},
		{2049, 2, 3, 4, 5, 6.0},
		{2099, 12, 31, 23, 59, 59.999999},
	}
	for _, c := range cases {
		ep := epochOf(gnssrtk.Epoch2Time(c[:]))
		assert.Equal(c[:5], ep[:5])
		assert.InDelta(c[5], ep[5], 1e-9)
	}
	/* out of range */
	assert.Equal(gnssrtk.Gtime{}, gnssrtk.Epoch2Time([]float64{1969, 12, 31, 0, 0, 0}))
	assert.Equal(gnssrtk.Gtime{}, gnssrtk.Epoch2Time([]float64{2004, 13, 1, 0, 0, 0}))

	for year := 1970; year <= 2099; year++ {
		if year%4 == 0 {
			mday[1] = 29
		} else {
			mday[1] = 28
		}
		for month := 1; month <= 12; month++ {
			for day := 1; day <= mday[month-1]; day++ {
				ep0 := [6]float64{float64(year), float64(month), float64(day), 0, 0, 0}
				if ep := epochOf(gnssrtk.Epoch2Time(ep0[:])); ep != ep0 {
					assert.Fail("calendar mismatch", "%v != %v", ep, ep0)
				}
			}
		}
	}
}

/* GpsT2Time(),Time2GpsT() */
func Test_GpsT2Time(t *testing.T) {
	var week int
	assert := assert.New(t)

	assert.Equal([6]float64{1980, 1, 6, 0, 0, 0}, epochOf(gnssrtk.GpsT2Time(0, 0.0)))
	assert.Equal([6]float64{2006, 11, 6, 0, 0, 0}, epochOf(gnssrtk.GpsT2Time(1400, 86400.0)))
	assert.Equal([6]float64{2006, 11, 11, 23, 59, 59}, epochOf(gnssrtk.GpsT2Time(1400, 86400.0*7-1.0)))
	assert.Equal([6]float64{2006, 11, 12, 0, 0, 0}, epochOf(gnssrtk.GpsT2Time(1400, 86400.0*7)))
	assert.Equal([6]float64{2006, 11, 12, 0, 0, 0}, epochOf(gnssrtk.GpsT2Time(1401, 0.0)))
	assert.Equal([6]float64{2056, 9, 3, 0, 0, 0}, epochOf(gnssrtk.GpsT2Time(4000, 0.0)))
	assert.Equal([6]float64{2099, 12, 31, 0, 0, 0}, epochOf(gnssrtk.GpsT2Time(6260, 345600.0)))

	for w := 1000; w <= 6260; w += 7 {
		for tow := 0.0; tow < 86400.0*7; tow += 3600.0 {
			tt := gnssrtk.Time2GpsT(gnssrtk.GpsT2Time(w, tow), &week)
			if tt != tow || week != w {
				assert.Fail("week/tow mismatch", "%d %.0f != %d %.0f", week, tt, w, tow)
			}
		}
	}
	/* fractional seconds survive */
	tt := gnssrtk.Time2GpsT(gnssrtk.GpsT2Time(2350, 345600.125), &week)
	assert.Equal(2350, week)
	assert.InDelta(345600.125, tt, 1e-9)

	/* beidou time starts on 2006/1/1 and lags gpst by 14 s */
	assert.Equal([6]float64{2006, 1, 1, 0, 0, 0}, epochOf(gnssrtk.BDT2Time(0, 0.0)))
	bt := gnssrtk.GpsT2BDT(gnssrtk.Epoch2Time([]float64{2006, 1, 1, 0, 0, 14}))
	assert.Equal(0.0, gnssrtk.Time2BDT(bt, &week))
	assert.Equal(0, week)
	assert.Equal(0.0, gnssrtk.TimeDiff(gnssrtk.BDT2GpsT(bt), gnssrtk.Epoch2Time([]float64{2006, 1, 1, 0, 0, 14})))

	/* galileo weeks are gps weeks less 1024 */
	gt := gnssrtk.GsT2Time(2350-1024, 345600.0)
	assert.Equal(0.0, gnssrtk.TimeDiff(gt, gnssrtk.GpsT2Time(2350, 345600.0)))
	assert.Equal(345600.0, gnssrtk.Time2GsT(gt, &week))
	assert.Equal(2350-1024, week)
}

/* TimeAdd(),TimeDiff() */
func Test_TimeAdd(t *testing.T) {
	ep0 := []float64{2003, 12, 31, 23, 59, 59.0}
	ep1 := []float64{2004, 1, 1, 0, 0, 1.0}
	ep2 := []float64{2004, 2, 28, 0, 0, 0.0}
	ep3 := []float64{2004, 2, 29, 0, 0, 0.0}
	ep4 := []float64{2004, 3, 1, 0, 0, 0.0}
	assert := assert.New(t)

	assert.Equal([6]float64{2004, 1, 1, 0, 0, 2}, epochOf(gnssrtk.TimeAdd(gnssrtk.Epoch2Time(ep0), 3.0)))
	assert.Equal([6]float64{2003, 12, 31, 23, 59, 58}, epochOf(gnssrtk.TimeAdd(gnssrtk.Epoch2Time(ep1), -3.0)))
	assert.Equal([6]float64{2004, 2, 29, 0, 0, 0}, epochOf(gnssrtk.TimeAdd(gnssrtk.Epoch2Time(ep2), 86400.0)))
	assert.Equal([6]float64{2004, 3, 1, 0, 0, 0}, epochOf(gnssrtk.TimeAdd(gnssrtk.Epoch2Time(ep2), 86400.0*2)))
	assert.Equal([6]float64{2004, 3, 2, 0, 0, 0}, epochOf(gnssrtk.TimeAdd(gnssrtk.Epoch2Time(ep3), 86400.0*2)))

	/* sub-second part stays in [0,1) */
	tm := gnssrtk.TimeAdd(gnssrtk.Epoch2Time(ep1), -1.25)
	assert.InDelta(0.75, tm.Sec, 1e-12)
	assert.Equal([6]float64{2003, 12, 31, 23, 59, 59.75}, epochOf(tm))

	assert.Equal(2.0, gnssrtk.TimeDiff(gnssrtk.Epoch2Time(ep1), gnssrtk.Epoch2Time(ep0)))
	assert.Equal(-2.0, gnssrtk.TimeDiff(gnssrtk.Epoch2Time(ep0), gnssrtk.Epoch2Time(ep1)))
	assert.Equal(86400.0, gnssrtk.TimeDiff(gnssrtk.Epoch2Time(ep3), gnssrtk.Epoch2Time(ep2)))
	assert.Equal(86400.0*2, gnssrtk.TimeDiff(gnssrtk.Epoch2Time(ep4), gnssrtk.Epoch2Time(ep2)))
	assert.Equal(-86400.0, gnssrtk.TimeDiff(gnssrtk.Epoch2Time(ep3), gnssrtk.Epoch2Time(ep4)))
}

/* GpsT2Utc(),Utc2GpsT() */
func Test_GpsT2Utc(t *testing.T) {
	assert := assert.New(t)

	utc := func(ep ...float64) [6]float64 { return epochOf(gnssrtk.GpsT2Utc(gnssrtk.Epoch2Time(ep))) }

	assert.Equal([6]float64{1980, 1, 6, 0, 0, 0}, utc(1980, 1, 6, 0, 0, 0))
	ep := utc(1992, 7, 1, 0, 0, 6.999999)
	assert.Equal([]float64{1992, 6, 30, 23, 59}, ep[:5])
	assert.InDelta(59.999999, ep[5], 1e-9)
	assert.Equal([6]float64{1992, 7, 1, 0, 0, 0}, utc(1992, 7, 1, 0, 0, 7))
	assert.Equal([6]float64{1992, 7, 1, 0, 0, 0}, utc(1992, 7, 1, 0, 0, 8))
	ep = utc(2004, 12, 31, 23, 59, 59.999999)
	assert.Equal([]float64{2004, 12, 31, 23, 59}, ep[:5])
	assert.InDelta(46.999999, ep[5], 1e-9)
	assert.Equal([6]float64{2005, 12, 31, 23, 59, 47}, utc(2006, 1, 1, 0, 0, 0))
	assert.Equal([6]float64{2037, 12, 31, 23, 59, 42}, utc(2038, 1, 1, 0, 0, 0))

	t0 := gnssrtk.Epoch2Time([]float64{1980, 1, 6, 0, 0, 0})
	t1 := gnssrtk.Epoch2Time([]float64{2025, 12, 31, 23, 59, 59.999999})
	for ; t0.Time < t1.Time; t0 = gnssrtk.TimeAdd(t0, 86400.0*3) {
		if t3 := gnssrtk.GpsT2Utc(gnssrtk.Utc2GpsT(t0)); t3 != t0 {
			assert.Fail("utc round trip", "%s != %s", gnssrtk.TimeStr(t3, 3), gnssrtk.TimeStr(t0, 3))
		}
	}
}

/* TimeStr() */
func Test_TimeStr(t *testing.T) {
	ep0 := []float64{1970, 12, 31, 23, 59, 59.1234567890123456}
	ep1 := []float64{2004, 1, 1, 0, 0, 0.0}
	ep2 := []float64{2006, 2, 28, 23, 59, 59.9999995}
	assert := assert.New(t)

	assert.Equal("1970/12/31 23:59:59", gnssrtk.TimeStr(gnssrtk.Epoch2Time(ep0), 0))
	assert.Equal("1970/12/31 23:59:59", gnssrtk.TimeStr(gnssrtk.Epoch2Time(ep0), -1))
	assert.Equal("1970/12/31 23:59:59.1234567890", gnssrtk.TimeStr(gnssrtk.Epoch2Time(ep0), 10))
	assert.Equal("2004/01/01 00:00:00", gnssrtk.TimeStr(gnssrtk.Epoch2Time(ep1), 0))
	assert.Equal("2004/01/01 00:00:00.000000000000", gnssrtk.TimeStr(gnssrtk.Epoch2Time(ep1), 16))
	assert.Equal("2006/03/01 00:00:00", gnssrtk.TimeStr(gnssrtk.Epoch2Time(ep2), 0))
	assert.Equal("2006/03/01 00:00:00.000000", gnssrtk.TimeStr(gnssrtk.Epoch2Time(ep2), 6))
	assert.Equal("2006/02/28 23:59:59.9999995", gnssrtk.TimeStr(gnssrtk.Epoch2Time(ep2), 7))

	/* parse back what was printed */
	var tm gnssrtk.Gtime
	assert.Equal(0, gnssrtk.Str2Time(gnssrtk.TimeStr(gnssrtk.Epoch2Time(ep0), 3), &tm))
	assert.InDelta(0.123, tm.Sec, 1e-9)
}

/* TimeGet(),TimeSet(),TimeReset() */
func Test_TimeGet(t *testing.T) {
	assert := assert.New(t)

	time1 := gnssrtk.TimeGet()
	time.Sleep(20 * time.Millisecond)
	time2 := gnssrtk.TimeGet()
	assert.Less(gnssrtk.TimeDiff(time1, time2), 0.0)

	/* shifted clock */
	gnssrtk.TimeSet(gnssrtk.TimeAdd(gnssrtk.TimeGet(), 3600.0))
	assert.InDelta(3600.0, gnssrtk.TimeDiff(gnssrtk.TimeGet(), time2), 5.0)
	gnssrtk.TimeReset()
	assert.InDelta(0.0, gnssrtk.TimeDiff(gnssrtk.TimeGet(), time2), 5.0)

	/* 10 bit week number of the current epoch */
	var week int
	gnssrtk.Time2GpsT(gnssrtk.Utc2GpsT(gnssrtk.TimeGet()), &week)
	assert.Equal(week, gnssrtk.AdjGpsWeek(week%1024))
}

/* Time2DayOfYear(),Time2Sec() */
func Test_Time2DayOfYear(t *testing.T) {
	var day gnssrtk.Gtime
	assert := assert.New(t)

	assert.InDelta(1.0, gnssrtk.Time2DayOfYear(gnssrtk.Epoch2Time([]float64{2004, 1, 1, 0, 0, 0})), 1e-6)
	assert.InDelta(366.0, gnssrtk.Time2DayOfYear(gnssrtk.Epoch2Time([]float64{2004, 12, 31, 0, 0, 0})), 1e-6)
	assert.InDelta(365.5, gnssrtk.Time2DayOfYear(gnssrtk.Epoch2Time([]float64{2005, 12, 31, 12, 0, 0})), 1e-6)

	sec := gnssrtk.Time2Sec(gnssrtk.Epoch2Time([]float64{2004, 1, 1, 12, 30, 15.5}), &day)
	assert.InDelta(45015.5, sec, 1e-9)
	assert.Equal([6]float64{2004, 1, 1, 0, 0, 0}, epochOf(day))
}

/* Deg2Dms(),Dms2Deg() */
func Test_Deg2Dms(t *testing.T) {
	var dms [3]float64
	assert := assert.New(t)

	gnssrtk.Deg2Dms(35.5, dms[:], 5)
	assert.Equal([3]float64{35, 30, 0}, dms)

	gnssrtk.Deg2Dms(-139.25, dms[:], 5)
	assert.Equal([3]float64{-139, 15, 0}, dms)
	assert.Equal(-139.25, gnssrtk.Dms2Deg(dms[:]))

	/* seconds rounded up to the next degree */
	gnssrtk.Deg2Dms(10.99999999999, dms[:], 4)
	assert.Equal([3]float64{11, 0, 0}, dms)

	for _, deg := range []float64{0.0, 12.3456789, -45.0001, 179.987654} {
		gnssrtk.Deg2Dms(deg, dms[:], 8)
		assert.InDelta(deg, gnssrtk.Dms2Deg(dms[:]), 1e-10)
		assert.Less(math.Abs(dms[2]), 60.0)
	}
}
