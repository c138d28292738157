/*------------------------------------------------------------------------------
* solution_test.go : solution buffer and output format tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2025/03/04 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"gnssrtk"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* fixed solution at 35N 139E 50m, 2025/03/02 12:00:00 utc */
func solAt(pos []float64) gnssrtk.Sol {
	sol := gnssrtk.Sol{Stat: gnssrtk.SOLQ_FIX, Ns: 8}
	sol.Time = gnssrtk.Utc2GpsT(gnssrtk.Epoch2Time([]float64{2025, 3, 2, 12, 0, 0}))
	gnssrtk.Pos2Ecef(pos, sol.Rr[:])
	return sol
}

func checksum(s string) string {
	var sum uint8
	for i := 1; i < len(s); i++ {
		sum ^= s[i]
	}
	return fmt.Sprintf("*%02X\r\n", sum)
}

func Test_SolBuf(t *testing.T) {
	assert := assert.New(t)

	_, err := gnssrtk.NewSolBuf(0)
	assert.True(errors.Is(err, gnssrtk.ErrBufferCapacity))

	b, err := gnssrtk.NewSolBuf(3)
	require.NoError(t, err)
	assert.Equal(3, b.Cap())
	assert.Nil(b.GetSol(0))
	assert.Nil(b.Recent(2))

	for i := 1; i <= 5; i++ {
		b.AddSol(&gnssrtk.Sol{Ns: uint8(i)})
	}
	assert.Equal(3, b.N())
	assert.Equal(uint8(3), b.GetSol(0).Ns)
	assert.Equal(uint8(5), b.GetSol(2).Ns)
	assert.Nil(b.GetSol(3))
	assert.Nil(b.GetSol(-1))

	r := b.Recent(2)
	require.Len(t, r, 2)
	assert.Equal(uint8(4), r[0].Ns)
	assert.Equal(uint8(5), r[1].Ns)
	assert.Len(b.Recent(10), 3)

	/* copies, not references */
	r[1].Ns = 99
	assert.Equal(uint8(5), b.GetSol(2).Ns)

	b.Clear()
	assert.Zero(b.N())
	assert.Nil(b.GetSol(0))
}

func Test_SolBufMeanPos(t *testing.T) {
	assert := assert.New(t)
	b, _ := gnssrtk.NewSolBuf(8)
	var rr [3]float64

	assert.Zero(b.MeanPos(4, rr[:]))
	b.AddSol(&gnssrtk.Sol{Stat: gnssrtk.SOLQ_NONE, Rr: [6]float64{1e6, 1e6, 1e6}})
	b.AddSol(&gnssrtk.Sol{Stat: gnssrtk.SOLQ_SINGLE, Rr: [6]float64{1.0, 2.0, 3.0}})
	b.AddSol(&gnssrtk.Sol{Stat: gnssrtk.SOLQ_FLOAT, Rr: [6]float64{3.0, 4.0, 5.0}})
	b.AddSol(&gnssrtk.Sol{Stat: gnssrtk.SOLQ_FIX, Rr: [6]float64{100.0, 100.0, 100.0}})

	assert.Equal(2, b.MeanPos(2, rr[:]))
	assert.Equal([3]float64{2.0, 3.0, 4.0}, rr)
	assert.Equal(3, b.MeanPos(10, rr[:]))
}

func Test_SolStd(t *testing.T) {
	assert := assert.New(t)
	sol := gnssrtk.Sol{Qr: [6]float32{4.0, 9.0, 1.0, 0.5, -0.25, 0.1}}
	var P [9]float64

	assert.InDelta(3.0, sol.SolStd(), 1e-6)
	sol.Sol2Cov(P[:])
	assert.InDelta(4.0, P[0], 1e-6)
	assert.InDelta(9.0, P[4], 1e-6)
	assert.InDelta(1.0, P[8], 1e-6)
	for _, ij := range [][2]int{{1, 3}, {2, 6}, {5, 7}} {
		assert.Equal(P[ij[0]], P[ij[1]])
	}
	assert.InDelta(0.5, P[1], 1e-6)
}

func Test_OutNmea(t *testing.T) {
	assert := assert.New(t)
	const D2R = gnssrtk.D2R

	/* no solution gives empty sentences */
	var none gnssrtk.Sol
	gga := none.OutNmeaGga()
	assert.Equal("$GPGGA,,,,,,,,,,,,,,"+checksum("$GPGGA,,,,,,,,,,,,,,"), gga)
	rmc := none.OutNmeaRmc()
	assert.Equal("$GPRMC,,,,,,,,,,,,"+checksum("$GPRMC,,,,,,,,,,,,"), rmc)

	sol := solAt([]float64{35.0 * D2R, 139.0 * D2R, 50.0})
	gga = sol.OutNmeaGga()
	body := "$GPGGA,120000.00,3500.0000000,N,13900.0000000,E,4,08,1.0,50.000,M,0.000,M,0.0,0000"
	assert.Equal(body+checksum(body), gga)

	rmc = sol.OutNmeaRmc()
	body = "$GPRMC,120000.00,A,3500.0000000,N,13900.0000000,E,0.00,0.00,020325,0.0,E,R"
	assert.Equal(body+checksum(body), rmc)

	/* southern and western hemispheres */
	sol = solAt([]float64{-35.5 * D2R, -139.25 * D2R, 50.0})
	sol.Stat = gnssrtk.SOLQ_SINGLE
	gga = sol.OutNmeaGga()
	assert.True(strings.HasPrefix(gga, "$GPGGA,120000.00,3530.0000000,S,13915.0000000,W,1,08,"), gga)

	quality := map[uint8]string{
		gnssrtk.SOLQ_DGPS: ",2,", gnssrtk.SOLQ_PPP: ",3,", gnssrtk.SOLQ_FLOAT: ",5,",
	}
	for stat, q := range quality {
		sol.Stat = stat
		assert.Contains(sol.OutNmeaGga(), ",W"+q)
	}
}

func Test_OutSols(t *testing.T) {
	assert := assert.New(t)
	const D2R = gnssrtk.D2R
	pos := []float64{35.0 * D2R, 139.0 * D2R, 50.0}
	sol := solAt(pos)
	opt := gnssrtk.DefaultSolOpt()
	opt.TimeF = 0

	var week int
	tow := gnssrtk.Time2GpsT(sol.Time, &week)
	prefix := fmt.Sprintf("%4d %10.3f ", week, tow)

	/* lat/lon/height */
	line := sol.OutSols(nil, &opt)
	assert.True(strings.HasPrefix(line, prefix), line)
	assert.True(strings.HasSuffix(line, "\r\n"))
	f := strings.Fields(line)
	require.GreaterOrEqual(t, len(f), 7)
	assert.Equal("35.000000000", f[2])
	assert.Equal("139.000000000", f[3])
	assert.Equal("50.0000", f[4])
	assert.Equal(fmt.Sprint(gnssrtk.SOLQ_FIX), f[5])
	assert.Equal("8", f[6])

	/* x/y/z-ecef */
	opt.Posf = gnssrtk.SOLF_XYZ
	f = strings.Fields(sol.OutSols(nil, &opt))
	assert.Equal(fmt.Sprintf("%.4f", sol.Rr[0]), f[2])
	assert.Equal(fmt.Sprintf("%.4f", sol.Rr[2]), f[4])

	/* e/n/u-baseline */
	opt.Posf = gnssrtk.SOLF_ENU
	assert.Empty(sol.OutSols([]float64{0, 0, 0}, &opt))
	var rb, dr [3]float64
	gnssrtk.Pos2Ecef(pos, rb[:])
	gnssrtk.Enu2Ecef(pos, []float64{3.0, 4.0, 1.0}, dr[:])
	for i := 0; i < 3; i++ {
		sol.Rr[i] = rb[i] + dr[i]
	}
	f = strings.Fields(sol.OutSols(rb[:], &opt))
	assert.Equal([]string{"3.0000", "4.0000", "1.0000"}, f[2:5])

	/* time string and separator */
	opt.Posf = gnssrtk.SOLF_XYZ
	opt.TimeF, opt.Sep = 1, ","
	line = sol.OutSols(nil, &opt)
	assert.True(strings.HasPrefix(line, gnssrtk.TimeStr(sol.Time, 3)+","), line)

	/* nmea */
	opt.Posf = gnssrtk.SOLF_NMEA
	line = sol.OutSols(nil, &opt)
	assert.True(strings.HasPrefix(line, "$GPRMC"))
	assert.Contains(line, "\r\n$GPGGA")
	opt.NmeaIntv[0] = -1.0
	assert.Empty(sol.OutSols(nil, &opt))

	/* suppressed */
	opt = gnssrtk.DefaultSolOpt()
	opt.MaxSolStd = 1.0
	sol.Qr[2] = 4.0
	assert.Empty(sol.OutSols(nil, &opt))
	opt.MaxSolStd = 0.0
	assert.NotEmpty(sol.OutSols(nil, &opt))
	sol.Stat = gnssrtk.SOLQ_NONE
	assert.Empty(sol.OutSols(nil, &opt))
}

func Test_OutSolHead(t *testing.T) {
	assert := assert.New(t)
	opt := gnssrtk.DefaultSolOpt()

	head := crlfLines(gnssrtk.OutSolHead(&opt))
	require.Len(t, head, 3)
	assert.Contains(head[0], opt.Prog)
	assert.Contains(head[1], "lat/lon/height")
	assert.Contains(head[2], "latitude(deg)")
	for _, h := range head {
		assert.True(strings.HasPrefix(h, gnssrtk.COMMENTH))
	}

	opt.Posf, opt.OutHead = gnssrtk.SOLF_XYZ, 0
	head = crlfLines(gnssrtk.OutSolHead(&opt))
	require.Len(t, head, 1)
	assert.Contains(head[0], "x-ecef(m)")

	opt.Posf = gnssrtk.SOLF_NMEA
	assert.Empty(gnssrtk.OutSolHead(&opt))
	opt.Posf = gnssrtk.SOLF_STAT
	assert.Empty(gnssrtk.OutSolHead(&opt))
}

func crlfLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\r\n"), "\r\n")
}

func Test_RtkOutStat(t *testing.T) {
	assert := assert.New(t)
	opt := gnssrtk.DefaultProcOpt()
	rtk := gnssrtk.NewRtk(&opt)

	assert.Empty(rtk.RtkOutStat())
	assert.Zero(rtk.BaseLineLen())

	pos := []float64{35.0 * gnssrtk.D2R, 139.0 * gnssrtk.D2R, 50.0}
	rtk.RtkSol = solAt(pos)
	rtk.RtkSol.Stat = gnssrtk.SOLQ_SINGLE
	rtk.RtkSol.Dtr[0] = 1e-6
	rtk.Ssat[4].Vs = 1
	rtk.Ssat[4].Azel = [2]float64{90.0 * gnssrtk.D2R, 45.0 * gnssrtk.D2R}

	lines := strings.Split(strings.TrimSuffix(rtk.RtkOutStat(), "\n"), "\n")
	require.Len(t, lines, 2+opt.Nf)
	assert.True(strings.HasPrefix(lines[0], "$POS,"))
	assert.Contains(lines[0], fmt.Sprintf("%.4f", rtk.RtkSol.Rr[0]))
	assert.True(strings.HasPrefix(lines[1], "$CLK,"))
	assert.Contains(lines[1], ",1000.000,")
	assert.Contains(lines[2], ",G05,1,90.0,45.0,")
	assert.Contains(lines[3], ",G05,2,")

	/* baseline length in km */
	gnssrtk.Pos2Ecef(pos, rtk.Rb[:])
	rtk.RtkSol.Rr[0] = rtk.Rb[0] + 3.0
	rtk.RtkSol.Rr[1] = rtk.Rb[1] + 4.0
	rtk.RtkSol.Rr[2] = rtk.Rb[2] + 1.0
	assert.InDelta(math.Sqrt(26.0)*1e-3, rtk.BaseLineLen(), 1e-9)
}
