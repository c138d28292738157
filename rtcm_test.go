/*------------------------------------------------------------------------------
* rtcm_test.go : rtcm 2/3 encoder and decoder tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2025/03/04 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk_test

import (
	"math"
	"testing"

	"gnssrtk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rtcmSats = []int{3, 7, 12, 25}

/* dual frequency gps observations with carrier-phase close to pseudorange */
func rtcmObs(t gnssrtk.Gtime) []gnssrtk.ObsD {
	lam1, lam2 := gnssrtk.CLIGHT/gnssrtk.FREQ1, gnssrtk.CLIGHT/gnssrtk.FREQ2
	data := make([]gnssrtk.ObsD, 0, len(rtcmSats))
	for i, sat := range rtcmSats {
		o := gnssrtk.ObsD{Time: t, Sat: sat}
		o.P[0] = 2.1e7 + 1.0e5*float64(i) + 0.123
		o.P[1] = o.P[0] + 3.21
		o.L[0] = o.P[0]/lam1 + 10.3 + float64(i)
		o.L[1] = o.P[0]/lam2 + 5.7 - float64(i)
		o.Code[0], o.Code[1] = gnssrtk.CODE_L1C, gnssrtk.CODE_L2W
		o.SNR[0], o.SNR[1] = 45000, 42000
		data = append(data, o)
	}
	return data
}

func rtcmEph() gnssrtk.Eph {
	toe := gnssrtk.GpsT2Time(simWeek, simTow)
	return gnssrtk.Eph{
		Sat: 5, Iode: 7, Iodc: 7, Sva: 2, Code: 1,
		Week: simWeek, Toe: toe, Toc: toe, Toes: simTow,
		A: 26559710.0, E: 0.01, I0: 0.96, OMG0: -2.0, Omg: 0.5, M0: 1.0,
		Deln: 4.5e-9, OMGd: -8.0e-9, Idot: 1.0e-10,
		Crc: 200.0, Crs: 10.5, Cuc: 1.0e-6, Cus: 5.0e-6, Cic: 1.0e-7, Cis: -1.0e-7,
		F0: 1.0e-5, F1: 1.0e-12, Fit: 4.0,
		Tgd: [4]float64{-1.0e-8},
	}
}

/* decode bytes and collect the events */
func decodeAll(dec gnssrtk.Decoder, buff []byte) []int {
	var events []int
	gnssrtk.DecodeBytes(dec, buff, func(ret int) { events = append(events, ret) })
	return events
}

func gen3(t *testing.T, enc *gnssrtk.Rtcm, ctype, sync int) []byte {
	t.Helper()
	require.Equal(t, 1, enc.GenRtcm3(ctype, sync), "type %d", ctype)
	return enc.Frame()
}

func Test_Rtcm3Type1004(t *testing.T) {
	assert := assert.New(t)
	t0 := gnssrtk.GpsT2Time(simWeek, simTow)

	enc := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	enc.StaId = 100
	enc.Epoch.Data = rtcmObs(t0)
	frame := gen3(t, enc, 1004, 0)
	assert.Equal(byte(gnssrtk.RTCM3PREAMB), frame[0])

	dec := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	dec.Time = t0
	assert.Equal([]int{gnssrtk.DEC_OBS}, decodeAll(dec, frame))
	assert.Equal(100, dec.StaId)
	assert.Equal(uint32(1), dec.Counts()[4])

	lam1, lam2 := gnssrtk.CLIGHT/gnssrtk.FREQ1, gnssrtk.CLIGHT/gnssrtk.FREQ2
	src := rtcmObs(t0)
	obs := dec.ObsData().Data
	require.Len(t, obs, len(src))
	for i := range src {
		d := obs[i]
		assert.Equal(src[i].Sat, d.Sat)
		assert.InDelta(0.0, gnssrtk.TimeDiff(d.Time, t0), 1e-9)
		assert.InDelta(src[i].P[0], d.P[0], 0.011)
		assert.InDelta(src[i].P[1], d.P[1], 0.021)
		assert.InDelta(src[i].L[0], d.L[0], 0.0003/lam1+1e-6)
		assert.InDelta(src[i].L[1], d.L[1], 0.0003/lam2+0.011/lam2)
		assert.Equal(uint8(gnssrtk.CODE_L1C), d.Code[0])
		assert.Equal(uint8(gnssrtk.CODE_L2W), d.Code[1])
		assert.Equal(uint16(45000), d.SNR[0])
		assert.Equal(uint16(42000), d.SNR[1])
		/* lock time 0 at first epoch */
		assert.NotZero(d.LLI[0] & gnssrtk.LLI_SLIP)
	}

	/* next epoch: lock continues */
	t1 := gnssrtk.TimeAdd(t0, 1.0)
	enc.Epoch.Data = rtcmObs(t1)
	assert.Equal([]int{gnssrtk.DEC_OBS}, decodeAll(dec, gen3(t, enc, 1004, 0)))
	for _, d := range dec.ObsData().Data {
		assert.InDelta(0.0, gnssrtk.TimeDiff(d.Time, t1), 1e-9)
		assert.Zero(d.LLI[0] & gnssrtk.LLI_SLIP)
		assert.Zero(d.LLI[1] & gnssrtk.LLI_SLIP)
	}
}

func Test_Rtcm3EpochFlush(t *testing.T) {
	assert := assert.New(t)
	t0 := gnssrtk.GpsT2Time(simWeek, simTow)
	t1 := gnssrtk.TimeAdd(t0, 1.0)

	enc := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	dec := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	dec.Time = t0

	/* sync flag set: the epoch completes on the next timestamp */
	enc.Epoch.Data = rtcmObs(t0)
	buff := gen3(t, enc, 1004, 1)
	enc.Epoch.Data = rtcmObs(t1)
	buff = append(buff, gen3(t, enc, 1004, 0)...)

	var times []gnssrtk.Gtime
	var events []int
	gnssrtk.DecodeBytes(dec, buff, func(ret int) {
		events = append(events, ret)
		times = append(times, dec.ObsData().Data[0].Time)
	})
	assert.Equal([]int{gnssrtk.DEC_OBS, gnssrtk.DEC_OBS}, events)
	assert.InDelta(0.0, gnssrtk.TimeDiff(times[0], t0), 1e-9)
	assert.InDelta(0.0, gnssrtk.TimeDiff(times[1], t1), 1e-9)
	assert.Len(dec.ObsData().Data, len(rtcmSats))
}

func Test_Rtcm3Type1005(t *testing.T) {
	assert := assert.New(t)

	enc := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	enc.StaId = 2001
	enc.StaPara.Pos = [3]float64{-3961904.9123, 3348993.7654, 3698211.8321}
	enc.StaPara.Hgt = 1.5
	buff := gen3(t, enc, 1005, 0)
	buff = append(buff, gen3(t, enc, 1006, 0)...)

	dec := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	assert.Equal([]int{gnssrtk.DEC_STA, gnssrtk.DEC_STA}, decodeAll(dec, buff))
	sta := dec.Station()
	assert.Equal("2001", sta.Name)
	for i := 0; i < 3; i++ {
		assert.InDelta(enc.StaPara.Pos[i], sta.Pos[i], 2e-4)
	}
	assert.InDelta(1.5, sta.Hgt, 1e-4)
	assert.Equal(uint32(1), dec.Counts()[5])
	assert.Equal(uint32(1), dec.Counts()[6])

	/* station id filter */
	dec = gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "-STA=2002")
	assert.Equal([]int{gnssrtk.DEC_ERROR, gnssrtk.DEC_ERROR}, decodeAll(dec, buff))
	assert.Zero(dec.Station().Pos[0])
}

func Test_Rtcm3Type1019(t *testing.T) {
	assert := assert.New(t)
	src := rtcmEph()

	enc := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	enc.NavData.AddEph(&src)
	enc.EphNum = src.Sat
	frame := gen3(t, enc, 1019, 0)

	dec := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	dec.Time = gnssrtk.TimeAdd(src.Toe, -600.0)
	assert.Equal([]int{gnssrtk.DEC_EPH}, decodeAll(dec, frame))
	assert.Equal(src.Sat, dec.EphSat())

	seq := dec.Nav().Eph[src.Sat]
	require.Len(t, seq, 1)
	eph := seq[0]
	assert.Equal(simWeek, eph.Week)
	assert.Equal(src.Iode, eph.Iode)
	assert.Equal(src.Iodc, eph.Iodc)
	assert.Equal(src.Sva, eph.Sva)
	assert.Equal(src.Code, eph.Code)
	assert.Zero(gnssrtk.TimeDiff(eph.Toe, src.Toe))
	assert.Zero(gnssrtk.TimeDiff(eph.Toc, src.Toc))
	assert.Zero(gnssrtk.TimeDiff(eph.Ttr, dec.Time))
	assert.Equal(src.Toes, eph.Toes)
	assert.InDelta(src.A, eph.A, 0.05)
	assert.InDelta(src.E, eph.E, 1e-9)
	assert.InDelta(src.I0, eph.I0, 1e-8)
	assert.InDelta(src.OMG0, eph.OMG0, 1e-8)
	assert.InDelta(src.Omg, eph.Omg, 1e-8)
	assert.InDelta(src.M0, eph.M0, 1e-8)
	assert.InDelta(src.Deln, eph.Deln, 1e-12)
	assert.InDelta(src.OMGd, eph.OMGd, 1e-12)
	assert.InDelta(src.Idot, eph.Idot, 1e-12)
	assert.InDelta(src.Crc, eph.Crc, 0.032)
	assert.InDelta(src.Crs, eph.Crs, 0.032)
	assert.InDelta(src.Cuc, eph.Cuc, 1e-8)
	assert.InDelta(src.Cis, eph.Cis, 1e-8)
	assert.InDelta(src.F0, eph.F0, 1e-9)
	assert.InDelta(src.F1, eph.F1, 1e-12)
	assert.InDelta(src.Tgd[0], eph.Tgd[0], 1e-9)
	assert.Equal(4.0, eph.Fit)

	/* unchanged ephemeris is not reported again unless -EPHALL */
	assert.Empty(decodeAll(dec, frame))
	all := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "-EPHALL")
	all.Time = dec.Time
	assert.Equal([]int{gnssrtk.DEC_EPH, gnssrtk.DEC_EPH}, decodeAll(all, append(append([]byte(nil), frame...), frame...)))

	/* no gps ephemeris to encode */
	enc.EphNum = 40
	assert.Equal(0, enc.GenRtcm3(1019, 0))
	assert.Equal(0, enc.GenRtcm3(1234, 0))
}

func Test_Rtcm3Resync(t *testing.T) {
	assert := assert.New(t)

	enc := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	enc.StaId = 7
	enc.StaPara.Pos = [3]float64{-3961904.9, 3348993.8, 3698211.8}
	frame := gen3(t, enc, 1005, 0)

	/* garbage with false preambles between frames */
	garbage := [][]byte{
		{0x00, 0x11},
		{0xD3, 0x00, 0x40, 0x12},
		{0xD3, 0xFF, 0x11},
		{0xD3, 0x00, 0x05, 0x3E, 0xD3},
		{},
	}
	var buff []byte
	for _, g := range garbage {
		buff = append(buff, g...)
		buff = append(buff, frame...)
	}
	dec := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	events := decodeAll(dec, buff)
	assert.Len(events, len(garbage))
	for _, ev := range events {
		assert.Equal(gnssrtk.DEC_STA, ev)
	}
	crc, resync := dec.Errors()
	assert.Greater(crc, uint32(0))
	assert.Greater(resync, uint32(0))

	/* a corrupted frame is dropped, its neighbours survive */
	bad := append([]byte(nil), frame...)
	bad[10] ^= 0x5A
	buff = append(append(append([]byte(nil), frame...), bad...), frame...)
	dec = gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	assert.Equal([]int{gnssrtk.DEC_STA, gnssrtk.DEC_STA}, decodeAll(dec, buff))
	crc, _ = dec.Errors()
	assert.GreaterOrEqual(crc, uint32(1))

	/* split input keeps partial frames */
	dec = gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	assert.Empty(decodeAll(dec, frame[:7]))
	assert.Equal([]int{gnssrtk.DEC_STA}, decodeAll(dec, frame[7:]))
}

func Test_Rtcm2RoundTrip(t *testing.T) {
	assert := assert.New(t)
	t0 := gnssrtk.GpsT2Time(simWeek, simTow+1234.0)

	enc := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM2, "")
	enc.StaId = 10
	enc.Time = t0
	enc.StaPara.Pos = [3]float64{-3961904.91, 3348993.77, 3698211.83}
	enc.Epoch.Data = rtcmObs(t0)

	var buff []byte
	for _, m := range []struct{ ctype, freq, sync int }{
		{3, 0, 0}, {18, 0, 1}, {18, 1, 1}, {19, 0, 1}, {19, 1, 0},
	} {
		require.Equal(t, 1, enc.GenRtcm2(m.ctype, m.freq, m.sync))
		frame := enc.Frame()
		for _, c := range frame {
			assert.Equal(byte(0x40), c&0xC0)
		}
		buff = append(buff, frame...)
	}
	dec := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM2, "")
	dec.Time = t0
	assert.Equal([]int{gnssrtk.DEC_STA, gnssrtk.DEC_OBS}, decodeAll(dec, buff))
	assert.Equal(10, dec.StaId)
	for i := 0; i < 3; i++ {
		assert.InDelta(enc.StaPara.Pos[i], dec.Station().Pos[i], 0.006)
	}
	counts := dec.Counts()
	assert.Equal(uint32(1), counts[3])
	assert.Equal(uint32(2), counts[18])
	assert.Equal(uint32(2), counts[19])

	src := rtcmObs(t0)
	obs := dec.ObsData().Data
	require.Len(t, obs, len(src))
	for i := range src {
		d := obs[i]
		assert.Equal(src[i].Sat, d.Sat)
		assert.InDelta(0.0, gnssrtk.TimeDiff(d.Time, t0), 1e-6)
		assert.InDelta(src[i].P[0], d.P[0], 0.011)
		assert.InDelta(src[i].P[1], d.P[1], 0.011)
		for f := 0; f < 2; f++ {
			/* phase is sent modulo 2^24 cycles */
			assert.InDelta(0.0, math.Remainder(d.L[f]-src[i].L[f], 16777216.0), 1.0/256.0)
		}
		assert.Equal(uint8(gnssrtk.CODE_L1C), d.Code[0])
		assert.Equal(uint8(gnssrtk.CODE_L2P), d.Code[1])
		assert.Zero(d.LLI[0])
	}

	/* unsupported frequency index */
	assert.Equal(0, enc.GenRtcm2(18, 2, 0))
}

func Test_Rtcm2Parity(t *testing.T) {
	assert := assert.New(t)

	enc := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM2, "")
	enc.StaId = 11
	enc.Time = gnssrtk.GpsT2Time(simWeek, simTow)
	enc.StaPara.Pos = [3]float64{-3961904.91, 3348993.77, 3698211.83}
	require.Equal(t, 1, enc.GenRtcm2(3, 0, 0))
	good := enc.Frame()

	/* flip a data bit in the third word */
	bad := append([]byte(nil), good...)
	bad[12] ^= 0x04
	dec := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM2, "")
	dec.Time = enc.Time
	assert.Empty(decodeAll(dec, bad))
	crc, _ := dec.Errors()
	assert.GreaterOrEqual(crc, uint32(1))
}

func Test_RtcmHelpers(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint16(45000), gnssrtk.SnRatio(45.0))
	assert.Zero(gnssrtk.SnRatio(0.0))
	assert.Zero(gnssrtk.SnRatio(100.0))

	rtcm := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	assert.Equal(100.0, rtcm.AdjCP(5, 0, 100.0))
	assert.Equal(1400.0-1500.0, rtcm.AdjCP(5, 0, 1400.0))
	assert.Equal(1500.0-1400.0+0.5, rtcm.AdjCP(5, 0, -1399.5))

	assert.Equal(gnssrtk.LLI_SLIP, rtcm.LossOfLock(5, 0, 0))
	assert.Zero(rtcm.LossOfLock(5, 0, 10))
	assert.Zero(rtcm.LossOfLock(5, 0, 12))
	assert.Equal(gnssrtk.LLI_SLIP, rtcm.LossOfLock(5, 0, 3))

	/* week of a time of week next to the reference time */
	var week int
	rtcm.Time = gnssrtk.GpsT2Time(simWeek, 604000.0)
	rtcm.AdjWeek(100.0)
	tow := gnssrtk.Time2GpsT(rtcm.Time, &week)
	assert.Equal(simWeek+1, week)
	assert.Equal(100.0, tow)

	rtcm.Time = gnssrtk.GpsT2Time(simWeek, 3590.0)
	rtcm.AdjHour(10.0)
	assert.Equal(3610.0, gnssrtk.Time2GpsT(rtcm.Time, &week))
}

/* bit writer building rtcm3 frames by hand */
type bitWriter struct {
	buff []byte
	pos  int
}

func newFrameWriter(ctype int) *bitWriter {
	w := &bitWriter{buff: make([]byte, 1024)}
	w.u(8, gnssrtk.RTCM3PREAMB)
	w.u(16, 0) /* reserved and length */
	w.u(12, uint32(ctype))
	return w
}

func (w *bitWriter) u(n int, v uint32) { gnssrtk.SetBitU(w.buff, w.pos, n, v); w.pos += n }
func (w *bitWriter) s(n int, v int32)  { gnssrtk.SetBits(w.buff, w.pos, n, v); w.pos += n }

/* mask of 1-based ids over n bits */
func (w *bitWriter) mask(n int, ids ...int) {
	for i := 1; i <= n; i++ {
		v := uint32(0)
		for _, id := range ids {
			if id == i {
				v = 1
			}
		}
		w.u(1, v)
	}
}

func (w *bitWriter) frame() []byte {
	n := (w.pos - 24 + 7) / 8
	buff := append([]byte{}, w.buff[:3+n]...)
	gnssrtk.SetBitU(buff, 14, 10, uint32(n))
	buff = append(buff, 0, 0, 0)
	gnssrtk.SetBitU(buff, (3+n)*8, 24, gnssrtk.Rtk_CRC24q(buff, 3+n))
	return buff
}

/* msm header of G03,G07 with signals 1C,2W and cell G07-2W empty */
func msmHead(ctype int, tow uint32) *bitWriter {
	w := newFrameWriter(ctype)
	w.u(12, 55)  /* station id */
	w.u(30, tow) /* tow (ms) */
	w.u(1, 0)    /* sync */
	w.u(3, 1)    /* iod */
	w.u(7, 0)    /* session time */
	w.u(2, 0)    /* clock steering */
	w.u(2, 0)    /* external clock */
	w.u(1, 0)    /* smoothing */
	w.u(3, 0)    /* smoothing interval */
	w.mask(64, 3, 7)
	w.mask(32, 2, 10)
	w.mask(4, 1, 2, 3)
	return w
}

func Test_Rtcm3Msm4(t *testing.T) {
	assert := assert.New(t)
	const rms = gnssrtk.RANGE_MS
	t0 := gnssrtk.GpsT2Time(simWeek, simTow)

	w := msmHead(1074, uint32(simTow*1000))
	for _, ms := range []uint32{70, 72} {
		w.u(8, ms)
	}
	for _, mod := range []uint32{512, 256} {
		w.u(10, mod)
	}
	prv := []int32{1000, -2000, 3000}
	cpv := []int32{40000, -50000, 60000}
	for _, v := range prv {
		w.s(15, v)
	}
	for _, v := range cpv {
		w.s(22, v)
	}
	for range prv {
		w.u(4, 5) /* lock time indicator */
	}
	for _, h := range []uint32{0, 1, 0} {
		w.u(1, h)
	}
	for _, c := range []uint32{45, 40, 47} {
		w.u(6, c)
	}

	dec := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	dec.Time = t0
	require.Equal(t, []int{gnssrtk.DEC_OBS}, decodeAll(dec, w.frame()))
	assert.Equal(55, dec.StaId)
	assert.Equal(uint32(1), dec.Counts()[74])

	data := dec.ObsData().Data
	require.Len(t, data, 2)
	r3 := (70.0 + 512.0*gnssrtk.P2_10) * rms
	r7 := (72.0 + 256.0*gnssrtk.P2_10) * rms
	g3, g7 := data[0], data[1]
	assert.Equal(3, g3.Sat)
	assert.Equal(7, g7.Sat)
	assert.Equal(0.0, gnssrtk.TimeDiff(g3.Time, t0))

	assert.InDelta(r3+1000*gnssrtk.P2_24*rms, g3.P[0], 1e-6)
	assert.InDelta(r3-2000*gnssrtk.P2_24*rms, g3.P[1], 1e-6)
	assert.InDelta((r3+40000*gnssrtk.P2_29*rms)*gnssrtk.FREQ1/gnssrtk.CLIGHT, g3.L[0], 1e-6)
	assert.InDelta((r3-50000*gnssrtk.P2_29*rms)*gnssrtk.FREQ2/gnssrtk.CLIGHT, g3.L[1], 1e-6)
	assert.Equal(uint8(gnssrtk.CODE_L1C), g3.Code[0])
	assert.Equal(uint8(gnssrtk.CODE_L2W), g3.Code[1])
	assert.Equal(uint16(45000), g3.SNR[0])
	assert.Zero(g3.LLI[0])
	assert.Equal(uint8(gnssrtk.LLI_HALFC), g3.LLI[1])

	assert.InDelta(r7+3000*gnssrtk.P2_24*rms, g7.P[0], 1e-6)
	assert.InDelta((r7+60000*gnssrtk.P2_29*rms)*gnssrtk.FREQ1/gnssrtk.CLIGHT, g7.L[0], 1e-6)
	assert.Equal(uint16(47000), g7.SNR[0])
	assert.Zero(g7.P[1])
	assert.Zero(g7.L[1])
}

func Test_Rtcm3MsmHeader(t *testing.T) {
	assert := assert.New(t)
	t0 := gnssrtk.GpsT2Time(simWeek, simTow)

	/* msm1-3 carry signal info only */
	dec := gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	dec.Time = t0
	w := msmHead(1071, uint32(simTow*1000+1000))
	assert.Equal([]int{gnssrtk.DEC_MSM}, decodeAll(dec, w.frame()))
	assert.InDelta(1.0, gnssrtk.TimeDiff(dec.Time, t0), 1e-9)
	assert.Equal(uint32(1), dec.Counts()[71])

	/* msm4 without its cell data is a length error */
	dec = gnssrtk.NewRtcm(gnssrtk.STRFMT_RTCM3, "")
	dec.Time = t0
	w = msmHead(1074, uint32(simTow*1000))
	assert.Equal([]int{gnssrtk.DEC_ERROR}, decodeAll(dec, w.frame()))
	assert.Zero(dec.Counts()[74])
	assert.Empty(dec.ObsData().Data)
}
