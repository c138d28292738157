/*------------------------------------------------------------------------------
* rtcm3e.go : rtcm ver.3 message encoder functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     see rtcm.go
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  field writer, encode from the last epoch and
*                           the ephemeris sequence of the satellite
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"math"
)

func ROUND_I(x float64) int    { return int(math.Floor(x + 0.5)) }
func ROUND_U(x float64) uint32 { return uint32(math.Floor(x + 0.5)) }

// bitWriter writes consecutive fields to the message buffer.
type bitWriter struct {
	buff []uint8
	pos  int
}

func (w *bitWriter) u(n int, v int) {
	SetBitU(w.buff, w.pos, n, uint32(v))
	w.pos += n
}

func (w *bitWriter) s(n int, v int) {
	SetBits(w.buff, w.pos, n, int32(v))
	w.pos += n
}

/* set signed 38 bit field ---------------------------------------------------*/
func (w *bitWriter) s38(value float64) {
	word_h := int(math.Floor(value / 64.0))
	word_l := uint32(value - float64(word_h)*64.0)
	SetBits(w.buff, w.pos, 32, int32(word_h))
	SetBitU(w.buff, w.pos+32, 6, word_l)
	w.pos += 38
}

/* lock time -----------------------------------------------------------------*/
func locktime(time Gtime, lltime *Gtime, LLI uint8) int {
	if lltime.Time == 0 || LLI&LLI_SLIP != 0 {
		*lltime = time
	}
	return int(TimeDiff(time, *lltime))
}

/* lock time indicator -------------------------------------------------------*/
func to_lock(lock int) int {
	switch {
	case lock < 0:
		return 0
	case lock < 24:
		return lock
	case lock < 72:
		return (lock + 24) / 2
	case lock < 168:
		return (lock + 120) / 4
	case lock < 360:
		return (lock + 408) / 8
	case lock < 744:
		return (lock + 1176) / 16
	case lock < 937:
		return (lock + 3096) / 32
	}
	return 127
}

/* L1/L2 code indicator gps --------------------------------------------------*/
func to_code1_gps(code uint8) int {
	switch code {
	case CODE_L1P, CODE_L1W, CODE_L1Y, CODE_L1N:
		return 1 /* L1 P(Y) direct */
	}
	return 0 /* L1 C/A */
}

func to_code2_gps(code uint8) int {
	switch code {
	case CODE_L2P, CODE_L2Y:
		return 1 /* L2 P(Y) direct */
	case CODE_L2D:
		return 2 /* L2 P(Y) cross-correlated */
	case CODE_L2W, CODE_L2N:
		return 3 /* L2 correlated P/Y */
	}
	return 0 /* L2 C/A or L2C */
}

/* carrier-phase - pseudorange in cycle --------------------------------------*/
func cp_pr(cp, pr_cyc float64) float64 {
	return math.Mod(cp-pr_cyc+750.0, 1500.0) - 750.0
}

// gpsObsField holds the 1004 fields of one satellite.
type gpsObsField struct {
	code1, pr1, ppr1, lock1, amb, cnr1 int
	code2, pr21, ppr2, lock2, cnr2     int
}

/* generate obs field data gps -----------------------------------------------*/
func (rtcm *Rtcm) genObsGps(data *ObsD) gpsObsField {
	var pr1c float64

	lam1, lam2 := CLIGHT/FREQ1, CLIGHT/FREQ2
	f := gpsObsField{ppr1: invPpr, pr21: invPr21, ppr2: invPpr}

	if data.P[0] != 0.0 && data.Code[0] > 0 {
		f.amb = int(math.Floor(data.P[0] / PRUNIT_GPS))
		f.pr1 = ROUND_I((data.P[0] - float64(f.amb)*PRUNIT_GPS) / 0.02)
		pr1c = float64(f.pr1)*0.02 + float64(f.amb)*PRUNIT_GPS
	}
	if data.P[0] != 0.0 && data.L[0] != 0.0 && data.Code[0] > 0 {
		f.ppr1 = ROUND_I(cp_pr(data.L[0], pr1c/lam1) * lam1 / 0.0005)
	}
	if data.P[0] != 0.0 && data.P[1] != 0.0 && data.Code[0] > 0 && data.Code[1] > 0 &&
		math.Abs(data.P[1]-pr1c) <= 163.82 {
		f.pr21 = ROUND_I((data.P[1] - pr1c) / 0.02)
	}
	if data.P[0] != 0.0 && data.L[1] != 0.0 && data.Code[0] > 0 && data.Code[1] > 0 {
		f.ppr2 = ROUND_I(cp_pr(data.L[1], pr1c/lam2) * lam2 / 0.0005)
	}
	f.lock1 = to_lock(locktime(data.Time, &rtcm.Lltime[data.Sat-1][0], data.LLI[0]))
	f.lock2 = to_lock(locktime(data.Time, &rtcm.Lltime[data.Sat-1][1], data.LLI[1]))
	f.cnr1 = ROUND_I(float64(data.SNR[0]) * SNR_UNIT / 0.25)
	f.cnr2 = ROUND_I(float64(data.SNR[1]) * SNR_UNIT / 0.25)
	f.code1 = to_code1_gps(data.Code[0])
	f.code2 = to_code2_gps(data.Code[1])
	return f
}

/* encode rtcm header (gps epoch) --------------------------------------------*/
func (rtcm *Rtcm) encodeHead(w *bitWriter, ctype, sync, nsat int) {
	var week int

	Trace(4, "encode_head: type=%d sync=%d nsat=%d\n", ctype, sync, nsat)

	tow := Time2GpsT(rtcm.Time, &week)
	w.u(12, ctype)      /* message no */
	w.u(12, rtcm.StaId) /* ref station id */
	w.u(30, ROUND_I(tow/0.001))
	w.u(1, sync) /* synchronous gnss flag */
	w.u(5, nsat) /* no of satellites */
	w.u(1, 0)    /* smoothing indicator */
	w.u(3, 0)    /* smoothing interval */
}

/* encode type 1004: extended L1&L2 gps rtk observables ----------------------*/
func (rtcm *Rtcm) encodeType1004(w *bitWriter, sync int) int {
	var sats []int

	for j := range rtcm.Epoch.Data {
		var prn int
		if SatSys(rtcm.Epoch.Data[j].Sat, &prn) == SYS_GPS && len(sats) < 31 {
			sats = append(sats, j)
		}
	}
	if len(rtcm.Epoch.Data) > 0 {
		rtcm.Time = rtcm.Epoch.Data[0].Time
	}
	rtcm.encodeHead(w, 1004, sync, len(sats))

	for _, j := range sats {
		var prn int
		data := &rtcm.Epoch.Data[j]
		SatSys(data.Sat, &prn)
		f := rtcm.genObsGps(data)

		w.u(6, prn)
		w.u(1, f.code1)
		w.u(24, f.pr1)
		w.s(20, f.ppr1)
		w.u(7, f.lock1)
		w.u(8, f.amb)
		w.u(8, f.cnr1)
		w.u(2, f.code2)
		w.s(14, f.pr21)
		w.s(20, f.ppr2)
		w.u(7, f.lock2)
		w.u(8, f.cnr2)
	}
	return 1
}

/* encode type 1005/1006: stationary rtk reference station arp ---------------*/
func (rtcm *Rtcm) encodeType1005(w *bitWriter, withHeight bool) int {
	p := rtcm.StaPara.Pos

	ctype := 1005
	if withHeight {
		ctype = 1006
	}
	w.u(12, ctype)
	w.u(12, rtcm.StaId)
	w.u(6, 0) /* itrf realization year */
	w.u(1, 1) /* gps indicator */
	w.u(1, 1) /* glonass indicator */
	w.u(1, 0) /* galileo indicator */
	w.u(1, 0) /* ref station indicator */
	w.s38(p[0] / 0.0001)
	w.u(1, 1) /* oscillator indicator */
	w.u(1, 0) /* reserved */
	w.s38(p[1] / 0.0001)
	w.u(2, 0) /* quarter cycle indicator */
	w.s38(p[2] / 0.0001)
	if withHeight {
		hgt := 0
		if 0.0 <= rtcm.StaPara.Hgt && rtcm.StaPara.Hgt <= 6.5535 {
			hgt = ROUND_I(rtcm.StaPara.Hgt / 0.0001)
		} else {
			Trace(2, "antenna height error: h=%.4f\n", rtcm.StaPara.Hgt)
		}
		w.u(16, hgt)
	}
	return 1
}

/* encode type 1019: gps ephemerides -----------------------------------------*/
func (rtcm *Rtcm) encodeType1019(w *bitWriter) int {
	var prn int

	if SatSys(rtcm.EphNum, &prn) != SYS_GPS {
		return 0
	}
	seq := rtcm.NavData.Eph[rtcm.EphNum]
	if len(seq) == 0 {
		return 0
	}
	eph := &seq[len(seq)-1]

	w.u(12, 1019)
	w.u(6, prn)
	w.u(10, eph.Week%1024)
	w.u(4, eph.Sva)
	w.u(2, eph.Code)
	w.s(14, ROUND_I(eph.Idot/P2_43/SC2RAD))
	w.u(8, eph.Iode)
	w.u(16, ROUND_I(Time2GpsT(eph.Toc, nil)/16.0))
	w.s(8, ROUND_I(eph.F2/P2_55))
	w.s(16, ROUND_I(eph.F1/P2_43))
	w.s(22, ROUND_I(eph.F0/P2_31))
	w.u(10, eph.Iodc)
	w.s(16, ROUND_I(eph.Crs/P2_5))
	w.s(16, ROUND_I(eph.Deln/P2_43/SC2RAD))
	w.s(32, ROUND_I(eph.M0/P2_31/SC2RAD))
	w.s(16, ROUND_I(eph.Cuc/P2_29))
	w.u(32, int(ROUND_U(eph.E/P2_33)))
	w.s(16, ROUND_I(eph.Cus/P2_29))
	w.u(32, int(ROUND_U(math.Sqrt(eph.A)/P2_19)))
	w.u(16, ROUND_I(eph.Toes/16.0))
	w.s(16, ROUND_I(eph.Cic/P2_29))
	w.s(32, ROUND_I(eph.OMG0/P2_31/SC2RAD))
	w.s(16, ROUND_I(eph.Cis/P2_29))
	w.s(32, ROUND_I(eph.I0/P2_31/SC2RAD))
	w.s(16, ROUND_I(eph.Crc/P2_5))
	w.s(32, ROUND_I(eph.Omg/P2_31/SC2RAD))
	w.s(24, ROUND_I(eph.OMGd/P2_43/SC2RAD))
	w.s(8, ROUND_I(eph.Tgd[0]/P2_31))
	w.u(6, eph.Svh)
	w.u(1, eph.Flag)
	if eph.Fit > 0.0 {
		w.u(1, 0)
	} else {
		w.u(1, 1)
	}
	return 1
}

/* generate rtcm 3 message -----------------------------------------------------
* generate a rtcm 3 frame in Buff[:Nbyte]
* args   : int    ctype     I   message type (1004,1005,1006,1019)
*          int    sync      I   sync flag (1:another message follows)
* return : status (1:ok,0:error)
* notes  : 1004 encodes Epoch, 1005/1006 StaPara and 1019 the latest
*          ephemeris of satellite EphNum
*-----------------------------------------------------------------------------*/
func (rtcm *Rtcm) GenRtcm3(ctype, sync int) int {
	Trace(4, "gen_rtcm3: type=%d sync=%d\n", ctype, sync)

	rtcm.Nbit, rtcm.MsgLen, rtcm.Nbyte = 0, 0, 0
	rtcm.frame = nil
	for i := range rtcm.Buff {
		rtcm.Buff[i] = 0
	}
	w := &bitWriter{buff: rtcm.Buff[:], pos: 0}
	w.u(8, RTCM3PREAMB)
	w.u(6, 0)
	w.u(10, 0)

	ret := 0
	switch ctype {
	case 1004:
		ret = rtcm.encodeType1004(w, sync)
	case 1005:
		ret = rtcm.encodeType1005(w, false)
	case 1006:
		ret = rtcm.encodeType1005(w, true)
	case 1019:
		ret = rtcm.encodeType1019(w)
	}
	if ret == 0 {
		return 0
	}
	/* padding to align 8 bit boundary */
	i := w.pos
	for ; i%8 > 0; i++ {
		SetBitU(rtcm.Buff[:], i, 1, 0)
	}
	if rtcm.MsgLen = i / 8; rtcm.MsgLen >= 3+1024 {
		Trace(2, "generate rtcm 3 message length error len=%d\n", rtcm.MsgLen-3)
		rtcm.MsgLen = 0
		return 0
	}
	SetBitU(rtcm.Buff[:], 14, 10, uint32(rtcm.MsgLen-3))
	SetBitU(rtcm.Buff[:], i, 24, Rtk_CRC24q(rtcm.Buff[:], rtcm.MsgLen))
	rtcm.Nbit = i
	rtcm.Nbyte = rtcm.MsgLen + 3
	rtcm.frame = rtcm.Buff[:rtcm.Nbyte]
	return 1
}

// Frame returns a copy of the last generated message (GenRtcm2/GenRtcm3).
func (rtcm *Rtcm) Frame() []byte {
	return append([]byte(nil), rtcm.frame...)
}
