/*------------------------------------------------------------------------------
* rtcm2.go : rtcm ver.2 message decoder functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     see rtcm.go
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  epoch buffering shared with rtcm 3, fix scale of
*                           cus/toes in type 17 and invalid prc/rrc check,
*                           generate type 3/18/19
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"math"
)

/* decode type 1/9: differential gps correction/partial correction set -------*/
func (rtcm *Rtcm) decodeRtcm2Type1() int {
	Trace(4, "decode_type1: len=%d\n", rtcm.MsgLen)

	b := rtcm.reader(48)
	for b.pos+40 <= rtcm.MsgLen*8 {
		fact := b.u(1)
		udre := b.u(2)
		prn := b.u(5)
		prc := b.s(16)
		rrc := b.s(8)
		iod := b.u(8)
		if prn == 0 {
			prn = 32
		}
		if prc == -32768 || rrc == -128 {
			Trace(2, "rtcm2 1 prc/rrc indicates satellite problem: prn=%d\n", prn)
			continue
		}
		sat := SatNo(SYS_GPS, prn)
		dgps := &rtcm.NavData.Dgps[sat-1]
		dgps.T0 = rtcm.Time
		if fact > 0 {
			dgps.Prc, dgps.Rrc = float64(prc)*0.32, float64(rrc)*0.032
		} else {
			dgps.Prc, dgps.Rrc = float64(prc)*0.02, float64(rrc)*0.002
		}
		dgps.Iod = iod
		dgps.Udre = float64(udre)
	}
	return DEC_DGPS
}

/* decode type 3: reference station parameter --------------------------------*/
func (rtcm *Rtcm) decodeRtcm2Type3() int {
	Trace(4, "decode_type3: len=%d\n", rtcm.MsgLen)

	b := rtcm.reader(48)
	if b.pos+96 > rtcm.MsgLen*8 {
		Trace(2, "rtcm2 3 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	for j := 0; j < 3; j++ {
		rtcm.StaPara.Pos[j] = b.f(32, 0.01)
	}
	return DEC_STA
}

/* decode type 14: gps time of week ------------------------------------------*/
func (rtcm *Rtcm) decodeRtcm2Type14() int {
	Trace(4, "decode_type14: len=%d\n", rtcm.MsgLen)

	zcnt := float64(GetBitU(rtcm.Buff[:], 24, 13))
	b := rtcm.reader(48)
	if b.pos+24 > rtcm.MsgLen*8 {
		Trace(2, "rtcm2 14 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	week := b.u(10)
	hour := b.u(8)
	leaps := b.u(6)

	rtcm.Time = GpsT2Time(rtcm.adjGpsWeek(week), float64(hour)*3600.0+zcnt*0.6)
	rtcm.NavData.Utc_gps[4] = float64(leaps)
	return DEC_ION
}

/* decode type 16: gps special message ---------------------------------------*/
func (rtcm *Rtcm) decodeRtcm2Type16() int {
	var msg []byte

	b := rtcm.reader(48)
	for b.pos+8 <= rtcm.MsgLen*8 && len(msg) < 90 {
		msg = append(msg, byte(b.u(8)))
	}
	rtcm.Msg = string(msg)
	Trace(5, "rtcm2 16 message: %s\n", rtcm.Msg)
	return DEC_NONE
}

/* decode type 17: gps ephemerides -------------------------------------------*/
func (rtcm *Rtcm) decodeRtcm2Type17() int {
	var eph Eph

	Trace(4, "decode_type17: len=%d\n", rtcm.MsgLen)

	b := rtcm.reader(48)
	if b.pos+480 > rtcm.MsgLen*8 {
		Trace(2, "rtcm2 17 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	week := b.u(10)
	eph.Idot = b.f(14, P2_43*SC2RAD)
	eph.Iode = b.u(8)
	toc := b.fu(16, 16.0)
	eph.F1 = b.f(16, P2_43)
	eph.F2 = b.f(8, P2_55)
	eph.Crs = b.f(16, P2_5)
	eph.Deln = b.f(16, P2_43*SC2RAD)
	eph.Cuc = b.f(16, P2_29)
	eph.E = b.fu(32, P2_33)
	eph.Cus = b.f(16, P2_29)
	sqrtA := b.fu(32, P2_19)
	eph.Toes = b.fu(16, 16.0)
	eph.OMG0 = b.f(32, P2_31*SC2RAD)
	eph.Cic = b.f(16, P2_29)
	eph.I0 = b.f(32, P2_31*SC2RAD)
	eph.Cis = b.f(16, P2_29)
	eph.Omg = b.f(32, P2_31*SC2RAD)
	eph.Crc = b.f(16, P2_5)
	eph.OMGd = b.f(24, P2_43*SC2RAD)
	eph.M0 = b.f(32, P2_31*SC2RAD)
	eph.Iodc = b.u(10)
	eph.F0 = b.f(22, P2_31)
	prn := b.u(5)
	b.skip(3)
	eph.Tgd[0] = b.f(8, P2_31)
	eph.Code = b.u(2)
	eph.Sva = b.u(4)
	eph.Svh = b.u(6)
	eph.Flag = b.u(1)

	if prn == 0 {
		prn = 32
	}
	eph.Sat = SatNo(SYS_GPS, prn)
	eph.Week = rtcm.adjEphWeek(rtcm.adjGpsWeek(week), eph.Toes)
	eph.Toe = GpsT2Time(eph.Week, eph.Toes)
	eph.Toc = GpsT2Time(eph.Week, toc)
	eph.Ttr = rtcm.Time
	eph.A = sqrtA * sqrtA
	return rtcm.storeEph(&eph, 0)
}

/* decode type 18/19: rtk uncorrected carrier-phase/pseudorange --------------*/
func (rtcm *Rtcm) decodeRtcm2Type18(phase bool) int {
	ctype := 19
	if phase {
		ctype = 18
	}
	Trace(4, "decode_type%d: len=%d\n", ctype, rtcm.MsgLen)

	b := rtcm.reader(48)
	if b.pos+24 > rtcm.MsgLen*8 {
		Trace(2, "rtcm2 %d length error: len=%d\n", ctype, rtcm.MsgLen)
		return DEC_ERROR
	}
	freq := b.u(2)
	b.skip(2)
	usec := b.fu(20, 1.0)
	if freq&0x1 > 0 {
		Trace(2, "rtcm2 %d not supported frequency: freq=%d\n", ctype, freq)
		return DEC_ERROR
	}
	freq >>= 1

	sync, flushed := 1, false
	for first := true; b.pos+48 <= rtcm.MsgLen*8; {
		sync = b.u(1)
		code := b.u(1)
		glo := b.u(1)
		prn := b.u(5)
		var loss int
		var value float64
		if phase {
			b.skip(3)
			loss = b.u(5)
			value = float64(b.s(32))
		} else {
			b.skip(8)
			value = float64(GetBitU(b.buff, b.pos, 32))
			b.skip(32)
		}
		if prn == 0 {
			prn = 32
		}
		sys := SYS_GPS
		if glo > 0 {
			sys = SYS_GLO
		}
		sat := SatNo(sys, prn)
		if sat == 0 {
			Trace(2, "rtcm2 %d satellite number error: sys=%d prn=%d\n", ctype, sys, prn)
			continue
		}
		time := TimeAdd(rtcm.Time, usec*1e-6)
		if glo > 0 {
			time = Utc2GpsT(time) /* glonass time -> gpst */
		}
		if first {
			flushed = rtcm.beginObs(time)
			first = false
		}
		index := rtcm.obsIndex(time, sat)
		if index < 0 {
			continue
		}
		d := &rtcm.work.Data[index]
		if phase {
			d.L[freq] = -value / 256.0
			d.LLI[freq] = 0
			if int(rtcm.Loss[sat-1][freq]) != loss {
				d.LLI[freq] = LLI_SLIP
			}
			rtcm.Loss[sat-1][freq] = uint16(loss)
		} else {
			d.P[freq] = value * 0.02
		}
		switch {
		case freq == 0 && code > 0:
			d.Code[freq] = CODE_L1P
		case freq == 0:
			d.Code[freq] = CODE_L1C
		case code > 0:
			d.Code[freq] = CODE_L2P
		default:
			d.Code[freq] = CODE_L2C
		}
	}
	return rtcm.endObs(sync, flushed)
}

/* decode type 22: extended reference station parameter ----------------------*/
func (rtcm *Rtcm) decodeRtcm2Type22() int {
	var del [3]float64
	hgt := 0.0

	Trace(4, "decode_type22: len=%d\n", rtcm.MsgLen)

	b := rtcm.reader(48)
	if b.pos+24 > rtcm.MsgLen*8 {
		Trace(2, "rtcm2 22 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	for j := 0; j < 3; j++ {
		del[j] = b.f(8, 1.0/25600.0)
	}
	if b.pos+24 <= rtcm.MsgLen*8 {
		b.skip(5)
		noh := b.u(1)
		if noh == 0 {
			hgt = b.fu(18, 1.0/25600.0)
		} else {
			b.skip(18)
		}
	}
	rtcm.StaPara.DelType = 1 /* xyz */
	rtcm.StaPara.Del = del
	rtcm.StaPara.Hgt = hgt
	return DEC_STA
}

/* decode rtcm ver.2 message -------------------------------------------------*/
func (rtcm *Rtcm) DecodeRtcm2() int {
	ret := DEC_NONE
	ctype := int(GetBitU(rtcm.Buff[:], 8, 6))
	Trace(4, "decode_rtcm2: type=%2d len=%3d\n", ctype, rtcm.MsgLen)

	zcnt := float64(GetBitU(rtcm.Buff[:], 24, 13)) * 0.6
	if zcnt >= 3600.0 {
		Trace(2, "rtcm2 modified z-count error: zcnt=%.1f\n", zcnt)
		return DEC_ERROR
	}
	rtcm.AdjHour(zcnt)
	staid := int(GetBitU(rtcm.Buff[:], 14, 10))
	seqno := int(GetBitU(rtcm.Buff[:], 37, 3))
	stah := int(GetBitU(rtcm.Buff[:], 45, 3))
	if seqno-rtcm.SeqNo != 1 && seqno-rtcm.SeqNo != -7 {
		Trace(2, "rtcm2 message outage: seqno=%d->%d\n", rtcm.SeqNo, seqno)
	}
	rtcm.SeqNo = seqno
	rtcm.StaHealth = stah

	if ctype == 3 || ctype == 22 || ctype == 23 || ctype == 24 {
		if rtcm.StaId != 0 && staid != rtcm.StaId {
			Trace(2, "rtcm2 station id changed: %d->%d\n", rtcm.StaId, staid)
		}
		rtcm.StaId = staid
	}
	if rtcm.StaId != 0 && staid != rtcm.StaId {
		Trace(2, "rtcm2 station id invalid: %d %d\n", staid, rtcm.StaId)
		return DEC_ERROR
	}
	switch ctype {
	case 1, 9:
		ret = rtcm.decodeRtcm2Type1()
	case 3:
		ret = rtcm.decodeRtcm2Type3()
	case 14:
		ret = rtcm.decodeRtcm2Type14()
	case 16:
		ret = rtcm.decodeRtcm2Type16()
	case 17:
		ret = rtcm.decodeRtcm2Type17()
	case 18:
		ret = rtcm.decodeRtcm2Type18(true)
	case 19:
		ret = rtcm.decodeRtcm2Type18(false)
	case 22:
		ret = rtcm.decodeRtcm2Type22()
	default:
		Trace(4, "rtcm2 %d: not supported message\n", ctype)
	}
	if ret >= 0 {
		if 1 <= ctype && ctype <= 99 {
			rtcm.Nmsg2[ctype]++
		} else {
			rtcm.Nmsg2[0]++
		}
	}
	return ret
}

/* encode type 3: reference station parameter --------------------------------*/
func (rtcm *Rtcm) encodeRtcm2Type3(w *bitWriter) int {
	for j := 0; j < 3; j++ {
		w.s(32, ROUND_I(rtcm.StaPara.Pos[j]/0.01))
	}
	return 1
}

/* encode type 18/19: rtk uncorrected carrier-phase/pseudorange --------------*/
func (rtcm *Rtcm) encodeRtcm2Type18(w *bitWriter, phase bool, freq, sync int, usec float64) int {
	nsat := 0

	w.u(2, freq<<1)
	w.u(2, 0)
	w.u(20, ROUND_I(usec))

	for i := range rtcm.Epoch.Data {
		var prn int
		data := &rtcm.Epoch.Data[i]
		if SatSys(data.Sat, &prn) != SYS_GPS || w.pos+48 > 48+31*24 {
			continue
		}
		if (phase && data.L[freq] == 0.0) || (!phase && data.P[freq] == 0.0) {
			continue
		}
		code := 0
		switch data.Code[freq] {
		case CODE_L1P, CODE_L1W, CODE_L1Y, CODE_L2P, CODE_L2W, CODE_L2Y:
			code = 1
		}
		w.u(1, sync)
		w.u(1, code)
		w.u(1, 0) /* gps */
		w.u(5, prn%32)
		if phase {
			if data.LLI[freq]&LLI_SLIP != 0 {
				rtcm.Loss[data.Sat-1][freq] = (rtcm.Loss[data.Sat-1][freq] + 1) % 32
			}
			/* phase is sent modulo 2^32/256 cycles */
			cp := math.Mod(-data.L[freq]*256.0, 4294967296.0)
			if cp >= 2147483648.0 {
				cp -= 4294967296.0
			} else if cp < -2147483648.0 {
				cp += 4294967296.0
			}
			w.u(3, 0) /* clock error indicator */
			w.u(5, int(rtcm.Loss[data.Sat-1][freq]))
			w.s(32, ROUND_I(cp))
		} else {
			w.u(8, 0) /* smoothing/quality/multipath */
			w.u(32, int(ROUND_U(data.P[freq]/0.02)))
		}
		nsat++
	}
	if nsat == 0 {
		return 0
	}
	return 1
}

/* generate rtcm 2 message -----------------------------------------------------
* generate a rtcm 2 message in 6-of-8 form
* args   : int    ctype     I   message type (3,18,19)
*          int    freq      I   frequency index for 18/19 (0:L1,1:L2)
*          int    sync      I   sync flag (1:another message of the epoch follows)
* return : status (1:ok,0:error)
* notes  : 18/19 encode the gps satellites of Epoch. the parity of the first
*          word is chained from the last word generated by this encoder.
*-----------------------------------------------------------------------------*/
func (rtcm *Rtcm) GenRtcm2(ctype, freq, sync int) int {
	var week int

	Trace(4, "gen_rtcm2: type=%d freq=%d sync=%d\n", ctype, freq, sync)

	rtcm.frame = nil
	for i := range rtcm.Buff {
		rtcm.Buff[i] = 0
	}
	if (ctype == 18 || ctype == 19) && len(rtcm.Epoch.Data) > 0 {
		rtcm.Time = rtcm.Epoch.Data[0].Time
	}
	tow := Time2GpsT(rtcm.Time, &week)
	sec := tow - math.Floor(tow/3600.0)*3600.0
	zcnt := math.Floor(sec / 0.6)
	usec := math.Max(sec-zcnt*0.6, 0.0) * 1e6

	w := &bitWriter{buff: rtcm.Buff[:], pos: 48}
	ret := 0
	switch ctype {
	case 3:
		ret = rtcm.encodeRtcm2Type3(w)
	case 18, 19:
		if freq < 0 || freq > 1 {
			return 0
		}
		ret = rtcm.encodeRtcm2Type18(w, ctype == 18, freq, sync, usec)
	}
	if ret == 0 {
		return 0
	}
	nword := (w.pos - 48 + 23) / 24

	h := &bitWriter{buff: rtcm.Buff[:], pos: 0}
	h.u(8, RTCM2PREAMB)
	h.u(6, ctype)
	h.u(10, rtcm.StaId)
	h.u(13, int(zcnt))
	h.u(3, rtcm.SeqNo)
	h.u(5, nword)
	h.u(3, rtcm.StaHealth)
	rtcm.SeqNo = (rtcm.SeqNo + 1) % 8
	rtcm.MsgLen = (nword + 2) * 3

	for i := 0; i < nword+2; i++ {
		word := Encode_Word(GetBitU(rtcm.Buff[:], i*24, 24), rtcm.Word)
		rtcm.Word = word
		for j := 0; j < 5; j++ { /* 6-of-8 form, lsb first */
			var c uint8 = 0x40
			for k := 0; k < 6; k++ {
				c |= uint8((word>>(29-6*j-k))&1) << k
			}
			rtcm.frame = append(rtcm.frame, c)
		}
	}
	rtcm.Nbyte = len(rtcm.frame)
	return 1
}
