/*------------------------------------------------------------------------------
* rtcm3.go : rtcm ver.3 message decoder functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     see rtcm.go
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  field reader, correct invalid value checks of
*                           1004/1012 and msm, ephemerides kept per satellite
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"math"
	"strings"
)

const (
	PRUNIT_GPS = 299792.458       /* rtcm ver.3 unit of gps pseudorange (m) */
	PRUNIT_GLO = 599584.916       /* rtcm ver.3 unit of glonass pseudorange (m) */
	RANGE_MS   = (CLIGHT * 0.001) /* range in 1 ms */
)

/* invalid field values (two's complement minimum) */
const (
	invPpr   = -524288  /* 20 bit phaserange-pseudorange */
	invPr21  = -8192    /* 14 bit L2-L1 pseudorange */
	invPrv15 = -16384   /* msm 15 bit fine pseudorange */
	invCpv22 = -2097152 /* msm 22 bit fine phaserange */
	invPrv20 = -524288  /* msm 20 bit fine pseudorange */
	invCpv24 = -8388608 /* msm 24 bit fine phaserange */
	invRate  = -8192    /* msm 14 bit phaserangerate */
	invRrv   = -16384   /* msm 15 bit fine phaserangerate */
)

type Msm_h struct { /* multi-signal-message header type */
	iod        uint8     /* issue of data station */
	time_s     uint8     /* cumulative session transmitting time */
	clk_str    uint8     /* clock steering indicator */
	clk_ext    uint8     /* external clock indicator */
	smooth     uint8     /* divergence free smoothing indicator */
	tint_s     uint8     /* soothing interval */
	nsat, nsig int       /* number of satellites/signals */
	sats       [64]uint8 /* satellites */
	sigs       [32]uint8 /* signals */
	cellmask   [64]uint8 /* cell mask */
}

/* MSM signal ID table -------------------------------------------------------*/
var (
	msm_sig_gps = [32]string{
		"", "1C", "1P", "1W", "", "", "", "2C", "2P", "2W", "", "",
		"", "", "2S", "2L", "2X", "", "", "", "", "5I", "5Q", "5X",
		"", "", "", "", "", "1S", "1L", "1X"}
	msm_sig_glo = [32]string{
		"", "1C", "1P", "", "", "", "", "2C", "2P", "", "", "",
		"", "", "", "", "", "", "", "", "", "", "", "",
		"", "", "", "", "", "", "", ""}
	msm_sig_gal = [32]string{
		"", "1C", "1A", "1B", "1X", "1Z", "", "6C", "6A", "6B", "6X", "6Z",
		"", "7I", "7Q", "7X", "", "8I", "8Q", "8X", "", "5I", "5Q", "5X",
		"", "", "", "", "", "", "", ""}
	msm_sig_qzs = [32]string{
		"", "1C", "", "", "", "", "", "", "6S", "6L", "6X", "",
		"", "", "2S", "2L", "2X", "", "", "", "", "5I", "5Q", "5X",
		"", "", "", "", "", "1S", "1L", "1X"}
	msm_sig_cmp = [32]string{
		"", "2I", "2Q", "2X", "", "", "", "6I", "6Q", "6X", "", "",
		"", "7I", "7Q", "7X", "", "", "", "", "", "5D", "5P", "5X",
		"", "", "", "", "", "1D", "1P", "1X"}
)

// bitReader reads consecutive fields of the message buffer.
type bitReader struct {
	buff []uint8
	pos  int
}

func (b *bitReader) u(n int) int {
	v := GetBitU(b.buff, b.pos, n)
	b.pos += n
	return int(v)
}

func (b *bitReader) s(n int) int {
	v := GetBits(b.buff, b.pos, n)
	b.pos += n
	return int(v)
}

// f reads a signed field scaled by unit.
func (b *bitReader) f(n int, unit float64) float64 { return float64(b.s(n)) * unit }

// fu reads an unsigned field scaled by unit.
func (b *bitReader) fu(n int, unit float64) float64 { return float64(b.u(n)) * unit }

// g reads a sign-magnitude field.
func (b *bitReader) g(n int) float64 {
	v := getbitg(b.buff, b.pos, n)
	b.pos += n
	return v
}

func (b *bitReader) skip(n int) { b.pos += n }

/* get sign-magnitude bits ---------------------------------------------------*/
func getbitg(buff []uint8, pos, n int) float64 {
	value := float64(GetBitU(buff, pos+1, n-1))
	if GetBitU(buff, pos, 1) != 0 {
		return -value
	}
	return value
}

/* get signed 38bit field ----------------------------------------------------*/
func getbits_38(buff []uint8, pos int) float64 {
	return float64(GetBits(buff, pos, 32))*64.0 + float64(GetBitU(buff, pos+32, 6))
}

func (rtcm *Rtcm) reader(pos int) *bitReader {
	return &bitReader{buff: rtcm.Buff[:rtcm.MsgLen+3], pos: pos}
}

/* decode type 1001-1004/1009-1012 message header ------------------------------
* glo selects the glonass header (epoch in time of day). returns the number of
* satellites (-1: error)
*-----------------------------------------------------------------------------*/
func (rtcm *Rtcm) decodeLegacyHead(glo bool, sync *int) int {
	b := rtcm.reader(24)
	ctype := b.u(12)
	need := 52
	if glo {
		need = 49
	}
	if b.pos+need > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 %d length error: len=%d\n", ctype, rtcm.MsgLen)
		return -1
	}
	staid := b.u(12)
	if glo {
		tod := b.fu(27, 0.001)
		*sync = b.u(1)
		nsat := b.u(5)
		if !rtcm.testStaId(staid) {
			return -1
		}
		rtcm.AdjDayGlot(tod)
		Trace(5, "decode_head1009: time=%s nsat=%d sync=%d\n", TimeStr(rtcm.Time, 2), nsat, *sync)
		return nsat
	}
	tow := b.fu(30, 0.001)
	*sync = b.u(1)
	nsat := b.u(5)
	if !rtcm.testStaId(staid) {
		return -1
	}
	rtcm.AdjWeek(tow)
	Trace(5, "decode_head1001: time=%s nsat=%d sync=%d\n", TimeStr(rtcm.Time, 2), nsat, *sync)
	return nsat
}

/* decode type 1001/1003/1009/1011: observables without ambiguity ------------*/
func (rtcm *Rtcm) decodeLegacyHeadOnly(glo bool) int {
	var sync int
	if rtcm.decodeLegacyHead(glo, &sync) < 0 {
		return DEC_ERROR
	}
	if sync == 0 {
		rtcm.ObsFlag = 1
	}
	return DEC_NONE
}

/* decode type 1002/1004/1010/1012: extended rtk observables -----------------*/
func (rtcm *Rtcm) decodeLegacyObs(ctype int) int {
	var sync int

	glo := ctype == 1010 || ctype == 1012
	dual := ctype == 1004 || ctype == 1012
	nbit, head := 74, 24+64
	switch ctype {
	case 1004:
		nbit = 125
	case 1010:
		nbit, head = 79, 24+61
	case 1012:
		nbit, head = 130, 24+61
	}
	nsat := rtcm.decodeLegacyHead(glo, &sync)
	if nsat < 0 {
		return DEC_ERROR
	}
	flushed := rtcm.beginObs(rtcm.Time)
	b := rtcm.reader(head)

	for j := 0; j < nsat && b.pos+nbit <= rtcm.MsgLen*8; j++ {
		var fcn, code2, pr21, ppr2, lock2, cnr2 int
		prn := b.u(6)
		code1 := b.u(1)
		if glo {
			fcn = b.u(5) - 7
		}
		var pr1 float64
		if glo {
			pr1 = b.fu(25, 0.02)
		} else {
			pr1 = b.fu(24, 0.02)
		}
		ppr1 := b.s(20)
		lock1 := b.u(7)
		var amb int
		if glo {
			amb = b.u(7)
		} else {
			amb = b.u(8)
		}
		cnr1 := b.u(8)
		if dual {
			code2 = b.u(2)
			pr21 = b.s(14)
			ppr2 = b.s(20)
			lock2 = b.u(7)
			cnr2 = b.u(8)
		}
		sys, unit := SYS_GPS, PRUNIT_GPS
		if glo {
			sys, unit = SYS_GLO, PRUNIT_GLO
		}
		sat := SatNo(sys, prn)
		if sat == 0 {
			Trace(2, "rtcm3 %d satellite number error: prn=%d\n", ctype, prn)
			continue
		}
		if glo && rtcm.NavData.Glo_fcn[prn-1] == 0 {
			rtcm.NavData.Glo_fcn[prn-1] = fcn + 8 /* fcn+8 */
		}
		index := rtcm.obsIndex(rtcm.Time, sat)
		if index < 0 {
			continue
		}
		d := &rtcm.work.Data[index]
		freq := [2]float64{FREQ1, FREQ2}
		if glo {
			freq[0] = Code2Freq(SYS_GLO, CODE_L1C, fcn)
			freq[1] = Code2Freq(SYS_GLO, CODE_L2C, fcn)
		}
		pr1 += float64(amb) * unit
		d.P[0] = pr1
		if ppr1 != invPpr && freq[0] > 0.0 {
			cp1 := rtcm.AdjCP(sat, 0, float64(ppr1)*0.0005*freq[0]/CLIGHT)
			d.L[0] = pr1*freq[0]/CLIGHT + cp1
		}
		d.LLI[0] = uint8(rtcm.LossOfLock(sat, 0, lock1))
		d.SNR[0] = SnRatio(float64(cnr1) * 0.25)
		d.Code[0] = CODE_L1C
		if code1 > 0 {
			d.Code[0] = CODE_L1P
		}
		if !dual {
			continue
		}
		if pr21 != invPr21 {
			d.P[1] = pr1 + float64(pr21)*0.02
		}
		if ppr2 != invPpr && freq[1] > 0.0 {
			cp2 := rtcm.AdjCP(sat, 1, float64(ppr2)*0.0005*freq[1]/CLIGHT)
			d.L[1] = pr1*freq[1]/CLIGHT + cp2
		}
		d.LLI[1] = uint8(rtcm.LossOfLock(sat, 1, lock2))
		d.SNR[1] = SnRatio(float64(cnr2) * 0.25)
		if glo {
			d.Code[1] = CODE_L2C
			if code2 > 0 {
				d.Code[1] = CODE_L2P
			}
		} else {
			d.Code[1] = [...]uint8{CODE_L2X, CODE_L2P, CODE_L2D, CODE_L2W}[code2]
		}
	}
	return rtcm.endObs(sync, flushed)
}

/* decode type 1005/1006: stationary rtk reference station arp ---------------*/
func (rtcm *Rtcm) decodeType1005(withHeight bool) int {
	var rr [3]float64

	b := rtcm.reader(24 + 12)
	need := 140
	if withHeight {
		need = 156
	}
	if b.pos+need > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 1005 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	staid := b.u(12)
	itrf := b.u(6)
	b.skip(4)
	for j := 0; j < 3; j++ {
		rr[j] = getbits_38(b.buff, b.pos)
		b.skip(38)
		if j < 2 {
			b.skip(2)
		}
	}
	anth := 0.0
	if withHeight {
		anth = b.fu(16, 0.0001)
	}
	if !rtcm.testStaId(staid) {
		return DEC_ERROR
	}
	rtcm.StaPara.Name = fmt.Sprintf("%04d", staid)
	rtcm.StaPara.DelType = 0 /* enu */
	for j := 0; j < 3; j++ {
		rtcm.StaPara.Pos[j] = rr[j] * 0.0001
		rtcm.StaPara.Del[j] = 0.0
	}
	rtcm.StaPara.Hgt = anth
	rtcm.StaPara.Itrf = itrf
	return DEC_STA
}

/* decode type 1007/1008: antenna descriptor/serial number -------------------*/
func (rtcm *Rtcm) decodeType1007(withSerial bool) int {
	b := rtcm.reader(24 + 12)
	if b.pos+20 > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 1007 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	staid := b.u(12)
	n := b.u(8)
	if b.pos+8*n+8 > rtcm.MsgLen*8 || n > 31 {
		Trace(2, "rtcm3 1007 length error: len=%d n=%d\n", rtcm.MsgLen, n)
		return DEC_ERROR
	}
	des := make([]byte, n)
	for j := range des {
		des[j] = byte(b.u(8))
	}
	b.skip(8) /* antenna setup id */
	var sno []byte
	if withSerial && b.pos+8 <= rtcm.MsgLen*8 {
		m := b.u(8)
		if m > 31 || b.pos+8*m > rtcm.MsgLen*8 {
			Trace(2, "rtcm3 1008 length error: len=%d m=%d\n", rtcm.MsgLen, m)
			return DEC_ERROR
		}
		sno = make([]byte, m)
		for j := range sno {
			sno[j] = byte(b.u(8))
		}
	}
	if !rtcm.testStaId(staid) {
		return DEC_ERROR
	}
	rtcm.StaPara.AntDes = string(des)
	if withSerial {
		rtcm.StaPara.AntSno = string(sno)
	}
	return DEC_STA
}

/* decode type 1029: unicode text string -------------------------------------*/
func (rtcm *Rtcm) decodeType1029() int {
	b := rtcm.reader(24 + 12)
	if b.pos+60 > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 1029 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	staid := b.u(12)
	b.skip(16 + 17 + 7) /* mjd, sec of day, number of characters */
	nchar := b.u(8)
	if b.pos+8*nchar > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 1029 length error: len=%d nchar=%d\n", rtcm.MsgLen, nchar)
		return DEC_ERROR
	}
	msg := make([]byte, nchar)
	for j := range msg {
		msg[j] = byte(b.u(8))
	}
	rtcm.Msg = string(msg)
	Trace(3, "rtcm3 1029: staid=%d text=%s\n", staid, rtcm.Msg)
	return DEC_NONE
}

/* decode keplerian orbit fields shared by 1019/1044/1045/1046 ---------------*/
func readKepler(b *bitReader, eph *Eph, sqrtA *float64) {
	eph.Crs = b.f(16, P2_5)
	eph.Deln = b.f(16, P2_43*SC2RAD)
	eph.M0 = b.f(32, P2_31*SC2RAD)
	eph.Cuc = b.f(16, P2_29)
	eph.E = b.fu(32, P2_33)
	eph.Cus = b.f(16, P2_29)
	*sqrtA = b.fu(32, P2_19)
}

func readAngles(b *bitReader, eph *Eph) {
	eph.Cic = b.f(16, P2_29)
	eph.OMG0 = b.f(32, P2_31*SC2RAD)
	eph.Cis = b.f(16, P2_29)
	eph.I0 = b.f(32, P2_31*SC2RAD)
	eph.Crc = b.f(16, P2_5)
	eph.Omg = b.f(32, P2_31*SC2RAD)
	eph.OMGd = b.f(24, P2_43*SC2RAD)
}

/* decode type 1019: gps ephemerides -----------------------------------------*/
func (rtcm *Rtcm) decodeType1019() int {
	var eph Eph
	var sqrtA float64

	b := rtcm.reader(24 + 12)
	if b.pos+476 > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 1019 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	prn := b.u(6)
	week := b.u(10)
	eph.Sva = b.u(4)
	eph.Code = b.u(2)
	eph.Idot = b.f(14, P2_43*SC2RAD)
	eph.Iode = b.u(8)
	toc := b.fu(16, 16.0)
	eph.F2 = b.f(8, P2_55)
	eph.F1 = b.f(16, P2_43)
	eph.F0 = b.f(22, P2_31)
	eph.Iodc = b.u(10)
	readKepler(b, &eph, &sqrtA)
	eph.Toes = b.fu(16, 16.0)
	readAngles(b, &eph)
	eph.Tgd[0] = b.f(8, P2_31)
	eph.Svh = b.u(6)
	eph.Flag = b.u(1)
	eph.Fit = 4.0 /* 0:4hr,1:>4hr */
	if b.u(1) > 0 {
		eph.Fit = 0.0
	}
	Trace(4, "decode_type1019: prn=%d iode=%d toe=%.0f\n", prn, eph.Iode, eph.Toes)

	if eph.Sat = SatNo(SYS_GPS, prn); eph.Sat == 0 {
		Trace(2, "rtcm3 1019 satellite number error: prn=%d\n", prn)
		return DEC_ERROR
	}
	eph.Week = rtcm.adjEphWeek(rtcm.adjGpsWeek(week), eph.Toes)
	eph.Toe = GpsT2Time(eph.Week, eph.Toes)
	eph.Toc = GpsT2Time(eph.Week, toc)
	eph.Ttr = rtcm.Time
	eph.A = sqrtA * sqrtA
	return rtcm.storeEph(&eph, 0)
}

/* decode type 1044: qzss ephemerides ----------------------------------------*/
func (rtcm *Rtcm) decodeType1044() int {
	var eph Eph
	var sqrtA float64

	b := rtcm.reader(24 + 12)
	if b.pos+473 > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 1044 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	prn := b.u(4) + 192
	toc := b.fu(16, 16.0)
	eph.F2 = b.f(8, P2_55)
	eph.F1 = b.f(16, P2_43)
	eph.F0 = b.f(22, P2_31)
	eph.Iode = b.u(8)
	readKepler(b, &eph, &sqrtA)
	eph.Toes = b.fu(16, 16.0)
	readAngles(b, &eph)
	eph.Idot = b.f(14, P2_43*SC2RAD)
	eph.Code = b.u(2)
	week := b.u(10)
	eph.Sva = b.u(4)
	eph.Svh = b.u(6)
	eph.Tgd[0] = b.f(8, P2_31)
	eph.Iodc = b.u(10)
	eph.Fit = 2.0 /* 0:2hr,1:>2hr */
	if b.u(1) > 0 {
		eph.Fit = 0.0
	}
	Trace(4, "decode_type1044: prn=%d iode=%d toe=%.0f\n", prn, eph.Iode, eph.Toes)

	if eph.Sat = SatNo(SYS_QZS, prn); eph.Sat == 0 {
		Trace(2, "rtcm3 1044 satellite number error: prn=%d\n", prn)
		return DEC_ERROR
	}
	eph.Week = rtcm.adjEphWeek(rtcm.adjGpsWeek(week), eph.Toes)
	eph.Toe = GpsT2Time(eph.Week, eph.Toes)
	eph.Toc = GpsT2Time(eph.Week, toc)
	eph.Ttr = rtcm.Time
	eph.A = sqrtA * sqrtA
	eph.Flag = 1 /* fixed to 1 */
	return rtcm.storeEph(&eph, 0)
}

/* decode type 1045/1046: galileo f/nav and i/nav ephemerides ----------------*/
func (rtcm *Rtcm) decodeGalEph(inav bool) int {
	var eph Eph
	var sqrtA float64

	ctype, need := 1045, 484
	if inav {
		ctype, need = 1046, 492
	}
	if (inav && strings.Contains(rtcm.Opt, "-GALFNAV")) || (!inav && strings.Contains(rtcm.Opt, "-GALINAV")) {
		return DEC_NONE
	}
	b := rtcm.reader(24 + 12)
	if b.pos+need > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 %d length error: len=%d\n", ctype, rtcm.MsgLen)
		return DEC_ERROR
	}
	prn := b.u(6)
	week := b.u(12) /* gst-week */
	eph.Iode = b.u(10)
	eph.Sva = b.u(8)
	eph.Idot = b.f(14, P2_43*SC2RAD)
	toc := b.fu(14, 60.0)
	eph.F2 = b.f(6, P2_59)
	eph.F1 = b.f(21, P2_46)
	eph.F0 = b.f(31, P2_34)
	readKepler(b, &eph, &sqrtA)
	eph.Toes = b.fu(14, 60.0)
	readAngles(b, &eph)
	eph.Tgd[0] = b.f(10, P2_32) /* E5a/E1 */
	if inav {
		eph.Tgd[1] = b.f(10, P2_32) /* E5b/E1 */
		e5b_hs, e5b_dvs := b.u(2), b.u(1)
		e1_hs, e1_dvs := b.u(2), b.u(1)
		eph.Svh = (e5b_hs << 7) + (e5b_dvs << 6) + (e1_hs << 1) + e1_dvs
		eph.Code = (1 << 0) + (1 << 2) + (1 << 9) /* data source = I/NAV+E1+E5b */
	} else {
		e5a_hs, e5a_dvs := b.u(2), b.u(1)
		eph.Svh = (e5a_hs << 4) + (e5a_dvs << 3)
		eph.Code = (1 << 1) + (1 << 8) /* data source = F/NAV+E5a */
	}
	Trace(4, "decode_type%d: prn=%d iode=%d toe=%.0f\n", ctype, prn, eph.Iode, eph.Toes)

	if eph.Sat = SatNo(SYS_GAL, prn); eph.Sat == 0 {
		Trace(2, "rtcm3 %d satellite number error: prn=%d\n", ctype, prn)
		return DEC_ERROR
	}
	eph.Week = rtcm.adjEphWeek(week+1024, eph.Toes) /* gal-week = gst-week + 1024 */
	eph.Toe = GpsT2Time(eph.Week, eph.Toes)
	eph.Toc = GpsT2Time(eph.Week, toc)
	eph.Ttr = rtcm.Time
	eph.A = sqrtA * sqrtA
	eph.Iodc = eph.Iode
	if inav {
		return rtcm.storeEph(&eph, 0)
	}
	return rtcm.storeEph(&eph, 1)
}

/* decode type 1042: beidou ephemerides --------------------------------------*/
func (rtcm *Rtcm) decodeType1042() int {
	var eph Eph

	b := rtcm.reader(24 + 12)
	if b.pos+499 > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 1042 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	prn := b.u(6)
	week := b.u(13)
	eph.Sva = b.u(4)
	eph.Idot = b.f(14, P2_43*SC2RAD)
	eph.Iode = b.u(5) /* AODE */
	toc := b.fu(17, 8.0)
	eph.F2 = b.f(11, P2_66)
	eph.F1 = b.f(22, P2_50)
	eph.F0 = b.f(24, P2_33)
	eph.Iodc = b.u(5) /* AODC */
	eph.Crs = b.f(18, P2_6)
	eph.Deln = b.f(16, P2_43*SC2RAD)
	eph.M0 = b.f(32, P2_31*SC2RAD)
	eph.Cuc = b.f(18, P2_31)
	eph.E = b.fu(32, P2_33)
	eph.Cus = b.f(18, P2_31)
	sqrtA := b.fu(32, P2_19)
	eph.Toes = b.fu(17, 8.0)
	eph.Cic = b.f(18, P2_31)
	eph.OMG0 = b.f(32, P2_31*SC2RAD)
	eph.Cis = b.f(18, P2_31)
	eph.I0 = b.f(32, P2_31*SC2RAD)
	eph.Crc = b.f(18, P2_6)
	eph.Omg = b.f(32, P2_31*SC2RAD)
	eph.OMGd = b.f(24, P2_43*SC2RAD)
	eph.Tgd[0] = b.f(10, 1e-10)
	eph.Tgd[1] = b.f(10, 1e-10)
	eph.Svh = b.u(1)
	Trace(4, "decode_type1042: prn=%d iode=%d toe=%.0f\n", prn, eph.Iode, eph.Toes)

	if eph.Sat = SatNo(SYS_CMP, prn); eph.Sat == 0 {
		Trace(2, "rtcm3 1042 satellite number error: prn=%d\n", prn)
		return DEC_ERROR
	}
	eph.Week = rtcm.adjBDTWeek(week)
	tt := TimeDiff(BDT2GpsT(BDT2Time(eph.Week, eph.Toes)), rtcm.refTime())
	if tt < -302400.0 {
		eph.Week++
	} else if tt >= 302400.0 {
		eph.Week--
	}
	eph.Toe = BDT2GpsT(BDT2Time(eph.Week, eph.Toes)) /* bdt -> gpst */
	eph.Toc = BDT2GpsT(BDT2Time(eph.Week, toc))
	eph.Ttr = rtcm.Time
	eph.A = sqrtA * sqrtA
	return rtcm.storeEph(&eph, 0)
}

/* decode type 1020: glonass ephemerides -------------------------------------*/
func (rtcm *Rtcm) decodeType1020() int {
	var geph GEph
	var week int

	b := rtcm.reader(24 + 12)
	if b.pos+348 > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 1020 length error: len=%d\n", rtcm.MsgLen)
		return DEC_ERROR
	}
	prn := b.u(6)
	geph.Frq = b.u(5) - 7
	b.skip(2 + 2)
	tk_h := b.fu(5, 1.0)
	tk_m := b.fu(6, 1.0)
	tk_s := b.fu(1, 30.0)
	bn := b.u(1)
	b.skip(1)
	tb := b.u(7)
	for j := 0; j < 3; j++ {
		geph.Vel[j] = b.g(24) * P2_20 * 1e3
		geph.Pos[j] = b.g(27) * P2_11 * 1e3
		geph.Acc[j] = b.g(5) * P2_30 * 1e3
	}
	b.skip(1)
	geph.Gamn = b.g(11) * P2_40
	b.skip(3)
	geph.Taun = b.g(22) * P2_30
	geph.DTaun = b.g(5) * P2_30
	geph.Age = b.u(5)

	if geph.Sat = SatNo(SYS_GLO, prn); geph.Sat == 0 {
		Trace(2, "rtcm3 1020 satellite number error: prn=%d\n", prn)
		return DEC_ERROR
	}
	Trace(4, "decode_type1020: prn=%d tk=%02.0f:%02.0f:%02.0f\n", prn, tk_h, tk_m, tk_s)

	geph.Svh = bn
	geph.Iode = tb & 0x7F
	tow := Time2GpsT(GpsT2Utc(rtcm.refTime()), &week)
	tod := math.Mod(tow, 86400.0)
	tow -= tod
	tof := tk_h*3600.0 + tk_m*60.0 + tk_s - 10800.0 /* lt->utc */
	if tof < tod-43200.0 {
		tof += 86400.0
	} else if tof > tod+43200.0 {
		tof -= 86400.0
	}
	geph.Tof = Utc2GpsT(GpsT2Time(week, tow+tof))
	toe := float64(tb)*900.0 - 10800.0 /* lt->utc */
	if toe < tod-43200.0 {
		toe += 86400.0
	} else if toe > tod+43200.0 {
		toe -= 86400.0
	}
	geph.Toe = Utc2GpsT(GpsT2Time(week, tow+toe)) /* utc->gpst */

	if !strings.Contains(rtcm.Opt, "-EPHALL") {
		for _, g := range rtcm.NavData.Geph[geph.Sat] {
			if math.Abs(TimeDiff(geph.Toe, g.Toe)) < 1.0 && geph.Svh == g.Svh {
				return DEC_NONE /* unchanged */
			}
		}
	}
	rtcm.NavData.AddGEph(&geph)
	rtcm.EphNum = geph.Sat
	rtcm.EphSet = 0
	return DEC_EPH
}

/* decode msm message header ---------------------------------------------------
* returns the number of cells (-1: error), hsize is the header size (bits)
*-----------------------------------------------------------------------------*/
func (rtcm *Rtcm) decodeMsmHead(sys int, sync *int, h *Msm_h, hsize *int) int {
	*h = Msm_h{}
	b := rtcm.reader(24)
	ctype := b.u(12)

	if b.pos+157 > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 %d length error: len=%d\n", ctype, rtcm.MsgLen)
		return -1
	}
	staid := b.u(12)
	switch sys {
	case SYS_GLO:
		b.skip(3) /* day of week */
		tod := b.fu(27, 0.001)
		rtcm.AdjDayGlot(tod)
	case SYS_CMP:
		tow := b.fu(30, 0.001) + 14.0 /* bdt -> gpst */
		rtcm.AdjWeek(tow)
	default:
		rtcm.AdjWeek(b.fu(30, 0.001))
	}
	*sync = b.u(1)
	h.iod = uint8(b.u(3))
	h.time_s = uint8(b.u(7))
	h.clk_str = uint8(b.u(2))
	h.clk_ext = uint8(b.u(2))
	h.smooth = uint8(b.u(1))
	h.tint_s = uint8(b.u(3))
	for j := 1; j <= 64; j++ {
		if b.u(1) > 0 {
			h.sats[h.nsat] = uint8(j)
			h.nsat++
		}
	}
	for j := 1; j <= 32; j++ {
		if b.u(1) > 0 {
			h.sigs[h.nsig] = uint8(j)
			h.nsig++
		}
	}
	if !rtcm.testStaId(staid) {
		return -1
	}
	if h.nsat*h.nsig > 64 {
		Trace(2, "rtcm3 %d number of sats and sigs error: nsat=%d nsig=%d\n", ctype, h.nsat, h.nsig)
		return -1
	}
	if b.pos+h.nsat*h.nsig > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 %d length error: len=%d nsat=%d nsig=%d\n", ctype, rtcm.MsgLen, h.nsat, h.nsig)
		return -1
	}
	ncell := 0
	for j := 0; j < h.nsat*h.nsig; j++ {
		h.cellmask[j] = uint8(b.u(1))
		if h.cellmask[j] > 0 {
			ncell++
		}
	}
	*hsize = b.pos
	Trace(4, "decode_head_msm: time=%s sys=%d staid=%d nsat=%d nsig=%d sync=%d iod=%d ncell=%d\n",
		TimeStr(rtcm.Time, 2), sys, staid, h.nsat, h.nsig, *sync, h.iod, ncell)
	return ncell
}

func msmSignal(sys int, id uint8) string {
	if id < 1 || id > 32 {
		return ""
	}
	switch sys {
	case SYS_GPS:
		return msm_sig_gps[id-1]
	case SYS_GLO:
		return msm_sig_glo[id-1]
	case SYS_GAL:
		return msm_sig_gal[id-1]
	case SYS_QZS:
		return msm_sig_qzs[id-1]
	case SYS_CMP:
		return msm_sig_cmp[id-1]
	}
	return ""
}

// SigIndex keeps the highest priority signal of each frequency. Other signals
// get idx -1.
func SigIndex(sys int, code []uint8, idx []int) {
	var pri_h, index [NFREQ]int

	for i := range code {
		if code[i] == CODE_NONE || idx[i] < 0 || idx[i] >= NFREQ {
			idx[i] = -1
			continue
		}
		pri := GetCodePri(sys, code[i])
		if pri > pri_h[idx[i]] {
			if index[idx[i]] > 0 {
				idx[index[idx[i]]-1] = -1
			}
			pri_h[idx[i]] = pri
			index[idx[i]] = i + 1
		} else {
			idx[i] = -1
		}
	}
}

// msmData holds the decoded satellite and signal fields of a msm message.
type msmData struct {
	r, rr           [64]float64 /* rough range (m), rough phaserangerate (m/s) */
	ex              [64]int     /* extended satellite info */
	pr, cp, rrf     [64]float64 /* fine pseudorange/phaserange (m), rate (m/s) */
	cnr             [64]float64 /* cnr (dBHz) */
	lock, half      [64]int
	hasRate, hasExt bool
}

/* save obs data in msm message ----------------------------------------------*/
func (rtcm *Rtcm) saveMsmObs(sys int, h *Msm_h, m *msmData) {
	var code [32]uint8
	var idx [32]int

	ctype := int(GetBitU(rtcm.Buff[:], 24, 12))
	for i := 0; i < h.nsig; i++ {
		sig := msmSignal(sys, h.sigs[i])
		code[i] = Obs2Code(sig)
		idx[i] = Code2Idx(sys, code[i])
		if code[i] == CODE_NONE {
			Trace(2, "rtcm3 %d: unknown signal id=%2d\n", ctype, h.sigs[i])
		}
	}
	SigIndex(sys, code[:h.nsig], idx[:h.nsig])

	for i, j := 0, 0; i < h.nsat; i++ {
		prn := int(h.sats[i])
		if sys == SYS_QZS {
			prn += MINPRNQZS - 1
		}
		index := -1
		sat := SatNo(sys, prn)
		if sat > 0 {
			index = rtcm.obsIndex(rtcm.Time, sat)
		} else {
			Trace(2, "rtcm3 %d satellite error: prn=%d\n", ctype, prn)
		}
		fcn := 0
		if sys == SYS_GLO && sat > 0 {
			fcn = -8 /* no glonass fcn info */
			gs := rtcm.NavData.Geph[sat]
			switch {
			case m.hasExt && m.ex[i] <= 13:
				fcn = m.ex[i] - 7
				if rtcm.NavData.Glo_fcn[prn-1] == 0 {
					rtcm.NavData.Glo_fcn[prn-1] = fcn + 8 /* fcn+8 */
				}
			case len(gs) > 0:
				fcn = gs[len(gs)-1].Frq
			case rtcm.NavData.Glo_fcn[prn-1] > 0:
				fcn = rtcm.NavData.Glo_fcn[prn-1] - 8
			}
		}
		for k := 0; k < h.nsig; k++ {
			if h.cellmask[k+i*h.nsig] == 0 {
				continue
			}
			if sat > 0 && index >= 0 && idx[k] >= 0 {
				d := &rtcm.work.Data[index]
				f := idx[k]
				freq := 0.0
				if fcn >= -7 {
					freq = Code2Freq(sys, code[k], fcn)
				}
				if m.r[i] != 0.0 && m.pr[j] > -1e12 {
					d.P[f] = m.r[i] + m.pr[j]
				}
				if m.r[i] != 0.0 && m.cp[j] > -1e12 {
					d.L[f] = (m.r[i] + m.cp[j]) * freq / CLIGHT
				}
				if m.hasRate && m.rrf[j] > -1e12 {
					d.D[f] = -(m.rr[i] + m.rrf[j]) * freq / CLIGHT
				}
				lli := rtcm.LossOfLock(sat, f, m.lock[j])
				if m.half[j] > 0 {
					lli |= LLI_HALFC
				}
				d.LLI[f] = uint8(lli)
				d.SNR[f] = uint16(m.cnr[j]/SNR_UNIT + 0.5)
				d.Code[f] = code[k]
			}
			j++
		}
	}
}

/* decode msm 4-7 --------------------------------------------------------------
* msm4: full pseudorange and phaserange plus cnr
* msm5: msm4 plus phaserangerate
* msm6: msm4 in high resolution
* msm7: msm5 in high resolution
*-----------------------------------------------------------------------------*/
func (rtcm *Rtcm) decodeMsm(sys, kind int) int {
	var h Msm_h
	var m msmData
	var sync, hsize int

	ctype := int(GetBitU(rtcm.Buff[:], 24, 12))
	ncell := rtcm.decodeMsmHead(sys, &sync, &h, &hsize)
	if ncell < 0 {
		return DEC_ERROR
	}
	m.hasExt = kind == 5 || kind == 7
	m.hasRate = m.hasExt
	hres := kind >= 6

	satBits, cellBits := 18, 48
	if m.hasExt {
		satBits += 18
		cellBits += 15
	}
	if hres {
		cellBits += 17
	}
	if hsize+h.nsat*satBits+ncell*cellBits > rtcm.MsgLen*8 {
		Trace(2, "rtcm3 %d length error: nsat=%d ncell=%d len=%d\n", ctype, h.nsat, ncell, rtcm.MsgLen)
		return DEC_ERROR
	}
	for j := 0; j < ncell; j++ {
		m.pr[j], m.cp[j], m.rrf[j] = -1e16, -1e16, -1e16
	}
	b := rtcm.reader(hsize)

	/* satellite data */
	for j := 0; j < h.nsat; j++ {
		m.ex[j] = 15
		if rng := b.u(8); rng != 255 {
			m.r[j] = float64(rng) * RANGE_MS
		}
	}
	if m.hasExt {
		for j := 0; j < h.nsat; j++ {
			m.ex[j] = b.u(4)
		}
	}
	for j := 0; j < h.nsat; j++ {
		rng_m := b.u(10)
		if m.r[j] != 0.0 {
			m.r[j] += float64(rng_m) * P2_10 * RANGE_MS
		}
	}
	if m.hasRate {
		for j := 0; j < h.nsat; j++ {
			if rate := b.s(14); rate != invRate {
				m.rr[j] = float64(rate)
			}
		}
	}
	/* signal data */
	for j := 0; j < ncell; j++ {
		if hres {
			if prv := b.s(20); prv != invPrv20 {
				m.pr[j] = float64(prv) * P2_29 * RANGE_MS
			}
		} else if prv := b.s(15); prv != invPrv15 {
			m.pr[j] = float64(prv) * P2_24 * RANGE_MS
		}
	}
	for j := 0; j < ncell; j++ {
		if hres {
			if cpv := b.s(24); cpv != invCpv24 {
				m.cp[j] = float64(cpv) * P2_31 * RANGE_MS
			}
		} else if cpv := b.s(22); cpv != invCpv22 {
			m.cp[j] = float64(cpv) * P2_29 * RANGE_MS
		}
	}
	for j := 0; j < ncell; j++ {
		if hres {
			m.lock[j] = b.u(10)
		} else {
			m.lock[j] = b.u(4)
		}
	}
	for j := 0; j < ncell; j++ {
		m.half[j] = b.u(1)
	}
	for j := 0; j < ncell; j++ {
		if hres {
			m.cnr[j] = b.fu(10, 0.0625)
		} else {
			m.cnr[j] = b.fu(6, 1.0)
		}
	}
	if m.hasRate {
		for j := 0; j < ncell; j++ {
			if rrv := b.s(15); rrv != invRrv {
				m.rrf[j] = float64(rrv) * 0.0001
			}
		}
	}
	flushed := rtcm.beginObs(rtcm.Time)
	rtcm.saveMsmObs(sys, &h, &m)
	return rtcm.endObs(sync, flushed)
}

/* decode msm 1-3: header only -----------------------------------------------*/
func (rtcm *Rtcm) decodeMsm0(sys int) int {
	var h Msm_h
	var sync, hsize int
	if rtcm.decodeMsmHead(sys, &sync, &h, &hsize) < 0 {
		return DEC_ERROR
	}
	return DEC_MSM
}

// msmSys maps a msm message type to its system and msm number.
func msmSys(ctype int) (sys, kind int) {
	switch ctype / 10 {
	case 107:
		sys = SYS_GPS
	case 108:
		sys = SYS_GLO
	case 109:
		sys = SYS_GAL
	case 111:
		sys = SYS_QZS
	case 112:
		sys = SYS_CMP
	default:
		return SYS_NONE, 0
	}
	return sys, ctype % 10
}

/* decode rtcm ver.3 message -------------------------------------------------*/
func (rtcm *Rtcm) DecodeRtcm3() int {
	var week int
	ret := DEC_NONE

	ctype := int(GetBitU(rtcm.Buff[:], 24, 12))
	Trace(4, "decode_rtcm3: len=%3d type=%d\n", rtcm.MsgLen, ctype)

	/* real-time input option */
	if strings.Contains(rtcm.Opt, "-RT_INP") {
		tow := Time2GpsT(Utc2GpsT(TimeGet()), &week)
		rtcm.Time = GpsT2Time(week, math.Floor(tow))
	}
	switch ctype {
	case 1001, 1003:
		ret = rtcm.decodeLegacyHeadOnly(false)
	case 1009, 1011:
		ret = rtcm.decodeLegacyHeadOnly(true)
	case 1002, 1004, 1010, 1012:
		ret = rtcm.decodeLegacyObs(ctype)
	case 1005:
		ret = rtcm.decodeType1005(false)
	case 1006:
		ret = rtcm.decodeType1005(true)
	case 1007:
		ret = rtcm.decodeType1007(false)
	case 1008:
		ret = rtcm.decodeType1007(true)
	case 1019:
		ret = rtcm.decodeType1019()
	case 1020:
		ret = rtcm.decodeType1020()
	case 1029:
		ret = rtcm.decodeType1029()
	case 1042, 63:
		ret = rtcm.decodeType1042()
	case 1044:
		ret = rtcm.decodeType1044()
	case 1045:
		ret = rtcm.decodeGalEph(false)
	case 1046:
		ret = rtcm.decodeGalEph(true)
	default:
		if sys, kind := msmSys(ctype); sys != SYS_NONE {
			switch {
			case kind >= 1 && kind <= 3:
				ret = rtcm.decodeMsm0(sys)
			case kind >= 4 && kind <= 7:
				ret = rtcm.decodeMsm(sys, kind)
			}
		} else {
			Trace(4, "rtcm3 %d: not supported message\n", ctype)
		}
	}
	if ret >= 0 {
		switch {
		case 1001 <= ctype && ctype <= 1299:
			rtcm.Nmsg3[ctype-1000]++ /*   1-299 */
		case 4070 <= ctype && ctype <= 4099:
			rtcm.Nmsg3[ctype-3770]++ /* 300-329 */
		default:
			rtcm.Nmsg3[0]++ /* other */
		}
	}
	return ret
}
