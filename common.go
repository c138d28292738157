/*------------------------------------------------------------------------------
* common.go : common functions of gnssrtk
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1] IS-GPS-200D, Navstar GPS Space Segment/Navigation User Interfaces,
*         7 March, 2006
*     [2] RTCA/DO-229C, Minimum operational performance standards for global
*         positioning system/wide area augmentation system airborne equipment,
*         November 28, 2001
*     [3] China Satellite Navigation Office, BeiDou navigation satellite system
*         signal in space interface control document, open service signal B1I
*         (version 1.0), Dec 2012
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  signed time_t, crc table built at init,
*                           lock acquisition bounded by timeout
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

func SQR(x float64) float64 {
	return x * x
}

func SQRT(x float64) float64 {
	if x < 0.0 {
		return 0.0
	}
	return math.Sqrt(x)
}

const POLYCRC24Q = 0x1864CFB /* CRC24Q polynomial */

var chisqr [100]float64 = [100]float64{ /* chi-sqr(n) (alpha=0.001) */
	10.8, 13.8, 16.3, 18.5, 20.5, 22.5, 24.3, 26.1, 27.9, 29.6,
	31.3, 32.9, 34.5, 36.1, 37.7, 39.3, 40.8, 42.3, 43.8, 45.3,
	46.8, 48.3, 49.7, 51.2, 52.6, 54.1, 55.5, 56.9, 58.3, 59.7,
	61.1, 62.5, 63.9, 65.2, 66.6, 68.0, 69.3, 70.7, 72.1, 73.4,
	74.7, 76.0, 77.3, 78.6, 80.0, 81.3, 82.6, 84.0, 85.4, 86.7,
	88.0, 89.3, 90.6, 91.9, 93.3, 94.7, 96.0, 97.4, 98.7, 100,
	101, 102, 103, 104, 105, 107, 108, 109, 110, 112,
	113, 114, 115, 116, 118, 119, 120, 122, 123, 125,
	126, 127, 128, 129, 131, 132, 133, 134, 135, 137,
	138, 139, 140, 142, 143, 144, 145, 147, 148, 149}

// DefaultProcOpt returns the default processing options.
func DefaultProcOpt() PrcOpt {
	return PrcOpt{
		Mode: PMODE_SINGLE, Nf: 2, NavSys: SYS_GPS,
		Elmin:  15.0 * D2R,
		ModeAr: ARMODE_CONT, GloModeAr: 1, BDSModeAr: 1,
		MaxOut: 5, MinLock: 0, MinFix: 10,
		IonoOpt: IONOOPT_BRDC, TropOpt: TROPOPT_SAAS, Dynamics: DYN_NONE,
		NoIter:     1,
		Eratio:     [NFREQ]float64{100.0, 100.0, 100.0},
		Err:        [5]float64{100.0, 0.003, 0.003, 0.0, 1.0},
		Std:        [3]float64{30.0, 0.03, 0.3},
		Prn:        [6]float64{1e-4, 1e-3, 1e-4, 1e-1, 1e-2, 0.0},
		SatClkStab: 5e-12,
		ThresAr:    [8]float64{3.0, 0.9999, 0.25, 0.1, 0.05},
		ThresSlip:  0.05,
		MaxTmDiff:  30.0, MaxInno: 30.0, MaxGdop: 30.0,
	}
}

// DefaultSolOpt returns the default solution output options.
func DefaultSolOpt() SolOpt {
	return SolOpt{
		Posf: SOLF_LLH, TimeS: TIMES_GPST, TimeF: 1, TimeU: 3,
		OutHead: 1,
		Sep:     " ",
		Prog:    "gnssrtk ver." + VER_GNSSRTK,
	}
}

var (
	gpst0 = [6]float64{1980, 1, 6, 0, 0, 0}  /* gps time reference */
	gst0  = [6]float64{1999, 8, 22, 0, 0, 0} /* galileo system time reference */
	bdt0  = [6]float64{2006, 1, 1, 0, 0, 0}  /* beidou time reference */
)

/* satellite number blocks in sat order */
var satBlocks = [...]struct {
	sys, minPrn, maxPrn int
}{
	{SYS_GPS, MINPRNGPS, MAXPRNGPS},
	{SYS_GLO, MINPRNGLO, MAXPRNGLO},
	{SYS_GAL, MINPRNGAL, MAXPRNGAL},
	{SYS_QZS, MINPRNQZS, MAXPRNQZS},
	{SYS_CMP, MINPRNCMP, MAXPRNCMP},
}

/* satellite system+prn/slot number to satellite number ------------------------
* args   : int    sys       I   satellite system (SYS_GPS,SYS_GLO,...)
*          int    prn       I   satellite prn/slot number
* return : satellite number (0:error)
*-----------------------------------------------------------------------------*/
func SatNo(sys int, prn int) int {
	base := 0
	for _, b := range satBlocks {
		if b.sys == sys {
			if prn < b.minPrn || b.maxPrn < prn {
				return 0
			}
			return base + prn - b.minPrn + 1
		}
		base += b.maxPrn - b.minPrn + 1
	}
	return 0
}

/* satellite number to satellite system ----------------------------------------
* args   : int    sat       I   satellite number (1-MAXSAT)
*          int    *prn      IO  satellite prn/slot number (nil: no output)
* return : satellite system (SYS_GPS,SYS_GLO,...)
*-----------------------------------------------------------------------------*/
func SatSys(sat int, prn *int) int {
	sys, n := SYS_NONE, 0
	if 0 < sat && sat <= MAXSAT {
		for _, b := range satBlocks {
			if ns := b.maxPrn - b.minPrn + 1; sat > ns {
				sat -= ns
				continue
			}
			sys, n = b.sys, sat+b.minPrn-1
			break
		}
	}
	if prn != nil {
		*prn = n
	}
	return sys
}

// SatId2No converts a satellite id (Gnn,Rnn,Enn,Jnn,Cnn or nn) to a satellite
// number, 0 on error.
func SatId2No(id string) int {
	var (
		sys, prn int
		code     rune
	)
	if n, _ := fmt.Sscanf(id, "%d", &prn); n == 1 {
		if MINPRNGPS <= prn && prn <= MAXPRNGPS {
			sys = SYS_GPS
		} else if MINPRNQZS <= prn && prn <= MAXPRNQZS {
			sys = SYS_QZS
		} else {
			return 0
		}
		return SatNo(sys, prn)
	}
	if n, _ := fmt.Sscanf(id, "%c%d", &code, &prn); n < 2 {
		return 0
	}
	switch code {
	case 'G':
		sys = SYS_GPS
		prn += MINPRNGPS - 1
	case 'R':
		sys = SYS_GLO
		prn += MINPRNGLO - 1
	case 'E':
		sys = SYS_GAL
		prn += MINPRNGAL - 1
	case 'J':
		sys = SYS_QZS
		prn += MINPRNQZS - 1
	case 'C':
		sys = SYS_CMP
		prn += MINPRNCMP - 1
	default:
		return 0
	}
	return SatNo(sys, prn)
}

// SatNo2Id returns the satellite id of sat, "" if sat is invalid.
func SatNo2Id(sat int) string {
	var prn int
	switch SatSys(sat, &prn) {
	case SYS_GPS:
		return fmt.Sprintf("G%02d", prn-MINPRNGPS+1)
	case SYS_GLO:
		return fmt.Sprintf("R%02d", prn-MINPRNGLO+1)
	case SYS_GAL:
		return fmt.Sprintf("E%02d", prn-MINPRNGAL+1)
	case SYS_QZS:
		return fmt.Sprintf("J%02d", prn-MINPRNQZS+1)
	case SYS_CMP:
		return fmt.Sprintf("C%02d", prn-MINPRNCMP+1)
	}
	return ""
}

// SysIndex maps a navigation system to 0..NSYS-1, -1 if unknown.
func SysIndex(sys int) int {
	switch sys {
	case SYS_GPS:
		return 0
	case SYS_GLO:
		return 1
	case SYS_GAL:
		return 2
	case SYS_QZS:
		return 3
	case SYS_CMP:
		return 4
	}
	return -1
}

/* test excluded satellite -----------------------------------------------------
* args   : int    sat       I   satellite number
*          int    svh       I   sv health flag
*          PrcOpt *opt      I   processing options (nil: not used)
* return : status (1:excluded,0:not excluded)
*-----------------------------------------------------------------------------*/
func SatExclude(sat int, svh int, opt *PrcOpt) int {
	sys := SatSys(sat, nil)
	if svh < 0 {
		return 1 /* ephemeris unavailable */
	}
	if opt != nil {
		if opt.ExSats[sat-1] == 1 {
			return 1
		}
		if opt.ExSats[sat-1] == 2 {
			return 0
		}
		if sys&opt.NavSys == 0 {
			return 1
		}
	}
	if svh != 0 {
		Trace(3, "unhealthy satellite: sat=%3d svh=%02X\n", sat, svh)
		return 1
	}
	return 0
}

/* test SNR mask ---------------------------------------------------------------
* args   : int    base      I   rover or base-station (0:rover,1:base station)
*          int    idx       I   frequency index (0:L1,1:L2,2:L3,...)
*          float64 el       I   elevation angle (rad)
*          float64 snr      I   C/N0 (dBHz)
*          SnrMask *mask    I   SNR mask
* return : status (1:masked,0:unmasked)
*-----------------------------------------------------------------------------*/
func TestSnr(base, idx int, el, snr float64, mask *SnrMask) int {
	if mask.Ena[base] == 0 || idx < 0 || idx >= NFREQ {
		return 0
	}
	a := (el*R2D + 5.0) / 10.0
	i := int(math.Floor(a))
	a -= float64(i)
	var minsnr float64
	if i < 1 {
		minsnr = mask.Mask[idx][0]
	} else if i > 8 {
		minsnr = mask.Mask[idx][8]
	} else {
		minsnr = (1.0-a)*mask.Mask[idx][i-1] + a*mask.Mask[idx][i]
	}
	if snr < minsnr {
		return 1
	}
	return 0
}

var obscodes = [MAXCODE + 1]string{ /* observation code strings */
	"", "1C", "1P", "1W", "1Y", "1M", "1N", "1S", "1L", "1E", /*  0- 9 */
	"1A", "1B", "1X", "1Z", "2C", "2D", "2S", "2L", "2X", "2P", /* 10-19 */
	"2W", "2Y", "2M", "2N", "5I", "5Q", "5X", "7I", "7Q", "7X", /* 20-29 */
	"6A", "6B", "6C", "6X", "6Z", "6S", "6L", "8I", "8Q", "8X", /* 30-39 */
	"2I", "2Q", "6I", "6Q", "3I", "3Q", "3X", "1I", "1Q", /* 40-48 */
}

var codepris = [NSYS][NFREQ]string{ /* code priority for each freq-index */
	{"CPYWMNSL", "PYWCMNDLSX", "IQX"}, /* GPS */
	{"CP", "PC", "IQX"},               /* GLO */
	{"CABXZ", "IQX", "IQX"},           /* GAL */
	{"CLSXZ", "LSX", "IQXDPZ"},        /* QZS */
	{"IQX", "IQX", "IQXA"},            /* BDS */
}

// Obs2Code converts an observation code string ("1C","2W",...) to CODE_???.
func Obs2Code(obs string) uint8 {
	for i := 1; i <= MAXCODE; i++ {
		if obscodes[i] == obs {
			return uint8(i)
		}
	}
	return CODE_NONE
}

// Code2Obs converts CODE_??? to its observation code string.
func Code2Obs(code uint8) string {
	if code <= CODE_NONE || MAXCODE < code {
		return ""
	}
	return obscodes[code]
}

/* observation code to frequency index -----------------------------------------
* args   : int    sys       I   satellite system (SYS_???)
*          uint8  code      I   obs code (CODE_???)
* return : frequency index (-1: error)
*                       0     1     2
*           --------------------------------------
*            GPS       L1    L2    L5
*            GLONASS   G1    G2    G3
*            Galileo   E1    E5b   E5a
*            QZSS      L1    L2    L5
*            BDS       B1I   B2I   B3
*-----------------------------------------------------------------------------*/
func Code2Idx(sys int, code uint8) int {
	obs := Code2Obs(code)
	if len(obs) == 0 {
		return -1
	}
	if i := strings.IndexByte(freqBands[sys], obs[0]); i >= 0 {
		return i
	}
	return -1
}

/* rinex band digits by frequency index */
var freqBands = map[int]string{
	SYS_GPS: "125",
	SYS_QZS: "125",
	SYS_GLO: "123",
	SYS_GAL: "175",
	SYS_CMP: "276",
}

// Code2Freq returns the carrier frequency (Hz) of a code, 0 if unknown.
// fcn is the GLONASS frequency channel number (-7..6).
func Code2Freq(sys int, code uint8, fcn int) float64 {
	idx := Code2Idx(sys, code)
	if idx < 0 {
		return 0.0
	}
	switch sys {
	case SYS_GPS, SYS_QZS:
		return [...]float64{FREQ1, FREQ2, FREQ5}[idx]
	case SYS_GLO:
		if fcn < -7 || fcn > 6 {
			return 0.0
		}
		switch idx {
		case 0:
			return FREQ1_GLO + DFRQ1_GLO*float64(fcn)
		case 1:
			return FREQ2_GLO + DFRQ2_GLO*float64(fcn)
		default:
			return FREQ3_GLO
		}
	case SYS_GAL:
		return [...]float64{FREQ1, FREQ7, FREQ5}[idx]
	case SYS_CMP:
		return [...]float64{FREQ1_CMP, FREQ2_CMP, FREQ3_CMP}[idx]
	}
	return 0.0
}

// Sat2Freq returns the carrier frequency of a satellite/code, looking up the
// GLONASS channel in the navigation data.
func Sat2Freq(sat int, code uint8, nav *Nav) float64 {
	var prn, fcn int
	sys := SatSys(sat, &prn)
	if sys == SYS_GLO {
		if nav == nil {
			return 0.0
		}
		if nav.Glo_fcn[prn-1] > 0 {
			fcn = nav.Glo_fcn[prn-1] - 8
		} else if gs := nav.Geph[sat]; len(gs) > 0 {
			fcn = gs[len(gs)-1].Frq
		} else {
			return 0.0
		}
	}
	return Code2Freq(sys, code, fcn)
}

// GetCodePri returns the priority of a code in its frequency
// (15:highest..1:lowest, 0:error).
func GetCodePri(sys int, code uint8) int {
	i := SysIndex(sys)
	j := Code2Idx(sys, code)
	if i < 0 || j < 0 {
		return 0
	}
	obs := Code2Obs(code)
	if n := strings.IndexByte(codepris[i][j], obs[1]); n >= 0 {
		return 14 - n
	}
	return 0
}

/* extract unsigned/signed bits ------------------------------------------------
* args   : []uint8 buff     I   byte data
*          int    pos       I   bit position from start of data (bits)
*          int    len       I   bit length (bits) (len<=32)
* return : extracted unsigned/signed bits
*-----------------------------------------------------------------------------*/
func GetBitU(buff []uint8, pos, len int) uint32 {
	var bits uint32
	for i := pos; i < pos+len; i++ {
		bits = (bits << 1) + uint32((buff[i/8]>>(7-i%8))&1)
	}
	return bits
}

func GetBits(buff []uint8, pos, len int) int32 {
	bits := GetBitU(buff, pos, len)
	if len <= 0 || 32 <= len || bits&(1<<(len-1)) == 0 {
		return int32(bits)
	}
	return int32(bits | (math.MaxUint32 << len)) /* extend sign */
}

/* set unsigned/signed bits ----------------------------------------------------
* args   : []uint8 buff     IO  byte data
*          int    pos       I   bit position from start of data (bits)
*          int    len       I   bit length (bits) (len<=32)
*          [u]int32 data    I   unsigned/signed data
*-----------------------------------------------------------------------------*/
func SetBitU(buff []uint8, pos, len int, data uint32) {
	if len <= 0 || 32 < len {
		return
	}
	var mask uint32 = 1 << (len - 1)
	for i := pos; i < pos+len; i, mask = i+1, mask>>1 {
		if data&mask > 0 {
			buff[i/8] |= 1 << (7 - i%8)
		} else {
			buff[i/8] &= ^(1 << (7 - i%8))
		}
	}
}

func SetBits(buff []uint8, pos, len int, data int32) {
	if data < 0 {
		data |= 1 << (len - 1)
	} else {
		data &= ^(1 << (len - 1)) /* set sign bit */
	}
	SetBitU(buff, pos, len, uint32(data))
}

var tbl_CRC24Q [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 16
		for j := 0; j < 8; j++ {
			crc <<= 1
			if crc&0x1000000 != 0 {
				crc ^= POLYCRC24Q
			}
		}
		tbl_CRC24Q[i] = crc & 0xFFFFFF
	}
}

/* crc-24q parity --------------------------------------------------------------
* compute crc-24q parity for rtcm3
* args   : []uint8 buff     I   data
*          int    len       I   data length (bytes)
* return : crc-24Q parity
* notes  : see reference [2] A.4.3.3 Parity
*-----------------------------------------------------------------------------*/
func Rtk_CRC24q(buff []uint8, len int) uint32 {
	var crc uint32
	for i := 0; i < len; i++ {
		crc = ((crc << 8) & 0xFFFFFF) ^ tbl_CRC24Q[(crc>>16)^uint32(buff[i])]
	}
	return crc
}

/* decode navigation data word -------------------------------------------------
* check party and decode navigation data word
* args   : uint32 word      I   navigation data word (2+30bit)
*                               (previous word D29*-30* + current word D1-30)
*          []uint8 data     O   decoded navigation data without parity (8bitx3)
* return : status (1:ok,0:parity error)
* notes  : see reference [1] 20.3.5.2 user parity algorithm
*-----------------------------------------------------------------------------*/
func Decode_Word(word uint32, data []uint8) int {
	hamming := [6]uint32{
		0xBB1F3480, 0x5D8F9A40, 0xAEC7CD00, 0x5763E680, 0x6BB1F340, 0x8B7A89C0}
	var parity uint32

	if word&0x40000000 != 0 {
		word ^= 0x3FFFFFC0
	}
	for i := 0; i < 6; i++ {
		parity <<= 1
		for w := (word & hamming[i]) >> 6; w > 0; w >>= 1 {
			parity ^= w & 1
		}
	}
	if parity != word&0x3F {
		return 0
	}
	for i := 0; i < 3; i++ {
		data[i] = uint8(word >> (22 - i*8))
	}
	return 1
}

// Encode_Word computes the 6 parity bits of a 24 bit data word given the last
// two bits (D29*,D30*) of the previous word and returns the 30 bit word with
// the data complemented when D30* is set.
func Encode_Word(data uint32, prev uint32) uint32 {
	hamming := [6]uint32{
		0xBB1F3480, 0x5D8F9A40, 0xAEC7CD00, 0x5763E680, 0x6BB1F340, 0x8B7A89C0}
	word := (prev&3)<<30 | (data&0xFFFFFF)<<6
	var parity uint32
	for i := 0; i < 6; i++ {
		parity <<= 1
		for w := (word & hamming[i]) >> 6; w > 0; w >>= 1 {
			parity ^= w & 1
		}
	}
	word |= parity
	if word&0x40000000 != 0 {
		word ^= 0x3FFFFFC0
	}
	return word & 0x3FFFFFFF
}

/* convert calendar day/time to time -------------------------------------------
* args   : []float64 ep     I   day/time {year,month,day,hour,min,sec}
* return : Gtime struct
* notes  : proper in 1970-2099
*-----------------------------------------------------------------------------*/
func Epoch2Time(ep []float64) Gtime {
	doy := [12]int{1, 32, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335}
	var ret Gtime
	year, mon, day := int(ep[0]), int(ep[1]), int(ep[2])

	if year < 1970 || 2099 < year || mon < 1 || 12 < mon {
		return ret
	}
	/* leap year if year%4==0 in 1901-2099 */
	days := (year-1970)*365 + (year-1969)/4 + doy[mon-1] + day - 2
	if year%4 == 0 && mon >= 3 {
		days++
	}
	sec := int(math.Floor(ep[5]))
	ret.Time = int64(days)*86400 + int64(ep[3])*3600 + int64(ep[4])*60 + int64(sec)
	ret.Sec = ep[5] - float64(sec)
	return ret
}

/* time to calendar day/time ---------------------------------------------------
* args   : Gtime   t        I   Gtime struct
*          []float64 ep     O   day/time {year,month,day,hour,min,sec}
*-----------------------------------------------------------------------------*/
func Time2Epoch(t Gtime, ep []float64) {
	mday := [48]int{ /* # of days in a month */
		31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31,
		31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	var mon, day int

	days := int(t.Time / 86400)
	sec := int(t.Time - int64(days)*86400)
	for day = days % 1461; mon < 48; mon++ {
		if day >= mday[mon] {
			day -= mday[mon]
		} else {
			break
		}
	}
	ep[0] = float64(1970 + days/1461*4 + mon/12)
	ep[1] = float64(mon%12 + 1)
	ep[2] = float64(day + 1)
	ep[3] = float64(sec / 3600)
	ep[4] = float64(sec % 3600 / 60)
	ep[5] = float64(sec%60) + t.Sec
}

func weekSec2Time(ref [6]float64, week int, sec float64) Gtime {
	t := Epoch2Time(ref[:])
	if sec < -1e9 || 1e9 < sec {
		sec = 0.0
	}
	t.Time += int64(86400*7*week) + int64(sec)
	t.Sec = sec - float64(int64(sec))
	return TimeAdd(t, 0.0)
}

func time2WeekSec(ref [6]float64, t Gtime, week *int) float64 {
	t0 := Epoch2Time(ref[:])
	sec := t.Time - t0.Time
	w := int(sec / (86400 * 7))
	if week != nil {
		*week = w
	}
	return float64(sec-int64(w)*86400*7) + t.Sec
}

// GpsT2Time converts week and tow in gps time to Gtime.
func GpsT2Time(week int, sec float64) Gtime { return weekSec2Time(gpst0, week, sec) }

// Time2GpsT converts Gtime to week and tow in gps time.
func Time2GpsT(t Gtime, week *int) float64 { return time2WeekSec(gpst0, t, week) }

// GsT2Time converts week and tow in galileo system time to Gtime.
func GsT2Time(week int, sec float64) Gtime { return weekSec2Time(gst0, week, sec) }

func Time2GsT(t Gtime, week *int) float64 { return time2WeekSec(gst0, t, week) }

// BDT2Time converts week and tow in beidou time to Gtime.
func BDT2Time(week int, sec float64) Gtime { return weekSec2Time(bdt0, week, sec) }

func Time2BDT(t Gtime, week *int) float64 { return time2WeekSec(bdt0, t, week) }

/* add time --------------------------------------------------------------------
* args   : Gtime   t        I   Gtime struct
*          float64 sec      I   time to add (s)
* return : Gtime struct (t+sec)
*-----------------------------------------------------------------------------*/
func TimeAdd(t Gtime, sec float64) Gtime {
	t.Sec += sec
	tt := math.Floor(t.Sec)
	t.Time += int64(tt)
	t.Sec -= tt
	return t
}

// TimeDiff returns t1-t2 (s).
func TimeDiff(t1 Gtime, t2 Gtime) float64 {
	return float64(t1.Time-t2.Time) + t1.Sec - t2.Sec
}

var (
	timeoffset float64 /* time offset (s) */
	timeLock   sync.Mutex
)

// TimeGet returns the current time in utc.
func TimeGet() Gtime {
	timeLock.Lock()
	defer timeLock.Unlock()

	ts := time.Now().UTC()
	ep := []float64{float64(ts.Year()), float64(ts.Month()), float64(ts.Day()),
		float64(ts.Hour()), float64(ts.Minute()),
		float64(ts.Second()) + float64(ts.Nanosecond())*1e-9}
	return TimeAdd(Epoch2Time(ep), timeoffset)
}

// TimeSet sets the offset between cpu time and the time returned by TimeGet.
func TimeSet(t Gtime) {
	d := TimeDiff(t, TimeGet())
	timeLock.Lock()
	timeoffset += d
	timeLock.Unlock()
}

func TimeReset() {
	timeLock.Lock()
	timeoffset = 0.0
	timeLock.Unlock()
}

var leaps = [...][7]float64{ /* leap seconds (y,m,d,h,m,s,utc-gpst) */
	{2017, 1, 1, 0, 0, 0, -18},
	{2015, 7, 1, 0, 0, 0, -17},
	{2012, 7, 1, 0, 0, 0, -16},
	{2009, 1, 1, 0, 0, 0, -15},
	{2006, 1, 1, 0, 0, 0, -14},
	{1999, 1, 1, 0, 0, 0, -13},
	{1997, 7, 1, 0, 0, 0, -12},
	{1996, 1, 1, 0, 0, 0, -11},
	{1994, 7, 1, 0, 0, 0, -10},
	{1993, 7, 1, 0, 0, 0, -9},
	{1992, 7, 1, 0, 0, 0, -8},
	{1991, 1, 1, 0, 0, 0, -7},
	{1990, 1, 1, 0, 0, 0, -6},
	{1988, 1, 1, 0, 0, 0, -5},
	{1985, 7, 1, 0, 0, 0, -4},
	{1983, 7, 1, 0, 0, 0, -3},
	{1982, 7, 1, 0, 0, 0, -2},
	{1981, 7, 1, 0, 0, 0, -1},
}

// GpsT2Utc converts gpstime to utc considering leap seconds.
func GpsT2Utc(t Gtime) Gtime {
	for i := range leaps {
		tu := TimeAdd(t, leaps[i][6])
		if TimeDiff(tu, Epoch2Time(leaps[i][:])) >= 0.0 {
			return tu
		}
	}
	return t
}

// Utc2GpsT converts utc to gpstime considering leap seconds.
func Utc2GpsT(t Gtime) Gtime {
	for i := range leaps {
		if TimeDiff(t, Epoch2Time(leaps[i][:])) >= 0.0 {
			return TimeAdd(t, -leaps[i][6])
		}
	}
	return t
}

// GpsT2BDT converts gpstime to beidou time (no leap seconds in BDT).
func GpsT2BDT(t Gtime) Gtime { return TimeAdd(t, -14.0) }

func BDT2GpsT(t Gtime) Gtime { return TimeAdd(t, 14.0) }

// Time2Sec returns the seconds of day and the start of the day.
func Time2Sec(t Gtime, day *Gtime) float64 {
	var ep [6]float64
	Time2Epoch(t, ep[:])
	sec := ep[3]*3600.0 + ep[4]*60.0 + ep[5]
	ep[3], ep[4], ep[5] = 0.0, 0.0, 0.0
	*day = Epoch2Time(ep[:])
	return sec
}

/* time to string --------------------------------------------------------------
* args   : Gtime   t        I   Gtime struct
*          int    n         I   number of decimals
* return : time string ("yyyy/mm/dd hh:mm:ss.ssss")
*-----------------------------------------------------------------------------*/
func TimeStr(t Gtime, n int) string {
	var ep [6]float64
	if n < 0 {
		n = 0
	} else if n > 12 {
		n = 12
	}
	if 1.0-t.Sec < 0.5/math.Pow(10.0, float64(n)) {
		t.Time++
		t.Sec = 0.0
	}
	Time2Epoch(t, ep[:])
	width := 2
	if n > 0 {
		width = n + 3
	}
	return fmt.Sprintf("%04.0f/%02.0f/%02.0f %02.0f:%02.0f:%0*.*f", ep[0], ep[1], ep[2],
		ep[3], ep[4], width, n, ep[5])
}

// Str2Time parses "yyyy mm dd hh mm ss" (any separators) into t, 0 on success.
func Str2Time(s string, t *Gtime) int {
	var ep [6]float64
	f := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r == '.' || r == '-')
	})
	if len(f) < 6 {
		return -1
	}
	for i := 0; i < 6; i++ {
		if _, err := fmt.Sscanf(f[i], "%g", &ep[i]); err != nil {
			return -1
		}
	}
	if ep[0] < 100.0 {
		if ep[0] < 80.0 {
			ep[0] += 2000.0
		} else {
			ep[0] += 1900.0
		}
	}
	*t = Epoch2Time(ep[:])
	return 0
}

// Time2DayOfYear returns the day of year of t (days).
func Time2DayOfYear(t Gtime) float64 {
	var ep [6]float64
	Time2Epoch(t, ep[:])
	ep[1], ep[2], ep[3], ep[4], ep[5] = 1.0, 1.0, 0.0, 0.0, 0.0
	return TimeDiff(t, Epoch2Time(ep[:]))/86400.0 + 1.0
}

// AdjGpsWeek resolves a 10 bit gps week number using cpu time.
func AdjGpsWeek(week int) int {
	var w int
	Time2GpsT(Utc2GpsT(TimeGet()), &w)
	if w < 1560 {
		w = 1560 /* use 2009/12/1 if time is earlier than 2009/12/1 */
	}
	return week + (w-week+1)/1024*1024
}

// TickGet returns the current tick in ms.
func TickGet() int64 {
	return time.Now().UnixMilli()
}

// Sleepms sleeps ms milliseconds (<=0: no sleep).
func Sleepms(ms int) {
	if ms <= 0 {
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// tryLock acquires mu, giving up after timeout ms. It returns false when the
// lock could not be taken in time.
func tryLock(mu *sync.Mutex, timeout int) bool {
	if mu.TryLock() {
		return true
	}
	deadline := time.Now().Add(time.Duration(timeout) * time.Millisecond)
	for time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		if mu.TryLock() {
			return true
		}
	}
	return false
}

// Deg2Dms converts degree to {deg,min,sec} with ndec decimals of second.
func Deg2Dms(deg float64, dms []float64, ndec int) {
	sign := 1.0
	if deg < 0.0 {
		sign = -1.0
	}
	a := math.Abs(deg)
	unit := math.Pow(0.1, float64(ndec))

	dms[0] = math.Floor(a)
	a = (a - dms[0]) * 60.0
	dms[1] = math.Floor(a)
	a = (a - dms[1]) * 60.0
	dms[2] = math.Floor(a/unit+0.5) * unit
	if dms[2] >= 60.0 {
		dms[2] = 0.0
		dms[1] += 1.0
		if dms[1] >= 60.0 {
			dms[1] = 0.0
			dms[0] += 1.0
		}
	}
	dms[0] *= sign
}

func Dms2Deg(dms []float64) float64 {
	sign := 1.0
	if dms[0] < 0 {
		sign = -1.0
	}
	return sign * (math.Abs(dms[0]) + dms[1]/60.0 + dms[2]/3600.0)
}
