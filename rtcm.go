/*------------------------------------------------------------------------------
* rtcm.go : rtcm decoder control and framing
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1]  RTCM Recommended Standards for Differential GNSS (Global Navigation
*          Satellite Systems) Service version 2.3, August 20, 2001
*     [2]  RTCM Standard 10403.3, Differential GNSS (Global Navigation Satellite
*          Systems) Services - version 3, with amendment 1, April 28, 2020
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  decoder interface, resync by rescanning retained
*                           bytes, epoch flush on new timestamp
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	RTCM2PREAMB = 0x66 /* rtcm ver.2 frame preamble */
	RTCM3PREAMB = 0xD3 /* rtcm ver.3 frame preamble */
)

const (
	DEC_ERROR = -1 /* decoder: error message */
	DEC_NONE  = 0  /* decoder: no message */
	DEC_OBS   = 1  /* decoder: observation epoch complete */
	DEC_EPH   = 2  /* decoder: ephemeris */
	DEC_STA   = 5  /* decoder: station position/antenna parameters */
	DEC_DGPS  = 7  /* decoder: dgps corrections */
	DEC_ION   = 9  /* decoder: ion/utc parameters */
	DEC_SSR   = 10 /* decoder: ssr corrections */
	DEC_MSM   = 31 /* decoder: msm signal info without observables */
)

// Decoder turns a byte stream into observation epochs and navigation
// updates. Partial messages are retained across calls.
type Decoder interface {
	Input(data byte) int /* input one byte, returns DEC_??? */
	ObsData() *Obs       /* last complete observation epoch */
	Nav() *Nav           /* navigation data decoded so far */
	EphSat() int         /* satellite of the last ephemeris */
	Station() *Sta       /* station parameters */
	Counts() []uint32    /* messages by type */
}

// DecodeBytes inputs buff to dec and calls handle for every event. Decoders
// holding queued input (see Rtcm.Resume) are drained after each event.
func DecodeBytes(dec Decoder, buff []byte, handle func(ret int)) {
	r, resumable := dec.(interface{ Resume() int })
	for _, c := range buff {
		ret := dec.Input(c)
		for ret != DEC_NONE {
			if handle != nil {
				handle(ret)
			}
			if !resumable {
				break
			}
			ret = r.Resume()
		}
	}
}

// Rtcm is the RTCM 2/3 decoder/encoder control.
type Rtcm struct {
	Format    int                    /* STRFMT_RTCM2 or STRFMT_RTCM3 */
	StaId     int                    /* station id */
	StaHealth int                    /* station health */
	SeqNo     int                    /* sequence number for rtcm 2 */
	Time      Gtime                  /* message time */
	Epoch     Obs                    /* last complete observation epoch */
	NavData   Nav                    /* navigation data */
	StaPara   Sta                    /* station parameters */
	Msg       string                 /* special message */
	ObsFlag   int                    /* obs data complete flag */
	EphNum    int                    /* input ephemeris satellite number */
	EphSet    int                    /* input ephemeris set (0-1) */
	Cp        [MAXSAT][NFREQ]float64 /* carrier-phase measurement */
	Lock      [MAXSAT][NFREQ]uint16  /* lock time */
	Loss      [MAXSAT][NFREQ]uint16  /* loss of lock count */
	Lltime    [MAXSAT][NFREQ]Gtime   /* last lock time (encoder) */
	Nbyte     int                    /* number of bytes in message buffer */
	Nbit      int                    /* number of bits in word buffer */
	MsgLen    int                    /* message length (bytes) */
	Buff      [1200]uint8            /* message buffer */
	Word      uint32                 /* word buffer for rtcm 2 */
	Nmsg2     [100]uint32            /* message count of RTCM 2 (1-99:1-99,0:other) */
	Nmsg3     [400]uint32            /* message count of RTCM 3 */
	NCrcErr   uint32                 /* crc/parity failures */
	NResync   uint32                 /* bytes dropped to resynchronize */
	Opt       string                 /* rtcm dependent options */
	work      Obs                    /* epoch under construction */
	obsReady  bool                   /* work holds a complete epoch */
	pending   []uint8                /* bytes waiting to be scanned */
	frame     []uint8                /* last generated message (encoder) */
}

// NewRtcm returns a decoder for format (STRFMT_RTCM2/STRFMT_RTCM3).
// Options: -EPHALL (input all ephemerides), -STA=nnn (accept station nnn only),
// -GALINAV/-GALFNAV (select galileo ephemeris type).
func NewRtcm(format int, opt string) *Rtcm {
	return &Rtcm{Format: format, Opt: opt, NavData: NewNav()}
}

// Input inputs one byte and returns DEC_???. Bytes are queued and scanned in
// order, so a byte following an event is not lost.
func (rtcm *Rtcm) Input(data uint8) int {
	rtcm.pending = append(rtcm.pending, data)
	return rtcm.Resume()
}

// Resume continues scanning queued bytes and returns the next event, 0 when
// the queue is drained.
func (rtcm *Rtcm) Resume() int {
	if rtcm.obsReady {
		rtcm.obsReady = false
		rtcm.flushObs()
		return DEC_OBS
	}
	for len(rtcm.pending) > 0 {
		c := rtcm.pending[0]
		rtcm.pending = rtcm.pending[1:]
		var ret int
		if rtcm.Format == STRFMT_RTCM2 {
			ret = rtcm.InputRtcm2(c)
		} else {
			ret = rtcm.InputRtcm3(c)
		}
		if ret != DEC_NONE {
			return ret
		}
	}
	rtcm.pending = rtcm.pending[:0]
	return DEC_NONE
}

func (rtcm *Rtcm) ObsData() *Obs { return &rtcm.Epoch }
func (rtcm *Rtcm) Nav() *Nav     { return &rtcm.NavData }
func (rtcm *Rtcm) EphSat() int   { return rtcm.EphNum }
func (rtcm *Rtcm) Station() *Sta { return &rtcm.StaPara }

// Errors returns the number of crc/parity failures and resync discards.
func (rtcm *Rtcm) Errors() (uint32, uint32) { return rtcm.NCrcErr, rtcm.NResync }

// Counts returns a copy of the message counters of the decoder format.
func (rtcm *Rtcm) Counts() []uint32 {
	if rtcm.Format == STRFMT_RTCM2 {
		return append([]uint32(nil), rtcm.Nmsg2[:]...)
	}
	return append([]uint32(nil), rtcm.Nmsg3[:]...)
}

/* obs epoch buffering -------------------------------------------------------*/

// beginObs starts data of time t. If the buffered epoch has another time it
// is flushed first and true is returned.
func (rtcm *Rtcm) beginObs(t Gtime) bool {
	if len(rtcm.work.Data) > 0 && math.Abs(TimeDiff(rtcm.work.Data[0].Time, t)) > 1e-9 {
		rtcm.obsReady = false
		rtcm.flushObs()
		return true
	}
	return false
}

// obsIndex returns the index of sat in the epoch under construction, adding a
// new record if needed (-1: overflow).
func (rtcm *Rtcm) obsIndex(t Gtime, sat int) int {
	for i := range rtcm.work.Data {
		if rtcm.work.Data[i].Sat == sat {
			return i
		}
	}
	if len(rtcm.work.Data) >= MAXOBS {
		return -1
	}
	rtcm.work.Data = append(rtcm.work.Data, ObsD{Time: t, Sat: sat})
	return len(rtcm.work.Data) - 1
}

func (rtcm *Rtcm) flushObs() {
	data := rtcm.work.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Sat < data[j].Sat })
	rtcm.Epoch = Obs{Data: data}
	rtcm.work = Obs{}
	rtcm.ObsFlag = 1
}

// endObs finishes an observation message. sync=0 marks the last message of
// the epoch. flushed tells that beginObs already emitted the previous epoch.
func (rtcm *Rtcm) endObs(sync int, flushed bool) int {
	if sync == 0 && len(rtcm.work.Data) > 0 {
		if flushed {
			rtcm.obsReady = true
			return DEC_OBS
		}
		rtcm.flushObs()
		return DEC_OBS
	}
	rtcm.ObsFlag = 0
	if flushed {
		return DEC_OBS
	}
	return DEC_NONE
}

/* store ephemeris unless unchanged -------------------------------------------*/
func (rtcm *Rtcm) storeEph(eph *Eph, set int) int {
	if !strings.Contains(rtcm.Opt, "-EPHALL") {
		for _, e := range rtcm.NavData.Eph[eph.Sat] {
			if e.Iode == eph.Iode && e.Iodc == eph.Iodc && TimeDiff(e.Toe, eph.Toe) == 0.0 {
				return DEC_NONE /* unchanged */
			}
		}
	}
	rtcm.NavData.AddEph(eph)
	rtcm.EphNum = eph.Sat
	rtcm.EphSet = set
	return DEC_EPH
}

/* test station id consistency -----------------------------------------------*/
func (rtcm *Rtcm) testStaId(staid int) bool {
	var id int

	if index := strings.Index(rtcm.Opt, "-STA="); index >= 0 {
		if n, _ := fmt.Sscanf(rtcm.Opt[index:], "-STA=%d", &id); n == 1 && staid != id {
			return false
		}
	}
	if rtcm.StaId == 0 || rtcm.ObsFlag > 0 {
		rtcm.StaId = staid
	} else if staid != rtcm.StaId {
		Trace(2, "rtcm3 %d staid invalid id=%d %d\n", GetBitU(rtcm.Buff[:], 24, 12), staid, rtcm.StaId)
		rtcm.StaId = 0
		return false
	}
	return true
}

/* time adjustment -------------------------------------------------------------
* message times are resolved against rtcm.Time, which has to be set to the
* approximate time before the first message (cpu time if unset)
*-----------------------------------------------------------------------------*/
func (rtcm *Rtcm) refTime() Gtime {
	if rtcm.Time.Time == 0 {
		rtcm.Time = Utc2GpsT(TimeGet())
	}
	return rtcm.Time
}

// AdjWeek resolves the week of a gps time of week.
func (rtcm *Rtcm) AdjWeek(tow float64) {
	var week int
	tow_p := Time2GpsT(rtcm.refTime(), &week)
	if tow < tow_p-302400.0 {
		tow += 604800.0
	} else if tow > tow_p+302400.0 {
		tow -= 604800.0
	}
	rtcm.Time = GpsT2Time(week, tow)
}

// AdjDayGlot resolves the day of a glonass time of day.
func (rtcm *Rtcm) AdjDayGlot(tod float64) {
	var week int
	t := TimeAdd(GpsT2Utc(rtcm.refTime()), 10800.0) /* glonass time */
	tow := Time2GpsT(t, &week)
	tod_p := math.Mod(tow, 86400.0)
	tow -= tod_p
	if tod < tod_p-43200.0 {
		tod += 86400.0
	} else if tod > tod_p+43200.0 {
		tod -= 86400.0
	}
	t = GpsT2Time(week, tow+tod)
	rtcm.Time = Utc2GpsT(TimeAdd(t, -10800.0))
}

// AdjHour resolves the hour of a rtcm 2 modified z-count (s).
func (rtcm *Rtcm) AdjHour(zcnt float64) {
	var week int
	tow := Time2GpsT(rtcm.refTime(), &week)
	hour := math.Floor(tow / 3600.0)
	sec := tow - hour*3600.0
	if zcnt < sec-1800.0 {
		zcnt += 3600.0
	} else if zcnt > sec+1800.0 {
		zcnt -= 3600.0
	}
	rtcm.Time = GpsT2Time(week, hour*3600+zcnt)
}

func (rtcm *Rtcm) adjGpsWeek(week int) int {
	var w int
	Time2GpsT(rtcm.refTime(), &w)
	return week + (w-week+512)/1024*1024
}

func (rtcm *Rtcm) adjBDTWeek(week int) int {
	var w int
	Time2BDT(GpsT2BDT(rtcm.refTime()), &w)
	if w < 1 {
		w = 1
	}
	return week + (w-week+4096)/8192*8192
}

// adjEphWeek moves the week of toe next to the message time.
func (rtcm *Rtcm) adjEphWeek(week int, toes float64) int {
	tt := TimeDiff(GpsT2Time(week, toes), rtcm.refTime())
	if tt < -302400.0 {
		week++
	} else if tt >= 302400.0 {
		week--
	}
	return week
}

// AdjCP adjusts a carrier-phase rollover.
func (rtcm *Rtcm) AdjCP(sat, idx int, cp float64) float64 {
	switch {
	case rtcm.Cp[sat-1][idx] == 0.0:
	case cp < rtcm.Cp[sat-1][idx]-750.0:
		cp += 1500.0
	case cp > rtcm.Cp[sat-1][idx]+750.0:
		cp -= 1500.0
	}
	rtcm.Cp[sat-1][idx] = cp
	return cp
}

// LossOfLock returns the loss-of-lock indicator from the lock time indicator.
func (rtcm *Rtcm) LossOfLock(sat, idx, lock int) int {
	lli := 0
	if (lock == 0 && rtcm.Lock[sat-1][idx] == 0) || lock < int(rtcm.Lock[sat-1][idx]) {
		lli = LLI_SLIP
	}
	rtcm.Lock[sat-1][idx] = uint16(lock)
	return lli
}

// SnRatio converts C/N0 (dBHz) to SNR_UNIT.
func SnRatio(snr float64) uint16 {
	if snr <= 0.0 || 100.0 <= snr {
		return 0
	}
	return uint16(snr/SNR_UNIT + 0.5)
}

/* input RTCM 2 message from stream --------------------------------------------
* fetch next RTCM 2 message and input a message from byte stream
* args   : uint8  data      I   stream data (1 byte)
* return : status (DEC_???)
* notes  : 30 bit words are transmitted in 6-of-8 form (upper 2 bits 01,
*          lsb first). parity errors drop the frame and restart the preamble
*          search.
*-----------------------------------------------------------------------------*/
func (rtcm *Rtcm) InputRtcm2(data uint8) int {
	Trace(5, "input_rtcm2: data=%02x\n", data)

	if (data & 0xC0) != 0x40 {
		return DEC_NONE /* ignore if upper 2bit != 01 */
	}
	for i := 0; i < 6; i, data = i+1, data>>1 { /* decode 6-of-8 form */
		rtcm.Word = (rtcm.Word << 1) + uint32(data&1)

		/* synchronize frame */
		if rtcm.Nbyte == 0 {
			preamb := uint8(rtcm.Word >> 22)
			if rtcm.Word&0x40000000 != 0 {
				preamb ^= 0xFF /* decode preamble */
			}
			if preamb != RTCM2PREAMB {
				continue
			}
			if Decode_Word(rtcm.Word, rtcm.Buff[:]) == 0 {
				continue
			}
			rtcm.Nbyte = 3
			rtcm.Nbit = 0
			continue
		}
		if rtcm.Nbit++; rtcm.Nbit < 30 {
			continue
		}
		rtcm.Nbit = 0

		if Decode_Word(rtcm.Word, rtcm.Buff[rtcm.Nbyte:]) == 0 {
			Trace(2, "rtcm2 parity error: i=%d word=%08x\n", i, rtcm.Word)
			rtcm.NCrcErr++
			rtcm.NResync++
			rtcm.Nbyte = 0
			rtcm.Word &= 0x3
			continue
		}
		rtcm.Nbyte += 3
		if rtcm.Nbyte == 6 {
			rtcm.MsgLen = int(rtcm.Buff[5]>>3)*3 + 6
		}
		if rtcm.Nbyte < rtcm.MsgLen {
			continue
		}
		rtcm.Nbyte = 0
		rtcm.Word &= 0x3

		return rtcm.DecodeRtcm2()
	}
	return DEC_NONE
}

/* input RTCM 3 message from stream --------------------------------------------
* fetch next RTCM 3 message and input a message from byte stream
* args   : uint8  data      I   stream data (1 byte)
* return : status (DEC_???)
* notes  : RTCM 3 message format:
*            +----------+--------+-----------+--------------------+----------+
*            | preamble | 000000 |  length   |    data message    |  parity  |
*            +----------+--------+-----------+--------------------+----------+
*            |<-- 8 --->|<- 6 -->|<-- 10 --->|<--- length x 8 --->|<-- 24 -->|
*
*          on a reserved bits or crc error the first byte of the candidate
*          frame is dropped and the following bytes are scanned again.
*-----------------------------------------------------------------------------*/
func (rtcm *Rtcm) InputRtcm3(data uint8) int {
	Trace(5, "input_rtcm3: data=%02x\n", data)

	if rtcm.Nbyte == 0 {
		if data != RTCM3PREAMB {
			return DEC_NONE
		}
		rtcm.Buff[0] = data
		rtcm.Nbyte = 1
		return DEC_NONE
	}
	rtcm.Buff[rtcm.Nbyte] = data
	rtcm.Nbyte++

	if rtcm.Nbyte == 3 {
		if rtcm.Buff[1]&0xFC != 0 {
			Trace(3, "rtcm3 reserved bits error: %02x\n", rtcm.Buff[1])
			rtcm.resync()
			return DEC_NONE
		}
		rtcm.MsgLen = int(GetBitU(rtcm.Buff[:], 14, 10)) + 3 /* length without parity */
	}
	if rtcm.Nbyte < 3 || rtcm.Nbyte < rtcm.MsgLen+3 {
		return DEC_NONE
	}
	if Rtk_CRC24q(rtcm.Buff[:], rtcm.MsgLen) != GetBitU(rtcm.Buff[:], rtcm.MsgLen*8, 24) {
		Trace(2, "rtcm3 parity error: len=%d\n", rtcm.MsgLen)
		rtcm.NCrcErr++
		rtcm.resync()
		return DEC_NONE
	}
	rtcm.Nbyte = 0
	return rtcm.DecodeRtcm3()
}

// resync drops the first byte of the candidate frame and queues the rest to
// be scanned again.
func (rtcm *Rtcm) resync() {
	retained := append([]uint8(nil), rtcm.Buff[1:rtcm.Nbyte]...)
	rtcm.pending = append(retained, rtcm.pending...)
	rtcm.Nbyte = 0
	rtcm.NResync++
}
