/*------------------------------------------------------------------------------
* solution.go : solution buffer and solution output functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  cyclic solution buffer with recent/mean queries,
*                           solution status rows $POS/$CLK/$SAT
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

const (
	NMEA_TID = "GP"      /* NMEA talker ID for RMC and GGA sentences */
	KNOT2M   = 0.514444444 /* m/knot */
)

// ErrBufferCapacity is returned for a solution buffer without capacity.
var ErrBufferCapacity = errors.New("solution buffer capacity must be positive")

// SolBuf is a bounded cyclic buffer of solutions. Once full, each write
// replaces the oldest solution.
type SolBuf struct {
	data  []Sol /* solution data */
	start int   /* index of oldest solution */
	n     int   /* number of solutions */
}

func NewSolBuf(capacity int) (*SolBuf, error) {
	if capacity < 1 {
		return nil, errors.Wrapf(ErrBufferCapacity, "capacity=%d", capacity)
	}
	return &SolBuf{data: make([]Sol, capacity)}, nil
}

func (b *SolBuf) N() int   { return b.n }
func (b *SolBuf) Cap() int { return len(b.data) }

// AddSol appends a solution, overwriting the oldest when the buffer is full.
func (b *SolBuf) AddSol(sol *Sol) {
	if b.n < len(b.data) {
		b.data[(b.start+b.n)%len(b.data)] = *sol
		b.n++
		return
	}
	b.data[b.start] = *sol
	b.start = (b.start + 1) % len(b.data)
}

// GetSol returns the i-th solution (0: oldest), nil if out of range.
func (b *SolBuf) GetSol(i int) *Sol {
	if i < 0 || i >= b.n {
		return nil
	}
	return &b.data[(b.start+i)%len(b.data)]
}

// Recent returns copies of the last n solutions in write order.
func (b *SolBuf) Recent(n int) []Sol {
	if n > b.n {
		n = b.n
	}
	if n <= 0 {
		return nil
	}
	sols := make([]Sol, n)
	for i := 0; i < n; i++ {
		sols[i] = *b.GetSol(b.n - n + i)
	}
	return sols
}

// MeanPos returns the mean ecef position of the first n solutions with a
// valid quality and the number averaged.
func (b *SolBuf) MeanPos(n int, rr []float64) int {
	var sum [3]float64
	m := 0
	for i := 0; i < b.n && m < n; i++ {
		sol := b.GetSol(i)
		if sol.Stat == SOLQ_NONE {
			continue
		}
		for j := 0; j < 3; j++ {
			sum[j] += sol.Rr[j]
		}
		m++
	}
	if m == 0 {
		return 0
	}
	for j := 0; j < 3; j++ {
		rr[j] = sum[j] / float64(m)
	}
	return m
}

// Clear removes all solutions.
func (b *SolBuf) Clear() {
	b.start, b.n = 0, 0
}

/* solution option to field separator ----------------------------------------*/
func opt2sep(opt *SolOpt) string {
	if opt.Sep == "\\t" {
		return "\t"
	}
	if len(opt.Sep) == 0 {
		return " "
	}
	return opt.Sep
}

/* sqrt of covariance --------------------------------------------------------*/
func sqvar(covar float64) float64 {
	if covar < 0.0 {
		return -math.Sqrt(-covar)
	}
	return math.Sqrt(covar)
}

func sqrt32(v float32) float64 { return SQRT(float64(v)) }

/* solution to covariance ----------------------------------------------------*/
func (sol *Sol) Sol2Cov(P []float64) {
	P[0] = float64(sol.Qr[0]) /* xx or ee */
	P[4] = float64(sol.Qr[1]) /* yy or nn */
	P[8] = float64(sol.Qr[2]) /* zz or uu */
	P[1] = float64(sol.Qr[3]) /* xy or en */
	P[3] = P[1]
	P[5] = float64(sol.Qr[4]) /* yz or nu */
	P[7] = P[5]
	P[2] = float64(sol.Qr[5]) /* zx or ue */
	P[6] = P[2]
}

/* velocity solution to covariance -------------------------------------------*/
func (sol *Sol) Sol2CovVel(P []float64) {
	P[0] = float64(sol.Qv[0])
	P[4] = float64(sol.Qv[1])
	P[8] = float64(sol.Qv[2])
	P[1] = float64(sol.Qv[3])
	P[3] = P[1]
	P[5] = float64(sol.Qv[4])
	P[7] = P[5]
	P[2] = float64(sol.Qv[5])
	P[6] = P[2]
}

// SolStd approximates the std-dev of a solution by the max of 3 axes.
func (sol *Sol) SolStd() float64 {
	return math.Max(sqrt32(sol.Qr[0]), math.Max(sqrt32(sol.Qr[1]), sqrt32(sol.Qr[2])))
}

/* NMEA quality indicator ----------------------------------------------------*/
func nmeaQuality(stat uint8) int {
	switch stat {
	case SOLQ_SINGLE:
		return 1
	case SOLQ_DGPS, SOLQ_SBAS:
		return 2
	case SOLQ_PPP:
		return 3
	case SOLQ_FIX:
		return 4
	case SOLQ_FLOAT:
		return 5
	case SOLQ_DR:
		return 6
	}
	return 0
}

/* NMEA checksum: xor of characters between '$' and '*' ----------------------*/
func nmeaChecksum(s string) uint8 {
	var sum uint8
	for i := 1; i < len(s); i++ {
		sum ^= s[i]
	}
	return sum
}

/* output solution as the form of x/y/z-ecef ---------------------------------*/
func (sol *Sol) outEcef(b *strings.Builder, s string, opt *SolOpt) {
	sep := opt2sep(opt)

	fmt.Fprintf(b, "%s%s%14.4f%s%14.4f%s%14.4f%s%3d%s%3d%s%8.4f%s%8.4f%s%8.4f%s%8.4f%s%8.4f%s%8.4f%s%6.2f%s%6.1f",
		s, sep, sol.Rr[0], sep, sol.Rr[1], sep, sol.Rr[2], sep, sol.Stat, sep,
		sol.Ns, sep, sqrt32(sol.Qr[0]), sep, sqrt32(sol.Qr[1]), sep,
		sqrt32(sol.Qr[2]), sep, sqvar(float64(sol.Qr[3])), sep, sqvar(float64(sol.Qr[4])), sep,
		sqvar(float64(sol.Qr[5])), sep, sol.Age, sep, sol.Ratio)

	if opt.OutVel > 0 {
		fmt.Fprintf(b, "%s%10.5f%s%10.5f%s%10.5f%s%9.5f%s%8.5f%s%8.5f%s%8.5f%s%8.5f%s%8.5f",
			sep, sol.Rr[3], sep, sol.Rr[4], sep, sol.Rr[5], sep,
			sqrt32(sol.Qv[0]), sep, sqrt32(sol.Qv[1]), sep, sqrt32(sol.Qv[2]),
			sep, sqvar(float64(sol.Qv[3])), sep, sqvar(float64(sol.Qv[4])), sep,
			sqvar(float64(sol.Qv[5])))
	}
	b.WriteString("\r\n")
}

/* output solution as the form of lat/lon/height -----------------------------*/
func (sol *Sol) outPos(b *strings.Builder, s string, opt *SolOpt) {
	var pos, vel, dms1, dms2 [3]float64
	var P, Q [9]float64
	sep := opt2sep(opt)

	Ecef2Pos(sol.Rr[:], pos[:])
	sol.Sol2Cov(P[:])
	Cov2Enu(pos[:], P[:], Q[:])
	if opt.DegF > 0 {
		Deg2Dms(pos[0]*R2D, dms1[:], 5)
		Deg2Dms(pos[1]*R2D, dms2[:], 5)
		fmt.Fprintf(b, "%s%s%4.0f%s%02.0f%s%08.5f%s%4.0f%s%02.0f%s%08.5f", s, sep,
			dms1[0], sep, dms1[1], sep, dms1[2], sep, dms2[0], sep, dms2[1], sep, dms2[2])
	} else {
		fmt.Fprintf(b, "%s%s%14.9f%s%14.9f", s, sep, pos[0]*R2D, sep, pos[1]*R2D)
	}
	fmt.Fprintf(b, "%s%10.4f%s%3d%s%3d%s%8.4f%s%8.4f%s%8.4f%s%8.4f%s%8.4f%s%8.4f%s%6.2f%s%6.1f",
		sep, pos[2], sep, sol.Stat, sep, sol.Ns, sep, SQRT(Q[4]), sep,
		SQRT(Q[0]), sep, SQRT(Q[8]), sep, sqvar(Q[1]), sep, sqvar(Q[2]),
		sep, sqvar(Q[5]), sep, sol.Age, sep, sol.Ratio)

	if opt.OutVel > 0 {
		sol.Sol2CovVel(P[:])
		Ecef2Enu(pos[:], sol.Rr[3:], vel[:])
		Cov2Enu(pos[:], P[:], Q[:])
		fmt.Fprintf(b, "%s%10.5f%s%10.5f%s%10.5f%s%9.5f%s%8.5f%s%8.5f%s%8.5f%s%8.5f%s%8.5f",
			sep, vel[1], sep, vel[0], sep, vel[2], sep, SQRT(Q[4]), sep,
			SQRT(Q[0]), sep, SQRT(Q[8]), sep, sqvar(Q[1]), sep, sqvar(Q[2]),
			sep, sqvar(Q[5]))
	}
	b.WriteString("\r\n")
}

/* output solution as the form of e/n/u-baseline -----------------------------*/
func (sol *Sol) outEnu(b *strings.Builder, s string, rb []float64, opt *SolOpt) {
	var pos, rr, enu [3]float64
	var P, Q [9]float64
	sep := opt2sep(opt)

	for i := 0; i < 3; i++ {
		rr[i] = sol.Rr[i] - rb[i]
	}
	Ecef2Pos(rb, pos[:])
	sol.Sol2Cov(P[:])
	Cov2Enu(pos[:], P[:], Q[:])
	Ecef2Enu(pos[:], rr[:], enu[:])
	fmt.Fprintf(b, "%s%s%14.4f%s%14.4f%s%14.4f%s%3d%s%3d%s%8.4f%s%8.4f%s%8.4f%s%8.4f%s%8.4f%s%8.4f%s%6.2f%s%6.1f\r\n",
		s, sep, enu[0], sep, enu[1], sep, enu[2], sep, sol.Stat, sep, sol.Ns, sep,
		SQRT(Q[0]), sep, SQRT(Q[4]), sep, SQRT(Q[8]), sep, sqvar(Q[1]),
		sep, sqvar(Q[5]), sep, sqvar(Q[2]), sep, sol.Age, sep, sol.Ratio)
}

func latLonHemi(pos []float64) (string, string) {
	ns, ew := "N", "E"
	if pos[0] < 0 {
		ns = "S"
	}
	if pos[1] < 0 {
		ew = "W"
	}
	return ns, ew
}

/* output solution in the form of NMEA RMC sentence --------------------------*/
func (sol *Sol) OutNmeaRmc() string {
	var ep [6]float64
	var pos, enuv, dms1, dms2 [3]float64
	var p string

	if sol.Stat <= SOLQ_NONE {
		p = fmt.Sprintf("$%sRMC,,,,,,,,,,,,", NMEA_TID)
		return p + fmt.Sprintf("*%02X\r\n", nmeaChecksum(p))
	}
	time := GpsT2Utc(sol.Time)
	if time.Sec >= 0.995 {
		time.Time++
		time.Sec = 0.0
	}
	Time2Epoch(time, ep[:])
	Ecef2Pos(sol.Rr[:], pos[:])
	Ecef2Enu(pos[:], sol.Rr[3:], enuv[:])
	vel, dir := Norm(enuv[:], 3), 0.0
	if vel >= 1.0 {
		if dir = math.Atan2(enuv[0], enuv[1]) * R2D; dir < 0.0 {
			dir += 360.0
		}
	}
	mode := "A"
	switch sol.Stat {
	case SOLQ_DGPS, SOLQ_SBAS:
		mode = "D"
	case SOLQ_FLOAT, SOLQ_FIX:
		mode = "R"
	case SOLQ_PPP:
		mode = "P"
	}
	Deg2Dms(math.Abs(pos[0])*R2D, dms1[:], 7)
	Deg2Dms(math.Abs(pos[1])*R2D, dms2[:], 7)
	ns, ew := latLonHemi(pos[:])
	p = fmt.Sprintf("$%sRMC,%02.0f%02.0f%05.2f,A,%02.0f%010.7f,%s,%03.0f%010.7f,%s,%4.2f,%4.2f,%02.0f%02.0f%02d,%.1f,%s,%s",
		NMEA_TID, ep[3], ep[4], ep[5], dms1[0], dms1[1]+dms1[2]/60.0, ns,
		dms2[0], dms2[1]+dms2[2]/60.0, ew, vel/KNOT2M, dir, ep[2], ep[1],
		int(math.Mod(ep[0], 100.0)), 0.0, "E", mode)
	return p + fmt.Sprintf("*%02X\r\n", nmeaChecksum(p))
}

/* output solution in the form of NMEA GGA sentence ----------------------------
* notes  : height is ellipsoidal and the geoid separation is output as 0
*-----------------------------------------------------------------------------*/
func (sol *Sol) OutNmeaGga() string {
	var ep [6]float64
	var pos, dms1, dms2 [3]float64
	var p string

	if sol.Stat <= SOLQ_NONE {
		p = fmt.Sprintf("$%sGGA,,,,,,,,,,,,,,", NMEA_TID)
		return p + fmt.Sprintf("*%02X\r\n", nmeaChecksum(p))
	}
	time := GpsT2Utc(sol.Time)
	if time.Sec >= 0.995 {
		time.Time++
		time.Sec = 0.0
	}
	Time2Epoch(time, ep[:])
	Ecef2Pos(sol.Rr[:], pos[:])
	Deg2Dms(math.Abs(pos[0])*R2D, dms1[:], 7)
	Deg2Dms(math.Abs(pos[1])*R2D, dms2[:], 7)
	ns, ew := latLonHemi(pos[:])
	p = fmt.Sprintf("$%sGGA,%02.0f%02.0f%05.2f,%02.0f%010.7f,%s,%03.0f%010.7f,%s,%d,%02d,%.1f,%.3f,M,%.3f,M,%.1f,%04d",
		NMEA_TID, ep[3], ep[4], ep[5], dms1[0], dms1[1]+dms1[2]/60.0, ns,
		dms2[0], dms2[1]+dms2[2]/60.0, ew, nmeaQuality(sol.Stat), sol.Ns, 1.0,
		pos[2], 0.0, sol.Age, 0)
	return p + fmt.Sprintf("*%02X\r\n", nmeaChecksum(p))
}

/* output solution header ------------------------------------------------------
* args   : *SolOpt opt      I   solution options
* return : header lines (empty for NMEA and solution status)
*-----------------------------------------------------------------------------*/
func OutSolHead(opt *SolOpt) string {
	const leg1 = "Q=1:fix,2:float,3:sbas,4:dgps,5:single,6:ppp"
	const leg2 = "ns=# of satellites"
	var b strings.Builder
	sep := opt2sep(opt)
	timeu := min(max(opt.TimeU, 0), 20)

	if opt.Posf == SOLF_NMEA || opt.Posf == SOLF_STAT {
		return ""
	}
	if opt.OutHead > 0 {
		fmt.Fprintf(&b, "%s program   : %s\r\n", COMMENTH, opt.Prog)
		fmt.Fprintf(&b, "%s (", COMMENTH)
		switch opt.Posf {
		case SOLF_XYZ:
			b.WriteString("x/y/z-ecef=WGS84")
		case SOLF_ENU:
			b.WriteString("e/n/u-baseline=WGS84")
		default:
			b.WriteString("lat/lon/height=WGS84/ellipsoidal")
		}
		fmt.Fprintf(&b, ",%s,%s)\r\n", leg1, leg2)
	}
	tmf := 8
	if opt.TimeF > 0 {
		tmf = 16
	}
	ts := "GPST"
	if opt.TimeS == TIMES_UTC {
		ts = "UTC "
	}
	fmt.Fprintf(&b, "%s  %-*s%s", COMMENTH, tmf+timeu+1, ts, sep)

	switch opt.Posf {
	case SOLF_LLH:
		fmt.Fprintf(&b, "%14s%s%14s%s%10s%s%3s%s%3s%s%8s%s%8s%s%8s%s%8s%s%8s%s%8s%s%6s%s%6s",
			"latitude(deg)", sep, "longitude(deg)", sep, "height(m)", sep,
			"Q", sep, "ns", sep, "sdn(m)", sep, "sde(m)", sep, "sdu(m)", sep,
			"sdne(m)", sep, "sdeu(m)", sep, "sdun(m)", sep, "age(s)", sep, "ratio")
		if opt.OutVel > 0 {
			fmt.Fprintf(&b, "%s%10s%s%10s%s%10s%s%9s%s%8s%s%8s%s%8s%s%8s%s%8s",
				sep, "vn(m/s)", sep, "ve(m/s)", sep, "vu(m/s)", sep, "sdvn", sep,
				"sdve", sep, "sdvu", sep, "sdvne", sep, "sdveu", sep, "sdvun")
		}
	case SOLF_XYZ:
		fmt.Fprintf(&b, "%14s%s%14s%s%14s%s%3s%s%3s%s%8s%s%8s%s%8s%s%8s%s%8s%s%8s%s%6s%s%6s",
			"x-ecef(m)", sep, "y-ecef(m)", sep, "z-ecef(m)", sep, "Q", sep, "ns",
			sep, "sdx(m)", sep, "sdy(m)", sep, "sdz(m)", sep, "sdxy(m)", sep,
			"sdyz(m)", sep, "sdzx(m)", sep, "age(s)", sep, "ratio")
		if opt.OutVel > 0 {
			fmt.Fprintf(&b, "%s%10s%s%10s%s%10s%s%9s%s%8s%s%8s%s%8s%s%8s%s%8s",
				sep, "vx(m/s)", sep, "vy(m/s)", sep, "vz(m/s)", sep, "sdvx", sep,
				"sdvy", sep, "sdvz", sep, "sdvxy", sep, "sdvyz", sep, "sdvzx")
		}
	case SOLF_ENU:
		fmt.Fprintf(&b, "%14s%s%14s%s%14s%s%3s%s%3s%s%8s%s%8s%s%8s%s%8s%s%8s%s%8s%s%6s%s%6s",
			"e-baseline(m)", sep, "n-baseline(m)", sep, "u-baseline(m)", sep,
			"Q", sep, "ns", sep, "sde(m)", sep, "sdn(m)", sep, "sdu(m)", sep,
			"sden(m)", sep, "sdnu(m)", sep, "sdue(m)", sep, "age(s)", sep, "ratio")
	}
	b.WriteString("\r\n")
	return b.String()
}

/* output solution body --------------------------------------------------------
* args   : []float64 rb     I   base station position {x,y,z} (ecef) (m)
*          *SolOpt opt      I   solution options
* return : solution lines (empty if suppressed)
*-----------------------------------------------------------------------------*/
func (sol *Sol) OutSols(rb []float64, opt *SolOpt) string {
	var b strings.Builder
	var s string
	var week int
	sep := opt2sep(opt)

	if opt.MaxSolStd > 0.0 && sol.SolStd() > opt.MaxSolStd {
		return ""
	}
	if opt.Posf == SOLF_NMEA {
		if opt.NmeaIntv[0] < 0.0 {
			return ""
		}
		return sol.OutNmeaRmc() + sol.OutNmeaGga()
	}
	if sol.Stat <= SOLQ_NONE || (opt.Posf == SOLF_ENU && Norm(rb, 3) <= 0.0) {
		return ""
	}
	timeu := min(max(opt.TimeU, 0), 20)

	time := sol.Time
	if opt.TimeS >= TIMES_UTC {
		time = GpsT2Utc(time)
	}
	if opt.TimeF > 0 {
		s = TimeStr(time, timeu)
	} else {
		gpst := Time2GpsT(time, &week)
		if 86400*7-gpst < 0.5/math.Pow(10.0, float64(timeu)) {
			week++
			gpst = 0.0
		}
		tu := timeu + 1
		if timeu <= 0 {
			tu = 0
		}
		s = fmt.Sprintf("%4d%s%*.*f", week, sep, 6+tu, timeu, gpst)
	}
	switch opt.Posf {
	case SOLF_LLH:
		sol.outPos(&b, s, opt)
	case SOLF_XYZ:
		sol.outEcef(&b, s, opt)
	case SOLF_ENU:
		sol.outEnu(&b, s, rb, opt)
	}
	return b.String()
}

/* output solution status ------------------------------------------------------
* rows $POS (float and fixed position), $CLK (receiver clocks) and $SAT (one
* per valid satellite and frequency)
*-----------------------------------------------------------------------------*/
func (rtk *Rtk) RtkOutStat() string {
	var b strings.Builder
	var xa [3]float64
	var week int

	if rtk.RtkSol.Stat <= SOLQ_NONE {
		return ""
	}
	nf := RNF(&rtk.Opt)
	est := rtk.Opt.Mode >= PMODE_DGPS && len(rtk.X) >= 3
	tow := Time2GpsT(rtk.RtkSol.Time, &week)

	if est {
		if rtk.Na >= 3 && rtk.RtkSol.Stat == SOLQ_FIX {
			copy(xa[:], rtk.Xa[:3])
		}
		fmt.Fprintf(&b, "$POS,%d,%.3f,%d,%.4f,%.4f,%.4f,%.4f,%.4f,%.4f\n", week, tow,
			rtk.RtkSol.Stat, rtk.X[0], rtk.X[1], rtk.X[2], xa[0], xa[1], xa[2])
	} else {
		fmt.Fprintf(&b, "$POS,%d,%.3f,%d,%.4f,%.4f,%.4f,%.4f,%.4f,%.4f\n", week, tow,
			rtk.RtkSol.Stat, rtk.RtkSol.Rr[0], rtk.RtkSol.Rr[1], rtk.RtkSol.Rr[2], 0.0, 0.0, 0.0)
	}
	fmt.Fprintf(&b, "$CLK,%d,%.3f,%d,%d,%.3f,%.3f,%.3f,%.3f\n",
		week, tow, rtk.RtkSol.Stat, 1, rtk.RtkSol.Dtr[0]*1e9, rtk.RtkSol.Dtr[1]*1e9,
		rtk.RtkSol.Dtr[2]*1e9, rtk.RtkSol.Dtr[3]*1e9)

	for i := 0; i < MAXSAT; i++ {
		ss := &rtk.Ssat[i]
		if ss.Vs == 0 {
			continue
		}
		id := SatNo2Id(i + 1)
		for j := 0; j < nf; j++ {
			fmt.Fprintf(&b, "$SAT,%d,%.3f,%s,%d,%.1f,%.1f,%.4f,%.4f,%d,%.1f,%d,%d,%d,%d,%d,%d\n",
				week, tow, id, j+1, ss.Azel[0]*R2D, ss.Azel[1]*R2D, ss.Resp[j], ss.Resc[j],
				ss.Vsat[j], float64(ss.Snr[j])*SNR_UNIT, ss.Fix[j], ss.Slip[j]&3, ss.Lock[j],
				ss.Outc[j], ss.Slipc[j], ss.Rejc[j])
		}
	}
	return b.String()
}

// BaseLineLen returns the rover to base distance (km), 0 if unknown.
func (rtk *Rtk) BaseLineLen() float64 {
	var dr [3]float64
	if Norm(rtk.RtkSol.Rr[:], 3) <= 0.0 || Norm(rtk.Rb[:], 3) <= 0.0 {
		return 0.0
	}
	for i := 0; i < 3; i++ {
		dr[i] = rtk.RtkSol.Rr[i] - rtk.Rb[i]
	}
	return Norm(dr[:], 3) * 0.001
}
