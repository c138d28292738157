/*------------------------------------------------------------------------------
* ephemeris.go : satellite ephemeris and clock functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1] IS-GPS-200K, Navstar GPS Space Segment/Navigation User Interfaces,
*         May 6, 2019
*     [2] Global Navigation Satellite System GLONASS, Interface Control Document
*         Navigational radiosignal In bands L1, L2, (Version 5.1), 2008
*     [3] BeiDou satellite navigation system signal in space interface control
*         document open service signal B1I (version 3.0), February, 2019
*     [4] European GNSS (Galileo) Open Service Signal In Space Interface Control
*         Document, Issue 1.3, December, 2016
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  per-satellite ephemeris sequences, navigation
*                           store with its own lock
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"math"
	"sort"
	"sync"
)

const (
	RE_GLO          = 6378136.0           /* radius of earth (m)            ref [2] */
	MU_GPS          = 3.9860050e14        /* gravitational constant         ref [1] */
	MU_GLO          = 3.9860044e14        /* gravitational constant         ref [2] */
	MU_GAL          = 3.986004418e14      /* earth gravitational constant   ref [4] */
	MU_CMP          = 3.986004418e14      /* earth gravitational constant   ref [3] */
	J2_GLO          = 1.0826257e-3        /* 2nd zonal harmonic of geopot   ref [2] */
	OMGE_GLO        = 7.292115e-5         /* earth angular velocity (rad/s) ref [2] */
	OMGE_GAL        = 7.2921151467e-5     /* earth angular velocity (rad/s) ref [4] */
	OMGE_CMP        = 7.292115e-5         /* earth angular velocity (rad/s) ref [3] */
	SIN_5           = -0.0871557427476582 /* sin(-5.0 deg) */
	COS_5           = 0.9961946980917456  /* cos(-5.0 deg) */
	ERREPH_GLO      = 5.0                 /* error of glonass ephemeris (m) */
	TSTEP           = 60.0                /* integration step glonass ephemeris (s) */
	RTOL_KEPLER     = 1e-13               /* relative tolerance for Kepler equation */
	STD_GAL_NAPA    = 500.0               /* error of galileo ephemeris for NAPA (m) */
	MAX_ITER_KEPLER = 30                  /* max number of iteration of Kelpler */
	MAXEPHSET       = 4                   /* max ephemeris sets kept per satellite */
)

/* variance by ura ephemeris -------------------------------------------------*/
func var_uraeph(sys, ura int) float64 {
	ura_value := [15]float64{
		2.4, 3.4, 4.85, 6.85, 9.65, 13.65, 24.0, 48.0, 96.0, 192.0, 384.0, 768.0, 1536.0,
		3072.0, 6144.0}
	if sys == SYS_GAL { /* galileo sisa (ref [4] 5.1.11) */
		switch {
		case ura <= 49:
			return SQR(float64(ura) * 0.01)
		case ura <= 74:
			return SQR(0.5 + float64(ura-50)*0.02)
		case ura <= 99:
			return SQR(1.0 + float64(ura-75)*0.04)
		case ura <= 125:
			return SQR(2.0 + float64(ura-100)*0.16)
		}
		return SQR(STD_GAL_NAPA)
	}
	if ura < 0 || 14 < ura { /* gps ura (ref [1] 20.3.3.3.1.1) */
		return SQR(6144.0)
	}
	return SQR(ura_value[ura])
}

/* broadcast ephemeris to satellite clock bias ---------------------------------
* args   : Gtime   time     I   time by satellite clock (gpst)
*          *Eph    eph      I   broadcast ephemeris
* return : satellite clock bias (s) without relativeity correction
*-----------------------------------------------------------------------------*/
func Eph2Clk(time Gtime, eph *Eph) float64 {
	t := TimeDiff(time, eph.Toc)
	ts := t
	for i := 0; i < 2; i++ {
		t = ts - (eph.F0 + eph.F1*t + eph.F2*t*t)
	}
	return eph.F0 + eph.F1*t + eph.F2*t*t
}

/* broadcast ephemeris to satellite position and clock bias --------------------
* args   : Gtime   time     I   time (gpst)
*          *Eph    eph      I   broadcast ephemeris
*          []float64 rs     O   satellite position (ecef) {x,y,z} (m)
*          *float64 dts     O   satellite clock bias (s)
*          *float64 vari    O   satellite position and clock variance (m^2)
* notes  : satellite clock includes relativity correction without code bias
*-----------------------------------------------------------------------------*/
func Eph2Pos(time Gtime, eph *Eph, rs []float64, dts, vari *float64) {
	var mu, omge float64
	var prn int

	if eph.A <= 0.0 {
		rs[0], rs[1], rs[2], *dts, *vari = 0.0, 0.0, 0.0, 0.0, 0.0
		return
	}
	tk := TimeDiff(time, eph.Toe)

	sys := SatSys(eph.Sat, &prn)
	switch sys {
	case SYS_GAL:
		mu, omge = MU_GAL, OMGE_GAL
	case SYS_CMP:
		mu, omge = MU_CMP, OMGE_CMP
	default:
		mu, omge = MU_GPS, OMGE
	}
	M := eph.M0 + (math.Sqrt(mu/(eph.A*eph.A*eph.A))+eph.Deln)*tk

	E, Ek := M, 0.0
	n := 0
	for ; math.Abs(E-Ek) > RTOL_KEPLER && n < MAX_ITER_KEPLER; n++ {
		Ek = E
		E -= (E - eph.E*math.Sin(E) - M) / (1.0 - eph.E*math.Cos(E))
	}
	if n >= MAX_ITER_KEPLER {
		Trace(2, "eph2pos: kepler iteration overflow sat=%2d\n", eph.Sat)
		return
	}
	sinE, cosE := math.Sin(E), math.Cos(E)

	u := math.Atan2(math.Sqrt(1.0-eph.E*eph.E)*sinE, cosE-eph.E) + eph.Omg
	r := eph.A * (1.0 - eph.E*cosE)
	i := eph.I0 + eph.Idot*tk
	sin2u, cos2u := math.Sin(2.0*u), math.Cos(2.0*u)
	u += eph.Cus*sin2u + eph.Cuc*cos2u
	r += eph.Crs*sin2u + eph.Crc*cos2u
	i += eph.Cis*sin2u + eph.Cic*cos2u
	x, y := r*math.Cos(u), r*math.Sin(u)
	cosi := math.Cos(i)

	if sys == SYS_CMP && (prn <= 5 || prn >= 59) { /* beidou geo satellite, ref [3] table 4-1 */
		O := eph.OMG0 + eph.OMGd*tk - omge*eph.Toes
		sinO, cosO := math.Sin(O), math.Cos(O)
		xg := x*cosO - y*cosi*sinO
		yg := x*sinO + y*cosi*cosO
		zg := y * math.Sin(i)
		sino, coso := math.Sin(omge*tk), math.Cos(omge*tk)
		rs[0] = xg*coso + yg*sino*COS_5 + zg*sino*SIN_5
		rs[1] = -xg*sino + yg*coso*COS_5 + zg*coso*SIN_5
		rs[2] = -yg*SIN_5 + zg*COS_5
	} else {
		O := eph.OMG0 + (eph.OMGd-omge)*tk - omge*eph.Toes
		sinO, cosO := math.Sin(O), math.Cos(O)
		rs[0] = x*cosO - y*cosi*sinO
		rs[1] = x*sinO + y*cosi*cosO
		rs[2] = y * math.Sin(i)
	}
	tk = TimeDiff(time, eph.Toc)
	*dts = eph.F0 + eph.F1*tk + eph.F2*tk*tk

	/* relativity correction */
	*dts -= 2.0 * math.Sqrt(mu*eph.A) * eph.E * sinE / SQR(CLIGHT)

	*vari = var_uraeph(sys, eph.Sva)
}

/* glonass orbit differential equations --------------------------------------*/
func deq(x, xdot, acc []float64) {
	r2 := Dot(x, x, 3)
	r3 := r2 * math.Sqrt(r2)
	omg2 := SQR(OMGE_GLO)

	if r2 <= 0.0 {
		for i := 0; i < 6; i++ {
			xdot[i] = 0.0
		}
		return
	}
	/* ref [2] A.3.1.2 with bug fix for xdot[4],xdot[5] */
	a := 1.5 * J2_GLO * MU_GLO * SQR(RE_GLO) / r2 / r3 /* 3/2*J2*mu*Ae^2/r^5 */
	b := 5.0 * x[2] * x[2] / r2                        /* 5*z^2/r^2 */
	c := -MU_GLO/r3 - a*(1.0-b)                        /* -mu/r^3-a(1-b) */
	xdot[0], xdot[1], xdot[2] = x[3], x[4], x[5]
	xdot[3] = (c+omg2)*x[0] + 2.0*OMGE_GLO*x[4] + acc[0]
	xdot[4] = (c+omg2)*x[1] - 2.0*OMGE_GLO*x[3] + acc[1]
	xdot[5] = (c-2.0*a)*x[2] + acc[2]
}

/* glonass position and velocity by numerical integration (runge-kutta 4) ----*/
func glorbit(t float64, x, acc []float64) {
	var k1, k2, k3, k4, w [6]float64

	deq(x, k1[:], acc)
	for i := 0; i < 6; i++ {
		w[i] = x[i] + k1[i]*t/2.0
	}
	deq(w[:], k2[:], acc)
	for i := 0; i < 6; i++ {
		w[i] = x[i] + k2[i]*t/2.0
	}
	deq(w[:], k3[:], acc)
	for i := 0; i < 6; i++ {
		w[i] = x[i] + k3[i]*t
	}
	deq(w[:], k4[:], acc)
	for i := 0; i < 6; i++ {
		x[i] += (k1[i] + 2.0*k2[i] + 2.0*k3[i] + k4[i]) * t / 6.0
	}
}

// GEph2Clk returns the satellite clock bias (s) by glonass ephemeris.
func GEph2Clk(time Gtime, geph *GEph) float64 {
	t := TimeDiff(time, geph.Toe)
	ts := t
	for i := 0; i < 2; i++ {
		t = ts - (-geph.Taun + geph.Gamn*t)
	}
	return -geph.Taun + geph.Gamn*t
}

// GEph2Pos computes the satellite position and clock bias by glonass
// ephemeris.
func GEph2Pos(time Gtime, geph *GEph, rs []float64, dts, vari *float64) {
	var x [6]float64

	t := TimeDiff(time, geph.Toe)
	*dts = -geph.Taun + geph.Gamn*t

	for i := 0; i < 3; i++ {
		x[i] = geph.Pos[i]
		x[i+3] = geph.Vel[i]
	}
	tt := TSTEP
	if t < 0.0 {
		tt = -TSTEP
	}
	for ; math.Abs(t) > 1e-9; t -= tt {
		if math.Abs(t) < TSTEP {
			tt = t
		}
		glorbit(tt, x[:], geph.Acc[:])
	}
	copy(rs[:3], x[:3])
	*vari = SQR(ERREPH_GLO)
}

// NewNav returns empty navigation data.
func NewNav() Nav {
	return Nav{Eph: make(map[int][]Eph), Geph: make(map[int][]GEph)}
}

// AddEph inserts eph into the ordered ephemeris sequence of its satellite.
// An ephemeris with the same iode and toe replaces the stored one. It
// returns false if the stored set was already identical.
func (nav *Nav) AddEph(eph *Eph) bool {
	if eph.Sat <= 0 || eph.Sat > MAXSAT {
		return false
	}
	if nav.Eph == nil {
		nav.Eph = make(map[int][]Eph)
	}
	seq := nav.Eph[eph.Sat]
	for i := range seq {
		if seq[i].Iode == eph.Iode && TimeDiff(seq[i].Toe, eph.Toe) == 0.0 {
			if seq[i] == *eph {
				return false
			}
			seq[i] = *eph
			return true
		}
	}
	seq = append(seq, *eph)
	sort.SliceStable(seq, func(i, j int) bool { return TimeDiff(seq[i].Toe, seq[j].Toe) < 0.0 })
	if len(seq) > MAXEPHSET {
		seq = append([]Eph(nil), seq[len(seq)-MAXEPHSET:]...)
	}
	nav.Eph[eph.Sat] = seq
	return true
}

// AddGEph inserts a glonass ephemeris, see AddEph.
func (nav *Nav) AddGEph(geph *GEph) bool {
	var prn int
	if SatSys(geph.Sat, &prn) != SYS_GLO {
		return false
	}
	if nav.Geph == nil {
		nav.Geph = make(map[int][]GEph)
	}
	seq := nav.Geph[geph.Sat]
	for i := range seq {
		if TimeDiff(seq[i].Toe, geph.Toe) == 0.0 {
			if seq[i] == *geph {
				return false
			}
			seq[i] = *geph
			return true
		}
	}
	seq = append(seq, *geph)
	sort.SliceStable(seq, func(i, j int) bool { return TimeDiff(seq[i].Toe, seq[j].Toe) < 0.0 })
	if len(seq) > MAXEPHSET {
		seq = append([]GEph(nil), seq[len(seq)-MAXEPHSET:]...)
	}
	nav.Geph[geph.Sat] = seq
	nav.Glo_fcn[prn-1] = geph.Frq + 8
	return true
}

// CopyNav returns a deep copy of nav.
func (nav *Nav) CopyNav() Nav {
	dst := *nav
	dst.Eph = make(map[int][]Eph, len(nav.Eph))
	for sat, seq := range nav.Eph {
		dst.Eph[sat] = append([]Eph(nil), seq...)
	}
	dst.Geph = make(map[int][]GEph, len(nav.Geph))
	for sat, seq := range nav.Geph {
		dst.Geph[sat] = append([]GEph(nil), seq...)
	}
	return dst
}

/* select ephememeris ----------------------------------------------------------
* select the ephemeris of sat with toe closest to time (iode>=0: matching iode)
*-----------------------------------------------------------------------------*/
func (nav *Nav) SelEph(time Gtime, sat, iode int) *Eph {
	var tmax float64
	j := -1

	sys := SatSys(sat, nil)
	switch sys {
	case SYS_GAL:
		tmax = MAXDTOE_GAL
	case SYS_QZS:
		tmax = MAXDTOE_QZS + 1.0
	case SYS_CMP:
		tmax = MAXDTOE_CMP + 1.0
	default:
		tmax = MAXDTOE + 1.0
	}
	tmin := tmax + 1.0

	seq := nav.Eph[sat]
	for i := range seq {
		if iode >= 0 && seq[i].Iode != iode {
			continue
		}
		t := math.Abs(TimeDiff(seq[i].Toe, time))
		if t > tmax {
			continue
		}
		if iode >= 0 {
			return &seq[i]
		}
		if t <= tmin {
			j = i
			tmin = t
		}
	}
	if j < 0 {
		Trace(3, "no broadcast ephemeris: %s sat=%2d iode=%3d\n", TimeStr(time, 0), sat, iode)
		return nil
	}
	return &seq[j]
}

// SelGEph selects the glonass ephemeris, see SelEph.
func (nav *Nav) SelGEph(time Gtime, sat, iode int) *GEph {
	const tmax = MAXDTOE_GLO
	tmin := tmax + 1.0
	j := -1

	seq := nav.Geph[sat]
	for i := range seq {
		if iode >= 0 && seq[i].Iode != iode {
			continue
		}
		t := math.Abs(TimeDiff(seq[i].Toe, time))
		if t > tmax {
			continue
		}
		if iode >= 0 {
			return &seq[i]
		}
		if t <= tmin {
			j = i
			tmin = t
		}
	}
	if j < 0 {
		Trace(3, "no glonass ephemeris  : %s sat=%2d iode=%2d\n", TimeStr(time, 0), sat, iode)
		return nil
	}
	return &seq[j]
}

/* satellite clock with broadcast ephemeris ----------------------------------*/
func (nav *Nav) EphClk(time, teph Gtime, sat int, dts *float64) int {
	switch SatSys(sat, nil) {
	case SYS_GPS, SYS_GAL, SYS_QZS, SYS_CMP:
		eph := nav.SelEph(teph, sat, -1)
		if eph == nil {
			return 0
		}
		*dts = Eph2Clk(time, eph)
	case SYS_GLO:
		geph := nav.SelGEph(teph, sat, -1)
		if geph == nil {
			return 0
		}
		*dts = GEph2Clk(time, geph)
	default:
		return 0
	}
	return 1
}

/* satellite position and clock by broadcast ephemeris -----------------------
* args   : Gtime   time     I   time (gpst)
*          Gtime   teph     I   time to select ephemeris (gpst)
*          int     sat      I   satellite number
*          []float64 rs     O   satellite position and velocity {x,y,z,vx,vy,vz}
*          []float64 dts    O   satellite clock {bias,drift} (s|s/s)
*          *float64 vari    O   satellite position and clock variance (m^2)
*          *int    svh      O   sat health flag (-1:correction not available)
* return : status (1:ok,0:error)
*-----------------------------------------------------------------------------*/
func (nav *Nav) SatPos(time, teph Gtime, sat int, rs, dts []float64, vari *float64, svh *int) int {
	var rst [3]float64
	var dtst float64
	const tt = 1e-3

	*svh = -1
	switch SatSys(sat, nil) {
	case SYS_GPS, SYS_GAL, SYS_QZS, SYS_CMP:
		eph := nav.SelEph(teph, sat, -1)
		if eph == nil {
			return 0
		}
		Eph2Pos(time, eph, rs, &dts[0], vari)
		Eph2Pos(TimeAdd(time, tt), eph, rst[:], &dtst, vari)
		*svh = eph.Svh
	case SYS_GLO:
		geph := nav.SelGEph(teph, sat, -1)
		if geph == nil {
			return 0
		}
		GEph2Pos(time, geph, rs, &dts[0], vari)
		GEph2Pos(TimeAdd(time, tt), geph, rst[:], &dtst, vari)
		*svh = geph.Svh
	default:
		return 0
	}
	/* satellite velocity and clock drift by differential approx */
	for i := 0; i < 3; i++ {
		rs[i+3] = (rst[i] - rs[i]) / tt
	}
	dts[1] = (dtst - dts[0]) / tt
	return 1
}

/* satellite positions and clocks ----------------------------------------------
* args   : Gtime   teph     I   time to select ephemeris (gpst)
*          []ObsD  obs      I   observation data
*          []float64 rs     O   satellite positions and velocities (ecef)
*          []float64 dts    O   satellite clocks
*          []float64 vari   O   sat position and clock error variances (m^2)
*          []int   svh      O   sat health flag (-1:correction not available)
* notes  : rs [(0:2)+i*6]= obs[i] sat position {x,y,z} (m)
*          rs [(3:5)+i*6]= obs[i] sat velocity {vx,vy,vz} (m/s)
*          dts[(0:1)+i*2]= obs[i] sat clock {bias,drift} (s|s/s)
*          satellite position and clock are values at signal transmission time
*-----------------------------------------------------------------------------*/
func (nav *Nav) SatPoss(teph Gtime, obs []ObsD, rs, dts, vari []float64, svh []int) {
	var dt float64

	for i := range obs {
		for j := 0; j < 6; j++ {
			rs[j+i*6] = 0.0
		}
		dts[i*2], dts[1+i*2] = 0.0, 0.0
		vari[i] = 0.0
		svh[i] = 0

		/* search any pseudorange */
		pr := 0.0
		for j := 0; j < NFREQ && pr == 0.0; j++ {
			pr = obs[i].P[j]
		}
		if pr == 0.0 {
			Trace(3, "no pseudorange %s sat=%2d\n", TimeStr(obs[i].Time, 3), obs[i].Sat)
			continue
		}
		/* transmission time by satellite clock */
		t := TimeAdd(obs[i].Time, -pr/CLIGHT)

		if nav.EphClk(t, teph, obs[i].Sat, &dt) == 0 {
			Trace(3, "no broadcast clock %s sat=%2d\n", TimeStr(t, 3), obs[i].Sat)
			continue
		}
		t = TimeAdd(t, -dt)

		if nav.SatPos(t, teph, obs[i].Sat, rs[i*6:], dts[i*2:], &vari[i], &svh[i]) == 0 {
			Trace(3, "no ephemeris %s sat=%2d\n", TimeStr(t, 3), obs[i].Sat)
			continue
		}
	}
}

// NavStore is the navigation data shared between the decoding and the
// positioning side of a server.
type NavStore struct {
	Nav
	mu sync.Mutex
}

// NewNavStore returns an empty navigation store.
func NewNavStore() *NavStore {
	return &NavStore{Nav: NewNav()}
}

// TryLock locks the store waiting at most timeout ms.
func (s *NavStore) TryLock(timeout int) bool {
	return tryLock(&s.mu, timeout)
}

func (s *NavStore) Unlock() {
	s.mu.Unlock()
}
