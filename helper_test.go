/*------------------------------------------------------------------------------
* helper_test.go : simulated gps constellation and observations for tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2025/03/02 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk_test

import (
	"gnssrtk"
)

const (
	simWeek = 2350     /* gps week of the simulated ephemerides */
	simTow  = 345600.0 /* toe/toc (s) in week */
	simElev = 20.0     /* min elevation of simulated satellites (deg) */
)

/* rover/base site and baseline (enu, m) */
var (
	simBasePos  = [3]float64{35.0 * gnssrtk.D2R, 139.0 * gnssrtk.D2R, 50.0}
	simBaseline = [3]float64{3.0, 4.0, 1.0}
)

// simScene is a 8 plane x 4 satellite gps constellation observed by a base
// and a rover without receiver clock errors or noise.
type simScene struct {
	nav  *gnssrtk.Nav
	t0   gnssrtk.Gtime
	rb   [3]float64 /* base position (ecef) */
	rr   [3]float64 /* rover position (ecef) */
	sats []int      /* visible satellites at t0 */
}

func newSimScene() *simScene {
	nav := gnssrtk.NewNav()
	toe := gnssrtk.GpsT2Time(simWeek, simTow)
	for k := 0; k < 8; k++ {
		for j := 0; j < 4; j++ {
			eph := gnssrtk.Eph{
				Sat:  k*4 + j + 1,
				Iode: 1, Iodc: 1,
				Week: simWeek,
				Toe:  toe, Toc: toe, Ttr: toe,
				A:    26559710.0,
				I0:   55.0 * gnssrtk.D2R,
				OMG0: float64(k) * 45.0 * gnssrtk.D2R,
				M0:   float64(j*90+k*30) * gnssrtk.D2R,
				Toes: simTow,
			}
			nav.AddEph(&eph)
		}
	}
	s := &simScene{nav: &nav, t0: toe}
	var dr [3]float64
	gnssrtk.Pos2Ecef(simBasePos[:], s.rb[:])
	gnssrtk.Enu2Ecef(simBasePos[:], simBaseline[:], dr[:])
	for i := 0; i < 3; i++ {
		s.rr[i] = s.rb[i] + dr[i]
	}
	for sat := 1; sat <= 32; sat++ {
		if _, el := s.azel(sat, toe, s.rb[:]); el >= simElev*gnssrtk.D2R {
			s.sats = append(s.sats, sat)
		}
	}
	return s
}

/* azimuth/elevation of a satellite seen from r (ecef) -----------------------*/
func (s *simScene) azel(sat int, t gnssrtk.Gtime, r []float64) (float64, float64) {
	var rs [6]float64
	var dts [2]float64
	var vari float64
	var svh int
	var e, pos [3]float64
	var azel [2]float64

	s.nav.SatPos(t, t, sat, rs[:], dts[:], &vari, &svh)
	gnssrtk.Ecef2Pos(r, pos[:])
	gnssrtk.GeoDist(rs[:], r, e[:])
	gnssrtk.SatAzel(pos[:], e[:], azel[:])
	return azel[0], azel[1]
}

func (s *simScene) time(epoch int) gnssrtk.Gtime {
	return gnssrtk.TimeAdd(s.t0, float64(epoch))
}

// obs generates the dual frequency observations of receiver rcv (1:rover,
// 2:base) at r. pseudoranges carry the broadcast ionosphere and saastamoinen
// troposphere delays, carrier-phases the integer ambiguity of the receiver.
func (s *simScene) obs(t gnssrtk.Gtime, r []float64, rcv int, sats []int) []gnssrtk.ObsD {
	var pos, e [3]float64
	var azel [2]float64
	rs, dts, vari := make([]float64, 6), make([]float64, 2), make([]float64, 1)
	svh := make([]int, 1)

	gnssrtk.Ecef2Pos(r, pos[:])
	gamma := (gnssrtk.FREQ1 / gnssrtk.FREQ2) * (gnssrtk.FREQ1 / gnssrtk.FREQ2)
	lam1, lam2 := gnssrtk.CLIGHT/gnssrtk.FREQ1, gnssrtk.CLIGHT/gnssrtk.FREQ2

	data := make([]gnssrtk.ObsD, 0, len(sats))
	for _, sat := range sats {
		o := gnssrtk.ObsD{Time: t, Sat: sat, Rcv: rcv}
		o.Code[0], o.Code[1] = gnssrtk.CODE_L1C, gnssrtk.CODE_L2W
		o.SNR[0], o.SNR[1] = 45000, 42000

		/* pseudorange at the fixed point of the transmission time */
		var rho, ion float64
		o.P[0] = 2.0e7
		for i := 0; i < 5; i++ {
			s.nav.SatPoss(t, []gnssrtk.ObsD{o}, rs, dts, vari, svh)
			geo := gnssrtk.GeoDist(rs, r, e[:])
			gnssrtk.SatAzel(pos[:], e[:], azel[:])
			ion = gnssrtk.IonModel(t, s.nav.Ion_gps[:], pos[:], azel[:])
			rho = geo - gnssrtk.CLIGHT*dts[0] + gnssrtk.TropModel(t, pos[:], azel[:], gnssrtk.REL_HUMI)
			o.P[0] = rho + ion
		}
		o.P[1] = rho + ion*gamma
		o.L[0] = (rho-ion)/lam1 + float64(1000*sat+17*rcv)
		o.L[1] = (rho-ion*gamma)/lam2 + float64(800*sat+11*rcv)
		data = append(data, o)
	}
	return data
}

// epoch returns the rover and base observations of an epoch sorted by
// receiver and satellite, the input of Rtk.RtkPos.
func (s *simScene) epoch(epoch int) []gnssrtk.ObsD {
	t := s.time(epoch)
	data := s.obs(t, s.rr[:], 1, s.sats)
	return append(data, s.obs(t, s.rb[:], 2, s.sats)...)
}

// kinematic returns rtk options of the scene.
func (s *simScene) kinematic() gnssrtk.PrcOpt {
	opt := gnssrtk.DefaultProcOpt()
	opt.Mode = gnssrtk.PMODE_KINEMA
	opt.Nf = 2
	opt.RefPos = gnssrtk.POSOPT_POS
	copy(opt.Rb[:], s.rb[:])
	return opt
}
