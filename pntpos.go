/*------------------------------------------------------------------------------
* pntpos.go : standard positioning
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  per-system clock offsets for GPS/GLO/GAL/BDS,
*                           constraint rows for absent systems
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"math"
)

const (
	NX_PNT = 4 + 3 /* # of estimated parameters: pos,clk,GLO-GPS,GAL-GPS,BDS-GPS */

	MAXITR    = 10        /* max number of iteration for point pos */
	ERR_ION   = 5.0       /* ionospheric delay Std (m) */
	ERR_TROP  = 3.0       /* tropspheric delay Std (m) */
	ERR_SAAS  = 0.3       /* Saastamoinen model error Std (m) */
	ERR_BRDCI = 0.5       /* broadcast ionosphere model error factor */
	ERR_CBIAS = 0.3       /* code bias error Std (m) */
	REL_HUMI  = 0.7       /* relative humidity for Saastamoinen model */
	MIN_EL    = 5.0 * D2R /* min elevation for measurement error (rad) */
)

/* pseudorange measurement error variance ------------------------------------*/
func VarianceErr(opt *PrcOpt, el float64, sys int) float64 {
	fact := EFACT_GPS
	if sys == SYS_GLO {
		fact = EFACT_GLO
	}
	if el < MIN_EL {
		el = MIN_EL
	}
	return SQR(fact) * SQR(opt.Err[0]) * (SQR(opt.Err[1]) + SQR(opt.Err[2])/math.Sin(el))
}

/* get group delay parameter (m) ---------------------------------------------*/
func (nav *Nav) GetTgd(sat int, dtype int) float64 {
	if SatSys(sat, nil) == SYS_GLO {
		if seq := nav.Geph[sat]; len(seq) > 0 {
			return -seq[len(seq)-1].DTaun * CLIGHT
		}
		return 0.0
	}
	if seq := nav.Eph[sat]; len(seq) > 0 {
		return seq[len(seq)-1].Tgd[dtype] * CLIGHT
	}
	return 0.0
}

/* psendorange with code bias correction (single-freq L1/G1/E1/B1) -----------*/
func Prange(obs *ObsD, nav *Nav, vari *float64) float64 {
	sat := obs.Sat
	P1 := obs.P[0]

	*vari = 0.0
	if P1 == 0.0 {
		return 0.0
	}
	*vari = SQR(ERR_CBIAS)

	switch SatSys(sat, nil) {
	case SYS_GPS, SYS_QZS: /* L1 */
		return P1 - nav.GetTgd(sat, 0)
	case SYS_GLO: /* G1 */
		gamma := SQR(FREQ1_GLO / FREQ2_GLO)
		return P1 - nav.GetTgd(sat, 0)/(gamma-1.0)
	case SYS_GAL: /* E1 */
		return P1 - nav.GetTgd(sat, 1) /* BGD_E1E5b */
	case SYS_CMP: /* B1I */
		return P1 - nav.GetTgd(sat, 0)
	}
	return P1
}

/* ionospheric correction ------------------------------------------------------
* args   : Gtime   time     I   time
*          []float64 pos    I   receiver position {lat,lon,h} (rad|m)
*          []float64 azel   I   azimuth/elevation angle {az,el} (rad)
*          int    ionoopt   I   ionospheric correction option (IONOOPT_???)
*          *float64 ion     O   ionospheric delay (L1) (m)
*          *float64 vari    O   ionospheric delay (L1) variance (m^2)
* return : status(1:ok,0:error)
*-----------------------------------------------------------------------------*/
func (nav *Nav) IonoCorr(time Gtime, pos, azel []float64, ionoopt int, ion, vari *float64) int {
	if ionoopt == IONOOPT_BRDC {
		*ion = IonModel(time, nav.Ion_gps[:], pos, azel)
		*vari = SQR(*ion * ERR_BRDCI)
		return 1
	}
	*ion, *vari = 0.0, SQR(ERR_ION)
	return 1
}

// TropCorr computes the tropospheric delay (m) and its variance.
func (nav *Nav) TropCorr(time Gtime, pos, azel []float64, tropopt int, trp, vari *float64) int {
	if tropopt == TROPOPT_SAAS {
		*trp = TropModel(time, pos, azel, REL_HUMI)
		*vari = SQR(ERR_SAAS / (math.Sin(azel[1]) + 0.1))
		return 1
	}
	*trp, *vari = 0.0, SQR(ERR_TROP)
	return 1
}

/* pseudorange residuals -----------------------------------------------------*/
func resprng(iter int, obs []ObsD, rs, dts, vare []float64, svh []int,
	nav *Nav, x []float64, opt *PrcOpt, v, H, vari, azel []float64, vsat []int,
	resp []float64, ns *int) int {
	var (
		rr, pos, e                  [3]float64
		dion, dtrp, vion, vtrp      float64
		vmeas                       float64
		mask                        [NX_PNT - 3]int
		nv                          int
	)
	copy(rr[:], x[:3])
	dtr := x[3]
	Ecef2Pos(rr[:], pos[:])
	*ns = 0

	n := len(obs)
	for i := 0; i < n && i < MAXOBS; i++ {
		vsat[i] = 0
		azel[i*2], azel[1+i*2], resp[i] = 0.0, 0.0, 0.0
		time := obs[i].Time
		sat := obs[i].Sat
		sys := SatSys(sat, nil)
		if sys == SYS_NONE {
			continue
		}
		/* reject duplicated observation data */
		if i < n-1 && sat == obs[i+1].Sat {
			Trace(2, "duplicated obs data %s sat=%d\n", TimeStr(time, 3), sat)
			i++
			continue
		}
		if SatExclude(sat, svh[i], opt) > 0 {
			continue
		}
		r := GeoDist(rs[i*6:], rr[:], e[:])
		if r <= 0.0 {
			continue
		}
		if iter > 0 {
			if SatAzel(pos[:], e[:], azel[i*2:]) < opt.Elmin {
				continue
			}
			if TestSnr(0, 0, azel[1+i*2], float64(obs[i].SNR[0])*SNR_UNIT, &opt.SnrMask) > 0 {
				continue
			}
			nav.IonoCorr(time, pos[:], azel[i*2:], opt.IonoOpt, &dion, &vion)
			freq := Sat2Freq(sat, obs[i].Code[0], nav)
			if freq == 0.0 {
				continue
			}
			dion *= SQR(FREQ1 / freq)
			vion *= SQR(SQR(FREQ1 / freq))
			nav.TropCorr(time, pos[:], azel[i*2:], opt.TropOpt, &dtrp, &vtrp)
		}
		P := Prange(&obs[i], nav, &vmeas)
		if P == 0.0 {
			continue
		}
		v[nv] = P - (r + dtr - CLIGHT*dts[i*2] + dion + dtrp)

		for j := 0; j < NX_PNT; j++ {
			H[j+nv*NX_PNT] = 0.0
		}
		for j := 0; j < 3; j++ {
			H[j+nv*NX_PNT] = -e[j]
		}
		H[3+nv*NX_PNT] = 1.0

		/* time system offset */
		switch sys {
		case SYS_GLO:
			v[nv] -= x[4]
			H[4+nv*NX_PNT] = 1.0
			mask[1] = 1
		case SYS_GAL:
			v[nv] -= x[5]
			H[5+nv*NX_PNT] = 1.0
			mask[2] = 1
		case SYS_CMP:
			v[nv] -= x[6]
			H[6+nv*NX_PNT] = 1.0
			mask[3] = 1
		default:
			mask[0] = 1
		}
		vsat[i] = 1
		resp[i] = v[nv]
		(*ns)++

		vari[nv] = VarianceErr(opt, azel[1+i*2], sys) + vare[i] + vmeas + vion + vtrp
		nv++
	}
	/* constraint to avoid rank-deficient */
	for i := 0; i < NX_PNT-3; i++ {
		if mask[i] > 0 {
			continue
		}
		v[nv] = 0.0
		for j := 0; j < NX_PNT; j++ {
			H[j+nv*NX_PNT] = 0.0
		}
		H[i+3+nv*NX_PNT] = 1.0
		vari[nv] = 0.01
		nv++
	}
	return nv
}

/* validate solution ---------------------------------------------------------*/
func valsol(azel []float64, vsat []int, n int, opt *PrcOpt, v []float64, nv, nx int, msg *string) int {
	var dop [4]float64
	azels := make([]float64, 2*n)
	ns := 0

	/* chi-square validation of residuals */
	vv := Dot(v, v, nv)
	if nv > nx && nv-nx-1 < len(chisqr) && vv > chisqr[nv-nx-1] {
		*msg = fmt.Sprintf("chi-square error nv=%d vv=%.1f cs=%.1f", nv, vv, chisqr[nv-nx-1])
		return 0
	}
	/* large gdop check */
	for i := 0; i < n; i++ {
		if vsat[i] == 0 {
			continue
		}
		azels[ns*2] = azel[i*2]
		azels[1+ns*2] = azel[1+i*2]
		ns++
	}
	DOPs(ns, azels, opt.Elmin, dop[:])
	if dop[0] <= 0.0 || dop[0] > opt.MaxGdop {
		*msg = fmt.Sprintf("gdop error nv=%d gdop=%.1f", nv, dop[0])
		return 0
	}
	return 1
}

/* estimate receiver position ------------------------------------------------*/
func estpos(obs []ObsD, rs, dts, vare []float64, svh []int, nav *Nav,
	opt *PrcOpt, sol *Sol, azel []float64, vsat []int, resp []float64, msg *string) int {
	var (
		x, dx [NX_PNT]float64
		Q     [NX_PNT * NX_PNT]float64
		ns    int
	)
	n := len(obs)
	v := Mat(n+NX_PNT, 1)
	H := Mat(NX_PNT, n+NX_PNT)
	vari := Mat(n+NX_PNT, 1)

	copy(x[:3], sol.Rr[:3])

	i := 0
	for ; i < MAXITR; i++ {
		nv := resprng(i, obs, rs, dts, vare, svh, nav, x[:], opt, v, H, vari, azel, vsat, resp, &ns)

		if nv < NX_PNT {
			*msg = fmt.Sprintf("lack of valid sats ns=%d", nv)
			return 0
		}
		/* weighted by std */
		for j := 0; j < nv; j++ {
			sig := math.Sqrt(vari[j])
			v[j] /= sig
			for k := 0; k < NX_PNT; k++ {
				H[k+j*NX_PNT] /= sig
			}
		}
		if info := LSQ(H, v, NX_PNT, nv, dx[:], Q[:]); info != 0 {
			*msg = fmt.Sprintf("lsq error info=%d", info)
			return 0
		}
		for j := 0; j < NX_PNT; j++ {
			x[j] += dx[j]
		}
		if Norm(dx[:], NX_PNT) < 1e-4 {
			sol.Type = 0
			sol.Time = TimeAdd(obs[0].Time, -x[3]/CLIGHT)
			sol.Dtr[0] = x[3] / CLIGHT /* receiver clock bias (s) */
			sol.Dtr[1] = x[4] / CLIGHT /* GLO-GPS time offset (s) */
			sol.Dtr[2] = x[5] / CLIGHT /* GAL-GPS time offset (s) */
			sol.Dtr[3] = x[6] / CLIGHT /* BDS-GPS time offset (s) */
			for j := 0; j < 6; j++ {
				sol.Rr[j] = 0.0
			}
			copy(sol.Rr[:3], x[:3])
			for j := 0; j < 3; j++ {
				sol.Qr[j] = float32(Q[j+j*NX_PNT])
			}
			sol.Qr[3] = float32(Q[1])        /* cov xy */
			sol.Qr[4] = float32(Q[2+NX_PNT]) /* cov yz */
			sol.Qr[5] = float32(Q[2])        /* cov zx */
			sol.Ns = uint8(ns)
			sol.Age, sol.Ratio = 0.0, 0.0

			stat := valsol(azel, vsat, n, opt, v, nv, NX_PNT, msg)
			if stat > 0 {
				sol.Stat = SOLQ_SINGLE
			}
			return stat
		}
	}
	*msg = fmt.Sprintf("iteration divergent i=%d", i)
	return 0
}

/* RAIM FDE (failure detection and exclution) --------------------------------*/
func raimfde(obs []ObsD, rs, dts, vare []float64, svh []int, nav *Nav, opt *PrcOpt, sol *Sol,
	azel []float64, vsat []int, resp []float64, msg *string) int {
	var (
		sol_e Sol
		msg_e string
		stat  int
		rms   = 100.0
		sat   = 0
	)
	n := len(obs)
	obs_e := make([]ObsD, 0, n)
	rs_e, dts_e, vare_e := Mat(6, n), Mat(2, n), Mat(1, n)
	azel_e, resp_e := Zeros(2, n), Mat(1, n)
	svh_e, vsat_e := make([]int, n), make([]int, n)

	for i := 0; i < n; i++ {
		/* satellite exclution */
		obs_e = obs_e[:0]
		k := 0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			obs_e = append(obs_e, obs[j])
			copy(rs_e[6*k:6*k+6], rs[6*j:6*j+6])
			copy(dts_e[2*k:2*k+2], dts[2*j:2*j+2])
			vare_e[k] = vare[j]
			svh_e[k] = svh[j]
			k++
		}
		sol_e = *sol
		if estpos(obs_e, rs_e, dts_e, vare_e, svh_e, nav, opt, &sol_e, azel_e, vsat_e, resp_e, &msg_e) == 0 {
			continue
		}
		nvsat, rms_e := 0, 0.0
		for j := 0; j < n-1; j++ {
			if vsat_e[j] == 0 {
				continue
			}
			rms_e += SQR(resp_e[j])
			nvsat++
		}
		if nvsat < 5 {
			continue
		}
		rms_e = math.Sqrt(rms_e / float64(nvsat))
		if rms_e > rms {
			continue
		}
		/* save result */
		for j, k := 0, 0; j < n; j++ {
			if j == i {
				vsat[j], resp[j] = 0, 0.0
				azel[j*2], azel[1+j*2] = 0.0, 0.0
				continue
			}
			azel[j*2], azel[1+j*2] = azel_e[k*2], azel_e[1+k*2]
			vsat[j], resp[j] = vsat_e[k], resp_e[k]
			k++
		}
		stat = 1
		*sol = sol_e
		sat = obs[i].Sat
		rms = rms_e
	}
	if stat > 0 {
		*msg = fmt.Sprintf("%s sat=%s excluded by raim", TimeStr(obs[0].Time, 2), SatNo2Id(sat))
		Trace(3, "%s\n", *msg)
	}
	return stat
}

/* range rate residuals ------------------------------------------------------*/
func resdop(obs []ObsD, rs, dts []float64, nav *Nav, rr, x, azel []float64,
	vsat []int, err float64, v, H []float64) int {
	var (
		pos, a, e, vs [3]float64
		E             [9]float64
		nv            int
	)
	Ecef2Pos(rr, pos[:])
	XYZ2Enu(pos[:], E[:])

	for i := 0; i < len(obs) && i < MAXOBS; i++ {
		freq := Sat2Freq(obs[i].Sat, obs[i].Code[0], nav)
		if obs[i].D[0] == 0.0 || freq == 0.0 || vsat[i] == 0 || Norm(rs[3+i*6:], 3) <= 0.0 {
			continue
		}
		/* line-of-sight vector in ecef */
		cosel := math.Cos(azel[1+i*2])
		a[0] = math.Sin(azel[i*2]) * cosel
		a[1] = math.Cos(azel[i*2]) * cosel
		a[2] = math.Sin(azel[1+i*2])
		MatMul("TN", 3, 1, 3, 1.0, E[:], a[:], 0.0, e[:])

		/* satellite velocity relative to receiver in ecef */
		for j := 0; j < 3; j++ {
			vs[j] = rs[j+3+i*6] - x[j]
		}
		/* range rate with earth rotation correction */
		rate := Dot(vs[:], e[:], 3) + OMGE/CLIGHT*(rs[4+i*6]*rr[0]+rs[1+i*6]*x[0]-
			rs[3+i*6]*rr[1]-rs[i*6]*x[1])

		sig := 1.0
		if err > 0.0 {
			sig = err * CLIGHT / freq
		}
		v[nv] = (-obs[i].D[0]*CLIGHT/freq - (rate + x[3] - CLIGHT*dts[1+i*2])) / sig
		for j := 0; j < 3; j++ {
			H[j+nv*4] = -e[j] / sig
		}
		H[3+nv*4] = 1.0 / sig
		nv++
	}
	return nv
}

/* estimate receiver velocity ------------------------------------------------*/
func estvel(obs []ObsD, rs, dts []float64, nav *Nav, opt *PrcOpt, sol *Sol, azel []float64, vsat []int) {
	var (
		x, dx [4]float64
		Q     [16]float64
	)
	n := len(obs)
	v := Mat(n, 1)
	H := Mat(4, n)

	for i := 0; i < MAXITR; i++ {
		nv := resdop(obs, rs, dts, nav, sol.Rr[:], x[:], azel, vsat, opt.Err[4], v, H)
		if nv < 4 {
			break
		}
		if LSQ(H, v, 4, nv, dx[:], Q[:]) != 0 {
			break
		}
		for j := 0; j < 4; j++ {
			x[j] += dx[j]
		}
		if Norm(dx[:], 4) < 1e-6 {
			copy(sol.Rr[3:6], x[:3])
			sol.Qv[0] = float32(Q[0])  /* xx */
			sol.Qv[1] = float32(Q[5])  /* yy */
			sol.Qv[2] = float32(Q[10]) /* zz */
			sol.Qv[3] = float32(Q[1])  /* xy */
			sol.Qv[4] = float32(Q[6])  /* yz */
			sol.Qv[5] = float32(Q[2])  /* zx */
			break
		}
	}
}

/* single-point positioning ----------------------------------------------------
* compute receiver position, velocity, clock bias by single-point positioning
* with pseudorange and doppler observables
* args   : []ObsD  obs      I   observation data
*          *Nav    nav      I   navigation data
*          *PrcOpt opt      I   processing options
*          *Sol    sol      IO  solution (Rr: initial position, zero for none)
*          []float64 azel   IO  azimuth/elevation angle (rad) (nil: no output)
*          []SSat  ssat     IO  satellite status              (nil: no output)
*          *string msg      O   error message for error exit
* return : status(1:ok,0:error)
*-----------------------------------------------------------------------------*/
func PntPos(obs []ObsD, nav *Nav, opt *PrcOpt, sol *Sol, azel []float64, ssat []SSat, msg *string) int {
	n := len(obs)
	opt_ := *opt

	sol.Stat = SOLQ_NONE
	if n <= 0 {
		*msg = "no observation data"
		return 0
	}
	Trace(4, "pntpos  : tobs=%s n=%d\n", TimeStr(obs[0].Time, 3), n)
	sol.Time = obs[0].Time
	*msg = ""

	rs, dts, vari := Mat(6, n), Mat(2, n), Mat(1, n)
	azel_, resp := Zeros(2, n), Mat(1, n)
	vsat, svh := make([]int, n), make([]int, n)

	if opt_.Mode != PMODE_SINGLE { /* for precise positioning */
		opt_.IonoOpt = IONOOPT_BRDC
		opt_.TropOpt = TROPOPT_SAAS
	}
	nav.SatPoss(sol.Time, obs, rs, dts, vari, svh)

	stat := estpos(obs, rs, dts, vari, svh, nav, &opt_, sol, azel_, vsat, resp, msg)

	if stat == 0 && n >= 6 {
		stat = raimfde(obs, rs, dts, vari, svh, nav, &opt_, sol, azel_, vsat, resp, msg)
	}
	if stat > 0 {
		estvel(obs, rs, dts, nav, &opt_, sol, azel_, vsat)
	}
	if azel != nil {
		copy(azel, azel_)
	}
	if ssat != nil {
		for i := range ssat {
			ssat[i].Vs = 0
			ssat[i].Azel[0], ssat[i].Azel[1] = 0.0, 0.0
			ssat[i].Resp[0], ssat[i].Resc[0] = 0.0, 0.0
			ssat[i].Snr[0] = 0
		}
		for i := 0; i < n; i++ {
			s := &ssat[obs[i].Sat-1]
			s.Azel[0], s.Azel[1] = azel_[i*2], azel_[1+i*2]
			s.Snr[0] = obs[i].SNR[0]
			if vsat[i] == 0 {
				continue
			}
			s.Vs = 1
			s.Resp[0] = float32(resp[i])
		}
	}
	return stat
}
