/*------------------------------------------------------------------------------
* rtkpos.go : precise relative positioning
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  dynamics none/velocity/acceleration, state rolled
*                           back on rejected epochs, snapshot/restore, per
*                           system AR flags override the global AR mode,
*                           filter reset after a data gap, dgps by rtcm 2
*                           corrections
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"math"
)

const (
	VAR_POS     = 30.0 * 30.0 /* initial variance of receiver pos (m^2) */
	VAR_VEL     = 10.0 * 10.0 /* initial variance of receiver vel ((m/s)^2) */
	VAR_ACC     = 10.0 * 10.0 /* initial variance of receiver acc ((m/ss)^2) */
	VAR_HOLDAMB = 0.001       /* constraint to hold ambiguity (cycle^2) */
	MAXERRMSG   = 4096        /* max length of error message buffer */
	NSYSGRP     = 5           /* system groups of double differences */
)

/* number of parameters (pos,phase-bias) -------------------------------------*/
func RNF(opt *PrcOpt) int {
	switch {
	case opt.Nf < 1:
		return 1
	case opt.Nf > NFREQ:
		return NFREQ
	}
	return opt.Nf
}

func RNP(opt *PrcOpt) int {
	switch opt.Dynamics {
	case DYN_VEL:
		return 6
	case DYN_ACC:
		return 9
	}
	return 3
}

func RNB(opt *PrcOpt) int {
	if opt.Mode <= PMODE_DGPS {
		return 0
	}
	return MAXSAT * RNF(opt)
}

func RNX(opt *PrcOpt) int { return RNP(opt) + RNB(opt) }

/* state index of phase bias (s:satno,f:freq) */
func RIB(s, f int, opt *PrcOpt) int { return RNP(opt) + MAXSAT*f + s - 1 }

/* system group of double differences (0:GPS,1:GLO,2:GAL,3:BDS,4:QZS) */
func sysGroup(sys int) int {
	switch sys {
	case SYS_GPS:
		return 0
	case SYS_GLO:
		return 1
	case SYS_GAL:
		return 2
	case SYS_CMP:
		return 3
	case SYS_QZS:
		return 4
	}
	return -1
}

// arEnabled tells if ambiguities of system group m are resolved. The
// GLONASS and BeiDou flags override the global AR mode.
func arEnabled(opt *PrcOpt, m int) bool {
	switch m {
	case 1:
		return opt.GloModeAr > 0
	case 3:
		return opt.BDSModeAr > 0
	}
	return opt.ModeAr != ARMODE_OFF
}

func efact(sys int) float64 {
	switch sys {
	case SYS_GLO:
		return EFACT_GLO
	case SYS_GAL:
		return EFACT_GAL
	case SYS_QZS:
		return EFACT_QZS
	case SYS_CMP:
		return EFACT_CMP
	}
	return EFACT_GPS
}

// NewRtk returns an estimator initialized with opt.
func NewRtk(opt *PrcOpt) *Rtk {
	rtk := &Rtk{}
	rtk.InitRtk(opt)
	return rtk
}

/* initialize RTK control ------------------------------------------------------
* args   : *PrcOpt opt      I   positioning options
*-----------------------------------------------------------------------------*/
func (rtk *Rtk) InitRtk(opt *PrcOpt) {
	Trace(4, "rtkinit :\n")

	rtk.RtkSol = Sol{}
	rtk.Rb = [6]float64{}
	rtk.Nx = RNX(opt)
	rtk.Na = RNP(opt)
	rtk.Tsol = Gtime{}
	rtk.Tt = 0.0
	rtk.X = Zeros(rtk.Nx, 1)
	rtk.P = Zeros(rtk.Nx, rtk.Nx)
	rtk.Xa = Zeros(rtk.Na, 1)
	rtk.Pa = Zeros(rtk.Na, rtk.Na)
	rtk.HoldN = Zeros(rtk.Nx, 1)
	rtk.Nfix = 0
	rtk.Held = false
	rtk.ResetTracker()
	rtk.ErrBuf = ""
	rtk.Opt = *opt
}

// FreeRtk releases the state arrays.
func (rtk *Rtk) FreeRtk() {
	rtk.Nx, rtk.Na = 0, 0
	rtk.X, rtk.P, rtk.Xa, rtk.Pa, rtk.HoldN = nil, nil, nil, nil, nil
}

// Snapshot returns a deep copy of the estimator state.
func (rtk *Rtk) Snapshot() Rtk {
	snap := *rtk
	snap.X = append([]float64(nil), rtk.X...)
	snap.P = append([]float64(nil), rtk.P...)
	snap.Xa = append([]float64(nil), rtk.Xa...)
	snap.Pa = append([]float64(nil), rtk.Pa...)
	snap.HoldN = append([]float64(nil), rtk.HoldN...)
	return snap
}

// Restore sets the estimator state to a snapshot. The snapshot stays valid.
func (rtk *Rtk) Restore(snap *Rtk) {
	*rtk = *snap
	rtk.X = append([]float64(nil), snap.X...)
	rtk.P = append([]float64(nil), snap.P...)
	rtk.Xa = append([]float64(nil), snap.Xa...)
	rtk.Pa = append([]float64(nil), snap.Pa...)
	rtk.HoldN = append([]float64(nil), snap.HoldN...)
}

/* reset float states and tracking ------------------------------------------*/
func (rtk *Rtk) resetFilter() {
	for i := range rtk.X {
		rtk.X[i] = 0.0
	}
	for i := range rtk.P {
		rtk.P[i] = 0.0
	}
	for i := range rtk.Xa {
		rtk.Xa[i] = 0.0
	}
	for i := range rtk.Pa {
		rtk.Pa[i] = 0.0
	}
	for i := range rtk.HoldN {
		rtk.HoldN[i] = 0.0
	}
	rtk.Nfix = 0
	rtk.Held = false
	rtk.ResetTracker()
}

/* save error message --------------------------------------------------------*/
func (rtk *Rtk) errmsg(format string, v ...interface{}) {
	buff := fmt.Sprintf("%s: ", TimeStr(rtk.RtkSol.Time, 2)) + fmt.Sprintf(format, v...)
	if len(rtk.ErrBuf)+len(buff) > MAXERRMSG {
		rtk.ErrBuf = ""
	}
	rtk.ErrBuf += buff
	Trace(3, "%s", buff)
}

/* single-differenced observable ---------------------------------------------*/
func sdObs(obs []ObsD, i, j, k int) float64 {
	var pi, pj float64
	if k < NFREQ {
		pi, pj = obs[i].L[k], obs[j].L[k]
	} else {
		pi, pj = obs[i].P[k-NFREQ], obs[j].P[k-NFREQ]
	}
	if pi == 0.0 || pj == 0.0 {
		return 0.0
	}
	return pi - pj
}

/* single-differenced measurement error variance -----------------------------*/
func RtkVarianceErr(sys int, el, bl, dt float64, f int, opt *PrcOpt) float64 {
	nf := RNF(opt)
	fact := 1.0
	if f >= nf {
		fact = opt.Eratio[f-nf]
	}
	if fact <= 0.0 {
		fact = opt.Eratio[0]
	}
	a := fact * opt.Err[1]
	b := fact * opt.Err[2]
	c := opt.Err[3] * bl / 1e4
	d := CLIGHT * opt.SatClkStab * dt
	sinel := math.Sin(el)
	return 2.0*(a*a+b*b/sinel/sinel+c*c)*efact(sys) + d*d
}

/* initialize state and covariance -------------------------------------------*/
func (rtk *Rtk) Initx(xi, fvar float64, i int) {
	rtk.X[i] = xi
	for j := 0; j < rtk.Nx; j++ {
		if i == j {
			rtk.P[i+j*rtk.Nx] = fvar
		} else {
			rtk.P[i+j*rtk.Nx], rtk.P[j+i*rtk.Nx] = 0.0, 0.0
		}
	}
}

/* select common satellites between rover and reference station --------------*/
func SelSat(obs []ObsD, azel []float64, nu, nr int, opt *PrcOpt, sat, iu, ir []int) int {
	k := 0
	for i, j := 0, nu; i < nu && j < nu+nr; i, j = i+1, j+1 {
		switch {
		case obs[i].Sat < obs[j].Sat:
			j--
		case obs[i].Sat > obs[j].Sat:
			i--
		case azel[1+j*2] >= opt.Elmin: /* elevation at base station */
			sat[k], iu[k], ir[k] = obs[i].Sat, i, j
			k++
		}
	}
	return k
}

/* temporal update of position/velocity/acceleration -------------------------*/
func (rtk *Rtk) UpdatePos(tt float64) {
	var pos [3]float64
	var Q, Qv [9]float64
	np := RNP(&rtk.Opt)

	Trace(4, "udpos   : tt=%.3f\n", tt)

	if rtk.Opt.Mode == PMODE_FIXED {
		for i := 0; i < 3; i++ {
			rtk.Initx(rtk.Opt.Ru[i], 1e-8, i)
		}
		return
	}
	initPos := func() {
		for i := 0; i < 3; i++ {
			rtk.Initx(rtk.RtkSol.Rr[i], VAR_POS, i)
		}
		for i := 3; i < np && i < 6; i++ {
			v := rtk.RtkSol.Rr[i]
			if v == 0.0 {
				v = 1e-6
			}
			rtk.Initx(v, VAR_VEL, i)
		}
		for i := 6; i < np; i++ {
			rtk.Initx(1e-6, VAR_ACC, i)
		}
	}
	/* first epoch */
	if Norm(rtk.X, 3) <= 0.0 {
		initPos()
	}
	if rtk.Opt.Mode == PMODE_STATIC {
		return
	}
	/* kinematic mode without dynamics */
	if np == 3 {
		initPos()
		return
	}
	fvar := 0.0
	for i := 0; i < 3; i++ {
		fvar += rtk.P[i+i*rtk.Nx]
	}
	if fvar/3.0 > VAR_POS {
		initPos()
		Trace(3, "reset rtk position due to large variance: var=%.3f\n", fvar/3.0)
		return
	}
	/* valid state index */
	ix := make([]int, 0, rtk.Nx)
	for i := 0; i < rtk.Nx; i++ {
		if rtk.X[i] != 0.0 && rtk.P[i+i*rtk.Nx] > 0.0 {
			ix = append(ix, i)
		}
	}
	nx := len(ix)
	if nx < np || ix[np-1] != np-1 {
		return
	}
	/* state transition x=F*x, P=F*P*F' */
	F := Eye(nx)
	for i := 0; i < np-3; i++ {
		F[i+(i+3)*nx] = tt
	}
	if np == 9 {
		for i := 0; i < 3; i++ {
			F[i+(i+6)*nx] = SQR(tt) / 2.0
		}
	}
	x, xp := Mat(nx, 1), Mat(nx, 1)
	P, FP := Mat(nx, nx), Mat(nx, nx)
	for i := 0; i < nx; i++ {
		x[i] = rtk.X[ix[i]]
		for j := 0; j < nx; j++ {
			P[i+j*nx] = rtk.P[ix[i]+ix[j]*rtk.Nx]
		}
	}
	MatMul("NN", nx, 1, nx, 1.0, F, x, 0.0, xp)
	MatMul("NN", nx, nx, nx, 1.0, F, P, 0.0, FP)
	MatMul("NT", nx, nx, nx, 1.0, FP, F, 0.0, P)
	for i := 0; i < nx; i++ {
		rtk.X[ix[i]] = xp[i]
		for j := 0; j < nx; j++ {
			rtk.P[ix[i]+ix[j]*rtk.Nx] = P[i+j*nx]
		}
	}
	/* process noise added to the highest order block only */
	Q[0], Q[4] = SQR(rtk.Opt.Prn[3])*math.Abs(tt), SQR(rtk.Opt.Prn[3])*math.Abs(tt)
	Q[8] = SQR(rtk.Opt.Prn[4]) * math.Abs(tt)
	Ecef2Pos(rtk.X, pos[:])
	Cov2Ecef(pos[:], Q[:], Qv[:])
	k := np - 3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rtk.P[i+k+(j+k)*rtk.Nx] += Qv[i+j*3]
		}
	}
}

/* temporal update of phase biases -------------------------------------------*/
func (rtk *Rtk) UpdateBias(tt float64, obs []ObsD, sat, iu, ir []int, ns int, nav *Nav) {
	opt := &rtk.Opt
	nf := RNF(opt)

	Trace(4, "udbias  : tt=%.3f ns=%d\n", tt, ns)

	for i := 0; i < ns; i++ {
		for k := 0; k < nf; k++ {
			rtk.Ssat[sat[i]-1].Slip[k] = 0
		}
		rtk.DetectSlipLLI(obs, iu[i], 1, nf, tt)
		rtk.DetectSlipLLI(obs, ir[i], 2, nf, tt)
		if nf >= 2 {
			rtk.DetectSlipGF(obs, iu[i], ir[i], nf, opt.ThresSlip, nav)
		}
		for k := 0; k < nf; k++ {
			rtk.Ssat[sat[i]-1].Half[k] = 1
			if obs[iu[i]].LLI[k]&LLI_HALFC != 0 || obs[ir[i]].LLI[k]&LLI_HALFC != 0 {
				rtk.Ssat[sat[i]-1].Half[k] = 0
			}
		}
	}
	for k := 0; k < nf; k++ {
		/* reset phase-bias if instantaneous AR or expire obs outage counter */
		for i := 1; i <= MAXSAT; i++ {
			j := RIB(i, k, opt)
			rtk.Ssat[i-1].Outc[k]++
			reset := rtk.Ssat[i-1].Outc[k] > uint32(opt.MaxOut)

			if opt.ModeAr == ARMODE_INST && rtk.X[j] != 0.0 {
				rtk.Initx(0.0, 0.0, j)
			} else if reset && rtk.X[j] != 0.0 {
				rtk.Initx(0.0, 0.0, j)
				Trace(3, "udbias : obs outage counter overflow (sat=%3d L%d n=%d)\n",
					i, k+1, rtk.Ssat[i-1].Outc[k])
				rtk.Ssat[i-1].Outc[k] = 0
			}
			if reset {
				rtk.ResetAmbControl(i, k)
			}
		}
		/* reset phase-bias if detecting cycle slip */
		for i := 0; i < ns; i++ {
			j := RIB(sat[i], k, opt)
			rtk.P[j+j*rtk.Nx] += opt.Prn[0] * opt.Prn[0] * math.Abs(tt)
			if rtk.Ssat[sat[i]-1].Slip[k]&LLI_SLIP == 0 {
				continue
			}
			if rtk.Ssat[sat[i]-1].Fix[k] == 3 {
				rtk.errmsg("slip on held satellite, hold released (sat=%3d L%d)\n", sat[i], k+1)
				rtk.Held = false
				rtk.Nfix = 0
			}
			rtk.Initx(0.0, 0.0, j)
			rtk.ResetAmbControl(sat[i], k)
		}
		/* approximate phase-bias by phase - code */
		bias := Zeros(ns, 1)
		offset, nofs := 0.0, 0
		for i := 0; i < ns; i++ {
			cp := sdObs(obs, iu[i], ir[i], k) /* cycle */
			pr := sdObs(obs, iu[i], ir[i], k+NFREQ)
			freqi := Sat2Freq(sat[i], obs[iu[i]].Code[k], nav)
			if cp == 0.0 || pr == 0.0 || freqi == 0.0 {
				continue
			}
			bias[i] = cp - pr*freqi/CLIGHT
			if x := rtk.X[RIB(sat[i], k, opt)]; x != 0.0 {
				offset += bias[i] - x
				nofs++
			}
		}
		/* correct phase-bias offset to ensure phase-code coherency */
		if nofs > 0 {
			for i := 1; i <= MAXSAT; i++ {
				if j := RIB(i, k, opt); rtk.X[j] != 0.0 {
					rtk.X[j] += offset / float64(nofs)
				}
			}
		}
		for i := 0; i < ns; i++ {
			if j := RIB(sat[i], k, opt); bias[i] != 0.0 && rtk.X[j] == 0.0 {
				rtk.Initx(bias[i], SQR(opt.Std[0]), j)
			}
		}
	}
	for i := 0; i < ns; i++ {
		rtk.UpdateAmbControl(obs, iu[i], ir[i], nf, nav)
	}
}

/* temporal update of states --------------------------------------------------*/
func (rtk *Rtk) UpdateState(obs []ObsD, sat, iu, ir []int, ns int, nav *Nav) {
	rtk.UpdatePos(rtk.Tt)
	if rtk.Opt.Mode > PMODE_DGPS {
		rtk.UpdateBias(rtk.Tt, obs, sat, iu, ir, ns, nav)
	}
}

/* undifferenced phase/code residuals ------------------------------------------
* y[f+i*nf*2] : phase residual (m), y[nf+f+i*nf*2] : code residual (m)
*-----------------------------------------------------------------------------*/
func ZDRes(base int, obs []ObsD, rs, dts []float64, svh []int, nav *Nav,
	rr []float64, opt *PrcOpt, y, e, azel, freq []float64) int {
	var pos [3]float64
	nf := RNF(opt)
	n := len(obs)

	for i := 0; i < n*nf*2; i++ {
		y[i] = 0.0
	}
	if Norm(rr, 3) <= 0.0 {
		return 0 /* no receiver position */
	}
	Ecef2Pos(rr, pos[:])

	for i := 0; i < n; i++ {
		r := GeoDist(rs[i*6:], rr, e[i*3:])
		if r <= 0.0 {
			continue
		}
		if SatAzel(pos[:], e[i*3:], azel[i*2:]) < opt.Elmin {
			continue
		}
		if SatExclude(obs[i].Sat, svh[i], opt) > 0 {
			continue
		}
		r += -CLIGHT * dts[i*2]

		ion := 0.0
		if opt.TropOpt == TROPOPT_SAAS {
			r += TropModel(obs[i].Time, pos[:], azel[i*2:], REL_HUMI)
		}
		if opt.IonoOpt == IONOOPT_BRDC {
			ion = IonModel(obs[i].Time, nav.Ion_gps[:], pos[:], azel[i*2:])
		}
		for f := 0; f < nf; f++ {
			if freq[f+i*nf] = Sat2Freq(obs[i].Sat, obs[i].Code[f], nav); freq[f+i*nf] == 0.0 {
				continue
			}
			if TestSnr(base, f, azel[1+i*2], float64(obs[i].SNR[f])*SNR_UNIT, &opt.SnrMask) > 0 {
				continue
			}
			di := ion * SQR(FREQ1/freq[f+i*nf])
			if obs[i].L[f] != 0.0 {
				y[f+i*nf*2] = obs[i].L[f]*CLIGHT/freq[f+i*nf] - r + di
			}
			if obs[i].P[f] != 0.0 {
				y[f+nf+i*nf*2] = obs[i].P[f] - r - di
			}
		}
	}
	return 1
}

/* test valid observation data -----------------------------------------------*/
func validObs(i, j, f, nf int, y []float64) bool {
	/* if no phase observable, psudorange is also unusable */
	return y[f+i*nf*2] != 0.0 && y[f+j*nf*2] != 0.0 &&
		(f < nf || (y[f-nf+i*nf*2] != 0.0 && y[f-nf+j*nf*2] != 0.0))
}

/* double-differenced measurement error covariance ---------------------------*/
func DDCovariance(nb []int, n int, Ri, Rj []float64, nv int, R []float64) {
	for i := 0; i < nv*nv; i++ {
		R[i] = 0.0
	}
	for b, k := 0, 0; b < n; k, b = k+nb[b], b+1 {
		for i := 0; i < nb[b]; i++ {
			for j := 0; j < nb[b]; j++ {
				R[k+i+(k+j)*nv] = Ri[k+i]
				if i == j {
					R[k+i+(k+j)*nv] = Ri[k+i] + Rj[k+i]
				}
			}
		}
	}
}

/* double-differenced phase/code residuals -----------------------------------*/
func (rtk *Rtk) DDRes(nav *Nav, dt float64, x []float64, sat []int, y, e, azel, freq []float64,
	iu, ir []int, ns int, v, H, R []float64, vflg []int) int {
	var dr [3]float64
	var nb [NSYSGRP * NFREQ * 2]int
	opt := &rtk.Opt
	nf := RNF(opt)
	nv, b := 0, 0

	Trace(4, "ddres   : dt=%.1f nx=%d ns=%d\n", dt, rtk.Nx, ns)

	for i := 0; i < 3; i++ {
		dr[i] = x[i] - rtk.Rb[i]
	}
	bl := Norm(dr[:], 3)
	Ri := Mat(ns*nf*2+2, 1)
	Rj := Mat(ns*nf*2+2, 1)

	for i := 0; i < MAXSAT; i++ {
		for j := 0; j < NFREQ; j++ {
			rtk.Ssat[i].Resp[j], rtk.Ssat[i].Resc[j] = 0.0, 0.0
		}
	}
	f0 := 0
	if opt.Mode <= PMODE_DGPS {
		f0 = nf
	}
	for m := 0; m < NSYSGRP; m++ {
		for f := f0; f < nf*2; f++ {
			/* reference satellite with highest elevation */
			i := -1
			for j := 0; j < ns; j++ {
				if sysGroup(int(rtk.Ssat[sat[j]-1].Sys)) != m || !validObs(iu[j], ir[j], f, nf, y) {
					continue
				}
				if i < 0 || azel[1+iu[j]*2] >= azel[1+iu[i]*2] {
					i = j
				}
			}
			if i < 0 {
				continue
			}
			sysi := int(rtk.Ssat[sat[i]-1].Sys)
			freqi := freq[f%nf+iu[i]*nf]

			for j := 0; j < ns; j++ {
				if i == j || sysGroup(int(rtk.Ssat[sat[j]-1].Sys)) != m ||
					!validObs(iu[j], ir[j], f, nf, y) {
					continue
				}
				sysj := int(rtk.Ssat[sat[j]-1].Sys)
				freqj := freq[f%nf+iu[j]*nf]
				var Hi []float64
				if H != nil {
					Hi = H[nv*rtk.Nx : (nv+1)*rtk.Nx]
					for k := range Hi {
						Hi[k] = 0.0
					}
				}
				/* double-differenced residual */
				v[nv] = (y[f+iu[i]*nf*2] - y[f+ir[i]*nf*2]) - (y[f+iu[j]*nf*2] - y[f+ir[j]*nf*2])

				/* partial derivatives by rover position */
				if H != nil {
					for k := 0; k < 3; k++ {
						Hi[k] = -e[k+iu[i]*3] + e[k+iu[j]*3]
					}
				}
				/* double-differenced phase-bias term */
				if f < nf {
					v[nv] -= CLIGHT/freqi*x[RIB(sat[i], f, opt)] - CLIGHT/freqj*x[RIB(sat[j], f, opt)]
					if H != nil {
						Hi[RIB(sat[i], f, opt)] = CLIGHT / freqi
						Hi[RIB(sat[j], f, opt)] = -CLIGHT / freqj
					}
					rtk.Ssat[sat[j]-1].Resc[f] = float32(v[nv])
				} else {
					rtk.Ssat[sat[j]-1].Resp[f-nf] = float32(v[nv])
				}
				/* innovation gate */
				if opt.MaxInno > 0.0 && math.Abs(v[nv]) > opt.MaxInno {
					c := "P"
					if f < nf {
						rtk.Ssat[sat[i]-1].Rejc[f]++
						rtk.Ssat[sat[j]-1].Rejc[f]++
						c = "L"
					}
					rtk.errmsg("outlier rejected (sat=%3d-%3d %s%d v=%.3f)\n", sat[i], sat[j], c, f%nf+1, v[nv])
					continue
				}
				Ri[nv] = RtkVarianceErr(sysi, azel[1+iu[i]*2], bl, dt, f, opt)
				Rj[nv] = RtkVarianceErr(sysj, azel[1+iu[j]*2], bl, dt, f, opt)

				rtk.Ssat[sat[i]-1].Vsat[f%nf] = 1
				rtk.Ssat[sat[j]-1].Vsat[f%nf] = 1

				cf := 1
				if f < nf {
					cf = 0
				}
				vflg[nv] = (sat[i] << 16) | (sat[j] << 8) | (cf << 4) | (f % nf)
				nv++
				nb[b]++
			}
			b++
		}
	}
	DDCovariance(nb[:], b, Ri, Rj, nv, R)
	return nv
}

/* index for SD to DD transformation matrix D --------------------------------*/
func (rtk *Rtk) DDIndex(ix []int) int {
	opt := &rtk.Opt
	nf := RNF(opt)
	nb := 0

	for i := 0; i < MAXSAT; i++ {
		for j := 0; j < NFREQ; j++ {
			rtk.Ssat[i].Fix[j] = 0
		}
	}
	fixable := func(s *SSat, f int, m int) bool {
		return s.Lock[f] > opt.MinLock && s.Half[f] != 0 && s.Azel[1] >= opt.ElMaskAr && arEnabled(opt, m)
	}
	for m := 0; m < NSYSGRP; m++ {
		for f := 0; f < nf; f++ {
			i := -1
			for s := 1; s <= MAXSAT; s++ {
				ss := &rtk.Ssat[s-1]
				if rtk.X[RIB(s, f, opt)] == 0.0 || sysGroup(int(ss.Sys)) != m || ss.Vsat[f] == 0 {
					continue
				}
				if fixable(ss, f, m) {
					ss.Fix[f] = 2 /* reference */
					i = s
					break
				}
				ss.Fix[f] = 1
			}
			if i < 0 {
				continue
			}
			for s := 1; s <= MAXSAT; s++ {
				ss := &rtk.Ssat[s-1]
				if s == i || rtk.X[RIB(s, f, opt)] == 0.0 || sysGroup(int(ss.Sys)) != m || ss.Vsat[f] == 0 {
					continue
				}
				if fixable(ss, f, m) {
					ix[nb*2] = RIB(i, f, opt)   /* state index of ref bias */
					ix[nb*2+1] = RIB(s, f, opt) /* state index of target bias */
					nb++
					ss.Fix[f] = 2
				} else {
					ss.Fix[f] = 1
				}
			}
		}
	}
	return nb
}

/* group the fixed or held satellites of system m and frequency f ------------*/
func (rtk *Rtk) fixedIndex(m, f int, elmask float64) []int {
	var index []int
	for i := 0; i < MAXSAT; i++ {
		ss := &rtk.Ssat[i]
		if sysGroup(int(ss.Sys)) != m || ss.Fix[f] < 2 || ss.Azel[1] < elmask {
			continue
		}
		index = append(index, RIB(i+1, f, &rtk.Opt))
	}
	return index
}

/* restore single-differenced ambiguity --------------------------------------*/
func (rtk *Rtk) RestoreAmb(bias []float64, nb int, xa []float64) {
	nf := RNF(&rtk.Opt)
	nv := 0

	copy(xa, rtk.X)
	copy(xa, rtk.Xa[:rtk.Na])

	for m := 0; m < NSYSGRP; m++ {
		for f := 0; f < nf; f++ {
			index := rtk.fixedIndex(m, f, -PI)
			if len(index) < 2 {
				continue
			}
			xa[index[0]] = rtk.X[index[0]]
			for i := 1; i < len(index) && nv < nb; i++ {
				xa[index[i]] = xa[index[0]] - bias[nv]
				nv++
			}
		}
	}
}

/* hold integer ambiguity ----------------------------------------------------*/
func (rtk *Rtk) HoldAmb(xa []float64) {
	nf := RNF(&rtk.Opt)
	nb := rtk.Nx - rtk.Na
	v := Mat(nb, 1)
	H := Zeros(rtk.Nx, nb)
	nv := 0

	Trace(4, "holdamb :\n")

	for m := 0; m < NSYSGRP; m++ {
		for f := 0; f < nf; f++ {
			index := rtk.fixedIndex(m, f, rtk.Opt.ElMaskHold)

			/* the held set of the group is replaced */
			for i := 0; i < MAXSAT; i++ {
				if sysGroup(int(rtk.Ssat[i].Sys)) == m && rtk.Ssat[i].Fix[f] == 3 {
					rtk.Ssat[i].Fix[f] = 1
				}
			}
			for _, j := range index {
				rtk.Ssat[j-RIB(1, f, &rtk.Opt)].Fix[f] = 3 /* hold */
				rtk.HoldN[j] = xa[index[0]] - xa[j]
			}
			for i := 1; i < len(index); i++ {
				v[nv] = (xa[index[0]] - xa[index[i]]) - (rtk.X[index[0]] - rtk.X[index[i]])
				H[index[0]+nv*rtk.Nx] = 1.0
				H[index[i]+nv*rtk.Nx] = -1.0
				nv++
			}
		}
	}
	if nv <= 0 {
		return
	}
	R := Zeros(nv, nv)
	for i := 0; i < nv; i++ {
		R[i+i*nv] = VAR_HOLDAMB
	}
	if info := Filter(rtk.X, rtk.P, H, v, R, rtk.Nx, nv); info != 0 {
		rtk.errmsg("filter error (info=%d)\n", info)
		return
	}
	rtk.Held = true
}

/* resolve integer ambiguity by LAMBDA ---------------------------------------*/
func (rtk *Rtk) ResolveAmbLAMBDA(bias, xa []float64) int {
	var s [2]float64
	opt := &rtk.Opt
	nx := rtk.Nx

	Trace(4, "resamb_LAMBDA : nx=%d\n", nx)

	rtk.RtkSol.Ratio = 0.0

	anyAr := false
	for m := 0; m < NSYSGRP; m++ {
		anyAr = anyAr || arEnabled(opt, m)
	}
	if opt.Mode <= PMODE_DGPS || !anyAr || opt.ThresAr[0] < 1.0 {
		return 0
	}
	/* index of SD to DD transformation matrix D */
	ix := IMat(nx, 2)
	nb := rtk.DDIndex(ix)
	if nb <= 0 {
		rtk.errmsg("no valid double-difference\n")
		return 0
	}
	b := Mat(nb, 2)
	y, Qb, Qab := rtk.ddAmb(ix, nb)

	/* integer least-square estimation */
	if info := Lambda(nb, 2, y, Qb, b, s[:]); info != 0 {
		rtk.errmsg("lambda error (info=%d)\n", info)
		return 0
	}
	ratio := 999.9
	if s[0] > 0.0 {
		ratio = math.Min(s[1]/s[0], 999.9)
	}
	rtk.RtkSol.Ratio = float32(ratio)

	/* validation by ratio-test, a tie is never accepted */
	if !(s[1] > s[0] && (s[0] <= 0.0 || s[1]/s[0] >= opt.ThresAr[0])) {
		rtk.errmsg("ambiguity validation failed (nb=%d ratio=%.2f s=%.2f/%.2f)\n", nb, ratio, s[0], s[1])
		return 0
	}
	copy(bias, b[:nb])
	if !rtk.fixAmb(y, Qb, Qab, bias, nb) {
		return 0
	}
	Trace(3, "resamb : validation ok (nb=%d ratio=%.2f s=%.2f/%.2f)\n", nb, ratio, s[0], s[1])

	rtk.RestoreAmb(bias, nb, xa)
	return nb
}

/* double-differenced ambiguities (y=D*xc, Qb=D*Qc*D', Qab=Qac*D') ----------*/
func (rtk *Rtk) ddAmb(ix []int, nb int) (y, Qb, Qab []float64) {
	nx, na := rtk.Nx, rtk.Na
	y, Qb, Qab = Mat(nb, 1), Mat(nb, nb), Mat(na, nb)
	DP := Mat(nb, nx-na)

	for i := 0; i < nb; i++ {
		y[i] = rtk.X[ix[i*2]] - rtk.X[ix[i*2+1]]
	}
	for j := 0; j < nx-na; j++ {
		for i := 0; i < nb; i++ {
			DP[i+j*nb] = rtk.P[ix[i*2]+(na+j)*nx] - rtk.P[ix[i*2+1]+(na+j)*nx]
		}
	}
	for j := 0; j < nb; j++ {
		for i := 0; i < nb; i++ {
			Qb[i+j*nb] = DP[i+(ix[j*2]-na)*nb] - DP[i+(ix[j*2+1]-na)*nb]
		}
	}
	for j := 0; j < nb; j++ {
		for i := 0; i < na; i++ {
			Qab[i+j*na] = rtk.P[i+ix[j*2]*nx] - rtk.P[i+ix[j*2+1]*nx]
		}
	}
	return
}

/* transform float to fixed solution (xa=xa-Qab*Qb\(y-b)) -------------------*/
func (rtk *Rtk) fixAmb(y, Qb, Qab, b []float64, nb int) bool {
	nx, na := rtk.Nx, rtk.Na
	db := Mat(nb, 1)
	QQ := Mat(na, nb)

	for i := 0; i < na; i++ {
		rtk.Xa[i] = rtk.X[i]
		for j := 0; j < na; j++ {
			rtk.Pa[i+j*na] = rtk.P[i+j*nx]
		}
	}
	for i := 0; i < nb; i++ {
		y[i] -= b[i]
	}
	if MatInv(Qb, nb) != 0 {
		rtk.errmsg("singular ambiguity covariance (nb=%d)\n", nb)
		return false
	}
	MatMul("NN", nb, 1, nb, 1.0, Qb, y, 0.0, db)
	MatMul("NN", na, 1, nb, -1.0, Qab, db, 1.0, rtk.Xa)

	/* covariance of fixed solution (Qa=Qa-Qab*Qb^-1*Qab') */
	MatMul("NN", na, nb, nb, 1.0, Qab, Qb, 0.0, QQ)
	MatMul("NT", na, na, nb, -1.0, QQ, Qab, 1.0, rtk.Pa)
	return true
}

// ResolveAmbHeld fixes the ambiguities of the held satellites to the
// integers of the last hold without a new search. It returns the number of
// double-differences, 0 if less than two held satellites of a group are
// valid.
func (rtk *Rtk) ResolveAmbHeld(bias, xa []float64) int {
	opt := &rtk.Opt
	nf := RNF(opt)
	ix := IMat(rtk.Nx, 2)
	nb := 0

	Trace(4, "resamb_held :\n")

	rtk.RtkSol.Ratio = 0.0

	for m := 0; m < NSYSGRP; m++ {
		for f := 0; f < nf; f++ {
			ref := -1
			for s := 1; s <= MAXSAT; s++ {
				ss := &rtk.Ssat[s-1]
				if ss.Fix[f] == 2 {
					ss.Fix[f] = 1
				}
				j := RIB(s, f, opt)
				if sysGroup(int(ss.Sys)) != m || ss.Fix[f] != 3 || ss.Vsat[f] == 0 || rtk.X[j] == 0.0 {
					continue
				}
				if ref < 0 {
					ref = j
					continue
				}
				ix[nb*2], ix[nb*2+1] = ref, j
				bias[nb] = rtk.HoldN[j] - rtk.HoldN[ref]
				nb++
			}
		}
	}
	if nb <= 0 {
		rtk.errmsg("no valid held ambiguity\n")
		return 0
	}
	y, Qb, Qab := rtk.ddAmb(ix, nb)
	if !rtk.fixAmb(y, Qb, Qab, bias, nb) {
		return 0
	}
	copy(xa, rtk.X)
	copy(xa, rtk.Xa[:rtk.Na])
	for i := 0; i < nb; i++ {
		xa[ix[i*2+1]] = rtk.X[ix[i*2]] - bias[i]
	}
	return nb
}

/* validation of solution by post-fit residuals ------------------------------*/
func (rtk *Rtk) ValidPos(v, R []float64, vflg []int, nv int, thres float64) int {
	fact := thres * thres

	for i := 0; i < nv; i++ {
		if v[i]*v[i] <= fact*R[i+i*nv] {
			continue
		}
		stype := "L"
		if (vflg[i]>>4)&0xF == 1 {
			stype = "C"
		}
		rtk.errmsg("large residual (sat=%2d-%2d %s%d v=%6.3f sig=%.3f)\n",
			(vflg[i]>>16)&0xFF, (vflg[i]>>8)&0xFF, stype, vflg[i]&0xF+1, v[i], SQRT(R[i+i*nv]))
		return 0
	}
	return 1
}

/* gdop of the satellites used in double differences -------------------------*/
func (rtk *Rtk) ddGdop(sat []int, ns int) float64 {
	var dop [4]float64
	azel := make([]float64, 0, 2*ns)
	for i := 0; i < ns; i++ {
		ss := &rtk.Ssat[sat[i]-1]
		if ss.Vsat[0] == 0 {
			continue
		}
		azel = append(azel, ss.Azel[0], ss.Azel[1])
	}
	DOPs(len(azel)/2, azel, 0.0, dop[:])
	return dop[0]
}

/* relative positioning ------------------------------------------------------*/
func (rtk *Rtk) RelativePos(obs []ObsD, nu, nr int, nav *Nav) int {
	var sat, iu, ir [MAXSAT]int
	opt := &rtk.Opt
	time := obs[0].Time
	n := nu + nr
	nf := RNF(opt)

	stat := SOLQ_FLOAT
	if opt.Mode <= PMODE_DGPS {
		stat = SOLQ_DGPS
	}
	Trace(4, "relpos  : nx=%d nu=%d nr=%d\n", rtk.Nx, nu, nr)

	dt := TimeDiff(time, obs[nu].Time)

	rs, dts, vare := Mat(6, n), Mat(2, n), Mat(1, n)
	y, e := Mat(nf*2, n), Mat(3, n)
	azel, freq := Zeros(2, n), Zeros(nf, n)
	svh := make([]int, n)
	vflg := make([]int, n*nf*2+1)

	for i := 0; i < MAXSAT; i++ {
		rtk.Ssat[i].Sys = uint8(SatSys(i+1, nil))
		for j := 0; j < NFREQ; j++ {
			rtk.Ssat[i].Vsat[j] = 0
		}
		for j := 1; j < NFREQ; j++ {
			rtk.Ssat[i].Snr[j] = 0
		}
	}
	/* satellite positions/clocks */
	nav.SatPoss(time, obs, rs, dts, vare, svh)

	/* undifferenced residuals for base station */
	if ZDRes(1, obs[nu:], rs[nu*6:], dts[nu*2:], svh[nu:], nav, rtk.Rb[:], opt,
		y[nu*nf*2:], e[nu*3:], azel[nu*2:], freq[nu*nf:]) == 0 {
		rtk.errmsg("initial base station position error\n")
		return SOLQ_NONE
	}
	/* common satellites between rover and base-station */
	ns := SelSat(obs, azel, nu, nr, opt, sat[:], iu[:], ir[:])
	if ns <= 0 {
		rtk.errmsg("no common satellite\n")
		return SOLQ_NONE
	}
	rtk.UpdateState(obs, sat[:], iu[:], ir[:], ns, nav)

	xp := Mat(rtk.Nx, 1)
	Pp := Zeros(rtk.Nx, rtk.Nx)
	xa := Mat(rtk.Nx, 1)
	MatCpy(xp, rtk.X, rtk.Nx, 1)
	MatCpy(Pp, rtk.P, rtk.Nx, rtk.Nx)

	ny := ns*nf*2 + 2
	v := Mat(ny, 1)
	H := Zeros(rtk.Nx, ny)
	R := Mat(ny, ny)
	bias := Mat(rtk.Nx, 1)

	niter := max(opt.NoIter, 1)
	for i := 0; i < niter; i++ {
		if ZDRes(0, obs[:nu], rs, dts, svh, nav, xp, opt, y, e, azel, freq) == 0 {
			rtk.errmsg("rover initial position error\n")
			return SOLQ_NONE
		}
		nv := rtk.DDRes(nav, dt, xp, sat[:], y, e, azel, freq, iu[:], ir[:], ns, v, H, R, vflg)
		if nv < 1 {
			rtk.errmsg("no double-differenced residual\n")
			return SOLQ_NONE
		}
		MatCpy(Pp, rtk.P, rtk.Nx, rtk.Nx)
		if info := Filter(xp, Pp, H, v, R, rtk.Nx, nv); info != 0 {
			rtk.errmsg("filter error (info=%d)\n", info)
			return SOLQ_NONE
		}
	}
	/* post-fit residuals for float solution */
	if ZDRes(0, obs[:nu], rs, dts, svh, nav, xp, opt, y, e, azel, freq) == 0 {
		return SOLQ_NONE
	}
	nv := rtk.DDRes(nav, dt, xp, sat[:], y, e, azel, freq, iu[:], ir[:], ns, v, nil, R, vflg)
	if rtk.ValidPos(v, R, vflg, nv, 4.0) == 0 {
		return SOLQ_NONE
	}
	MatCpy(rtk.X, xp, rtk.Nx, 1)
	MatCpy(rtk.P, Pp, rtk.Nx, rtk.Nx)

	rtk.RtkSol.Ns = 0
	for i := 0; i < ns; i++ {
		for f := 0; f < nf; f++ {
			if rtk.Ssat[sat[i]-1].Vsat[f] == 0 {
				continue
			}
			rtk.Ssat[sat[i]-1].Lock[f]++
			rtk.Ssat[sat[i]-1].Outc[f] = 0
			if f == 0 {
				rtk.RtkSol.Ns++ /* valid satellite count by L1 */
			}
		}
	}
	if rtk.RtkSol.Ns < 4 {
		rtk.errmsg("lack of valid satellites ns=%d\n", rtk.RtkSol.Ns)
		return SOLQ_NONE
	}
	if gdop := rtk.ddGdop(sat[:], ns); gdop <= 0.0 || gdop > opt.MaxGdop {
		rtk.errmsg("gdop error gdop=%.1f\n", gdop)
		return SOLQ_NONE
	}
	/* resolve integer ambiguity by LAMBDA, held integers are not searched */
	var nb int
	if rtk.Held && opt.ModeAr == ARMODE_FIXHOLD {
		nb = rtk.ResolveAmbHeld(bias, xa)
	} else {
		nb = rtk.ResolveAmbLAMBDA(bias, xa)
	}
	if nb > 1 {
		if ZDRes(0, obs[:nu], rs, dts, svh, nav, xa, opt, y, e, azel, freq) > 0 {
			nv = rtk.DDRes(nav, dt, xa, sat[:], y, e, azel, freq, iu[:], ir[:], ns, v, nil, R, vflg)

			if rtk.ValidPos(v, R, vflg, nv, 4.0) > 0 {
				if rtk.Nfix++; rtk.Nfix >= opt.MinFix && opt.ModeAr == ARMODE_FIXHOLD {
					rtk.HoldAmb(xa)
				}
				stat = SOLQ_FIX
			}
		}
	}
	if stat == SOLQ_FIX {
		rtk.setSol(rtk.Xa, rtk.Pa, rtk.Na)
	} else {
		rtk.setSol(rtk.X, rtk.P, rtk.Nx)
		rtk.Nfix = 0
		rtk.Held = false
	}
	for i := 0; i < n; i++ {
		for j := 0; j < nf; j++ {
			if obs[i].L[j] == 0.0 || obs[i].Rcv < 1 || obs[i].Rcv > 2 {
				continue
			}
			rtk.Ssat[obs[i].Sat-1].Pt[obs[i].Rcv-1][j] = obs[i].Time
			rtk.Ssat[obs[i].Sat-1].Ph[obs[i].Rcv-1][j] = obs[i].L[j]
		}
	}
	for i := 0; i < ns; i++ {
		for j := 0; j < nf; j++ {
			rtk.Ssat[sat[i]-1].Snr[j] = obs[iu[i]].SNR[j]
		}
	}
	for i := 0; i < MAXSAT; i++ {
		fixed := false
		for j := 0; j < nf; j++ {
			if (rtk.Ssat[i].Fix[j] == 2 && stat != SOLQ_FIX) || (rtk.Ssat[i].Fix[j] == 3 && !rtk.Held) {
				rtk.Ssat[i].Fix[j] = 1
			}
			fixed = fixed || rtk.Ssat[i].Fix[j] >= 2
			if rtk.Ssat[i].Slip[j]&LLI_SLIP != 0 {
				rtk.Ssat[i].Slipc[j]++
			}
		}
		if fixed {
			rtk.Ambc[i].FixCnt++
		} else {
			rtk.Ambc[i].FixCnt = 0
		}
	}
	return stat
}

/* copy position/velocity states to the solution -----------------------------*/
func (rtk *Rtk) setSol(x, P []float64, n int) {
	for i := 0; i < 3; i++ {
		rtk.RtkSol.Rr[i] = x[i]
		rtk.RtkSol.Qr[i] = float32(P[i+i*n])
	}
	rtk.RtkSol.Qr[3] = float32(P[1])
	rtk.RtkSol.Qr[4] = float32(P[1+2*n])
	rtk.RtkSol.Qr[5] = float32(P[2])

	if RNP(&rtk.Opt) >= 6 {
		for i := 3; i < 6; i++ {
			rtk.RtkSol.Rr[i] = x[i]
			rtk.RtkSol.Qv[i-3] = float32(P[i+i*n])
		}
		rtk.RtkSol.Qv[3] = float32(P[4+3*n])
		rtk.RtkSol.Qv[4] = float32(P[5+4*n])
		rtk.RtkSol.Qv[5] = float32(P[5+3*n])
	}
}

/* dgps by rtcm 2 pseudorange corrections --------------------------------------
* corrects the rover pseudoranges with nav.Dgps not older than maxage and
* computes a code solution. returns the number of corrected satellites.
*-----------------------------------------------------------------------------*/
func (rtk *Rtk) dgpsPos(obs []ObsD, nav *Nav, maxage float64, msg *string) int {
	corr := make([]ObsD, 0, len(obs))
	for i := range obs {
		dgps := &nav.Dgps[obs[i].Sat-1]
		if dgps.T0.Time == 0 || obs[i].P[0] == 0.0 {
			continue
		}
		dt := TimeDiff(obs[i].Time, dgps.T0)
		if math.Abs(dt) > maxage {
			continue
		}
		o := obs[i]
		o.P[0] += dgps.Prc + dgps.Rrc*dt
		corr = append(corr, o)
	}
	if len(corr) < 4 {
		*msg = fmt.Sprintf("lack of dgps corrections n=%d", len(corr))
		return 0
	}
	opt := rtk.Opt
	opt.Mode = PMODE_SINGLE
	opt.IonoOpt, opt.TropOpt = IONOOPT_OFF, TROPOPT_OFF
	if PntPos(corr, nav, &opt, &rtk.RtkSol, nil, nil, msg) == 0 {
		return 0
	}
	rtk.RtkSol.Stat = SOLQ_DGPS
	return len(corr)
}

/* precise positioning ---------------------------------------------------------
* input observation data and navigation message, compute rover position by
* single, dgps or relative positioning
* args   : []ObsD  obs      I   observation data for an epoch
*                               obs[i].Rcv=1:rover,2:reference
*                               sorted by receiver and satellte
*          *Nav    nav      I   navigation messages
* return : status (0:no solution,1:valid solution)
* notes  : opt.Rb (base station position) is copied to rtk.Rb in relative
*          modes. a rejected epoch (no solution) leaves the state as it was
*          before the call, except the solution time and quality and the
*          error messages. the data gap and the time update are measured
*          from the last accepted solution (rtk.Tsol).
*-----------------------------------------------------------------------------*/
func (rtk *Rtk) RtkPos(obs []ObsD, nav *Nav) int {
	if len(obs) == 0 {
		return 0
	}
	snap := rtk.Snapshot()

	stat := rtk.rtkpos(obs, nav)
	if stat == SOLQ_NONE {
		errbuf := rtk.ErrBuf
		rtk.Restore(&snap)
		rtk.ErrBuf = errbuf
		rtk.RtkSol.Time = obs[0].Time
		rtk.RtkSol.Stat = SOLQ_NONE
		rtk.RtkSol.Ns = 0
		rtk.RtkSol.Ratio = 0.0
		return 0
	}
	rtk.RtkSol.Stat = uint8(stat)
	rtk.RtkSol.Thres = float32(rtk.Opt.ThresAr[0])
	rtk.Tsol = rtk.RtkSol.Time
	return 1
}

func (rtk *Rtk) rtkpos(obs []ObsD, nav *Nav) int {
	var nu, nr int
	var msg string
	opt := &rtk.Opt

	Trace(4, "rtkpos  : time=%s n=%d\n", TimeStr(obs[0].Time, 3), len(obs))
	traceobs(5, obs)

	if opt.Mode != PMODE_SINGLE {
		copy(rtk.Rb[:3], opt.Rb[:])
	}
	for nu = 0; nu < len(obs) && obs[nu].Rcv == 1; nu++ {
	}
	for nr = 0; nu+nr < len(obs) && obs[nu+nr].Rcv == 2; nr++ {
	}
	if nu == 0 {
		rtk.errmsg("no rover observation data\n")
		return SOLQ_NONE
	}
	time := rtk.Tsol /* previous solution */

	/* a data gap resets the filter */
	if time.Time != 0 && opt.MaxTmDiff > 0.0 && math.Abs(TimeDiff(obs[0].Time, time)) > opt.MaxTmDiff {
		rtk.errmsg("data gap %.1f s, filter reset\n", TimeDiff(obs[0].Time, time))
		rtk.resetFilter()
	}
	/* dgps by rtcm 2 corrections without base station observables */
	if opt.Mode == PMODE_DGPS && nr == 0 {
		if rtk.dgpsPos(obs[:nu], nav, opt.MaxTmDiff, &msg) == 0 {
			rtk.errmsg("dgps error (%s)\n", msg)
			return SOLQ_NONE
		}
		if time.Time != 0 {
			rtk.Tt = TimeDiff(rtk.RtkSol.Time, time)
		}
		return SOLQ_DGPS
	}
	/* rover position by single point positioning */
	if PntPos(obs[:nu], nav, opt, &rtk.RtkSol, nil, rtk.Ssat[:], &msg) == 0 {
		rtk.errmsg("point pos error (%s)\n", msg)
		if opt.Dynamics == DYN_NONE || opt.Mode == PMODE_SINGLE {
			return SOLQ_NONE
		}
	}
	if time.Time != 0 {
		rtk.Tt = TimeDiff(rtk.RtkSol.Time, time)
	}
	if opt.Mode == PMODE_SINGLE {
		return SOLQ_SINGLE
	}
	if nr == 0 {
		rtk.errmsg("no base station observation data for rtk\n")
		if opt.OutSingle == 0 {
			return SOLQ_NONE
		}
		return SOLQ_SINGLE
	}
	rtk.RtkSol.Age = float32(TimeDiff(obs[0].Time, obs[nu].Time))
	if math.Abs(float64(rtk.RtkSol.Age)) > opt.MaxTmDiff {
		rtk.errmsg("age of differential error (age=%.1f)\n", rtk.RtkSol.Age)
		if opt.OutSingle == 0 {
			return SOLQ_NONE
		}
		return SOLQ_SINGLE
	}
	return rtk.RelativePos(obs, nu, nr, nav)
}
