/*------------------------------------------------------------------------------
* sattrack.go : satellite tracking state, cycle slip detection and ambiguity
*               control
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  split from rtkpos.go, wide-lane running average
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"math"
)

// SatTracker keeps the per-satellite tracking state of a rover/base pair.
type SatTracker struct {
	Ssat [MAXSAT]SSat /* satellite status */
	Ambc [MAXSAT]AmbC /* ambiguity control */
}

// GeometryFree returns the L1-Lk geometry-free phase combination (m) of an
// observation (0: not available).
func GeometryFree(obs *ObsD, k int, nav *Nav) float64 {
	freq1 := Sat2Freq(obs.Sat, obs.Code[0], nav)
	freqk := Sat2Freq(obs.Sat, obs.Code[k], nav)
	if freq1 == 0.0 || freqk == 0.0 || obs.L[0] == 0.0 || obs.L[k] == 0.0 {
		return 0.0
	}
	return obs.L[0]*CLIGHT/freq1 - obs.L[k]*CLIGHT/freqk
}

// WideLane returns the L1-Lk Melbourne-Wubbena combination (cycle) of an
// observation (0: not available).
func WideLane(obs *ObsD, k int, nav *Nav) float64 {
	freq1 := Sat2Freq(obs.Sat, obs.Code[0], nav)
	freqk := Sat2Freq(obs.Sat, obs.Code[k], nav)
	if freq1 == 0.0 || freqk == 0.0 || obs.L[0] == 0.0 || obs.L[k] == 0.0 ||
		obs.P[0] == 0.0 || obs.P[k] == 0.0 {
		return 0.0
	}
	lam_wl := CLIGHT / (freq1 - freqk)
	return (obs.L[0] - obs.L[k]) - (freq1*obs.P[0]+freqk*obs.P[k])/(freq1+freqk)/lam_wl
}

/* single-differenced combination of rover i and base j ----------------------*/
func sdComb(obs []ObsD, i, j, k int, nav *Nav, comb func(*ObsD, int, *Nav) float64) float64 {
	ci := comb(&obs[i], k, nav)
	cj := comb(&obs[j], k, nav)
	if ci == 0.0 || cj == 0.0 {
		return 0.0
	}
	return ci - cj
}

/* detect cycle slip by LLI ----------------------------------------------------
* args   : []ObsD  obs      I   observation data
*          int     i        I   index of obs
*          int     rcv      I   receiver (1:rover,2:base)
*          int     nf       I   number of frequencies
*          float64 tt       I   time difference to previous epoch (<0: backward)
* return : true if a slip is flagged on any frequency
*-----------------------------------------------------------------------------*/
func (st *SatTracker) DetectSlipLLI(obs []ObsD, i, rcv, nf int, tt float64) bool {
	var slip uint8
	sat := obs[i].Sat
	ss := &st.Ssat[sat-1]
	found := false

	for f := 0; f < nf; f++ {
		if obs[i].L[f] == 0.0 || math.Abs(TimeDiff(obs[i].Time, ss.Pt[rcv-1][f])) < DTTOL {
			continue
		}
		LLI := ss.LLI[rcv-1][f]

		if tt >= 0.0 { /* forward */
			slip = obs[i].LLI[f] & LLI_SLIP
		} else { /* backward */
			slip = LLI & LLI_SLIP
		}
		/* half-cycle ambiguity resolved or lost */
		if (LLI&LLI_HALFC != 0) != (obs[i].LLI[f]&LLI_HALFC != 0) {
			slip |= LLI_SLIP
		}
		if slip != 0 {
			Trace(3, "slip detected by LLI (sat=%2d rcv=%d F=%d LLI=%x.%x)\n",
				sat, rcv, f+1, LLI, obs[i].LLI[f])
			found = true
		}
		ss.LLI[rcv-1][f] = obs[i].LLI[f]
		ss.Slip[f] |= slip
		ss.Half[f] = 1
		if obs[i].LLI[f]&LLI_HALFC != 0 {
			ss.Half[f] = 0
		}
	}
	return found
}

/* detect cycle slip by geometry-free phase jump -------------------------------
* the single-differenced geometry free phase of rover i and base j is compared
* with the value of the previous epoch (thres: jump threshold (m))
*-----------------------------------------------------------------------------*/
func (st *SatTracker) DetectSlipGF(obs []ObsD, i, j, nf int, thres float64, nav *Nav) bool {
	sat := obs[i].Sat
	ss := &st.Ssat[sat-1]
	found := false

	for k := 1; k < nf; k++ {
		g1 := sdComb(obs, i, j, k, nav, GeometryFree)
		if g1 == 0.0 {
			return found
		}
		g0 := ss.Gf[k-1]
		ss.Gf[k-1] = g1

		if g0 != 0.0 && math.Abs(g1-g0) > thres {
			ss.Slip[0] |= LLI_SLIP
			ss.Slip[k] |= LLI_SLIP
			Trace(3, "slip detected by GF jump (sat=%2d L1-L%d GF=%.3f %.3f)\n", sat, k+1, g0, g1)
			found = true
		}
	}
	return found
}

// UpdateAmbControl adds the single-differenced wide-lane of rover i and base
// j to the running mean and variance of the satellite.
func (st *SatTracker) UpdateAmbControl(obs []ObsD, i, j, nf int, nav *Nav) {
	sat := obs[i].Sat
	amb := &st.Ambc[sat-1]

	for k := 1; k < nf; k++ {
		mw := sdComb(obs, i, j, k, nav, WideLane)
		if mw == 0.0 {
			continue
		}
		st.Ssat[sat-1].Mw[k-1] = mw
		amb.N[k-1]++
		n := float64(amb.N[k-1])
		d := mw - amb.LC[k-1]
		amb.LC[k-1] += d / n
		amb.LCv[k-1] += (d*(mw-amb.LC[k-1]) - amb.LCv[k-1]) / n
		amb.Epoch[k-1] = obs[i].Time
	}
}

// ResetAmbControl clears the lock and the wide-lane average of frequency f
// after a slip or an outage.
func (st *SatTracker) ResetAmbControl(sat, f int) {
	st.Ssat[sat-1].Lock[f] = 0
	st.Ssat[sat-1].Fix[f] = 0
	amb := &st.Ambc[sat-1]
	amb.FixCnt = 0
	for k := range amb.N {
		if f == 0 || k == f-1 {
			amb.N[k], amb.LC[k], amb.LCv[k] = 0, 0.0, 0.0
			amb.Epoch[k] = Gtime{}
		}
	}
}

// ResetTracker clears the tracking state of all satellites.
func (st *SatTracker) ResetTracker() {
	*st = SatTracker{}
}
