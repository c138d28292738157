/*------------------------------------------------------------------------------
* obsync.go : observation epoch synchronization of rover and base station
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  bounded queues per stream, stale base flagged
*           2025/03/06 1.2  rover epoch waits for a lagging base stream
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"math"
	"sort"
)

// EpochSet is a rover epoch paired with the base station epoch used for it.
type EpochSet struct {
	Rover Obs     /* rover observations (Rcv=1) */
	Base  Obs     /* base station observations (Rcv=2), empty if absent */
	Age   float64 /* rover time - base time (s) */
	Stale bool    /* base epoch not aligned with rover */
}

// Obs returns the rover and base observations as one slice sorted by
// receiver and satellite.
func (set *EpochSet) Obs() []ObsD {
	data := make([]ObsD, 0, set.Rover.N()+set.Base.N())
	data = append(data, set.Rover.Data...)
	return append(data, set.Base.Data...)
}

// ObsSync queues decoded epochs of the input streams (0:rover,1:base,
// 2:correction) and pairs rover epochs with base epochs.
type ObsSync struct {
	MaxTmDiff float64   /* max age of a reused base epoch (s) */
	queue     [2][]Obs  /* rover/base epoch queues */
	held      *Obs      /* last consumed base epoch */
	retry     *EpochSet /* epoch set put back by Requeue */
	last      [3]Gtime  /* time of last accepted epoch per stream */
	Accepted  [3]uint32 /* accepted epochs per stream */
	Dropped   [3]uint32 /* epochs dropped by time inversion per stream */
	Overflow  [3]uint32 /* epochs dropped by queue overflow per stream */
}

func NewObsSync(maxtmdiff float64) *ObsSync {
	return &ObsSync{MaxTmDiff: maxtmdiff}
}

// SortObs sorts observation data by receiver and satellite.
func (obs *Obs) SortObs() {
	sort.SliceStable(obs.Data, func(i, j int) bool {
		if obs.Data[i].Rcv != obs.Data[j].Rcv {
			return obs.Data[i].Rcv < obs.Data[j].Rcv
		}
		return obs.Data[i].Sat < obs.Data[j].Sat
	})
}

/* push an epoch ---------------------------------------------------------------
* args   : int    idx       I   stream index (0:rover,1:base,2:correction)
*          *Obs   obs       I   observation epoch (copied)
* return : true if accepted
* notes  : epochs must be strictly increasing per stream. epochs of the
*          correction stream are counted but not paired.
*-----------------------------------------------------------------------------*/
func (s *ObsSync) Push(idx int, obs *Obs) bool {
	if idx < 0 || idx > 2 || obs == nil || obs.N() == 0 {
		return false
	}
	time := obs.Data[0].Time
	if s.last[idx].Time != 0 && TimeDiff(time, s.last[idx]) <= 0.0 {
		Trace(2, "obs time inversion dropped: stream=%d time=%s last=%s\n", idx,
			TimeStr(time, 3), TimeStr(s.last[idx], 3))
		s.Dropped[idx]++
		return false
	}
	s.last[idx] = time
	s.Accepted[idx]++
	if idx == 2 {
		return true
	}
	epoch := Obs{Data: make([]ObsD, 0, obs.N())}
	for i := range obs.Data {
		if len(epoch.Data) >= MAXOBS {
			break
		}
		d := obs.Data[i]
		d.Rcv = idx + 1
		epoch.Data = append(epoch.Data, d)
	}
	epoch.SortObs()

	if len(s.queue[idx]) >= MAXOBSBUF {
		Trace(2, "obs queue overflow: stream=%d\n", idx)
		s.queue[idx] = s.queue[idx][1:]
		s.Overflow[idx]++
	}
	s.queue[idx] = append(s.queue[idx], epoch)
	return true
}

// Pending returns the number of queued rover and base epochs.
func (s *ObsSync) Pending() (int, int) {
	nr := len(s.queue[0])
	if s.retry != nil {
		nr++
	}
	return nr, len(s.queue[1])
}

// Requeue puts back an epoch set that could not be processed. The next
// Ready returns it again.
func (s *ObsSync) Requeue(set *EpochSet) {
	retry := *set
	s.retry = &retry
}

/* next epoch set ------------------------------------------------------------
* return : epoch set and true if a rover epoch is ready
* notes  : base epochs older than the rover are consumed and held, a base
*          epoch within DTTOL is paired. the rover epoch waits while the
*          newest base epoch lags it by no more than MaxTmDiff. otherwise,
*          or once the base stream passed the rover time, the held base is
*          reused (stale) if its age is within MaxTmDiff. a rover epoch
*          before any base epoch or with a full rover queue never waits.
*-----------------------------------------------------------------------------*/
func (s *ObsSync) Ready() (EpochSet, bool) {
	var set EpochSet
	if s.retry != nil {
		set, s.retry = *s.retry, nil
		return set, true
	}
	if len(s.queue[0]) == 0 {
		return set, false
	}
	set.Rover = s.queue[0][0]
	time := set.Rover.Data[0].Time

	for len(s.queue[1]) > 0 {
		base := s.queue[1][0]
		dt := TimeDiff(time, base.Data[0].Time)
		if dt < -DTTOL { /* base leads rover */
			break
		}
		s.held = &base
		s.queue[1] = s.queue[1][1:]
		if math.Abs(dt) <= DTTOL {
			s.queue[0] = s.queue[0][1:]
			set.Base = *s.held
			set.Age = dt
			return set, true
		}
	}
	if len(s.queue[1]) == 0 && s.waitBase(time) {
		return EpochSet{}, false
	}
	s.queue[0] = s.queue[0][1:]
	set.Stale = true
	if s.held == nil {
		return set, true
	}
	age := TimeDiff(time, s.held.Data[0].Time)
	if math.Abs(age) <= s.MaxTmDiff {
		set.Base = *s.held
		set.Age = age
	}
	return set, true
}

/* the base epoch of the rover time may still arrive ------------------------*/
func (s *ObsSync) waitBase(time Gtime) bool {
	if s.last[1].Time == 0 || len(s.queue[0]) >= MAXOBSBUF {
		return false
	}
	lag := TimeDiff(time, s.last[1])
	return lag > DTTOL && lag <= s.MaxTmDiff
}

// Held returns the last consumed base epoch (nil if none).
func (s *ObsSync) Held() *Obs { return s.held }
