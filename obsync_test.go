/*------------------------------------------------------------------------------
* obsync_test.go : rover/base epoch synchronization tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2025/03/04 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk_test

import (
	"testing"

	"gnssrtk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkEpoch(t gnssrtk.Gtime, sats ...int) *gnssrtk.Obs {
	obs := &gnssrtk.Obs{}
	for _, sat := range sats {
		obs.Data = append(obs.Data, gnssrtk.ObsD{Time: t, Sat: sat})
	}
	return obs
}

func Test_ObsSyncPair(t *testing.T) {
	assert := assert.New(t)
	t0 := gnssrtk.GpsT2Time(simWeek, simTow)
	s := gnssrtk.NewObsSync(30.0)

	assert.False(s.Push(3, mkEpoch(t0, 1)))
	assert.False(s.Push(0, nil))
	assert.False(s.Push(0, mkEpoch(t0)))

	_, ok := s.Ready()
	assert.False(ok)

	assert.True(s.Push(0, mkEpoch(t0, 9, 2, 5)))
	assert.True(s.Push(1, mkEpoch(t0, 5, 2)))
	set, ok := s.Ready()
	require.True(t, ok)
	assert.False(set.Stale)
	assert.Zero(set.Age)
	require.Equal(t, 3, set.Rover.N())
	require.Equal(t, 2, set.Base.N())

	obs := set.Obs()
	assert.Len(obs, 5)
	for i, want := range []struct{ rcv, sat int }{{1, 2}, {1, 5}, {1, 9}, {2, 2}, {2, 5}} {
		assert.Equal(want.rcv, obs[i].Rcv)
		assert.Equal(want.sat, obs[i].Sat)
	}
	/* base epoch within the time tolerance */
	t1 := gnssrtk.TimeAdd(t0, 1.0)
	assert.True(s.Push(1, mkEpoch(gnssrtk.TimeAdd(t1, 0.003), 2)))
	assert.True(s.Push(0, mkEpoch(t1, 2)))
	set, _ = s.Ready()
	assert.False(set.Stale)
	assert.InDelta(-0.003, set.Age, 1e-9)

	/* correction stream is counted only */
	assert.True(s.Push(2, mkEpoch(t0, 1)))
	assert.Equal(uint32(1), s.Accepted[2])
	r, b := s.Pending()
	assert.Zero(r)
	assert.Zero(b)
}

func Test_ObsSyncStale(t *testing.T) {
	assert := assert.New(t)
	t0 := gnssrtk.GpsT2Time(simWeek, simTow)
	s := gnssrtk.NewObsSync(30.0)

	/* no base yet */
	s.Push(0, mkEpoch(t0, 1))
	set, ok := s.Ready()
	assert.True(ok)
	assert.True(set.Stale)
	assert.Zero(set.Base.N())
	assert.Nil(s.Held())

	/* base lagging the rover within the max age: the rover waits */
	s.Push(1, mkEpoch(t0, 1))
	s.Push(0, mkEpoch(gnssrtk.TimeAdd(t0, 10.0), 1))
	_, ok = s.Ready()
	assert.False(ok)
	assert.NotNil(s.Held())
	nr, _ := s.Pending()
	assert.Equal(1, nr)

	/* base stream passed the rover time: held base reused */
	s.Push(1, mkEpoch(gnssrtk.TimeAdd(t0, 15.0), 1))
	set, ok = s.Ready()
	require.True(t, ok)
	assert.True(set.Stale)
	assert.Equal(1, set.Base.N())
	assert.InDelta(10.0, set.Age, 1e-9)

	s.Push(0, mkEpoch(gnssrtk.TimeAdd(t0, 20.0), 1))
	_, ok = s.Ready()
	assert.False(ok)
	s.Push(1, mkEpoch(gnssrtk.TimeAdd(t0, 25.0), 1))
	set, _ = s.Ready()
	assert.True(set.Stale)
	assert.InDelta(5.0, set.Age, 1e-9)

	/* lag beyond the max age: no wait, held base too old */
	s.Push(0, mkEpoch(gnssrtk.TimeAdd(t0, 60.0), 1))
	set, ok = s.Ready()
	require.True(t, ok)
	assert.True(set.Stale)
	assert.Zero(set.Base.N())

	/* base leading the rover stays queued */
	s.Push(1, mkEpoch(gnssrtk.TimeAdd(t0, 100.0), 1))
	s.Push(0, mkEpoch(gnssrtk.TimeAdd(t0, 70.0), 1))
	set, ok = s.Ready()
	require.True(t, ok)
	assert.Zero(set.Base.N())
	_, nb := s.Pending()
	assert.Equal(1, nb)

	s.Push(0, mkEpoch(gnssrtk.TimeAdd(t0, 100.0), 1))
	set, _ = s.Ready()
	assert.False(set.Stale)
	assert.Equal(1, set.Base.N())
}

/* base epochs arriving one cycle after the rover epoch of the same time */
func Test_ObsSyncBaseLate(t *testing.T) {
	assert := assert.New(t)
	t0 := gnssrtk.GpsT2Time(simWeek, simTow)
	s := gnssrtk.NewObsSync(30.0)

	s.Push(1, mkEpoch(gnssrtk.TimeAdd(t0, -1.0), 1, 2))
	aligned := 0
	for i := 0; i < 5; i++ {
		ti := gnssrtk.TimeAdd(t0, float64(i))
		require.True(t, s.Push(0, mkEpoch(ti, 1, 2)))
		_, ok := s.Ready()
		assert.False(ok)

		require.True(t, s.Push(1, mkEpoch(ti, 1, 2)))
		set, ok := s.Ready()
		require.True(t, ok)
		if !set.Stale && set.Base.N() == 2 && set.Age == 0.0 {
			aligned++
		}
		_, ok = s.Ready()
		assert.False(ok)
	}
	assert.Equal(5, aligned)

	/* a full rover queue does not wait */
	s = gnssrtk.NewObsSync(1000.0)
	s.Push(1, mkEpoch(t0, 1))
	for i := 1; i <= gnssrtk.MAXOBSBUF; i++ {
		s.Push(0, mkEpoch(gnssrtk.TimeAdd(t0, float64(i)), 1))
	}
	set, ok := s.Ready()
	require.True(t, ok)
	assert.True(set.Stale)
	assert.InDelta(1.0, set.Age, 1e-9)
	_, ok = s.Ready()
	assert.False(ok)
}

func Test_ObsSyncRequeue(t *testing.T) {
	assert := assert.New(t)
	t0 := gnssrtk.GpsT2Time(simWeek, simTow)
	s := gnssrtk.NewObsSync(30.0)

	s.Push(0, mkEpoch(t0, 1, 2))
	s.Push(1, mkEpoch(t0, 1, 2))
	s.Push(0, mkEpoch(gnssrtk.TimeAdd(t0, 1.0), 1))
	s.Push(1, mkEpoch(gnssrtk.TimeAdd(t0, 1.0), 1))
	set, ok := s.Ready()
	require.True(t, ok)

	/* the set put back comes first, unchanged */
	s.Requeue(&set)
	nr, _ := s.Pending()
	assert.Equal(2, nr)
	again, ok := s.Ready()
	require.True(t, ok)
	assert.Equal(set, again)

	next, ok := s.Ready()
	require.True(t, ok)
	assert.InDelta(1.0, gnssrtk.TimeDiff(next.Rover.Data[0].Time, t0), 1e-9)
	assert.False(next.Stale)
	_, ok = s.Ready()
	assert.False(ok)
}

func Test_ObsSyncOrder(t *testing.T) {
	assert := assert.New(t)
	t0 := gnssrtk.GpsT2Time(simWeek, simTow)
	s := gnssrtk.NewObsSync(30.0)

	assert.True(s.Push(0, mkEpoch(t0, 1)))
	assert.False(s.Push(0, mkEpoch(t0, 1)))
	assert.False(s.Push(0, mkEpoch(gnssrtk.TimeAdd(t0, -1.0), 1)))
	assert.Equal(uint32(2), s.Dropped[0])
	assert.Equal(uint32(1), s.Accepted[0])

	/* bounded queue drops the oldest epoch */
	for i := 1; i <= gnssrtk.MAXOBSBUF; i++ {
		assert.True(s.Push(0, mkEpoch(gnssrtk.TimeAdd(t0, float64(i)), 1)))
	}
	nr, _ := s.Pending()
	assert.Equal(gnssrtk.MAXOBSBUF, nr)
	assert.Equal(uint32(1), s.Overflow[0])
	set, _ := s.Ready()
	assert.InDelta(1.0, gnssrtk.TimeDiff(set.Rover.Data[0].Time, t0), 1e-9)

	/* satellites beyond MAXOBS are cut */
	sats := make([]int, gnssrtk.MAXOBS+4)
	for i := range sats {
		sats[i] = i + 1
	}
	s.Push(1, mkEpoch(gnssrtk.TimeAdd(t0, 2.0), sats...))
	set, _ = s.Ready()
	assert.Equal(gnssrtk.MAXOBS, set.Base.N())
}
