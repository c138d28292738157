/*------------------------------------------------------------------------------
* rtkrcv_test.go : rtkrcv configuration and sink record tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*-----------------------------------------------------------------------------*/
package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gnssrtk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func Test_LoadConfig(t *testing.T) {
	assert := assert.New(t)

	cmdfile := writeFile(t, "base.cmd", "start1\nstart2\n@\nstop1\n@\nperiodic # 1000\n")
	path := writeFile(t, "rtkrcv.yaml", `
set:
  pos1-posmode: kinematic
  pos2-armode: fix-and-hold
server:
  cycle: 20
  nmeareq: latlon
  nmeapos: [35.0, 139.0, 50.0]
inputs:
  - {type: tcpcli, path: "localhost:2101", format: rtcm3}
  - {type: ntripcli, path: "user:pw@caster:2101/MNT", format: rtcm3, cmdfile: `+cmdfile+`}
outputs:
  - {type: file, path: /tmp/sol.pos, format: nmea}
sinks:
  clickhouse: {dsn: "clickhouse://localhost:9000/gnss", batch: 10}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(20, cfg.Server.Cycle)
	assert.Equal(32768, cfg.Server.BuffSize)
	assert.Equal("sol", cfg.Sinks.ClickHouse.Table)
	assert.Equal(10, cfg.Sinks.ClickHouse.Batch)

	svc, err := cfg.SvrConfig()
	require.NoError(t, err)
	assert.Equal(gnssrtk.PMODE_KINEMA, svc.PrcOpt.Mode)
	assert.Equal(gnssrtk.ARMODE_FIXHOLD, svc.PrcOpt.ModeAr)
	assert.Equal(gnssrtk.STR_TCPCLI, svc.StreamTypes[0])
	assert.Equal(gnssrtk.STR_NTRIPCLI, svc.StreamTypes[1])
	assert.Equal(gnssrtk.STR_NONE, svc.StreamTypes[2])
	assert.Equal(gnssrtk.STR_FILE, svc.StreamTypes[3])
	assert.Equal(gnssrtk.STRFMT_RTCM3, svc.Formats[1])
	assert.Equal(gnssrtk.SOLF_NMEA, svc.SolOpt[0].Posf)
	assert.Equal(1, svc.NmeaReq)
	assert.Equal("start1\nstart2\n", svc.Cmds[1])
	assert.Equal("periodic # 1000\n", svc.CmdsPeriodic[1])
	assert.Equal("stop1\n", cfg.StopCmds()[1])

	var pos [3]float64
	gnssrtk.Ecef2Pos(svc.NmeaPos[:], pos[:])
	assert.InDelta(35.0, pos[0]*gnssrtk.R2D, 1e-9)
	assert.InDelta(139.0, pos[1]*gnssrtk.R2D, 1e-9)
	assert.InDelta(50.0, pos[2], 1e-4)
}

/* shipped sample configuration */
func Test_SampleConfig(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Load(CONFFILE)
	require.NoError(t, err)
	assert.Equal(OPTSFILE, cfg.Options)
	assert.Equal(":9100", cfg.Metrics)
	assert.Equal("", cfg.Sinks.Influx.URL)

	cfg.Options = ""
	svc, err := cfg.SvrConfig()
	require.NoError(t, err)
	assert.Equal(gnssrtk.STR_SERIAL, svc.StreamTypes[0])
	assert.Equal("/dev/ttyUSB0:115200", svc.Paths[0])
	assert.Equal(gnssrtk.STR_NTRIPCLI, svc.StreamTypes[1])
	assert.Equal(gnssrtk.STR_TCPSVR, svc.StreamTypes[4])
	assert.Equal(":52001", svc.Paths[4])
	assert.Equal(gnssrtk.SOLF_LLH, svc.SolOpt[0].Posf)
	assert.Equal(gnssrtk.SOLF_NMEA, svc.SolOpt[1].Posf)
	assert.Equal(gnssrtk.PMODE_KINEMA, svc.PrcOpt.Mode)
	assert.Equal(10, svc.Cycle)
}

func Test_ConfigValidate(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		name string
		body string
	}{
		{"no inputs", "server: {cycle: 10}\n"},
		{"bad type", "inputs: [{type: ftp, path: x}]\n"},
		{"no path", "inputs: [{type: tcpcli}]\n"},
		{"bad format", "inputs: [{type: file, path: x, format: ubx}]\n"},
		{"bad cycle", "server: {cycle: 0}\ninputs: [{type: file, path: x}]\n"},
		{"bad nmeareq", "server: {nmeareq: always}\ninputs: [{type: file, path: x}]\n"},
		{"bad solbuf", "server: {solbuf: 1000}\ninputs: [{type: file, path: x}]\n"},
		{"bad output", "inputs: [{type: file, path: x}]\noutputs: [{type: file, path: y, format: kml}]\n"},
	}
	for _, c := range cases {
		_, err := Load(writeFile(t, "c.yaml", c.body))
		assert.Error(err, c.name)
	}
	cfg, err := Load(writeFile(t, "c.yaml", "inputs: [{type: membuf}]\n"))
	assert.NoError(err)
	assert.Len(cfg.Inputs, 1)
}

func Test_ConfigUnknownOption(t *testing.T) {
	cfg, err := Load(writeFile(t, "c.yaml", "set: {pos9-unknown: 1}\ninputs: [{type: membuf}]\n"))
	require.NoError(t, err)
	_, err = cfg.SvrConfig()
	assert.Error(t, err)
}

func Test_ReadCmd(t *testing.T) {
	assert := assert.New(t)

	path := writeFile(t, "rcv.cmd", "a\n@stop\nb\nc\n@periodic\nd # 500\n")
	for i, want := range []string{"a\n", "b\nc\n", "d # 500\n"} {
		s, err := readCmd(path, i)
		assert.NoError(err)
		assert.Equal(want, s)
	}
	_, err := readCmd(filepath.Join(t.TempDir(), "none.cmd"), 0)
	assert.Error(err)
}

func Test_SolRecord(t *testing.T) {
	assert := assert.New(t)

	var rb, pos, enu, rr [3]float64
	pos = [3]float64{35.0 * gnssrtk.D2R, 139.0 * gnssrtk.D2R, 10.0}
	gnssrtk.Pos2Ecef(pos[:], rb[:])

	/* rover 3 m east, 4 m north, 1 m up of base */
	enu = [3]float64{3.0, 4.0, 1.0}
	gnssrtk.Enu2Ecef(pos[:], enu[:], rr[:])

	rs := gnssrtk.RBSol{}
	copy(rs.Rb[:], rb[:])
	for i := 0; i < 3; i++ {
		rs.Sol.Rr[i] = rb[i] + rr[i]
		rs.Sol.Qr[i] = 0.0004
	}
	rs.Sol.Time = gnssrtk.Epoch2Time([]float64{2025, 3, 2, 12, 0, 18})
	rs.Sol.Stat = gnssrtk.SOLQ_FIX
	rs.Sol.Ns = 8
	rs.Sol.Ratio = 5.5

	rec := newSolRecord("s1", &rs)
	assert.Equal("s1", rec.Session)
	assert.Equal(int(gnssrtk.SOLQ_FIX), rec.Stat)
	assert.Equal(8, rec.Ns)
	assert.InDelta(3.0, rec.E, 1e-6)
	assert.InDelta(4.0, rec.N, 1e-6)
	assert.InDelta(1.0, rec.U, 1e-6)
	assert.InDelta(0.02, rec.SdE, 1e-6)
	assert.InDelta(0.02, rec.SdU, 1e-6)
	assert.InDelta(5.5, rec.Ratio, 1e-6)
	assert.InDelta(35.0, rec.Lat, 1e-4)
	/* gpst to utc: 18 leap seconds */
	assert.Equal(0, rec.Time.Second())
	assert.Equal(12, rec.Time.Hour())

	/* single solution has no baseline */
	rs.Rb = [6]float64{}
	rec = newSolRecord("s1", &rs)
	assert.Zero(rec.E)
	assert.Zero(rec.N)
}

type memSink struct {
	recs   []solRecord
	closed bool
}

func (s *memSink) Name() string { return "mem" }

func (s *memSink) Write(_ context.Context, rec *solRecord) error {
	s.recs = append(s.recs, *rec)
	return nil
}

func (s *memSink) Close(context.Context) error {
	s.closed = true
	return nil
}

func Test_DispatchSols(t *testing.T) {
	assert := assert.New(t)

	ch := make(chan gnssrtk.RBSol, 4)
	ch <- gnssrtk.RBSol{Sol: gnssrtk.Sol{Stat: gnssrtk.SOLQ_SINGLE}}
	ch <- gnssrtk.RBSol{Sol: gnssrtk.Sol{Stat: gnssrtk.SOLQ_NONE}}
	ch <- gnssrtk.RBSol{Sol: gnssrtk.Sol{Stat: gnssrtk.SOLQ_FLOAT}}
	close(ch)

	s := &memSink{}
	n := dispatchSols(ch, "s2", []sink{s}, zap.NewNop().Sugar())
	assert.Equal(2, n)
	assert.Len(s.recs, 2)
	assert.Equal(int(gnssrtk.SOLQ_FLOAT), s.recs[1].Stat)

	assert.NoError(closeSinks(context.Background(), []sink{s}))
	assert.True(s.closed)
}

func Test_OpenSinksNone(t *testing.T) {
	sinks, err := openSinks(context.Background(), SinksConfig{})
	assert.NoError(t, err)
	assert.Empty(t, sinks)
}
