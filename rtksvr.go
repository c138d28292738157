/*------------------------------------------------------------------------------
* rtksvr.go : rtk server functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  context aware start/stop, observation synchronizer,
*                           bounded lock acquisition per cycle, solution
*                           channel and statistics snapshot
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	MIN_INT_RESET = 30000 /* mininum interval of reset command (ms) */
	SOLCHAN_SIZE  = 16    /* size of solution channel */
)

var ErrSvrStarted = errors.New("server already started")

// RBSol is a solution with the base position it was computed against.
type RBSol struct {
	Rb  [6]float64
	Sol Sol
}

// RtkSvrConfig holds the start parameters of a server.
type RtkSvrConfig struct {
	Cycle        int               /* server cycle (ms) */
	BuffSize     int               /* input buffer size (bytes) */
	StreamTypes  [MAXSTRRTK]int    /* stream types (STR_???) 0-2:input,3-4:solution,5-7:log */
	Paths        [MAXSTRRTK]string /* stream paths */
	Formats      [3]int            /* input stream formats (STRFMT_???) */
	RawDecoders  [3]Decoder        /* decoders of STRFMT_RAW inputs */
	NavSel       int               /* navigation message select (0:all,1:rover,2:base,3:corr) */
	Cmds         [3]string         /* input stream start commands */
	CmdsPeriodic [3]string         /* input stream periodic commands (cmd # period) */
	RcvOpts      [3]string         /* receiver/rtcm options */
	NmeaCycle    int               /* nmea request cycle (ms) (0:no request) */
	NmeaReq      int               /* nmea request type (0:no,1:nmeapos,2:single sol,3:reset and single) */
	NmeaPos      [3]float64        /* transmitted nmea position (ecef) (m) */
	CmdReset     string            /* reset command for nmeareq=3 */
	BaseLenReset float64           /* baseline length to reset (km) */
	SolBufSize   int               /* solution buffer size (0:MAXSOLBUF) */
	PrcOpt       PrcOpt            /* processing options */
	SolOpt       [2]SolOpt         /* solution options of output streams */
}

// StreamSum is the byte statistics of one stream.
type StreamSum struct {
	State             int
	InBytes, InRate   uint32
	OutBytes, OutRate uint32
}

// RtkSvrStats is a snapshot of the server counters.
type RtkSvrStats struct {
	State    int                  /* server state (0:stop,1:running) */
	Cycles   uint64               /* processed cycles */
	Overruns uint64               /* cycles with cputime > cycle */
	PrcOut   uint64               /* epochs dropped by overload */
	CpuTime  int                  /* cpu time of last cycle (ms) */
	Stale    uint64               /* epochs processed without aligned base */
	NAve     int                  /* number of averaged base positions */
	Sols     [SOLQ_DR + 1]uint64  /* solutions by quality */
	InputMsg [3][10]uint32        /* messages {obs,nav,ion,sbs,pos,dgps,gnav,ssr,err} */
	CrcErr   [3]uint32            /* crc/parity failures by input */
	Resync   [3]uint32            /* bytes dropped to resync by input */
	Accepted [3]uint32            /* epochs accepted by the synchronizer */
	Dropped  [3]uint32            /* epochs dropped by time inversion */
	Overflow [3]uint32            /* epochs dropped by queue overflow */
	Sol      Sol                  /* last solution */
	Rb       [6]float64           /* base position of last solution */
	Streams  [MAXSTRRTK]StreamSum /* stream statistics */
}

type ephPending struct{ index, sat int }

// RtkSvr is the real-time rtk server. One worker goroutine reads the input
// streams, decodes, positions and writes the outputs.
type RtkSvr struct {
	state     atomic.Int32       /* server state (0:stop,1:running) */
	cycle     int                /* server cycle (ms) */
	nmeaCycle int                /* nmea request cycle (ms) */
	nmeaReq   int                /* nmea request type */
	nmeaPos   [3]float64         /* nmea request position (ecef) (m) */
	buffSize  int                /* input buffer size (bytes) */
	format    [3]int             /* input format (STRFMT_???) */
	navSel    int                /* ephemeris select */
	solopt    [2]SolOpt          /* solution options */
	cmdsPer   [3]string          /* periodic commands */
	cmdReset  string             /* reset command */
	blReset   float64            /* baseline length to reset (km) */
	Rtk       *Rtk               /* rtk control, owned by the worker */
	Nav       *NavStore          /* navigation data */
	Stream    [MAXSTRRTK]Stream  /* streams */
	dec       [3]Decoder         /* input decoders */
	obsSync   *ObsSync           /* epoch synchronizer */
	buff      [3][]byte          /* input buffers */
	pending   []ephPending       /* ephemerides not yet merged into Nav */
	baseSol   *SolBuf            /* single solutions of base for averaging */
	solBuf    *SolBuf            /* solution buffer */
	solPend   []Sol              /* solutions not yet added to solBuf */
	solLock   sync.Mutex         /* lock of solution buffer and stats */
	stats     RtkSvrStats        /* counters */
	solChan   chan RBSol         /* solution channel */
	cancel    context.CancelFunc /* worker context cancel */
	wg        sync.WaitGroup     /* worker */
}

// NewRtkSvr returns a stopped server.
func NewRtkSvr() *RtkSvr {
	opt := DefaultProcOpt()
	svr := &RtkSvr{Rtk: NewRtk(&opt), Nav: NewNavStore(), blReset: 10.0}
	svr.solBuf, _ = NewSolBuf(MAXSOLBUF)
	svr.baseSol, _ = NewSolBuf(MAXSOLBUF)
	for i := range svr.solopt {
		svr.solopt[i] = DefaultSolOpt()
	}
	return svr
}

// Running reports whether the worker is running.
func (svr *RtkSvr) Running() bool { return svr.state.Load() > 0 }

// Sols returns the channel receiving every solution (nil before start). A
// full channel drops solutions. It is closed when the worker exits.
func (svr *RtkSvr) Sols() <-chan RBSol { return svr.solChan }

/* start rtk server ------------------------------------------------------------
* open streams and start the worker
* args   : context.Context ctx  I  worker context (cancel stops the worker)
*          *RtkSvrConfig cfg    I  server configuration
* return : error
*-----------------------------------------------------------------------------*/
func (svr *RtkSvr) RtkSvrStart(ctx context.Context, cfg *RtkSvrConfig) error {
	Tracet(3, "rtksvrstart: cycle=%d buffsize=%d navsel=%d nmeacycle=%d nmeareq=%d\n",
		cfg.Cycle, cfg.BuffSize, cfg.NavSel, cfg.NmeaCycle, cfg.NmeaReq)

	if svr.Running() {
		return ErrSvrStarted
	}
	if svr.cancel != nil { /* worker ended by its context */
		svr.RtkSvrStop([3]string{})
	}
	svr.cycle = max(cfg.Cycle, 1)
	svr.nmeaCycle = max(cfg.NmeaCycle, 1000)
	svr.nmeaReq = cfg.NmeaReq
	svr.nmeaPos = cfg.NmeaPos
	svr.buffSize = max(cfg.BuffSize, 4096)
	svr.format = cfg.Formats
	svr.navSel = cfg.NavSel
	svr.cmdsPer = cfg.CmdsPeriodic
	svr.cmdReset = cfg.CmdReset
	if cfg.BaseLenReset > 0.0 {
		svr.blReset = cfg.BaseLenReset
	}
	svr.solopt = cfg.SolOpt

	size := cfg.SolBufSize
	if size <= 0 {
		size = MAXSOLBUF
	}
	solbuf, err := NewSolBuf(size)
	if err != nil {
		return err
	}
	prcopt := cfg.PrcOpt
	svr.Rtk.FreeRtk()
	svr.Rtk.InitRtk(&prcopt)
	if prcopt.InitRst > 0 || prcopt.RefPos != POSOPT_SINGLE { /* init averaging pos by restart */
		svr.baseSol.Clear()
	}
	if prcopt.RefPos != POSOPT_SINGLE {
		copy(svr.Rtk.Rb[:3], prcopt.Rb[:])
	}
	svr.obsSync = NewObsSync(prcopt.MaxTmDiff)
	svr.pending = nil

	for i := 0; i < 3; i++ {
		svr.buff[i] = make([]byte, svr.buffSize)
		switch cfg.Formats[i] {
		case STRFMT_RTCM2, STRFMT_RTCM3:
			rtcm := NewRtcm(cfg.Formats[i], cfg.RcvOpts[i])
			if cfg.StreamTypes[i] != STR_FILE {
				rtcm.Time = Utc2GpsT(TimeGet())
			}
			svr.dec[i] = rtcm
		case STRFMT_RAW:
			if cfg.RawDecoders[i] == nil && cfg.StreamTypes[i] != STR_NONE {
				return errors.Errorf("str%d no raw decoder", i+1)
			}
			svr.dec[i] = cfg.RawDecoders[i]
		default:
			return errors.Errorf("str%d invalid format %d", i+1, cfg.Formats[i])
		}
	}
	/* open streams */
	for i := 0; i < MAXSTRRTK; i++ {
		rw := STR_MODE_W
		if i < 3 {
			rw = STR_MODE_R
			if cfg.StreamTypes[i] != STR_FILE {
				rw |= STR_MODE_W
			}
		}
		if svr.Stream[i].OpenStream(cfg.StreamTypes[i], rw, cfg.Paths[i]) == 0 {
			for j := i - 1; j >= 0; j-- {
				svr.Stream[j].StreamClose()
			}
			return errors.Errorf("str%d open error path=%s", i+1, cfg.Paths[i])
		}
	}
	/* write start commands to input streams */
	for i := 0; i < 3; i++ {
		if len(cfg.Cmds[i]) > 0 {
			svr.Stream[i].StreamSendCmd(cfg.Cmds[i])
		}
	}
	/* write solution header to solution streams */
	for i := 3; i < 5; i++ {
		if head := OutSolHead(&svr.solopt[i-3]); len(head) > 0 {
			svr.Stream[i].StreamWrite([]byte(head))
		}
	}
	svr.solLock.Lock()
	svr.solBuf = solbuf
	svr.solPend = nil
	svr.stats = RtkSvrStats{NAve: svr.baseSol.N()}
	svr.solLock.Unlock()

	ctx, svr.cancel = context.WithCancel(ctx)
	svr.solChan = make(chan RBSol, SOLCHAN_SIZE)
	svr.state.Store(1)
	svr.wg.Add(1)
	go svr.rtksvrthread(ctx)
	return nil
}

/* stop rtk server -------------------------------------------------------------
* args   : [3]string cmds   I  input stream stop commands ("": no command)
* notes  : the worker closes all streams before it exits. stop also waits
*          for a worker ended by its context
*-----------------------------------------------------------------------------*/
func (svr *RtkSvr) RtkSvrStop(cmds [3]string) {
	Tracet(3, "rtksvrstop:\n")

	if svr.cancel == nil {
		return
	}
	for i := 0; i < 3 && svr.Running(); i++ {
		if len(cmds[i]) > 0 {
			svr.Stream[i].StreamSendCmd(cmds[i])
		}
	}
	svr.state.Store(0)
	svr.cancel()
	svr.wg.Wait()
	svr.cancel = nil
}

/* rtk server thread ---------------------------------------------------------*/
func (svr *RtkSvr) rtksvrthread(ctx context.Context) {
	var tick1hz, ticknmea, tickreset int64

	Tracet(3, "rtksvrthread:\n")
	defer svr.wg.Done()

	tick0 := TickGet()
	tick1hz, ticknmea = tick0-1000, tick0-1000
	tickreset = tick0 - MIN_INT_RESET

	for cycle := 0; svr.state.Load() > 0; cycle++ {
		select {
		case <-ctx.Done():
			svr.state.Store(0)
			continue
		default:
		}
		tick := TickGet()

		for i := 0; i < 3; i++ {
			/* read receiver raw/rtcm data from input stream */
			n := svr.Stream[i].StreamRead(svr.buff[i])
			if n <= 0 {
				continue
			}
			/* write receiver raw/rtcm data to log stream */
			svr.Stream[i+5].StreamWrite(svr.buff[i][:n])

			/* decode receiver raw/rtcm data */
			svr.decodeRaw(i, svr.buff[i][:n])
		}
		svr.mergeEph()

		/* rtk positioning for each synchronized epoch */
		for {
			set, ok := svr.obsSync.Ready()
			if !ok {
				break
			}
			if TickGet()-tick >= int64(svr.cycle) {
				svr.solLock.Lock()
				svr.stats.PrcOut++
				svr.solLock.Unlock()
				continue
			}
			if !svr.processEpoch(&set, tick) {
				svr.obsSync.Requeue(&set) /* retried next cycle */
				break
			}
		}
		/* send null solution if no solution (1hz) */
		if svr.Rtk.RtkSol.Stat == SOLQ_NONE && tick-tick1hz >= 1000 {
			svr.writeSol()
			tick1hz = tick
		}
		/* write periodic command to input stream */
		for i := 0; i < 3; i++ {
			periodicCmd(cycle*svr.cycle, svr.cmdsPer[i], &svr.Stream[i])
		}
		/* send nmea request to base/nrtk input stream */
		if svr.nmeaReq > 0 && tick-ticknmea >= int64(svr.nmeaCycle) {
			svr.sendNmea(&tickreset)
			ticknmea = tick
		}
		cputime := int(TickGet() - tick)

		svr.solLock.Lock()
		svr.stats.Cycles++
		svr.stats.CpuTime = cputime
		if cputime > svr.cycle {
			svr.stats.Overruns++
		}
		svr.stats.Accepted = svr.obsSync.Accepted
		svr.stats.Dropped = svr.obsSync.Dropped
		svr.stats.Overflow = svr.obsSync.Overflow
		svr.solLock.Unlock()

		/* sleep until next cycle */
		Sleepms(svr.cycle - cputime)
	}
	for i := 0; i < MAXSTRRTK; i++ {
		svr.Stream[i].StreamClose()
	}
	close(svr.solChan)
}

/* decode receiver raw/rtcm data ---------------------------------------------*/
func (svr *RtkSvr) decodeRaw(index int, buff []byte) {
	dec := svr.dec[index]
	if dec == nil {
		return
	}
	Tracet(4, "decoderaw: index=%d n=%d\n", index, len(buff))

	DecodeBytes(dec, buff, func(ret int) { svr.updateSvr(ret, index) })

	if e, ok := dec.(interface{ Errors() (uint32, uint32) }); ok {
		crc, resync := e.Errors()
		svr.solLock.Lock()
		svr.stats.CrcErr[index], svr.stats.Resync[index] = crc, resync
		svr.solLock.Unlock()
	}
}

/* update rtk server struct --------------------------------------------------*/
func (svr *RtkSvr) updateSvr(ret, index int) {
	Tracet(4, "updatesvr: ret=%d index=%d\n", ret, index)

	var k int
	switch ret {
	case DEC_OBS: /* observation data */
		svr.updateObs(svr.dec[index].ObsData(), index)
		k = 0
	case DEC_EPH: /* ephemeris */
		sat := svr.dec[index].EphSat()
		if svr.navSel == 0 || svr.navSel == index+1 {
			svr.pending = append(svr.pending, ephPending{index, sat})
		}
		k = 1
		if SatSys(sat, nil) == SYS_GLO {
			k = 6
		}
	case DEC_ION: /* ion/utc parameters */
		svr.updateIonUtc(index)
		k = 2
	case DEC_STA: /* antenna postion */
		svr.updateAntPos(index)
		k = 4
	case DEC_DGPS: /* dgps correction */
		svr.updateDgps(index)
		k = 5
	case DEC_SSR: /* ssr message */
		k = 7
	case DEC_ERROR: /* error */
		k = 9
	default:
		k = 8
	}
	svr.solLock.Lock()
	svr.stats.InputMsg[index][k]++
	svr.solLock.Unlock()
}

/* update observation data ---------------------------------------------------*/
func (svr *RtkSvr) updateObs(obs *Obs, index int) {
	epoch := Obs{Data: make([]ObsD, 0, obs.N())}
	for i := range obs.Data {
		sat := obs.Data[i].Sat
		sys := SatSys(sat, nil)
		if sat <= 0 || svr.Rtk.Opt.ExSats[sat-1] == 1 || sys&svr.Rtk.Opt.NavSys == 0 {
			continue
		}
		epoch.Data = append(epoch.Data, obs.Data[i])
	}
	if !svr.obsSync.Push(index, &epoch) {
		return
	}
	/* averaging single base pos */
	if index == 1 && svr.Rtk.Opt.RefPos == POSOPT_SINGLE {
		svr.averageBase(&epoch)
	}
}

/* average single solutions of base station ----------------------------------*/
func (svr *RtkSvr) averageBase(obs *Obs) {
	var (
		sol Sol
		msg string
		rb  [3]float64
	)
	opt := svr.Rtk.Opt
	opt.Mode = PMODE_SINGLE
	maxave := svr.Rtk.Opt.MaxAveEp

	if maxave <= 0 || svr.baseSol.N() < min(maxave, svr.baseSol.Cap()) {
		base := append([]ObsD(nil), obs.Data...)
		for i := range base {
			base[i].Rcv = 1
		}
		if !svr.Nav.TryLock(svr.cycle) {
			return
		}
		stat := PntPos(base, &svr.Nav.Nav, &opt, &sol, nil, nil, &msg)
		svr.Nav.Unlock()
		if stat == 0 {
			Tracet(3, "base single pos error: %s\n", msg)
			return
		}
		sol.Stat = SOLQ_SINGLE
		svr.baseSol.AddSol(&sol)
	}
	n := svr.baseSol.N()
	if maxave > 0 {
		n = min(n, maxave)
	}
	if svr.baseSol.MeanPos(n, rb[:]) == 0 {
		return
	}
	copy(svr.Rtk.Opt.Rb[:], rb[:])

	svr.solLock.Lock()
	svr.stats.NAve = svr.baseSol.N()
	svr.solLock.Unlock()
}

/* merge decoded ephemerides into navigation data ----------------------------*/
func (svr *RtkSvr) mergeEph() {
	if len(svr.pending) == 0 || !svr.Nav.TryLock(svr.cycle) {
		return
	}
	defer svr.Nav.Unlock()

	for _, p := range svr.pending {
		nav := svr.dec[p.index].Nav()
		if SatSys(p.sat, nil) == SYS_GLO {
			for i := range nav.Geph[p.sat] {
				svr.Nav.AddGEph(&nav.Geph[p.sat][i])
			}
			continue
		}
		for i := range nav.Eph[p.sat] {
			svr.Nav.AddEph(&nav.Eph[p.sat][i])
		}
	}
	svr.pending = svr.pending[:0]
}

/* update ion/utc parameters -------------------------------------------------*/
func (svr *RtkSvr) updateIonUtc(index int) {
	if svr.navSel != 0 && svr.navSel != index+1 {
		return
	}
	if !svr.Nav.TryLock(svr.cycle) {
		return
	}
	nav := svr.dec[index].Nav()
	svr.Nav.Ion_gps = nav.Ion_gps
	svr.Nav.Utc_gps = nav.Utc_gps
	svr.Nav.Unlock()
}

/* update dgps corrections ---------------------------------------------------*/
func (svr *RtkSvr) updateDgps(index int) {
	if !svr.Nav.TryLock(svr.cycle) {
		return
	}
	svr.Nav.Dgps = svr.dec[index].Nav().Dgps
	svr.Nav.Unlock()
}

/* update antenna position ---------------------------------------------------*/
func (svr *RtkSvr) updateAntPos(index int) {
	var pos, del, dr [3]float64

	if svr.Rtk.Opt.RefPos != POSOPT_RTCM || index != 1 {
		return
	}
	sta := svr.dec[index].Station()
	if Norm(sta.Pos[:], 3) <= 0.0 {
		return
	}
	rb := sta.Pos

	/* antenna delta */
	Ecef2Pos(rb[:], pos[:])
	if sta.DelType > 0 { /* xyz */
		del[2] = sta.Hgt
		Enu2Ecef(pos[:], del[:], dr[:])
		for i := 0; i < 3; i++ {
			rb[i] += sta.Del[i] + dr[i]
		}
	} else { /* enu */
		Enu2Ecef(pos[:], sta.Del[:], dr[:])
		for i := 0; i < 3; i++ {
			rb[i] += dr[i]
		}
	}
	copy(svr.Rtk.Opt.Rb[:], rb[:])
}

/* process an epoch set, false if the navigation lock timed out ------------*/
func (svr *RtkSvr) processEpoch(set *EpochSet, tick int64) bool {
	obs := set.Obs()
	if !svr.Nav.TryLock(svr.cycle) {
		Tracet(2, "rtksvr: navigation lock timeout, epoch deferred\n")
		return false
	}
	svr.Rtk.RtkPos(obs, &svr.Nav.Nav)
	svr.Nav.Unlock()

	if set.Stale {
		svr.solLock.Lock()
		svr.stats.Stale++
		svr.solLock.Unlock()
	}

	sol := svr.Rtk.RtkSol
	if sol.Stat != SOLQ_NONE {
		/* adjust current time */
		tt := float64(TickGet()-tick)/1000.0 + DTTOL
		TimeSet(GpsT2Utc(TimeAdd(sol.Time, tt)))

		/* write solution */
		svr.writeSol()
	}
	/* solutions wait for the next cycle on lock timeout */
	if len(svr.solPend) >= MAXSOLBUF {
		svr.solPend = svr.solPend[1:]
	}
	svr.solPend = append(svr.solPend, sol)
	if tryLock(&svr.solLock, svr.cycle) {
		for i := range svr.solPend {
			svr.solBuf.AddSol(&svr.solPend[i])
			svr.stats.Sols[min(int(svr.solPend[i].Stat), SOLQ_DR)]++
		}
		svr.stats.Sol = sol
		svr.stats.Rb = svr.Rtk.Rb
		svr.solLock.Unlock()
		svr.solPend = svr.solPend[:0]
	}
	select {
	case svr.solChan <- RBSol{Rb: svr.Rtk.Rb, Sol: sol}:
	default:
	}
	return true
}

/* write solution to output streams ------------------------------------------*/
func (svr *RtkSvr) writeSol() {
	Tracet(4, "writesol:\n")

	svr.solLock.Lock()
	solopt := svr.solopt
	svr.solLock.Unlock()

	for i := 0; i < 2; i++ {
		var buff string
		if solopt[i].Posf == SOLF_STAT {
			buff = svr.Rtk.RtkOutStat()
		} else {
			buff = svr.Rtk.RtkSol.OutSols(svr.Rtk.Rb[:], &solopt[i])
		}
		if len(buff) > 0 {
			svr.Stream[i+3].StreamWrite([]byte(buff))
		}
	}
}

/* periodic command ----------------------------------------------------------*/
func periodicCmd(cycle int, cmd string, stream *Stream) {
	cmdlets := strings.FieldsFunc(cmd, func(r rune) bool { return r == '\r' || r == '\n' })

	for _, msg := range cmdlets {
		period := 0
		if idx := strings.LastIndex(msg, "#"); idx >= 0 {
			fmt.Sscanf(msg[idx:], "# %d", &period)
			msg = msg[:idx]
		}
		msg = strings.TrimSpace(msg)
		if period <= 0 {
			period = 1000
		}
		if len(msg) > 0 && cycle%period == 0 {
			stream.StreamSendCmd(msg)
		}
	}
}

/* send nmea request to base/nrtk input stream -------------------------------*/
func (svr *RtkSvr) sendNmea(tickreset *int64) {
	var sol Sol
	tick := TickGet()
	rtk := svr.Rtk

	if svr.Stream[1].StreamStat(nil) < 1 {
		return
	}
	sol.Stat = SOLQ_SINGLE
	sol.Time = Utc2GpsT(TimeGet())

	switch svr.nmeaReq {
	case 1: /* lat-lon-hgt mode */
		copy(sol.Rr[:3], svr.nmeaPos[:])
	case 2: /* single-solution mode */
		if Norm(rtk.RtkSol.Rr[:], 3) <= 0.0 {
			return
		}
		copy(sol.Rr[:3], rtk.RtkSol.Rr[:3])
	case 3: /* reset-and-single-sol mode */
		/* send reset command if baseline over threshold */
		bl := rtk.BaseLineLen()
		if bl >= svr.blReset && tick-*tickreset > MIN_INT_RESET {
			svr.Stream[1].StreamSendCmd(svr.cmdReset)
			Tracet(2, "send reset: bl=%.3f rr=%.3f %.3f %.3f rb=%.3f %.3f %.3f\n",
				bl, rtk.RtkSol.Rr[0], rtk.RtkSol.Rr[1], rtk.RtkSol.Rr[2],
				rtk.Rb[0], rtk.Rb[1], rtk.Rb[2])
			*tickreset = tick
		}
		if Norm(rtk.RtkSol.Rr[:], 3) <= 0.0 {
			return
		}
		copy(sol.Rr[:3], rtk.RtkSol.Rr[:3])

		/* set predicted position if velocity > 36km/h */
		if vel := Norm(rtk.RtkSol.Rr[3:], 3); vel > 10.0 {
			for i := 0; i < 3; i++ {
				sol.Rr[i] += rtk.RtkSol.Rr[i+3] / vel * svr.blReset * 0.8
			}
		}
	default:
		return
	}
	svr.Stream[1].StreamWrite([]byte(sol.OutNmeaGga()))
	Tracet(3, "send nmea: rr=%.3f %.3f %.3f\n", sol.Rr[0], sol.Rr[1], sol.Rr[2])
}

/* open output/log stream ------------------------------------------------------
* args   : int     index    I  output/log stream index
*                              (3:solution 1,4:solution 2,5:log rover,
*                               6:log base station,7:log correction)
*          int     str      I  output/log stream types (STR_???)
*          string  path     I  output/log stream path
*          *SolOpt solopt   I  solution options (solution streams)
* return : status (1:ok 0:error)
*-----------------------------------------------------------------------------*/
func (svr *RtkSvr) RtkSvrOpenStream(index, str int, path string, solopt *SolOpt) int {
	Tracet(3, "rtksvropenstr: index=%d str=%d path=%s\n", index, str, path)

	if index < 3 || index >= MAXSTRRTK || !svr.Running() {
		return 0
	}
	if svr.Stream[index].StreamStat(nil) > 0 {
		return 0
	}
	if svr.Stream[index].OpenStream(str, STR_MODE_W, path) == 0 {
		Tracet(2, "stream open error: index=%d\n", index)
		return 0
	}
	if index <= 4 && solopt != nil {
		svr.solLock.Lock()
		svr.solopt[index-3] = *solopt
		svr.solLock.Unlock()

		/* write solution header to solution stream */
		if head := OutSolHead(solopt); len(head) > 0 {
			svr.Stream[index].StreamWrite([]byte(head))
		}
	}
	return 1
}

// RtkSvrCloseStream closes an output/log stream (3-7).
func (svr *RtkSvr) RtkSvrCloseStream(index int) {
	Tracet(3, "rtksvrclosestr: index=%d\n", index)

	if index < 3 || index >= MAXSTRRTK || !svr.Running() {
		return
	}
	svr.Stream[index].StreamClose()
}

/* get stream status -----------------------------------------------------------
* args   : []int   sstat    O  status of streams (MAXSTRRTK)
*          *string msg      O  status messages
*-----------------------------------------------------------------------------*/
func (svr *RtkSvr) RtkSvrStreamStat(sstat []int, msg *string) {
	var s string

	Tracet(4, "rtksvrsstat:\n")

	for i := 0; i < MAXSTRRTK && i < len(sstat); i++ {
		sstat[i] = svr.Stream[i].StreamStat(&s)
		if len(s) > 0 {
			*msg += fmt.Sprintf("(%d) %s ", i+1, s)
		}
	}
}

// Solutions returns copies of the last n solutions of the solution buffer.
func (svr *RtkSvr) Solutions(n int) []Sol {
	if !tryLock(&svr.solLock, svr.cycle) {
		return nil
	}
	defer svr.solLock.Unlock()
	return svr.solBuf.Recent(n)
}

// Stats returns a snapshot of the server counters.
func (svr *RtkSvr) Stats() RtkSvrStats {
	svr.solLock.Lock()
	stats := svr.stats
	svr.solLock.Unlock()

	stats.State = int(svr.state.Load())
	for i := 0; i < MAXSTRRTK; i++ {
		s := &stats.Streams[i]
		s.State = svr.Stream[i].StreamStat(nil)
		s.InBytes, s.InRate, s.OutBytes, s.OutRate = svr.Stream[i].StreamSum()
	}
	return stats
}

/* mark current position -------------------------------------------------------
* args   : string  name     I  marker name
*          string  comment  I  comment string
* return : status (1:ok 0:error)
*-----------------------------------------------------------------------------*/
func (svr *RtkSvr) RtkSvrMark(name, comment string) int {
	var (
		pos  [3]float64
		week int
	)
	Tracet(4, "rtksvrmark:name=%s comment=%s\n", name, comment)

	if !svr.Running() {
		return 0
	}
	svr.solLock.Lock()
	sol := svr.stats.Sol
	solopt := svr.solopt
	svr.solLock.Unlock()

	tstr := TimeStr(sol.Time, 3)
	tow := Time2GpsT(sol.Time, &week)
	Ecef2Pos(sol.Rr[:], pos[:])

	for i := 0; i < 2; i++ {
		var buff string
		switch solopt[i].Posf {
		case SOLF_STAT:
			buff = fmt.Sprintf("$MARK,%d,%.3f,%d,%.4f,%.4f,%.4f,%s,%s\r\n", week, tow,
				sol.Stat, sol.Rr[0], sol.Rr[1], sol.Rr[2], name, comment)
		case SOLF_NMEA:
			buff = fmt.Sprintf("$GPTXT,01,01,02,MARK:%s,%s,%.9f,%.9f,%.4f,%d,%s",
				name, tstr, pos[0]*R2D, pos[1]*R2D, pos[2], sol.Stat, comment)
			buff += fmt.Sprintf("*%02X\r\n", nmeaChecksum(buff))
		default:
			buff = fmt.Sprintf("%s MARK: %s,%s,%.9f,%.9f,%.4f,%d,%s\r\n", COMMENTH,
				name, tstr, pos[0]*R2D, pos[1]*R2D, pos[2], sol.Stat, comment)
		}
		svr.Stream[i+3].StreamWrite([]byte(buff))
	}
	return 1
}
