/*------------------------------------------------------------------------------
* trace.go : debug trace functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  trace output by zap, rotated by lumberjack
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	traceMu     sync.RWMutex
	traceLog    *zap.SugaredLogger /* trace logger (nil: closed) */
	traceFile   *lumberjack.Logger /* rotated trace file (nil: stdout) */
	level_trace atomic.Int32       /* trace level */
	tick_trace  int64              /* tick time at traceopen (ms) */
	errLog      = newTraceLogger(zapcore.Lock(os.Stderr))
)

func traceEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func newTraceLogger(ws zapcore.WriteSyncer) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(traceEncoderConfig()), ws, zap.DebugLevel)
	return zap.New(core).Named("gnssrtk").Sugar()
}

// zapLevel maps a trace level (1:error,2:warning,3:info,4-5:debug) to zap.
func zapLevel(level int) zapcore.Level {
	switch {
	case level <= 1:
		return zapcore.ErrorLevel
	case level == 2:
		return zapcore.WarnLevel
	case level == 3:
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

// TraceOpen opens the trace output. An empty file traces to stdout, otherwise
// the file is rotated at 100 MB keeping 5 backups.
func TraceOpen(file string) error {
	var ws zapcore.WriteSyncer
	var lj *lumberjack.Logger

	if len(file) == 0 {
		ws = zapcore.Lock(os.Stdout)
	} else {
		if f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return errors.Wrapf(err, "open trace file %s", file)
		} else {
			f.Close()
		}
		lj = &lumberjack.Logger{Filename: file, MaxSize: 100, MaxBackups: 5, MaxAge: 30}
		ws = zapcore.AddSync(lj)
	}
	traceMu.Lock()
	defer traceMu.Unlock()
	closeTraceLocked()
	traceLog = newTraceLogger(ws)
	traceFile = lj
	tick_trace = TickGet()
	return nil
}

func closeTraceLocked() {
	if traceLog != nil {
		_ = traceLog.Sync()
	}
	if traceFile != nil {
		_ = traceFile.Close()
	}
	traceLog, traceFile = nil, nil
}

func TraceClose() {
	traceMu.Lock()
	closeTraceLocked()
	traceMu.Unlock()
}

func TraceLevel(level int) {
	level_trace.Store(int32(level))
}

func traceEnabled(level int) (*zap.SugaredLogger, bool) {
	if level > int(level_trace.Load()) {
		return nil, false
	}
	traceMu.RLock()
	l := traceLog
	traceMu.RUnlock()
	return l, l != nil
}

func traceWrite(l *zap.SugaredLogger, level int, msg string) {
	msg = strings.TrimRight(msg, "\r\n")
	switch zapLevel(level) {
	case zapcore.ErrorLevel:
		l.Error(msg)
	case zapcore.WarnLevel:
		l.Warn(msg)
	case zapcore.InfoLevel:
		l.Info(msg)
	default:
		l.Debug(msg)
	}
}

// Trace writes a leveled trace message. Level 1 messages also go to stderr.
func Trace(level int, format string, v ...interface{}) {
	if level <= 1 {
		errLog.Error(strings.TrimRight(fmt.Sprintf(format, v...), "\r\n"))
	}
	l, ok := traceEnabled(level)
	if !ok {
		return
	}
	traceWrite(l, level, fmt.Sprintf(format, v...))
}

// Tracet writes a trace message prefixed by the time since TraceOpen.
func Tracet(level int, format string, v ...interface{}) {
	l, ok := traceEnabled(level)
	if !ok {
		return
	}
	traceMu.RLock()
	t0 := tick_trace
	traceMu.RUnlock()
	traceWrite(l, level, fmt.Sprintf("%9.3f: ", float64(TickGet()-t0)/1000.0)+fmt.Sprintf(format, v...))
}

func tracemat(level int, A []float64, n, m, p, q int) {
	l, ok := traceEnabled(level)
	if !ok {
		return
	}
	var b strings.Builder
	MatFPrint(A, n, m, p, q, &b)
	traceWrite(l, level, "\n"+b.String())
}

func traceobs(level int, obs []ObsD) {
	l, ok := traceEnabled(level)
	if !ok {
		return
	}
	var b strings.Builder
	for i := range obs {
		fmt.Fprintf(&b, "\n (%2d) %s %-3s rcv%d %13.3f %13.3f %13.3f %13.3f %d %d %d %d %3.1f %3.1f",
			i+1, TimeStr(obs[i].Time, 3), SatNo2Id(obs[i].Sat), obs[i].Rcv,
			obs[i].L[0], obs[i].L[1], obs[i].P[0], obs[i].P[1], obs[i].LLI[0], obs[i].LLI[1],
			obs[i].Code[0], obs[i].Code[1], float64(obs[i].SNR[0])*SNR_UNIT, float64(obs[i].SNR[1])*SNR_UNIT)
	}
	traceWrite(l, level, b.String())
}

// Traceb dumps bytes in hex.
func Traceb(level int, p []uint8, n int) {
	l, ok := traceEnabled(level)
	if !ok {
		return
	}
	var b strings.Builder
	for i := 0; i < n && i < len(p); i++ {
		if i%16 == 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%02X ", p[i])
	}
	traceWrite(l, level, b.String())
}
