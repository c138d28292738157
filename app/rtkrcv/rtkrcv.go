/*------------------------------------------------------------------------------
* rtkrcv.go : rtk-gps/gnss receiver console ap
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  urfave/cli command line, yaml configuration,
*                           prometheus metrics and solution sinks
*-----------------------------------------------------------------------------*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gnssrtk"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	PRGNAME   = "rtkrcv"       /* program name */
	OPTSFILE  = "rtkrcv.conf"  /* default system options file */
	CONFFILE  = "rtkrcv.yaml"  /* default config file */
	TRACEFILE = "rtkrcv.trace" /* default debug trace file */
)

var ss = []string{"E", "-", "W", "C", "C"} /* stream state chars {error,close,wait,connect,active} */

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Named(PRGNAME).Sugar(), nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:    PRGNAME,
		Usage:   "real-time rtk positioning server",
		Version: gnssrtk.VER_GNSSRTK + " " + gnssrtk.PATCH_LEVEL,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: CONFFILE, Usage: "configuration file"},
			&cli.StringSliceFlag{Name: "set", Aliases: []string{"o"}, Usage: "system option override name=value"},
			&cli.IntFlag{Name: "trace", Aliases: []string{"t"}, Value: -1, Usage: "debug trace level (0:off,1-5:on)"},
			&cli.StringFlag{Name: "metrics", Aliases: []string{"m"}, Usage: "metrics listen address"},
			&cli.DurationFlag{Name: "status", Value: 10 * time.Second, Usage: "stream status interval (0:off)"},
			&cli.BoolFlag{Name: "debug", Usage: "debug log"},
		},
		Action: runSvr,
		Commands: []*cli.Command{
			{
				Name:  "options",
				Usage: "write the default system options file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"f"}, Value: OPTSFILE, Usage: "output file"},
				},
				Action: func(c *cli.Context) error {
					return gnssrtk.NewSysOpts().SaveOpts(c.String("out"), PRGNAME+" options")
				},
			},
		},
	}
}

// loadConfig reads the config file and applies the command line overrides.
func loadConfig(c *cli.Context) (Config, error) {
	cfg, err := Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	for _, s := range c.StringSlice("set") {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return cfg, errors.Errorf("invalid option override: %s", s)
		}
		if cfg.Set == nil {
			cfg.Set = map[string]string{}
		}
		cfg.Set[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	if c.Int("trace") >= 0 {
		cfg.Trace.Level = c.Int("trace")
	}
	if c.IsSet("metrics") {
		cfg.Metrics = c.String("metrics")
	}
	return cfg, nil
}

func runSvr(c *cli.Context) error {
	log, err := newLogger(c.Bool("debug"))
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Trace.Level > 0 {
		file := cfg.Trace.File
		if file == "" {
			file = TRACEFILE
		}
		if err := gnssrtk.TraceOpen(file); err != nil {
			return err
		}
		gnssrtk.TraceLevel(cfg.Trace.Level)
		defer gnssrtk.TraceClose()
	}
	svc, err := cfg.SvrConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := uuid.NewString()
	sinks, err := openSinks(ctx, cfg.Sinks)
	if err != nil {
		return err
	}
	svr := gnssrtk.NewRtkSvr()

	var msrv *http.Server
	if cfg.Metrics != "" {
		col, err := gnssrtk.NewRtkSvrCollector(prometheus.NewRegistry(), svr)
		if err != nil {
			return multierr.Append(err, closeSinks(context.Background(), sinks))
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", col.Handler())
		msrv = &http.Server{Addr: cfg.Metrics, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := msrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("metrics server error", "addr", cfg.Metrics, "error", err)
			}
		}()
		log.Infow("metrics server started", "addr", cfg.Metrics)
	}

	if err := svr.RtkSvrStart(context.Background(), svc); err != nil {
		return multierr.Append(errors.Wrap(err, "rtk server start error"), closeSinks(context.Background(), sinks))
	}
	log.Infow("rtk server started", "session", session, "mode", svc.PrcOpt.Mode, "cycle", svc.Cycle, "sinks", len(sinks))

	done := make(chan int, 1)
	go func() { done <- dispatchSols(svr.Sols(), session, sinks, log) }()

	var tick <-chan time.Time
	if iv := c.Duration("status"); iv > 0 {
		t := time.NewTicker(iv)
		defer t.Stop()
		tick = t.C
	}
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-tick:
			logStatus(log, svr)
		}
	}
	log.Infow("rtk server stopping")
	svr.RtkSvrStop(cfg.StopCmds())
	n := <-done

	sctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	err = closeSinks(sctx, sinks)
	if msrv != nil {
		err = multierr.Append(err, msrv.Shutdown(sctx))
	}
	log.Infow("rtk server stopped", "session", session, "sols", n)
	return err
}

/* print stream and solution status ------------------------------------------*/
func logStatus(log *zap.SugaredLogger, svr *gnssrtk.RtkSvr) {
	var sstat [gnssrtk.MAXSTRRTK]int
	var msg string

	svr.RtkSvrStreamStat(sstat[:], &msg)
	var b strings.Builder
	for i, s := range sstat {
		if i == 3 || i == 5 {
			b.WriteByte(' ')
		}
		b.WriteString(ss[s+1])
	}
	st := svr.Stats()
	log.Infow("status", "streams", b.String(), "q", st.Sol.Stat, "ns", st.Sol.Ns,
		"ratio", fmt.Sprintf("%.1f", st.Sol.Ratio), "age", fmt.Sprintf("%.1f", st.Sol.Age),
		"cputime", st.CpuTime, "prcout", st.PrcOut)
	if msg != "" {
		log.Debugw("stream", "msg", msg)
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", PRGNAME, err)
		os.Exit(1)
	}
}
