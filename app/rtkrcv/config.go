/*------------------------------------------------------------------------------
* config.go : rtkrcv configuration
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  receiver options moved from the option table to
*                           a yaml file, processing options still read from
*                           the system option file
*-----------------------------------------------------------------------------*/
package main

import (
	"bufio"
	"os"
	"strings"

	"gnssrtk"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

/* stream option labels ------------------------------------------------------*/
const (
	ISTOPT = "0:off,1:serial,2:file,3:tcpsvr,4:tcpcli,6:ntripcli,10:udpsvr,11:udpcli,12:membuf"
	OSTOPT = "0:off,1:serial,2:file,3:tcpsvr,4:tcpcli,5:ntripsvr,9:ntripcas,11:udpcli,12:membuf"
	FMTOPT = "0:rtcm2,1:rtcm3"
	NMEOPT = "0:off,1:latlon,2:single,3:reset"
	MSGOPT = "0:all,1:rover,2:base,3:corr"
)

type StreamConfig struct {
	Type    string `yaml:"type"`    /* stream type (ISTOPT/OSTOPT) */
	Path    string `yaml:"path"`    /* stream path */
	Format  string `yaml:"format"`  /* input format (FMTOPT) or solution format (SOLOPT) */
	CmdFile string `yaml:"cmdfile"` /* receiver command file (inputs only) */
}

type ServerConfig struct {
	Cycle      int        `yaml:"cycle"`      /* server cycle (ms) */
	BuffSize   int        `yaml:"buffsize"`   /* input buffer size (bytes) */
	NavMsgSel  string     `yaml:"navmsgsel"`  /* navigation message select (MSGOPT) */
	NmeaReq    string     `yaml:"nmeareq"`    /* nmea request type (NMEOPT) */
	NmeaCycle  int        `yaml:"nmeacycle"`  /* nmea request cycle (ms) */
	NmeaPos    [3]float64 `yaml:"nmeapos"`    /* nmea position lat/lon/height (deg,m) */
	ResetCmd   string     `yaml:"resetcmd"`   /* reset command for nmeareq=reset */
	BaseLenMax float64    `yaml:"baselenmax"` /* baseline length to reset (km) */
	SolBuf     int        `yaml:"solbuf"`     /* solution buffer size */
}

type TraceConfig struct {
	Level int    `yaml:"level"` /* trace level (0:off,1-5:on) */
	File  string `yaml:"file"`  /* trace file ("":stdout) */
}

type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type ClickHouseConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
	Batch int    `yaml:"batch"` /* rows per insert transaction */
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type ElasticConfig struct {
	URL      string `yaml:"url"`
	Index    string `yaml:"index"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// SinksConfig enables a solution sink by a non-empty address.
type SinksConfig struct {
	Influx     InfluxConfig     `yaml:"influx"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Elastic    ElasticConfig    `yaml:"elastic"`
}

type Config struct {
	Options string            `yaml:"options"` /* system options file */
	Set     map[string]string `yaml:"set"`     /* system option overrides */
	Server  ServerConfig      `yaml:"server"`
	Inputs  []StreamConfig    `yaml:"inputs"`  /* rover, base, correction */
	Outputs []StreamConfig    `yaml:"outputs"` /* solution 1-2 */
	Logs    []StreamConfig    `yaml:"logs"`    /* input logs 1-3 */
	Trace   TraceConfig       `yaml:"trace"`
	Metrics string            `yaml:"metrics"` /* metrics listen address ("":off) */
	Sinks   SinksConfig       `yaml:"sinks"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Cycle:      10,
			BuffSize:   32768,
			NavMsgSel:  "all",
			NmeaReq:    "off",
			NmeaCycle:  5000,
			BaseLenMax: 10.0,
			SolBuf:     gnssrtk.MAXSOLBUF,
		},
		Sinks: SinksConfig{
			ClickHouse: ClickHouseConfig{Table: "sol", Batch: 1},
			Mongo:      MongoConfig{Database: "gnss", Collection: "sol"},
			Elastic:    ElasticConfig{Index: "sol"},
		},
	}
}

// Load reads a yaml config, applies defaults and validates it.
func Load(path string) (Config, error) {
	cfg := defaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Cycle <= 0 {
		return errors.New("server.cycle must be > 0")
	}
	if c.Server.BuffSize <= 0 {
		return errors.New("server.buffsize must be > 0")
	}
	if c.Server.SolBuf <= 0 || c.Server.SolBuf > gnssrtk.MAXSOLBUF {
		return errors.Errorf("server.solbuf must be in 1-%d", gnssrtk.MAXSOLBUF)
	}
	if _, ok := gnssrtk.Str2Enum(c.Server.NavMsgSel, MSGOPT); !ok {
		return errors.Errorf("server.navmsgsel invalid: %q", c.Server.NavMsgSel)
	}
	if _, ok := gnssrtk.Str2Enum(c.Server.NmeaReq, NMEOPT); !ok {
		return errors.Errorf("server.nmeareq invalid: %q", c.Server.NmeaReq)
	}
	if len(c.Inputs) == 0 || len(c.Inputs) > 3 {
		return errors.New("inputs must have 1-3 streams")
	}
	if len(c.Outputs) > 2 {
		return errors.New("outputs must have 0-2 streams")
	}
	if len(c.Logs) > 3 {
		return errors.New("logs must have 0-3 streams")
	}
	for i, s := range c.Inputs {
		if err := s.validate(ISTOPT, FMTOPT); err != nil {
			return errors.Wrapf(err, "inputs[%d]", i)
		}
	}
	for i, s := range c.Outputs {
		if err := s.validate(OSTOPT, gnssrtk.SOLOPT); err != nil {
			return errors.Wrapf(err, "outputs[%d]", i)
		}
	}
	for i, s := range c.Logs {
		if err := s.validate(OSTOPT, ""); err != nil {
			return errors.Wrapf(err, "logs[%d]", i)
		}
	}
	if c.Trace.Level < 0 || c.Trace.Level > 5 {
		return errors.New("trace.level must be in 0-5")
	}
	if c.Sinks.ClickHouse.DSN != "" && c.Sinks.ClickHouse.Batch <= 0 {
		return errors.New("sinks.clickhouse.batch must be > 0")
	}
	return nil
}

func (s *StreamConfig) validate(types, formats string) error {
	t, ok := gnssrtk.Str2Enum(s.Type, types)
	if !ok {
		return errors.Errorf("type invalid: %q", s.Type)
	}
	if t != gnssrtk.STR_NONE && t != gnssrtk.STR_MEMBUF && s.Path == "" {
		return errors.New("path required")
	}
	if formats != "" && s.Format != "" {
		if _, ok := gnssrtk.Str2Enum(s.Format, formats); !ok {
			return errors.Errorf("format invalid: %q", s.Format)
		}
	}
	return nil
}

// SvrConfig resolves the server start parameters. Processing and solution
// options come from the system option file plus the overrides.
func (c *Config) SvrConfig() (*gnssrtk.RtkSvrConfig, error) {
	opts := gnssrtk.NewSysOpts()
	if c.Options != "" {
		if err := opts.LoadOpts(c.Options); err != nil {
			return nil, err
		}
	}
	for name, value := range c.Set {
		if err := opts.SetOpt(name, value); err != nil {
			return nil, errors.Wrapf(err, "set %s", name)
		}
	}
	svc := &gnssrtk.RtkSvrConfig{
		Cycle:        c.Server.Cycle,
		BuffSize:     c.Server.BuffSize,
		NmeaCycle:    c.Server.NmeaCycle,
		CmdReset:     c.Server.ResetCmd,
		BaseLenReset: c.Server.BaseLenMax,
		SolBufSize:   c.Server.SolBuf,
	}
	var solopt gnssrtk.SolOpt
	opts.GetSysOpts(&svc.PrcOpt, &solopt)
	svc.SolOpt[0], svc.SolOpt[1] = solopt, solopt
	svc.NavSel, _ = gnssrtk.Str2Enum(c.Server.NavMsgSel, MSGOPT)
	svc.NmeaReq, _ = gnssrtk.Str2Enum(c.Server.NmeaReq, NMEOPT)

	pos := []float64{c.Server.NmeaPos[0] * gnssrtk.D2R, c.Server.NmeaPos[1] * gnssrtk.D2R, c.Server.NmeaPos[2]}
	gnssrtk.Pos2Ecef(pos, svc.NmeaPos[:])

	if svc.PrcOpt.RefPos == gnssrtk.POSOPT_RTCM {
		for i := 0; i < 3; i++ {
			svc.PrcOpt.Rb[i] = 0.0
		}
	}
	for i, s := range c.Inputs {
		svc.StreamTypes[i], _ = gnssrtk.Str2Enum(s.Type, ISTOPT)
		svc.Paths[i] = s.Path
		svc.Formats[i] = gnssrtk.STRFMT_RTCM3
		if s.Format != "" {
			svc.Formats[i], _ = gnssrtk.Str2Enum(s.Format, FMTOPT)
		}
		if s.CmdFile == "" {
			continue
		}
		var err error
		if svc.Cmds[i], err = readCmd(s.CmdFile, 0); err != nil {
			return nil, err
		}
		if svc.CmdsPeriodic[i], err = readCmd(s.CmdFile, 2); err != nil {
			return nil, err
		}
	}
	for i, s := range c.Outputs {
		svc.StreamTypes[3+i], _ = gnssrtk.Str2Enum(s.Type, OSTOPT)
		svc.Paths[3+i] = s.Path
		if s.Format != "" {
			svc.SolOpt[i].Posf, _ = gnssrtk.Str2Enum(s.Format, gnssrtk.SOLOPT)
		}
	}
	for i, s := range c.Logs {
		svc.StreamTypes[5+i], _ = gnssrtk.Str2Enum(s.Type, OSTOPT)
		svc.Paths[5+i] = s.Path
	}
	return svc, nil
}

// StopCmds reads the stop commands of the input command files.
func (c *Config) StopCmds() [3]string {
	var cmds [3]string
	for i, s := range c.Inputs {
		if s.CmdFile != "" {
			cmds[i], _ = readCmd(s.CmdFile, 1)
		}
	}
	return cmds
}

/* read receiver commands ------------------------------------------------------
* command file sections are separated by lines starting with '@':
* start commands, stop commands, periodic commands
*-----------------------------------------------------------------------------*/
func readCmd(file string, section int) (string, error) {
	fp, err := os.Open(file)
	if err != nil {
		return "", errors.Wrap(err, "read command file")
	}
	defer fp.Close()

	var cmd strings.Builder
	i := 0
	sc := bufio.NewScanner(fp)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "@") {
			i++
		} else if i == section && cmd.Len()+len(line)+1 < gnssrtk.MAXRCVCMD {
			cmd.WriteString(line)
			cmd.WriteByte('\n')
		}
	}
	return cmd.String(), errors.Wrap(sc.Err(), "read command file")
}
