/*------------------------------------------------------------------------------
* options.go : options functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  option values held as tagged values in an ordered
*                           table, resolved to processing/solution options
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type OptFormat uint8

const (
	OPT_INT   OptFormat = 0 /* option format: int */
	OPT_FLOAT OptFormat = 1 /* option format: float64 */
	OPT_STR   OptFormat = 2 /* option format: string */
	OPT_ENUM  OptFormat = 3 /* option format: enum */
)

// OptValue is an option value. The field used depends on the option format.
type OptValue struct {
	Int   int
	Float float64
	Str   string
}

/* option enum labels --------------------------------------------------------*/
const (
	SWTOPT = "0:off,1:on"
	MODOPT = "0:single,1:dgps,2:kinematic,3:static,5:fixed"
	FRQOPT = "1:l1,2:l1+l2,3:l1+l2+l5"
	IONOPT = "0:off,1:brdc"
	TRPOPT = "0:off,1:saas"
	NAVOPT = "1:gps+4:glo+8:gal+16:qzs+32:bds"
	DYNOPT = "0:off,1:vel,2:accel"
	ARMOPT = "0:off,1:continuous,2:instantaneous,3:fix-and-hold"
	GAROPT = "0:off,1:on"
	SOLOPT = "0:llh,1:xyz,2:enu,3:nmea,4:stat"
	TSYOPT = "0:gpst,1:utc"
	TFTOPT = "0:tow,1:hms"
	DFTOPT = "0:deg,1:dms"
	STSOPT = "0:off,1:state,2:residual"
	POSOPT = "0:llh,1:xyz,2:single,5:rtcm"
)

var ErrUnknownOption = errors.New("unknown option")

// Options is an ordered option table keyed by option name.
type Options struct {
	list  []*Opt
	index map[string]*Opt
}

func (o *Options) add(name string, format OptFormat, comment string) {
	opt := &Opt{Name: name, Format: format, Comment: comment}
	o.list = append(o.list, opt)
	o.index[name] = opt
}

// NewSysOpts returns the system options table set to the default options.
func NewSysOpts() *Options {
	o := &Options{index: make(map[string]*Opt)}
	o.add("pos1-posmode", OPT_ENUM, MODOPT)
	o.add("pos1-frequency", OPT_ENUM, FRQOPT)
	o.add("pos1-elmask", OPT_FLOAT, "deg")
	o.add("pos1-snrmask_r", OPT_ENUM, SWTOPT)
	o.add("pos1-snrmask_b", OPT_ENUM, SWTOPT)
	o.add("pos1-snrmask_L1", OPT_STR, "")
	o.add("pos1-snrmask_L2", OPT_STR, "")
	o.add("pos1-snrmask_L5", OPT_STR, "")
	o.add("pos1-dynamics", OPT_ENUM, DYNOPT)
	o.add("pos1-ionoopt", OPT_ENUM, IONOPT)
	o.add("pos1-tropopt", OPT_ENUM, TRPOPT)
	o.add("pos1-exclsats", OPT_STR, "prn ...")
	o.add("pos1-navsys", OPT_INT, NAVOPT)
	o.add("pos2-armode", OPT_ENUM, ARMOPT)
	o.add("pos2-gloarmode", OPT_ENUM, GAROPT)
	o.add("pos2-bdsarmode", OPT_ENUM, SWTOPT)
	o.add("pos2-arthres", OPT_FLOAT, "")
	o.add("pos2-arlockcnt", OPT_INT, "")
	o.add("pos2-arelmask", OPT_FLOAT, "deg")
	o.add("pos2-arminfix", OPT_INT, "")
	o.add("pos2-elmaskhold", OPT_FLOAT, "deg")
	o.add("pos2-aroutcnt", OPT_INT, "")
	o.add("pos2-maxage", OPT_FLOAT, "s")
	o.add("pos2-slipthres", OPT_FLOAT, "m")
	o.add("pos2-rejionno", OPT_FLOAT, "m")
	o.add("pos2-rejgdop", OPT_FLOAT, "")
	o.add("pos2-niter", OPT_INT, "")
	o.add("pos2-baselen", OPT_FLOAT, "m")
	o.add("pos2-basesig", OPT_FLOAT, "m")
	o.add("out-solformat", OPT_ENUM, SOLOPT)
	o.add("out-outhead", OPT_ENUM, SWTOPT)
	o.add("out-outopt", OPT_ENUM, SWTOPT)
	o.add("out-outvel", OPT_ENUM, SWTOPT)
	o.add("out-timesys", OPT_ENUM, TSYOPT)
	o.add("out-timeform", OPT_ENUM, TFTOPT)
	o.add("out-timendec", OPT_INT, "")
	o.add("out-degform", OPT_ENUM, DFTOPT)
	o.add("out-fieldsep", OPT_STR, "")
	o.add("out-outsingle", OPT_ENUM, SWTOPT)
	o.add("out-maxsolstd", OPT_FLOAT, "m")
	o.add("out-nmeaintv1", OPT_FLOAT, "s")
	o.add("out-nmeaintv2", OPT_FLOAT, "s")
	o.add("out-outstat", OPT_ENUM, STSOPT)
	o.add("stats-eratio1", OPT_FLOAT, "")
	o.add("stats-eratio2", OPT_FLOAT, "")
	o.add("stats-errphase", OPT_FLOAT, "m")
	o.add("stats-errphaseel", OPT_FLOAT, "m")
	o.add("stats-errphasebl", OPT_FLOAT, "m/10km")
	o.add("stats-errdoppler", OPT_FLOAT, "Hz")
	o.add("stats-stdbias", OPT_FLOAT, "m")
	o.add("stats-stdiono", OPT_FLOAT, "m")
	o.add("stats-stdtrop", OPT_FLOAT, "m")
	o.add("stats-prnaccelh", OPT_FLOAT, "m/s^2")
	o.add("stats-prnaccelv", OPT_FLOAT, "m/s^2")
	o.add("stats-prnbias", OPT_FLOAT, "m")
	o.add("stats-prniono", OPT_FLOAT, "m")
	o.add("stats-prntrop", OPT_FLOAT, "m")
	o.add("stats-prnpos", OPT_FLOAT, "m")
	o.add("stats-clkstab", OPT_FLOAT, "s/s")
	for i := 1; i <= 2; i++ {
		o.add(fmt.Sprintf("ant%d-postype", i), OPT_ENUM, POSOPT)
		o.add(fmt.Sprintf("ant%d-pos1", i), OPT_FLOAT, "deg|m")
		o.add(fmt.Sprintf("ant%d-pos2", i), OPT_FLOAT, "deg|m")
		o.add(fmt.Sprintf("ant%d-pos3", i), OPT_FLOAT, "m|m")
	}
	o.add("ant2-maxaveep", OPT_INT, "")
	o.add("ant2-initrst", OPT_ENUM, SWTOPT)

	popt, sopt := DefaultProcOpt(), DefaultSolOpt()
	o.SetSysOpts(&popt, &sopt)
	return o
}

// SearchOpt returns the option record of name (nil: not found).
func (o *Options) SearchOpt(name string) *Opt {
	return o.index[name]
}

// Opts returns the options in table order.
func (o *Options) Opts() []*Opt { return o.list }

func (o *Options) setInt(name string, v int)       { o.index[name].Value.Int = v }
func (o *Options) setFloat(name string, v float64) { o.index[name].Value.Float = v }
func (o *Options) setStr(name, v string)           { o.index[name].Value.Str = v }
func (o *Options) getInt(name string) int          { return o.index[name].Value.Int }
func (o *Options) getFloat(name string) float64    { return o.index[name].Value.Float }
func (o *Options) getStr(name string) string       { return o.index[name].Value.Str }

/* enum to string ------------------------------------------------------------*/
func Enum2Str(comment string, val int) string {
	for _, item := range strings.FieldsFunc(comment, func(r rune) bool { return r == ',' || r == '+' }) {
		if k, label, ok := strings.Cut(item, ":"); ok {
			if n, err := strconv.Atoi(k); err == nil && n == val {
				return label
			}
		}
	}
	return strconv.Itoa(val)
}

/* string to enum: label or number -------------------------------------------*/
func Str2Enum(str, comment string) (int, bool) {
	for _, item := range strings.FieldsFunc(comment, func(r rune) bool { return r == ',' || r == '+' }) {
		k, label, ok := strings.Cut(item, ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if label == str || k == str {
			return n, true
		}
	}
	return 0, false
}

/* string to option value ------------------------------------------------------
* args   : string str       I   option value string
* return : error (nil: ok)
*-----------------------------------------------------------------------------*/
func (opt *Opt) Str2Opt(str string) error {
	switch opt.Format {
	case OPT_INT:
		v, err := strconv.Atoi(str)
		if err != nil {
			return errors.Wrapf(err, "option %s", opt.Name)
		}
		opt.Value.Int = v
	case OPT_FLOAT:
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return errors.Wrapf(err, "option %s", opt.Name)
		}
		opt.Value.Float = v
	case OPT_STR:
		opt.Value.Str = str
	case OPT_ENUM:
		v, ok := Str2Enum(str, opt.Comment)
		if !ok {
			return errors.Errorf("option %s: invalid value %q (%s)", opt.Name, str, opt.Comment)
		}
		opt.Value.Int = v
	default:
		return errors.Errorf("option %s: invalid format %d", opt.Name, opt.Format)
	}
	return nil
}

// Opt2Str returns the option value as string.
func (opt *Opt) Opt2Str() string {
	switch opt.Format {
	case OPT_INT:
		return strconv.Itoa(opt.Value.Int)
	case OPT_FLOAT:
		return strconv.FormatFloat(opt.Value.Float, 'g', -1, 64)
	case OPT_STR:
		return opt.Value.Str
	case OPT_ENUM:
		return Enum2Str(opt.Comment, opt.Value.Int)
	}
	return ""
}

// Opt2Buf returns the option line (keyword=value # comment).
func (opt *Opt) Opt2Buf() string {
	p := fmt.Sprintf("%-18s =%s", opt.Name, opt.Opt2Str())
	if len(opt.Comment) > 0 {
		if len(p) < 30 {
			p += strings.Repeat(" ", 30-len(p))
		}
		p += fmt.Sprintf(" # (%s)", opt.Comment)
	}
	return p
}

/* discard comment and space characters --------------------------------------*/
func chopOpt(buff string) string {
	if idx := strings.Index(buff, "#"); idx >= 0 {
		buff = buff[:idx]
	}
	return strings.TrimSpace(buff)
}

// SetOpt sets option name from its string value.
func (o *Options) SetOpt(name, value string) error {
	opt := o.SearchOpt(name)
	if opt == nil {
		return errors.Wrap(ErrUnknownOption, name)
	}
	return opt.Str2Opt(value)
}

/* load options ----------------------------------------------------------------
* args   : string file      I   options file (keyword=value # comment)
* return : error (nil: ok)
* notes  : unknown options are skipped, invalid values are traced
*-----------------------------------------------------------------------------*/
func (o *Options) LoadOpts(file string) error {
	Trace(4, "loadopts: file=%s\n", file)
	fp, err := os.Open(file)
	if err != nil {
		return errors.Wrapf(err, "options file open error (%s)", file)
	}
	defer fp.Close()

	sc := bufio.NewScanner(fp)
	for n := 1; sc.Scan(); n++ {
		buff := chopOpt(sc.Text())
		if len(buff) == 0 {
			continue
		}
		name, value, ok := strings.Cut(buff, "=")
		if !ok {
			Trace(2, "invalid option %s (%s:%d)\n", buff, file, n)
			continue
		}
		opt := o.SearchOpt(strings.TrimSpace(name))
		if opt == nil {
			continue
		}
		if err := opt.Str2Opt(strings.TrimSpace(value)); err != nil {
			Trace(2, "invalid option value %s (%s:%d): %v\n", buff, file, n, err)
		}
	}
	return errors.Wrapf(sc.Err(), "read options file %s", file)
}

/* save options ----------------------------------------------------------------
* args   : string file      I   options file
*          string comment   I   header comment ("": no comment)
* return : error (nil: ok)
*-----------------------------------------------------------------------------*/
func (o *Options) SaveOpts(file, comment string) error {
	var b strings.Builder
	Trace(4, "saveopts: file=%s\n", file)

	if len(comment) > 0 {
		fmt.Fprintf(&b, "# %s\n\n", comment)
	}
	for _, opt := range o.list {
		b.WriteString(opt.Opt2Buf())
		b.WriteString("\n")
	}
	if err := os.WriteFile(file, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, "options file write error (%s)", file)
	}
	return nil
}

/* antenna position options to processing options ----------------------------*/
func (o *Options) getAntPos(i int, ps *int, rr []float64) {
	var pos [3]float64
	ant := fmt.Sprintf("ant%d-", i+1)
	v := [3]float64{o.getFloat(ant + "pos1"), o.getFloat(ant + "pos2"), o.getFloat(ant + "pos3")}

	switch t := o.getInt(ant + "postype"); t {
	case 0: /* lat/lon/hgt (all zero: not set) */
		*ps = POSOPT_POS
		if v == [3]float64{} {
			copy(rr, v[:])
			break
		}
		pos[0], pos[1], pos[2] = v[0]*D2R, v[1]*D2R, v[2]
		Pos2Ecef(pos[:], rr)
	case 1: /* xyz-ecef */
		*ps = POSOPT_POS
		copy(rr, v[:])
	default:
		*ps = t - 1
	}
}

/* processing options to antenna position options ----------------------------*/
func (o *Options) setAntPos(i int, ps int, rr []float64) {
	var pos [3]float64
	ant := fmt.Sprintf("ant%d-", i+1)
	if ps != POSOPT_POS {
		o.setInt(ant+"postype", ps+1)
		return
	}
	o.setInt(ant+"postype", 0)
	if Norm(rr, 3) > 0.0 {
		Ecef2Pos(rr, pos[:])
	}
	o.setFloat(ant+"pos1", pos[0]*R2D)
	o.setFloat(ant+"pos2", pos[1]*R2D)
	o.setFloat(ant+"pos3", pos[2])
}

/* excluded satellites "G01 +R02 ..." ----------------------------------------*/
func parseExSats(buff string, exsats []uint8) {
	for i := range exsats {
		exsats[i] = 0
	}
	for _, id := range strings.Fields(buff) {
		var flag uint8 = 1
		if id[0] == '+' {
			flag, id = 2, id[1:]
		}
		if sat := SatId2No(id); sat > 0 {
			exsats[sat-1] = flag
		}
	}
}

func formatExSats(exsats []uint8) string {
	var ids []string
	for i, flag := range exsats {
		switch flag {
		case 1:
			ids = append(ids, SatNo2Id(i+1))
		case 2:
			ids = append(ids, "+"+SatNo2Id(i+1))
		}
	}
	return strings.Join(ids, " ")
}

/* snr mask "m5,m10,...,m85" -------------------------------------------------*/
func parseSnrMask(buff string, mask []float64) {
	for i := range mask {
		mask[i] = 0.0
	}
	for j, s := range strings.Split(buff, ",") {
		if j >= len(mask) {
			break
		}
		mask[j], _ = strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
}

func formatSnrMask(mask []float64) string {
	s := make([]string, len(mask))
	for j := range mask {
		s[j] = fmt.Sprintf("%.0f", mask[j])
	}
	return strings.Join(s, ",")
}

/* get system options ----------------------------------------------------------
* resolve the option values to processing and solution options
* args   : *PrcOpt popt     O   processing options (nil: no output)
*          *SolOpt sopt     O   solution options   (nil: no output)
*-----------------------------------------------------------------------------*/
func (o *Options) GetSysOpts(popt *PrcOpt, sopt *SolOpt) {
	p, s := DefaultProcOpt(), DefaultSolOpt()

	p.Mode = o.getInt("pos1-posmode")
	p.Nf = o.getInt("pos1-frequency")
	p.Elmin = o.getFloat("pos1-elmask") * D2R
	p.SnrMask.Ena[0] = o.getInt("pos1-snrmask_r")
	p.SnrMask.Ena[1] = o.getInt("pos1-snrmask_b")
	parseSnrMask(o.getStr("pos1-snrmask_L1"), p.SnrMask.Mask[0][:])
	parseSnrMask(o.getStr("pos1-snrmask_L2"), p.SnrMask.Mask[1][:])
	parseSnrMask(o.getStr("pos1-snrmask_L5"), p.SnrMask.Mask[2][:])
	p.Dynamics = o.getInt("pos1-dynamics")
	p.IonoOpt = o.getInt("pos1-ionoopt")
	p.TropOpt = o.getInt("pos1-tropopt")
	parseExSats(o.getStr("pos1-exclsats"), p.ExSats[:])
	p.NavSys = o.getInt("pos1-navsys")
	p.ModeAr = o.getInt("pos2-armode")
	p.GloModeAr = o.getInt("pos2-gloarmode")
	p.BDSModeAr = o.getInt("pos2-bdsarmode")
	p.ThresAr[0] = o.getFloat("pos2-arthres")
	p.MinLock = o.getInt("pos2-arlockcnt")
	p.ElMaskAr = o.getFloat("pos2-arelmask") * D2R
	p.MinFix = o.getInt("pos2-arminfix")
	p.ElMaskHold = o.getFloat("pos2-elmaskhold") * D2R
	p.MaxOut = o.getInt("pos2-aroutcnt")
	p.MaxTmDiff = o.getFloat("pos2-maxage")
	p.ThresSlip = o.getFloat("pos2-slipthres")
	p.MaxInno = o.getFloat("pos2-rejionno")
	p.MaxGdop = o.getFloat("pos2-rejgdop")
	p.NoIter = o.getInt("pos2-niter")
	p.Baseline[0] = o.getFloat("pos2-baselen")
	p.Baseline[1] = o.getFloat("pos2-basesig")
	p.OutSingle = o.getInt("out-outsingle")
	p.Eratio[0] = o.getFloat("stats-eratio1")
	p.Eratio[1] = o.getFloat("stats-eratio2")
	p.Err[1] = o.getFloat("stats-errphase")
	p.Err[2] = o.getFloat("stats-errphaseel")
	p.Err[3] = o.getFloat("stats-errphasebl")
	p.Err[4] = o.getFloat("stats-errdoppler")
	p.Std[0] = o.getFloat("stats-stdbias")
	p.Std[1] = o.getFloat("stats-stdiono")
	p.Std[2] = o.getFloat("stats-stdtrop")
	p.Prn[3] = o.getFloat("stats-prnaccelh")
	p.Prn[4] = o.getFloat("stats-prnaccelv")
	p.Prn[0] = o.getFloat("stats-prnbias")
	p.Prn[1] = o.getFloat("stats-prniono")
	p.Prn[2] = o.getFloat("stats-prntrop")
	p.Prn[5] = o.getFloat("stats-prnpos")
	p.SatClkStab = o.getFloat("stats-clkstab")
	o.getAntPos(0, &p.RovPos, p.Ru[:])
	o.getAntPos(1, &p.RefPos, p.Rb[:])
	p.MaxAveEp = o.getInt("ant2-maxaveep")
	p.InitRst = o.getInt("ant2-initrst")

	s.Posf = o.getInt("out-solformat")
	s.OutHead = o.getInt("out-outhead")
	s.OutOpt = o.getInt("out-outopt")
	s.OutVel = o.getInt("out-outvel")
	s.TimeS = o.getInt("out-timesys")
	s.TimeF = o.getInt("out-timeform")
	s.TimeU = o.getInt("out-timendec")
	s.DegF = o.getInt("out-degform")
	s.Sep = o.getStr("out-fieldsep")
	s.MaxSolStd = o.getFloat("out-maxsolstd")
	s.NmeaIntv[0] = o.getFloat("out-nmeaintv1")
	s.NmeaIntv[1] = o.getFloat("out-nmeaintv2")
	s.SStat = o.getInt("out-outstat")

	if popt != nil {
		*popt = p
	}
	if sopt != nil {
		*sopt = s
	}
}

/* set system options ----------------------------------------------------------
* set the option values from processing and solution options
* args   : *PrcOpt popt     I   processing options (nil: default)
*          *SolOpt sopt     I   solution options   (nil: default)
*-----------------------------------------------------------------------------*/
func (o *Options) SetSysOpts(popt *PrcOpt, sopt *SolOpt) {
	p, s := DefaultProcOpt(), DefaultSolOpt()
	if popt != nil {
		p = *popt
	}
	if sopt != nil {
		s = *sopt
	}
	o.setInt("pos1-posmode", p.Mode)
	o.setInt("pos1-frequency", p.Nf)
	o.setFloat("pos1-elmask", p.Elmin*R2D)
	o.setInt("pos1-snrmask_r", p.SnrMask.Ena[0])
	o.setInt("pos1-snrmask_b", p.SnrMask.Ena[1])
	o.setStr("pos1-snrmask_L1", formatSnrMask(p.SnrMask.Mask[0][:]))
	o.setStr("pos1-snrmask_L2", formatSnrMask(p.SnrMask.Mask[1][:]))
	o.setStr("pos1-snrmask_L5", formatSnrMask(p.SnrMask.Mask[2][:]))
	o.setInt("pos1-dynamics", p.Dynamics)
	o.setInt("pos1-ionoopt", p.IonoOpt)
	o.setInt("pos1-tropopt", p.TropOpt)
	o.setStr("pos1-exclsats", formatExSats(p.ExSats[:]))
	o.setInt("pos1-navsys", p.NavSys)
	o.setInt("pos2-armode", p.ModeAr)
	o.setInt("pos2-gloarmode", p.GloModeAr)
	o.setInt("pos2-bdsarmode", p.BDSModeAr)
	o.setFloat("pos2-arthres", p.ThresAr[0])
	o.setInt("pos2-arlockcnt", p.MinLock)
	o.setFloat("pos2-arelmask", p.ElMaskAr*R2D)
	o.setInt("pos2-arminfix", p.MinFix)
	o.setFloat("pos2-elmaskhold", p.ElMaskHold*R2D)
	o.setInt("pos2-aroutcnt", p.MaxOut)
	o.setFloat("pos2-maxage", p.MaxTmDiff)
	o.setFloat("pos2-slipthres", p.ThresSlip)
	o.setFloat("pos2-rejionno", p.MaxInno)
	o.setFloat("pos2-rejgdop", p.MaxGdop)
	o.setInt("pos2-niter", p.NoIter)
	o.setFloat("pos2-baselen", p.Baseline[0])
	o.setFloat("pos2-basesig", p.Baseline[1])
	o.setInt("out-outsingle", p.OutSingle)
	o.setFloat("stats-eratio1", p.Eratio[0])
	o.setFloat("stats-eratio2", p.Eratio[1])
	o.setFloat("stats-errphase", p.Err[1])
	o.setFloat("stats-errphaseel", p.Err[2])
	o.setFloat("stats-errphasebl", p.Err[3])
	o.setFloat("stats-errdoppler", p.Err[4])
	o.setFloat("stats-stdbias", p.Std[0])
	o.setFloat("stats-stdiono", p.Std[1])
	o.setFloat("stats-stdtrop", p.Std[2])
	o.setFloat("stats-prnaccelh", p.Prn[3])
	o.setFloat("stats-prnaccelv", p.Prn[4])
	o.setFloat("stats-prnbias", p.Prn[0])
	o.setFloat("stats-prniono", p.Prn[1])
	o.setFloat("stats-prntrop", p.Prn[2])
	o.setFloat("stats-prnpos", p.Prn[5])
	o.setFloat("stats-clkstab", p.SatClkStab)
	o.setAntPos(0, p.RovPos, p.Ru[:])
	o.setAntPos(1, p.RefPos, p.Rb[:])
	o.setInt("ant2-maxaveep", p.MaxAveEp)
	o.setInt("ant2-initrst", p.InitRst)

	o.setInt("out-solformat", s.Posf)
	o.setInt("out-outhead", s.OutHead)
	o.setInt("out-outopt", s.OutOpt)
	o.setInt("out-outvel", s.OutVel)
	o.setInt("out-timesys", s.TimeS)
	o.setInt("out-timeform", s.TimeF)
	o.setInt("out-timendec", s.TimeU)
	o.setInt("out-degform", s.DegF)
	o.setStr("out-fieldsep", s.Sep)
	o.setFloat("out-maxsolstd", s.MaxSolStd)
	o.setFloat("out-nmeaintv1", s.NmeaIntv[0])
	o.setFloat("out-nmeaintv2", s.NmeaIntv[1])
	o.setInt("out-outstat", s.SStat)
}
