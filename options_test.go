/*------------------------------------------------------------------------------
* options_test.go : option table tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2025/03/04 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gnssrtk"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Str2Enum(t *testing.T) {
	assert := assert.New(t)

	v, ok := gnssrtk.Str2Enum("kinematic", gnssrtk.MODOPT)
	assert.True(ok)
	assert.Equal(gnssrtk.PMODE_KINEMA, v)
	v, ok = gnssrtk.Str2Enum("5", gnssrtk.MODOPT)
	assert.True(ok)
	assert.Equal(gnssrtk.PMODE_FIXED, v)
	_, ok = gnssrtk.Str2Enum("ppp", gnssrtk.MODOPT)
	assert.False(ok)
	_, ok = gnssrtk.Str2Enum("4", gnssrtk.MODOPT)
	assert.False(ok)

	/* '+' separated labels */
	v, ok = gnssrtk.Str2Enum("glo", gnssrtk.NAVOPT)
	assert.True(ok)
	assert.Equal(gnssrtk.SYS_GLO, v)

	assert.Equal("static", gnssrtk.Enum2Str(gnssrtk.MODOPT, gnssrtk.PMODE_STATIC))
	assert.Equal("fix-and-hold", gnssrtk.Enum2Str(gnssrtk.ARMOPT, gnssrtk.ARMODE_FIXHOLD))
	assert.Equal("4", gnssrtk.Enum2Str(gnssrtk.MODOPT, 4))
}

func Test_SetOpt(t *testing.T) {
	assert := assert.New(t)
	opts := gnssrtk.NewSysOpts()

	err := opts.SetOpt("pos9-nothing", "1")
	assert.True(errors.Is(err, gnssrtk.ErrUnknownOption))

	assert.NoError(opts.SetOpt("pos1-posmode", "kinematic"))
	assert.NoError(opts.SetOpt("pos1-elmask", "10.5"))
	assert.NoError(opts.SetOpt("pos2-niter", "3"))
	assert.NoError(opts.SetOpt("out-fieldsep", ","))
	assert.Error(opts.SetOpt("pos1-posmode", "ppp-static"))
	assert.Error(opts.SetOpt("pos1-elmask", "ten"))
	assert.Error(opts.SetOpt("pos2-niter", "1.5"))

	var popt gnssrtk.PrcOpt
	var sopt gnssrtk.SolOpt
	opts.GetSysOpts(&popt, &sopt)
	assert.Equal(gnssrtk.PMODE_KINEMA, popt.Mode)
	assert.InDelta(10.5*gnssrtk.D2R, popt.Elmin, 1e-12)
	assert.Equal(3, popt.NoIter)
	assert.Equal(",", sopt.Sep)

	opt := opts.SearchOpt("pos1-elmask")
	require.NotNil(t, opt)
	assert.Equal("10.5", opt.Opt2Str())
	buf := opt.Opt2Buf()
	assert.True(strings.HasPrefix(buf, "pos1-elmask        =10.5"), buf)
	assert.True(strings.HasSuffix(buf, " # (deg)"), buf)
	assert.Equal("kinematic", opts.SearchOpt("pos1-posmode").Opt2Str())
	assert.Nil(opts.SearchOpt("pos1-elmask "))
}

func Test_SysOptsDefault(t *testing.T) {
	assert := assert.New(t)
	opts := gnssrtk.NewSysOpts()

	var popt gnssrtk.PrcOpt
	var sopt gnssrtk.SolOpt
	opts.GetSysOpts(&popt, &sopt)
	want := gnssrtk.DefaultProcOpt()
	assert.InDelta(want.Elmin, popt.Elmin, 1e-12)
	popt.Elmin = want.Elmin
	assert.Equal(want, popt)
	assert.Equal(gnssrtk.DefaultSolOpt().Posf, sopt.Posf)
	assert.Equal(gnssrtk.DefaultSolOpt().TimeU, sopt.TimeU)

	/* nil outputs are ignored */
	opts.GetSysOpts(nil, nil)
	opts.SetSysOpts(nil, nil)
	assert.Equal("single", opts.SearchOpt("pos1-posmode").Opt2Str())
}

func Test_SysOptsAntenna(t *testing.T) {
	assert := assert.New(t)
	const D2R = gnssrtk.D2R
	opts := gnssrtk.NewSysOpts()

	require.NoError(t, opts.SetOpt("ant1-postype", "llh"))
	require.NoError(t, opts.SetOpt("ant1-pos1", "35.0"))
	require.NoError(t, opts.SetOpt("ant1-pos2", "139.0"))
	require.NoError(t, opts.SetOpt("ant1-pos3", "50.0"))
	require.NoError(t, opts.SetOpt("ant2-postype", "single"))
	require.NoError(t, opts.SetOpt("pos1-exclsats", "G05 +R02 X99"))
	require.NoError(t, opts.SetOpt("pos1-snrmask_L1", "30,35,40"))

	var popt gnssrtk.PrcOpt
	opts.GetSysOpts(&popt, nil)
	var ru [3]float64
	gnssrtk.Pos2Ecef([]float64{35.0 * D2R, 139.0 * D2R, 50.0}, ru[:])
	assert.Equal(gnssrtk.POSOPT_POS, popt.RovPos)
	for i := 0; i < 3; i++ {
		assert.InDelta(ru[i], popt.Ru[i], 1e-6)
	}
	assert.Equal(gnssrtk.POSOPT_SINGLE, popt.RefPos)
	assert.Equal([3]float64{}, popt.Rb)
	assert.Equal(uint8(1), popt.ExSats[4])
	assert.Equal(uint8(2), popt.ExSats[gnssrtk.SatNo(gnssrtk.SYS_GLO, 2)-1])
	assert.Equal(30.0, popt.SnrMask.Mask[0][0])
	assert.Equal(40.0, popt.SnrMask.Mask[0][2])
	assert.Zero(popt.SnrMask.Mask[0][3])

	/* ecef base position written back as lat/lon/height */
	popt.RefPos = gnssrtk.POSOPT_POS
	popt.Rb = ru
	opts.SetSysOpts(&popt, nil)
	assert.Equal("llh", opts.SearchOpt("ant2-postype").Opt2Str())
	assert.InDelta(35.0, opts.SearchOpt("ant2-pos1").Value.Float, 1e-9)
	assert.InDelta(50.0, opts.SearchOpt("ant2-pos3").Value.Float, 1e-4)
	assert.Equal("G05 +R02", opts.SearchOpt("pos1-exclsats").Opt2Str())
	assert.Equal("30,35,40,0,0,0,0,0,0", opts.SearchOpt("pos1-snrmask_L1").Opt2Str())

	require.NoError(t, opts.SetOpt("ant2-postype", "rtcm"))
	opts.GetSysOpts(&popt, nil)
	assert.Equal(gnssrtk.POSOPT_RTCM, popt.RefPos)
}

func Test_LoadSaveOpts(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "rtk.conf")

	opts := gnssrtk.NewSysOpts()
	require.NoError(t, opts.SetOpt("pos1-posmode", "static"))
	require.NoError(t, opts.SetOpt("pos2-arthres", "2.5"))
	require.NoError(t, opts.SetOpt("out-fieldsep", ","))
	require.NoError(t, opts.SaveOpts(file, "test options"))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(strings.HasPrefix(string(data), "# test options\n\n"))

	loaded := gnssrtk.NewSysOpts()
	require.NoError(t, loaded.LoadOpts(file))
	for i, opt := range opts.Opts() {
		assert.Equal(opt.Opt2Str(), loaded.Opts()[i].Opt2Str(), opt.Name)
	}

	/* comments, unknown names and bad values are skipped */
	conf := strings.Join([]string{
		"# rtk options",
		"",
		"pos1-posmode = kinematic   # (0:single,...)",
		"pos1-unknown = 1",
		"no separator here",
		"pos2-niter = many",
		"pos1-frequency=l1",
	}, "\n")
	require.NoError(t, os.WriteFile(file, []byte(conf), 0644))
	loaded = gnssrtk.NewSysOpts()
	require.NoError(t, loaded.LoadOpts(file))
	assert.Equal("kinematic", loaded.SearchOpt("pos1-posmode").Opt2Str())
	assert.Equal("l1", loaded.SearchOpt("pos1-frequency").Opt2Str())
	assert.Equal(gnssrtk.DefaultProcOpt().NoIter, loaded.SearchOpt("pos2-niter").Value.Int)

	assert.Error(loaded.LoadOpts(filepath.Join(dir, "missing.conf")))
	assert.Error(opts.SaveOpts(filepath.Join(dir, "no", "such", "dir.conf"), ""))
}
