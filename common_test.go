/*------------------------------------------------------------------------------
* common_test.go : satellite numbering, signal codes and bit field tests
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
)

/* SatNo(),SatSys() */
func Test_SatNo(t *testing.T) {
	assert := assert.New(t)
	cases := []struct {
		sys, prn, sat int
		id            string
	}{
		{gnssrtk.SYS_GPS, 1, 1, "G01"},
		{gnssrtk.SYS_GPS, gnssrtk.MAXPRNGPS, gnssrtk.NSATGPS, "G32"},
		{gnssrtk.SYS_GLO, 1, gnssrtk.NSATGPS + 1, "R01"},
		{gnssrtk.SYS_GAL, 3, gnssrtk.NSATGPS + gnssrtk.NSATGLO + 3, "E03"},
		{gnssrtk.SYS_QZS, 193, gnssrtk.NSATGPS + gnssrtk.NSATGLO + gnssrtk.NSATGAL + 1, "J01"},
		{gnssrtk.SYS_CMP, gnssrtk.MAXPRNCMP, gnssrtk.MAXSAT, "C35"},
	}
	for _, c := range cases {
		var prn int
		assert.Equal(c.sat, gnssrtk.SatNo(c.sys, c.prn), c.id)
		assert.Equal(c.sys, gnssrtk.SatSys(c.sat, &prn), c.id)
		assert.Equal(c.prn, prn, c.id)
		assert.Equal(c.id, gnssrtk.SatNo2Id(c.sat))
		assert.Equal(c.sat, gnssrtk.SatId2No(c.id))
	}

	/* out of range */
	prn := -1
	assert.Zero(gnssrtk.SatNo(gnssrtk.SYS_GPS, 0))
	assert.Zero(gnssrtk.SatNo(gnssrtk.SYS_GPS, 33))
	assert.Zero(gnssrtk.SatNo(gnssrtk.SYS_QZS, 1))
	assert.Zero(gnssrtk.SatNo(gnssrtk.SYS_NONE, 1))
	assert.Equal(gnssrtk.SYS_NONE, gnssrtk.SatSys(0, &prn))
	assert.Zero(prn)
	assert.Equal(gnssrtk.SYS_NONE, gnssrtk.SatSys(gnssrtk.MAXSAT+1, nil))
	assert.Equal("", gnssrtk.SatNo2Id(0))

	/* bare numbers are gps or qzss */
	assert.Equal(5, gnssrtk.SatId2No("5"))
	assert.Equal(gnssrtk.SatNo(gnssrtk.SYS_QZS, 195), gnssrtk.SatId2No("195"))
	assert.Zero(gnssrtk.SatId2No("100"))
	assert.Zero(gnssrtk.SatId2No("X01"))
	assert.Zero(gnssrtk.SatId2No(""))
}

/* Code2Idx(),Code2Freq() */
func Test_Code2Idx(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, gnssrtk.Code2Idx(gnssrtk.SYS_GPS, gnssrtk.CODE_L1C))
	assert.Equal(1, gnssrtk.Code2Idx(gnssrtk.SYS_GPS, gnssrtk.CODE_L2W))
	assert.Equal(2, gnssrtk.Code2Idx(gnssrtk.SYS_QZS, gnssrtk.CODE_L5Q))
	assert.Equal(1, gnssrtk.Code2Idx(gnssrtk.SYS_GAL, gnssrtk.CODE_L7Q))
	assert.Equal(2, gnssrtk.Code2Idx(gnssrtk.SYS_GAL, gnssrtk.CODE_L5Q))
	assert.Equal(0, gnssrtk.Code2Idx(gnssrtk.SYS_CMP, gnssrtk.CODE_L2I))
	assert.Equal(1, gnssrtk.Code2Idx(gnssrtk.SYS_CMP, gnssrtk.CODE_L7Q))
	assert.Equal(-1, gnssrtk.Code2Idx(gnssrtk.SYS_GPS, gnssrtk.CODE_L7Q))
	assert.Equal(-1, gnssrtk.Code2Idx(gnssrtk.SYS_NONE, gnssrtk.CODE_L1C))
	assert.Equal(-1, gnssrtk.Code2Idx(gnssrtk.SYS_GPS, 0))

	assert.Equal(gnssrtk.FREQ1, gnssrtk.Code2Freq(gnssrtk.SYS_GPS, gnssrtk.CODE_L1C, 0))
	assert.Equal(gnssrtk.FREQ7, gnssrtk.Code2Freq(gnssrtk.SYS_GAL, gnssrtk.CODE_L7Q, 0))
	assert.Equal(gnssrtk.FREQ1_CMP, gnssrtk.Code2Freq(gnssrtk.SYS_CMP, gnssrtk.CODE_L2I, 0))
	assert.Equal(gnssrtk.FREQ1_GLO-2*gnssrtk.DFRQ1_GLO, gnssrtk.Code2Freq(gnssrtk.SYS_GLO, gnssrtk.CODE_L1C, -2))
	assert.Zero(gnssrtk.Code2Freq(gnssrtk.SYS_GLO, gnssrtk.CODE_L1C, 7))
}

/* GetBitU(),GetBits(),SetBitU(),SetBits() */
func Test_BitFields(t *testing.T) {
	assert := assert.New(t)
	buff := make([]uint8, 8)

	gnssrtk.SetBitU(buff, 0, 8, 0xD3)
	gnssrtk.SetBitU(buff, 14, 10, 1023)
	gnssrtk.SetBits(buff, 24, 12, -5)
	gnssrtk.SetBits(buff, 36, 20, 123456)
	assert.Equal(uint8(0xD3), buff[0])
	assert.Equal(uint32(0xD3), gnssrtk.GetBitU(buff, 0, 8))
	assert.Equal(uint32(0), gnssrtk.GetBitU(buff, 8, 6))
	assert.Equal(uint32(1023), gnssrtk.GetBitU(buff, 14, 10))
	assert.Equal(int32(-5), gnssrtk.GetBits(buff, 24, 12))
	assert.Equal(int32(123456), gnssrtk.GetBits(buff, 36, 20))

	/* oversized fields are ignored */
	gnssrtk.SetBitU(buff, 0, 33, 0)
	assert.Equal(uint8(0xD3), buff[0])
}

func Test_CRC24q(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint32(0xCDE703), gnssrtk.Rtk_CRC24q([]uint8("123456789"), 9))
	assert.Equal(uint32(0), gnssrtk.Rtk_CRC24q(nil, 0))

	/* a message followed by its crc checks to zero */
	msg := []uint8{0xD3, 0x00, 0x02, 0x3E, 0xD0, 0, 0, 0}
	crc := gnssrtk.Rtk_CRC24q(msg, 5)
	gnssrtk.SetBitU(msg, 40, 24, crc)
	assert.Equal(uint32(0), gnssrtk.Rtk_CRC24q(msg, 8))
}
