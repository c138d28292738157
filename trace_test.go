/*------------------------------------------------------------------------------
* trace_test.go : debug trace tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2025/03/04 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk_test

import (
	"os"
	"path/filepath"
	"testing"

	"gnssrtk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Trace(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "rtk.trace")

	require.NoError(t, gnssrtk.TraceOpen(file))
	gnssrtk.TraceLevel(3)
	t.Cleanup(func() {
		gnssrtk.TraceLevel(0)
		gnssrtk.TraceClose()
	})

	gnssrtk.Trace(2, "rtcm3 parity error: len=%d\n", 10)
	gnssrtk.Trace(3, "stream opened\n")
	gnssrtk.Trace(4, "hidden detail\n")
	gnssrtk.Tracet(3, "tick %d\n", 1)
	gnssrtk.Traceb(3, []uint8{0xD3, 0x00, 0x13}, 3)
	gnssrtk.TraceClose()
	gnssrtk.Trace(2, "after close\n")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(text, "WARN\tgnssrtk\trtcm3 parity error: len=10")
	assert.Contains(text, "INFO\tgnssrtk\tstream opened")
	assert.Contains(text, ": tick 1")
	assert.Contains(text, "D3 00 13")
	assert.NotContains(text, "hidden detail")
	assert.NotContains(text, "after close")

	/* reopen appends */
	require.NoError(t, gnssrtk.TraceOpen(file))
	gnssrtk.Trace(3, "second run\n")
	gnssrtk.TraceClose()
	data, err = os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(string(data), "stream opened")
	assert.Contains(string(data), "second run")

	assert.Error(gnssrtk.TraceOpen(filepath.Join(dir, "no", "such", "rtk.trace")))
}
