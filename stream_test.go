/*------------------------------------------------------------------------------
* stream_test.go : stream port tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2025/03/04 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk_test

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gnssrtk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

/* read from stream until n bytes are received */
func readStream(t *testing.T, s *gnssrtk.Stream, n int) []byte {
	var got []byte
	buff := make([]byte, 1024)
	require.Eventually(t, func() bool {
		if nr := s.StreamRead(buff); nr > 0 {
			got = append(got, buff[:nr]...)
		}
		return len(got) >= n
	}, waitFor, tick)
	return got
}

/* loopback address of a listening port */
func loopback(t *testing.T, addr string) string {
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return "127.0.0.1:" + port
}

func Test_DecodeTcpPath(t *testing.T) {
	var addr, port, user, passwd, mntpnt, str string
	assert := assert.New(t)

	gnssrtk.DecodeTcpPath("user:pass@caster.example.com:2101/RTCM3:RTCM 3.2", &addr, &port, &user, &passwd, &mntpnt, &str)
	assert.Equal("caster.example.com", addr)
	assert.Equal("2101", port)
	assert.Equal("user", user)
	assert.Equal("pass", passwd)
	assert.Equal("RTCM3", mntpnt)
	assert.Equal("RTCM 3.2", str)

	gnssrtk.DecodeTcpPath(":pw@127.0.0.1/MNT", &addr, &port, &user, &passwd, &mntpnt, &str)
	assert.Equal("127.0.0.1", addr)
	assert.Empty(port)
	assert.Empty(user)
	assert.Equal("pw", passwd)
	assert.Equal("MNT", mntpnt)
	assert.Empty(str)

	/* password containing '@' */
	gnssrtk.DecodeTcpPath("u:p@ss@host:80", &addr, &port, &user, &passwd, nil, nil)
	assert.Equal("host", addr)
	assert.Equal("p@ss", passwd)

	gnssrtk.DecodeTcpPath(":9000", &addr, &port, nil, nil, nil, nil)
	assert.Empty(addr)
	assert.Equal("9000", port)
}

func Test_MemBufStream(t *testing.T) {
	var s gnssrtk.Stream
	var msg string
	assert := assert.New(t)

	require.Equal(t, 1, s.OpenStream(gnssrtk.STR_MEMBUF, gnssrtk.STR_MODE_RW, "16"))
	assert.Equal(1, s.StreamStat(&msg))
	assert.Equal("membuf sizebuf=16", msg)

	data := []byte("0123456789")
	assert.Equal(10, s.StreamWrite(data))
	buff := make([]byte, 4)
	assert.Equal(4, s.StreamRead(buff))
	assert.Equal([]byte("0123"), buff)
	buff = make([]byte, 64)
	n := s.StreamRead(buff)
	assert.Equal([]byte("456789"), buff[:n])
	assert.Zero(s.StreamRead(buff))

	inb, _, outb, _ := s.StreamSum()
	assert.Equal(uint32(10), inb)
	assert.Equal(uint32(10), outb)

	/* overflow is an error for a plain memory buffer */
	assert.Equal(15, s.StreamWrite(bytes.Repeat([]byte{0xAA}, 20)))
	assert.Equal(-1, s.StreamStat(&msg))
	assert.Equal("mem-buffer overflow", msg)
	assert.Zero(s.StreamWrite(data))

	msg = ""
	s.StreamStatX(&msg)
	assert.Contains(msg, "membuf:")

	s.StreamClose()
	assert.Zero(s.StreamStat(nil))
	assert.Zero(s.StreamRead(buff))
}

func Test_StreamMode(t *testing.T) {
	var s gnssrtk.Stream
	assert := assert.New(t)

	require.Equal(t, 1, s.OpenStream(gnssrtk.STR_MEMBUF, gnssrtk.STR_MODE_W, ""))
	assert.Equal(3, s.StreamWrite([]byte("abc")))
	assert.Zero(s.StreamRead(make([]byte, 8)))
	assert.Zero(s.StreamWrite(nil))
	s.StreamClose()

	/* no stream */
	assert.Equal(1, s.OpenStream(gnssrtk.STR_NONE, gnssrtk.STR_MODE_R, ""))
	assert.Zero(s.StreamStat(nil))
}

func Test_FileStream(t *testing.T) {
	var w, r gnssrtk.Stream
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "rover.rtcm3")

	require.Equal(t, 1, w.OpenStream(gnssrtk.STR_FILE, gnssrtk.STR_MODE_W, path))
	assert.GreaterOrEqual(w.StreamStat(nil), 2)
	assert.Equal(6, w.StreamWrite([]byte{0xD3, 0x00, 0x13, 0x3E, 0xD0, 0x00}))
	w.StreamClose()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(data, 6)

	require.Equal(t, 1, r.OpenStream(gnssrtk.STR_FILE, gnssrtk.STR_MODE_R, path+"::T"))
	buff := make([]byte, 16)
	assert.Equal(6, r.StreamRead(buff))
	assert.Equal(byte(0xD3), buff[0])
	assert.Zero(r.StreamRead(buff))
	assert.Zero(r.StreamWrite(buff))
	r.StreamClose()

	/* read error after a successful open */
	require.Equal(t, 1, r.OpenStream(gnssrtk.STR_FILE, gnssrtk.STR_MODE_R, t.TempDir()))
	assert.Zero(r.StreamRead(buff))
	assert.Equal(-1, r.StreamStat(nil))
	assert.Contains(r.Msg, "is a directory")
	r.StreamClose()

	/* open errors */
	assert.Zero(r.OpenStream(gnssrtk.STR_FILE, gnssrtk.STR_MODE_R, filepath.Join(t.TempDir(), "none")))
	assert.Equal(-1, r.StreamStat(nil))
	assert.Zero(r.OpenStream(gnssrtk.STR_FILE, 0, path))
	assert.Zero(r.OpenStream(gnssrtk.STR_SERIAL, gnssrtk.STR_MODE_R, "ttyS0:1234"))
	assert.Contains(r.Msg, "bitrate error")
}

func Test_StreamSendCmd(t *testing.T) {
	var s gnssrtk.Stream
	require.Equal(t, 1, s.OpenStream(gnssrtk.STR_MEMBUF, gnssrtk.STR_MODE_RW, ""))
	defer s.StreamClose()

	s.StreamSendCmd("# reset receiver\n!WAIT 10\nUNLOG\r\n!HOTSTART\n\nLOG RANGEB ONTIME 1")
	buff := make([]byte, 256)
	n := s.StreamRead(buff)
	assert.Equal(t, "UNLOG\r\nLOG RANGEB ONTIME 1\r\n", string(buff[:n]))
}

func Test_TcpStream(t *testing.T) {
	var svr, cli gnssrtk.Stream
	assert := assert.New(t)

	require.Equal(t, 1, svr.OpenStream(gnssrtk.STR_TCPSVR, gnssrtk.STR_MODE_RW, ":0"))
	defer svr.StreamClose()
	tcpsvr, ok := svr.Port.(*gnssrtk.TcpSvr)
	require.True(t, ok)
	assert.Equal(1, svr.StreamStat(nil))

	require.Equal(t, 1, cli.OpenStream(gnssrtk.STR_TCPCLI, gnssrtk.STR_MODE_RW, loopback(t, tcpsvr.Addr())))
	defer cli.StreamClose()
	require.Eventually(t, func() bool { return cli.StreamStat(nil) >= 2 }, waitFor, tick)
	require.Eventually(t, func() bool { return tcpsvr.Clients() == 1 }, waitFor, tick)

	/* server to client */
	assert.Equal(5, svr.StreamWrite([]byte("hello")))
	assert.Equal("hello", string(readStream(t, &cli, 5)))

	/* client to server */
	assert.Equal(3, cli.StreamWrite([]byte("ack")))
	assert.Equal("ack", string(readStream(t, &svr, 3)))
	assert.GreaterOrEqual(svr.StreamStat(nil), 2)

	var msg string
	svr.StreamStatX(&msg)
	assert.Contains(msg, "client0")

	/* client goes away */
	cli.StreamClose()
	require.Eventually(t, func() bool {
		svr.StreamWrite([]byte("x"))
		return tcpsvr.Clients() == 0
	}, waitFor, tick)

	/* bad address */
	var bad gnssrtk.Stream
	assert.Zero(bad.OpenStream(gnssrtk.STR_TCPCLI, gnssrtk.STR_MODE_R, "127.0.0.1"))
}

func Test_UdpStream(t *testing.T) {
	var svr, cli gnssrtk.Stream
	assert := assert.New(t)

	require.Equal(t, 1, svr.OpenStream(gnssrtk.STR_UDPSVR, gnssrtk.STR_MODE_R, ":0"))
	defer svr.StreamClose()
	udp, ok := svr.Port.(*gnssrtk.UdpConn)
	require.True(t, ok)

	require.Equal(t, 1, cli.OpenStream(gnssrtk.STR_UDPCLI, gnssrtk.STR_MODE_W, loopback(t, udp.Addr())))
	defer cli.StreamClose()
	assert.GreaterOrEqual(cli.StreamStat(nil), 2)

	payload := []byte{0xD3, 0x00, 0x00, 0x47, 0xEA, 0x4B}
	assert.Equal(len(payload), cli.StreamWrite(payload))
	assert.Equal(payload, readStream(t, &svr, len(payload)))
}

func Test_NtripStream(t *testing.T) {
	var caster, source, client gnssrtk.Stream
	assert := assert.New(t)

	require.Equal(t, 1, caster.OpenStream(gnssrtk.STR_NTRIPCAS, gnssrtk.STR_MODE_RW, "rover:secret@:0/BASE1:RTCM 3.2"))
	defer caster.StreamClose()
	c, ok := caster.Port.(*gnssrtk.NTripc)
	require.True(t, ok)
	addr := loopback(t, c.Addr())
	assert.Equal(1, caster.StreamStat(nil))

	/* ntrip server feeds the caster */
	require.Equal(t, 1, source.OpenStream(gnssrtk.STR_NTRIPSVR, gnssrtk.STR_MODE_W, ":secret@"+addr+"/BASE1:RTCM 3.2"))
	defer source.StreamClose()
	require.Eventually(t, func() bool { return source.StreamStat(nil) >= 2 }, waitFor, tick)
	assert.Equal(7, source.StreamWrite([]byte("rtcm3-1")))
	assert.Equal("rtcm3-1", string(readStream(t, &caster, 7)))

	/* ntrip client receives from the caster */
	require.Equal(t, 1, client.OpenStream(gnssrtk.STR_NTRIPCLI, gnssrtk.STR_MODE_R, "rover:secret@"+addr+"/BASE1"))
	defer client.StreamClose()
	require.Eventually(t, func() bool { return client.StreamStat(nil) >= 2 }, waitFor, tick)
	require.Eventually(t, func() bool { return caster.StreamWrite([]byte("corr")) == 4 }, waitFor, tick)
	assert.Equal("corr", string(readStream(t, &client, 4)))

	var msg string
	caster.StreamStatX(&msg)
	assert.Contains(msg, "mntpnt  = BASE1")
	assert.Contains(msg, "con1")
}

func Test_NtripReject(t *testing.T) {
	var caster, client, source gnssrtk.Stream
	assert := assert.New(t)

	require.Equal(t, 1, caster.OpenStream(gnssrtk.STR_NTRIPCAS, gnssrtk.STR_MODE_RW, "rover:secret@:0/BASE1"))
	defer caster.StreamClose()
	addr := loopback(t, caster.Port.(*gnssrtk.NTripc).Addr())

	/* wrong password */
	require.Equal(t, 1, client.OpenStream(gnssrtk.STR_NTRIPCLI, gnssrtk.STR_MODE_R, "rover:guess@"+addr+"/BASE1"))
	defer client.StreamClose()
	require.Eventually(t, func() bool {
		var msg string
		client.StreamStatX(&msg)
		return strings.Contains(msg, "401 Unauthorized")
	}, waitFor, tick)
	assert.Equal(1, client.StreamStat(nil))

	/* wrong mountpoint */
	require.Equal(t, 1, source.OpenStream(gnssrtk.STR_NTRIPSVR, gnssrtk.STR_MODE_W, ":secret@"+addr+"/BASE2"))
	defer source.StreamClose()
	require.Eventually(t, func() bool {
		var msg string
		source.StreamStatX(&msg)
		return strings.Contains(msg, "Bad Mountpoint")
	}, waitFor, tick)
	assert.Equal(1, caster.StreamStat(nil))

	/* caster needs a mountpoint */
	var bad gnssrtk.Stream
	assert.Zero(bad.OpenStream(gnssrtk.STR_NTRIPCAS, gnssrtk.STR_MODE_RW, ":0"))
}
