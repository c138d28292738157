/*------------------------------------------------------------------------------
* stream_ntrip.go : ntrip client/server and ntrip caster stream ports
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1] RTCM Standard 10410.1, Networked Transport of RTCM via Internet
*         Protocol (Ntrip) version 1.0, September 30, 2004
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  split from stream.go, request/response handshake
*                           on tcp client, caster sources and clients
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	NTRIP_SERVER       = 0 /* ntrip type: server */
	NTRIP_CLIENT       = 1 /* ntrip type: client */
	NTRIP_AGENT        = "GNSSRTK/" + VER_GNSSRTK
	NTRIP_CLI_PORT     = "2101"                     /* default ntrip-client connection port */
	NTRIP_SVR_PORT     = "80"                       /* default ntrip-server connection port */
	NTRIP_MAXRSP       = 32768                      /* max size of ntrip response */
	NTRIP_MAXSTR       = 256                        /* max length of mountpoint string */
	NTRIP_RSP_OK_CLI   = "ICY 200 OK\r\n"           /* ntrip response: client */
	NTRIP_RSP_OK_SVR   = "OK\r\n"                   /* ntrip response: server */
	NTRIP_RSP_SRCTBL   = "SOURCETABLE 200 OK\r\n"   /* ntrip response: source table */
	NTRIP_RSP_TBLEND   = "ENDSOURCETABLE"           /* ntrip response: source table end */
	NTRIP_RSP_HTTP     = "HTTP/"                    /* ntrip response: http */
	NTRIP_RSP_ERROR    = "ERROR"                    /* ntrip response: error */
	NTRIP_RSP_UNAUTH   = "HTTP/1.0 401 Unauthorized\r\n"
	NTRIP_RSP_ERR_PWD  = "ERROR - Bad Pasword\r\n"
	NTRIP_RSP_ERR_MNTP = "ERROR - Bad Mountpoint\r\n"
)

var ErrNtripResponse = errors.New("ntrip response error")

/* ntrip client/server -------------------------------------------------------*/
type NTrip struct {
	ctype  int        /* type (0:server,1:client) */
	mntpnt string     /* mountpoint */
	user   string     /* user */
	passwd string     /* password */
	str    string     /* mountpoint string for server */
	tcp    *TcpClient /* tcp client */
}

/* open ntrip ------------------------------------------------------------------
* client: path = [user[:passwd]@]addr[:port]/mntpnt
* server: path = [:passwd@]addr[:port]/mntpnt[:str]
*-----------------------------------------------------------------------------*/
func OpenNtrip(path string, ctype int, msg *string) (*NTrip, error) {
	var addr, port string
	ntrip := &NTrip{ctype: ctype}
	Tracet(3, "openntrip: path=%s type=%d\n", path, ctype)

	DecodeTcpPath(path, &addr, &port, &ntrip.user, &ntrip.passwd, &ntrip.mntpnt, &ntrip.str)
	if len(port) == 0 {
		port = NTRIP_CLI_PORT
		if ctype == NTRIP_SERVER {
			port = NTRIP_SVR_PORT
		}
	}
	if len(addr) == 0 {
		*msg = "address error"
		return nil, errors.Errorf("openntrip: address error path=%s", path)
	}
	saddr := net.JoinHostPort(addr, port)
	tinact := toinact
	if ctype == NTRIP_SERVER {
		tinact = 0 /* server receives nothing after response */
	}
	ntrip.tcp = newTcpClient(saddr, ntrip.handshake, tinact)
	*msg = fmt.Sprintf("%s/%s", saddr, ntrip.mntpnt)
	return ntrip, nil
}

/* ntrip request ---------------------------------------------------------------*/
func (ntrip *NTrip) request() string {
	var b strings.Builder
	if ntrip.ctype == NTRIP_SERVER {
		fmt.Fprintf(&b, "SOURCE %s /%s\r\n", ntrip.passwd, ntrip.mntpnt)
		fmt.Fprintf(&b, "Source-Agent: NTRIP %s\r\n", NTRIP_AGENT)
		fmt.Fprintf(&b, "STR: %s\r\n", ntrip.str)
		b.WriteString("\r\n")
		return b.String()
	}
	fmt.Fprintf(&b, "GET /%s HTTP/1.0\r\n", ntrip.mntpnt)
	fmt.Fprintf(&b, "User-Agent: NTRIP %s\r\n", NTRIP_AGENT)
	if len(ntrip.user) == 0 {
		b.WriteString("Accept: */*\r\n")
		b.WriteString("Connection: close\r\n")
	} else {
		auth := base64.StdEncoding.EncodeToString([]byte(ntrip.user + ":" + ntrip.passwd))
		fmt.Fprintf(&b, "Authorization: Basic %s\r\n", auth)
	}
	b.WriteString("\r\n")
	return b.String()
}

/* send request and test response ----------------------------------------------
* the reader returned keeps the bytes following the response line
*-----------------------------------------------------------------------------*/
func (ntrip *NTrip) handshake(conn net.Conn) (io.Reader, error) {
	req := ntrip.request()
	Tracet(5, "reqntrip: n=%d buff=\n%s\n", len(req), req)

	conn.SetWriteDeadline(netDeadline(toinact))
	if _, err := conn.Write([]byte(req)); err != nil {
		return nil, errors.Wrap(err, "send ntrip request")
	}
	conn.SetReadDeadline(netDeadline(toinact))
	rd := bufio.NewReaderSize(conn, NTRIP_MAXRSP)
	line, err := rd.ReadString('\n')
	if err != nil {
		return nil, errors.Wrap(err, "receive ntrip response")
	}
	conn.SetReadDeadline(time.Time{})
	Tracet(3, "rspntrip: %s", line)

	switch {
	case ntrip.ctype == NTRIP_CLIENT && line == NTRIP_RSP_OK_CLI:
		return rd, nil
	case ntrip.ctype == NTRIP_SERVER && (line == NTRIP_RSP_OK_SVR || strings.HasPrefix(line, NTRIP_RSP_OK_CLI)):
		return rd, nil
	case line == NTRIP_RSP_SRCTBL:
		if ntrip.ctype == NTRIP_CLIENT && len(ntrip.mntpnt) == 0 {
			return rd, nil /* source table request */
		}
		return nil, errors.Wrap(ErrNtripResponse, "no mountpoint")
	}
	return nil, errors.Wrap(ErrNtripResponse, strings.TrimSpace(line))
}

func (ntrip *NTrip) close() { ntrip.tcp.close() }

func (ntrip *NTrip) read(buff []byte, msg *string) int {
	return ntrip.tcp.read(buff, msg)
}

func (ntrip *NTrip) write(buff []byte, msg *string) int {
	return ntrip.tcp.write(buff, msg)
}

func (ntrip *NTrip) state() int { return ntrip.tcp.state() }

func (ntrip *NTrip) statex(msg *string) {
	*msg += "ntrip:\n"
	*msg += fmt.Sprintf("  type    = %d\n", ntrip.ctype)
	*msg += fmt.Sprintf("  mntpnt  = %s\n", ntrip.mntpnt)
	*msg += fmt.Sprintf("  user    = %s\n", ntrip.user)
	ntrip.tcp.statex(msg)
}

/* ntrip caster --------------------------------------------------------------*/
type ntripcCon struct {
	conn   net.Conn /* connection */
	ctype  int      /* type (0:source,1:client) */
	mntpnt string   /* mountpoint */
}

type NTripc struct {
	mntpnt string         /* mountpoint */
	user   string         /* user */
	passwd string         /* password */
	srctbl string         /* source table entry */
	saddr  string         /* listen address */
	ln     net.Listener   /* listener */
	con    []*ntripcCon   /* accepted sources and clients */
	ring   *MemBuf        /* bytes received from sources */
	err    error          /* listener error */
	closed bool           /* closed by owner */
	lock   sync.Mutex     /* lock flag */
	done   sync.WaitGroup /* accept/connection goroutines */
}

/* open ntrip caster: path = [user[:passwd]@][:port]/mntpnt[:srctbl] -----------*/
func OpenNtripc(path string, msg *string) (*NTripc, error) {
	var port string
	c := &NTripc{ring: NewMemBuf(NETBUFFSIZE, true)}
	Tracet(3, "openntripc: path=%s\n", path)

	DecodeTcpPath(path, nil, &port, &c.user, &c.passwd, &c.mntpnt, &c.srctbl)
	if len(c.mntpnt) == 0 {
		*msg = "no mountpoint"
		return nil, errors.Errorf("openntripc: no mountpoint path=%s", path)
	}
	if len(port) == 0 {
		port = NTRIP_CLI_PORT
	}
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		*msg = "bind error"
		return nil, errors.Wrapf(err, "openntripc: port=%s", port)
	}
	c.ln, c.saddr = ln, ln.Addr().String()
	c.done.Add(1)
	go c.acceptLoop()
	*msg = fmt.Sprintf("%s/%s", c.saddr, c.mntpnt)
	return c, nil
}

// Addr returns the listening address.
func (c *NTripc) Addr() string { return c.saddr }

func (c *NTripc) acceptLoop() {
	defer c.done.Done()
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			c.lock.Lock()
			if !c.closed {
				c.err = err
			}
			c.lock.Unlock()
			return
		}
		c.done.Add(1)
		go func() {
			defer c.done.Done()
			c.serve(conn)
		}()
	}
}

/* send source table ---------------------------------------------------------*/
func (c *NTripc) sendSrcTbl(conn net.Conn) {
	srctbl := fmt.Sprintf("STR;%s;%s\r\n%s\r\n", c.mntpnt, c.srctbl, NTRIP_RSP_TBLEND)
	var b strings.Builder
	b.WriteString(NTRIP_RSP_SRCTBL)
	fmt.Fprintf(&b, "Server: %s %s\r\n", NTRIP_AGENT, PATCH_LEVEL)
	fmt.Fprintf(&b, "Date: %s UTC\r\n", TimeStr(TimeGet(), 0))
	b.WriteString("Connection: close\r\n")
	b.WriteString("Content-Type: text/plain\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n\r\n", len(srctbl))
	b.WriteString(srctbl)
	conn.Write([]byte(b.String()))
}

/* read request header lines -------------------------------------------------*/
func readHeader(rd *bufio.Reader) ([]string, error) {
	var lines []string
	size := 0
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return nil, err
		}
		if size += len(line); size >= NTRIP_MAXRSP {
			return nil, errors.New("request buffer overflow")
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) == 0 {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

func headerValue(lines []string, key string) string {
	for _, line := range lines[1:] {
		if k, v, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(k), key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

/* serve a caster connection -------------------------------------------------*/
func (c *NTripc) serve(conn net.Conn) {
	conn.SetReadDeadline(netDeadline(toinact))
	rd := bufio.NewReaderSize(conn, NTRIP_MAXRSP)
	lines, err := readHeader(rd)
	if err != nil || len(lines) == 0 {
		Tracet(2, "ntripc: request error %s err=%v\n", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	f := strings.Fields(lines[0])
	con := &ntripcCon{conn: conn}

	switch {
	case len(f) >= 3 && f[0] == "SOURCE": /* ntrip server: SOURCE passwd /mntpnt */
		con.ctype, con.mntpnt = NTRIP_SERVER, strings.TrimPrefix(f[2], "/")
		if len(c.passwd) > 0 && f[1] != c.passwd {
			conn.Write([]byte(NTRIP_RSP_ERR_PWD))
			conn.Close()
			return
		}
		if con.mntpnt != c.mntpnt {
			conn.Write([]byte(NTRIP_RSP_ERR_MNTP))
			conn.Close()
			return
		}
		conn.Write([]byte(NTRIP_RSP_OK_SVR))
	case len(f) >= 3 && f[0] == "GET" && (f[2] == "HTTP/1.0" || f[2] == "HTTP/1.1"):
		con.ctype, con.mntpnt = NTRIP_CLIENT, strings.TrimPrefix(f[1], "/")
		if con.mntpnt != c.mntpnt {
			Tracet(2, "ntripc: no mountpoint %s\n", con.mntpnt)
			c.sendSrcTbl(conn)
			conn.Close()
			return
		}
		if len(c.passwd) > 0 {
			auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(c.user+":"+c.passwd))
			if headerValue(lines, "Authorization") != auth {
				Tracet(2, "ntripc: authorization error\n")
				conn.Write([]byte(NTRIP_RSP_UNAUTH))
				conn.Close()
				return
			}
		}
		conn.Write([]byte(NTRIP_RSP_OK_CLI))
	default:
		Tracet(2, "ntripc: request error %s\n", lines[0])
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})

	c.lock.Lock()
	if c.closed || len(c.con) >= MAXCLI {
		c.lock.Unlock()
		conn.Close()
		return
	}
	c.con = append(c.con, con)
	c.lock.Unlock()
	Tracet(3, "ntripc: connected %s type=%d\n", conn.RemoteAddr(), con.ctype)

	if con.ctype == NTRIP_SERVER {
		pump(rd, c.ring, func(err error) { c.disconnect(con) })
		return
	}
	io.Copy(io.Discard, rd) /* wait client disconnect */
	c.disconnect(con)
}

func (c *NTripc) disconnect(con *ntripcCon) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i, p := range c.con {
		if p == con {
			c.con = append(c.con[:i], c.con[i+1:]...)
			break
		}
	}
	con.conn.Close()
}

func (c *NTripc) close() {
	c.lock.Lock()
	c.closed = true
	c.ln.Close()
	for _, con := range c.con {
		con.conn.Close()
	}
	c.lock.Unlock()
	c.done.Wait()
}

/* read data from ntrip sources ----------------------------------------------*/
func (c *NTripc) read(buff []byte, msg *string) int {
	return c.ring.read(buff, msg)
}

/* write data to ntrip clients -----------------------------------------------*/
func (c *NTripc) write(buff []byte, msg *string) int {
	var failed []*ntripcCon
	ns := 0

	c.lock.Lock()
	cons := append([]*ntripcCon(nil), c.con...)
	c.lock.Unlock()

	for _, con := range cons {
		if con.ctype != NTRIP_CLIENT {
			continue
		}
		con.conn.SetWriteDeadline(netDeadline(TINTACT))
		n, err := con.conn.Write(buff)
		if err != nil {
			failed = append(failed, con)
			continue
		}
		ns = max(ns, n)
	}
	for _, con := range failed {
		c.disconnect(con)
	}
	return ns
}

func (c *NTripc) state() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	switch {
	case c.err != nil:
		return -1
	case c.closed:
		return 0
	case len(c.con) > 0:
		return 2
	}
	return 1
}

func (c *NTripc) statex(msg *string) {
	state := c.state()
	c.lock.Lock()
	defer c.lock.Unlock()
	*msg += "ntripc:\n"
	*msg += fmt.Sprintf("  state   = %d\n", state)
	*msg += fmt.Sprintf("  mntpnt  = %s\n", c.mntpnt)
	*msg += fmt.Sprintf("  saddr   = %s\n", c.saddr)
	for i, con := range c.con {
		*msg += fmt.Sprintf("  con%d    = %s type=%d\n", i, con.conn.RemoteAddr(), con.ctype)
	}
}
