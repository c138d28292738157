/*------------------------------------------------------------------------------
* stream_net.go : tcp and udp stream ports
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  split from stream.go, connections served by
*                           goroutines, reconnect loop of tcp client
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const MAXCLI = 32 /* max client connection for tcp svr */

/* decode tcp/ntrip path -------------------------------------------------------
* path = [user[:passwd]@]addr[:port][/mntpnt[:str]]
*-----------------------------------------------------------------------------*/
func DecodeTcpPath(path string, addr, port, user, passwd, mntpnt, str *string) {
	set := func(p *string, v string) {
		if p != nil {
			*p = v
		}
	}
	Tracet(4, "decodetcpepath: path=%s\n", path)

	buff := path
	set(user, "")
	set(passwd, "")
	set(mntpnt, "")
	set(str, "")
	set(port, "")

	if index := strings.LastIndex(buff, "@"); index >= 0 {
		u, pw, _ := strings.Cut(buff[:index], ":")
		set(user, u)
		set(passwd, pw)
		buff = buff[index+1:]
	}
	if index := strings.Index(buff, "/"); index >= 0 {
		m, s, ok := strings.Cut(buff[index+1:], ":")
		set(mntpnt, m)
		if ok {
			set(str, s)
		}
		buff = buff[:index]
	}
	if index := strings.LastIndex(buff, ":"); index >= 0 {
		set(port, buff[index+1:])
		buff = buff[:index]
	}
	set(addr, buff)
}

func netDeadline(ms int) time.Time {
	return time.Now().Add(time.Duration(ms) * time.Millisecond)
}

/* tcp server ----------------------------------------------------------------*/
type TcpSvr struct {
	saddr  string         /* listen address */
	ln     net.Listener   /* listener */
	cli    []net.Conn     /* client connections */
	ring   *MemBuf        /* bytes received from clients */
	err    error          /* listener error */
	closed bool           /* closed by owner */
	lock   sync.Mutex     /* lock flag */
	done   sync.WaitGroup /* accept/reader goroutines */
}

/* open tcp server: path = :port ---------------------------------------------*/
func OpenTcpSvr(path string, msg *string) (*TcpSvr, error) {
	var port string
	Tracet(3, "opentcpsvr: path=%s\n", path)

	DecodeTcpPath(path, nil, &port, nil, nil, nil, nil)
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		*msg = "bind error"
		return nil, errors.Wrapf(err, "opentcpsvr: port=%s", port)
	}
	svr := &TcpSvr{saddr: ln.Addr().String(), ln: ln, ring: NewMemBuf(NETBUFFSIZE, true)}
	svr.done.Add(1)
	go svr.acceptLoop()
	*msg = fmt.Sprintf("listen %s", svr.saddr)
	return svr, nil
}

// Addr returns the listening address.
func (svr *TcpSvr) Addr() string { return svr.saddr }

func (svr *TcpSvr) acceptLoop() {
	defer svr.done.Done()
	for {
		conn, err := svr.ln.Accept()
		if err != nil {
			svr.lock.Lock()
			if !svr.closed {
				svr.err = err
				Tracet(2, "tcpsvr accept error: %v\n", err)
			}
			svr.lock.Unlock()
			return
		}
		svr.lock.Lock()
		if svr.closed || len(svr.cli) >= MAXCLI {
			svr.lock.Unlock()
			Tracet(2, "tcpsvr: connection refused %s\n", conn.RemoteAddr())
			conn.Close()
			continue
		}
		svr.cli = append(svr.cli, conn)
		svr.lock.Unlock()
		Tracet(3, "tcpsvr: connected %s\n", conn.RemoteAddr())

		svr.done.Add(1)
		go func(c net.Conn) {
			defer svr.done.Done()
			pump(c, svr.ring, func(err error) { svr.disconnect(c) })
		}(conn)
	}
}

func (svr *TcpSvr) disconnect(conn net.Conn) {
	svr.lock.Lock()
	defer svr.lock.Unlock()
	for i, c := range svr.cli {
		if c == conn {
			svr.cli = append(svr.cli[:i], svr.cli[i+1:]...)
			Tracet(3, "tcpsvr: disconnected %s\n", conn.RemoteAddr())
			break
		}
	}
	conn.Close()
}

func (svr *TcpSvr) close() {
	svr.lock.Lock()
	svr.closed = true
	svr.ln.Close()
	for _, c := range svr.cli {
		c.Close()
	}
	svr.lock.Unlock()
	svr.done.Wait()
}

func (svr *TcpSvr) read(buff []byte, msg *string) int {
	return svr.ring.read(buff, msg)
}

/* write to all connected clients --------------------------------------------*/
func (svr *TcpSvr) write(buff []byte, msg *string) int {
	var failed []net.Conn
	ns := 0

	svr.lock.Lock()
	clients := append([]net.Conn(nil), svr.cli...)
	svr.lock.Unlock()

	for _, c := range clients {
		c.SetWriteDeadline(netDeadline(TINTACT))
		n, err := c.Write(buff)
		if err != nil {
			failed = append(failed, c)
			continue
		}
		ns = max(ns, n)
	}
	for _, c := range failed {
		svr.disconnect(c)
	}
	*msg = fmt.Sprintf("%d clients", len(clients)-len(failed))
	return ns
}

// Clients returns the number of connected clients.
func (svr *TcpSvr) Clients() int {
	svr.lock.Lock()
	defer svr.lock.Unlock()
	return len(svr.cli)
}

func (svr *TcpSvr) state() int {
	svr.lock.Lock()
	defer svr.lock.Unlock()
	switch {
	case svr.err != nil:
		return -1
	case svr.closed:
		return 0
	case len(svr.cli) > 0:
		return 2
	}
	return 1
}

func (svr *TcpSvr) statex(msg *string) {
	state := svr.state()
	svr.lock.Lock()
	defer svr.lock.Unlock()
	*msg += "tcpsvr:\n"
	*msg += fmt.Sprintf("  state   = %d\n", state)
	*msg += fmt.Sprintf("  saddr   = %s\n", svr.saddr)
	for i, c := range svr.cli {
		*msg += fmt.Sprintf("  client%d = %s\n", i, c.RemoteAddr())
	}
}

// handshake runs on a new connection before data transfer. It returns the
// reader of the payload stream.
type handshake func(conn net.Conn) (io.Reader, error)

/* tcp client ----------------------------------------------------------------*/
type TcpClient struct {
	saddr   string         /* server address */
	conn    net.Conn       /* connection (nil: not connected) */
	stat    int            /* state (-1:error,0:close,1:wait,2:connect) */
	ring    *MemBuf        /* received bytes */
	toinact int            /* inactive timeout (ms) (0:no timeout) */
	tirecon int            /* reconnect interval (ms) (0:no reconnect) */
	hs      handshake      /* connection handshake (nil: none) */
	msg     string         /* last error message */
	stop    chan struct{}  /* closed on close */
	lock    sync.Mutex     /* lock flag */
	done    sync.WaitGroup /* connection goroutine */
}

func newTcpClient(saddr string, hs handshake, tinact int) *TcpClient {
	cli := &TcpClient{saddr: saddr, stat: 1, ring: NewMemBuf(NETBUFFSIZE, true),
		toinact: tinact, tirecon: ticonnect, hs: hs, stop: make(chan struct{})}
	cli.done.Add(1)
	go cli.connectLoop()
	return cli
}

/* open tcp client: path = addr:port -----------------------------------------*/
func OpenTcpClient(path string, msg *string) (*TcpClient, error) {
	var addr, port string
	Tracet(3, "opentcpcli: path=%s\n", path)

	DecodeTcpPath(path, &addr, &port, nil, nil, nil, nil)
	if len(addr) == 0 || len(port) == 0 {
		*msg = "address error"
		return nil, errors.Errorf("opentcpcli: address error path=%s", path)
	}
	*msg = net.JoinHostPort(addr, port)
	return newTcpClient(net.JoinHostPort(addr, port), nil, toinact), nil
}

func (cli *TcpClient) setState(stat int, msg string) {
	cli.lock.Lock()
	cli.stat = stat
	if len(msg) > 0 {
		cli.msg = msg
	}
	cli.lock.Unlock()
}

/* wait reconnect interval, false if closed ----------------------------------*/
func (cli *TcpClient) wait() bool {
	if cli.tirecon <= 0 {
		return false
	}
	select {
	case <-cli.stop:
		return false
	case <-time.After(time.Duration(cli.tirecon) * time.Millisecond):
		return true
	}
}

func (cli *TcpClient) connectLoop() {
	defer cli.done.Done()
	for {
		select {
		case <-cli.stop:
			return
		default:
		}
		conn, err := net.DialTimeout("tcp", cli.saddr, time.Duration(toinact)*time.Millisecond)
		if err != nil {
			Tracet(2, "tcpcli connect error: addr=%s err=%v\n", cli.saddr, err)
			cli.setState(1, "connect error")
			if !cli.wait() {
				cli.setState(-1, "")
				return
			}
			continue
		}
		var r io.Reader = conn
		if cli.hs != nil {
			if r, err = cli.hs(conn); err != nil {
				Tracet(2, "tcpcli handshake error: addr=%s err=%v\n", cli.saddr, err)
				conn.Close()
				cli.setState(1, err.Error())
				if !cli.wait() {
					cli.setState(-1, "")
					return
				}
				continue
			}
		}
		cli.lock.Lock()
		cli.conn, cli.stat = conn, 2
		cli.lock.Unlock()
		Tracet(3, "tcpcli: connected %s\n", cli.saddr)

		if cli.toinact > 0 {
			r = &inactReader{conn: conn, r: r, timeout: cli.toinact}
		}
		pump(r, cli.ring, func(err error) {
			Tracet(2, "tcpcli disconnected: addr=%s err=%v\n", cli.saddr, err)
		})
		cli.lock.Lock()
		cli.conn.Close()
		cli.conn, cli.stat = nil, 1
		cli.lock.Unlock()
		if !cli.wait() {
			cli.setState(0, "")
			return
		}
	}
}

// inactReader fails reads after the connection stays silent for timeout ms.
type inactReader struct {
	conn    net.Conn
	r       io.Reader
	timeout int
}

func (ir *inactReader) Read(p []byte) (int, error) {
	ir.conn.SetReadDeadline(netDeadline(ir.timeout))
	return ir.r.Read(p)
}

func (cli *TcpClient) close() {
	close(cli.stop)
	cli.lock.Lock()
	if cli.conn != nil {
		cli.conn.Close()
	}
	cli.lock.Unlock()
	cli.done.Wait()
	cli.setState(0, "")
}

func (cli *TcpClient) read(buff []byte, msg *string) int {
	return cli.ring.read(buff, msg)
}

func (cli *TcpClient) write(buff []byte, msg *string) int {
	cli.lock.Lock()
	conn := cli.conn
	cli.lock.Unlock()
	if conn == nil {
		return 0
	}
	conn.SetWriteDeadline(netDeadline(TINTACT))
	ns, err := conn.Write(buff)
	if err != nil {
		*msg = err.Error()
		conn.Close()
	}
	return ns
}

func (cli *TcpClient) state() int {
	cli.lock.Lock()
	defer cli.lock.Unlock()
	return cli.stat
}

func (cli *TcpClient) statex(msg *string) {
	cli.lock.Lock()
	defer cli.lock.Unlock()
	*msg += "tcpcli:\n"
	*msg += fmt.Sprintf("  state   = %d\n", cli.stat)
	*msg += fmt.Sprintf("  saddr   = %s\n", cli.saddr)
	*msg += fmt.Sprintf("  toinact = %d\n", cli.toinact)
	*msg += fmt.Sprintf("  tirecon = %d\n", cli.tirecon)
	if len(cli.msg) > 0 {
		*msg += fmt.Sprintf("  error   = %s\n", cli.msg)
	}
}

/* udp -----------------------------------------------------------------------*/
type UdpConn struct {
	ctype int            /* type (0:server,1:client) */
	saddr string         /* address (server:listen,client:server) */
	pc    net.PacketConn /* server socket */
	conn  net.Conn       /* client socket */
	ring  *MemBuf        /* received datagrams */
	err   error          /* socket error */
	lock  sync.Mutex
	done  sync.WaitGroup
}

/* open udp server: path = :port ---------------------------------------------*/
func OpenUdpSvr(path string, msg *string) (*UdpConn, error) {
	var port string
	Tracet(3, "openudpsvr: path=%s\n", path)

	DecodeTcpPath(path, nil, &port, nil, nil, nil, nil)
	pc, err := net.ListenPacket("udp", ":"+port)
	if err != nil {
		*msg = "bind error"
		return nil, errors.Wrapf(err, "openudpsvr: port=%s", port)
	}
	udp := &UdpConn{ctype: 0, saddr: pc.LocalAddr().String(), pc: pc, ring: NewMemBuf(NETBUFFSIZE, true)}
	udp.done.Add(1)
	go func() {
		defer udp.done.Done()
		var rmsg string
		buff := make([]byte, SERIBUFFSIZE)
		for {
			n, _, err := pc.ReadFrom(buff)
			if n > 0 {
				udp.ring.write(buff[:n], &rmsg)
			}
			if err != nil {
				udp.fail(err)
				return
			}
		}
	}()
	*msg = fmt.Sprintf("listen %s", udp.saddr)
	return udp, nil
}

/* open udp client: path = addr:port -----------------------------------------*/
func OpenUdpClient(path string, msg *string) (*UdpConn, error) {
	var addr, port string
	Tracet(3, "openudpcli: path=%s\n", path)

	DecodeTcpPath(path, &addr, &port, nil, nil, nil, nil)
	conn, err := net.Dial("udp", net.JoinHostPort(addr, port))
	if err != nil {
		*msg = "address error"
		return nil, errors.Wrapf(err, "openudpcli: path=%s", path)
	}
	*msg = conn.RemoteAddr().String()
	return &UdpConn{ctype: 1, saddr: *msg, conn: conn}, nil
}

// Addr returns the local address of a server or the remote address of a client.
func (udp *UdpConn) Addr() string { return udp.saddr }

func (udp *UdpConn) fail(err error) {
	udp.lock.Lock()
	if udp.pc != nil || udp.conn != nil {
		udp.err = err
	}
	udp.lock.Unlock()
}

func (udp *UdpConn) close() {
	udp.lock.Lock()
	pc, conn := udp.pc, udp.conn
	udp.pc, udp.conn = nil, nil
	udp.lock.Unlock()
	if pc != nil {
		pc.Close()
	}
	if conn != nil {
		conn.Close()
	}
	udp.done.Wait()
}

func (udp *UdpConn) read(buff []byte, msg *string) int {
	if udp.ring == nil {
		return 0
	}
	return udp.ring.read(buff, msg)
}

func (udp *UdpConn) write(buff []byte, msg *string) int {
	udp.lock.Lock()
	conn := udp.conn
	udp.lock.Unlock()
	if conn == nil {
		return 0
	}
	ns, err := conn.Write(buff)
	if err != nil {
		udp.fail(err)
		*msg = err.Error()
	}
	return ns
}

func (udp *UdpConn) state() int {
	udp.lock.Lock()
	defer udp.lock.Unlock()
	switch {
	case udp.err != nil:
		return -1
	case udp.pc == nil && udp.conn == nil:
		return 0
	}
	return 2
}

func (udp *UdpConn) statex(msg *string) {
	*msg += "udp:\n"
	*msg += fmt.Sprintf("  state   = %d\n", udp.state())
	*msg += fmt.Sprintf("  type    = %d\n", udp.ctype)
	*msg += fmt.Sprintf("  saddr   = %s\n", udp.saddr)
}
