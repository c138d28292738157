/*------------------------------------------------------------------------------
* stream.go : stream input/output functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  port interface, background readers filling memory
*                           rings for serial and network transports
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	serial "github.com/tarm/goserial"
)

/* constants -----------------------------------------------------------------*/
const (
	TINTACT             = 200   /* period for stream active (ms) */
	SERIBUFFSIZE        = 4096  /* serial buffer size (bytes) */
	DEFAULT_MEMBUF_SIZE = 4096  /* default memory buffer size (bytes) */
	NETBUFFSIZE         = 32768 /* receive ring size of network ports (bytes) */
)

/* global options ------------------------------------------------------------*/
var (
	toinact   int = 10000 /* inactive timeout (ms) */
	ticonnect int = 1000  /* interval to re-connect (ms) */
	tirate    int = 1000  /* averaging time for data rate (ms) */
)

// port is a type dependent stream port. read and write never block.
type port interface {
	read(buff []byte, msg *string) int
	write(buff []byte, msg *string) int
	state() int /* -1:error,0:close,1:wait,2:connect */
	statex(msg *string)
	close()
}

// MemBuf is a ring buffer of bytes. A plain memory buffer stream goes to the
// error state on overflow; rings filled by background readers drop the oldest
// bytes instead.
type MemBuf struct {
	stat, wp, rp int        /* state,write/read pointer */
	bufsize      int        /* buffer size (bytes) */
	overwrite    bool       /* drop oldest bytes on overflow */
	overrun      uint32     /* bytes dropped by overflow */
	lock         sync.Mutex /* lock flag */
	buf          []byte     /* write buffer */
}

func NewMemBuf(bufsize int, overwrite bool) *MemBuf {
	if bufsize < 2 {
		bufsize = DEFAULT_MEMBUF_SIZE
	}
	return &MemBuf{stat: 1, bufsize: bufsize, overwrite: overwrite, buf: make([]byte, bufsize)}
}

/* open memory buffer: path = [size] -----------------------------------------*/
func OpenMemBuf(path string, msg *string) *MemBuf {
	bufsize := DEFAULT_MEMBUF_SIZE
	Tracet(3, "openmembuf: path=%s\n", path)

	fmt.Sscanf(path, "%d", &bufsize)
	membuf := NewMemBuf(bufsize, false)
	*msg = fmt.Sprintf("membuf sizebuf=%d", membuf.bufsize)
	return membuf
}

func (membuf *MemBuf) close() {
	Tracet(3, "closemembuf\n")
	membuf.lock.Lock()
	membuf.stat = 0
	membuf.rp, membuf.wp = 0, 0
	membuf.lock.Unlock()
}

// Len returns the number of buffered bytes.
func (membuf *MemBuf) Len() int {
	membuf.lock.Lock()
	defer membuf.lock.Unlock()
	return (membuf.wp - membuf.rp + membuf.bufsize) % membuf.bufsize
}

func (membuf *MemBuf) read(buff []byte, msg *string) int {
	nr := 0
	membuf.lock.Lock()
	for membuf.rp != membuf.wp && nr < len(buff) {
		buff[nr] = membuf.buf[membuf.rp]
		nr++
		if membuf.rp++; membuf.rp >= membuf.bufsize {
			membuf.rp = 0
		}
	}
	membuf.lock.Unlock()
	Tracet(5, "readmembuf: nr=%d\n", nr)
	return nr
}

func (membuf *MemBuf) write(buff []byte, msg *string) int {
	Tracet(4, "writemembuf: n=%d\n", len(buff))

	membuf.lock.Lock()
	defer membuf.lock.Unlock()
	if membuf.stat <= 0 {
		return 0
	}
	for i := range buff {
		next := (membuf.wp + 1) % membuf.bufsize
		if next == membuf.rp {
			if !membuf.overwrite {
				*msg = "mem-buffer overflow"
				membuf.stat = -1
				return i
			}
			membuf.rp = (membuf.rp + 1) % membuf.bufsize
			membuf.overrun++
		}
		membuf.buf[membuf.wp] = buff[i]
		membuf.wp = next
	}
	return len(buff)
}

func (membuf *MemBuf) state() int {
	membuf.lock.Lock()
	defer membuf.lock.Unlock()
	return membuf.stat
}

func (membuf *MemBuf) statex(msg *string) {
	membuf.lock.Lock()
	defer membuf.lock.Unlock()
	*msg += "membuf:\n"
	*msg += fmt.Sprintf("  state   = %d\n", membuf.stat)
	*msg += fmt.Sprintf("  buffsize= %d\n", membuf.bufsize)
	*msg += fmt.Sprintf("  wp      = %d\n", membuf.wp)
	*msg += fmt.Sprintf("  rp      = %d\n", membuf.rp)
	*msg += fmt.Sprintf("  overrun = %d\n", membuf.overrun)
}

// pump copies r into the ring until r fails, then reports the error.
func pump(r io.Reader, ring *MemBuf, done func(err error)) {
	var msg string
	buff := make([]byte, SERIBUFFSIZE)
	for {
		n, err := r.Read(buff)
		if n > 0 {
			ring.write(buff[:n], &msg)
		}
		if err != nil {
			done(err)
			return
		}
	}
}

/* file ----------------------------------------------------------------------*/
type FileType struct {
	fp   *os.File   /* file pointer */
	path string     /* file path */
	mode int        /* file mode */
	err  error      /* last i/o error */
	lock sync.Mutex /* lock flag */
}

/* open file: path = path[::T] (options after "::" are ignored) ----------------*/
func OpenStreamFile(path string, mode int, msg *string) (*FileType, error) {
	Tracet(3, "openfile: path=%s mode=%d\n", path, mode)

	if idx := strings.Index(path, "::"); idx >= 0 {
		path = path[:idx]
	}
	if mode&(STR_MODE_R|STR_MODE_W) == 0 || len(path) == 0 {
		return nil, errors.Errorf("invalid file stream path=%s mode=%d", path, mode)
	}
	flag := os.O_RDONLY
	if mode&STR_MODE_W != 0 {
		flag = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if mode&STR_MODE_R != 0 {
			flag = os.O_CREATE | os.O_RDWR
		}
	}
	fp, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		*msg = "file open error"
		return nil, errors.Wrapf(err, "file open error: %s", path)
	}
	*msg = path
	return &FileType{fp: fp, path: path, mode: mode}, nil
}

func (file *FileType) close() {
	file.lock.Lock()
	defer file.lock.Unlock()
	if file.fp != nil {
		file.fp.Close()
		file.fp = nil
	}
}

func (file *FileType) read(buff []byte, msg *string) int {
	file.lock.Lock()
	defer file.lock.Unlock()
	if file.fp == nil {
		return 0
	}
	nr, err := file.fp.Read(buff)
	if err != nil && err != io.EOF {
		file.err = err
		*msg = err.Error()
	}
	return nr
}

func (file *FileType) write(buff []byte, msg *string) int {
	file.lock.Lock()
	defer file.lock.Unlock()
	if file.fp == nil {
		return 0
	}
	ns, err := file.fp.Write(buff)
	if err != nil {
		file.err = err
		*msg = err.Error()
	}
	return ns
}

func (file *FileType) state() int {
	file.lock.Lock()
	defer file.lock.Unlock()
	if file.err != nil {
		return -1
	}
	if file.fp == nil {
		return 0
	}
	return 2
}

func (file *FileType) statex(msg *string) {
	*msg += "file:\n"
	*msg += fmt.Sprintf("  state   = %d\n", file.state())
	*msg += fmt.Sprintf("  path    = %s\n", file.path)
	*msg += fmt.Sprintf("  mode    = %d\n", file.mode)
}

/* serial --------------------------------------------------------------------*/
type SerialComm struct {
	port     string             /* device name */
	brate    int                /* bit rate */
	serialio io.ReadWriteCloser /* serial device */
	ring     *MemBuf            /* received bytes */
	err      error              /* device error */
	lock     sync.Mutex
	done     sync.WaitGroup
}

var serialBitRates = []int{300, 600, 1200, 2400, 4800, 9600, 19200, 38400, 57600,
	115200, 230400, 460800, 921600}

/* open serial: path = port[:brate[:bsize[:parity[:stopb[:fctr]]]]] ------------*/
func OpenSerial(path string, mode int, msg *string) (*SerialComm, error) {
	brate := 9600
	port := path
	Tracet(3, "openserial: path=%s mode=%d\n", path, mode)

	if index := strings.Index(path, ":"); index > 0 {
		port = path[:index]
		fmt.Sscanf(path[index:], ":%d", &brate)
	}
	if i := sort.SearchInts(serialBitRates, brate); i >= len(serialBitRates) || serialBitRates[i] != brate {
		*msg = fmt.Sprintf("bitrate error (%d)", brate)
		return nil, errors.Errorf("openserial: %s path=%s", *msg, path)
	}
	s, err := serial.OpenPort(&serial.Config{Name: port, Baud: brate})
	if err != nil {
		*msg = fmt.Sprintf("%s open error", port)
		return nil, errors.Wrapf(err, "openserial: %s", port)
	}
	seri := &SerialComm{port: port, brate: brate, serialio: s, ring: NewMemBuf(SERIBUFFSIZE*4, true)}
	if mode&STR_MODE_R != 0 {
		seri.done.Add(1)
		go func() {
			defer seri.done.Done()
			pump(s, seri.ring, seri.fail)
		}()
	}
	*msg = fmt.Sprintf("%s %d bps", port, brate)
	return seri, nil
}

func (seri *SerialComm) fail(err error) {
	seri.lock.Lock()
	if seri.serialio != nil {
		seri.err = err
		Tracet(2, "serial error: port=%s err=%v\n", seri.port, err)
	}
	seri.lock.Unlock()
}

func (seri *SerialComm) close() {
	seri.lock.Lock()
	s := seri.serialio
	seri.serialio = nil
	seri.lock.Unlock()
	if s != nil {
		s.Close()
	}
	seri.done.Wait()
}

func (seri *SerialComm) read(buff []byte, msg *string) int {
	return seri.ring.read(buff, msg)
}

func (seri *SerialComm) write(buff []byte, msg *string) int {
	seri.lock.Lock()
	defer seri.lock.Unlock()
	if seri.serialio == nil || seri.err != nil {
		return 0
	}
	ns, err := seri.serialio.Write(buff)
	if err != nil {
		seri.err = err
		*msg = err.Error()
	}
	return ns
}

func (seri *SerialComm) state() int {
	seri.lock.Lock()
	defer seri.lock.Unlock()
	switch {
	case seri.err != nil:
		return -1
	case seri.serialio == nil:
		return 0
	}
	return 2
}

func (seri *SerialComm) statex(msg *string) {
	*msg += "serial:\n"
	*msg += fmt.Sprintf("  state   = %d\n", seri.state())
	*msg += fmt.Sprintf("  port    = %s\n", seri.port)
	*msg += fmt.Sprintf("  brate   = %d\n", seri.brate)
}

/* open stream -----------------------------------------------------------------
* open stream for read or write
* args   : int    ctype     I   stream type (STR_???)
*          int    mode      I   stream mode (STR_MODE_???)
*          string path      I   stream path (see below)
* return : status (0:error,1:ok)
* notes  : see options of each port for path
*          STR_SERIAL   port[:brate[:bsize[:parity[:stopb[:fctr]]]]]
*          STR_FILE     path[::T]
*          STR_TCPSVR   :port
*          STR_TCPCLI   addr:port
*          STR_NTRIPSVR [:passwd@]addr[:port]/mntpnt[:str]
*          STR_NTRIPCLI [user[:passwd]@]addr[:port]/mntpnt
*          STR_NTRIPCAS [user[:passwd]@][:port]/mntpnt
*          STR_UDPSVR   :port
*          STR_UDPCLI   addr:port
*          STR_MEMBUF   [size]
*-----------------------------------------------------------------------------*/
func (stream *Stream) OpenStream(ctype, mode int, path string) int {
	var (
		p   port
		err error
	)
	Tracet(3, "stropen: type=%d mode=%d path=%s\n", ctype, mode, path)

	stream.Lock.Lock()
	defer stream.Lock.Unlock()

	stream.Type = ctype
	stream.Mode = mode
	stream.Path = path
	stream.InBytes, stream.InRate, stream.OutBytes, stream.OutRate = 0, 0, 0, 0
	stream.TickInput = TickGet()
	stream.TickOutput = stream.TickInput
	stream.InByteTick, stream.OutByteTick = 0, 0
	stream.Msg = ""
	stream.Port = nil

	switch ctype {
	case STR_SERIAL:
		var seri *SerialComm
		if seri, err = OpenSerial(path, mode, &stream.Msg); err == nil {
			p = seri
		}
	case STR_FILE:
		var file *FileType
		if file, err = OpenStreamFile(path, mode, &stream.Msg); err == nil {
			p = file
		}
	case STR_TCPSVR:
		var svr *TcpSvr
		if svr, err = OpenTcpSvr(path, &stream.Msg); err == nil {
			p = svr
		}
	case STR_TCPCLI:
		var cli *TcpClient
		if cli, err = OpenTcpClient(path, &stream.Msg); err == nil {
			p = cli
		}
	case STR_NTRIPSVR, STR_NTRIPCLI:
		var ntrip *NTrip
		ntype := NTRIP_SERVER
		if ctype == STR_NTRIPCLI {
			ntype = NTRIP_CLIENT
		}
		if ntrip, err = OpenNtrip(path, ntype, &stream.Msg); err == nil {
			p = ntrip
		}
	case STR_NTRIPCAS:
		var caster *NTripc
		if caster, err = OpenNtripc(path, &stream.Msg); err == nil {
			p = caster
		}
	case STR_UDPSVR:
		var udp *UdpConn
		if udp, err = OpenUdpSvr(path, &stream.Msg); err == nil {
			p = udp
		}
	case STR_UDPCLI:
		var udp *UdpConn
		if udp, err = OpenUdpClient(path, &stream.Msg); err == nil {
			p = udp
		}
	case STR_MEMBUF:
		p = OpenMemBuf(path, &stream.Msg)
	default:
		stream.State = 0
		return 1
	}
	if err != nil {
		Tracet(1, "stropen: %v\n", err)
		stream.State = -1
		return 0
	}
	stream.Port = p
	stream.State = 1
	return 1
}

/* close stream --------------------------------------------------------------*/
func (stream *Stream) StreamClose() {
	Tracet(3, "strclose: type=%d mode=%d\n", stream.Type, stream.Mode)

	stream.Lock.Lock()
	defer stream.Lock.Unlock()

	if stream.Port != nil {
		stream.Port.close()
	}
	stream.Type = 0
	stream.Mode = 0
	stream.State = 0
	stream.InRate, stream.OutRate = 0, 0
	stream.Path = ""
	stream.Msg = ""
	stream.Port = nil
}

/* read stream -----------------------------------------------------------------
* read data from stream (unblocked)
* args   : []byte buff      O   data buffer
* return : read data length
* notes  : if no data, return immediately with no data
*-----------------------------------------------------------------------------*/
func (stream *Stream) StreamRead(buff []byte) int {
	tick := TickGet()

	stream.Lock.Lock()
	defer stream.Lock.Unlock()

	if stream.Mode&STR_MODE_R == 0 || stream.Port == nil {
		return 0
	}
	nr := stream.Port.read(buff, &stream.Msg)
	if nr > 0 {
		stream.InBytes += uint32(nr)
		stream.TickActive = tick
	}
	if tt := int(tick - stream.TickInput); tt >= tirate {
		stream.InRate = uint32(float64(stream.InBytes-stream.InByteTick) * 8.0 / (float64(tt) * 0.001))
		stream.TickInput = tick
		stream.InByteTick = stream.InBytes
	}
	return nr
}

/* write stream ----------------------------------------------------------------
* write data to stream (unblocked)
* args   : []byte buff      I   data buffer
* return : written data length
*-----------------------------------------------------------------------------*/
func (stream *Stream) StreamWrite(buff []byte) int {
	tick := TickGet()
	Tracet(4, "strwrite: n=%d\n", len(buff))

	stream.Lock.Lock()
	defer stream.Lock.Unlock()

	if stream.Mode&STR_MODE_W == 0 || stream.Port == nil || len(buff) == 0 {
		return 0
	}
	ns := stream.Port.write(buff, &stream.Msg)
	if ns > 0 {
		stream.OutBytes += uint32(ns)
		stream.TickActive = tick
	}
	if tt := int(tick - stream.TickOutput); tt > tirate {
		stream.OutRate = uint32(float64(stream.OutBytes-stream.OutByteTick) * 8.0 / (float64(tt) * 0.001))
		stream.TickOutput = tick
		stream.OutByteTick = stream.OutBytes
	}
	return ns
}

/* get stream status -----------------------------------------------------------
* args   : *string msg      IO  status message (nil: no output)
* return : status (-1:error,0:close,1:wait,2:connect,3:active)
*-----------------------------------------------------------------------------*/
func (stream *Stream) StreamStat(msg *string) int {
	stream.Lock.Lock()
	defer stream.Lock.Unlock()

	if msg != nil {
		*msg = stream.Msg
	}
	if stream.Port == nil {
		return stream.State
	}
	state := stream.Port.state()
	if state == 2 && int(TickGet()-stream.TickActive) <= TINTACT {
		state = 3
	}
	return state
}

// StreamStatX returns the extended stream status as text.
func (stream *Stream) StreamStatX(msg *string) int {
	state := stream.StreamStat(nil)

	stream.Lock.Lock()
	defer stream.Lock.Unlock()
	*msg += fmt.Sprintf("stream:\n  type    = %d\n  mode    = %d\n  state   = %d\n", stream.Type, stream.Mode, state)
	*msg += fmt.Sprintf("  inb     = %d\n  inr     = %d\n  outb    = %d\n  outr    = %d\n",
		stream.InBytes, stream.InRate, stream.OutBytes, stream.OutRate)
	if stream.Port != nil {
		stream.Port.statex(msg)
	}
	return state
}

// StreamSum returns the input/output bytes and rates (bps) of a stream.
func (stream *Stream) StreamSum() (inb, inr, outb, outr uint32) {
	stream.Lock.Lock()
	defer stream.Lock.Unlock()
	return stream.InBytes, stream.InRate, stream.OutBytes, stream.OutRate
}

/* send receiver command -------------------------------------------------------
* send receiver commands to stream, one command per line
* args   : string cmd       I   receiver commands
* notes  : lines starting with # are comments. !WAIT [ms] waits (max 3 s).
*-----------------------------------------------------------------------------*/
func (stream *Stream) StreamSendCmd(cmd string) {
	Tracet(3, "strsendcmd: cmd=%s\n", cmd)

	cmdlets := strings.FieldsFunc(cmd, func(r rune) bool { return r == '\r' || r == '\n' })
	for _, msg := range cmdlets {
		switch {
		case len(msg) == 0 || strings.HasPrefix(msg, "#"): /* null or comment */
		case len(msg) >= 5 && strings.EqualFold(msg[:5], "!WAIT"):
			ms := 100
			fmt.Sscanf(msg[5:], "%d", &ms)
			Sleepms(min(ms, 3000))
		case strings.HasPrefix(msg, "!"):
			Tracet(2, "strsendcmd: unsupported command %s\n", msg)
		default:
			stream.StreamWrite([]byte(msg + "\r\n"))
		}
	}
}
