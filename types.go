/*------------------------------------------------------------------------------
* types.go : constants and data types of gnssrtk
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  split satellite tracker and synchronizer types,
*                           one lock per shared resource
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"sync"
)

const (
	VER_GNSSRTK = "1.1.0" /* library version */
	PATCH_LEVEL = "b01"   /* patch level */

	PI       float64 = 3.1415926535897932    /* pi */
	D2R              = (PI / 180.0)          /* deg to rad */
	R2D              = (180.0 / PI)          /* rad to deg */
	CLIGHT   float64 = 299792458.0           /* speed of light (m/s) */
	SC2RAD   float64 = 3.1415926535898       /* semi-circle to radian (IS-GPS) */
	OMGE     float64 = 7.2921151467e-5       /* earth angular velocity (IS-GPS) (rad/s) */
	RE_WGS84 float64 = 6378137.0             /* earth semimajor axis (WGS84) (m) */
	FE_WGS84 float64 = (1.0 / 298.257223563) /* earth flattening (WGS84) */
	HION             = 350000.0              /* ionosphere height (m) */
)

const (
	FREQ1     float64 = 1.57542e9  /* L1/E1/B1C  frequency (Hz) */
	FREQ2     float64 = 1.22760e9  /* L2         frequency (Hz) */
	FREQ5     float64 = 1.17645e9  /* L5/E5a/B2a frequency (Hz) */
	FREQ6     float64 = 1.27875e9  /* E6/L6  frequency (Hz) */
	FREQ7     float64 = 1.20714e9  /* E5b    frequency (Hz) */
	FREQ1_GLO float64 = 1.60200e9  /* GLONASS G1 base frequency (Hz) */
	DFRQ1_GLO float64 = 0.56250e6  /* GLONASS G1 bias frequency (Hz/n) */
	FREQ2_GLO float64 = 1.24600e9  /* GLONASS G2 base frequency (Hz) */
	DFRQ2_GLO float64 = 0.43750e6  /* GLONASS G2 bias frequency (Hz/n) */
	FREQ3_GLO float64 = 1.202025e9 /* GLONASS G3 frequency (Hz) */
	FREQ1_CMP float64 = 1.561098e9 /* BDS B1I     frequency (Hz) */
	FREQ2_CMP float64 = 1.20714e9  /* BDS B2I/B2b frequency (Hz) */
	FREQ3_CMP float64 = 1.26852e9  /* BDS B3      frequency (Hz) */

	EFACT_GPS = 1.0 /* error factor: GPS */
	EFACT_GLO = 1.5 /* error factor: GLONASS */
	EFACT_GAL = 1.0 /* error factor: Galileo */
	EFACT_QZS = 1.0 /* error factor: QZSS */
	EFACT_CMP = 1.0 /* error factor: BeiDou */
)

const (
	SYS_NONE = 0x00 /* navigation system: none */
	SYS_GPS  = 0x01 /* navigation system: GPS */
	SYS_GLO  = 0x04 /* navigation system: GLONASS */
	SYS_GAL  = 0x08 /* navigation system: Galileo */
	SYS_QZS  = 0x10 /* navigation system: QZSS */
	SYS_CMP  = 0x20 /* navigation system: BeiDou */
	SYS_ALL  = 0xFF /* navigation system: all */

	MINPRNGPS = 1   /* min satellite PRN number of GPS */
	MAXPRNGPS = 32  /* max satellite PRN number of GPS */
	MINPRNGLO = 1   /* min satellite slot number of GLONASS */
	MAXPRNGLO = 27  /* max satellite slot number of GLONASS */
	MINPRNGAL = 1   /* min satellite PRN number of Galileo */
	MAXPRNGAL = 36  /* max satellite PRN number of Galileo */
	MINPRNQZS = 193 /* min satellite PRN number of QZSS */
	MAXPRNQZS = 202 /* max satellite PRN number of QZSS */
	MINPRNCMP = 1   /* min satellite sat number of BeiDou */
	MAXPRNCMP = 35  /* max satellite sat number of BeiDou */

	NSATGPS = MAXPRNGPS - MINPRNGPS + 1
	NSATGLO = MAXPRNGLO - MINPRNGLO + 1
	NSATGAL = MAXPRNGAL - MINPRNGAL + 1
	NSATQZS = MAXPRNQZS - MINPRNQZS + 1
	NSATCMP = MAXPRNCMP - MINPRNCMP + 1
	MAXSAT  = NSATGPS + NSATGLO + NSATGAL + NSATQZS + NSATCMP /* max satellite number (1 to MAXSAT) */
	NSYS    = 5                                               /* number of systems */

	NFREQ       = 3       /* number of carrier frequencies */
	NFREQGLO    = 2       /* number of carrier frequencies of GLONASS */
	SNR_UNIT    = 0.001   /* SNR unit (dBHz) */
	MAXOBS      = 96      /* max number of obs in an epoch */
	DTTOL       = 0.005   /* tolerance of time difference (s) */
	MAXDTOE     = 7200.0  /* max time difference to GPS Toe (s) */
	MAXDTOE_QZS = 7200.0  /* max time difference to QZSS Toe (s) */
	MAXDTOE_GAL = 14400.0 /* max time difference to Galileo Toe (s) */
	MAXDTOE_CMP = 21600.0 /* max time difference to BeiDou Toe (s) */
	MAXDTOE_GLO = 1800.0  /* max time difference to GLONASS Toe (s) */
	MAXGDOP     = 300.0   /* max GDOP */
	MAXSTRRTK   = 8       /* max number of stream in RTK server */
	MAXRAWLEN   = 16384   /* max length of receiver raw message */
	MAXSOLBUF   = 256     /* max number of solution buffer */
	MAXOBSBUF   = 128     /* max number of observation data buffer */
	MAXLEAPS    = 64      /* max number of leap seconds table */
	MAXRCVCMD   = 4096    /* max length of receiver commands */
	COMMENTH    = "%"     /* comment line indicator for solution */
)

const (
	CODE_NONE = 0  /* obs code: none or unknown */
	CODE_L1C  = 1  /* obs code: L1C/A,G1C/A,E1C (GPS,GLO,GAL,QZS) */
	CODE_L1P  = 2  /* obs code: L1P,G1P */
	CODE_L1W  = 3  /* obs code: L1 Z-track (GPS) */
	CODE_L1Y  = 4  /* obs code: L1Y        (GPS) */
	CODE_L1M  = 5  /* obs code: L1M        (GPS) */
	CODE_L1N  = 6  /* obs code: L1codeless (GPS) */
	CODE_L1S  = 7  /* obs code: L1C(D)     (GPS,QZS) */
	CODE_L1L  = 8  /* obs code: L1C(P)     (GPS,QZS) */
	CODE_L1E  = 9  /* (not used) */
	CODE_L1A  = 10 /* obs code: E1A        (GAL) */
	CODE_L1B  = 11 /* obs code: E1B        (GAL) */
	CODE_L1X  = 12 /* obs code: E1B+C,L1C(D+P) (GAL,QZS) */
	CODE_L1Z  = 13 /* obs code: E1A+B+C,L1S (GAL,QZS) */
	CODE_L2C  = 14 /* obs code: L2C/A,G1C/A (GPS,GLO) */
	CODE_L2D  = 15 /* obs code: L2 L1C/A-(P2-P1) (GPS) */
	CODE_L2S  = 16 /* obs code: L2C(M)     (GPS,QZS) */
	CODE_L2L  = 17 /* obs code: L2C(L)     (GPS,QZS) */
	CODE_L2X  = 18 /* obs code: L2C(M+L),B1_2I+Q (GPS,QZS,BDS) */
	CODE_L2P  = 19 /* obs code: L2P,G2P    (GPS,GLO) */
	CODE_L2W  = 20 /* obs code: L2 Z-track (GPS) */
	CODE_L2Y  = 21 /* obs code: L2Y        (GPS) */
	CODE_L2M  = 22 /* obs code: L2M        (GPS) */
	CODE_L2N  = 23 /* obs code: L2codeless (GPS) */
	CODE_L5I  = 24 /* obs code: L5I,E5aI   (GPS,GAL,QZS) */
	CODE_L5Q  = 25 /* obs code: L5Q,E5aQ   (GPS,GAL,QZS) */
	CODE_L5X  = 26 /* obs code: L5I+Q,E5aI+Q (GPS,GAL,QZS,BDS) */
	CODE_L7I  = 27 /* obs code: E5bI,B2bI  (GAL,BDS) */
	CODE_L7Q  = 28 /* obs code: E5bQ,B2bQ  (GAL,BDS) */
	CODE_L7X  = 29 /* obs code: E5bI+Q,B2bI+Q (GAL,BDS) */
	CODE_L6A  = 30 /* obs code: E6A        (GAL) */
	CODE_L6B  = 31 /* obs code: E6B        (GAL) */
	CODE_L6C  = 32 /* obs code: E6C        (GAL) */
	CODE_L6X  = 33 /* obs code: E6B+C,B3I+Q (GAL,QZS,BDS) */
	CODE_L6Z  = 34 /* obs code: E6A+B+C    (GAL) */
	CODE_L6S  = 35 /* obs code: L6S        (QZS) */
	CODE_L6L  = 36 /* obs code: L6L        (QZS) */
	CODE_L8I  = 37 /* obs code: E5abI      (GAL) */
	CODE_L8Q  = 38 /* obs code: E5abQ      (GAL) */
	CODE_L8X  = 39 /* obs code: E5abI+Q    (GAL) */
	CODE_L2I  = 40 /* obs code: B1_2I      (BDS) */
	CODE_L2Q  = 41 /* obs code: B1_2Q      (BDS) */
	CODE_L6I  = 42 /* obs code: B3I        (BDS) */
	CODE_L6Q  = 43 /* obs code: B3Q        (BDS) */
	CODE_L3I  = 44 /* obs code: G3I        (GLO) */
	CODE_L3Q  = 45 /* obs code: G3Q        (GLO) */
	CODE_L3X  = 46 /* obs code: G3I+Q      (GLO) */
	CODE_L1I  = 47 /* obs code: B1I        (BDS) (obsolute) */
	CODE_L1Q  = 48 /* obs code: B1Q        (BDS) (obsolute) */
	MAXCODE   = 48 /* max number of obs code */
)

const (
	PMODE_SINGLE = 0 /* positioning mode: single */
	PMODE_DGPS   = 1 /* positioning mode: DGPS/DGNSS */
	PMODE_KINEMA = 2 /* positioning mode: kinematic */
	PMODE_STATIC = 3 /* positioning mode: static */
	PMODE_FIXED  = 5 /* positioning mode: fixed */

	SOLF_LLH  = 0 /* solution format: lat/lon/height */
	SOLF_XYZ  = 1 /* solution format: x/y/z-ecef */
	SOLF_ENU  = 2 /* solution format: e/n/u-baseline */
	SOLF_NMEA = 3 /* solution format: NMEA-183 */
	SOLF_STAT = 4 /* solution format: solution status */

	SOLQ_NONE   = 0 /* solution status: no solution */
	SOLQ_FIX    = 1 /* solution status: fix */
	SOLQ_FLOAT  = 2 /* solution status: float */
	SOLQ_SBAS   = 3 /* solution status: SBAS */
	SOLQ_DGPS   = 4 /* solution status: DGPS/DGNSS */
	SOLQ_SINGLE = 5 /* solution status: single */
	SOLQ_PPP    = 6 /* solution status: PPP */
	SOLQ_DR     = 7 /* solution status: dead reconing */
	MAXSOLQ     = 7 /* max number of solution status */

	TIMES_GPST = 0 /* time system: gps time */
	TIMES_UTC  = 1 /* time system: utc */

	IONOOPT_OFF  = 0 /* ionosphere option: correction off */
	IONOOPT_BRDC = 1 /* ionosphere option: broadcast model */
	TROPOPT_OFF  = 0 /* troposphere option: correction off */
	TROPOPT_SAAS = 1 /* troposphere option: Saastamoinen model */

	DYN_NONE = 0 /* dynamics model: none */
	DYN_VEL  = 1 /* dynamics model: velocity */
	DYN_ACC  = 2 /* dynamics model: acceleration */

	ARMODE_OFF     = 0 /* AR mode: off */
	ARMODE_CONT    = 1 /* AR mode: continuous */
	ARMODE_INST    = 2 /* AR mode: instantaneous */
	ARMODE_FIXHOLD = 3 /* AR mode: fix and hold */

	POSOPT_POS    = 0 /* pos option: LLH/XYZ */
	POSOPT_SINGLE = 1 /* pos option: average of single pos */
	POSOPT_RTCM   = 4 /* pos option: rtcm/raw station pos */
)

const (
	STR_NONE     = 0  /* stream type: none */
	STR_SERIAL   = 1  /* stream type: serial */
	STR_FILE     = 2  /* stream type: file */
	STR_TCPSVR   = 3  /* stream type: TCP server */
	STR_TCPCLI   = 4  /* stream type: TCP client */
	STR_NTRIPSVR = 5  /* stream type: NTRIP server */
	STR_NTRIPCLI = 6  /* stream type: NTRIP client */
	STR_NTRIPCAS = 9  /* stream type: NTRIP caster */
	STR_UDPSVR   = 10 /* stream type: UDP server */
	STR_UDPCLI   = 11 /* stream type: UDP client */
	STR_MEMBUF   = 12 /* stream type: memory buffer */

	STRFMT_RTCM2 = 0 /* stream format: RTCM 2 */
	STRFMT_RTCM3 = 1 /* stream format: RTCM 3 */
	STRFMT_RAW   = 2 /* stream format: registered receiver raw decoder */

	STR_MODE_R  = 0x1 /* stream mode: read */
	STR_MODE_W  = 0x2 /* stream mode: write */
	STR_MODE_RW = 0x3 /* stream mode: read/write */

	LLI_SLIP  = 0x01 /* LLI: cycle-slip */
	LLI_HALFC = 0x02 /* LLI: half-cycle not resovled */
)

const (
	P2_5  = 0.03125               /* 2^-5 */
	P2_6  = 0.015625              /* 2^-6 */
	P2_10 = 0.0009765625          /* 2^-10 */
	P2_11 = 4.882812500000000e-04 /* 2^-11 */
	P2_19 = 1.907348632812500e-06 /* 2^-19 */
	P2_20 = 9.536743164062500e-07 /* 2^-20 */
	P2_24 = 5.960464477539063e-08 /* 2^-24 */
	P2_29 = 1.862645149230957e-09 /* 2^-29 */
	P2_30 = 9.313225746154785e-10 /* 2^-30 */
	P2_31 = 4.656612873077393e-10 /* 2^-31 */
	P2_32 = 2.328306436538696e-10 /* 2^-32 */
	P2_33 = 1.164153218269348e-10 /* 2^-33 */
	P2_34 = 5.820766091346740e-11 /* 2^-34 */
	P2_40 = 9.094947017729280e-13 /* 2^-40 */
	P2_43 = 1.136868377216160e-13 /* 2^-43 */
	P2_46 = 1.421085471520200e-14 /* 2^-46 */
	P2_50 = 8.881784197001252e-16 /* 2^-50 */
	P2_55 = 2.775557561562891e-17 /* 2^-55 */
	P2_59 = 1.734723475976810e-18 /* 2^-59 */
	P2_66 = 1.355252715606880e-20 /* 2^-66 */
)

// Gtime is an instant in GPS time. Sec is always in [0,1).
type Gtime struct {
	Time int64   /* time (s) expressed by standard time_t */
	Sec  float64 /* fraction of second under 1 s */
}

type ObsD struct { /* observation data record */
	Time     Gtime          /* receiver sampling time (GPST) */
	Sat, Rcv int            /* satellite/receiver number */
	SNR      [NFREQ]uint16  /* signal strength (0.001 dBHz) */
	LLI      [NFREQ]uint8   /* loss of lock indicator */
	Code     [NFREQ]uint8   /* code indicator (CODE_???) */
	L        [NFREQ]float64 /* observation data carrier-phase (cycle) */
	P        [NFREQ]float64 /* observation data pseudorange (m) */
	D        [NFREQ]float64 /* observation data doppler frequency (Hz) */
}

// Obs is one observation epoch.
type Obs struct {
	Data []ObsD
}

func (obs *Obs) N() int { return len(obs.Data) }

type Eph struct { /* GPS/QZS/GAL/BDS broadcast ephemeris type */
	Sat        int /* satellite number */
	Iode, Iodc int /* IODE,IODC */
	Sva        int /* SV accuracy (URA index) */
	Svh        int /* SV health (0:ok) */
	Week       int /* GPS/QZS: gps week, GAL: galileo week, BDS: beidou week */
	Code       int /* GPS/QZS: code on L2, GAL: data source */
	Flag       int /* GPS/QZS: L2 P data flag, BDS: nav type */
	Toe        Gtime
	Toc        Gtime
	Ttr        Gtime
	/* SV orbit parameters */
	A, E, I0, OMG0, Omg, M0, Deln, OMGd, Idot float64
	Crc, Crs, Cuc, Cus, Cic, Cis              float64
	Toes                                      float64    /* Toe (s) in week */
	Fit                                       float64    /* fit interval (h) */
	F0, F1, F2                                float64    /* SV clock parameters (af0,af1,af2) */
	Tgd                                       [4]float64 /* group delay parameters */
}

type GEph struct { /* GLONASS broadcast ephemeris type */
	Sat           int        /* satellite number */
	Iode          int        /* IODE (0-6 bit of tb field) */
	Frq           int        /* satellite frequency number */
	Svh, Sva, Age int        /* satellite health, accuracy, age of operation */
	Toe           Gtime      /* epoch of epherides (gpst) */
	Tof           Gtime      /* message frame time (gpst) */
	Pos           [3]float64 /* satellite position (ecef) (m) */
	Vel           [3]float64 /* satellite velocity (ecef) (m/s) */
	Acc           [3]float64 /* satellite acceleration (ecef) (m/s^2) */
	Taun, Gamn    float64    /* SV clock bias (s)/relative freq bias */
	DTaun         float64    /* delay between L1 and L2 (s) */
}

// Nav holds the navigation data consulted by the solver. Ephemerides are kept
// per satellite as sequences ordered by reference time.
type Nav struct {
	Eph     map[int][]Eph  /* GPS/QZS/GAL/BDS ephemeris by satellite */
	Geph    map[int][]GEph /* GLONASS ephemeris by satellite */
	Utc_gps [8]float64     /* GPS delta-UTC parameters {A0,A1,Tot,WNt,dt_LS,WN_LSF,DN,dt_LSF} */
	Ion_gps [8]float64     /* GPS iono model parameters {a0,a1,a2,a3,b0,b1,b2,b3} */
	Glo_fcn [32]int        /* GLONASS FCN + 8 (0:unknown) */
	Dgps    [MAXSAT]DGps   /* DGPS corrections */
}

type DGps struct { /* DGPS/GNSS correction type */
	T0   Gtime   /* correction time */
	Prc  float64 /* pseudorange correction (PRC) (m) */
	Rrc  float64 /* range rate correction (RRC) (m/s) */
	Iod  int     /* issue of data (IOD) */
	Udre float64 /* UDRE */
}

type Sta struct { /* station parameter type */
	Name    string     /* marker name */
	AntDes  string     /* antenna descriptor */
	AntSno  string     /* antenna serial number */
	Itrf    int        /* ITRF realization year */
	DelType int        /* antenna delta type (0:enu,1:xyz) */
	Pos     [3]float64 /* station position (ecef) (m) */
	Del     [3]float64 /* antenna position delta (e/n/u or x/y/z) (m) */
	Hgt     float64    /* antenna height (m) */
}

// Sol is one position solution. It is not modified after it is produced.
type Sol struct {
	Time  Gtime      /* time (GPST) */
	Rr    [6]float64 /* position/velocity (m|m/s) {x,y,z,vx,vy,vz} */
	Qr    [6]float32 /* position variance/covariance (m^2) {c_xx,c_yy,c_zz,c_xy,c_yz,c_zx} */
	Qv    [6]float32 /* velocity variance/covariance (m^2/s^2) */
	Dtr   [6]float64 /* receiver clock bias to time systems (s) */
	Type  uint8      /* type (0:xyz-ecef,1:enu-baseline) */
	Stat  uint8      /* solution status (SOLQ_???) */
	Ns    uint8      /* number of valid satellites */
	Age   float32    /* age of differential (s) */
	Ratio float32    /* AR ratio factor for valiation */
	Thres float32    /* AR ratio threshold for valiation */
}

type SnrMask struct { /* SNR mask type */
	Ena  [2]int            /* enable flag {rover,base} */
	Mask [NFREQ][9]float64 /* mask (dBHz) at 5,10,...85 deg */
}

type PrcOpt struct { /* processing options type */
	Mode       int            /* positioning mode (PMODE_???) */
	Nf         int            /* number of frequencies (1:L1,2:L1+L2,3:L1+L2+L5) */
	NavSys     int            /* navigation system */
	Elmin      float64        /* elevation mask angle (rad) */
	SnrMask    SnrMask        /* SNR mask */
	ModeAr     int            /* AR mode (0:off,1:continuous,2:instantaneous,3:fix and hold) */
	GloModeAr  int            /* GLONASS AR mode (0:off,1:on) */
	BDSModeAr  int            /* BeiDou AR mode (0:off,1:on) */
	MaxOut     int            /* obs outage count to reset bias */
	MinLock    int            /* min lock count to fix ambiguity */
	MinFix     int            /* min fix count to hold ambiguity */
	IonoOpt    int            /* ionosphere option (IONOOPT_???) */
	TropOpt    int            /* troposphere option (TROPOPT_???) */
	Dynamics   int            /* dynamics model (0:none,1:velociy,2:accel) */
	NoIter     int            /* number of filter iteration */
	RovPos     int            /* rover position for fixed mode */
	RefPos     int            /* base position for relative mode (POSOPT_???) */
	Eratio     [NFREQ]float64 /* code/phase error ratio */
	Err        [5]float64     /* measurement error factor [1-3]:a/b/c of phase (m) [4]:doppler (hz) */
	Std        [3]float64     /* initial-state std [0]bias,[1]iono [2]trop */
	Prn        [6]float64     /* process-noise std [0]bias,[1]iono [2]trop [3]acch [4]accv [5] pos */
	SatClkStab float64        /* satellite clock stability (sec/sec) */
	ThresAr    [8]float64     /* AR validation threshold */
	ElMaskAr   float64        /* elevation mask of AR for rising satellite (rad) */
	ElMaskHold float64        /* elevation mask to hold ambiguity (rad) */
	ThresSlip  float64        /* slip threshold of geometry-free phase (m) */
	MaxTmDiff  float64        /* max difference of time (sec) */
	MaxInno    float64        /* reject threshold of innovation (m) */
	MaxGdop    float64        /* reject threshold of gdop */
	Baseline   [2]float64     /* baseline length constraint {const,sigma} (m) */
	Ru         [3]float64     /* rover position for fixed mode {x,y,z} (ecef) (m) */
	Rb         [3]float64     /* base position for relative mode {x,y,z} (ecef) (m) */
	ExSats     [MAXSAT]uint8  /* excluded satellites (1:excluded,2:included) */
	MaxAveEp   int            /* max averaging epoches */
	InitRst    int            /* initialize by restart */
	OutSingle  int            /* output single by dgps/float/fix outage */
}

type SolOpt struct { /* solution options type */
	Posf      int        /* solution format (SOLF_???) */
	TimeS     int        /* time system (TIMES_???) */
	TimeF     int        /* time format (0:sssss.s,1:yyyy/mm/dd hh:mm:ss.s) */
	TimeU     int        /* time digits under decimal point */
	DegF      int        /* latitude/longitude format (0:ddd.ddd,1:ddd mm ss) */
	OutHead   int        /* output header (0:no,1:yes) */
	OutOpt    int        /* output processing options (0:no,1:yes) */
	OutVel    int        /* output velocity options (0:no,1:yes) */
	Height    int        /* height (0:ellipsoidal,1:geodetic) */
	SolStatic int        /* solution of static mode (0:all,1:single) */
	SStat     int        /* solution statistics level (0:off,1:states,2:residuals) */
	Trace     int        /* debug trace level (0:off,1-5:debug) */
	NmeaIntv  [2]float64 /* nmea output interval (s) (<0:no,0:all) */
	Sep       string     /* field separator */
	Prog      string     /* program name */
	MaxSolStd float64    /* max std-dev for solution output (m) (0:all) */
}

type SSat struct { /* satellite status type */
	Sys   uint8              /* navigation system */
	Vs    uint8              /* valid satellite flag single */
	Azel  [2]float64         /* azimuth/elevation angles {az,el} (rad) */
	Resp  [NFREQ]float32     /* residuals of pseudorange (m) */
	Resc  [NFREQ]float32     /* residuals of carrier-phase (m) */
	Vsat  [NFREQ]uint8       /* valid satellite flag */
	Snr   [NFREQ]uint16      /* signal strength (*SNR_UNIT dBHz) */
	Fix   [NFREQ]uint8       /* ambiguity fix flag (1:float,2:fix,3:hold) */
	Slip  [NFREQ]uint8       /* cycle-slip flag (bit1:slip) */
	Half  [NFREQ]uint8       /* half-cycle valid flag */
	LLI   [2][NFREQ]uint8    /* last LLI {rover,base} */
	Lock  [NFREQ]int         /* lock counter of phase */
	Outc  [NFREQ]uint32      /* obs outage counter of phase */
	Slipc [NFREQ]uint32      /* cycle-slip counter */
	Rejc  [NFREQ]uint32      /* reject counter */
	Gf    [NFREQ - 1]float64 /* geometry-free phase (m) */
	Mw    [NFREQ - 1]float64 /* MW-LC (cycle) */
	Pt    [2][NFREQ]Gtime    /* previous carrier-phase time */
	Ph    [2][NFREQ]float64  /* previous carrier-phase observable (cycle) */
}

type AmbC struct { /* ambiguity control type */
	Epoch  [NFREQ - 1]Gtime   /* last epoch */
	N      [NFREQ - 1]int     /* number of epochs */
	LC     [NFREQ - 1]float64 /* wide-lane average (cycle) */
	LCv    [NFREQ - 1]float64 /* wide-lane variance (cycle^2) */
	FixCnt int                /* continuous fix count */
}

// Rtk is the estimator state. It is owned by a single goroutine.
type Rtk struct {
	RtkSol Sol        /* RTK solution */
	Rb     [6]float64 /* base position/velocity (ecef) (m|m/s) */
	Nx, Na int        /* number of float states/fixed states */
	Tsol   Gtime      /* time of the last accepted solution */
	Tt     float64    /* time difference between current and previous (s) */
	X, P   []float64  /* float states and their covariance */
	Xa, Pa []float64  /* fixed states and their covariance */
	HoldN  []float64  /* held double-differenced ambiguities to group reference (cycle) */
	Nfix   int        /* number of continuous fixes of ambiguity */
	Held   bool       /* integer ambiguities are held */
	SatTracker
	ErrBuf string /* error message buffer */
	Opt    PrcOpt /* processing options */
}

type Opt struct { /* option type */
	Name    string    /* option name */
	Format  OptFormat /* option format */
	Value   OptValue  /* option value */
	Comment string    /* option comment/enum labels/unit */
}

// Stream is a typed directional byte channel owned by one server.
type Stream struct {
	Type              int        /* type (STR_???) */
	Mode              int        /* mode (STR_MODE_?) */
	State             int        /* state (-1:error,0:close,1:open) */
	InBytes, InRate   uint32     /* input bytes/rate */
	OutBytes, OutRate uint32     /* output bytes/rate */
	TickInput         int64      /* input tick tick */
	TickOutput        int64      /* output tick */
	TickActive        int64      /* active tick */
	InByteTick        uint32     /* input bytes at tick */
	OutByteTick       uint32     /* output bytes at tick */
	Lock              sync.Mutex /* lock flag */
	Port              port       /* type dependent port */
	Path              string     /* stream path */
	Msg               string     /* stream message */
}
