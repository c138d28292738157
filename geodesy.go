/*------------------------------------------------------------------------------
* geodesy.go : coordinates, geometry and atmosphere models
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1] IS-GPS-200D, Navstar GPS Space Segment/Navigation User Interfaces,
*         7 March, 2006
*
* history : 2022/05/31 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"math"
)

/* transform ecef to geodetic postion ------------------------------------------
* args   : []float64 r      I   ecef position {x,y,z} (m)
*          []float64 pos    O   geodetic position {lat,lon,h} (rad,m)
* notes  : WGS84, ellipsoidal height
*-----------------------------------------------------------------------------*/
func Ecef2Pos(r, pos []float64) {
	e2 := FE_WGS84 * (2.0 - FE_WGS84)
	r2 := Dot(r, r, 2)
	v := RE_WGS84
	z, zk := r[2], 0.0
	for math.Abs(z-zk) >= 1e-4 {
		zk = z
		sinp := z / math.Sqrt(r2+z*z)
		v = RE_WGS84 / math.Sqrt(1.0-e2*sinp*sinp)
		z = r[2] + v*e2*sinp
	}
	switch {
	case r2 > 1e-12:
		pos[0] = math.Atan(z / math.Sqrt(r2))
		pos[1] = math.Atan2(r[1], r[0])
	case r[2] > 0.0:
		pos[0], pos[1] = PI/2.0, 0.0
	default:
		pos[0], pos[1] = -PI/2.0, 0.0
	}
	pos[2] = math.Sqrt(r2+z*z) - v
}

/* transform geodetic to ecef position -----------------------------------------
* args   : []float64 pos    I   geodetic position {lat,lon,h} (rad,m)
*          []float64 r      O   ecef position {x,y,z} (m)
*-----------------------------------------------------------------------------*/
func Pos2Ecef(pos, r []float64) {
	sinp, cosp := math.Sin(pos[0]), math.Cos(pos[0])
	sinl, cosl := math.Sin(pos[1]), math.Cos(pos[1])
	e2 := FE_WGS84 * (2.0 - FE_WGS84)
	v := RE_WGS84 / math.Sqrt(1.0-e2*sinp*sinp)

	r[0] = (v + pos[2]) * cosp * cosl
	r[1] = (v + pos[2]) * cosp * sinl
	r[2] = (v*(1.0-e2) + pos[2]) * sinp
}

// XYZ2Enu computes the ecef to local coordinate transformation matrix (3x3).
func XYZ2Enu(pos, E []float64) {
	sinp, cosp := math.Sin(pos[0]), math.Cos(pos[0])
	sinl, cosl := math.Sin(pos[1]), math.Cos(pos[1])

	E[0], E[3], E[6] = -sinl, cosl, 0.0
	E[1], E[4], E[7] = -sinp*cosl, -sinp*sinl, cosp
	E[2], E[5], E[8] = cosp*cosl, cosp*sinl, sinp
}

// Ecef2Enu transforms an ecef vector to local tangental coordinate.
func Ecef2Enu(pos, r, e []float64) {
	var E [9]float64
	XYZ2Enu(pos, E[:])
	MatMul("NN", 3, 1, 3, 1.0, E[:], r, 0.0, e)
}

// Enu2Ecef transforms a local tangental vector to ecef.
func Enu2Ecef(pos, e, r []float64) {
	var E [9]float64
	XYZ2Enu(pos, E[:])
	MatMul("TN", 3, 1, 3, 1.0, E[:], e, 0.0, r)
}

// Cov2Enu transforms an ecef covariance to local tangental coordinate.
func Cov2Enu(pos, P, Q []float64) {
	var E, EP [9]float64
	XYZ2Enu(pos, E[:])
	MatMul("NN", 3, 3, 3, 1.0, E[:], P, 0.0, EP[:])
	MatMul("NT", 3, 3, 3, 1.0, EP[:], E[:], 0.0, Q)
}

// Cov2Ecef transforms a local enu covariance to xyz-ecef.
func Cov2Ecef(pos, Q, P []float64) {
	var E, EQ [9]float64
	XYZ2Enu(pos, E[:])
	MatMul("TN", 3, 3, 3, 1.0, E[:], Q, 0.0, EQ[:])
	MatMul("NN", 3, 3, 3, 1.0, EQ[:], E[:], 0.0, P)
}

/* geometric distance ----------------------------------------------------------
* args   : []float64 rs     I   satellilte position (ecef at transmission) (m)
*          []float64 rr     I   receiver position (ecef at reception) (m)
*          []float64 e      O   line-of-sight vector (ecef)
* return : geometric distance (m) (0>:error/no satellite position)
* notes  : distance includes sagnac effect correction
*-----------------------------------------------------------------------------*/
func GeoDist(rs, rr, e []float64) float64 {
	if Norm(rs, 3) < RE_WGS84 {
		return -1.0
	}
	for i := 0; i < 3; i++ {
		e[i] = rs[i] - rr[i]
	}
	r := Norm(e, 3)
	for i := 0; i < 3; i++ {
		e[i] /= r
	}
	return r + OMGE*(rs[0]*rr[1]-rs[1]*rr[0])/CLIGHT
}

/* satellite azimuth/elevation angle -------------------------------------------
* args   : []float64 pos    I   geodetic position {lat,lon,h} (rad,m)
*          []float64 e      I   receiver-to-satellilte unit vevtor (ecef)
*          []float64 azel   IO  azimuth/elevation {az,el} (rad) (nil: no output)
* return : elevation angle (rad)
*-----------------------------------------------------------------------------*/
func SatAzel(pos, e, azel []float64) float64 {
	az, el := 0.0, PI/2.0
	var enu [3]float64

	if pos[2] > -RE_WGS84 {
		Ecef2Enu(pos, e, enu[:])
		if Dot(enu[:], enu[:], 2) >= 1e-12 {
			az = math.Atan2(enu[0], enu[1])
		}
		if az < 0.0 {
			az += 2 * PI
		}
		el = math.Asin(enu[2])
	}
	if azel != nil {
		azel[0], azel[1] = az, el
	}
	return el
}

/* compute DOPs ----------------------------------------------------------------
* args   : int    ns        I   number of satellites
*          []float64 azel   I   satellite azimuth/elevation angle (rad)
*          float64 elmin    I   elevation cutoff angle (rad)
*          []float64 dop    O   DOPs {GDOP,PDOP,HDOP,VDOP}
* notes  : dop[0]-[3] return 0 in case of dop computation error
*-----------------------------------------------------------------------------*/
func DOPs(ns int, azel []float64, elmin float64, dop []float64) {
	H := make([]float64, 4*ns+4)
	var Q [16]float64
	n := 0

	for i := 0; i < 4; i++ {
		dop[i] = 0.0
	}
	for i := 0; i < ns; i++ {
		if azel[1+i*2] < elmin || azel[1+i*2] <= 0.0 {
			continue
		}
		cosel, sinel := math.Cos(azel[1+i*2]), math.Sin(azel[1+i*2])
		H[4*n] = cosel * math.Sin(azel[i*2])
		H[1+4*n] = cosel * math.Cos(azel[i*2])
		H[2+4*n] = sinel
		H[3+4*n] = 1.0
		n++
	}
	if n < 4 {
		return
	}
	MatMul("NT", 4, 4, n, 1.0, H, H, 0.0, Q[:])
	if MatInv(Q[:], 4) == 0 {
		dop[0] = SQRT(Q[0] + Q[5] + Q[10] + Q[15]) /* GDOP */
		dop[1] = SQRT(Q[0] + Q[5] + Q[10])         /* PDOP */
		dop[2] = SQRT(Q[0] + Q[5])                 /* HDOP */
		dop[3] = SQRT(Q[10])                       /* VDOP */
	}
}

var ion_default = [8]float64{ /* 2004/1/1 */
	0.1118e-07, -0.7451e-08, -0.5961e-07, 0.1192e-06,
	0.1167e+06, -0.2294e+06, -0.1311e+06, 0.1049e+07,
}

/* ionosphere model ------------------------------------------------------------
* compute ionospheric delay by broadcast ionosphere model (klobuchar model)
* args   : Gtime   t        I   time (gpst)
*          []float64 ion    I   iono model parameters {a0,a1,a2,a3,b0,b1,b2,b3}
*          []float64 pos    I   receiver position {lat,lon,h} (rad,m)
*          []float64 azel   I   azimuth/elevation angle {az,el} (rad)
* return : ionospheric delay (L1) (m)
*-----------------------------------------------------------------------------*/
func IonModel(t Gtime, ion, pos, azel []float64) float64 {
	var week int

	if pos[2] < -1e3 || azel[1] <= 0 {
		return 0.0
	}
	if Norm(ion, 8) <= 0.0 {
		ion = ion_default[:]
	}
	/* earth centered angle (semi-circle) */
	psi := 0.0137/(azel[1]/PI+0.11) - 0.022

	/* subionospheric latitude/longitude (semi-circle) */
	phi := pos[0]/PI + psi*math.Cos(azel[0])
	if phi > 0.416 {
		phi = 0.416
	} else if phi < -0.416 {
		phi = -0.416
	}
	lam := pos[1]/PI + psi*math.Sin(azel[0])/math.Cos(phi*PI)

	/* geomagnetic latitude (semi-circle) */
	phi += 0.064 * math.Cos((lam-1.617)*PI)

	/* local time (s) */
	tt := 43200.0*lam + Time2GpsT(t, &week)
	tt -= math.Floor(tt/86400.0) * 86400.0

	/* slant factor */
	f := 1.0 + 16.0*math.Pow(0.53-azel[1]/PI, 3.0)

	amp := ion[0] + phi*(ion[1]+phi*(ion[2]+phi*ion[3]))
	per := ion[4] + phi*(ion[5]+phi*(ion[6]+phi*ion[7]))
	if amp < 0.0 {
		amp = 0.0
	}
	if per < 72000.0 {
		per = 72000.0
	}
	x := 2.0 * PI * (tt - 50400.0) / per
	if math.Abs(x) < 1.57 {
		return CLIGHT * f * (5e-9 + amp*(1.0+x*x*(-0.5+x*x/24.0)))
	}
	return CLIGHT * f * 5e-9
}

// IonMapf returns the single layer ionospheric mapping function.
func IonMapf(pos, azel []float64) float64 {
	if pos[2] >= HION {
		return 1.0
	}
	return 1.0 / math.Cos(math.Asin((RE_WGS84+pos[2])/(RE_WGS84+HION)*math.Sin(PI/2.0-azel[1])))
}

/* troposphere model -----------------------------------------------------------
* compute tropospheric delay by standard atmosphere and saastamoinen model
* args   : Gtime   time     I   time
*          []float64 pos    I   receiver position {lat,lon,h} (rad,m)
*          []float64 azel   I   azimuth/elevation angle {az,el} (rad)
*          float64 humi     I   relative humidity
* return : tropospheric delay (m)
*-----------------------------------------------------------------------------*/
func TropModel(time Gtime, pos, azel []float64, humi float64) float64 {
	const temp0 = 15.0 /* temparature at sea level */

	if pos[2] < -100.0 || 1e4 < pos[2] || azel[1] <= 0 {
		return 0.0
	}
	hgt := math.Max(pos[2], 0.0)

	/* standard atmosphere */
	pres := 1013.25 * math.Pow(1.0-2.2557e-5*hgt, 5.2568)
	temp := temp0 - 6.5e-3*hgt + 273.16
	e := 6.108 * humi * math.Exp((17.15*temp-4684.0)/(temp-38.45))

	/* saastamoninen model */
	z := PI/2.0 - azel[1]
	trph := 0.0022768 * pres / (1.0 - 0.00266*math.Cos(2.0*pos[0]) - 0.00028*hgt/1e3) / math.Cos(z)
	trpw := 0.002277 * (1255.0/temp + 0.05) * e / math.Cos(z)
	return trph + trpw
}
