/*------------------------------------------------------------------------------
* matrix.go : matrix and estimation functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* notes  : matirix stored by column-major order (fortran convention)
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  inversion by gonum lapack, filter keeps states on
*                           failure
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mat allocates a n x m matrix (nil if n<=0 or m<=0).
func Mat(n, m int) []float64 {
	if n <= 0 || m <= 0 {
		return nil
	}
	return make([]float64, n*m)
}

func IMat(n, m int) []int {
	if n <= 0 || m <= 0 {
		return nil
	}
	return make([]int, n*m)
}

// Zeros returns a new zero matrix.
func Zeros(n, m int) []float64 {
	return Mat(n, m)
}

// Eye returns a new identity matrix.
func Eye(n int) []float64 {
	p := Zeros(n, n)
	for i := 0; i < n; i++ {
		p[i+i*n] = 1.0
	}
	return p
}

// Dot returns a'*b of two n vectors.
func Dot(a, b []float64, n int) float64 {
	c := 0.0
	for n--; n >= 0; n-- {
		c += a[n] * b[n]
	}
	return c
}

// Norm returns the euclid norm of a n vector.
func Norm(a []float64, n int) float64 {
	return math.Sqrt(Dot(a, a, n))
}

// Cross3 computes c = a x b of 3d vectors.
func Cross3(a, b, c []float64) {
	c[0] = a[1]*b[2] - a[2]*b[1]
	c[1] = a[2]*b[0] - a[0]*b[2]
	c[2] = a[0]*b[1] - a[1]*b[0]
}

// NormV3 normalizes a 3d vector, returns 0 if |a| is zero.
func NormV3(a, b []float64) int {
	r := Norm(a, 3)
	if r <= 0.0 {
		return 0
	}
	b[0] = a[0] / r
	b[1] = a[1] / r
	b[2] = a[2] / r
	return 1
}

func MatCpy(A, B []float64, n, m int) {
	copy(A[:n*m], B[:n*m])
}

/* multiply matrix -------------------------------------------------------------
* multiply matrix by matrix (C=alpha*A*B+beta*C)
* args   : string tr        I  transpose flags ("N":normal,"T":transpose)
*          int    n,k,m     I  size of (transposed) matrix A,B
*          float64 alpha    I  alpha
*          []float64 A,B    I  (transposed) matrix A (n x m), B (m x k)
*          float64 beta     I  beta
*          []float64 C      IO matrix C (n x k)
*-----------------------------------------------------------------------------*/
func MatMul(tr string, n, k, m int, alpha float64, A, B []float64, beta float64, C []float64) {
	var f int
	switch tr {
	case "NN":
		f = 1
	case "NT":
		f = 2
	case "TN":
		f = 3
	default:
		f = 4
	}
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			d := 0.0
			switch f {
			case 1:
				for x := 0; x < m; x++ {
					d += A[i+x*n] * B[x+j*m]
				}
			case 2:
				for x := 0; x < m; x++ {
					d += A[i+x*n] * B[j+x*k]
				}
			case 3:
				for x := 0; x < m; x++ {
					d += A[x+i*m] * B[x+j*m]
				}
			case 4:
				for x := 0; x < m; x++ {
					d += A[x+i*m] * B[j+x*k]
				}
			}
			if beta == 0.0 {
				C[i+j*n] = alpha * d
			} else {
				C[i+j*n] = alpha*d + beta*C[i+j*n]
			}
		}
	}
}

// MatInv inverts the n x n matrix A in place. It returns -1 if A is singular.
func MatInv(A []float64, n int) int {
	if n <= 0 {
		return -1
	}
	/* a column-major buffer read as row-major is A', and inv(A')=inv(A)' */
	a := mat.NewDense(n, n, append([]float64(nil), A[:n*n]...))
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		if c, ok := err.(mat.Condition); !ok || math.IsInf(float64(c), 1) || math.IsNaN(float64(c)) {
			return -1
		}
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			A[r*n+c] = inv.At(r, c)
		}
	}
	return 0
}

// Solve solves the linear equation X=A\Y or X=A'\Y (tr="N" or "T").
func Solve(tr string, A, Y []float64, n, m int, X []float64) int {
	B := Mat(n, n)
	MatCpy(B, A, n, n)
	info := MatInv(B, n)
	if info == 0 {
		if tr[0] == 'N' {
			MatMul("NN", n, m, n, 1.0, B, Y, 0.0, X)
		} else {
			MatMul("TN", n, m, n, 1.0, B, Y, 0.0, X)
		}
	}
	return info
}

/* least square estimation -----------------------------------------------------
* least square estimation by solving normal equation (x=(A*A')^-1*A*y)
* args   : []float64 A      I   transpose of (weighted) design matrix (n x m)
*          []float64 y      I   (weighted) measurements (m x 1)
*          int    n,m       I   number of parameters and measurements (n<=m)
*          []float64 x      O   estmated parameters (n x 1)
*          []float64 Q      O   esimated parameters covariance matrix (n x n)
* return : status (0:ok,0>:error)
*-----------------------------------------------------------------------------*/
func LSQ(A, y []float64, n, m int, x, Q []float64) int {
	if m < n {
		return -1
	}
	Ay := Mat(n, 1)
	MatMul("NN", n, 1, m, 1.0, A, y, 0.0, Ay) /* Ay=A*y */
	MatMul("NT", n, n, m, 1.0, A, A, 0.0, Q)  /* Q=A*A' */
	info := MatInv(Q, n)
	if info == 0 {
		MatMul("NN", n, 1, n, 1.0, Q, Ay, 0.0, x) /* x=Q^-1*Ay */
	}
	return info
}

func filter_(x, P, H, v, R []float64, n, m int, xp, Pp []float64) int {
	F := Mat(n, m)
	Q := Mat(m, m)
	K := Mat(n, m)
	I := Eye(n)

	MatCpy(Q, R, m, m)
	MatCpy(xp, x, n, 1)
	MatMul("NN", n, m, n, 1.0, P, H, 0.0, F) /* Q=H'*P*H+R */
	MatMul("TN", m, m, n, 1.0, H, F, 1.0, Q)
	info := MatInv(Q, m)
	if info == 0 {
		MatMul("NN", n, m, m, 1.0, F, Q, 0.0, K)  /* K=P*H*Q^-1 */
		MatMul("NN", n, 1, m, 1.0, K, v, 1.0, xp) /* xp=x+K*v */
		MatMul("NT", n, n, m, -1.0, K, H, 1.0, I) /* Pp=(I-K*H')*P */
		MatMul("NN", n, n, n, 1.0, I, P, 0.0, Pp)
	}
	return info
}

/* kalman filter ---------------------------------------------------------------
* kalman filter state update as follows:
*
*   K=P*H*(H'*P*H+R)^-1, xp=x+K*v, Pp=(I-K*H')*P
*
* args   : []float64 x      IO  states vector (n x 1)
*          []float64 P      IO  covariance matrix of states (n x n)
*          []float64 H      I   transpose of design matrix (n x m)
*          []float64 v      I   innovation (measurement - model) (m x 1)
*          []float64 R      I   covariance matrix of measurement error (m x m)
*          int    n,m       I   number of states and measurements
* return : status (0:ok,<0:error)
* notes  : if state x[i]==0.0 or P[i+i*n]<=0, x[i] and P[i+i*n] are not updated
*          x and P are left untouched on error
*-----------------------------------------------------------------------------*/
func Filter(x, P, H, v, R []float64, n, m int) int {
	ix := IMat(n, 1)
	k := 0
	for i := 0; i < n; i++ {
		if x[i] != 0.0 && P[i+i*n] > 0.0 {
			ix[k] = i
			k++
		}
	}
	if k == 0 {
		return -1
	}
	x_ := Mat(k, 1)
	xp_ := Mat(k, 1)
	P_ := Mat(k, k)
	Pp_ := Mat(k, k)
	H_ := Mat(k, m)
	for i := 0; i < k; i++ {
		x_[i] = x[ix[i]]
		for j := 0; j < k; j++ {
			P_[i+j*k] = P[ix[i]+ix[j]*n]
		}
		for j := 0; j < m; j++ {
			H_[i+j*k] = H[ix[i]+j*n]
		}
	}
	info := filter_(x_, P_, H_, v, R, k, m, xp_, Pp_)
	if info != 0 {
		return info
	}
	for i := 0; i < k; i++ {
		x[ix[i]] = xp_[i]
		for j := 0; j < k; j++ {
			P[ix[i]+ix[j]*n] = Pp_[i+j*k]
		}
	}
	return 0
}

// MatFPrint writes A (n x m) with p total digits and q decimals.
func MatFPrint(A []float64, n, m, p, q int, w io.Writer) {
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			fmt.Fprintf(w, " %*.*f", p, q, A[i+j*n])
		}
		fmt.Fprintf(w, "\n")
	}
}
