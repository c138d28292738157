/*------------------------------------------------------------------------------
* lambda.go : integer ambiguity resolution
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* reference :
*     [1] P.J.G.Teunissen, The least-square ambiguity decorrelation adjustment:
*         a method for fast GPS ambiguity estimation, J.Geodesy, Vol.70, 65-82,
*         1995
*     [2] X.-W.Chang, X.Yang, T.Zhou, MLAMBDA: A modified LAMBDA method for
*         integer least-squares estimation, J.Geodesy, Vol.79, 552-565, 2005
*
* history : 2022/05/31 1.0  new
*           2025/03/02 1.1  fix error check of LD factorization, unfilled
*                           candidates reported as search error
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"math"
)

const LOOPMAX = 10000 /* maximum count of search loop */

func SGN(x float64) float64 {
	if x <= 0.0 {
		return -1.0
	}
	return 1.0
}

// ROUND_F rounds half away from zero.
func ROUND_F(x float64) float64 {
	t := math.Trunc(x)
	if math.Abs(x-t) >= 0.5 {
		return t + math.Copysign(1, x)
	}
	return t
}

/* LD factorization (Q=L'*diag(D)*L) -----------------------------------------*/
func LD(n int, Q, L, D []float64) int {
	A := Mat(n, n)
	copy(A, Q[:n*n])

	for i := n - 1; i >= 0; i-- {
		if D[i] = A[i+i*n]; D[i] <= 0.0 || math.IsNaN(D[i]) {
			Trace(2, "LD factorization error\n")
			return -1
		}
		a := math.Sqrt(D[i])
		for j := 0; j <= i; j++ {
			L[i+j*n] = A[i+j*n] / a
		}
		for j := 0; j <= i-1; j++ {
			for k := 0; k <= j; k++ {
				A[j+k*n] -= L[i+k*n] * L[i+j*n]
			}
		}
		for j := 0; j <= i; j++ {
			L[i+j*n] /= L[i+i*n]
		}
	}
	return 0
}

/* integer gauss transformation ----------------------------------------------*/
func gaussTrans(n int, L, Z []float64, i, j int) {
	mu := int(ROUND_F(L[i+j*n]))
	if mu == 0 {
		return
	}
	for k := i; k < n; k++ {
		L[k+n*j] -= float64(mu) * L[k+i*n]
	}
	for k := 0; k < n; k++ {
		Z[k+n*j] -= float64(mu) * Z[k+i*n]
	}
}

/* permutation ---------------------------------------------------------------*/
func perm(n int, L, D []float64, j int, del float64, Z []float64) {
	eta := D[j] / del
	lam := D[j+1] * L[j+1+j*n] / del
	D[j] = eta * D[j+1]
	D[j+1] = del
	for k := 0; k <= j-1; k++ {
		a0 := L[j+k*n]
		a1 := L[j+1+k*n]
		L[j+k*n] = -L[j+1+j*n]*a0 + a1
		L[j+1+k*n] = eta*a0 + lam*a1
	}
	L[j+1+j*n] = lam
	for k := j + 2; k < n; k++ {
		L[k+j*n], L[k+(j+1)*n] = L[k+(j+1)*n], L[k+j*n]
	}
	for k := 0; k < n; k++ {
		Z[k+j*n], Z[k+(j+1)*n] = Z[k+(j+1)*n], Z[k+j*n]
	}
}

/* lambda reduction (z=Z'*a, Qz=Z'*Q*Z=L'*diag(D)*L) (ref.[1]) ---------------*/
func reduction(n int, L, D, Z []float64) {
	j, k := n-2, n-2
	for j >= 0 {
		if j <= k {
			for i := j + 1; i < n; i++ {
				gaussTrans(n, L, Z, i, j)
			}
		}
		del := D[j] + L[j+1+j*n]*L[j+1+j*n]*D[j+1]
		if del+1e-6 < D[j+1] { /* compared considering numerical error */
			perm(n, L, D, j, del, Z)
			k = j
			j = n - 2
		} else {
			j--
		}
	}
}

/* modified lambda (mlambda) search (ref. [2]) -------------------------------*/
func search(n, m int, L, D, zs, zn, s []float64) int {
	var c, nn, imax int
	maxdist := 1e99

	S := Zeros(n, n)
	dist := Mat(n, 1)
	zb := Mat(n, 1)
	z := Mat(n, 1)
	step := Mat(n, 1)

	k := n - 1
	dist[k] = 0.0
	zb[k] = zs[k]
	z[k] = ROUND_F(zb[k])
	y := zb[k] - z[k]
	step[k] = SGN(y)
	for c = 0; c < LOOPMAX; c++ {
		newdist := dist[k] + y*y/D[k]
		if newdist < maxdist {
			if k != 0 {
				k--
				dist[k] = newdist
				for i := 0; i <= k; i++ {
					S[k+i*n] = S[k+1+i*n] + (z[k+1]-zb[k+1])*L[k+1+i*n]
				}
				zb[k] = zs[k] + S[k+k*n]
				z[k] = ROUND_F(zb[k])
				y = zb[k] - z[k]
				step[k] = SGN(y)
				continue
			}
			if nn < m {
				if nn == 0 || newdist > s[imax] {
					imax = nn
				}
				copy(zn[nn*n:nn*n+n], z)
				s[nn] = newdist
				nn++
			} else {
				if newdist < s[imax] {
					copy(zn[imax*n:imax*n+n], z)
					s[imax] = newdist
					imax = 0
					for i := 0; i < m; i++ {
						if s[imax] < s[i] {
							imax = i
						}
					}
				}
				maxdist = s[imax]
			}
			z[0] += step[0]
			y = zb[0] - z[0]
			step[0] = -step[0] - SGN(step[0])
		} else {
			if k == n-1 {
				break
			}
			k++
			z[k] += step[k]
			y = zb[k] - z[k]
			step[k] = -step[k] - SGN(step[k])
		}
	}
	for i := 0; i < m-1; i++ { /* sort by s */
		for j := i + 1; j < m; j++ {
			if s[i] < s[j] {
				continue
			}
			s[i], s[j] = s[j], s[i]
			for k := 0; k < n; k++ {
				zn[k+i*n], zn[k+j*n] = zn[k+j*n], zn[k+i*n]
			}
		}
	}
	if c >= LOOPMAX {
		Trace(2, "search loop count overflow\n")
		return -1
	}
	if nn < m {
		Trace(2, "search found %d of %d candidates\n", nn, m)
		return -1
	}
	return 0
}

/* lambda/mlambda integer least-square estimation ------------------------------
* integer least-square estimation. reduction is performed by lambda (ref.[1]),
* and search by mlambda (ref.[2]).
* args   : int    n         I   number of float parameters
*          int    m         I   number of fixed solutions
*          []float64 a      I   float parameters (n x 1)
*          []float64 Q      I   covariance matrix of float parameters (n x n)
*          []float64 F      O   fixed solutions (n x m)
*          []float64 s      O   sum of squared residulas of fixed solutions (1 x m)
* return : status (0:ok,other:error)
* notes  : matrix stored by column-major order (fortran convension)
*-----------------------------------------------------------------------------*/
func Lambda(n, m int, a, Q, F, s []float64) int {
	if n <= 0 || m <= 0 {
		return -1
	}
	L := Zeros(n, n)
	D := Mat(n, 1)
	Z := Eye(n)
	z := Mat(n, 1)
	E := Mat(n, m)

	if info := LD(n, Q, L, D); info != 0 {
		return info
	}
	reduction(n, L, D, Z)
	MatMul("TN", n, 1, n, 1.0, Z, a, 0.0, z) /* z=Z'*a */

	if info := search(n, m, L, D, z, E, s); info != 0 {
		return info
	}
	return Solve("T", Z, E, n, m, F) /* F=Z'\E */
}

// LambdaReduction computes the lambda reduction matrix Z (n x n) of Q.
func LambdaReduction(n int, Q, Z []float64) int {
	if n <= 0 {
		return -1
	}
	L := Zeros(n, n)
	D := Mat(n, 1)
	copy(Z, Eye(n))

	if info := LD(n, Q, L, D); info != 0 {
		return info
	}
	reduction(n, L, D, Z)
	return 0
}

// LambdaSearch runs the mlambda search without reduction, see Lambda.
func LambdaSearch(n, m int, a, Q, F, s []float64) int {
	if n <= 0 || m <= 0 {
		return -1
	}
	L := Zeros(n, n)
	D := Mat(n, 1)

	if info := LD(n, Q, L, D); info != 0 {
		return info
	}
	return search(n, m, L, D, a, F, s)
}
