/*------------------------------------------------------------------------------
* lambda_test.go : integer ambiguity resolution tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2025/03/02 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk_test

import (
	"math"
	"testing"

	"gnssrtk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* squared distance (a-z)'*Qi*(a-z) */
func ilsDist(n int, a, z, Qi []float64) float64 {
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		d[i] = a[i] - z[i]
	}
	s := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s += d[i] * Qi[i+j*n] * d[j]
		}
	}
	return s
}

/* best and second-best by exhaustive search around round(a) */
func ilsBrute(n int, a, Q []float64, r int) (best []float64, s [2]float64) {
	Qi := append([]float64(nil), Q...)
	gnssrtk.MatInv(Qi, n)
	s = [2]float64{math.Inf(1), math.Inf(1)}
	z := make([]float64, n)
	var walk func(k int)
	walk = func(k int) {
		if k == n {
			d := ilsDist(n, a, z, Qi)
			if d < s[0] {
				s[1], s[0] = s[0], d
				best = append(best[:0], z...)
			} else if d < s[1] {
				s[1] = d
			}
			return
		}
		c := math.Round(a[k])
		for i := -r; i <= r; i++ {
			z[k] = c + float64(i)
			walk(k + 1)
		}
	}
	walk(0)
	return best, s
}

func Test_LambdaDiagonal(t *testing.T) {
	var F [6]float64
	var s [2]float64
	assert := assert.New(t)

	a := []float64{1.1, -2.05, 2.9}
	Q := []float64{
		0.01, 0.0, 0.0,
		0.0, 0.01, 0.0,
		0.0, 0.0, 0.01}
	assert.Equal(0, gnssrtk.Lambda(3, 2, a, Q, F[:], s[:]))
	assert.InDelta(1.0, F[0], 1e-9)
	assert.InDelta(-2.0, F[1], 1e-9)
	assert.InDelta(3.0, F[2], 1e-9)
	assert.InDelta(2.25, s[0], 1e-9)
	assert.InDelta(82.25, s[1], 1e-9)

	/* search without reduction agrees for a diagonal covariance */
	var F2 [6]float64
	var s2 [2]float64
	assert.Equal(0, gnssrtk.LambdaSearch(3, 2, a, Q, F2[:], s2[:]))
	assert.InDelta(s[0], s2[0], 1e-9)
	assert.InDelta(s[1], s2[1], 1e-9)
	for i := 0; i < 3; i++ {
		assert.InDelta(F[i], F2[i], 1e-9)
	}
}

func Test_LambdaCorrelated(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		a []float64
		Q []float64
	}{
		{
			a: []float64{5.45, 3.1},
			Q: []float64{6.29, 5.978, 5.978, 6.292},
		},
		{
			a: []float64{-3.38, 12.71, 0.44},
			Q: []float64{
				4.0, 3.8, 1.0,
				3.8, 4.0, 1.2,
				1.0, 1.2, 2.0},
		},
		{
			a: []float64{0.3, -0.7, 1.6, 2.2},
			Q: []float64{
				0.50, 0.40, 0.10, 0.05,
				0.40, 0.60, 0.20, 0.10,
				0.10, 0.20, 0.30, 0.12,
				0.05, 0.10, 0.12, 0.25},
		},
	}
	for _, c := range cases {
		n := len(c.a)
		F := make([]float64, n*2)
		var s [2]float64
		require.Equal(t, 0, gnssrtk.Lambda(n, 2, c.a, c.Q, F, s[:]))

		best, sb := ilsBrute(n, c.a, c.Q, 6)
		for i := 0; i < n; i++ {
			assert.InDelta(best[i], F[i], 1e-9)
		}
		assert.InDelta(sb[0], s[0], 1e-6)
		assert.InDelta(sb[1], s[1], 1e-6)
		assert.LessOrEqual(s[0], s[1])
	}
}

func Test_LambdaTie(t *testing.T) {
	var F [2]float64
	var s [2]float64

	/* two candidates at the same distance */
	assert.Equal(t, 0, gnssrtk.Lambda(1, 2, []float64{-0.5}, []float64{2.0}, F[:], s[:]))
	assert.Equal(t, s[0], s[1])
	assert.InDelta(t, 0.125, s[0], 1e-15)
}

func Test_LambdaError(t *testing.T) {
	var F [4]float64
	var s [2]float64
	assert := assert.New(t)

	assert.NotEqual(0, gnssrtk.Lambda(0, 2, nil, nil, F[:], s[:]))
	assert.NotEqual(0, gnssrtk.Lambda(2, 0, []float64{1, 2}, []float64{1, 0, 0, 1}, F[:], s[:]))
	/* not positive definite */
	assert.NotEqual(0, gnssrtk.Lambda(2, 2, []float64{1, 2}, []float64{1, 0, 0, -1}, F[:], s[:]))
}

func Test_LambdaReduction(t *testing.T) {
	assert := assert.New(t)

	Q := []float64{6.29, 5.978, 5.978, 6.292}
	Z := make([]float64, 4)
	require.Equal(t, 0, gnssrtk.LambdaReduction(2, Q, Z))

	/* unimodular integer transformation */
	for _, z := range Z {
		assert.Equal(math.Round(z), z)
	}
	assert.InDelta(1.0, math.Abs(Z[0]*Z[3]-Z[1]*Z[2]), 1e-12)

	/* decorrelated: Qz=Z'*Q*Z has a smaller correlation coefficient */
	var ZQ, Qz [4]float64
	gnssrtk.MatMul("TN", 2, 2, 2, 1.0, Z, Q, 0.0, ZQ[:])
	gnssrtk.MatMul("NN", 2, 2, 2, 1.0, ZQ[:], Z, 0.0, Qz[:])
	rho := math.Abs(Q[2]) / math.Sqrt(Q[0]*Q[3])
	rhoz := math.Abs(Qz[2]) / math.Sqrt(Qz[0]*Qz[3])
	assert.Less(rhoz, rho)

	assert.NotEqual(0, gnssrtk.LambdaReduction(0, Q, Z))
}
