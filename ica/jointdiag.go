// SPDX-License-Identifier: MIT

package ica

import "math"

// jointDiagonalize finds an orthogonal V making every k×k matrix in ms as
// diagonal as possible (Jacobi angles, Cardoso & Souloumiac). The matrices
// are rotated in place to Vᵀ·M·V. V is returned row-major.
//
// Implementation:
//   - Stage 1: V = I.
//   - Stage 2: sweep all pairs p<q; the Givens angle comes from the 2×2
//     statistics g1 = M[p,p]-M[q,q], g2 = M[p,q]+M[q,p] summed over ms.
//   - Stage 3: stop when a full sweep applies no rotation with |sin θ| > tol.
//
// Complexity: O(sweeps · k² · |ms| · k).
func jointDiagonalize(ms [][]float64, k int, tol float64, maxSweeps int) (v []float64, sweeps int) {
	v = make([]float64, k*k)
	for i := 0; i < k; i++ {
		v[i*k+i] = 1
	}

	for sweeps = 0; sweeps < maxSweeps; sweeps++ {
		rotated := false
		for p := 0; p < k-1; p++ {
			for q := p + 1; q < k; q++ {
				var s11, s22, s12 float64
				for _, m := range ms {
					g1 := m[p*k+p] - m[q*k+q]
					g2 := m[p*k+q] + m[q*k+p]
					s11 += g1 * g1
					s22 += g2 * g2
					s12 += g1 * g2
				}
				ton, toff := s11-s22, 2*s12
				theta := 0.5 * math.Atan2(toff, ton+math.Sqrt(ton*ton+toff*toff))
				c, s := math.Cos(theta), math.Sin(theta)
				if math.Abs(s) <= tol {
					continue
				}
				rotated = true

				for i := 0; i < k; i++ {
					vp, vq := v[i*k+p], v[i*k+q]
					v[i*k+p] = c*vp + s*vq
					v[i*k+q] = -s*vp + c*vq
				}
				for _, m := range ms {
					// rows p, q
					for i := 0; i < k; i++ {
						mp, mq := m[p*k+i], m[q*k+i]
						m[p*k+i] = c*mp + s*mq
						m[q*k+i] = -s*mp + c*mq
					}
					// columns p, q
					for i := 0; i < k; i++ {
						mp, mq := m[i*k+p], m[i*k+q]
						m[i*k+p] = c*mp + s*mq
						m[i*k+q] = -s*mp + c*mq
					}
				}
			}
		}
		if !rotated {
			break
		}
	}

	return v, sweeps
}

// transposeSquare returns the transpose of a row-major k×k matrix.
func transposeSquare(a []float64, k int) []float64 {
	out := make([]float64, k*k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			out[j*k+i] = a[i*k+j]
		}
	}

	return out
}

// thirdOrderSlices returns T_i = E[z_i · z zᵀ] for every component i.
func thirdOrderSlices(z [][]float64, k int) [][]float64 {
	n := float64(len(z))
	out := make([][]float64, k)
	for i := range out {
		m := make([]float64, k*k)
		for _, x := range z {
			for a := 0; a < k; a++ {
				for b := a; b < k; b++ {
					m[a*k+b] += x[i] * x[a] * x[b]
				}
			}
		}
		symmetrize(m, k, 1/n)
		out[i] = m
	}

	return out
}

// fourthOrderCumulants returns the JADE cumulant matrices of whitened z:
//
//	Q_ii = E[z_i² z zᵀ] - I - 2 e_i e_iᵀ
//	Q_ij = √2 (E[z_i z_j z zᵀ] - e_i e_jᵀ - e_j e_iᵀ), i < j
func fourthOrderCumulants(z [][]float64, k int) [][]float64 {
	n := float64(len(z))
	out := make([][]float64, 0, k*(k+1)/2)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			m := make([]float64, k*k)
			for _, x := range z {
				w := x[i] * x[j]
				for a := 0; a < k; a++ {
					for b := a; b < k; b++ {
						m[a*k+b] += w * x[a] * x[b]
					}
				}
			}
			symmetrize(m, k, 1/n)
			if i == j {
				for a := 0; a < k; a++ {
					m[a*k+a]--
				}
				m[i*k+i] -= 2
			} else {
				m[i*k+j]--
				m[j*k+i]--
				for a := range m {
					m[a] *= math.Sqrt2
				}
			}
			out = append(out, m)
		}
	}

	return out
}

// laggedCovariances returns the symmetrised E[z_t z_{t+τ}ᵀ] for τ = 1..lags.
func laggedCovariances(z [][]float64, k, lags int) [][]float64 {
	out := make([][]float64, 0, lags)
	for tau := 1; tau <= lags && tau < len(z); tau++ {
		m := make([]float64, k*k)
		cnt := float64(len(z) - tau)
		for t := 0; t+tau < len(z); t++ {
			x, y := z[t], z[t+tau]
			for a := 0; a < k; a++ {
				for b := 0; b < k; b++ {
					m[a*k+b] += x[a] * y[b]
				}
			}
		}
		for a := 0; a < k; a++ {
			for b := a; b < k; b++ {
				s := (m[a*k+b] + m[b*k+a]) / (2 * cnt)
				m[a*k+b], m[b*k+a] = s, s
			}
		}
		out = append(out, m)
	}

	return out
}

// symmetrize scales the upper triangle by f and mirrors it.
func symmetrize(m []float64, k int, f float64) {
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			m[a*k+b] *= f
			m[b*k+a] = m[a*k+b]
		}
	}
}
