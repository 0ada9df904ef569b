// Eigenfaces on a synthetic face set: standardize per pixel, take the
// top principal components via the Gram-matrix trick, and reconstruct
// one face from increasing numbers of components.
package main

import (
	"math"

	"sowilo/plot"
)

const (
	faceW  = 25
	faceH  = 30
	pixels = faceW * faceH
	nFaces = 16
)

// face synthesizes one grayscale "face": a soft radial bump whose
// center and ripple phase vary with the seed.
func face(seed int) []float64 {
	s := float64(seed)
	vals := make([]float64, pixels)
	cx := 0.5 + 0.08*math.Sin(s*1.3)
	cy := 0.45 + 0.08*math.Cos(s*0.9)
	for y := 0; y < faceH; y++ {
		for x := 0; x < faceW; x++ {
			fx := float64(x) / float64(faceW-1)
			fy := float64(y) / float64(faceH-1)
			d := math.Hypot(fx-cx, (fy-cy)*1.2)
			v := math.Exp(-d * d * 8)
			v += 0.25 * math.Sin((fx*3+s*0.7)*math.Pi) * math.Cos((fy*2+s*0.4)*math.Pi)
			vals[y*faceW+x] = v
		}
	}
	return vals
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func matVec(m [][]float64, v []float64) []float64 {
	out := make([]float64, len(m))
	for i := range m {
		out[i] = dot(m[i], v)
	}
	return out
}

// topEigen returns the k largest eigenvectors of the symmetric matrix g
// by power iteration with deflation.
func topEigen(g [][]float64, k int) [][]float64 {
	n := len(g)
	a := make([][]float64, n)
	for i := range g {
		a[i] = make([]float64, n)
		copy(a[i], g[i])
	}

	vecs := make([][]float64, 0, k)
	for e := 0; e < k; e++ {
		v := make([]float64, n)
		for i := range v {
			v[i] = 1 / math.Sqrt(float64(n))
		}
		var lambda float64
		for iter := 0; iter < 60; iter++ {
			w := matVec(a, v)
			norm := math.Sqrt(dot(w, w))
			if norm == 0 {
				break
			}
			for i := range w {
				w[i] /= norm
			}
			v = w
			lambda = dot(v, matVec(a, v))
		}
		vecs = append(vecs, v)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				a[i][j] -= lambda * v[i] * v[j]
			}
		}
	}
	return vecs
}

func toMatrix(v []float64) [][]float64 {
	m := make([][]float64, faceH)
	for y := 0; y < faceH; y++ {
		row := make([]float64, faceW)
		copy(row, v[y*faceW:(y+1)*faceW])
		m[y] = row
	}
	return m
}

func main() {
	data := make([][]float64, nFaces)
	for i := range data {
		data[i] = face(i + 1)
	}

	// Standardize each pixel across the face set.
	std := make([][]float64, nFaces)
	for i := range std {
		std[i] = make([]float64, pixels)
	}
	for p := 0; p < pixels; p++ {
		var mean float64
		for i := 0; i < nFaces; i++ {
			mean += data[i][p]
		}
		mean /= nFaces
		var sd float64
		for i := 0; i < nFaces; i++ {
			d := data[i][p] - mean
			sd += d * d
		}
		sd = math.Sqrt(sd / nFaces)
		if sd == 0 {
			sd = 1
		}
		for i := 0; i < nFaces; i++ {
			std[i][p] = (data[i][p] - mean) / sd
		}
	}

	// Gram matrix of the standardized faces; its eigenvectors map back to
	// pixel-space eigenfaces.
	gram := make([][]float64, nFaces)
	for i := range gram {
		gram[i] = make([]float64, nFaces)
		for j := range gram[i] {
			gram[i][j] = dot(std[i], std[j])
		}
	}

	const nComponents = 8
	units := topEigen(gram, nComponents)
	eigenfaces := make([][]float64, nComponents)
	for e, u := range units {
		ef := make([]float64, pixels)
		for i := 0; i < nFaces; i++ {
			for p := 0; p < pixels; p++ {
				ef[p] += u[i] * std[i][p]
			}
		}
		norm := math.Sqrt(dot(ef, ef))
		if norm == 0 {
			norm = 1
		}
		for p := range ef {
			ef[p] /= norm
		}
		eigenfaces[e] = ef
	}

	// Reconstruct the first face from the leading k components.
	recon := func(k int) []float64 {
		out := make([]float64, pixels)
		for e := 0; e < k; e++ {
			loading := dot(std[0], eigenfaces[e])
			for p := 0; p < pixels; p++ {
				out[p] += loading * eigenfaces[e][p]
			}
		}
		return out
	}

	c := plot.NewCanvas("")
	c.Grid(2, 3)
	c.Region("Eigenface #1").Matrix(toMatrix(eigenfaces[0]))
	c.Region("Original (standardized)").Matrix(toMatrix(std[0]))
	c.Region("Eigenface #2").Matrix(toMatrix(eigenfaces[1]))
	c.Region("EF = 2").Matrix(toMatrix(recon(2)))
	c.Region("EF = 4").Matrix(toMatrix(recon(4)))
	c.Region("EF = 8").Matrix(toMatrix(recon(8)))
}
