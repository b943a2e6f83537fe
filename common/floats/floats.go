// Copyright 2026 shelfwise Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package floats provides float32 vector kernels shared by the scorer and the
// similarity index.
package floats

import "github.com/chewxy/math32"

// Zero fills a vector with zeros.
func Zero(a []float32) {
	for i := range a {
		a[i] = 0
	}
}

// MatZero fills a matrix with zeros.
func MatZero(x [][]float32) {
	for i := range x {
		Zero(x[i])
	}
}

// Dot returns the dot product of two vectors.
func Dot(a, b []float32) (ret float32) {
	for i := range a {
		ret += a[i] * b[i]
	}
	return
}

// Norm returns the Euclidean norm of a vector.
func Norm(a []float32) float32 {
	return math32.Sqrt(Dot(a, a))
}

// Add adds a vector to the destination: dst[i] += s[i].
func Add(dst, s []float32) {
	for i := range dst {
		dst[i] += s[i]
	}
}

// AddTo adds two vectors into a destination: dst[i] = a[i] + b[i].
func AddTo(a, b, dst []float32) {
	for i := range a {
		dst[i] = a[i] + b[i]
	}
}

// Sub subtracts a vector from the destination: dst[i] -= s[i].
func Sub(dst, s []float32) {
	for i := range dst {
		dst[i] -= s[i]
	}
}

// SubTo subtracts two vectors into a destination: dst[i] = a[i] - b[i].
func SubTo(a, b, dst []float32) {
	for i := range a {
		dst[i] = a[i] - b[i]
	}
}

// MulTo multiplies two vectors elementwise into a destination: c[i] = a[i] * b[i].
func MulTo(a, b, c []float32) {
	for i := range a {
		c[i] = a[i] * b[i]
	}
}

// MulConst multiplies a vector by a constant in place: dst[i] *= c.
func MulConst(dst []float32, c float32) {
	for i := range dst {
		dst[i] *= c
	}
}

// MulConstTo multiplies a vector by a constant into a destination: dst[i] = a[i] * c.
func MulConstTo(a []float32, c float32, dst []float32) {
	for i := range a {
		dst[i] = a[i] * c
	}
}

// MulConstAdd multiplies a vector by a constant and adds it to a destination:
// dst[i] += a[i] * c.
func MulConstAdd(a []float32, c float32, dst []float32) {
	for i := range a {
		dst[i] += a[i] * c
	}
}
