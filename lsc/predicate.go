// Copyright 2025 go-lsc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lsc

// AllActive returns a predicate with all n lanes active.
func AllActive(n int) []bool {
	return TailPredicate(n, n)
}

// TailPredicate returns a predicate of n lanes with the first count lanes
// active. It covers the remainder of an array whose length is not a
// multiple of the SIMT width.
//
// Example:
//
//	const lanes = 16
//	for base := 0; base < len(items); base += lanes {
//	    pred := lsc.TailPredicate(lanes, len(items)-base)
//	    // ... issue the gather with pred
//	}
func TailPredicate(n, count int) []bool {
	count = max(0, min(count, n))
	pred := make([]bool, n)
	for i := range count {
		pred[i] = true
	}
	return pred
}

// PredicateFromMask returns a predicate of n lanes where lane i is active
// when bit i of mask is set.
func PredicateFromMask(n int, mask uint32) []bool {
	pred := make([]bool, n)
	for i := range pred {
		pred[i] = i < 32 && mask&(1<<i) != 0
	}
	return pred
}

// Offsets returns an offset vector of n lanes with lane i at
// start + i*stride bytes.
func Offsets(n int, start, stride uint32) []uint32 {
	offs := make([]uint32, n)
	for i := range offs {
		offs[i] = start + uint32(i)*stride
	}
	return offs
}
