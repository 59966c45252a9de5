// Copyright 2025 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package chained_proof

// This file intentionally remains small.
// The canonical proof object is defined in types.go.
// Construction is implemented in proof_builder.go.
// Verification is implemented in proof_verifier.go.