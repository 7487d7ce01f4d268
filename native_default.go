//go:build !meos || !cgo

package meos

import (
	"github.com/tingold/orb-meos/internal/memnative"
	"github.com/tingold/orb-meos/native"
)

// DefaultEngine names the native implementation used when Config.Native is
// nil. Builds without the meos tag use the in-memory reference engine,
// whose WKB is not MEOS's.
const DefaultEngine = EngineReference

func defaultNative() native.Native {
	return memnative.New()
}
