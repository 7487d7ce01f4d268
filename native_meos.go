//go:build meos && cgo

package meos

import "github.com/tingold/orb-meos/native"

// DefaultEngine names the native implementation used when Config.Native is
// nil.
const DefaultEngine = EngineLibMEOS

func defaultNative() native.Native {
	return native.NewCGO()
}
