//go:build meos && cgo

package native

/*
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"sync"
)

// Error is an error reported by the libmeos error handler.
type Error struct {
	Level int
	Code  int
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("meos error %d: %s", e.Code, e.Msg)
}

var (
	lastErrMu sync.Mutex
	lastErr   *Error
)

// Export callback to be able to call from C.
//
//export goMeosError
func goMeosError(level C.int, code C.int, msg *C.char) {
	lastErrMu.Lock()
	lastErr = &Error{Level: int(level), Code: int(code), Msg: C.GoString(msg)}
	lastErrMu.Unlock()
}

func takeLastError() error {
	lastErrMu.Lock()
	defer lastErrMu.Unlock()
	if lastErr == nil {
		return nil
	}
	err := lastErr
	lastErr = nil
	return err
}
