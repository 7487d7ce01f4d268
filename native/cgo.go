//go:build meos && cgo

package native

/*
#cgo LDFLAGS: -lmeos -lgeos_c -lproj -ljson-c -lgsl -lgslcblas
#include <stdlib.h>
#include <string.h>
#include <meos.h>
#include <meos_internal.h>

extern void goMeosError(int level, int code, char *msg);

void meos_go_error_trampoline(int level, int code, const char *msg) {
	goMeosError(level, code, (char *) msg);
}

void meos_go_initialize(const char *tz) {
	meos_initialize(tz, &meos_go_error_trampoline);
}

uint8_t meos_go_subtype(const Temporal *temp) {
	return temp->subtype;
}

uint8_t meos_go_interp(const Temporal *temp) {
	return (uint8_t) MEOS_FLAGS_GET_INTERP(temp->flags);
}

int32_t meos_go_srid(const Temporal *temp) {
	return tpoint_srid(temp);
}
*/
import "C"

import (
	"unsafe"
)

// CGO calls libmeos through cgo. libmeos keeps process-wide state, so at
// most one CGO value should be initialized at a time.
type CGO struct{}

// NewCGO returns the libmeos backed implementation.
func NewCGO() *CGO {
	return &CGO{}
}

func temporal(p Ptr) *C.Temporal {
	return (*C.Temporal)(unsafe.Pointer(uintptr(p)))
}

func tbox(p Ptr) *C.TBox {
	return (*C.TBox)(unsafe.Pointer(uintptr(p)))
}

func stbox(p Ptr) *C.STBox {
	return (*C.STBox)(unsafe.Pointer(uintptr(p)))
}

func ptr[T any](p *T) Ptr {
	return Ptr(uintptr(unsafe.Pointer(p)))
}

func (*CGO) Initialize(tz string) error {
	var ctz *C.char
	if tz != "" {
		ctz = C.CString(tz)
		defer C.free(unsafe.Pointer(ctz))
	}
	C.meos_go_initialize(ctz)
	return takeLastError()
}

func (*CGO) Finalize() {
	C.meos_finalize()
}

func (*CGO) LastError() error {
	return takeLastError()
}

func (*CGO) TGeomPointIn(str string) Ptr {
	cs := C.CString(str)
	defer C.free(unsafe.Pointer(cs))
	return ptr(C.tgeompoint_in(cs))
}

func (*CGO) TemporalFromWKB(wkb []byte) Ptr {
	if len(wkb) == 0 {
		return 0
	}
	buf := C.CBytes(wkb)
	defer C.free(buf)
	return ptr(C.temporal_from_wkb((*C.uint8_t)(buf), C.size_t(len(wkb))))
}

func (*CGO) TemporalFromHexWKB(hex string) Ptr {
	cs := C.CString(hex)
	defer C.free(unsafe.Pointer(cs))
	return ptr(C.temporal_from_hexwkb(cs))
}

func (*CGO) TSequenceMake(instants []Ptr, maxCount int, lowerInc, upperInc bool, interp Interp, normalize bool) Ptr {
	if len(instants) == 0 {
		return 0
	}
	arr := make([]*C.TInstant, len(instants))
	for i, p := range instants {
		arr[i] = (*C.TInstant)(unsafe.Pointer(uintptr(p)))
	}
	seq := C.tsequence_make_exp(&arr[0], C.int(len(arr)), C.int(maxCount),
		C.bool(lowerInc), C.bool(upperInc), C.interpType(interp), C.bool(normalize))
	return ptr(seq)
}

func (*CGO) TSequenceAppendTInstant(seq, inst Ptr, expand bool) Ptr {
	res := C.tsequence_append_tinstant(
		(*C.TSequence)(unsafe.Pointer(uintptr(seq))),
		(*C.TInstant)(unsafe.Pointer(uintptr(inst))),
		0, nil, C.bool(expand))
	return ptr(res)
}

func (*CGO) TSequenceRestart(seq Ptr, count int) {
	C.tsequence_restart((*C.TSequence)(unsafe.Pointer(uintptr(seq))), C.int(count))
}

func (*CGO) TemporalSubtype(temp Ptr) uint8 {
	return uint8(C.meos_go_subtype(temporal(temp)))
}

func (*CGO) TemporalInterp(temp Ptr) Interp {
	return Interp(C.meos_go_interp(temporal(temp)))
}

func (*CGO) TemporalNumInstants(temp Ptr) int {
	return int(C.temporal_num_instants(temporal(temp)))
}

func (*CGO) TemporalStartTimestamp(temp Ptr) int64 {
	return int64(C.temporal_start_timestamptz(temporal(temp)))
}

func (*CGO) TemporalEndTimestamp(temp Ptr) int64 {
	return int64(C.temporal_end_timestamptz(temporal(temp)))
}

func (*CGO) TemporalSRID(temp Ptr) int32 {
	return int32(C.meos_go_srid(temporal(temp)))
}

func (*CGO) TemporalEq(a, b Ptr) bool {
	return bool(C.temporal_eq(temporal(a), temporal(b)))
}

func (*CGO) TPointToSTBox(temp Ptr) Ptr {
	return ptr(C.tpoint_to_stbox(temporal(temp)))
}

func (*CGO) TemporalOut(temp Ptr, maxdd int) Ptr {
	return ptr(C.temporal_out(temporal(temp), C.int(maxdd)))
}

func (*CGO) TPointAsEWKT(temp Ptr, maxdd int) Ptr {
	return ptr(C.tpoint_as_ewkt(temporal(temp), C.int(maxdd)))
}

func (*CGO) TemporalAsMFJSON(temp Ptr, withBBox bool, flags, precision int, srs string) Ptr {
	var csrs *C.char
	if srs != "" {
		csrs = C.CString(srs)
		defer C.free(unsafe.Pointer(csrs))
	}
	return ptr(C.temporal_as_mfjson(temporal(temp), C.bool(withBBox), C.int(flags), C.int(precision), csrs))
}

func (*CGO) TemporalAsWKB(temp Ptr, variant uint8) (Ptr, int) {
	var size C.size_t
	buf := C.temporal_as_wkb(temporal(temp), C.uint8_t(variant), &size)
	return ptr(buf), int(size)
}

func (*CGO) TemporalAsHexWKB(temp Ptr, variant uint8) (Ptr, int) {
	var size C.size_t
	buf := C.temporal_as_hexwkb(temporal(temp), C.uint8_t(variant), &size)
	return ptr(buf), int(size)
}

func (*CGO) TBoxIn(str string) Ptr {
	cs := C.CString(str)
	defer C.free(unsafe.Pointer(cs))
	return ptr(C.tbox_in(cs))
}

func (*CGO) TBoxOut(box Ptr, maxdd int) Ptr {
	return ptr(C.tbox_out(tbox(box), C.int(maxdd)))
}

func (*CGO) IntToTBox(i int) Ptr {
	return ptr(C.int_to_tbox(C.int(i)))
}

func (*CGO) TBoxEq(a, b Ptr) bool {
	return bool(C.tbox_eq(tbox(a), tbox(b)))
}

func (*CGO) TBoxCmp(a, b Ptr) int {
	return int(C.tbox_cmp(tbox(a), tbox(b)))
}

func (*CGO) ContainsTBoxTBox(a, b Ptr) bool {
	return bool(C.contains_tbox_tbox(tbox(a), tbox(b)))
}

func (*CGO) OverlapsTBoxTBox(a, b Ptr) bool {
	return bool(C.overlaps_tbox_tbox(tbox(a), tbox(b)))
}

func (*CGO) SameTBoxTBox(a, b Ptr) bool {
	return bool(C.same_tbox_tbox(tbox(a), tbox(b)))
}

func (*CGO) STBoxIn(str string) Ptr {
	cs := C.CString(str)
	defer C.free(unsafe.Pointer(cs))
	return ptr(C.stbox_in(cs))
}

func (*CGO) STBoxOut(box Ptr, maxdd int) Ptr {
	return ptr(C.stbox_out(stbox(box), C.int(maxdd)))
}

func (*CGO) STBoxEq(a, b Ptr) bool {
	return bool(C.stbox_eq(stbox(a), stbox(b)))
}

func (*CGO) STBoxCmp(a, b Ptr) int {
	return int(C.stbox_cmp(stbox(a), stbox(b)))
}

func (*CGO) ContainsSTBoxSTBox(a, b Ptr) bool {
	return bool(C.contains_stbox_stbox(stbox(a), stbox(b)))
}

func (*CGO) OverlapsSTBoxSTBox(a, b Ptr) bool {
	return bool(C.overlaps_stbox_stbox(stbox(a), stbox(b)))
}

func (*CGO) SameSTBoxSTBox(a, b Ptr) bool {
	return bool(C.same_stbox_stbox(stbox(a), stbox(b)))
}

func (*CGO) STBoxXY(box Ptr) (xmin, ymin, xmax, ymax float64, ok bool) {
	b := stbox(box)
	var v C.double
	if !bool(C.stbox_xmin(b, &v)) {
		return 0, 0, 0, 0, false
	}
	xmin = float64(v)
	C.stbox_ymin(b, &v)
	ymin = float64(v)
	C.stbox_xmax(b, &v)
	xmax = float64(v)
	C.stbox_ymax(b, &v)
	ymax = float64(v)
	return xmin, ymin, xmax, ymax, true
}

func (*CGO) CopyCString(p Ptr) []byte {
	cs := (*C.char)(unsafe.Pointer(uintptr(p)))
	return C.GoBytes(unsafe.Pointer(cs), C.int(C.strlen(cs)))
}

func (*CGO) CopyBytes(p Ptr, size int) []byte {
	return C.GoBytes(unsafe.Pointer(uintptr(p)), C.int(size))
}

func (*CGO) Free(p Ptr) {
	if p == 0 {
		return
	}
	C.free(unsafe.Pointer(uintptr(p)))
}
