package fn

import (
	"reflect"
	"runtime"
	"strings"
)

// Name returns the short name of the given function, without package path or
// the -fm suffix added for method values.
func Name(fn interface{}) string {
	fnName := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()

	// Remove package path
	if i := strings.LastIndex(fnName, "."); i >= 0 {
		fnName = fnName[i+1:]
	}

	// Method values get a -fm suffix
	fnName = strings.TrimSuffix(fnName, "-fm")

	return fnName
}
