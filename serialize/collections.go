package serialize

import (
	"fmt"
	"reflect"

	"github.com/mstgnz/recorder/deferred"
)

// dispatchEmptyCollection implements branch 3: an empty slice or map
// needs no element recursion at all, so it is handled before the
// (potentially expensive) substitution/pointer/etc. checks below it.
// handled is false for anything that is not an empty slice or map,
// letting Dispatch fall through to the later branches.
func dispatchEmptyCollection(v reflect.Value) (deferred.Node, bool, error) {
	switch v.Kind() {
	case reflect.Slice:
		if v.Len() != 0 {
			return nil, false, nil
		}
		lit := fmt.Sprintf("%s{}", goTypeName(v.Type()))
		return deferred.NewInline(nil, func([]string) (string, error) { return lit, nil }), true, nil
	case reflect.Map:
		if v.Len() != 0 {
			return nil, false, nil
		}
		lit := fmt.Sprintf("%s{}", goTypeName(v.Type()))
		return deferred.NewInline(nil, func([]string) (string, error) { return lit, nil }), true, nil
	}
	return nil, false, nil
}
