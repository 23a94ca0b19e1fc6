package serialize

import (
	"reflect"
	"strings"

	"github.com/mstgnz/recorder/deferred"
)

// annotationMarkerTag is the convention a struct opts into to be
// treated as a fully-specified, always-literal "annotation literal"
// (the nearest Go equivalent to a Java annotation proxy instance,
// recreated as a plain struct literal rather than a complex,
// constructor-built object): a blank field tagged `recorder:"literal"`.
const annotationMarkerTag = "literal"

func hasAnnotationTags(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == "_" && f.Tag.Get("recorder") == annotationMarkerTag {
			return true
		}
	}
	return false
}

// dispatchAnnotationLiteral implements branch 15: every exported field
// not tagged `recorder:"-"` recurses independently, keyed by its
// recorder tag when it has one and by its field name otherwise, and the
// result is assembled as a single Go struct literal (a pure expression - Go
// struct literals are never indivisible owned statements the way an
// ArrayStored node's creation fragment is).
func dispatchAnnotationLiteral(env *Env, v reflect.Value) (deferred.Node, error) {
	t := v.Type()

	var children []deferred.Node
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == "_" || !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("recorder")
		if tag == "-" {
			continue
		}
		name := f.Name
		if tag != "" {
			name = tag
		}
		node, err := Dispatch(env, v.Field(i), f.Type)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
		names = append(names, name)
	}

	typeName := goTypeName(t)
	return deferred.NewInline(children, func(exprs []string) (string, error) {
		var b strings.Builder
		b.WriteString(typeName)
		b.WriteString("{")
		for i, name := range names {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(exprs[i])
		}
		b.WriteString("}")
		return b.String(), nil
	}), nil
}
