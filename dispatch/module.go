package dispatch

import (
	"fmt"
	"reflect"
	"strings"
)

// methodType wraps one callable function of a module.
type methodType struct {
	method reflect.Method
}

// module is a Go receiver exposed under a module atom. Exported methods with
// the callable signature
//
//	func (m *M) Fun(args []any) (any, error)
//
// become reachable as mod:fun. Names are lowercased on registration because
// peers address modules and functions by lowercase atoms.
type module struct {
	name   string
	rcvr   reflect.Value
	typ    reflect.Type
	method map[string]*methodType
}

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	argsType  = reflect.TypeOf([]any(nil))
)

func newModule(rcvr any) (*module, error) {
	typ := reflect.TypeOf(rcvr)
	if typ == nil || typ.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("dispatch: receiver must be a pointer, got %v", typ)
	}
	if typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("dispatch: receiver must point to a struct, got %s", typ.Elem().Kind())
	}

	m := &module{
		name:   strings.ToLower(typ.Elem().Name()),
		rcvr:   reflect.ValueOf(rcvr),
		typ:    typ,
		method: make(map[string]*methodType),
	}
	m.scanMethods()

	if len(m.method) == 0 {
		return nil, fmt.Errorf("dispatch: %s has no callable methods", typ.Elem().Name())
	}
	return m, nil
}

// scanMethods keeps the exported methods matching the callable signature and
// skips the rest silently — a receiver may carry helpers alongside.
func (m *module) scanMethods() {
	for i := 0; i < m.typ.NumMethod(); i++ {
		method := m.typ.Method(i)
		mt := method.Type
		if mt.NumIn() != 2 || mt.In(1) != argsType {
			continue
		}
		if mt.NumOut() != 2 || mt.Out(0) != anyType || mt.Out(1) != errorType {
			continue
		}
		m.method[strings.ToLower(method.Name)] = &methodType{method: method}
	}
}

// call invokes one method with the normalized argument slice.
func (m *module) call(mt *methodType, args []any) (any, error) {
	in := [2]reflect.Value{m.rcvr, reflect.ValueOf(args)}
	if args == nil {
		// reflect.ValueOf(nil) is the zero Value; pass a typed nil slice
		in[1] = reflect.Zero(argsType)
	}
	results := mt.method.Func.Call(in[:])
	if !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}
