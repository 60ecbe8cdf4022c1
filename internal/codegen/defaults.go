package codegen

import (
	"fmt"
	"go/types"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapmodel/internal/contract"
)

var basicTypes = map[types.BasicKind]reflect.Type{
	types.Bool:    reflect.TypeFor[bool](),
	types.Int:     reflect.TypeFor[int](),
	types.Int8:    reflect.TypeFor[int8](),
	types.Int16:   reflect.TypeFor[int16](),
	types.Int32:   reflect.TypeFor[int32](),
	types.Int64:   reflect.TypeFor[int64](),
	types.Uint:    reflect.TypeFor[uint](),
	types.Uint8:   reflect.TypeFor[uint8](),
	types.Uint16:  reflect.TypeFor[uint16](),
	types.Uint32:  reflect.TypeFor[uint32](),
	types.Uint64:  reflect.TypeFor[uint64](),
	types.Float32: reflect.TypeFor[float32](),
	types.Float64: reflect.TypeFor[float64](),
	types.String:  reflect.TypeFor[string](),
}

// untyped constants of these kinds need no conversion
var bareKinds = map[types.BasicKind]bool{
	types.Bool:    true,
	types.Int:     true,
	types.Float64: true,
	types.String:  true,
}

// defaultExpr converts the text of a `default` tag into a Go expression of type t.
// Conversion goes through the same decoder as the runtime, so both accept
// exactly the same defaults.
func defaultExpr(raw string, t types.Type, qualify types.Qualifier) (string, error) {
	t = types.Unalias(t)
	expr := types.TypeString(t, qualify)

	if isDuration(t) {
		v, err := contract.ConvertDefault(raw, reflect.TypeFor[time.Duration]())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%d)", expr, v.Int()), nil
	}

	switch u := t.Underlying().(type) {
	case *types.Basic:
		rt, ok := basicTypes[u.Kind()]
		if !ok {
			break
		}
		v, err := contract.ConvertDefault(raw, rt)
		if err != nil {
			return "", err
		}
		lit, err := literal(v)
		if err != nil {
			return "", err
		}
		if _, named := t.(*types.Named); !named && bareKinds[u.Kind()] {
			return lit, nil
		}
		return expr + "(" + lit + ")", nil

	case *types.Slice:
		eb, ok := u.Elem().Underlying().(*types.Basic)
		if !ok || isDuration(u.Elem()) {
			break
		}
		rt, ok := basicTypes[eb.Kind()]
		if !ok {
			break
		}
		v, err := contract.ConvertDefault(raw, reflect.SliceOf(rt))
		if err != nil {
			return "", err
		}
		elems := make([]string, v.Len())
		for i := range elems {
			if elems[i], err = literal(v.Index(i)); err != nil {
				return "", err
			}
		}
		return expr + "{" + strings.Join(elems, ", ") + "}", nil
	}
	return "", fmt.Errorf("default values of type %s are not supported in generated code", expr)
}

func isDuration(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "time" && obj.Name() == "Duration"
}

func literal(v reflect.Value) (string, error) {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%v has no constant form", f)
		}
		bits := 64
		if v.Kind() == reflect.Float32 {
			bits = 32
		}
		return strconv.FormatFloat(f, 'g', -1, bits), nil
	case reflect.String:
		return strconv.Quote(v.String()), nil
	default:
		return "", fmt.Errorf("no literal form for %s", v.Type())
	}
}
