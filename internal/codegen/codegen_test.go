package codegen

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapmodel/internal/layout"
	"github.com/leapstack-labs/leapmodel/internal/testutil"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadShop(t *testing.T) *Package {
	t.Helper()
	pkgs, err := Load(context.Background(), LoadConfig{
		Dir:       "testdata/shop",
		Patterns:  []string{"."},
		Contracts: []string{"Wide"},
		Logger:    testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	return pkgs[0]
}

func contractNamed(t *testing.T, pkg *Package, name string) *Contract {
	t.Helper()
	for _, c := range pkg.Contracts {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("contract %s not loaded", name)
	return nil
}

func propertyNamed(t *testing.T, c *Contract, name string) *Property {
	t.Helper()
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("property %s not found", name)
	return nil
}

func TestLoad_Contracts(t *testing.T) {
	pkg := loadShop(t)

	assert.Equal(t, "shop", pkg.Name)
	var names []string
	for _, c := range pkg.Contracts {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Customer", "Wide"}, names)
}

func TestInspect_Customer(t *testing.T) {
	c := contractNamed(t, loadShop(t), "Customer")

	var names []string
	for _, p := range c.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"ID", "Name", "email_address", "Age", "Timeout", "Labels", "Status", "Balance",
		"Tags", "Ledger", "Display", "Code", "CreatedBy", "UpdatedBy",
	}, names)
	assert.Equal(t, []string{
		"Name", "email_address", "Age", "Timeout", "Labels", "Status", "Balance", "Code", "UpdatedBy",
	}, c.Writable())

	assert.True(t, c.Notify)
	assert.False(t, c.OnChanged)
	assert.Equal(t, []string{"Audited"}, c.Inherited)
	assert.Equal(t, layout.Width16, c.Plan.Width)

	tests := []struct {
		name  string
		check func(t *testing.T, p *Property)
	}{
		{"ID", func(t *testing.T, p *Property) {
			assert.False(t, p.Writable)
			assert.Equal(t, -1, p.Ordinal)
		}},
		{"email_address", func(t *testing.T, p *Property) {
			assert.Equal(t, "Email", p.Field)
			assert.Equal(t, 1, p.Ordinal)
		}},
		{"Age", func(t *testing.T, p *Property) {
			assert.Equal(t, "18", p.Default)
		}},
		{"Timeout", func(t *testing.T, p *Property) {
			assert.Equal(t, "time.Duration", p.TypeExpr)
			assert.Equal(t, "time.Duration(90000000000)", p.Default)
		}},
		{"Labels", func(t *testing.T, p *Property) {
			assert.Equal(t, `[]string{"a", "b"}`, p.Default)
			assert.Equal(t, compareDeep, p.Compare)
			assert.True(t, p.Nillable)
		}},
		{"Status", func(t *testing.T, p *Property) {
			assert.Equal(t, `Status("new")`, p.Default)
		}},
		{"Balance", func(t *testing.T, p *Property) {
			assert.Equal(t, compareEqualMethod, p.Compare)
		}},
		{"Tags", func(t *testing.T, p *Property) {
			assert.Equal(t, core.ModeSingleton, p.Mode)
			assert.Equal(t, constructMap, p.Construct)
			assert.False(t, p.Writable)
		}},
		{"Ledger", func(t *testing.T, p *Property) {
			assert.Equal(t, constructFactory, p.Construct)
			assert.Equal(t, "NewLedger", p.Factory)
		}},
		{"Display", func(t *testing.T, p *Property) {
			assert.Equal(t, core.ModeExtension, p.Mode)
			assert.False(t, p.Stored)
		}},
		{"Code", func(t *testing.T, p *Property) {
			assert.True(t, p.GetterTakesCurrent)
			assert.True(t, p.Stored)
			assert.Equal(t, 7, p.Ordinal)
		}},
		{"CreatedBy", func(t *testing.T, p *Property) {
			assert.False(t, p.Writable)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, propertyNamed(t, c, tt.name))
		})
	}
}

func TestInspect_WideMask(t *testing.T) {
	c := contractNamed(t, loadShop(t), "Wide")

	require.Len(t, c.Properties, 65)
	assert.Equal(t, layout.WidthBytes, c.Plan.Width)
	assert.Equal(t, 9, c.Plan.Bytes())
	assert.Equal(t, "[9]byte", c.Plan.GoType())
	assert.False(t, c.NeedsHost())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		dir  string
		kind error
		msg  string
	}{
		{"testdata/broken", core.ErrExtensionNotFound, "has no method GetTotal"},
		{"testdata/collide", core.ErrInvalidContract, "collides with a core.Model method"},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			_, err := Load(context.Background(), LoadConfig{Dir: tt.dir})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestGenerate(t *testing.T) {
	src, err := Generate(loadShop(t), Options{})
	require.NoError(t, err)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "models_gen.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))

	assert.Equal(t, "shop", file.Name.Name)
	assert.True(t, strings.HasPrefix(string(src), "// Code generated by modelgen. DO NOT EDIT."))

	var imports []string
	for _, imp := range file.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, `"`))
	}
	assert.ElementsMatch(t, []string{
		"math/bits", "reflect", "sync", "time",
		"github.com/leapstack-labs/leapmodel/pkg/core",
		"github.com/leapstack-labs/leapmodel/pkg/notify",
	}, imports)

	methods := map[string][]string{}
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil {
			continue
		}
		recv := fn.Recv.List[0].Type.(*ast.StarExpr).X.(*ast.Ident).Name
		methods[recv] = append(methods[recv], fn.Name.Name)
	}

	customer := methods["CustomerModel"]
	for _, want := range []string{
		"Name", "SetName", "Email", "SetEmail", "Tags", "Ledger", "Display", "Code", "SetCode",
		"GetCount", "HasChanges", "GetChanges", "ChangedNames", "Reset", "ResetMany",
		"TryGetValue", "TrySetValue", "AddPropertyChanged", "RemovePropertyChanged",
	} {
		assert.Contains(t, customer, want)
	}
	for _, absent := range []string{"SetID", "SetTags", "SetDisplay", "SetCreatedBy"} {
		assert.NotContains(t, customer, absent)
	}
	assert.NotContains(t, methods["WideModel"], "AddPropertyChanged")

	out := string(src)
	for _, want := range []string{
		"mask uint16",
		"mask [9]byte",
		"m.f3 = 18",
		"m.f4 = time.Duration(90000000000)",
		"m.f8 = make(map[string]string)",
		"m.f9 = customerModelHost.NewLedger()",
		"return customerModelHost.GetDisplay(m)",
		"customerModelHost.SetCode(m, m.f11, v)",
		"changed := !v.Equal(m.f7)",
		"changed := !reflect.DeepEqual(m.f5, v)",
		"bits.OnesCount16(m.mask)",
		`var customerModelWritable = [...]string{"Name", "email_address", "Age", "Timeout", "Labels", "Status", "Balance", "Code", "UpdatedBy"}`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "m.f10 ")
}

func TestDefaultExpr(t *testing.T) {
	self := types.NewPackage("example.com/shop", "shop")
	timePkg := types.NewPackage("time", "time")
	duration := types.NewNamed(types.NewTypeName(token.NoPos, timePkg, "Duration", nil), types.Typ[types.Int64], nil)
	status := types.NewNamed(types.NewTypeName(token.NoPos, self, "Status", nil), types.Typ[types.String], nil)

	tests := []struct {
		name    string
		raw     string
		typ     types.Type
		want    string
		wantErr bool
	}{
		{"int", "42", types.Typ[types.Int], "42", false},
		{"negative int8", "-5", types.Typ[types.Int8], "int8(-5)", false},
		{"uint16", "7", types.Typ[types.Uint16], "uint16(7)", false},
		{"float64", "1.5", types.Typ[types.Float64], "1.5", false},
		{"float32", "0.25", types.Typ[types.Float32], "float32(0.25)", false},
		{"bool", "true", types.Typ[types.Bool], "true", false},
		{"string", `a "b"`, types.Typ[types.String], `"a \"b\""`, false},
		{"named string", "new", status, `Status("new")`, false},
		{"duration", "2s", duration, "time.Duration(2000000000)", false},
		{"int slice", "1,2,3", types.NewSlice(types.Typ[types.Int]), "[]int{1, 2, 3}", false},
		{"bad int", "abc", types.Typ[types.Int], "", true},
		{"nan", "NaN", types.Typ[types.Float64], "", true},
		{"unsupported", "x", types.NewMap(types.Typ[types.String], types.Typ[types.String]), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := defaultExpr(tt.raw, tt.typ, types.RelativeTo(self))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComparison(t *testing.T) {
	self := types.NewPackage("example.com/shop", "shop")
	anyType := types.Universe.Lookup("any").Type()
	field := func(name string, typ types.Type) *types.Var {
		return types.NewField(token.NoPos, self, name, typ, false)
	}
	box := types.NewNamed(types.NewTypeName(token.NoPos, self, "Box", nil),
		types.NewStruct([]*types.Var{field("V", anyType)}, nil), nil)
	point := types.NewStruct([]*types.Var{
		field("X", types.Typ[types.Int]),
		field("Y", types.Typ[types.Int]),
	}, nil)

	tests := []struct {
		name string
		typ  types.Type
		want compare
	}{
		{"int", types.Typ[types.Int], compareEqual},
		{"plain struct", point, compareEqual},
		{"int array", types.NewArray(types.Typ[types.Int], 2), compareEqual},
		{"pointer to interface holder", types.NewPointer(box), compareEqual},
		{"interface", anyType, compareDeep},
		{"struct with interface field", box, compareDeep},
		{"array of interfaces", types.NewArray(anyType, 2), compareDeep},
		{"nested interface field", types.NewStruct([]*types.Var{field("B", box)}, nil), compareDeep},
		{"slice", types.NewSlice(types.Typ[types.Int]), compareDeep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, comparison(tt.typ))
		})
	}
}
