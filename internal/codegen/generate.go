package codegen

import (
	"bytes"
	"fmt"
	"path"
	"slices"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapmodel/internal/layout"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"golang.org/x/tools/imports"
)

const notifyPath = "github.com/leapstack-labs/leapmodel/pkg/notify"

// generatedImports are always written; user types may not shadow their names.
var generatedImports = map[string]string{
	"math/bits": "bits",
	"reflect":   "reflect",
	"sync":      "sync",
	corePath:    "core",
	notifyPath:  "notify",
}

// Options controls code generation.
type Options struct {
	// Suffix is appended to contract names. Defaults to DefaultSuffix.
	Suffix string
	// Filename is the name of the output file, used for formatting diagnostics.
	Filename string
}

// Generate emits the model implementations of every contract in pkg as one
// formatted Go source file.
func Generate(pkg *Package, opts Options) ([]byte, error) {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	if opts.Filename == "" {
		opts.Filename = DefaultOutput
	}

	g := &generator{}
	g.p("// Code generated by modelgen. DO NOT EDIT.\n\n")
	g.p("package %s\n\n", pkg.Name)
	g.imports(pkg)
	for _, c := range pkg.Contracts {
		g.contract(c, opts.Suffix)
	}

	src, err := imports.Process(opts.Filename, g.buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code for %s: %w", pkg.Path, err)
	}
	return src, nil
}

type generator struct {
	buf bytes.Buffer
}

func (g *generator) p(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

// imports writes every import the generated code may use; unused ones are
// pruned by imports.Process.
func (g *generator) imports(pkg *Package) {
	g.p("import (\n")
	g.p("\t\"math/bits\"\n\t\"reflect\"\n\t\"sync\"\n\n")
	g.p("\t%q\n\t%q\n", corePath, notifyPath)

	paths := make([]string, 0, len(pkg.imports.names))
	for p := range pkg.imports.names {
		if _, own := generatedImports[p]; !own {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)
	for _, p := range paths {
		name := pkg.imports.names[p]
		if name == path.Base(p) {
			g.p("\t%q\n", p)
		} else {
			g.p("\t%s %q\n", name, p)
		}
	}
	g.p(")\n\n")
}

// names of the generated identifiers for one contract.
type names struct {
	typ      string
	token    string
	tokens   string
	writable string
	host     string
}

func newNames(c *Contract, suffix string) names {
	typ := c.Name + suffix
	low := lowerFirst(typ)
	return names{
		typ:      typ,
		token:    low + "Token",
		tokens:   low + "Tokens",
		writable: low + "Writable",
		host:     low + "Host",
	}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

func (g *generator) contract(c *Contract, suffix string) {
	n := newNames(c, suffix)

	g.p("var _ core.Model = (*%s)(nil)\n", n.typ)
	if c.Notify {
		g.p("var _ core.Notifier = (*%s)(nil)\n", n.typ)
	}
	g.p("\n")

	g.record(c, n)
	g.constructor(c, n)
	g.maskHelpers(c, n)
	for _, p := range c.Properties {
		g.accessors(c, n, p)
	}
	g.tokenTable(c, n)
	g.surface(n)
	if c.Notifies() {
		g.notifier(c, n)
	}
}

func (g *generator) record(c *Contract, n names) {
	g.p("// %s implements the %s contract.\n", n.typ, c.Name)
	g.p("type %s struct {\n", n.typ)
	g.p("\tmask %s\n", c.Plan.GoType())
	for i, p := range c.Properties {
		if p.Stored {
			g.p("\tf%d %s // %s\n", i, p.TypeExpr, p.Name)
		}
		if p.Mode == core.ModeSingleton {
			g.p("\tonce%d sync.Once\n", i)
		}
	}
	if c.Notify {
		g.p("\tchanged notify.Slot\n")
	}
	g.p("}\n\n")

	if c.NeedsHost() {
		g.p("var %s %s\n\n", n.host, c.Name)
	}
}

func (g *generator) constructor(c *Contract, n names) {
	g.p("// New%s returns a %s with defaults applied and no changes recorded.\n", n.typ, n.typ)
	g.p("func New%s() *%s {\n", n.typ, n.typ)
	g.p("\tm := &%s{}\n", n.typ)
	for i, p := range c.Properties {
		if p.Stored && p.Default != "" {
			g.p("\tm.f%d = %s\n", i, p.Default)
		}
	}
	g.p("\treturn m\n}\n\n")
}

func (g *generator) maskHelpers(c *Contract, n names) {
	recv := "func (m *" + n.typ + ")"
	if c.Plan.Width == layout.WidthBytes {
		g.p("%s setBit(o int) { m.mask[o/8] |= 1 << (o %% 8) }\n\n", recv)
		g.p("%s clearBit(o int) { m.mask[o/8] &^= 1 << (o %% 8) }\n\n", recv)
		g.p("%s testBit(o int) bool { return m.mask[o/8]&(1<<(o%%8)) != 0 }\n\n", recv)
		g.p("%s anyBit() bool { return m.mask != %s{} }\n\n", recv, c.Plan.GoType())
		g.p("%s countBits() int {\n\tn := 0\n\tfor _, b := range m.mask {\n\t\tn += bits.OnesCount8(b)\n\t}\n\treturn n\n}\n\n", recv)
		return
	}

	count := map[layout.Width]string{
		layout.Width8:  "OnesCount8",
		layout.Width16: "OnesCount16",
		layout.Width32: "OnesCount32",
		layout.Width64: "OnesCount64",
	}[c.Plan.Width]
	g.p("%s setBit(o int) { m.mask |= 1 << o }\n\n", recv)
	g.p("%s clearBit(o int) { m.mask &^= 1 << o }\n\n", recv)
	g.p("%s testBit(o int) bool { return m.mask&(1<<o) != 0 }\n\n", recv)
	g.p("%s anyBit() bool { return m.mask != 0 }\n\n", recv)
	g.p("%s countBits() int { return bits.%s(m.mask) }\n\n", recv, count)
}

func (g *generator) accessors(c *Contract, n names, p *Property) {
	i := slices.Index(c.Properties, p)
	field := fmt.Sprintf("m.f%d", i)
	recv := "func (m *" + n.typ + ")"
	notifies := c.Notifies()

	switch p.Mode {
	case core.ModeExtension:
		g.p("// %s returns the %s property.\n", p.Field, p.Name)
		if p.GetterTakesCurrent {
			g.p("%s %s() %s { return %s.Get%s(m, %s) }\n\n", recv, p.Field, p.TypeExpr, n.host, p.Field, field)
		} else {
			g.p("%s %s() %s { return %s.Get%s(m) }\n\n", recv, p.Field, p.TypeExpr, n.host, p.Field)
		}
		if !p.Writable {
			return
		}
		g.p("// Set%s writes the %s property if the contract's setter accepts the value.\n", p.Field, p.Name)
		g.p("%s Set%s(v %s) {\n", recv, p.Field, p.TypeExpr)
		g.p("\tif v, ok := %s.Set%s(m, %s, v); ok {\n", n.host, p.Field, field)
		g.p("\t\t%s = v\n\t\tm.setBit(%d)\n", field, p.Ordinal)
		if notifies {
			g.p("\t\tm.raise(%s)\n", strconv.Quote(p.Name))
		}
		g.p("\t}\n}\n\n")

	case core.ModeSingleton:
		g.p("// %s returns the %s instance, creating it on first use.\n", p.Field, p.Name)
		g.p("%s %s() %s {\n", recv, p.Field, p.TypeExpr)
		g.p("\tm.once%d.Do(func() { %s = %s })\n", i, field, constructExpr(n, p))
		g.p("\treturn %s\n}\n\n", field)

	default:
		g.p("// %s returns the %s property.\n", p.Field, p.Name)
		g.p("%s %s() %s { return %s }\n\n", recv, p.Field, p.TypeExpr, field)
		if !p.Writable {
			return
		}
		g.p("// Set%s writes the %s property and marks it changed.\n", p.Field, p.Name)
		g.p("%s Set%s(v %s) {\n", recv, p.Field, p.TypeExpr)
		if notifies {
			g.p("\tchanged := %s\n", changedExpr(p, field))
		}
		g.p("\t%s = v\n\tm.setBit(%d)\n", field, p.Ordinal)
		if notifies {
			g.p("\tif changed {\n\t\tm.raise(%s)\n\t}\n", strconv.Quote(p.Name))
		}
		g.p("}\n\n")
	}
}

func constructExpr(n names, p *Property) string {
	switch p.Construct {
	case constructFactory:
		return n.host + "." + p.Factory + "()"
	case constructNew:
		return "new(" + p.Elem + ")"
	case constructSlice:
		return "make(" + p.TypeExpr + ", 0)"
	default:
		return "make(" + p.TypeExpr + ")"
	}
}

func changedExpr(p *Property, field string) string {
	switch p.Compare {
	case compareEqualMethod:
		return "!v.Equal(" + field + ")"
	case compareEqualMethodPtr:
		return "(v == nil) != (" + field + " == nil) || (v != nil && !v.Equal(" + field + "))"
	case compareDeep:
		return "!reflect.DeepEqual(" + field + ", v)"
	default:
		return field + " != v"
	}
}

func (g *generator) tokenTable(c *Contract, n names) {
	g.p("type %s struct {\n\tordinal int\n\tget func(m *%s) any\n\tset func(m *%s, v any) bool\n}\n\n",
		n.token, n.typ, n.typ)

	g.p("var %s = [...]string{", n.writable)
	for i, name := range c.Writable() {
		if i > 0 {
			g.p(", ")
		}
		g.p("%s", strconv.Quote(name))
	}
	g.p("}\n\n")

	g.p("var %s = map[string]%s{\n", n.tokens, n.token)
	for _, p := range c.Properties {
		g.p("\t%s: {\n\t\tordinal: %d,\n", strconv.Quote(p.Name), p.Ordinal)
		g.p("\t\tget: func(m *%s) any { return m.%s() },\n", n.typ, p.Field)
		if p.Writable {
			g.p("\t\tset: func(m *%s, v any) bool {\n", n.typ)
			if p.Nillable {
				g.p("\t\t\tif v == nil {\n\t\t\t\tvar zero %s\n\t\t\t\tm.Set%s(zero)\n\t\t\t\treturn true\n\t\t\t}\n",
					p.TypeExpr, p.Field)
			}
			g.p("\t\t\tx, ok := v.(%s)\n\t\t\tif !ok {\n\t\t\t\treturn false\n\t\t\t}\n", p.TypeExpr)
			g.p("\t\t\tm.Set%s(x)\n\t\t\treturn true\n\t\t},\n", p.Field)
		}
		g.p("\t},\n")
	}
	g.p("}\n\n")
}

func (g *generator) surface(n names) {
	r := "func (m *" + n.typ + ")"
	g.p(`// GetCount implements core.Model.
%[1]s GetCount() int { return m.countBits() }

// HasChanges implements core.Model.
%[1]s HasChanges(names ...string) bool {
	if len(names) == 0 {
		return m.anyBit()
	}
	for _, name := range names {
		if t, ok := %[2]s[name]; ok && t.ordinal >= 0 && m.testBit(t.ordinal) {
			return true
		}
	}
	return false
}

// GetChanges implements core.Model.
%[1]s GetChanges() map[string]any {
	if !m.anyBit() {
		return nil
	}
	changes := make(map[string]any, m.countBits())
	for o, name := range %[3]s {
		if m.testBit(o) {
			changes[name] = %[2]s[name].get(m)
		}
	}
	return changes
}

// ChangedNames returns the changed property names in ordinal order.
%[1]s ChangedNames() []string {
	var names []string
	for o, name := range %[3]s {
		if m.testBit(o) {
			names = append(names, name)
		}
	}
	return names
}

// Reset implements core.Model.
%[1]s Reset(name string) (any, bool) {
	t, ok := %[2]s[name]
	if !ok || t.ordinal < 0 || !m.testBit(t.ordinal) {
		return nil, false
	}
	old := t.get(m)
	m.clearBit(t.ordinal)
	return old, true
}

// ResetMany implements core.Model.
%[1]s ResetMany(names ...string) {
	for _, name := range names {
		if t, ok := %[2]s[name]; ok && t.ordinal >= 0 {
			m.clearBit(t.ordinal)
		}
	}
}

// TryGetValue implements core.Model.
%[1]s TryGetValue(name string) (any, bool) {
	t, ok := %[2]s[name]
	if !ok {
		return nil, false
	}
	return t.get(m), true
}

// TrySetValue implements core.Model.
%[1]s TrySetValue(name string, value any) bool {
	t, ok := %[2]s[name]
	if !ok || t.set == nil {
		return false
	}
	return t.set(m, value)
}

`, r, n.tokens, n.writable)
}

func (g *generator) notifier(c *Contract, n names) {
	r := "func (m *" + n.typ + ")"
	if c.Notify {
		g.p("// AddPropertyChanged implements core.Notifier.\n")
		g.p("%s AddPropertyChanged(fn core.PropertyChangedFunc) core.Subscription { return m.changed.Add(fn) }\n\n", r)
		g.p("// RemovePropertyChanged implements core.Notifier.\n")
		g.p("%s RemovePropertyChanged(sub core.Subscription) bool { return m.changed.Remove(sub) }\n\n", r)
	}
	g.p("%s raise(name string) {\n", r)
	if c.Notify {
		g.p("\tm.changed.Fire(m, name)\n")
	}
	if c.OnChanged {
		g.p("\t%s.%s(m, name)\n", n.host, core.OnPropertyChangedMethod)
	}
	g.p("}\n\n")
}
