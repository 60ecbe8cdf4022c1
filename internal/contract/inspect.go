package contract

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

type pending struct {
	t     reflect.Type
	index []int
}

// Inspect builds the descriptor list of a contract type.
// t may be a struct type or a pointer to one.
func Inspect(t reflect.Type, opts ...Option) (*Contract, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	if t == nil {
		return nil, core.NewContractError("<nil>", "", core.ErrInvalidContract, "contract type is nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, core.NewContractError(t.String(), "", core.ErrInvalidContract, "contract must be a struct, got %s", t.Kind())
	}

	c := &Contract{Type: t, Host: t}
	if o.host != nil {
		c.Host = o.host
	}
	host := reflect.New(c.Host)

	if err := c.walk(host); err != nil {
		return nil, err
	}
	if err := c.resolveOnChanged(host); err != nil {
		return nil, err
	}

	o.logger.Debug("inspected contract",
		slog.String("contract", c.Name()),
		slog.Int("properties", len(c.Properties)),
		slog.Int("inherited", len(c.Inherited)),
		slog.Bool("notify", c.Notifies()))

	return c, nil
}

// walk visits the contract's own fields, then embedded contracts breadth-first.
func (c *Contract) walk(host reflect.Value) error {
	queue := []pending{{t: c.Type}}
	visited := map[reflect.Type]bool{c.Type: true}
	seen := make(map[string]int)

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for i := 0; i < node.t.NumField(); i++ {
			f := node.t.Field(i)
			index := append(append([]int(nil), node.index...), i)

			tag, err := core.ParseTag(f.Tag.Get(core.TagKey))
			if err != nil {
				return core.WrapContractError(c.Name(), f.Name, core.ErrInvalidContract, "bad tag", err)
			}
			if tag.Skip {
				continue
			}

			if f.Anonymous {
				embedded := f.Type
				if embedded.Kind() == reflect.Pointer {
					embedded = embedded.Elem()
				}
				if embedded == markerType {
					c.Notify = true
					continue
				}
				if embedded.Kind() != reflect.Struct {
					return core.NewContractError(c.Name(), f.Name, core.ErrInvalidContract,
						"embedded contract %s is not a struct", f.Type)
				}
				if !visited[embedded] {
					visited[embedded] = true
					c.Inherited = append(c.Inherited, embedded)
					queue = append(queue, pending{t: embedded, index: index})
				}
				continue
			}

			if !f.IsExported() {
				continue
			}

			prop, err := c.resolve(host, node.t, f, tag, index)
			if err != nil {
				return err
			}

			if at, dup := seen[prop.Name]; dup {
				if c.Properties[at].Type != prop.Type {
					return core.NewContractError(c.Name(), prop.Name, core.ErrInvalidContract,
						"declared as %s by %s and as %s by %s",
						c.Properties[at].Type, c.Properties[at].Declarer, prop.Type, node.t)
				}
				continue
			}
			seen[prop.Name] = len(c.Properties)
			c.Properties = append(c.Properties, prop)
		}
	}
	return nil
}

func (c *Contract) resolve(host reflect.Value, declarer reflect.Type, f reflect.StructField, tag core.Tag, index []int) (Property, error) {
	p := Property{
		Name:     f.Name,
		Field:    f.Name,
		Index:    index,
		Type:     f.Type,
		Writable: !tag.ReadOnly,
		Mode:     tag.Mode,
		Declarer: declarer,
	}
	if tag.Name != "" {
		p.Name = tag.Name
		p.Alias = tag.Name != f.Name
	}

	if raw, ok := f.Tag.Lookup(core.DefaultTagKey); ok {
		if p.Mode == core.ModeSingleton {
			return p, core.NewContractError(c.Name(), p.Name, core.ErrInvalidContract,
				"singleton properties cannot declare a default value")
		}
		v, err := ConvertDefault(raw, p.Type)
		if err != nil {
			return p, core.WrapContractError(c.Name(), p.Name, core.ErrDefaultConversion,
				fmt.Sprintf("cannot convert %q to %s", raw, p.Type), err)
		}
		p.Default = v
		p.HasDefault = true
	}

	switch p.Mode {
	case core.ModeExtension:
		if err := c.resolveExtension(host, &p); err != nil {
			return p, err
		}
	case core.ModeSingleton:
		if err := c.resolveSingleton(host, &p, tag.Factory); err != nil {
			return p, err
		}
	}
	return p, nil
}
