package semantic

import (
	"fmt"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
)

func (t *translator) resolveTypeSpec(spec ast.TypeSpec) (cql.Type, error) {
	switch spec := spec.(type) {
	case *ast.NamedType:
		return t.resolveNamedType(spec)
	case *ast.ListType:
		elem, err := t.resolveTypeSpec(spec.Elem)
		if err != nil {
			return nil, err
		}
		return t.list(elem), nil
	case *ast.IntervalType:
		point, err := t.resolveTypeSpec(spec.Point)
		if err != nil {
			return nil, err
		}
		return t.tctx.LookupTypeInterval(point), nil
	case *ast.TupleType:
		fields := make([]cql.Field, 0, len(spec.Fields))
		for _, f := range spec.Fields {
			typ, err := t.resolveTypeSpec(f.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, cql.NewField(f.Name.Name, typ))
		}
		return t.tctx.LookupTypeTuple(fields)
	case *ast.ChoiceType:
		types := make([]cql.Type, 0, len(spec.Types))
		for _, s := range spec.Types {
			typ, err := t.resolveTypeSpec(s)
			if err != nil {
				return nil, err
			}
			types = append(types, typ)
		}
		return t.tctx.LookupTypeChoice(types), nil
	}
	return nil, fmt.Errorf("unknown type specifier %T", spec)
}

// resolveNamedType looks up an unqualified name in System and then in
// every model in use.  A qualified name is looked up only in the named
// model.
func (t *translator) resolveNamedType(n *ast.NamedType) (cql.Type, error) {
	switch n.Model {
	case "":
		if typ := cql.LookupSystemType(n.Name); typ != nil {
			return typ, nil
		}
		typ, err := t.lookupModelType(n.Name)
		if err != nil {
			return nil, err
		}
		return typ, nil
	case cql.SystemNamespace:
		if typ := cql.LookupSystemType(n.Name); typ != nil {
			return typ, nil
		}
	default:
		for _, m := range t.models {
			if m.Name != n.Model {
				continue
			}
			if typ := m.LookupType(n.Name); typ != nil {
				return typ, nil
			}
		}
	}
	return nil, fmt.Errorf("Could not resolve type name %s.", n)
}

func (t *translator) lookupModelType(name string) (*cql.TypeNamed, error) {
	var found *cql.TypeNamed
	for _, m := range t.models {
		typ := m.LookupType(name)
		if typ == nil {
			continue
		}
		if found != nil && found != typ {
			return nil, fmt.Errorf("Type name %s is ambiguous between %s and %s.", name, found, typ)
		}
		found = typ
	}
	if found == nil {
		return nil, fmt.Errorf("Could not resolve type name %s.", name)
	}
	return found, nil
}
