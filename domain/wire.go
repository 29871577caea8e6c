package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed indicates wire data that does not decode to a filter
// tree.
var ErrMalformed = errors.New("domain: malformed filter tree")

// Encode serializes a tree into the JSON wire shape. Clauses become
// ["path","op",value] or ["path","op",value,"target"]; junctions become
// ["AND",...]/["OR",...] with the children following the tag. A nil
// tree encodes as [].
func Encode(n Node) ([]byte, error) {
	v, err := wireValue(n)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

func wireValue(n Node) (any, error) {
	switch t := n.(type) {
	case nil:
		return nil, nil
	case *Clause:
		arr := []any{t.Path, string(t.Op), t.Value}
		if t.Target != "" {
			arr = append(arr, t.Target)
		}
		return arr, nil
	case *Junction:
		arr := make([]any, 0, len(t.Children)+1)
		arr = append(arr, string(t.Op))
		for _, c := range t.Children {
			v, err := wireValue(c)
			if err != nil {
				return nil, err
			}
			if v != nil {
				arr = append(arr, v)
			}
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("%w: unknown node type %T", ErrMalformed, n)
	}
}

// Decode parses the JSON wire shape back into a tree. Both tagged
// junctions and bare arrays of nodes (implicit AND) are accepted, so
// trees produced by other implementations decode too. Numbers decode as
// float64 per encoding/json. The result is simplified; empty input
// decodes to nil.
func Decode(data []byte) (Node, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	n, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}
	return Simplify(n), nil
}

func decodeValue(v any) (Node, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected array, got %T", ErrMalformed, v)
	}
	if len(arr) == 0 {
		return nil, nil
	}

	switch first := arr[0].(type) {
	case string:
		if op, ok := boolOpTag(first); ok {
			return decodeJunction(op, arr[1:])
		}
		return decodeClause(arr)
	case []any:
		return decodeJunction(BoolAnd, arr)
	default:
		return nil, fmt.Errorf("%w: unexpected element %T", ErrMalformed, arr[0])
	}
}

func boolOpTag(s string) (BoolOp, bool) {
	switch s {
	case "AND", "and":
		return BoolAnd, true
	case "OR", "or":
		return BoolOr, true
	}
	return "", false
}

func decodeJunction(op BoolOp, children []any) (Node, error) {
	j := &Junction{Op: op, Children: make([]Node, 0, len(children))}
	for _, c := range children {
		n, err := decodeValue(c)
		if err != nil {
			return nil, err
		}
		if n != nil {
			j.Children = append(j.Children, n)
		}
	}
	return j, nil
}

func decodeClause(arr []any) (Node, error) {
	if len(arr) != 3 && len(arr) != 4 {
		return nil, fmt.Errorf("%w: clause needs 3 or 4 elements, got %d", ErrMalformed, len(arr))
	}
	path, _ := arr[0].(string)
	opText, ok := arr[1].(string)
	if !ok {
		return nil, fmt.Errorf("%w: clause operator must be a string, got %T", ErrMalformed, arr[1])
	}
	op := Op(opText)
	if !op.Valid() {
		return nil, fmt.Errorf("%w: unknown operator %q", ErrMalformed, opText)
	}
	c := &Clause{Path: path, Op: op, Value: arr[2]}
	if len(arr) == 4 {
		target, ok := arr[3].(string)
		if !ok {
			return nil, fmt.Errorf("%w: clause target must be a string, got %T", ErrMalformed, arr[3])
		}
		c.Target = target
	}
	return c, nil
}
