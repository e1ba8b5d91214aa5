package modal

import (
	"fmt"
	"reflect"
)

// Element is the single node a Modal drives. Implementations mutate the
// underlying document in place.
type Element interface {
	AddClass(classes ...string)
	RemoveClass(classes ...string)
	HasClass(class string) bool
	SetAttr(name, value string)
	RemoveAttr(name string)
}

// Collection is a list of elements, such as the result of a selector query.
// Only collections holding exactly one element can back a Modal.
type Collection interface {
	Len() int
	Item(i int) Element
}

func resolveElement(target any) (Element, error) {
	switch t := target.(type) {
	case nil:
		return nil, fmt.Errorf("%w: got nil", ErrInvalidElement)
	case string:
		return nil, fmt.Errorf("%w: got selector %q", ErrInvalidElement, t)
	case Element:
		if isNilElement(t) {
			return nil, fmt.Errorf("%w: got nil %T", ErrInvalidElement, t)
		}
		return t, nil
	case []Element:
		if len(t) != 1 {
			return nil, fmt.Errorf("%w: got %d elements", ErrInvalidElement, len(t))
		}
		return resolveElement(t[0])
	case Collection:
		if isNilElement(t) || t.Len() != 1 {
			return nil, fmt.Errorf("%w: got collection of %d", ErrInvalidElement, collectionLen(t))
		}
		return resolveElement(t.Item(0))
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidElement, target)
	}
}

func isNilElement(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func collectionLen(c Collection) int {
	if isNilElement(c) {
		return 0
	}
	return c.Len()
}
