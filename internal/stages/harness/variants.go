package harness

import (
	"fmt"

	"github.com/codevault/worker/pkg/errors"
)

// Variant is a solution method shape the harness knows how to call.
type Variant int

const (
	NoArg Variant = iota
	SingleLinkedList
	SingleArray
	SingleScalar
	DualLinkedList
	DualArray
	ArrayAndScalar
)

func (v Variant) String() string {
	switch v {
	case NoArg:
		return "no_arg"
	case SingleLinkedList:
		return "single_linked_list"
	case SingleArray:
		return "single_array"
	case SingleScalar:
		return "single_scalar"
	case DualLinkedList:
		return "dual_linked_list"
	case DualArray:
		return "dual_array"
	case ArrayAndScalar:
		return "array_and_scalar"
	default:
		return "unknown"
	}
}

type argKind int

const (
	kindOther argKind = iota
	kindLinkedList
	kindArray
	kindScalar
)

var variantArgs = map[Variant][]argKind{
	NoArg:            nil,
	SingleLinkedList: {kindLinkedList},
	SingleArray:      {kindArray},
	SingleScalar:     {kindScalar},
	DualLinkedList:   {kindLinkedList, kindLinkedList},
	DualArray:        {kindArray, kindArray},
	ArrayAndScalar:   {kindArray, kindScalar},
}

// Two list inputs keep the historical merge convention by name before any
// other two list method is considered.
const mergeMethodName = "mergeTwoLists"

// Methods every Java object has, plus the entry point, are never solutions.
var ignoredMethods = map[string]struct{}{
	"main":     {},
	"toString": {},
	"hashCode": {},
	"equals":   {},
}

func classifyType(typ string) argKind {
	switch typ {
	case "ListNode":
		return kindLinkedList
	case "int[]":
		return kindArray
	case "int", "Integer", "long":
		return kindScalar
	default:
		return kindOther
	}
}

// candidateVariants lists the variants tried for an input with the given
// number of lines, in priority order. Inputs with more than two lines are
// matched against the two argument shapes using their first two lines.
func candidateVariants(arity int) []Variant {
	switch arity {
	case 0:
		return []Variant{NoArg, SingleLinkedList, SingleArray}
	case 1:
		return []Variant{SingleLinkedList, SingleArray, SingleScalar}
	default:
		return []Variant{DualLinkedList, DualArray, ArrayAndScalar}
	}
}

// Call is a resolved invocation of the solution method.
type Call struct {
	TypeName string
	Method   Method
	Variant  Variant
}

// Resolve picks the method to call for an input of the given arity. Variants
// are tried in priority order and for each variant the first non private
// method wins. Methods returning void are only callable when their first
// argument can be printed after the call.
func Resolve(typeName string, methods []Method, arity int) (Call, error) {
	for _, variant := range candidateVariants(arity) {
		var matching []Method
		for _, m := range methods {
			if _, ignored := ignoredMethods[m.Name]; ignored || !matches(m, variant) {
				continue
			}
			matching = append(matching, m)
		}
		if len(matching) == 0 {
			continue
		}
		return Call{TypeName: typeName, Method: preferred(matching, variant), Variant: variant}, nil
	}

	return Call{}, fmt.Errorf("%w: %s has no method accepting %d input line(s)",
		errors.ErrNoMatchingSolutionMethod, typeName, arity)
}

func matches(m Method, variant Variant) bool {
	want := variantArgs[variant]
	if len(m.Params) != len(want) {
		return false
	}
	for i, p := range m.Params {
		if classifyType(p) != want[i] {
			return false
		}
	}
	if m.ReturnType == "void" {
		return len(want) > 0 && want[0] != kindScalar
	}
	return true
}

func preferred(matching []Method, variant Variant) Method {
	if variant == DualLinkedList {
		for _, m := range matching {
			if m.Name == mergeMethodName {
				return m
			}
		}
	}
	for _, m := range matching {
		if !m.Private {
			return m
		}
	}
	return matching[0]
}
