package bridge

import "github.com/dop251/goja"

// ESClass is the builtin classification of an object's internal slots.
type ESClass int

const (
	ClassObject ESClass = iota
	ClassArray
	ClassNumber
	ClassString
	ClassBoolean
	ClassRegExp
	ClassArrayBuffer
	ClassSharedArrayBuffer
	ClassDate
	ClassSet
	ClassMap
	ClassPromise
	ClassMapIterator
	ClassSetIterator
	ClassArguments
	ClassError
	ClassBigInt
	ClassFunction
	ClassOther
)

var esClassNames = [...]string{
	ClassObject:            "Object",
	ClassArray:             "Array",
	ClassNumber:            "Number",
	ClassString:            "String",
	ClassBoolean:           "Boolean",
	ClassRegExp:            "RegExp",
	ClassArrayBuffer:       "ArrayBuffer",
	ClassSharedArrayBuffer: "SharedArrayBuffer",
	ClassDate:              "Date",
	ClassSet:               "Set",
	ClassMap:               "Map",
	ClassPromise:           "Promise",
	ClassMapIterator:       "Map Iterator",
	ClassSetIterator:       "Set Iterator",
	ClassArguments:         "Arguments",
	ClassError:             "Error",
	ClassBigInt:            "BigInt",
	ClassFunction:          "Function",
	ClassOther:             "Other",
}

func (c ESClass) String() string {
	if c < 0 || int(c) >= len(esClassNames) {
		return "Other"
	}
	return esClassNames[c]
}

// IsBoxable reports whether objects of this class wrap a primitive.
func (c ESClass) IsBoxable() bool {
	switch c {
	case ClassNumber, ClassString, ClassBoolean, ClassBigInt:
		return true
	}
	return false
}

// classOf maps the engine's internal class name. Callables are always
// ClassFunction whatever their flavour (arrow, async, bound, native).
func classOf(o *goja.Object) ESClass {
	if _, ok := goja.AssertFunction(o); ok {
		return ClassFunction
	}
	name := o.ClassName()
	for c, n := range esClassNames {
		if n == name && ESClass(c) != ClassOther {
			return ESClass(c)
		}
	}
	switch name {
	case "Object", "":
		return ClassObject
	}
	return ClassOther
}
