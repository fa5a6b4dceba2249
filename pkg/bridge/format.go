package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

const (
	maxInspectDepth = 6
	maxInspectItems = 100
)

// Inspect renders v for display: strings bare at top level and quoted when
// nested, objects as {key: value} listings with cycles shown as [Circular].
// Errors raised by getters are shown inline instead of returned.
func (v Value) Inspect() string {
	return v.inspectWithDepth(false, 0, make(map[*goja.Object]bool))
}

// InspectNested renders v as it would appear inside a container.
func (v Value) InspectNested() string {
	return v.inspectWithDepth(true, 0, make(map[*goja.Object]bool))
}

func (v Value) inspectWithDepth(nested bool, depth int, seen map[*goja.Object]bool) string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindInt32:
		return strconv.FormatInt(int64(v.num), 10)
	case KindDouble:
		if v.num == 0 && 1/v.num < 0 {
			return "-0"
		}
		return formatNumber(v.num)
	case KindString:
		if nested {
			return strconv.Quote(v.str)
		}
		return v.str
	case KindBigInt:
		return v.ref.(*BigInt).String() + "n"
	case KindSymbol:
		return v.ref.(*Symbol).String()
	}

	o := v.ref.(*Object)
	if o.ctx.closed {
		return "[object (closed context)]"
	}
	if seen[o.obj] {
		return "[Circular]"
	}
	if depth >= maxInspectDepth {
		return "[Object]"
	}
	seen[o.obj] = true
	defer delete(seen, o.obj)

	child := func(x Value) string { return x.inspectWithDepth(true, depth+1, seen) }

	switch cls := classOf(o.obj); cls {
	case ClassFunction:
		fn := &Function{Object: o}
		name := fn.Name()
		if src, err := fn.Source(); err == nil && strings.HasPrefix(src, "class") {
			if name == "" {
				return "[class (anonymous)]"
			}
			return "[class " + name + "]"
		}
		if name != "" {
			return fmt.Sprintf("[Function: %s]", name)
		}
		return "[Function (anonymous)]"
	case ClassArray:
		n := o.length()
		shown := min(n, maxInspectItems)
		elems := make([]string, shown, shown+1)
		for i := 0; i < shown; i++ {
			el, err := o.Get(KeyIndex(uint32(i)))
			if err != nil {
				elems[i] = "<error>"
				continue
			}
			elems[i] = child(el)
		}
		if n > shown {
			elems = append(elems, fmt.Sprintf("... %d more items", n-shown))
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case ClassNumber, ClassString, ClassBoolean, ClassBigInt:
		prim, _ := o.UnboxPrimitive()
		return fmt.Sprintf("[%s: %s]", cls, prim.InspectNested())
	case ClassError:
		s := o.safeString()
		if nested {
			return "[" + s + "]"
		}
		return s
	case ClassDate, ClassRegExp:
		return o.safeString()
	case ClassPromise:
		p := &Promise{Object: o}
		switch p.State() {
		case PromiseFulfilled:
			return "Promise { " + child(p.Result()) + " }"
		case PromiseRejected:
			return "Promise { <rejected> " + child(p.Result()) + " }"
		}
		return "Promise { <pending> }"
	case ClassMap, ClassSet:
		entries := o.entries()
		if len(entries) == 0 {
			return cls.String() + " {}"
		}
		parts := make([]string, len(entries))
		for i, e := range entries {
			if pair, ok := e.ref.(*Object); ok && cls == ClassMap {
				k, _ := pair.Get(KeyIndex(0))
				val, _ := pair.Get(KeyIndex(1))
				parts[i] = child(k) + " => " + child(val)
				continue
			}
			parts[i] = child(e)
		}
		return cls.String() + " { " + strings.Join(parts, ", ") + " }"
	}

	keys, err := o.Keys(IterSymbols)
	if err != nil {
		return "{<error>}"
	}
	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k.String())
		b.WriteString(": ")
		val, err := o.Get(k)
		if err != nil {
			b.WriteString("<error>")
			continue
		}
		b.WriteString(child(val))
	}
	b.WriteString("}")
	return b.String()
}

func (o *Object) length() int {
	v, err := o.Get(Key("length"))
	if err != nil {
		return 0
	}
	n, err := v.ToNumber()
	if err != nil || n < 0 {
		return 0
	}
	return int(n)
}

// safeString is ToString that swallows a throwing toString.
func (o *Object) safeString() string {
	s, err := o.toString()
	if err != nil {
		return "[object " + classOf(o.obj).String() + "]"
	}
	return s
}

// entries lists a Map's [key, value] pairs or a Set's values.
func (o *Object) entries() []Value {
	c := o.ctx
	if c.in.arrayFrom == nil {
		return nil
	}
	res, err := c.in.arrayFrom(goja.Undefined(), o.obj)
	if err != nil {
		return nil
	}
	arr, ok := res.(*goja.Object)
	if !ok {
		return nil
	}
	list := c.wrap(arr)
	n := list.length()
	out := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := list.Get(KeyIndex(uint32(i)))
		if err != nil {
			return out
		}
		out = append(out, v)
	}
	return out
}
