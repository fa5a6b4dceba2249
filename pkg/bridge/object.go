package bridge

import (
	"sort"
	"strconv"

	"github.com/dop251/goja"

	"jsexec/pkg/errors"
)

// Object is a handle to an engine object, valid while its Context is open.
// Every operation goes through the engine's own semantics: getters,
// setters, proxies and prototype lookups all run.
type Object struct {
	ctx *Context
	obj *goja.Object
}

func (o *Object) Context() *Context { return o.ctx }

func (o *Object) Value() Value { return ObjectValue(o) }

// Same reports whether both handles refer to the same engine object.
func (o *Object) Same(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.obj == other.obj
}

func (o *Object) key(k PropertyKey) goja.Value {
	if k.IsSymbol() && k.sym == nil {
		panic(&errors.InvariantViolation{Msg: "symbol key without a symbol"})
	}
	return k.toEngine(o.ctx.vm)
}

// Get reads a property, running getters and walking the prototype chain.
// A missing property is undefined.
func (o *Object) Get(key PropertyKey) (Value, error) {
	c := o.ctx
	c.check()
	res, err := c.invoke(c.in.get, goja.Undefined(), o.obj, o.key(key))
	if err != nil {
		return Undefined(), err
	}
	return c.fromEngine(res), nil
}

// Set assigns a property. The result is false when the assignment was
// rejected (frozen object, read-only property, setter-less accessor).
func (o *Object) Set(key PropertyKey, v Value) (bool, error) {
	c := o.ctx
	c.check()
	res, err := c.invoke(c.in.set, goja.Undefined(), o.obj, o.key(key), c.toEngine(v))
	if err != nil {
		return false, err
	}
	return res.ToBoolean(), nil
}

// Has is the in operator: own or inherited.
func (o *Object) Has(key PropertyKey) (bool, error) {
	c := o.ctx
	c.check()
	res, err := c.invoke(c.in.has, goja.Undefined(), o.obj, o.key(key))
	if err != nil {
		return false, err
	}
	return res.ToBoolean(), nil
}

// HasOwn ignores the prototype chain.
func (o *Object) HasOwn(key PropertyKey) (bool, error) {
	c := o.ctx
	c.check()
	res, err := c.invoke(c.in.hasOwn, o.obj, o.key(key))
	if err != nil {
		return false, err
	}
	return res.ToBoolean(), nil
}

// Delete removes an own property. Deleting a missing property succeeds; a
// non-configurable one reports false.
func (o *Object) Delete(key PropertyKey) (bool, error) {
	c := o.ctx
	c.check()
	res, err := c.invoke(c.in.deleteProperty, goja.Undefined(), o.obj, o.key(key))
	if err != nil {
		return false, err
	}
	return res.ToBoolean(), nil
}

// Define creates or redefines an own data property.
func (o *Object) Define(key PropertyKey, v Value, flags PropertyFlags) (bool, error) {
	return o.DefineProperty(key, NewDataDescriptor(v, flags))
}

// DefineAccessor creates or redefines an own get/set property.
func (o *Object) DefineAccessor(key PropertyKey, getter, setter *Function, flags PropertyFlags) (bool, error) {
	return o.DefineProperty(key, NewAccessorDescriptor(getter, setter, flags))
}

func (o *Object) DefineProperty(key PropertyKey, d PropertyDescriptor) (bool, error) {
	c := o.ctx
	c.check()
	desc, err := d.toObject(c)
	if err != nil {
		return false, err
	}
	res, err := c.invoke(c.in.defineProperty, goja.Undefined(), o.obj, o.key(key), desc.obj)
	if err != nil {
		return false, err
	}
	return res.ToBoolean(), nil
}

// GetDescriptor returns the own property descriptor of key, if any.
func (o *Object) GetDescriptor(key PropertyKey) (PropertyDescriptor, bool, error) {
	c := o.ctx
	c.check()
	res, err := c.invoke(c.in.getOwnPropertyDescriptor, goja.Undefined(), o.obj, o.key(key))
	if err != nil {
		return PropertyDescriptor{}, false, err
	}
	dobj, ok := res.(*goja.Object)
	if !ok {
		return PropertyDescriptor{}, false, nil
	}
	d, err := descriptorFromObject(c.wrap(dobj))
	if err != nil {
		return PropertyDescriptor{}, false, err
	}
	return d, true, nil
}

// Prototype returns the object's prototype, nil at the end of the chain.
func (o *Object) Prototype() (*Object, error) {
	c := o.ctx
	c.check()
	p, err := c.prototypeOf(o.obj)
	if err != nil || p == nil {
		return nil, err
	}
	return c.wrap(p), nil
}

func (c *Context) prototypeOf(obj *goja.Object) (*goja.Object, error) {
	res, err := c.invoke(c.in.getPrototypeOf, goja.Undefined(), obj)
	if err != nil {
		return nil, err
	}
	p, _ := res.(*goja.Object)
	return p, nil
}

// Keys lists property keys selected by flags. Each object contributes
// integer indices in ascending order, then string keys in creation order,
// then symbols. With IterInherited, prototypes follow the object itself and
// keys shadowed by a nearer object are skipped.
func (o *Object) Keys(flags IteratorFlags) ([]PropertyKey, error) {
	c := o.ctx
	c.check()
	var (
		out  []PropertyKey
		seen map[OwnedKey]struct{}
	)
	if flags.has(IterInherited) {
		seen = make(map[OwnedKey]struct{})
	}
	for cur := o.obj; cur != nil; {
		own, err := c.ownKeys(cur)
		if err != nil {
			return nil, err
		}
		for _, k := range own {
			if seen != nil {
				owned := k.ToOwnedKey()
				if _, dup := seen[owned]; dup {
					continue
				}
				seen[owned] = struct{}{}
			}
			if k.IsSymbol() && !flags.wantSymbols() || !k.IsSymbol() && !flags.wantStrings() {
				continue
			}
			if !flags.has(IterHidden) {
				res, err := c.invoke(c.in.propertyIsEnumerable, cur, k.toEngine(c.vm))
				if err != nil {
					return nil, err
				}
				if !res.ToBoolean() {
					continue
				}
			}
			out = append(out, k)
		}
		if !flags.has(IterInherited) {
			break
		}
		next, err := c.prototypeOf(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return out, nil
}

// ownKeys returns all own keys of obj in enumeration order.
func (c *Context) ownKeys(obj *goja.Object) ([]PropertyKey, error) {
	res, err := c.invoke(c.in.ownKeys, goja.Undefined(), obj)
	if err != nil {
		return nil, err
	}
	arr, ok := res.(*goja.Object)
	if !ok {
		return nil, nil
	}
	n := int(arr.Get("length").ToInteger())
	keys := make([]PropertyKey, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, keyFromEngine(c, arr.Get(strconv.Itoa(i))))
	}
	rank := func(k PropertyKey) int {
		switch k.kind {
		case KeyKindIndex:
			return 0
		case KeyKindString:
			return 1
		}
		return 2
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return ri == 0 && keys[i].index < keys[j].index
	})
	return keys, nil
}

// OwnedKeys is Keys in hashable form.
func (o *Object) OwnedKeys(flags IteratorFlags) ([]OwnedKey, error) {
	keys, err := o.Keys(flags)
	if err != nil {
		return nil, err
	}
	out := make([]OwnedKey, len(keys))
	for i, k := range keys {
		out[i] = k.ToOwnedKey()
	}
	return out, nil
}

// ToMap snapshots the properties selected by flags into a Go map.
func (o *Object) ToMap(flags IteratorFlags) (map[OwnedKey]Value, error) {
	keys, err := o.Keys(flags)
	if err != nil {
		return nil, err
	}
	m := make(map[OwnedKey]Value, len(keys))
	for _, k := range keys {
		v, err := o.Get(k)
		if err != nil {
			return nil, err
		}
		m[k.ToOwnedKey()] = v
	}
	return m, nil
}

// BuiltinClass classifies the object by its internal slots.
func (o *Object) BuiltinClass() ESClass {
	o.ctx.check()
	return classOf(o.obj)
}

// IsBoxedPrimitive reports whether o wraps a primitive, and which kind.
func (o *Object) IsBoxedPrimitive() (ESClass, bool) {
	cls := o.BuiltinClass()
	return cls, cls.IsBoxable()
}

// UnboxPrimitive returns the primitive inside a Number, String, Boolean or
// BigInt wrapper.
func (o *Object) UnboxPrimitive() (Value, bool) {
	c := o.ctx
	c.check()
	var fn goja.Callable
	switch classOf(o.obj) {
	case ClassNumber:
		fn = c.in.numberValueOf
	case ClassString:
		fn = c.in.stringValueOf
	case ClassBoolean:
		fn = c.in.booleanValueOf
	case ClassBigInt:
		fn = c.in.bigintValueOf
	}
	if fn == nil {
		return Undefined(), false
	}
	res, err := fn(o.obj)
	if err != nil {
		return Undefined(), false
	}
	return c.fromEngine(res), true
}

// ToFunction views o as a function if it is callable.
func (o *Object) ToFunction() (*Function, bool) {
	o.ctx.check()
	if classOf(o.obj) != ClassFunction {
		return nil, false
	}
	return &Function{Object: o}, true
}

// GetFunction reads a property and views it as a function. The second
// result is false when the property is missing or not callable.
func (o *Object) GetFunction(name string) (*Function, bool, error) {
	v, err := o.Get(Key(name))
	if err != nil {
		return nil, false, err
	}
	fn, err := v.AsFunction()
	if err != nil {
		return nil, false, nil
	}
	return fn, true, nil
}

func (o *Object) String() string { return o.Value().Inspect() }

func (o *Object) toNumber() (float64, error) {
	c := o.ctx
	c.check()
	res, err := c.invoke(c.in.toNumber, goja.Undefined(), o.obj)
	if err != nil {
		return 0, err
	}
	return res.ToFloat(), nil
}

func (o *Object) toString() (string, error) {
	c := o.ctx
	c.check()
	res, err := c.invoke(c.in.toString, goja.Undefined(), o.obj)
	if err != nil {
		return "", err
	}
	return stringFromEngine(res), nil
}

func (o *Object) export() any {
	o.ctx.check()
	var out any
	if ex := o.ctx.vm.Try(func() { out = o.obj.Export() }); ex != nil {
		return nil
	}
	return out
}
