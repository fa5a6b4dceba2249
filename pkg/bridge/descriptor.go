package bridge

// PropertyDescriptor describes an own property: either a data property
// (Value plus writable flag) or an accessor pair.
type PropertyDescriptor struct {
	Value  Value
	Getter *Function
	Setter *Function
	Flags  PropertyFlags
	// Accessor is set for get/set properties; Value and FlagWritable are
	// meaningless then.
	Accessor bool
}

// NewDataDescriptor builds a data property descriptor.
func NewDataDescriptor(v Value, flags PropertyFlags) PropertyDescriptor {
	return PropertyDescriptor{Value: v, Flags: flags}
}

// NewAccessorDescriptor builds a get/set descriptor; either side may be nil.
func NewAccessorDescriptor(getter, setter *Function, flags PropertyFlags) PropertyDescriptor {
	return PropertyDescriptor{Getter: getter, Setter: setter, Flags: flags &^ FlagWritable, Accessor: true}
}

func (d PropertyDescriptor) IsWritable() bool     { return !d.Accessor && d.Flags.Writable() }
func (d PropertyDescriptor) IsEnumerable() bool   { return d.Flags.Enumerable() }
func (d PropertyDescriptor) IsConfigurable() bool { return d.Flags.Configurable() }

// toObject renders d as the object Reflect.defineProperty expects.
func (d PropertyDescriptor) toObject(ctx *Context) (*Object, error) {
	obj := ctx.NewObject()
	set := func(name string, v Value) error {
		_, err := obj.Set(Key(name), v)
		return err
	}
	if d.Accessor {
		getter, setter := Undefined(), Undefined()
		if d.Getter != nil {
			getter = ObjectValue(d.Getter.Object)
		}
		if d.Setter != nil {
			setter = ObjectValue(d.Setter.Object)
		}
		if err := set("get", getter); err != nil {
			return nil, err
		}
		if err := set("set", setter); err != nil {
			return nil, err
		}
	} else {
		if err := set("value", d.Value); err != nil {
			return nil, err
		}
		if err := set("writable", Bool(d.Flags.Writable())); err != nil {
			return nil, err
		}
	}
	if err := set("enumerable", Bool(d.Flags.Enumerable())); err != nil {
		return nil, err
	}
	if err := set("configurable", Bool(d.Flags.Configurable())); err != nil {
		return nil, err
	}
	return obj, nil
}

// descriptorFromObject reads the result of Reflect.getOwnPropertyDescriptor.
func descriptorFromObject(obj *Object) (PropertyDescriptor, error) {
	var d PropertyDescriptor
	read := func(name string) (Value, error) { return obj.Get(Key(name)) }

	has, err := obj.HasOwn(Key("get"))
	if err != nil {
		return d, err
	}
	if has {
		d.Accessor = true
		for name, dst := range map[string]**Function{"get": &d.Getter, "set": &d.Setter} {
			v, err := read(name)
			if err != nil {
				return d, err
			}
			if fn, err := v.AsFunction(); err == nil {
				*dst = fn
			}
		}
	} else {
		if d.Value, err = read("value"); err != nil {
			return d, err
		}
		w, err := read("writable")
		if err != nil {
			return d, err
		}
		if w.ToBoolean() {
			d.Flags |= FlagWritable
		}
	}
	e, err := read("enumerable")
	if err != nil {
		return d, err
	}
	if e.ToBoolean() {
		d.Flags |= FlagEnumerable
	}
	c, err := read("configurable")
	if err != nil {
		return d, err
	}
	if c.ToBoolean() {
		d.Flags |= FlagConfigurable
	}
	return d, nil
}
