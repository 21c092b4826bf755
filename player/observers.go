package player

// observers is an ordered list of typed callbacks with removable entries
type observers[T any] struct {
	next  int
	order []int
	fns   map[int]func(T)
}

func (o *observers[T]) add(fn func(T)) func() {
	if o.fns == nil {
		o.fns = make(map[int]func(T))
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	o.order = append(o.order, id)
	return func() {
		if _, ok := o.fns[id]; !ok {
			return
		}
		delete(o.fns, id)
		for i, v := range o.order {
			if v == id {
				o.order = append(o.order[:i], o.order[i+1:]...)
				break
			}
		}
	}
}

func (o *observers[T]) emit(v T) {
	ids := append([]int(nil), o.order...)
	for _, id := range ids {
		if fn, ok := o.fns[id]; ok {
			fn(v)
		}
	}
}
