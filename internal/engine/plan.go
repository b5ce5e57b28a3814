// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package engine

// Plan is a mapping from layer name to Layer, plus the active set of LVs
// (spec.md §3). Layer dependencies are recorded by name during construction
// and resolved to indices by finalize once the final layer set is known.
type Plan struct {
	VG *VGMetadata

	// Layers holds every layer currently in the plan. Index stability
	// within one Plan is only guaranteed after finalize: up to that point,
	// upsert may replace (but never reorders or removes) entries.
	Layers []*Layer

	// Active is the active set of LV names: those currently selected to be,
	// or observed to be, active (spec.md §3).
	Active map[string]bool

	index map[string]int
}

func newPlan(vg *VGMetadata) *Plan {
	return &Plan{VG: vg, Active: map[string]bool{}, index: map[string]int{}}
}

// Get looks up a layer by name.
func (p *Plan) Get(name string) (*Layer, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.Layers[i], true
}

// upsert inserts l, or replaces the existing layer of the same name while
// preserving its previously observed Info (spec.md §4.4.2 step 4: "An
// insertion that collides with a previously discovered existing-kernel
// Layer replaces it but preserves the observed info").
func (p *Plan) upsert(l *Layer) {
	if i, ok := p.index[l.Name]; ok {
		l.Info = p.Layers[i].Info
		p.Layers[i] = l
		return
	}
	p.index[l.Name] = len(p.Layers)
	p.Layers = append(p.Layers, l)
}

// mark sets Mark on name and, recursively, on every layer reachable via
// preCreateNames, detecting cycles along the current DFS path (spec.md
// §4.4.2 step 6).
func (p *Plan) mark(name string, onPath map[string]bool) error {
	l, ok := p.Get(name)
	if !ok {
		return &MissingDependencyError{Name: name}
	}
	if onPath[name] {
		return &CircularDependencyError{Name: name}
	}
	if l.Mark {
		return nil
	}
	l.Mark = true
	onPath[name] = true
	for _, dep := range l.preCreateNames {
		if err := p.mark(dep, onPath); err != nil {
			return err
		}
	}
	delete(onPath, name)
	return nil
}

// prune removes every unmarked layer from the plan.
func (p *Plan) prune() {
	kept := p.Layers[:0]
	newIndex := make(map[string]int, len(p.Layers))
	for _, l := range p.Layers {
		if !l.Mark {
			continue
		}
		newIndex[l.Name] = len(kept)
		kept = append(kept, l)
	}
	p.Layers = kept
	p.index = newIndex
}

// finalize resolves every remaining layer's preCreateNames/preActiveNames
// into PreCreate/PreActive indices into p.Layers, the point at which
// dependency edges become the stable handles spec.md §9 calls for. Must run
// after prune, once the final layer set is fixed.
func (p *Plan) finalize() error {
	for _, l := range p.Layers {
		l.PreCreate = make([]int, 0, len(l.preCreateNames))
		for _, dep := range l.preCreateNames {
			i, ok := p.index[dep]
			if !ok {
				return &MissingDependencyError{Name: dep}
			}
			l.PreCreate = append(l.PreCreate, i)
		}
		l.PreActive = make([]int, 0, len(l.preActiveNames))
		for _, dep := range l.preActiveNames {
			i, ok := p.index[dep]
			if !ok {
				return &MissingDependencyError{Name: dep}
			}
			l.PreActive = append(l.PreActive, i)
		}
		l.preCreateNames = nil
		l.preActiveNames = nil
	}
	return nil
}

// roots computes the "is-a-dependant" pass of spec.md §4.4.3 in the
// separate dependant field, leaving Mark untouched: clear every dependant
// flag, then set it on every layer that appears in someone else's
// PreCreate. The layers left unflagged afterward are the roots the executor
// walks from. Must run after finalize.
func (p *Plan) roots() []*Layer {
	for _, l := range p.Layers {
		l.dependant = false
	}
	for _, l := range p.Layers {
		for _, i := range l.PreCreate {
			p.Layers[i].dependant = true
		}
	}
	var rs []*Layer
	for _, l := range p.Layers {
		if !l.dependant {
			rs = append(rs, l)
		}
	}
	return rs
}
