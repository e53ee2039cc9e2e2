package psi

// TableKey names a logical table: a table id and its table id extension.
// Successive versions of a table share a key.
type TableKey struct {
	TableID          uint8
	TableIDExtension uint16
}

// Grouper routes sections into one SectionAccumulator per TableKey and
// yields each table as soon as it is complete. A section whose identity
// differs from the pending accumulator for its key (a new version, or a
// changed section count) replaces that accumulator.
//
// Like SectionAccumulator, a Grouper is a value; Add leaves the receiver
// unchanged.
type Grouper struct {
	pending map[TableKey]SectionAccumulator
}

// Pending returns the number of tables with sections still missing.
func (g Grouper) Pending() int { return len(g.pending) }

// Add folds s into the grouper. When s completes a table, the table's
// sections are returned in section-number order and the accumulator is
// dropped. A rejected section leaves the grouper unchanged.
func (g Grouper) Add(s ExtendedSection) (Grouper, []ExtendedSection, error) {
	key := TableKey{TableID: s.TableID, TableIDExtension: s.Extension.TableIDExtension}

	var (
		acc SectionAccumulator
		err error
	)
	if cur, ok := g.pending[key]; ok && cur.Identity() == s.Identity() {
		acc, err = cur.Add(s)
	} else {
		acc, err = NewSectionAccumulator(s)
	}
	if err != nil {
		return g, nil, err
	}

	next := Grouper{pending: make(map[TableKey]SectionAccumulator, len(g.pending)+1)}
	for k, v := range g.pending {
		next.pending[k] = v
	}
	if table, ok := acc.Complete(); ok {
		delete(next.pending, key)
		return next, table, nil
	}
	next.pending[key] = acc
	return next, nil, nil
}
