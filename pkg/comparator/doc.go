// Package comparator defines the contract every governance check implements
// and the registry that indexes checks by identifier.
//
// A Comparator is a pure function of a pull-request snapshot and a
// parameter map. It never mutates the snapshot and always returns a
// finding.Result: missing configuration, malformed parameters and failed
// dependencies are reported as StatusUnknown rather than as Go errors.
//
// Registration happens in two phases. A Builder collects comparators at
// startup and rejects duplicate or unknown identifiers. Build freezes the
// set into an immutable Registry that is safe for concurrent lookups
// without locking.
//
//	b := comparator.NewBuilder(logger)
//	if err := b.Register(myComparator); err != nil {
//	    return err
//	}
//	reg := b.Build()
//	c, err := reg.Get(comparator.ChangedPathMatches)
package comparator
