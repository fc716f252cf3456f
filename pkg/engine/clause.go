package engine

import "github.com/google/uuid"

// Literal identifies one (constraint, phase) fixing, the unit of decision
// and implication on the search trail.
type Literal struct {
	ConstraintID int
	Phase        Phase
}

// Clause is a learned no-good: a set of literals that must not all hold
// simultaneously, produced by conflict analysis when the simplex or a
// piecewise constraint reports infeasibility under the current trail. Each
// clause carries a stable UUID (spec's DOMAIN STACK wiring for
// google/uuid) so conflict explanations and logs can reference a specific
// learned clause across restarts without relying on slice position.
type Clause struct {
	ID       uuid.UUID
	Literals []Literal
	activity float64
}

// ClauseDB stores every learned clause and indexes them by the constraints
// they mention, for efficient unit-propagation scans. Shaped on the
// teacher's fact_store.go indexed-lookup convention: a flat slice of
// records plus a map from key to the records touching that key.
type ClauseDB struct {
	clauses      []*Clause
	byConstraint map[int][]*Clause
	bumpAmount   float64
	decayFactor  float64
}

// NewClauseDB creates an empty clause database.
func NewClauseDB() *ClauseDB {
	return &ClauseDB{
		byConstraint: make(map[int][]*Clause),
		bumpAmount:   1.0,
		decayFactor:  0.95,
	}
}

// Learn records a new conflict clause over the given literals (the
// decisions that are jointly responsible for the conflict under analysis,
// stored as made: the clause forbids all of them holding together) and
// returns it.
func (db *ClauseDB) Learn(literals []Literal) *Clause {
	lits := make([]Literal, len(literals))
	copy(lits, literals)
	c := &Clause{ID: uuid.New(), Literals: lits, activity: db.bumpAmount}
	db.clauses = append(db.clauses, c)
	for _, l := range lits {
		db.byConstraint[l.ConstraintID] = append(db.byConstraint[l.ConstraintID], c)
	}
	return c
}

// Clauses returns every learned clause, most recent last.
func (db *ClauseDB) Clauses() []*Clause {
	return db.clauses
}

// ClausesMentioning returns every clause mentioning the given constraint,
// for the search driver's VSIDS-like activity scoring when picking the
// next branching constraint.
func (db *ClauseDB) ClausesMentioning(constraintID int) []*Clause {
	return db.byConstraint[constraintID]
}

// BumpActivity increases a clause's activity score (called whenever it
// participates in a new conflict), following the standard VSIDS bump-then-
// periodically-decay scheme.
func (db *ClauseDB) BumpActivity(c *Clause) {
	c.activity += db.bumpAmount
}

// Decay grows the bump amount by 1/decayFactor instead of scaling down every
// clause's activity, called once per conflict so recently-active clauses
// dominate future branching decisions.
func (db *ClauseDB) Decay() {
	db.bumpAmount /= db.decayFactor
}

// UnitImplication scans every clause for one where every literal but one
// already holds on the current trail (i.e. that constraint is fixed to the
// same phase as the clause's literal) and the remaining literal's
// constraint is not yet fixed: that literal's phase must then be excluded,
// implying the constraint be fixed to a different still-possible phase.
// trail maps constraintID -> currently fixed phase for already-decided
// constraints. Returns the implied literal (the phase to exclude) and true,
// or false if no unit clause was found.
func (db *ClauseDB) UnitImplication(trail map[int]Phase) (Literal, bool) {
	for _, c := range db.clauses {
		var openLit *Literal
		openCount := 0
		allOthersMatch := true
		for i := range c.Literals {
			l := c.Literals[i]
			fixed, ok := trail[l.ConstraintID]
			if !ok {
				openCount++
				openLit = &c.Literals[i]
				continue
			}
			if fixed != l.Phase {
				allOthersMatch = false
				break
			}
		}
		if allOthersMatch && openCount == 1 {
			db.BumpActivity(c)
			return *openLit, true
		}
	}
	return Literal{}, false
}
