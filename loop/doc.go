// Package loop models counted for-loops and their induction variables.
//
// A loop nest is built by traversing a statement subtree. For each
// counted loop header the three parts (init, condition, update) are
// scanned independently for candidate variables; a variable referenced
// in all three parts becomes an induction variable of that loop.
// Combining the update direction with the init and condition operands,
// inclusive lower/upper bound expressions are derived if possible.
//
// After the tree is built, induction variables are pruned bottom-up so
// the innermost loop that defines a variable is its sole owner.
package loop
