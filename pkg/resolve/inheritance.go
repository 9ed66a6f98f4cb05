// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolve

import "fmt"

// maxMRODepth bounds C3 linearization so a pathological or cyclic class
// hierarchy cannot hang the resolver pass.
const maxMRODepth = 50

// ClassDecl is the minimal shape InheritanceResolver needs for one
// class-like symbol: its own qualified name and the base classes named
// in its declaration, in declared order.
type ClassDecl struct {
	QualifiedName string
	Bases         []string
}

// InheritanceResolver computes Method Resolution Order for class
// hierarchies via C3 linearization (the same algorithm Python uses),
// since it gives predictable left-to-right, depth-first-with-merge
// semantics for both Python's native MRO and the teacher's (Go-only)
// domain extended to class-like languages.
type InheritanceResolver struct {
	classes map[string]ClassDecl
}

// NewInheritanceResolver builds a resolver over the given class
// declarations, keyed by QualifiedName.
func NewInheritanceResolver(decls []ClassDecl) *InheritanceResolver {
	classes := make(map[string]ClassDecl, len(decls))
	for _, d := range decls {
		classes[d.QualifiedName] = d
	}
	return &InheritanceResolver{classes: classes}
}

// Linearize computes the C3 MRO for qualifiedName. It returns an error
// per spec.md's "cycles or failures to linearize are reported per-class
// and do not halt the pass" — callers should log and continue rather
// than abort the whole InheritanceResolver run.
func (r *InheritanceResolver) Linearize(qualifiedName string) ([]string, error) {
	return r.linearize(qualifiedName, 0)
}

func (r *InheritanceResolver) linearize(name string, depth int) ([]string, error) {
	if depth > maxMRODepth {
		return nil, fmt.Errorf("inheritance: max linearization depth (%d) exceeded at %s", maxMRODepth, name)
	}

	decl, ok := r.classes[name]
	if !ok || len(decl.Bases) == 0 {
		return []string{name}, nil
	}

	sequences := make([][]string, 0, len(decl.Bases)+1)
	for _, base := range decl.Bases {
		seq, err := r.linearize(base, depth+1)
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, seq)
	}
	sequences = append(sequences, append([]string{}, decl.Bases...))

	merged, err := c3Merge(sequences)
	if err != nil {
		return nil, fmt.Errorf("inheritance: %s: %w", name, err)
	}
	return append([]string{name}, merged...), nil
}

// c3Merge implements the C3 merge step: repeatedly take the head of the
// first sequence that doesn't appear in the tail of any other sequence,
// remove it from every sequence, and repeat until all sequences are
// empty. An empty-but-nonzero remainder means no valid linearization
// exists (an inconsistent hierarchy).
func c3Merge(sequences [][]string) ([]string, error) {
	var result []string
	seqs := make([][]string, 0, len(sequences))
	for _, s := range sequences {
		if len(s) > 0 {
			seqs = append(seqs, append([]string{}, s...))
		}
	}

	for len(seqs) > 0 {
		candidate := ""
		for _, seq := range seqs {
			head := seq[0]
			if !inAnyTail(seqs, head) {
				candidate = head
				break
			}
		}
		if candidate == "" {
			return nil, fmt.Errorf("inconsistent hierarchy: cannot find a valid linearization")
		}

		result = append(result, candidate)
		next := seqs[:0]
		for _, seq := range seqs {
			filtered := removeHead(seq, candidate)
			if len(filtered) > 0 {
				next = append(next, filtered)
			}
		}
		seqs = next
	}
	return result, nil
}

func inAnyTail(seqs [][]string, name string) bool {
	for _, seq := range seqs {
		for _, n := range seq[1:] {
			if n == name {
				return true
			}
		}
	}
	return false
}

func removeHead(seq []string, candidate string) []string {
	if len(seq) > 0 && seq[0] == candidate {
		return seq[1:]
	}
	out := make([]string, 0, len(seq))
	for _, n := range seq {
		if n != candidate {
			out = append(out, n)
		}
	}
	return out
}
