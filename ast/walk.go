// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ast

// WalkMatchers performs a depth-first traversal of the given matcher
// sequence, invoking fn for every node, parents before children. If fn
// returns a non-nil error, the traversal stops and that error is returned.
func WalkMatchers(matchers []MatcherNode, fn func(MatcherNode) error) error {
	for _, m := range matchers {
		if err := fn(m); err != nil {
			return err
		}
		switch m := m.(type) {
		case *GroupMatcherNode:
			if err := WalkMatchers(m.Matchers, fn); err != nil {
				return err
			}
		case *RepetitionMatcherNode:
			if err := WalkMatchers(m.Matchers, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// WalkTemplate performs a depth-first traversal of the given template
// sequence, invoking fn for every node, parents before children. If fn
// returns a non-nil error, the traversal stops and that error is returned.
func WalkTemplate(template []TemplateNode, fn func(TemplateNode) error) error {
	for _, t := range template {
		if err := fn(t); err != nil {
			return err
		}
		switch t := t.(type) {
		case *GroupTemplateNode:
			if err := WalkTemplate(t.Children, fn); err != nil {
				return err
			}
		case *RepetitionTemplateNode:
			if err := WalkTemplate(t.Children, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
