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

package macrocompile

import (
	"github.com/tidwall/btree"

	"github.com/bufbuild/macrocompile/ast"
)

// registry indexes macro definitions by name. A later definition with the
// same name shadows an earlier one, so an invocation anywhere in the file
// sees the file's final definition of that name.
type registry struct {
	defs btree.Map[string, *ast.MacroDefNode]
}

func newRegistry(file *ast.FileNode) *registry {
	r := &registry{}
	for _, def := range file.Defs() {
		r.defs.Set(def.Name(), def)
	}
	return r
}

func (r *registry) lookup(name string) *ast.MacroDefNode {
	def, _ := r.defs.Get(name)
	return def
}

// names lists the registered macros in sorted order.
func (r *registry) names() []string {
	return r.defs.Keys()
}
