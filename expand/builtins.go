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

package expand

import (
	"strconv"
	"strings"

	"github.com/bufbuild/macrocompile/ast"
	"github.com/bufbuild/macrocompile/token"
)

// builtin handles the built-in macros an expansion-only pipeline can
// evaluate without a compiler behind it. The middle result reports whether
// the name was a builtin at all; user definitions never shadow these.
func (e *Engine) builtin(inv *ast.InvocationNode, _ []string) ([]token.Tree, bool, error) {
	switch inv.Name {
	case "stringify":
		text := token.Print(inv.Args.Children)
		return []token.Tree{synthStr(text)}, true, nil

	case "concat":
		var sb strings.Builder
		cur := token.NewCursor(inv.Args.Children)
		for !cur.Done() {
			part, ok := concatValue(cur)
			if !ok {
				return nil, true, e.Handler.HandleErrorf(e.treePos(*cur.Peek()),
					"concat! only accepts literals and booleans")
			}
			sb.WriteString(part)
			if sep := cur.Peek(); sep != nil {
				if !sep.IsPunct(',') {
					return nil, true, e.Handler.HandleErrorf(e.treePos(*sep),
						"expected `,` between concat! arguments")
				}
				cur.Next()
			}
		}
		return []token.Tree{synthStr(sb.String())}, true, nil

	case "line":
		line := 0
		if e.Info != nil && inv.Start() >= 0 {
			line = e.Info.NodeInfo(inv).Start().Line
		}
		return []token.Tree{synthInt(line)}, true, nil

	case "file":
		return []token.Tree{synthStr(e.filename())}, true, nil

	default:
		return nil, false, nil
	}
}

// concatValue renders one concat! argument as the text it contributes.
func concatValue(cur *token.Cursor) (string, bool) {
	t := cur.Peek()
	if t == nil {
		return "", false
	}
	neg := ""
	if t.IsPunct('-') {
		if n := cur.PeekAt(1); n == nil || (n.Kind != token.IntLit && n.Kind != token.FloatLit) {
			return "", false
		}
		neg = "-"
		cur.Next()
		t = cur.Peek()
	}
	switch t.Kind {
	case token.StringLit:
		cur.Next()
		return neg + t.StrVal, true
	case token.CharLit:
		cur.Next()
		return neg + string(t.CharVal), true
	case token.IntLit:
		cur.Next()
		return neg + strconv.FormatUint(t.IntVal, 10), true
	case token.FloatLit:
		cur.Next()
		return neg + strconv.FormatFloat(t.FloatVal, 'g', -1, 64), true
	case token.Ident:
		if t.IsIdent("true") || t.IsIdent("false") {
			cur.Next()
			return t.Name(), true
		}
	}
	return "", false
}

func synthStr(s string) token.Tree {
	return token.Synthetic(token.Tree{
		Kind:   token.StringLit,
		Text:   strconv.Quote(s),
		StrVal: s,
	})
}

func synthInt(n int) token.Tree {
	return token.Synthetic(token.Tree{
		Kind:   token.IntLit,
		Text:   strconv.Itoa(n),
		IntVal: uint64(n),
	})
}
