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

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			"duplicate metavariable",
			`macro_rules! m { ($x:expr, $x:ty) => {}; }`,
			"duplicate metavariable $x",
		},
		{
			"duplicate across nesting",
			`macro_rules! m { ($x:expr, $($x:tt)*) => {}; }`,
			"duplicate metavariable $x",
		},
		{
			"unbound substitution",
			`macro_rules! m { ($x:expr) => { $y }; }`,
			"uses $y, which its matcher does not bind",
		},
		{
			"question mark with separator",
			`macro_rules! m { ($($x:tt),?) => {}; }`,
			"? repetition operator does not take a separator",
		},
		{
			"empty-matchable repetition",
			`macro_rules! m { ($($v:vis)*) => {}; }`,
			"matches the empty token sequence",
		},
		{
			"expr followed by expr",
			`macro_rules! m { ($a:expr $b:expr) => {}; }`,
			"not allowed after expr fragments",
		},
		{
			"expr followed by ident",
			`macro_rules! m { ($a:expr fn) => {}; }`,
			"not allowed after expr fragments",
		},
		{
			"pat followed by colon",
			`macro_rules! m { ($p:pat : $t:ty) => {}; }`,
			"not allowed after pat fragments",
		},
		{
			"expr repetition without valid separator",
			`macro_rules! m { ($($e:expr)*) => {}; }`,
			"not allowed after expr fragments",
		},
		{
			"expr repetition with bad exit token",
			`macro_rules! m { ($($e:expr),* foo) => {}; }`,
			"not allowed after expr fragments",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := parseError(t, tt.source)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		source string
	}{
		{
			"expr before comma and fat arrow",
			`macro_rules! m { ($a:expr, $b:expr) => { $a => $b }; }`,
		},
		{
			"expr repetition with comma separator",
			`macro_rules! m { ($($e:expr),*) => {}; }`,
		},
		{
			"expr repetition exiting to a semicolon",
			`macro_rules! m { ($($e:expr),* ; $rest:tt) => {}; }`,
		},
		{
			"ty before where",
			`macro_rules! m { ($t:ty where) => {}; }`,
		},
		{
			"ty before block fragment",
			`macro_rules! m { ($t:ty $b:block) => {}; }`,
		},
		{
			"vis before ident",
			`macro_rules! m { ($v:vis fn $name:ident) => {}; }`,
		},
		{
			"tt anywhere",
			`macro_rules! m { ($t:tt $u:tt if while) => {}; }`,
		},
		{
			"fragment at end of group",
			`macro_rules! m { (($e:expr)) => {}; }`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			file := parseFile(t, tt.source)
			assert.Len(t, file.Defs(), 1)
		})
	}
}
