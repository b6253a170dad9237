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
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type expandCase struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Want   string `yaml:"want"`
}

// TestExpandCases runs each case in testdata/cases.yaml through a full
// expansion with a default engine and compares the rendered output.
func TestExpandCases(t *testing.T) {
	t.Parallel()
	raw, err := os.ReadFile("testdata/cases.yaml")
	require.NoError(t, err)
	var suite struct {
		Cases []expandCase `yaml:"cases"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &suite))
	require.NotEmpty(t, suite.Cases)

	for _, tc := range suite.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			got, err := expandSource(t, tc.Source, nil)
			require.NoError(t, err)
			want := strings.TrimRight(tc.Want, "\n")
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("expansion mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
