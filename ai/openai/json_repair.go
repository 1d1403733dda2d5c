// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import "strings"

// repairJSON fixes the malformed JSON small chat models tend to produce:
// keys missing their opening quote (`{category":"key"}`), fully unquoted
// keys (`{category:"key"}`) and a trailing comma before the closing brace.
func repairJSON(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)

	inString := false
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if inString {
			b.WriteRune(r)
			if r == '\\' && i+1 < len(rs) {
				i++
				b.WriteRune(rs[i])
			} else if r == '"' {
				inString = false
			}
			continue
		}

		switch {
		case r == '"':
			inString = true
			b.WriteRune(r)
		case r == ',' && nextNonSpace(rs, i+1) == '}':
			// drop trailing comma
		case isKeyRune(r) && (prevNonSpace(rs, i-1) == '{' || prevNonSpace(rs, i-1) == ','):
			j := i
			for j < len(rs) && isKeyRune(rs[j]) {
				j++
			}
			key := string(rs[i:j])
			switch {
			case j+1 < len(rs) && rs[j] == '"' && rs[j+1] == ':':
				b.WriteString(`"` + key + `"`)
				j++
			case j < len(rs) && rs[j] == ':':
				b.WriteString(`"` + key + `"`)
			default:
				b.WriteString(key)
			}
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func nextNonSpace(rs []rune, i int) rune {
	for ; i < len(rs); i++ {
		if !strings.ContainsRune(" \t\r\n", rs[i]) {
			return rs[i]
		}
	}
	return 0
}

func prevNonSpace(rs []rune, i int) rune {
	for ; i >= 0; i-- {
		if !strings.ContainsRune(" \t\r\n", rs[i]) {
			return rs[i]
		}
	}
	return 0
}
