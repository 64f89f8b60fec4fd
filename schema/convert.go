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


package schema

import (
	"strings"

	"github.com/mozillazg/go-pinyin"
)

// Converter transforms a validated string value before persistence.
// Conversion runs after validation so language checks see the original text.
type Converter func(string) string

var converters = map[string]Converter{
	"chinese_to_pinyin": chineseToPinyin,
	"lowercase":         strings.ToLower,
	"uppercase":         strings.ToUpper,
}

// ConverterFor returns the registered converter for the given name.
func ConverterFor(name string) (Converter, bool) {
	c, ok := converters[name]
	return c, ok
}

// ApplyConversions runs each field's declared converter over the validated
// record. String values are converted in place; list values element-wise.
// Fields without a converter, and non-string values, pass through unchanged.
func (r *Record) ApplyConversions(values map[string]any) map[string]any {
	for i := range r.Fields {
		field := &r.Fields[i]
		if field.Convert == "" {
			continue
		}
		convert, ok := ConverterFor(field.Convert)
		if !ok {
			continue
		}
		switch v := values[field.Name].(type) {
		case string:
			values[field.Name] = convert(v)
		case []string:
			converted := make([]string, len(v))
			for j, s := range v {
				converted[j] = convert(s)
			}
			values[field.Name] = converted
		case []any:
			for j, item := range v {
				if s, ok := item.(string); ok {
					v[j] = convert(s)
				}
			}
		}
	}
	return values
}

// chineseToPinyin transliterates hanzi to space-separated pinyin without
// tone marks. Runs that contain no hanzi, such as latin words or digits,
// pass through verbatim.
func chineseToPinyin(text string) string {
	args := pinyin.NewArgs()
	var out strings.Builder
	var run []rune
	needSep := false
	flush := func() {
		for _, syllables := range pinyin.Pinyin(string(run), args) {
			if len(syllables) > 0 {
				if needSep {
					out.WriteByte(' ')
				}
				out.WriteString(syllables[0])
				needSep = true
			}
		}
		run = run[:0]
	}
	for _, r := range text {
		if containsHanzi(string(r)) {
			run = append(run, r)
			continue
		}
		flush()
		out.WriteRune(r)
		needSep = r != ' ' && r != '\t' && r != '\n'
	}
	flush()
	return out.String()
}
