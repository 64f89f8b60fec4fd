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


package core

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// Key is a content-derived document identifier. It joins a document's rows
// across tables: every table that stores per-document data carries a key
// column holding the same value for the same source content.
type Key string

// KeyFromContent generates a deterministic Key from document content using
// BLAKE2b hashing. Identical content always produces the same key, so
// re-ingesting a document never creates a second identity for it.
func KeyFromContent(content []byte) Key {
	h, _ := blake2b.New(20, nil) // 20 bytes = 40 hex chars
	h.Write(content)
	return Key(hex.EncodeToString(h.Sum(nil)))
}

// HashText returns a short hex digest of text, used to deduplicate prompt
// records. Not a document identity; collisions only cost a duplicate row.
func HashText(text string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
