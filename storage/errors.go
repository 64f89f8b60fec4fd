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


package storage

import "errors"

var (
	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidColumnRef indicates a malformed input column reference.
	ErrInvalidColumnRef = errors.New("invalid column reference")

	// ErrInvalidIdentifier indicates a table or column name that is not a
	// plain SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrTableNotFound indicates that a referenced table does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrProvisionFailed indicates that destination provisioning failed.
	ErrProvisionFailed = errors.New("provisioning failed")

	// ErrTransactionFailed indicates that a persist transaction failed.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidQuery indicates a row-selection query that cannot run.
	ErrInvalidQuery = errors.New("invalid query")
)
