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


// Package storage provides the storage abstraction layer for enrichit.
//
// This package defines the Store interface that decouples the enrichment
// engine from the backing database, plus the shared types describing
// destinations (Target), input references (ColumnRef), and audit records
// (Attempt, AuditEntry).
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the storage.Store interface to
// enforce abstraction:
//
//	store, err := sqlite.New("/path/to.db")  // returns storage.Store
//
// # Write Discipline
//
// Provisioning is strictly additive: columns and tables are created when
// missing and never dropped, narrowed, or retyped. Every provider exchange
// lands in the append-only enrichment_responses trail, successful or not;
// only successful attempts with a non-null payload reach the destination,
// and audit insert plus destination write share one transaction.
//
// # Thread Safety
//
// Store implementations must be safe for concurrent use; the dispatcher
// persists from many workers at once.
package storage
