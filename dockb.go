// Package dockb indexes documentation websites into local knowledge bases
// and answers natural-language queries against them with a hybrid of
// semantic and lexical ranking.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, hnsw/).
package dockb
