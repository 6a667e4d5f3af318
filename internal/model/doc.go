// Package model provides the in-memory entity types for DX API responses.
//
// This package contains type definitions and a few pure helpers only. The
// compiler builds these types from raw JSON; the session, renderer and CLI
// read them. model imports nothing internal, so it stays the foundational
// layer with no circular dependencies.
//
// Key constraints:
//   - Kind values and kindStrings stay in lock-step order (ordinal = index)
//   - A component's Key is classID + "." + name and is computed last
//   - References hold a key, never a pointer to the referenced component
//   - Every map here is rebuilt wholesale on each response parse
package model
