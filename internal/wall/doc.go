// Package wall defines the wall configuration and the per-section state
// mutated during a construction simulation.
//
//   - [Configuration]: ordered profiles of section start heights
//   - [SectionRef]: stable (profile, section) coordinate, 0-based
//   - [State]: current height of every section
//
// A section is finished when it reaches [MaxHeight]. Heights only ever grow
// by one foot per day and never past [MaxHeight].
//
// # Thread Safety
//
// [State] is owned by a single simulation driver and is NOT thread-safe.
// Workers receive height snapshots, never the State itself.
package wall
