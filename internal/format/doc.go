// Package format classifies chat replies and renders them as display markup.
//
// Classification is a best-effort keyword heuristic, not a grammar:
//   - schedule: show/theater vocabulary or a cinema emoji (checked first)
//   - listing:  a rupee price plus a "here are some" or "||" list marker
//   - general:  everything else
//
// Every function here is pure. Rendered markup only ever contains the
// elements and class names produced by this package.
package format
