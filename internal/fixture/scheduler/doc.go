// Package scheduler plans the SETUP and TEARDOWN events of a collected test
// file without running anything. Items are first reordered so tests sharing
// session parameters sit next to each other, then a greedy pass sets up each
// item's fixtures, reusing live instances whose parameter still matches and
// tearing down the ones that do not. The resulting plan renders in the same
// layout as pytest's --setup-plan output.
package scheduler
