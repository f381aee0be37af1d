// Package resolver builds the fixture dependency graph of a declaration file.
// It rejects dependency cycles, computes the fixture closure each test
// requests, and expands parametrization into the collected test items the
// scheduler plans over.
package resolver
