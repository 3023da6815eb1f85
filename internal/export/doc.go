// Package export writes a frozen topology as DOT, JSON and a latency
// matrix and renders it to an image with Graphviz.
package export
