// Package tracemap runs the tracemap pipeline: it probes every configured
// destination, reduces the cycles to canonical paths, merges them into one
// topology and exports the result.
package tracemap
