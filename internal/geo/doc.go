// Package geo maps hop addresses to approximate locations.
//
// Lookups go through a [Lookuper] such as the ip-api or ipinfo providers.
// The [Resolver] in front of it caches every answer for the lifetime of a
// run, including failures, and never asks the provider about private or
// reserved addresses.
package geo
