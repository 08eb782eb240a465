// Package serializer renders the built inventory into the resource-model
// document formats consumers ingest: a YAML list of flat node maps, the
// equivalent JSON array, or an XML project tree of node elements.
//
// All three formats carry the same data and preserve node order and
// per-node attribute order, so serializing the same inventory twice yields
// byte-identical documents. Decode reverses any of the three, which the
// tests use to prove the formats agree.
package serializer
