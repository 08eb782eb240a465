// Package inventory builds the normalized node inventory from discovered
// cluster guests.
//
// The Builder drives one stateless discovery run: it authenticates through
// the cluster client, enumerates guests across all cluster nodes in API
// order, and extracts one NodeRecord per included guest. Extraction is
// parallelized across guests but the resulting inventory always preserves
// enumeration order, which is part of the output contract.
//
// Extract is a pure function from fully-resolved guest data to a record:
// all network resolution happens before it runs, so identical snapshots
// yield byte-identical records. Failures while processing a single guest
// (config fetch, status fetch, agent queries) degrade that record by
// omitting fields; they never abort the run. Only authentication and
// enumeration failures are fatal.
package inventory
