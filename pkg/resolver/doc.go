// Package resolver turns partially-available guest data into network
// addresses and OS identification fields.
//
// Address resolution is an ordered chain of strategies with
// first-success-wins semantics: the QEMU guest agent for running VMs,
// then the static ipconfig*/net* configuration entries. Sentinel values
// (dhcp, auto, manual) are rejected so a DHCP-configured guest resolves
// to nothing rather than to a bogus string. The chain never fabricates
// an address: when every strategy fails the result is empty and the
// caller falls back to a synthetic hostname.
//
// OS detection follows the same shape: detailed agent-reported release
// data when available, a static ostype lookup for containers, and a
// coarse family mapping as the last resort. The detailed and fallback
// key sets are mutually exclusive per guest.
package resolver
