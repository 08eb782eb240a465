// Package errors provides structured error types for better observability
// and programmatic error handling across the discovery pipeline.
//
// The error taxonomy splits into fatal codes (AUTH_FAILED,
// ENUMERATION_FAILED, SERIALIZATION_FAILED), which abort a run before any
// output is produced, and recoverable codes (GUEST_FETCH_FAILED,
// AGENT_UNAVAILABLE, CONFIG_PARSE_FAILED), which degrade a single node
// record and never surface past attribute extraction.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeAgentUnavailable,
//	    "guest agent query timed out",
//	    ctx.Err(),
//	    map[string]interface{}{
//	        "node": nodeName,
//	        "vmid": vmid,
//	    },
//	)
package errors
