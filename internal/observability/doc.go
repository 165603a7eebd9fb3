// Package observability provides the project event log, the outbound
// event relay, metrics derived from logged events, and alert evaluation
// over project status.
package observability
