// Package audit records the request audit trail twice: as RFC5424 syslog
// lines on a writer, and as queryable rows in the audit_events table.
package audit
