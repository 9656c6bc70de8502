// Package admin provides the worker's read-only HTTP surface for operators
// and monitoring.
//
// Endpoints:
//
//	GET /health             liveness, always "ok"
//	GET /info               worker identity and table sizes (JSON)
//	GET /partitions/{name}  account ids currently mapping to a partition
//	GET /metrics            Prometheus exposition
//
// Nothing here takes an account lock or changes a balance. Account ids are
// grouped with the same partition map the persister uses, so /partitions
// shows where each account will be written on the next rewrite, which can
// differ from the file it was loaded from.
//
// The package also carries GetJSON, the small client used by taskctl to
// read these endpoints.
package admin
