// Package api exposes the benchmark suite over HTTP. Handlers translate
// requests into workload runs and map errors from the statement cache and
// the database onto status codes without leaking driver messages.
package api
