// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics, effective configuration and debug introspection for
// embedded-ws. The server increments counters as connections come and go and
// registers probes that read the connection table on demand; Stats merges
// everything into one flat map suitable for logging.
package control
