// Package cli provides the interactive stock counter command-line client.
//
// It wires configuration, the local store, the HTTP gateway, the
// connectivity monitor and the services into a REPL that keeps working
// offline. Typical flow: restore the last session, log in if needed, open a
// stocktake, then scan. Pending scans are pushed every N captures, on the
// sync command and whenever the monitor sees the gateway come back.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
