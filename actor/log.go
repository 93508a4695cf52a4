package actor

import btclog "github.com/btcsuite/btclog/v2"

// log is the package-level subsystem logger. It defaults to a no-op
// implementation so the package is silent until a caller wires a real
// logger in with UseLogger, following the lnd/btcsuite subsystem-logger
// idiom.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger used for lifecycle and routing
// diagnostics across proxies, managers, pools, and the broker.
func UseLogger(logger btclog.Logger) {
	log = logger
}
