/*
Package resilience provides a circuit breaker for operations that keep
failing the same way, such as writes into a read-only directory.

# States

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[success]-> Closed
	                                                       |
	                                                   [failure]
	                                                       v
	                                                      Open

While open, Do returns ErrOpen without calling the operation.

# Usage

	breaker := resilience.New("storage", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Breaker state changed", zap.Stringer("to", to))
		},
	})

	err := breaker.Do(func() error {
		return fs.WriteFile(path, data)
	})
*/
package resilience
