/*
Package observability turns engine lifecycle hooks into metrics and logs.

Metrics registers Prometheus collectors for node visits, time spent per
node, dispatched actions and confirmed choices. LogHooks writes the same
events to a slog.Logger. Combine both with domain.LifecycleHooks.Merge:

	m, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := m.Hooks().Merge(observability.LogHooks(logger))
	eng, _ := mortar.New("./assets", mortar.WithLifecycleHooks(hooks))
*/
package observability
