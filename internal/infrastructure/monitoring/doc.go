/*
Package monitoring provides Prometheus metrics for the session engine.

# Overview

Each engine instance owns a Metrics value registered on a caller-supplied
registerer. The command-line front end uses the default registry; tests
pass prometheus.NewRegistry() so instances never collide.

# Metrics

  - flick_tabs_open: open tab count
  - flick_tab_switches_total: flush-then-load handovers
  - flick_file_loads_total{mode,result}: sync and async file reads
  - flick_stale_loads_total: superseded async completions
  - flick_load_duration_seconds{mode}: read latency
  - flick_tree_refreshes_total: tree refreshes
  - flick_fs_errors_total{op}: filesystem failures surfaced to the user
  - flick_persist_writes_total{record,result}: session record writes

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	timer := monitoring.NewTimer(metrics, "async")
	data, err := fs.ReadFile(path)
	timer.Stop(err)
*/
package monitoring
