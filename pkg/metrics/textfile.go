// Package metrics dumps the process registry for node_exporter's textfile
// collector, which is how short-lived CLI runs expose their counters.
package metrics

import (
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes every metric in g to path. The file is replaced
// atomically. A nil gatherer means prometheus.DefaultGatherer.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return errors.New("metrics file path is empty")
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if filepath.Ext(path) != ".prom" {
		return errors.Errorf("metrics file %q must end in .prom", path)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrap(err, "write metrics textfile")
	}
	return nil
}
