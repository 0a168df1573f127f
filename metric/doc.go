// Package metric exports neighbour's operational metrics to Prometheus.
package metric
