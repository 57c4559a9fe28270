// Package report exports a run summary in the Prometheus text exposition
// format, suitable for a node-exporter textfile collector. Every series
// carries month and year labels so consecutive runs of different periods can
// be told apart.
package report
