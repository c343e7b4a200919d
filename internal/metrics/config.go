package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stemsplit_config_reloads_total",
		Help: "Configuration reload attempts by result",
	}, []string{"result"}) // result=success|failure

	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stemsplit_build_info",
		Help: "Build information (always 1)",
	}, []string{"version"})
)

// RecordConfigReload counts a reload attempt.
func RecordConfigReload(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	configReloads.WithLabelValues(result).Inc()
}

// SetBuildInfo publishes the running version.
func SetBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
