package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo) }

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ledger_build_info",
		Help: "Constant 1, labelled with version, commit and the persisted schema version.",
	},
	[]string{"version", "commit", "schema_version"},
)

func SetBuildInfo(version, commit string, schemaVersion int) {
	buildInfo.WithLabelValues(version, commit, strconv.Itoa(schemaVersion)).Set(1)
}
