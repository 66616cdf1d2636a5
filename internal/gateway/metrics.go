package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "quiz_commands_total",
	Help: "Session commands processed, by command and outcome.",
}, []string{"command", "outcome"})

func observeCommand(command string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	commandsTotal.WithLabelValues(command, outcome).Inc()
}
