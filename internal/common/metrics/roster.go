package metrics

import (
	"mergington-activities/internal/activities"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is implemented by *activities.Registry.
type StatsSource interface {
	Stats() []activities.ActivityStats
}

// RosterCollector exports roster size and capacity per activity, read at
// scrape time.
type RosterCollector struct {
	source       StatsSource
	participants *prometheus.Desc
	capacity     *prometheus.Desc
}

func NewRosterCollector(source StatsSource) *RosterCollector {
	return &RosterCollector{
		source: source,
		participants: prometheus.NewDesc(
			"activity_participants",
			"Number of students signed up for the activity",
			[]string{"activity"}, nil,
		),
		capacity: prometheus.NewDesc(
			"activity_capacity",
			"Maximum number of participants for the activity",
			[]string{"activity"}, nil,
		),
	}
}

func (c *RosterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.participants
	ch <- c.capacity
}

func (c *RosterCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.source.Stats() {
		ch <- prometheus.MustNewConstMetric(c.participants, prometheus.GaugeValue, float64(s.Participants), s.Name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity), s.Name)
	}
}
