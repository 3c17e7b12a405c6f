package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	log "github.com/sirupsen/logrus"
)

// HostCollector reports resource usage of the machine the controller runs
// on. Values are sampled on every scrape.
type HostCollector struct {
	cpuUsage    *prometheus.Desc
	memUsed     *prometheus.Desc
	memTotal    *prometheus.Desc
	load1       *prometheus.Desc
	cpuPercent  func() ([]float64, error)
	virtualMem  func() (*mem.VirtualMemoryStat, error)
	loadAverage func() (*load.AvgStat, error)
}

func NewHostCollector() *HostCollector {
	return &HostCollector{
		cpuUsage: prometheus.NewDesc("controller_host_cpu_usage_percent",
			"CPU usage of the controller host since the previous scrape", nil, nil),
		memUsed: prometheus.NewDesc("controller_host_memory_used_percent",
			"Memory in use on the controller host", nil, nil),
		memTotal: prometheus.NewDesc("controller_host_memory_total_bytes",
			"Physical memory of the controller host", nil, nil),
		load1: prometheus.NewDesc("controller_host_load1",
			"One minute load average of the controller host", nil, nil),
		cpuPercent:  func() ([]float64, error) { return cpu.Percent(0, false) },
		virtualMem:  mem.VirtualMemory,
		loadAverage: load.Avg,
	}
}

func (c *HostCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuUsage
	ch <- c.memUsed
	ch <- c.memTotal
	ch <- c.load1
}

// Collect skips any reading the platform cannot provide.
func (c *HostCollector) Collect(ch chan<- prometheus.Metric) {
	if usage, err := c.cpuPercent(); err != nil {
		log.Debugf("host cpu usage unavailable: %v", err)
	} else if len(usage) > 0 {
		ch <- prometheus.MustNewConstMetric(c.cpuUsage, prometheus.GaugeValue, usage[0])
	}

	if vm, err := c.virtualMem(); err != nil {
		log.Debugf("host memory unavailable: %v", err)
	} else {
		ch <- prometheus.MustNewConstMetric(c.memUsed, prometheus.GaugeValue, vm.UsedPercent)
		ch <- prometheus.MustNewConstMetric(c.memTotal, prometheus.GaugeValue, float64(vm.Total))
	}

	if avg, err := c.loadAverage(); err != nil {
		log.Debugf("host load unavailable: %v", err)
	} else {
		ch <- prometheus.MustNewConstMetric(c.load1, prometheus.GaugeValue, avg.Load1)
	}
}
