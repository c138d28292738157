/*------------------------------------------------------------------------------
* metrics.go : prometheus metrics of rtk server
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* history : 2025/03/02 1.0  new
*-----------------------------------------------------------------------------*/
package gnssrtk

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsSource provides server statistics snapshots.
type StatsSource interface {
	Stats() RtkSvrStats
}

var solqLabels = [SOLQ_DR + 1]string{"none", "fix", "float", "sbas", "dgps", "single", "ppp", "dr"}

var inputLabels = [3]string{"rover", "base", "corr"}

// RtkSvrCollector exports server statistics. Values are read from the
// source on every scrape.
type RtkSvrCollector struct {
	src      StatsSource
	gatherer prometheus.Gatherer

	cycles   *prometheus.Desc
	overruns *prometheus.Desc
	prcout   *prometheus.Desc
	cputime  *prometheus.Desc
	stale    *prometheus.Desc
	sols     *prometheus.Desc
	ratio    *prometheus.Desc
	ns       *prometheus.Desc
	age      *prometheus.Desc
	crcerr   *prometheus.Desc
	resync   *prometheus.Desc
	epochs   *prometheus.Desc
	dropped  *prometheus.Desc
	strState *prometheus.Desc
	strBytes *prometheus.Desc
	strRate  *prometheus.Desc
	running  *prometheus.Desc
}

// NewRtkSvrCollector registers a collector of src against reg, the global
// registry when nil.
func NewRtkSvrCollector(reg prometheus.Registerer, src StatsSource) (*RtkSvrCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	c := &RtkSvrCollector{
		src:      src,
		gatherer: gatherer,
		running:  prometheus.NewDesc("rtksvr_running", "Server state (1:running).", nil, nil),
		cycles:   prometheus.NewDesc("rtksvr_cycles_total", "Processed server cycles.", nil, nil),
		overruns: prometheus.NewDesc("rtksvr_overruns_total", "Cycles with cpu time over the server cycle.", nil, nil),
		prcout:   prometheus.NewDesc("rtksvr_epochs_dropped_total", "Epochs dropped by overload.", nil, nil),
		cputime:  prometheus.NewDesc("rtksvr_cpu_time_seconds", "Cpu time of the last cycle.", nil, nil),
		stale:    prometheus.NewDesc("rtksvr_stale_base_total", "Epochs processed without an aligned base epoch.", nil, nil),
		sols: prometheus.NewDesc("rtksvr_solutions_total", "Solutions by quality.",
			[]string{"quality"}, nil),
		ratio: prometheus.NewDesc("rtksvr_ar_ratio", "Ambiguity validation ratio of the last solution.", nil, nil),
		ns:    prometheus.NewDesc("rtksvr_satellites", "Valid satellites of the last solution.", nil, nil),
		age:   prometheus.NewDesc("rtksvr_age_seconds", "Age of differential of the last solution.", nil, nil),
		crcerr: prometheus.NewDesc("rtksvr_decode_errors_total", "Crc/parity failures by input.",
			[]string{"input"}, nil),
		resync: prometheus.NewDesc("rtksvr_resync_bytes_total", "Bytes dropped to resynchronize by input.",
			[]string{"input"}, nil),
		epochs: prometheus.NewDesc("rtksvr_epochs_total", "Epochs accepted by the synchronizer by input.",
			[]string{"input"}, nil),
		dropped: prometheus.NewDesc("rtksvr_epochs_rejected_total", "Epochs rejected by the synchronizer by input and reason.",
			[]string{"input", "reason"}, nil),
		strState: prometheus.NewDesc("rtksvr_stream_state", "Stream state (-1:error,0:close,1:wait,2:connect,3:active).",
			[]string{"stream"}, nil),
		strBytes: prometheus.NewDesc("rtksvr_stream_bytes_total", "Stream bytes by direction.",
			[]string{"stream", "dir"}, nil),
		strRate: prometheus.NewDesc("rtksvr_stream_rate_bps", "Stream bit rate by direction.",
			[]string{"stream", "dir"}, nil),
	}
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*RtkSvrCollector); ok {
				return existing, nil
			}
		}
		return nil, errors.Wrap(err, "register rtksvr collector")
	}
	return c, nil
}

func (c *RtkSvrCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.running, c.cycles, c.overruns, c.prcout, c.cputime,
		c.stale, c.sols, c.ratio, c.ns, c.age, c.crcerr, c.resync, c.epochs, c.dropped,
		c.strState, c.strBytes, c.strRate} {
		ch <- d
	}
}

func (c *RtkSvrCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	counter := func(d *prometheus.Desc, v float64, lv ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, lv...)
	}
	gauge := func(d *prometheus.Desc, v float64, lv ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, lv...)
	}
	gauge(c.running, float64(s.State))
	counter(c.cycles, float64(s.Cycles))
	counter(c.overruns, float64(s.Overruns))
	counter(c.prcout, float64(s.PrcOut))
	gauge(c.cputime, float64(s.CpuTime)*1e-3)
	counter(c.stale, float64(s.Stale))
	for q, n := range s.Sols {
		counter(c.sols, float64(n), solqLabels[q])
	}
	gauge(c.ratio, float64(s.Sol.Ratio))
	gauge(c.ns, float64(s.Sol.Ns))
	gauge(c.age, float64(s.Sol.Age))

	for i, in := range inputLabels {
		counter(c.crcerr, float64(s.CrcErr[i]), in)
		counter(c.resync, float64(s.Resync[i]), in)
		counter(c.epochs, float64(s.Accepted[i]), in)
		counter(c.dropped, float64(s.Dropped[i]), in, "inversion")
		counter(c.dropped, float64(s.Overflow[i]), in, "overflow")
	}
	for i := range s.Streams {
		st := &s.Streams[i]
		id := strconv.Itoa(i + 1)
		gauge(c.strState, float64(st.State), id)
		counter(c.strBytes, float64(st.InBytes), id, "in")
		counter(c.strBytes, float64(st.OutBytes), id, "out")
		gauge(c.strRate, float64(st.InRate), id, "in")
		gauge(c.strRate, float64(st.OutRate), id, "out")
	}
}

// Handler exposes a /metrics handler of the registry the collector was
// registered with.
func (c *RtkSvrCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
