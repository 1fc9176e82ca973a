package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace 指标命名空间
const Namespace = "dht"

// 请求/广播类型标签值
const (
	TypeJoin            = "join"
	TypeDiscover        = "discover"
	TypeStoredMessages  = "stored_messages"
	TypeSignatureInsert = "signature_insert"
)

// 签名插入结果标签值
const (
	ResultNew       = "new"
	ResultDuplicate = "duplicate"
)

// DHTMetrics DHT 控制面指标集合
type DHTMetrics struct {
	requests          *prometheus.CounterVec
	broadcasts        *prometheus.CounterVec
	broadcastFailures *prometheus.CounterVec
	cacheInserts      *prometheus.CounterVec
	cacheEntries      prometheus.Gauge
}

// NewDHTMetrics 创建指标并注册到 reg
//
// reg 为 nil 时指标仅在内存中累计，不对外暴露。
func NewDHTMetrics(reg prometheus.Registerer) (*DHTMetrics, error) {
	m := &DHTMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Total number of requests received by the DHT actor",
		}, []string{"type"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "broadcasts_total",
			Help:      "Total number of broadcasts accepted by the outbound layer",
		}, []string{"type"}),
		broadcastFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "broadcast_failures_total",
			Help:      "Total number of broadcasts rejected by the outbound layer",
		}, []string{"type"}),
		cacheInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "signature_cache_inserts_total",
			Help:      "Signature cache inserts by result",
		}, []string{"result"}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "signature_cache_entries",
			Help:      "Current number of entries held by the signature cache",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.requests, m.broadcasts, m.broadcastFailures, m.cacheInserts, m.cacheEntries,
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// RecordRequest 记录收到的请求
func (m *DHTMetrics) RecordRequest(typ string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(typ).Inc()
}

// RecordBroadcast 记录广播结果
func (m *DHTMetrics) RecordBroadcast(typ string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.broadcastFailures.WithLabelValues(typ).Inc()
		return
	}
	m.broadcasts.WithLabelValues(typ).Inc()
}

// RecordSignatureInsert 记录签名插入结果及缓存大小
func (m *DHTMetrics) RecordSignatureInsert(duplicate bool, entries int) {
	if m == nil {
		return
	}
	if duplicate {
		m.cacheInserts.WithLabelValues(ResultDuplicate).Inc()
	} else {
		m.cacheInserts.WithLabelValues(ResultNew).Inc()
	}
	m.cacheEntries.Set(float64(entries))
}
