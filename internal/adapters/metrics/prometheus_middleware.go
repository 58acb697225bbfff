package metrics

import (
	"net/http"
	"time"
)

// InstrumentRoundTripper returns a wrapper that records every request passing
// through next
//
// A nil collector returns next unchanged (metrics disabled). A nil next is
// replaced by http.DefaultTransport.
func InstrumentRoundTripper(collector *TransportMetricsCollector) func(next http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		if next == nil {
			next = http.DefaultTransport
		}
		if collector == nil {
			return next
		}
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			status := 0
			if err == nil {
				status = resp.StatusCode
			}
			collector.RecordRequest(req.Method, status, time.Since(start))
			return resp, err
		})
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
