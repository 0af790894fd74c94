package performance

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func TestRollingAverage(t *testing.T) {
	r := NewRollingAverage(4)
	test.That(t, r.Average(), test.ShouldEqual, time.Duration(0))
	test.That(t, r.Count(), test.ShouldEqual, 0)

	r.Add(10 * time.Millisecond)
	r.Add(20 * time.Millisecond)
	test.That(t, r.Average(), test.ShouldEqual, 15*time.Millisecond)
	test.That(t, r.Count(), test.ShouldEqual, 2)

	// Fill past the window; the oldest samples fall out.
	r.Add(30 * time.Millisecond)
	r.Add(40 * time.Millisecond)
	r.Add(50 * time.Millisecond)
	test.That(t, r.Count(), test.ShouldEqual, 4)
	test.That(t, r.Average(), test.ShouldEqual, 35*time.Millisecond)

	r.Reset()
	test.That(t, r.Count(), test.ShouldEqual, 0)
	test.That(t, r.Average(), test.ShouldEqual, time.Duration(0))
}

func TestMonitorReport(t *testing.T) {
	m := NewMonitor(8)

	for i := 0; i < 4; i++ {
		m.RecordDecode(10 * time.Millisecond)
	}
	m.RecordSkipped()

	report := m.GetReport()
	test.That(t, report.TotalFrames, test.ShouldEqual, 5)
	test.That(t, report.SkippedFrames, test.ShouldEqual, 1)
	test.That(t, report.AvgDecodeMs, test.ShouldEqual, 10.0)
	test.That(t, report.SkipRate, test.ShouldEqual, 20.0)
	test.That(t, report.IsHealthy, test.ShouldBeFalse) // 20% skip rate

	m.Reset()
	report = m.GetReport()
	test.That(t, report.TotalFrames, test.ShouldEqual, 0)
	test.That(t, report.SkipRate, test.ShouldEqual, 0.0)
}
