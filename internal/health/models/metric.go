package models

import (
	"bytes"
	"encoding/json"
	"time"

	id "medbee/pkg/domain"
)

type MetricType string

const (
	MetricWeight        MetricType = "weight"
	MetricBloodPressure MetricType = "bloodPressure"
	MetricHeight        MetricType = "height"
	MetricBMI           MetricType = "bmi"
	MetricTemperature   MetricType = "temperature"
	MetricHeartRate     MetricType = "heartRate"
	MetricBloodSugar    MetricType = "bloodSugar"
)

// MetricTypes lists every accepted type in display order.
var MetricTypes = []MetricType{
	MetricWeight,
	MetricBloodPressure,
	MetricHeight,
	MetricBMI,
	MetricTemperature,
	MetricHeartRate,
	MetricBloodSugar,
}

func (t MetricType) Valid() bool {
	for _, known := range MetricTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MetricValue is a reading and its unit. Value is a number for most types
// and a string such as "120/80" for blood pressure.
type MetricValue struct {
	Value any    `json:"value"`
	Unit  string `json:"unit"`
}

// Numeric returns the reading as a float when it is one.
func (v MetricValue) Numeric() (float64, bool) {
	switch n := v.Value.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

type HealthMetric struct {
	ID        id.RecordID `json:"_id"`
	UserID    id.UserID   `json:"user"`
	Type      MetricType  `json:"type"`
	Value     MetricValue `json:"value"`
	Notes     string      `json:"notes,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// MetricRequest is the body of metric create and update. Value stays raw so
// a missing object, a missing reading and a non-string unit each get their
// own message.
type MetricRequest struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
	Notes string          `json:"notes"`

	parsed *MetricValue
}

func (r *MetricRequest) Validate() []string {
	var errs []string
	switch {
	case r.Type == "":
		errs = append(errs, "Type is required")
	case !MetricType(r.Type).Valid():
		errs = append(errs, "Invalid metric type")
	}

	raw := bytes.TrimSpace(r.Value)
	if len(raw) == 0 || raw[0] != '{' {
		return append(errs, "Value object is required")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return append(errs, "Value object is required")
	}

	value, hasValue := fields["value"]
	value = bytes.TrimSpace(value)
	if !hasValue || string(value) == `""` || string(value) == "null" {
		errs = append(errs, "Value is required")
	}
	var unit string
	if u, ok := fields["unit"]; !ok || json.Unmarshal(u, &unit) != nil || unit == "" {
		errs = append(errs, "Unit is required and must be a string")
	}
	if len(errs) > 0 {
		return errs
	}

	var reading any
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(&reading); err != nil {
		return []string{"Value is required"}
	}
	if n, ok := reading.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			reading = f
		}
	}
	r.parsed = &MetricValue{Value: reading, Unit: unit}
	return nil
}

// Parsed returns the reading decoded by a successful Validate.
func (r *MetricRequest) Parsed() MetricValue {
	if r.parsed == nil {
		return MetricValue{}
	}
	return *r.parsed
}

// MetricSummary aggregates numeric readings of one type.
type MetricSummary struct {
	Type    MetricType `json:"_id"`
	Count   int        `json:"count"`
	Average *float64   `json:"average"`
	Min     *float64   `json:"min"`
	Max     *float64   `json:"max"`
}

// SummarizeMetrics groups metrics by type. Non-numeric readings count but do
// not contribute to average, min or max.
func SummarizeMetrics(metrics []*HealthMetric) []MetricSummary {
	type acc struct {
		count, numeric int
		sum, min, max  float64
	}
	byType := make(map[MetricType]*acc)
	for _, m := range metrics {
		a, ok := byType[m.Type]
		if !ok {
			a = &acc{}
			byType[m.Type] = a
		}
		a.count++
		v, ok := m.Value.Numeric()
		if !ok {
			continue
		}
		if a.numeric == 0 || v < a.min {
			a.min = v
		}
		if a.numeric == 0 || v > a.max {
			a.max = v
		}
		a.sum += v
		a.numeric++
	}

	out := make([]MetricSummary, 0, len(byType))
	for _, t := range MetricTypes {
		a, ok := byType[t]
		if !ok {
			continue
		}
		s := MetricSummary{Type: t, Count: a.count}
		if a.numeric > 0 {
			avg, lo, hi := a.sum/float64(a.numeric), a.min, a.max
			s.Average, s.Min, s.Max = &avg, &lo, &hi
		}
		out = append(out, s)
	}
	return out
}

func (m *HealthMetric) RowID() id.RecordID { return m.ID }
func (m *HealthMetric) Owner() id.UserID   { return m.UserID }

func (m *HealthMetric) Clone() *HealthMetric {
	c := *m
	return &c
}
