// Copyright 2024 Hemant. All rights reserved.
// Use of this source code is governed by a MIT license
// that can be found in the LICENSE file.

package log

import (
	"bytes"
	"fmt"
	"regexp"
	"testing"
)

type record struct {
	level  string
	msg    string
	fields Fields
}

// recorder is a Base that keeps every call.
type recorder struct {
	records []record
}

func (r *recorder) add(level, msg string, fields Fields) {
	r.records = append(r.records, record{level, msg, fields})
}

func (r *recorder) Debug(msg string, f Fields)     { r.add("debug", msg, f) }
func (r *recorder) Info(msg string, f Fields)      { r.add("info", msg, f) }
func (r *recorder) Notice(msg string, f Fields)    { r.add("notice", msg, f) }
func (r *recorder) Warning(msg string, f Fields)   { r.add("warning", msg, f) }
func (r *recorder) Error(msg string, f Fields)     { r.add("error", msg, f) }
func (r *recorder) Critical(msg string, f Fields)  { r.add("critical", msg, f) }
func (r *recorder) Alert(msg string, f Fields)     { r.add("alert", msg, f) }
func (r *recorder) Emergency(msg string, f Fields) { r.add("emergency", msg, f) }

const rgxTime = `time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`

func TestBaseLoggerOutput(t *testing.T) {
	tests := []struct {
		desc    string
		call    func(l Base)
		wantPat string
	}{
		{
			desc:    "Info with fields",
			call:    func(l Base) { l.Info("queue saved", Fields{"queue": "imports", "count": 3}) },
			wantPat: rgxTime + `.* level=INFO msg="queue saved" component=cronqueue pid=\d+ count=3 queue=imports\n$`,
		},
		{
			desc:    "Notice without fields",
			call:    func(l Base) { l.Notice("lock held", nil) },
			wantPat: rgxTime + `.* level=NOTICE msg="lock held" component=cronqueue pid=\d+\n$`,
		},
		{
			desc:    "Emergency",
			call:    func(l Base) { l.Emergency("store gone", Fields{"addr": "localhost:6379"}) },
			wantPat: `level=EMERGENCY msg="store gone" .*addr=localhost:6379\n$`,
		},
		{
			desc:    "Critical",
			call:    func(l Base) { l.Critical("x", nil) },
			wantPat: `level=CRITICAL msg=x`,
		},
	}

	for _, tc := range tests {
		var buf bytes.Buffer
		tc.call(NewBase(&buf))
		got := buf.String()
		matched, err := regexp.MatchString(tc.wantPat, got)
		if err != nil {
			t.Fatal("pattern did not compile:", err)
		}
		if !matched {
			t.Errorf("%s: log output = %q, want pattern %q", tc.desc, got, tc.wantPat)
		}
	}
}

func TestLoggerThreshold(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{DebugLevel, []string{"debug", "info", "notice", "warning", "error", "critical", "alert", "emergency"}},
		{InfoLevel, []string{"info", "notice", "warning", "error", "critical", "alert", "emergency"}},
		{WarnLevel, []string{"warning", "error", "critical", "alert", "emergency"}},
		{ErrorLevel, []string{"error", "critical", "alert", "emergency"}},
		{EmergencyLevel, []string{"emergency"}},
	}

	for _, tc := range tests {
		rec := &recorder{}
		l := NewLogger(rec)
		l.SetLevel(tc.level)

		l.Debug("m")
		l.Info("m")
		l.Notice("m")
		l.Warn("m")
		l.Error("m")
		l.Critical("m")
		l.Alert("m")
		l.Emergency("m")

		var got []string
		for _, r := range rec.records {
			got = append(got, r.level)
		}
		if fmt.Sprint(got) != fmt.Sprint(tc.want) {
			t.Errorf("level %v: logged %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestLoggerMergesFields(t *testing.T) {
	rec := &recorder{}
	l := NewLogger(rec)

	l.Info("enqueued", Fields{"queue": "imports"}, Fields{"length": 4})
	l.Infof("saved %q", "imports")

	if len(rec.records) != 2 {
		t.Fatalf("got %d records, want 2", len(rec.records))
	}
	f := rec.records[0].fields
	if f["queue"] != "imports" || f["length"] != 4 {
		t.Errorf("fields = %v, want queue and length merged", f)
	}
	if rec.records[1].msg != `saved "imports"` || rec.records[1].fields != nil {
		t.Errorf("Infof record = %+v", rec.records[1])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"warn", WarnLevel, false},
		{"Warning", WarnLevel, false},
		{" critical ", CriticalLevel, false},
		{"emergency", EmergencyLevel, false},
		{"verbose", 0, true},
	}

	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %t", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetLevelPanicsOnInvalidLevel(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("SetLevel(0) did not panic")
		}
	}()
	NewLogger(&recorder{}).SetLevel(0)
}
