package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestParseDateExplicit(t *testing.T) {
    got, err := ParseDate("2025-03-09")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    want := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("got %v want %v", got, want)
    }
}

func TestParseDateKeywords(t *testing.T) {
    today, err := ParseDate("today")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !today.Equal(DayStart(time.Now())) {
        t.Fatalf("today misaligned: %v", today)
    }
    empty, err := ParseDate("")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !empty.Equal(today) {
        t.Fatalf("empty should mean today")
    }
    yday, err := ParseDate("yesterday")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !yday.AddDate(0, 0, 1).Equal(today) {
        t.Fatalf("yesterday misaligned: %v", yday)
    }
}

func TestParseDateInvalid(t *testing.T) {
    if _, err := ParseDate("03/09/2025"); err == nil {
        t.Fatalf("expected error")
    }
}