package transform

import (
	"fmt"
	"time"

	"github.com/uemoa-meteo/weather-warehouse/internal/weather"
)

// observationTimeLayouts lists the timestamp layouts accepted from staging
// rows. The feed emits minute granularity; second granularity appears in
// older backfills.
var observationTimeLayouts = []string{
	weather.TimeLayout,
	"2006-01-02 15:04:05",
}

// ParseObservationTime parses a raw observation timestamp, truncated to the
// minute (the time dimension's granularity).
func ParseObservationTime(s string) (time.Time, error) {
	for _, layout := range observationTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Truncate(time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable observation timestamp %q", s)
}

// BuildCandidates derives the deduplicated dimension candidate sets from the
// raw rows. Output order is first-seen. Timestamps that fail to parse are
// excluded from the bucket candidates and counted; the observations carrying
// them stay in the snapshot so the assembler rejects them visibly instead of
// the rows vanishing here.
func BuildCandidates(snap SourceSnapshot) Candidates {
	var c Candidates

	seenLoc := make(map[LocationKey]struct{}, len(snap.Locations))
	for _, l := range snap.Locations {
		key := LocationKey{Name: l.Name, Region: l.Region, Country: l.Country}
		if _, ok := seenLoc[key]; ok {
			continue
		}
		seenLoc[key] = struct{}{}
		c.Locations = append(c.Locations, key)
	}

	seenCond := make(map[int]struct{}, len(snap.Conditions))
	for _, cond := range snap.Conditions {
		if _, ok := seenCond[cond.Code]; ok {
			continue
		}
		seenCond[cond.Code] = struct{}{}
		c.Conditions = append(c.Conditions, ConditionCandidate{Code: cond.Code, Text: cond.Text})
	}

	seenRaw := make(map[string]struct{})
	seenBucket := make(map[string]struct{})
	badTime := make(map[string]struct{})
	for _, obs := range snap.Observations {
		if _, ok := seenRaw[obs.ObservedAt]; ok {
			continue
		}
		seenRaw[obs.ObservedAt] = struct{}{}

		t, err := ParseObservationTime(obs.ObservedAt)
		if err != nil {
			badTime[obs.ObservedAt] = struct{}{}
			continue
		}
		bucket := NewTimeBucket(t)
		// Distinct raw strings may truncate to the same minute bucket.
		if _, ok := seenBucket[bucket.Key()]; ok {
			continue
		}
		seenBucket[bucket.Key()] = struct{}{}
		c.TimeBuckets = append(c.TimeBuckets, bucket)
	}
	c.UnparseableTimes = len(badTime)

	return c
}
