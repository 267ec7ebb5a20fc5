package transform

// AssembleFacts joins raw observation rows against the surrogate-key
// mappings, producing fact rows. An observation whose location, time, or
// condition cannot be resolved is excluded from the output and counted; a
// fact row is never emitted with a dangling key. Measurements pass through
// unchanged.
func AssembleFacts(snap SourceSnapshot, keys KeyMappings) ([]FactRow, Rejections) {
	var rejections Rejections

	locByID := make(map[int64]LocationKey, len(snap.Locations))
	for _, l := range snap.Locations {
		locByID[l.ID] = LocationKey{Name: l.Name, Region: l.Region, Country: l.Country}
	}

	facts := make([]FactRow, 0, len(snap.Observations))
	for _, obs := range snap.Observations {
		t, err := ParseObservationTime(obs.ObservedAt)
		if err != nil {
			rejections.BadTimestamp++
			continue
		}

		locKey, ok := locByID[obs.LocationID]
		if !ok {
			rejections.MissingLocation++
			continue
		}
		locID, ok := keys.Locations[locKey]
		if !ok {
			rejections.MissingLocation++
			continue
		}

		timeID, ok := keys.Times[NewTimeBucket(t).Key()]
		if !ok {
			rejections.MissingTime++
			continue
		}

		condID, ok := keys.Conditions[obs.ConditionCode]
		if !ok {
			rejections.MissingCondition++
			continue
		}

		facts = append(facts, FactRow{
			LocationID:  locID,
			TimeID:      timeID,
			ConditionID: condID,
			Measures:    obs.Measures,
		})
	}

	return facts, rejections
}
