package sentiment

import "time"

// HistoricalRecords maps each aggregate to the row a storage collaborator
// should write for the run date. Means are carried over unrounded and the
// date is truncated to the calendar day in asOf's location.
func HistoricalRecords(aggregates []GroupAggregate, asOf time.Time) []HistoricalRecord {
	day := CalendarDay(asOf)
	records := make([]HistoricalRecord, 0, len(aggregates))
	for _, ag := range aggregates {
		records = append(records, HistoricalRecord{
			Group:        ag.Group,
			MeanPolarity: ag.MeanPolarity,
			AsOf:         day,
		})
	}
	return records
}

// CalendarDay drops the time-of-day part of t.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
