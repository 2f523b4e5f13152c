package model

// Stats is the per-status breakdown of the lead collection.
type Stats struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Contacted int `json:"contacted"`
	Qualified int `json:"qualified"`
	Lost      int `json:"lost"`
}

// Tally computes Stats from a snapshot. Leads with a status outside the
// selectable set count toward Total only.
func Tally(leads []Lead) Stats {
	s := Stats{Total: len(leads)}
	for _, l := range leads {
		switch l.Status {
		case StatusNew:
			s.New++
		case StatusContacted:
			s.Contacted++
		case StatusQualified:
			s.Qualified++
		case StatusLost:
			s.Lost++
		}
	}
	return s
}
