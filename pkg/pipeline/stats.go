package pipeline

import (
	"catalog-ops/pkg/objectstore"
	"catalog-ops/pkg/resolver"
)

// EntryReport counts what happened to the images of one entry
type EntryReport struct {
	Resolved  map[resolver.Status]int
	Published int
	Failed    int // publish failures and skips
	Fields    []string
}

func (r *EntryReport) resolved(s resolver.Status) {
	if r.Resolved == nil {
		r.Resolved = make(map[resolver.Status]int)
	}
	r.Resolved[s]++
}

func (r *EntryReport) published(res objectstore.Result) {
	if res.Status == objectstore.StatusPublished {
		r.Published++
		return
	}
	r.Failed++
}

// Changed reports whether any field was rewritten
func (r EntryReport) Changed() bool { return len(r.Fields) > 0 }

// Stats aggregates a whole run
type Stats struct {
	Entries         int
	Updated         int
	EntryErrors     int
	Resolved        map[resolver.Status]int
	Published       int
	PublishFailed   int
	FieldsRewritten int
}

// Add folds an entry report into the totals
func (s *Stats) Add(r EntryReport) {
	if s.Resolved == nil {
		s.Resolved = make(map[resolver.Status]int)
	}
	for k, v := range r.Resolved {
		s.Resolved[k] += v
	}
	s.Published += r.Published
	s.PublishFailed += r.Failed
	s.FieldsRewritten += len(r.Fields)
}
