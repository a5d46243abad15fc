package database

import "github.com/go-pg/pg/orm"

type SelectQueryOptions struct {
	Limit   int
	Offset  int
	OrderBy []string
}

func (s *SelectQueryOptions) Apply(q *orm.Query) *orm.Query {
	if s == nil {
		return q
	}

	if s.Limit > 0 {
		q = q.Limit(s.Limit)
	}

	if s.Offset > 0 {
		q = q.Offset(s.Offset)
	}

	if len(s.OrderBy) > 0 {
		q = q.Order(s.OrderBy...)
	}

	return q
}
