// Package bench implements the query patterns used to measure the statement
// cache against Postgres: a trivial select, a join, a multi-row insert and
// sequential loading of a users → posts → comments association graph. It
// also seeds the dataset those patterns read and times repeated runs.
package bench
