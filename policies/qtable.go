package policies

import (
	"encoding/json"
	"math"
	"os"
	"path"
)

type QTable struct {
	table map[string]map[string]float64
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[string]map[string]float64),
	}
}

func (q *QTable) Get(state, action string, def float64) float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	if _, ok := q.table[state][action]; !ok {
		q.table[state][action] = def
	}
	return q.table[state][action]
}

func (q *QTable) Set(state, action string, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

// Row returns a copy of the action values of the state
func (q *QTable) Row(state string) map[string]float64 {
	out := make(map[string]float64)
	for a, v := range q.table[state] {
		out[a] = v
	}
	return out
}

func (q *QTable) Max(state string, def float64) (string, float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
		return "", def
	}
	maxAction := ""
	maxVal := math.Inf(-1)
	for a, val := range q.table[state] {
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	if maxAction == "" {
		return "", def
	}
	return maxAction, maxVal
}

func (q *QTable) MaxAmong(state string, actions []string, def float64) (string, float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	maxAction := ""
	maxVal := math.Inf(-1)
	for _, a := range actions {
		if _, ok := q.table[state][a]; !ok {
			q.table[state][a] = def
		}
		val := q.table[state][a]
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	return maxAction, maxVal
}

// Each visits all (state, action, value) entries
func (q *QTable) Each(visit func(state, action string, val float64)) {
	for s, row := range q.table {
		for a, v := range row {
			visit(s, a, v)
		}
	}
}

// Record writes the table as JSON to the given path
func (q *QTable) Record(filePath string) error {
	bs, err := json.Marshal(q.table)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath+".json", bs, 0644)
}
