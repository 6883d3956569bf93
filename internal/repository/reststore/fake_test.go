package reststore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type row = map[string]any

// fakePostgREST is an in-memory subset of PostgREST: eq/in/lt/lte/gt/gte
// filters, multi-key order, limit/offset, select projection, exact counts
// and unique constraints reported as 23505.
type fakePostgREST struct {
	key string

	mu      sync.Mutex
	tables  map[string][]row
	nextID  map[string]int64
	unique  map[string][][]string
	calls   int
	fail    map[string]int
	lastReq *http.Request

	// beforePatch runs with the lock held, ahead of filter matching.
	beforePatch func(table string, rows []row)
}

func newFakePostgREST(t *testing.T, key string) (*fakePostgREST, *httptest.Server) {
	t.Helper()
	f := &fakePostgREST{
		key:    key,
		tables: make(map[string][]row),
		nextID: make(map[string]int64),
		unique: map[string][][]string{
			tableUsers:       {{"email"}, {"username"}},
			tableStorage:     {{"user_id"}},
			tableFiles:       {{"user_id", "filename"}},
			tableTeamMembers: {{"team_id", "user_id"}},
		},
		fail: make(map[string]int),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

// failNext makes the next request to table answer with status.
func (f *fakePostgREST) failNext(table string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[table] = status
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = r

	if r.Header.Get("apikey") != f.key || r.Header.Get("Authorization") != "Bearer "+f.key {
		writeError(w, http.StatusUnauthorized, "PGRST301", "invalid api key")
		return
	}
	table, ok := strings.CutPrefix(r.URL.Path, "/rest/v1/")
	if !ok || table == "" {
		writeError(w, http.StatusNotFound, "PGRST125", "unknown path")
		return
	}
	if status, ok := f.fail[table]; ok {
		delete(f.fail, table)
		writeError(w, status, "XX000", "injected failure")
		return
	}

	q := r.URL.Query()
	match, err := parseFilters(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "PGRST100", err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		rows := f.filter(table, match)
		if err := sortRows(rows, q.Get("order")); err != nil {
			writeError(w, http.StatusBadRequest, "PGRST100", err.Error())
			return
		}
		rows = paginate(rows, q.Get("limit"), q.Get("offset"))
		writeJSON(w, http.StatusOK, project(rows, q.Get("select")))

	case http.MethodHead:
		n := len(f.filter(table, match))
		if strings.Contains(r.Header.Get("Prefer"), "count=exact") {
			if n == 0 {
				w.Header().Set("Content-Range", "*/0")
			} else {
				w.Header().Set("Content-Range", fmt.Sprintf("0-%d/%d", n-1, n))
			}
		}
		w.WriteHeader(http.StatusOK)

	case http.MethodPost:
		var in row
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "PGRST102", err.Error())
			return
		}
		if cols, dup := f.violates(table, in); dup {
			writeError(w, http.StatusConflict, "23505", "duplicate key value violates unique constraint on "+strings.Join(cols, ","))
			return
		}
		f.nextID[table]++
		in["id"] = float64(f.nextID[table])
		f.tables[table] = append(f.tables[table], in)
		writeJSON(w, http.StatusCreated, []row{copyRow(in)})

	case http.MethodPatch:
		var patch row
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "PGRST102", err.Error())
			return
		}
		if f.beforePatch != nil {
			f.beforePatch(table, f.tables[table])
		}
		var updated []row
		for _, rw := range f.tables[table] {
			if match(rw) {
				for k, v := range patch {
					rw[k] = v
				}
				updated = append(updated, copyRow(rw))
			}
		}
		writeJSON(w, http.StatusOK, project(updated, q.Get("select")))

	case http.MethodDelete:
		var kept, removed []row
		for _, rw := range f.tables[table] {
			if match(rw) {
				removed = append(removed, rw)
			} else {
				kept = append(kept, rw)
			}
		}
		f.tables[table] = kept
		writeJSON(w, http.StatusOK, project(removed, q.Get("select")))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakePostgREST) filter(table string, match func(row) bool) []row {
	var out []row
	for _, rw := range f.tables[table] {
		if match(rw) {
			out = append(out, copyRow(rw))
		}
	}
	return out
}

func (f *fakePostgREST) violates(table string, in row) ([]string, bool) {
	for _, cols := range f.unique[table] {
		for _, existing := range f.tables[table] {
			same := true
			for _, c := range cols {
				if compare(existing[c], in[c]) != 0 {
					same = false
					break
				}
			}
			if same {
				return cols, true
			}
		}
	}
	return nil, false
}

var reservedParams = map[string]bool{"select": true, "order": true, "limit": true, "offset": true}

func parseFilters(q map[string][]string) (func(row) bool, error) {
	type cond struct {
		col, op string
		args    []string
	}
	var conds []cond
	for col, values := range q {
		if reservedParams[col] {
			continue
		}
		for _, v := range values {
			op, arg, ok := strings.Cut(v, ".")
			if !ok {
				return nil, fmt.Errorf("bad filter %s=%s", col, v)
			}
			args := []string{arg}
			if op == "in" {
				args = strings.Split(strings.TrimSuffix(strings.TrimPrefix(arg, "("), ")"), ",")
			}
			conds = append(conds, cond{col: col, op: op, args: args})
		}
	}
	return func(rw row) bool {
		for _, c := range conds {
			val := rw[c.col]
			if val == nil {
				return false
			}
			switch c.op {
			case "eq":
				if compare(val, c.args[0]) != 0 {
					return false
				}
			case "in":
				found := false
				for _, a := range c.args {
					if compare(val, a) == 0 {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			case "lt":
				if compare(val, c.args[0]) >= 0 {
					return false
				}
			case "lte":
				if compare(val, c.args[0]) > 0 {
					return false
				}
			case "gt":
				if compare(val, c.args[0]) <= 0 {
					return false
				}
			case "gte":
				if compare(val, c.args[0]) < 0 {
					return false
				}
			default:
				return false
			}
		}
		return true
	}, nil
}

// compare orders JSON values, accepting filter arguments as strings.
func compare(a, b any) int {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0
		}
		return 2
	}
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	at, aErr := time.Parse(time.RFC3339Nano, as)
	bt, bErr := time.Parse(time.RFC3339Nano, bs)
	if aErr == nil && bErr == nil {
		return at.Compare(bt)
	}
	return strings.Compare(as, bs)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func sortRows(rows []row, order string) error {
	if order == "" {
		return nil
	}
	type key struct {
		col  string
		desc bool
	}
	var keys []key
	for _, part := range strings.Split(order, ",") {
		col, dir, _ := strings.Cut(part, ".")
		if dir != "" && dir != "asc" && dir != "desc" {
			return fmt.Errorf("bad order %q", part)
		}
		keys = append(keys, key{col: col, desc: dir == "desc"})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compare(rows[i][k.col], rows[j][k.col])
			if c == 0 || c == 2 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return nil
}

func paginate(rows []row, limit, offset string) []row {
	if off, err := strconv.Atoi(offset); err == nil && off > 0 {
		if off >= len(rows) {
			return []row{}
		}
		rows = rows[off:]
	}
	if lim, err := strconv.Atoi(limit); err == nil && lim >= 0 && lim < len(rows) {
		rows = rows[:lim]
	}
	return rows
}

func project(rows []row, sel string) []row {
	out := make([]row, 0, len(rows))
	if sel == "" || sel == "*" {
		return append(out, rows...)
	}
	cols := strings.Split(sel, ",")
	for _, rw := range rows {
		p := make(row, len(cols))
		for _, c := range cols {
			if v, ok := rw[c]; ok {
				p[c] = v
			}
		}
		out = append(out, p)
	}
	return out
}

func copyRow(in row) row {
	out := make(row, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}
