package mocknios

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if token := q.Get("token"); token != "" {
		u, ok := s.verifyToken(token)
		if !ok {
			writeErr(w, "L1", "invalid token")
			return
		}
		writeOK(w, map[string]any{
			"user": map[string]any{"id": u.ID, "email": u.Email, "token": token},
		})
		return
	}

	s.mu.Lock()
	u, ok := s.users[q.Get("email")]
	s.mu.Unlock()
	if !ok || u.Password != q.Get("password") {
		writeErr(w, "L2", "invalid credentials")
		return
	}
	token, err := s.issueToken(u)
	if err != nil {
		writeErr(w, "L3", "token issue failed")
		return
	}
	writeOK(w, map[string]any{
		"user": map[string]any{"id": u.ID, "email": u.Email, "token": token},
	})
}

func (s *Server) handleDatabaseList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	dbs := make([]map[string]any, 0, len(s.databases))
	for name := range s.databases {
		dbs = append(dbs, map[string]any{"dbname": name})
	}
	s.mu.Unlock()

	sort.Slice(dbs, func(i, j int) bool {
		return dbs[i]["dbname"].(string) < dbs[j]["dbname"].(string)
	})
	writeOK(w, map[string]any{"db": dbs})
}

// database resolves the db query parameter under lock.
func (s *Server) database(r *http.Request) (*Database, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.databases[r.URL.Query().Get("db")]
	return db, ok
}

// table resolves db plus tablename query parameters under lock.
func (s *Server) table(r *http.Request) (*Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.databases[r.URL.Query().Get("db")]
	if !ok {
		return nil, false
	}
	t, ok := db.Tables[r.URL.Query().Get("tablename")]
	return t, ok
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	db, ok := s.database(r)
	if !ok {
		writeErr(w, "D1", "unknown database")
		return
	}
	users := db.Users
	if users == nil {
		users = []map[string]any{}
	}
	writeOK(w, map[string]any{"users": users})
}

func (s *Server) handleTableList(w http.ResponseWriter, r *http.Request) {
	db, ok := s.database(r)
	if !ok {
		writeErr(w, "D1", "unknown database")
		return
	}
	s.mu.Lock()
	tables := make([]map[string]any, 0, len(db.Tables))
	for _, t := range db.Tables {
		tables = append(tables, t.Info)
	}
	s.mu.Unlock()
	writeOK(w, map[string]any{"tables": tables})
}

func (s *Server) handleTableInfo(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(r)
	if !ok {
		writeErr(w, "T1", "unknown table")
		return
	}
	fields := t.Fields
	if fields == nil {
		fields = []map[string]any{}
	}
	writeOK(w, map[string]any{"table": t.Info, "fields": fields})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(r)
	if !ok {
		writeErr(w, "T1", "unknown table")
		return
	}
	records := []map[string]any{}
	s.mu.Lock()
	if rec, ok := t.Records[r.URL.Query().Get("gguid")]; ok {
		records = append(records, rec)
	}
	s.mu.Unlock()
	writeOK(w, map[string]any{"records": records})
}

// findBody is the POST body of the model action.
type findBody struct {
	Search *struct {
		Fields []string `json:"fields"`
		Query  string   `json:"query"`
	} `json:"search"`
	SearchBy   map[string]any    `json:"search_by"`
	Conditions map[string]any    `json:"conditions"`
	OrderInfo  []json.RawMessage `json:"order_info"`
	UTA        string            `json:"uta"`
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(r)
	if !ok {
		writeErr(w, "T1", "unknown table")
		return
	}
	var body findBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, "Q1", "bad request body")
		return
	}

	s.mu.Lock()
	records := make([]map[string]any, 0, len(t.Records))
	for _, rec := range t.Records {
		if !matchesScope(rec, body.UTA) {
			continue
		}
		if body.Search != nil && !matchesLike(rec, body.Search.Fields, body.Search.Query) {
			continue
		}
		if !matchesSearchBy(rec, body.SearchBy) {
			continue
		}
		if !matchesConditions(rec, body.Conditions) {
			continue
		}
		records = append(records, rec)
	}
	s.mu.Unlock()

	sortRecords(records, body.OrderInfo)
	writeOK(w, map[string]any{"records": records})
}

// fuzzyBody is the POST body of the model_fuzzy action.
type fuzzyBody struct {
	Fields []string `json:"fields"`
	Fuzzy  struct {
		Fields    []string `json:"fields"`
		Query     string   `json:"query"`
		Threshold float64  `json:"threshold"`
	} `json:"fuzzy"`
	SearchBy   map[string]any `json:"search_by"`
	Conditions map[string]any `json:"conditions"`
	UTA        string         `json:"uta"`
}

func (s *Server) handleFuzzy(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(r)
	if !ok {
		writeErr(w, "T1", "unknown table")
		return
	}
	var body fuzzyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, "Q1", "bad request body")
		return
	}

	s.mu.Lock()
	results := []map[string]any{}
	for _, rec := range t.Records {
		if !matchesScope(rec, body.UTA) || !matchesSearchBy(rec, body.SearchBy) || !matchesConditions(rec, body.Conditions) {
			continue
		}
		score := fuzzyScore(rec, body.Fuzzy.Fields, body.Fuzzy.Query)
		if score < body.Fuzzy.Threshold {
			continue
		}
		row := map[string]any{"score": score}
		for _, f := range body.Fields {
			row[f] = rec[f]
		}
		results = append(results, row)
	}
	s.mu.Unlock()

	writeOK(w, map[string]any{"results": results})
}

// saveBody is the POST body of the detail_save action.
type saveBody struct {
	IsNew  bool           `json:"is_new"`
	Values map[string]any `json:"values"`
	Delete bool           `json:"delete"`
}

func (s *Server) handleDetailSave(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(r)
	if !ok {
		writeErr(w, "T1", "unknown table")
		return
	}
	var body saveBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, "Q1", "bad request body")
		return
	}
	gguid, _ := body.Values["gguid"].(string)
	if gguid == "" {
		writeErr(w, "S1", "record gguid is not defined")
		return
	}

	s.mu.Lock()
	if body.Delete {
		delete(t.Records, gguid)
	} else {
		t.Records[gguid] = body.Values
	}
	s.mu.Unlock()

	writeOK(w, map[string]any{"gguid": gguid})
}

func (s *Server) handleTableSave(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(r)
	if !ok {
		writeErr(w, "T1", "unknown table")
		return
	}
	var body struct {
		Rows []map[string]any `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, "Q1", "bad request body")
		return
	}

	s.mu.Lock()
	for _, row := range body.Rows {
		gguid, _ := row["gguid"].(string)
		if gguid == "" {
			s.mu.Unlock()
			writeErr(w, "S1", "record gguid is not defined")
			return
		}
		t.Records[gguid] = row
	}
	s.mu.Unlock()

	writeOK(w, map[string]any{"saved": len(body.Rows)})
}

func (s *Server) handleDetailDelete(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(r)
	if !ok {
		writeErr(w, "T1", "unknown table")
		return
	}
	var body struct {
		TableName string `json:"tablename"`
		GGuid     string `json:"gguid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.GGuid == "" {
		writeErr(w, "Q1", "bad request body")
		return
	}

	q := r.URL.Query()
	s.mu.Lock()
	delete(t.Records, body.GGuid)
	delete(s.files, fileKey(q.Get("db"), q.Get("tablename"), body.GGuid))
	s.mu.Unlock()

	writeOK(w, map[string]any{"deleted": body.GGuid})
}

func (s *Server) handleDetailResolve(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(r)
	if !ok {
		writeErr(w, "T1", "unknown table")
		return
	}
	var body struct {
		TableName string `json:"tablename"`
		GGuid     string `json:"gguid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.GGuid == "" {
		writeErr(w, "Q1", "bad request body")
		return
	}

	s.mu.Lock()
	_, exists := t.Records[body.GGuid]
	s.mu.Unlock()
	if !exists {
		writeErr(w, "R1", "unknown record")
		return
	}
	writeOK(w, map[string]any{"resolved": body.GGuid})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.database(r); !ok {
		writeErr(w, "D1", "unknown database")
		return
	}

	s.mu.Lock()
	remaining := s.partialRemaining
	total := s.partialTotal
	if remaining > 0 {
		s.partialRemaining--
	}
	s.mu.Unlock()

	if remaining > 0 {
		writeOK(w, map[string]any{
			"partial":       true,
			"partial_from":  total - remaining,
			"partial_total": total,
		})
		return
	}
	writeOK(w, map[string]any{"partial": false})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gguid := q.Get("gguid")
	if gguid == "" {
		writeJSON(w, map[string]any{"result": "KO", "error_code": "F1", "error_message": "gguid missing"})
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, map[string]any{"result": "KO", "error_code": "F2", "error_message": "read failed"})
		return
	}

	s.mu.Lock()
	s.files[fileKey(q.Get("db"), q.Get("tablename"), gguid)] = data
	s.mu.Unlock()

	writeJSON(w, map[string]any{"result": "OK", "type": q.Get("type"), "size": len(data)})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	data, ok := s.files[fileKey(q.Get("db"), q.Get("tablename"), q.Get("gguid"))]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

// matchesScope applies the uta user-scope filter: a record with a
// non-empty uta field is visible only to that user id.
func matchesScope(rec map[string]any, uta string) bool {
	if uta == "" {
		return true
	}
	owner, _ := rec["uta"].(string)
	return owner == "" || owner == uta
}

func matchesLike(rec map[string]any, fields []string, query string) bool {
	q := strings.ToLower(query)
	for _, f := range fields {
		if v, ok := rec[f].(string); ok && strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func matchesSearchBy(rec map[string]any, filters map[string]any) bool {
	for f, want := range filters {
		s, _ := want.(string)
		v, ok := rec[f].(string)
		if !ok || !strings.Contains(strings.ToLower(v), strings.ToLower(s)) {
			return false
		}
	}
	return true
}

func matchesConditions(rec map[string]any, conds map[string]any) bool {
	for f, want := range conds {
		// A list condition is an IN filter.
		if list, ok := want.([]any); ok {
			found := false
			for _, item := range list {
				if rec[f] == item {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}
		if rec[f] != want {
			return false
		}
	}
	return true
}

// sortRecords applies order_info pairs (["field", ascending]) in priority
// order, preserving the array order of the sort keys.
func sortRecords(records []map[string]any, orderInfo []json.RawMessage) {
	type key struct {
		field string
		asc   bool
	}
	keys := make([]key, 0, len(orderInfo))
	for _, raw := range orderInfo {
		var pair [2]json.RawMessage
		if json.Unmarshal(raw, &pair) != nil {
			continue
		}
		var k key
		if json.Unmarshal(pair[0], &k.field) != nil {
			continue
		}
		_ = json.Unmarshal(pair[1], &k.asc)
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(records, func(i, j int) bool {
		for _, k := range keys {
			a := stringValue(records[i][k.field])
			b := stringValue(records[j][k.field])
			if a == b {
				continue
			}
			if k.asc {
				return a < b
			}
			return a > b
		}
		return false
	})
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// fuzzyScore is a crude stand-in for the service's fuzzy matcher: exact
// matches score 1.0, prefixes 0.8, substrings 0.6.
func fuzzyScore(rec map[string]any, fields []string, query string) float64 {
	q := strings.ToLower(query)
	best := 0.0
	for _, f := range fields {
		v, ok := rec[f].(string)
		if !ok {
			continue
		}
		lv := strings.ToLower(v)
		switch {
		case lv == q:
			return 1.0
		case strings.HasPrefix(lv, q):
			if best < 0.8 {
				best = 0.8
			}
		case strings.Contains(lv, q):
			if best < 0.6 {
				best = 0.6
			}
		}
	}
	return best
}
