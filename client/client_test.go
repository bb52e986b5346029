package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient points a client with a stored token at a test server.
func newTestClient(srv *httptest.Server, token, db string) *Client {
	return New(Config{
		BaseURL:  srv.URL + "/ws/",
		FileURL:  srv.URL + "/_sync/",
		Token:    token,
		Database: db,
	})
}

func okEnvelope(payload map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"error": false}
		for k, v := range payload {
			body[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestLogin_PasswordFlow(t *testing.T) {
	var capturedQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query()
		okEnvelope(map[string]any{
			"user": map[string]any{"id": "u1", "email": "a@b.com", "token": "tok123"},
		})(w, r)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/ws/", Username: "a@b.com", Password: "pw"})
	if err := c.Login(context.Background(), Scope{}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if got := capturedQuery["action"]; len(got) != 1 || got[0] != "user_login" {
		t.Errorf("action = %v", got)
	}
	if got := capturedQuery["email"]; len(got) != 1 || got[0] != "a@b.com" {
		t.Errorf("email = %v", got)
	}
	if c.Token() != "tok123" {
		t.Errorf("token = %q, want tok123", c.Token())
	}
	if c.UserID() != "u1" {
		t.Errorf("userID = %q, want u1", c.UserID())
	}
	if c.UserEmail() != "a@b.com" {
		t.Errorf("userEmail = %q", c.UserEmail())
	}
}

func TestLogin_ExistingTokenIsKept(t *testing.T) {
	server := httptest.NewServer(okEnvelope(map[string]any{
		"user": map[string]any{"id": "u1", "email": "a@b.com", "token": "issued-token"},
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/ws/", Token: "stored-token"})
	if err := c.Login(context.Background(), Scope{}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if c.Token() != "stored-token" {
		t.Errorf("token = %q, want stored-token", c.Token())
	}
}

func TestNoToken_NoRequest(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/ws/"})
	_, err := c.TableList(context.Background(), Scope{})

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
	if requests != 0 {
		t.Errorf("request was issued despite missing token")
	}
	if !errors.As(c.LastError(), &authErr) {
		t.Errorf("LastError = %v, want *AuthError", c.LastError())
	}
}

func TestTableList_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":         true,
			"error_code":    "E2",
			"error_message": "bad db",
		})
	}))
	defer server.Close()

	c := newTestClient(server, "tok", "mydb")
	tables, err := c.TableList(context.Background(), Scope{})
	if tables != nil {
		t.Errorf("tables = %v, want nil on failure", tables)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Code != "E2" || apiErr.Message != "bad db" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestTableList_Success(t *testing.T) {
	var capturedQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query()
		okEnvelope(map[string]any{
			"tables": []map[string]any{{"tablename": "customers"}},
		})(w, r)
	}))
	defer server.Close()

	c := newTestClient(server, "tok", "mydb")
	tables, err := c.TableList(context.Background(), Scope{})
	if err != nil {
		t.Fatalf("table_list failed: %v", err)
	}
	if len(tables) != 1 || tables[0]["tablename"] != "customers" {
		t.Errorf("tables = %v", tables)
	}
	if got := capturedQuery["db"]; len(got) != 1 || got[0] != "mydb" {
		t.Errorf("db = %v", got)
	}
	if got := capturedQuery["token"]; len(got) != 1 || got[0] != "tok" {
		t.Errorf("token = %v", got)
	}
	if c.LastError() != nil {
		t.Errorf("LastError = %v after success", c.LastError())
	}
}

func TestScopeOverride_RebindsSession(t *testing.T) {
	server := httptest.NewServer(okEnvelope(map[string]any{"tables": []map[string]any{}}))
	defer server.Close()

	c := newTestClient(server, "tok-a", "db-a")
	if _, err := c.TableList(context.Background(), Scope{Token: "tok-b", Database: "db-b"}); err != nil {
		t.Fatalf("table_list failed: %v", err)
	}

	// The override persists past the call.
	if c.Token() != "tok-b" {
		t.Errorf("token = %q, want tok-b", c.Token())
	}
	if c.Database() != "db-b" {
		t.Errorf("database = %q, want db-b", c.Database())
	}
}

func TestSaveRecord_MissingGGUID(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	c := newTestClient(server, "tok", "mydb")

	for name, rec := range map[string]Record{
		"empty gguid":   {"gguid": "", "name": "x"},
		"nil gguid":     {"gguid": nil, "name": "x"},
		"missing gguid": {"name": "x"},
	} {
		_, err := c.SaveRecord(context.Background(), "customers", rec, SaveOptions{IsNew: true}, Scope{})
		var valErr *ValidationError
		if !errors.As(err, &valErr) {
			t.Errorf("%s: err = %v, want *ValidationError", name, err)
		}
		if !errors.As(c.LastError(), &valErr) {
			t.Errorf("%s: LastError = %v, want *ValidationError", name, c.LastError())
		}
	}
	if requests != 0 {
		t.Errorf("network request issued for invalid record")
	}
}

func TestSaveRecord_Payload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		okEnvelope(map[string]any{"gguid": "g1"})(w, r)
	}))
	defer server.Close()

	c := newTestClient(server, "tok", "mydb")
	out, err := c.SaveRecord(context.Background(), "customers",
		Record{"gguid": "g1", "name": "Ada"}, SaveOptions{IsNew: true}, Scope{})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if out["gguid"] != "g1" {
		t.Errorf("envelope gguid = %v", out["gguid"])
	}

	if captured["is_new"] != true {
		t.Errorf("is_new = %v, want true", captured["is_new"])
	}
	if captured["delete"] != false {
		t.Errorf("delete = %v, want false", captured["delete"])
	}
	values, _ := captured["values"].(map[string]any)
	if values["name"] != "Ada" {
		t.Errorf("values = %v", values)
	}
}

func TestSaveRecords_RejectsRowWithoutGGUID(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	c := newTestClient(server, "tok", "mydb")
	_, err := c.SaveRecords(context.Background(), "customers", []Record{
		{"gguid": "g1"},
		{"name": "no id"},
	}, Scope{})

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if requests != 0 {
		t.Errorf("network request issued for invalid batch")
	}
}

func TestFindRecords_OrderInfoSerialization(t *testing.T) {
	var captured []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		okEnvelope(map[string]any{"records": []map[string]any{}})(w, r)
	}))
	defer server.Close()

	c := newTestClient(server, "tok", "mydb")
	_, err := c.FindRecords(context.Background(), "orders", FindQuery{
		OrderBy: []OrderField{
			{Field: "created_at", Ascending: true},
			{Field: "total", Ascending: false},
		},
	}, Scope{})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}

	var body struct {
		OrderInfo []json.RawMessage `json:"order_info"`
	}
	if err := json.Unmarshal(captured, &body); err != nil {
		t.Fatalf("bad request body: %v", err)
	}
	if len(body.OrderInfo) != 2 {
		t.Fatalf("order_info = %s", captured)
	}
	if string(body.OrderInfo[0]) != `["created_at",true]` {
		t.Errorf("first sort key = %s", body.OrderInfo[0])
	}
	if string(body.OrderInfo[1]) != `["total",false]` {
		t.Errorf("second sort key = %s", body.OrderInfo[1])
	}
}

func TestFuzzyRecords_DefaultThreshold(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		okEnvelope(map[string]any{"results": []map[string]any{}})(w, r)
	}))
	defer server.Close()

	c := newTestClient(server, "tok", "mydb")
	_, err := c.FuzzyRecords(context.Background(), "customers", FuzzyQuery{
		SearchFields: []string{"name"},
		ReturnFields: []string{"gguid", "name"},
		Query:        "ada",
	}, Scope{})
	if err != nil {
		t.Fatalf("fuzzy failed: %v", err)
	}

	fuzzy, _ := captured["fuzzy"].(map[string]any)
	if fuzzy["threshold"] != 0.5 {
		t.Errorf("threshold = %v, want 0.5", fuzzy["threshold"])
	}
	if fuzzy["query"] != "ada" {
		t.Errorf("query = %v", fuzzy["query"])
	}
}

func TestTransportError_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(server, "tok", "mydb")
	_, err := c.DatabaseList(context.Background(), Scope{})

	var trErr *TransportError
	if !errors.As(err, &trErr) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if trErr.Status != http.StatusBadGateway {
		t.Errorf("status = %d", trErr.Status)
	}
}

func TestTransportError_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // immediately, so the port refuses connections

	c := newTestClient(server, "tok", "mydb")
	_, err := c.Sync(context.Background(), Scope{})

	var trErr *TransportError
	if !errors.As(err, &trErr) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
}

func TestDeleteRecord_RequiresGGUID(t *testing.T) {
	server := httptest.NewServer(okEnvelope(nil))
	defer server.Close()

	c := newTestClient(server, "tok", "mydb")
	_, err := c.DeleteRecord(context.Background(), "customers", "", Scope{})

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}
