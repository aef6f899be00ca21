package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

type stubCompleter struct {
	reply  string
	err    error
	prompt string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

type blockingCompleter struct{}

func (blockingCompleter) Complete(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestBuildPrompt_EmbedsFullText(t *testing.T) {
	text := strings.Repeat("revenue line {x}\n", 2000)

	p := BuildPrompt(text)

	assert.Contains(t, p, text)
	for _, k := range []string{`"company_name"`, `"report_date"`, `"profit_before_tax"`, `"additional_details"`} {
		assert.Contains(t, p, k)
	}
	assert.Contains(t, p, "Return ONLY valid JSON")
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"surrounded", "Sure! {\"a\":1} hope this helps", `{"a":1}`, true},
		{"nested", `x {"a":{"b":{}}} y`, `{"a":{"b":{}}}`, true},
		{"trailing braces ignored", `{"a":1} and also {oops}`, `{"a":1}`, true},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`, true},
		{"escaped quote", `{"a":"say \"}\" now"} tail`, `{"a":"say \"}\" now"}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"none", "no json here", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstJSONObject(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRecordJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "synonyms and coercion",
			in:   `{"company_name":"Acme","date":" 2024 ","pbt":12.5,"details":{"eps":"3"}}`,
			want: `{"company_name":"Acme","report_date":"2024","profit_before_tax":"12.5","additional_details":{"eps":"3"}}`,
		},
		{
			name: "company synonyms are not renamed",
			in:   `{"company":"Acme","companyName":"Acme","issuer":"Acme","report_date":"x"}`,
			want: `{"report_date":"x","additional_details":{}}`,
		},
		{
			name: "nulls dropped and details forced to object",
			in:   `{"company_name":null,"report_date":"x","additional_details":"none"}`,
			want: `{"report_date":"x","additional_details":{}}`,
		},
		{
			name: "unknown keys dropped, empty string kept",
			in:   `{"company_name":"","revenue":"10","additional_details":null}`,
			want: `{"company_name":"","additional_details":{}}`,
		},
		{
			name: "whitespace company kept untrimmed",
			in:   `{"company_name":"  Acme  "}`,
			want: `{"company_name":"  Acme  ","additional_details":{}}`,
		},
		{
			name: "falsy company values dropped",
			in:   `{"company_name":false,"report_date":"x"}`,
			want: `{"report_date":"x","additional_details":{}}`,
		},
		{
			name: "zero company dropped",
			in:   `{"company_name":0}`,
			want: `{"additional_details":{}}`,
		},
		{
			name: "empty list company dropped",
			in:   `{"company_name":[]}`,
			want: `{"additional_details":{}}`,
		},
		{
			name: "truthy non-string company rendered as text",
			in:   `{"company_name":["Acme"]}`,
			want: `{"company_name":"[\"Acme\"]","additional_details":{}}`,
		},
		{
			name: "truthy number company rendered as text",
			in:   `{"company_name":42}`,
			want: `{"company_name":"42","additional_details":{}}`,
		},
		{
			name: "boolean profit dropped",
			in:   `{"company_name":"A","profit_before_tax":true}`,
			want: `{"company_name":"A","additional_details":{}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := NormalizeRecordJSON([]byte(tt.in), nil)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestNormalizeRecordJSON_Rejects(t *testing.T) {
	_, _, err := NormalizeRecordJSON([]byte(`[1,2]`), nil)
	assert.ErrorIs(t, err, ErrNotObject)

	_, _, err = NormalizeRecordJSON([]byte(`null`), nil)
	assert.ErrorIs(t, err, ErrNotObject)

	_, _, err = NormalizeRecordJSON([]byte(`{"a":`), nil)
	assert.Error(t, err)
}

func TestValidateRecordJSON(t *testing.T) {
	ok := `{"company_name":"A","report_date":"B","profit_before_tax":"C","additional_details":{}}`
	assert.NoError(t, ValidateRecordJSON([]byte(ok)))

	assert.Error(t, ValidateRecordJSON([]byte(`{"company_name":"A","additional_details":{}}`)))
	assert.Error(t, ValidateJSONAgainstSchema(BuildRecordJSONSchema(), []byte(`{"company_name":1}`)))
}

func TestSemanticExtractor_Extract(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantNil bool
		want    entity.Record
	}{
		{
			name:  "json with commentary",
			reply: "Here you go:\n{\"company_name\":\"Acme Ltd\",\"report_date\":\"2024-03-31\",\"profit_before_tax\":\"₹10 Crores\",\"additional_details\":{\"eps\":\"4.2\"}}\nThanks {:)}",
			want: entity.Record{
				CompanyName:       entity.Str("Acme Ltd"),
				ReportDate:        entity.Str("2024-03-31"),
				ProfitBeforeTax:   entity.Str("₹10 Crores"),
				AdditionalDetails: map[string]any{"eps": "4.2"},
			},
		},
		{
			name:  "missing fields stay absent",
			reply: `{"company_name":"Acme","extra":"dropped"}`,
			want: entity.Record{
				CompanyName:       entity.Str("Acme"),
				AdditionalDetails: map[string]any{},
			},
		},
		{
			name:  "empty company kept for gate",
			reply: `{"company_name":""}`,
			want: entity.Record{
				CompanyName:       entity.Str(""),
				AdditionalDetails: map[string]any{},
			},
		},
		{name: "no json", reply: "I could not find anything.", wantNil: true},
		{name: "invalid json", reply: "{company_name: Acme}", wantNil: true},
		{name: "unbalanced", reply: `{"company_name":"Acme"`, wantNil: true},
		{name: "empty reply", reply: "", wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{reply: tt.reply}
			e := NewSemanticExtractor(stub, time.Second, nil)

			rec, err := e.Extract(context.Background(), "report body")

			require.NoError(t, err)
			assert.Contains(t, stub.prompt, "report body")
			if tt.wantNil {
				assert.Nil(t, rec)
				return
			}
			require.NotNil(t, rec)
			assert.Equal(t, tt.want, *rec)
		})
	}
}

func TestSemanticExtractor_TransportError(t *testing.T) {
	e := NewSemanticExtractor(&stubCompleter{err: errors.New("connection refused")}, time.Second, nil)

	rec, err := e.Extract(context.Background(), "text")

	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSemanticExtractor_Timeout(t *testing.T) {
	e := NewSemanticExtractor(blockingCompleter{}, 20*time.Millisecond, nil)

	rec, err := e.Extract(context.Background(), "text")

	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["fail"] == true {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	raw, status, err := SendJSON(context.Background(), srv.Client(), srv.URL, map[string]any{"fail": false}, map[string]string{"X-Test": "yes"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	_, status, err = SendJSON(context.Background(), srv.Client(), srv.URL, map[string]any{"fail": true}, map[string]string{"X-Test": "yes"}, nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "upstream down")
}
