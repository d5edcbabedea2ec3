package api

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString(t *testing.T) {
	tests := []struct {
		in   string
		want FlexString
	}{
		{`"abc"`, "abc"},
		{`42`, "42"},
		{`9876543210`, "9876543210"},
		{`12345678901234567890`, "12345678901234567890"},
		{`1.5`, "1.5"},
		{`true`, "true"},
		{`null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f FlexString
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, f)
		})
	}

	var f FlexString
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &f))

	n, err := FlexString(" 42 ").Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestRecordExtraFieldsRoundTrip(t *testing.T) {
	in := `{"architectId":7,"firstName":"Asha","contactNumber":"9876543210","loyaltyTier":"gold","points":12345678901234567}`

	var rec ArchitectRecord
	require.NoError(t, json.Unmarshal([]byte(in), &rec))

	assert.Equal(t, FlexString("7"), rec.ArchitectID)
	assert.Equal(t, "gold", rec.Extra["loyaltyTier"])
	assert.NotContains(t, rec.Extra, "firstName")

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	dec := json.NewDecoder(bytes.NewReader(out))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&decoded))
	assert.Equal(t, "gold", decoded["loyaltyTier"])
	assert.Equal(t, json.Number("12345678901234567"), decoded["points"])
	assert.Equal(t, "7", decoded["architectId"])
}

func TestRecordExtraDoesNotOverrideKnownFields(t *testing.T) {
	rec := SalesRecord{Name: "Ravi", Extra: map[string]any{"name": "shadow", "region": "West"}}

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ravi","contactNumber":"","region":"West"}`, string(out))
}

func TestRecordPageShapes(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantLen   int
		wantTotal *int
	}{
		{name: "bare array", in: `[{"id":1},{"id":2}]`, wantLen: 2},
		{name: "data key", in: `{"data":[{"id":1}],"total":10}`, wantLen: 1, wantTotal: intPtr(10)},
		{name: "userList key", in: `{"userList":[{"id":1},{"id":2},{"id":3}]}`, wantLen: 3},
		{name: "users key", in: `{"users":[{"id":1}],"total":1}`, wantLen: 1, wantTotal: intPtr(1)},
		{name: "no rows", in: `{"total":0}`, wantLen: 0, wantTotal: intPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page RecordPage[UserRecord]
			require.NoError(t, json.Unmarshal([]byte(tt.in), &page))
			assert.Len(t, page.Data, tt.wantLen)
			assert.NotNil(t, page.Data)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

func TestArchitectUpdatePayload(t *testing.T) {
	rec := ArchitectRecord{
		ArchitectID:       "11",
		FirstName:         "Asha",
		ContactNumber:     "9876543210",
		Pincode:           "411001",
		SpocManagerMobile: "9123456780",
	}

	b, err := json.Marshal(rec.updatePayload())
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(b, &body))
	assert.Equal(t, "9876543210", body["mobile"])
	assert.Equal(t, "9123456780", body["spocManagerMobile"])
	assert.Equal(t, "", body["address2"])
	assert.NotContains(t, body, "contactNumber")
	assert.Len(t, body, 19)
}

func TestUserRecordFullName(t *testing.T) {
	assert.Equal(t, "Neha Shah", UserRecord{FirstName: "Neha", LastName: "Shah"}.FullName())
	assert.Equal(t, "Neha", UserRecord{FirstName: "Neha"}.FullName())
	assert.Equal(t, "", UserRecord{}.FullName())
}

func TestResolveRecord(t *testing.T) {
	tests := []struct {
		in        string
		wantFound bool
		want      string
	}{
		{`{"data":[{"a":1},{"a":2}]}`, true, `{"a":1}`},
		{`{"data":{"a":1}}`, true, `{"a":1}`},
		{`[{"a":1}]`, true, `{"a":1}`},
		{`{"a":1}`, true, `{"a":1}`},
		{`{"data":[]}`, false, ""},
		{`{"data":null}`, false, ""},
		{`{}`, false, ""},
		{`[]`, false, ""},
		{`"text"`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			raw := json.RawMessage(tt.in)
			got, found := resolveRecord(&raw)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.JSONEq(t, tt.want, string(got))
			}
		})
	}

	_, found := resolveRecord(nil)
	assert.False(t, found)
}

func TestSequencer(t *testing.T) {
	s := newSequencer()

	a1 := s.next("list:pending")
	a2 := s.next("list:pending")
	b1 := s.next("list:approved")

	assert.Equal(t, uint64(1), a1)
	assert.Equal(t, uint64(2), a2)
	assert.Equal(t, uint64(1), b1)
	assert.True(t, s.stale("list:pending", a1))
	assert.False(t, s.stale("list:pending", a2))
	assert.False(t, s.stale("list:approved", b1))
}

func intPtr(n int) *int { return &n }
