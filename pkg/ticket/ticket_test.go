package ticket

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/otrsclient/pkg/apierrors"
)

func validCreateFields() Fields {
	return Fields{
		"Title":        "Printer on fire",
		"Queue":        "Raw",
		"State":        "new",
		"Priority":     "3 normal",
		"CustomerUser": "jdoe",
		"Service":      "IT",
	}
}

func TestNewArticle_Defaults(t *testing.T) {
	a, err := NewArticle(Fields{"Subject": "s", "Body": "b"})
	require.NoError(t, err)

	f := a.Fields()
	assert.Equal(t, "text/plain", f["MimeType"])
	assert.Equal(t, "text/plain", f["ContentType"])
	assert.Equal(t, "UTF8", f["Charset"])
	assert.Equal(t, "s", a.Subject())
	assert.Equal(t, "b", a.Body())
}

func TestNewArticle_KeepsExplicitContentType(t *testing.T) {
	a, err := NewArticle(Fields{"Subject": "s", "Body": "b", "ContentType": "text/html; charset=utf8", "Charset": "latin1"})
	require.NoError(t, err)

	f := a.Fields()
	assert.NotContains(t, f, "MimeType")
	assert.Equal(t, "text/html; charset=utf8", f["ContentType"])
	assert.Equal(t, "latin1", f["Charset"])
}

func TestNewArticle_RequiresSubjectAndBody(t *testing.T) {
	_, err := NewArticle(Fields{"Subject": "s"})
	assert.ErrorIs(t, err, apierrors.ErrArgumentMissing)

	_, err = NewArticle(Fields{"Body": "b"})
	assert.ErrorIs(t, err, apierrors.ErrArgumentMissing)
}

func TestArticle_DynamicFieldsSeparated(t *testing.T) {
	a, err := NewArticle(Fields{"Subject": "s", "Body": "b", "DynamicField_Source": "mail"})
	require.NoError(t, err)

	assert.NotContains(t, a.Fields(), "DynamicField_Source")
	assert.Equal(t, "mail", a.Field("DynamicField_Source"))
	assert.Equal(t, []DynamicField{{Name: "Source", Value: "mail"}}, a.DynamicFields(false))

	a.SetField("From", "x@example.com")
	assert.Equal(t, "x@example.com", a.Fields()["From"])
	assert.Contains(t, a.String(), `Subject="s"`)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		drop []string
		add  Fields
		kind apierrors.Kind
	}{
		{name: "no title", drop: []string{"Title"}, kind: apierrors.KindArgumentMissing},
		{name: "no queue", drop: []string{"Queue"}, kind: apierrors.KindArgumentMissing},
		{name: "no state", drop: []string{"State"}, kind: apierrors.KindArgumentMissing},
		{name: "no priority", drop: []string{"Priority"}, kind: apierrors.KindArgumentMissing},
		{name: "no customer", drop: []string{"CustomerUser"}, kind: apierrors.KindArgumentMissing},
		{name: "no service", drop: []string{"Service"}, kind: apierrors.KindArgumentMissing},
		{name: "type and type id", add: Fields{"Type": "Incident", "TypeID": 2}, kind: apierrors.KindArgumentInvalid},
		{name: "queue id instead", drop: []string{"Queue"}, add: Fields{"QueueID": 1}},
		{name: "ids everywhere", drop: []string{"State", "Priority", "Service"}, add: Fields{"StateID": 1, "PriorityID": 3, "ServiceID": 4, "TypeID": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validCreateFields()
			for _, k := range tt.drop {
				delete(f, k)
			}
			for k, v := range tt.add {
				f[k] = v
			}

			tk, err := Create(f)
			if tt.kind == "" {
				require.NoError(t, err)
				assert.NotNil(t, tk)
				return
			}
			assert.True(t, apierrors.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestTicket_DynamicFieldsDisjoint(t *testing.T) {
	tk := New(Fields{"Title": "t", "DynamicField_Zone": "eu", "DynamicField_Empty": ""})

	tk.SetField("DynamicField_Asset", "PC-1")
	tk.SetDynamicField("Budget", 0)
	tk.SetField("Queue", "Raw")

	plain := tk.Map(WireOptions{})
	for k := range plain {
		assert.False(t, IsDynamicFieldKey(k), "plain map leaked %s", k)
	}
	assert.Equal(t, "PC-1", tk.DynamicField("Asset"))
	assert.Equal(t, "eu", tk.Field("DynamicField_Zone"))
	assert.Equal(t, "Raw", tk.Field("Queue"))

	assert.Equal(t, []DynamicField{
		{Name: "Asset", Value: "PC-1"},
		{Name: "Budget", Value: 0},
		{Name: "Empty", Value: ""},
		{Name: "Zone", Value: "eu"},
	}, tk.DynamicFields(false))

	assert.Equal(t, []DynamicField{
		{Name: "Asset", Value: "PC-1"},
		{Name: "Zone", Value: "eu"},
	}, tk.DynamicFields(true))
}

func TestIsEmpty(t *testing.T) {
	for _, v := range []any{nil, "", 0, 0.0, false, json.Number("0"), []any{}, map[string]any{}} {
		assert.True(t, isEmpty(v), "%#v", v)
	}
	for _, v := range []any{"x", 1, true, json.Number("7"), []any{1}, map[string]any{"a": 1}} {
		assert.False(t, isEmpty(v), "%#v", v)
	}
}

func TestTicket_Attachments(t *testing.T) {
	tk := New(nil)

	require.NoError(t, tk.AddAttachment(NewAttachment("a.txt", "text/plain", []byte("hello"))))

	err := tk.AddAttachment(Attachment{ContentType: "text/plain", Filename: "b.txt"})
	assert.ErrorIs(t, err, apierrors.ErrArgumentInvalid)
	err = tk.AddAttachment(Attachment{Content: "eA==", Filename: "b.txt"})
	assert.ErrorIs(t, err, apierrors.ErrArgumentInvalid)
	err = tk.AddAttachment(Attachment{Content: "eA==", ContentType: "text/plain"})
	assert.ErrorIs(t, err, apierrors.ErrArgumentInvalid)

	list := tk.Attachments()
	require.Len(t, list, 1)
	assert.Equal(t, "aGVsbG8=", list[0].Content)

	list[0].Filename = "changed"
	assert.Equal(t, "a.txt", tk.Attachments()[0].Filename, "Attachments must return a copy")

	data, err := list[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = Attachment{Content: "!!", Filename: "x"}.Decode()
	assert.Error(t, err)
}

func TestTicket_SetArticle(t *testing.T) {
	tk := New(nil)
	assert.Nil(t, tk.Article())
	assert.ErrorIs(t, tk.SetArticle(nil), apierrors.ErrArgumentInvalid)

	a, err := NewArticle(Fields{"Subject": "s", "Body": "b"})
	require.NoError(t, err)
	require.NoError(t, tk.SetArticle(a))
	assert.Same(t, a, tk.Article())
}

func TestFromWire(t *testing.T) {
	var rec map[string]any
	dec := json.NewDecoder(strings.NewReader(`{
		"TicketID": 42,
		"TicketNumber": "2024010110000012",
		"Title": "Printer on fire",
		"DynamicField_Zone": "eu",
		"Article": [
			{"Subject": "first", "Body": "help", "ContentType": "text/plain; charset=utf8",
			 "Attachment": [{"Content": "aGVsbG8=", "ContentType": "text/plain", "Filename": "a.txt", "FilesizeRaw": "5"}]},
			{"Subject": "second", "Body": "ignored"}
		]
	}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&rec))

	tk, err := FromWire(rec)
	require.NoError(t, err)

	assert.Equal(t, "42", tk.ID())
	assert.Equal(t, "2024010110000012", tk.Number())
	assert.Equal(t, "Ticket(id=42, number=2024010110000012)", tk.String())
	assert.Equal(t, "eu", tk.DynamicField("Zone"))
	assert.NotContains(t, tk.Map(WireOptions{}), "Article")

	require.NotNil(t, tk.Article())
	assert.Equal(t, "first", tk.Article().Subject())
	assert.NotContains(t, tk.Article().Fields(), "Attachment")

	require.Len(t, tk.Attachments(), 1)
	assert.Equal(t, "a.txt", tk.Attachments()[0].Filename)

	// the input record is left untouched
	assert.Contains(t, rec, "Article")
}

func TestFromWire_NoArticle(t *testing.T) {
	tk, err := FromWire(Fields{"TicketID": "7", "Article": []any{}})
	require.NoError(t, err)
	assert.Nil(t, tk.Article())
	assert.Empty(t, tk.Attachments())
}

func TestFromWire_Malformed(t *testing.T) {
	_, err := FromWire(Fields{"Article": "nope"})
	assert.ErrorIs(t, err, apierrors.ErrProtocolError)

	_, err = FromWire(Fields{"Article": []any{map[string]any{"Body": "no subject"}}})
	assert.ErrorIs(t, err, apierrors.ErrProtocolError)

	_, err = FromWire(Fields{"Article": []any{map[string]any{"Subject": "s", "Body": "b", "Attachment": "x"}}})
	assert.ErrorIs(t, err, apierrors.ErrProtocolError)
}

func TestTicket_Map(t *testing.T) {
	tk, err := Create(validCreateFields())
	require.NoError(t, err)
	tk.SetDynamicField("Zone", "eu")
	a, err := NewArticle(Fields{"Subject": "s", "Body": "b"})
	require.NoError(t, err)
	require.NoError(t, tk.SetArticle(a))
	require.NoError(t, tk.AddAttachment(NewAttachment("a.txt", "text/plain", []byte("x"))))

	plain := tk.Map(WireOptions{})
	assert.NotContains(t, plain, "Article")
	assert.NotContains(t, plain, "Attachment")
	assert.NotContains(t, plain, "DynamicField_Zone")

	full := tk.Map(WireOptions{Article: true, DynamicFields: true, Attachments: true})
	assert.Equal(t, "s", full["Article"].(Fields)["Subject"])
	assert.Equal(t, "eu", full["DynamicField_Zone"])
	assert.Len(t, full["Attachment"], 1)

	// Map returns a copy
	plain["Title"] = "changed"
	assert.Equal(t, "Printer on fire", tk.Field("Title"))

	b, err := json.Marshal(tk)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"DynamicField_Zone":"eu"`)
	assert.Contains(t, string(b), `"Filename":"a.txt"`)
}

func TestZeroValues(t *testing.T) {
	var tk Ticket
	tk.SetField("Title", "x")
	tk.SetField("DynamicField_Zone", "eu")
	tk.SetDynamicField("Asset", "PC-1")
	require.NoError(t, tk.AddAttachment(NewAttachment("a.txt", "text/plain", []byte("hi"))))

	assert.Equal(t, "x", tk.Field("Title"))
	assert.Equal(t, "eu", tk.DynamicField("Zone"))
	assert.Len(t, tk.DynamicFields(true), 2)
	assert.Equal(t, Fields{"Title": "x"}, tk.Map(WireOptions{}))

	var a Article
	a.SetField("Subject", "s")
	a.SetField("DynamicField_Source", "mail")
	assert.Equal(t, "s", a.Subject())
	assert.Equal(t, Fields{"Subject": "s"}, a.Fields())
	assert.Equal(t, []DynamicField{{Name: "Source", Value: "mail"}}, a.DynamicFields(false))
}
