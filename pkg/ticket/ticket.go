package ticket

import (
	"encoding/json"
	"fmt"

	"github.com/goatkit/otrsclient/internal/constants"
	"github.com/goatkit/otrsclient/internal/convert"
	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// Ticket is an OTRS ticket with at most one article and its attachments.
type Ticket struct {
	fields      Fields
	dynamic     Fields
	article     *Article
	attachments []Attachment
}

// WireOptions selects what Map includes beyond the schema fields.
type WireOptions struct {
	Article       bool
	DynamicFields bool
	Attachments   bool
}

// New builds a ticket from any record without validation.
func New(fields Fields) *Ticket {
	t := &Ticket{}
	t.fields, t.dynamic = splitDynamic(fields)
	return t
}

// Create builds a ticket for TicketCreate, checking the fields the service
// requires.
func Create(fields Fields) (*Ticket, error) {
	missing := func(msg string) error {
		return apierrors.New(apierrors.KindArgumentMissing, "%s", msg)
	}
	switch {
	case !fields.Has("Title"):
		return nil, missing("Title required")
	case !fields.Has("Queue") && !fields.Has("QueueID"):
		return nil, missing("either Queue or QueueID required")
	case !fields.Has("State") && !fields.Has("StateID"):
		return nil, missing("either State or StateID required")
	case !fields.Has("Priority") && !fields.Has("PriorityID"):
		return nil, missing("either Priority or PriorityID required")
	case !fields.Has("CustomerUser"):
		return nil, missing("CustomerUser required")
	case fields.Has("Type") && fields.Has("TypeID"):
		return nil, apierrors.New(apierrors.KindArgumentInvalid, "either Type or TypeID, not both")
	case !fields.Has("Service") && !fields.Has("ServiceID"):
		return nil, missing("either Service or ServiceID required")
	}
	return New(fields), nil
}

// FromWire builds a ticket from a TicketGet record. The first entry of
// Article becomes the ticket article and its Attachment list the ticket
// attachments.
func FromWire(fields Fields) (*Ticket, error) {
	fields = fields.Clone()
	raw, hasArticle := fields["Article"]
	delete(fields, "Article")

	t := New(fields)
	if !hasArticle || isEmpty(raw) {
		return t, nil
	}

	first, err := firstArticle(raw)
	if err != nil {
		return nil, err
	}
	if list, ok := first["Attachment"]; ok {
		delete(first, "Attachment")
		items, ok := list.([]any)
		if !ok && list != nil {
			return nil, apierrors.New(apierrors.KindProtocolError, "Attachment is %T, want array", list)
		}
		for _, item := range items {
			a, err := attachmentFromWire(item)
			if err != nil {
				return nil, err
			}
			t.attachments = append(t.attachments, a)
		}
	}

	article, err := NewArticle(first)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindProtocolError, err, "ticket %s article", t.ID())
	}
	t.article = article
	return t, nil
}

func firstArticle(raw any) (Fields, error) {
	switch v := raw.(type) {
	case []any:
		m, ok := v[0].(map[string]any)
		if !ok {
			return nil, apierrors.New(apierrors.KindProtocolError, "Article[0] is %T, want object", v[0])
		}
		return Fields(m).Clone(), nil
	case map[string]any:
		return Fields(v).Clone(), nil
	case Fields:
		return v.Clone(), nil
	}
	return nil, apierrors.New(apierrors.KindProtocolError, "Article is %T, want array", raw)
}

// ID returns TicketID, or "" for tickets not yet created.
func (t *Ticket) ID() string { return convert.String(t.fields["TicketID"]) }

// Number returns TicketNumber.
func (t *Ticket) Number() string { return convert.String(t.fields["TicketNumber"]) }

// Field returns a schema or dynamic field.
func (t *Ticket) Field(name string) any {
	if IsDynamicFieldKey(name) {
		return t.dynamic[name]
	}
	return t.fields[name]
}

// SetField sets a field; prefixed names go to the dynamic fields.
func (t *Ticket) SetField(name string, value any) {
	if IsDynamicFieldKey(name) {
		t.SetDynamicField(name[len(constants.DynamicFieldPrefix):], value)
		return
	}
	if t.fields == nil {
		t.fields = Fields{}
	}
	t.fields[name] = value
}

// SetDynamicField sets the dynamic field name, given without prefix.
func (t *Ticket) SetDynamicField(name string, value any) {
	if t.dynamic == nil {
		t.dynamic = Fields{}
	}
	t.dynamic[constants.DynamicFieldPrefix+name] = value
}

// DynamicField returns the dynamic field name, given without prefix.
func (t *Ticket) DynamicField(name string) any {
	return t.dynamic[constants.DynamicFieldPrefix+name]
}

// DynamicFields returns the dynamic fields as {Name, Value} pairs sorted by
// name. With notNull, empty values are left out.
func (t *Ticket) DynamicFields(notNull bool) []DynamicField {
	return dynamicFieldList(t.dynamic, notNull)
}

// Article returns the ticket article, or nil.
func (t *Ticket) Article() *Article { return t.article }

// SetArticle replaces the ticket article.
func (t *Ticket) SetArticle(a *Article) error {
	if a == nil {
		return apierrors.New(apierrors.KindArgumentInvalid, "article is nil")
	}
	t.article = a
	return nil
}

// AddAttachment appends a validated attachment.
func (t *Ticket) AddAttachment(a Attachment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	t.attachments = append(t.attachments, a)
	return nil
}

// Attachments returns a copy of the attachment list.
func (t *Ticket) Attachments() []Attachment {
	out := make([]Attachment, len(t.attachments))
	copy(out, t.attachments)
	return out
}

// Map renders the ticket in wire form.
func (t *Ticket) Map(opts WireOptions) Fields {
	out := t.fields.Clone()
	if opts.Article && t.article != nil {
		out["Article"] = t.article.Fields()
	}
	if opts.DynamicFields {
		for k, v := range t.dynamic {
			out[k] = v
		}
	}
	if opts.Attachments {
		list := make([]map[string]any, 0, len(t.attachments))
		for _, a := range t.attachments {
			list = append(list, a.Map())
		}
		out["Attachment"] = list
	}
	return out
}

// MarshalJSON renders everything the ticket holds.
func (t *Ticket) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map(WireOptions{Article: true, DynamicFields: true, Attachments: true}))
}

func (t *Ticket) String() string {
	return fmt.Sprintf("Ticket(id=%s, number=%s)", t.ID(), t.Number())
}
