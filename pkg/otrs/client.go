// Package otrs is the public client for OTRS ticket operations over the
// GenericInterface REST webservice.
//
//	client, err := otrs.New(connection.Config{
//		URL:       "https://otrs.example.com",
//		Login:     "agent",
//		Password:  "secret",
//		Interface: "GenericTicketConnectorREST",
//	})
//	ids, err := client.TicketSearch(ctx, url.Values{"Title": {"%printer%"}})
package otrs

import (
	"context"
	"net/url"

	"github.com/goatkit/otrsclient/internal/convert"
	"github.com/goatkit/otrsclient/pkg/apierrors"
	"github.com/goatkit/otrsclient/pkg/connection"
	"github.com/goatkit/otrsclient/pkg/ticket"
)

const (
	searchTemplate = "Ticket?SessionID={SessionID}&{params}"
	getTemplate    = "Ticket/{TicketID}?SessionID={SessionID}&{params}"
	createTemplate = "Ticket?SessionID={SessionID}"
	updateTemplate = "Ticket/{TicketID}?SessionID={SessionID}"
)

// Client wraps a Connection with ticket operations.
type Client struct {
	conn *connection.Connection
}

// New builds a Client with its own Connection.
func New(cfg connection.Config, opts ...connection.Option) (*Client, error) {
	conn, err := connection.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithConnection(conn), nil
}

// NewWithConnection builds a Client on an existing Connection.
func NewWithConnection(conn *connection.Connection) *Client {
	return &Client{conn: conn}
}

// Connection returns the underlying connection.
func (c *Client) Connection() *connection.Connection { return c.conn }

// GetOptions selects the parts TicketGet asks for.
type GetOptions struct {
	Articles      bool
	DynamicFields bool
	Attachments   bool
}

// FullTicket requests articles, dynamic fields and attachments.
var FullTicket = GetOptions{Articles: true, DynamicFields: true, Attachments: true}

func (o GetOptions) values() url.Values {
	return url.Values{
		"AllArticles":   {flag(o.Articles)},
		"DynamicFields": {flag(o.DynamicFields)},
		"Attachments":   {flag(o.Attachments)},
	}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Result is the reply of TicketCreate and TicketUpdate.
type Result struct {
	TicketID     string         `json:"TicketID" yaml:"TicketID"`
	TicketNumber string         `json:"TicketNumber" yaml:"TicketNumber"`
	ArticleID    string         `json:"ArticleID,omitempty" yaml:"ArticleID,omitempty"`
	Raw          map[string]any `json:"-" yaml:"-"`
}

func newResult(payload map[string]any) *Result {
	return &Result{
		TicketID:     convert.String(payload["TicketID"]),
		TicketNumber: convert.String(payload["TicketNumber"]),
		ArticleID:    convert.String(payload["ArticleID"]),
		Raw:          payload,
	}
}

// TicketSearch returns the ids of the tickets matching query. A reply
// without TicketID means no match.
func (c *Client) TicketSearch(ctx context.Context, query url.Values) ([]string, error) {
	payload, err := c.conn.Send(ctx, connection.Request{
		Method:   connection.MethodGet,
		Template: searchTemplate,
		Params:   map[string]string{"params": query.Encode()},
	})
	if err != nil {
		return nil, err
	}

	return convert.Strings(payload["TicketID"]), nil
}

// TicketGet fetches one ticket.
func (c *Client) TicketGet(ctx context.Context, id string, opts GetOptions) (*ticket.Ticket, error) {
	if id == "" {
		return nil, apierrors.New(apierrors.KindInvalidArgument, "TicketGet: ticket id is empty")
	}

	payload, err := c.conn.Send(ctx, connection.Request{
		Method:   connection.MethodGet,
		Template: getTemplate,
		Params: map[string]string{
			"TicketID": url.PathEscape(id),
			"params":   opts.values().Encode(),
		},
	})
	if err != nil {
		return nil, err
	}

	list, _ := payload["Ticket"].([]any)
	if len(list) == 0 {
		return nil, apierrors.New(apierrors.KindProtocolError, "TicketGet %s: reply has no Ticket", id)
	}
	rec, ok := list[0].(map[string]any)
	if !ok {
		return nil, apierrors.New(apierrors.KindProtocolError, "TicketGet %s: Ticket[0] is %T", id, list[0])
	}
	return ticket.FromWire(rec)
}

// TicketCreate creates t with its first article a. extra carries further
// top level request members; the computed members take precedence.
func (c *Client) TicketCreate(ctx context.Context, t *ticket.Ticket, a *ticket.Article, extra map[string]any) (*Result, error) {
	if t == nil {
		return nil, apierrors.New(apierrors.KindInvalidArgument, "TicketCreate: ticket is nil")
	}
	if a == nil {
		return nil, apierrors.New(apierrors.KindInvalidArgument, "TicketCreate: article is nil")
	}

	body := requestBody(t, a, false, extra)
	body["Ticket"] = t.Map(ticket.WireOptions{DynamicFields: true})

	payload, err := c.conn.Send(ctx, connection.Request{
		Method:   connection.MethodPost,
		Template: createTemplate,
		Body:     body,
	})
	if err != nil {
		return nil, err
	}
	return newResult(payload), nil
}

// TicketUpdate changes ticket id. a may be nil; only dynamic fields with a
// value are sent.
func (c *Client) TicketUpdate(ctx context.Context, id string, t *ticket.Ticket, a *ticket.Article, extra map[string]any) (*Result, error) {
	if id == "" {
		return nil, apierrors.New(apierrors.KindInvalidArgument, "TicketUpdate: ticket id is empty")
	}
	if t == nil {
		return nil, apierrors.New(apierrors.KindInvalidArgument, "TicketUpdate: ticket is nil")
	}

	body := requestBody(t, a, true, extra)
	body["Ticket"] = t.Map(ticket.WireOptions{})

	payload, err := c.conn.Send(ctx, connection.Request{
		Method:   connection.MethodPatch,
		Template: updateTemplate,
		Params:   map[string]string{"TicketID": url.PathEscape(id)},
		Body:     body,
	})
	if err != nil {
		return nil, err
	}
	return newResult(payload), nil
}

func requestBody(t *ticket.Ticket, a *ticket.Article, notNull bool, extra map[string]any) map[string]any {
	body := make(map[string]any, len(extra)+4)
	for k, v := range extra {
		body[k] = v
	}
	if a != nil {
		body["Article"] = a.Fields()
	}
	if dyn := t.DynamicFields(notNull); len(dyn) > 0 {
		body["DynamicField"] = dyn
	}
	if att := t.Attachments(); len(att) > 0 {
		body["Attachment"] = att
	}
	return body
}
