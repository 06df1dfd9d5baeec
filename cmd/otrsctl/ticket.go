package main

import (
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goatkit/otrsclient/pkg/otrs"
	"github.com/goatkit/otrsclient/pkg/ticket"
)

// ticketFile is the input of ticket create and ticket update. JSON files
// parse as well, being valid YAML.
type ticketFile struct {
	Ticket        map[string]any `yaml:"ticket"`
	Article       map[string]any `yaml:"article"`
	DynamicFields map[string]any `yaml:"dynamic_fields"`
	Attachments   []string       `yaml:"attachments"`
	Extra         map[string]any `yaml:"extra"`
}

func newTicketCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Search, show, create and update tickets",
	}
	cmd.AddCommand(
		newTicketSearchCmd(a),
		newTicketGetCmd(a),
		newTicketCreateCmd(a),
		newTicketUpdateCmd(a),
	)
	return cmd
}

func newTicketSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search KEY=VALUE...",
		Short: "Print the ids of matching tickets",
		Example: `  otrsctl ticket search Title=%printer% Queues=Raw
  otrsctl ticket search StateType=open StateType=new`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			for _, arg := range args {
				k, v, ok := strings.Cut(arg, "=")
				if !ok || k == "" {
					return usageError("search criterion %q is not KEY=VALUE", arg)
				}
				query.Add(k, v)
			}

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := client.TicketSearch(cmd.Context(), query)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), ids)
		},
	}
}

func newTicketGetCmd(a *app) *cobra.Command {
	opts := otrs.FullTicket
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			t, err := client.TicketGet(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), t.Map(ticket.WireOptions{Article: true, DynamicFields: true, Attachments: true}))
		},
	}
	cmd.Flags().BoolVar(&opts.Articles, "articles", true, "include the articles")
	cmd.Flags().BoolVar(&opts.DynamicFields, "dynamic-fields", true, "include dynamic fields")
	cmd.Flags().BoolVar(&opts.Attachments, "attachments", true, "include attachment contents")
	return cmd
}

func newTicketCreateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create --file FILE",
		Short: "Create a ticket with its first article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readTicketFile(file)
			if err != nil {
				return err
			}
			t, err := ticket.Create(in.Ticket)
			if err != nil {
				return err
			}
			if in.Article == nil {
				return usageError("%s: article is required", file)
			}
			art, err := ticket.NewArticle(in.Article)
			if err != nil {
				return err
			}
			if err := in.apply(t); err != nil {
				return err
			}

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res, err := client.TicketCreate(cmd.Context(), t, art, in.Extra)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON ticket file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTicketUpdateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update ID --file FILE",
		Short: "Update a ticket, optionally adding an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readTicketFile(file)
			if err != nil {
				return err
			}
			t := ticket.New(in.Ticket)
			var art *ticket.Article
			if in.Article != nil {
				if art, err = ticket.NewArticle(in.Article); err != nil {
					return err
				}
			}
			if err := in.apply(t); err != nil {
				return err
			}

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res, err := client.TicketUpdate(cmd.Context(), args[0], t, art, in.Extra)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON ticket file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readTicketFile(path string) (*ticketFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, usageError("read ticket file: %v", err)
	}
	var in ticketFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, usageError("parse %s: %v", path, err)
	}
	if in.Ticket == nil {
		in.Ticket = map[string]any{}
	}
	base := filepath.Dir(path)
	for i, p := range in.Attachments {
		if !filepath.IsAbs(p) {
			in.Attachments[i] = filepath.Join(base, p)
		}
	}
	return &in, nil
}

// apply adds the dynamic fields and attachments of the file to t.
func (in *ticketFile) apply(t *ticket.Ticket) error {
	for name, v := range in.DynamicFields {
		t.SetDynamicField(name, v)
	}
	for _, path := range in.Attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			return usageError("attachment: %v", err)
		}
		if err := t.AddAttachment(ticket.NewAttachment(filepath.Base(path), contentType(path, data), data)); err != nil {
			return err
		}
	}
	return nil
}

func contentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
