package main

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/goatkit/otrsclient/internal/config"
)

func (a *app) print(w io.Writer, v any) error {
	if a.settings.Output == config.OutputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
