package sounds

import (
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const listingTemplate = `{{- range $i, $p := .}}
{{- printf "%3d" $i}}  {{title $p.Patch.Name | printf "%-18s"}} {{toString $p.Patch.Wave | upper | printf "%-8s"}}
{{- if $p.Patch.Filter}} lowpass {{$p.Patch.Filter.Cutoff}}{{if $p.Patch.Filter.CutoffEnd}}..{{$p.Patch.Filter.CutoffEnd}}{{end}} Hz{{end}}
{{- if $p.User}} (user){{end}}
{{end}}`

// WriteListing writes a table of the presets with their program numbers.
func WriteListing(w io.Writer, presets Presets) error {
	funcs := sprig.TxtFuncMap()
	caser := cases.Title(language.English)
	funcs["title"] = caser.String
	tmpl, err := template.New("listing").Funcs(funcs).Parse(listingTemplate)
	if err != nil {
		return fmt.Errorf("could not parse listing template: %w", err)
	}
	if err := tmpl.Execute(w, presets); err != nil {
		return fmt.Errorf("could not execute listing template: %w", err)
	}
	return nil
}
