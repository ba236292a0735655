package public

import webtemplates "github.com/casanorte/casanorte/internal/services/web/templates"

var landingProjects = []string{"lakeside_exterior", "primary_suite", "utility_entry"}

func optionsFor(keyPrefix string, values []string) []webtemplates.Option {
	out := make([]webtemplates.Option, 0, len(values))
	for _, value := range values {
		out = append(out, webtemplates.Option{Value: value, LabelKey: keyPrefix + value})
	}
	return out
}
