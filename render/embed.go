package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	chartrender "github.com/go-echarts/go-echarts/v2/render"
)

// ============================================================================
// EMBED RENDERER — chart fragment instead of a full page
// ============================================================================
// The stock go-echarts renderer emits a standalone HTML page with its own
// <head> and script tags. The panel composes its own page, so charts render
// through this fragment template instead: one container div plus the init
// script. The page (or the embedding host) is responsible for loading the
// echarts library before the fragment runs.
// ============================================================================

const chartTpl = `<div class="spiderviz-chart">
  <div class="item" id="{{ .ChartID }}" style="width:{{ .Initialization.Width }};height:{{ .Initialization.Height }};"></div>
</div>
<script type="text/javascript">
"use strict";
let goecharts_{{ .ChartID | safeJS }} = echarts.init(document.getElementById('{{ .ChartID | safeJS }}'));
let option_{{ .ChartID | safeJS }} = {{ .JSONNotEscaped | safeJS }};
goecharts_{{ .ChartID | safeJS }}.setOption(option_{{ .ChartID | safeJS }});
</script>
`

type embedRender struct {
	c      interface{}
	before []func()
}

func newEmbedRender(c interface{}, before ...func()) chartrender.Renderer {
	return &embedRender{c: c, before: before}
}

func (r *embedRender) Render(w io.Writer) error {
	for _, fn := range r.before {
		fn()
	}

	tpl := template.Must(template.New("chart").
		Funcs(template.FuncMap{
			"safeJS": func(s interface{}) template.JS {
				return template.JS(fmt.Sprint(s))
			},
		}).
		Parse(chartTpl))

	return tpl.ExecuteTemplate(w, "chart", r.c)
}

func (r *embedRender) RenderContent() []byte {
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}

func (r *embedRender) RenderSnippet() chartrender.ChartSnippet {
	return chartrender.ChartSnippet{Element: string(r.RenderContent())}
}
