package panel

import "html/template"

// ============================================================================
// PAGE — the panel's own page around the chart fragment
// ============================================================================
// The fragment is inlined server-side; the page's only script work is the
// live reload. Hosts that want tighter control skip this page and consume
// /chart or /datasets.json directly.
// ============================================================================

type pageData struct {
	Title    string
	Head     template.HTML
	Fragment template.HTML
	Caption  string
	Note     string
	Version  uint64
}

var pageTpl = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
<script src="` + scriptHref + `"></script>
{{ .Head }}
</head>
<body>
<div class="spiderviz-panel">
  <div class="spiderviz-caption">{{ .Caption }}</div>
  {{ .Fragment }}
  {{ if .Note }}<div class="spiderviz-note">{{ .Note }}</div>{{ end }}
</div>
<script>
(function () {
  var shown = {{ .Version }};
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/live");
    ws.onmessage = function (ev) {
      var update = JSON.parse(ev.data);
      if (update.version !== shown) {
        location.reload();
      }
    };
    ws.onclose = function () { setTimeout(connect, 2000); };
  }
  connect();
})();
</script>
</body>
</html>
`
