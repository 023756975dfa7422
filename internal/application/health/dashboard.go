package health

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// RenderDashboardHTML renders the status page served at GET /.
func RenderDashboardHTML(h CollectResult) string {
	headline := "All Systems Operational"
	colour := "#00703c"
	if h.Status != "ok" {
		headline = "Degraded Service"
		colour = "#d4351c"
	}

	names := make([]string, 0, len(h.Dependencies))
	for name := range h.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows strings.Builder
	for _, name := range names {
		dep := h.Dependencies[name]
		latency := "-"
		if dep.PingMs != nil {
			latency = fmt.Sprintf("%d ms", *dep.PingMs)
		}
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(name), html.EscapeString(dep.Status), latency)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Data Hub API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    body { font-family: Arial, sans-serif; color: #0b0c0c; margin: 40px; }
    h1 { color: %s; }
    table { border-collapse: collapse; min-width: 420px; }
    td, th { border-bottom: 1px solid #b1b4b6; padding: 8px 12px; text-align: left; }
    .muted { color: #505a5f; }
  </style>
</head>
<body>
  <h1>%s</h1>
  <p class="muted">Uptime %ds &middot; %s &middot; %s</p>
  <h2>Traffic</h2>
  <p>%d requests, %s%% successful, average %v ms</p>
  <h2>Dependencies</h2>
  <table>
    <tr><th>Dependency</th><th>Status</th><th>Latency</th></tr>
%s  </table>
  <p class="muted"><a href="/health/json">/health/json</a> &middot; <a href="/health/errors">/health/errors</a></p>
</body>
</html>`,
		colour, headline, h.Runtime.UptimeSeconds, html.EscapeString(h.Runtime.Platform),
		html.EscapeString(h.Runtime.GoVersion), h.Traffic.TotalRequests, h.Traffic.SuccessRate,
		h.Traffic.AvgResponseTime, rows.String())
}
