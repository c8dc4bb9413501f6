package mcp

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>WattSaver Energy Advisor</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #f0fdf4; color: #14532d; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
  .card { max-width: 640px; width: 90%; background: #ffffff; border-radius: 12px; padding: 2.5rem; box-shadow: 0 20px 40px rgba(20,83,45,0.15); }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; }
  .subtitle { color: #4d7c0f; margin-bottom: 1.75rem; }
  .section { margin-bottom: 1.5rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #65a30d; margin-bottom: 0.5rem; }
  pre { background: #ecfccb; border-radius: 8px; padding: 1rem; overflow-x: auto; font-size: 0.85rem; line-height: 1.5; }
  code, .endpoint { font-family: "SF Mono", "Fira Code", Menlo, monospace; }
  .endpoint { font-size: 0.9rem; color: #166534; }
</style>
</head>
<body>
<div class="card">
  <h1>WattSaver Energy Advisor</h1>
  <p class="subtitle">Household energy-saving answers grounded in a curated tips library, plus Climate Voucher eligibility checks.</p>

  <div class="section">
    <div class="section-title">Ask a question</div>
    <pre><code>curl -s -X POST localhost:8080/api/ask \
  -d '{"question": "How can I cut my air-conditioning bill?"}'</code></pre>
  </div>

  <div class="section">
    <div class="section-title">Endpoints</div>
    <p><span class="endpoint">POST /api/ask</span> &middot; energy advisor</p>
    <p><span class="endpoint">POST /api/products</span> &middot; Climate Voucher eligible products</p>
    <p><span class="endpoint">POST /api/vouchers</span> &middot; voucher eligibility</p>
    <p><a href="/mcp" class="endpoint">/mcp</a> &middot; MCP Streamable HTTP</p>
    <p><a href="/health" class="endpoint">/health</a> &middot; health check</p>
  </div>
</div>
</body>
</html>`

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingHTML))
	}
}
