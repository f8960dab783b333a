package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// registerPWARoutes registers the PWA support files. The manifest and
// service worker are served from root paths so the service worker scope
// covers the whole application, and with no-cache headers since their
// names are fixed rather than content-hashed.
func (s *Server) registerPWARoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-cache")
		return c.HTML(http.StatusOK, indexHTML)
	})

	s.echo.GET("/manifest.webmanifest", func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-cache")
		return c.JSON(http.StatusOK, webManifest)
	})

	s.echo.GET("/sw.js", func(c echo.Context) error {
		c.Response().Header().Set("Service-Worker-Allowed", "/")
		c.Response().Header().Set("Cache-Control", "no-cache")
		return c.Blob(http.StatusOK, "application/javascript", []byte(serviceWorkerJS))
	})
}

// webManifest describes the app to the browser's install prompt.
var webManifest = map[string]any{
	"name":             "CeritaKita",
	"short_name":       "CeritaKita",
	"start_url":        "/",
	"display":          "standalone",
	"background_color": "#ffffff",
	"theme_color":      "#1f6feb",
	"description":      "Browse and share stories, online or offline.",
}

// serviceWorkerJS is a minimal pass-through worker. Offline behavior
// lives server-side in the story cache, so the worker only needs to
// exist for installability.
const serviceWorkerJS = `self.addEventListener('install', () => self.skipWaiting());
self.addEventListener('activate', (event) => event.waitUntil(self.clients.claim()));
`

// indexHTML is the single-page shell: it renders the listing from the
// local API and wires the save/delete buttons.
const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="manifest" href="/manifest.webmanifest">
<title>CeritaKita</title>
<style>
body { font-family: sans-serif; max-width: 40rem; margin: 2rem auto; padding: 0 1rem; }
article { border-bottom: 1px solid #ddd; padding: 1rem 0; }
img { max-width: 100%; border-radius: 4px; }
.error { color: #b00020; }
</style>
</head>
<body>
<h1>CeritaKita</h1>
<nav><a href="#" id="all">All stories</a> · <a href="#" id="saved">Saved</a></nav>
<div id="status"></div>
<main id="stories"></main>
<script>
if ('serviceWorker' in navigator) navigator.serviceWorker.register('/sw.js');
const statusEl = document.getElementById('status');
const listEl = document.getElementById('stories');
async function load(path) {
  statusEl.textContent = 'Loading…';
  try {
    const res = await fetch(path);
    const data = await res.json();
    if (data.error) { statusEl.innerHTML = '<p class="error">' + data.message + '</p>'; listEl.innerHTML = ''; return; }
    statusEl.textContent = '';
    const saved = new Set(data.savedIds);
    listEl.innerHTML = data.listStory.map(s =>
      '<article><h2>' + s.name + '</h2>' +
      (s.photoUrl ? '<img src="' + s.photoUrl + '" alt="">' : '') +
      '<p>' + s.description + '</p>' +
      '<small>' + new Date(s.createdAt).toLocaleString() + (s.lat != null ? ' · ' + s.lat + ', ' + s.lon : ' · no location') + '</small><br>' +
      '<button data-id="' + s.id + '" data-saved="' + saved.has(s.id) + '">' + (saved.has(s.id) ? 'Remove offline copy' : 'Save for offline') + '</button>' +
      '</article>').join('');
  } catch (err) {
    statusEl.innerHTML = '<p class="error">' + err.message + '</p>';
  }
}
listEl.addEventListener('click', async (e) => {
  const btn = e.target.closest('button[data-id]');
  if (!btn) return;
  const id = btn.dataset.id;
  const wasSaved = btn.dataset.saved === 'true';
  const res = await fetch('/api/stories/' + id + '/save', { method: wasSaved ? 'DELETE' : 'POST' });
  const data = await res.json();
  statusEl.textContent = data.message;
  if (!data.error) { btn.dataset.saved = String(!wasSaved); btn.textContent = wasSaved ? 'Save for offline' : 'Remove offline copy'; }
});
document.getElementById('all').onclick = (e) => { e.preventDefault(); load('/api/stories'); };
document.getElementById('saved').onclick = (e) => { e.preventDefault(); load('/api/saved'); };
load('/api/stories');
</script>
</body>
</html>`
