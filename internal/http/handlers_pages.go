package httpx

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
)

// pageTemplate is the minimal shell for the guarded pages this service
// serves directly. The full application frontend lives elsewhere; these
// pages exist so the guard and session resolution have real destinations.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - PantryKit</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 40px 20px; background: #f7f4ef; color: #2d2a26; }
        .page { max-width: 640px; margin: 0 auto; background: #fff; border-radius: 8px; padding: 40px; box-shadow: 0 2px 8px rgba(0,0,0,0.08); }
        h1 { font-size: 22px; margin: 0 0 12px; }
        p { color: #6b655d; line-height: 1.5; }
        .who { font-size: 14px; color: #8a8378; margin-top: 24px; }
    </style>
</head>
<body>
    <div class="page">
        <h1>{{.Title}}</h1>
        <p>{{.Body}}</p>
        {{if .User}}<p class="who">Signed in as {{.User.Fullname}} ({{.User.Role}})</p>{{end}}
    </div>
</body>
</html>
`))

type pageData struct {
	Title string
	Body  string
	User  *domainauth.User
}

// PageHandlers serves the HTML destinations gated by the navigation guard.
type PageHandlers struct {
	Logger *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Home handles the landing page.
// GET /.
func (h *PageHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{
		Title: "PantryKit",
		Body:  "Recipes, inventory, and kitchen statistics in one place.",
	})
}

// Recipes handles the recipe workspace page. The route is registered
// behind the recipe resource guard, so only chefs reach this handler.
// GET /recipes.
func (h *PageHandlers) Recipes(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{
		Title: "Your Recipes",
		Body:  "Recipes you have authored.",
	})
}

// InventoryDashboard handles the shared inventory page. The route is
// registered behind the inventory resource guard.
// GET /inventory-dashboard.
func (h *PageHandlers) InventoryDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{
		Title: "Inventory Dashboard",
		Body:  "Current pantry stock across the kitchen.",
	})
}

// UserHome handles a user's personal dashboard, the destination of the
// error page's return link when a user ID is recoverable.
// GET /u/{id}.
func (h *PageHandlers) UserHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{
		Title: "Your Dashboard",
		Body:  "Your recent activity and shortcuts.",
	})
}

// render fills the shared page shell, adding the signed-in user when the
// session middleware resolved one.
func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, data pageData) {
	if session := GetUserSessionFromContext(r.Context()); session != nil {
		u := session.User()
		data.User = &u
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger().ErrorContext(r.Context(), "rendering page failed", "error", err, "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger().WarnContext(r.Context(), "writing page failed", "error", err)
	}
}
