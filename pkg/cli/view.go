package cli

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/mchmarny/riskctl/pkg/config"
	"github.com/mchmarny/riskctl/pkg/risk"
)

const (
	themeParam  = "theme"
	themeCookie = "riskctl_theme"
	maxFormSize = 1 << 16
)

// pageOptions is the per-request UI configuration passed to the template.
type pageOptions struct {
	Theme string
}

// resolvePageOptions picks the theme from the query string, then the cookie,
// then the configured default. A theme from the query is remembered in a
// cookie for the browser session.
func resolvePageOptions(w http.ResponseWriter, r *http.Request, defaultTheme string) pageOptions {
	if v := r.URL.Query().Get(themeParam); v != "" {
		if theme, ok := config.ParseTheme(v); ok {
			http.SetCookie(w, &http.Cookie{
				Name:     themeCookie,
				Value:    theme,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			return pageOptions{Theme: theme}
		}
	}
	if c, err := r.Cookie(themeCookie); err == nil {
		if theme, ok := config.ParseTheme(c.Value); ok {
			return pageOptions{Theme: theme}
		}
	}
	theme, _ := config.ParseTheme(defaultTheme)
	return pageOptions{Theme: theme}
}

type pageData struct {
	Version        string
	Commit         string
	BuildDate      string
	RequestID      string
	Options        pageOptions
	Themes         []string
	Form           formValues
	Ratio          string
	ResidenceTypes []string
	LoanPurposes   []string
	LoanTypes      []string
	Result         *risk.Display
	Message        string
	Error          string
	FieldErrors    []risk.FieldError
}

func newPageData(r *http.Request, opts pageOptions, form formValues) *pageData {
	return &pageData{
		Version:        version,
		Commit:         commit,
		BuildDate:      date,
		RequestID:      requestID(r.Context()),
		Options:        opts,
		Themes:         []string{config.ThemeDark, config.ThemeLight},
		Form:           form,
		Ratio:          form.ratio(),
		ResidenceTypes: enumOptions(risk.ResidenceTypes),
		LoanPurposes:   enumOptions(risk.LoanPurposes),
		LoanTypes:      enumOptions(risk.LoanTypes),
	}
}

func faviconHandler(w http.ResponseWriter, r *http.Request) {
	file, err := embedFS.ReadFile("assets/img/favicon.svg")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err = w.Write(file); err != nil {
		slog.Error("failed to write favicon", "error", err)
	}
}

func homeViewHandler(tmpl *template.Template, defaultTheme string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := resolvePageOptions(w, r, defaultTheme)
		render(w, tmpl, newPageData(r, opts, defaultFormValues()), http.StatusOK)
	}
}

func assessViewHandler(tmpl *template.Template, scorer risk.Scorer, defaultTheme string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := resolvePageOptions(w, r, defaultTheme)

		r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
		if err := r.ParseForm(); err != nil {
			slog.Warn("invalid form submission", "error", err)
			d := newPageData(r, opts, defaultFormValues())
			d.Error = risk.MsgIncomplete
			render(w, tmpl, d, http.StatusBadRequest)
			return
		}

		form := readFormValues(r)
		d := newPageData(r, opts, form)

		a, err := form.assess(scorer)
		if err != nil {
			d.Error = risk.UserMessage(err)
			status := http.StatusUnprocessableEntity

			var ve *risk.ValidationError
			if errors.As(err, &ve) {
				d.FieldErrors = ve.Fields
				slog.Debug("application rejected", "fields", len(ve.Fields), "request_id", d.RequestID)
			} else {
				status = http.StatusBadGateway
				slog.Error("scoring failed", "error", err, "request_id", d.RequestID)
			}
			render(w, tmpl, d, status)
			return
		}

		display := risk.Format(*a)
		d.Result = &display
		d.Message = risk.MsgComplete
		slog.Info("risk assessed", "score", a.CreditScore, "rating", a.Rating, "request_id", d.RequestID)
		render(w, tmpl, d, http.StatusOK)
	}
}

func render(w http.ResponseWriter, tmpl *template.Template, d *pageData, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "home", d); err != nil {
		slog.Error("template render failed", "error", err)
	}
}
