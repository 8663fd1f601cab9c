package main

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gnemet/quicktable"
	"github.com/gnemet/quicktable/database/rowsource"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Application struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Author  string `yaml:"author"`
	} `yaml:"application"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database []struct {
		Name     string `yaml:"name"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		Schema   string `yaml:"schema"`
		Default  bool   `yaml:"default"`
	} `yaml:"database"`
	Catalog struct {
		Path     string `yaml:"path"`
		Timezone string `yaml:"timezone"`
	} `yaml:"catalog"`
	CursorPool struct {
		MaxConnections int    `yaml:"max_connections"`
		IdleTimeout    string `yaml:"idle_timeout"`
		AbsTimeout     string `yaml:"abs_timeout"`
		PageSize       int    `yaml:"page_size"`
	} `yaml:"cursorpool"`
}

func loadConfig(path string) (*Config, error) {
	_ = godotenv.Load() // Ignore error as it might not exist in prod

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) connString() (string, error) {
	for _, d := range c.Database {
		if d.Default {
			return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable search_path=%s,public",
				d.Host, d.Port, d.User, d.Password, d.Database, d.Schema), nil
		}
	}
	return "", fmt.Errorf("no default database configured")
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/4.7.0/css/font-awesome.min.css">
    <style>
        body { font-family: sans-serif; padding: 20px; background: #f4f4f9; }
        table { border-collapse: collapse; width: 100%; background: white; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; white-space: nowrap; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <nav>{{range .Tables}}<a href="/t/{{.}}">{{.}}</a> {{end}}</nav>
    {{.Table}}
    <footer>{{.App}}</footer>
</body>
</html>
`))

type pageData struct {
	Title  string
	Tables []string
	Table  template.HTML
	App    string
}

func main() {
	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	cat, err := quicktable.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		slog.Error("Failed to load catalog", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}
	if cfg.Catalog.Timezone != "" {
		cat.Timezone = cfg.Catalog.Timezone
	}

	connStr, err := cfg.connString()
	if err != nil {
		slog.Error("Invalid database config", "error", err)
		os.Exit(1)
	}

	maxConns := cfg.CursorPool.MaxConnections
	if maxConns <= 0 {
		maxConns = 10
	}
	src, err := rowsource.Open(context.Background(), connStr, rowsource.Options{
		MaxConns:    maxConns,
		IdleTimeout: parseDuration(cfg.CursorPool.IdleTimeout, 5*time.Minute),
		MaxAge:      parseDuration(cfg.CursorPool.AbsTimeout, time.Hour),
	})
	if err != nil {
		slog.Error("Failed to open row source", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	tables := make([]string, 0, len(cat.Tables))
	for _, t := range cat.Tables {
		tables = append(tables, t.Name)
	}
	app := fmt.Sprintf("%s %s by %s", cfg.Application.Name, cfg.Application.Version, cfg.Application.Author)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/t/"+tables[0], http.StatusFound)
	})

	mux.HandleFunc("GET /t/{name}", func(w http.ResponseWriter, r *http.Request) {
		h := quicktable.NewHandler(src, cat, r.PathValue("name"))
		def, err := cat.Table(h.Table)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		out, err := h.Render(r.Context(), r.URL.Path, r.URL, h.ParseParams(r, def))
		if err != nil {
			slog.Error("Failed to render table", "table", def.Name, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writePage(w, def, tables, out, app)
	})

	// Cursor mode: pages are fetched from a scroll cursor kept per browser session
	mux.HandleFunc("GET /cursor/{name}", func(w http.ResponseWriter, r *http.Request) {
		def, err := cat.Table(r.PathValue("name"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		sid := sessionID(w, r)

		sorter, err := cat.Resolve(r.URL.Path, r.URL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		qt, err := cat.QuickTable(sorter, def.Name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		h := quicktable.NewHandler(src, cat, def.Name)
		query, err := h.BuildQuery(def, sorter, quicktable.RequestParams{})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		pageSize := cfg.CursorPool.PageSize
		if pageSize <= 0 {
			pageSize = 10
		}
		page := rowsource.ParsePage(r.URL.Query().Get("page"))
		rows, err := src.Page(r.Context(), sid+":"+def.Name, query, page, pageSize)
		if err != nil {
			slog.Error("Failed to fetch page", "table", def.Name, "session", sid, "page", page, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		out, err := qt.Table(rows, def.Attr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writePage(w, def, tables, out+pager(r), app)
	})

	slog.Info("Server starting", "url", "http://localhost:"+cfg.Server.Port, "catalog", cfg.Catalog.Path)
	if err := http.ListenAndServe(":"+cfg.Server.Port, mux); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// pager links keep the current sort parameters
func pager(r *http.Request) string {
	var b strings.Builder
	b.WriteString(`<p class="pager">`)
	for _, p := range []rowsource.Page{rowsource.First, rowsource.Prior, rowsource.Next, rowsource.Last} {
		q := r.URL.Query()
		q.Set("page", strings.ToLower(string(p)))
		fmt.Fprintf(&b, `<a href="%s">%s</a> `, template.HTMLEscapeString(r.URL.Path+"?"+q.Encode()), strings.ToLower(string(p)))
	}
	b.WriteString("</p>")
	return b.String()
}

func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("qt_session"); err == nil && c.Value != "" {
		return c.Value
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "qt_session", Value: sid, Path: "/", HttpOnly: true})
	return sid
}

func writePage(w http.ResponseWriter, def *quicktable.TableDef, tables []string, table, app string) {
	title := def.Title
	if title == "" {
		title = def.Name
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, pageData{
		Title:  title,
		Tables: tables,
		Table:  template.HTML(table),
		App:    app,
	}); err != nil {
		slog.Error("Failed to write page", "error", err)
	}
}
