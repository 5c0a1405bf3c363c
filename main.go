package main

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/reveal"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Labs and skills are laid out in columns of this size
const columnSize = 7

func main() {
	if ms, err := strconv.Atoi(os.Getenv("FRAME_INTERVAL_MS")); err == nil && ms > 0 {
		frameInterval = time.Duration(ms) * time.Millisecond
	}

	if err := site.Load(os.Getenv("CONTENT_PATH")); err != nil {
		log.Fatal("Failed to load content:", err)
	}
	if err := site.Watch(); err != nil {
		log.Printf("Content hot reload disabled: %v", err)
	}
	defer site.Close()

	var err error
	presets, err = parsePresets(defaultPresets)
	if err != nil {
		log.Fatal("Failed to load presets:", err)
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "folio.db"
	}
	db, err = openDB(dbPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()
	if err := initSchema(db); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	log.Println("Privacy: Visitor tracking enabled with hashed IP addresses")

	initAdminToken()
	go cleanupOldVisitorData()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := newRouter().Run(":" + port); err != nil {
		log.Fatal("Server stopped:", err)
	}
}

func newRouter() *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(loadTemplates())

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatal("Failed to mount static files:", err)
	}
	r.StaticFS("/static", http.FS(static))

	r.Use(visitorTrackingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Landing page
	r.GET("/", func(c *gin.Context) {
		content := site.Get()
		greeting := rand.IntN(len(content.Greetings))

		c.HTML(http.StatusOK, "index.html", gin.H{
			"title":         "Home",
			"greeting":      content.Greetings[greeting],
			"greetingIndex": greeting,
			"info":          content.Info,
			"projectCols":   columns(content.Projects, columnSize),
			"skillCols":     columns(content.Skills, columnSize),
			"contacts":      content.Contacts,
		})
	})

	// Lab pages reuse the loader and transition chrome
	r.GET("/labs/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		content := site.Get()
		project, found := content.Project(slug)
		prev, next := content.Neighbors(slug)

		if found {
			if err := recordLabView(slug); err != nil {
				log.Printf("Error recording lab view: %v", err)
			}
		}

		c.HTML(http.StatusOK, "lab.html", gin.H{
			"title":   project.Name,
			"project": project,
			"found":   found,
			"prev":    prev,
			"next":    next,
		})
	})

	setupStreamRoutes(r)
	setupAdminRoutes(r)
	return r
}

func loadTemplates() *template.Template {
	funcs := template.FuncMap{
		// content is sanitized on load
		"markup":      func(s string) template.HTML { return template.HTML(s) },
		"placeholder": placeholder,
		"index3": func(id string) int {
			n, _ := strconv.Atoi(id)
			return n
		},
		"comma": humanize.Comma,
		"ago":   humanize.Time,
		"upper": strings.ToUpper,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// placeholder is the random symbol text shown before a reveal starts
func placeholder(markup string) string {
	n := len(reveal.Tokenize(markup).Queue)
	glyphs := []rune(reveal.SymbolAlphabet)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(glyphs[rand.IntN(len(glyphs))])
	}
	return b.String()
}

func columns[T any](items []T, size int) [][]T {
	var cols [][]T
	for len(items) > size {
		cols = append(cols, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		cols = append(cols, items)
	}
	return cols
}
