// admin.go - privacy-conscious visitor tracking and the admin dashboard
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Privacy-conscious visitor tracking struct
type VisitorMetric struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"` // Hashed instead of raw IP for privacy
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type LabStat struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Views       int64     `json:"views"`
	FirstViewed time.Time `json:"first_viewed"`
	LastViewed  time.Time `json:"last_viewed"`
}

type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	TotalLabs        int64           `json:"total_labs"`
	TotalLabViews    int64           `json:"total_lab_views"`
	TopLabs          []LabStat       `json:"top_labs"`
	RecentVisitors   []VisitorMetric `json:"recent_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
}

var adminToken string
var hashingSalt string

// Initialize admin system with privacy considerations
func initAdminToken() {
	adminToken = generateAdminToken()
	hashingSalt = generateAdminToken() // Use for IP hashing

	log.Printf("Admin access available at: /admin/login")
	if gin.Mode() == gin.DebugMode {
		log.Printf("Admin token (dev only): %s", adminToken)
	}
}

func generateAdminToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate admin token:", err)
	}
	return hex.EncodeToString(bytes)
}

// Hash IP address for privacy compliance (consistent per IP)
func hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + hashingSalt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("admin_token")
		if err != nil || adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Paths that never count as a visit
var untrackedPrefixes = []string{"/static/", "/admin/", "/reveal/", "/loader", "/transition", "/favicon", "/privacy", "/healthz"}

func visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		go trackVisitorPrivacy(c.ClientIP(), c.GetHeader("User-Agent"), path)
		c.Next()
	}
}

func trackVisitorPrivacy(ip, userAgent, path string) {
	if db == nil {
		return
	}
	_, err := db.Exec(`INSERT INTO visitors (hashed_ip, user_agent, path) VALUES (?, ?, ?)`,
		hashIP(ip), userAgent, path)
	if err != nil {
		log.Printf("Error recording visitor: %v", err)
	}
}

// recordLabView bumps the view counter for a lab page
func recordLabView(slug string) error {
	if db == nil {
		return nil
	}
	_, err := db.Exec(`
		INSERT INTO lab_views (slug, views) VALUES (?, 1)
		ON CONFLICT(slug) DO UPDATE SET views = views + 1, last_viewed = CURRENT_TIMESTAMP
	`, slug)
	if err != nil {
		return fmt.Errorf("record lab view %s: %w", slug, err)
	}
	return nil
}

// Cleanup old visitor data for privacy compliance
func cleanupOldVisitorData() {
	result, err := db.Exec(`DELETE FROM visitors WHERE timestamp < datetime('now', '-12 months')`)
	if err != nil {
		log.Printf("Error cleaning up old visitor data: %v", err)
		return
	}

	rowsDeleted, _ := result.RowsAffected()
	if rowsDeleted > 0 {
		log.Printf("Privacy cleanup: Removed %d visitor records older than 12 months", rowsDeleted)
	}
}

func queryLabStats(limit int) ([]LabStat, error) {
	rows, err := db.Query(`
		SELECT slug, views, first_viewed, last_viewed
		FROM lab_views
		ORDER BY views DESC, last_viewed DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query lab stats: %w", err)
	}
	defer rows.Close()

	content := site.Get()
	var stats []LabStat
	for rows.Next() {
		var s LabStat
		if err := rows.Scan(&s.Slug, &s.Views, &s.FirstViewed, &s.LastViewed); err != nil {
			continue
		}
		if content != nil {
			if p, ok := content.Project(s.Slug); ok {
				s.Name = p.Name
			}
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func queryVisitors(limit int) ([]VisitorMetric, error) {
	rows, err := db.Query(`
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query visitors: %w", err)
	}
	defer rows.Close()

	var visitors []VisitorMetric
	for rows.Next() {
		var v VisitorMetric
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			continue
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

func getAdminStats() (*AdminStats, error) {
	stats := &AdminStats{}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM visitors", &stats.TotalVisitors},
		{"SELECT COUNT(DISTINCT hashed_ip) FROM visitors", &stats.UniqueVisitors},
		{"SELECT COUNT(*) FROM lab_views", &stats.TotalLabs},
		{"SELECT COALESCE(SUM(views), 0) FROM lab_views", &stats.TotalLabViews},
		{"SELECT COUNT(*) FROM visitors WHERE DATE(timestamp) = DATE('now')", &stats.VisitorsToday},
		{"SELECT COUNT(*) FROM visitors WHERE timestamp >= datetime('now', '-7 days')", &stats.VisitorsThisWeek},
	}
	for _, q := range counts {
		if err := db.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("admin stats: %w", err)
		}
	}

	var err error
	if stats.TopLabs, err = queryLabStats(10); err != nil {
		return nil, err
	}
	if stats.RecentVisitors, err = queryVisitors(50); err != nil {
		return nil, err
	}
	return stats, nil
}

func adminCredentials() (string, string) {
	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	// Default credentials for development (remove in production)
	if adminUsername == "" {
		adminUsername = "admin"
		if gin.Mode() == gin.DebugMode {
			log.Println("WARNING: Using default admin username. Set ADMIN_USERNAME environment variable.")
		}
	}
	if adminPassword == "" {
		adminPassword = "admin123"
		if gin.Mode() == gin.DebugMode {
			log.Println("WARNING: Using default admin password. Set ADMIN_PASSWORD environment variable.")
		}
	}
	return adminUsername, adminPassword
}

func setupAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")
		adminUsername, adminPassword := adminCredentials()

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(adminUsername)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(adminPassword)) == 1
		if userOK && passOK {
			// Set secure cookie (24 hours)
			c.SetCookie("admin_token", adminToken, 3600*24, "/admin", "", false, true)
			log.Printf("Admin login successful from %s", hashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}

		log.Printf("Failed admin login attempt from %s", hashIP(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		log.Printf("Admin logout from %s", hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(adminAuthMiddleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := getAdminStats()
		if err != nil {
			log.Printf("Error loading admin stats: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"title": "Error",
				"error": "Failed to load statistics",
			})
			return
		}

		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"title": "Dashboard",
			"stats": stats,
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := getAdminStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/labs", func(c *gin.Context) {
		labs, err := queryLabStats(-1)
		if err != nil {
			log.Printf("Error loading lab stats: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"title": "Error",
				"error": "Failed to load labs",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-labs.html", gin.H{
			"title": "Labs",
			"labs":  labs,
		})
	})

	adminGroup.GET("/visitors", func(c *gin.Context) {
		visitors, err := queryVisitors(200)
		if err != nil {
			log.Printf("Error loading visitors: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"title": "Error",
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"title":    "Visitors",
			"visitors": visitors,
		})
	})

	// Reset the counter for one lab
	adminGroup.DELETE("/labs/:slug", func(c *gin.Context) {
		slug := c.Param("slug")

		result, err := db.Exec("DELETE FROM lab_views WHERE slug = ?", slug)
		if err != nil {
			log.Printf("Error resetting lab %s: %v", slug, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset lab"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Lab not found"})
			return
		}

		log.Printf("Lab %s views reset by admin from %s", slug, hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, gin.H{"message": "Lab views reset"})
	})

	adminGroup.POST("/privacy/cleanup", func(c *gin.Context) {
		go cleanupOldVisitorData()
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup initiated"})
	})

	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := getAdminStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		log.Printf("Admin stats exported by %s", hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
